package job

import (
	"errors"
	"testing"
)

func TestScheduleAndGetResult(t *testing.T) {
	s := New(2)
	defer s.Close()

	h := s.Schedule(func() (any, error) { return 42, nil })
	v, err := GetTyped[int](h)
	if err != nil {
		t.Fatalf("GetTyped: %v", err)
	}
	if v != 42 {
		t.Fatalf("got %d, want 42", v)
	}
}

func TestJobError(t *testing.T) {
	s := New(1)
	defer s.Close()

	wantErr := errors.New("boom")
	h := s.Schedule(func() (any, error) { return nil, wantErr })
	_, err := GetTyped[int](h)
	if !errors.Is(err, wantErr) {
		t.Fatalf("got %v, want %v", err, wantErr)
	}
}

func TestDowncastError(t *testing.T) {
	s := New(1)
	defer s.Close()

	h := s.Schedule(func() (any, error) { return "a string", nil })
	_, err := GetTyped[int](h)
	var mismatch *ErrTypeMismatch
	if !errors.As(err, &mismatch) {
		t.Fatalf("expected ErrTypeMismatch, got %v", err)
	}
}

func TestTryGetResultNonBlocking(t *testing.T) {
	s := New(1)
	defer s.Close()

	block := make(chan struct{})
	h := s.Schedule(func() (any, error) {
		<-block
		return 1, nil
	})
	if _, _, ok := h.TryGetResult(); ok {
		t.Fatal("expected job still running")
	}
	close(block)
	v, err := GetTyped[int](h)
	if err != nil || v != 1 {
		t.Fatalf("got %d, %v", v, err)
	}
}

func TestManyJobsBoundedQueue(t *testing.T) {
	s := New(4)
	defer s.Close()

	handles := make([]*Handle, 0, 100)
	for i := 0; i < 100; i++ {
		i := i
		handles = append(handles, s.Schedule(func() (any, error) { return i * 2, nil }))
	}
	for i, h := range handles {
		v, err := GetTyped[int](h)
		if err != nil || v != i*2 {
			t.Fatalf("job %d: got %d, %v", i, v, err)
		}
	}
}
