package fileorama

import (
	"archive/zip"
	"bytes"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLocalFSLoad(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "hello.txt"), []byte("hi"), 0644); err != nil {
		t.Fatal(err)
	}

	r := New(1, 5)
	defer r.Close()
	r.AddIODriver(NewLocalFSDriver(""))

	_, ch := r.LoadURL(filepath.Join(dir, "hello.txt"))
	msg := recvWithTimeout(t, ch)
	if msg.Err != nil {
		t.Fatalf("unexpected error: %v", msg.Err)
	}
	if string(msg.Data) != "hi" {
		t.Fatalf("got %q, want %q", msg.Data, "hi")
	}
}

func TestLocalFSDirectoryListingSorted(t *testing.T) {
	dir := t.TempDir()
	for _, name := range []string{"b.txt", "a.txt", "c.txt"} {
		if err := os.WriteFile(filepath.Join(dir, name), nil, 0644); err != nil {
			t.Fatal(err)
		}
	}
	if err := os.Mkdir(filepath.Join(dir, "zsub"), 0755); err != nil {
		t.Fatal(err)
	}

	r := New(1, 5)
	defer r.Close()
	r.AddIODriver(NewLocalFSDriver(""))

	_, ch := r.LoadURL(dir)
	msg := recvWithTimeout(t, ch)
	if msg.Err != nil {
		t.Fatalf("unexpected error: %v", msg.Err)
	}
	if msg.Directory == nil {
		t.Fatal("expected directory listing")
	}
	want := []string{"a.txt", "b.txt", "c.txt"}
	if len(msg.Directory.Files) != len(want) {
		t.Fatalf("got files %v, want %v", msg.Directory.Files, want)
	}
	for i, f := range want {
		if msg.Directory.Files[i] != f {
			t.Fatalf("got files %v, want %v", msg.Directory.Files, want)
		}
	}
}

func TestZipArchiveNested(t *testing.T) {
	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	w, _ := zw.Create("sub/inner.txt")
	w.Write([]byte("archived"))
	zw.Close()

	dir := t.TempDir()
	zipPath := filepath.Join(dir, "pack.zip")
	if err := os.WriteFile(zipPath, buf.Bytes(), 0644); err != nil {
		t.Fatal(err)
	}

	r := New(1, 5)
	defer r.Close()
	r.AddIODriver(NewLocalFSDriver(""))
	r.AddMemoryDriver(&ZipDriver{})

	_, ch := r.LoadURL(zipPath + "/sub/inner.txt")
	msg := recvWithTimeout(t, ch)
	if msg.Err != nil {
		t.Fatalf("unexpected error: %v", msg.Err)
	}
	if string(msg.Data) != "archived" {
		t.Fatalf("got %q, want %q", msg.Data, "archived")
	}
}

func TestUnsupportedPath(t *testing.T) {
	r := New(1, 5)
	defer r.Close()
	r.AddIODriver(NewLocalFSDriver(""))

	_, ch := r.LoadURL("ftp://example.com/nope")
	msg := recvWithTimeout(t, ch)
	if msg.Err == nil {
		t.Fatal("expected UnsupportedPath error")
	}
}

func TestFIFOCacheEviction(t *testing.T) {
	c := newFIFOCache(2)
	c.put("a", []byte("1"))
	c.put("b", []byte("2"))
	c.put("c", []byte("3"))
	if _, ok := c.get("a"); ok {
		t.Fatal("expected a evicted")
	}
	if _, ok := c.get("b"); !ok {
		t.Fatal("expected b retained")
	}
	if _, ok := c.get("c"); !ok {
		t.Fatal("expected c retained")
	}
}

func recvWithTimeout(t *testing.T, ch <-chan Message) Message {
	t.Helper()
	select {
	case m := <-ch:
		return m
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for message")
		return Message{}
	}
}
