package decode

import (
	"testing"

	"github.com/flowi-go/flowi/color"
)

func solidImage(w, h int, c color.Linear) *Image {
	img := newImage(w, h, 1)
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.set(x, y, c)
		}
	}
	img.applyRepeatBorder()
	return img
}

func TestRepeatBorderClampsToEdge(t *testing.T) {
	red := color.Linear{R: color.One, A: color.One}
	img := solidImage(2, 2, red)
	if img.At(-1, -1) != red || img.At(2, 2) != red {
		t.Fatalf("expected border to repeat edge pixel")
	}
}

func TestScaleToTargetBilinearCornersExact(t *testing.T) {
	red := color.Linear{R: color.One, A: color.One}
	green := color.Linear{G: color.One, A: color.One}
	blue := color.Linear{B: color.One, A: color.One}
	white := color.Linear{R: color.One, G: color.One, B: color.One, A: color.One}

	src := newImage(2, 2, 1)
	src.set(0, 0, red)
	src.set(1, 0, green)
	src.set(0, 1, blue)
	src.set(1, 1, white)
	src.applyRepeatBorder()

	out := ScaleToTarget(src, 4, 4)
	cases := []struct {
		x, y int
		want color.Linear
	}{
		{0, 0, red},
		{3, 0, green},
		{0, 3, blue},
		{3, 3, white},
	}
	for _, c := range cases {
		got := out.At(c.x, c.y)
		if got != c.want {
			t.Fatalf("corner (%d,%d): got %+v, want %+v", c.x, c.y, got, c.want)
		}
	}
}

func TestScaleToTargetIntegerReplicatesBlocks(t *testing.T) {
	src := newImage(5, 5, 1)
	for y := 0; y < 5; y++ {
		for x := 0; x < 5; x++ {
			src.set(x, y, color.Linear{R: int16(x * 1000), G: int16(y * 1000), A: color.One})
		}
	}
	src.applyRepeatBorder()

	out := ScaleToTargetInteger(src, 20, 20, false)
	if out.Width != 20 || out.Height != 20 {
		t.Fatalf("got %dx%d, want 20x20", out.Width, out.Height)
	}
	for sy := 0; sy < 5; sy++ {
		for sx := 0; sx < 5; sx++ {
			want := out.At(sx*4, sy*4)
			for dy := 0; dy < 4; dy++ {
				for dx := 0; dx < 4; dx++ {
					got := out.At(sx*4+dx, sy*4+dy)
					if got != want {
						t.Fatalf("block (%d,%d) not uniform at offset (%d,%d): got %+v, want %+v", sx, sy, dx, dy, got, want)
					}
				}
			}
		}
	}
}

func TestFalloffClampsAtBottomEdge(t *testing.T) {
	c := color.Linear{R: color.One, G: color.One, B: color.One, A: color.One}
	out := applyFalloff(c, 10, 100, 20, 100)
	if out.R < 0 || out.G < 0 || out.B < 0 {
		t.Fatalf("falloff produced negative channel: %+v", out)
	}
}
