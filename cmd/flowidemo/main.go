// Command flowidemo drives the flowi runtime for a fixed number of frames
// headlessly and writes the final packed sRGB frame to a PPM file, so the
// whole pipeline (§4.1-4.10) is exercised end to end without a platform
// window or event loop. Grounded on the teacher's cli.go (flag parsing) and
// main.go (logging setup, config load, then handing off to the
// long-running loop) shape, adapted from NoiseTorch's PulseAudio/X11 setup
// to a one-shot render-and-dump harness.
package main

import (
	"flag"
	"fmt"
	"log"
	"os"

	"github.com/flowi-go/flowi"
	"github.com/flowi-go/flowi/color"
	"github.com/flowi-go/flowi/layout"
	"github.com/flowi-go/flowi/raster"
)

var logger = log.New(os.Stderr, "flowidemo: ", log.LstdFlags)

func main() {
	width := flag.Int("width", 512, "output width in pixels")
	height := flag.Int("height", 512, "output height in pixels")
	frames := flag.Int("frames", 2, "number of frames to render before presenting")
	tileSize := flag.Int("tile-size", 128, "tile width/height in pixels")
	out := flag.String("out", "frame.ppm", "path to write the packed sRGB frame to")
	debugArena := flag.Bool("debug-arena", false, "enable the arena's use-after-rewind guard")
	flag.Parse()

	logger.Printf("starting: %dx%d, %d frame(s), tile size %d", *width, *height, *frames, *tileSize)

	cfg := flowi.DefaultConfig()
	cfg.TileSize = *tileSize

	renderer := raster.NewRenderer(*width, *height, cfg.TileSize)
	ui, err := flowi.New(renderer, cfg, *debugArena)
	if err != nil {
		logger.Fatalf("could not construct Ui: %v", err)
	}
	defer ui.Close()

	font := ui.LoadFont("", 13)

	for i := 0; i < *frames; i++ {
		ui.SetInput(float32(*width)/2, float32(*height)/2, i == *frames-1, false)
		ui.Begin(1.0/60.0, *width, *height)
		declareDemoUI(ui, font)
		ui.End()
	}

	info := ui.SoftwareRendererInfo()
	if err := writePPM(*out, info); err != nil {
		logger.Fatalf("could not write %s: %v", *out, err)
	}
	logger.Printf("wrote %s (%dx%d)", *out, info.Width, info.Height)
}

// declareDemoUI issues one frame's worth of layout declarations, exercising
// a rounded panel, text, and a rounded button (§6's
// with_layout/text/button).
func declareDemoUI(ui *flowi.Ui, font flowi.FontHandle) {
	ui.WithLayout(layout.Declaration{
		Name:            "panel",
		Size:            [2]layout.SizeConfig{{Kind: layout.SizePercent, Value: 0.6}, {Kind: layout.SizePercent, Value: 0.4}},
		CornerRadius:    layout.Corners{12, 12, 12, 12},
		BackgroundColor: color.Linear{R: color.One / 4, G: color.One / 4, B: color.One / 2, A: color.One},
		PaddingStart:    [2]float32{16, 16},
		PaddingEnd:      [2]float32{16, 16},
		ChildGap:        8,
		Direction:       layout.TopToBottom,
	}, func() {
		ui.Text("flowi demo", flowi.TextConfig{Font: font})
		ui.Button(layout.Declaration{
			Name:            "ok",
			Size:            [2]layout.SizeConfig{{Kind: layout.SizeFixed, Value: 96}, {Kind: layout.SizeFixed, Value: 28}},
			BackgroundColor: color.Linear{R: color.One / 3, G: color.One / 3, B: color.One / 3, A: color.One},
			CornerRadius:    layout.Corners{4, 4, 4, 4},
		})
	})
}

// writePPM dumps a packed RGB24 buffer as a binary PPM (P6) file — the
// simplest format that needs no external image-encoding dependency for a
// headless smoke-test harness.
func writePPM(path string, info raster.SoftwareRenderData) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()
	if _, err := fmt.Fprintf(f, "P6\n%d %d\n255\n", info.Width, info.Height); err != nil {
		return err
	}
	_, err = f.Write(info.Buffer)
	return err
}
