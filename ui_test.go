package flowi

import (
	"testing"

	"github.com/flowi-go/flowi/color"
	"github.com/flowi-go/flowi/command"
	"github.com/flowi-go/flowi/layout"
	"github.com/flowi-go/flowi/raster"
)

func testConfig() Config {
	cfg := DefaultConfig()
	cfg.ArenaReserve = 64 * 1024
	cfg.WorkerThreads = 1
	cfg.CacheSize = 2
	cfg.TileSize = 16
	return cfg
}

func newTestUi(t *testing.T, width, height int) *Ui {
	t.Helper()
	cfg := testConfig()
	renderer := raster.NewRenderer(width, height, cfg.TileSize)
	u, err := New(renderer, cfg, true)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	t.Cleanup(u.Close)
	return u
}

func declarePanel(u *Ui, font FontHandle) layout.Signal {
	var sig layout.Signal
	u.WithLayout(layout.Declaration{
		Name:            "panel",
		Size:            [2]layout.SizeConfig{{Kind: layout.SizeFixed, Value: 64}, {Kind: layout.SizeFixed, Value: 64}},
		BackgroundColor: color.Linear{R: color.One / 4, A: color.One},
		Direction:       layout.TopToBottom,
	}, func() {
		u.Text("hello", TextConfig{Font: font})
		sig = u.Button(layout.Declaration{
			Name: "ok",
			Size: [2]layout.SizeConfig{{Kind: layout.SizeFixed, Value: 32}, {Kind: layout.SizeFixed, Value: 16}},
		})
	})
	return sig
}

func TestBeginEndProducesCommands(t *testing.T) {
	u := newTestUi(t, 128, 128)
	font := u.LoadFont("", 13)

	u.SetInput(0, 0, false, false)
	u.Begin(1.0/60.0, 128, 128)
	declarePanel(u, font)
	u.End()

	cmds := u.Commands()
	if len(cmds) == 0 {
		t.Fatal("expected at least one command after End, got none")
	}
	foundRect := false
	for _, c := range cmds {
		if c.Kind == command.KindRect || c.Kind == command.KindRectRounded {
			foundRect = true
		}
	}
	if !foundRect {
		t.Fatal("expected the panel's background to produce a rect command")
	}
}

// countingRenderer wraps a *raster.Renderer so tests can observe how many
// times SetWindowSize was actually invoked.
type countingRenderer struct {
	*raster.Renderer
	resizes int
}

func (c *countingRenderer) SetWindowSize(width, height, tileSize int) {
	c.resizes++
	c.Renderer.SetWindowSize(width, height, tileSize)
}

func TestEndOnlyResizesRendererOnDimensionChange(t *testing.T) {
	cfg := testConfig()
	cr := &countingRenderer{Renderer: raster.NewRenderer(128, 128, cfg.TileSize)}
	u, err := New(cr, cfg, true)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	defer u.Close()
	font := u.LoadFont("", 13)

	for i := 0; i < 3; i++ {
		u.SetInput(0, 0, false, false)
		u.Begin(1.0/60.0, 128, 128)
		declarePanel(u, font)
		u.End()
	}
	if cr.resizes != 1 {
		t.Fatalf("expected exactly one SetWindowSize call across 3 identically-sized frames, got %d", cr.resizes)
	}

	u.SetInput(0, 0, false, false)
	u.Begin(1.0/60.0, 256, 256)
	declarePanel(u, font)
	u.End()
	if cr.resizes != 2 {
		t.Fatalf("expected a second SetWindowSize call after a dimension change, got %d", cr.resizes)
	}
}

// TestRenderSkipsUnchangedTileAcrossFrames is the orchestrator-level version
// of spec.md §8 scenario 2: when nothing changes between two frames, the
// renderer's packed buffer must come out identical, which only happens if
// End did not force a tile-grid rebuild on the unchanged second frame.
func TestRenderSkipsUnchangedTileAcrossFrames(t *testing.T) {
	u := newTestUi(t, 64, 64)
	font := u.LoadFont("", 13)

	u.SetInput(-10, -10, false, false)
	u.Begin(1.0/60.0, 64, 64)
	declarePanel(u, font)
	u.End()
	before := append([]byte(nil), u.SoftwareRendererInfo().Buffer...)

	u.SetInput(-10, -10, false, false)
	u.Begin(1.0/60.0, 64, 64)
	declarePanel(u, font)
	u.End()
	after := u.SoftwareRendererInfo().Buffer

	if len(before) != len(after) {
		t.Fatalf("buffer length changed: %d vs %d", len(before), len(after))
	}
	for i := range before {
		if before[i] != after[i] {
			t.Fatalf("buffer changed at byte %d despite an identical second frame", i)
		}
	}
}

// declareRootButton pushes a single fixed-size button as the root's only
// child, so its solved rect is the predictable (0,0)-(32,16) with no panel
// or text leaf to offset it.
func declareRootButton(u *Ui) layout.Signal {
	return u.Button(layout.Declaration{
		Name: "ok",
		Size: [2]layout.SizeConfig{{Kind: layout.SizeFixed, Value: 32}, {Kind: layout.SizeFixed, Value: 16}},
	})
}

// TestButtonSignalSequencing follows the worked example in spec.md §8 test 6:
// hover, click while hovering, then release after the pointer has moved off
// the box, and confirms the release is still reported against that box.
func TestButtonSignalSequencing(t *testing.T) {
	u := newTestUi(t, 128, 128)

	// Frame 1: pointer far away, no signals expected.
	u.SetInput(-100, -100, false, false)
	u.Begin(1.0/60.0, 128, 128)
	sig := declareRootButton(u)
	u.End()
	if sig != 0 {
		t.Fatalf("frame 1: expected no signal, got %v", sig)
	}

	// Frame 2: move onto the button (inside its 32x16 rect at the origin)
	// and press.
	u.SetInput(10, 8, true, false)
	u.Begin(1.0/60.0, 128, 128)
	sig = declareRootButton(u)
	u.End()
	if sig&layout.SignalEnterHover == 0 {
		t.Fatalf("frame 2: expected enter-hover signal, got %v", sig)
	}
	if sig&layout.SignalLeftClicked == 0 {
		t.Fatalf("frame 2: expected left-click signal, got %v", sig)
	}

	// Frame 3: pointer moves off the button while still held down, then
	// releases; the release must still surface against the box that was
	// hovered last frame.
	u.SetInput(-100, -100, false, false)
	u.Begin(1.0/60.0, 128, 128)
	sig = declareRootButton(u)
	u.End()
	if sig&layout.SignalExitHover == 0 {
		t.Fatalf("frame 3: expected exit-hover signal, got %v", sig)
	}
	if sig&layout.SignalLeftReleased == 0 {
		t.Fatalf("frame 3: expected a left-release signal after moving off while still down, got %v", sig)
	}
}
