// Package flowi is the embedding API and frame orchestrator of spec.md §6
// and §4.10: it wires arena, job, fileorama, decode, text, layout, command,
// tile and raster into the "declaration -> pixels" pipeline described in
// §1. Grounded on the teacher's own top-level ntcontext/update loop
// (module.go's updateNoiseSupressorLoaded pattern of a long-running struct
// driving per-tick state, and main.go's single event-loop shape), adapted
// from NoiseTorch's PulseAudio/X11 concerns to the UI runtime's begin/
// layout/end cycle.
package flowi

import (
	"hash/fnv"
	"math"

	"github.com/flowi-go/flowi/arena"
	"github.com/flowi-go/flowi/command"
	"github.com/flowi-go/flowi/decode"
	"github.com/flowi-go/flowi/fileorama"
	"github.com/flowi-go/flowi/job"
	"github.com/flowi-go/flowi/layout"
	"github.com/flowi-go/flowi/raster"
	"github.com/flowi-go/flowi/text"

	xfont "golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
)

// FontHandle and IoHandle are re-exported so embedding code never has to
// import package text or package fileorama directly (§6 "Embedding API").
type FontHandle = text.FontHandle
type IoHandle = fileorama.Handle

// TextConfig is the per-leaf configuration Ui.Text accepts (§4.6 "text(str,
// config) leaves").
type TextConfig struct {
	Font     FontHandle
	SubPixel int
}

// Renderer is the subset of the Renderer interface (§6) the orchestrator
// drives; package raster.Renderer implements it, and an alternative backend
// may too.
type Renderer interface {
	SetWindowSize(width, height, tileSize int)
	Render(cmds []command.Command)
	SoftwareRendererInfo() raster.SoftwareRenderData
}

// Ui is the embedding API's entry point (§6 "Ui::new(renderer)"): it owns
// the arena, the job system, the I/O resolver, the text generator, the
// persistent layout state, and drives one frame through begin -> layout ->
// solve -> translate -> render -> present.
type Ui struct {
	cfg Config

	arena     *arena.Arena
	jobs      *job.System
	resolver  *fileorama.Resolver
	generator *text.Generator
	states    *layout.StateTable
	renderer  Renderer

	tree *layout.Tree

	frameCounter uint64
	now          float64
	width        float32
	height       float32

	input, prevInput layout.Input

	loaded  map[fileorama.Handle]*decode.Image
	pending map[fileorama.Handle]<-chan fileorama.Message

	idCounters map[string]int

	lastCommands []command.Command

	// rendererW/H/TileSize track what the renderer was last sized to, so
	// End only calls SetWindowSize on an actual change — SetWindowSize
	// rebuilds the tile grid from scratch, which would zero every tile's
	// prev_hash and defeat §4.8's "skip unchanged tiles" every frame.
	rendererW, rendererH, rendererTileSize int
}

// New constructs a Ui over renderer using cfg's tunables (§6 "Ui::new").
// debugArena enables the arena's use-after-rewind guard (§4.1).
func New(renderer Renderer, cfg Config, debugArena bool) (*Ui, error) {
	a, err := arena.New(cfg.ArenaReserve, debugArena)
	if err != nil {
		return nil, err
	}
	jobs := job.New(cfg.WorkerThreads)
	resolver := fileorama.New(cfg.WorkerThreads, cfg.CacheSize)
	resolver.AddIODriver(fileorama.NewLocalFSDriver(""))
	resolver.AddMemoryDriver(&fileorama.ZipDriver{})
	resolver.AddMemoryDriver(&fileorama.ImageDriver{})

	u := &Ui{
		cfg:        cfg,
		arena:      a,
		jobs:       jobs,
		resolver:   resolver,
		generator:  text.New(jobs, 256),
		states:     layout.NewStateTable(),
		renderer:   renderer,
		loaded:     make(map[fileorama.Handle]*decode.Image),
		pending:    make(map[fileorama.Handle]<-chan fileorama.Message),
		idCounters: make(map[string]int),
	}
	return u, nil
}

// Close releases the worker pools and decommits the arena (not part of §6,
// but every owned goroutine/VM range needs an explicit teardown path).
func (u *Ui) Close() {
	u.resolver.Close()
	u.jobs.Close()
	_ = u.arena.Close()
}

// SetInput feeds this frame's pointer state; Begin/End derive Signal edges
// from the delta against the previous call (§4.6 "Signals").
func (u *Ui) SetInput(mouseX, mouseY float32, leftDown, rightDown bool) {
	u.prevInput = u.input
	u.input = layout.Input{
		MouseX: mouseX, MouseY: mouseY,
		LeftDown: leftDown, RightDown: rightDown,
		LeftWasDown: u.prevInput.LeftDown, RightWasDown: u.prevInput.RightDown,
	}
}

// Begin starts a frame (§4.10 steps 1-2): rewind the arena, advance the
// frame counter, and pump the I/O handler and text generator's ready
// channels into their respective maps before user code runs.
func (u *Ui) Begin(deltaTime float64, width, height int) {
	u.arena.Rewind()
	u.frameCounter++
	u.now += deltaTime
	u.width, u.height = float32(width), float32(height)
	u.idCounters = make(map[string]int)

	u.pumpIO()
	u.generator.PumpResults()

	u.tree = layout.NewTree(u.arena)
	u.tree.Begin(u.width, u.height)
}

// pumpIO drains every in-flight fileorama request whose channel has a
// message ready, moving images into the loaded map (§4.10 step 2, §3 "I/O
// handle").
func (u *Ui) pumpIO() {
	for h, ch := range u.pending {
		select {
		case msg, ok := <-ch:
			if !ok {
				continue
			}
			if msg.Err == nil && msg.Image != nil {
				u.loaded[h] = msg.Image
			}
			delete(u.pending, h)
		default:
		}
	}
}

// nextID derives a per-frame-stable id from name: repeated calls with the
// same name within one parent are disambiguated by an occurrence counter,
// matching spec.md §3's "collide only if the caller re-uses a name+index
// pair within one parent".
func (u *Ui) nextID(name string) uint64 {
	idx := u.idCounters[name]
	u.idCounters[name] = idx + 1
	h := fnv.New64a()
	_, _ = h.Write([]byte(name))
	_, _ = h.Write([]byte{byte(idx), byte(idx >> 8), byte(idx >> 16), byte(idx >> 24)})
	return h.Sum64()
}

// WithLayout opens decl as a child box of the currently open box, runs f to
// declare its children, then closes it (§6 "Ui::with_layout").
func (u *Ui) WithLayout(decl layout.Declaration, f func()) {
	if decl.ID == 0 {
		decl.ID = u.nextID(decl.Name)
	}
	u.tree.BeginBox(decl)
	st := u.states.State(decl.ID)
	st.LastTouched = u.frameCounter
	if f != nil {
		f()
	}
	u.tree.EndBox()
}

// Text appends a measured text leaf (§6 "Ui::text", §4.5 "Measure").
func (u *Ui) Text(str string, cfg TextConfig) {
	w, h, err := u.generator.MeasureTextSize(cfg.Font, str)
	if err != nil {
		return
	}
	u.tree.Text(str, float32(w), float32(h))
}

// Image appends a leaf displaying the image loaded under h, sized to the
// image's natural dimensions. If the image hasn't finished loading yet the
// leaf is simply not added — the previous frame's pixels remain visible
// through tile-hash skipping (§7 "Failed image loads render as their
// previously-drawn state").
func (u *Ui) Image(h IoHandle, sizeW, sizeH layout.SizeConfig) {
	img, ok := u.loaded[h]
	if !ok {
		return
	}
	u.tree.BeginBox(layout.Declaration{
		Size:            [2]layout.SizeConfig{sizeW, sizeH},
		BackgroundImage: img,
	})
	u.tree.EndBox()
}

// Button pushes decl as a box and returns its Signal for this frame,
// computed against the id's previous-frame rect per §4.6 and the worked
// example in spec.md §8 test 6. The widgets catalog itself (styling,
// pressed-state rendering) is out of scope (§1); this is the signal/input
// contract the catalog would be built on.
func (u *Ui) Button(decl layout.Declaration) layout.Signal {
	if decl.ID == 0 {
		decl.ID = u.nextID(decl.Name)
	}
	st := u.states.State(decl.ID)
	sig := layout.ComputeSignal(st.LastRect, st, u.input)
	if sig&(layout.SignalLeftClicked|layout.SignalRightClicked) != 0 {
		dist := sqrt32(u.cfg.DoubleClickMaxDistSq)
		st.ClickTracker.Register(u.now, u.input.MouseX, u.input.MouseY, u.cfg.DoubleClickTime, dist)
	}
	st.LastTouched = u.frameCounter
	u.tree.BeginBox(decl)
	u.tree.EndBox()
	return sig
}

// UpdateScroll records a scroll offset against id's persistent state (§6
// "Ui::update_scroll"). Scroll position isn't otherwise read by the solver
// in this core (actual clipping/offset application is a widget-catalog
// concern, §1), but the id's state entry is the stable place to hold it.
func (u *Ui) UpdateScroll(id uint64, x, y float32) {
	st := u.states.State(id)
	st.LastTouched = u.frameCounter
	st.ScrollX, st.ScrollY = x, y
}

// LoadFont registers a face for use with Text/MeasureTextSize. Font file
// parsing and shaping are an external collaborator (§1 "the font-shaping
// library... consumed through a measure_text/rasterize_mask interface");
// path is accepted for API fidelity with §6 but every handle currently maps
// to the same fixed-width face, since no font-shaping library is part of
// this module's scope (see DESIGN.md).
func (u *Ui) LoadFont(path string, sizePx int) FontHandle {
	var face xfont.Face = basicfont.Face7x13
	return u.generator.LoadFont(face, sizePx)
}

// LoadImage starts an asynchronous load of path with no rescaling (§6
// "Ui::load_image").
func (u *Ui) LoadImage(path string) IoHandle {
	return u.loadImage(path, decode.RescaleRequest{Mode: decode.RescaleNone})
}

// LoadBackgroundImage starts an asynchronous load of path rescaled to
// target (w,h) with the falloff vignette enabled, matching §6
// "Ui::load_background_image" and §4.4's "optional falloff variant".
func (u *Ui) LoadBackgroundImage(path string, targetW, targetH int) IoHandle {
	return u.loadImage(path, decode.RescaleRequest{
		Mode: decode.RescaleToTargetInteger, Width: targetW, Height: targetH, Falloff: true,
	})
}

func (u *Ui) loadImage(path string, req decode.RescaleRequest) IoHandle {
	h, ch := u.resolver.LoadURLWithDriverData(path, "image", req)
	u.pending[h] = ch
	return h
}

// maskLookup adapts the text generator's cache-hit contract to
// command.MaskLookup.
func (u *Ui) maskLookup(fnt FontHandle) command.MaskLookup {
	return func(content string) (*text.Mask, bool) {
		return u.generator.RasterizeText(fnt, content, 0)
	}
}

// End finishes the frame (§4.10 steps 4-8, §6 "Ui::end()"): solve layout,
// translate to commands, and hand them to the renderer, which itself bins
// to tiles, hashes, and rasterizes only the tiles that changed.
func (u *Ui) End() {
	layout.Solve(u.tree)
	u.syncStates()
	cmds := command.Translate(u.tree, u.tree.Root(), u.maskLookup(0))
	u.lastCommands = cmds
	w, h := int(u.width), int(u.height)
	if w != u.rendererW || h != u.rendererH || u.cfg.TileSize != u.rendererTileSize {
		u.renderer.SetWindowSize(w, h, u.cfg.TileSize)
		u.rendererW, u.rendererH, u.rendererTileSize = w, h, u.cfg.TileSize
	}
	u.renderer.Render(cmds)
	u.states.Sweep(u.frameCounter)
}

// syncStates writes each id-bearing box's freshly solved rect back into its
// persistent state entry, so next frame's ComputeSignal (called before this
// frame's layout.Solve even runs, per §4.10) compares against where the box
// actually ended up this frame rather than a stale value.
func (u *Ui) syncStates() {
	for i := 0; i < u.tree.Len(); i++ {
		box := u.tree.Box(i)
		if box.Decl.ID == 0 {
			continue
		}
		u.states.State(box.Decl.ID).LastRect = box.Rect
	}
}

// SoftwareRendererInfo exposes the packed sRGB frame for presentation (§6
// "software_renderer_info").
func (u *Ui) SoftwareRendererInfo() raster.SoftwareRenderData {
	return u.renderer.SoftwareRendererInfo()
}

// Commands returns the command stream emitted by the most recent End, for
// tests and headless harnesses that want to inspect it without going
// through the renderer.
func (u *Ui) Commands() []command.Command { return u.lastCommands }

func sqrt32(v float32) float32 { return float32(math.Sqrt(float64(v))) }
