package cubedrop

// DropResult reports the outcome of a queued drop.
type DropResult struct {
	File File
	Body BodyID // zero when Err is set
	Err  error
}

// World owns the body registry, the playback machine and the input queue,
// and advances them with Step.
type World struct {
	cfg      WorldConfig
	viewport Rect
	target   Rect

	bodies   *Registry
	playback Playback

	queue     []inputEvent
	pointer   pointerState
	frame     uint64
	nextToken uint32

	dropHandlers []func(DropResult)
	testRunner   *TestRunner

	debug bool
	stats stepStats
}

// NewWorld creates an empty world.
func NewWorld(cfg WorldConfig) *World {
	cfg = cfg.withDefaults()
	reg := NewRegistry(cfg.BodySize, cfg.SpawnY, cfg.Seed)
	reg.spin = cfg.Spin
	return &World{
		cfg:      cfg,
		viewport: Rect{Width: cfg.Width, Height: cfg.Height},
		target:   cfg.Target,
		bodies:   reg,
	}
}

// Config returns the effective configuration, defaults applied.
func (w *World) Config() WorldConfig {
	return w.cfg
}

// Viewport returns the rectangle bodies are kept in while outside the target.
func (w *World) Viewport() Rect {
	return w.viewport
}

// SetViewport resizes the viewport. Bodies are clamped to the new bounds on
// the next step.
func (w *World) SetViewport(width, height float64) {
	w.viewport.Width = width
	w.viewport.Height = height
}

// Target returns the playback target region.
func (w *World) Target() Rect {
	return w.target
}

// SetTarget moves or resizes the playback target region.
func (w *World) SetTarget(r Rect) {
	w.target = r
}

// Bodies returns the body registry.
func (w *World) Bodies() *Registry {
	return w.bodies
}

// Playback returns the playback state machine.
func (w *World) Playback() *Playback {
	return &w.playback
}

// Frame returns the number of completed steps.
func (w *World) Frame() uint64 {
	return w.frame
}

// Grabbed returns the body under manual control, if any.
func (w *World) Grabbed() (BodyID, bool) {
	return w.pointer.captured, w.pointer.captured != 0
}

// Drop validates f and, when it is a video, adds a body for it. Rejected
// files return an error wrapping ErrInvalidMediaType and leave the world
// unchanged.
func (w *World) Drop(f File) (BodyID, error) {
	media, err := accept(f, w.nextToken+1)
	if err != nil {
		return 0, err
	}
	w.nextToken++
	return w.bodies.Add(media, w.viewport.Width), nil
}

// OnDrop registers fn to receive the result of every queued drop.
func (w *World) OnDrop(fn func(DropResult)) {
	w.dropHandlers = append(w.dropHandlers, fn)
}

// SetDebugMode enables or disables per-step timing output on stderr.
func (w *World) SetDebugMode(enabled bool) {
	w.debug = enabled
}

// SetTestRunner attaches a scripted input runner. Its step method is called
// at the start of every Step, before queued input is applied.
func (w *World) SetTestRunner(r *TestRunner) {
	w.testRunner = r
}
