package cubedrop

type inputKind uint8

const (
	inputPress inputKind = iota
	inputMove
	inputRelease
	inputDrop
)

// inputEvent is one queued external event. due is the first frame in which
// the event may be applied.
type inputEvent struct {
	kind inputKind
	x, y float64
	file File
	due  uint64
}

// pointerState tracks the single pointer between frames.
type pointerState struct {
	down     bool
	x, y     float64
	captured BodyID
}

// InjectPress queues a pointer press at (x, y). A press over a body puts the
// topmost such body under manual control.
func (w *World) InjectPress(x, y float64) {
	w.enqueue(inputEvent{kind: inputPress, x: x, y: y, due: w.frame})
}

// InjectMove queues a pointer move to (x, y).
func (w *World) InjectMove(x, y float64) {
	w.enqueue(inputEvent{kind: inputMove, x: x, y: y, due: w.frame})
}

// InjectRelease queues a pointer release at (x, y).
func (w *World) InjectRelease(x, y float64) {
	w.enqueue(inputEvent{kind: inputRelease, x: x, y: y, due: w.frame})
}

// InjectClick queues a press followed by a release at the same point. Both
// apply on the next step.
func (w *World) InjectClick(x, y float64) {
	w.InjectPress(x, y)
	w.InjectRelease(x, y)
}

// InjectDrag queues a full drag: press at (fromX, fromY), linearly
// interpolated moves over frames-2 intermediate frames, and release at
// (toX, toY). The sequence spans `frames` steps, one event per step.
// Minimum frames is 2 (press + release).
func (w *World) InjectDrag(fromX, fromY, toX, toY float64, frames int) {
	if frames < 2 {
		frames = 2
	}
	due := w.frame
	w.enqueue(inputEvent{kind: inputPress, x: fromX, y: fromY, due: due})
	steps := frames - 2
	for i := 1; i <= steps; i++ {
		t := float64(i) / float64(steps+1)
		due++
		w.enqueue(inputEvent{
			kind: inputMove,
			x:    fromX + (toX-fromX)*t,
			y:    fromY + (toY-fromY)*t,
			due:  due,
		})
	}
	due++
	w.enqueue(inputEvent{kind: inputRelease, x: toX, y: toY, due: due})
}

// InjectDrop queues a file drop. The outcome is reported to OnDrop handlers
// during the step that applies it.
func (w *World) InjectDrop(f File) {
	w.enqueue(inputEvent{kind: inputDrop, file: f, due: w.frame})
}

// Pending returns the number of queued events not yet applied.
func (w *World) Pending() int {
	return len(w.queue)
}

func (w *World) enqueue(ev inputEvent) {
	w.queue = append(w.queue, ev)
}

// processInput applies, in queue order, every event due by the current
// frame. Later events keep their place in the queue.
func (w *World) processInput() {
	if len(w.queue) == 0 {
		return
	}
	// Handlers may queue more input while we apply; those land in w.queue.
	pending := w.queue
	w.queue = nil
	var kept []inputEvent
	for _, ev := range pending {
		if ev.due > w.frame {
			kept = append(kept, ev)
			continue
		}
		w.apply(ev)
	}
	w.queue = append(kept, w.queue...)
}

func (w *World) apply(ev inputEvent) {
	ps := &w.pointer
	switch ev.kind {
	case inputPress:
		if ps.down {
			return
		}
		ps.down = true
		ps.x, ps.y = ev.x, ev.y
		if b := w.bodies.topmostAt(ev.x, ev.y); b != nil {
			b.Manual = true
			b.OffsetX = ev.x - b.X
			b.OffsetY = ev.y - b.Y
			ps.captured = b.ID
		}
	case inputMove:
		ps.x, ps.y = ev.x, ev.y
		if b := w.bodies.Get(ps.captured); b != nil {
			b.X = ev.x - b.OffsetX
			b.Y = ev.y - b.OffsetY
			b.VX, b.VY = 0, 0
			b.RotSpeed = 0
		}
	case inputRelease:
		ps.x, ps.y = ev.x, ev.y
		if b := w.bodies.Get(ps.captured); b != nil {
			b.Manual = false
			b.OffsetX, b.OffsetY = 0, 0
			b.VX, b.VY = 0, 0
		}
		ps.down = false
		ps.captured = 0
	case inputDrop:
		id, err := w.Drop(ev.file)
		res := DropResult{File: ev.file, Body: id, Err: err}
		for _, fn := range w.dropHandlers {
			fn(res)
		}
	}
}
