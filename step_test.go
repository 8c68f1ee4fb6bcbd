package cubedrop

import (
	"math"
	"math/rand/v2"
	"testing"
)

const eps = 1e-9

func newTestWorld() *World {
	return NewWorld(WorldConfig{
		Width:  1280,
		Height: 720,
		Target: Rect{X: 500, Y: 300, Width: 400, Height: 400},
		Seed:   1,
	})
}

// place drops a video and moves its body to (x, y) with velocity (vx, vy).
func place(t *testing.T, w *World, name string, x, y, vx, vy float64) *Body {
	t.Helper()
	id, err := w.Drop(File{Name: name + ".mp4", Path: "/videos/" + name + ".mp4"})
	if err != nil {
		t.Fatalf("drop %s: %v", name, err)
	}
	b := w.Bodies().Get(id)
	b.X, b.Y, b.VX, b.VY = x, y, vx, vy
	return b
}

func near(a, b float64) bool {
	return math.Abs(a-b) < eps
}

func TestStepGravityScenario(t *testing.T) {
	w := newTestWorld()
	b := place(t, w, "a", 100, 100, 0, 0)

	w.Step()

	if !near(b.VX, 0) || !near(b.VY, 0.49) {
		t.Errorf("velocity = (%v, %v), want (0, 0.49)", b.VX, b.VY)
	}
	if !near(b.X, 100) || !near(b.Y, 100.49) {
		t.Errorf("position = (%v, %v), want (100, 100.49)", b.X, b.Y)
	}
	if b.InTarget() {
		t.Error("body should be outside the target")
	}
	if w.Frame() != 1 {
		t.Errorf("frame = %d, want 1", w.Frame())
	}
}

func TestStepViewportClamp(t *testing.T) {
	tests := []struct {
		name         string
		x, y, vx, vy float64
		wantX, wantY float64
		flipX, flipY bool
	}{
		{"right wall", 1070, 100, 50, 0, 1080, 100.49, true, false},
		{"left wall", 5, 100, -50, 0, 0, 100.49, true, false},
		{"floor", 0, 515, 0, 10, 0, 520, false, true},
		{"ceiling", 0, 5, 0, -20, 0, 0, false, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := newTestWorld()
			b := place(t, w, "a", tt.x, tt.y, tt.vx, tt.vy)
			preVX := tt.vx * DefaultFriction
			preVY := (tt.vy + DefaultGravity) * DefaultFriction

			w.Step()

			if !near(b.X, tt.wantX) || !near(b.Y, tt.wantY) {
				t.Errorf("position = (%v, %v), want (%v, %v)", b.X, b.Y, tt.wantX, tt.wantY)
			}
			if tt.flipX && !near(b.VX, -preVX*DefaultBounce) {
				t.Errorf("VX = %v, want %v", b.VX, -preVX*DefaultBounce)
			}
			if tt.flipY && !near(b.VY, -preVY*DefaultBounce) {
				t.Errorf("VY = %v, want %v", b.VY, -preVY*DefaultBounce)
			}
			if !w.Viewport().Encloses(b.Bounds()) {
				t.Errorf("body %v escaped viewport %v", b.Bounds(), w.Viewport())
			}
		})
	}
}

func TestStepTargetClamp(t *testing.T) {
	w := newTestWorld()
	// Center (790, 500) is inside the target; moving right fast.
	b := place(t, w, "a", 690, 400, 30, 0)

	w.Step()

	if !b.InTarget() {
		t.Fatal("body should be inside the target")
	}
	if !near(b.X, 700) {
		t.Errorf("X = %v, want 700 (target right edge minus width)", b.X)
	}
	if !near(b.VX, -30*DefaultFriction*DefaultBounce) {
		t.Errorf("VX = %v, want %v", b.VX, -30*DefaultFriction*DefaultBounce)
	}
	if !w.Target().Encloses(b.Bounds()) {
		t.Errorf("body %v escaped target %v", b.Bounds(), w.Target())
	}
}

// A single body never collides, so after every step it must sit inside the
// region it was assigned to, and every clamped axis must have its velocity
// reversed (or zeroed).
func TestStepClampProperties(t *testing.T) {
	rng := rand.New(rand.NewPCG(3, 4))
	for i := 0; i < 2000; i++ {
		w := newTestWorld()
		b := place(t, w, "a",
			rng.Float64()*1400-100, rng.Float64()*900-100,
			rng.Float64()*80-40, rng.Float64()*80-40)

		preVX := b.VX * DefaultFriction
		preVY := (b.VY + DefaultGravity) * DefaultFriction
		nextX := b.X + preVX
		nextY := b.Y + preVY

		w.Step()

		region := w.Viewport()
		if b.InTarget() {
			region = w.Target()
		}
		if !region.Encloses(b.Bounds()) {
			t.Fatalf("case %d: body %v not within %v", i, b.Bounds(), region)
		}
		if nextX != b.X && b.VX*preVX > 0 {
			t.Fatalf("case %d: X clamped but VX kept sign (%v -> %v)", i, preVX, b.VX)
		}
		if nextY != b.Y && b.VY*preVY > 0 {
			t.Fatalf("case %d: Y clamped but VY kept sign (%v -> %v)", i, preVY, b.VY)
		}
	}
}

func TestStepRotationDecay(t *testing.T) {
	w := NewWorld(WorldConfig{Width: 1280, Height: 720, Spin: 10, Seed: 1})
	b := place(t, w, "a", 100, 100, 0, 0)
	if b.RotSpeed != 10 {
		t.Fatalf("spawn spin = %v, want 10", b.RotSpeed)
	}

	w.Step()
	if !near(b.Rotation, 9.5) || !near(b.RotSpeed, 9.5) {
		t.Errorf("after 1 step: rot=%v speed=%v, want 9.5 and 9.5", b.Rotation, b.RotSpeed)
	}
	w.Step()
	if !near(b.Rotation, 18.525) || !near(b.RotSpeed, 9.025) {
		t.Errorf("after 2 steps: rot=%v speed=%v, want 18.525 and 9.025", b.Rotation, b.RotSpeed)
	}
}

func TestResolveCollisionScenario(t *testing.T) {
	a := &Body{X: 0, Y: 0, Width: 200, Height: 200, VX: 3, VY: 1}
	b := &Body{X: 150, Y: 0, Width: 200, Height: 200, VX: -2, VY: 4}

	if !IsColliding(a, b) {
		t.Fatal("bodies should collide")
	}
	resolveCollision(a, b, 0.6)

	if !near(a.X, -25) || !near(b.X, 175) {
		t.Errorf("X = %v/%v, want -25/175", a.X, b.X)
	}
	if !near(a.VX, -1.2) || !near(b.VX, 1.8) {
		t.Errorf("VX = %v/%v, want -1.2/1.8", a.VX, b.VX)
	}
	if a.Y != 0 || b.Y != 0 || a.VY != 1 || b.VY != 4 {
		t.Error("vertical state must not change on a horizontal resolution")
	}
}

func TestResolveCollisionVertical(t *testing.T) {
	a := &Body{X: 10, Y: 0, Width: 200, Height: 200, VY: 5}
	b := &Body{X: 0, Y: 180, Width: 200, Height: 200, VY: 0}

	resolveCollision(a, b, 0.6)

	if !near(a.Y, -10) || !near(b.Y, 190) {
		t.Errorf("Y = %v/%v, want -10/190", a.Y, b.Y)
	}
	if !near(a.VY, 0) || !near(b.VY, 3) {
		t.Errorf("VY = %v/%v, want 0/3", a.VY, b.VY)
	}
}

func TestResolveCollisionZeroDelta(t *testing.T) {
	a := &Body{X: 0, Y: 0, Width: 200, Height: 200}
	b := &Body{X: 0, Y: 100, Width: 200, Height: 200}
	// dx == 0: overlapX 200 > overlapY 100, resolve on Y with dy < 0.
	resolveCollision(a, b, 0.6)
	if !near(a.Y, -50) || !near(b.Y, 150) {
		t.Errorf("Y = %v/%v, want -50/150", a.Y, b.Y)
	}

	// Exactly coincident: ties go to Y and the first body moves positive.
	c := &Body{X: 0, Y: 0, Width: 200, Height: 200}
	d := &Body{X: 0, Y: 0, Width: 200, Height: 200}
	resolveCollision(c, d, 0.6)
	if !near(c.Y, 100) || !near(d.Y, -100) {
		t.Errorf("coincident Y = %v/%v, want 100/-100", c.Y, d.Y)
	}
}

func TestResolveCollisionManual(t *testing.T) {
	held := &Body{X: 0, Y: 0, Width: 200, Height: 200, Manual: true}
	free := &Body{X: 150, Y: 0, Width: 200, Height: 200, VX: -4}

	resolveCollision(held, free, 0.6)

	if held.X != 0 {
		t.Errorf("held body moved to %v", held.X)
	}
	if !near(free.X, 200) {
		t.Errorf("free X = %v, want 200", free.X)
	}
	if free.VX != 0 {
		t.Errorf("free VX = %v, want 0 (exchanged with a resting body)", free.VX)
	}
}

func TestIsCollidingSymmetric(t *testing.T) {
	rng := rand.New(rand.NewPCG(9, 9))
	for i := 0; i < 1000; i++ {
		a := &Body{X: rng.Float64() * 600, Y: rng.Float64() * 600, Width: 200, Height: 200}
		b := &Body{X: rng.Float64() * 600, Y: rng.Float64() * 600, Width: 200, Height: 200}
		if IsColliding(a, b) != IsColliding(b, a) {
			t.Fatalf("asymmetric: %v vs %v", a.Bounds(), b.Bounds())
		}
	}
	// Touching edges collide.
	a := &Body{X: 0, Y: 0, Width: 200, Height: 200}
	b := &Body{X: 200, Y: 0, Width: 200, Height: 200}
	if !IsColliding(a, b) {
		t.Error("touching bodies should collide")
	}
}

func TestStepCollisionSinglePass(t *testing.T) {
	w := newTestWorld()
	// Three bodies stacked on the floor in a row, heavily overlapping.
	a := place(t, w, "a", 0, 520, 0, 0)
	b := place(t, w, "b", 100, 520, 0, 0)
	c := place(t, w, "c", 200, 520, 0, 0)

	w.Step()

	// One resolution per pair per frame, in registry order: a-b moves b
	// into c, b-c then pushes b back into a. a-b stays overlapped.
	if !near(a.X, -50) || !near(b.X, 75) || !near(c.X, 275) {
		t.Errorf("X = %v %v %v, want -50 75 275", a.X, b.X, c.X)
	}
	if !IsColliding(a, b) {
		t.Error("a and b should still overlap after a single pass")
	}

	for i := 0; i < 300; i++ {
		w.Step()
	}
	if a.X > b.X || b.X > c.X {
		t.Errorf("order changed: %v %v %v", a.X, b.X, c.X)
	}
}

func TestStepManualControl(t *testing.T) {
	w := newTestWorld()
	b := place(t, w, "a", 300, 100, 0, 0)

	w.InjectPress(350, 150)
	w.Step()
	if !b.Manual {
		t.Fatal("press over body should start manual control")
	}
	if !near(b.OffsetX, 50) || !near(b.OffsetY, 50) {
		t.Errorf("offset = (%v, %v), want (50, 50)", b.OffsetX, b.OffsetY)
	}
	if b.X != 300 || b.Y != 100 {
		t.Errorf("held body moved to (%v, %v)", b.X, b.Y)
	}

	// Prior velocity is discarded while held.
	b.VX, b.VY = 7, -3
	w.InjectMove(400, 200)
	w.Step()
	if b.X != 350 || b.Y != 150 {
		t.Errorf("position = (%v, %v), want pointer-derived (350, 150)", b.X, b.Y)
	}
	if b.VX != 0 || b.VY != 0 {
		t.Errorf("velocity = (%v, %v), want (0, 0)", b.VX, b.VY)
	}

	// A free body running into the held one does not move it.
	place(t, w, "b", 500, 150, -20, 0)
	w.Step()
	if b.X != 350 || b.Y != 150 || b.VX != 0 || b.VY != 0 {
		t.Errorf("held body disturbed by collision: %+v", b)
	}

	w.InjectRelease(400, 200)
	w.Step()
	if b.Manual {
		t.Error("release should end manual control")
	}
	if id, ok := w.Grabbed(); ok {
		t.Errorf("pointer still holds body %d", id)
	}
}

func TestStepNoBodies(t *testing.T) {
	w := newTestWorld()
	for i := 0; i < 10; i++ {
		w.Step()
	}
	if w.Frame() != 10 {
		t.Errorf("frame = %d, want 10", w.Frame())
	}
	if w.Playback().State() != PlaybackIdle {
		t.Error("playback should stay idle")
	}
}
