package cubedrop

import (
	"math"
	"time"
)

// Step advances the world by one frame: scripted input, queued input, then
// per-body integration and containment, then pairwise collision.
func (w *World) Step() {
	var t0 time.Time
	w.stats = stepStats{}
	if w.debug {
		t0 = time.Now()
	}

	if w.testRunner != nil {
		w.testRunner.step(w)
	}
	w.processInput()

	for _, b := range w.bodies.bodies {
		w.updateBody(b)
	}

	if w.debug {
		w.stats.bodyTime = time.Since(t0)
		t0 = time.Now()
	}

	w.resolveCollisions()

	for _, b := range w.bodies.bodies {
		if b.Manual {
			b.VX, b.VY = 0, 0
		}
	}

	w.frame++

	if w.debug {
		w.stats.collideTime = time.Since(t0)
		w.stats.bodies = w.bodies.Len()
		w.debugLog(w.stats)
	}
}

// updateBody runs the first pass for one body.
func (w *World) updateBody(b *Body) {
	cfg := &w.cfg

	if !b.Manual {
		b.VY += cfg.Gravity
		b.VX *= cfg.Friction
		b.VY *= cfg.Friction
		b.X += b.VX
		b.Y += b.VY
	}

	// Center-point test: a body straddling the region edge counts as
	// inside once its center crosses it.
	c := b.Center()
	inside := w.target.ContainsStrict(c.X, c.Y)

	bounds := w.viewport
	if inside {
		bounds = w.target
	}
	if clampAxis(&b.X, &b.VX, b.Width, bounds.X, bounds.Right(), cfg.Bounce) {
		w.stats.clamps++
	}
	if clampAxis(&b.Y, &b.VY, b.Height, bounds.Y, bounds.Bottom(), cfg.Bounce) {
		w.stats.clamps++
	}

	// Checked every frame: a body still inside takes playback back as soon
	// as the media that replaced it goes idle.
	if inside {
		w.playback.activate(b, w.frame)
	} else {
		w.playback.release(b, w.frame)
	}
	b.inTarget = inside

	b.RotSpeed *= cfg.SpinDecay
	b.Rotation += b.RotSpeed
}

// clampAxis keeps [*pos, *pos+size] within [lo, hi]. When the span had to
// move, the velocity is reflected and scaled by bounce. When the span is
// wider than [lo, hi] it is pinned to lo.
func clampAxis(pos, vel *float64, size, lo, hi, bounce float64) bool {
	if *pos >= lo && *pos+size <= hi {
		return false
	}
	*pos = math.Max(lo, math.Min(*pos, hi-size))
	*vel *= -bounce
	return true
}

// resolveCollisions runs the second pass: one resolution per overlapping
// pair, in registry order. Deep pile-ups settle over several frames.
func (w *World) resolveCollisions() {
	bodies := w.bodies.bodies
	for i := 0; i < len(bodies); i++ {
		a := bodies[i]
		for j := i + 1; j < len(bodies); j++ {
			b := bodies[j]
			if !IsColliding(a, b) {
				continue
			}
			resolveCollision(a, b, w.cfg.Bounce)
			w.stats.collisions++
		}
	}
}

// IsColliding reports whether the rectangles of a and b overlap. Touching
// edges count as overlapping.
func IsColliding(a, b *Body) bool {
	return a.Bounds().Intersects(b.Bounds())
}

// resolveCollision separates a and b along the axis of smaller overlap and
// exchanges their velocities on that axis, scaled by bounce. A body under
// manual control does not move; the other body takes the whole separation.
func resolveCollision(a, b *Body, bounce float64) {
	ca, cb := a.Center(), b.Center()
	dx := ca.X - cb.X
	dy := ca.Y - cb.Y
	overlapX := a.Width/2 + b.Width/2 - math.Abs(dx)
	overlapY := a.Height/2 + b.Height/2 - math.Abs(dy)

	shareA, shareB := separationShares(a, b)

	if overlapX < overlapY {
		dir := direction(dx)
		a.X += overlapX * shareA * dir
		b.X -= overlapX * shareB * dir
		a.VX, b.VX = b.VX*bounce, a.VX*bounce
	} else {
		dir := direction(dy)
		a.Y += overlapY * shareA * dir
		b.Y -= overlapY * shareB * dir
		a.VY, b.VY = b.VY*bounce, a.VY*bounce
	}
}

// direction returns the sign used to push a away from b; zero deltas push
// in the positive direction.
func direction(delta float64) float64 {
	if delta < 0 {
		return -1
	}
	return 1
}

// separationShares returns the fraction of the overlap each body moves.
func separationShares(a, b *Body) (float64, float64) {
	switch {
	case a.Manual && b.Manual:
		return 0, 0
	case a.Manual:
		return 0, 1
	case b.Manual:
		return 1, 0
	default:
		return 0.5, 0.5
	}
}
