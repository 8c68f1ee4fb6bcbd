package cubedrop

import (
	"fmt"
	"os"
	"time"
)

// stepStats holds per-step timing and counters.
// Timings are only measured in debug mode.
type stepStats struct {
	bodyTime    time.Duration
	collideTime time.Duration
	bodies      int
	clamps      int
	collisions  int
}

// debugLog prints timing and collision stats to stderr.
func (w *World) debugLog(stats stepStats) {
	if !w.debug {
		return
	}
	state := w.playback.State().String()
	if m, _, ok := w.playback.Active(); ok {
		state += " " + m.Name
	}
	_, _ = fmt.Fprintf(os.Stderr,
		"[cubedrop] frame %d | bodies: %v | collide: %v | total: %v\n",
		w.frame, stats.bodyTime, stats.collideTime, stats.bodyTime+stats.collideTime)
	_, _ = fmt.Fprintf(os.Stderr,
		"[cubedrop] bodies: %d | clamps: %d | collisions: %d | playback: %s\n",
		stats.bodies, stats.clamps, stats.collisions, state)
}
