// Package cubedrop is the simulation core of a drag-and-drop video toy.
//
// Every accepted video file becomes a [Body]: a 200x200 square that falls
// under gravity, bounces off the viewport edges and off other bodies, and
// plays its video while its center sits inside the target region.
//
// # Quick start
//
// A host owns a [World] and calls [World.Step] once per frame:
//
//	world := cubedrop.NewWorld(cubedrop.WorldConfig{
//		Width: 1280, Height: 720,
//		Target: cubedrop.Rect{X: 480, Y: 220, Width: 320, Height: 320},
//	})
//	world.Playback().Subscribe(cubedrop.BindPlayer(player))
//
//	// from the frame loop:
//	world.InjectDrop(cubedrop.File{Name: "clip.mp4", Path: "/tmp/clip.mp4"})
//	world.Step()
//
// # Input
//
// Pointer presses, moves, releases and file drops are queued with the
// Inject methods and applied at the start of the next [World.Step], in the
// order they were queued. Pressing on a body puts it under manual control:
// it follows the pointer and ignores gravity until released.
//
// # Playback
//
// [Playback] is a two-state machine (idle, playing one media). Its
// transitions are published as [PlaybackEvent] values to every handler
// registered with [Playback.Subscribe] and to an optional [EventStore]
// (see the ecs package for a Donburi adapter). [BindPlayer] turns a
// [Player] surface into such a handler.
//
// The world is not safe for concurrent use. Hosts mutate it from their
// frame loop only.
package cubedrop
