// Package ecs provides ECS adapters for cubedrop's playback events.
//
// The primary adapter is [NewDonburiStore], which bridges playback
// transitions into a [Donburi] world as typed events. Subscribe to
// [PlaybackEventType] in your ECS systems to receive them:
//
//	store := ecs.NewDonburiStore(world)
//	w.Playback().SetEventStore(store)
//	ecs.PlaybackEventType.Subscribe(world, func(w donburi.World, e cubedrop.PlaybackEvent) { ... })
//
// Events are queued by Donburi and delivered when the host calls
// ProcessEvents, once per frame after [cubedrop.World.Step].
//
// [Donburi]: https://github.com/yohamta/donburi
package ecs
