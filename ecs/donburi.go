package ecs

import (
	"github.com/phanxgames/cubedrop"

	"github.com/yohamta/donburi"
	"github.com/yohamta/donburi/features/events"
)

// PlaybackEventType is the Donburi event type for cubedrop playback
// transitions.
var PlaybackEventType = events.NewEventType[cubedrop.PlaybackEvent]()

type donburiStore struct {
	world donburi.World
}

// NewDonburiStore creates an EventStore backed by a Donburi world.
// Playback events are published to PlaybackEventType and can be consumed
// with Subscribe and ProcessEvents.
func NewDonburiStore(world donburi.World) cubedrop.EventStore {
	return &donburiStore{world: world}
}

func (s *donburiStore) EmitPlaybackEvent(event cubedrop.PlaybackEvent) {
	PlaybackEventType.Publish(s.world, event)
}

// SubscribePlayer drives p from the playback events delivered to world.
func SubscribePlayer(world donburi.World, p cubedrop.Player) {
	drive := cubedrop.BindPlayer(p)
	PlaybackEventType.Subscribe(world, func(_ donburi.World, e cubedrop.PlaybackEvent) {
		drive(e)
	})
}
