package cubedrop

// PlaybackState is the state of the playback machine.
type PlaybackState uint8

const (
	PlaybackIdle    PlaybackState = iota // no active media
	PlaybackPlaying                      // one media is active
)

func (s PlaybackState) String() string {
	switch s {
	case PlaybackIdle:
		return "idle"
	case PlaybackPlaying:
		return "playing"
	default:
		return "unknown"
	}
}

// PlaybackEventType identifies a playback transition.
type PlaybackEventType uint8

const (
	PlaybackActivated   PlaybackEventType = iota // media became active
	PlaybackDeactivated                          // media stopped being active
)

func (t PlaybackEventType) String() string {
	switch t {
	case PlaybackActivated:
		return "activated"
	case PlaybackDeactivated:
		return "deactivated"
	default:
		return "unknown"
	}
}

// PlaybackEvent describes one transition of the playback machine.
type PlaybackEvent struct {
	Type  PlaybackEventType
	Media MediaRef
	Body  BodyID // body that owns Media
	Frame uint64 // world frame in which the transition happened
}

// EventStore is the interface for optional ECS integration. When set on a
// Playback, every transition is also forwarded to the store.
type EventStore interface {
	EmitPlaybackEvent(event PlaybackEvent)
}

type playbackHandler struct {
	id uint32
	fn func(PlaybackEvent)
}

// CallbackHandle allows removing a registered playback handler.
type CallbackHandle struct {
	id uint32
	p  *Playback
}

// Remove unregisters the handler so it no longer fires.
func (h CallbackHandle) Remove() {
	if h.p == nil {
		return
	}
	s := h.p.handlers
	for i := range s {
		if s[i].id == h.id {
			copy(s[i:], s[i+1:])
			s[len(s)-1] = playbackHandler{}
			h.p.handlers = s[:len(s)-1]
			return
		}
	}
}

// Playback tracks the single active media. Exactly one instance exists per
// World.
type Playback struct {
	state  PlaybackState
	active MediaRef
	owner  BodyID

	handlers []playbackHandler
	nextID   uint32
	store    EventStore
}

// State returns the current state.
func (p *Playback) State() PlaybackState {
	return p.state
}

// Active returns the active media and the body that owns it. ok is false
// when idle.
func (p *Playback) Active() (media MediaRef, owner BodyID, ok bool) {
	if p.state != PlaybackPlaying {
		return MediaRef{}, 0, false
	}
	return p.active, p.owner, true
}

// IsActive reports whether m is the active media.
func (p *Playback) IsActive(m MediaRef) bool {
	return p.state == PlaybackPlaying && p.active == m
}

// Subscribe registers fn to receive every transition, in registration order.
func (p *Playback) Subscribe(fn func(PlaybackEvent)) CallbackHandle {
	if fn == nil {
		panic("cubedrop: nil playback handler")
	}
	p.nextID++
	p.handlers = append(p.handlers, playbackHandler{id: p.nextID, fn: fn})
	return CallbackHandle{id: p.nextID, p: p}
}

// SetEventStore sets the optional ECS bridge.
func (p *Playback) SetEventStore(store EventStore) {
	p.store = store
}

// activate makes b's media the active one. A different active media is
// deactivated first. No-op if b's media is already active.
func (p *Playback) activate(b *Body, frame uint64) {
	if p.IsActive(b.Media) {
		return
	}
	if p.state == PlaybackPlaying {
		p.deactivate(frame)
	}
	p.state = PlaybackPlaying
	p.active = b.Media
	p.owner = b.ID
	p.emit(PlaybackEvent{Type: PlaybackActivated, Media: b.Media, Body: b.ID, Frame: frame})
}

// release returns to idle if b's media is the active one.
func (p *Playback) release(b *Body, frame uint64) {
	if !p.IsActive(b.Media) {
		return
	}
	p.deactivate(frame)
}

func (p *Playback) deactivate(frame uint64) {
	ev := PlaybackEvent{Type: PlaybackDeactivated, Media: p.active, Body: p.owner, Frame: frame}
	p.state = PlaybackIdle
	p.active = MediaRef{}
	p.owner = 0
	p.emit(ev)
}

func (p *Playback) emit(ev PlaybackEvent) {
	for _, h := range p.handlers {
		h.fn(ev)
	}
	if p.store != nil {
		p.store.EmitPlaybackEvent(ev)
	}
}

// Player is the shared playback surface driven by playback transitions.
type Player interface {
	SetSource(media MediaRef)
	Play()
	Pause()
	Show()
	Hide()
}

// BindPlayer returns a handler that drives p from playback transitions:
// activation sets the source, plays and shows; deactivation pauses and
// hides.
func BindPlayer(p Player) func(PlaybackEvent) {
	return func(ev PlaybackEvent) {
		switch ev.Type {
		case PlaybackActivated:
			p.SetSource(ev.Media)
			p.Play()
			p.Show()
		case PlaybackDeactivated:
			p.Pause()
			p.Hide()
		}
	}
}
