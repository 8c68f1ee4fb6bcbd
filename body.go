package cubedrop

import (
	"iter"
	"math/rand/v2"
)

// BodyID identifies a body within its registry. IDs start at 1 and are never
// reused; zero means "no body".
type BodyID uint32

// MediaRef is an opaque, comparable handle to a playable video. Two drops of
// the same file produce two distinct refs.
type MediaRef struct {
	Path string // location the player reads from
	Name string // display name
	Type string // declared media type, e.g. "video/mp4"

	token uint32
}

// IsZero reports whether m is the zero MediaRef.
func (m MediaRef) IsZero() bool {
	return m == MediaRef{}
}

// Body is a simulated square bound to one media resource. Position is the
// top-left corner; Rotation is in degrees.
type Body struct {
	ID    BodyID
	Media MediaRef

	X, Y          float64
	VX, VY        float64
	Width, Height float64

	Rotation float64
	RotSpeed float64

	// Manual is true while a pointer gesture positions the body. Offset is
	// the pointer position relative to the body's corner at press time.
	Manual           bool
	OffsetX, OffsetY float64

	// inTarget is the containment result of the previous step.
	inTarget bool
}

// Bounds returns the body's axis-aligned rectangle.
func (b *Body) Bounds() Rect {
	return Rect{X: b.X, Y: b.Y, Width: b.Width, Height: b.Height}
}

// Center returns the body's center point.
func (b *Body) Center() Vec2 {
	return Vec2{X: b.X + b.Width/2, Y: b.Y + b.Height/2}
}

// InTarget reports whether the body's center was inside the target region
// at the end of the last step.
func (b *Body) InTarget() bool {
	return b.inTarget
}

// Registry is the ordered collection of bodies. Bodies are appended and
// never removed.
type Registry struct {
	bodies []*Body
	byID   map[BodyID]*Body
	nextID BodyID
	rng    *rand.Rand

	size   float64
	spawnY float64
	spin   float64
}

// NewRegistry creates an empty registry whose bodies are size x size and
// spawn at height spawnY. seed feeds the horizontal spawn position; zero
// picks a random seed.
func NewRegistry(size, spawnY float64, seed uint64) *Registry {
	if seed == 0 {
		seed = rand.Uint64()
	}
	return &Registry{
		byID:   make(map[BodyID]*Body),
		rng:    rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15)),
		size:   size,
		spawnY: spawnY,
	}
}

// Add constructs a body for media at a random horizontal position within
// [0, viewportWidth - size) and the fixed spawn height, appends it and
// returns its id.
func (r *Registry) Add(media MediaRef, viewportWidth float64) BodyID {
	r.nextID++
	b := &Body{
		ID:       r.nextID,
		Media:    media,
		X:        r.rng.Float64() * (viewportWidth - r.size),
		Y:        r.spawnY,
		Width:    r.size,
		Height:   r.size,
		RotSpeed: r.spin,
	}
	r.bodies = append(r.bodies, b)
	r.byID[b.ID] = b
	return b.ID
}

// All returns the bodies in insertion order. The sequence can be ranged over
// any number of times.
func (r *Registry) All() iter.Seq[*Body] {
	return func(yield func(*Body) bool) {
		for _, b := range r.bodies {
			if !yield(b) {
				return
			}
		}
	}
}

// Len returns the number of bodies.
func (r *Registry) Len() int {
	return len(r.bodies)
}

// At returns the body at insertion index i.
func (r *Registry) At(i int) *Body {
	return r.bodies[i]
}

// Get returns the body with the given id, or nil.
func (r *Registry) Get(id BodyID) *Body {
	return r.byID[id]
}

// topmostAt returns the last-added body whose rectangle contains (x, y).
// Later bodies are drawn on top, so they win the hit test.
func (r *Registry) topmostAt(x, y float64) *Body {
	for i := len(r.bodies) - 1; i >= 0; i-- {
		if r.bodies[i].Bounds().Contains(x, y) {
			return r.bodies[i]
		}
	}
	return nil
}
