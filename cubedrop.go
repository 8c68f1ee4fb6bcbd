package cubedrop

// Vec2 is a 2D vector used for positions, offsets and velocities.
type Vec2 struct {
	X, Y float64
}

// Rect is an axis-aligned rectangle. The coordinate system has its origin at
// the top-left, with Y increasing downward.
type Rect struct {
	X, Y, Width, Height float64
}

// Right returns the X coordinate of the right edge.
func (r Rect) Right() float64 { return r.X + r.Width }

// Bottom returns the Y coordinate of the bottom edge.
func (r Rect) Bottom() float64 { return r.Y + r.Height }

// Center returns the center point of the rectangle.
func (r Rect) Center() Vec2 {
	return Vec2{X: r.X + r.Width/2, Y: r.Y + r.Height/2}
}

// Contains reports whether the point (x, y) lies inside the rectangle.
// Points on the edge are considered inside.
func (r Rect) Contains(x, y float64) bool {
	return x >= r.X && x <= r.X+r.Width &&
		y >= r.Y && y <= r.Y+r.Height
}

// ContainsStrict reports whether (x, y) lies inside the rectangle and not on
// its edge.
func (r Rect) ContainsStrict(x, y float64) bool {
	return x > r.X && x < r.X+r.Width &&
		y > r.Y && y < r.Y+r.Height
}

// Encloses reports whether other lies fully within r. Shared edges count as
// enclosed.
func (r Rect) Encloses(other Rect) bool {
	return other.X >= r.X && other.Right() <= r.Right() &&
		other.Y >= r.Y && other.Bottom() <= r.Bottom()
}

// Intersects reports whether r and other overlap.
// Adjacent rectangles (sharing only an edge) are considered intersecting.
func (r Rect) Intersects(other Rect) bool {
	return r.X <= other.X+other.Width &&
		r.X+r.Width >= other.X &&
		r.Y <= other.Y+other.Height &&
		r.Y+r.Height >= other.Y
}

// Default simulation constants, in pixels and frames.
const (
	DefaultGravity   = 0.5  // added to VY every frame
	DefaultFriction  = 0.98 // velocity multiplier every frame
	DefaultBounce    = 0.6  // restitution applied on clamps and collisions
	DefaultSpinDecay = 0.95 // rotation speed multiplier every frame
	DefaultBodySize  = 200.0
	DefaultSpawnY    = 100.0
)

// WorldConfig configures a World. Zero fields take the defaults above;
// Width and Height default to 1280x720.
type WorldConfig struct {
	Width, Height float64 // viewport size
	Target        Rect    // playback target region

	Gravity   float64
	Friction  float64
	Bounce    float64
	SpinDecay float64

	BodySize float64 // edge length of new bodies
	SpawnY   float64 // vertical start position of new bodies
	Spin     float64 // initial rotation speed of new bodies, degrees per frame

	// Seed feeds the spawn position generator. Zero picks a random seed.
	Seed uint64
}

func (c WorldConfig) withDefaults() WorldConfig {
	if c.Width <= 0 {
		c.Width = 1280
	}
	if c.Height <= 0 {
		c.Height = 720
	}
	if c.Gravity == 0 {
		c.Gravity = DefaultGravity
	}
	if c.Friction == 0 {
		c.Friction = DefaultFriction
	}
	if c.Bounce == 0 {
		c.Bounce = DefaultBounce
	}
	if c.SpinDecay == 0 {
		c.SpinDecay = DefaultSpinDecay
	}
	if c.BodySize <= 0 {
		c.BodySize = DefaultBodySize
	}
	if c.SpawnY == 0 {
		c.SpawnY = DefaultSpawnY
	}
	return c
}
