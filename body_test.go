package cubedrop

import "testing"

func TestRegistryAdd(t *testing.T) {
	r := NewRegistry(200, 100, 7)
	const viewportW = 1000.0

	for i := 0; i < 50; i++ {
		id := r.Add(MediaRef{Name: "clip"}, viewportW)
		if id != BodyID(i+1) {
			t.Fatalf("id = %d, want %d", id, i+1)
		}
		b := r.Get(id)
		if b == nil {
			t.Fatalf("Get(%d) returned nil", id)
		}
		if b.X < 0 || b.X >= viewportW-200 {
			t.Errorf("spawn X = %v, want within [0, 800)", b.X)
		}
		if b.Y != 100 {
			t.Errorf("spawn Y = %v, want 100", b.Y)
		}
		if b.Width != 200 || b.Height != 200 {
			t.Errorf("size = %vx%v, want 200x200", b.Width, b.Height)
		}
		if b.VX != 0 || b.VY != 0 || b.Manual {
			t.Errorf("new body not at rest: %+v", b)
		}
	}
	if r.Len() != 50 {
		t.Errorf("Len = %d, want 50", r.Len())
	}
}

func TestRegistrySeeded(t *testing.T) {
	a := NewRegistry(200, 100, 42)
	b := NewRegistry(200, 100, 42)
	for i := 0; i < 5; i++ {
		ia := a.Add(MediaRef{}, 1280)
		ib := b.Add(MediaRef{}, 1280)
		if a.Get(ia).X != b.Get(ib).X {
			t.Fatalf("same seed produced different spawn positions at %d", i)
		}
	}
}

func TestRegistryAllOrder(t *testing.T) {
	r := NewRegistry(200, 100, 1)
	for i := 0; i < 4; i++ {
		r.Add(MediaRef{}, 1280)
	}

	// The sequence is restartable: two passes yield the same order.
	for pass := 0; pass < 2; pass++ {
		var got []BodyID
		for b := range r.All() {
			got = append(got, b.ID)
		}
		want := []BodyID{1, 2, 3, 4}
		if len(got) != len(want) {
			t.Fatalf("pass %d: got %v, want %v", pass, got, want)
		}
		for i := range want {
			if got[i] != want[i] {
				t.Fatalf("pass %d: got %v, want %v", pass, got, want)
			}
		}
	}

	// Early break stops the iteration.
	n := 0
	for range r.All() {
		n++
		if n == 2 {
			break
		}
	}
	if n != 2 {
		t.Errorf("break: visited %d, want 2", n)
	}
}

func TestRegistryTopmostAt(t *testing.T) {
	r := NewRegistry(200, 100, 1)
	a := r.Get(r.Add(MediaRef{}, 1280))
	b := r.Get(r.Add(MediaRef{}, 1280))
	a.X, a.Y = 0, 0
	b.X, b.Y = 100, 0

	if got := r.topmostAt(150, 50); got != b {
		t.Errorf("overlap: got %v, want the later body", got)
	}
	if got := r.topmostAt(50, 50); got != a {
		t.Errorf("left only: got %v, want first body", got)
	}
	if got := r.topmostAt(500, 500); got != nil {
		t.Errorf("empty space: got %v, want nil", got)
	}
}

func TestBodyGeometry(t *testing.T) {
	b := &Body{X: 10, Y: 20, Width: 200, Height: 100}
	if got := b.Bounds(); got != (Rect{10, 20, 200, 100}) {
		t.Errorf("Bounds = %v", got)
	}
	if got := b.Center(); got != (Vec2{110, 70}) {
		t.Errorf("Center = %v", got)
	}
}
