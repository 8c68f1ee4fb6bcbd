package game

import (
	"errors"
	"image"
	"math"
	"os"
	"path/filepath"
	"testing"
	"testing/fstest"

	"github.com/tanema/gween/ease"

	"github.com/phanxgames/cubedrop"
	"github.com/phanxgames/cubedrop/internal/player"
)

func TestPointerTracker(t *testing.T) {
	var p pointerTracker
	steps := []struct {
		down bool
		x, y int
		want pointerAction
	}{
		{false, 10, 10, pointerNone},
		{true, 10, 10, pointerPress},
		{true, 10, 10, pointerNone},
		{true, 20, 15, pointerMove},
		{false, 20, 15, pointerRelease},
		{false, 30, 30, pointerNone},
	}
	for i, s := range steps {
		if got := p.next(s.down, s.x, s.y); got != s.want {
			t.Errorf("step %d: got %v, want %v", i, got, s.want)
		}
	}
}

func TestStrokeEdges(t *testing.T) {
	r := cubedrop.Rect{X: 10, Y: 20, Width: 100, Height: 50}
	edges := strokeEdges(r, 4)
	want := [4]cubedrop.Rect{
		{X: 10, Y: 20, Width: 100, Height: 4},
		{X: 10, Y: 66, Width: 100, Height: 4},
		{X: 10, Y: 24, Width: 4, Height: 42},
		{X: 106, Y: 24, Width: 4, Height: 42},
	}
	if edges != want {
		t.Errorf("got %v, want %v", edges, want)
	}
	for _, e := range edges {
		if !r.Encloses(e) {
			t.Errorf("edge %v outside %v", e, r)
		}
	}
}

func TestBodyGeoM(t *testing.T) {
	near := func(a, b float64) bool { return math.Abs(a-b) < 1e-9 }
	b := &cubedrop.Body{X: 100, Y: 50, Width: 200, Height: 200}

	t.Run("unrotated", func(t *testing.T) {
		m := bodyGeoM(b, 400, 400, 1)
		x, y := m.Apply(0, 0)
		if !near(x, 100) || !near(y, 50) {
			t.Errorf("top-left = %v,%v, want 100,50", x, y)
		}
		x, y = m.Apply(400, 400)
		if !near(x, 300) || !near(y, 250) {
			t.Errorf("bottom-right = %v,%v, want 300,250", x, y)
		}
	})

	t.Run("rotated 90", func(t *testing.T) {
		b := *b
		b.Rotation = 90
		m := bodyGeoM(&b, 1, 1, 1)
		x, y := m.Apply(0, 0)
		// Top-left corner swings to the top-right around the center.
		if !near(x, 300) || !near(y, 50) {
			t.Errorf("top-left = %v,%v, want 300,50", x, y)
		}
		x, y = m.Apply(0.5, 0.5)
		if !near(x, 200) || !near(y, 150) {
			t.Errorf("center moved to %v,%v", x, y)
		}
	})

	t.Run("scaled about center", func(t *testing.T) {
		m := bodyGeoM(b, 1, 1, 0.5)
		x, y := m.Apply(0, 0)
		if !near(x, 150) || !near(y, 100) {
			t.Errorf("top-left = %v,%v, want 150,100", x, y)
		}
	})
}

func TestTweenValue(t *testing.T) {
	var v float64
	g := tweenValue(&v, 0, 10, 1, ease.Linear)
	if v != 0 {
		t.Fatalf("start = %v", v)
	}
	g.update(0.5)
	if math.Abs(v-5) > 1e-4 {
		t.Errorf("mid = %v, want 5", v)
	}
	if g.finished() {
		t.Error("finished too early")
	}
	g.update(0.6)
	if v != 10 || !g.finished() {
		t.Errorf("end = %v finished=%v", v, g.finished())
	}

	var nilGroup *tweenGroup
	nilGroup.update(1)
	if !nilGroup.finished() {
		t.Error("nil group should be finished")
	}
}

func TestTweenPair(t *testing.T) {
	var a, b float64
	g := tweenPair(&a, 0, 1, &b, 1, 0, 1, ease.Linear)
	g.update(1)
	if a != 1 || b != 0 || !g.finished() {
		t.Errorf("a=%v b=%v finished=%v", a, b, g.finished())
	}
}

func TestToastLifecycle(t *testing.T) {
	var ts toast
	if ts.visible() {
		t.Fatal("zero toast visible")
	}
	ts.show("x.txt is not a video file")
	if !ts.visible() || ts.alpha != 1 {
		t.Fatal("toast not shown")
	}

	ts.update(toastHold / 2)
	if ts.alpha != 1 {
		t.Errorf("alpha during hold = %v", ts.alpha)
	}
	ts.update(toastHold)
	ts.update(toastFade / 2)
	if ts.alpha <= 0 || ts.alpha >= 1 {
		t.Errorf("alpha mid-fade = %v", ts.alpha)
	}
	ts.update(toastFade)
	if ts.visible() {
		t.Error("toast still visible after fade")
	}

	ts.show("again")
	if !ts.visible() || ts.fade != nil {
		t.Error("show did not restart the toast")
	}
}

func TestPanelSize(t *testing.T) {
	w, h := panelSize("abc", "hello")
	if w != 5*glyphW+16 || h != 2*glyphH+8 {
		t.Errorf("got %dx%d", w, h)
	}
}

func TestNowPlayingLines(t *testing.T) {
	w := cubedrop.NewWorld(cubedrop.WorldConfig{Seed: 1})
	m := cubedrop.MediaRef{Path: "/v/clip.mp4", Name: "clip.mp4"}

	tests := []struct {
		name string
		st   player.Status
		want []string
	}{
		{"hidden", player.Status{Source: m, Playing: true}, nil},
		{"loading", player.Status{Source: m, Playing: true, Visible: true}, []string{"Now playing: clip.mp4", "loading audio"}},
		{"playing", player.Status{Source: m, Playing: true, Loaded: true, Visible: true}, []string{"Now playing: clip.mp4", "playing"}},
		{"paused", player.Status{Source: m, Visible: true}, []string{"Now playing: clip.mp4", "paused"}},
		{"path fallback", player.Status{Source: cubedrop.MediaRef{Path: "/v/x.mkv"}, Visible: true}, []string{"Now playing: /v/x.mkv", "paused"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := nowPlayingLines(tt.st, w)
			if len(got) != len(tt.want) {
				t.Fatalf("got %q, want %q", got, tt.want)
			}
			for i := range got {
				if got[i] != tt.want[i] {
					t.Errorf("line %d = %q, want %q", i, got[i], tt.want[i])
				}
			}
		})
	}
}

func TestSanitizeLabel(t *testing.T) {
	tests := []struct{ in, want string }{
		{"", "unlabeled"},
		{"  ", "unlabeled"},
		{"after-drop", "after-drop"},
		{"cube in target", "cube_in_target"},
		{"a/b\\c", "a_b_c"},
		{"v1.2", "v1.2"},
	}
	for _, tt := range tests {
		if got := sanitizeLabel(tt.in); got != tt.want {
			t.Errorf("sanitizeLabel(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestUnpremultiply(t *testing.T) {
	pixels := []byte{
		128, 64, 0, 128, // half-transparent
		255, 255, 255, 255, // opaque
		0, 0, 0, 0, // transparent
		10, 20, 30, 0, // garbage color under zero alpha stays as-is
	}
	img := unpremultiply(pixels, 2, 2)
	want := []byte{
		255, 127, 0, 128,
		255, 255, 255, 255,
		0, 0, 0, 0,
		10, 20, 30, 0,
	}
	if img.Bounds() != image.Rect(0, 0, 2, 2) {
		t.Fatalf("bounds = %v", img.Bounds())
	}
	for i := range want {
		if img.Pix[i] != want[i] {
			t.Errorf("Pix[%d] = %d, want %d", i, img.Pix[i], want[i])
		}
	}
}

func TestDroppedFiles(t *testing.T) {
	fsys := fstest.MapFS{
		"b.mp4":       {Data: []byte("b")},
		"a.mov":       {Data: []byte("a")},
		"dir/inner.x": {Data: []byte("x")},
	}
	names, err := droppedFiles(fsys)
	if err != nil {
		t.Fatal(err)
	}
	if len(names) != 2 || names[0] != "a.mov" || names[1] != "b.mp4" {
		t.Errorf("names = %v", names)
	}
}

func TestResolveDroppedCopies(t *testing.T) {
	fsys := fstest.MapFS{"clip.mp4": {Data: []byte("video bytes")}}
	dir := t.TempDir()

	f, err := resolveDropped(fsys, "clip.mp4", fixedDir(dir))
	if err != nil {
		t.Fatal(err)
	}
	if f.Name != "clip.mp4" {
		t.Errorf("Name = %q", f.Name)
	}
	if filepath.Dir(f.Path) != dir || filepath.Ext(f.Path) != ".mp4" {
		t.Errorf("Path = %q", f.Path)
	}
	data, err := os.ReadFile(f.Path)
	if err != nil || string(data) != "video bytes" {
		t.Errorf("copied %q, %v", data, err)
	}
	if !f.IsVideo() {
		t.Error("copied file lost its video type")
	}
}

func TestResolveDroppedRealPath(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "clip.webm")
	if err := os.WriteFile(path, []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}
	f, err := resolveDropped(os.DirFS(dir), "clip.webm", fixedDir(t.TempDir()))
	if err != nil {
		t.Fatal(err)
	}
	// os.DirFS hands out *os.File values named by their absolute path.
	if f.Path != path {
		t.Errorf("Path = %q, want %q", f.Path, path)
	}
}

func fixedDir(dir string) func() (string, error) {
	return func() (string, error) { return dir, nil }
}

func TestResolveDroppedSkipsNonVideo(t *testing.T) {
	fsys := fstest.MapFS{"notes.txt": {Data: []byte("text")}}
	called := false
	f, err := resolveDropped(fsys, "notes.txt", func() (string, error) {
		called = true
		return t.TempDir(), nil
	})
	if err != nil {
		t.Fatal(err)
	}
	if called {
		t.Error("non-video drop was copied to disk")
	}
	if f.IsVideo() {
		t.Error("non-video reported as video")
	}
	w := cubedrop.NewWorld(cubedrop.WorldConfig{Seed: 1})
	if _, err := w.Drop(f); !errors.Is(err, cubedrop.ErrInvalidMediaType) {
		t.Errorf("Drop err = %v, want ErrInvalidMediaType", err)
	}
}

func TestGameCloseRemovesDropCopies(t *testing.T) {
	g := &Game{}
	dir, err := g.dropDir()
	if err != nil {
		t.Fatal(err)
	}
	if again, _ := g.dropDir(); again != dir {
		t.Errorf("dropDir changed: %q then %q", dir, again)
	}
	f, err := resolveDropped(fstest.MapFS{"a.mp4": {Data: []byte("v")}}, "a.mp4", g.dropDir)
	if err != nil {
		t.Fatal(err)
	}
	if filepath.Dir(f.Path) != dir {
		t.Fatalf("copy at %q, want under %q", f.Path, dir)
	}

	if err := g.Close(); err != nil {
		t.Fatal(err)
	}
	if _, err := os.Stat(dir); !os.IsNotExist(err) {
		t.Errorf("drop dir still present: %v", err)
	}
	if err := g.Close(); err != nil {
		t.Errorf("second Close: %v", err)
	}
}

type fakeFrames struct {
	img     *image.RGBA
	seq     uint64
	visible bool
}

func (f *fakeFrames) Frame() (*image.RGBA, uint64, bool) { return f.img, f.seq, f.visible }

func TestVideoPanelPending(t *testing.T) {
	var v videoPanel
	src := &fakeFrames{}

	if frame, show := v.pending(src); frame != nil || show {
		t.Fatal("empty source should draw nothing")
	}

	src.img = image.NewRGBA(image.Rect(0, 0, 4, 2))
	src.seq = 1
	src.visible = true
	if frame, show := v.pending(src); frame != src.img || !show {
		t.Fatalf("new frame: frame=%v show=%v", frame, show)
	}
	// Paused: same frame, nothing to upload, still drawn.
	if frame, show := v.pending(src); frame != nil || !show {
		t.Errorf("unchanged frame: frame=%v show=%v", frame, show)
	}

	src.seq = 2
	if frame, _ := v.pending(src); frame == nil {
		t.Error("advanced frame not uploaded")
	}

	src.visible = false
	if _, show := v.pending(src); show {
		t.Error("hidden surface drawn")
	}

	// A new source clears the frame; its first frame uploads even if the
	// sequence number repeats.
	src.img = nil
	v.pending(src)
	src.img = image.NewRGBA(image.Rect(0, 0, 4, 2))
	src.visible = true
	if frame, _ := v.pending(src); frame == nil {
		t.Error("first frame after a source switch not uploaded")
	}
}
