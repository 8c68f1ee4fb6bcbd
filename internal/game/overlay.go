package game

import (
	"fmt"
	"image"
	"image/color"
	"strings"
	"unicode/utf8"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/ebitenutil"
	"github.com/tanema/gween/ease"

	"github.com/phanxgames/cubedrop"
	"github.com/phanxgames/cubedrop/internal/player"
)

// Debug font glyph size.
const (
	glyphW = 6
	glyphH = 16
)

const (
	toastHold = 2.0
	toastFade = 0.6
)

var panelColor = color.RGBA{0, 0, 0, 0xb0}

// toast is a transient notice drawn at the bottom of the window. It holds
// for toastHold seconds and then fades out.
type toast struct {
	message string
	alpha   float64
	hold    float64
	fade    *tweenGroup

	img    *ebiten.Image
	imgMsg string
}

func (t *toast) show(msg string) {
	t.message = msg
	t.alpha = 1
	t.hold = toastHold
	t.fade = nil
}

func (t *toast) visible() bool {
	return t.message != "" && t.alpha > 0
}

func (t *toast) update(dt float32) {
	if t.message == "" {
		return
	}
	if t.hold > 0 {
		t.hold -= float64(dt)
		return
	}
	if t.fade == nil {
		t.fade = tweenValue(&t.alpha, 1, 0, toastFade, ease.InOutSine)
	}
	t.fade.update(dt)
	if t.fade.finished() {
		t.message = ""
		t.alpha = 0
		t.fade = nil
	}
}

func (t *toast) draw(screen *ebiten.Image) {
	if !t.visible() {
		return
	}
	if t.img == nil || t.imgMsg != t.message {
		if t.img != nil {
			t.img.Deallocate()
		}
		t.img = textPanel(t.message)
		t.imgMsg = t.message
	}
	sw, sh := screen.Bounds().Dx(), screen.Bounds().Dy()
	w, h := t.img.Bounds().Dx(), t.img.Bounds().Dy()
	var op ebiten.DrawImageOptions
	op.GeoM.Translate(float64(sw-w)/2, float64(sh-h-24))
	op.ColorScale.ScaleAlpha(float32(t.alpha))
	screen.DrawImage(t.img, &op)
}

// textPanel renders lines of debug text on a translucent panel.
func textPanel(lines ...string) *ebiten.Image {
	w, h := panelSize(lines...)
	img := ebiten.NewImage(w, h)
	img.Fill(panelColor)
	for i, line := range lines {
		ebitenutil.DebugPrintAt(img, line, 8, 4+i*glyphH)
	}
	return img
}

// panelSize returns the pixel size of a panel holding lines.
func panelSize(lines ...string) (int, int) {
	cols := 0
	for _, line := range lines {
		cols = max(cols, utf8.RuneCountInString(line))
	}
	return cols*glyphW + 16, len(lines)*glyphH + 8
}

// fpsWidget shows the current FPS and TPS, redrawn about every 0.5 seconds.
type fpsWidget struct {
	img        *ebiten.Image
	lastUpdate float64
}

func (f *fpsWidget) update(dt float32) {
	f.lastUpdate += float64(dt)
	if f.img != nil && f.lastUpdate < 0.5 {
		return
	}
	f.lastUpdate = 0
	if f.img == nil {
		// 100x32 is enough for "FPS: 60.0\nTPS: 60.0"
		f.img = ebiten.NewImage(100, 32)
	}
	f.img.Clear()
	f.img.Fill(color.RGBA{0, 0, 0, 128})
	ebitenutil.DebugPrint(f.img, fmt.Sprintf("FPS: %.1f\nTPS: %.1f", ebiten.ActualFPS(), ebiten.ActualTPS()))
}

func (f *fpsWidget) draw(screen *ebiten.Image) {
	if f.img == nil {
		return
	}
	var op ebiten.DrawImageOptions
	op.GeoM.Translate(4, 4)
	screen.DrawImage(f.img, &op)
}

// StatusSource reports what the playback surface is doing.
type StatusSource interface {
	Status() player.Status
}

// nowPlayingLines returns the panel text for st, or nil when the surface
// is hidden.
func nowPlayingLines(st player.Status, w *cubedrop.World) []string {
	if !st.Visible {
		return nil
	}
	name := st.Source.Name
	if name == "" {
		name = st.Source.Path
	}
	state := "paused"
	switch {
	case st.Playing && st.Loaded:
		state = "playing"
	case st.Playing:
		state = "loading audio"
	}
	lines := []string{"Now playing: " + name, state}
	if _, owner, ok := w.Playback().Active(); ok {
		if b := w.Bodies().Get(owner); b != nil {
			lines = append(lines, fmt.Sprintf("cube #%d at %.0f,%.0f", b.ID, b.X, b.Y))
		}
	}
	return lines
}

// nowPlaying caches the panel image between frames with the same text.
type nowPlaying struct {
	img *ebiten.Image
	key string
}

func (n *nowPlaying) draw(screen *ebiten.Image, lines []string, y int) {
	if len(lines) == 0 {
		return
	}
	key := strings.Join(lines, "\n")
	if n.img == nil || n.key != key {
		if n.img != nil {
			n.img.Deallocate()
		}
		n.img = textPanel(lines...)
		n.key = key
	}
	x := screen.Bounds().Dx() - n.img.Bounds().Dx() - 4
	var op ebiten.DrawImageOptions
	op.GeoM.Translate(float64(x), float64(y))
	screen.DrawImage(n.img, &op)
}

// FrameSource supplies the latest frame of the active video.
type FrameSource interface {
	Frame() (img *image.RGBA, seq uint64, visible bool)
}

// videoPanel mirrors the latest video frame into a GPU image, uploading
// only when the frame changes.
type videoPanel struct {
	img *ebiten.Image
	seq uint64
	has bool
}

// pending returns the frame to upload, or nil when the uploaded one is
// current, and whether the panel should be drawn at all.
func (v *videoPanel) pending(src FrameSource) (*image.RGBA, bool) {
	frame, seq, visible := src.Frame()
	if frame == nil {
		v.has = false
		return nil, false
	}
	if v.has && seq == v.seq {
		return nil, visible
	}
	v.seq, v.has = seq, true
	return frame, visible
}

// draw shows the frame in the top-right corner and returns the y below it,
// or y unchanged when nothing was drawn.
func (v *videoPanel) draw(screen *ebiten.Image, src FrameSource, y int) int {
	frame, visible := v.pending(src)
	if frame != nil {
		b := frame.Bounds()
		if v.img == nil || v.img.Bounds().Dx() != b.Dx() || v.img.Bounds().Dy() != b.Dy() {
			if v.img != nil {
				v.img.Deallocate()
			}
			v.img = ebiten.NewImage(b.Dx(), b.Dy())
		}
		v.img.WritePixels(frame.Pix)
	}
	if !visible || v.img == nil || !v.has {
		return y
	}
	w, h := v.img.Bounds().Dx(), v.img.Bounds().Dy()
	var op ebiten.DrawImageOptions
	op.GeoM.Translate(float64(screen.Bounds().Dx()-w-4), float64(y))
	screen.DrawImage(v.img, &op)
	return y + h + 4
}
