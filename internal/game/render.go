package game

import (
	"image"
	"image/color"
	"math"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/tanema/gween/ease"

	"github.com/phanxgames/cubedrop"
)

var (
	clearColor       = color.RGBA{0x12, 0x12, 0x18, 0xff}
	placeholderColor = color.RGBA{0x44, 0x48, 0x55, 0xff}
	grabbedColor     = color.RGBA{0xff, 0xd0, 0x40, 0xff}
	targetFill       = color.RGBA{0x30, 0x80, 0xff, 0x30}
	targetStroke     = color.RGBA{0x30, 0x80, 0xff, 0xc0}
	activeStroke     = color.RGBA{0x40, 0xff, 0x80, 0xff}
)

const (
	popDuration   = 0.35
	flashDuration = 0.5
	strokeWidth   = 3
)

// visual is the drawable state of one body. Physics state stays in the
// world; the renderer only adds what is needed to draw it.
type visual struct {
	thumb *ebiten.Image
	scale float64
	alpha float64
	pop   *tweenGroup
}

// renderer maps bodies to visuals and draws the scene.
type renderer struct {
	visuals    map[cubedrop.BodyID]*visual
	whitePixel *ebiten.Image

	flash      float64
	flashTween *tweenGroup
}

func newRenderer() *renderer {
	wp := ebiten.NewImage(1, 1)
	wp.Fill(color.White)
	return &renderer{
		visuals:    make(map[cubedrop.BodyID]*visual),
		whitePixel: wp,
	}
}

// visualFor returns the visual for id, creating it on first use.
func (r *renderer) visualFor(id cubedrop.BodyID) *visual {
	v, ok := r.visuals[id]
	if !ok {
		v = &visual{scale: 1, alpha: 1}
		r.visuals[id] = v
	}
	return v
}

// spawned starts the pop-in animation for a new body and flashes the
// window border to acknowledge the drop.
func (r *renderer) spawned(id cubedrop.BodyID) {
	v := r.visualFor(id)
	v.pop = tweenPair(&v.scale, 0.2, 1, &v.alpha, 0, 1, popDuration, ease.OutCubic)
	r.flashTween = tweenValue(&r.flash, 1, 0, flashDuration, ease.InOutQuad)
}

// setThumbnail attaches a decoded frame to a body.
func (r *renderer) setThumbnail(id cubedrop.BodyID, img image.Image) {
	v := r.visualFor(id)
	if v.thumb != nil {
		v.thumb.Deallocate()
	}
	v.thumb = ebiten.NewImageFromImage(img)
}

func (r *renderer) update(dt float32) {
	for _, v := range r.visuals {
		if v.pop != nil {
			v.pop.update(dt)
			if v.pop.finished() {
				v.pop = nil
			}
		}
	}
	if r.flashTween != nil {
		r.flashTween.update(dt)
		if r.flashTween.finished() {
			r.flashTween = nil
		}
	}
}

func (r *renderer) draw(screen *ebiten.Image, w *cubedrop.World) {
	screen.Fill(clearColor)

	target := w.Target()
	r.fillRect(screen, target, targetFill, 1)
	stroke := targetStroke
	if w.Playback().State() == cubedrop.PlaybackPlaying {
		stroke = activeStroke
	}
	r.strokeRect(screen, target, strokeWidth, stroke)

	grabbed, hasGrab := w.Grabbed()
	for b := range w.Bodies().All() {
		v := r.visualFor(b.ID)
		r.drawBody(screen, b, v)
		if hasGrab && b.ID == grabbed {
			r.strokeRect(screen, b.Bounds(), 2, grabbedColor)
		}
	}

	if r.flash > 0 {
		vp := w.Viewport()
		r.strokeRect(screen, vp, 6, color.RGBA{0x30, 0x80, 0xff, uint8(r.flash * 0xff)})
	}
}

func (r *renderer) drawBody(screen *ebiten.Image, b *cubedrop.Body, v *visual) {
	var op ebiten.DrawImageOptions
	src := r.whitePixel
	sw, sh := 1.0, 1.0
	if v.thumb != nil {
		src = v.thumb
		bounds := v.thumb.Bounds()
		sw, sh = float64(bounds.Dx()), float64(bounds.Dy())
	} else {
		op.ColorScale.ScaleWithColor(placeholderColor)
	}
	op.GeoM = bodyGeoM(b, sw, sh, v.scale)
	op.ColorScale.ScaleAlpha(float32(v.alpha))
	op.Filter = ebiten.FilterLinear
	screen.DrawImage(src, &op)
}

// bodyGeoM maps a source image of size sw x sh onto the body's rectangle,
// rotated about its center by Rotation degrees and scaled by scale.
func bodyGeoM(b *cubedrop.Body, sw, sh, scale float64) ebiten.GeoM {
	var m ebiten.GeoM
	m.Scale(b.Width/sw, b.Height/sh)
	m.Translate(-b.Width/2, -b.Height/2)
	m.Scale(scale, scale)
	m.Rotate(b.Rotation * math.Pi / 180)
	c := b.Center()
	m.Translate(c.X, c.Y)
	return m
}

func (r *renderer) fillRect(dst *ebiten.Image, rect cubedrop.Rect, clr color.Color, alpha float32) {
	if rect.Width <= 0 || rect.Height <= 0 {
		return
	}
	var op ebiten.DrawImageOptions
	op.GeoM.Scale(rect.Width, rect.Height)
	op.GeoM.Translate(rect.X, rect.Y)
	op.ColorScale.ScaleWithColor(clr)
	op.ColorScale.ScaleAlpha(alpha)
	dst.DrawImage(r.whitePixel, &op)
}

func (r *renderer) strokeRect(dst *ebiten.Image, rect cubedrop.Rect, width float64, clr color.Color) {
	for _, edge := range strokeEdges(rect, width) {
		r.fillRect(dst, edge, clr, 1)
	}
}

// strokeEdges returns the four rectangles that outline rect from the inside.
func strokeEdges(rect cubedrop.Rect, width float64) [4]cubedrop.Rect {
	width = min(width, rect.Width/2, rect.Height/2)
	return [4]cubedrop.Rect{
		{X: rect.X, Y: rect.Y, Width: rect.Width, Height: width},
		{X: rect.X, Y: rect.Bottom() - width, Width: rect.Width, Height: width},
		{X: rect.X, Y: rect.Y + width, Width: width, Height: rect.Height - 2*width},
		{X: rect.Right() - width, Y: rect.Y + width, Width: width, Height: rect.Height - 2*width},
	}
}
