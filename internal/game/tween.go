package game

import (
	"github.com/tanema/gween"
	"github.com/tanema/gween/ease"
)

// tweenGroup animates up to 2 float64 fields simultaneously. Call update(dt)
// each frame; values are written to the fields as they change.
type tweenGroup struct {
	tweens [2]*gween.Tween
	fields [2]*float64
	count  int
	done   bool
}

func (g *tweenGroup) update(dt float32) {
	if g == nil || g.done {
		return
	}
	allDone := true
	for i := 0; i < g.count; i++ {
		val, finished := g.tweens[i].Update(dt)
		*g.fields[i] = float64(val)
		if !finished {
			allDone = false
		}
	}
	g.done = allDone
}

// finished reports whether the group has nothing left to animate. A nil
// group counts as finished.
func (g *tweenGroup) finished() bool {
	return g == nil || g.done
}

// tweenValue animates *field from `from` to `to`.
func tweenValue(field *float64, from, to float64, duration float32, fn ease.TweenFunc) *tweenGroup {
	*field = from
	g := &tweenGroup{count: 1}
	g.tweens[0] = gween.New(float32(from), float32(to), duration, fn)
	g.fields[0] = field
	return g
}

// tweenPair animates two fields together, such as a scale and an alpha.
func tweenPair(a *float64, fromA, toA float64, b *float64, fromB, toB float64, duration float32, fn ease.TweenFunc) *tweenGroup {
	*a, *b = fromA, fromB
	g := &tweenGroup{count: 2}
	g.tweens[0] = gween.New(float32(fromA), float32(toA), duration, fn)
	g.tweens[1] = gween.New(float32(fromB), float32(toB), duration, fn)
	g.fields[0] = a
	g.fields[1] = b
	return g
}
