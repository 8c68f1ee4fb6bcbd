// Package tui is a terminal host for a cubedrop.World built on tcell.
//
// The world keeps its pixel coordinates; the host scales them onto the
// character grid. Mouse drags move cubes. Dragging a file from a file
// manager into most terminals types its path, so a path typed or pasted on
// the prompt line and confirmed with Enter is dropped into the world.
package tui

import (
	"fmt"
	"image"
	"strings"
	"time"

	"github.com/gdamore/tcell/v2"
	"github.com/yohamta/donburi"
	"github.com/yohamta/donburi/features/events"

	"github.com/phanxgames/cubedrop"
	"github.com/phanxgames/cubedrop/internal/player"
	"github.com/phanxgames/cubedrop/internal/thumb"
)

const (
	framePeriod = 16 * time.Millisecond // ~60 FPS
	noticeTicks = 180
)

var (
	styleDefault = tcell.StyleDefault
	styleTarget  = tcell.StyleDefault.Foreground(tcell.ColorBlue)
	styleActive  = tcell.StyleDefault.Foreground(tcell.ColorGreen).Bold(true)
	styleStatus  = tcell.StyleDefault.Reverse(true)
	styleNotice  = tcell.StyleDefault.Foreground(tcell.ColorRed).Bold(true)
	styleGrabbed = tcell.StyleDefault.Background(tcell.ColorYellow).Foreground(tcell.ColorBlack)
)

// Options configures a Host. World and Screen are required.
type Options struct {
	World  *cubedrop.World
	Screen tcell.Screen
	Events donburi.World
	Thumbs *thumb.Capturer
	Status interface{ Status() player.Status }
}

// Host runs a world in the terminal.
type Host struct {
	screen tcell.Screen
	world  *cubedrop.World
	events donburi.World
	thumbs *thumb.Capturer
	status interface{ Status() player.Status }

	cols, rows int
	colors     map[cubedrop.BodyID]tcell.Color

	pointerDown bool
	prompt      []rune
	notice      string
	noticeLeft  int
}

// New creates a host. The screen must already be initialised.
func New(opts Options) *Host {
	h := &Host{
		screen: opts.Screen,
		world:  opts.World,
		events: opts.Events,
		thumbs: opts.Thumbs,
		status: opts.Status,
		colors: make(map[cubedrop.BodyID]tcell.Color),
	}
	h.cols, h.rows = h.screen.Size()
	h.screen.EnableMouse()
	h.world.OnDrop(h.handleDrop)
	return h
}

// NewScreen creates and initialises a tcell screen for the real terminal.
func NewScreen() (tcell.Screen, error) {
	screen, err := tcell.NewScreen()
	if err != nil {
		return nil, err
	}
	if err := screen.Init(); err != nil {
		return nil, err
	}
	return screen, nil
}

func (h *Host) handleDrop(r cubedrop.DropResult) {
	if r.Err != nil {
		h.showNotice(r.Err.Error())
		return
	}
	if h.thumbs != nil {
		if b := h.world.Bodies().Get(r.Body); b != nil {
			h.thumbs.Request(b.ID, b.Media.Path)
		}
	}
}

func (h *Host) showNotice(msg string) {
	h.notice = msg
	h.noticeLeft = noticeTicks
}

// Run polls terminal events and steps the world until the user quits with
// Escape on an empty prompt or Ctrl+C. The screen is finalised on return.
func (h *Host) Run() error {
	done := make(chan struct{})
	defer h.screen.Fini()
	defer close(done)

	eventChan, _ := pollEvents(h.screen, done)

	ticker := time.NewTicker(framePeriod)
	defer ticker.Stop()

	for {
		select {
		case ev := <-eventChan:
			if !h.handleEvent(ev) {
				return nil
			}
		case <-ticker.C:
			h.tick()
		}
	}
}

// pollEvents forwards screen events until the screen is finalised or done
// is closed. It never blocks on a reader that has gone away. exited is
// closed when the forwarding goroutine returns.
func pollEvents(screen tcell.Screen, done <-chan struct{}) (events <-chan tcell.Event, exited <-chan struct{}) {
	ch := make(chan tcell.Event, 100)
	stop := make(chan struct{})
	go func() {
		defer close(stop)
		for {
			ev := screen.PollEvent()
			if ev == nil {
				return
			}
			select {
			case ch <- ev:
			case <-done:
				return
			}
		}
	}()
	return ch, stop
}

// handleEvent applies one terminal event. It returns false to quit.
func (h *Host) handleEvent(ev tcell.Event) bool {
	switch ev := ev.(type) {
	case *tcell.EventKey:
		return h.handleKey(ev)
	case *tcell.EventMouse:
		h.handleMouse(ev)
	case *tcell.EventResize:
		h.cols, h.rows = ev.Size()
		h.screen.Sync()
	}
	return true
}

func (h *Host) handleKey(ev *tcell.EventKey) bool {
	switch ev.Key() {
	case tcell.KeyCtrlC:
		return false
	case tcell.KeyEscape:
		if len(h.prompt) == 0 {
			return false
		}
		h.prompt = h.prompt[:0]
	case tcell.KeyEnter:
		if path := parsePath(string(h.prompt)); path != "" {
			h.world.InjectDrop(cubedrop.File{Path: path})
		}
		h.prompt = h.prompt[:0]
	case tcell.KeyBackspace, tcell.KeyBackspace2:
		if n := len(h.prompt); n > 0 {
			h.prompt = h.prompt[:n-1]
		}
	case tcell.KeyRune:
		h.prompt = append(h.prompt, ev.Rune())
	}
	return true
}

func (h *Host) handleMouse(ev *tcell.EventMouse) {
	cx, cy := ev.Position()
	x, y := h.cellToWorld(cx, cy)
	down := ev.Buttons()&tcell.Button1 != 0
	switch {
	case down && !h.pointerDown:
		h.world.InjectPress(x, y)
	case !down && h.pointerDown:
		h.world.InjectRelease(x, y)
	case down:
		h.world.InjectMove(x, y)
	}
	h.pointerDown = down
}

// tick advances one frame and redraws.
func (h *Host) tick() {
	h.world.Step()
	if h.events != nil {
		events.ProcessAllEvents(h.events)
	}
	if h.thumbs != nil {
		for _, res := range h.thumbs.Poll() {
			if res.Err != nil {
				h.showNotice(fmt.Sprintf("no thumbnail for cube %d", res.Body))
				continue
			}
			h.colors[res.Body] = averageColor(res.Img)
		}
	}
	if h.noticeLeft > 0 {
		h.noticeLeft--
		if h.noticeLeft == 0 {
			h.notice = ""
		}
	}
	h.draw()
}

// scale returns world pixels per cell on each axis.
func (h *Host) scale() (float64, float64) {
	vp := h.world.Viewport()
	cols, rows := max(h.cols, 1), max(h.rows, 1)
	return vp.Width / float64(cols), vp.Height / float64(rows)
}

// cellToWorld maps a cell to the world point at its center.
func (h *Host) cellToWorld(cx, cy int) (float64, float64) {
	sx, sy := h.scale()
	return (float64(cx) + 0.5) * sx, (float64(cy) + 0.5) * sy
}

// cellRect returns the cells covered by r, as a half-open range.
func (h *Host) cellRect(r cubedrop.Rect) (x0, y0, x1, y1 int) {
	sx, sy := h.scale()
	x0 = int(r.X / sx)
	y0 = int(r.Y / sy)
	x1 = max(int((r.Right())/sx), x0+1)
	y1 = max(int((r.Bottom())/sy), y0+1)
	return x0, y0, x1, y1
}

func (h *Host) draw() {
	s := h.screen
	s.Clear()

	active := styleTarget
	if h.world.Playback().State() == cubedrop.PlaybackPlaying {
		active = styleActive
	}
	h.drawBox(h.world.Target(), active)

	grabbed, hasGrab := h.world.Grabbed()
	for b := range h.world.Bodies().All() {
		style := styleDefault.Background(h.colorFor(b.ID)).Foreground(tcell.ColorWhite)
		if hasGrab && b.ID == grabbed {
			style = styleGrabbed
		}
		h.fillBody(b, style)
	}

	h.drawStatus()
	s.Show()
}

func (h *Host) colorFor(id cubedrop.BodyID) tcell.Color {
	if c, ok := h.colors[id]; ok {
		return c
	}
	return tcell.PaletteColor(int(id%6) + 9)
}

func (h *Host) fillBody(b *cubedrop.Body, style tcell.Style) {
	x0, y0, x1, y1 := h.cellRect(b.Bounds())
	label := []rune(b.Media.Name)
	for y := y0; y < y1; y++ {
		for x := x0; x < x1; x++ {
			ch := ' '
			if i := x - x0; y == y0 && i < len(label) {
				ch = label[i]
			}
			h.screen.SetContent(x, y, ch, nil, style)
		}
	}
}

func (h *Host) drawBox(r cubedrop.Rect, style tcell.Style) {
	x0, y0, x1, y1 := h.cellRect(r)
	x1--
	y1--
	for x := x0; x <= x1; x++ {
		h.screen.SetContent(x, y0, tcell.RuneHLine, nil, style)
		h.screen.SetContent(x, y1, tcell.RuneHLine, nil, style)
	}
	for y := y0; y <= y1; y++ {
		h.screen.SetContent(x0, y, tcell.RuneVLine, nil, style)
		h.screen.SetContent(x1, y, tcell.RuneVLine, nil, style)
	}
	h.screen.SetContent(x0, y0, tcell.RuneULCorner, nil, style)
	h.screen.SetContent(x1, y0, tcell.RuneURCorner, nil, style)
	h.screen.SetContent(x0, y1, tcell.RuneLLCorner, nil, style)
	h.screen.SetContent(x1, y1, tcell.RuneLRCorner, nil, style)
}

func (h *Host) drawStatus() {
	top := fmt.Sprintf(" cubes: %d ", h.world.Bodies().Len())
	if h.status != nil {
		if st := h.status.Status(); st.Visible {
			top += "| now playing: " + st.Source.Name + " "
		}
	}
	h.printAt(0, 0, top, styleStatus)

	bottom := "drop> " + string(h.prompt)
	h.printAt(0, h.rows-1, bottom, styleStatus)
	if h.notice != "" {
		h.printAt(len([]rune(bottom))+1, h.rows-1, h.notice, styleNotice)
	}
}

func (h *Host) printAt(x, y int, s string, style tcell.Style) {
	for _, r := range s {
		if x >= h.cols {
			return
		}
		h.screen.SetContent(x, y, r, nil, style)
		x++
	}
}

// parsePath cleans a path typed or pasted by a terminal: surrounding
// whitespace and quotes are removed and backslash-escaped spaces unescaped.
// A file:// URL is reduced to its path.
func parsePath(s string) string {
	s = strings.TrimSpace(s)
	if len(s) >= 2 && (s[0] == '\'' || s[0] == '"') && s[len(s)-1] == s[0] {
		s = s[1 : len(s)-1]
	}
	s = strings.TrimPrefix(s, "file://")
	return strings.ReplaceAll(s, `\ `, " ")
}

// averageColor returns the mean color of img.
func averageColor(img image.Image) tcell.Color {
	b := img.Bounds()
	var r, g, bl, n uint64
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			cr, cg, cb, _ := img.At(x, y).RGBA()
			r += uint64(cr >> 8)
			g += uint64(cg >> 8)
			bl += uint64(cb >> 8)
			n++
		}
	}
	if n == 0 {
		return tcell.ColorGray
	}
	return tcell.NewRGBColor(int32(r/n), int32(g/n), int32(bl/n))
}
