// Package game is the Ebitengine host: it feeds window input and file drops
// into a cubedrop.World, steps it once per tick and draws the result.
package game

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/inpututil"
	"github.com/yohamta/donburi"
	"github.com/yohamta/donburi/features/events"

	"github.com/phanxgames/cubedrop"
	"github.com/phanxgames/cubedrop/internal/thumb"
)

// Options configures a Game. World is required; the rest is optional.
type Options struct {
	World *cubedrop.World

	// Events is processed once per tick after the world steps, so systems
	// subscribed to playback events run on the frame loop.
	Events donburi.World

	Thumbs *thumb.Capturer
	Status StatusSource
	Video  FrameSource

	Title         string
	Width, Height int
	ShowFPS       bool
	ScreenshotDir string
}

// Game implements ebiten.Game.
type Game struct {
	world  *cubedrop.World
	events donburi.World
	thumbs *thumb.Capturer
	status StatusSource
	video  FrameSource

	title         string
	width, height int
	showFPS       bool

	render  *renderer
	toast   toast
	fps     fpsWidget
	playing nowPlaying
	panel   videoPanel

	pointer pointerTracker
	tmpDir  string
	shotDir string
	shots   []string
}

// New creates a game around opts.World and registers its drop handler.
func New(opts Options) *Game {
	g := &Game{
		world:   opts.World,
		events:  opts.Events,
		thumbs:  opts.Thumbs,
		status:  opts.Status,
		video:   opts.Video,
		title:   opts.Title,
		width:   opts.Width,
		height:  opts.Height,
		showFPS: opts.ShowFPS,
		render:  newRenderer(),
		shotDir: opts.ScreenshotDir,
	}
	if g.title == "" {
		g.title = "cubedrop"
	}
	if g.width <= 0 || g.height <= 0 {
		vp := g.world.Viewport()
		g.width, g.height = int(vp.Width), int(vp.Height)
	}
	if g.shotDir == "" {
		g.shotDir = "screenshots"
	}
	g.world.OnDrop(g.handleDrop)
	return g
}

// handleDrop reacts to a processed drop: accepted videos get a thumbnail
// capture and a pop-in; rejected files get a notice.
func (g *Game) handleDrop(r cubedrop.DropResult) {
	if r.Err != nil {
		fmt.Fprintf(os.Stderr, "[cubedrop] drop: %v\n", r.Err)
		g.toast.show(fmt.Sprintf("%s is not a video file", displayName(r.File)))
		return
	}
	g.render.spawned(r.Body)
	if g.thumbs != nil {
		if b := g.world.Bodies().Get(r.Body); b != nil {
			g.thumbs.Request(b.ID, b.Media.Path)
		}
	}
}

func displayName(f cubedrop.File) string {
	if f.Name != "" {
		return f.Name
	}
	return filepath.Base(f.Path)
}

// Update implements ebiten.Game.
func (g *Game) Update() error {
	dt := float32(1.0 / float64(ebiten.TPS()))

	g.world.SetViewport(float64(g.width), float64(g.height))
	g.pollDrops()
	g.pollPointer()
	if inpututil.IsKeyJustPressed(ebiten.KeyF12) {
		g.Screenshot("manual")
	}

	g.world.Step()
	if g.events != nil {
		events.ProcessAllEvents(g.events)
	}

	if g.thumbs != nil {
		for _, res := range g.thumbs.Poll() {
			if res.Err != nil {
				fmt.Fprintf(os.Stderr, "[cubedrop] thumbnail for cube %d: %v\n", res.Body, res.Err)
				continue
			}
			g.render.setThumbnail(res.Body, res.Img)
		}
	}

	g.render.update(dt)
	g.toast.update(dt)
	if g.showFPS {
		g.fps.update(dt)
	}
	return nil
}

// pollDrops queues the first file of this frame's drop, if any.
func (g *Game) pollDrops() {
	fsys := ebiten.DroppedFiles()
	if fsys == nil {
		return
	}
	names, err := droppedFiles(fsys)
	if err != nil {
		fmt.Fprintf(os.Stderr, "[cubedrop] drop: %v\n", err)
		return
	}
	if len(names) == 0 {
		return
	}
	if len(names) > 1 {
		fmt.Fprintf(os.Stderr, "[cubedrop] drop: %d files dropped, using %s\n", len(names), names[0])
	}
	f, err := resolveDropped(fsys, names[0], g.dropDir)
	if err != nil {
		fmt.Fprintf(os.Stderr, "[cubedrop] drop: %v\n", err)
		g.toast.show("could not read " + names[0])
		return
	}
	g.world.InjectDrop(f)
}

func (g *Game) pollPointer() {
	x, y := ebiten.CursorPosition()
	down := ebiten.IsMouseButtonPressed(ebiten.MouseButtonLeft)
	act := g.pointer.next(down, x, y)
	fx, fy := float64(x), float64(y)
	switch act {
	case pointerPress:
		g.world.InjectPress(fx, fy)
	case pointerMove:
		g.world.InjectMove(fx, fy)
	case pointerRelease:
		g.world.InjectRelease(fx, fy)
	}
}

// dropDir returns the directory for copies of dropped files, creating it on
// first use.
func (g *Game) dropDir() (string, error) {
	if g.tmpDir != "" {
		return g.tmpDir, nil
	}
	dir, err := os.MkdirTemp("", "cubedrop-drops-")
	if err != nil {
		return "", err
	}
	g.tmpDir = dir
	return dir, nil
}

// Close removes copies of dropped files.
func (g *Game) Close() error {
	if g.tmpDir == "" {
		return nil
	}
	dir := g.tmpDir
	g.tmpDir = ""
	return os.RemoveAll(dir)
}

// Draw implements ebiten.Game.
func (g *Game) Draw(screen *ebiten.Image) {
	g.render.draw(screen, g.world)
	y := 4
	if g.video != nil {
		y = g.panel.draw(screen, g.video, y)
	}
	if g.status != nil {
		g.playing.draw(screen, nowPlayingLines(g.status.Status(), g.world), y)
	}
	g.toast.draw(screen)
	if g.showFPS {
		g.fps.draw(screen)
	}
	g.flushScreenshots(screen)
}

// Layout implements ebiten.Game. The logical screen follows the window so a
// resize moves the walls.
func (g *Game) Layout(outsideWidth, outsideHeight int) (int, int) {
	g.width, g.height = outsideWidth, outsideHeight
	return outsideWidth, outsideHeight
}

// Run opens the window and blocks until it is closed.
func Run(g *Game) error {
	ebiten.SetWindowTitle(g.title)
	ebiten.SetWindowSize(g.width, g.height)
	ebiten.SetWindowResizingMode(ebiten.WindowResizingModeEnabled)
	return ebiten.RunGame(g)
}

type pointerAction int

const (
	pointerNone pointerAction = iota
	pointerPress
	pointerMove
	pointerRelease
)

// pointerTracker turns polled button state into press, move and release
// edges.
type pointerTracker struct {
	down bool
	x, y int
}

func (p *pointerTracker) next(down bool, x, y int) pointerAction {
	moved := x != p.x || y != p.y
	wasDown := p.down
	p.down, p.x, p.y = down, x, y
	switch {
	case down && !wasDown:
		return pointerPress
	case !down && wasDown:
		return pointerRelease
	case down && moved:
		return pointerMove
	}
	return pointerNone
}
