// Command cubedrop opens a window (or a terminal view with -tui) where
// dropped video files become cubes that fall, bounce and play their sound
// while resting in the target region.
//
//	cubedrop [flags] [video files...]
package main

import (
	"errors"
	"fmt"
	"log"
	"os"

	"github.com/yohamta/donburi"

	"github.com/phanxgames/cubedrop"
	"github.com/phanxgames/cubedrop/ecs"
	"github.com/phanxgames/cubedrop/internal/config"
	"github.com/phanxgames/cubedrop/internal/game"
	"github.com/phanxgames/cubedrop/internal/player"
	"github.com/phanxgames/cubedrop/internal/thumb"
	"github.com/phanxgames/cubedrop/internal/tui"
	"github.com/phanxgames/cubedrop/internal/video"
)

func main() {
	cfg, err := config.Load(os.Args[1:], os.Stderr)
	if errors.Is(err, config.ErrHelp) {
		return
	}
	if err != nil {
		log.Fatal(err)
	}
	if err := run(cfg); err != nil {
		log.Fatal(err)
	}
}

func run(cfg config.Config) error {
	world := cubedrop.NewWorld(cfg.WorldConfig())
	world.SetDebugMode(cfg.Debug)

	// Playback transitions reach the speaker through the event world, which
	// each host processes once per tick.
	events := donburi.NewWorld()
	world.Playback().SetEventStore(ecs.NewDonburiStore(events))

	speaker := player.NewSpeaker(player.FFmpeg{Path: cfg.FFmpeg}, cfg.Mute)
	defer speaker.Close()
	ecs.SubscribePlayer(events, speaker)

	thumbs := thumb.NewCapturer(thumb.FFmpeg{Path: cfg.FFmpeg})

	var runner *cubedrop.TestRunner
	if cfg.Script != "" {
		data, err := os.ReadFile(cfg.Script)
		if err != nil {
			return fmt.Errorf("read script: %w", err)
		}
		runner, err = cubedrop.LoadTestScript(data)
		if err != nil {
			return fmt.Errorf("%s: %w", cfg.Script, err)
		}
		world.SetTestRunner(runner)
	}

	if cfg.Terminal {
		screen, err := tui.NewScreen()
		if err != nil {
			return fmt.Errorf("terminal: %w", err)
		}
		host := tui.New(tui.Options{
			World:  world,
			Screen: screen,
			Events: events,
			Thumbs: thumbs,
			Status: speaker,
		})
		dropFiles(world, cfg.Files)
		return host.Run()
	}

	frames := video.NewPlayer(video.FFmpeg{Path: cfg.FFmpeg}, video.DefaultWidth, video.DefaultHeight, video.DefaultFPS)
	defer frames.Close()
	ecs.SubscribePlayer(events, frames)

	g := game.New(game.Options{
		World:         world,
		Events:        events,
		Thumbs:        thumbs,
		Status:        speaker,
		Video:         frames,
		Title:         cfg.Title,
		Width:         cfg.Width,
		Height:        cfg.Height,
		ShowFPS:       cfg.ShowFPS,
		ScreenshotDir: cfg.ScreenshotDir,
	})
	if runner != nil {
		runner.OnScreenshot = g.Screenshot
	}
	defer g.Close()
	dropFiles(world, cfg.Files)
	return game.Run(g)
}

// dropFiles queues files named on the command line, one drop each.
func dropFiles(w *cubedrop.World, paths []string) {
	for _, p := range paths {
		w.InjectDrop(cubedrop.File{Path: p})
	}
}
