// Package config merges cubedrop.json with command-line flags.
//
// Precedence, highest first: an explicitly set flag, the config file, the
// built-in default. The config file is optional unless -config names one.
package config

import (
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/phanxgames/cubedrop"
)

// DefaultFile is the config file looked up in the working directory when
// -config is not given.
const DefaultFile = "cubedrop.json"

// ErrHelp is returned when -h or -help was requested.
var ErrHelp = flag.ErrHelp

// TargetConfig is the target region in window pixels.
type TargetConfig struct {
	X      float64 `json:"x"`
	Y      float64 `json:"y"`
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

// FileConfig mirrors cubedrop.json. Pointer fields distinguish "absent"
// from zero.
type FileConfig struct {
	Title         string        `json:"title"`
	Width         int           `json:"width"`
	Height        int           `json:"height"`
	Target        *TargetConfig `json:"target"`
	Gravity       *float64      `json:"gravity"`
	Friction      *float64      `json:"friction"`
	Bounce        *float64      `json:"bounce"`
	SpinDecay     *float64      `json:"spin_decay"`
	Spin          *float64      `json:"spin"`
	Seed          uint64        `json:"seed"`
	ShowFPS       *bool         `json:"show_fps"`
	Debug         *bool         `json:"debug"`
	Mute          *bool         `json:"mute"`
	Terminal      *bool         `json:"terminal"`
	FFmpeg        string        `json:"ffmpeg"`
	Script        string        `json:"script"`
	ScreenshotDir string        `json:"screenshot_dir"`
}

// Config is the merged, validated configuration.
type Config struct {
	Title         string
	Width, Height int
	Target        cubedrop.Rect

	Gravity   float64
	Friction  float64
	Bounce    float64
	SpinDecay float64
	Spin      float64
	Seed      uint64

	ShowFPS  bool
	Debug    bool
	Mute     bool
	Terminal bool

	FFmpeg        string
	Script        string
	ScreenshotDir string

	// Files are dropped in order at start-up.
	Files []string
}

// Default returns the built-in configuration.
func Default() Config {
	c := Config{
		Title:         "cubedrop",
		Width:         1280,
		Height:        720,
		Gravity:       cubedrop.DefaultGravity,
		Friction:      cubedrop.DefaultFriction,
		Bounce:        cubedrop.DefaultBounce,
		SpinDecay:     cubedrop.DefaultSpinDecay,
		FFmpeg:        "ffmpeg",
		ScreenshotDir: "screenshots",
	}
	c.Target = DefaultTarget(c.Width, c.Height)
	return c
}

// DefaultTarget returns a 400x400 region centered horizontally and resting
// on the bottom of a width x height window.
func DefaultTarget(width, height int) cubedrop.Rect {
	const size = 400
	return cubedrop.Rect{
		X:      (float64(width) - size) / 2,
		Y:      float64(height) - size - 20,
		Width:  size,
		Height: size,
	}
}

// WorldConfig converts c into the simulation configuration.
func (c Config) WorldConfig() cubedrop.WorldConfig {
	return cubedrop.WorldConfig{
		Width:     float64(c.Width),
		Height:    float64(c.Height),
		Target:    c.Target,
		Gravity:   c.Gravity,
		Friction:  c.Friction,
		Bounce:    c.Bounce,
		SpinDecay: c.SpinDecay,
		Spin:      c.Spin,
		Seed:      c.Seed,
	}
}

// Load parses args (without the program name), reads the config file and
// merges them. Usage text goes to out.
func Load(args []string, out io.Writer) (Config, error) {
	fs := flag.NewFlagSet("cubedrop", flag.ContinueOnError)
	fs.SetOutput(out)

	def := Default()
	var (
		path     = fs.String("config", "", "config file (default ./"+DefaultFile+" when present)")
		title    = fs.String("title", def.Title, "window title")
		width    = fs.Int("width", def.Width, "window width in pixels")
		height   = fs.Int("height", def.Height, "window height in pixels")
		target   = fs.String("target", "", "target region as x,y,width,height")
		gravity  = fs.Float64("gravity", def.Gravity, "gravity, pixels per frame squared")
		friction = fs.Float64("friction", def.Friction, "velocity multiplier per frame")
		bounce   = fs.Float64("bounce", def.Bounce, "restitution on walls and collisions")
		spin     = fs.Float64("spin", def.Spin, "initial rotation speed of new cubes, degrees per frame")
		seed     = fs.Uint64("seed", 0, "spawn position seed (0 = random)")
		showFPS  = fs.Bool("fps", false, "show FPS/TPS widget")
		debug    = fs.Bool("debug", false, "log per-frame simulation stats to stderr")
		mute     = fs.Bool("mute", false, "do not play audio")
		term     = fs.Bool("tui", false, "run in the terminal instead of a window")
		ffmpeg   = fs.String("ffmpeg", def.FFmpeg, "ffmpeg binary used for thumbnails and audio")
		script   = fs.String("script", "", "JSON input script to replay")
		shotDir  = fs.String("screenshots", def.ScreenshotDir, "directory for scripted screenshots")
	)
	if err := fs.Parse(args); err != nil {
		return Config{}, err
	}

	set := map[string]bool{}
	fs.Visit(func(f *flag.Flag) { set[f.Name] = true })

	cfgPath := *path
	required := cfgPath != ""
	if cfgPath == "" {
		cfgPath = DefaultFile
	}
	fc, exists, err := readFileConfig(cfgPath)
	if err != nil {
		return Config{}, fmt.Errorf("config %s: %w", cfgPath, err)
	}
	if required && !exists {
		return Config{}, fmt.Errorf("config %s: %w", cfgPath, os.ErrNotExist)
	}

	c := def
	c.apply(fc)

	if set["title"] {
		c.Title = *title
	}
	if set["width"] {
		c.Width = *width
	}
	if set["height"] {
		c.Height = *height
	}
	// The default target follows the window size unless placed explicitly.
	if fc.Target == nil {
		c.Target = DefaultTarget(c.Width, c.Height)
	}
	if set["target"] {
		r, err := ParseRect(*target)
		if err != nil {
			return Config{}, fmt.Errorf("-target: %w", err)
		}
		c.Target = r
	}
	if set["gravity"] {
		c.Gravity = *gravity
	}
	if set["friction"] {
		c.Friction = *friction
	}
	if set["bounce"] {
		c.Bounce = *bounce
	}
	if set["spin"] {
		c.Spin = *spin
	}
	if set["seed"] {
		c.Seed = *seed
	}
	if set["fps"] {
		c.ShowFPS = *showFPS
	}
	if set["debug"] {
		c.Debug = *debug
	}
	if set["mute"] {
		c.Mute = *mute
	}
	if set["tui"] {
		c.Terminal = *term
	}
	if set["ffmpeg"] {
		c.FFmpeg = *ffmpeg
	}
	if set["script"] {
		c.Script = *script
	}
	if set["screenshots"] {
		c.ScreenshotDir = *shotDir
	}
	c.Files = append([]string(nil), fs.Args()...)

	if err := c.Validate(); err != nil {
		return Config{}, err
	}
	return c, nil
}

func (c *Config) apply(fc FileConfig) {
	if strings.TrimSpace(fc.Title) != "" {
		c.Title = fc.Title
	}
	if fc.Width != 0 {
		c.Width = fc.Width
	}
	if fc.Height != 0 {
		c.Height = fc.Height
	}
	if fc.Target != nil {
		c.Target = cubedrop.Rect{X: fc.Target.X, Y: fc.Target.Y, Width: fc.Target.Width, Height: fc.Target.Height}
	}
	setFloat(&c.Gravity, fc.Gravity)
	setFloat(&c.Friction, fc.Friction)
	setFloat(&c.Bounce, fc.Bounce)
	setFloat(&c.SpinDecay, fc.SpinDecay)
	setFloat(&c.Spin, fc.Spin)
	if fc.Seed != 0 {
		c.Seed = fc.Seed
	}
	setBool(&c.ShowFPS, fc.ShowFPS)
	setBool(&c.Debug, fc.Debug)
	setBool(&c.Mute, fc.Mute)
	setBool(&c.Terminal, fc.Terminal)
	if fc.FFmpeg != "" {
		c.FFmpeg = fc.FFmpeg
	}
	if fc.Script != "" {
		c.Script = fc.Script
	}
	if fc.ScreenshotDir != "" {
		c.ScreenshotDir = fc.ScreenshotDir
	}
}

func setFloat(dst *float64, v *float64) {
	if v != nil {
		*dst = *v
	}
}

func setBool(dst *bool, v *bool) {
	if v != nil {
		*dst = *v
	}
}

// Validate reports the first invalid field.
func (c Config) Validate() error {
	switch {
	case c.Width <= 0 || c.Height <= 0:
		return fmt.Errorf("window size %dx%d must be positive", c.Width, c.Height)
	case c.Target.Width <= 0 || c.Target.Height <= 0:
		return fmt.Errorf("target size %vx%v must be positive", c.Target.Width, c.Target.Height)
	case c.Friction <= 0 || c.Friction > 1:
		return fmt.Errorf("friction %v must be in (0, 1]", c.Friction)
	case c.Bounce <= 0 || c.Bounce > 1:
		return fmt.Errorf("bounce %v must be in (0, 1]", c.Bounce)
	case c.SpinDecay <= 0 || c.SpinDecay > 1:
		return fmt.Errorf("spin decay %v must be in (0, 1]", c.SpinDecay)
	case c.Gravity <= 0:
		return fmt.Errorf("gravity %v must be positive", c.Gravity)
	case strings.TrimSpace(c.FFmpeg) == "":
		return errors.New("ffmpeg path must not be empty")
	}
	return nil
}

// ParseRect parses "x,y,width,height".
func ParseRect(s string) (cubedrop.Rect, error) {
	var r cubedrop.Rect
	parts := strings.Split(s, ",")
	if len(parts) != 4 {
		return r, fmt.Errorf("want x,y,width,height, got %q", s)
	}
	vals := make([]float64, 4)
	for i, p := range parts {
		if _, err := fmt.Sscan(strings.TrimSpace(p), &vals[i]); err != nil {
			return r, fmt.Errorf("field %d of %q: %w", i+1, s, err)
		}
	}
	return cubedrop.Rect{X: vals[0], Y: vals[1], Width: vals[2], Height: vals[3]}, nil
}

func readFileConfig(path string) (FileConfig, bool, error) {
	var fc FileConfig
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return fc, false, nil
		}
		return fc, false, err
	}
	if err := json.Unmarshal(data, &fc); err != nil {
		return fc, true, fmt.Errorf("parse: %w", err)
	}
	return fc, true, nil
}
