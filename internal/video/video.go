// Package video shows the frames of the active video.
//
// Player implements cubedrop.Player. Frames are decoded by an external
// ffmpeg process into a raw RGBA stream and paced at a fixed frame rate in
// a background goroutine. Pausing stops reading, which back-pressures the
// decoder through its pipe. Hosts draw the latest frame returned by Frame.
package video

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	"io"
	"os"
	"os/exec"
	"strconv"
	"sync"
	"time"

	"github.com/phanxgames/cubedrop"
)

// Defaults for the playback panel.
const (
	DefaultWidth  = 320
	DefaultHeight = 180
	DefaultFPS    = 25
)

// Source opens a raw RGBA frame stream of the video at path, scaled to
// w x h and resampled to fps frames per second.
type Source interface {
	Open(ctx context.Context, path string, w, h, fps int) (io.ReadCloser, error)
}

// FFmpeg decodes frames by running the ffmpeg binary at Path.
type FFmpeg struct {
	Path string
}

// Args returns the ffmpeg arguments that write path's frames to stdout as
// rgba rawvideo.
func (f FFmpeg) Args(path string, w, h, fps int) []string {
	return []string{
		"-hide_banner", "-loglevel", "error",
		"-i", path,
		"-an",
		"-vf", fmt.Sprintf("scale=%d:%d", w, h),
		"-r", strconv.Itoa(fps),
		"-f", "rawvideo",
		"-pix_fmt", "rgba",
		"-",
	}
}

// Open starts ffmpeg. Closing the returned reader stops the process.
func (f FFmpeg) Open(ctx context.Context, path string, w, h, fps int) (io.ReadCloser, error) {
	bin := f.Path
	if bin == "" {
		bin = "ffmpeg"
	}
	ctx, cancel := context.WithCancel(ctx)
	cmd := exec.CommandContext(ctx, bin, f.Args(path, w, h, fps)...)
	var stderr bytes.Buffer
	cmd.Stderr = &stderr
	out, err := cmd.StdoutPipe()
	if err != nil {
		cancel()
		return nil, fmt.Errorf("ffmpeg %s: %w", path, err)
	}
	if err := cmd.Start(); err != nil {
		cancel()
		return nil, fmt.Errorf("ffmpeg %s: %w", path, err)
	}
	return &process{ReadCloser: out, cmd: cmd, cancel: cancel}, nil
}

type process struct {
	io.ReadCloser
	cmd    *exec.Cmd
	cancel context.CancelFunc
}

func (p *process) Close() error {
	p.cancel()
	p.ReadCloser.Close()
	_ = p.cmd.Wait() // killed by cancel; its exit status is expected
	return nil
}

// Player is the video surface. All methods are safe for concurrent use.
type Player struct {
	src           Source
	width, height int
	fps           int

	// interval is the time between frames; zero reads as fast as possible.
	interval time.Duration

	mu      sync.Mutex
	source  cubedrop.MediaRef
	gen     uint64
	cancel  context.CancelFunc
	playing bool
	visible bool
	frame   *image.RGBA
	seq     uint64
	wake    chan struct{}

	// Logf receives decode failures. Defaults to stderr.
	Logf func(format string, args ...any)
}

// NewPlayer creates a player producing width x height frames at fps.
// Non-positive values take the defaults.
func NewPlayer(src Source, width, height, fps int) *Player {
	if width <= 0 || height <= 0 {
		width, height = DefaultWidth, DefaultHeight
	}
	if fps <= 0 {
		fps = DefaultFPS
	}
	return &Player{
		src:      src,
		width:    width,
		height:   height,
		fps:      fps,
		interval: time.Second / time.Duration(fps),
		wake:     make(chan struct{}, 1),
		Logf: func(format string, args ...any) {
			fmt.Fprintf(os.Stderr, "[video] "+format+"\n", args...)
		},
	}
}

// SetSource stops the current video and starts decoding m's. The new video
// advances only while playing.
func (p *Player) SetSource(m cubedrop.MediaRef) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.cancel != nil {
		p.cancel()
		p.cancel = nil
	}
	p.gen++
	p.source = m
	p.frame = nil
	p.wake = make(chan struct{}, 1)
	if m.IsZero() || p.src == nil {
		return
	}
	ctx, cancel := context.WithCancel(context.Background())
	p.cancel = cancel
	go p.run(ctx, p.gen, p.wake, m)
}

func (p *Player) run(ctx context.Context, gen uint64, wake <-chan struct{}, m cubedrop.MediaRef) {
	rc, err := p.src.Open(ctx, m.Path, p.width, p.height, p.fps)
	if err != nil {
		p.Logf("%s: %v", m.Name, err)
		return
	}
	defer rc.Close()

	buf := make([]byte, 4*p.width*p.height)
	for {
		if !p.waitPlaying(ctx, gen, wake) {
			return
		}
		if _, err := io.ReadFull(rc, buf); err != nil {
			if !errors.Is(err, io.EOF) && ctx.Err() == nil {
				p.Logf("%s: %v", m.Name, err)
			}
			return // the last frame stays on screen
		}
		if !p.publish(gen, buf) {
			return
		}
		if p.interval > 0 {
			select {
			case <-ctx.Done():
				return
			case <-time.After(p.interval):
			}
		}
	}
}

// waitPlaying blocks while paused. It reports false once gen is stale or
// ctx is done. Each source has its own wake channel.
func (p *Player) waitPlaying(ctx context.Context, gen uint64, wake <-chan struct{}) bool {
	for {
		p.mu.Lock()
		stale, playing := gen != p.gen, p.playing
		p.mu.Unlock()
		if stale || ctx.Err() != nil {
			return false
		}
		if playing {
			return true
		}
		select {
		case <-ctx.Done():
			return false
		case <-wake:
		}
	}
}

// publish stores a copy of pix as the latest frame if gen is current.
func (p *Player) publish(gen uint64, pix []byte) bool {
	img := image.NewRGBA(image.Rect(0, 0, p.width, p.height))
	copy(img.Pix, pix)

	p.mu.Lock()
	defer p.mu.Unlock()
	if gen != p.gen {
		return false
	}
	p.frame = img
	p.seq++
	return true
}

// Play resumes decoding.
func (p *Player) Play() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.playing = true
	select {
	case p.wake <- struct{}{}:
	default:
	}
}

// Pause freezes the current frame.
func (p *Player) Pause() {
	p.mu.Lock()
	p.playing = false
	p.mu.Unlock()
}

// Show marks the surface visible.
func (p *Player) Show() {
	p.mu.Lock()
	p.visible = true
	p.mu.Unlock()
}

// Hide marks the surface hidden.
func (p *Player) Hide() {
	p.mu.Lock()
	p.visible = false
	p.mu.Unlock()
}

// Frame returns the latest frame, a sequence number that changes whenever
// the frame does, and whether the surface is visible. img is nil before the
// first frame of the current source.
func (p *Player) Frame() (img *image.RGBA, seq uint64, visible bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.frame, p.seq, p.visible
}

// Close stops decoding.
func (p *Player) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.cancel != nil {
		p.cancel()
		p.cancel = nil
	}
	p.gen++
	return nil
}

var _ cubedrop.Player = (*Player)(nil)
