// Package thumb captures a still frame from a video as a square thumbnail.
//
// Frames are extracted by an external ffmpeg process and scaled with
// golang.org/x/image/draw. Capture runs in the background; the host drains
// finished results once per frame with Poll.
package thumb

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	_ "image/jpeg" // ffmpeg may be told to emit mjpeg
	_ "image/png"
	"os/exec"
	"strconv"
	"sync"
	"time"

	"github.com/phanxgames/cubedrop"

	"golang.org/x/image/draw"
)

// Defaults matching the on-screen cube size.
const (
	DefaultSize    = 200
	DefaultSeek    = 100 * time.Millisecond
	DefaultTimeout = 15 * time.Second
)

// Result is one finished capture. Img is nil when Err is set.
type Result struct {
	Body cubedrop.BodyID
	Img  image.Image
	Err  error
}

// Grabber extracts a single encoded frame from a video file.
type Grabber interface {
	Grab(ctx context.Context, path string, at time.Duration) ([]byte, error)
}

// FFmpeg grabs frames by running the ffmpeg binary at Path.
type FFmpeg struct {
	Path string
}

// Args returns the ffmpeg arguments that write one PNG frame at `at` to
// stdout.
func (f FFmpeg) Args(path string, at time.Duration) []string {
	return []string{
		"-hide_banner", "-loglevel", "error",
		"-ss", strconv.FormatFloat(at.Seconds(), 'f', 3, 64),
		"-i", path,
		"-frames:v", "1",
		"-f", "image2pipe",
		"-vcodec", "png",
		"-",
	}
}

// Grab runs ffmpeg and returns the PNG bytes it wrote.
func (f FFmpeg) Grab(ctx context.Context, path string, at time.Duration) ([]byte, error) {
	bin := f.Path
	if bin == "" {
		bin = "ffmpeg"
	}
	var stdout, stderr bytes.Buffer
	cmd := exec.CommandContext(ctx, bin, f.Args(path, at)...)
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		if msg := bytes.TrimSpace(stderr.Bytes()); len(msg) > 0 {
			return nil, fmt.Errorf("ffmpeg %s: %w: %s", path, err, msg)
		}
		return nil, fmt.Errorf("ffmpeg %s: %w", path, err)
	}
	if stdout.Len() == 0 {
		return nil, fmt.Errorf("ffmpeg %s: no frame", path)
	}
	return stdout.Bytes(), nil
}

// Decode decodes an encoded frame and scales it to a size x size square,
// stretching like a canvas drawImage into a fixed box.
func Decode(data []byte, size int) (image.Image, error) {
	if len(data) == 0 {
		return nil, errors.New("thumb: empty frame")
	}
	src, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("thumb: decode: %w", err)
	}
	return Scale(src, size), nil
}

// Scale stretches src into a new size x size RGBA image.
func Scale(src image.Image, size int) *image.RGBA {
	dst := image.NewRGBA(image.Rect(0, 0, size, size))
	draw.ApproxBiLinear.Scale(dst, dst.Bounds(), src, src.Bounds(), draw.Src, nil)
	return dst
}

// Capturer runs captures in background goroutines.
type Capturer struct {
	Grabber Grabber
	Size    int
	Seek    time.Duration
	Timeout time.Duration

	results chan Result
	wg      sync.WaitGroup
}

// NewCapturer creates a capturer with default size, seek and timeout.
func NewCapturer(g Grabber) *Capturer {
	return &Capturer{
		Grabber: g,
		Size:    DefaultSize,
		Seek:    DefaultSeek,
		Timeout: DefaultTimeout,
		results: make(chan Result, 64),
	}
}

// Request starts one capture for body from the video at path. It never
// blocks the caller.
func (c *Capturer) Request(body cubedrop.BodyID, path string) {
	c.wg.Add(1)
	go func() {
		defer c.wg.Done()
		ctx, cancel := context.WithTimeout(context.Background(), c.Timeout)
		defer cancel()

		res := Result{Body: body}
		data, err := c.Grabber.Grab(ctx, path, c.Seek)
		if err == nil {
			res.Img, err = Decode(data, c.Size)
		}
		res.Err = err
		c.results <- res
	}()
}

// Poll returns the captures finished since the last call without blocking.
func (c *Capturer) Poll() []Result {
	var out []Result
	for {
		select {
		case r := <-c.results:
			out = append(out, r)
		default:
			return out
		}
	}
}

// Wait blocks until every requested capture has delivered its result.
// Results stay queued for Poll.
func (c *Capturer) Wait() {
	c.wg.Wait()
}
