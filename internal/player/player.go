// Package player plays the soundtrack of the active video through beep.
//
// Speaker implements cubedrop.Player. Audio is extracted from the video by
// ffmpeg into a temporary WAV file in the background; Play before the audio
// is ready is remembered and honoured once it arrives.
package player

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"sync"
	"time"

	"github.com/gopxl/beep"
	"github.com/gopxl/beep/speaker"
	"github.com/gopxl/beep/wav"

	"github.com/phanxgames/cubedrop"
)

const (
	sampleRate = beep.SampleRate(48000)

	extractTimeout = 2 * time.Minute
)

// Extractor writes the audio track of a video to a WAV file.
type Extractor interface {
	Extract(ctx context.Context, src, dst string) error
}

// FFmpeg extracts audio by running the ffmpeg binary at Path.
type FFmpeg struct {
	Path string
}

// Args returns the ffmpeg arguments that write src's audio as 16-bit stereo
// WAV at the speaker sample rate to dst.
func (f FFmpeg) Args(src, dst string) []string {
	return []string{
		"-hide_banner", "-loglevel", "error", "-y",
		"-i", src,
		"-vn",
		"-ac", "2",
		"-ar", strconv.Itoa(int(sampleRate)),
		"-acodec", "pcm_s16le",
		"-f", "wav",
		dst,
	}
}

// Extract runs ffmpeg.
func (f FFmpeg) Extract(ctx context.Context, src, dst string) error {
	bin := f.Path
	if bin == "" {
		bin = "ffmpeg"
	}
	var stderr bytes.Buffer
	cmd := exec.CommandContext(ctx, bin, f.Args(src, dst)...)
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		if msg := bytes.TrimSpace(stderr.Bytes()); len(msg) > 0 {
			return fmt.Errorf("ffmpeg %s: %w: %s", src, err, msg)
		}
		return fmt.Errorf("ffmpeg %s: %w", src, err)
	}
	return nil
}

// Speaker is the audio playback surface. All methods are safe for
// concurrent use.
type Speaker struct {
	mu sync.Mutex

	extractor Extractor
	mute      bool
	tmpDir    string

	mixer       *beep.Mixer
	initialized bool

	source  cubedrop.MediaRef
	gen     uint64
	cancel  context.CancelFunc
	stream  beep.StreamSeekCloser
	ctrl    *beep.Ctrl
	playing bool
	visible bool

	// Logf receives extraction failures. Defaults to stderr.
	Logf func(format string, args ...any)
}

// NewSpeaker creates a speaker. When mute is true no audio is extracted or
// played, but the play and visibility state is still tracked.
func NewSpeaker(x Extractor, mute bool) *Speaker {
	return &Speaker{
		extractor: x,
		mute:      mute,
		mixer:     &beep.Mixer{},
		Logf: func(format string, args ...any) {
			fmt.Fprintf(os.Stderr, "[player] "+format+"\n", args...)
		},
	}
}

// initialize starts the speaker on first use. Caller holds mu.
func (s *Speaker) initialize() error {
	if s.initialized {
		return nil
	}
	if err := speaker.Init(sampleRate, sampleRate.N(100*time.Millisecond)); err != nil {
		return err
	}
	speaker.Play(s.mixer)
	s.initialized = true
	return nil
}

// SetSource stops the current audio and starts loading m's.
func (s *Speaker) SetSource(m cubedrop.MediaRef) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.detach()
	s.source = m
	s.gen++
	if s.mute || m.IsZero() || s.extractor == nil {
		return
	}
	if err := s.initialize(); err != nil {
		s.Logf("speaker init: %v", err)
		s.mute = true
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), extractTimeout)
	s.cancel = cancel
	go s.load(ctx, s.gen, m)
}

func (s *Speaker) load(ctx context.Context, gen uint64, m cubedrop.MediaRef) {
	dir, err := s.workDir()
	if err != nil {
		s.Logf("%v", err)
		return
	}
	dst := filepath.Join(dir, strconv.FormatUint(gen, 10)+".wav")
	if err := s.extractor.Extract(ctx, m.Path, dst); err != nil {
		if ctx.Err() == nil {
			s.Logf("no audio for %s: %v", m.Name, err)
		}
		return
	}
	f, err := os.Open(dst)
	if err != nil {
		s.Logf("%v", err)
		return
	}
	stream, format, err := wav.Decode(f)
	if err != nil {
		f.Close()
		s.Logf("decode %s: %v", m.Name, err)
		return
	}
	if !s.attach(gen, stream, format) {
		stream.Close()
	}
}

func (s *Speaker) workDir() (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.tmpDir != "" {
		return s.tmpDir, nil
	}
	dir, err := os.MkdirTemp("", "cubedrop-audio-")
	if err != nil {
		return "", fmt.Errorf("player: %w", err)
	}
	s.tmpDir = dir
	return dir, nil
}

// attach installs a decoded stream if gen is still the current source.
// It reports whether the stream was taken.
func (s *Speaker) attach(gen uint64, stream beep.StreamSeekCloser, format beep.Format) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if gen != s.gen {
		return false
	}
	var st beep.Streamer = stream
	if format.SampleRate != sampleRate {
		st = beep.Resample(4, format.SampleRate, sampleRate, stream)
	}
	s.stream = stream
	s.ctrl = &beep.Ctrl{Streamer: st, Paused: !s.playing}
	s.withSpeaker(func() { s.mixer.Add(s.ctrl) })
	return true
}

// detach stops and releases the current stream. Caller holds mu.
func (s *Speaker) detach() {
	if s.cancel != nil {
		s.cancel()
		s.cancel = nil
	}
	if s.ctrl != nil {
		ctrl := s.ctrl
		s.withSpeaker(func() {
			ctrl.Paused = true
			ctrl.Streamer = nil
		})
		s.ctrl = nil
	}
	if s.stream != nil {
		s.stream.Close()
		s.stream = nil
	}
}

// withSpeaker runs fn under the speaker lock when the speaker is running.
func (s *Speaker) withSpeaker(fn func()) {
	if s.initialized {
		speaker.Lock()
		defer speaker.Unlock()
	}
	fn()
}

// Play resumes the current audio, or starts it as soon as it is loaded.
func (s *Speaker) Play() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.playing = true
	if s.ctrl != nil {
		s.withSpeaker(func() { s.ctrl.Paused = false })
	}
}

// Pause pauses the current audio.
func (s *Speaker) Pause() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.playing = false
	if s.ctrl != nil {
		s.withSpeaker(func() { s.ctrl.Paused = true })
	}
}

// Show marks the playback surface visible.
func (s *Speaker) Show() {
	s.mu.Lock()
	s.visible = true
	s.mu.Unlock()
}

// Hide marks the playback surface hidden.
func (s *Speaker) Hide() {
	s.mu.Lock()
	s.visible = false
	s.mu.Unlock()
}

// Status is a snapshot of the playback surface for drawing.
type Status struct {
	Source  cubedrop.MediaRef
	Playing bool
	Visible bool
	Loaded  bool
}

// Status returns the current state.
func (s *Speaker) Status() Status {
	s.mu.Lock()
	defer s.mu.Unlock()
	return Status{
		Source:  s.source,
		Playing: s.playing,
		Visible: s.visible,
		Loaded:  s.ctrl != nil,
	}
}

// Close stops playback and removes extracted audio.
func (s *Speaker) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.detach()
	s.gen++
	if s.initialized {
		speaker.Clear()
		s.initialized = false
	}
	if s.tmpDir != "" {
		dir := s.tmpDir
		s.tmpDir = ""
		return os.RemoveAll(dir)
	}
	return nil
}

var _ cubedrop.Player = (*Speaker)(nil)
