package cubedrop

import (
	"errors"
	"fmt"
	"mime"
	"path/filepath"
	"strings"
)

// ErrInvalidMediaType is returned when a dropped file does not declare a
// video media type.
var ErrInvalidMediaType = errors.New("cubedrop: dropped file is not a video")

// File is a dropped file as reported by the host.
type File struct {
	Name string // base name shown to the user
	Path string // location readable by the thumbnail and audio collaborators
	Type string // declared media type; derived from Name when empty
}

// videoTypes covers containers that the platform mime table may not know.
var videoTypes = map[string]string{
	".mp4":  "video/mp4",
	".m4v":  "video/x-m4v",
	".mkv":  "video/x-matroska",
	".avi":  "video/x-msvideo",
	".mov":  "video/quicktime",
	".webm": "video/webm",
	".ogv":  "video/ogg",
	".mpg":  "video/mpeg",
	".mpeg": "video/mpeg",
	".wmv":  "video/x-ms-wmv",
	".flv":  "video/x-flv",
	".3gp":  "video/3gpp",
}

// DeclaredType returns the media type of f: f.Type when set, otherwise the
// type registered for the file name's extension. Empty if unknown.
func (f File) DeclaredType() string {
	if f.Type != "" {
		return f.Type
	}
	name := f.Name
	if name == "" {
		name = f.Path
	}
	ext := strings.ToLower(filepath.Ext(name))
	if ext == "" {
		return ""
	}
	if t, ok := videoTypes[ext]; ok {
		return t
	}
	return mime.TypeByExtension(ext)
}

// IsVideo reports whether f declares a video media type.
func (f File) IsVideo() bool {
	return strings.HasPrefix(f.DeclaredType(), "video/")
}

// accept validates f and returns a fresh MediaRef for it.
func accept(f File, token uint32) (MediaRef, error) {
	name := f.Name
	if name == "" {
		name = filepath.Base(f.Path)
	}
	if !f.IsVideo() {
		return MediaRef{}, fmt.Errorf("%q: %w", name, ErrInvalidMediaType)
	}
	return MediaRef{
		Path:  f.Path,
		Name:  name,
		Type:  f.DeclaredType(),
		token: token,
	}, nil
}
