package game

import (
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/phanxgames/cubedrop"
)

// droppedFiles lists the regular files at the root of a drop, in directory
// order. Directories are skipped.
func droppedFiles(fsys fs.FS) ([]string, error) {
	entries, err := fs.ReadDir(fsys, ".")
	if err != nil {
		return nil, err
	}
	var names []string
	for _, e := range entries {
		if !e.IsDir() {
			names = append(names, e.Name())
		}
	}
	return names, nil
}

// resolveDropped turns a dropped entry into a File with a path external
// tools can open. Desktop drops are backed by *os.File and keep their real
// path. Anything else is copied into the directory returned by tmpDir, but
// only when its name declares a video; other files are returned uncopied so
// the world rejects them without touching the disk.
func resolveDropped(fsys fs.FS, name string, tmpDir func() (string, error)) (cubedrop.File, error) {
	f, err := fsys.Open(name)
	if err != nil {
		return cubedrop.File{}, err
	}
	defer f.Close()

	if named, ok := f.(interface{ Name() string }); ok && filepath.IsAbs(named.Name()) {
		return cubedrop.File{Name: name, Path: named.Name()}, nil
	}
	if !(cubedrop.File{Name: name}).IsVideo() {
		return cubedrop.File{Name: name, Path: name}, nil
	}

	dir, err := tmpDir()
	if err != nil {
		return cubedrop.File{}, err
	}
	dst, err := os.CreateTemp(dir, "*-"+filepath.Base(name))
	if err != nil {
		return cubedrop.File{}, err
	}
	if _, err := io.Copy(dst, f); err != nil {
		dst.Close()
		os.Remove(dst.Name())
		return cubedrop.File{}, fmt.Errorf("copy %s: %w", name, err)
	}
	if err := dst.Close(); err != nil {
		return cubedrop.File{}, err
	}
	return cubedrop.File{Name: name, Path: dst.Name()}, nil
}
