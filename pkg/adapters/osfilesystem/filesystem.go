// Package osfilesystem implements ports.FileSystem on the local disk.
package osfilesystem

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/user/framehost/pkg/ports"
)

const tempPrefix = ".framehost-"

// FileSystem implements ports.FileSystem using the os package.
type FileSystem struct {
	dirPerm  os.FileMode
	filePerm os.FileMode
}

// New creates a FileSystem writing files 0644 and directories 0755.
func New() *FileSystem {
	return &FileSystem{dirPerm: 0755, filePerm: 0644}
}

func (fs *FileSystem) ReadFile(path string) ([]byte, error) {
	return os.ReadFile(path)
}

// WriteFile writes data to a temporary file next to path and renames it
// into place.
func (fs *FileSystem) WriteFile(path string, data []byte) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, fs.dirPerm); err != nil {
		return err
	}

	tmp, err := os.CreateTemp(dir, tempPrefix+"*")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName) // no-op after a successful rename

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("write %s: %w", path, err)
	}
	if err := tmp.Chmod(fs.filePerm); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	return os.Rename(tmpName, path)
}

// Create returns a writer on a temporary file next to path. Close
// renames it into place.
func (fs *FileSystem) Create(path string) (io.WriteCloser, error) {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, fs.dirPerm); err != nil {
		return nil, err
	}
	tmp, err := os.CreateTemp(dir, tempPrefix+"*")
	if err != nil {
		return nil, err
	}
	return &pendingFile{File: tmp, path: path, perm: fs.filePerm}, nil
}

// pendingFile is a temporary file renamed to path on Close.
type pendingFile struct {
	*os.File
	path   string
	perm   os.FileMode
	closed bool
}

func (f *pendingFile) Close() error {
	if f.closed {
		return nil
	}
	f.closed = true
	tmpName := f.Name()
	defer os.Remove(tmpName) // no-op after a successful rename

	if err := f.Chmod(f.perm); err != nil {
		f.File.Close()
		return err
	}
	if err := f.File.Close(); err != nil {
		return err
	}
	return os.Rename(tmpName, f.path)
}

func (fs *FileSystem) MkdirAll(path string) error {
	return os.MkdirAll(path, fs.dirPerm)
}

// ReadDir lists regular files in dir, skipping dot files, sorted by name.
func (fs *FileSystem) ReadDir(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}
	var names []string
	for _, e := range entries {
		if !e.Type().IsRegular() || strings.HasPrefix(e.Name(), ".") {
			continue
		}
		names = append(names, e.Name())
	}
	sort.Strings(names)
	return names, nil
}

var _ ports.FileSystem = (*FileSystem)(nil)
