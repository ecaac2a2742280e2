package mocks

import (
	"bytes"
	"fmt"
	"io"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/user/framehost/pkg/ports"
)

// FileSystem is an in-memory ports.FileSystem. Hooks override the
// default behaviour; Writes records every written path in order.
type FileSystem struct {
	mu     sync.RWMutex
	files  map[string][]byte
	dirs   map[string]bool
	Writes []string

	ReadFileFunc  func(path string) ([]byte, error)
	WriteFileFunc func(path string, data []byte) error
	CreateFunc    func(path string) (io.WriteCloser, error)
	MkdirAllFunc  func(path string) error
	ReadDirFunc   func(dir string) ([]string, error)
}

func NewFileSystem() *FileSystem {
	return &FileSystem{
		files: make(map[string][]byte),
		dirs:  make(map[string]bool),
	}
}

func (m *FileSystem) ReadFile(path string) ([]byte, error) {
	if m.ReadFileFunc != nil {
		return m.ReadFileFunc(path)
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	data, ok := m.files[filepath.Clean(path)]
	if !ok {
		return nil, fmt.Errorf("file not found: %s", path)
	}
	return data, nil
}

func (m *FileSystem) WriteFile(path string, data []byte) error {
	if m.WriteFileFunc != nil {
		return m.WriteFileFunc(path, data)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	path = filepath.Clean(path)
	m.files[path] = append([]byte(nil), data...)
	m.dirs[filepath.Dir(path)] = true
	m.Writes = append(m.Writes, path)
	return nil
}

// Create buffers writes and commits them to path on Close, which records
// the write.
func (m *FileSystem) Create(path string) (io.WriteCloser, error) {
	if m.CreateFunc != nil {
		return m.CreateFunc(path)
	}
	return &file{fs: m, path: path}, nil
}

type file struct {
	bytes.Buffer
	fs     *FileSystem
	path   string
	closed bool
}

func (f *file) Close() error {
	if f.closed {
		return nil
	}
	f.closed = true
	return f.fs.WriteFile(f.path, f.Bytes())
}

func (m *FileSystem) MkdirAll(path string) error {
	if m.MkdirAllFunc != nil {
		return m.MkdirAllFunc(path)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.dirs[filepath.Clean(path)] = true
	return nil
}

func (m *FileSystem) ReadDir(dir string) ([]string, error) {
	if m.ReadDirFunc != nil {
		return m.ReadDirFunc(dir)
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	dir = filepath.Clean(dir)
	var names []string
	for path := range m.files {
		base := filepath.Base(path)
		if filepath.Dir(path) == dir && !strings.HasPrefix(base, ".") {
			names = append(names, base)
		}
	}
	if names == nil && !m.dirs[dir] {
		return nil, fmt.Errorf("directory not found: %s", dir)
	}
	sort.Strings(names)
	return names, nil
}

// SetFile seeds a file without recording a write.
func (m *FileSystem) SetFile(path string, data []byte) {
	m.mu.Lock()
	defer m.mu.Unlock()
	path = filepath.Clean(path)
	m.files[path] = data
	m.dirs[filepath.Dir(path)] = true
}

// GetFile returns the contents of a file.
func (m *FileSystem) GetFile(path string) ([]byte, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	data, ok := m.files[filepath.Clean(path)]
	return data, ok
}

var _ ports.FileSystem = (*FileSystem)(nil)
