package ports

import "io"

// FileSystem is the file access sources, outputs, debug sinks and the
// summary writer share. Paths are slash or OS separated as the caller
// passes them.
type FileSystem interface {
	ReadFile(path string) ([]byte, error)

	// WriteFile replaces path with data, creating parent directories.
	// Readers never observe a partially written file.
	WriteFile(path string, data []byte) error

	// Create opens path for streaming writes, creating parent
	// directories. The file appears at path only when the writer is
	// closed, replacing any previous file.
	Create(path string) (io.WriteCloser, error)

	MkdirAll(path string) error

	// ReadDir lists the regular, non-hidden files in dir, sorted by name.
	ReadDir(dir string) ([]string, error)
}
