// Package testable provides interfaces for abstracting OS-level operations,
// enabling mock injection in tests without modifying production behavior.
package testable

import (
	"io"
	"os"
	"path/filepath"
)

// FileSystem abstracts the file operations the CLI performs on user paths.
type FileSystem interface {
	// Open opens the named file for reading.
	Open(name string) (io.ReadCloser, error)

	// WriteFile writes data to the named file, creating parent directories
	// as needed.
	WriteFile(name string, data []byte, perm os.FileMode) error
}

// OsFileSystem is the production FileSystem backed by package os.
type OsFileSystem struct{}

// Open wraps os.Open.
func (OsFileSystem) Open(name string) (io.ReadCloser, error) {
	return os.Open(name) //nolint:gosec // caller controls path
}

// WriteFile creates the parent directory and wraps os.WriteFile.
func (OsFileSystem) WriteFile(name string, data []byte, perm os.FileMode) error {
	if dir := filepath.Dir(name); dir != "." {
		if err := os.MkdirAll(dir, 0o750); err != nil {
			return err
		}
	}
	return os.WriteFile(name, data, perm) //nolint:gosec // caller controls path and perms
}

// DefaultFS is the production FileSystem.
var DefaultFS FileSystem = OsFileSystem{}
