package testable

import (
	"io"
	"os"
)

// MockFileSystem is a test double for FileSystem. A non-nil function field
// replaces the corresponding method; nil fields fall through to the real
// file system.
type MockFileSystem struct {
	OpenFn      func(name string) (io.ReadCloser, error)
	WriteFileFn func(name string, data []byte, perm os.FileMode) error
}

var osFS OsFileSystem

// Open calls OpenFn if set, otherwise delegates to OsFileSystem.
func (m *MockFileSystem) Open(name string) (io.ReadCloser, error) {
	if m.OpenFn != nil {
		return m.OpenFn(name)
	}
	return osFS.Open(name)
}

// WriteFile calls WriteFileFn if set, otherwise delegates to OsFileSystem.
func (m *MockFileSystem) WriteFile(name string, data []byte, perm os.FileMode) error {
	if m.WriteFileFn != nil {
		return m.WriteFileFn(name, data, perm)
	}
	return osFS.WriteFile(name, data, perm)
}
