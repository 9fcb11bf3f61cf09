package testable

import (
	"errors"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOsFileSystem_WriteCreatesParents(t *testing.T) {
	path := filepath.Join(t.TempDir(), "a", "b", "out.py")
	require.NoError(t, DefaultFS.WriteFile(path, []byte("x = 1\n"), 0o600))

	f, err := DefaultFS.Open(path)
	require.NoError(t, err)
	defer f.Close() //nolint:errcheck // test
	data, err := io.ReadAll(f)
	require.NoError(t, err)
	assert.Equal(t, "x = 1\n", string(data))
}

func TestMockFileSystem_Overrides(t *testing.T) {
	boom := errors.New("disk full")
	m := &MockFileSystem{
		WriteFileFn: func(string, []byte, os.FileMode) error { return boom },
	}
	assert.ErrorIs(t, m.WriteFile("ignored", nil, 0o600), boom)

	_, err := m.Open(filepath.Join(t.TempDir(), "missing"))
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestMockFileSystem_NilFieldsUseOS(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.py")
	m := &MockFileSystem{}
	require.NoError(t, m.WriteFile(path, []byte("stage = None\n"), 0o600))

	f, err := m.Open(path)
	require.NoError(t, err)
	defer f.Close() //nolint:errcheck // test
	data, err := io.ReadAll(f)
	require.NoError(t, err)
	assert.Equal(t, "stage = None\n", string(data))
}
