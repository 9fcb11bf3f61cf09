// Copyright 2026 The nimusd Authors
// SPDX-License-Identifier: MIT

package config

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/usdforge/nimusd/internal/nimerr"
)

// mapEnv returns a getenv func backed by m.
func mapEnv(m map[string]string) func(string) string {
	return func(k string) string { return m[k] }
}

func intPtr(n int) *int { return &n }

func TestResolve_Defaults(t *testing.T) {
	cfg, err := Resolve(Overrides{}, nil, mapEnv(map[string]string{EnvAPIKey: "nvapi-test"}))
	require.NoError(t, err)

	assert.Equal(t, "nvapi-test", cfg.APIKey)
	assert.Equal(t, DefaultEndpoint, cfg.Endpoint)
	assert.Equal(t, DefaultModel, cfg.Model)
	assert.Equal(t, DefaultTimeout, cfg.Timeout)
	assert.Equal(t, DefaultMaxRetries, cfg.MaxRetries)
	assert.Equal(t, DefaultBackoff, cfg.Backoff)
	assert.Equal(t, DefaultMaxTokens, cfg.MaxTokens)
}

func TestResolve_MissingKey(t *testing.T) {
	cfg, err := Resolve(Overrides{Endpoint: "https://example.com/v1/chat/completions"}, nil, mapEnv(nil))
	assert.Nil(t, cfg)
	require.Error(t, err)
	assert.Equal(t, nimerr.MissingCredential, nimerr.KindOf(err))
	assert.Contains(t, err.Error(), EnvAPIKey)
}

func TestResolve_WhitespaceKeyIsMissing(t *testing.T) {
	_, err := Resolve(Overrides{}, nil, mapEnv(map[string]string{EnvAPIKey: "   "}))
	assert.Equal(t, nimerr.MissingCredential, nimerr.KindOf(err))
}

func TestResolve_OverrideBeatsEnv(t *testing.T) {
	env := mapEnv(map[string]string{
		EnvAPIKey:   "env-key",
		EnvEndpoint: "https://env.example.com/v1/chat/completions",
		EnvModel:    "env/model",
	})
	cfg, err := Resolve(Overrides{
		APIKey:   "flag-key",
		Endpoint: "https://flag.example.com/v1/chat/completions",
		Model:    "flag/model",
	}, nil, env)
	require.NoError(t, err)

	assert.Equal(t, "flag-key", cfg.APIKey)
	assert.Equal(t, "https://flag.example.com/v1/chat/completions", cfg.Endpoint)
	assert.Equal(t, "flag/model", cfg.Model)
}

func TestResolve_EnvBeatsFile(t *testing.T) {
	env := mapEnv(map[string]string{
		EnvAPIKey:     "k",
		EnvModel:      "env/model",
		EnvTimeout:    "15s",
		EnvMaxRetries: "4",
	})
	file := &File{
		Endpoint:   "https://file.example.com/v1/chat/completions",
		Model:      "file/model",
		Timeout:    "90s",
		MaxRetries: intPtr(1),
	}
	cfg, err := Resolve(Overrides{}, file, env)
	require.NoError(t, err)

	assert.Equal(t, "https://file.example.com/v1/chat/completions", cfg.Endpoint)
	assert.Equal(t, "env/model", cfg.Model)
	assert.Equal(t, 15*time.Second, cfg.Timeout)
	assert.Equal(t, 4, cfg.MaxRetries)
}

func TestResolve_FileOnlySettings(t *testing.T) {
	file := &File{Backoff: "50ms", MaxTokens: 1024, MaxRetries: intPtr(0)}
	cfg, err := Resolve(Overrides{}, file, mapEnv(map[string]string{EnvAPIKey: "k"}))
	require.NoError(t, err)

	assert.Equal(t, 50*time.Millisecond, cfg.Backoff)
	assert.Equal(t, 1024, cfg.MaxTokens)
	assert.Equal(t, 0, cfg.MaxRetries)
}

func TestResolve_FileNeverSuppliesKey(t *testing.T) {
	// The File type has no key field; a file with everything else set still
	// fails without NIM_API_KEY.
	file := &File{Endpoint: "https://file.example.com/x", Model: "m"}
	_, err := Resolve(Overrides{}, file, mapEnv(nil))
	assert.Equal(t, nimerr.MissingCredential, nimerr.KindOf(err))
}

func TestResolve_OverrideRetriesZero(t *testing.T) {
	env := mapEnv(map[string]string{EnvAPIKey: "k", EnvMaxRetries: "5"})
	cfg, err := Resolve(Overrides{MaxRetries: intPtr(0), Timeout: 3 * time.Second}, nil, env)
	require.NoError(t, err)
	assert.Equal(t, 0, cfg.MaxRetries)
	assert.Equal(t, 3*time.Second, cfg.Timeout)
}

func TestResolve_LegacyModelAlias(t *testing.T) {
	cfg, err := Resolve(Overrides{}, nil, mapEnv(map[string]string{EnvAPIKey: "k", EnvModel: "usdcode"}))
	require.NoError(t, err)
	assert.Equal(t, DefaultModel, cfg.Model)
}

func TestResolve_BadEnvValues(t *testing.T) {
	env := mapEnv(map[string]string{EnvAPIKey: "k", EnvTimeout: "soon", EnvMaxRetries: "many"})
	_, err := Resolve(Overrides{}, nil, env)
	require.Error(t, err)
	assert.Equal(t, nimerr.InvalidArgument, nimerr.KindOf(err))
	assert.Contains(t, err.Error(), EnvTimeout)
	assert.Contains(t, err.Error(), EnvMaxRetries)
}

func TestValidate_CollectsAllErrors(t *testing.T) {
	err := Validate(&Config{
		Endpoint:   "ftp://example.com",
		Model:      "",
		Timeout:    0,
		MaxRetries: 99,
		Backoff:    -time.Second,
		MaxTokens:  0,
	})
	require.Error(t, err)
	assert.Equal(t, nimerr.InvalidArgument, nimerr.KindOf(err))
	for _, field := range []string{"endpoint", "model", "timeout", "max_retries", "backoff", "max_tokens"} {
		assert.Contains(t, err.Error(), field)
	}
}

func TestValidate_MissingHost(t *testing.T) {
	err := Validate(&Config{Endpoint: "https:///path", Model: "m", Timeout: time.Second, MaxTokens: 1})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "missing host")
}

func TestLoadFile_MissingFile(t *testing.T) {
	f, err := LoadFile(filepath.Join(t.TempDir(), "nope.yaml"))
	require.NoError(t, err)
	assert.Equal(t, &File{}, f)
}

func TestLoadFile_Valid(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	content := `
endpoint: https://proxy.internal/v1/chat/completions
model: nvidia/usdcode-llama-3.1-70b-instruct
timeout: 45s
max_retries: 3
backoff: 250ms
max_tokens: 2048
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))

	f, err := LoadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "https://proxy.internal/v1/chat/completions", f.Endpoint)
	assert.Equal(t, "45s", f.Timeout)
	require.NotNil(t, f.MaxRetries)
	assert.Equal(t, 3, *f.MaxRetries)
	assert.Equal(t, "250ms", f.Backoff)
	assert.Equal(t, 2048, f.MaxTokens)
}

func TestLoadFile_InvalidYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("{{invalid yaml"), 0o600))

	f, err := LoadFile(path)
	assert.Error(t, err)
	assert.Nil(t, f)
}

func TestGlobalConfigPath_XDG(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", "/tmp/xdg")
	assert.Equal(t, filepath.Join("/tmp/xdg", "nimusd", "config.yaml"), GlobalConfigPath())
}

func TestView_MasksKey(t *testing.T) {
	cfg := &Config{APIKey: "nvapi-abcdefghijkl", Timeout: time.Minute, Backoff: time.Second}
	v := cfg.View()
	assert.Equal(t, "nvap****ijkl", v.APIKey)
	assert.Equal(t, "1m0s", v.Timeout)

	short := (&Config{APIKey: "abc"}).View()
	assert.Equal(t, "****", short.APIKey)

	var buf bytes.Buffer
	require.NoError(t, WriteView(&buf, v))
	assert.Contains(t, buf.String(), "api_key: nvap****ijkl")
	assert.NotContains(t, buf.String(), "abcdefghijkl")
}

func TestInspect_ToleratesMissingKey(t *testing.T) {
	cfg, err := Inspect(Overrides{}, &File{Model: "usdcode"}, mapEnv(nil))
	require.NoError(t, err)
	assert.Empty(t, cfg.APIKey)
	assert.Equal(t, DefaultModel, cfg.Model)

	_, err = Inspect(Overrides{Endpoint: "ftp://x"}, nil, mapEnv(nil))
	assert.Equal(t, nimerr.InvalidArgument, nimerr.KindOf(err))
}
