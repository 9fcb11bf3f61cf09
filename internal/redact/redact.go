// Copyright 2026 The nimusd Authors
// SPDX-License-Identifier: MIT

// Package redact strips credentials from strings before they reach logs,
// error messages or tool results.
package redact

import (
	"os"
	"strings"
	"sync"
)

// Placeholder replaces every redacted value.
const Placeholder = "[REDACTED]"

// minSecretLen guards against short values causing false-positive matches.
const minSecretLen = 4

// sensitiveEnvVars lists environment variables whose values must never
// appear in output.
var sensitiveEnvVars = []string{
	"NIM_API_KEY",
	"NVIDIA_API_KEY",
	"NGC_API_KEY",
}

var (
	mu        sync.RWMutex
	envLoaded bool
	secrets   []string
)

func loadEnvLocked() {
	if envLoaded {
		return
	}
	envLoaded = true
	for _, name := range sensitiveEnvVars {
		addLocked(os.Getenv(name))
	}
}

func addLocked(v string) {
	if len(v) < minSecretLen {
		return
	}
	for _, s := range secrets {
		if s == v {
			return
		}
	}
	secrets = append(secrets, v)
}

// Register adds a secret that did not come from the environment, such as a
// key passed with --api-key.
func Register(secret string) {
	mu.Lock()
	defer mu.Unlock()
	loadEnvLocked()
	addLocked(strings.TrimSpace(secret))
}

// ResetForTest clears registered secrets and forces the environment to be
// re-read, so tests can use t.Setenv.
func ResetForTest() {
	mu.Lock()
	defer mu.Unlock()
	envLoaded = false
	secrets = nil
}

// String replaces every known secret in s with Placeholder.
func String(s string) string {
	mu.RLock()
	loaded := envLoaded
	mu.RUnlock()
	if !loaded {
		mu.Lock()
		loadEnvLocked()
		mu.Unlock()
	}

	mu.RLock()
	defer mu.RUnlock()
	for _, secret := range secrets {
		s = strings.ReplaceAll(s, secret, Placeholder)
	}
	return s
}
