// Package config resolves the NIM endpoint, model, credentials and request
// policy from command-line overrides, the environment, an optional YAML file
// and compiled-in defaults.
package config

import (
	"time"
)

// Environment variable names read by Resolve.
const (
	EnvAPIKey     = "NIM_API_KEY"
	EnvEndpoint   = "NIM_ENDPOINT"
	EnvModel      = "NIM_MODEL"
	EnvTimeout    = "NIM_TIMEOUT"
	EnvMaxRetries = "NIM_MAX_RETRIES"
)

// Compiled-in defaults. The API key deliberately has none.
const (
	DefaultEndpoint   = "https://integrate.api.nvidia.com/v1/chat/completions"
	DefaultModel      = "nvidia/usdcode-llama-3.1-70b-instruct"
	DefaultTimeout    = 60 * time.Second
	DefaultMaxRetries = 2
	DefaultBackoff    = 500 * time.Millisecond
	DefaultMaxTokens  = 4096

	// legacyModelAlias is the short model name older setups put in NIM_MODEL.
	// The hosted API rejects it, so it resolves to DefaultModel.
	legacyModelAlias = "usdcode"

	// maxRetriesLimit caps the retry policy so a typo cannot stall a call
	// for minutes.
	maxRetriesLimit = 10
)

// KeyURL is where users obtain a NIM API key.
const KeyURL = "https://build.nvidia.com/nvidia/usdcode"

// Config is the resolved, immutable configuration shared by every call.
type Config struct {
	Endpoint   string
	Model      string
	APIKey     string
	Timeout    time.Duration
	MaxRetries int
	Backoff    time.Duration
	MaxTokens  int
}

// Overrides carries explicitly supplied values (command-line flags). Zero
// values fall through to the environment.
type Overrides struct {
	APIKey     string
	Endpoint   string
	Model      string
	Timeout    time.Duration
	MaxRetries *int
}

// View is the printable form of a Config with the API key masked.
type View struct {
	Endpoint   string `yaml:"endpoint"`
	Model      string `yaml:"model"`
	APIKey     string `yaml:"api_key"`
	Timeout    string `yaml:"timeout"`
	MaxRetries int    `yaml:"max_retries"`
	Backoff    string `yaml:"backoff"`
	MaxTokens  int    `yaml:"max_tokens"`
}

// View returns a copy of c that is safe to print.
func (c *Config) View() View {
	return View{
		Endpoint:   c.Endpoint,
		Model:      c.Model,
		APIKey:     maskKey(c.APIKey),
		Timeout:    c.Timeout.String(),
		MaxRetries: c.MaxRetries,
		Backoff:    c.Backoff.String(),
		MaxTokens:  c.MaxTokens,
	}
}

func maskKey(key string) string {
	switch {
	case key == "":
		return ""
	case len(key) <= 8:
		return "****"
	default:
		return key[:4] + "****" + key[len(key)-4:]
	}
}
