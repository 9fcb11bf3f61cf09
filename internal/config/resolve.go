package config

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/usdforge/nimusd/internal/nimerr"
)

// Resolve builds a Config. Precedence per field is explicit override, then
// environment, then the config file, then the compiled-in default. The API
// key is only taken from the override or NIM_API_KEY; its absence is a
// MissingCredential error. getenv is usually os.Getenv; file may be nil.
func Resolve(o Overrides, file *File, getenv func(string) string) (*Config, error) {
	cfg, errs := build(o, file, getenv)
	if cfg.APIKey == "" {
		return nil, nimerr.New(nimerr.MissingCredential,
			"%s not provided; set it in the environment or pass --api-key (get a key from %s)",
			EnvAPIKey, KeyURL)
	}
	return finish(cfg, errs)
}

// Inspect resolves like Resolve but tolerates a missing API key, for
// displaying the effective settings.
func Inspect(o Overrides, file *File, getenv func(string) string) (*Config, error) {
	return finish(build(o, file, getenv))
}

func finish(cfg *Config, errs []string) (*Config, error) {
	if len(errs) > 0 {
		return nil, nimerr.New(nimerr.InvalidArgument, "config: %s", strings.Join(errs, "; "))
	}
	if err := Validate(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

func build(o Overrides, file *File, getenv func(string) string) (*Config, []string) {
	if file == nil {
		file = &File{}
	}
	if getenv == nil {
		getenv = func(string) string { return "" }
	}

	env := func(name string) string { return strings.TrimSpace(getenv(name)) }

	var errs []string

	cfg := &Config{
		APIKey:    firstNonEmpty(strings.TrimSpace(o.APIKey), env(EnvAPIKey)),
		Endpoint:  firstNonEmpty(o.Endpoint, env(EnvEndpoint), file.Endpoint, DefaultEndpoint),
		Model:     firstNonEmpty(o.Model, env(EnvModel), file.Model, DefaultModel),
		Timeout:   DefaultTimeout,
		MaxTokens: DefaultMaxTokens,
	}

	if cfg.Model == legacyModelAlias {
		cfg.Model = DefaultModel
	}

	// Timeout: override > env > file > default.
	switch {
	case o.Timeout != 0:
		cfg.Timeout = o.Timeout
	case env(EnvTimeout) != "":
		d, err := time.ParseDuration(env(EnvTimeout))
		if err != nil {
			errs = append(errs, fmt.Sprintf("%s: %v", EnvTimeout, err))
		} else {
			cfg.Timeout = d
		}
	case file.Timeout != "":
		d, err := time.ParseDuration(file.Timeout)
		if err != nil {
			errs = append(errs, fmt.Sprintf("timeout: %v", err))
		} else {
			cfg.Timeout = d
		}
	}

	// MaxRetries: override > env > file > default.
	cfg.MaxRetries = DefaultMaxRetries
	switch {
	case o.MaxRetries != nil:
		cfg.MaxRetries = *o.MaxRetries
	case env(EnvMaxRetries) != "":
		n, err := strconv.Atoi(env(EnvMaxRetries))
		if err != nil {
			errs = append(errs, fmt.Sprintf("%s: not an integer: %q", EnvMaxRetries, env(EnvMaxRetries)))
		} else {
			cfg.MaxRetries = n
		}
	case file.MaxRetries != nil:
		cfg.MaxRetries = *file.MaxRetries
	}

	cfg.Backoff = DefaultBackoff
	if file.Backoff != "" {
		d, err := time.ParseDuration(file.Backoff)
		if err != nil {
			errs = append(errs, fmt.Sprintf("backoff: %v", err))
		} else {
			cfg.Backoff = d
		}
	}

	if file.MaxTokens != 0 {
		cfg.MaxTokens = file.MaxTokens
	}

	return cfg, errs
}

func firstNonEmpty(vals ...string) string {
	for _, v := range vals {
		if v = strings.TrimSpace(v); v != "" {
			return v
		}
	}
	return ""
}
