package config

import (
	"fmt"
	"net/url"
	"strings"

	"github.com/usdforge/nimusd/internal/nimerr"
)

// Validate checks all fields in the config and returns all errors at once
// as a single InvalidArgument error.
func Validate(cfg *Config) error {
	var errs []string

	u, err := url.Parse(cfg.Endpoint)
	switch {
	case err != nil:
		errs = append(errs, fmt.Sprintf("endpoint: %v", err))
	case u.Scheme != "http" && u.Scheme != "https":
		errs = append(errs, fmt.Sprintf("endpoint: scheme must be http or https, got %q", cfg.Endpoint))
	case u.Host == "":
		errs = append(errs, fmt.Sprintf("endpoint: missing host in %q", cfg.Endpoint))
	}

	if cfg.Model == "" {
		errs = append(errs, "model: must not be empty")
	}

	if cfg.Timeout <= 0 {
		errs = append(errs, fmt.Sprintf("timeout: must be positive, got %s", cfg.Timeout))
	}

	if cfg.MaxRetries < 0 || cfg.MaxRetries > maxRetriesLimit {
		errs = append(errs, fmt.Sprintf("max_retries: must be between 0 and %d, got %d", maxRetriesLimit, cfg.MaxRetries))
	}

	if cfg.Backoff < 0 {
		errs = append(errs, fmt.Sprintf("backoff: must be non-negative, got %s", cfg.Backoff))
	}

	if cfg.MaxTokens <= 0 {
		errs = append(errs, fmt.Sprintf("max_tokens: must be positive, got %d", cfg.MaxTokens))
	}

	if len(errs) > 0 {
		return nimerr.New(nimerr.InvalidArgument, "config validation failed: %s", strings.Join(errs, "; "))
	}
	return nil
}
