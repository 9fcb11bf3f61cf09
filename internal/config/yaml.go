package config

import (
	"errors"
	"io"
	"io/fs"
	"os"

	"gopkg.in/yaml.v3"
)

// File mirrors the YAML config file. Durations are Go duration strings
// ("30s", "2m"). The file never carries the API key.
type File struct {
	Endpoint   string `yaml:"endpoint,omitempty"`
	Model      string `yaml:"model,omitempty"`
	Timeout    string `yaml:"timeout,omitempty"`
	MaxRetries *int   `yaml:"max_retries,omitempty"`
	Backoff    string `yaml:"backoff,omitempty"`
	MaxTokens  int    `yaml:"max_tokens,omitempty"`
}

// LoadFile reads the YAML config file at path.
// If the file does not exist, it returns a zero-value File and nil error.
func LoadFile(path string) (*File, error) {
	data, err := os.ReadFile(path) //nolint:gosec // user config path
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return &File{}, nil
		}
		return nil, err
	}

	var f File
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, err
	}
	return &f, nil
}

// WriteView marshals a printable config to YAML and writes it to w.
func WriteView(w io.Writer, v View) error {
	enc := yaml.NewEncoder(w)
	defer enc.Close() //nolint:errcheck // best-effort close
	enc.SetIndent(2)
	return enc.Encode(v)
}
