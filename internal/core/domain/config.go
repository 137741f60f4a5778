package domain

import (
	"path/filepath"
	"time"
)

// Config is a loaded and defaulted pico.yaml.
type Config struct {
	// Path is the config file the values came from.
	Path string
	// Root is the absolute directory that is compiled and watched.
	Root string
	// Include holds the glob patterns matched against file base names.
	Include     []string
	Capacity    int
	GCInterval  time.Duration
	MetricsAddr string
	Debounce    time.Duration
}

// Matches reports whether the file at path is a source document. Patterns are
// validated on load, so a malformed one simply never matches.
func (c *Config) Matches(path string) bool {
	base := filepath.Base(path)
	for _, pattern := range c.Include {
		if ok, err := filepath.Match(pattern, base); err == nil && ok {
			return true
		}
	}
	return false
}

// Rel returns path relative to the root, using forward slashes.
func (c *Config) Rel(path string) string {
	rel, err := filepath.Rel(c.Root, path)
	if err != nil {
		return filepath.ToSlash(path)
	}
	return filepath.ToSlash(rel)
}
