// Package config provides the configuration loader for pico.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"go.trai.ch/pico/internal/core/domain"
	"go.trai.ch/pico/internal/core/ports"
	"go.trai.ch/zerr"
	"gopkg.in/yaml.v3"
)

// Loader implements ports.ConfigLoader using a YAML file.
type Loader struct {
	Logger ports.Logger
}

// NewLoader creates a new Loader with the given logger.
func NewLoader(logger ports.Logger) *Loader {
	return &Loader{Logger: logger}
}

// Load reads the configuration at path, or discovers pico.yaml from cwd upwards
// when path is empty.
func (l *Loader) Load(cwd, path string) (*domain.Config, error) {
	switch {
	case path == "":
		found, err := findConfiguration(cwd)
		if err != nil {
			return nil, err
		}
		path = found
	case !filepath.IsAbs(path):
		path = filepath.Join(cwd, path)
	}

	var file Picofile
	if err := readAndUnmarshalYAML(path, &file); err != nil {
		return nil, zerr.With(err, "path", path)
	}
	return l.build(path, &file)
}

func findConfiguration(cwd string) (string, error) {
	currentDir := cwd
	for {
		candidate := filepath.Join(currentDir, domain.ConfigFileName)
		if _, err := os.Stat(candidate); err == nil {
			return candidate, nil
		}

		parentDir := filepath.Dir(currentDir)
		if parentDir == currentDir {
			// Reached root
			break
		}
		currentDir = parentDir
	}
	return "", zerr.With(domain.ErrConfigNotFound, "cwd", cwd)
}

func (l *Loader) build(path string, file *Picofile) (*domain.Config, error) {
	switch file.Version {
	case domain.ConfigVersion:
	case "":
		l.Logger.Warn(fmt.Sprintf("%s does not declare a version, assuming %q", domain.ConfigFileName, domain.ConfigVersion))
	default:
		return nil, zerr.With(domain.ErrUnsupportedVersion, "version", file.Version)
	}

	root, err := filepath.Abs(resolveRoot(path, file.Root))
	if err != nil {
		return nil, zerr.Wrap(err, domain.ErrFailedToGetRoot.Error())
	}

	cfg := &domain.Config{
		Path:        path,
		Root:        root,
		Include:     file.Include,
		Capacity:    domain.DefaultCapacity,
		MetricsAddr: file.MetricsAddr,
	}

	if len(cfg.Include) == 0 {
		cfg.Include = domain.DefaultInclude()
	}
	for _, pattern := range cfg.Include {
		if _, err := filepath.Match(pattern, ""); err != nil {
			return nil, zerr.With(domain.ErrInvalidPattern, "pattern", pattern)
		}
	}

	if file.Capacity != nil {
		if *file.Capacity <= 0 {
			return nil, zerr.With(domain.ErrInvalidCapacity, "capacity", *file.Capacity)
		}
		cfg.Capacity = *file.Capacity
	}

	if cfg.GCInterval, err = parseDuration("gcInterval", file.GCInterval, domain.DefaultGCInterval); err != nil {
		return nil, err
	}
	if cfg.Debounce, err = parseDuration("debounce", file.Debounce, domain.DefaultDebounce); err != nil {
		return nil, err
	}

	return cfg, nil
}

func parseDuration(field, value string, fallback time.Duration) (time.Duration, error) {
	if value == "" {
		return fallback, nil
	}
	d, err := time.ParseDuration(value)
	if err != nil || d <= 0 {
		e := zerr.With(domain.ErrInvalidDuration, "field", field)
		return 0, zerr.With(e, "value", value)
	}
	return d, nil
}

func resolveRoot(configPath, configuredRoot string) string {
	configDir := filepath.Dir(configPath)
	if configuredRoot == "" {
		return filepath.Clean(configDir)
	}
	if filepath.IsAbs(configuredRoot) {
		return filepath.Clean(configuredRoot)
	}
	return filepath.Clean(filepath.Join(configDir, configuredRoot))
}

// readAndUnmarshalYAML reads a YAML file and unmarshals it into the target struct.
func readAndUnmarshalYAML[T any](configPath string, target *T) error {
	// #nosec G304 -- configPath is validated by caller
	configFile, err := os.ReadFile(configPath)
	if err != nil {
		return zerr.Wrap(err, domain.ErrConfigReadFailed.Error())
	}

	if parseErr := yaml.Unmarshal(configFile, target); parseErr != nil {
		return zerr.Wrap(parseErr, domain.ErrConfigParseFailed.Error())
	}

	return nil
}
