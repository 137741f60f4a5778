package ports

import "go.trai.ch/pico/internal/core/domain"

// ConfigLoader defines the interface for loading the project configuration.
//
//go:generate mockgen -source=config_loader.go -destination=mocks/mock_config_loader.go -package=mocks
type ConfigLoader interface {
	// Load reads the configuration at path, or finds pico.yaml by walking up from cwd
	// when path is empty.
	Load(cwd, path string) (*domain.Config, error)
}
