package config

// Picofile represents the structure of the pico.yaml configuration file.
type Picofile struct {
	Version     string   `yaml:"version"`
	Root        string   `yaml:"root"`
	Include     []string `yaml:"include"`
	Capacity    *int     `yaml:"capacity"`
	GCInterval  string   `yaml:"gcInterval"`
	MetricsAddr string   `yaml:"metricsAddr"`
	Debounce    string   `yaml:"debounce"`
}
