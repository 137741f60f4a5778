package domain

import "time"

const (
	// ConfigFileName is the name of the project configuration file.
	ConfigFileName = "pico.yaml"

	// ConfigVersion is the config version this build understands.
	ConfigVersion = "1"

	// DirPerm is the default permission for directories (rwxr-x---).
	DirPerm = 0o750

	// FilePerm is the default permission for files (rw-r--r--).
	FilePerm = 0o644
)

// Defaults applied to fields a config leaves empty.
const (
	DefaultCapacity   = 10000
	DefaultGCInterval = 5 * time.Second
	DefaultDebounce   = 50 * time.Millisecond
)

// DefaultInclude returns the include patterns used when a config names none.
func DefaultInclude() []string {
	return []string{"*.graphql", "*.gql"}
}

// SkippedDirs lists directory names that are never walked or watched.
var SkippedDirs = map[string]bool{
	".git":         true,
	".jj":          true,
	"node_modules": true,
	"vendor":       true,
}
