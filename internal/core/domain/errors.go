package domain

import "go.trai.ch/zerr"

var (
	// ErrConfigNotFound is returned when no pico.yaml exists in the working directory or above it.
	ErrConfigNotFound = zerr.New("could not find pico.yaml")

	// ErrConfigReadFailed is returned when the config file cannot be read.
	ErrConfigReadFailed = zerr.New("failed to read config file")

	// ErrConfigParseFailed is returned when the config file cannot be parsed.
	ErrConfigParseFailed = zerr.New("failed to parse config file")

	// ErrUnsupportedVersion is returned when the config declares a version this build does not know.
	ErrUnsupportedVersion = zerr.New("unsupported config version")

	// ErrInvalidPattern is returned when an include pattern is malformed.
	ErrInvalidPattern = zerr.New("invalid include pattern")

	// ErrInvalidDuration is returned when a duration field cannot be parsed.
	ErrInvalidDuration = zerr.New("invalid duration")

	// ErrInvalidCapacity is returned when the cache capacity is not positive.
	ErrInvalidCapacity = zerr.New("capacity must be positive")

	// ErrFailedToGetRoot is returned when the project root path cannot be determined.
	ErrFailedToGetRoot = zerr.New("failed to get absolute path of project root")

	// ErrSourceWalkFailed is returned when the project tree cannot be walked.
	ErrSourceWalkFailed = zerr.New("failed to walk project root")

	// ErrSourceReadFailed is returned when a source document cannot be read.
	ErrSourceReadFailed = zerr.New("failed to read source file")

	// ErrCompilationFailed is returned when a compilation reports diagnostics.
	ErrCompilationFailed = zerr.New("compilation failed")

	// ErrWatcherStartFailed is returned when the file watcher cannot be started.
	ErrWatcherStartFailed = zerr.New("failed to start file watcher")

	// ErrMetricsServeFailed is returned when the metrics endpoint cannot be served.
	ErrMetricsServeFailed = zerr.New("failed to serve metrics")
)
