// Package wiring registers all Graft nodes for the application.
package wiring

import (
	// Register adapter nodes.
	_ "go.trai.ch/pico/internal/adapters/config"
	_ "go.trai.ch/pico/internal/adapters/fs"
	_ "go.trai.ch/pico/internal/adapters/linear"
	_ "go.trai.ch/pico/internal/adapters/logger"
	_ "go.trai.ch/pico/internal/adapters/metrics"
	_ "go.trai.ch/pico/internal/adapters/telemetry"
	_ "go.trai.ch/pico/internal/adapters/watcher"
	// Register app nodes.
	_ "go.trai.ch/pico/internal/app"
)
