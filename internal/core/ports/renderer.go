package ports

import (
	"time"

	"go.trai.ch/pico/internal/compiler"
)

// Renderer prints compilation reports.
//
//go:generate mockgen -source=renderer.go -destination=mocks/mock_renderer.go -package=mocks
type Renderer interface {
	// Render prints report, which took elapsed to produce.
	Render(report compiler.Report, elapsed time.Duration) error
}
