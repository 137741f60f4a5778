package ports

import (
	"net/http"
	"time"

	"go.trai.ch/pico/internal/engine/memo"
)

// Metrics records engine and compiler activity.
//
//go:generate mockgen -source=metrics.go -destination=mocks/mock_metrics.go -package=mocks
type Metrics interface {
	// ObserveCompile records one compilation.
	ObserveCompile(stats memo.Stats, diagnostics int, elapsed time.Duration)
	// ObserveGC records one garbage collection run.
	ObserveGC(stats memo.GCStats)
	// Handler serves the collected metrics.
	Handler() http.Handler
}
