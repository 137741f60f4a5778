package app

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"time"

	"go.trai.ch/pico/internal/core/domain"
	"go.trai.ch/pico/internal/core/ports"
	"go.trai.ch/pico/internal/engine/idle"
	"go.trai.ch/zerr"
	"golang.org/x/sync/errgroup"
)

const shutdownTimeout = 5 * time.Second

// WatchOptions configuration for the Watch method.
type WatchOptions struct {
	// ConfigPath overrides the pico.yaml search.
	ConfigPath string
	// Ready, when set, is closed once the watcher is running.
	Ready chan<- struct{}
}

// Watch compiles the project, then recompiles on every batch of file changes
// until ctx is canceled. Problems in a report do not end the loop.
func (a *App) Watch(ctx context.Context, opts WatchOptions) error {
	ws, err := a.open(opts.ConfigPath)
	if err != nil {
		return err
	}
	defer ws.close()

	if err := a.load(ctx, ws); err != nil {
		return err
	}

	retained := ws.project.Retain()
	defer ws.db.ClearRetain(retained)

	if _, err := a.compile(ctx, ws); err != nil {
		return err
	}

	collector := idle.NewCollector(ws.db, ws.cfg.GCInterval, a.observeGC(ctx))
	defer collector.Stop()

	g, ctx := errgroup.WithContext(ctx)
	if err := a.watcher.Start(ctx, ws.cfg.Root, ws.cfg.Debounce); err != nil {
		return err
	}
	defer func() { _ = a.watcher.Stop() }()

	if ws.cfg.MetricsAddr != "" {
		listener, err := net.Listen("tcp", ws.cfg.MetricsAddr)
		if err != nil {
			return zerr.With(zerr.Wrap(err, domain.ErrMetricsServeFailed.Error()), "addr", ws.cfg.MetricsAddr)
		}
		g.Go(func() error {
			return a.serve(ctx, listener, ws)
		})
		a.logger.Info(fmt.Sprintf("serving metrics on http://%s/metrics", listener.Addr()))
	}

	a.logger.Info(fmt.Sprintf("watching %s", ws.cfg.Root))
	if opts.Ready != nil {
		close(opts.Ready)
	}

	g.Go(func() error {
		for batch := range a.watcher.Events() {
			if !a.apply(ctx, ws, batch) {
				continue
			}
			collector.Touch()
			if _, err := a.compile(ctx, ws); err != nil {
				if ctx.Err() != nil {
					return nil
				}
				a.logger.Error(err)
			}
		}
		return nil
	})

	return g.Wait()
}

// apply feeds one batch of file events into the project. It reports whether
// anything changed.
func (a *App) apply(ctx context.Context, ws *workspace, batch []ports.WatchEvent) bool {
	changed := false
	for _, event := range batch {
		switch event.Operation {
		case ports.OpRemove, ports.OpRename:
			changed = ws.remove(ws.cfg.Rel(event.Path)) || changed
		case ports.OpCreate, ports.OpWrite:
			changed = a.refresh(ctx, ws, event.Path) || changed
		}
	}
	return changed
}

// refresh reloads the file or directory at path.
func (a *App) refresh(ctx context.Context, ws *workspace, path string) bool {
	info, err := os.Stat(path)
	if err != nil {
		// Gone again before the batch was applied.
		return ws.remove(ws.cfg.Rel(path))
	}

	if info.IsDir() {
		sub := *ws.cfg
		sub.Root = path
		docs, err := a.reader.Scan(ctx, &sub)
		if err != nil {
			a.logger.Error(err)
			return false
		}
		changed := false
		for _, doc := range docs {
			changed = ws.upsert(doc) || changed
		}
		return changed
	}

	if !ws.cfg.Matches(path) {
		return false
	}
	doc, err := a.reader.Read(path)
	if err != nil {
		a.logger.Error(err)
		return false
	}
	return ws.upsert(doc)
}

// serve exposes /metrics and the latest /report until ctx is canceled.
func (a *App) serve(ctx context.Context, listener net.Listener, ws *workspace) error {
	mux := http.NewServeMux()
	mux.Handle("/metrics", a.metrics.Handler())
	mux.HandleFunc("/report", func(w http.ResponseWriter, _ *http.Request) {
		report, err := ws.report(ctx)
		if err != nil {
			http.Error(w, err.Error(), http.StatusServiceUnavailable)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(report)
	})

	server := &http.Server{Handler: mux, ReadHeaderTimeout: shutdownTimeout}
	served := make(chan error, 1)
	go func() { served <- server.Serve(listener) }()

	select {
	case err := <-served:
		if !errors.Is(err, http.ErrServerClosed) {
			return zerr.Wrap(err, domain.ErrMetricsServeFailed.Error())
		}
		return nil
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), shutdownTimeout)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		return zerr.Wrap(err, domain.ErrMetricsServeFailed.Error())
	}
	return nil
}
