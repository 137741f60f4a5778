// Package app implements the application layer for pico.
package app

import (
	"context"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"go.trai.ch/pico/internal/compiler"
	"go.trai.ch/pico/internal/core/domain"
	"go.trai.ch/pico/internal/core/ports"
	"go.trai.ch/pico/internal/engine/memo"
	"go.trai.ch/zerr"
	"golang.org/x/sync/singleflight"
)

// App represents the main application logic.
type App struct {
	configLoader ports.ConfigLoader
	reader       ports.SourceReader
	logger       ports.Logger
	tracer       ports.Tracer
	metrics      ports.Metrics
	renderer     ports.Renderer
	watcher      ports.Watcher
	getwd        func() (string, error)
}

// New creates a new App instance.
func New(
	loader ports.ConfigLoader,
	reader ports.SourceReader,
	log ports.Logger,
	tracer ports.Tracer,
	metrics ports.Metrics,
	renderer ports.Renderer,
	watcher ports.Watcher,
) *App {
	return &App{
		configLoader: loader,
		reader:       reader,
		logger:       log,
		tracer:       tracer,
		metrics:      metrics,
		renderer:     renderer,
		watcher:      watcher,
		getwd:        os.Getwd,
	}
}

// WithWorkingDir fixes the directory the config search starts from.
// This is primarily used for testing.
func (a *App) WithWorkingDir(dir string) *App {
	a.getwd = func() (string, error) { return dir, nil }
	return a
}

// BuildOptions configuration for the Build method.
type BuildOptions struct {
	// ConfigPath overrides the pico.yaml search.
	ConfigPath string
}

// Build compiles the project once and renders the report. It returns
// domain.ErrCompilationFailed when the report has problems.
func (a *App) Build(ctx context.Context, opts BuildOptions) error {
	ctx, span := a.tracer.Start(ctx, "build")
	defer span.End()

	ws, err := a.open(opts.ConfigPath)
	if err != nil {
		span.RecordError(err)
		return err
	}
	defer ws.close()

	if err := a.load(ctx, ws); err != nil {
		span.RecordError(err)
		return err
	}

	report, err := a.compile(ctx, ws)
	if err != nil {
		span.RecordError(err)
		return err
	}
	if report.HasErrors() {
		return domain.ErrCompilationFailed
	}
	return nil
}

// workspace is one compilation target: a config, the project it describes and
// the content digests last loaded into it.
type workspace struct {
	cfg     *domain.Config
	db      *memo.Database
	project *compiler.Project
	digests map[string]uint64
	reports singleflight.Group
}

func (a *App) open(configPath string) (*workspace, error) {
	cwd, err := a.getwd()
	if err != nil {
		return nil, zerr.Wrap(err, "failed to get working directory")
	}

	cfg, err := a.configLoader.Load(cwd, configPath)
	if err != nil {
		return nil, zerr.Wrap(err, "failed to load configuration")
	}

	db := memo.NewDatabase(memo.WithCapacity(cfg.Capacity))
	return &workspace{
		cfg:     cfg,
		db:      db,
		project: compiler.NewProject(db),
		digests: make(map[string]uint64),
	}, nil
}

func (ws *workspace) close() {
	ws.db.Close()
}

// upsert stores doc unless its content is unchanged. It reports whether the
// project changed.
func (ws *workspace) upsert(doc ports.Document) bool {
	rel := ws.cfg.Rel(doc.Path)
	if digest, ok := ws.digests[rel]; ok && digest == doc.Digest {
		return false
	}
	ws.digests[rel] = doc.Digest
	ws.project.Upsert(rel, doc.Content)
	return true
}

// remove drops the file at rel, or every file below it when rel is a
// directory. It reports whether the project changed.
func (ws *workspace) remove(rel string) bool {
	if ws.project.Delete(rel) {
		delete(ws.digests, rel)
		return true
	}

	changed := false
	prefix := rel + "/"
	for _, path := range ws.project.Paths() {
		if strings.HasPrefix(path, prefix) {
			ws.project.Delete(path)
			delete(ws.digests, path)
			changed = true
		}
	}
	return changed
}

// report returns the project report. Callers asking at the same epoch share
// one computation.
func (ws *workspace) report(ctx context.Context) (compiler.Report, error) {
	key := strconv.FormatUint(uint64(ws.db.Epoch()), 10)
	v, err, _ := ws.reports.Do(key, func() (any, error) {
		return ws.project.Report(ctx)
	})
	if err != nil {
		return compiler.Report{}, err
	}
	return v.(compiler.Report), nil //nolint:forcetypeassert // the group only stores reports
}

func (a *App) load(ctx context.Context, ws *workspace) error {
	ctx, span := a.tracer.Start(ctx, "scan", ports.WithAttribute("root", ws.cfg.Root))
	defer span.End()

	docs, err := a.reader.Scan(ctx, ws.cfg)
	if err != nil {
		span.RecordError(err)
		return err
	}
	for _, doc := range docs {
		ws.upsert(doc)
	}
	span.SetAttribute("files", len(docs))
	return nil
}

// compile produces the report, renders it and records the run.
func (a *App) compile(ctx context.Context, ws *workspace) (compiler.Report, error) {
	ctx, span := a.tracer.Start(ctx, "compile")
	defer span.End()

	start := time.Now()
	report, err := ws.report(ctx)
	if err != nil {
		span.RecordError(err)
		return compiler.Report{}, zerr.Wrap(err, "compilation interrupted")
	}
	elapsed := time.Since(start)

	stats := ws.db.Stats()
	a.metrics.ObserveCompile(stats, len(report.Diagnostics), elapsed)
	span.SetAttribute("files", report.Files)
	span.SetAttribute("diagnostics", len(report.Diagnostics))
	span.SetAttribute("executions", stats.Executions)
	span.SetAttribute("reuses", stats.Reuses)

	if err := a.renderer.Render(report, elapsed); err != nil {
		span.RecordError(err)
		return compiler.Report{}, zerr.Wrap(err, "failed to render report")
	}
	return report, nil
}

// observeGC returns the callback the idle collector runs after every sweep.
func (a *App) observeGC(ctx context.Context) func(memo.GCStats) {
	return func(stats memo.GCStats) {
		_, span := a.tracer.Start(ctx, "gc",
			ports.WithAttribute("roots", stats.Roots),
			ports.WithAttribute("collected", stats.CollectedDerived),
		)
		defer span.End()

		a.metrics.ObserveGC(stats)
		if stats.CollectedDerived > 0 || stats.CollectedParams > 0 {
			a.logger.Info(fmt.Sprintf("collected %d nodes and %d params", stats.CollectedDerived, stats.CollectedParams))
		}
	}
}
