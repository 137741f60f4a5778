package app_test

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
	"go.trai.ch/pico/internal/adapters/fs"
	"go.trai.ch/pico/internal/adapters/telemetry"
	"go.trai.ch/pico/internal/app"
	"go.trai.ch/pico/internal/compiler"
	"go.trai.ch/pico/internal/core/domain"
	"go.trai.ch/pico/internal/core/ports"
	"go.trai.ch/pico/internal/core/ports/mocks"
	"go.uber.org/mock/gomock"
)

const (
	schemaSource = "type User {\n  id: ID!\n}\n"
	opsSource    = "fragment UserFields on User {\n  id\n}\n"
)

type harness struct {
	root     string
	cfg      *domain.Config
	loader   *mocks.MockConfigLoader
	logger   *mocks.MockLogger
	metrics  *mocks.MockMetrics
	renderer *mocks.MockRenderer
	watcher  *mocks.MockWatcher
	spans    *tracetest.SpanRecorder
	infos    chan string
	app      *app.App
}

func newHarness(t *testing.T) *harness {
	t.Helper()

	root := t.TempDir()
	writeSource(t, root, "schema.graphql", schemaSource)
	writeSource(t, root, "ops.graphql", opsSource)

	ctrl := gomock.NewController(t)
	h := &harness{
		root: root,
		cfg: &domain.Config{
			Root:       root,
			Include:    domain.DefaultInclude(),
			Capacity:   domain.DefaultCapacity,
			GCInterval: time.Hour,
			Debounce:   domain.DefaultDebounce,
		},
		loader:   mocks.NewMockConfigLoader(ctrl),
		logger:   mocks.NewMockLogger(ctrl),
		metrics:  mocks.NewMockMetrics(ctrl),
		renderer: mocks.NewMockRenderer(ctrl),
		watcher:  mocks.NewMockWatcher(ctrl),
		spans:    tracetest.NewSpanRecorder(),
		infos:    make(chan string, 16),
	}

	tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(h.spans))
	t.Cleanup(func() { _ = tp.Shutdown(context.Background()) })
	tracer := telemetry.NewOTelTracer(tp, "test", tp.Shutdown)

	h.app = app.New(h.loader, fs.NewReader(fs.NewWalker()), h.logger, tracer, h.metrics, h.renderer, h.watcher).
		WithWorkingDir(root)
	return h
}

func writeSource(t *testing.T, root, rel, content string) {
	t.Helper()
	path := filepath.Join(root, rel)
	require.NoError(t, os.MkdirAll(filepath.Dir(path), domain.DirPerm))
	require.NoError(t, os.WriteFile(path, []byte(content), domain.FilePerm))
}

func (h *harness) spanNames() []string {
	var names []string
	for _, s := range h.spans.Ended() {
		names = append(names, s.Name())
	}
	return names
}

func TestApp_Build(t *testing.T) {
	h := newHarness(t)

	var rendered compiler.Report
	h.loader.EXPECT().Load(h.root, "").Return(h.cfg, nil)
	h.metrics.EXPECT().ObserveCompile(gomock.Any(), 0, gomock.Any())
	h.renderer.EXPECT().Render(gomock.Any(), gomock.Any()).DoAndReturn(func(r compiler.Report, _ time.Duration) error {
		rendered = r
		return nil
	})

	require.NoError(t, h.app.Build(context.Background(), app.BuildOptions{}))
	assert.Equal(t, 2, rendered.Files)
	assert.Equal(t, 2, rendered.Definitions)
	assert.Empty(t, rendered.Diagnostics)
	assert.Equal(t, []string{"scan", "compile", "build"}, h.spanNames())
}

func TestApp_Build_Problems(t *testing.T) {
	h := newHarness(t)
	writeSource(t, h.root, "ops.graphql", "fragment UserFields on Account {\n  id\n}\n")

	var rendered compiler.Report
	h.loader.EXPECT().Load(h.root, "custom.yaml").Return(h.cfg, nil)
	h.metrics.EXPECT().ObserveCompile(gomock.Any(), 1, gomock.Any())
	h.renderer.EXPECT().Render(gomock.Any(), gomock.Any()).DoAndReturn(func(r compiler.Report, _ time.Duration) error {
		rendered = r
		return nil
	})

	err := h.app.Build(context.Background(), app.BuildOptions{ConfigPath: "custom.yaml"})
	require.ErrorIs(t, err, domain.ErrCompilationFailed)
	require.Len(t, rendered.Diagnostics, 1)
	assert.Equal(t, compiler.Diagnostic{
		Path:    "ops.graphql",
		Line:    1,
		Message: `fragment "UserFields" is on unknown type "Account"`,
	}, rendered.Diagnostics[0])
}

func TestApp_Build_ConfigError(t *testing.T) {
	h := newHarness(t)
	h.loader.EXPECT().Load(h.root, "").Return(nil, domain.ErrConfigNotFound)

	err := h.app.Build(context.Background(), app.BuildOptions{})
	require.ErrorContains(t, err, "failed to load configuration")
	require.ErrorContains(t, err, domain.ErrConfigNotFound.Error())
}

func TestApp_Build_ScanError(t *testing.T) {
	h := newHarness(t)
	h.cfg.Root = filepath.Join(h.root, "missing")
	h.loader.EXPECT().Load(h.root, "").Return(h.cfg, nil)

	err := h.app.Build(context.Background(), app.BuildOptions{})
	require.ErrorContains(t, err, domain.ErrSourceWalkFailed.Error())
}

func TestApp_Build_RenderError(t *testing.T) {
	h := newHarness(t)
	h.loader.EXPECT().Load(h.root, "").Return(h.cfg, nil)
	h.metrics.EXPECT().ObserveCompile(gomock.Any(), 0, gomock.Any())
	h.renderer.EXPECT().Render(gomock.Any(), gomock.Any()).Return(errors.New("broken pipe"))

	err := h.app.Build(context.Background(), app.BuildOptions{})
	require.ErrorContains(t, err, "failed to render report")
}

// watchRun drives one Watch call through a fake watcher.
type watchRun struct {
	batches  chan []ports.WatchEvent
	rendered chan compiler.Report
	done     chan error
	cancel   context.CancelFunc
}

func startWatch(t *testing.T, h *harness) *watchRun {
	t.Helper()

	w := &watchRun{
		batches:  make(chan []ports.WatchEvent),
		rendered: make(chan compiler.Report, 16),
		done:     make(chan error, 1),
	}

	h.loader.EXPECT().Load(h.root, "").Return(h.cfg, nil)
	h.metrics.EXPECT().ObserveCompile(gomock.Any(), gomock.Any(), gomock.Any()).AnyTimes()
	h.logger.EXPECT().Info(gomock.Any()).Do(func(msg string) {
		select {
		case h.infos <- msg:
		default:
		}
	}).AnyTimes()
	h.renderer.EXPECT().Render(gomock.Any(), gomock.Any()).DoAndReturn(func(r compiler.Report, _ time.Duration) error {
		w.rendered <- r
		return nil
	}).AnyTimes()
	h.watcher.EXPECT().Start(gomock.Any(), h.root, h.cfg.Debounce).Return(nil)
	h.watcher.EXPECT().Events().Return(func(yield func([]ports.WatchEvent) bool) {
		for batch := range w.batches {
			if !yield(batch) {
				return
			}
		}
	})
	h.watcher.EXPECT().Stop().Return(nil)

	ctx, cancel := context.WithCancel(context.Background())
	w.cancel = cancel
	ready := make(chan struct{})
	go func() {
		w.done <- h.app.Watch(ctx, app.WatchOptions{Ready: ready})
	}()

	select {
	case <-ready:
	case err := <-w.done:
		t.Fatalf("watch ended early: %v", err)
	case <-time.After(5 * time.Second):
		t.Fatal("watch did not become ready")
	}
	return w
}

func (w *watchRun) next(t *testing.T) compiler.Report {
	t.Helper()
	select {
	case r := <-w.rendered:
		return r
	case <-time.After(5 * time.Second):
		t.Fatal("no report rendered")
		return compiler.Report{}
	}
}

func (w *watchRun) stop(t *testing.T) {
	t.Helper()
	w.cancel()
	close(w.batches)
	select {
	case err := <-w.done:
		require.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("watch did not stop")
	}
}

func TestApp_Watch_RecompilesOnChange(t *testing.T) {
	h := newHarness(t)
	w := startWatch(t, h)

	initial := w.next(t)
	assert.Equal(t, 2, initial.Files)
	assert.False(t, initial.HasErrors())

	ops := filepath.Join(h.root, "ops.graphql")
	writeSource(t, h.root, "ops.graphql", "fragment UserFields on Account {\n  id\n}\n")
	w.batches <- []ports.WatchEvent{{Path: ops, Operation: ports.OpWrite}}

	changed := w.next(t)
	require.Len(t, changed.Diagnostics, 1)
	assert.Equal(t, "ops.graphql", changed.Diagnostics[0].Path)

	w.stop(t)
}

func TestApp_Watch_IgnoresUnchangedAndForeignFiles(t *testing.T) {
	h := newHarness(t)
	w := startWatch(t, h)
	w.next(t)

	writeSource(t, h.root, "README.md", "# notes\n")
	w.batches <- []ports.WatchEvent{
		{Path: filepath.Join(h.root, "schema.graphql"), Operation: ports.OpWrite},
		{Path: filepath.Join(h.root, "README.md"), Operation: ports.OpCreate},
	}

	// A real change afterwards is the next thing rendered.
	writeSource(t, h.root, "extra.gql", "scalar Date\n")
	w.batches <- []ports.WatchEvent{{Path: filepath.Join(h.root, "extra.gql"), Operation: ports.OpCreate}}

	r := w.next(t)
	assert.Equal(t, 3, r.Files)
	assert.Equal(t, 3, r.Definitions)

	w.stop(t)
}

func TestApp_Watch_RemoveAndNewDirectory(t *testing.T) {
	h := newHarness(t)
	writeSource(t, h.root, "api/orders.graphql", "type Order {\n  id: ID!\n}\n")
	w := startWatch(t, h)

	assert.Equal(t, 3, w.next(t).Files)

	// Removing a directory drops every file below it.
	require.NoError(t, os.RemoveAll(filepath.Join(h.root, "api")))
	w.batches <- []ports.WatchEvent{{Path: filepath.Join(h.root, "api"), Operation: ports.OpRemove}}
	assert.Equal(t, 2, w.next(t).Files)

	// A created directory is scanned for documents.
	writeSource(t, h.root, "admin/roles.graphql", "enum Role {\n  ADMIN\n}\n")
	w.batches <- []ports.WatchEvent{{Path: filepath.Join(h.root, "admin"), Operation: ports.OpCreate}}
	r := w.next(t)
	assert.Equal(t, 3, r.Files)
	assert.False(t, r.HasErrors())

	// A write to a file that is already gone counts as a removal.
	w.batches <- []ports.WatchEvent{{Path: filepath.Join(h.root, "ghost.graphql"), Operation: ports.OpWrite}}
	require.NoError(t, os.Remove(filepath.Join(h.root, "ops.graphql")))
	w.batches <- []ports.WatchEvent{{Path: filepath.Join(h.root, "ops.graphql"), Operation: ports.OpWrite}}
	assert.Equal(t, 2, w.next(t).Files)

	w.stop(t)
}

func TestApp_Watch_WatcherStartFails(t *testing.T) {
	h := newHarness(t)

	h.loader.EXPECT().Load(h.root, "").Return(h.cfg, nil)
	h.metrics.EXPECT().ObserveCompile(gomock.Any(), 0, gomock.Any())
	h.renderer.EXPECT().Render(gomock.Any(), gomock.Any()).Return(nil)
	h.watcher.EXPECT().Start(gomock.Any(), h.root, h.cfg.Debounce).Return(domain.ErrWatcherStartFailed)

	err := h.app.Watch(context.Background(), app.WatchOptions{})
	require.ErrorIs(t, err, domain.ErrWatcherStartFailed)
}

func TestApp_Watch_ServesMetricsAndReport(t *testing.T) {
	h := newHarness(t)
	h.cfg.MetricsAddr = "127.0.0.1:0"
	h.metrics.EXPECT().Handler().Return(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = fmt.Fprint(w, "pico_compiles_total 1\n")
	}))

	w := startWatch(t, h)
	w.next(t)

	var metricsURL string
	for len(h.infos) > 0 {
		msg := <-h.infos
		if url, ok := strings.CutPrefix(msg, "serving metrics on "); ok {
			metricsURL = url
		}
	}
	require.NotEmpty(t, metricsURL)

	body := httpGet(t, metricsURL)
	assert.Equal(t, "pico_compiles_total 1\n", body)

	var report compiler.Report
	require.NoError(t, json.Unmarshal([]byte(httpGet(t, strings.TrimSuffix(metricsURL, "/metrics")+"/report")), &report))
	assert.Equal(t, 2, report.Files)
	assert.Empty(t, report.Diagnostics)

	w.stop(t)
}

func httpGet(t *testing.T, url string) string {
	t.Helper()
	req, err := http.NewRequestWithContext(context.Background(), http.MethodGet, url, nil)
	require.NoError(t, err)
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer func() { _ = resp.Body.Close() }()
	require.Equal(t, http.StatusOK, resp.StatusCode)
	data, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return string(data)
}
