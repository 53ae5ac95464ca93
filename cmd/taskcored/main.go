// Command taskcored serves the project task API.
//
// Configuration is environment driven:
//
//	TASKCORE_HTTP_ADDR: listen address (default :8080)
//	TASKCORE_FACTOR_CATALOG: path to the canonical factor catalog JSON
//	TASKCORE_STORAGE_DRIVER / TASKCORE_SQLITE_PATH / TASKCORE_POSTGRES_DSN
//	TASKCORE_BLOB_DRIVER / TASKCORE_BLOB_FS_ROOT / TASKCORE_BLOB_S3_*
//	TASKCORE_TRACE_LOG: file receiving operation spans as JSON lines
package main

import (
	"context"
	"errors"
	"expvar"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"taskcore/internal/adapters/tasks"
	"taskcore/internal/blob"
	"taskcore/internal/core"
	"taskcore/pkg/domain"
)

func main() {
	os.Exit(run(context.Background(), os.Stderr))
}

func run(ctx context.Context, stderr io.Writer) int {
	logger := slog.New(slog.NewJSONHandler(stderr, nil))

	catalog, err := loadCatalog(os.Getenv("TASKCORE_FACTOR_CATALOG"))
	if err != nil {
		logger.Error("load factor catalog", "error", err)
		return 1
	}

	store, err := core.OpenTaskStore(ctx)
	if err != nil {
		logger.Error("open task store", "error", err)
		return 1
	}
	defer closeStore(store, logger)

	archive, err := blob.Open(ctx)
	if err != nil {
		logger.Error("open blob store", "error", err)
		return 1
	}

	registry := prometheus.NewRegistry()
	prom, err := core.NewPrometheusMetricsRecorder(registry)
	if err != nil {
		logger.Error("register metrics", "error", err)
		return 1
	}
	// The expvar recorder feeds /debug/vars alongside the scrape endpoint.
	stats := core.NewExpvarMetricsRecorder("taskcore_service")

	opts := []core.ServiceOption{
		core.WithLogger(slogLogger{logger}),
		core.WithMetricsRecorder(core.MetricsRecorders(prom, stats)),
		core.WithArchiveStore(archive),
	}
	var traceFile *os.File
	if path := os.Getenv("TASKCORE_TRACE_LOG"); path != "" {
		traceFile, err = os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
		if err != nil {
			logger.Error("open trace log", "error", err)
			return 1
		}
		defer traceFile.Close()
		opts = append(opts, core.WithTracer(core.NewJSONTracer(traceFile)))
	}

	svc := core.NewService(store, catalog, opts...)

	mux := http.NewServeMux()
	mux.Handle("/api/v1/projects/", tasks.NewHandler(svc))
	mux.Handle("/metrics", promhttp.HandlerFor(registry, promhttp.HandlerOpts{}))
	mux.Handle("/debug/vars", expvar.Handler())
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	addr := os.Getenv("TASKCORE_HTTP_ADDR")
	if addr == "" {
		addr = ":8080"
	}
	server := &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      30 * time.Second,
	}

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		logger.Info("listening", "addr", addr, "factors", len(catalog))
		errCh <- server.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("serve", "error", err)
			return 1
		}
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			logger.Error("shutdown", "error", err)
			return 1
		}
		logger.Info("shut down cleanly")
	}
	return 0
}

func loadCatalog(path string) (domain.FactorCatalog, error) {
	if path == "" {
		return nil, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	catalog, err := domain.ParseFactorCatalog(data)
	if err != nil {
		return nil, err
	}
	if errs := catalog.Validate(); len(errs) > 0 {
		return nil, fmt.Errorf("catalog invalid: %v", errs)
	}
	return catalog, nil
}

func closeStore(store domain.TaskStore, logger *slog.Logger) {
	if closer, ok := store.(io.Closer); ok {
		if err := closer.Close(); err != nil {
			logger.Error("close task store", "error", err)
		}
	}
}

// slogLogger adapts *slog.Logger to the service's Logger interface.
type slogLogger struct {
	l *slog.Logger
}

func (s slogLogger) Debug(msg string, args ...any) { s.l.Debug(msg, args...) }
func (s slogLogger) Info(msg string, args ...any)  { s.l.Info(msg, args...) }
func (s slogLogger) Warn(msg string, args ...any)  { s.l.Warn(msg, args...) }
func (s slogLogger) Error(msg string, args ...any) { s.l.Error(msg, args...) }
