// Command rxncore is an interactive shell over a persistent reaction-network
// document store. It wires the persistence backend, blob storage for exports,
// the plugin registry and an optional Prometheus metrics listener from
// layered configuration.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"time"

	"github.com/chzyer/readline"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/pflag"

	"rxncore/internal/adapters/export"
	"rxncore/internal/blob"
	"rxncore/internal/core"
	"rxncore/internal/infra/persistence"
	"rxncore/plugins/kinetics"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "rxncore: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	flags := pflag.NewFlagSet("rxncore", pflag.ContinueOnError)
	configPath := flags.String("config", "", "path to rxncore.toml")
	flags.String("storage.driver", "sqlite", "persistence backend (memory|sqlite|postgres)")
	flags.String("storage.path", "rxncore.db", "sqlite database file")
	flags.String("storage.dsn", "", "postgres connection string")
	flags.String("blob.driver", "fs", "artifact store (fs|s3|memory)")
	flags.String("blob.root", "./blobdata", "filesystem artifact root")
	flags.String("metrics.addr", "", "prometheus listen address, empty disables")
	flags.String("log.level", "info", "log level (debug|info|warn|error)")
	if err := flags.Parse(os.Args[1:]); err != nil {
		return err
	}

	cfg, err := LoadConfig(flags, *configPath)
	if err != nil {
		return err
	}

	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: parseLevel(cfg.Log.Level),
	}))

	engine := core.DefaultRulesEngine()
	store, closeStore, err := persistence.Open(persistence.Config{
		Driver:      persistence.Driver(cfg.Storage.Driver),
		SQLitePath:  cfg.Storage.Path,
		PostgresDSN: cfg.Storage.DSN,
	}, engine)
	if err != nil {
		return fmt.Errorf("open storage: %w", err)
	}
	defer func() {
		if err := closeStore(); err != nil {
			logger.Error("close storage", "error", err)
		}
	}()

	opts := []core.ServiceOption{core.WithLogger(core.NewSlogLogger(logger))}
	registry := prometheus.NewRegistry()
	if cfg.Metrics.Addr != "" {
		registry.MustRegister(collectors.NewGoCollector())
		recorder, err := core.NewPrometheusMetricsRecorder(registry)
		if err != nil {
			return fmt.Errorf("register metrics: %w", err)
		}
		opts = append(opts, core.WithMetricsRecorder(recorder))
	}
	svc := core.NewService(store, opts...)

	if _, err := svc.InstallPlugin(kinetics.New()); err != nil {
		return fmt.Errorf("install kinetics plugin: %w", err)
	}

	ctx := context.Background()
	blobs, err := blob.Open(ctx, blob.Config{
		Driver: blob.Driver(cfg.Blob.Driver),
		FSRoot: cfg.Blob.Root,
		S3: blob.S3Config{
			Region:          cfg.Blob.Region,
			Bucket:          cfg.Blob.Bucket,
			Endpoint:        cfg.Blob.Endpoint,
			AccessKeyID:     cfg.Blob.Access,
			SecretAccessKey: cfg.Blob.Secret,
		},
	})
	if err != nil {
		return fmt.Errorf("open blob store: %w", err)
	}

	worker := export.NewWorker(store, blobs, slogAudit{logger: logger})
	worker.Start()
	defer func() {
		stopCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := worker.Stop(stopCtx); err != nil {
			logger.Error("stop export worker", "error", err)
		}
	}()

	if cfg.Metrics.Addr != "" {
		go serveMetrics(cfg.Metrics.Addr, registry, logger)
	}

	rl, err := readline.NewEx(&readline.Config{
		Prompt:          "rxncore> ",
		HistoryFile:     cfg.History,
		InterruptPrompt: "^C",
		EOFPrompt:       "exit",
	})
	if err != nil {
		return fmt.Errorf("init readline: %w", err)
	}
	defer rl.Close()

	logger.Info("rxncore ready",
		"storage", cfg.Storage.Driver,
		"blob", cfg.Blob.Driver,
		"networks", store.NumberOfNetworks())

	repl := newREPL(svc, worker, rl)
	return repl.Run(ctx)
}

func serveMetrics(addr string, registry *prometheus.Registry, logger *slog.Logger) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(registry, promhttp.HandlerOpts{}))
	logger.Info("metrics listening", "addr", addr)
	server := &http.Server{Addr: addr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}
	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logger.Error("metrics server", "error", err)
	}
}

func parseLevel(level string) slog.Level {
	switch level {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// slogAudit forwards export audit entries to the structured log.
type slogAudit struct {
	logger *slog.Logger
}

func (a slogAudit) Record(_ context.Context, entry export.AuditEntry) {
	a.logger.Info("export audit",
		"action", entry.Action,
		"network", entry.NetworkID,
		"status", string(entry.Status),
		"actor", entry.Actor)
}
