package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/handle999/YOLO-MonoPed-Depth/internal/api"
	"github.com/handle999/YOLO-MonoPed-Depth/internal/config"
	"github.com/handle999/YOLO-MonoPed-Depth/internal/dispatcher"
	"github.com/handle999/YOLO-MonoPed-Depth/internal/influx"
	"github.com/handle999/YOLO-MonoPed-Depth/internal/localize"
	"github.com/handle999/YOLO-MonoPed-Depth/internal/logging"
	"github.com/handle999/YOLO-MonoPed-Depth/internal/monitor"
	intOtel "github.com/handle999/YOLO-MonoPed-Depth/internal/otel"
	"github.com/handle999/YOLO-MonoPed-Depth/internal/storage"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"
	sdklog "go.opentelemetry.io/otel/sdk/log"
)

// BuildVersion and BuildDate can be set at build time via ldflags.
var (
	BuildVersion = "0.0.1"
	BuildDate    = "unknown"
)

const serviceName = "monoloc-server"

// shutdownTimeout bounds graceful HTTP shutdown and the final flushes.
const shutdownTimeout = 15 * time.Second

func main() {
	configDir := pflag.String("config", ".", "directory containing "+config.FileName)
	pflag.String("address", "", "listen address, overrides server.address")
	pflag.String("storage", "", "storage backend: memory, sqlite, postgres or none")
	pflag.String("log-level", "", "log level")
	pflag.Parse()

	if err := config.LoadOptional(*configDir); err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}
	bindFlag("server.address", "address")
	bindFlag("storage.type", "storage")
	bindFlag("logLevel", "log-level")

	if err := run(); err != nil {
		slog.Error("monoloc-server stopped", "error", err)
		os.Exit(1)
	}
}

// bindFlag lets an explicitly set flag override the config file.
func bindFlag(key, flag string) {
	if f := pflag.Lookup(flag); f != nil && f.Changed {
		viper.Set(key, f.Value.String())
	}
}

func run() error {
	start := time.Now()
	level := viper.GetString("logLevel")

	logsDir := viper.GetString("logsDir")
	if err := os.MkdirAll(logsDir, 0755); err != nil {
		return fmt.Errorf("creating logs dir: %w", err)
	}
	logPath := logging.LogFilePath(logsDir, serviceName, start)
	logFile, err := os.OpenFile(logPath, os.O_RDWR|os.O_CREATE|os.O_APPEND, 0666)
	if err != nil {
		return fmt.Errorf("opening log file: %w", err)
	}
	defer logFile.Close()

	// OTel provider writes to the log file and optionally to an OTLP endpoint
	otelCfg := config.GetOTelConfig()
	var provider *intOtel.Provider
	if otelCfg.Enabled {
		cfg := intOtel.Config{
			Enabled:        true,
			ServiceName:    otelCfg.ServiceName,
			ServiceVersion: BuildVersion,
			BatchTimeout:   otelCfg.BatchTimeout,
			LogWriter:      logFile,
			Endpoint:       otelCfg.Endpoint,
			Insecure:       otelCfg.Insecure,
			MetricInterval: otelCfg.MetricInterval,
		}
		if otelCfg.Metrics {
			metricsFile, err := os.Create(logging.LogFilePath(logsDir, serviceName+".metrics", start))
			if err != nil {
				return fmt.Errorf("creating metrics file: %w", err)
			}
			defer metricsFile.Close()
			cfg.MetricWriter = metricsFile
		}
		provider, err = intOtel.New(cfg)
		if err != nil {
			fmt.Fprintf(os.Stderr, "failed to initialize OTel provider: %v\n", err)
		}
	}
	var logProvider *sdklog.LoggerProvider
	if provider != nil {
		logProvider = provider.LoggerProvider()
	}

	var gelfWriter io.Writer
	if viper.GetBool("graylog.enabled") {
		w, err := logging.NewGELFWriter(viper.GetString("graylog.address"), serviceName)
		if err != nil {
			fmt.Fprintf(os.Stderr, "graylog disabled: %v\n", err)
		} else {
			defer w.Close()
			gelfWriter = w
		}
	}

	storageCfg := config.GetStorageConfig()
	slogManager := logging.NewSlogManager()
	slogManager.Setup(logging.Options{
		Level:       level,
		File:        io.MultiWriter(os.Stdout, logFile),
		GELF:        gelfWriter,
		Provider:    logProvider,
		ServiceName: otelCfg.ServiceName,
		Context: func() []slog.Attr {
			return []slog.Attr{slog.String("storage", storageCfg.Type)}
		},
	})
	logger := slogManager.Logger()
	slog.SetDefault(logger)
	logger.Info("Starting monoloc-server", "version", BuildVersion, "buildDate", BuildDate, "logFile", logPath)

	// persistence sinks
	var sinks []localize.Sink
	backend, err := storage.NewBackend(storageCfg, slogManager)
	if err != nil {
		return err
	}
	if err := backend.Init(); err != nil {
		return fmt.Errorf("initializing %s storage: %w", storageCfg.Type, err)
	}
	sinks = append(sinks, backend)
	logger.Info("Storage initialized", "type", storageCfg.Type)

	influxManager := influx.NewManager(
		logging.NewZerolog(logFile, level, "influx"),
		filepath.Join(logsDir, fmt.Sprintf("influx_backup_%s.log.gz", start.Format("20060102_150405"))),
	)
	switch err := influxManager.Connect(); {
	case errors.Is(err, influx.ErrDisabled):
		logger.Debug("InfluxDB disabled")
	case err != nil:
		logger.Error("Failed to connect to InfluxDB", "error", err)
	default:
		sinks = append(sinks, influxManager)
	}

	// localization pipeline
	serverCfg := config.GetServerConfig()
	opts, err := localize.OptionsFromConfig(config.GetRangingConfig(), serverCfg.Workers, logger)
	if err != nil {
		return err
	}
	svc, err := localize.New(opts)
	if err != nil {
		return err
	}

	d, err := dispatcher.New(logging.NewZerologAdapter(logging.NewZerolog(logFile, level, "dispatcher")))
	if err != nil {
		return fmt.Errorf("creating dispatcher: %w", err)
	}
	pipeline := localize.NewPipeline(svc, d, serverCfg.PersistQueue, sinks...)

	server := api.NewServer(pipeline, logger)

	monitorDeps := monitor.Dependencies{
		LogManager: slogManager,
		Stats:      svc,
		StatusPath: filepath.Join(logsDir, "status.json"),
		Storage:    storageCfg.Type,
	}
	if q, ok := backend.(monitor.QueueSource); ok {
		monitorDeps.Queue = q
	}
	statusMonitor := monitor.NewService(monitorDeps)
	if err := statusMonitor.Start(); err != nil {
		return fmt.Errorf("starting status monitor: %w", err)
	}
	defer statusMonitor.Stop()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() { errCh <- server.Listen(serverCfg.Address) }()

	select {
	case err = <-errCh:
		logger.Error("HTTP server failed", "error", err)
	case <-ctx.Done():
		logger.Info("Shutting down")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if serr := server.Shutdown(shutdownCtx); serr != nil {
		logger.Error("HTTP shutdown failed", "error", serr)
	}
	// drain the persist queue before closing its sinks
	d.Close()
	if cerr := backend.Close(); cerr != nil {
		logger.Error("Failed to close storage", "error", cerr)
	}
	if exp, ok := backend.(storage.Exportable); ok && exp.GetExportedFilePath() != "" {
		logger.Info("Exported localizations", "path", exp.GetExportedFilePath())
	}
	if cerr := influxManager.Close(); cerr != nil {
		logger.Error("Failed to close InfluxDB", "error", cerr)
	}
	if provider != nil {
		if ferr := slogManager.Flush(shutdownCtx); ferr != nil {
			fmt.Fprintf(os.Stderr, "failed to flush logs: %v\n", ferr)
		}
		if serr := provider.Shutdown(shutdownCtx); serr != nil {
			fmt.Fprintf(os.Stderr, "failed to shut down OTel: %v\n", serr)
		}
	}
	return err
}
