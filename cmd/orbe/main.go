package main

import (
	"bufio"
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/arcavoice/orbe/internal/audio"
	"github.com/arcavoice/orbe/internal/backend"
	"github.com/arcavoice/orbe/internal/capture"
	"github.com/arcavoice/orbe/internal/config"
	"github.com/arcavoice/orbe/internal/metrics"
	"github.com/arcavoice/orbe/internal/monitor"
	"github.com/arcavoice/orbe/internal/player"
	"github.com/arcavoice/orbe/internal/presentation"
	"github.com/arcavoice/orbe/internal/session"
	"github.com/arcavoice/orbe/internal/visual"
)

const (
	serviceName    = "orbe"
	serviceVersion = "1.0.0"
)

func main() {
	// Load .env if present; real environment wins over file values
	_ = godotenv.Load()

	// Parse command line flags
	configPath := flag.String("config", "", "Path to configuration file")
	flag.Parse()

	// Load configuration
	var cfg *config.Config
	var err error
	if *configPath != "" {
		cfg, err = config.Load(*configPath)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
			os.Exit(1)
		}
	} else {
		cfg = config.Default()
	}

	// Environment overrides for the common deployment knobs
	if v := os.Getenv("ORBE_BACKEND_URL"); v != "" {
		cfg.Backend.BaseURL = v
	}
	if v := os.Getenv("ORBE_LANGUAGE"); v != "" {
		cfg.Backend.Language = v
	}

	// Initialize logger based on configuration
	logger := initLogger(cfg.Logging)

	logger.Info("Client starting",
		slog.String("service", serviceName),
		slog.String("version", serviceVersion),
		slog.String("backend_url", cfg.Backend.BaseURL),
		slog.String("language", cfg.Backend.Language),
	)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Initialize Prometheus metrics
	appMetrics := metrics.NewMetrics()

	// Backend client
	client, err := backend.NewClient(backend.Config{
		BaseURL: cfg.Backend.BaseURL,
		Timeout: cfg.Backend.GetTimeoutDuration(),
	}, logger)
	if err != nil {
		logger.Error("Failed to create backend client", slog.String("error", err.Error()))
		os.Exit(1)
	}

	// Startup liveness probe; a dead backend is reported but not fatal
	probeCtx, probeCancel := context.WithTimeout(ctx, 5*time.Second)
	if client.CheckHealth(probeCtx) {
		logger.Info("Backend reachable", slog.String("url", cfg.Backend.BaseURL))
	} else {
		logger.Warn("Backend not reachable, voice turns will fail until it comes up",
			slog.String("url", cfg.Backend.BaseURL),
		)
	}
	probeCancel()

	// Visual driver: terminal build has no orb canvas, levels go nowhere
	vis := visual.Nop{}

	// Microphone capture
	source := &capture.ExecSource{
		Command: cfg.Capture.Command,
		Format:  cfg.Capture.Format,
		Logger:  logger,
	}
	capturer := capture.NewController(source, capture.Config{
		MinDuration: cfg.Capture.GetMinRecordingDuration(),
		MaxDuration: cfg.Capture.GetMaxRecordingDuration(),
		SampleRate:  cfg.Capture.SampleRate,
		Channels:    cfg.Capture.Channels,
		NoiseGate:   cfg.Capture.NoiseGate,
	}, vis, logger)
	defer capturer.Release()

	// Audio normalization before transmission
	transcoder := audio.NewTranscoder(cfg.Capture.TargetSampleRate, logger)

	// Response playback
	sink := &player.ExecSink{Command: cfg.Playback.Command, Logger: logger}
	resplayer := player.NewPlayer(sink, player.Config{
		AnalysisTick: cfg.Playback.GetAnalysisTick(),
	}, vis, logger)

	// Message display
	renderer := presentation.NewANSIRenderer(os.Stdout)
	queue := presentation.NewQueue(presentation.Config{
		CharInterval: cfg.Presentation.GetCharInterval(),
		Fade:         cfg.Presentation.GetFadeDuration(),
		MessagePause: cfg.Presentation.GetMessagePause(),
	}, renderer, logger)
	defer queue.Close()

	status := func(s string) {
		logger.Info("Status", slog.String("status", s))
	}

	// Session orchestration
	controller := session.NewController(
		session.Config{Language: cfg.Backend.Language},
		capturer,
		transcoder,
		client,
		resplayer,
		queue,
		status,
		appMetrics,
		logger,
	)

	// Optional local monitoring endpoint
	var monitorServer *monitor.Server
	if cfg.Monitor.Enabled {
		monitorServer = monitor.NewServer(cfg.Monitor, cfg, controller, client.CheckHealth, logger)
		if err := monitorServer.Start(); err != nil {
			logger.Error("Failed to start monitoring server", slog.String("error", err.Error()))
			os.Exit(1)
		}
	}

	// Setup signal handling for graceful shutdown
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	fmt.Fprintln(os.Stderr, "Enter: grabar/enviar  |  r: reiniciar conversación  |  q: salir")

	inputDone := make(chan struct{})
	go runInputLoop(ctx, controller, logger, inputDone)

	select {
	case sig := <-sigChan:
		logger.Info("Received shutdown signal", slog.String("signal", sig.String()))
	case <-inputDone:
		logger.Info("Input closed, shutting down")
	}

	cancel()

	if monitorServer != nil {
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer shutdownCancel()

		if err := monitorServer.Stop(shutdownCtx); err != nil {
			logger.Error("Error stopping monitoring server", slog.String("error", err.Error()))
		}
	}

	logger.Info("Client stopped",
		slog.Int("turns", len(controller.History())),
	)
}

// runInputLoop drives voice turns from stdin: an empty line toggles
// between recording and processing.
func runInputLoop(ctx context.Context, controller *session.Controller, logger *slog.Logger, done chan<- struct{}) {
	defer close(done)

	scanner := bufio.NewScanner(os.Stdin)
	recording := false

	for scanner.Scan() {
		if ctx.Err() != nil {
			return
		}

		switch strings.TrimSpace(scanner.Text()) {
		case "":
			if !recording {
				if err := controller.Activate(ctx); err != nil {
					logger.Error("Could not start recording", slog.String("error", err.Error()))
					continue
				}
				recording = true
			} else {
				recording = false
				if err := controller.Complete(ctx); err != nil {
					logger.Error("Turn failed", slog.String("error", err.Error()))
				}
			}
		case "r":
			controller.ResetConversation(ctx)
		case "q":
			return
		}
	}
}

// initLogger creates and configures the structured logger based on configuration
func initLogger(cfg config.LoggingConfig) *slog.Logger {
	// Parse log level
	var level slog.Level
	switch cfg.Level {
	case "debug":
		level = slog.LevelDebug
	case "info":
		level = slog.LevelInfo
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		level = slog.LevelInfo // default fallback
	}

	opts := &slog.HandlerOptions{
		Level:     level,
		AddSource: level == slog.LevelDebug,
	}

	// Determine output destination
	var output *os.File
	switch cfg.Output {
	case "stderr", "":
		output = os.Stderr
	case "stdout":
		output = os.Stdout
	default:
		// Assume it's a file path
		file, err := os.OpenFile(cfg.Output, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Failed to open log file %s: %v, falling back to stderr\n", cfg.Output, err)
			output = os.Stderr
		} else {
			output = file
		}
	}

	// Create handler based on format
	var handler slog.Handler
	switch cfg.Format {
	case "json":
		handler = slog.NewJSONHandler(output, opts)
	default:
		handler = slog.NewTextHandler(output, opts)
	}

	return slog.New(handler)
}
