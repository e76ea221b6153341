package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/procli/procli/internal/app"
	"github.com/procli/procli/internal/config"
	"github.com/procli/procli/internal/logger"
	"github.com/procli/procli/internal/metrics"
)

func main() {
	os.Exit(run())
}

func run() int {
	// Parse flags
	interval := flag.Duration("interval", 0, "Sampling interval override, e.g. 500ms or 2s")
	configPath := flag.String("config", "", "Path to a JSON or YAML config file (default: procli.json if present)")
	mockMode := flag.Bool("mock", false, "Run in mock mode with simulated processes")
	logPath := flag.String("log", "", "Log output: a file path, stdout or stderr (default from config)")
	flag.Parse()

	// Load configuration
	var (
		cfg  *config.ProfileConfiguration
		path string
		err  error
	)
	if *configPath != "" {
		path = *configPath
		cfg, err = config.LoadConfig(path)
	} else {
		cfg, path, err = config.LoadDefaultConfig()
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "procli: %v\n", err)
		return 1
	}

	config.ApplyEnvOverrides(cfg)
	if *interval > 0 {
		cfg.RefreshInterval = int(*interval / time.Millisecond)
	}
	if *logPath != "" {
		cfg.Logger.Output = *logPath
	}
	if err := cfg.Validate(); err != nil {
		fmt.Fprintf(os.Stderr, "procli: %v\n", err)
		return 1
	}

	log, closeLog, err := logger.New(cfg.Logger)
	if err != nil {
		fmt.Fprintf(os.Stderr, "procli: %v\n", err)
		return 1
	}
	defer closeLog()

	// Initialize process source
	var source metrics.Source
	if *mockMode {
		log.Info("starting in mock mode")
		source = &metrics.MockSource{}
	} else {
		log.Info("starting in real mode")
		source = metrics.NewRealSource(cfg.EnableGPU, log.With("component", "metrics"))
	}

	dashboard, err := app.New(app.Options{
		Config:     cfg,
		ConfigPath: path,
		Source:     source,
		Logger:     log,
	})
	if err != nil {
		log.Error("startup failed", "err", err)
		if errors.Is(err, metrics.ErrNoCapability) {
			fmt.Fprintf(os.Stderr, "procli: cannot enumerate processes on this system: %v\n", err)
		} else {
			fmt.Fprintf(os.Stderr, "procli: %v\n", err)
		}
		return 1
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := dashboard.Run(ctx); err != nil {
		log.Error("procli exited with error", "err", err)
		fmt.Fprintf(os.Stderr, "Error running procli: %v\n", err)
		return 1
	}
	return 0
}
