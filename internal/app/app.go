// Package app wires the sampler, the history store and the terminal UI
// into one explicitly owned dashboard instance.
package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"golang.org/x/sync/errgroup"

	"github.com/procli/procli/internal/config"
	"github.com/procli/procli/internal/history"
	"github.com/procli/procli/internal/metrics"
	"github.com/procli/procli/internal/sampler"
	"github.com/procli/procli/internal/ui"
)

// cleanupInterval paces the purge pass that runs independently of ingest,
// so exited records still expire while sampling is stalled.
const cleanupInterval = time.Second

type Options struct {
	Config     *config.ProfileConfiguration
	ConfigPath string // Watched for changes when set
	Source     metrics.Source
	Logger     *slog.Logger

	// ProgramOptions are appended to the defaults (alt screen, context).
	ProgramOptions []tea.ProgramOption
}

// App owns both timelines: the sampler goroutine and the bubbletea program.
type App struct {
	cfg        *config.ProfileConfiguration
	configPath string
	source     metrics.Source
	store      *history.Store
	loop       *sampler.Loop
	logger     *slog.Logger
	progOpts   []tea.ProgramOption
}

// New initializes the source. A source without enumeration capability is
// the one fatal startup condition.
func New(opts Options) (*App, error) {
	if opts.Source == nil {
		return nil, errors.New("app: no process source")
	}
	cfg := opts.Config
	if cfg == nil {
		cfg = config.DefaultConfig()
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}

	if err := opts.Source.Init(); err != nil {
		return nil, fmt.Errorf("initialize process source: %w", err)
	}

	store := history.NewStore(history.Options{
		Capacity: cfg.HistoryLength,
		Grace:    cfg.Grace(),
		Logger:   logger.With("component", "history"),
	})
	loop := sampler.New(opts.Source, store, cfg.Interval(), logger.With("component", "sampler"))

	return &App{
		cfg:        cfg,
		configPath: opts.ConfigPath,
		source:     opts.Source,
		store:      store,
		loop:       loop,
		logger:     logger,
		progOpts:   opts.ProgramOptions,
	}, nil
}

func (a *App) Store() *history.Store { return a.store }

func (a *App) Loop() *sampler.Loop { return a.loop }

// Run blocks until the UI quits or ctx is cancelled. Quitting the UI
// cancels the sampler, which stops at its next cycle boundary.
func (a *App) Run(ctx context.Context) error {
	defer a.source.Shutdown()

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	g, gctx := errgroup.WithContext(ctx)

	model := ui.NewRootModel(a.store, a.loop, a.cfg, a.logger.With("component", "ui"))
	opts := append([]tea.ProgramOption{tea.WithAltScreen(), tea.WithContext(gctx)}, a.progOpts...)
	program := tea.NewProgram(model, opts...)

	g.Go(func() error {
		return a.loop.Run(gctx)
	})

	g.Go(func() error {
		a.cleanupLoop(gctx)
		return nil
	})

	if a.configPath != "" {
		g.Go(func() error {
			err := config.Watch(gctx, a.configPath, a.logger.With("component", "config"), func(cfg *config.ProfileConfiguration) {
				program.Send(ui.ConfigMsg{Config: cfg})
			})
			if err != nil {
				// Hot reload is optional; the dashboard keeps running without it.
				a.logger.Warn("config watch disabled", "err", err)
			}
			return nil
		})
	}

	g.Go(func() error {
		defer cancel()
		_, err := program.Run()
		if errors.Is(err, tea.ErrProgramKilled) && ctx.Err() != nil {
			return nil
		}
		if err != nil {
			return fmt.Errorf("run terminal program: %w", err)
		}
		return nil
	})

	err := g.Wait()
	st := a.loop.Status()
	a.logger.Info("procli stopped", "cycles", st.Cycles, "failures", st.Failures)
	return err
}

// cleanupLoop purges expired records between ingests.
func (a *App) cleanupLoop(ctx context.Context) {
	ticker := time.NewTicker(cleanupInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case now := <-ticker.C:
			if n := a.store.PurgeExpired(now); n > 0 {
				a.logger.Debug("purged exited records", "count", n)
			}
		}
	}
}
