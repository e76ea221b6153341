// Package sampler drives the process source on a fixed cadence and feeds
// every snapshot into the history store.
package sampler

import (
	"context"
	"fmt"
	"log/slog"
	"sync/atomic"
	"time"

	"golang.org/x/time/rate"

	"github.com/procli/procli/internal/metrics"
)

// State is the loop's position within one cycle.
type State int32

const (
	Idle State = iota
	Sampling
	Publishing
)

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case Sampling:
		return "sampling"
	case Publishing:
		return "publishing"
	default:
		return fmt.Sprintf("State(%d)", int32(s))
	}
}

// Ingester receives snapshots. *history.Store implements it.
type Ingester interface {
	Ingest(snap *metrics.Snapshot) error
}

// Status is a point-in-time copy of the loop's counters.
type Status struct {
	State        State
	Stalled      bool
	LastErr      error
	Cycles       uint64 // Successful cycles
	Failures     uint64
	LastDuration time.Duration
	LastSuccess  time.Time
}

type Loop struct {
	source   metrics.Source
	store    Ingester
	interval time.Duration
	logger   *slog.Logger
	stallLog rate.Sometimes

	state    atomic.Int32
	stalled  atomic.Bool
	lastErr  atomic.Pointer[error]
	cycles   atomic.Uint64
	failures atomic.Uint64
	lastDur  atomic.Int64
	lastOK   atomic.Int64
}

func New(source metrics.Source, store Ingester, interval time.Duration, logger *slog.Logger) *Loop {
	if interval <= 0 {
		interval = time.Second
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Loop{
		source:   source,
		store:    store,
		interval: interval,
		logger:   logger,
		stallLog: rate.Sometimes{Interval: 10 * time.Second},
	}
}

func (l *Loop) Interval() time.Duration { return l.interval }

// Run samples once immediately and then on every tick until ctx is done.
// Cancellation is only observed between cycles, never during one.
// Source failures never end the loop.
func (l *Loop) Run(ctx context.Context) error {
	ticker := time.NewTicker(l.interval)
	defer ticker.Stop()

	l.logger.Info("sampler started", "interval", l.interval)
	defer l.logger.Info("sampler stopped", "cycles", l.cycles.Load(), "failures", l.failures.Load())

	for {
		if ctx.Err() != nil {
			return nil
		}
		_ = l.Cycle()

		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
		}
	}
}

// Cycle runs one Idle → Sampling → Publishing → Idle pass. A failed
// snapshot leaves the store untouched and marks the loop stalled until the
// next successful cycle.
func (l *Loop) Cycle() error {
	start := time.Now()
	l.state.Store(int32(Sampling))
	defer l.state.Store(int32(Idle))

	snap, err := l.source.Snapshot()
	if err == nil && snap == nil {
		err = fmt.Errorf("%w: empty snapshot", metrics.ErrSourceUnavailable)
	}
	if err != nil {
		l.stalled.Store(true)
		l.lastErr.Store(&err)
		n := l.failures.Add(1)
		l.stallLog.Do(func() {
			l.logger.Warn("sampling stalled", "err", err, "failures", n)
		})
		return err
	}

	l.state.Store(int32(Publishing))
	// Identity conflicts are logged by the store and never fail a cycle.
	_ = l.store.Ingest(snap)

	if l.stalled.Swap(false) {
		l.logger.Info("sampling recovered", "failures", l.failures.Load())
	}
	l.cycles.Add(1)
	l.lastDur.Store(int64(time.Since(start)))
	l.lastOK.Store(snap.Taken.UnixNano())
	return nil
}

func (l *Loop) Stalled() bool { return l.stalled.Load() }

func (l *Loop) Status() Status {
	st := Status{
		State:        State(l.state.Load()),
		Stalled:      l.stalled.Load(),
		Cycles:       l.cycles.Load(),
		Failures:     l.failures.Load(),
		LastDuration: time.Duration(l.lastDur.Load()),
	}
	if p := l.lastErr.Load(); p != nil {
		st.LastErr = *p
	}
	if ns := l.lastOK.Load(); ns != 0 {
		st.LastSuccess = time.Unix(0, ns)
	}
	return st
}
