package history

import (
	"fmt"
	"time"

	"github.com/oklog/ulid/v2"
)

// Status is the lifecycle state of a Record.
type Status int

const (
	Active Status = iota
	Exited
)

func (s Status) String() string {
	switch s {
	case Active:
		return "active"
	case Exited:
		return "exited"
	default:
		return fmt.Sprintf("Status(%d)", int(s))
	}
}

// Key identifies one process instance. The OS recycles PIDs, so the first
// time procli saw the process is part of the identity.
type Key struct {
	PID       int32
	FirstSeen time.Time
}

func (k Key) String() string {
	return fmt.Sprintf("%d@%d", k.PID, k.FirstSeen.UnixNano())
}

// Sample is one measurement of a process.
type Sample struct {
	At  time.Time
	CPU float64
	RAM uint64
}

// Record is the published, read-only view of one process instance.
// Samples is a private copy ordered oldest first.
type Record struct {
	Key       Key
	Token     ulid.ULID
	Name      string
	Stub      bool
	Status    Status
	StartTime time.Time
	LastSeen  time.Time
	ExitedAt  time.Time
	Uptime    time.Duration
	Samples   []Sample
	Peak      Sample // Max CPU and max RAM seen, At is the latest peak update
}

// DisplayName falls back to a placeholder while the name is unresolved.
func (r *Record) DisplayName() string {
	if r.Name == "" {
		return fmt.Sprintf("pid %d", r.Key.PID)
	}
	return r.Name
}

// Current is the newest sample, or the zero Sample.
func (r *Record) Current() Sample {
	if len(r.Samples) == 0 {
		return Sample{}
	}
	return r.Samples[len(r.Samples)-1]
}

// RAMSeries returns the RAM values of Samples as floats for charting.
func (r *Record) RAMSeries() ([]float64, []time.Time) {
	values := make([]float64, len(r.Samples))
	times := make([]time.Time, len(r.Samples))
	for i, s := range r.Samples {
		values[i] = float64(s.RAM)
		times[i] = s.At
	}
	return values, times
}

// CPUSeries returns the CPU values of Samples.
func (r *Record) CPUSeries() []float64 {
	values := make([]float64, len(r.Samples))
	for i, s := range r.Samples {
		values[i] = s.CPU
	}
	return values
}

// entry is the store-private mutable state behind a Record.
type entry struct {
	key       Key
	token     ulid.ULID
	name      string
	stub      bool
	status    Status
	startTime time.Time
	lastSeen  time.Time
	exitedAt  time.Time
	samples   *Ring[Sample]
	peak      Sample
}

func (e *entry) push(s Sample) {
	e.samples.Push(s)
	if s.CPU > e.peak.CPU {
		e.peak.CPU = s.CPU
		e.peak.At = s.At
	}
	if s.RAM > e.peak.RAM {
		e.peak.RAM = s.RAM
		e.peak.At = s.At
	}
}

func (e *entry) uptime(now time.Time) time.Duration {
	end := now
	if e.status == Exited {
		end = e.lastSeen
	}
	if end.Before(e.key.FirstSeen) {
		return 0
	}
	return end.Sub(e.key.FirstSeen)
}

func (e *entry) record(now time.Time) Record {
	return Record{
		Key:       e.key,
		Token:     e.token,
		Name:      e.name,
		Stub:      e.stub,
		Status:    e.status,
		StartTime: e.startTime,
		LastSeen:  e.lastSeen,
		ExitedAt:  e.exitedAt,
		Uptime:    e.uptime(now),
		Samples:   e.samples.Values(),
		Peak:      e.peak,
	}
}
