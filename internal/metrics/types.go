package metrics

import (
	"errors"
	"time"
)

var (
	// ErrSourceUnavailable reports a transient enumeration failure. The caller
	// keeps its previous state and retries on the next tick.
	ErrSourceUnavailable = errors.New("process source unavailable")

	// ErrNoCapability reports that processes cannot be enumerated at all.
	// It is only returned from Init and is fatal.
	ErrNoCapability = errors.New("process enumeration not supported")
)

// Snapshot is one point-in-time enumeration of all live processes.
// It is never modified after the Source returns it.
type Snapshot struct {
	Taken     time.Time
	Processes []ProcessStat
	Host      HostStats
}

// ProcessStat holds the instantaneous metrics of one process.
type ProcessStat struct {
	PID       int32
	Name      string    // Empty when the name could not be read yet
	CPU       float64   // Percent of one core since the previous sample
	RAM       uint64    // RSS in bytes
	StartTime time.Time // OS create time, zero if unknown
	Partial   bool      // Some metrics could not be read
}

// HostStats summarises the machine the processes run on.
type HostStats struct {
	MemTotal   uint64
	MemUsed    uint64
	MemPercent float64
	LoadAvg    [3]float64 // 1, 5, 15 min load average
	Uptime     uint64     // Uptime in seconds
	GPU        GPUStats
}

// GPUStats holds NVIDIA GPU metrics for the first device.
type GPUStats struct {
	Available   bool
	Name        string
	Utilization uint32 // Percent
	MemoryTotal uint64 // Bytes
	MemoryUsed  uint64 // Bytes
	Temperature uint32 // Celsius
}

// Source defines the interface for enumerating processes.
type Source interface {
	Init() error
	Snapshot() (*Snapshot, error)
	Shutdown()
}
