package metrics

import (
	"fmt"
	"math/rand"
	"time"
)

var mockNames = []string{"chrome", "code", "go", "postgres", "bash", "node", "kworker", "dockerd", "ssh-agent", "firefox"}

type mockProc struct {
	pid     int32
	name    string
	ram     float64
	cpu     float64
	started time.Time
	hidden  int // Ticks left before the name resolves
}

// MockSource simulates a churning process table: processes spawn and exit,
// names resolve a few ticks late and exited PIDs get recycled.
type MockSource struct {
	// Seed makes runs reproducible; zero means time-based.
	Seed int64
	// FailEvery makes every n-th Snapshot fail with ErrSourceUnavailable.
	FailEvery int
	// Now overrides the clock, mainly for tests.
	Now func() time.Time

	rng     *rand.Rand
	procs   []*mockProc
	recycle []int32
	nextPID int32
	calls   int
}

func (m *MockSource) Init() error {
	seed := m.Seed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	m.rng = rand.New(rand.NewSource(seed))
	if m.Now == nil {
		m.Now = time.Now
	}
	m.nextPID = 1000
	m.procs = nil
	for i := 0; i < 24; i++ {
		m.spawn(m.Now(), 0)
	}
	return nil
}

func (m *MockSource) Snapshot() (*Snapshot, error) {
	m.calls++
	if m.FailEvery > 0 && m.calls%m.FailEvery == 0 {
		return nil, fmt.Errorf("%w: simulated permission denied", ErrSourceUnavailable)
	}
	now := m.Now()

	// Exits
	alive := m.procs[:0]
	for _, p := range m.procs {
		if m.rng.Float64() < 0.03 {
			m.recycle = append(m.recycle, p.pid)
			continue
		}
		alive = append(alive, p)
	}
	m.procs = alive

	// Spawns, some still resolving their name
	if m.rng.Float64() < 0.25 {
		m.spawn(now, 1+m.rng.Intn(3))
	}

	snap := &Snapshot{
		Taken:     now,
		Processes: make([]ProcessStat, 0, len(m.procs)),
		Host: HostStats{
			MemTotal: 32 * 1024 * 1024 * 1024,
			LoadAvg:  [3]float64{1.5, 1.2, 0.8},
			Uptime:   86400,
		},
	}
	for _, p := range m.procs {
		p.ram *= 0.95 + m.rng.Float64()*0.1
		p.cpu = m.rng.Float64() * 25
		stat := ProcessStat{
			PID:       p.pid,
			Name:      p.name,
			CPU:       p.cpu,
			RAM:       uint64(p.ram),
			StartTime: p.started,
		}
		if p.hidden > 0 {
			stat.Name = ""
			stat.Partial = true
			p.hidden--
		}
		snap.Host.MemUsed += stat.RAM
		snap.Processes = append(snap.Processes, stat)
	}
	snap.Host.MemPercent = float64(snap.Host.MemUsed) / float64(snap.Host.MemTotal) * 100
	return snap, nil
}

func (m *MockSource) spawn(now time.Time, hidden int) {
	pid := m.nextPID
	if len(m.recycle) > 0 && m.rng.Float64() < 0.5 {
		pid = m.recycle[0]
		m.recycle = m.recycle[1:]
	} else {
		m.nextPID++
	}
	m.procs = append(m.procs, &mockProc{
		pid:     pid,
		name:    mockNames[m.rng.Intn(len(mockNames))],
		ram:     float64(20+m.rng.Intn(800)) * 1024 * 1024,
		started: now,
		hidden:  hidden,
	})
}

func (m *MockSource) Shutdown() {}
