// Package history keeps the rolling per-process metric history that the
// dashboard draws from.
//
// The Store has exactly one writer (Ingest, driven by the sampler) and any
// number of readers. Every ingest builds a fresh immutable View and publishes
// it with a single atomic pointer swap, so readers never block and never see
// a half-applied snapshot.
package history

import (
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"github.com/oklog/ulid/v2"

	"github.com/procli/procli/internal/metrics"
)

// IdentityConflictError reports two entries for the same PID in one snapshot.
// The first entry wins.
type IdentityConflictError struct {
	PID  int32
	Name string
}

func (e *IdentityConflictError) Error() string {
	return fmt.Sprintf("duplicate snapshot entry for pid %d (%q) discarded", e.PID, e.Name)
}

// Counts summarises a View.
type Counts struct {
	Active int
	Exited int
	Stubs  int
}

// View is an immutable, ordered picture of the store after one ingest.
type View struct {
	Taken   time.Time
	Seq     uint64
	Records []Record
	Host    metrics.HostStats
	Counts  Counts
}

// Index returns the position of k in Records, or -1.
func (v *View) Index(k Key) int {
	if v == nil {
		return -1
	}
	for i := range v.Records {
		if v.Records[i].Key.Equal(k) {
			return i
		}
	}
	return -1
}

// Equal compares keys without relying on time.Time's == semantics.
func (k Key) Equal(o Key) bool {
	return k.PID == o.PID && k.FirstSeen.Equal(o.FirstSeen)
}

type Options struct {
	Capacity int           // Samples kept per record
	Grace    time.Duration // How long exited records stay visible
	Logger   *slog.Logger
}

type Store struct {
	capacity int
	logger   *slog.Logger

	grace  atomic.Int64
	pinned atomic.Pointer[Key]
	view   atomic.Pointer[View]

	// Writer state, serialised by mu. Readers never touch it.
	mu     sync.Mutex
	active map[int32]*entry
	exited map[Key]*entry
	seq    uint64
	taken  time.Time
	host   metrics.HostStats
}

func NewStore(opts Options) *Store {
	if opts.Capacity < 1 {
		opts.Capacity = 1
	}
	s := &Store{
		capacity: opts.Capacity,
		logger:   opts.Logger,
		active:   make(map[int32]*entry),
		exited:   make(map[Key]*entry),
	}
	if s.logger == nil {
		s.logger = slog.Default()
	}
	s.grace.Store(int64(opts.Grace))
	s.view.Store(&View{})
	return s
}

// View returns the latest published view. It never returns nil.
func (s *Store) View() *View { return s.view.Load() }

// Records returns the ordered records of the latest view.
func (s *Store) Records() []Record { return s.View().Records }

func (s *Store) Capacity() int { return s.capacity }

func (s *Store) Grace() time.Duration { return time.Duration(s.grace.Load()) }

func (s *Store) SetGrace(d time.Duration) { s.grace.Store(int64(d)) }

// Pin protects k from purging while it is the spotlight target.
func (s *Store) Pin(k Key) { s.pinned.Store(&k) }

func (s *Store) Unpin() { s.pinned.Store(nil) }

func (s *Store) Pinned() (Key, bool) {
	if k := s.pinned.Load(); k != nil {
		return *k, true
	}
	return Key{}, false
}

// Ingest folds snap into the history and publishes a new view. It is the
// only operation that changes records. Duplicate PIDs in snap are dropped,
// logged and returned as joined *IdentityConflictError values; the rest of
// the snapshot is still applied.
func (s *Store) Ingest(snap *metrics.Snapshot) error {
	if snap == nil {
		return nil
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	now := snap.Taken
	var conflicts []error
	seen := make(map[int32]bool, len(snap.Processes))

	for _, p := range snap.Processes {
		if seen[p.PID] {
			err := &IdentityConflictError{PID: p.PID, Name: p.Name}
			s.logger.Warn("identity conflict", "pid", p.PID, "err", err)
			conflicts = append(conflicts, err)
			continue
		}
		seen[p.PID] = true

		e, ok := s.active[p.PID]
		if ok && recycled(e, p) {
			s.logger.Debug("pid recycled", "pid", p.PID, "previous", e.name)
			s.exit(e, now)
			ok = false
		}
		if !ok {
			e = s.newEntry(p, now)
			s.active[p.PID] = e
		}
		update(e, p, now)
	}

	for pid, e := range s.active {
		if !seen[pid] {
			s.exit(e, now)
		}
	}

	s.taken = now
	s.host = snap.Host
	s.purge(now)
	s.publish()

	return errors.Join(conflicts...)
}

// PurgeExpired drops exited records whose grace period ended before now,
// except the pinned spotlight target. It returns the number removed.
func (s *Store) PurgeExpired(now time.Time) int {
	s.mu.Lock()
	defer s.mu.Unlock()

	n := s.purge(now)
	if n > 0 {
		s.publish()
	}
	return n
}

func (s *Store) purge(now time.Time) int {
	grace := s.Grace()
	pinned, hasPin := s.Pinned()

	n := 0
	for k, e := range s.exited {
		if hasPin && k.Equal(pinned) {
			continue
		}
		if e.exitedAt.Add(grace).Before(now) {
			delete(s.exited, k)
			n++
		}
	}
	return n
}

func (s *Store) newEntry(p metrics.ProcessStat, now time.Time) *entry {
	token, err := ulid.New(ulid.Timestamp(now), ulid.DefaultEntropy())
	if err != nil {
		// Only fails for timestamps outside the ULID range.
		token = ulid.ULID{}
	}
	return &entry{
		key:       Key{PID: p.PID, FirstSeen: now},
		token:     token,
		stub:      true,
		status:    Active,
		startTime: p.StartTime,
		samples:   NewRing[Sample](s.capacity),
	}
}

func (s *Store) exit(e *entry, now time.Time) {
	e.status = Exited
	e.exitedAt = now
	delete(s.active, e.key.PID)
	s.exited[e.key] = e
}

// publish builds and swaps in a new View. Callers hold mu.
func (s *Store) publish() {
	records := make([]Record, 0, len(s.active)+len(s.exited))
	var counts Counts
	for _, e := range s.active {
		records = append(records, e.record(s.taken))
		counts.Active++
		if e.stub {
			counts.Stubs++
		}
	}
	for _, e := range s.exited {
		records = append(records, e.record(s.taken))
		counts.Exited++
	}
	sortRecords(records)

	s.seq++
	s.view.Store(&View{
		Taken:   s.taken,
		Seq:     s.seq,
		Records: records,
		Host:    s.host,
		Counts:  counts,
	})
}

// sortRecords orders by current RAM descending, then PID, then first sight.
func sortRecords(records []Record) {
	sort.Slice(records, func(i, j int) bool {
		ri, rj := records[i].Current().RAM, records[j].Current().RAM
		if ri != rj {
			return ri > rj
		}
		if records[i].Key.PID != records[j].Key.PID {
			return records[i].Key.PID < records[j].Key.PID
		}
		return records[i].Key.FirstSeen.Before(records[j].Key.FirstSeen)
	})
}

func recycled(e *entry, p metrics.ProcessStat) bool {
	return !e.startTime.IsZero() && !p.StartTime.IsZero() && !e.startTime.Equal(p.StartTime)
}

func update(e *entry, p metrics.ProcessStat, now time.Time) {
	if p.Name != "" {
		e.name = p.Name
	}
	// Once resolved, a record stays resolved unless it never had a name.
	e.stub = e.name == "" || (e.stub && p.Partial)
	if e.startTime.IsZero() {
		e.startTime = p.StartTime
	}
	e.lastSeen = now

	cpu := p.CPU
	if cpu < 0 {
		cpu = 0
	}
	e.push(Sample{At: now, CPU: cpu, RAM: p.RAM})
}
