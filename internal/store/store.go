// Package store implements the Store that owns the committed
// RecordSource, serves reads, tracks subscriptions and retainers, and
// drives asynchronous, coalesced garbage collection. A background loop
// sweeps on a fixed tick or an out-of-band trigger channel, so a disposed
// retainer can request an earlier sweep instead of waiting for the next
// tick.
package store

import (
	"sync"
	"time"

	"github.com/google/go-cmp/cmp"

	"github.com/zugkraft/normcache/internal/datachecker"
	"github.com/zugkraft/normcache/internal/obslog"
	"github.com/zugkraft/normcache/internal/reader"
	"github.com/zugkraft/normcache/internal/record"
	"github.com/zugkraft/normcache/internal/selector"
	"github.com/zugkraft/normcache/internal/storemetrics"
)

const defaultGCInterval = 30 * time.Second

// Disposer reverses whatever its producing call staged (a retainer or a
// subscription). Dispose is idempotent.
type Disposer interface {
	Dispose()
}

type disposerFunc func()

func (f disposerFunc) Dispose() { f() }

type subscription struct {
	snap     *reader.Snapshot
	callback func(*reader.Snapshot)
}

// Option configures a Store at construction.
type Option func(*Store)

// WithFastNotify trades notify-time precision for speed: when true, any
// subscription whose SeenRecords intersects the updated id set is treated
// as changed without running the full go-cmp diff against its previous
// Data tree, so its callback may fire with unchanged data. Default false:
// a callback fires only when the re-read data actually differs, at the
// cost of the diff.
func WithFastNotify(b bool) Option {
	return func(s *Store) { s.fastNotify = b }
}

// WithLogger sets the Logger used for GC and notify diagnostics.
func WithLogger(l obslog.Logger) Option {
	return func(s *Store) { s.logger = l }
}

// WithMetrics attaches Prometheus instrumentation.
func WithMetrics(m *storemetrics.Metrics) Option {
	return func(s *Store) { s.metrics = m }
}

// WithRegistry sets the fragment registry used to resolve FragmentSpread
// nodes in every Lookup/Check this Store serves.
func WithRegistry(r selector.Registry) Option {
	return func(s *Store) { s.registry = r }
}

// WithGCInterval overrides the default 30s GC tick.
func WithGCInterval(d time.Duration) Option {
	return func(s *Store) { s.gcInterval = d }
}

// WithName sets the label this Store reports under on its CacheHits
// metric. Defaults to "".
func WithName(name string) Option {
	return func(s *Store) { s.name = name }
}

// Store is retain/subscribe/notify/GC layered over a committed
// RecordSource, plus the "current" readable source PublishQueue swaps in
// an optimistic overlay for between commits.
type Store struct {
	mu      sync.Mutex
	base    record.MutableSource
	current record.Source

	name     string
	registry selector.Registry
	subs     map[int]*subscription
	nextSub  int

	retainers  map[int]selector.Selector
	nextRetain int

	fastNotify bool
	logger     obslog.Logger
	metrics    *storemetrics.Metrics

	gcInterval time.Duration
	gcTrigger  chan struct{}
	closeCh    chan struct{}
	closeOnce  sync.Once
}

// New builds a Store over base, starting its background GC loop
// immediately.
func New(base record.MutableSource, opts ...Option) *Store {
	s := &Store{
		base:       base,
		current:    base,
		subs:       make(map[int]*subscription),
		retainers:  make(map[int]selector.Selector),
		logger:     obslog.Discard(),
		gcInterval: defaultGCInterval,
		gcTrigger:  make(chan struct{}, 1),
		closeCh:    make(chan struct{}),
	}
	for _, opt := range opts {
		opt(s)
	}
	go s.gcLoop()
	return s
}

// Close stops the GC loop. Idempotent.
func (s *Store) Close() {
	s.closeOnce.Do(func() { close(s.closeCh) })
}

// Base returns the committed MutableSource, the only source PublishQueue
// is allowed to write through.
func (s *Store) Base() record.MutableSource {
	return s.base
}

// Registry returns the fragment registry this Store resolves reads
// against.
func (s *Store) Registry() selector.Registry {
	return s.registry
}

// SetCurrentSource swaps the source Lookup/Check/Notify read from. Called
// by PublishQueue after every Run() to point reads at the freshly rebuilt
// optimistic overlay (or back at Base() when no optimistic update is
// active).
func (s *Store) SetCurrentSource(src record.Source) {
	s.mu.Lock()
	s.current = src
	s.mu.Unlock()
}

func (s *Store) currentSource() record.Source {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.current
}

func (s *Store) currentMutable() record.MutableSource {
	switch src := s.currentSource().(type) {
	case record.MutableSource:
		return src
	case *record.OverlaySource:
		return src.AsMutable()
	default:
		return s.base
	}
}

// Publish field-wise merges src into the committed base, returning the
// ids whose final value differs from what was there before.
func (s *Store) Publish(src record.Source) map[record.DataID]struct{} {
	s.mu.Lock()
	changed := record.MergeInto(s.base, src)
	s.mu.Unlock()
	return changed
}

// Lookup reads sel against the current source.
func (s *Store) Lookup(sel selector.Selector) (*reader.Snapshot, error) {
	start := time.Now()
	snap, err := reader.Read(s.currentSource(), sel, s.registry)
	if s.metrics != nil {
		s.metrics.ReadLatency.Observe(time.Since(start).Seconds())
		if err == nil {
			outcome := "hit"
			if snap.IsMissingData {
				outcome = "miss"
			}
			s.metrics.CacheHits.WithLabelValues(s.name, outcome).Inc()
		}
	}
	return snap, err
}

// Check reports whether sel is fully covered by the current source,
// consulting handlers for anything missing and patching their substitutes
// into the current source's write surface.
func (s *Store) Check(sel selector.Selector, handlers datachecker.Handlers) bool {
	return datachecker.Check(s.currentMutable(), sel, s.registry, handlers)
}

// Subscribe registers callback to be invoked with a freshly read Snapshot
// whenever a Notify call's updated ids intersect snap.SeenRecords and the
// re-read data actually differs. Returns a Disposer that unregisters it.
func (s *Store) Subscribe(snap *reader.Snapshot, callback func(*reader.Snapshot)) Disposer {
	s.mu.Lock()
	id := s.nextSub
	s.nextSub++
	s.subs[id] = &subscription{snap: snap, callback: callback}
	s.mu.Unlock()
	return disposerFunc(func() {
		s.mu.Lock()
		delete(s.subs, id)
		s.mu.Unlock()
	})
}

// Notify re-reads every subscription whose last-seen records intersect
// updatedIDs, invoking its callback when the result changed. Called by
// PublishQueue once per Run(), after committing server payloads and
// rebuilding the optimistic overlay, with the union of both steps'
// changed ids.
func (s *Store) Notify(updatedIDs map[record.DataID]struct{}) {
	if len(updatedIDs) == 0 {
		return
	}
	start := time.Now()
	s.mu.Lock()
	src := s.current
	subs := make([]*subscription, 0, len(s.subs))
	for _, sub := range s.subs {
		subs = append(subs, sub)
	}
	s.mu.Unlock()

	for _, sub := range subs {
		if !sub.snap.Intersects(updatedIDs) {
			continue
		}
		newSnap, err := reader.Read(src, sub.snap.Selector, s.registry)
		if err != nil {
			s.logger.Error(err, "notify re-read failed")
			continue
		}
		changed := s.fastNotify || !cmp.Equal(sub.snap.Data, newSnap.Data) || sub.snap.IsMissingData != newSnap.IsMissingData
		sub.snap = newSnap
		if changed {
			sub.callback(newSnap)
		}
	}
	if s.metrics != nil {
		s.metrics.NotifyLatency.Observe(time.Since(start).Seconds())
	}
}

// Retain keeps snap.Selector alive as a GC root until the returned
// Disposer's Dispose is called: every GC pass re-reads the selector
// against the current base and protects whatever it visits, so records
// linked into the selector's reachable subtree after Retain was called
// are protected too, not just the ids snap.SeenRecords happened to
// contain at the moment of the call.
func (s *Store) Retain(snap *reader.Snapshot) Disposer {
	s.mu.Lock()
	id := s.nextRetain
	s.nextRetain++
	s.retainers[id] = snap.Selector
	s.mu.Unlock()

	var disposed bool
	return disposerFunc(func() {
		if disposed {
			return
		}
		disposed = true
		s.mu.Lock()
		delete(s.retainers, id)
		s.mu.Unlock()
		s.TriggerGC()
	})
}

// TriggerGC requests an earlier-than-scheduled GC pass. Multiple requests
// before the pending one runs are coalesced into a single sweep.
func (s *Store) TriggerGC() {
	select {
	case s.gcTrigger <- struct{}{}:
	default:
	}
}

func (s *Store) gcLoop() {
	ticker := time.NewTicker(s.gcInterval)
	defer ticker.Stop()
	for {
		select {
		case <-s.closeCh:
			return
		case <-ticker.C:
			s.runGC()
		case <-s.gcTrigger:
			s.runGC()
		}
	}
}

func (s *Store) runGC() {
	start := time.Now()
	s.mu.Lock()
	reachable := make(map[record.DataID]struct{})
	reachable[record.RootID] = struct{}{}
	for _, sel := range s.retainers {
		snap, err := reader.Read(s.base, sel, s.registry)
		if err != nil {
			s.logger.Error(err, "gc: retained selector re-read failed")
			continue
		}
		for id := range snap.SeenRecords {
			reachable[id] = struct{}{}
		}
	}
	ids := s.base.GetRecordIDs()
	var removed int
	for _, id := range ids {
		if id == record.RootID {
			continue
		}
		if _, ok := reachable[id]; ok {
			continue
		}
		s.base.Remove(id)
		removed++
	}
	s.mu.Unlock()

	if s.metrics != nil {
		s.metrics.GCLatency.Observe(time.Since(start).Seconds())
		s.metrics.RecordsGCed.Add(float64(removed))
	}
	if removed > 0 {
		s.logger.Info("gc reclaimed records", "count", removed)
	}
}
