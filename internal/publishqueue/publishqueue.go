// Package publishqueue stages server payloads, optimistic updates, and
// client updaters, then linearizes them into a single commit-and-rebuild
// cycle per Run() — server payloads and plain updaters land permanently
// in the Store's base source, optimistic updates are replayed fresh into
// a regenerated overlay every cycle, and disposing an optimistic update
// is a no-op until the next Run() rebuilds the overlay without it.
package publishqueue

import (
	"fmt"
	"sync"

	"github.com/zugkraft/normcache/internal/handle"
	"github.com/zugkraft/normcache/internal/normalizer"
	"github.com/zugkraft/normcache/internal/obslog"
	"github.com/zugkraft/normcache/internal/proxy"
	"github.com/zugkraft/normcache/internal/record"
	"github.com/zugkraft/normcache/internal/selector"
	"github.com/zugkraft/normcache/internal/store"
	"github.com/zugkraft/normcache/internal/storemetrics"
)

// Updater mutates records through a write proxy. Staged either as a
// permanent client update (CommitUpdate) or an optimistic one
// (ApplyUpdate).
type Updater func(store *proxy.Store)

type payload struct {
	sel      selector.Selector
	response map[string]interface{}
}

type optimisticEntry struct {
	updater Updater
	payload *payload
}

// Option configures a Queue at construction.
type Option func(*Queue)

// WithHandlers registers the Handler dispatch table run against every
// committed server payload's HandleFieldPayloads.
func WithHandlers(h handle.Registry) Option {
	return func(q *Queue) { q.handlers = h }
}

// WithLogger sets the Logger used for commit diagnostics.
func WithLogger(l obslog.Logger) Option {
	return func(q *Queue) { q.logger = l }
}

// WithMetrics attaches Prometheus instrumentation.
func WithMetrics(m *storemetrics.Metrics) Option {
	return func(q *Queue) { q.metrics = m }
}

// Queue is C6's PublishQueue.
type Queue struct {
	mu    sync.Mutex
	store *store.Store

	pendingPayloads []payload
	pendingUpdaters []Updater
	optimistic      []*optimisticEntry
	lastOverlayIDs  []record.DataID

	handlers handle.Registry
	logger   obslog.Logger
	metrics  *storemetrics.Metrics
}

// New builds a Queue committing into s.
func New(s *store.Store, opts ...Option) *Queue {
	q := &Queue{store: s, logger: obslog.Discard()}
	for _, opt := range opts {
		opt(q)
	}
	return q
}

// CommitPayload stages a server response for permanent commit on the next
// Run().
func (q *Queue) CommitPayload(sel selector.Selector, response map[string]interface{}) {
	q.mu.Lock()
	q.pendingPayloads = append(q.pendingPayloads, payload{sel: sel, response: response})
	q.mu.Unlock()
}

// CommitUpdate stages a client updater for permanent commit on the next
// Run().
func (q *Queue) CommitUpdate(updater Updater) {
	q.mu.Lock()
	q.pendingUpdaters = append(q.pendingUpdaters, updater)
	q.mu.Unlock()
}

// ApplyUpdate stages updater as an optimistic update: replayed into a
// fresh overlay every Run() until the returned Disposer's Dispose is
// called, at which point the next Run() rebuilds the overlay without it.
func (q *Queue) ApplyUpdate(updater Updater) store.Disposer {
	entry := &optimisticEntry{updater: updater}
	return q.addOptimistic(entry)
}

// ApplyPayload stages a response payload (typically a mutation's
// optimistic response) as an optimistic update the same way ApplyUpdate
// does.
func (q *Queue) ApplyPayload(sel selector.Selector, response map[string]interface{}) store.Disposer {
	entry := &optimisticEntry{payload: &payload{sel: sel, response: response}}
	return q.addOptimistic(entry)
}

func (q *Queue) addOptimistic(entry *optimisticEntry) store.Disposer {
	q.mu.Lock()
	q.optimistic = append(q.optimistic, entry)
	q.mu.Unlock()

	var disposed bool
	return disposerFunc(func() {
		if disposed {
			return
		}
		disposed = true
		q.mu.Lock()
		for i, e := range q.optimistic {
			if e == entry {
				q.optimistic = append(q.optimistic[:i], q.optimistic[i+1:]...)
				break
			}
		}
		q.mu.Unlock()
	})
}

type disposerFunc func()

func (f disposerFunc) Dispose() { f() }

// Run commits every staged server payload and client updater into the
// Store's base source, runs registered Handlers against the committed
// payloads, rebuilds the optimistic overlay by replaying every
// still-active optimistic update in the order it was applied, installs it
// as the Store's current read source, and notifies subscriptions of
// everything touched. Returns the union of ids changed by the commit and
// by the optimistic rebuild (ids written by the previous overlay or by
// the new one).
func (q *Queue) Run() (map[record.DataID]struct{}, error) {
	q.mu.Lock()
	pendingPayloads := q.pendingPayloads
	pendingUpdaters := q.pendingUpdaters
	q.pendingPayloads = nil
	q.pendingUpdaters = nil
	active := append([]*optimisticEntry(nil), q.optimistic...)
	q.mu.Unlock()

	base := q.store.Base()
	registry := q.store.Registry()
	updated := make(map[record.DataID]struct{})
	var firstErr error

	for _, p := range pendingPayloads {
		changed, err := q.commitPayload(base, registry, p)
		if err != nil {
			q.logger.Error(err, "dropping server payload after shape error")
			if q.metrics != nil {
				q.metrics.Conflicts.Inc()
			}
			if firstErr == nil {
				firstErr = err
			}
			continue
		}
		for id := range changed {
			updated[id] = struct{}{}
		}
	}

	for _, updater := range pendingUpdaters {
		p := proxy.NewStore(base)
		updater(p)
		changed := record.MergeInto(base, p.Overlay().Overlay)
		for id := range changed {
			updated[id] = struct{}{}
		}
	}

	overlay := record.NewOverlaySource(base)
	for _, entry := range active {
		if entry.updater != nil {
			entry.updater(proxy.NewStoreOverlay(overlay))
			continue
		}
		staged := record.NewOverlaySource(overlay)
		if _, err := normalizer.Normalize(staged.AsMutable(), entry.payload.response, entry.payload.sel, registry); err != nil {
			q.logger.Error(err, "dropping optimistic payload after shape error")
			if q.metrics != nil {
				q.metrics.Conflicts.Inc()
			}
			if firstErr == nil {
				firstErr = err
			}
			continue
		}
		record.MergeInto(overlay.AsMutable(), staged.Overlay)
	}
	overlayIDs := overlay.Overlay.GetRecordIDs()
	for _, id := range overlayIDs {
		updated[id] = struct{}{}
	}
	q.mu.Lock()
	for _, id := range q.lastOverlayIDs {
		updated[id] = struct{}{}
	}
	q.lastOverlayIDs = overlayIDs
	q.mu.Unlock()

	q.store.SetCurrentSource(overlay)
	if q.metrics != nil {
		q.metrics.OptimisticRebase.Inc()
	}
	q.store.Notify(updated)

	if firstErr != nil {
		return updated, fmt.Errorf("publishqueue: %w", firstErr)
	}
	return updated, nil
}

func (q *Queue) commitPayload(base record.MutableSource, registry selector.Registry, p payload) (map[record.DataID]struct{}, error) {
	tmp := record.NewInMemorySource()
	payloads, err := normalizer.Normalize(tmp, p.response, p.sel, registry)
	if err != nil {
		return nil, err
	}
	changed := record.MergeInto(base, tmp)

	if len(payloads) > 0 && q.handlers != nil {
		hp := proxy.NewStore(base)
		q.handlers.Dispatch(hp.AsHandleProxy(), payloads)
		handlerChanged := record.MergeInto(base, hp.Overlay().Overlay)
		for id := range handlerChanged {
			changed[id] = struct{}{}
		}
	}
	return changed, nil
}
