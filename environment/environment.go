// Package environment ties the PublishQueue, the Store, the write proxy
// (reached only through PublishQueue), and the network boundary
// (internal/network) into a single per-process unit: the Store is
// instance-scoped, never a process-wide singleton. An Environment owns
// exactly one Store, one PublishQueue, and one network handle; multiple
// Environments may coexist, one per CacheEnvironment custom resource the
// controller reconciles.
package environment

import (
	"context"
	"time"

	"github.com/zugkraft/normcache/internal/datachecker"
	"github.com/zugkraft/normcache/internal/handle"
	"github.com/zugkraft/normcache/internal/network"
	"github.com/zugkraft/normcache/internal/obslog"
	"github.com/zugkraft/normcache/internal/publishqueue"
	"github.com/zugkraft/normcache/internal/reader"
	"github.com/zugkraft/normcache/internal/record"
	"github.com/zugkraft/normcache/internal/selector"
	"github.com/zugkraft/normcache/internal/store"
	"github.com/zugkraft/normcache/internal/storemetrics"
)

// Loader is satisfied by internal/recordstore/{redis,cassandra}.Store:
// anything that can warm-load a persisted snapshot into a MutableSource.
type Loader interface {
	LoadInto(ctx context.Context, dst record.MutableSource) error
}

// Option configures an Environment at construction.
type Option func(*config)

type config struct {
	logger          obslog.Logger
	metrics         *storemetrics.Metrics
	registry        selector.Registry
	handlers        handle.Registry
	fastNotify      bool
	gcInterval      time.Duration
	loader          Loader
	missingHandlers datachecker.Handlers
}

// WithLogger sets the Logger threaded through the Store and PublishQueue.
func WithLogger(l obslog.Logger) Option { return func(c *config) { c.logger = l } }

// WithMetrics attaches Prometheus instrumentation to the Store and
// PublishQueue.
func WithMetrics(m *storemetrics.Metrics) Option { return func(c *config) { c.metrics = m } }

// WithRegistry sets the fragment registry selectors resolve against.
func WithRegistry(r selector.Registry) Option { return func(c *config) { c.registry = r } }

// WithHandlers registers the handle-field dispatch table.
func WithHandlers(h handle.Registry) Option { return func(c *config) { c.handlers = h } }

// WithFastNotify enables the notify() short-circuit (see internal/store).
func WithFastNotify(b bool) Option { return func(c *config) { c.fastNotify = b } }

// WithGCInterval overrides the default GC tick.
func WithGCInterval(d time.Duration) Option { return func(c *config) { c.gcInterval = d } }

// WithWarmLoad primes the base source from loader before the Environment
// starts serving reads.
func WithWarmLoad(loader Loader) Option { return func(c *config) { c.loader = loader } }

// WithMissingFieldHandlers registers the Handlers set Check consults to
// substitute values for fields the current source is missing.
func WithMissingFieldHandlers(h datachecker.Handlers) Option {
	return func(c *config) { c.missingHandlers = h }
}

// Environment is the per-process unit: one Store, one PublishQueue, one
// network Fetcher.
type Environment struct {
	Name    string
	Store   *store.Store
	Queue   *publishqueue.Queue
	Fetcher network.Fetcher

	logger          obslog.Logger
	missingHandlers datachecker.Handlers
}

// New builds an Environment named name, fetching mutations through
// fetcher. If a WithWarmLoad option was given, the base source is primed
// from it before New returns.
func New(ctx context.Context, name string, fetcher network.Fetcher, opts ...Option) (*Environment, error) {
	c := &config{logger: obslog.Discard()}
	for _, opt := range opts {
		opt(c)
	}

	base := record.NewInMemorySource()
	if c.loader != nil {
		if err := c.loader.LoadInto(ctx, base); err != nil {
			return nil, err
		}
	}

	storeOpts := []store.Option{store.WithLogger(c.logger.WithName("store")), store.WithName(name)}
	if c.metrics != nil {
		storeOpts = append(storeOpts, store.WithMetrics(c.metrics))
	}
	if c.registry != nil {
		storeOpts = append(storeOpts, store.WithRegistry(c.registry))
	}
	if c.fastNotify {
		storeOpts = append(storeOpts, store.WithFastNotify(true))
	}
	if c.gcInterval > 0 {
		storeOpts = append(storeOpts, store.WithGCInterval(c.gcInterval))
	}
	s := store.New(base, storeOpts...)

	queueOpts := []publishqueue.Option{publishqueue.WithLogger(c.logger.WithName("publishqueue"))}
	if c.metrics != nil {
		queueOpts = append(queueOpts, publishqueue.WithMetrics(c.metrics))
	}
	if c.handlers != nil {
		queueOpts = append(queueOpts, publishqueue.WithHandlers(c.handlers))
	}
	q := publishqueue.New(s, queueOpts...)

	return &Environment{
		Name:            name,
		Store:           s,
		Queue:           q,
		Fetcher:         fetcher,
		logger:          c.logger,
		missingHandlers: c.missingHandlers,
	}, nil
}

// Close releases the Environment's background resources.
func (e *Environment) Close() {
	e.Store.Close()
}

// Lookup reads sel against the current source.
func (e *Environment) Lookup(sel selector.Selector) (*reader.Snapshot, error) {
	return e.Store.Lookup(sel)
}

// Check reports whether sel is fully covered by the current source,
// consulting the MissingFieldHandlers registered via
// WithMissingFieldHandlers.
func (e *Environment) Check(sel selector.Selector) bool {
	return e.Store.Check(sel, e.missingHandlers)
}

// CheckWith is Check with a one-off handler set instead of the
// Environment's registered one, for callers that need to vary handlers
// per call.
func (e *Environment) CheckWith(sel selector.Selector, handlers datachecker.Handlers) bool {
	return e.Store.Check(sel, handlers)
}

// Subscribe registers callback against snap.
func (e *Environment) Subscribe(snap *reader.Snapshot, callback func(*reader.Snapshot)) store.Disposer {
	return e.Store.Subscribe(snap, callback)
}

// Retain keeps snap.Selector alive as a GC root until the returned
// Disposer is disposed (see store.Store.Retain).
func (e *Environment) Retain(snap *reader.Snapshot) store.Disposer {
	return e.Store.Retain(snap)
}

// ExecuteMutation is the §6.2 network boundary entry point.
func (e *Environment) ExecuteMutation(req network.MutationRequest) network.Observable {
	return network.ExecuteMutation(e.Fetcher, e.Queue, e.logger.WithName("network"), req)
}

// CommitQuery stages a plain server query response (not a mutation) for
// permanent commit on the next PublishQueue cycle and runs it immediately.
// Unlike ExecuteMutation there is no optimistic phase: a query response
// has nothing to revert.
func (e *Environment) CommitQuery(sel selector.Selector, response map[string]interface{}) (map[record.DataID]struct{}, error) {
	e.Queue.CommitPayload(sel, response)
	return e.Queue.Run()
}
