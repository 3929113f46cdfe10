// Package network implements the mutation network boundary:
// ExecuteMutation returns a lazy, pull-initiated Observable of
// ResponsePayload — no request is sent until something subscribes, and
// unsubscribing cancels in-flight work and reverts any optimistic update.
// Each mutation is tagged with a fresh write id for log correlation.
package network

import (
	"context"
	"fmt"
	"sync"

	"github.com/google/uuid"

	"github.com/zugkraft/normcache/internal/obslog"
	"github.com/zugkraft/normcache/internal/publishqueue"
	"github.com/zugkraft/normcache/internal/selector"
	"github.com/zugkraft/normcache/internal/store"
)

// PayloadError is one error element of a ResponsePayload.
type PayloadError struct {
	Message string
}

// ResponsePayload is what a Fetcher resolves a mutation (or query) to:
// the selector the response answers, the raw response tree to normalize
// against it, and any partial errors the server reported.
type ResponsePayload struct {
	Selector selector.Selector
	Response map[string]interface{}
	Errors   []PayloadError
}

// Fetcher performs the actual network round trip. Implementations adapt a
// real transport (HTTP, gRPC, ...); this package only defines the
// contract the Observable drives.
type Fetcher interface {
	Fetch(ctx context.Context, sel selector.Selector) (ResponsePayload, error)
}

// MutationRequest names a single mutation execution.
type MutationRequest struct {
	Selector           selector.Selector
	OptimisticResponse map[string]interface{}
	OptimisticUpdater  publishqueue.Updater
	Updater            publishqueue.Updater
}

// Observer receives an Observable's emissions. OnNext fires at most once
// per ResponsePayload, followed by exactly one of OnError or OnComplete.
type Observer struct {
	OnNext     func(ResponsePayload)
	OnError    func(error)
	OnComplete func()
}

// Observable is a lazy, pull-initiated stream: subscribe starts the work,
// Subscribe's returned Disposer cancels it.
type Observable struct {
	subscribe func(Observer) store.Disposer
}

// Subscribe starts the underlying work and returns a handle to cancel it.
func (o Observable) Subscribe(obs Observer) store.Disposer {
	return o.subscribe(obs)
}

// ExecuteMutation applies req's optimistic update (if any) immediately,
// then fetches the real response in the background once Subscribe is
// called. On success the response is committed permanently and the
// optimistic update disposed; on error or unsubscribe the optimistic
// update is disposed without ever committing.
func ExecuteMutation(fetcher Fetcher, queue *publishqueue.Queue, logger obslog.Logger, req MutationRequest) Observable {
	writeID := uuid.New().String()

	var optimisticDisposer store.Disposer
	if req.OptimisticUpdater != nil {
		optimisticDisposer = queue.ApplyUpdate(req.OptimisticUpdater)
	} else if req.OptimisticResponse != nil {
		optimisticDisposer = queue.ApplyPayload(req.Selector, req.OptimisticResponse)
	}
	if optimisticDisposer != nil {
		if _, err := queue.Run(); err != nil {
			logger.Error(err, "optimistic rebase failed", "writeID", writeID)
		}
	}

	return Observable{subscribe: func(obs Observer) store.Disposer {
		ctx, cancel := context.WithCancel(context.Background())

		var (
			mu   sync.Mutex
			done bool
		)
		revertOptimistic := func() {
			if optimisticDisposer == nil {
				return
			}
			optimisticDisposer.Dispose()
			if _, err := queue.Run(); err != nil {
				logger.Error(err, "optimistic revert rebase failed", "writeID", writeID)
			}
		}

		go func() {
			payload, err := fetcher.Fetch(ctx, req.Selector)

			mu.Lock()
			if done {
				mu.Unlock()
				return
			}
			done = true
			mu.Unlock()

			if err != nil {
				revertOptimistic()
				if obs.OnError != nil {
					obs.OnError(fmt.Errorf("network: %w", err))
				}
				return
			}

			if req.Updater != nil {
				queue.CommitUpdate(req.Updater)
			} else {
				queue.CommitPayload(payload.Selector, payload.Response)
			}
			revertOptimistic()
			if _, rerr := queue.Run(); rerr != nil {
				logger.Error(rerr, "mutation commit rebase failed", "writeID", writeID)
			}

			if obs.OnNext != nil {
				obs.OnNext(payload)
			}
			if obs.OnComplete != nil {
				obs.OnComplete()
			}
		}()

		var disposeOnce sync.Once
		return disposerFunc(func() {
			disposeOnce.Do(func() {
				mu.Lock()
				alreadyDone := done
				done = true
				mu.Unlock()
				cancel()
				if !alreadyDone {
					revertOptimistic()
				}
			})
		})
	}}
}

type disposerFunc func()

func (f disposerFunc) Dispose() { f() }
