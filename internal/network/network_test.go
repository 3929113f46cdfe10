package network

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/zugkraft/normcache/internal/obslog"
	"github.com/zugkraft/normcache/internal/publishqueue"
	"github.com/zugkraft/normcache/internal/record"
	"github.com/zugkraft/normcache/internal/selector"
	"github.com/zugkraft/normcache/internal/store"
)

func viewerSelector() selector.Selector {
	return selector.Selector{
		DataID: record.RootID,
		Selections: []selector.Node{
			selector.LinkedField{
				Name:       "viewer",
				Selections: []selector.Node{selector.ScalarField{Name: "name"}},
			},
		},
	}
}

type fakeFetcher struct {
	payload ResponsePayload
	err     error
	delay   time.Duration
}

func (f fakeFetcher) Fetch(ctx context.Context, sel selector.Selector) (ResponsePayload, error) {
	if f.delay > 0 {
		select {
		case <-time.After(f.delay):
		case <-ctx.Done():
			return ResponsePayload{}, ctx.Err()
		}
	}
	if f.err != nil {
		return ResponsePayload{}, f.err
	}
	return f.payload, nil
}

func waitFor(t *testing.T, ch <-chan struct{}) {
	t.Helper()
	select {
	case <-ch:
	case <-time.After(2 * time.Second):
		t.Fatalf("timed out waiting for observable to terminate")
	}
}

func TestExecuteMutationCommitsOnSuccess(t *testing.T) {
	base := record.NewInMemorySource()
	s := store.New(base, store.WithGCInterval(time.Hour))
	defer s.Close()
	q := publishqueue.New(s)

	fetcher := fakeFetcher{payload: ResponsePayload{
		Selector: viewerSelector(),
		Response: map[string]interface{}{
			"viewer": map[string]interface{}{"id": "4", "name": "Zuck", "__typename": "User"},
		},
	}}

	obs := ExecuteMutation(fetcher, q, obslog.Discard(), MutationRequest{Selector: viewerSelector()})

	done := make(chan struct{})
	var gotErr error
	disposer := obs.Subscribe(Observer{
		OnError:    func(err error) { gotErr = err; close(done) },
		OnComplete: func() { close(done) },
	})
	defer disposer.Dispose()

	waitFor(t, done)
	if gotErr != nil {
		t.Fatalf("unexpected error: %v", gotErr)
	}
	if base.GetStatus("4") != record.Existent {
		t.Fatalf("expected committed response to land in base")
	}
}

func TestExecuteMutationRevertsOptimisticOnError(t *testing.T) {
	base := record.NewInMemorySource()
	base.Set(record.RootID, record.New(record.RootID, "").Set("viewer", record.Link{ID: "4"}))
	base.Set("4", record.New("4", "User").Set("name", record.Scalar{Value: "Zuck"}))

	s := store.New(base, store.WithGCInterval(time.Hour))
	defer s.Close()
	q := publishqueue.New(s)

	fetcher := fakeFetcher{err: errors.New("boom")}
	req := MutationRequest{
		Selector:           viewerSelector(),
		OptimisticResponse: map[string]interface{}{"viewer": map[string]interface{}{"id": "4", "name": "Optimistic"}},
	}
	obs := ExecuteMutation(fetcher, q, obslog.Discard(), req)

	var mu sync.Mutex
	snapAfterOptimistic, err := s.Lookup(viewerSelector())
	if err != nil {
		t.Fatalf("lookup: %v", err)
	}

	done := make(chan struct{})
	var gotErr error
	disposer := obs.Subscribe(Observer{
		OnError: func(err error) {
			mu.Lock()
			gotErr = err
			mu.Unlock()
			close(done)
		},
	})
	defer disposer.Dispose()

	viewer := snapAfterOptimistic.Data["viewer"].(map[string]interface{})
	if viewer["name"] != "Optimistic" {
		t.Fatalf("expected optimistic name visible before fetch resolves, got %v", viewer["name"])
	}

	waitFor(t, done)
	if gotErr == nil {
		t.Fatalf("expected an error")
	}

	snap, err := s.Lookup(viewerSelector())
	if err != nil {
		t.Fatalf("lookup: %v", err)
	}
	viewer = snap.Data["viewer"].(map[string]interface{})
	if viewer["name"] != "Zuck" {
		t.Fatalf("expected optimistic update reverted to Zuck, got %v", viewer["name"])
	}
}

func TestExecuteMutationUnsubscribeCancelsAndReverts(t *testing.T) {
	base := record.NewInMemorySource()
	base.Set(record.RootID, record.New(record.RootID, "").Set("viewer", record.Link{ID: "4"}))
	base.Set("4", record.New("4", "User").Set("name", record.Scalar{Value: "Zuck"}))

	s := store.New(base, store.WithGCInterval(time.Hour))
	defer s.Close()
	q := publishqueue.New(s)

	fetcher := fakeFetcher{
		delay: time.Hour,
		payload: ResponsePayload{
			Selector: viewerSelector(),
			Response: map[string]interface{}{"viewer": map[string]interface{}{"id": "4", "name": "TooLate"}},
		},
	}
	req := MutationRequest{
		Selector:           viewerSelector(),
		OptimisticResponse: map[string]interface{}{"viewer": map[string]interface{}{"id": "4", "name": "Optimistic"}},
	}
	obs := ExecuteMutation(fetcher, q, obslog.Discard(), req)

	var calls int
	disposer := obs.Subscribe(Observer{
		OnNext:     func(ResponsePayload) { calls++ },
		OnComplete: func() { calls++ },
		OnError:    func(error) { calls++ },
	})
	disposer.Dispose()

	snap, err := s.Lookup(viewerSelector())
	if err != nil {
		t.Fatalf("lookup: %v", err)
	}
	viewer := snap.Data["viewer"].(map[string]interface{})
	if viewer["name"] != "Zuck" {
		t.Fatalf("expected unsubscribe to revert optimistic update, got %v", viewer["name"])
	}
	if calls != 0 {
		t.Fatalf("expected no emissions after unsubscribe, got %d", calls)
	}
}
