package environment

import (
	"context"
	"testing"
	"time"

	"github.com/zugkraft/normcache/internal/datachecker"
	"github.com/zugkraft/normcache/internal/network"
	"github.com/zugkraft/normcache/internal/record"
	"github.com/zugkraft/normcache/internal/selector"
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
	payload network.ResponsePayload
	err     error
}

func (f fakeFetcher) Fetch(ctx context.Context, sel selector.Selector) (network.ResponsePayload, error) {
	if f.err != nil {
		return network.ResponsePayload{}, f.err
	}
	return f.payload, nil
}

func TestCommitQueryIsVisibleToLookup(t *testing.T) {
	env, err := New(context.Background(), "test", fakeFetcher{}, WithGCInterval(time.Hour))
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	defer env.Close()

	if _, err := env.CommitQuery(viewerSelector(), map[string]interface{}{
		"viewer": map[string]interface{}{"id": "4", "name": "Zuck", "__typename": "User"},
	}); err != nil {
		t.Fatalf("commit query: %v", err)
	}

	snap, err := env.Lookup(viewerSelector())
	if err != nil {
		t.Fatalf("lookup: %v", err)
	}
	viewer := snap.Data["viewer"].(map[string]interface{})
	if viewer["name"] != "Zuck" {
		t.Fatalf("expected name Zuck, got %v", viewer["name"])
	}
}

func TestExecuteMutationThroughEnvironment(t *testing.T) {
	fetcher := fakeFetcher{payload: network.ResponsePayload{
		Selector: viewerSelector(),
		Response: map[string]interface{}{
			"viewer": map[string]interface{}{"id": "4", "name": "Zuck", "__typename": "User"},
		},
	}}
	env, err := New(context.Background(), "test", fetcher, WithGCInterval(time.Hour))
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	defer env.Close()

	done := make(chan struct{})
	disposer := env.ExecuteMutation(network.MutationRequest{Selector: viewerSelector()}).Subscribe(network.Observer{
		OnComplete: func() { close(done) },
	})
	defer disposer.Dispose()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatalf("timed out waiting for mutation to complete")
	}

	if env.Store.Base().GetStatus("4") != record.Existent {
		t.Fatalf("expected committed mutation response to land in base")
	}
}

func TestCheckUsesRegisteredMissingFieldHandlers(t *testing.T) {
	handlers := datachecker.Handlers{
		Scalar: []datachecker.ScalarHandler{
			func(fieldName string, parentID record.DataID, args map[string]interface{}) (interface{}, bool) {
				if fieldName == "name" {
					return "Zuck", true
				}
				return nil, false
			},
		},
	}
	env, err := New(context.Background(), "test", fakeFetcher{}, WithGCInterval(time.Hour), WithMissingFieldHandlers(handlers))
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	defer env.Close()

	if _, err := env.CommitQuery(selector.Selector{DataID: record.RootID, Selections: []selector.Node{
		selector.LinkedField{Name: "viewer", Selections: nil},
	}}, map[string]interface{}{"viewer": map[string]interface{}{"id": "4", "__typename": "User"}}); err != nil {
		t.Fatalf("commit query: %v", err)
	}

	if !env.Check(viewerSelector()) {
		t.Fatalf("expected registered handler to answer missing name field")
	}
}

