// Example usage of an Environment: normalize a query response, read it
// back through a selector, subscribe to further changes, then run an
// optimistic mutation whose optimistic value is replaced by the server's
// value once the (fake) network replies.
package main

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/zugkraft/normcache/environment"
	"github.com/zugkraft/normcache/internal/network"
	"github.com/zugkraft/normcache/internal/reader"
	"github.com/zugkraft/normcache/internal/record"
	"github.com/zugkraft/normcache/internal/selector"
)

// demoFetcher simulates a server round trip that answers a moment later
// with a name different from the optimistic guess.
type demoFetcher struct{}

func (demoFetcher) Fetch(ctx context.Context, sel selector.Selector) (network.ResponsePayload, error) {
	time.Sleep(50 * time.Millisecond)
	return network.ResponsePayload{
		Selector: sel,
		Response: map[string]interface{}{
			"viewer": map[string]interface{}{"id": "4", "name": "Zuckerberg", "__typename": "User"},
		},
	}, nil
}

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

func main() {
	ctx := context.Background()
	env, err := environment.New(ctx, "demo", demoFetcher{})
	if err != nil {
		log.Fatalf("failed to build environment: %v", err)
	}
	defer env.Close()

	if _, err := env.CommitQuery(viewerSelector(), map[string]interface{}{
		"viewer": map[string]interface{}{"id": "4", "name": "Zuck", "__typename": "User"},
	}); err != nil {
		log.Fatalf("failed to commit query: %v", err)
	}

	snap, err := env.Lookup(viewerSelector())
	if err != nil {
		log.Fatalf("failed to read: %v", err)
	}
	fmt.Printf("initial viewer: %v\n", snap.Data["viewer"])

	disposer := env.Subscribe(snap, func(updated *reader.Snapshot) {
		fmt.Printf("notified: viewer now %v\n", updated.Data["viewer"])
	})
	defer disposer.Dispose()

	done := make(chan struct{})
	mutation := env.ExecuteMutation(network.MutationRequest{
		Selector:           viewerSelector(),
		OptimisticResponse: map[string]interface{}{"viewer": map[string]interface{}{"id": "4", "name": "Optimistic Mark"}},
	})
	mutation.Subscribe(network.Observer{
		OnComplete: func() { close(done) },
		OnError:    func(err error) { log.Printf("mutation failed: %v", err); close(done) },
	})
	<-done

	final, err := env.Lookup(viewerSelector())
	if err != nil {
		log.Fatalf("failed to read: %v", err)
	}
	fmt.Printf("final viewer: %v\n", final.Data["viewer"])
}
