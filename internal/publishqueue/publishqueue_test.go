package publishqueue

import (
	"testing"
	"time"

	"github.com/zugkraft/normcache/internal/proxy"
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

func TestCommitPayloadPersistsToBase(t *testing.T) {
	base := record.NewInMemorySource()
	s := store.New(base, store.WithGCInterval(time.Hour))
	defer s.Close()
	q := New(s)

	q.CommitPayload(viewerSelector(), map[string]interface{}{
		"viewer": map[string]interface{}{"id": "4", "name": "Zuck", "__typename": "User"},
	})
	if _, err := q.Run(); err != nil {
		t.Fatalf("run: %v", err)
	}

	if base.GetStatus("4") != record.Existent {
		t.Fatalf("expected server payload to be committed to base")
	}
	snap, err := s.Lookup(viewerSelector())
	if err != nil {
		t.Fatalf("lookup: %v", err)
	}
	viewer := snap.Data["viewer"].(map[string]interface{})
	if viewer["name"] != "Zuck" {
		t.Fatalf("expected committed name Zuck, got %v", viewer["name"])
	}
}

func TestApplyUpdateIsVisibleButNotCommitted(t *testing.T) {
	base := record.NewInMemorySource()
	base.Set(record.RootID, record.New(record.RootID, "").Set("viewer", record.Link{ID: "4"}))
	base.Set("4", record.New("4", "User").Set("name", record.Scalar{Value: "Zuck"}))

	s := store.New(base, store.WithGCInterval(time.Hour))
	defer s.Close()
	q := New(s)

	disposer := q.ApplyUpdate(func(p *proxy.Store) {
		viewer, ok := p.Get("4")
		if !ok {
			t.Fatalf("expected viewer record visible to optimistic updater")
		}
		viewer.SetValue("name", nil, "Optimistic Mark")
	})
	if _, err := q.Run(); err != nil {
		t.Fatalf("run: %v", err)
	}

	snap, err := s.Lookup(viewerSelector())
	if err != nil {
		t.Fatalf("lookup: %v", err)
	}
	viewer := snap.Data["viewer"].(map[string]interface{})
	if viewer["name"] != "Optimistic Mark" {
		t.Fatalf("expected optimistic name, got %v", viewer["name"])
	}

	// The base itself must remain untouched by the optimistic update.
	baseRec, _ := base.Get("4")
	if name, _ := baseRec.Get("name"); !record.Equal(name, record.Scalar{Value: "Zuck"}) {
		t.Fatalf("expected base record unaffected by optimistic update")
	}

	// Disposing and re-running reverts to the base value.
	disposer.Dispose()
	if _, err := q.Run(); err != nil {
		t.Fatalf("run after dispose: %v", err)
	}
	snap, err = s.Lookup(viewerSelector())
	if err != nil {
		t.Fatalf("lookup after dispose: %v", err)
	}
	viewer = snap.Data["viewer"].(map[string]interface{})
	if viewer["name"] != "Zuck" {
		t.Fatalf("expected reverted name Zuck after dispose, got %v", viewer["name"])
	}
}

func TestCommitUpdatePersistsToBase(t *testing.T) {
	base := record.NewInMemorySource()
	s := store.New(base, store.WithGCInterval(time.Hour))
	defer s.Close()
	q := New(s)

	q.CommitUpdate(func(p *proxy.Store) {
		root := p.GetRoot()
		friend := p.Create("5", "User")
		friend.SetValue("name", nil, "Alice")
		root.SetLinkedRecord("viewer", nil, "5")
	})
	if _, err := q.Run(); err != nil {
		t.Fatalf("run: %v", err)
	}

	if base.GetStatus("5") != record.Existent {
		t.Fatalf("expected client updater write to land in base")
	}
	rec, _ := base.Get("5")
	if name, _ := rec.Get("name"); !record.Equal(name, record.Scalar{Value: "Alice"}) {
		t.Fatalf("expected name Alice committed to base")
	}
}

func TestOptimisticUpdatesComposeInOrder(t *testing.T) {
	base := record.NewInMemorySource()
	s := store.New(base, store.WithGCInterval(time.Hour))
	defer s.Close()
	q := New(s)

	q.ApplyUpdate(func(p *proxy.Store) {
		root := p.GetRoot()
		root.SetValue("counter", nil, float64(1))
	})
	q.ApplyUpdate(func(p *proxy.Store) {
		root := p.GetRoot()
		cur, _ := root.GetValue("counter", nil)
		root.SetValue("counter", nil, cur.(float64)+1)
	})
	if _, err := q.Run(); err != nil {
		t.Fatalf("run: %v", err)
	}

	sel := selector.Selector{
		DataID:     record.RootID,
		Selections: []selector.Node{selector.ScalarField{Name: "counter"}},
	}
	snap, err := s.Lookup(sel)
	if err != nil {
		t.Fatalf("lookup: %v", err)
	}
	if snap.Data["counter"] != float64(2) {
		t.Fatalf("expected composed counter value 2, got %v", snap.Data["counter"])
	}
}
