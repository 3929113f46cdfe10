package reader

import (
	"testing"

	"github.com/zugkraft/normcache/internal/normalizer"
	"github.com/zugkraft/normcache/internal/record"
	"github.com/zugkraft/normcache/internal/selector"
)

func TestReadRoundTripsNormalizedResponse(t *testing.T) {
	sel := selector.Selector{
		DataID: record.RootID,
		Selections: []selector.Node{
			selector.LinkedField{
				Name: "user",
				Args: []selector.ArgumentDef{{Name: "id", Value: selector.Literal{Value: "4"}}},
				Selections: []selector.Node{
					selector.ScalarField{Name: "id"},
					selector.ScalarField{Name: "name"},
				},
			},
		},
	}
	response := map[string]interface{}{
		"user": map[string]interface{}{"id": "4", "name": "Zuck", "__typename": "User"},
	}
	source := record.NewInMemorySource()
	if _, err := normalizer.Normalize(source, response, sel, nil); err != nil {
		t.Fatalf("normalize: %v", err)
	}

	snap, err := Read(source, sel, nil)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if snap.IsMissingData {
		t.Fatalf("expected complete data")
	}
	user, ok := snap.Data["user"].(map[string]interface{})
	if !ok {
		t.Fatalf("expected user object in data, got %#v", snap.Data["user"])
	}
	if user["name"] != "Zuck" {
		t.Fatalf("expected name Zuck, got %v", user["name"])
	}
	if _, ok := snap.SeenRecords["4"]; !ok {
		t.Fatalf("expected record 4 in seenRecords")
	}
	if _, ok := snap.SeenRecords[record.RootID]; !ok {
		t.Fatalf("expected root in seenRecords")
	}
}

func TestReadPluralWithPartialMiss(t *testing.T) {
	sel := selector.Selector{
		DataID: record.RootID,
		Selections: []selector.Node{
			selector.PluralLinkedField{
				Name: "friends",
				Selections: []selector.Node{
					selector.ScalarField{Name: "id"},
					selector.ScalarField{Name: "name"},
				},
			},
		},
	}
	response := map[string]interface{}{
		"friends": []interface{}{
			map[string]interface{}{"id": "1", "name": "Alice", "__typename": "User"},
			map[string]interface{}{"id": "2", "__typename": "User"},
		},
	}
	source := record.NewInMemorySource()
	if _, err := normalizer.Normalize(source, response, sel, nil); err != nil {
		t.Fatalf("normalize: %v", err)
	}

	snap, err := Read(source, sel, nil)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if !snap.IsMissingData {
		t.Fatalf("expected isMissingData=true")
	}
	friends, ok := snap.Data["friends"].([]interface{})
	if !ok || len(friends) != 2 {
		t.Fatalf("expected two friends, got %#v", snap.Data["friends"])
	}
	second, ok := friends[1].(map[string]interface{})
	if !ok {
		t.Fatalf("expected second friend object")
	}
	if _, hasName := second["name"]; hasName {
		t.Fatalf("expected second friend's name to be absent, got %v", second["name"])
	}
	for _, id := range []record.DataID{record.RootID, "1", "2"} {
		if _, ok := snap.SeenRecords[id]; !ok {
			t.Fatalf("expected %s in seenRecords", id)
		}
	}
}

func TestReadDanglingReferenceMarksMissing(t *testing.T) {
	source := record.NewInMemorySource()
	root := record.New(record.RootID, "")
	root = root.Set("user(id:\"4\")", record.Link{ID: "4"})
	source.Set(record.RootID, root)
	// record "4" is never written: stays Unknown.

	sel := selector.Selector{
		DataID: record.RootID,
		Selections: []selector.Node{
			selector.LinkedField{
				Name:       "user",
				Args:       []selector.ArgumentDef{{Name: "id", Value: selector.Literal{Value: "4"}}},
				Selections: []selector.Node{selector.ScalarField{Name: "name"}},
			},
		},
	}
	snap, err := Read(source, sel, nil)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if !snap.IsMissingData {
		t.Fatalf("expected missing data for dangling reference")
	}
	if _, ok := snap.SeenRecords["4"]; !ok {
		t.Fatalf("expected dangling id 4 to be recorded in seenRecords")
	}
}
