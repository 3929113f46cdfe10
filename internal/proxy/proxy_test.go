package proxy

import (
	"testing"

	"github.com/zugkraft/normcache/internal/record"
)

func TestCreateGetAndSetValue(t *testing.T) {
	base := record.NewInMemorySource()
	store := NewStore(base)

	rec := store.Create("4", "User")
	rec.SetValue("name", nil, "Zuck")

	got, ok := store.Get("4")
	if !ok {
		t.Fatalf("expected record 4 to exist")
	}
	if got.GetType() != "User" {
		t.Fatalf("expected type User, got %q", got.GetType())
	}
	val, ok := got.GetValue("name", nil)
	if !ok || val != "Zuck" {
		t.Fatalf("expected name Zuck, got %v, %v", val, ok)
	}

	// Base is untouched: nothing has been committed to it.
	if base.Has("4") {
		t.Fatalf("expected base source to be untouched by overlay writes")
	}
}

func TestSetLinkedRecordAndGetLinkedRecord(t *testing.T) {
	base := record.NewInMemorySource()
	store := NewStore(base)

	root := store.GetRoot()
	friend := store.Create("5", "User")
	friend.SetValue("name", nil, "Alice")
	root.SetLinkedRecord("viewer", nil, "5")

	got, ok := root.GetLinkedRecord("viewer", nil)
	if !ok {
		t.Fatalf("expected linked record to resolve")
	}
	if got.GetDataID() != "5" {
		t.Fatalf("expected id 5, got %s", got.GetDataID())
	}
}

func TestGetOrCreateLinkedRecordIsIdempotent(t *testing.T) {
	base := record.NewInMemorySource()
	store := NewStore(base)
	root := store.GetRoot()

	first := root.GetOrCreateLinkedRecord("profile_picture", nil, "Image")
	first.SetValue("uri", nil, "http://example.com/a.jpg")

	second := root.GetOrCreateLinkedRecord("profile_picture", nil, "Image")
	if second.GetDataID() != first.GetDataID() {
		t.Fatalf("expected idempotent linked record, got %s and %s", first.GetDataID(), second.GetDataID())
	}
	val, ok := second.GetValue("uri", nil)
	if !ok || val != "http://example.com/a.jpg" {
		t.Fatalf("expected uri to be preserved across calls, got %v", val)
	}
}

func TestOverlayReadsFallThroughToBase(t *testing.T) {
	base := record.NewInMemorySource()
	base.Set("4", record.New("4", "User").Set("name", record.Scalar{Value: "Zuck"}))
	store := NewStore(base)

	rec, ok := store.Get("4")
	if !ok {
		t.Fatalf("expected overlay Get to fall through to base")
	}
	val, ok := rec.GetValue("name", nil)
	if !ok || val != "Zuck" {
		t.Fatalf("expected base value Zuck, got %v", val)
	}
}

func TestDeleteMarksNonexistentInOverlayOnly(t *testing.T) {
	base := record.NewInMemorySource()
	base.Set("4", record.New("4", "User"))
	store := NewStore(base)

	store.Delete("4")
	if _, ok := store.Get("4"); ok {
		t.Fatalf("expected deleted record to be absent from overlay view")
	}
	if base.GetStatus("4") != record.Existent {
		t.Fatalf("expected base source to be unaffected by overlay delete")
	}
}

func TestCopyFieldsFrom(t *testing.T) {
	base := record.NewInMemorySource()
	store := NewStore(base)

	src := store.Create("edge:1", "FriendEdge")
	src.SetValue("cursor", nil, "abc")

	dst := store.Create("edge:2", "FriendEdge")
	dst.CopyFieldsFrom(src)

	val, ok := dst.GetValue("cursor", nil)
	if !ok || val != "abc" {
		t.Fatalf("expected copied cursor value, got %v", val)
	}
	// __id must not be copied across identities.
	if dst.GetDataID() != "edge:2" {
		t.Fatalf("expected destination id to remain edge:2, got %s", dst.GetDataID())
	}
}
