package storagekey

import "testing"

func TestEncodeNoArguments(t *testing.T) {
	if got := Encode("name", nil); got != Key("name") {
		t.Fatalf("got %q, want %q", got, "name")
	}
}

func TestEncodeArgumentOrderIndependence(t *testing.T) {
	a := Encode("friends", map[string]interface{}{"first": 10, "orderby": "name"})
	b := Encode("friends", map[string]interface{}{"orderby": "name", "first": 10})
	if a != b {
		t.Fatalf("expected order-independent keys, got %q and %q", a, b)
	}
	want := Key(`friends(first:10,orderby:"name")`)
	if a != want {
		t.Fatalf("got %q, want %q", a, want)
	}
}

func TestEncodeNestedObjectKeysSorted(t *testing.T) {
	got := Encode("search", map[string]interface{}{
		"filter": map[string]interface{}{"z": 1, "a": 2},
	})
	want := Key(`search(filter:{"a":2,"z":1})`)
	if got != want {
		t.Fatalf("got %q, want %q", got, want)
	}
}

func TestEncodeArrayPreservesOrder(t *testing.T) {
	got := Encode("byIDs", map[string]interface{}{"ids": []interface{}{"3", "1", "2"}})
	want := Key(`byIDs(ids:["3","1","2"])`)
	if got != want {
		t.Fatalf("got %q, want %q", got, want)
	}
}

func TestEncodeNullArgument(t *testing.T) {
	got := Encode("user", map[string]interface{}{"id": nil})
	want := Key("user(id:null)")
	if got != want {
		t.Fatalf("got %q, want %q", got, want)
	}
}
