package record

import "github.com/zugkraft/normcache/internal/storagekey"

// Record is a persistent mapping from storagekey.Key to FieldValue, plus
// the two reserved keys IDKey/TypeNameKey. Records are immutable: every
// write-like method returns a new Record built from a copy of the
// receiver's entries and leaves the receiver unchanged (copy-on-write).
type Record map[storagekey.Key]FieldValue

// New creates a fresh record for id with the given __typename.
func New(id DataID, typeName string) Record {
	return Record{
		IDKey:       Scalar{Value: string(id)},
		TypeNameKey: Scalar{Value: typeName},
	}
}

// ID returns the record's own identity, the empty DataID if unset.
func (r Record) ID() DataID {
	if sv, ok := r[IDKey].(Scalar); ok {
		if s, ok := sv.Value.(string); ok {
			return DataID(s)
		}
	}
	return ""
}

// TypeName returns the record's GraphQL type name, "" if unset.
func (r Record) TypeName() string {
	if sv, ok := r[TypeNameKey].(Scalar); ok {
		if s, ok := sv.Value.(string); ok {
			return s
		}
	}
	return ""
}

// Get returns the value stored at key and whether the key is present at
// all (a present key may still hold Undefined).
func (r Record) Get(key storagekey.Key) (FieldValue, bool) {
	v, ok := r[key]
	return v, ok
}

// Set returns a new Record equal to r but with key bound to value.
func (r Record) Set(key storagekey.Key, value FieldValue) Record {
	out := r.clone()
	out[key] = value
	return out
}

// Unset returns a new Record equal to r but without key.
func (r Record) Unset(key storagekey.Key) Record {
	if _, ok := r[key]; !ok {
		return r
	}
	out := r.clone()
	delete(out, key)
	return out
}

func (r Record) clone() Record {
	out := make(Record, len(r)+1)
	for k, v := range r {
		out[k] = v
	}
	return out
}

// Equal reports whether two field values are structurally equal. Used by
// the field-wise merge (internal/store.publish, internal/normalizer) to
// decide whether a write is a no-op: a field already equal to the new
// value is never counted as a change.
func Equal(a, b FieldValue) bool {
	switch av := a.(type) {
	case Scalar:
		bv, ok := b.(Scalar)
		return ok && av.Value == bv.Value
	case ScalarList:
		bv, ok := b.(ScalarList)
		if !ok || len(av.Values) != len(bv.Values) {
			return false
		}
		for i := range av.Values {
			if av.Values[i] != bv.Values[i] {
				return false
			}
		}
		return true
	case Link:
		bv, ok := b.(Link)
		return ok && av.ID == bv.ID
	case LinkList:
		bv, ok := b.(LinkList)
		if !ok || len(av.IDs) != len(bv.IDs) {
			return false
		}
		for i := range av.IDs {
			if av.IDs[i] != bv.IDs[i] {
				return false
			}
		}
		return true
	case undefinedValue:
		return IsUndefined(b)
	default:
		return false
	}
}
