// Package proxy implements a writable view over an OverlaySource that
// lets callers build up a set of record writes — optimistic updates, client
// updaters, or Handler updates dispatched from the publish pipeline —
// without mutating the base RecordSource until the PublishQueue decides to
// commit them.
package proxy

import (
	"github.com/zugkraft/normcache/internal/handle"
	"github.com/zugkraft/normcache/internal/record"
	"github.com/zugkraft/normcache/internal/storagekey"
)

// Store is the RecordSourceProxy: a base source with a mutable overlay of
// pending writes, plus the record-level helpers to build those writes up.
type Store struct {
	overlay *record.OverlaySource
}

// NewStore wraps base in a fresh write overlay.
func NewStore(base record.Source) *Store {
	return &Store{overlay: record.NewOverlaySource(base)}
}

// NewStoreOverlay wraps an already-constructed overlay instead of starting
// a fresh one — used by internal/publishqueue to let several optimistic
// updates accumulate into one shared write layer, so a later update's
// reads see an earlier one's writes.
func NewStoreOverlay(overlay *record.OverlaySource) *Store {
	return &Store{overlay: overlay}
}

// Overlay exposes the underlying OverlaySource, for callers (internal/
// publishqueue) that need to read the accumulated writes back out as a
// plain record.Source once a write pass is done.
func (s *Store) Overlay() *record.OverlaySource {
	return s.overlay
}

// Create installs a fresh Existent record at id, replacing anything
// previously there. Creating over an id the caller did not mean to replace
// is a programmer error the caller is responsible for avoiding; Create
// does not itself reject an existing id — GetOrCreate is the idempotent
// alternative callers reaching for "create if absent" should use instead.
func (s *Store) Create(id record.DataID, typeName string) *Record {
	rec := record.New(id, typeName)
	s.overlay.Overlay.Set(id, rec)
	return &Record{store: s, id: id}
}

// Delete marks id Nonexistent in the overlay.
func (s *Store) Delete(id record.DataID) {
	s.overlay.Overlay.Delete(id)
}

// Get returns a Record handle for id if it is Existent, through the
// overlay or the base.
func (s *Store) Get(id record.DataID) (*Record, bool) {
	if s.overlay.GetStatus(id) != record.Existent {
		return nil, false
	}
	return &Record{store: s, id: id}, true
}

// GetOrCreate returns id's existing Record, or creates one of typeName if
// id is Unknown or Nonexistent.
func (s *Store) GetOrCreate(id record.DataID, typeName string) *Record {
	if r, ok := s.Get(id); ok {
		return r
	}
	return s.Create(id, typeName)
}

// GetRoot returns the root record, creating it if this is the first write
// pass to touch this overlay.
func (s *Store) GetRoot() *Record {
	return s.GetOrCreate(record.RootID, "")
}

// GetRootField reads a singular linked field directly off the root record.
func (s *Store) GetRootField(name string, args map[string]interface{}) (*Record, bool) {
	return s.GetRoot().GetLinkedRecord(name, args)
}

// GetPluralRootField reads a plural linked field directly off the root
// record.
func (s *Store) GetPluralRootField(name string, args map[string]interface{}) ([]*Record, bool) {
	return s.GetRoot().GetLinkedRecords(name, args)
}

// AsHandleProxy adapts s to the narrow write surface internal/handle's
// Registry.Dispatch needs.
func (s *Store) AsHandleProxy() handle.Proxy {
	return handleAdapter{s}
}

type handleAdapter struct{ s *Store }

func (a handleAdapter) Get(id record.DataID) (handle.RecordProxy, bool) {
	r, ok := a.s.Get(id)
	if !ok {
		return nil, false
	}
	return r, true
}

func (a handleAdapter) GetOrCreate(id record.DataID, typeName string) handle.RecordProxy {
	return a.s.GetOrCreate(id, typeName)
}

// Record is the RecordProxy: a field-level read/write handle bound to one
// id within a Store's overlay.
type Record struct {
	store *Store
	id    record.DataID
}

// GetDataID returns the id this Record is bound to.
func (r *Record) GetDataID() record.DataID { return r.id }

// GetType returns the record's __typename, or "" if unset.
func (r *Record) GetType() string {
	rec, state := r.store.overlay.Get(r.id)
	if state != record.Existent {
		return ""
	}
	return rec.TypeName()
}

// GetValue reads a scalar (or scalar list) field.
func (r *Record) GetValue(key string, args map[string]interface{}) (interface{}, bool) {
	rec, state := r.store.overlay.Get(r.id)
	if state != record.Existent {
		return nil, false
	}
	val, ok := rec.Get(storagekey.Encode(key, args))
	if !ok || record.IsUndefined(val) {
		return nil, false
	}
	switch v := val.(type) {
	case record.Scalar:
		return v.Value, true
	case record.ScalarList:
		return v.Values, true
	default:
		return nil, false
	}
}

// SetValue writes a scalar (or scalar list, when value is a []interface{})
// field. Satisfies handle.RecordProxy.
func (r *Record) SetValue(key string, args map[string]interface{}, value interface{}) {
	k := storagekey.Encode(key, args)
	if list, ok := value.([]interface{}); ok {
		r.mutate(k, record.ScalarList{Values: list})
		return
	}
	r.mutate(k, record.Scalar{Value: value})
}

// GetLinkedRecord reads a singular linked field, dereferencing through the
// overlay's base source.
func (r *Record) GetLinkedRecord(key string, args map[string]interface{}) (*Record, bool) {
	rec, state := r.store.overlay.Get(r.id)
	if state != record.Existent {
		return nil, false
	}
	val, ok := rec.Get(storagekey.Encode(key, args))
	if !ok || record.IsUndefined(val) {
		return nil, false
	}
	lv, ok := val.(record.Link)
	if !ok {
		return nil, false
	}
	if r.store.overlay.GetStatus(lv.ID) != record.Existent {
		return nil, false
	}
	return &Record{store: r.store, id: lv.ID}, true
}

// SetLinkedRecord points a singular linked field at id. Satisfies
// handle.RecordProxy.
func (r *Record) SetLinkedRecord(key string, args map[string]interface{}, id record.DataID) {
	r.mutate(storagekey.Encode(key, args), record.Link{ID: id})
}

// GetLinkedRecords reads a plural linked field.
func (r *Record) GetLinkedRecords(key string, args map[string]interface{}) ([]*Record, bool) {
	rec, state := r.store.overlay.Get(r.id)
	if state != record.Existent {
		return nil, false
	}
	val, ok := rec.Get(storagekey.Encode(key, args))
	if !ok || record.IsUndefined(val) {
		return nil, false
	}
	lv, ok := val.(record.LinkList)
	if !ok {
		return nil, false
	}
	out := make([]*Record, len(lv.IDs))
	for i, nid := range lv.IDs {
		if !nid.Valid {
			out[i] = nil
			continue
		}
		out[i] = &Record{store: r.store, id: nid.ID}
	}
	return out, true
}

// SetLinkedRecords points a plural linked field at ids, with an empty
// DataID entry representing a null list element.
func (r *Record) SetLinkedRecords(key string, args map[string]interface{}, ids []record.DataID) {
	nids := make([]record.NullableID, len(ids))
	for i, id := range ids {
		if id == "" {
			continue
		}
		nids[i] = record.NullableID{ID: id, Valid: true}
	}
	r.mutate(storagekey.Encode(key, args), record.LinkList{IDs: nids})
}

// GetOrCreateLinkedRecord reads a singular linked field if present,
// otherwise creates a fresh record of typeName, links to it, and returns
// the new Record.
func (r *Record) GetOrCreateLinkedRecord(key string, args map[string]interface{}, typeName string) *Record {
	if child, ok := r.GetLinkedRecord(key, args); ok {
		return child
	}
	k := storagekey.Encode(key, args)
	childID := record.DataID(string(r.id) + ":" + string(k))
	child := r.store.Create(childID, typeName)
	r.SetLinkedRecord(key, args, childID)
	return child
}

// CopyFieldsFrom copies every field of src except __id onto r, overwriting
// r's own values for any overlapping key. Used by client updaters that clone a
// record under a derived id (e.g. a connection edge's backing node).
func (r *Record) CopyFieldsFrom(src *Record) {
	if src == nil {
		return
	}
	srcRec, state := src.store.overlay.Get(src.id)
	if state != record.Existent {
		return
	}
	for key := range srcRec {
		if key == record.IDKey {
			continue
		}
		val, _ := srcRec.Get(key)
		r.mutate(key, val)
	}
}

func (r *Record) mutate(key storagekey.Key, value record.FieldValue) {
	rec, state := r.store.overlay.Get(r.id)
	if state != record.Existent || rec == nil {
		rec = record.New(r.id, "")
	}
	r.store.overlay.Overlay.Set(r.id, rec.Set(key, value))
}
