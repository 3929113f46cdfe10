// Package handle defines the Handler contract and the payload the
// normalizer emits for handle fields, plus the dispatcher the publish
// pipeline uses to apply registered handlers against a write proxy.
package handle

import "github.com/zugkraft/normcache/internal/record"

// Payload is a HandleFieldPayload: everything a Handler needs to compute
// and write a handle field's value.
type Payload struct {
	Args       map[string]interface{}
	DataID     record.DataID
	FieldKey   string
	Handle     string
	HandleKey  string
}

// Proxy is the minimal write surface a Handler needs; satisfied by the
// adapter internal/proxy.Store.AsHandleProxy returns.
type Proxy interface {
	Get(id record.DataID) (RecordProxy, bool)
	GetOrCreate(id record.DataID, typeName string) RecordProxy
}

// RecordProxy is the minimal per-record write surface a Handler needs.
type RecordProxy interface {
	SetValue(key string, args map[string]interface{}, value interface{})
	SetLinkedRecord(key string, args map[string]interface{}, id record.DataID)
}

// Handler updates store in response to a HandleFieldPayload collected
// during normalization.
type Handler interface {
	Update(store Proxy, payload Payload)
}

// Registry dispatches payloads to the Handler registered under their
// Handle name, in payload order, the same order the normalizer collected
// them in.
type Registry map[string]Handler

// Dispatch runs every payload's registered handler in order. Payloads
// whose Handle has no registered Handler are silently skipped — an
// unregistered handle name is a deployment configuration gap, not a shape
// error.
func (r Registry) Dispatch(store Proxy, payloads []Payload) {
	for _, p := range payloads {
		if h, ok := r[p.Handle]; ok {
			h.Update(store, p)
		}
	}
}
