// Package recordstore provides the persisted-backend warm-load path: a
// shared wire codec for record.Record, plus concrete backends (redis,
// cassandra) that know how to save and reload it. Neither backend is a
// RecordSource in its own right; each chooses its own on-disk format,
// here one JSON document per record keyed by DataID, and every backend's
// job is to round-trip it through EncodeRecord/DecodeRecord into an
// InMemorySource at process start.
package recordstore

import (
	"encoding/json"
	"fmt"

	"github.com/zugkraft/normcache/internal/record"
	"github.com/zugkraft/normcache/internal/storagekey"
)

// fieldDTO is the wire shape of one FieldValue. Kind picks which of the
// remaining fields is meaningful; the others are left zero and omitted.
type fieldDTO struct {
	Kind    string          `json:"kind"`
	Scalar  interface{}     `json:"scalar,omitempty"`
	List    []interface{}   `json:"list,omitempty"`
	LinkID  string          `json:"linkId,omitempty"`
	LinkIDs []nullableIDDTO `json:"linkIds,omitempty"`
}

type nullableIDDTO struct {
	ID    string `json:"id"`
	Valid bool   `json:"valid"`
}

// recordDTO is the wire shape of one persisted record.
type recordDTO struct {
	ID     string              `json:"id"`
	Fields map[string]fieldDTO `json:"fields"`
}

// EncodeRecord serializes rec (whose own id must equal id) into its wire
// form.
func EncodeRecord(id record.DataID, rec record.Record) ([]byte, error) {
	dto := recordDTO{ID: string(id), Fields: make(map[string]fieldDTO, len(rec))}
	for key, val := range rec {
		fd, err := encodeField(val)
		if err != nil {
			return nil, fmt.Errorf("recordstore: encode %s.%s: %w", id, key, err)
		}
		dto.Fields[string(key)] = fd
	}
	return json.Marshal(dto)
}

// DecodeRecord reverses EncodeRecord.
func DecodeRecord(data []byte) (record.DataID, record.Record, error) {
	var dto recordDTO
	if err := json.Unmarshal(data, &dto); err != nil {
		return "", nil, fmt.Errorf("recordstore: decode: %w", err)
	}
	rec := make(record.Record, len(dto.Fields))
	for key, fd := range dto.Fields {
		val, err := decodeField(fd)
		if err != nil {
			return "", nil, fmt.Errorf("recordstore: decode %s.%s: %w", dto.ID, key, err)
		}
		rec[storagekey.Key(key)] = val
	}
	return record.DataID(dto.ID), rec, nil
}

func encodeField(val record.FieldValue) (fieldDTO, error) {
	switch v := val.(type) {
	case record.Scalar:
		return fieldDTO{Kind: "scalar", Scalar: v.Value}, nil
	case record.ScalarList:
		return fieldDTO{Kind: "scalarList", List: v.Values}, nil
	case record.Link:
		return fieldDTO{Kind: "link", LinkID: string(v.ID)}, nil
	case record.LinkList:
		ids := make([]nullableIDDTO, len(v.IDs))
		for i, nid := range v.IDs {
			ids[i] = nullableIDDTO{ID: string(nid.ID), Valid: nid.Valid}
		}
		return fieldDTO{Kind: "linkList", LinkIDs: ids}, nil
	case nil:
		return fieldDTO{Kind: "undefined"}, nil
	default:
		if record.IsUndefined(v) {
			return fieldDTO{Kind: "undefined"}, nil
		}
		return fieldDTO{}, fmt.Errorf("unknown field value %T", v)
	}
}

func decodeField(fd fieldDTO) (record.FieldValue, error) {
	switch fd.Kind {
	case "scalar":
		return record.Scalar{Value: fd.Scalar}, nil
	case "scalarList":
		return record.ScalarList{Values: fd.List}, nil
	case "link":
		return record.Link{ID: record.DataID(fd.LinkID)}, nil
	case "linkList":
		ids := make([]record.NullableID, len(fd.LinkIDs))
		for i, nid := range fd.LinkIDs {
			ids[i] = record.NullableID{ID: record.DataID(nid.ID), Valid: nid.Valid}
		}
		return record.LinkList{IDs: ids}, nil
	case "undefined":
		return record.Undefined, nil
	default:
		return nil, fmt.Errorf("unknown field kind %q", fd.Kind)
	}
}

// Snapshot lists every Existent record in src as (id, record) pairs,
// ready to hand to a backend's bulk save. Nonexistent and Unknown ids are
// never persisted — a reload starts them Unknown and lets the server
// re-confirm tombstones.
func Snapshot(src record.Source) map[record.DataID]record.Record {
	out := make(map[record.DataID]record.Record)
	for _, id := range src.GetRecordIDs() {
		rec, state := src.Get(id)
		if state != record.Existent {
			continue
		}
		out[id] = rec
	}
	return out
}
