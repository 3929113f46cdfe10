package reader

import (
	"github.com/zugkraft/normcache/internal/record"
	"github.com/zugkraft/normcache/internal/selector"
)

// Snapshot is a materialized read result: the selector it was read with,
// the data tree it produced, every record id visited while producing it,
// and whether any subtree was cut short by missing data.
type Snapshot struct {
	Selector      selector.Selector
	Data          map[string]interface{}
	SeenRecords   map[record.DataID]struct{}
	IsMissingData bool
}

func newSnapshot(sel selector.Selector) *Snapshot {
	return &Snapshot{
		Selector:    sel,
		Data:        make(map[string]interface{}),
		SeenRecords: make(map[record.DataID]struct{}),
	}
}

// Intersects reports whether any id in s.SeenRecords is present in ids —
// the test Notify uses to decide whether a subscription needs re-reading.
func (s *Snapshot) Intersects(ids map[record.DataID]struct{}) bool {
	for id := range s.SeenRecords {
		if _, ok := ids[id]; ok {
			return true
		}
	}
	return false
}
