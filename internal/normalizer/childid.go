package normalizer

import (
	"strconv"

	"github.com/zugkraft/normcache/internal/record"
	"github.com/zugkraft/normcache/internal/storagekey"
)

// deriveChildID derives a child record's identity in priority order:
//  1. an "id" scalar on the response object, when present and non-empty;
//  2. else a synthesized client id `parentId:storageKey`, deterministic
//     and stable across re-normalizations of the same parent+key;
//  3. for plural fields, the client id additionally carries `:index` when
//     the element itself supplies no "id".
func deriveChildID(parentID record.DataID, key storagekey.Key, respObj map[string]interface{}, index int, plural bool) record.DataID {
	if idVal, ok := respObj["id"]; ok {
		if id := scalarToID(idVal); id != "" {
			return id
		}
	}
	base := string(parentID) + ":" + string(key)
	if plural {
		base += ":" + strconv.Itoa(index)
	}
	return record.DataID(base)
}

func scalarToID(v interface{}) record.DataID {
	switch id := v.(type) {
	case string:
		return record.DataID(id)
	case float64:
		return record.DataID(strconv.FormatFloat(id, 'f', -1, 64))
	default:
		return ""
	}
}
