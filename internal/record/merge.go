package record

// MergeInto merges src into dst field-wise: for each id present
// (non-Unknown) in src —
//
//   - Nonexistent in src  -> dst becomes Nonexistent for id.
//   - Existent in src     -> dst's record for id is merged field-by-field
//     (each field in src's record overwrites dst's field wholesale:
//     scalars, scalar lists, links, and link lists are none of them
//     merged recursively, just replaced).
//
// ids absent from src (Unknown there) are left untouched in dst. The
// returned set is every id whose resulting value in dst differs from what
// it held before the merge.
func MergeInto(dst MutableSource, src Source) map[DataID]struct{} {
	changed := make(map[DataID]struct{})
	for _, id := range src.GetRecordIDs() {
		srcRec, srcState := src.Get(id)
		switch srcState {
		case Nonexistent:
			if dst.GetStatus(id) != Nonexistent {
				changed[id] = struct{}{}
			}
			dst.Delete(id)
		case Existent:
			prevRec, prevState := dst.Get(id)
			merged := prevRec
			if prevState != Existent || merged == nil {
				merged = Record{}
			}
			fieldChanged := prevState != Existent
			for key, val := range srcRec {
				if cur, ok := merged[key]; !ok || !Equal(cur, val) {
					fieldChanged = true
				}
				merged = merged.Set(key, val)
			}
			if fieldChanged {
				changed[id] = struct{}{}
			}
			dst.Set(id, merged)
		}
	}
	return changed
}
