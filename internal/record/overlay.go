package record

// OverlaySource composes a base Source with a sibling MutableSource of
// overrides: a read from the overlay falls through to base only when the
// overlay itself has never seen id (status Unknown there). Writes land
// only in the overlay, leaving base untouched — the shape a staged
// server-payload or optimistic update is built on.
type OverlaySource struct {
	Base    Source
	Overlay MutableSource
}

// NewOverlaySource builds an overlay of base with a fresh in-memory write
// layer.
func NewOverlaySource(base Source) *OverlaySource {
	return &OverlaySource{Base: base, Overlay: NewInMemorySource()}
}

func (o *OverlaySource) Get(id DataID) (Record, State) {
	if o.Overlay.Has(id) {
		return o.Overlay.Get(id)
	}
	return o.Base.Get(id)
}

func (o *OverlaySource) Has(id DataID) bool {
	return o.Overlay.Has(id) || o.Base.Has(id)
}

func (o *OverlaySource) GetStatus(id DataID) State {
	if o.Overlay.Has(id) {
		return o.Overlay.GetStatus(id)
	}
	return o.Base.GetStatus(id)
}

func (o *OverlaySource) Size() int {
	return len(o.GetRecordIDs())
}

func (o *OverlaySource) GetRecordIDs() []DataID {
	seen := make(map[DataID]struct{})
	ids := make([]DataID, 0)
	for _, id := range o.Overlay.GetRecordIDs() {
		seen[id] = struct{}{}
		ids = append(ids, id)
	}
	for _, id := range o.Base.GetRecordIDs() {
		if _, dup := seen[id]; !dup {
			ids = append(ids, id)
		}
	}
	return ids
}

// AsMutable returns a MutableSource view of o: reads fall through to o
// (overlay-or-base), writes land only in o.Overlay. A normalizer or proxy
// writing through this view can see everything already staged in the
// overlay, plus the base, while never mutating the base itself — used to
// stage an optimistic update or a not-yet-committed server payload on top
// of whatever is already staged ahead of it.
func (o *OverlaySource) AsMutable() MutableSource {
	return overlayMutable{o}
}

type overlayMutable struct{ o *OverlaySource }

func (m overlayMutable) Get(id DataID) (Record, State) { return m.o.Get(id) }
func (m overlayMutable) Has(id DataID) bool            { return m.o.Has(id) }
func (m overlayMutable) GetStatus(id DataID) State     { return m.o.GetStatus(id) }
func (m overlayMutable) Size() int                     { return m.o.Size() }
func (m overlayMutable) GetRecordIDs() []DataID        { return m.o.GetRecordIDs() }
func (m overlayMutable) Set(id DataID, rec Record)     { m.o.Overlay.Set(id, rec) }
func (m overlayMutable) Delete(id DataID)              { m.o.Overlay.Delete(id) }
func (m overlayMutable) Remove(id DataID)              { m.o.Overlay.Remove(id) }
func (m overlayMutable) Clear()                        { m.o.Overlay.Clear() }
