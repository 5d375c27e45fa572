package snapshot

import "foundry.ai/internal/persistence/memstore"

// FromState wraps exported store content in a snapshot.
func FromState(h Header, st memstore.State) SnapshotV1 {
	if h.Version == 0 {
		h.Version = Version
	}
	return SnapshotV1{
		Header:   h,
		Stations: st.Stations,
		Items:    st.Items,
		Counters: Counters{NextItemID: st.NextItemID},
	}
}

func (s SnapshotV1) State() memstore.State {
	return memstore.State{Stations: s.Stations, Items: s.Items, NextItemID: s.Counters.NextItemID}
}
