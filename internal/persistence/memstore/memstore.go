// Package memstore is an in-memory transactional engine.Store.
//
// A transaction stages its writes in an overlay and applies them only when
// the callback returns nil. Station inventories are served from an exact
// (station id -> item ids) index kept in step with item locations.
package memstore

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"foundry.ai/internal/foundry/engine"
	"foundry.ai/internal/foundry/model"
)

// State is the serialisable content of a Store.
type State struct {
	Stations   []model.Station
	Items      []model.Item
	NextItemID uint64
}

type Store struct {
	mu       sync.RWMutex
	stations map[string]model.Station
	items    map[string]model.Item
	atSta    map[string]map[string]struct{}
	nextItem uint64
}

var _ engine.Store = (*Store)(nil)

func New() *Store {
	return &Store{
		stations: map[string]model.Station{},
		items:    map[string]model.Item{},
		atSta:    map[string]map[string]struct{}{},
	}
}

func (s *Store) Update(ctx context.Context, fn func(tx engine.Tx) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	tx := &txn{
		base:     s,
		stations: map[string]model.Station{},
		items:    map[string]model.Item{},
		nextItem: s.nextItem,
	}
	if err := fn(tx); err != nil {
		return err
	}
	for id, st := range tx.stations {
		s.stations[id] = st
	}
	for id, it := range tx.items {
		if old, ok := s.items[id]; ok {
			s.unindex(old)
		}
		s.items[id] = it
		s.index(it)
	}
	s.nextItem = tx.nextItem
	return nil
}

func (s *Store) View(ctx context.Context, fn func(v engine.View) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	return fn(&txn{base: s})
}

func (s *Store) index(it model.Item) {
	if it.Location.Kind != model.LocStation {
		return
	}
	set := s.atSta[it.Location.ID]
	if set == nil {
		set = map[string]struct{}{}
		s.atSta[it.Location.ID] = set
	}
	set[it.ID] = struct{}{}
}

func (s *Store) unindex(it model.Item) {
	if it.Location.Kind != model.LocStation {
		return
	}
	set := s.atSta[it.Location.ID]
	delete(set, it.ID)
	if len(set) == 0 {
		delete(s.atSta, it.Location.ID)
	}
}

// Export copies the full store content.
func (s *Store) Export() State {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := State{NextItemID: s.nextItem}
	for _, st := range s.stations {
		out.Stations = append(out.Stations, st.Clone())
	}
	for _, it := range s.items {
		out.Items = append(out.Items, it.Clone())
	}
	sort.Slice(out.Stations, func(i, j int) bool { return out.Stations[i].ID < out.Stations[j].ID })
	sort.Slice(out.Items, func(i, j int) bool { return out.Items[i].ID < out.Items[j].ID })
	return out
}

// Import replaces the store content and rebuilds the location index.
func (s *Store) Import(st State) error {
	stations := make(map[string]model.Station, len(st.Stations))
	for _, x := range st.Stations {
		if x.ID == "" {
			return fmt.Errorf("memstore: station with empty id")
		}
		if _, dup := stations[x.ID]; dup {
			return fmt.Errorf("memstore: duplicate station %s", x.ID)
		}
		stations[x.ID] = x.Clone()
	}
	items := make(map[string]model.Item, len(st.Items))
	for _, x := range st.Items {
		if x.ID == "" {
			return fmt.Errorf("memstore: item with empty id")
		}
		if _, dup := items[x.ID]; dup {
			return fmt.Errorf("memstore: duplicate item %s", x.ID)
		}
		items[x.ID] = x.Clone()
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.stations = stations
	s.items = items
	s.atSta = map[string]map[string]struct{}{}
	for _, it := range items {
		s.index(it)
	}
	s.nextItem = st.NextItemID
	return nil
}

// txn reads through its overlay to the committed state.
type txn struct {
	base     *Store
	stations map[string]model.Station
	items    map[string]model.Item
	nextItem uint64
}

func (t *txn) Station(id string) (model.Station, bool, error) {
	if st, ok := t.stations[id]; ok {
		return st.Clone(), true, nil
	}
	st, ok := t.base.stations[id]
	if !ok {
		return model.Station{}, false, nil
	}
	return st.Clone(), true, nil
}

func (t *txn) Item(id string) (model.Item, bool, error) {
	if it, ok := t.items[id]; ok {
		return it.Clone(), true, nil
	}
	it, ok := t.base.items[id]
	if !ok {
		return model.Item{}, false, nil
	}
	return it.Clone(), true, nil
}

func (t *txn) ItemsAt(stationID string) ([]string, error) {
	var ids []string
	for id := range t.base.atSta[stationID] {
		if _, staged := t.items[id]; staged {
			continue
		}
		ids = append(ids, id)
	}
	for id, it := range t.items {
		if it.Location.IsStation(stationID) {
			ids = append(ids, id)
		}
	}
	sort.Strings(ids)
	return ids, nil
}

func (t *txn) PutStation(st model.Station) error {
	if st.ID == "" {
		return fmt.Errorf("memstore: station with empty id")
	}
	t.stations[st.ID] = st.Clone()
	return nil
}

func (t *txn) PutItem(it model.Item) error {
	if it.ID == "" {
		return fmt.Errorf("memstore: item with empty id")
	}
	t.items[it.ID] = it.Clone()
	return nil
}

func (t *txn) NextItemID() (string, error) {
	t.nextItem++
	return model.FormatItemID(t.nextItem), nil
}
