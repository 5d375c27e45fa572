package memstore

import (
	"context"
	"errors"
	"testing"

	"foundry.ai/internal/foundry/engine"
	"foundry.ai/internal/foundry/model"
)

func TestUpdate_RollsBackOnError(t *testing.T) {
	s := New()
	ctx := context.Background()
	boom := errors.New("boom")
	err := s.Update(ctx, func(tx engine.Tx) error {
		if err := tx.PutStation(model.Station{ID: "S1", Balances: map[string]int{"ORE": 5}}); err != nil {
			return err
		}
		if _, err := tx.NextItemID(); err != nil {
			return err
		}
		return boom
	})
	if !errors.Is(err, boom) {
		t.Fatalf("err = %v", err)
	}
	_ = s.View(ctx, func(v engine.View) error {
		if _, ok, _ := v.Station("S1"); ok {
			t.Fatalf("station persisted after failed tx")
		}
		return nil
	})
	if got := s.Export().NextItemID; got != 0 {
		t.Fatalf("counter advanced: %d", got)
	}
}

func TestItemsAt_FollowsStagedLocation(t *testing.T) {
	s := New()
	ctx := context.Background()
	if err := s.Update(ctx, func(tx engine.Tx) error {
		for i := 0; i < 3; i++ {
			id, _ := tx.NextItemID()
			if err := tx.PutItem(model.Item{ID: id, Kind: model.KindModule, Location: model.AtStation("S1")}); err != nil {
				return err
			}
		}
		return nil
	}); err != nil {
		t.Fatalf("seed: %v", err)
	}

	first := model.FormatItemID(1)
	if err := s.Update(ctx, func(tx engine.Tx) error {
		it, ok, _ := tx.Item(first)
		if !ok {
			t.Fatalf("missing %s", first)
		}
		it.Location = model.InstalledOn("C1")
		if err := tx.PutItem(it); err != nil {
			return err
		}
		ids, _ := tx.ItemsAt("S1")
		if len(ids) != 2 {
			t.Fatalf("staged ItemsAt = %v", ids)
		}
		return nil
	}); err != nil {
		t.Fatalf("move: %v", err)
	}

	_ = s.View(ctx, func(v engine.View) error {
		ids, _ := v.ItemsAt("S1")
		if len(ids) != 2 || ids[0] != model.FormatItemID(2) || ids[1] != model.FormatItemID(3) {
			t.Fatalf("ItemsAt = %v", ids)
		}
		// exact match only
		if ids, _ := v.ItemsAt("S"); len(ids) != 0 {
			t.Fatalf("prefix matched: %v", ids)
		}
		return nil
	})
}

func TestReturnedRecordsAreCopies(t *testing.T) {
	s := New()
	ctx := context.Background()
	_ = s.Update(ctx, func(tx engine.Tx) error {
		return tx.PutStation(model.Station{ID: "S1", Balances: map[string]int{"ORE": 5}})
	})
	_ = s.View(ctx, func(v engine.View) error {
		st, _, _ := v.Station("S1")
		st.Balances["ORE"] = 0
		return nil
	})
	_ = s.View(ctx, func(v engine.View) error {
		st, _, _ := v.Station("S1")
		if st.Balances["ORE"] != 5 {
			t.Fatalf("stored balance mutated through copy: %v", st.Balances)
		}
		return nil
	})
}

func TestExportImportRoundTrip(t *testing.T) {
	s := New()
	ctx := context.Background()
	_ = s.Update(ctx, func(tx engine.Tx) error {
		_ = tx.PutStation(model.Station{ID: "S1", Owner: "alice", CraftCount: 2})
		id, _ := tx.NextItemID()
		return tx.PutItem(model.Item{ID: id, Kind: model.KindCarrier, Location: model.AtStation("S1"), Loadout: model.NewLoadout()})
	})
	st := s.Export()

	r := New()
	if err := r.Import(st); err != nil {
		t.Fatalf("import: %v", err)
	}
	_ = r.View(ctx, func(v engine.View) error {
		got, ok, _ := v.Station("S1")
		if !ok || got.CraftCount != 2 || got.Owner != "alice" {
			t.Fatalf("station = %+v", got)
		}
		ids, _ := v.ItemsAt("S1")
		if len(ids) != 1 {
			t.Fatalf("index not rebuilt: %v", ids)
		}
		return nil
	})
	_ = r.Update(ctx, func(tx engine.Tx) error {
		id, _ := tx.NextItemID()
		if id != model.FormatItemID(2) {
			t.Fatalf("next id = %s", id)
		}
		return nil
	})

	if err := New().Import(State{Stations: []model.Station{{ID: "A"}, {ID: "A"}}}); err == nil {
		t.Fatalf("expected duplicate station rejected")
	}
}
