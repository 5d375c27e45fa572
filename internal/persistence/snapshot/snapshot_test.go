package snapshot

import (
	"os"
	"path/filepath"
	"reflect"
	"testing"

	"foundry.ai/internal/foundry/model"
)

func sample() SnapshotV1 {
	carrier := model.Item{ID: "ITM000000001", Kind: model.KindCarrier, Role: model.RoleCruiser, Rarity: model.RarityRare,
		Location: model.AtStation("S1"), Loadout: model.NewLoadout()}
	carrier.Loadout.Slots[model.SlotEngine] = []string{"ITM000000002"}
	carrier.Loadout.Bonuses = model.Bonuses{Speed: 9, Range: 3}
	return SnapshotV1{
		Header: Header{Seq: 7, CreatedAt: 1_700_000_000, RecipesDigest: "abc"},
		Stations: []model.Station{{ID: "S1", Owner: "alice", Kind: model.StationKindFoundry, Level: 2, UpgradeTier: 1,
			Balances: map[string]int{"ALLOY": 900}, CraftCount: 2, LastCraftAt: 1_700_000_000}},
		Items: []model.Item{carrier, {ID: "ITM000000002", Kind: model.KindModule, Role: model.RoleEngine,
			Rarity: model.RarityCommon, Bonuses: model.Bonuses{Speed: 9, Range: 3}, Location: model.InstalledOn("ITM000000001")}},
		Counters: Counters{NextItemID: 2},
	}
}

func TestWriteReadSnapshot(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, FileName(7))
	want := sample()
	if err := WriteSnapshot(path, want); err != nil {
		t.Fatalf("write: %v", err)
	}
	if _, err := os.Stat(path + ".tmp"); !os.IsNotExist(err) {
		t.Fatalf("temp file left behind: %v", err)
	}
	got, err := ReadSnapshot(path)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	want.Header.Version = Version
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("round trip mismatch:\n got %+v\nwant %+v", got, want)
	}
}

func TestLatestSnapshot(t *testing.T) {
	dir := t.TempDir()
	if _, _, ok, err := LatestSnapshot(filepath.Join(dir, "missing")); ok || err != nil {
		t.Fatalf("missing dir: ok=%v err=%v", ok, err)
	}
	for _, seq := range []uint64{3, 12, 9} {
		if err := WriteSnapshot(filepath.Join(dir, FileName(seq)), SnapshotV1{Header: Header{Seq: seq}}); err != nil {
			t.Fatalf("write %d: %v", seq, err)
		}
	}
	if err := os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}
	path, seq, ok, err := LatestSnapshot(dir)
	if err != nil || !ok {
		t.Fatalf("latest: ok=%v err=%v", ok, err)
	}
	if seq != 12 || filepath.Base(path) != FileName(12) {
		t.Fatalf("latest = %s (%d)", path, seq)
	}
}

func TestReadSnapshot_RejectsGarbage(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad"+ext)
	if err := os.WriteFile(path, []byte("not zstd"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := ReadSnapshot(path); err == nil {
		t.Fatalf("expected error")
	}
}

func TestStateRoundTrip(t *testing.T) {
	want := sample()
	got := FromState(Header{Seq: 7, CreatedAt: 1_700_000_000, RecipesDigest: "abc"}, want.State())
	want.Header.Version = Version
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("mismatch:\n got %+v\nwant %+v", got, want)
	}
}
