package tuning

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

type Tuning struct {
	// Stations below this level cannot craft.
	MinStationLevel int `yaml:"min_station_level" json:"min_station_level"`
	// Items a station can hold in its inventory (crafted and uninstalled items).
	StationInventoryCapacity int `yaml:"station_inventory_capacity" json:"station_inventory_capacity"`
	MaxUpgradeTier           int `yaml:"max_upgrade_tier" json:"max_upgrade_tier"`

	// Cost percent by craft count; index is the station's craft count.
	CraftMultiplierPercent []int `yaml:"craft_multiplier_percent" json:"craft_multiplier_percent"`
	// Units a client estimate may exceed the truncated scaled cost by.
	EstimateTolerance int `yaml:"estimate_tolerance" json:"estimate_tolerance"`

	SnapshotEverySeconds int `yaml:"snapshot_every_seconds" json:"snapshot_every_seconds"`
}

func Defaults() Tuning {
	return Tuning{
		MinStationLevel:          1,
		StationInventoryCapacity: 32,
		MaxUpgradeTier:           2,
		CraftMultiplierPercent:   []int{100, 150, 225},
		EstimateTolerance:        1,
		SnapshotEverySeconds:     300,
	}
}

// Load reads a tuning file. Fields missing from the file keep their defaults.
func Load(path string) (Tuning, error) {
	t := Defaults()
	raw, err := os.ReadFile(path)
	if err != nil {
		return t, err
	}
	if err := yaml.Unmarshal(raw, &t); err != nil {
		return t, fmt.Errorf("tuning.yaml: %w", err)
	}
	if err := t.Validate(); err != nil {
		return t, fmt.Errorf("tuning.yaml: %w", err)
	}
	return t, nil
}

func (t Tuning) Validate() error {
	if t.MaxUpgradeTier < 0 {
		return fmt.Errorf("max_upgrade_tier must be >= 0")
	}
	if len(t.CraftMultiplierPercent) < t.MaxUpgradeTier+1 {
		return fmt.Errorf("craft_multiplier_percent needs %d entries, got %d", t.MaxUpgradeTier+1, len(t.CraftMultiplierPercent))
	}
	for i, p := range t.CraftMultiplierPercent {
		if p <= 0 {
			return fmt.Errorf("craft_multiplier_percent[%d] must be > 0", i)
		}
	}
	if t.StationInventoryCapacity <= 0 {
		return fmt.Errorf("station_inventory_capacity must be > 0")
	}
	if t.EstimateTolerance < 0 {
		return fmt.Errorf("estimate_tolerance must be >= 0")
	}
	return nil
}
