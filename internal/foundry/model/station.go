package model

import (
	"sort"

	"foundry.ai/internal/protocol"
)

const StationKindFoundry = "FOUNDRY"

// Station is a crafting entity. Owner, Kind, Level, UpgradeTier and Balances
// are provided by the surrounding planet simulation; CraftCount and
// LastCraftAt are owned by the engine.
type Station struct {
	ID          string         `json:"id"`
	Owner       string         `json:"owner"`
	Kind        string         `json:"kind"`
	Level       int            `json:"level"`
	UpgradeTier int            `json:"upgrade_tier"`
	Balances    map[string]int `json:"balances"`
	CraftCount  int            `json:"craft_count"`
	LastCraftAt int64          `json:"last_craft_at"`
}

func (s Station) Clone() Station {
	out := s
	out.Balances = make(map[string]int, len(s.Balances))
	for k, v := range s.Balances {
		out.Balances[k] = v
	}
	return out
}

// BalanceList returns balances sorted by kind, skipping empty entries.
func (s Station) BalanceList() []protocol.ResourceAmount {
	out := make([]protocol.ResourceAmount, 0, len(s.Balances))
	for kind, n := range s.Balances {
		if n <= 0 {
			continue
		}
		out = append(out, protocol.ResourceAmount{Kind: kind, Amount: n})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Kind < out[j].Kind })
	return out
}
