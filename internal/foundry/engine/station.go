package engine

import (
	"context"

	"foundry.ai/internal/foundry/ledger"
	"foundry.ai/internal/foundry/model"
	"foundry.ai/internal/protocol"
)

const actorSystem = "system"

// StationUpdate is the station provider's view of a station. The craft
// counter and last craft time are kept from the stored record.
type StationUpdate struct {
	ID          string         `json:"id"`
	Owner       string         `json:"owner"`
	Kind        string         `json:"kind"`
	Level       int            `json:"level"`
	UpgradeTier int            `json:"upgrade_tier"`
	Balances    map[string]int `json:"balances"`
}

// SyncStation creates or replaces a station record from the provider.
func (e *Engine) SyncStation(ctx context.Context, u StationUpdate) error {
	err := e.update(ctx, "sync_station", func(tx Tx) error {
		if u.ID == "" {
			return protocol.Errorf(protocol.ErrBadRequest, "missing station id")
		}
		for kind, n := range u.Balances {
			if kind == "" || n < 0 {
				return protocol.Errorf(protocol.ErrBadRequest, "invalid balance %q=%d", kind, n)
			}
		}
		cur, ok, err := tx.Station(u.ID)
		if err != nil {
			return err
		}
		if !ok {
			cur = model.Station{ID: u.ID}
		}
		if err := e.checkTier(cur, u.UpgradeTier); err != nil {
			return err
		}
		next := model.Station{
			ID:          u.ID,
			Owner:       u.Owner,
			Kind:        u.Kind,
			Level:       u.Level,
			UpgradeTier: u.UpgradeTier,
			Balances:    map[string]int{},
			CraftCount:  cur.CraftCount,
			LastCraftAt: cur.LastCraftAt,
		}
		for kind, n := range u.Balances {
			if n > 0 {
				next.Balances[kind] = n
			}
		}
		return tx.PutStation(next)
	})
	if err != nil {
		return err
	}
	e.emit(AuditEntry{
		At:        e.now().Unix(),
		Actor:     actorSystem,
		Action:    "SYNC_STATION",
		StationID: u.ID,
		Detail:    map[string]any{"owner": u.Owner, "kind": u.Kind, "level": u.Level, "upgrade_tier": u.UpgradeTier},
	})
	return nil
}

func (e *Engine) SetUpgradeTier(ctx context.Context, stationID string, tier int) error {
	err := e.update(ctx, "set_tier", func(tx Tx) error {
		st, err := stationByID(tx, stationID)
		if err != nil {
			return err
		}
		if err := e.checkTier(st, tier); err != nil {
			return err
		}
		st.UpgradeTier = tier
		return tx.PutStation(st)
	})
	if err != nil {
		return err
	}
	e.emit(AuditEntry{At: e.now().Unix(), Actor: actorSystem, Action: "SET_TIER", StationID: stationID, Detail: map[string]any{"upgrade_tier": tier}})
	return nil
}

// Deposit credits resources to a station.
func (e *Engine) Deposit(ctx context.Context, stationID string, reqs []protocol.ResourceAmount) error {
	err := e.update(ctx, "deposit", func(tx Tx) error {
		st, err := stationByID(tx, stationID)
		if err != nil {
			return err
		}
		if err := ledger.Credit(st.Balances, reqs); err != nil {
			return err
		}
		return tx.PutStation(st)
	})
	if err != nil {
		return err
	}
	e.emit(AuditEntry{At: e.now().Unix(), Actor: actorSystem, Action: "DEPOSIT", StationID: stationID, Detail: map[string]any{"resources": reqs}})
	return nil
}

// checkTier keeps craftCount <= 1 + upgradeTier.
func (e *Engine) checkTier(st model.Station, tier int) error {
	if tier < 0 || tier > e.tune.MaxUpgradeTier {
		return protocol.Errorf(protocol.ErrInvalidUpgradeTier, "tier %d outside 0..%d", tier, e.tune.MaxUpgradeTier)
	}
	if st.CraftCount > e.limiter.MaxCrafts(tier) {
		return protocol.Errorf(protocol.ErrInvalidUpgradeTier, "station %s already crafted %d times; tier %d allows %d", st.ID, st.CraftCount, tier, e.limiter.MaxCrafts(tier))
	}
	return nil
}
