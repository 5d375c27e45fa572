package engine

import (
	"context"

	"foundry.ai/internal/foundry/bonus"
	"foundry.ai/internal/foundry/catalogs"
	"foundry.ai/internal/foundry/ledger"
	"foundry.ai/internal/foundry/limiter"
	"foundry.ai/internal/foundry/model"
	"foundry.ai/internal/foundry/rarity"
	"foundry.ai/internal/protocol"
)

type CraftRequest struct {
	CallerID  string
	StationID string
	Role      model.Role
	// Resources is the client's estimate of the scaled cost, one entry per kind.
	Resources []protocol.ResourceAmount
	Biome     model.Biome
}

// CraftItem consumes the scaled recipe cost from the station and creates a
// new item at the station.
func (e *Engine) CraftItem(ctx context.Context, req CraftRequest) (string, error) {
	var created model.Item
	var pct int
	err := e.update(ctx, "craft", func(tx Tx) error {
		st, err := ownedFoundry(tx, req.CallerID, req.StationID)
		if err != nil {
			return err
		}
		if st.Level < e.tune.MinStationLevel {
			return protocol.Errorf(protocol.ErrStationLevelTooLow, "station %s level %d < %d", st.ID, st.Level, e.tune.MinStationLevel)
		}
		if err := e.limiter.Check(st.CraftCount, st.UpgradeTier); err != nil {
			return err
		}
		kind, ok := req.Role.Kind()
		if !ok {
			return protocol.Errorf(protocol.ErrInvalidRole, "unknown role %q", req.Role)
		}
		recipe, ok := e.cats.Recipes.Get(req.Role)
		if !ok {
			return protocol.Errorf(protocol.ErrInvalidRole, "role %s is not craftable", req.Role)
		}
		if !req.Biome.Valid() {
			return protocol.Errorf(protocol.ErrInvalidBiome, "biome %d out of range", req.Biome)
		}

		pct = e.limiter.MultiplierPercent(st.CraftCount)
		required, err := e.matchResources(recipe, req.Resources, pct)
		if err != nil {
			return err
		}
		if err := ledger.Consume(st.Balances, required); err != nil {
			return err
		}
		if err := e.checkStorage(tx, st.ID); err != nil {
			return err
		}

		now := e.now().Unix()
		rar := rarity.Roll(rarity.NewSeed(now, req.CallerID, st.ID), st.Level)
		id, err := tx.NextItemID()
		if err != nil {
			return err
		}
		created = model.Item{
			ID:        id,
			Kind:      kind,
			Role:      req.Role,
			Biome:     req.Biome,
			Rarity:    rar,
			Bonuses:   bonus.Calculate(req.Role, req.Biome, rar),
			CrafterID: req.CallerID,
			CraftedAt: now,
			Location:  model.AtStation(st.ID),
		}
		if kind == model.KindCarrier {
			created.Loadout = model.NewLoadout()
		}
		st.CraftCount++
		st.LastCraftAt = now
		if err := tx.PutItem(created); err != nil {
			return err
		}
		return tx.PutStation(st)
	})
	if err != nil {
		return "", err
	}

	e.metrics.Craft(string(created.Role), created.Rarity.String())
	e.log.Info("item crafted", "station", req.StationID, "item", created.ID, "role", created.Role, "rarity", created.Rarity.String(), "multiplier", pct)
	e.emit(AuditEntry{
		At:        created.CraftedAt,
		Actor:     req.CallerID,
		Action:    "CRAFT",
		StationID: req.StationID,
		ItemID:    created.ID,
		Detail: map[string]any{
			"role":       created.Role,
			"biome":      created.Biome,
			"rarity":     created.Rarity.String(),
			"multiplier": pct,
			"bonuses":    created.Bonuses,
		},
	})
	return created.ID, nil
}

// matchResources checks the client's resource list against the recipe scaled
// by pct and returns the amounts to deduct.
func (e *Engine) matchResources(recipe catalogs.RecipeDef, given []protocol.ResourceAmount, pct int) ([]protocol.ResourceAmount, error) {
	byKind := make(map[string]int, len(given))
	for _, r := range given {
		if _, dup := byKind[r.Kind]; dup {
			return nil, protocol.Errorf(protocol.ErrDuplicateResourceEntry, "resource %s listed twice", r.Kind)
		}
		byKind[r.Kind] = r.Amount
	}
	required := make([]protocol.ResourceAmount, 0, len(recipe.Inputs))
	for _, in := range recipe.Inputs {
		amount, ok := byKind[in.Kind]
		if !ok {
			return nil, protocol.Errorf(protocol.ErrMissingRequiredResources, "%s requires %s", recipe.Role, in.Kind)
		}
		if !e.limiter.AcceptsEstimate(in.Amount, pct, amount) {
			return nil, protocol.Errorf(protocol.ErrResourceAmountMismatch, "%s: got %d, expected %d at %d%%", in.Kind, amount, limiter.Truncated(in.Amount, pct), pct)
		}
		delete(byKind, in.Kind)
		required = append(required, protocol.ResourceAmount{Kind: in.Kind, Amount: limiter.Required(in.Amount, pct)})
	}
	for kind := range byKind {
		return nil, protocol.Errorf(protocol.ErrResourceAmountMismatch, "%s is not used by %s", kind, recipe.Role)
	}
	return required, nil
}
