package engine

import (
	"context"

	"foundry.ai/internal/foundry/model"
	"foundry.ai/internal/foundry/slots"
	"foundry.ai/internal/protocol"
)

type InstalledModule = slots.Installed

func (e *Engine) GetCraftingCount(ctx context.Context, stationID string) (count int, lastCraftAt int64, err error) {
	err = e.view(ctx, "craft_count", func(v View) error {
		st, err := stationByID(v, stationID)
		if err != nil {
			return err
		}
		count, lastCraftAt = st.CraftCount, st.LastCraftAt
		return nil
	})
	return count, lastCraftAt, err
}

// GetCraftingMultiplier is the cost percent the station's next craft pays.
func (e *Engine) GetCraftingMultiplier(ctx context.Context, stationID string) (int, error) {
	var pct int
	err := e.view(ctx, "multiplier", func(v View) error {
		st, err := stationByID(v, stationID)
		if err != nil {
			return err
		}
		pct = e.limiter.MultiplierPercent(st.CraftCount)
		return nil
	})
	return pct, err
}

func (e *Engine) GetInstalledModules(ctx context.Context, carrierID string) ([]InstalledModule, error) {
	var out []InstalledModule
	err := e.view(ctx, "installed", func(v View) error {
		it, ok, err := itemByID(v, carrierID)
		if err != nil {
			return err
		}
		if !ok || it.Kind != model.KindCarrier {
			return protocol.Errorf(protocol.ErrInvalidCarrierReference, "%s is not a carrier", carrierID)
		}
		out = slots.List(it)
		return nil
	})
	return out, err
}

func (e *Engine) GetItem(ctx context.Context, itemID string) (model.Item, error) {
	var out model.Item
	err := e.view(ctx, "item", func(v View) error {
		it, ok, err := itemByID(v, itemID)
		if err != nil {
			return err
		}
		if !ok {
			return protocol.Errorf(protocol.ErrItemNotFound, "item %s not found", itemID)
		}
		out = it
		return nil
	})
	return out, err
}

// GetStationItems lists the items held in a station's inventory.
func (e *Engine) GetStationItems(ctx context.Context, stationID string) ([]model.Item, error) {
	var out []model.Item
	err := e.view(ctx, "station_items", func(v View) error {
		if _, err := stationByID(v, stationID); err != nil {
			return err
		}
		ids, err := v.ItemsAt(stationID)
		if err != nil {
			return err
		}
		out = make([]model.Item, 0, len(ids))
		for _, id := range ids {
			it, ok, err := itemByID(v, id)
			if err != nil {
				return err
			}
			if ok {
				out = append(out, it)
			}
		}
		return nil
	})
	return out, err
}
