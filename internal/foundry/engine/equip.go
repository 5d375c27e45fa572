package engine

import (
	"context"

	"foundry.ai/internal/foundry/aggregate"
	"foundry.ai/internal/foundry/model"
	"foundry.ai/internal/foundry/slots"
	"foundry.ai/internal/protocol"
)

// InstallModule moves a module from the station inventory into a carrier
// slot and adds its bonuses to the carrier total. Installing a module that
// already sits on the carrier is a no-op.
func (e *Engine) InstallModule(ctx context.Context, callerID, carrierID, moduleID, stationID string) error {
	var changed bool
	var total model.Bonuses
	err := e.update(ctx, "install", func(tx Tx) error {
		if _, err := ownedFoundry(tx, callerID, stationID); err != nil {
			return err
		}
		carrier, err := carrierAt(tx, carrierID, stationID)
		if err != nil {
			return err
		}
		module, err := moduleByID(tx, moduleID)
		if err != nil {
			return err
		}
		if module.Location.Kind == model.LocStation && module.Location.ID != stationID {
			return protocol.Errorf(protocol.ErrInvalidModuleReference, "module %s is at station %s", moduleID, module.Location.ID)
		}
		if module.Location.Kind == model.LocNone {
			return protocol.Errorf(protocol.ErrInvalidModuleReference, "module %s has no location", moduleID)
		}
		changed, err = slots.Install(&carrier, module)
		if err != nil || !changed {
			return err
		}
		aggregate.Add(&carrier.Loadout.Bonuses, module.Bonuses)
		module.Location = model.InstalledOn(carrier.ID)
		total = carrier.Loadout.Bonuses
		if err := tx.PutItem(module); err != nil {
			return err
		}
		return tx.PutItem(carrier)
	})
	if err != nil || !changed {
		return err
	}

	e.metrics.Equip("install")
	e.log.Debug("module installed", "carrier", carrierID, "module", moduleID, "total", total)
	e.emit(AuditEntry{
		At:        e.now().Unix(),
		Actor:     callerID,
		Action:    "INSTALL",
		StationID: stationID,
		ItemID:    moduleID,
		CarrierID: carrierID,
		Detail:    map[string]any{"total": total},
	})
	return nil
}

// UninstallModule returns an installed module to the station inventory and
// removes its bonuses from the carrier total.
func (e *Engine) UninstallModule(ctx context.Context, callerID, carrierID, moduleID, stationID string) error {
	var clamped bool
	var total model.Bonuses
	err := e.update(ctx, "uninstall", func(tx Tx) error {
		if _, err := ownedFoundry(tx, callerID, stationID); err != nil {
			return err
		}
		carrier, err := carrierAt(tx, carrierID, stationID)
		if err != nil {
			return err
		}
		module, err := moduleByID(tx, moduleID)
		if err != nil {
			return err
		}
		if err := slots.Uninstall(&carrier, module); err != nil {
			return err
		}
		if err := e.checkStorage(tx, stationID); err != nil {
			return err
		}
		clamped = aggregate.Subtract(&carrier.Loadout.Bonuses, module.Bonuses)
		module.Location = model.AtStation(stationID)
		total = carrier.Loadout.Bonuses
		if err := tx.PutItem(module); err != nil {
			return err
		}
		return tx.PutItem(carrier)
	})
	if err != nil {
		return err
	}

	if clamped {
		e.metrics.Clamp()
		e.log.Warn("carrier bonus clamped at zero", "carrier", carrierID, "module", moduleID, "total", total)
	}
	e.metrics.Equip("uninstall")
	e.log.Debug("module uninstalled", "carrier", carrierID, "module", moduleID, "total", total)
	e.emit(AuditEntry{
		At:        e.now().Unix(),
		Actor:     callerID,
		Action:    "UNINSTALL",
		StationID: stationID,
		ItemID:    moduleID,
		CarrierID: carrierID,
		Detail:    map[string]any{"total": total, "clamped": clamped},
	})
	return nil
}
