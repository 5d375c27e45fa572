package engine

import (
	"context"
	"fmt"
	"sync"
	"time"

	"foundry.ai/internal/foundry/catalogs"
	"foundry.ai/internal/foundry/limiter"
	"foundry.ai/internal/foundry/model"
	"foundry.ai/internal/foundry/tuning"
	"foundry.ai/internal/metrics"
	"foundry.ai/internal/platform/logger"
	"foundry.ai/internal/protocol"
)

type Config struct {
	Tuning   tuning.Tuning
	Catalogs *catalogs.Catalogs
	Store    Store

	Logger  *logger.Logger
	Metrics *metrics.Collector
	Audit   AuditSink
	Now     func() time.Time
}

// Engine runs crafting and equipment operations. Each write operation is a
// single store transaction: every check runs before any mutation and any
// error leaves the store untouched.
type Engine struct {
	tune    tuning.Tuning
	cats    *catalogs.Catalogs
	store   Store
	limiter *limiter.Limiter

	log     *logger.Logger
	metrics *metrics.Collector
	audit   AuditSink
	now     func() time.Time

	// Writers are serialised; the station's craft counter is read and bumped
	// inside the same critical section.
	mu sync.Mutex
}

func New(cfg Config) (*Engine, error) {
	if cfg.Store == nil {
		return nil, fmt.Errorf("engine: nil store")
	}
	if cfg.Catalogs == nil {
		return nil, fmt.Errorf("engine: nil catalogs")
	}
	if err := cfg.Tuning.Validate(); err != nil {
		return nil, fmt.Errorf("engine: %w", err)
	}
	e := &Engine{
		tune:    cfg.Tuning,
		cats:    cfg.Catalogs,
		store:   cfg.Store,
		limiter: limiter.New(cfg.Tuning.CraftMultiplierPercent, cfg.Tuning.EstimateTolerance),
		log:     cfg.Logger,
		metrics: cfg.Metrics,
		audit:   cfg.Audit,
		now:     cfg.Now,
	}
	if e.log == nil {
		e.log = logger.Nop()
	}
	if e.now == nil {
		e.now = time.Now
	}
	return e, nil
}

// update runs fn as one serialised transaction and records the outcome.
func (e *Engine) update(ctx context.Context, op string, fn func(tx Tx) error) error {
	start := time.Now()
	e.mu.Lock()
	err := e.store.Update(ctx, fn)
	e.mu.Unlock()
	e.finish(op, start, err)
	return err
}

func (e *Engine) view(ctx context.Context, op string, fn func(v View) error) error {
	start := time.Now()
	err := e.store.View(ctx, fn)
	e.finish(op, start, err)
	return err
}

func (e *Engine) finish(op string, start time.Time, err error) {
	e.metrics.Observe(op, time.Since(start))
	if err == nil {
		return
	}
	code := protocol.CodeOf(err)
	e.metrics.Reject(op, code)
	if code == protocol.ErrInternal {
		e.log.Error("operation failed", "op", op, "err", err)
		return
	}
	e.log.Debug("operation rejected", "op", op, "code", code, "err", err)
}

func (e *Engine) emit(entry AuditEntry) {
	if e.audit == nil {
		return
	}
	if err := e.audit.WriteAudit(entry); err != nil {
		e.log.Warn("audit write failed", "action", entry.Action, "err", err)
	}
}

func stationByID(v View, id string) (model.Station, error) {
	st, ok, err := v.Station(id)
	if err != nil {
		return st, fmt.Errorf("load station %s: %w", id, err)
	}
	if !ok {
		return st, protocol.Errorf(protocol.ErrStationNotFound, "station %s not found", id)
	}
	return st, nil
}

// ownedFoundry loads a station and checks the caller owns it and it is a foundry.
func ownedFoundry(v View, callerID, stationID string) (model.Station, error) {
	st, err := stationByID(v, stationID)
	if err != nil {
		return st, err
	}
	if callerID == "" || st.Owner != callerID {
		return st, protocol.Errorf(protocol.ErrNotOwner, "caller %q does not own station %s", callerID, stationID)
	}
	if st.Kind != model.StationKindFoundry {
		return st, protocol.Errorf(protocol.ErrInvalidStationType, "station %s is %q, not %s", stationID, st.Kind, model.StationKindFoundry)
	}
	return st, nil
}

func itemByID(v View, id string) (model.Item, bool, error) {
	it, ok, err := v.Item(id)
	if err != nil {
		return it, false, fmt.Errorf("load item %s: %w", id, err)
	}
	return it, ok, nil
}

// carrierAt loads a carrier that is parked at stationID.
func carrierAt(v View, carrierID, stationID string) (model.Item, error) {
	it, ok, err := itemByID(v, carrierID)
	if err != nil {
		return it, err
	}
	if !ok || it.Kind != model.KindCarrier {
		return it, protocol.Errorf(protocol.ErrInvalidCarrierReference, "%s is not a carrier", carrierID)
	}
	if !it.Location.IsStation(stationID) {
		return it, protocol.Errorf(protocol.ErrInvalidCarrierReference, "carrier %s is not at station %s", carrierID, stationID)
	}
	if it.Loadout == nil {
		it.Loadout = model.NewLoadout()
	} else if it.Loadout.Slots == nil {
		it.Loadout.Slots = map[model.SlotCategory][]string{}
	}
	return it, nil
}

func moduleByID(v View, moduleID string) (model.Item, error) {
	it, ok, err := itemByID(v, moduleID)
	if err != nil {
		return it, err
	}
	if !ok || it.Kind != model.KindModule {
		return it, protocol.Errorf(protocol.ErrInvalidModuleReference, "%s is not a module", moduleID)
	}
	return it, nil
}

// checkStorage rejects when the station inventory has no free place.
func (e *Engine) checkStorage(v View, stationID string) error {
	ids, err := v.ItemsAt(stationID)
	if err != nil {
		return fmt.Errorf("station %s inventory: %w", stationID, err)
	}
	if len(ids) >= e.tune.StationInventoryCapacity {
		return protocol.Errorf(protocol.ErrStorageFull, "station %s holds %d/%d items", stationID, len(ids), e.tune.StationInventoryCapacity)
	}
	return nil
}
