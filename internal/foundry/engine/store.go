package engine

import (
	"context"
	"errors"

	"foundry.ai/internal/foundry/model"
)

// Store is the durable, transactional record store. Update runs fn in a
// single transaction and commits only if fn returns nil.
type Store interface {
	Update(ctx context.Context, fn func(tx Tx) error) error
	View(ctx context.Context, fn func(v View) error) error
}

type View interface {
	Station(id string) (model.Station, bool, error)
	Item(id string) (model.Item, bool, error)
	// ItemsAt lists, in id order, every item whose location is Station(stationID).
	ItemsAt(stationID string) ([]string, error)
}

type Tx interface {
	View
	PutStation(s model.Station) error
	PutItem(it model.Item) error
	NextItemID() (string, error)
}

// AuditEntry describes one committed state change.
type AuditEntry struct {
	At        int64          `json:"at"`
	Actor     string         `json:"actor"`
	Action    string         `json:"action"`
	StationID string         `json:"station_id,omitempty"`
	ItemID    string         `json:"item_id,omitempty"`
	CarrierID string         `json:"carrier_id,omitempty"`
	Detail    map[string]any `json:"detail,omitempty"`
}

type AuditSink interface {
	WriteAudit(e AuditEntry) error
}

// MultiAudit writes every entry to all sinks, even after one fails, and
// joins the failures.
type MultiAudit []AuditSink

func (m MultiAudit) WriteAudit(e AuditEntry) error {
	var errs []error
	for _, s := range m {
		if s == nil {
			continue
		}
		if err := s.WriteAudit(e); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
