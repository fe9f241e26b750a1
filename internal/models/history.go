package models

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"
)

// Asset history event tags written by the workflows.
const (
	EventRegistered      = "registered"
	EventAssigned        = "assigned"
	EventReceiptVerified = "receipt_verified"
	EventReturnInitiated = "return_initiated"
	EventReturnCancelled = "return_cancelled"
	EventReturnReceived  = "return_received"
	EventRetired         = "retired"
	EventStatusChange    = "status_change"
)

// Meta is the unstructured metadata attached to a history entry, stored as JSON.
type Meta map[string]any

func (m Meta) Value() (driver.Value, error) {
	if m == nil {
		m = Meta{}
	}
	return json.Marshal(m)
}

func (m *Meta) Scan(src any) error {
	switch v := src.(type) {
	case []byte:
		return json.Unmarshal(v, m)
	case string:
		return json.Unmarshal([]byte(v), m)
	case nil:
		*m = Meta{}
		return nil
	default:
		return fmt.Errorf("unsupported meta source type %T", src)
	}
}

// AssetHistory is one append-only ledger entry. Entries are never updated or
// deleted, and the workflows never read them back for decisions.
type AssetHistory struct {
	ID        int       `json:"id"`
	AgencyID  int       `json:"agency_id"`
	AssetID   int       `json:"asset_id"`
	ActorID   int       `json:"actor_id"`
	Event     string    `json:"event"`
	Note      string    `json:"note,omitempty"`
	Meta      Meta      `json:"meta,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}
