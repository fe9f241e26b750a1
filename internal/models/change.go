package models

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"
)

// AssetChangeRequest statuses. Approved, rejected and cancelled are terminal.
const (
	ChangePendingManager = "pending_manager"
	ChangeApproved       = "approved"
	ChangeRejected       = "rejected"
	ChangeCancelled      = "cancelled"
)

// AssetDiff is the subset of asset fields proposed for change. A nil field is
// "not proposed"; for SerialNumber and AssetTag an empty string clears the
// value. AcquiredAt holds a YYYY-MM-DD string validated at proposal time.
type AssetDiff struct {
	Name         *string `json:"name,omitempty"`
	Status       *string `json:"status,omitempty"`
	SerialNumber *string `json:"serial_number,omitempty"`
	AssetTag     *string `json:"asset_tag,omitempty"`
	CategoryID   *int    `json:"category_id,omitempty"`
	UnitID       *int    `json:"unit_id,omitempty"`
	AcquiredAt   *string `json:"acquired_at,omitempty"`
}

// Empty reports whether no field is proposed.
func (d AssetDiff) Empty() bool {
	return d.Name == nil && d.Status == nil && d.SerialNumber == nil &&
		d.AssetTag == nil && d.CategoryID == nil && d.UnitID == nil && d.AcquiredAt == nil
}

// Value implements driver.Valuer so the diff persists as a flat JSON object.
func (d AssetDiff) Value() (driver.Value, error) {
	return json.Marshal(d)
}

// Scan implements sql.Scanner for the JSON column.
func (d *AssetDiff) Scan(src any) error {
	switch v := src.(type) {
	case []byte:
		return json.Unmarshal(v, d)
	case string:
		return json.Unmarshal([]byte(v), d)
	case nil:
		*d = AssetDiff{}
		return nil
	default:
		return fmt.Errorf("unsupported diff source type %T", src)
	}
}

// AssetChangeRequest is a proposed edit to an existing asset, held for manager
// approval before any field is written.
type AssetChangeRequest struct {
	ID            int        `json:"id"`
	AgencyID      int        `json:"agency_id"`
	AssetID       int        `json:"asset_id"`
	RequestedByID int        `json:"requested_by_id"`
	Proposed      AssetDiff  `json:"proposed_changes"`
	Reason        string     `json:"reason"`
	Status        string     `json:"status"`
	DecidedByID   *int       `json:"decided_by_id"`
	DecisionNote  string     `json:"decision_note,omitempty"`
	DecidedAt     *time.Time `json:"decided_at"`
	CreatedAt     time.Time  `json:"created_at"`
}
