package models

import "time"

// Asset statuses. Retired is terminal.
const (
	AssetAvailable   = "available"
	AssetAssigned    = "assigned"
	AssetMaintenance = "maintenance"
	AssetRetired     = "retired"
)

// Asset is the resource under management. CurrentHolderID is non-nil iff
// Status is "assigned"; every workflow transition preserves that.
type Asset struct {
	ID              int        `json:"id"`
	AgencyID        int        `json:"agency_id"`
	CategoryID      int        `json:"category_id"`
	UnitID          *int       `json:"unit_id"`
	Name            string     `json:"name"`
	SerialNumber    *string    `json:"serial_number"`
	AssetTag        *string    `json:"asset_tag"`
	TagGenerated    bool       `json:"tag_generated"`
	Status          string     `json:"status"`
	CurrentHolderID *int       `json:"current_holder_id"`
	QRPayload       string     `json:"qr_payload"`
	AcquiredAt      *time.Time `json:"acquired_at"`
	RetiredAt       *time.Time `json:"retired_at"`
	EOLDueDate      *time.Time `json:"eol_due_date"`
	CreatedAt       time.Time  `json:"created_at"`
}

// CentrallyManaged reports whether authority over the asset rests with the
// agency operations manager rather than a unit head. unit may be nil when the
// asset has no unit.
func (a Asset) CentrallyManaged(unit *Unit) bool {
	return a.UnitID == nil || (unit != nil && unit.IsCoreUnit)
}

// AssetVerification records one physical check of an asset (tag entered by hand
// or resolved from a scanned QR payload).
type AssetVerification struct {
	ID           int       `json:"id"`
	AgencyID     int       `json:"agency_id"`
	AssetID      int       `json:"asset_id"`
	VerifiedByID int       `json:"verified_by_id"`
	Method       string    `json:"method"` // manual or scan
	TagEntered   string    `json:"tag_entered"`
	Location     string    `json:"location,omitempty"`
	Note         string    `json:"note,omitempty"`
	CreatedAt    time.Time `json:"created_at"`
}
