package models

import "time"

// AssetRequest statuses. Received, rejected and cancelled are terminal.
const (
	RequestDraft          = "draft"
	RequestPendingManager = "pending_manager"
	RequestPendingICT     = "pending_ict"
	RequestAssigned       = "assigned"
	RequestReceived       = "received"
	RequestRejected       = "rejected"
	RequestCancelled      = "cancelled"
)

// AssetRequest is a demand for an asset of a given category.
type AssetRequest struct {
	ID              int       `json:"id"`
	AgencyID        int       `json:"agency_id"`
	RequesterID     int       `json:"requester_id"`
	UnitID          *int      `json:"unit_id"`
	CategoryID      int       `json:"category_id"`
	Justification   string    `json:"justification"`
	Status          string    `json:"status"`
	AssignedAssetID *int      `json:"assigned_asset_id"`
	ApproverID      *int      `json:"approver_id"`
	RejectionReason string    `json:"rejection_reason,omitempty"`
	CreatedAt       time.Time `json:"created_at"`
	UpdatedAt       time.Time `json:"updated_at"`
}

// AssetReturnRequest statuses. Received and cancelled are terminal; at most one
// non-terminal return request may exist per asset at a time.
const (
	ReturnPendingICT = "pending_ict"
	ReturnInTransit  = "in_transit"
	ReturnReceived   = "received"
	ReturnCancelled  = "cancelled"
)

// AssetReturnRequest is the holder's intent to give an asset back to the pool.
type AssetReturnRequest struct {
	ID               int        `json:"id"`
	AgencyID         int        `json:"agency_id"`
	AssetID          int        `json:"asset_id"`
	RequestedByID    int        `json:"requested_by_id"`
	Reason           string     `json:"reason"`
	Status           string     `json:"status"`
	VerifiedByID     *int       `json:"verified_by_id"`
	VerifiedAt       *time.Time `json:"verified_at"`
	VerificationNote string     `json:"verification_note,omitempty"`
	CreatedAt        time.Time  `json:"created_at"`
}
