package models

// Agency is a tenant boundary. Every other entity is scoped to exactly one agency;
// cross-agency references are rejected by the workflows.
type Agency struct {
	ID   int    `json:"id"`
	Name string `json:"name"`
	Code string `json:"code"` // short code, e.g. UNDP
}

// AgencyConfig holds the per-agency service toggles consumed by the workflows.
type AgencyConfig struct {
	AgencyID               int    `json:"agency_id"`
	AssetMgmtEnabled       bool   `json:"asset_mgmt_enabled"`
	RequireManagerApproval bool   `json:"require_manager_approval"`
	TagAutoGenerate        bool   `json:"asset_tag_auto_generate"`
	TagPrefix              string `json:"asset_tag_prefix"`
	TagLength              int    `json:"asset_tag_length"`
	QRIncludeURL           bool   `json:"asset_qr_include_url"`
}

// AgencyAssetRoles is the per-agency singleton naming who holds asset authority:
// one operations manager (centrally managed assets) and a set of ICT custodians
// (agency-wide register/assign/retire/verify). LineProviderContactIDs are the
// cell-service focal points notified when communication lines get suspended.
type AgencyAssetRoles struct {
	AgencyID               int   `json:"agency_id"`
	OperationsManagerID    *int  `json:"operations_manager_id"`
	CustodianIDs           []int `json:"custodian_ids"`
	LineProviderContactIDs []int `json:"line_provider_contact_ids"`
}

// Unit is a sub-organization within an agency. A unit flagged core is centrally
// managed: its assets answer to the operations manager, not the unit head.
type Unit struct {
	ID              int    `json:"id"`
	AgencyID        int    `json:"agency_id"`
	Name            string `json:"name"`
	UnitHeadID      *int   `json:"unit_head_id"`
	AssetManagerIDs []int  `json:"asset_manager_ids"`
	IsCoreUnit      bool   `json:"is_core_unit"`
}

// AssetCategory is an agency-scoped category (Laptop, Phone, Furniture...).
type AssetCategory struct {
	ID       int    `json:"id"`
	AgencyID int    `json:"agency_id"`
	Name     string `json:"name"`
}
