package models

// RoleICTFocal users count as custodians for their agency even when they are not
// listed in AgencyAssetRoles.
const RoleICTFocal = "ict_focal"
const RoleRequester = "requester"

type User struct {
	ID           int    `json:"id"`
	Username     string `json:"username"`
	Email        string `json:"email"`
	PasswordHash string `json:"-"`
	Role         string `json:"role"`
	AgencyID     *int   `json:"agency_id"`
	UnitID       *int   `json:"unit_id"`
	IsSuperuser  bool   `json:"is_superuser"`
}
