// Package roles computes, for a given actor and asset, which asset-management
// authorities the actor holds. Every workflow operation consults this one
// place; resolution is always computed fresh from the rows passed in, never
// cached across calls.
package roles

import "github.com/crucial707/asset-lifecycle/internal/models"

// Resolution is the authorization triple consumed by the workflows.
type Resolution struct {
	// IsCustodian: agency-wide authority to register, assign, retire and
	// verify returns (superuser, listed ICT custodian, or ict_focal role).
	IsCustodian bool
	// IsAuthority: entitled to approve requests, returns and changes for this
	// asset (superuser; operations manager for centrally managed assets; unit
	// head or unit asset manager otherwise).
	IsAuthority bool
	// IsHolder: the asset is currently assigned to the actor.
	IsHolder bool
}

// Resolve computes the triple for an actor against an asset. unit is the
// asset's unit row, nil when the asset has none.
func Resolve(actor models.User, asset models.Asset, unit *models.Unit, agencyRoles models.AgencyAssetRoles) Resolution {
	return Resolution{
		IsCustodian: IsCustodian(actor, agencyRoles),
		IsAuthority: isAuthority(actor, asset.CentrallyManaged(unit), unit, agencyRoles),
		IsHolder:    asset.CurrentHolderID != nil && *asset.CurrentHolderID == actor.ID,
	}
}

// ResolveForUnit computes authority for a request that has no asset yet: the
// context is the request's unit (nil means centrally managed).
func ResolveForUnit(actor models.User, unit *models.Unit, agencyRoles models.AgencyAssetRoles) bool {
	central := unit == nil || unit.IsCoreUnit
	return isAuthority(actor, central, unit, agencyRoles)
}

// IsCustodian reports agency-wide custodial authority.
func IsCustodian(actor models.User, agencyRoles models.AgencyAssetRoles) bool {
	if actor.IsSuperuser {
		return true
	}
	if actor.Role == models.RoleICTFocal {
		return true
	}
	for _, id := range agencyRoles.CustodianIDs {
		if id == actor.ID {
			return true
		}
	}
	return false
}

func isAuthority(actor models.User, centrallyManaged bool, unit *models.Unit, agencyRoles models.AgencyAssetRoles) bool {
	if actor.IsSuperuser {
		return true
	}
	if centrallyManaged {
		return agencyRoles.OperationsManagerID != nil && *agencyRoles.OperationsManagerID == actor.ID
	}
	if unit == nil {
		return false
	}
	if unit.UnitHeadID != nil && *unit.UnitHeadID == actor.ID {
		return true
	}
	for _, id := range unit.AssetManagerIDs {
		if id == actor.ID {
			return true
		}
	}
	return false
}
