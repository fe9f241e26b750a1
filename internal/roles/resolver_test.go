package roles

import (
	"testing"

	"github.com/crucial707/asset-lifecycle/internal/models"
)

func intp(v int) *int { return &v }

func TestIsCustodian(t *testing.T) {
	agencyRoles := models.AgencyAssetRoles{CustodianIDs: []int{10, 11}}

	cases := []struct {
		name  string
		actor models.User
		want  bool
	}{
		{"superuser", models.User{ID: 99, IsSuperuser: true}, true},
		{"listed custodian", models.User{ID: 10}, true},
		{"ict focal role", models.User{ID: 50, Role: models.RoleICTFocal}, true},
		{"plain requester", models.User{ID: 51, Role: models.RoleRequester}, false},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := IsCustodian(tc.actor, agencyRoles); got != tc.want {
				t.Errorf("IsCustodian = %v, want %v", got, tc.want)
			}
		})
	}
}

func TestResolve_CentrallyManaged(t *testing.T) {
	// Asset with no unit: authority rests with the operations manager.
	asset := models.Asset{ID: 1, AgencyID: 1, CurrentHolderID: intp(20)}
	agencyRoles := models.AgencyAssetRoles{OperationsManagerID: intp(30)}

	opsMgr := models.User{ID: 30}
	res := Resolve(opsMgr, asset, nil, agencyRoles)
	if !res.IsAuthority {
		t.Error("operations manager should be authority for unitless asset")
	}
	if res.IsCustodian || res.IsHolder {
		t.Errorf("unexpected resolution: %+v", res)
	}

	holder := models.User{ID: 20}
	res = Resolve(holder, asset, nil, agencyRoles)
	if !res.IsHolder {
		t.Error("current holder should resolve as holder")
	}
	if res.IsAuthority {
		t.Error("holder alone is not an authority")
	}
}

func TestResolve_CoreUnitIsCentrallyManaged(t *testing.T) {
	// A core unit's head does NOT hold authority; the operations manager does.
	unit := &models.Unit{ID: 5, UnitHeadID: intp(40), IsCoreUnit: true}
	asset := models.Asset{ID: 1, AgencyID: 1, UnitID: intp(5)}
	agencyRoles := models.AgencyAssetRoles{OperationsManagerID: intp(30)}

	if res := Resolve(models.User{ID: 40}, asset, unit, agencyRoles); res.IsAuthority {
		t.Error("core unit head should not be authority")
	}
	if res := Resolve(models.User{ID: 30}, asset, unit, agencyRoles); !res.IsAuthority {
		t.Error("operations manager should be authority for core unit asset")
	}
}

func TestResolve_UnitManaged(t *testing.T) {
	unit := &models.Unit{ID: 5, UnitHeadID: intp(40), AssetManagerIDs: []int{41, 42}}
	asset := models.Asset{ID: 1, AgencyID: 1, UnitID: intp(5)}
	agencyRoles := models.AgencyAssetRoles{OperationsManagerID: intp(30)}

	if res := Resolve(models.User{ID: 40}, asset, unit, agencyRoles); !res.IsAuthority {
		t.Error("unit head should be authority")
	}
	if res := Resolve(models.User{ID: 42}, asset, unit, agencyRoles); !res.IsAuthority {
		t.Error("unit asset manager should be authority")
	}
	// Operations manager has no say over a unit-managed asset.
	if res := Resolve(models.User{ID: 30}, asset, unit, agencyRoles); res.IsAuthority {
		t.Error("operations manager should not be authority for unit-managed asset")
	}
}

func TestResolveForUnit(t *testing.T) {
	agencyRoles := models.AgencyAssetRoles{OperationsManagerID: intp(30)}
	unit := &models.Unit{ID: 5, UnitHeadID: intp(40)}

	if !ResolveForUnit(models.User{ID: 30}, nil, agencyRoles) {
		t.Error("operations manager should approve unitless requests")
	}
	if !ResolveForUnit(models.User{ID: 40}, unit, agencyRoles) {
		t.Error("unit head should approve unit requests")
	}
	if ResolveForUnit(models.User{ID: 40}, nil, agencyRoles) {
		t.Error("unit head has no authority without a unit context")
	}
	if !ResolveForUnit(models.User{IsSuperuser: true}, unit, agencyRoles) {
		t.Error("superuser bypasses the matrix")
	}
}
