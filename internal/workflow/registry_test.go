package workflow

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/crucial707/asset-lifecycle/internal/models"
)

func newTestService(t *testing.T) (*Service, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return New(db, nil, ""), mock
}

func configRows(enabled bool) *sqlmock.Rows {
	return sqlmock.NewRows([]string{
		"asset_mgmt_enabled", "require_manager_approval", "asset_tag_auto_generate",
		"asset_tag_prefix", "asset_tag_length", "asset_qr_include_url",
	}).AddRow(enabled, true, true, "AST-", 6, false)
}

func opsManagerRows(id *int) *sqlmock.Rows {
	r := sqlmock.NewRows([]string{"operations_manager_id"})
	if id != nil {
		return r.AddRow(*id)
	}
	return r.AddRow(nil)
}

func memberRows(ids ...int) *sqlmock.Rows {
	r := sqlmock.NewRows([]string{"user_id"})
	for _, id := range ids {
		r.AddRow(id)
	}
	return r
}

func expectAssetRoles(mock sqlmock.Sqlmock, custodianIDs ...int) {
	mock.ExpectQuery(`SELECT operations_manager_id FROM agency_asset_roles`).
		WithArgs(1).WillReturnRows(opsManagerRows(nil))
	mock.ExpectQuery(`SELECT user_id FROM agency_custodians`).
		WithArgs(1).WillReturnRows(memberRows(custodianIDs...))
	mock.ExpectQuery(`SELECT user_id FROM agency_line_contacts`).
		WithArgs(1).WillReturnRows(memberRows())
}

func lockedAssetRows(status string, holderID *int) *sqlmock.Rows {
	rows := sqlmock.NewRows([]string{
		"id", "agency_id", "category_id", "unit_id", "name", "serial_number", "asset_tag",
		"tag_generated", "status", "current_holder_id", "qr_payload", "acquired_at",
		"retired_at", "eol_due_date", "created_at",
	})
	var holder any
	if holderID != nil {
		holder = *holderID
	}
	return rows.AddRow(7, 1, 2, nil, "Latitude 5440", "SN-001", "AST-000123",
		true, status, holder, "", nil, nil, nil, time.Now())
}

func TestRegister_ExplicitTagWins(t *testing.T) {
	svc, mock := newTestService(t)
	custodian := models.User{ID: 10, AgencyID: intp(1)}

	createdRows := sqlmock.NewRows([]string{
		"id", "agency_id", "category_id", "unit_id", "name", "serial_number", "asset_tag",
		"tag_generated", "status", "current_holder_id", "qr_payload", "acquired_at",
		"retired_at", "eol_due_date", "created_at",
	}).AddRow(7, 1, 2, nil, "Latitude 5440", nil, "INV-42",
		false, models.AssetAvailable, nil, "", nil, nil, nil, time.Now())

	mock.ExpectBegin()
	mock.ExpectQuery(`SELECT asset_mgmt_enabled`).WithArgs(1).WillReturnRows(configRows(true))
	expectAssetRoles(mock, 10)
	mock.ExpectQuery(`FROM asset_categories WHERE id = \$1 AND agency_id = \$2`).
		WithArgs(2, 1).
		WillReturnRows(sqlmock.NewRows([]string{"id", "agency_id", "name"}).AddRow(2, 1, "Laptops"))
	// no tag uniqueness probe: the supplied tag is used as-is
	mock.ExpectQuery(`INSERT INTO assets`).
		WithArgs(1, 2, nil, "Latitude 5440", nil, "INV-42", false,
			models.AssetAvailable, "", nil, nil).
		WillReturnRows(createdRows)
	mock.ExpectExec(`UPDATE assets SET qr_payload = \$1`).
		WithArgs(sqlmock.AnyArg(), 7).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(`INSERT INTO asset_history`).
		WithArgs(1, 7, 10, models.EventRegistered, "Asset registered into pool.",
			[]byte(`{"tag":"INV-42"}`)).
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectCommit()

	asset, err := svc.Register(context.Background(), custodian, RegisterInput{
		Name:       "Latitude 5440",
		CategoryID: 2,
		AssetTag:   strp("INV-42"),
		AutoTag:    true,
	})
	if err != nil {
		t.Fatalf("Register: %v", err)
	}
	if asset.AssetTag == nil || *asset.AssetTag != "INV-42" {
		t.Errorf("supplied tag was not kept: %+v", asset.AssetTag)
	}
	if asset.TagGenerated {
		t.Error("tag_generated should be false for a supplied tag")
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("expectations: %v", err)
	}
}

func TestRetire_ByCustodian(t *testing.T) {
	svc, mock := newTestService(t)
	custodian := models.User{ID: 10, AgencyID: intp(1)}

	mock.ExpectBegin()
	mock.ExpectQuery(`SELECT asset_mgmt_enabled`).WithArgs(1).WillReturnRows(configRows(true))
	mock.ExpectQuery(`FROM assets WHERE id = \$1 AND agency_id = \$2 FOR UPDATE`).
		WithArgs(7, 1).WillReturnRows(lockedAssetRows(models.AssetAvailable, nil))
	expectAssetRoles(mock, 10)
	mock.ExpectExec(`UPDATE asset_return_requests SET status = \$1`).
		WithArgs(models.ReturnCancelled, 1, 7, models.ReturnPendingICT, models.ReturnInTransit).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec(`UPDATE assets SET status = \$1, current_holder_id = NULL, retired_at = \$2`).
		WithArgs(models.AssetRetired, sqlmock.AnyArg(), 7).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(`INSERT INTO asset_history`).
		WithArgs(1, 7, 10, models.EventRetired, "Asset retired/disposed.", []byte(`{}`)).
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectCommit()

	asset, err := svc.Retire(context.Background(), custodian, 7, "")
	if err != nil {
		t.Fatalf("Retire: %v", err)
	}
	if asset.Status != models.AssetRetired || asset.RetiredAt == nil {
		t.Errorf("asset not retired: %+v", asset)
	}
	if asset.CurrentHolderID != nil {
		t.Error("holder should be cleared on retirement")
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("expectations: %v", err)
	}
}

func TestRetire_NotCustodian(t *testing.T) {
	svc, mock := newTestService(t)
	requester := models.User{ID: 55, AgencyID: intp(1), Role: models.RoleRequester}

	mock.ExpectBegin()
	mock.ExpectQuery(`SELECT asset_mgmt_enabled`).WithArgs(1).WillReturnRows(configRows(true))
	mock.ExpectQuery(`FROM assets WHERE id = \$1 AND agency_id = \$2 FOR UPDATE`).
		WithArgs(7, 1).WillReturnRows(lockedAssetRows(models.AssetAvailable, nil))
	expectAssetRoles(mock, 10)
	mock.ExpectRollback()

	_, err := svc.Retire(context.Background(), requester, 7, "")
	if !errors.Is(err, ErrNotAllowed) {
		t.Errorf("expected ErrNotAllowed, got %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("expectations: %v", err)
	}
}

func TestRetire_AlreadyRetired(t *testing.T) {
	svc, mock := newTestService(t)
	custodian := models.User{ID: 10, AgencyID: intp(1)}

	mock.ExpectBegin()
	mock.ExpectQuery(`SELECT asset_mgmt_enabled`).WithArgs(1).WillReturnRows(configRows(true))
	mock.ExpectQuery(`FROM assets WHERE id = \$1 AND agency_id = \$2 FOR UPDATE`).
		WithArgs(7, 1).WillReturnRows(lockedAssetRows(models.AssetRetired, nil))
	expectAssetRoles(mock, 10)
	mock.ExpectRollback()

	_, err := svc.Retire(context.Background(), custodian, 7, "")
	if !errors.Is(err, ErrStateConflict) {
		t.Errorf("expected ErrStateConflict, got %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("expectations: %v", err)
	}
}

func TestRetire_DisabledAgency(t *testing.T) {
	svc, mock := newTestService(t)
	custodian := models.User{ID: 10, AgencyID: intp(1)}

	mock.ExpectBegin()
	mock.ExpectQuery(`SELECT asset_mgmt_enabled`).WithArgs(1).WillReturnRows(configRows(false))
	mock.ExpectRollback()

	_, err := svc.Retire(context.Background(), custodian, 7, "")
	if !errors.Is(err, ErrValidation) {
		t.Errorf("expected ErrValidation, got %v", err)
	}
}

func TestRetire_NoAgency(t *testing.T) {
	svc := &Service{}
	_, err := svc.Retire(context.Background(), models.User{ID: 1}, 7, "")
	if !errors.Is(err, ErrValidation) {
		t.Errorf("expected ErrValidation, got %v", err)
	}
}
