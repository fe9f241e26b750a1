package workflow

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"

	"github.com/crucial707/asset-lifecycle/internal/models"
)

func lockedReturnRows(status string, assetID, requestedByID int) *sqlmock.Rows {
	return sqlmock.NewRows([]string{
		"id", "agency_id", "asset_id", "requested_by_id", "reason",
		"status", "verified_by_id", "verified_at", "verification_note", "created_at",
	}).AddRow(5, 1, assetID, requestedByID, "Returning device.", status, nil, nil, "", time.Now())
}

func TestVerifyReturnReceived_RetiredAssetStaysRetired(t *testing.T) {
	svc, mock := newTestService(t)
	custodian := models.User{ID: 10, AgencyID: intp(1)}

	mock.ExpectBegin()
	mock.ExpectQuery(`SELECT asset_mgmt_enabled`).WithArgs(1).WillReturnRows(configRows(true))
	mock.ExpectQuery(`FROM asset_return_requests WHERE id = \$1 AND agency_id = \$2 FOR UPDATE`).
		WithArgs(5, 1).WillReturnRows(lockedReturnRows(models.ReturnPendingICT, 7, 20))
	expectAssetRoles(mock, 10)
	mock.ExpectQuery(`FROM assets WHERE id = \$1 AND agency_id = \$2 FOR UPDATE`).
		WithArgs(7, 1).WillReturnRows(lockedAssetRows(models.AssetRetired, nil))
	mock.ExpectRollback()

	_, err := svc.VerifyReturnReceived(context.Background(), custodian, 5, "")
	if !errors.Is(err, ErrStateConflict) {
		t.Errorf("expected ErrStateConflict, got %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("expectations: %v", err)
	}
}

func TestInitiateReturn_SecondOpenReturnConflicts(t *testing.T) {
	svc, mock := newTestService(t)
	holder := models.User{ID: 20, AgencyID: intp(1)}

	mock.ExpectBegin()
	mock.ExpectQuery(`SELECT asset_mgmt_enabled`).WithArgs(1).WillReturnRows(configRows(true))
	mock.ExpectQuery(`FROM assets WHERE id = \$1 AND agency_id = \$2 FOR UPDATE`).
		WithArgs(7, 1).WillReturnRows(lockedAssetRows(models.AssetAssigned, intp(20)))
	mock.ExpectQuery(`SELECT EXISTS\(SELECT 1 FROM asset_return_requests`).
		WithArgs(1, 7, models.ReturnPendingICT, models.ReturnInTransit).
		WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(true))
	mock.ExpectRollback()

	_, err := svc.InitiateReturn(context.Background(), holder, 7, "second attempt")
	if !errors.Is(err, ErrStateConflict) {
		t.Errorf("expected ErrStateConflict, got %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("expectations: %v", err)
	}
}
