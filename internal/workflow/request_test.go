package workflow

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"

	"github.com/crucial707/asset-lifecycle/internal/models"
)

func lockedRequestRows(status string, categoryID int) *sqlmock.Rows {
	return sqlmock.NewRows([]string{
		"id", "agency_id", "requester_id", "unit_id", "category_id", "justification",
		"status", "assigned_asset_id", "approver_id", "rejection_reason", "created_at", "updated_at",
	}).AddRow(3, 1, 20, nil, categoryID, "Laptop for onboarding", status, nil, nil, "", time.Now(), time.Now())
}

func TestAssignAsset_CategoryMismatch(t *testing.T) {
	svc, mock := newTestService(t)
	custodian := models.User{ID: 10, AgencyID: intp(1)}

	mock.ExpectBegin()
	mock.ExpectQuery(`SELECT asset_mgmt_enabled`).WithArgs(1).WillReturnRows(configRows(true))
	mock.ExpectQuery(`FROM asset_requests WHERE id = \$1 AND agency_id = \$2 FOR UPDATE`).
		WithArgs(3, 1).WillReturnRows(lockedRequestRows(models.RequestPendingICT, 4))
	expectAssetRoles(mock, 10)
	// lockedAssetRows carries category 2, mismatching the request's 4
	mock.ExpectQuery(`FROM assets WHERE id = \$1 AND agency_id = \$2 FOR UPDATE`).
		WithArgs(7, 1).WillReturnRows(lockedAssetRows(models.AssetAvailable, nil))
	mock.ExpectRollback()

	_, err := svc.AssignAsset(context.Background(), custodian, 3, 7)
	if !errors.Is(err, ErrValidation) {
		t.Errorf("expected ErrValidation, got %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("expectations: %v", err)
	}
}
