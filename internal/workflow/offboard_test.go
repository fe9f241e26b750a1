package workflow

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"

	"github.com/crucial707/asset-lifecycle/internal/models"
)

func TestExitOrganization_RequiresTypedConfirmation(t *testing.T) {
	svc := &Service{}
	actor := models.User{ID: 20, AgencyID: intp(1)}

	for _, confirm := range []string{"", "confirm", "yes", "CONFIRM "} {
		_, err := svc.ExitOrganization(context.Background(), actor, models.ExitReasonResigned, confirm)
		if !errors.Is(err, ErrValidation) {
			t.Errorf("confirm %q: expected ErrValidation, got %v", confirm, err)
		}
	}
}

func TestExitOrganization_RejectsUnknownReason(t *testing.T) {
	svc := &Service{}
	actor := models.User{ID: 20, AgencyID: intp(1)}

	_, err := svc.ExitOrganization(context.Background(), actor, "fired", "CONFIRM")
	if !errors.Is(err, ErrValidation) {
		t.Errorf("expected ErrValidation, got %v", err)
	}
}

func TestExitOrganization_SkipsAssetsWithOpenReturn(t *testing.T) {
	svc, mock := newTestService(t)
	actor := models.User{ID: 20, AgencyID: intp(1)}
	now := time.Now()

	heldRows := sqlmock.NewRows([]string{
		"id", "agency_id", "category_id", "unit_id", "name", "serial_number", "asset_tag",
		"tag_generated", "status", "current_holder_id", "qr_payload", "acquired_at",
		"retired_at", "eol_due_date", "created_at",
	}).
		AddRow(7, 1, 2, nil, "Latitude 5440", "SN-001", "AST-000123",
			true, models.AssetAssigned, 20, "", nil, nil, nil, now).
		AddRow(8, 1, 2, nil, "ThinkPad T14", "SN-002", "AST-000124",
			true, models.AssetAssigned, 20, "", nil, nil, nil, now)

	mock.ExpectBegin()
	mock.ExpectQuery(`SELECT EXISTS\(SELECT 1 FROM exit_requests`).
		WithArgs(1, 20, models.ExitPendingReturns, models.ExitPendingICTConfirmation).
		WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(false))
	mock.ExpectQuery(`INSERT INTO exit_requests`).
		WithArgs(1, 20, models.ExitReasonResigned, models.ExitPendingReturns).
		WillReturnRows(sqlmock.NewRows([]string{"id", "created_at"}).AddRow(9, now))
	mock.ExpectQuery(`FROM assets`).
		WithArgs(1, 20, models.AssetAssigned).
		WillReturnRows(heldRows)

	// asset 7 already has an open return, so no second one is created for it
	mock.ExpectQuery(`SELECT EXISTS\(SELECT 1 FROM asset_return_requests`).
		WithArgs(1, 7, models.ReturnPendingICT, models.ReturnInTransit).
		WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(true))
	mock.ExpectQuery(`SELECT EXISTS\(SELECT 1 FROM asset_return_requests`).
		WithArgs(1, 8, models.ReturnPendingICT, models.ReturnInTransit).
		WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(false))
	mock.ExpectQuery(`INSERT INTO asset_return_requests`).
		WithArgs(1, 8, 20, "Exit organization (resigned)", models.ReturnPendingICT).
		WillReturnRows(sqlmock.NewRows([]string{
			"id", "agency_id", "asset_id", "requested_by_id", "reason",
			"status", "verified_by_id", "verified_at", "verification_note", "created_at",
		}).AddRow(6, 1, 8, 20, "Exit organization (resigned)", models.ReturnPendingICT, nil, nil, "", now))
	mock.ExpectExec(`INSERT INTO asset_history`).
		WithArgs(1, 8, 20, models.EventReturnInitiated, "Exit organization (resigned)",
			[]byte(`{"exit_request_id":9,"return_id":6}`)).
		WillReturnResult(sqlmock.NewResult(1, 1))

	mock.ExpectQuery(`FROM comm_lines`).
		WithArgs(1, 20, models.LineAssigned).
		WillReturnRows(sqlmock.NewRows([]string{
			"id", "agency_id", "number", "provider", "assigned_to_id", "status", "created_at",
		}))
	expectAssetRoles(mock)
	mock.ExpectCommit()

	result, err := svc.ExitOrganization(context.Background(), actor, models.ExitReasonResigned, "CONFIRM")
	if err != nil {
		t.Fatalf("ExitOrganization: %v", err)
	}
	if result.Exit.ID != 9 {
		t.Errorf("exit id = %d, want 9", result.Exit.ID)
	}
	if len(result.ReturnRequests) != 1 || result.ReturnRequests[0].AssetID != 8 {
		t.Errorf("expected one return request for asset 8, got %+v", result.ReturnRequests)
	}
	if len(result.SuspendedLines) != 0 {
		t.Errorf("no lines should be suspended, got %+v", result.SuspendedLines)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("expectations: %v", err)
	}
}

func TestExitOrganization_DuplicateExit(t *testing.T) {
	svc, mock := newTestService(t)
	actor := models.User{ID: 20, AgencyID: intp(1)}

	mock.ExpectBegin()
	mock.ExpectQuery(`SELECT EXISTS\(SELECT 1 FROM exit_requests`).
		WithArgs(1, 20, models.ExitPendingReturns, models.ExitPendingICTConfirmation).
		WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(true))
	mock.ExpectRollback()

	_, err := svc.ExitOrganization(context.Background(), actor, models.ExitReasonResigned, "CONFIRM")
	if !errors.Is(err, ErrStateConflict) {
		t.Errorf("expected ErrStateConflict, got %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("expectations: %v", err)
	}
}
