package repo

import (
	"context"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/crucial707/asset-lifecycle/internal/models"
	"github.com/lib/pq"
)

func assetRows() *sqlmock.Rows {
	return sqlmock.NewRows([]string{
		"id", "agency_id", "category_id", "unit_id", "name", "serial_number", "asset_tag",
		"tag_generated", "status", "current_holder_id", "qr_payload", "acquired_at",
		"retired_at", "eol_due_date", "created_at",
	})
}

func TestAssetRepo_Get(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	defer db.Close()

	created := time.Now()
	mock.ExpectQuery(`SELECT id, agency_id, category_id`).
		WithArgs(7, 1).
		WillReturnRows(assetRows().AddRow(
			7, 1, 2, nil, "Latitude 5440", "SN-001", "AST-000123",
			true, "available", nil, "", nil, nil, nil, created))

	a, err := NewAssetRepo(db).Get(context.Background(), 1, 7)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if a.ID != 7 || a.Name != "Latitude 5440" || a.Status != models.AssetAvailable {
		t.Errorf("unexpected asset: %+v", a)
	}
	if a.AssetTag == nil || *a.AssetTag != "AST-000123" {
		t.Errorf("tag not scanned: %+v", a.AssetTag)
	}
	if a.UnitID != nil || a.CurrentHolderID != nil {
		t.Errorf("nullable ids should be nil: %+v", a)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("expectations: %v", err)
	}
}

func TestAssetRepo_TagExists(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	defer db.Close()

	mock.ExpectQuery(`SELECT EXISTS`).
		WithArgs(1, "AST-000123").
		WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(true))

	exists, err := NewAssetRepo(db).TagExists(context.Background(), 1, "AST-000123")
	if err != nil {
		t.Fatalf("TagExists: %v", err)
	}
	if !exists {
		t.Error("expected tag to exist")
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("expectations: %v", err)
	}
}

func TestAssetRepo_List_Filters(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	defer db.Close()

	mock.ExpectQuery(`FROM assets WHERE agency_id = \$1 AND status = \$2 AND category_id = \$3`).
		WithArgs(1, "available", 2).
		WillReturnRows(assetRows().AddRow(
			7, 1, 2, nil, "Latitude 5440", nil, "AST-000123",
			true, "available", nil, "", nil, nil, nil, time.Now()))

	assets, err := NewAssetRepo(db).List(context.Background(), 1, ListFilter{
		Status:     "available",
		CategoryID: 2,
	})
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(assets) != 1 || assets[0].ID != 7 {
		t.Errorf("unexpected result: %+v", assets)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("expectations: %v", err)
	}
}

func TestIsUniqueViolation(t *testing.T) {
	uniq := &pq.Error{Code: "23505", Constraint: "uniq_assets_agency_tag"}
	if !IsUniqueViolation(uniq) {
		t.Error("23505 should be a unique violation")
	}
	if !IsUniqueViolation(uniq, "uniq_assets_agency_tag") {
		t.Error("constraint name should match")
	}
	if IsUniqueViolation(uniq, "uniq_open_return_per_asset") {
		t.Error("different constraint should not match")
	}
	if IsUniqueViolation(&pq.Error{Code: "23503"}) {
		t.Error("foreign key violation is not a unique violation")
	}
}
