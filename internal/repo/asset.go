package repo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/crucial707/asset-lifecycle/internal/models"
	"github.com/lib/pq"
)

// ========================
// ASSET REPO
// ========================

type AssetRepo struct {
	db DBTX
}

func NewAssetRepo(db DBTX) *AssetRepo {
	return &AssetRepo{db: db}
}

const assetColumns = `id, agency_id, category_id, unit_id, name, serial_number, asset_tag,
	tag_generated, status, current_holder_id, COALESCE(qr_payload, ''), acquired_at,
	retired_at, eol_due_date, created_at`

func (r *AssetRepo) scanAsset(row interface{ Scan(...any) error }) (models.Asset, error) {
	var a models.Asset
	err := row.Scan(&a.ID, &a.AgencyID, &a.CategoryID, &a.UnitID, &a.Name,
		&a.SerialNumber, &a.AssetTag, &a.TagGenerated, &a.Status, &a.CurrentHolderID,
		&a.QRPayload, &a.AcquiredAt, &a.RetiredAt, &a.EOLDueDate, &a.CreatedAt)
	return a, err
}

// ========================
// CREATE ASSET
// ========================

func (r *AssetRepo) Create(ctx context.Context, a models.Asset) (models.Asset, error) {
	return r.scanAsset(r.db.QueryRowContext(ctx,
		`INSERT INTO assets (agency_id, category_id, unit_id, name, serial_number,
		                     asset_tag, tag_generated, status, qr_payload, acquired_at, eol_due_date)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		 RETURNING `+assetColumns,
		a.AgencyID, a.CategoryID, a.UnitID, a.Name, a.SerialNumber,
		a.AssetTag, a.TagGenerated, a.Status, a.QRPayload, a.AcquiredAt, a.EOLDueDate,
	))
}

// ========================
// GET ASSET
// ========================

func (r *AssetRepo) Get(ctx context.Context, agencyID, id int) (models.Asset, error) {
	return r.scanAsset(r.db.QueryRowContext(ctx,
		`SELECT `+assetColumns+` FROM assets WHERE id = $1 AND agency_id = $2`,
		id, agencyID,
	))
}

// GetForUpdate locks the asset row for the duration of the enclosing
// transaction. Assignment and return verification both go through here so the
// status read-then-write cannot race.
func (r *AssetRepo) GetForUpdate(ctx context.Context, agencyID, id int) (models.Asset, error) {
	return r.scanAsset(r.db.QueryRowContext(ctx,
		`SELECT `+assetColumns+` FROM assets WHERE id = $1 AND agency_id = $2 FOR UPDATE`,
		id, agencyID,
	))
}

func (r *AssetRepo) GetByTag(ctx context.Context, agencyID int, tag string) (models.Asset, error) {
	return r.scanAsset(r.db.QueryRowContext(ctx,
		`SELECT `+assetColumns+` FROM assets WHERE agency_id = $1 AND LOWER(asset_tag) = LOWER($2)`,
		agencyID, tag,
	))
}

// TagExists reports whether the tag is already taken within the agency.
func (r *AssetRepo) TagExists(ctx context.Context, agencyID int, tag string) (bool, error) {
	var exists bool
	err := r.db.QueryRowContext(ctx,
		`SELECT EXISTS(SELECT 1 FROM assets WHERE agency_id = $1 AND asset_tag = $2)`,
		agencyID, tag,
	).Scan(&exists)
	return exists, err
}

// ========================
// STATUS TRANSITIONS
// ========================

// SetAssigned marks the asset assigned to a holder.
func (r *AssetRepo) SetAssigned(ctx context.Context, id, holderID int) error {
	_, err := r.db.ExecContext(ctx,
		`UPDATE assets SET status = $1, current_holder_id = $2 WHERE id = $3`,
		models.AssetAssigned, holderID, id,
	)
	return err
}

// SetAvailable puts the asset back into the pool and clears the holder.
func (r *AssetRepo) SetAvailable(ctx context.Context, id int) error {
	_, err := r.db.ExecContext(ctx,
		`UPDATE assets SET status = $1, current_holder_id = NULL WHERE id = $2`,
		models.AssetAvailable, id,
	)
	return err
}

// SetRetired marks the asset retired (terminal) and clears the holder.
func (r *AssetRepo) SetRetired(ctx context.Context, id int, retiredAt time.Time) error {
	_, err := r.db.ExecContext(ctx,
		`UPDATE assets SET status = $1, current_holder_id = NULL, retired_at = $2 WHERE id = $3`,
		models.AssetRetired, retiredAt, id,
	)
	return err
}

// SetQRPayload stores the QR payload built after registration assigns the id.
func (r *AssetRepo) SetQRPayload(ctx context.Context, id int, payload string) error {
	_, err := r.db.ExecContext(ctx,
		`UPDATE assets SET qr_payload = $1 WHERE id = $2`,
		payload, id,
	)
	return err
}

// Update writes the mutable registry fields after an approved change request.
func (r *AssetRepo) Update(ctx context.Context, a models.Asset) (models.Asset, error) {
	return r.scanAsset(r.db.QueryRowContext(ctx,
		`UPDATE assets
		 SET category_id = $1, unit_id = $2, name = $3, serial_number = $4,
		     asset_tag = $5, status = $6, current_holder_id = $7, acquired_at = $8
		 WHERE id = $9
		 RETURNING `+assetColumns,
		a.CategoryID, a.UnitID, a.Name, a.SerialNumber,
		a.AssetTag, a.Status, a.CurrentHolderID, a.AcquiredAt, a.ID,
	))
}

// ========================
// LISTS
// ========================

// ListFilter narrows List; zero values mean "no filter". Assigned is a
// tri-state: nil ignores holder, true/false filter on holder presence.
type ListFilter struct {
	Status     string
	CategoryID int
	UnitID     int
	HolderID   int
	Assigned   *bool
	Limit      int
	Offset     int
}

func (r *AssetRepo) List(ctx context.Context, agencyID int, f ListFilter) ([]models.Asset, error) {
	query := `SELECT ` + assetColumns + ` FROM assets WHERE agency_id = $1`
	args := []any{agencyID}

	add := func(clause string, v any) {
		args = append(args, v)
		query += fmt.Sprintf(" AND %s = $%d", clause, len(args))
	}
	if f.Status != "" {
		add("status", f.Status)
	}
	if f.CategoryID != 0 {
		add("category_id", f.CategoryID)
	}
	if f.UnitID != 0 {
		add("unit_id", f.UnitID)
	}
	if f.HolderID != 0 {
		add("current_holder_id", f.HolderID)
	}
	if f.Assigned != nil {
		if *f.Assigned {
			query += " AND current_holder_id IS NOT NULL"
		} else {
			query += " AND current_holder_id IS NULL"
		}
	}
	query += " ORDER BY id"
	if f.Limit > 0 {
		args = append(args, f.Limit, f.Offset)
		query += fmt.Sprintf(" LIMIT $%d OFFSET $%d", len(args)-1, len(args))
	}
	return r.list(ctx, query, args...)
}

// ListHeldBy returns the assets currently assigned to a user, locked for the
// enclosing transaction (the offboarding cascade mutates them).
func (r *AssetRepo) ListHeldBy(ctx context.Context, agencyID, holderID int) ([]models.Asset, error) {
	return r.list(ctx,
		`SELECT `+assetColumns+` FROM assets
		 WHERE agency_id = $1 AND current_holder_id = $2 AND status = $3
		 ORDER BY id FOR UPDATE`,
		agencyID, holderID, models.AssetAssigned,
	)
}

// ListEOLDue returns non-retired assets whose end-of-life date has passed.
func (r *AssetRepo) ListEOLDue(ctx context.Context, agencyID int, now time.Time) ([]models.Asset, error) {
	return r.list(ctx,
		`SELECT `+assetColumns+` FROM assets
		 WHERE agency_id = $1 AND eol_due_date IS NOT NULL AND eol_due_date <= $2 AND status <> $3
		 ORDER BY eol_due_date`,
		agencyID, now, models.AssetRetired,
	)
}

// CountsByStatus aggregates the agency's assets per lifecycle status.
func (r *AssetRepo) CountsByStatus(ctx context.Context, agencyID int) (map[string]int, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT status, COUNT(*) FROM assets WHERE agency_id = $1 GROUP BY status`,
		agencyID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	counts := make(map[string]int)
	for rows.Next() {
		var status string
		var n int
		if err := rows.Scan(&status, &n); err != nil {
			return nil, err
		}
		counts[status] = n
	}
	return counts, rows.Err()
}

// CountsByCategory aggregates the agency's assets per category name.
func (r *AssetRepo) CountsByCategory(ctx context.Context, agencyID int) (map[string]int, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT c.name, COUNT(*) FROM assets a
		 JOIN asset_categories c ON c.id = a.category_id
		 WHERE a.agency_id = $1 GROUP BY c.name`,
		agencyID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	counts := make(map[string]int)
	for rows.Next() {
		var name string
		var n int
		if err := rows.Scan(&name, &n); err != nil {
			return nil, err
		}
		counts[name] = n
	}
	return counts, rows.Err()
}

func (r *AssetRepo) list(ctx context.Context, query string, args ...any) ([]models.Asset, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var assets []models.Asset
	for rows.Next() {
		a, err := r.scanAsset(rows)
		if err != nil {
			return nil, err
		}
		assets = append(assets, a)
	}
	return assets, rows.Err()
}

// IsUniqueViolation reports whether err is a postgres unique-constraint error
// on one of the named constraints (any constraint when none given).
func IsUniqueViolation(err error, constraints ...string) bool {
	var pqErr *pq.Error
	if !errors.As(err, &pqErr) || pqErr.Code != "23505" {
		return false
	}
	if len(constraints) == 0 {
		return true
	}
	for _, c := range constraints {
		if pqErr.Constraint == c {
			return true
		}
	}
	return false
}
