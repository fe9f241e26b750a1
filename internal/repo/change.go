package repo

import (
	"context"
	"time"

	"github.com/crucial707/asset-lifecycle/internal/models"
)

// ========================
// CHANGE REQUEST REPO
// ========================

type ChangeRepo struct {
	db DBTX
}

func NewChangeRepo(db DBTX) *ChangeRepo {
	return &ChangeRepo{db: db}
}

const changeColumns = `id, agency_id, asset_id, requested_by_id, proposed_changes,
	COALESCE(reason, ''), status, decided_by_id, COALESCE(decision_note, ''), decided_at, created_at`

func (r *ChangeRepo) scanChange(row interface{ Scan(...any) error }) (models.AssetChangeRequest, error) {
	var cr models.AssetChangeRequest
	err := row.Scan(&cr.ID, &cr.AgencyID, &cr.AssetID, &cr.RequestedByID, &cr.Proposed,
		&cr.Reason, &cr.Status, &cr.DecidedByID, &cr.DecisionNote, &cr.DecidedAt, &cr.CreatedAt)
	return cr, err
}

func (r *ChangeRepo) Create(ctx context.Context, cr models.AssetChangeRequest) (models.AssetChangeRequest, error) {
	return r.scanChange(r.db.QueryRowContext(ctx,
		`INSERT INTO asset_change_requests (agency_id, asset_id, requested_by_id, proposed_changes, reason, status)
		 VALUES ($1, $2, $3, $4, $5, $6)
		 RETURNING `+changeColumns,
		cr.AgencyID, cr.AssetID, cr.RequestedByID, cr.Proposed, cr.Reason, cr.Status,
	))
}

func (r *ChangeRepo) Get(ctx context.Context, agencyID, id int) (models.AssetChangeRequest, error) {
	return r.scanChange(r.db.QueryRowContext(ctx,
		`SELECT `+changeColumns+` FROM asset_change_requests WHERE id = $1 AND agency_id = $2`,
		id, agencyID,
	))
}

// GetForUpdate locks the change request row for the enclosing transaction.
func (r *ChangeRepo) GetForUpdate(ctx context.Context, agencyID, id int) (models.AssetChangeRequest, error) {
	return r.scanChange(r.db.QueryRowContext(ctx,
		`SELECT `+changeColumns+` FROM asset_change_requests WHERE id = $1 AND agency_id = $2 FOR UPDATE`,
		id, agencyID,
	))
}

// SetDecided moves the change request to approved/rejected/cancelled and
// records who decided and why.
func (r *ChangeRepo) SetDecided(ctx context.Context, id int, status string, decidedByID int, note string, decidedAt time.Time) error {
	_, err := r.db.ExecContext(ctx,
		`UPDATE asset_change_requests
		 SET status = $1, decided_by_id = $2, decision_note = $3, decided_at = $4
		 WHERE id = $5`,
		status, decidedByID, note, decidedAt, id,
	)
	return err
}

// ListForAsset returns the asset's change requests, newest first.
func (r *ChangeRepo) ListForAsset(ctx context.Context, agencyID, assetID, limit int) ([]models.AssetChangeRequest, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+changeColumns+` FROM asset_change_requests
		 WHERE agency_id = $1 AND asset_id = $2 ORDER BY created_at DESC LIMIT $3`,
		agencyID, assetID, limit,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []models.AssetChangeRequest
	for rows.Next() {
		cr, err := r.scanChange(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, cr)
	}
	return out, rows.Err()
}

// ListPending returns the agency's change requests awaiting a manager decision.
func (r *ChangeRepo) ListPending(ctx context.Context, agencyID int) ([]models.AssetChangeRequest, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+changeColumns+` FROM asset_change_requests
		 WHERE agency_id = $1 AND status = $2 ORDER BY created_at`,
		agencyID, models.ChangePendingManager,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []models.AssetChangeRequest
	for rows.Next() {
		cr, err := r.scanChange(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, cr)
	}
	return out, rows.Err()
}
