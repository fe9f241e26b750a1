package repo

import (
	"context"

	"github.com/crucial707/asset-lifecycle/internal/models"
)

// ========================
// ASSET REQUEST REPO
// ========================

type RequestRepo struct {
	db DBTX
}

func NewRequestRepo(db DBTX) *RequestRepo {
	return &RequestRepo{db: db}
}

const requestColumns = `id, agency_id, requester_id, unit_id, category_id, justification,
	status, assigned_asset_id, approver_id, COALESCE(rejection_reason, ''), created_at, updated_at`

func (r *RequestRepo) scanRequest(row interface{ Scan(...any) error }) (models.AssetRequest, error) {
	var q models.AssetRequest
	err := row.Scan(&q.ID, &q.AgencyID, &q.RequesterID, &q.UnitID, &q.CategoryID,
		&q.Justification, &q.Status, &q.AssignedAssetID, &q.ApproverID,
		&q.RejectionReason, &q.CreatedAt, &q.UpdatedAt)
	return q, err
}

func (r *RequestRepo) Create(ctx context.Context, q models.AssetRequest) (models.AssetRequest, error) {
	return r.scanRequest(r.db.QueryRowContext(ctx,
		`INSERT INTO asset_requests (agency_id, requester_id, unit_id, category_id, justification, status)
		 VALUES ($1, $2, $3, $4, $5, $6)
		 RETURNING `+requestColumns,
		q.AgencyID, q.RequesterID, q.UnitID, q.CategoryID, q.Justification, q.Status,
	))
}

func (r *RequestRepo) Get(ctx context.Context, agencyID, id int) (models.AssetRequest, error) {
	return r.scanRequest(r.db.QueryRowContext(ctx,
		`SELECT `+requestColumns+` FROM asset_requests WHERE id = $1 AND agency_id = $2`,
		id, agencyID,
	))
}

// GetForUpdate locks the request row for the enclosing transaction.
func (r *RequestRepo) GetForUpdate(ctx context.Context, agencyID, id int) (models.AssetRequest, error) {
	return r.scanRequest(r.db.QueryRowContext(ctx,
		`SELECT `+requestColumns+` FROM asset_requests WHERE id = $1 AND agency_id = $2 FOR UPDATE`,
		id, agencyID,
	))
}

// SetStatus moves the request to a new status, recording who acted.
func (r *RequestRepo) SetStatus(ctx context.Context, id int, status string, approverID *int) error {
	_, err := r.db.ExecContext(ctx,
		`UPDATE asset_requests SET status = $1, approver_id = COALESCE($2, approver_id), updated_at = NOW()
		 WHERE id = $3`,
		status, approverID, id,
	)
	return err
}

// SetRejected records the mandatory rejection reason alongside the terminal state.
func (r *RequestRepo) SetRejected(ctx context.Context, id, approverID int, reason string) error {
	_, err := r.db.ExecContext(ctx,
		`UPDATE asset_requests SET status = $1, approver_id = $2, rejection_reason = $3, updated_at = NOW()
		 WHERE id = $4`,
		models.RequestRejected, approverID, reason, id,
	)
	return err
}

// SetAssigned links the chosen asset and moves the request to assigned.
func (r *RequestRepo) SetAssigned(ctx context.Context, id, assetID int) error {
	_, err := r.db.ExecContext(ctx,
		`UPDATE asset_requests SET status = $1, assigned_asset_id = $2, updated_at = NOW()
		 WHERE id = $3`,
		models.RequestAssigned, assetID, id,
	)
	return err
}

// ListByRequester returns the user's own requests, newest first.
func (r *RequestRepo) ListByRequester(ctx context.Context, agencyID, requesterID int) ([]models.AssetRequest, error) {
	return r.list(ctx,
		`SELECT `+requestColumns+` FROM asset_requests
		 WHERE agency_id = $1 AND requester_id = $2 ORDER BY created_at DESC`,
		agencyID, requesterID,
	)
}

// ListByStatus returns agency requests in a given status, oldest first (queue order).
func (r *RequestRepo) ListByStatus(ctx context.Context, agencyID int, status string) ([]models.AssetRequest, error) {
	return r.list(ctx,
		`SELECT `+requestColumns+` FROM asset_requests
		 WHERE agency_id = $1 AND status = $2 ORDER BY created_at`,
		agencyID, status,
	)
}

func (r *RequestRepo) list(ctx context.Context, query string, args ...any) ([]models.AssetRequest, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []models.AssetRequest
	for rows.Next() {
		q, err := r.scanRequest(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, q)
	}
	return out, rows.Err()
}
