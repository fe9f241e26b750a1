package repo

import (
	"context"
	"time"

	"github.com/crucial707/asset-lifecycle/internal/models"
)

// ========================
// RETURN REQUEST REPO
// ========================

type ReturnRepo struct {
	db DBTX
}

func NewReturnRepo(db DBTX) *ReturnRepo {
	return &ReturnRepo{db: db}
}

const returnColumns = `id, agency_id, asset_id, requested_by_id, COALESCE(reason, ''),
	status, verified_by_id, verified_at, COALESCE(verification_note, ''), created_at`

func (r *ReturnRepo) scanReturn(row interface{ Scan(...any) error }) (models.AssetReturnRequest, error) {
	var rr models.AssetReturnRequest
	err := row.Scan(&rr.ID, &rr.AgencyID, &rr.AssetID, &rr.RequestedByID, &rr.Reason,
		&rr.Status, &rr.VerifiedByID, &rr.VerifiedAt, &rr.VerificationNote, &rr.CreatedAt)
	return rr, err
}

func (r *ReturnRepo) Create(ctx context.Context, rr models.AssetReturnRequest) (models.AssetReturnRequest, error) {
	return r.scanReturn(r.db.QueryRowContext(ctx,
		`INSERT INTO asset_return_requests (agency_id, asset_id, requested_by_id, reason, status)
		 VALUES ($1, $2, $3, $4, $5)
		 RETURNING `+returnColumns,
		rr.AgencyID, rr.AssetID, rr.RequestedByID, rr.Reason, rr.Status,
	))
}

func (r *ReturnRepo) Get(ctx context.Context, agencyID, id int) (models.AssetReturnRequest, error) {
	return r.scanReturn(r.db.QueryRowContext(ctx,
		`SELECT `+returnColumns+` FROM asset_return_requests WHERE id = $1 AND agency_id = $2`,
		id, agencyID,
	))
}

// GetForUpdate locks the return row for the enclosing transaction.
func (r *ReturnRepo) GetForUpdate(ctx context.Context, agencyID, id int) (models.AssetReturnRequest, error) {
	return r.scanReturn(r.db.QueryRowContext(ctx,
		`SELECT `+returnColumns+` FROM asset_return_requests WHERE id = $1 AND agency_id = $2 FOR UPDATE`,
		id, agencyID,
	))
}

// HasOpenForAsset reports whether a non-terminal return request already exists
// for the asset. A partial unique index backs this same invariant in the
// schema, so a concurrent initiate loses on insert even if it passes here.
func (r *ReturnRepo) HasOpenForAsset(ctx context.Context, agencyID, assetID int) (bool, error) {
	var exists bool
	err := r.db.QueryRowContext(ctx,
		`SELECT EXISTS(SELECT 1 FROM asset_return_requests
		 WHERE agency_id = $1 AND asset_id = $2 AND status IN ($3, $4))`,
		agencyID, assetID, models.ReturnPendingICT, models.ReturnInTransit,
	).Scan(&exists)
	return exists, err
}

// HasOpenForUser reports whether the user still has any non-terminal return
// request. The offboarding cascade clears the exit once this goes false.
func (r *ReturnRepo) HasOpenForUser(ctx context.Context, agencyID, userID int) (bool, error) {
	var exists bool
	err := r.db.QueryRowContext(ctx,
		`SELECT EXISTS(SELECT 1 FROM asset_return_requests
		 WHERE agency_id = $1 AND requested_by_id = $2 AND status IN ($3, $4))`,
		agencyID, userID, models.ReturnPendingICT, models.ReturnInTransit,
	).Scan(&exists)
	return exists, err
}

// SetReceived records custodian verification and the terminal received state.
func (r *ReturnRepo) SetReceived(ctx context.Context, id, verifiedByID int, verifiedAt time.Time, note string) error {
	_, err := r.db.ExecContext(ctx,
		`UPDATE asset_return_requests
		 SET status = $1, verified_by_id = $2, verified_at = $3, verification_note = $4
		 WHERE id = $5`,
		models.ReturnReceived, verifiedByID, verifiedAt, note, id,
	)
	return err
}

// CancelOpenForAsset cancels any non-terminal return requests of the asset.
// Retirement calls this so a stale return cannot be verified afterwards.
// Returns the number of requests cancelled.
func (r *ReturnRepo) CancelOpenForAsset(ctx context.Context, agencyID, assetID int) (int64, error) {
	res, err := r.db.ExecContext(ctx,
		`UPDATE asset_return_requests SET status = $1
		 WHERE agency_id = $2 AND asset_id = $3 AND status IN ($4, $5)`,
		models.ReturnCancelled, agencyID, assetID,
		models.ReturnPendingICT, models.ReturnInTransit,
	)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

func (r *ReturnRepo) SetCancelled(ctx context.Context, id int) error {
	_, err := r.db.ExecContext(ctx,
		`UPDATE asset_return_requests SET status = $1 WHERE id = $2`,
		models.ReturnCancelled, id,
	)
	return err
}

// ListByStatus returns agency return requests in a status, oldest first.
func (r *ReturnRepo) ListByStatus(ctx context.Context, agencyID int, status string) ([]models.AssetReturnRequest, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+returnColumns+` FROM asset_return_requests
		 WHERE agency_id = $1 AND status = $2 ORDER BY created_at`,
		agencyID, status,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []models.AssetReturnRequest
	for rows.Next() {
		rr, err := r.scanReturn(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, rr)
	}
	return out, rows.Err()
}
