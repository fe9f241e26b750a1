package repo

import (
	"context"

	"github.com/crucial707/asset-lifecycle/internal/models"
)

// VerificationRepo persists physical asset checks.
type VerificationRepo struct {
	db DBTX
}

func NewVerificationRepo(db DBTX) *VerificationRepo {
	return &VerificationRepo{db: db}
}

func (r *VerificationRepo) Create(ctx context.Context, v models.AssetVerification) (models.AssetVerification, error) {
	err := r.db.QueryRowContext(ctx,
		`INSERT INTO asset_verifications (agency_id, asset_id, verified_by_id, method, tag_entered, location, note)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)
		 RETURNING id, created_at`,
		v.AgencyID, v.AssetID, v.VerifiedByID, v.Method, v.TagEntered, v.Location, v.Note,
	).Scan(&v.ID, &v.CreatedAt)
	return v, err
}

// ListForAsset returns recent checks of one asset, newest first.
func (r *VerificationRepo) ListForAsset(ctx context.Context, agencyID, assetID, limit int) ([]models.AssetVerification, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, agency_id, asset_id, verified_by_id, method, tag_entered,
		        COALESCE(location, ''), COALESCE(note, ''), created_at
		 FROM asset_verifications
		 WHERE agency_id = $1 AND asset_id = $2 ORDER BY created_at DESC LIMIT $3`,
		agencyID, assetID, limit,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []models.AssetVerification
	for rows.Next() {
		var v models.AssetVerification
		if err := rows.Scan(&v.ID, &v.AgencyID, &v.AssetID, &v.VerifiedByID, &v.Method,
			&v.TagEntered, &v.Location, &v.Note, &v.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	return out, rows.Err()
}
