package repo

import (
	"context"
	"time"

	"github.com/crucial707/asset-lifecycle/internal/models"
)

// HistoryRepo persists the append-only asset ledger. Entries are only ever
// inserted; the workflows never read them back for decisions.
type HistoryRepo struct {
	db DBTX
}

func NewHistoryRepo(db DBTX) *HistoryRepo {
	return &HistoryRepo{db: db}
}

// Append records one lifecycle event for an asset.
func (r *HistoryRepo) Append(ctx context.Context, agencyID, assetID, actorID int, event, note string, meta models.Meta) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO asset_history (agency_id, asset_id, actor_id, event, note, meta)
		 VALUES ($1, $2, $3, $4, $5, $6)`,
		agencyID, assetID, actorID, event, note, meta,
	)
	return err
}

// ListForAsset returns ledger entries for one asset, newest first.
func (r *HistoryRepo) ListForAsset(ctx context.Context, agencyID, assetID, limit int) ([]models.AssetHistory, error) {
	return r.list(ctx,
		`SELECT id, agency_id, asset_id, actor_id, event, COALESCE(note, ''), meta, created_at
		 FROM asset_history WHERE agency_id = $1 AND asset_id = $2
		 ORDER BY created_at DESC LIMIT $3`,
		agencyID, assetID, limit,
	)
}

// ListForAgency returns agency-wide ledger entries within a date range, newest
// first. Zero times mean an open bound.
func (r *HistoryRepo) ListForAgency(ctx context.Context, agencyID int, from, to time.Time, limit, offset int) ([]models.AssetHistory, error) {
	if from.IsZero() {
		from = time.Unix(0, 0)
	}
	if to.IsZero() {
		to = time.Now().Add(24 * time.Hour)
	}
	return r.list(ctx,
		`SELECT id, agency_id, asset_id, actor_id, event, COALESCE(note, ''), meta, created_at
		 FROM asset_history
		 WHERE agency_id = $1 AND created_at >= $2 AND created_at <= $3
		 ORDER BY created_at DESC LIMIT $4 OFFSET $5`,
		agencyID, from, to, limit, offset,
	)
}

func (r *HistoryRepo) list(ctx context.Context, query string, args ...any) ([]models.AssetHistory, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var entries []models.AssetHistory
	for rows.Next() {
		var e models.AssetHistory
		if err := rows.Scan(&e.ID, &e.AgencyID, &e.AssetID, &e.ActorID, &e.Event,
			&e.Note, &e.Meta, &e.CreatedAt); err != nil {
			return nil, err
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}
