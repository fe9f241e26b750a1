package repo

import (
	"context"
	"database/sql"
	"errors"

	"github.com/crucial707/asset-lifecycle/internal/models"
)

// ========================
// UNIT REPO
// ========================

type UnitRepo struct {
	db DBTX
}

func NewUnitRepo(db DBTX) *UnitRepo {
	return &UnitRepo{db: db}
}

// Get loads a unit with its asset manager set.
func (r *UnitRepo) Get(ctx context.Context, agencyID, unitID int) (models.Unit, error) {
	var u models.Unit
	err := r.db.QueryRowContext(ctx,
		`SELECT id, agency_id, name, unit_head_id, is_core_unit
		 FROM units WHERE id = $1 AND agency_id = $2`,
		unitID, agencyID,
	).Scan(&u.ID, &u.AgencyID, &u.Name, &u.UnitHeadID, &u.IsCoreUnit)
	if err != nil {
		return u, err
	}

	rows, err := r.db.QueryContext(ctx,
		`SELECT user_id FROM unit_asset_managers WHERE unit_id = $1 ORDER BY user_id`, unitID)
	if err != nil {
		return u, err
	}
	defer rows.Close()
	for rows.Next() {
		var id int
		if err := rows.Scan(&id); err != nil {
			return u, err
		}
		u.AssetManagerIDs = append(u.AssetManagerIDs, id)
	}
	return u, rows.Err()
}

// GetOptional is Get for nullable unit references: a nil id or a missing row
// both come back as nil without error.
func (r *UnitRepo) GetOptional(ctx context.Context, agencyID int, unitID *int) (*models.Unit, error) {
	if unitID == nil {
		return nil, nil
	}
	u, err := r.Get(ctx, agencyID, *unitID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &u, nil
}

// ManagedUnitIDs returns the units within the agency for which the user is
// unit head or an asset manager.
func (r *UnitRepo) ManagedUnitIDs(ctx context.Context, agencyID, userID int) ([]int, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id FROM units WHERE agency_id = $1 AND unit_head_id = $2
		 UNION
		 SELECT unit_id FROM unit_asset_managers m
		 JOIN units un ON un.id = m.unit_id
		 WHERE un.agency_id = $1 AND m.user_id = $2`,
		agencyID, userID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var ids []int
	for rows.Next() {
		var id int
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}
