package repo

import (
	"context"
	"database/sql"
	"errors"

	"github.com/crucial707/asset-lifecycle/internal/models"
)

// ========================
// AGENCY REPO
// ========================

type AgencyRepo struct {
	db DBTX
}

func NewAgencyRepo(db DBTX) *AgencyRepo {
	return &AgencyRepo{db: db}
}

func (r *AgencyRepo) Get(ctx context.Context, id int) (models.Agency, error) {
	var a models.Agency
	err := r.db.QueryRowContext(ctx,
		`SELECT id, name, code FROM agencies WHERE id = $1`, id,
	).Scan(&a.ID, &a.Name, &a.Code)
	return a, err
}

// GetConfig returns the agency service toggles, falling back to defaults when
// no row exists yet (mirrors the get-or-create the original portal does).
func (r *AgencyRepo) GetConfig(ctx context.Context, agencyID int) (models.AgencyConfig, error) {
	cfg := models.AgencyConfig{
		AgencyID:               agencyID,
		AssetMgmtEnabled:       true,
		RequireManagerApproval: true,
		TagAutoGenerate:        true,
		TagPrefix:              "AST-",
		TagLength:              6,
	}
	err := r.db.QueryRowContext(ctx,
		`SELECT asset_mgmt_enabled, require_manager_approval, asset_tag_auto_generate,
		        asset_tag_prefix, asset_tag_length, asset_qr_include_url
		 FROM agency_configs WHERE agency_id = $1`, agencyID,
	).Scan(&cfg.AssetMgmtEnabled, &cfg.RequireManagerApproval, &cfg.TagAutoGenerate,
		&cfg.TagPrefix, &cfg.TagLength, &cfg.QRIncludeURL)
	if errors.Is(err, sql.ErrNoRows) {
		return cfg, nil
	}
	return cfg, err
}

// GetAssetRoles returns the per-agency role singleton. A missing row means no
// operations manager and no custodians, which is a valid (if unusable) state.
func (r *AgencyRepo) GetAssetRoles(ctx context.Context, agencyID int) (models.AgencyAssetRoles, error) {
	roles := models.AgencyAssetRoles{AgencyID: agencyID}

	err := r.db.QueryRowContext(ctx,
		`SELECT operations_manager_id FROM agency_asset_roles WHERE agency_id = $1`,
		agencyID,
	).Scan(&roles.OperationsManagerID)
	if err != nil && !errors.Is(err, sql.ErrNoRows) {
		return roles, err
	}

	roles.CustodianIDs, err = r.listRoleMembers(ctx,
		`SELECT user_id FROM agency_custodians WHERE agency_id = $1 ORDER BY user_id`, agencyID)
	if err != nil {
		return roles, err
	}

	roles.LineProviderContactIDs, err = r.listRoleMembers(ctx,
		`SELECT user_id FROM agency_line_contacts WHERE agency_id = $1 ORDER BY user_id`, agencyID)
	return roles, err
}

func (r *AgencyRepo) listRoleMembers(ctx context.Context, query string, agencyID int) ([]int, error) {
	rows, err := r.db.QueryContext(ctx, query, agencyID)
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

// ========================
// CATEGORIES
// ========================

// ListIDs returns every agency id. Used by the end-of-life sweep.
func (r *AgencyRepo) ListIDs(ctx context.Context) ([]int, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT id FROM agencies ORDER BY id`)
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

func (r *AgencyRepo) GetCategory(ctx context.Context, agencyID, categoryID int) (models.AssetCategory, error) {
	var c models.AssetCategory
	err := r.db.QueryRowContext(ctx,
		`SELECT id, agency_id, name FROM asset_categories WHERE id = $1 AND agency_id = $2`,
		categoryID, agencyID,
	).Scan(&c.ID, &c.AgencyID, &c.Name)
	return c, err
}

func (r *AgencyRepo) ListCategories(ctx context.Context, agencyID int) ([]models.AssetCategory, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, agency_id, name FROM asset_categories WHERE agency_id = $1 ORDER BY name`,
		agencyID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var cats []models.AssetCategory
	for rows.Next() {
		var c models.AssetCategory
		if err := rows.Scan(&c.ID, &c.AgencyID, &c.Name); err != nil {
			return nil, err
		}
		cats = append(cats, c)
	}
	return cats, rows.Err()
}
