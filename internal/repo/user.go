package repo

import (
	"context"

	"github.com/crucial707/asset-lifecycle/internal/models"
)

// ==========================
// UserRepo
// ==========================
type UserRepo struct {
	db DBTX
}

func NewUserRepo(db DBTX) *UserRepo {
	return &UserRepo{db: db}
}

const userColumns = `id, username, email, COALESCE(password_hash, ''), role, agency_id, unit_id, is_superuser`

func (r *UserRepo) scanUser(row interface{ Scan(...any) error }) (models.User, error) {
	var u models.User
	err := row.Scan(&u.ID, &u.Username, &u.Email, &u.PasswordHash, &u.Role,
		&u.AgencyID, &u.UnitID, &u.IsSuperuser)
	return u, err
}

// ==========================
// Create User
// ==========================
func (r *UserRepo) Create(ctx context.Context, username, email, passwordHash string, agencyID *int) (models.User, error) {
	return r.scanUser(r.db.QueryRowContext(ctx,
		`INSERT INTO users (username, email, password_hash, role, agency_id)
		 VALUES ($1, $2, $3, $4, $5)
		 RETURNING `+userColumns,
		username, email, passwordHash, models.RoleRequester, agencyID,
	))
}

// ==========================
// Get By ID
// ==========================
func (r *UserRepo) GetByID(ctx context.Context, id int) (models.User, error) {
	return r.scanUser(r.db.QueryRowContext(ctx,
		`SELECT `+userColumns+` FROM users WHERE id = $1`, id,
	))
}

// ==========================
// Get By Username
// ==========================
func (r *UserRepo) GetByUsername(ctx context.Context, username string) (models.User, error) {
	return r.scanUser(r.db.QueryRowContext(ctx,
		`SELECT `+userColumns+` FROM users WHERE username = $1`, username,
	))
}

// ==========================
// Emails for notification recipients
// ==========================

// Emails resolves user ids to their non-empty email addresses, preserving the
// input order and dropping duplicates. Used only for notification dispatch.
func (r *UserRepo) Emails(ctx context.Context, ids []int) ([]string, error) {
	seen := make(map[string]bool, len(ids))
	var out []string
	for _, id := range ids {
		var email string
		err := r.db.QueryRowContext(ctx,
			`SELECT COALESCE(email, '') FROM users WHERE id = $1`, id,
		).Scan(&email)
		if err != nil {
			continue
		}
		if email == "" || seen[email] {
			continue
		}
		seen[email] = true
		out = append(out, email)
	}
	return out, nil
}

// ICTFocalIDs returns users carrying the ict_focal role within the agency.
func (r *UserRepo) ICTFocalIDs(ctx context.Context, agencyID int) ([]int, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id FROM users WHERE agency_id = $1 AND role = $2 ORDER BY id`,
		agencyID, models.RoleICTFocal,
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
