package repo

import (
	"context"
	"time"

	"github.com/crucial707/asset-lifecycle/internal/models"
)

// ========================
// EXIT REQUEST REPO
// ========================

type ExitRepo struct {
	db DBTX
}

func NewExitRepo(db DBTX) *ExitRepo {
	return &ExitRepo{db: db}
}

func (r *ExitRepo) Create(ctx context.Context, e models.ExitRequest) (models.ExitRequest, error) {
	err := r.db.QueryRowContext(ctx,
		`INSERT INTO exit_requests (agency_id, user_id, reason, status)
		 VALUES ($1, $2, $3, $4)
		 RETURNING id, created_at`,
		e.AgencyID, e.UserID, e.Reason, e.Status,
	).Scan(&e.ID, &e.CreatedAt)
	return e, err
}

// HasActiveForUser reports whether the user already has a non-cleared exit.
func (r *ExitRepo) HasActiveForUser(ctx context.Context, agencyID, userID int) (bool, error) {
	var exists bool
	err := r.db.QueryRowContext(ctx,
		`SELECT EXISTS(SELECT 1 FROM exit_requests
		 WHERE agency_id = $1 AND user_id = $2 AND status IN ($3, $4))`,
		agencyID, userID, models.ExitPendingReturns, models.ExitPendingICTConfirmation,
	).Scan(&exists)
	return exists, err
}

// ClearForUser advances any active exit requests of the user to cleared. Used
// by the return workflow when the user's last open return reaches a terminal
// state. Returns the number of rows advanced.
func (r *ExitRepo) ClearForUser(ctx context.Context, agencyID, userID int, clearedAt time.Time) (int64, error) {
	res, err := r.db.ExecContext(ctx,
		`UPDATE exit_requests SET status = $1, cleared_at = $2
		 WHERE agency_id = $3 AND user_id = $4 AND status IN ($5, $6)`,
		models.ExitCleared, clearedAt, agencyID, userID,
		models.ExitPendingReturns, models.ExitPendingICTConfirmation,
	)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

// ========================
// COMMUNICATION LINE REPO
// ========================

type CommLineRepo struct {
	db DBTX
}

func NewCommLineRepo(db DBTX) *CommLineRepo {
	return &CommLineRepo{db: db}
}

const lineColumns = `id, agency_id, number, COALESCE(provider, ''), assigned_to_id, status, created_at`

// ListAssignedTo returns the user's active lines, locked for the enclosing
// transaction (the offboarding cascade suspends them).
func (r *CommLineRepo) ListAssignedTo(ctx context.Context, agencyID, userID int) ([]models.CommLine, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+lineColumns+` FROM comm_lines
		 WHERE agency_id = $1 AND assigned_to_id = $2 AND status = $3
		 ORDER BY id FOR UPDATE`,
		agencyID, userID, models.LineAssigned,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var lines []models.CommLine
	for rows.Next() {
		var l models.CommLine
		if err := rows.Scan(&l.ID, &l.AgencyID, &l.Number, &l.Provider,
			&l.AssignedToID, &l.Status, &l.CreatedAt); err != nil {
			return nil, err
		}
		lines = append(lines, l)
	}
	return lines, rows.Err()
}

// Suspend moves a line to suspended; the assignment stays so the provider
// focal point can see whose line it was.
func (r *CommLineRepo) Suspend(ctx context.Context, id int) error {
	_, err := r.db.ExecContext(ctx,
		`UPDATE comm_lines SET status = $1 WHERE id = $2`,
		models.LineSuspended, id,
	)
	return err
}
