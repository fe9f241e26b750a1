package workflow

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"

	"github.com/crucial707/asset-lifecycle/internal/metrics"
	"github.com/crucial707/asset-lifecycle/internal/models"
	"github.com/crucial707/asset-lifecycle/internal/notify"
	"github.com/crucial707/asset-lifecycle/internal/repo"
)

// Service carries the asset lifecycle workflows. Every state-mutating
// operation runs inside one transaction spanning the entity write, any
// cross-entity writes it triggers, and the history append; notifications go
// out only after commit and never roll anything back.
type Service struct {
	DB       *sql.DB
	Notifier notify.Notifier

	// PortalBaseURL is embedded in QR payloads when the agency opts in.
	PortalBaseURL string
}

func New(db *sql.DB, notifier notify.Notifier, portalBaseURL string) *Service {
	return &Service{DB: db, Notifier: notifier, PortalBaseURL: portalBaseURL}
}

// inTx runs fn inside one transaction; any error rolls everything back.
func (s *Service) inTx(ctx context.Context, fn func(tx *sql.Tx) error) error {
	tx, err := s.DB.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	if err := fn(tx); err != nil {
		return err
	}
	return tx.Commit()
}

// actorAgency extracts the actor's agency id, the tenant scope for every
// operation.
func actorAgency(actor models.User) (int, error) {
	if actor.AgencyID == nil {
		return 0, fmt.Errorf("%w: user is not assigned to an agency", ErrValidation)
	}
	return *actor.AgencyID, nil
}

// requireEnabled rejects operations for agencies where asset management is
// switched off. Superusers pass.
func requireEnabled(ctx context.Context, q repo.DBTX, agencyID int, actor models.User) (models.AgencyConfig, error) {
	cfg, err := repo.NewAgencyRepo(q).GetConfig(ctx, agencyID)
	if err != nil {
		return cfg, err
	}
	if !cfg.AssetMgmtEnabled && !actor.IsSuperuser {
		return cfg, fmt.Errorf("%w: asset management is not enabled for this agency", ErrValidation)
	}
	return cfg, nil
}

// assetContext loads the rows the role resolver needs for an asset: its unit
// (nil when unassigned) and the agency role singleton.
func assetContext(ctx context.Context, q repo.DBTX, asset models.Asset) (*models.Unit, models.AgencyAssetRoles, error) {
	unit, err := repo.NewUnitRepo(q).GetOptional(ctx, asset.AgencyID, asset.UnitID)
	if err != nil {
		return nil, models.AgencyAssetRoles{}, err
	}
	agencyRoles, err := repo.NewAgencyRepo(q).GetAssetRoles(ctx, asset.AgencyID)
	if err != nil {
		return nil, models.AgencyAssetRoles{}, err
	}
	return unit, agencyRoles, nil
}

func notFoundOr(err error, what string) error {
	if errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("%w: %s", ErrNotFound, what)
	}
	return err
}

// record feeds the transition counter once the transaction has resolved.
func record(entity, action string, err error) {
	metrics.RecordTransition(entity, action, outcomeLabel(err))
}

func outcomeLabel(err error) string {
	switch {
	case err == nil:
		return "ok"
	case errors.Is(err, ErrValidation), errors.Is(err, ErrTagExhausted):
		return "validation"
	case errors.Is(err, ErrNotAllowed):
		return "unauthorized"
	case errors.Is(err, ErrStateConflict):
		return "conflict"
	case errors.Is(err, ErrNotFound):
		return "not_found"
	default:
		return "error"
	}
}

// ========================
// NOTIFICATION DISPATCH
// ========================

// notifyUsers resolves recipient ids to emails and hands the message to the
// async notifier. Fire and forget: failures are logged, never propagated.
func (s *Service) notifyUsers(ctx context.Context, subject string, recipientIDs []int, template string, data map[string]any) {
	if s.Notifier == nil || len(recipientIDs) == 0 {
		return
	}
	emails, err := repo.NewUserRepo(s.DB).Emails(ctx, dedupe(recipientIDs))
	if err != nil {
		slog.Warn("notify: resolve recipients", "err", err)
		return
	}
	if len(emails) == 0 {
		return
	}
	s.Notifier.Send(notify.Message{
		Subject:  subject,
		To:       emails,
		Template: template,
		Context:  data,
	})
}

// managerIDsForUnit resolves who approves for a unit context: operations
// manager for centrally managed (nil or core unit), unit head plus asset
// managers otherwise.
func managerIDsForUnit(unit *models.Unit, agencyRoles models.AgencyAssetRoles) []int {
	if unit == nil || unit.IsCoreUnit {
		if agencyRoles.OperationsManagerID != nil {
			return []int{*agencyRoles.OperationsManagerID}
		}
		return nil
	}
	var ids []int
	if unit.UnitHeadID != nil {
		ids = append(ids, *unit.UnitHeadID)
	}
	ids = append(ids, unit.AssetManagerIDs...)
	return ids
}

// custodianIDs returns the listed ICT custodians plus the agency's ict_focal
// users, who receive custodian traffic as well.
func (s *Service) custodianIDs(ctx context.Context, agencyID int, agencyRoles models.AgencyAssetRoles) []int {
	ids := append([]int{}, agencyRoles.CustodianIDs...)
	focal, err := repo.NewUserRepo(s.DB).ICTFocalIDs(ctx, agencyID)
	if err != nil {
		slog.Warn("notify: list ict focal users", "err", err)
		return ids
	}
	return append(ids, focal...)
}

func dedupe(ids []int) []int {
	seen := make(map[int]bool, len(ids))
	var out []int
	for _, id := range ids {
		if !seen[id] {
			seen[id] = true
			out = append(out, id)
		}
	}
	return out
}
