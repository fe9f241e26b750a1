package workflow

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/crucial707/asset-lifecycle/internal/repo"
)

// SweepEOL walks every agency and notifies its custodians about non-retired
// assets whose end-of-life date has passed. Read-only: nothing changes state,
// retirement stays a deliberate custodian action.
func (s *Service) SweepEOL(ctx context.Context, now time.Time) error {
	agencyRepo := repo.NewAgencyRepo(s.DB)
	assetRepo := repo.NewAssetRepo(s.DB)

	agencyIDs, err := agencyRepo.ListIDs(ctx)
	if err != nil {
		return fmt.Errorf("eol sweep: list agencies: %w", err)
	}

	for _, agencyID := range agencyIDs {
		due, err := assetRepo.ListEOLDue(ctx, agencyID, now)
		if err != nil {
			slog.Error("eol sweep: list due assets", "agency_id", agencyID, "err", err)
			continue
		}
		if len(due) == 0 {
			continue
		}

		agencyRoles, err := agencyRepo.GetAssetRoles(ctx, agencyID)
		if err != nil {
			slog.Error("eol sweep: load agency roles", "agency_id", agencyID, "err", err)
			continue
		}

		items := make([]map[string]any, 0, len(due))
		for _, a := range due {
			items = append(items, map[string]any{
				"asset_id":     a.ID,
				"name":         a.Name,
				"asset_tag":    a.AssetTag,
				"status":       a.Status,
				"eol_due_date": a.EOLDueDate,
			})
		}

		s.notifyUsers(ctx,
			fmt.Sprintf("%d assets past end of life", len(due)),
			s.custodianIDs(ctx, agencyID, agencyRoles),
			"assets/eol_due", map[string]any{
				"agency_id": agencyID,
				"assets":    items,
			})
	}
	return nil
}
