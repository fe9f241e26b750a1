package workflow

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/crucial707/asset-lifecycle/internal/models"
	"github.com/crucial707/asset-lifecycle/internal/repo"
)

// exitConfirmToken must be typed verbatim by the departing user. Guards
// against accidental submission of a bulk, hard-to-undo operation.
const exitConfirmToken = "CONFIRM"

// ExitResult reports what the cascade did.
type ExitResult struct {
	Exit           models.ExitRequest         `json:"exit_request"`
	ReturnRequests []models.AssetReturnRequest `json:"return_requests"`
	SuspendedLines []models.CommLine          `json:"suspended_lines"`
}

// ExitOrganization runs the offboarding cascade for the departing actor:
// within one transaction it records the exit, opens a return request for every
// asset the user holds (skipping assets that already have one open), and
// suspends the user's communication lines. Notifications go out after commit;
// line-provider contacts hear about it only when lines were actually
// suspended.
func (s *Service) ExitOrganization(ctx context.Context, actor models.User, reason, typedConfirm string) (ExitResult, error) {
	agencyID, err := actorAgency(actor)
	if err != nil {
		return ExitResult{}, err
	}
	if typedConfirm != exitConfirmToken {
		return ExitResult{}, fmt.Errorf("%w: type %s (in capital letters) to proceed", ErrValidation, exitConfirmToken)
	}
	if reason != models.ExitReasonResigned && reason != models.ExitReasonReassigned {
		return ExitResult{}, fmt.Errorf("%w: reason must be resigned or reassigned", ErrValidation)
	}

	var (
		result      ExitResult
		agencyRoles models.AgencyAssetRoles
		unit        *models.Unit
	)
	err = s.inTx(ctx, func(tx *sql.Tx) error {
		exits := repo.NewExitRepo(tx)
		active, err := exits.HasActiveForUser(ctx, agencyID, actor.ID)
		if err != nil {
			return err
		}
		if active {
			return fmt.Errorf("%w: an exit request is already in progress", ErrStateConflict)
		}

		result.Exit, err = exits.Create(ctx, models.ExitRequest{
			AgencyID: agencyID,
			UserID:   actor.ID,
			Reason:   reason,
			Status:   models.ExitPendingReturns,
		})
		if err != nil {
			return err
		}

		// one return request per held asset, honoring the at-most-one-open
		// invariant of the return workflow
		assets := repo.NewAssetRepo(tx)
		returns := repo.NewReturnRepo(tx)
		history := repo.NewHistoryRepo(tx)
		held, err := assets.ListHeldBy(ctx, agencyID, actor.ID)
		if err != nil {
			return err
		}
		for _, asset := range held {
			open, err := returns.HasOpenForAsset(ctx, agencyID, asset.ID)
			if err != nil {
				return err
			}
			if open {
				continue
			}
			rr, err := returns.Create(ctx, models.AssetReturnRequest{
				AgencyID:      agencyID,
				AssetID:       asset.ID,
				RequestedByID: actor.ID,
				Reason:        fmt.Sprintf("Exit organization (%s)", reason),
				Status:        models.ReturnPendingICT,
			})
			if err != nil {
				return err
			}
			result.ReturnRequests = append(result.ReturnRequests, rr)
			if err := history.Append(ctx, agencyID, asset.ID, actor.ID,
				models.EventReturnInitiated, rr.Reason,
				models.Meta{"return_id": rr.ID, "exit_request_id": result.Exit.ID}); err != nil {
				return err
			}
		}

		// parallel resource: suspend active communication lines
		lines := repo.NewCommLineRepo(tx)
		assigned, err := lines.ListAssignedTo(ctx, agencyID, actor.ID)
		if err != nil {
			return err
		}
		for _, line := range assigned {
			if err := lines.Suspend(ctx, line.ID); err != nil {
				return err
			}
			line.Status = models.LineSuspended
			result.SuspendedLines = append(result.SuspendedLines, line)
		}

		// a user holding nothing and owing no returns has nothing blocking
		// clearance; close the exit immediately
		if len(result.ReturnRequests) == 0 {
			open, err := returns.HasOpenForUser(ctx, agencyID, actor.ID)
			if err != nil {
				return err
			}
			if !open {
				if _, err := exits.ClearForUser(ctx, agencyID, actor.ID, result.Exit.CreatedAt); err != nil {
					return err
				}
				result.Exit.Status = models.ExitCleared
			}
		}

		unit, err = repo.NewUnitRepo(tx).GetOptional(ctx, agencyID, actor.UnitID)
		if err != nil {
			return err
		}
		agencyRoles, err = repo.NewAgencyRepo(tx).GetAssetRoles(ctx, agencyID)
		return err
	})
	record("exit", "submit", err)
	if err != nil {
		return ExitResult{}, err
	}

	// unit head + operations manager + custodians
	recipients := s.custodianIDs(ctx, agencyID, agencyRoles)
	if unit != nil && unit.UnitHeadID != nil {
		recipients = append(recipients, *unit.UnitHeadID)
	}
	if agencyRoles.OperationsManagerID != nil {
		recipients = append(recipients, *agencyRoles.OperationsManagerID)
	}
	s.notifyUsers(ctx,
		fmt.Sprintf("Exit Notice: %s (%s)", actor.Username, reason),
		recipients,
		"exit/exit_submitted",
		map[string]any{
			"exit_request_id": result.Exit.ID,
			"user_id":         actor.ID,
			"reason":          reason,
			"return_count":    len(result.ReturnRequests),
			"line_count":      len(result.SuspendedLines),
		},
	)

	if len(result.SuspendedLines) > 0 {
		s.notifyUsers(ctx,
			fmt.Sprintf("Action Required: Disable lines for %s", actor.Username),
			agencyRoles.LineProviderContactIDs,
			"exit/disable_lines",
			map[string]any{"exit_request_id": result.Exit.ID, "user_id": actor.ID, "line_count": len(result.SuspendedLines)},
		)
	}
	return result, nil
}
