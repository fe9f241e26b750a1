package workflow

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/crucial707/asset-lifecycle/internal/models"
	"github.com/crucial707/asset-lifecycle/internal/repo"
	"github.com/crucial707/asset-lifecycle/internal/roles"
)

// ========================
// INITIATE RETURN
// ========================

// InitiateReturn opens a return request for an asset the actor currently
// holds. At most one non-terminal return may exist per asset; a duplicate is a
// state conflict.
func (s *Service) InitiateReturn(ctx context.Context, actor models.User, assetID int, reason string) (models.AssetReturnRequest, error) {
	agencyID, err := actorAgency(actor)
	if err != nil {
		return models.AssetReturnRequest{}, err
	}

	var (
		rr          models.AssetReturnRequest
		agencyRoles models.AgencyAssetRoles
	)
	err = s.inTx(ctx, func(tx *sql.Tx) error {
		if _, err := requireEnabled(ctx, tx, agencyID, actor); err != nil {
			return err
		}
		asset, err := repo.NewAssetRepo(tx).GetForUpdate(ctx, agencyID, assetID)
		if err != nil {
			return notFoundOr(err, "asset")
		}
		if (asset.CurrentHolderID == nil || *asset.CurrentHolderID != actor.ID) && !actor.IsSuperuser {
			return fmt.Errorf("%w: you can only return an asset assigned to you", ErrNotAllowed)
		}
		if asset.Status != models.AssetAssigned {
			return fmt.Errorf("%w: only assigned assets can be returned", ErrValidation)
		}

		returns := repo.NewReturnRepo(tx)
		open, err := returns.HasOpenForAsset(ctx, agencyID, asset.ID)
		if err != nil {
			return err
		}
		if open {
			return fmt.Errorf("%w: a return request is already pending for this asset", ErrStateConflict)
		}

		rr, err = returns.Create(ctx, models.AssetReturnRequest{
			AgencyID:      agencyID,
			AssetID:       asset.ID,
			RequestedByID: actor.ID,
			Reason:        strings.TrimSpace(reason),
			Status:        models.ReturnPendingICT,
		})
		if err != nil {
			if repo.IsUniqueViolation(err) {
				return fmt.Errorf("%w: a return request is already pending for this asset", ErrStateConflict)
			}
			return err
		}

		note := rr.Reason
		if note == "" {
			note = "Return initiated."
		}
		if err := repo.NewHistoryRepo(tx).Append(ctx, agencyID, asset.ID, actor.ID,
			models.EventReturnInitiated, note, models.Meta{"return_id": rr.ID}); err != nil {
			return err
		}
		agencyRoles, err = repo.NewAgencyRepo(tx).GetAssetRoles(ctx, agencyID)
		return err
	})
	record("return", "initiate", err)
	if err != nil {
		return models.AssetReturnRequest{}, err
	}

	s.notifyUsers(ctx,
		fmt.Sprintf("Asset Return #%d — Pending ICT Verification", rr.ID),
		s.custodianIDs(ctx, agencyID, agencyRoles),
		"assets/return_initiated",
		map[string]any{"return_id": rr.ID, "asset_id": rr.AssetID},
	)
	return rr, nil
}

// ========================
// CUSTODIAN VERIFY
// ========================

// VerifyReturnReceived restores the asset to the pool once a custodian has it
// back in hand. If this was the last open return of a user under an active
// exit request, the exit is advanced to cleared in the same transaction.
func (s *Service) VerifyReturnReceived(ctx context.Context, actor models.User, returnID int, note string) (models.AssetReturnRequest, error) {
	agencyID, err := actorAgency(actor)
	if err != nil {
		return models.AssetReturnRequest{}, err
	}

	var rr models.AssetReturnRequest
	err = s.inTx(ctx, func(tx *sql.Tx) error {
		if _, err := requireEnabled(ctx, tx, agencyID, actor); err != nil {
			return err
		}
		returns := repo.NewReturnRepo(tx)
		rr, err = returns.GetForUpdate(ctx, agencyID, returnID)
		if err != nil {
			return notFoundOr(err, "return request")
		}
		if !validTransition(returnTransitions, "verify_received", rr.Status) {
			return fmt.Errorf("%w: return request is %s", ErrStateConflict, rr.Status)
		}

		agencyRoles, err := repo.NewAgencyRepo(tx).GetAssetRoles(ctx, agencyID)
		if err != nil {
			return err
		}
		if !roles.IsCustodian(actor, agencyRoles) {
			return fmt.Errorf("%w: only an ICT custodian can verify returns", ErrNotAllowed)
		}

		assets := repo.NewAssetRepo(tx)
		asset, err := assets.GetForUpdate(ctx, agencyID, rr.AssetID)
		if err != nil {
			return notFoundOr(err, "asset")
		}
		if asset.Status == models.AssetRetired {
			return fmt.Errorf("%w: asset has been retired and cannot rejoin the pool", ErrStateConflict)
		}
		if err := assets.SetAvailable(ctx, asset.ID); err != nil {
			return err
		}

		now := time.Now()
		if err := returns.SetReceived(ctx, rr.ID, actor.ID, now, note); err != nil {
			return err
		}
		rr.Status = models.ReturnReceived
		rr.VerifiedByID = &actor.ID
		rr.VerifiedAt = &now
		rr.VerificationNote = note

		// exit clearing: last open return of a departing user clears the exit
		stillOpen, err := returns.HasOpenForUser(ctx, agencyID, rr.RequestedByID)
		if err != nil {
			return err
		}
		if !stillOpen {
			if _, err := repo.NewExitRepo(tx).ClearForUser(ctx, agencyID, rr.RequestedByID, now); err != nil {
				return err
			}
		}

		if note == "" {
			note = fmt.Sprintf("ICT verified receipt for return #%d. Asset returned to pool.", rr.ID)
		}
		return repo.NewHistoryRepo(tx).Append(ctx, agencyID, asset.ID, actor.ID,
			models.EventReturnReceived, note, models.Meta{"return_id": rr.ID})
	})
	record("return", "receive", err)
	if err != nil {
		return models.AssetReturnRequest{}, err
	}

	s.notifyUsers(ctx,
		fmt.Sprintf("Asset Return #%d — Received by ICT", rr.ID),
		[]int{rr.RequestedByID},
		"assets/return_received",
		map[string]any{"return_id": rr.ID, "asset_id": rr.AssetID},
	)
	return rr, nil
}

// ========================
// CANCEL RETURN
// ========================

// CancelReturn withdraws a return request before the custodian verifies it.
func (s *Service) CancelReturn(ctx context.Context, actor models.User, returnID int) (models.AssetReturnRequest, error) {
	agencyID, err := actorAgency(actor)
	if err != nil {
		return models.AssetReturnRequest{}, err
	}

	var rr models.AssetReturnRequest
	err = s.inTx(ctx, func(tx *sql.Tx) error {
		returns := repo.NewReturnRepo(tx)
		rr, err = returns.GetForUpdate(ctx, agencyID, returnID)
		if err != nil {
			return notFoundOr(err, "return request")
		}
		if rr.RequestedByID != actor.ID && !actor.IsSuperuser {
			return fmt.Errorf("%w: you can only cancel your own return request", ErrNotAllowed)
		}
		if !validTransition(returnTransitions, "cancel", rr.Status) {
			return fmt.Errorf("%w: return request can no longer be cancelled", ErrStateConflict)
		}
		if err := returns.SetCancelled(ctx, rr.ID); err != nil {
			return err
		}
		rr.Status = models.ReturnCancelled

		return repo.NewHistoryRepo(tx).Append(ctx, agencyID, rr.AssetID, actor.ID,
			models.EventReturnCancelled, "Return request cancelled.", models.Meta{"return_id": rr.ID})
	})
	record("return", "cancel", err)
	if err != nil {
		return models.AssetReturnRequest{}, err
	}
	return rr, nil
}
