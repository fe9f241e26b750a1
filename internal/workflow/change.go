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

// ChangeInput carries the submitted field edits. A nil field was not
// submitted; empty strings clear serial/tag.
type ChangeInput struct {
	Name         *string
	Status       *string
	SerialNumber *string
	AssetTag     *string
	CategoryID   *int
	UnitID       *int
	AcquiredAt   *string // YYYY-MM-DD
	Reason       string
}

// statuses reachable through change control. Assignment must go through the
// request workflow so the holder invariant cannot be sidestepped.
var changeableStatuses = map[string]bool{
	models.AssetAvailable:   true,
	models.AssetMaintenance: true,
	models.AssetRetired:     true,
}

// computeDiff keeps only the submitted fields whose value differs from the
// asset's current value. Malformed dates and disallowed statuses fail here, at
// proposal time, not at approval.
func computeDiff(asset models.Asset, in ChangeInput) (models.AssetDiff, error) {
	var d models.AssetDiff

	if in.Name != nil {
		if name := strings.TrimSpace(*in.Name); name != "" && name != asset.Name {
			d.Name = &name
		}
	}
	if in.Status != nil && *in.Status != "" && *in.Status != asset.Status {
		if !changeableStatuses[*in.Status] {
			return d, fmt.Errorf("%w: status %q cannot be set through a change request", ErrValidation, *in.Status)
		}
		d.Status = in.Status
	}
	if in.SerialNumber != nil && !sameOptional(in.SerialNumber, asset.SerialNumber) {
		d.SerialNumber = in.SerialNumber
	}
	if in.AssetTag != nil && !sameOptional(in.AssetTag, asset.AssetTag) {
		d.AssetTag = in.AssetTag
	}
	if in.CategoryID != nil && *in.CategoryID != asset.CategoryID {
		d.CategoryID = in.CategoryID
	}
	if in.UnitID != nil && (asset.UnitID == nil || *asset.UnitID != *in.UnitID) {
		d.UnitID = in.UnitID
	}
	if in.AcquiredAt != nil && *in.AcquiredAt != "" {
		parsed, err := time.Parse("2006-01-02", *in.AcquiredAt)
		if err != nil {
			return d, fmt.Errorf("%w: acquired_at %q is not a valid YYYY-MM-DD date", ErrValidation, *in.AcquiredAt)
		}
		current := ""
		if asset.AcquiredAt != nil {
			current = asset.AcquiredAt.Format("2006-01-02")
		}
		if normalized := parsed.Format("2006-01-02"); normalized != current {
			d.AcquiredAt = &normalized
		}
	}
	return d, nil
}

// sameOptional compares a submitted value against a nullable current value,
// treating empty string and nil as equal.
func sameOptional(submitted *string, current *string) bool {
	cur := ""
	if current != nil {
		cur = *current
	}
	return *submitted == cur
}

// ========================
// PROPOSE
// ========================

// ProposeChange records a pending edit to an asset. Custodian only. Fields
// equal to current values are dropped; an all-equal submission creates no
// record and returns ErrNoChanges.
func (s *Service) ProposeChange(ctx context.Context, actor models.User, assetID int, in ChangeInput) (models.AssetChangeRequest, error) {
	agencyID, err := actorAgency(actor)
	if err != nil {
		return models.AssetChangeRequest{}, err
	}

	var cr models.AssetChangeRequest
	err = s.inTx(ctx, func(tx *sql.Tx) error {
		if _, err := requireEnabled(ctx, tx, agencyID, actor); err != nil {
			return err
		}
		asset, err := repo.NewAssetRepo(tx).Get(ctx, agencyID, assetID)
		if err != nil {
			return notFoundOr(err, "asset")
		}
		agencyRoles, err := repo.NewAgencyRepo(tx).GetAssetRoles(ctx, agencyID)
		if err != nil {
			return err
		}
		if !roles.IsCustodian(actor, agencyRoles) {
			return fmt.Errorf("%w: only an ICT custodian can propose asset changes", ErrNotAllowed)
		}

		diff, err := computeDiff(asset, in)
		if err != nil {
			return err
		}
		if diff.Empty() {
			return ErrNoChanges
		}

		cr, err = repo.NewChangeRepo(tx).Create(ctx, models.AssetChangeRequest{
			AgencyID:      agencyID,
			AssetID:       asset.ID,
			RequestedByID: actor.ID,
			Proposed:      diff,
			Reason:        strings.TrimSpace(in.Reason),
			Status:        models.ChangePendingManager,
		})
		if err != nil {
			return err
		}

		return repo.NewHistoryRepo(tx).Append(ctx, agencyID, asset.ID, actor.ID,
			models.EventStatusChange,
			fmt.Sprintf("Change request #%d submitted for approval.", cr.ID),
			models.Meta{"change_request_id": cr.ID, "proposed": diff})
	})
	record("change", "propose", err)
	if err != nil {
		return models.AssetChangeRequest{}, err
	}
	return cr, nil
}

// ========================
// APPROVE / REJECT
// ========================

// ApproveChange applies the proposed diff to the asset and marks the change
// request approved, all in one transaction: a partial application is never
// observable. Authority is resolved against the target asset.
func (s *Service) ApproveChange(ctx context.Context, actor models.User, changeID int, note string) (models.AssetChangeRequest, error) {
	return s.decideChange(ctx, actor, changeID, "approve", note)
}

// RejectChange discards the diff; the asset is untouched.
func (s *Service) RejectChange(ctx context.Context, actor models.User, changeID int, note string) (models.AssetChangeRequest, error) {
	return s.decideChange(ctx, actor, changeID, "reject", note)
}

func (s *Service) decideChange(ctx context.Context, actor models.User, changeID int, action, note string) (models.AssetChangeRequest, error) {
	agencyID, err := actorAgency(actor)
	if err != nil {
		return models.AssetChangeRequest{}, err
	}

	var cr models.AssetChangeRequest
	err = s.inTx(ctx, func(tx *sql.Tx) error {
		if _, err := requireEnabled(ctx, tx, agencyID, actor); err != nil {
			return err
		}
		changes := repo.NewChangeRepo(tx)
		cr, err = changes.GetForUpdate(ctx, agencyID, changeID)
		if err != nil {
			return notFoundOr(err, "change request")
		}
		if !validTransition(changeTransitions, action, cr.Status) {
			return fmt.Errorf("%w: change request is %s", ErrStateConflict, cr.Status)
		}

		asset, err := repo.NewAssetRepo(tx).GetForUpdate(ctx, agencyID, cr.AssetID)
		if err != nil {
			return notFoundOr(err, "asset")
		}
		unit, agencyRoles, err := assetContext(ctx, tx, asset)
		if err != nil {
			return err
		}
		if !roles.Resolve(actor, asset, unit, agencyRoles).IsAuthority {
			return fmt.Errorf("%w: you are not allowed to approve changes for this asset", ErrNotAllowed)
		}

		now := time.Now()
		if action == "reject" {
			if err := changes.SetDecided(ctx, cr.ID, models.ChangeRejected, actor.ID, note, now); err != nil {
				return err
			}
			cr.Status = models.ChangeRejected
			cr.DecidedByID = &actor.ID
			cr.DecisionNote = note

			return repo.NewHistoryRepo(tx).Append(ctx, agencyID, asset.ID, actor.ID,
				models.EventStatusChange,
				fmt.Sprintf("Change request #%d rejected.", cr.ID),
				models.Meta{"change_request_id": cr.ID})
		}

		if _, err := s.applyChange(ctx, tx, asset, cr.Proposed); err != nil {
			return err
		}
		if err := changes.SetDecided(ctx, cr.ID, models.ChangeApproved, actor.ID, note, now); err != nil {
			return err
		}
		cr.Status = models.ChangeApproved
		cr.DecidedByID = &actor.ID
		cr.DecisionNote = note

		return repo.NewHistoryRepo(tx).Append(ctx, agencyID, asset.ID, actor.ID,
			models.EventStatusChange,
			fmt.Sprintf("Change request #%d approved and applied.", cr.ID),
			models.Meta{"change_request_id": cr.ID, "applied": cr.Proposed})
	})
	record("change", action, err)
	if err != nil {
		return models.AssetChangeRequest{}, err
	}
	return cr, nil
}

// ========================
// CANCEL
// ========================

// CancelChange withdraws a pending change request; only its author (or a
// superuser) may do so.
func (s *Service) CancelChange(ctx context.Context, actor models.User, changeID int) (models.AssetChangeRequest, error) {
	agencyID, err := actorAgency(actor)
	if err != nil {
		return models.AssetChangeRequest{}, err
	}

	var cr models.AssetChangeRequest
	err = s.inTx(ctx, func(tx *sql.Tx) error {
		changes := repo.NewChangeRepo(tx)
		cr, err = changes.GetForUpdate(ctx, agencyID, changeID)
		if err != nil {
			return notFoundOr(err, "change request")
		}
		if cr.RequestedByID != actor.ID && !actor.IsSuperuser {
			return fmt.Errorf("%w: you can only cancel your own change request", ErrNotAllowed)
		}
		if !validTransition(changeTransitions, "cancel", cr.Status) {
			return fmt.Errorf("%w: change request can no longer be cancelled", ErrStateConflict)
		}
		if err := changes.SetDecided(ctx, cr.ID, models.ChangeCancelled, actor.ID, "", time.Now()); err != nil {
			return err
		}
		cr.Status = models.ChangeCancelled

		return repo.NewHistoryRepo(tx).Append(ctx, agencyID, cr.AssetID, actor.ID,
			models.EventStatusChange,
			fmt.Sprintf("Change request #%d cancelled.", cr.ID),
			models.Meta{"change_request_id": cr.ID})
	})
	record("change", "cancel", err)
	if err != nil {
		return models.AssetChangeRequest{}, err
	}
	return cr, nil
}
