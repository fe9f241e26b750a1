package workflow

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/crucial707/asset-lifecycle/internal/models"
	"github.com/crucial707/asset-lifecycle/internal/repo"
	"github.com/crucial707/asset-lifecycle/internal/roles"
)

// ========================
// CREATE REQUEST
// ========================

type CreateRequestInput struct {
	CategoryID    int
	UnitID        *int
	Justification string
}

// CreateRequest opens a new asset request. It starts at pending_manager when
// the agency requires manager approval, otherwise it goes straight to the ICT
// queue. The resolved approvers (or custodians) are notified after commit.
func (s *Service) CreateRequest(ctx context.Context, actor models.User, in CreateRequestInput) (models.AssetRequest, error) {
	agencyID, err := actorAgency(actor)
	if err != nil {
		return models.AssetRequest{}, err
	}
	if in.CategoryID == 0 {
		return models.AssetRequest{}, fmt.Errorf("%w: category is required", ErrValidation)
	}

	var (
		req         models.AssetRequest
		unit        *models.Unit
		agencyRoles models.AgencyAssetRoles
	)
	err = s.inTx(ctx, func(tx *sql.Tx) error {
		cfg, err := requireEnabled(ctx, tx, agencyID, actor)
		if err != nil {
			return err
		}
		agencyRepo := repo.NewAgencyRepo(tx)
		if _, err := agencyRepo.GetCategory(ctx, agencyID, in.CategoryID); err != nil {
			return fmt.Errorf("%w: category %d", ErrInconsistent, in.CategoryID)
		}

		// default to the requester's own unit when none was chosen
		unitID := in.UnitID
		if unitID == nil {
			unitID = actor.UnitID
		}
		unit, err = repo.NewUnitRepo(tx).GetOptional(ctx, agencyID, unitID)
		if err != nil {
			return err
		}
		if unitID != nil && unit == nil {
			return fmt.Errorf("%w: unit %d", ErrInconsistent, *unitID)
		}

		status := models.RequestPendingICT
		if cfg.RequireManagerApproval {
			status = models.RequestPendingManager
		}

		req, err = repo.NewRequestRepo(tx).Create(ctx, models.AssetRequest{
			AgencyID:      agencyID,
			RequesterID:   actor.ID,
			UnitID:        unitIDOf(unit),
			CategoryID:    in.CategoryID,
			Justification: strings.TrimSpace(in.Justification),
			Status:        status,
		})
		if err != nil {
			return err
		}
		agencyRoles, err = agencyRepo.GetAssetRoles(ctx, agencyID)
		return err
	})
	record("request", "create", err)
	if err != nil {
		return models.AssetRequest{}, err
	}

	if req.Status == models.RequestPendingManager {
		s.notifyUsers(ctx,
			fmt.Sprintf("Asset Request #%d — Approval Required", req.ID),
			managerIDsForUnit(unit, agencyRoles),
			"assets/request_submitted",
			map[string]any{"request_id": req.ID, "requester_id": req.RequesterID},
		)
	} else {
		s.notifyUsers(ctx,
			fmt.Sprintf("Asset Request #%d — Pending ICT Assignment", req.ID),
			s.custodianIDs(ctx, agencyID, agencyRoles),
			"assets/request_approved",
			map[string]any{"request_id": req.ID, "approved_by": "System (Auto)"},
		)
	}
	return req, nil
}

func unitIDOf(unit *models.Unit) *int {
	if unit == nil {
		return nil
	}
	return &unit.ID
}

// ========================
// MANAGER APPROVE / REJECT
// ========================

// ApproveRequest moves pending_manager to pending_ict. The actor must hold
// authority for the request's unit context.
func (s *Service) ApproveRequest(ctx context.Context, actor models.User, requestID int) (models.AssetRequest, error) {
	return s.decideRequest(ctx, actor, requestID, "approve", "")
}

// RejectRequest terminates the request with a mandatory reason.
func (s *Service) RejectRequest(ctx context.Context, actor models.User, requestID int, reason string) (models.AssetRequest, error) {
	if strings.TrimSpace(reason) == "" {
		return models.AssetRequest{}, fmt.Errorf("%w: a rejection reason is required", ErrValidation)
	}
	return s.decideRequest(ctx, actor, requestID, "reject", strings.TrimSpace(reason))
}

func (s *Service) decideRequest(ctx context.Context, actor models.User, requestID int, action, reason string) (models.AssetRequest, error) {
	agencyID, err := actorAgency(actor)
	if err != nil {
		return models.AssetRequest{}, err
	}

	var (
		req         models.AssetRequest
		agencyRoles models.AgencyAssetRoles
	)
	err = s.inTx(ctx, func(tx *sql.Tx) error {
		if _, err := requireEnabled(ctx, tx, agencyID, actor); err != nil {
			return err
		}
		requests := repo.NewRequestRepo(tx)
		req, err = requests.GetForUpdate(ctx, agencyID, requestID)
		if err != nil {
			return notFoundOr(err, "request")
		}
		if !validTransition(requestTransitions, action, req.Status) {
			return fmt.Errorf("%w: request is %s", ErrStateConflict, req.Status)
		}

		unit, err := repo.NewUnitRepo(tx).GetOptional(ctx, agencyID, req.UnitID)
		if err != nil {
			return err
		}
		agencyRoles, err = repo.NewAgencyRepo(tx).GetAssetRoles(ctx, agencyID)
		if err != nil {
			return err
		}
		if !roles.ResolveForUnit(actor, unit, agencyRoles) {
			return fmt.Errorf("%w: you are not allowed to approve this request", ErrNotAllowed)
		}

		if action == "approve" {
			if err := requests.SetStatus(ctx, req.ID, models.RequestPendingICT, &actor.ID); err != nil {
				return err
			}
			req.Status = models.RequestPendingICT
		} else {
			if err := requests.SetRejected(ctx, req.ID, actor.ID, reason); err != nil {
				return err
			}
			req.Status = models.RequestRejected
			req.RejectionReason = reason
		}
		req.ApproverID = &actor.ID
		return nil
	})
	record("request", action, err)
	if err != nil {
		return models.AssetRequest{}, err
	}

	if req.Status == models.RequestPendingICT {
		s.notifyUsers(ctx,
			fmt.Sprintf("Asset Request #%d — Approved", req.ID),
			[]int{req.RequesterID},
			"assets/request_approved",
			map[string]any{"request_id": req.ID, "approved_by": actor.Username},
		)
		s.notifyUsers(ctx,
			fmt.Sprintf("Asset Request #%d — Pending ICT Assignment", req.ID),
			s.custodianIDs(ctx, agencyID, agencyRoles),
			"assets/request_approved",
			map[string]any{"request_id": req.ID, "approved_by": actor.Username},
		)
	} else {
		s.notifyUsers(ctx,
			fmt.Sprintf("Asset Request #%d — Rejected", req.ID),
			[]int{req.RequesterID},
			"assets/request_rejected",
			map[string]any{"request_id": req.ID, "rejected_by": actor.Username, "reason": reason},
		)
	}
	return req, nil
}

// ========================
// ICT ASSIGN
// ========================

// AssignAsset matches an available asset of the requested category to a
// pending_ict request. Custodian only. The asset row is locked, so two
// concurrent assignments of the same asset cannot both pass the status check.
func (s *Service) AssignAsset(ctx context.Context, actor models.User, requestID, assetID int) (models.AssetRequest, error) {
	agencyID, err := actorAgency(actor)
	if err != nil {
		return models.AssetRequest{}, err
	}

	var req models.AssetRequest
	err = s.inTx(ctx, func(tx *sql.Tx) error {
		if _, err := requireEnabled(ctx, tx, agencyID, actor); err != nil {
			return err
		}
		requests := repo.NewRequestRepo(tx)
		req, err = requests.GetForUpdate(ctx, agencyID, requestID)
		if err != nil {
			return notFoundOr(err, "request")
		}
		if !validTransition(requestTransitions, "assign", req.Status) {
			return fmt.Errorf("%w: request is %s", ErrStateConflict, req.Status)
		}

		agencyRoles, err := repo.NewAgencyRepo(tx).GetAssetRoles(ctx, agencyID)
		if err != nil {
			return err
		}
		if !roles.IsCustodian(actor, agencyRoles) {
			return fmt.Errorf("%w: only an ICT custodian can assign assets", ErrNotAllowed)
		}

		assets := repo.NewAssetRepo(tx)
		asset, err := assets.GetForUpdate(ctx, agencyID, assetID)
		if err != nil {
			return notFoundOr(err, "asset")
		}
		if asset.Status != models.AssetAvailable {
			return fmt.Errorf("%w: asset is %s, not available", ErrStateConflict, asset.Status)
		}
		if asset.CategoryID != req.CategoryID {
			return fmt.Errorf("%w: asset category does not match the request category", ErrValidation)
		}

		if err := assets.SetAssigned(ctx, asset.ID, req.RequesterID); err != nil {
			return err
		}
		if err := requests.SetAssigned(ctx, req.ID, asset.ID); err != nil {
			return err
		}
		req.Status = models.RequestAssigned
		req.AssignedAssetID = &asset.ID

		return repo.NewHistoryRepo(tx).Append(ctx, agencyID, asset.ID, actor.ID,
			models.EventAssigned, fmt.Sprintf("Assigned to user %d", req.RequesterID),
			models.Meta{"request_id": req.ID})
	})
	record("request", "assign", err)
	if err != nil {
		return models.AssetRequest{}, err
	}

	s.notifyUsers(ctx,
		fmt.Sprintf("Asset Request #%d — Asset Assigned", req.ID),
		[]int{req.RequesterID},
		"assets/asset_assigned",
		map[string]any{"request_id": req.ID, "asset_id": *req.AssignedAssetID, "assigned_by": actor.Username},
	)
	return req, nil
}

// ========================
// REQUESTER RECEIPT / CANCEL
// ========================

// VerifyReceipt closes the loop: the requester confirms the asset is in hand.
func (s *Service) VerifyReceipt(ctx context.Context, actor models.User, requestID int) (models.AssetRequest, error) {
	agencyID, err := actorAgency(actor)
	if err != nil {
		return models.AssetRequest{}, err
	}

	var (
		req         models.AssetRequest
		agencyRoles models.AgencyAssetRoles
	)
	err = s.inTx(ctx, func(tx *sql.Tx) error {
		if _, err := requireEnabled(ctx, tx, agencyID, actor); err != nil {
			return err
		}
		requests := repo.NewRequestRepo(tx)
		req, err = requests.GetForUpdate(ctx, agencyID, requestID)
		if err != nil {
			return notFoundOr(err, "request")
		}
		if req.RequesterID != actor.ID && !actor.IsSuperuser {
			return fmt.Errorf("%w: you can only verify your own request", ErrNotAllowed)
		}
		if !validTransition(requestTransitions, "verify_receipt", req.Status) {
			return fmt.Errorf("%w: request is %s, not ready for receipt", ErrStateConflict, req.Status)
		}

		if err := requests.SetStatus(ctx, req.ID, models.RequestReceived, nil); err != nil {
			return err
		}
		req.Status = models.RequestReceived

		if req.AssignedAssetID != nil {
			if err := repo.NewHistoryRepo(tx).Append(ctx, agencyID, *req.AssignedAssetID, actor.ID,
				models.EventReceiptVerified, "Requester verified receipt.",
				models.Meta{"request_id": req.ID}); err != nil {
				return err
			}
		}
		agencyRoles, err = repo.NewAgencyRepo(tx).GetAssetRoles(ctx, agencyID)
		return err
	})
	record("request", "receipt", err)
	if err != nil {
		return models.AssetRequest{}, err
	}

	s.notifyUsers(ctx,
		fmt.Sprintf("Asset Request #%d — Receipt Verified", req.ID),
		s.custodianIDs(ctx, agencyID, agencyRoles),
		"assets/receipt_verified",
		map[string]any{"request_id": req.ID},
	)
	return req, nil
}

// CancelRequest withdraws the requester's own request before assignment. Once
// an asset is assigned the return workflow must be used instead.
func (s *Service) CancelRequest(ctx context.Context, actor models.User, requestID int) (models.AssetRequest, error) {
	agencyID, err := actorAgency(actor)
	if err != nil {
		return models.AssetRequest{}, err
	}

	var req models.AssetRequest
	err = s.inTx(ctx, func(tx *sql.Tx) error {
		requests := repo.NewRequestRepo(tx)
		req, err = requests.GetForUpdate(ctx, agencyID, requestID)
		if err != nil {
			return notFoundOr(err, "request")
		}
		if req.RequesterID != actor.ID && !actor.IsSuperuser {
			return fmt.Errorf("%w: you can only cancel your own request", ErrNotAllowed)
		}
		if !validTransition(requestTransitions, "cancel", req.Status) {
			return fmt.Errorf("%w: request can no longer be cancelled", ErrStateConflict)
		}
		if err := requests.SetStatus(ctx, req.ID, models.RequestCancelled, nil); err != nil {
			return err
		}
		req.Status = models.RequestCancelled
		return nil
	})
	record("request", "cancel", err)
	if err != nil {
		return models.AssetRequest{}, err
	}
	return req, nil
}
