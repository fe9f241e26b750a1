package workflow

import (
	"context"
	"database/sql"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/crucial707/asset-lifecycle/internal/metrics"
	"github.com/crucial707/asset-lifecycle/internal/models"
	"github.com/crucial707/asset-lifecycle/internal/repo"
	"github.com/crucial707/asset-lifecycle/internal/roles"
)

// ========================
// REGISTER ASSET
// ========================

type RegisterInput struct {
	CategoryID   int
	UnitID       *int
	Name         string
	SerialNumber *string
	AssetTag     *string
	AutoTag      bool
	AcquiredAt   *time.Time
	EOLDueDate   *time.Time
}

// Register creates an asset in the pool with status available. Custodian only.
// When no tag is supplied and the agency auto-generates, a random unique tag
// is allocated; the QR payload is built from agency configuration.
func (s *Service) Register(ctx context.Context, actor models.User, in RegisterInput) (models.Asset, error) {
	agencyID, err := actorAgency(actor)
	if err != nil {
		return models.Asset{}, err
	}
	if strings.TrimSpace(in.Name) == "" {
		return models.Asset{}, fmt.Errorf("%w: name is required", ErrValidation)
	}
	if in.CategoryID == 0 {
		return models.Asset{}, fmt.Errorf("%w: category is required", ErrValidation)
	}

	var asset models.Asset
	err = s.inTx(ctx, func(tx *sql.Tx) error {
		cfg, err := requireEnabled(ctx, tx, agencyID, actor)
		if err != nil {
			return err
		}
		agencyRepo := repo.NewAgencyRepo(tx)
		agencyRoles, err := agencyRepo.GetAssetRoles(ctx, agencyID)
		if err != nil {
			return err
		}
		if !roles.IsCustodian(actor, agencyRoles) {
			return fmt.Errorf("%w: only an ICT custodian can register assets", ErrNotAllowed)
		}

		if _, err := agencyRepo.GetCategory(ctx, agencyID, in.CategoryID); err != nil {
			return notFoundOr(fmt.Errorf("%w: category %d", ErrInconsistent, in.CategoryID), "category")
		}
		if in.UnitID != nil {
			if unit, err := repo.NewUnitRepo(tx).GetOptional(ctx, agencyID, in.UnitID); err != nil {
				return err
			} else if unit == nil {
				return fmt.Errorf("%w: unit %d", ErrInconsistent, *in.UnitID)
			}
		}

		// an explicitly supplied tag always wins; generation only fills the gap
		tag := in.AssetTag
		if tag != nil && strings.TrimSpace(*tag) == "" {
			tag = nil
		}
		tagGenerated := false
		if tag == nil && (cfg.TagAutoGenerate || in.AutoTag) {
			generated, err := generateUniqueTag(ctx, tx, agencyID, cfg.TagPrefix, cfg.TagLength)
			if err != nil {
				return err
			}
			tag = &generated
			tagGenerated = true
		}

		assetRepo := repo.NewAssetRepo(tx)
		asset, err = assetRepo.Create(ctx, models.Asset{
			AgencyID:     agencyID,
			CategoryID:   in.CategoryID,
			UnitID:       in.UnitID,
			Name:         strings.TrimSpace(in.Name),
			SerialNumber: in.SerialNumber,
			AssetTag:     tag,
			TagGenerated: tagGenerated,
			Status:       models.AssetAvailable,
			AcquiredAt:   in.AcquiredAt,
			EOLDueDate:   in.EOLDueDate,
		})
		if err != nil {
			if repo.IsUniqueViolation(err) {
				return fmt.Errorf("%w: serial number or asset tag already in use", ErrValidation)
			}
			return err
		}

		payload := s.buildQRPayload(asset, cfg)
		if err := assetRepo.SetQRPayload(ctx, asset.ID, payload); err != nil {
			return err
		}
		asset.QRPayload = payload

		return repo.NewHistoryRepo(tx).Append(ctx, agencyID, asset.ID, actor.ID,
			models.EventRegistered, "Asset registered into pool.", models.Meta{"tag": asset.AssetTag})
	})
	record("asset", "register", err)
	if err != nil {
		return models.Asset{}, err
	}
	metrics.AssetsRegistered.Inc()
	return asset, nil
}

// buildQRPayload returns the string encoded into the asset's QR label: a
// portal deep link when the agency opts in, a compact pipe-separated fallback
// otherwise.
func (s *Service) buildQRPayload(asset models.Asset, cfg models.AgencyConfig) string {
	if cfg.QRIncludeURL && s.PortalBaseURL != "" {
		return fmt.Sprintf("%s/assets/%d", strings.TrimRight(s.PortalBaseURL, "/"), asset.ID)
	}
	tag := ""
	if asset.AssetTag != nil {
		tag = *asset.AssetTag
	}
	serial := ""
	if asset.SerialNumber != nil {
		serial = *asset.SerialNumber
	}
	return fmt.Sprintf("ASSET|%d|%d|%s|%s", asset.AgencyID, asset.ID, tag, serial)
}

// ========================
// RETIRE ASSET
// ========================

// Retire marks the asset retired: terminal, holder cleared. Custodian only.
func (s *Service) Retire(ctx context.Context, actor models.User, assetID int, note string) (models.Asset, error) {
	agencyID, err := actorAgency(actor)
	if err != nil {
		return models.Asset{}, err
	}

	var asset models.Asset
	err = s.inTx(ctx, func(tx *sql.Tx) error {
		if _, err := requireEnabled(ctx, tx, agencyID, actor); err != nil {
			return err
		}
		assetRepo := repo.NewAssetRepo(tx)
		asset, err = assetRepo.GetForUpdate(ctx, agencyID, assetID)
		if err != nil {
			return notFoundOr(err, "asset")
		}
		agencyRoles, err := repo.NewAgencyRepo(tx).GetAssetRoles(ctx, agencyID)
		if err != nil {
			return err
		}
		if !roles.IsCustodian(actor, agencyRoles) {
			return fmt.Errorf("%w: only an ICT custodian can retire assets", ErrNotAllowed)
		}
		if asset.Status == models.AssetRetired {
			return fmt.Errorf("%w: asset is already retired", ErrStateConflict)
		}

		// retirement is terminal, so any return still in flight is now moot
		if _, err := repo.NewReturnRepo(tx).CancelOpenForAsset(ctx, agencyID, asset.ID); err != nil {
			return err
		}

		now := time.Now()
		if err := assetRepo.SetRetired(ctx, asset.ID, now); err != nil {
			return err
		}
		asset.Status = models.AssetRetired
		asset.CurrentHolderID = nil
		asset.RetiredAt = &now

		if note == "" {
			note = "Asset retired/disposed."
		}
		return repo.NewHistoryRepo(tx).Append(ctx, agencyID, asset.ID, actor.ID,
			models.EventRetired, note, nil)
	})
	record("asset", "retire", err)
	if err != nil {
		return models.Asset{}, err
	}
	return asset, nil
}

// ========================
// APPLY CHANGE (internal)
// ========================

// applyChange writes an approved diff onto the asset within the caller's
// transaction. Only called by the change-control workflow; cross-entity
// references are checked so a dangling category or unit id is rejected.
func (s *Service) applyChange(ctx context.Context, tx *sql.Tx, asset models.Asset, diff models.AssetDiff) (models.Asset, error) {
	agencyRepo := repo.NewAgencyRepo(tx)

	if diff.CategoryID != nil {
		if _, err := agencyRepo.GetCategory(ctx, asset.AgencyID, *diff.CategoryID); err != nil {
			return asset, fmt.Errorf("%w: category %d", ErrInconsistent, *diff.CategoryID)
		}
		asset.CategoryID = *diff.CategoryID
	}
	if diff.UnitID != nil {
		unit, err := repo.NewUnitRepo(tx).GetOptional(ctx, asset.AgencyID, diff.UnitID)
		if err != nil {
			return asset, err
		}
		if unit == nil {
			return asset, fmt.Errorf("%w: unit %d", ErrInconsistent, *diff.UnitID)
		}
		asset.UnitID = diff.UnitID
	}
	if diff.Name != nil {
		asset.Name = *diff.Name
	}
	if diff.Status != nil {
		asset.Status = *diff.Status
		if *diff.Status != models.AssetAssigned {
			// keep the holder invariant: only assigned assets have a holder
			asset.CurrentHolderID = nil
		}
	}
	if diff.SerialNumber != nil {
		asset.SerialNumber = optional(*diff.SerialNumber)
	}
	if diff.AssetTag != nil {
		asset.AssetTag = optional(*diff.AssetTag)
	}
	if diff.AcquiredAt != nil {
		d, err := time.Parse("2006-01-02", *diff.AcquiredAt)
		if err != nil {
			return asset, fmt.Errorf("%w: acquired_at %q is not a valid date", ErrValidation, *diff.AcquiredAt)
		}
		asset.AcquiredAt = &d
	}

	updated, err := repo.NewAssetRepo(tx).Update(ctx, asset)
	if err != nil {
		if repo.IsUniqueViolation(err) {
			return asset, fmt.Errorf("%w: serial number or asset tag already in use", ErrValidation)
		}
		return asset, err
	}
	return updated, nil
}

// optional maps an empty string to a cleared (nil) value.
func optional(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

// ========================
// PHYSICAL VERIFICATION
// ========================

var trailingID = regexp.MustCompile(`/(\d+)/?$`)

// extractAssetID accepts a bare id, a portal path, or a full scanned URL
// ending in /<id>, and returns the id, or 0 when the value is a plain tag.
func extractAssetID(raw string) int {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return 0
	}
	if n, err := strconv.Atoi(raw); err == nil {
		return n
	}
	path := raw
	if strings.HasPrefix(raw, "http") {
		if i := strings.Index(raw, "//"); i >= 0 {
			if j := strings.IndexByte(raw[i+2:], '/'); j >= 0 {
				path = raw[i+2+j:]
			}
		}
	}
	if m := trailingID.FindStringSubmatch(path); m != nil {
		n, _ := strconv.Atoi(m[1])
		return n
	}
	return 0
}

// VerifyAsset looks up an asset by scanned payload or typed tag and records a
// physical verification. Custodians, the operations manager and unit managers
// may verify.
func (s *Service) VerifyAsset(ctx context.Context, actor models.User, raw, method, location, note string) (models.Asset, models.AssetVerification, error) {
	agencyID, err := actorAgency(actor)
	if err != nil {
		return models.Asset{}, models.AssetVerification{}, err
	}
	if strings.TrimSpace(raw) == "" {
		return models.Asset{}, models.AssetVerification{}, fmt.Errorf("%w: enter or scan an asset tag", ErrValidation)
	}
	if _, err := requireEnabled(ctx, s.DB, agencyID, actor); err != nil {
		return models.Asset{}, models.AssetVerification{}, err
	}

	agencyRoles, err := repo.NewAgencyRepo(s.DB).GetAssetRoles(ctx, agencyID)
	if err != nil {
		return models.Asset{}, models.AssetVerification{}, err
	}
	allowed := roles.IsCustodian(actor, agencyRoles) ||
		(agencyRoles.OperationsManagerID != nil && *agencyRoles.OperationsManagerID == actor.ID)
	if !allowed {
		managed, err := repo.NewUnitRepo(s.DB).ManagedUnitIDs(ctx, agencyID, actor.ID)
		if err != nil {
			return models.Asset{}, models.AssetVerification{}, err
		}
		allowed = len(managed) > 0
	}
	if !allowed {
		return models.Asset{}, models.AssetVerification{}, fmt.Errorf("%w: you are not allowed to verify assets", ErrNotAllowed)
	}

	assetRepo := repo.NewAssetRepo(s.DB)
	var asset models.Asset
	tagEntered := strings.TrimSpace(raw)
	if id := extractAssetID(raw); id != 0 {
		asset, err = assetRepo.Get(ctx, agencyID, id)
		method = "scan"
		tagEntered = strconv.Itoa(id)
	} else {
		asset, err = assetRepo.GetByTag(ctx, agencyID, tagEntered)
	}
	if err != nil {
		return models.Asset{}, models.AssetVerification{}, notFoundOr(err, "asset")
	}
	if method == "" {
		method = "manual"
	}

	v, err := repo.NewVerificationRepo(s.DB).Create(ctx, models.AssetVerification{
		AgencyID:     agencyID,
		AssetID:      asset.ID,
		VerifiedByID: actor.ID,
		Method:       method,
		TagEntered:   tagEntered,
		Location:     location,
		Note:         note,
	})
	record("asset", "verify", err)
	if err != nil {
		return models.Asset{}, models.AssetVerification{}, err
	}
	return asset, v, nil
}
