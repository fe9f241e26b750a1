package workflow

import (
	"errors"
	"testing"
	"time"

	"github.com/crucial707/asset-lifecycle/internal/models"
)

func strp(s string) *string { return &s }
func intp(v int) *int       { return &v }

func baseAsset() models.Asset {
	acquired := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)
	return models.Asset{
		ID:           7,
		AgencyID:     1,
		CategoryID:   2,
		Name:         "Latitude 5440",
		SerialNumber: strp("SN-001"),
		AssetTag:     strp("AST-000123"),
		Status:       models.AssetAvailable,
		AcquiredAt:   &acquired,
	}
}

func TestComputeDiff_DropsEqualFields(t *testing.T) {
	asset := baseAsset()
	d, err := computeDiff(asset, ChangeInput{
		Name:         strp("Latitude 5440"),
		SerialNumber: strp("SN-001"),
		AssetTag:     strp("AST-000123"),
		CategoryID:   intp(2),
		AcquiredAt:   strp("2024-03-01"),
	})
	if err != nil {
		t.Fatalf("computeDiff: %v", err)
	}
	if !d.Empty() {
		t.Errorf("expected empty diff, got %+v", d)
	}
}

func TestComputeDiff_KeepsChangedFields(t *testing.T) {
	asset := baseAsset()
	d, err := computeDiff(asset, ChangeInput{
		Name:       strp("Latitude 5450"),
		Status:     strp(models.AssetMaintenance),
		CategoryID: intp(3),
		AcquiredAt: strp("2024-06-15"),
	})
	if err != nil {
		t.Fatalf("computeDiff: %v", err)
	}
	if d.Name == nil || *d.Name != "Latitude 5450" {
		t.Errorf("name not kept: %+v", d)
	}
	if d.Status == nil || *d.Status != models.AssetMaintenance {
		t.Errorf("status not kept: %+v", d)
	}
	if d.CategoryID == nil || *d.CategoryID != 3 {
		t.Errorf("category not kept: %+v", d)
	}
	if d.AcquiredAt == nil || *d.AcquiredAt != "2024-06-15" {
		t.Errorf("acquired_at not kept: %+v", d)
	}
	if d.SerialNumber != nil || d.AssetTag != nil {
		t.Errorf("unsubmitted fields should stay nil: %+v", d)
	}
}

func TestComputeDiff_MalformedDateFailsAtProposal(t *testing.T) {
	_, err := computeDiff(baseAsset(), ChangeInput{AcquiredAt: strp("15/06/2024")})
	if !errors.Is(err, ErrValidation) {
		t.Errorf("expected ErrValidation, got %v", err)
	}
}

func TestComputeDiff_AssignedStatusRejected(t *testing.T) {
	// The holder invariant: status "assigned" is only reachable through the
	// request workflow, never through change control.
	_, err := computeDiff(baseAsset(), ChangeInput{Status: strp(models.AssetAssigned)})
	if !errors.Is(err, ErrValidation) {
		t.Errorf("expected ErrValidation, got %v", err)
	}
}

func TestComputeDiff_ClearsOptionalWithEmptyString(t *testing.T) {
	d, err := computeDiff(baseAsset(), ChangeInput{SerialNumber: strp("")})
	if err != nil {
		t.Fatalf("computeDiff: %v", err)
	}
	if d.SerialNumber == nil || *d.SerialNumber != "" {
		t.Errorf("empty serial should survive as a clear marker: %+v", d)
	}
}
