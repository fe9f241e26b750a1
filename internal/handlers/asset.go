package handlers

import (
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/crucial707/asset-lifecycle/internal/models"
	"github.com/crucial707/asset-lifecycle/internal/repo"
	"github.com/crucial707/asset-lifecycle/internal/workflow"
	"github.com/go-chi/chi/v5"
)

// AssetHandler serves the asset registry: registration, listing, retirement,
// audit trail, and physical verification checks.
type AssetHandler struct {
	Svc           *workflow.Service
	Assets        *repo.AssetRepo
	History       *repo.HistoryRepo
	Verifications *repo.VerificationRepo
}

//
// ==========================
// Register Asset
// ==========================
//

func (h *AssetHandler) RegisterAsset(w http.ResponseWriter, r *http.Request) {
	actor, ok := Actor(r)
	if !ok {
		JSONError(w, "unauthorized", http.StatusUnauthorized)
		return
	}

	var input struct {
		Name         string  `json:"name" validate:"required,min=2,max=255"`
		CategoryID   int     `json:"category_id" validate:"required"`
		UnitID       *int    `json:"unit_id"`
		SerialNumber *string `json:"serial_number"`
		AssetTag     *string `json:"asset_tag"`
		AutoTag      bool    `json:"auto_tag"`
		AcquiredAt   string  `json:"acquired_at"`
		EOLDueDate   string  `json:"eol_due_date"`
	}

	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		JSONError(w, "invalid json", http.StatusBadRequest)
		return
	}
	if err := validate.Struct(input); err != nil {
		JSONError(w, err.Error(), http.StatusBadRequest)
		return
	}

	acquiredAt, err := parseDate(input.AcquiredAt)
	if err != nil {
		JSONError(w, "acquired_at must be YYYY-MM-DD", http.StatusBadRequest)
		return
	}
	eolDue, err := parseDate(input.EOLDueDate)
	if err != nil {
		JSONError(w, "eol_due_date must be YYYY-MM-DD", http.StatusBadRequest)
		return
	}

	asset, err := h.Svc.Register(r.Context(), actor, workflow.RegisterInput{
		Name:         input.Name,
		CategoryID:   input.CategoryID,
		UnitID:       input.UnitID,
		SerialNumber: input.SerialNumber,
		AssetTag:     input.AssetTag,
		AutoTag:      input.AutoTag,
		AcquiredAt:   acquiredAt,
		EOLDueDate:   eolDue,
	})
	if err != nil {
		WorkflowError(w, err)
		return
	}

	JSON(w, http.StatusCreated, asset)
}

// parseDate parses an optional YYYY-MM-DD value; empty means nil.
func parseDate(s string) (*time.Time, error) {
	if s == "" {
		return nil, nil
	}
	t, err := time.Parse("2006-01-02", s)
	if err != nil {
		return nil, err
	}
	return &t, nil
}

//
// ==========================
// List Assets
// ==========================
//

func (h *AssetHandler) ListAssets(w http.ResponseWriter, r *http.Request) {
	actor, ok := Actor(r)
	if !ok || actor.AgencyID == nil {
		JSONError(w, "unauthorized", http.StatusUnauthorized)
		return
	}

	f := repo.ListFilter{
		Status: r.URL.Query().Get("status"),
		Limit:  50,
	}
	if v := r.URL.Query().Get("category_id"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			f.CategoryID = n
		}
	}
	if v := r.URL.Query().Get("unit_id"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			f.UnitID = n
		}
	}
	if v := r.URL.Query().Get("holder_id"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			f.HolderID = n
		}
	}
	if v := r.URL.Query().Get("limit"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 && n <= 200 {
			f.Limit = n
		}
	}
	if v := r.URL.Query().Get("offset"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n >= 0 {
			f.Offset = n
		}
	}

	assets, err := h.Assets.List(r.Context(), *actor.AgencyID, f)
	if err != nil {
		JSONError(w, ErrMessageInternal, http.StatusInternalServerError)
		return
	}
	if assets == nil {
		assets = []models.Asset{}
	}

	JSON(w, http.StatusOK, assets)
}

//
// ==========================
// Get Asset
// ==========================
//

func (h *AssetHandler) GetAsset(w http.ResponseWriter, r *http.Request) {
	actor, ok := Actor(r)
	if !ok || actor.AgencyID == nil {
		JSONError(w, "unauthorized", http.StatusUnauthorized)
		return
	}

	id, err := strconv.Atoi(chi.URLParam(r, "id"))
	if err != nil {
		JSONError(w, "invalid asset id", http.StatusBadRequest)
		return
	}

	asset, err := h.Assets.Get(r.Context(), *actor.AgencyID, id)
	if err != nil {
		JSONError(w, "asset not found", http.StatusNotFound)
		return
	}

	JSON(w, http.StatusOK, asset)
}

//
// ==========================
// Retire Asset
// ==========================
//

func (h *AssetHandler) RetireAsset(w http.ResponseWriter, r *http.Request) {
	actor, ok := Actor(r)
	if !ok {
		JSONError(w, "unauthorized", http.StatusUnauthorized)
		return
	}

	id, err := strconv.Atoi(chi.URLParam(r, "id"))
	if err != nil {
		JSONError(w, "invalid asset id", http.StatusBadRequest)
		return
	}

	var input struct {
		Note string `json:"note"`
	}
	if r.Body != nil {
		json.NewDecoder(r.Body).Decode(&input)
	}

	asset, err := h.Svc.Retire(r.Context(), actor, id, input.Note)
	if err != nil {
		WorkflowError(w, err)
		return
	}

	JSON(w, http.StatusOK, asset)
}

//
// ==========================
// Asset History
// ==========================
//

func (h *AssetHandler) AssetHistory(w http.ResponseWriter, r *http.Request) {
	actor, ok := Actor(r)
	if !ok || actor.AgencyID == nil {
		JSONError(w, "unauthorized", http.StatusUnauthorized)
		return
	}

	id, err := strconv.Atoi(chi.URLParam(r, "id"))
	if err != nil {
		JSONError(w, "invalid asset id", http.StatusBadRequest)
		return
	}

	limit := 100
	if v := r.URL.Query().Get("limit"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 && n <= 500 {
			limit = n
		}
	}

	entries, err := h.History.ListForAsset(r.Context(), *actor.AgencyID, id, limit)
	if err != nil {
		JSONError(w, ErrMessageInternal, http.StatusInternalServerError)
		return
	}

	JSON(w, http.StatusOK, entries)
}

//
// ==========================
// Verify Asset (physical check by tag or id)
// ==========================
//

func (h *AssetHandler) VerifyAsset(w http.ResponseWriter, r *http.Request) {
	actor, ok := Actor(r)
	if !ok {
		JSONError(w, "unauthorized", http.StatusUnauthorized)
		return
	}

	var input struct {
		Tag      string `json:"tag" validate:"required"`
		Method   string `json:"method" validate:"omitempty,oneof=scan manual"`
		Location string `json:"location" validate:"max=255"`
		Note     string `json:"note" validate:"max=1000"`
	}
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		JSONError(w, "invalid json", http.StatusBadRequest)
		return
	}
	if err := validate.Struct(input); err != nil {
		JSONError(w, err.Error(), http.StatusBadRequest)
		return
	}
	if input.Method == "" {
		input.Method = "manual"
	}

	asset, check, err := h.Svc.VerifyAsset(r.Context(), actor, input.Tag, input.Method, input.Location, input.Note)
	if err != nil {
		WorkflowError(w, err)
		return
	}

	JSON(w, http.StatusOK, map[string]any{
		"asset":        asset,
		"verification": check,
	})
}

//
// ==========================
// Verification log
// ==========================
//

func (h *AssetHandler) ListVerifications(w http.ResponseWriter, r *http.Request) {
	actor, ok := Actor(r)
	if !ok || actor.AgencyID == nil {
		JSONError(w, "unauthorized", http.StatusUnauthorized)
		return
	}

	id, err := strconv.Atoi(chi.URLParam(r, "id"))
	if err != nil {
		JSONError(w, "invalid asset id", http.StatusBadRequest)
		return
	}

	limit := 50
	if v := r.URL.Query().Get("limit"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 && n <= 200 {
			limit = n
		}
	}

	checks, err := h.Verifications.ListForAsset(r.Context(), *actor.AgencyID, id, limit)
	if err != nil {
		JSONError(w, ErrMessageInternal, http.StatusInternalServerError)
		return
	}

	JSON(w, http.StatusOK, checks)
}

//
// ==========================
// Asset Report
// ==========================
//

func (h *AssetHandler) AssetReport(w http.ResponseWriter, r *http.Request) {
	actor, ok := Actor(r)
	if !ok || actor.AgencyID == nil {
		JSONError(w, "unauthorized", http.StatusUnauthorized)
		return
	}

	byStatus, err := h.Assets.CountsByStatus(r.Context(), *actor.AgencyID)
	if err != nil {
		JSONError(w, ErrMessageInternal, http.StatusInternalServerError)
		return
	}
	byCategory, err := h.Assets.CountsByCategory(r.Context(), *actor.AgencyID)
	if err != nil {
		JSONError(w, ErrMessageInternal, http.StatusInternalServerError)
		return
	}

	JSON(w, http.StatusOK, map[string]any{
		"by_status":   byStatus,
		"by_category": byCategory,
	})
}
