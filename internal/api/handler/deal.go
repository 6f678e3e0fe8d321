package handler

import (
	"net/http"
	"time"

	"github.com/dealdesk/dealdesk/internal/api/jsonapi"
	"github.com/dealdesk/dealdesk/internal/api/middleware"
	"github.com/dealdesk/dealdesk/internal/customfield"
	"github.com/dealdesk/dealdesk/internal/deal"
	"github.com/dealdesk/dealdesk/internal/model"
	"github.com/dealdesk/dealdesk/internal/store"
)

// DealHandler handles /api/v1/deals routes.
type DealHandler struct {
	store *store.Store
}

// NewDealHandler creates a DealHandler.
func NewDealHandler(st *store.Store) *DealHandler {
	return &DealHandler{store: st}
}

// List handles GET /api/v1/deals. Query parameters:
//   - q: case-insensitive substring over title, company, and contact fields
//   - archived: "true" to include archived deals (hidden by default)
func (h *DealHandler) List(w http.ResponseWriter, r *http.Request) {
	claims := middleware.ClaimsFromContext(r.Context())
	deals, err := h.store.ListDeals(r.Context(), claims.OrganizationID)
	if err != nil {
		renderStoreError(w, err)
		return
	}
	deals = deal.Filter(deals, r.URL.Query().Get("q"), r.URL.Query().Get("archived") == "true")
	jsonapi.RenderList(w, http.StatusOK,
		resources("deal", deals, func(d model.Deal) string { return d.ID }), nil)
}

// createDealRequest is the body of POST /api/v1/deals. CustomFields carries
// raw string input per field id; values are coerced against the field's
// declared type before storage.
type createDealRequest struct {
	Title        string            `json:"title"`
	Value        float64           `json:"value"`
	Company      string            `json:"company"`
	Contact      model.Contact     `json:"contact"`
	Stage        string            `json:"stage"`
	Notes        string            `json:"notes"`
	CustomFields map[string]string `json:"customFields"`
}

// Create handles POST /api/v1/deals. The authenticated user becomes the
// deal's owner.
func (h *DealHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req createDealRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if req.Title == "" {
		jsonapi.RenderError(w, http.StatusUnprocessableEntity, "missing_field", "Unprocessable Entity", "title is required")
		return
	}

	ctx := r.Context()
	claims := middleware.ClaimsFromContext(ctx)

	u, err := h.store.GetUser(ctx, claims.UserID)
	if err != nil {
		renderStoreError(w, err)
		return
	}

	if req.Stage == "" {
		p, err := h.store.GetPipeline(ctx, claims.OrganizationID)
		if err != nil {
			renderStoreError(w, err)
			return
		}
		req.Stage = p.Stages[0].Name
	}

	values, err := h.resolveFields(r, nil, req.CustomFields)
	if err != nil {
		renderStoreError(w, err)
		return
	}

	owner := deal.Owner{ID: u.ID, Name: u.DisplayName, PhotoURL: u.PhotoURL}
	d := deal.New(claims.OrganizationID, owner, req.Title, req.Company, req.Value,
		req.Contact, req.Notes, req.Stage, values, time.Now())
	if err := h.store.CreateDeal(ctx, d); err != nil {
		renderStoreError(w, err)
		return
	}

	jsonapi.RenderOne(w, http.StatusCreated, jsonapi.ResourceObject{Type: "deal", ID: d.ID, Attributes: d})
}

// Get handles GET /api/v1/deals/{id}.
func (h *DealHandler) Get(w http.ResponseWriter, r *http.Request) {
	claims := middleware.ClaimsFromContext(r.Context())
	d, err := h.store.GetDeal(r.Context(), claims.OrganizationID, r.PathValue("id"))
	if err != nil {
		renderStoreError(w, err)
		return
	}
	jsonapi.RenderOne(w, http.StatusOK, jsonapi.ResourceObject{Type: "deal", ID: d.ID, Attributes: d})
}

// updateDealRequest is the body of PATCH /api/v1/deals/{id}. Absent fields
// are left unchanged. A stage change appends to the deal's history exactly as
// a board move does; Archived can be toggled manually in either direction.
type updateDealRequest struct {
	Title        *string           `json:"title"`
	Value        *float64          `json:"value"`
	Company      *string           `json:"company"`
	Contact      *model.Contact    `json:"contact"`
	Stage        *string           `json:"stage"`
	Notes        *string           `json:"notes"`
	CustomFields map[string]string `json:"customFields"`
	OwnerID      *string           `json:"ownerId"`
	Archived     *bool             `json:"archived"`
}

// Update handles PATCH /api/v1/deals/{id}.
func (h *DealHandler) Update(w http.ResponseWriter, r *http.Request) {
	var req updateDealRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	ctx := r.Context()
	claims := middleware.ClaimsFromContext(ctx)

	d, err := h.store.GetDeal(ctx, claims.OrganizationID, r.PathValue("id"))
	if err != nil {
		renderStoreError(w, err)
		return
	}

	p := deal.Patch{
		Title:   req.Title,
		Value:   req.Value,
		Company: req.Company,
		Contact: req.Contact,
		Stage:   req.Stage,
		Notes:   req.Notes,
	}

	if req.CustomFields != nil {
		values, err := h.resolveFields(r, d.CustomFields, req.CustomFields)
		if err != nil {
			renderStoreError(w, err)
			return
		}
		p.CustomFields = &values
	}

	if req.OwnerID != nil {
		u, err := h.store.GetUser(ctx, *req.OwnerID)
		if err != nil || u.OrganizationID != claims.OrganizationID {
			jsonapi.RenderError(w, http.StatusUnprocessableEntity, "invalid_owner", "Unprocessable Entity", "owner must be a member of your organization")
			return
		}
		p.Owner = &deal.Owner{ID: u.ID, Name: u.DisplayName, PhotoURL: u.PhotoURL}
	}

	now := time.Now()

	// The manual archived flag is applied before the patch so that a stage
	// change to Closed Lost in the same request still archives the deal.
	changed := false
	if req.Archived != nil && *req.Archived != d.Archived {
		d.Archived = *req.Archived
		d.UpdatedAt = now
		changed = true
	}
	if deal.Apply(d, p, now) {
		changed = true
	}

	if changed {
		if err := h.store.SaveDeal(ctx, d); err != nil {
			renderStoreError(w, err)
			return
		}
	}
	jsonapi.RenderOne(w, http.StatusOK, jsonapi.ResourceObject{Type: "deal", ID: d.ID, Attributes: d})
}

// moveRequest is the body of PATCH /api/v1/deals/{id}/stage.
type moveRequest struct {
	Stage string `json:"stage"`
}

// Move handles PATCH /api/v1/deals/{id}/stage, the board drag-and-drop path.
func (h *DealHandler) Move(w http.ResponseWriter, r *http.Request) {
	var req moveRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if req.Stage == "" {
		jsonapi.RenderError(w, http.StatusUnprocessableEntity, "missing_field", "Unprocessable Entity", "stage is required")
		return
	}

	ctx := r.Context()
	claims := middleware.ClaimsFromContext(ctx)

	d, err := h.store.GetDeal(ctx, claims.OrganizationID, r.PathValue("id"))
	if err != nil {
		renderStoreError(w, err)
		return
	}

	if deal.Transition(d, req.Stage, time.Now()) {
		if err := h.store.SaveDeal(ctx, d); err != nil {
			renderStoreError(w, err)
			return
		}
	}
	jsonapi.RenderOne(w, http.StatusOK, jsonapi.ResourceObject{Type: "deal", ID: d.ID, Attributes: d})
}

// Delete handles DELETE /api/v1/deals/{id}.
func (h *DealHandler) Delete(w http.ResponseWriter, r *http.Request) {
	claims := middleware.ClaimsFromContext(r.Context())
	if err := h.store.DeleteDeal(r.Context(), claims.OrganizationID, r.PathValue("id")); err != nil {
		renderStoreError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// resolveFields coerces raw custom field input against the organization's
// field definitions. Unknown field ids are ignored; blank or invalid input
// clears the value.
func (h *DealHandler) resolveFields(r *http.Request, current model.FieldValues, input map[string]string) (model.FieldValues, error) {
	if len(input) == 0 {
		return current, nil
	}
	claims := middleware.ClaimsFromContext(r.Context())
	defs, err := h.store.ListCustomFields(r.Context(), claims.OrganizationID)
	if err != nil {
		return nil, err
	}
	values := current
	for _, def := range defs {
		raw, ok := input[def.ID]
		if !ok {
			continue
		}
		values = customfield.Apply(values, def, raw)
	}
	return values, nil
}
