package handler

import (
	"errors"
	"net/http"
	"time"

	"github.com/dealdesk/dealdesk/internal/api/jsonapi"
	"github.com/dealdesk/dealdesk/internal/api/middleware"
	"github.com/dealdesk/dealdesk/internal/customfield"
	"github.com/dealdesk/dealdesk/internal/model"
	"github.com/dealdesk/dealdesk/internal/store"
)

// CustomFieldHandler handles /api/v1/custom-fields routes.
type CustomFieldHandler struct {
	store *store.Store
}

// NewCustomFieldHandler creates a CustomFieldHandler.
func NewCustomFieldHandler(st *store.Store) *CustomFieldHandler {
	return &CustomFieldHandler{store: st}
}

// List handles GET /api/v1/custom-fields.
func (h *CustomFieldHandler) List(w http.ResponseWriter, r *http.Request) {
	claims := middleware.ClaimsFromContext(r.Context())
	fields, err := h.store.ListCustomFields(r.Context(), claims.OrganizationID)
	if err != nil {
		renderStoreError(w, err)
		return
	}
	jsonapi.RenderList(w, http.StatusOK,
		resources("custom_field", fields, func(f model.CustomField) string { return f.ID }), nil)
}

// fieldRequest is the body of POST and PATCH on custom field routes.
type fieldRequest struct {
	Name     string   `json:"name"`
	Type     string   `json:"type"`
	Required bool     `json:"required"`
	Options  []string `json:"options"`
}

// Create handles POST /api/v1/custom-fields.
func (h *CustomFieldHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req fieldRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	claims := middleware.ClaimsFromContext(r.Context())
	f, err := customfield.ValidateDefinition(model.CustomField{
		OrganizationID: claims.OrganizationID,
		Name:           req.Name,
		Type:           req.Type,
		Required:       req.Required,
		Options:        req.Options,
		CreatedAt:      time.Now(),
	})
	if err != nil {
		renderFieldError(w, err)
		return
	}

	if err := h.store.CreateCustomField(r.Context(), &f); err != nil {
		renderStoreError(w, err)
		return
	}
	jsonapi.RenderOne(w, http.StatusCreated, jsonapi.ResourceObject{Type: "custom_field", ID: f.ID, Attributes: f})
}

// Update handles PATCH /api/v1/custom-fields/{id}. Values already stored on
// deals are not revalidated against the edited definition.
func (h *CustomFieldHandler) Update(w http.ResponseWriter, r *http.Request) {
	var req fieldRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	ctx := r.Context()
	claims := middleware.ClaimsFromContext(ctx)

	existing, err := h.store.GetCustomField(ctx, claims.OrganizationID, r.PathValue("id"))
	if err != nil {
		renderStoreError(w, err)
		return
	}

	existing.Name = req.Name
	existing.Type = req.Type
	existing.Required = req.Required
	existing.Options = req.Options

	f, err := customfield.ValidateDefinition(*existing)
	if err != nil {
		renderFieldError(w, err)
		return
	}

	if err := h.store.SaveCustomField(ctx, &f); err != nil {
		renderStoreError(w, err)
		return
	}
	jsonapi.RenderOne(w, http.StatusOK, jsonapi.ResourceObject{Type: "custom_field", ID: f.ID, Attributes: f})
}

// Delete handles DELETE /api/v1/custom-fields/{id}.
func (h *CustomFieldHandler) Delete(w http.ResponseWriter, r *http.Request) {
	claims := middleware.ClaimsFromContext(r.Context())
	if err := h.store.DeleteCustomField(r.Context(), claims.OrganizationID, r.PathValue("id")); err != nil {
		renderStoreError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func renderFieldError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, customfield.ErrNameRequired),
		errors.Is(err, customfield.ErrInvalidType),
		errors.Is(err, customfield.ErrOptionsRequired):
		jsonapi.RenderError(w, http.StatusUnprocessableEntity, "invalid_field", "Unprocessable Entity", err.Error())
	default:
		jsonapi.RenderError(w, http.StatusInternalServerError, "internal_error", "Internal Server Error", err.Error())
	}
}
