package handler

import (
	"fmt"
	"log/slog"
	"net/http"
	"path/filepath"
	"strings"
	"time"

	"github.com/dealdesk/dealdesk/internal/api/jsonapi"
	"github.com/dealdesk/dealdesk/internal/api/middleware"
	"github.com/dealdesk/dealdesk/internal/blob"
	"github.com/dealdesk/dealdesk/internal/store"
	"github.com/google/uuid"
)

// ProfileHandler handles the authenticated user's own account under
// /api/v1/me.
type ProfileHandler struct {
	store  *store.Store
	blobs  blob.Store
	logger *slog.Logger
}

// NewProfileHandler creates a ProfileHandler.
func NewProfileHandler(st *store.Store, blobs blob.Store, logger *slog.Logger) *ProfileHandler {
	return &ProfileHandler{store: st, blobs: blobs, logger: logger}
}

// Get handles GET /api/v1/me.
func (h *ProfileHandler) Get(w http.ResponseWriter, r *http.Request) {
	claims := middleware.ClaimsFromContext(r.Context())
	u, err := h.store.GetUser(r.Context(), claims.UserID)
	if err != nil {
		renderStoreError(w, err)
		return
	}
	jsonapi.RenderOne(w, http.StatusOK, jsonapi.ResourceObject{Type: "user", ID: u.ID, Attributes: u})
}

// updateProfileRequest is the body of PATCH /api/v1/me. Absent fields are
// left unchanged; email and role cannot be edited here.
type updateProfileRequest struct {
	DisplayName *string `json:"displayName"`
	PhoneNumber *string `json:"phoneNumber"`
	JobTitle    *string `json:"jobTitle"`
}

// Update handles PATCH /api/v1/me.
func (h *ProfileHandler) Update(w http.ResponseWriter, r *http.Request) {
	var req updateProfileRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	ctx := r.Context()
	claims := middleware.ClaimsFromContext(ctx)

	u, err := h.store.GetUser(ctx, claims.UserID)
	if err != nil {
		renderStoreError(w, err)
		return
	}

	if req.DisplayName != nil {
		u.DisplayName = strings.TrimSpace(*req.DisplayName)
	}
	if req.PhoneNumber != nil {
		u.PhoneNumber = strings.TrimSpace(*req.PhoneNumber)
	}
	if req.JobTitle != nil {
		u.JobTitle = strings.TrimSpace(*req.JobTitle)
	}
	u.UpdatedAt = time.Now()

	if err := h.store.SaveUser(ctx, u); err != nil {
		renderStoreError(w, err)
		return
	}
	jsonapi.RenderOne(w, http.StatusOK, jsonapi.ResourceObject{Type: "user", ID: u.ID, Attributes: u})
}

// Avatar handles POST /api/v1/me/avatar: a multipart upload with a single
// "avatar" file part. The stored address replaces the user's photo URL.
func (h *ProfileHandler) Avatar(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	claims := middleware.ClaimsFromContext(ctx)

	if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
		jsonapi.RenderError(w, http.StatusBadRequest, "invalid_body", "Bad Request", "malformed multipart body")
		return
	}
	f, fh, err := r.FormFile("avatar")
	if err != nil {
		jsonapi.RenderError(w, http.StatusUnprocessableEntity, "missing_field", "Unprocessable Entity", "avatar file part is required")
		return
	}
	defer func() { _ = f.Close() }()

	key := fmt.Sprintf("avatars/%s%s", uuid.New().String(), filepath.Ext(fh.Filename))
	url, err := h.blobs.Save(ctx, key, f, fh.Size, func(written, total int64) {
		h.logger.Debug("avatar upload", "key", key, "written", written, "total", total)
	})
	if err != nil {
		jsonapi.RenderError(w, http.StatusInternalServerError, "upload_failed", "Internal Server Error", "failed to store avatar")
		return
	}

	u, err := h.store.GetUser(ctx, claims.UserID)
	if err != nil {
		renderStoreError(w, err)
		return
	}
	u.PhotoURL = url
	u.UpdatedAt = time.Now()
	if err := h.store.SaveUser(ctx, u); err != nil {
		renderStoreError(w, err)
		return
	}
	jsonapi.RenderOne(w, http.StatusOK, jsonapi.ResourceObject{Type: "user", ID: u.ID, Attributes: u})
}
