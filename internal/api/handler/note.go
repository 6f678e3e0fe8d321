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
	"github.com/dealdesk/dealdesk/internal/model"
	"github.com/dealdesk/dealdesk/internal/store"
	"github.com/google/uuid"
)

// maxUploadBytes bounds a single note submission, images included.
const maxUploadBytes = 32 << 20

// NoteHandler handles the notes timeline under /api/v1/deals/{id}/notes.
type NoteHandler struct {
	store  *store.Store
	blobs  blob.Store
	logger *slog.Logger
}

// NewNoteHandler creates a NoteHandler.
func NewNoteHandler(st *store.Store, blobs blob.Store, logger *slog.Logger) *NoteHandler {
	return &NoteHandler{store: st, blobs: blobs, logger: logger}
}

// List handles GET /api/v1/deals/{id}/notes.
func (h *NoteHandler) List(w http.ResponseWriter, r *http.Request) {
	claims := middleware.ClaimsFromContext(r.Context())
	notes, err := h.store.ListNotes(r.Context(), claims.OrganizationID, r.PathValue("id"))
	if err != nil {
		renderStoreError(w, err)
		return
	}
	jsonapi.RenderList(w, http.StatusOK,
		resources("note", notes, func(n model.Note) string { return n.ID }), nil)
}

// Create handles POST /api/v1/deals/{id}/notes. The body is either JSON
// ({content, type}) or multipart/form-data with "content", "type", and any
// number of "images" file parts. Uploaded images are stored first; the note
// is written only after every image landed.
func (h *NoteHandler) Create(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	claims := middleware.ClaimsFromContext(ctx)

	n := &model.Note{
		OrganizationID: claims.OrganizationID,
		DealID:         r.PathValue("id"),
		Type:           "note",
		CreatedBy:      claims.UserID,
		CreatedAt:      time.Now(),
	}

	if strings.HasPrefix(r.Header.Get("Content-Type"), "multipart/form-data") {
		if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
			jsonapi.RenderError(w, http.StatusBadRequest, "invalid_body", "Bad Request", "malformed multipart body")
			return
		}
		n.Content = r.FormValue("content")
		if t := r.FormValue("type"); t != "" {
			n.Type = t
		}

		for _, fh := range r.MultipartForm.File["images"] {
			f, err := fh.Open()
			if err != nil {
				jsonapi.RenderError(w, http.StatusBadRequest, "invalid_upload", "Bad Request", "unreadable image part")
				return
			}
			key := fmt.Sprintf("notes/%s%s", uuid.New().String(), filepath.Ext(fh.Filename))
			url, err := h.blobs.Save(ctx, key, f, fh.Size, func(written, total int64) {
				h.logger.Debug("note image upload", "key", key, "written", written, "total", total)
			})
			_ = f.Close()
			if err != nil {
				jsonapi.RenderError(w, http.StatusInternalServerError, "upload_failed", "Internal Server Error", "failed to store image")
				return
			}
			n.Images = append(n.Images, url)
		}
	} else {
		var req struct {
			Content string `json:"content"`
			Type    string `json:"type"`
		}
		if !decodeJSON(w, r, &req) {
			return
		}
		n.Content = req.Content
		if req.Type != "" {
			n.Type = req.Type
		}
	}

	if n.Content == "" && len(n.Images) == 0 {
		jsonapi.RenderError(w, http.StatusUnprocessableEntity, "missing_field", "Unprocessable Entity", "a note needs content or at least one image")
		return
	}
	if n.Type != "note" && n.Type != "activity" {
		jsonapi.RenderError(w, http.StatusUnprocessableEntity, "invalid_type", "Unprocessable Entity", "type must be note or activity")
		return
	}

	if err := h.store.CreateNote(ctx, n); err != nil {
		renderStoreError(w, err)
		return
	}
	jsonapi.RenderOne(w, http.StatusCreated, jsonapi.ResourceObject{Type: "note", ID: n.ID, Attributes: n})
}
