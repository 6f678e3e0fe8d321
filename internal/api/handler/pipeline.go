package handler

import (
	"errors"
	"net/http"

	"github.com/dealdesk/dealdesk/internal/api/jsonapi"
	"github.com/dealdesk/dealdesk/internal/api/middleware"
	"github.com/dealdesk/dealdesk/internal/model"
	"github.com/dealdesk/dealdesk/internal/pipeline"
	"github.com/dealdesk/dealdesk/internal/store"
)

// PipelineHandler handles /api/v1/pipeline routes. Stage list edits are pure
// array operations; every mutation commits the whole list at once.
type PipelineHandler struct {
	store *store.Store
}

// NewPipelineHandler creates a PipelineHandler.
func NewPipelineHandler(st *store.Store) *PipelineHandler {
	return &PipelineHandler{store: st}
}

// Get handles GET /api/v1/pipeline.
func (h *PipelineHandler) Get(w http.ResponseWriter, r *http.Request) {
	claims := middleware.ClaimsFromContext(r.Context())
	p, err := h.store.GetPipeline(r.Context(), claims.OrganizationID)
	if err != nil {
		renderStoreError(w, err)
		return
	}
	jsonapi.RenderOne(w, http.StatusOK, jsonapi.ResourceObject{Type: "pipeline", ID: p.OrganizationID, Attributes: p})
}

// addStageRequest is the body of POST /api/v1/pipeline/stages.
type addStageRequest struct {
	Name string `json:"name"`
}

// AddStage handles POST /api/v1/pipeline/stages.
func (h *PipelineHandler) AddStage(w http.ResponseWriter, r *http.Request) {
	var req addStageRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	h.edit(w, r, func(stages model.Stages) (model.Stages, error) {
		return pipeline.Add(stages, req.Name)
	})
}

// updateStageRequest is the body of PATCH /api/v1/pipeline/stages/{id}.
// Empty fields leave the corresponding attribute unchanged.
type updateStageRequest struct {
	Name  string `json:"name"`
	Color string `json:"color"`
}

// UpdateStage handles PATCH /api/v1/pipeline/stages/{id}. Renaming a stage
// never rewrites stage names already recorded on deals.
func (h *PipelineHandler) UpdateStage(w http.ResponseWriter, r *http.Request) {
	var req updateStageRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	id := r.PathValue("id")
	h.edit(w, r, func(stages model.Stages) (model.Stages, error) {
		return pipeline.Update(stages, id, req.Name, req.Color)
	})
}

// DeleteStage handles DELETE /api/v1/pipeline/stages/{id}. Deals left on the
// deleted stage keep their stage string.
func (h *PipelineHandler) DeleteStage(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	h.edit(w, r, func(stages model.Stages) (model.Stages, error) {
		return pipeline.Delete(stages, id)
	})
}

// reorderRequest is the body of POST /api/v1/pipeline/reorder.
type reorderRequest struct {
	From int `json:"from"`
	To   int `json:"to"`
}

// Reorder handles POST /api/v1/pipeline/reorder.
func (h *PipelineHandler) Reorder(w http.ResponseWriter, r *http.Request) {
	var req reorderRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	h.edit(w, r, func(stages model.Stages) (model.Stages, error) {
		return pipeline.Reorder(stages, req.From, req.To), nil
	})
}

// edit loads the stage list, applies fn, and commits the result.
func (h *PipelineHandler) edit(w http.ResponseWriter, r *http.Request, fn func(model.Stages) (model.Stages, error)) {
	ctx := r.Context()
	claims := middleware.ClaimsFromContext(ctx)

	p, err := h.store.GetPipeline(ctx, claims.OrganizationID)
	if err != nil {
		renderStoreError(w, err)
		return
	}

	stages, err := fn(p.Stages)
	if err != nil {
		renderPipelineError(w, err)
		return
	}

	p, err = h.store.PutPipeline(ctx, claims.OrganizationID, stages)
	if err != nil {
		renderStoreError(w, err)
		return
	}
	jsonapi.RenderOne(w, http.StatusOK, jsonapi.ResourceObject{Type: "pipeline", ID: p.OrganizationID, Attributes: p})
}

func renderPipelineError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, pipeline.ErrBlankName):
		jsonapi.RenderError(w, http.StatusUnprocessableEntity, "missing_field", "Unprocessable Entity", err.Error())
	case errors.Is(err, pipeline.ErrMinStages):
		jsonapi.RenderError(w, http.StatusUnprocessableEntity, "min_stages", "Unprocessable Entity", err.Error())
	case errors.Is(err, pipeline.ErrStageNotFound):
		jsonapi.RenderError(w, http.StatusNotFound, "not_found", "Not Found", err.Error())
	default:
		jsonapi.RenderError(w, http.StatusInternalServerError, "internal_error", "Internal Server Error", err.Error())
	}
}
