package handler

import (
	"net/http"
	"strconv"
	"time"

	"github.com/dealdesk/dealdesk/internal/api/jsonapi"
	"github.com/dealdesk/dealdesk/internal/api/middleware"
	"github.com/dealdesk/dealdesk/internal/report"
	"github.com/dealdesk/dealdesk/internal/store"
)

// ReportHandler handles GET /api/v1/reports.
type ReportHandler struct {
	store *store.Store
}

// NewReportHandler creates a ReportHandler.
func NewReportHandler(st *store.Store) *ReportHandler {
	return &ReportHandler{store: st}
}

// reportAttrs is the full report payload: overview figures, the per-member
// leaderboard, and the per-stage distribution.
type reportAttrs struct {
	Summary  report.Summary       `json:"summary"`
	ByMember []report.MemberStats `json:"byMember"`
	ByStage  []report.StageStats  `json:"byStage"`
}

// Get handles GET /api/v1/reports. Query parameters:
//   - range: look-back window in days (0 or absent means all time)
//   - owner: restrict to one member's deals
func (h *ReportHandler) Get(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	claims := middleware.ClaimsFromContext(ctx)

	deals, err := h.store.ListDeals(ctx, claims.OrganizationID)
	if err != nil {
		renderStoreError(w, err)
		return
	}
	members, err := h.store.ListMembers(ctx, claims.OrganizationID)
	if err != nil {
		renderStoreError(w, err)
		return
	}
	p, err := h.store.GetPipeline(ctx, claims.OrganizationID)
	if err != nil {
		renderStoreError(w, err)
		return
	}

	rangeDays, _ := strconv.Atoi(r.URL.Query().Get("range"))
	narrowed := report.Narrow(deals, rangeDays, r.URL.Query().Get("owner"), time.Now())

	jsonapi.RenderOne(w, http.StatusOK, jsonapi.ResourceObject{
		Type: "report",
		ID:   claims.OrganizationID,
		Attributes: reportAttrs{
			Summary:  report.Summarize(narrowed),
			ByMember: report.ByMember(narrowed, members),
			ByStage:  report.ByStage(narrowed, p.Stages),
		},
	})
}
