package handler

import (
	"errors"
	"net/http"

	"github.com/dealdesk/dealdesk/internal/api/jsonapi"
	"github.com/dealdesk/dealdesk/internal/api/middleware"
	"github.com/dealdesk/dealdesk/internal/invite"
	"github.com/dealdesk/dealdesk/internal/model"
	"github.com/dealdesk/dealdesk/internal/store"
)

// TeamHandler handles /api/v1/team routes.
type TeamHandler struct {
	store   *store.Store
	invites *invite.Service
}

// NewTeamHandler creates a TeamHandler.
func NewTeamHandler(st *store.Store, invites *invite.Service) *TeamHandler {
	return &TeamHandler{store: st, invites: invites}
}

// Members handles GET /api/v1/team/members.
func (h *TeamHandler) Members(w http.ResponseWriter, r *http.Request) {
	claims := middleware.ClaimsFromContext(r.Context())
	members, err := h.store.ListMembers(r.Context(), claims.OrganizationID)
	if err != nil {
		renderStoreError(w, err)
		return
	}
	jsonapi.RenderList(w, http.StatusOK,
		resources("member", members, func(u model.User) string { return u.ID }), nil)
}

// ListInvites handles GET /api/v1/team/invites. Router guards restrict this
// to owners and admins.
func (h *TeamHandler) ListInvites(w http.ResponseWriter, r *http.Request) {
	claims := middleware.ClaimsFromContext(r.Context())
	codes, err := h.invites.List(r.Context(), claims.OrganizationID)
	if err != nil {
		jsonapi.RenderError(w, http.StatusInternalServerError, "internal_error", "Internal Server Error", err.Error())
		return
	}
	jsonapi.RenderList(w, http.StatusOK,
		resources("invite_code", codes, func(c model.InviteCode) string { return c.Code }), nil)
}

// CreateInvite handles POST /api/v1/team/invites.
func (h *TeamHandler) CreateInvite(w http.ResponseWriter, r *http.Request) {
	claims := middleware.ClaimsFromContext(r.Context())
	inv, err := h.invites.Generate(r.Context(), claims.OrganizationID, claims.UserID, claims.Role)
	if errors.Is(err, invite.ErrForbidden) {
		jsonapi.RenderError(w, http.StatusForbidden, "forbidden", "Forbidden", err.Error())
		return
	}
	if err != nil {
		jsonapi.RenderError(w, http.StatusInternalServerError, "internal_error", "Internal Server Error", err.Error())
		return
	}
	jsonapi.RenderOne(w, http.StatusCreated, jsonapi.ResourceObject{Type: "invite_code", ID: inv.Code, Attributes: inv})
}
