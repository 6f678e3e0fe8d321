// Package api wires all API routes onto the provided ServeMux.
package api

import (
	"net/http"

	"github.com/dealdesk/dealdesk/internal/api/handler"
	"github.com/dealdesk/dealdesk/internal/api/middleware"
	"github.com/dealdesk/dealdesk/internal/health"
	"github.com/dealdesk/dealdesk/internal/model"
)

// Handlers groups the resource handlers registered on the router.
type Handlers struct {
	Health      *health.Handler
	Auth        *handler.AuthHandler
	Deals       *handler.DealHandler
	Pipeline    *handler.PipelineHandler
	Fields      *handler.CustomFieldHandler
	Notes       *handler.NoteHandler
	Team        *handler.TeamHandler
	Profile     *handler.ProfileHandler
	Reports     *handler.ReportHandler
	Live        *handler.LiveHandler
	JWTSecret   string
	UploadsDir  string
	UploadsPath string
}

// RegisterRoutes registers all application routes on mux.
func RegisterRoutes(mux *http.ServeMux, h Handlers) {
	// Public health endpoints (no auth required)
	mux.HandleFunc("GET /api/v1/health", h.Health.ServeHealth)
	mux.HandleFunc("GET /api/v1/ready", h.Health.ServeReady)

	// Auth endpoints (no auth required)
	mux.HandleFunc("POST /api/v1/auth/signup", h.Auth.Signup)
	mux.HandleFunc("POST /api/v1/auth/login", h.Auth.Login)
	mux.HandleFunc("POST /api/v1/auth/refresh", h.Auth.Refresh)

	// Auth-required routes.
	protected := middleware.RequireAuth(h.JWTSecret)
	adminOnly := middleware.RequireRole(model.RoleOwner, model.RoleAdmin)
	route := func(pattern string, hf http.HandlerFunc) {
		mux.Handle(pattern, protected(hf))
	}
	adminRoute := func(pattern string, hf http.HandlerFunc) {
		mux.Handle(pattern, protected(adminOnly(hf)))
	}

	route("POST /api/v1/auth/logout", h.Auth.Logout)

	route("GET /api/v1/deals", h.Deals.List)
	route("POST /api/v1/deals", h.Deals.Create)
	route("GET /api/v1/deals/{id}", h.Deals.Get)
	route("PATCH /api/v1/deals/{id}", h.Deals.Update)
	route("DELETE /api/v1/deals/{id}", h.Deals.Delete)
	route("PATCH /api/v1/deals/{id}/stage", h.Deals.Move)

	route("GET /api/v1/deals/{id}/notes", h.Notes.List)
	route("POST /api/v1/deals/{id}/notes", h.Notes.Create)

	route("GET /api/v1/pipeline", h.Pipeline.Get)
	route("POST /api/v1/pipeline/stages", h.Pipeline.AddStage)
	route("PATCH /api/v1/pipeline/stages/{id}", h.Pipeline.UpdateStage)
	route("DELETE /api/v1/pipeline/stages/{id}", h.Pipeline.DeleteStage)
	route("POST /api/v1/pipeline/reorder", h.Pipeline.Reorder)

	route("GET /api/v1/custom-fields", h.Fields.List)
	route("POST /api/v1/custom-fields", h.Fields.Create)
	route("PATCH /api/v1/custom-fields/{id}", h.Fields.Update)
	route("DELETE /api/v1/custom-fields/{id}", h.Fields.Delete)

	route("GET /api/v1/team/members", h.Team.Members)
	adminRoute("GET /api/v1/team/invites", h.Team.ListInvites)
	adminRoute("POST /api/v1/team/invites", h.Team.CreateInvite)

	route("GET /api/v1/me", h.Profile.Get)
	route("PATCH /api/v1/me", h.Profile.Update)
	route("POST /api/v1/me/avatar", h.Profile.Avatar)

	route("GET /api/v1/reports", h.Reports.Get)

	route("GET /api/v1/live", h.Live.Serve)

	// Uploaded images (note attachments, avatars)
	if h.UploadsDir != "" {
		prefix := h.UploadsPath
		if prefix == "" {
			prefix = "/uploads"
		}
		mux.Handle("GET "+prefix+"/", http.StripPrefix(prefix+"/",
			http.FileServer(http.Dir(h.UploadsDir))))
	}

	// Catch-all 404
	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		http.NotFound(w, r)
	})
}
