package handler_test

import (
	"bytes"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/dealdesk/dealdesk/internal/api"
	"github.com/dealdesk/dealdesk/internal/api/handler"
	"github.com/dealdesk/dealdesk/internal/auth"
	"github.com/dealdesk/dealdesk/internal/blob"
	"github.com/dealdesk/dealdesk/internal/health"
	"github.com/dealdesk/dealdesk/internal/invite"
	"github.com/dealdesk/dealdesk/internal/live"
	"github.com/dealdesk/dealdesk/internal/model"
	"github.com/dealdesk/dealdesk/internal/store"
	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

const testSecret = "handler-test-secret-0123456789abcdef"

// env is a fully wired API over an in-memory database.
type env struct {
	t   *testing.T
	mux *http.ServeMux
	db  *gorm.DB
	hub *live.Hub
}

func newEnv(t *testing.T) *env {
	t.Helper()

	db, err := gorm.Open(sqlite.Open("file:"+t.Name()+"?mode=memory&cache=shared"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(
		&model.Organization{}, &model.User{}, &model.Deal{}, &model.Pipeline{},
		&model.CustomField{}, &model.Note{}, &model.InviteCode{}, &model.RefreshToken{},
	))

	log := slog.New(slog.DiscardHandler)
	hub := live.NewHub()
	st := store.New(db, hub, log)
	invites := invite.NewService(db, 7*24*time.Hour)
	refresh := auth.NewRefreshStore(db, 720*time.Hour)
	blobs, err := blob.NewFSStore(t.TempDir(), "/uploads")
	require.NoError(t, err)

	mux := http.NewServeMux()
	api.RegisterRoutes(mux, api.Handlers{
		Health:    health.New(nil),
		Auth:      handler.NewAuthHandler(st, invites, refresh, testSecret, 15*time.Minute),
		Deals:     handler.NewDealHandler(st),
		Pipeline:  handler.NewPipelineHandler(st),
		Fields:    handler.NewCustomFieldHandler(st),
		Notes:     handler.NewNoteHandler(st, blobs, log),
		Team:      handler.NewTeamHandler(st, invites),
		Profile:   handler.NewProfileHandler(st, blobs, log),
		Reports:   handler.NewReportHandler(st),
		Live:      handler.NewLiveHandler(hub, log),
		JWTSecret: testSecret,
	})

	return &env{t: t, mux: mux, db: db, hub: hub}
}

// do performs a JSON request. token may be empty for public endpoints.
func (e *env) do(method, path, token string, body any) *httptest.ResponseRecorder {
	e.t.Helper()
	var r io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		require.NoError(e.t, err)
		r = bytes.NewReader(b)
	}
	req := httptest.NewRequest(method, path, r)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	e.mux.ServeHTTP(w, req)
	return w
}

// attrs decodes the data.attributes object of a single-resource response.
func attrs(t *testing.T, w *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var doc struct {
		Data struct {
			ID         string         `json:"id"`
			Attributes map[string]any `json:"attributes"`
		} `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &doc))
	return doc.Data.Attributes
}

// listAttrs decodes the attributes of every resource in a collection response.
func listAttrs(t *testing.T, w *httptest.ResponseRecorder) []map[string]any {
	t.Helper()
	var doc struct {
		Data []struct {
			ID         string         `json:"id"`
			Attributes map[string]any `json:"attributes"`
		} `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &doc))
	out := make([]map[string]any, 0, len(doc.Data))
	for _, d := range doc.Data {
		out = append(out, d.Attributes)
	}
	return out
}

// signup registers a fresh owner and returns the access token and user id.
func (e *env) signup(email, company string) (token, userID string) {
	e.t.Helper()
	w := e.do(http.MethodPost, "/api/v1/auth/signup", "", map[string]any{
		"email":       email,
		"password":    "hunter22",
		"displayName": "Ada Lovelace",
		"companyName": company,
	})
	require.Equal(e.t, http.StatusCreated, w.Code, w.Body.String())

	a := attrs(e.t, w)
	user := a["user"].(map[string]any)
	return a["access_token"].(string), user["id"].(string)
}
