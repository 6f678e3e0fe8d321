package handler_test

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/dealdesk/dealdesk/internal/live"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLiveStream_DealSnapshots(t *testing.T) {
	e := newEnv(t)
	token, _ := e.signup("owner@acme.com", "Acme")

	srv := httptest.NewServer(e.mux)
	defer srv.Close()

	wsURL := strings.Replace(srv.URL, "http://", "ws://", 1) +
		"/api/v1/live?collections=deals&token=" + token
	conn, resp, err := websocket.DefaultDialer.Dial(wsURL, nil)
	require.NoError(t, err)
	defer func() { _ = conn.Close() }()
	require.Equal(t, http.StatusSwitchingProtocols, resp.StatusCode)

	// A mutation on the deals collection reaches the subscriber.
	createDeal(t, e, token, map[string]any{"title": "Streamed deal", "value": 10.0})

	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	var ev live.Event
	require.NoError(t, conn.ReadJSON(&ev))
	assert.Equal(t, "deals", ev.Collection)

	snapshot := ev.Snapshot.([]any)
	require.Len(t, snapshot, 1)
	deal := snapshot[0].(map[string]any)
	assert.Equal(t, "Streamed deal", deal["title"])
}

func TestLiveStream_RequiresAuthAndCollections(t *testing.T) {
	e := newEnv(t)
	token, _ := e.signup("owner@acme.com", "Acme")

	srv := httptest.NewServer(e.mux)
	defer srv.Close()

	base := strings.Replace(srv.URL, "http://", "ws://", 1)

	_, resp, err := websocket.DefaultDialer.Dial(base+"/api/v1/live?collections=deals", nil)
	require.Error(t, err)
	require.NotNil(t, resp)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	_, resp, err = websocket.DefaultDialer.Dial(base+"/api/v1/live?token="+token, nil)
	require.Error(t, err)
	require.NotNil(t, resp)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}
