package gateway

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/seanmccall/pokerclock/go/internal/push"
	"github.com/seanmccall/pokerclock/go/internal/room"
	"github.com/seanmccall/pokerclock/go/internal/structure"
)

func newTestServer(t *testing.T) (*httptest.Server, *room.Registry) {
	t.Helper()
	registry := room.NewRegistry(structure.NewCatalog(), push.NopSender{}, clockwork.NewRealClock())
	srv := httptest.NewServer(NewHandler(registry).Routes())
	t.Cleanup(func() {
		srv.Close()
		registry.Close()
	})
	return srv, registry
}

func postJSON(t *testing.T, url string, body any) *http.Response {
	t.Helper()
	data, err := json.Marshal(body)
	require.NoError(t, err)
	resp, err := http.Post(url, "application/json", bytes.NewReader(data))
	require.NoError(t, err)
	t.Cleanup(func() { resp.Body.Close() })
	return resp
}

func doJSON(t *testing.T, method, url string, body any) *http.Response {
	t.Helper()
	data, err := json.Marshal(body)
	require.NoError(t, err)
	req, err := http.NewRequest(method, url, bytes.NewReader(data))
	require.NoError(t, err)
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	t.Cleanup(func() { resp.Body.Close() })
	return resp
}

func TestHealth(t *testing.T) {
	srv, _ := newTestServer(t)
	resp, err := http.Get(srv.URL + "/health")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestCreateTournamentUnknownStructure(t *testing.T) {
	srv, _ := newTestServer(t)
	roomID := uuid.New()

	resp := postJSON(t, fmt.Sprintf("%s/%s/tournament", srv.URL, roomID),
		createTournamentRequest{Structure: "No Such Structure"})
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestCreateTournamentBadRoomID(t *testing.T) {
	srv, _ := newTestServer(t)

	resp := postJSON(t, srv.URL+"/not-a-uuid/tournament",
		createTournamentRequest{Structure: "Nightly TOC"})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestSettingsRoundTrip(t *testing.T) {
	srv, _ := newTestServer(t)
	roomID := uuid.New()
	base := fmt.Sprintf("%s/%s", srv.URL, roomID)

	// no tournament yet
	resp, err := http.Get(base + "/settings")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusConflict, resp.StatusCode)

	resp = postJSON(t, base+"/tournament", createTournamentRequest{Structure: "Nightly TOC"})
	require.Equal(t, http.StatusNoContent, resp.StatusCode)

	resp, err = http.Get(base + "/settings")
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var payload settingsPayload
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&payload))
	assert.Nil(t, payload.DurationOverrideMS)

	ms := (25 * time.Minute).Milliseconds()
	resp = doJSON(t, http.MethodPut, base+"/settings", settingsPayload{DurationOverrideMS: &ms})
	require.Equal(t, http.StatusNoContent, resp.StatusCode)

	resp, err = http.Get(base + "/settings")
	require.NoError(t, err)
	defer resp.Body.Close()
	var updated settingsPayload
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&updated))
	require.NotNil(t, updated.DurationOverrideMS)
	assert.Equal(t, ms, *updated.DurationOverrideMS)
}

func TestSubscriptionEndpoints(t *testing.T) {
	srv, _ := newTestServer(t)
	roomID := uuid.New()
	deviceID := uuid.New()
	base := fmt.Sprintf("%s/%s", srv.URL, roomID)
	subURL := fmt.Sprintf("%s/subscriptions/%s", base, deviceID)
	sub := push.Subscription{
		Endpoint: "https://push.example.com/send/abc",
		Keys:     push.Keys{Auth: "auth", P256dh: "p256dh"},
	}

	// subscribing requires a running tournament
	resp := postJSON(t, subURL, sub)
	assert.Equal(t, http.StatusConflict, resp.StatusCode)

	resp = postJSON(t, base+"/tournament", createTournamentRequest{Structure: "Nightly NLHE"})
	require.Equal(t, http.StatusNoContent, resp.StatusCode)

	resp = postJSON(t, subURL, sub)
	assert.Equal(t, http.StatusNoContent, resp.StatusCode)

	// missing endpoint is rejected
	resp = postJSON(t, subURL, push.Subscription{})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp = doJSON(t, http.MethodDelete, subURL, nil)
	assert.Equal(t, http.StatusNoContent, resp.StatusCode)
}

func TestQRCode(t *testing.T) {
	srv, _ := newTestServer(t)
	roomID := uuid.New()

	resp, err := http.Get(fmt.Sprintf("%s/%s/qr/Friday%%20Game", srv.URL, roomID))
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "image/png", resp.Header.Get("Content-Type"))

	magic := make([]byte, 8)
	_, err = resp.Body.Read(magic)
	require.NoError(t, err)
	assert.Equal(t, []byte{0x89, 'P', 'N', 'G', '\r', '\n', 0x1a, '\n'}, magic)
}

func TestManifest(t *testing.T) {
	srv, _ := newTestServer(t)
	roomID := uuid.New()

	resp, err := http.Get(fmt.Sprintf("%s/%s/Friday/manifest.json", srv.URL, roomID))
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var manifest map[string]any
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&manifest))
	assert.Equal(t, "Friday Poker Timer", manifest["name"])
	assert.Equal(t, fmt.Sprintf("/%s/timer/Friday", roomID), manifest["start_url"])
}

func dialWS(t *testing.T, srv *httptest.Server, roomID, deviceID uuid.UUID) *websocket.Conn {
	t.Helper()
	wsURL := fmt.Sprintf("%s/%s/ws/%s", strings.Replace(srv.URL, "http", "ws", 1), roomID, deviceID)
	conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })
	return conn
}

func readFrame(t *testing.T, conn *websocket.Conn) ServerMessage {
	t.Helper()
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	_, data, err := conn.ReadMessage()
	require.NoError(t, err)
	var msg ServerMessage
	require.NoError(t, json.Unmarshal(data, &msg))
	return msg
}

func sendCommand(t *testing.T, conn *websocket.Conn, cmd room.Command) {
	t.Helper()
	data, err := json.Marshal(ClientMessage{Command: cmd})
	require.NoError(t, err)
	require.NoError(t, conn.WriteMessage(websocket.TextMessage, data))
}

func TestWebsocketSession(t *testing.T) {
	srv, _ := newTestServer(t)
	roomID := uuid.New()
	conn := dialWS(t, srv, roomID, uuid.New())

	// hello snapshot for an idle room
	hello := readFrame(t, conn)
	require.Equal(t, frameState, hello.Type)
	require.NotNil(t, hello.State)
	assert.False(t, hello.State.Running)
	assert.Nil(t, hello.State.Round)

	resp := postJSON(t, fmt.Sprintf("%s/%s/tournament", srv.URL, roomID),
		createTournamentRequest{Structure: "Nightly TOC"})
	require.Equal(t, http.StatusNoContent, resp.StatusCode)

	started := readFrame(t, conn)
	require.Equal(t, frameState, started.Type)
	require.NotNil(t, started.State.Round)
	assert.True(t, started.State.Running)
	assert.Equal(t, 1, started.State.Round.Level)
	assert.True(t, started.State.Round.Clock.IsPaused())

	sendCommand(t, conn, room.CommandResume)
	running := readFrame(t, conn)
	require.NotNil(t, running.State.Round)
	assert.False(t, running.State.Round.Clock.IsPaused())

	sendCommand(t, conn, room.CommandPause)
	paused := readFrame(t, conn)
	require.NotNil(t, paused.State.Round)
	assert.True(t, paused.State.Round.Clock.IsPaused())
}

func TestWebsocketBeepPrecedesLevelChange(t *testing.T) {
	srv, _ := newTestServer(t)
	roomID := uuid.New()
	conn := dialWS(t, srv, roomID, uuid.New())
	readFrame(t, conn) // hello

	resp := postJSON(t, fmt.Sprintf("%s/%s/tournament", srv.URL, roomID),
		createTournamentRequest{Structure: "Nightly TOC"})
	require.Equal(t, http.StatusNoContent, resp.StatusCode)
	readFrame(t, conn) // started

	sendCommand(t, conn, room.CommandNextLevel)
	beep := readFrame(t, conn)
	assert.Equal(t, frameBeep, beep.Type)
	state := readFrame(t, conn)
	require.Equal(t, frameState, state.Type)
	require.NotNil(t, state.State.Round)
	assert.Equal(t, 2, state.State.Round.Level)
}

func TestWebsocketClosesOnBadFrame(t *testing.T) {
	srv, _ := newTestServer(t)
	conn := dialWS(t, srv, uuid.New(), uuid.New())
	readFrame(t, conn) // hello

	require.NoError(t, conn.WriteMessage(websocket.TextMessage, []byte("not json")))

	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	_, _, err := conn.ReadMessage()
	assert.Error(t, err)
}
