package server_test

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/skye-hx/watchparty/internal/room"
	"github.com/skye-hx/watchparty/internal/server"
	"github.com/skye-hx/watchparty/internal/session"
	"github.com/skye-hx/watchparty/internal/signaling"
)

func startCoordinator(t *testing.T) *httptest.Server {
	t.Helper()
	hub := signaling.NewHub(zerolog.Nop())
	go hub.Run()

	ts := httptest.NewServer(server.Routes(hub))
	t.Cleanup(ts.Close)
	return ts
}

func dial(t *testing.T, ts *httptest.Server) (*session.Client, *session.Handler, string) {
	t.Helper()
	wsURL := "ws" + strings.TrimPrefix(ts.URL, "http") + "/ws"

	client := session.NewClient(wsURL)
	require.NoError(t, client.Connect())
	t.Cleanup(client.Close)

	handler := session.NewHandler(client)
	go handler.Start()

	id := recv(t, handler.Welcome)
	require.NotEmpty(t, id)
	return client, handler, id
}

func recv[T any](t *testing.T, ch <-chan T) T {
	t.Helper()
	select {
	case v, ok := <-ch:
		require.True(t, ok, "channel closed before the expected event arrived")
		return v
	case <-time.After(5 * time.Second):
		t.Fatal("timed out waiting for event")
		var zero T
		return zero
	}
}

func TestHealthEndpoint(t *testing.T) {
	ts := startCoordinator(t)

	resp, err := http.Get(ts.URL + "/api/health")
	require.NoError(t, err)
	defer resp.Body.Close()

	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "application/json", resp.Header.Get("Content-Type"))

	var body struct {
		OK   bool   `json:"ok"`
		Name string `json:"name"`
		Time string `json:"time"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.True(t, body.OK)
	assert.Equal(t, server.ServiceName, body.Name)

	_, err = time.Parse(time.RFC3339, body.Time)
	assert.NoError(t, err)
}

func TestNewRoomEndpoint(t *testing.T) {
	ts := startCoordinator(t)

	resp, err := http.Post(ts.URL+"/api/new-room", "application/json", nil)
	require.NoError(t, err)
	defer resp.Body.Close()

	require.Equal(t, http.StatusOK, resp.StatusCode)

	var body struct {
		RoomCode string `json:"roomCode"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))

	code, ok := room.NormalizeCode(body.RoomCode)
	require.True(t, ok)
	assert.Equal(t, body.RoomCode, code, "issued code must already be canonical")
}

// TestRoomLifecycle walks a whole party over real websocket connections:
// host joins, a viewer joins, chat and the host link fan out, negotiation
// messages relay point to point, and the host's disconnect demotes the
// room.
func TestRoomLifecycle(t *testing.T) {
	ts := startCoordinator(t)

	hostClient, host, hostID := dial(t, ts)
	hostClient.JoinRoom("AB12CD", "Skye", "host")

	snap := recv(t, host.RoomState)
	assert.Equal(t, "AB12CD", snap.RoomCode)
	assert.Equal(t, hostID, snap.HostID)
	require.Len(t, snap.Participants, 1)
	assert.Equal(t, room.RoleHost, snap.Participants[0].Role)
	assert.Equal(t, hostID, recv(t, host.HostStatus))

	viewClient, view, viewID := dial(t, ts)
	viewClient.JoinRoom("ab 12 cd", "Sam", "viewer")

	snap = recv(t, view.RoomState)
	assert.Equal(t, hostID, snap.HostID)
	require.Len(t, snap.Participants, 2)
	assert.Equal(t, hostID, recv(t, view.HostStatus))

	snap = recv(t, host.RoomState)
	require.Len(t, snap.Participants, 2)
	assert.Equal(t, viewID, recv(t, host.ViewerJoins))

	// Chat reaches the whole room, stamped with the sender's session
	// identity.
	viewClient.SendChat("AB12CD", "  hello there  ")
	for _, h := range []*session.Handler{host, view} {
		msg := recv(t, h.Chat)
		assert.Equal(t, "Sam", msg.Name)
		assert.Equal(t, room.RoleViewer, msg.Role)
		assert.Equal(t, "hello there", msg.Text)
	}

	hostClient.ShareURL("AB12CD", "https://example.com/movie")
	link := recv(t, view.HostURL)
	assert.Equal(t, "https://example.com/movie", link.URL)

	// Point-to-point relay, restamped with the true sender.
	offer := json.RawMessage(`{"type":"offer","sdp":"v=0"}`)
	hostClient.SendOffer(viewID, offer)
	got := recv(t, view.Offer)
	assert.Equal(t, hostID, got.From)
	assert.JSONEq(t, string(offer), string(got.SDP))

	answer := json.RawMessage(`{"type":"answer","sdp":"v=0"}`)
	viewClient.SendAnswer(hostID, answer)
	gotAns := recv(t, host.Answer)
	assert.Equal(t, viewID, gotAns.From)

	cand := json.RawMessage(`{"candidate":"candidate:1 1 udp 1 10.0.0.1 50000 typ host"}`)
	viewClient.SendCandidate(hostID, cand)
	gotCand := recv(t, host.Candidate)
	assert.Equal(t, viewID, gotCand.From)
	assert.JSONEq(t, string(cand), string(gotCand.Candidate))

	// Host walks away: the viewer learns it and the room loses its host
	// without losing the viewer.
	hostClient.Close()

	assert.NotZero(t, recv(t, view.HostLeft))
	snap = recv(t, view.RoomState)
	assert.Empty(t, snap.HostID)
	require.Len(t, snap.Participants, 1)
	assert.Equal(t, viewID, snap.Participants[0].ID)
}

// TestRoomIsolation confirms traffic in one room never bleeds into
// another.
func TestRoomIsolation(t *testing.T) {
	ts := startCoordinator(t)

	aClient, a, _ := dial(t, ts)
	aClient.JoinRoom("AAAA22", "A", "host")
	recv(t, a.RoomState)
	recv(t, a.HostStatus)

	bClient, b, _ := dial(t, ts)
	bClient.JoinRoom("BBBB33", "B", "host")
	recv(t, b.RoomState)
	recv(t, b.HostStatus)

	aClient.SendChat("AAAA22", "room A only")
	recv(t, a.Chat)

	select {
	case msg := <-b.Chat:
		t.Fatalf("room B received room A's chat: %q", msg.Text)
	case <-time.After(300 * time.Millisecond):
	}
}
