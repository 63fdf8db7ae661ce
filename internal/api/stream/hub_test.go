package stream

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wonny/risklens/internal/portfolio"
	"github.com/wonny/risklens/pkg/logger"
)

func startHub(t *testing.T) (*Hub, *httptest.Server) {
	t.Helper()
	hub := NewHub(logger.Nop())
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	go hub.Run(ctx)

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		user := strings.TrimPrefix(r.URL.Path, "/")
		initial := &portfolio.Update{Type: "snapshot", UserID: user}
		if err := hub.Serve(w, r, user, initial); err != nil {
			t.Logf("serve: %v", err)
		}
	}))
	t.Cleanup(srv.Close)
	return hub, srv
}

func dial(t *testing.T, srv *httptest.Server, user string) *websocket.Conn {
	t.Helper()
	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/" + user
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })
	return conn
}

func readUpdate(t *testing.T, conn *websocket.Conn) portfolio.Update {
	t.Helper()
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	_, data, err := conn.ReadMessage()
	require.NoError(t, err)
	var u portfolio.Update
	require.NoError(t, json.Unmarshal(data, &u))
	return u
}

func TestHubDeliversToSubscribedUser(t *testing.T) {
	hub, srv := startHub(t)

	alice := dial(t, srv, "alice")
	bob := dial(t, srv, "bob")

	assert.Equal(t, "snapshot", readUpdate(t, alice).Type)
	assert.Equal(t, "snapshot", readUpdate(t, bob).Type)

	require.Eventually(t, func() bool {
		return hub.Clients("alice") == 1 && hub.Clients("bob") == 1
	}, time.Second, 10*time.Millisecond)

	hub.Publish(portfolio.Update{Type: portfolio.UpdateHoldingAdded, UserID: "alice"})

	got := readUpdate(t, alice)
	assert.Equal(t, portfolio.UpdateHoldingAdded, got.Type)
	assert.Equal(t, "alice", got.UserID)

	require.NoError(t, bob.SetReadDeadline(time.Now().Add(100*time.Millisecond)))
	_, _, err := bob.ReadMessage()
	assert.Error(t, err, "bob is not subscribed to alice")
}

func TestHubUnregistersOnDisconnect(t *testing.T) {
	hub, srv := startHub(t)

	conn := dial(t, srv, "carol")
	readUpdate(t, conn)
	require.Eventually(t, func() bool { return hub.Clients("carol") == 1 }, time.Second, 10*time.Millisecond)

	conn.Close()
	assert.Eventually(t, func() bool { return hub.Clients("carol") == 0 }, 2*time.Second, 10*time.Millisecond)
}

func TestServeRejectsPlainHTTP(t *testing.T) {
	hub := NewHub(logger.Nop())
	rec := httptest.NewRecorder()
	err := hub.Serve(rec, httptest.NewRequest(http.MethodGet, "/", nil), "u", nil)
	assert.Error(t, err)
}
