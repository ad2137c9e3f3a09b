package websocket

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/appdotbuilder/member-contributions-manager/internal/domain"
	"github.com/appdotbuilder/member-contributions-manager/internal/events"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func serveFeed(t *testing.T, hub *Hub, caller domain.Caller) *websocket.Conn {
	t.Helper()

	upgrader := websocket.Upgrader{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		NewClient(conn, caller, hub).Serve()
	}))
	t.Cleanup(srv.Close)

	conn, _, err := websocket.DefaultDialer.Dial("ws"+strings.TrimPrefix(srv.URL, "http"), nil)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })
	_ = conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	return conn
}

func TestClient_Serve_GreetsThenStreamsAudienceEvents(t *testing.T) {
	hub := NewHub()
	conn := serveFeed(t, hub, domain.Caller{MemberID: 7, Role: domain.RoleMember})

	var hello welcome
	require.NoError(t, conn.ReadJSON(&hello))
	assert.Equal(t, "connected", hello.Type)
	assert.Equal(t, int32(7), hello.MemberID)
	assert.Equal(t, domain.RoleMember, hello.Role)

	require.Eventually(t, func() bool { return hub.ClientCount(7) == 1 }, time.Second, 5*time.Millisecond)

	hub.Broadcast(events.ForMember(8), contributionPaid(1))
	hub.Broadcast(events.ForMember(7), contributionPaid(2))

	var ev events.Event
	require.NoError(t, conn.ReadJSON(&ev))
	assert.Equal(t, "contribution.paid", ev.Type)
	assert.Equal(t, map[string]any{"id": float64(2)}, ev.Payload)
}

func TestClient_Serve_UnregistersWhenPeerLeaves(t *testing.T) {
	hub := NewHub()
	conn := serveFeed(t, hub, domain.Caller{MemberID: 3, Role: domain.RoleAdmin})

	require.Eventually(t, func() bool { return hub.ClientCount(3) == 1 }, time.Second, 5*time.Millisecond)

	require.NoError(t, conn.Close())
	assert.Eventually(t, func() bool { return hub.TotalClientCount() == 0 }, time.Second, 5*time.Millisecond)
}
