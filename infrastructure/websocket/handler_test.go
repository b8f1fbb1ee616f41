package websocket_test

import (
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"mwalimu-chat/auth"
	"mwalimu-chat/contract"
	"mwalimu-chat/domain/event"
	chatws "mwalimu-chat/infrastructure/websocket"
	"mwalimu-chat/infrastructure/wire"
	"mwalimu-chat/repositories"
	"mwalimu-chat/runtime"
	"mwalimu-chat/runtime/workers"

	"github.com/gorilla/websocket"
	"github.com/mama165/sdk-go/logs"
	"github.com/stretchr/testify/require"
)

const secret = "a-long-enough-test-secret-for-hs256"

func newServer(t *testing.T, authorizer contract.Authorizer, origins ...string) (*httptest.Server, *runtime.Orchestrator) {
	log := logs.GetLoggerFromLevel(slog.LevelDebug)
	orchestrator := runtime.NewOrchestrator(log, workers.NewSupervisor(log, 0), repositories.NewMemoryHistory(0), 32)
	handler := chatws.NewHandler(log, orchestrator, authorizer, chatws.Config{AllowedOrigins: origins})
	srv := httptest.NewServer(handler.Routes())
	t.Cleanup(func() {
		orchestrator.Stop()
		srv.Close()
	})
	return srv, orchestrator
}

func wsURL(srv *httptest.Server) string {
	return "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws"
}

func dial(t *testing.T, srv *httptest.Server) *websocket.Conn {
	conn, _, err := websocket.DefaultDialer.Dial(wsURL(srv), nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.Close() })
	return conn
}

func readFrame(t *testing.T, conn *websocket.Conn) wire.ServerFrame {
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	var frame wire.ServerFrame
	require.NoError(t, conn.ReadJSON(&frame))
	return frame
}

// readUntil skips frames until one of the given type shows up.
func readUntil(t *testing.T, conn *websocket.Conn, kind event.Kind) wire.ServerFrame {
	for {
		frame := readFrame(t, conn)
		if frame.Type == kind {
			return frame
		}
	}
}

func send(t *testing.T, conn *websocket.Conn, frame wire.ClientFrame) {
	require.NoError(t, conn.WriteJSON(frame))
}

func TestWebsocket_Open_Sends_Count_Then_History(t *testing.T) {
	req := require.New(t)
	srv, _ := newServer(t, auth.AllowAll{})

	conn := dial(t, srv)

	count := readFrame(t, conn)
	req.Equal(event.KindParticipantCount, count.Type)
	req.Equal(1, *count.Count)
	history := readFrame(t, conn)
	req.Equal(event.KindHistory, history.Type)
	req.Empty(history.Messages)
}

func TestWebsocket_Post_Is_Broadcast_To_Everyone(t *testing.T) {
	req := require.New(t)
	srv, _ := newServer(t, auth.AllowAll{})
	a := dial(t, srv)
	readUntil(t, a, event.KindHistory)
	b := dial(t, srv)
	readUntil(t, b, event.KindHistory)

	// When A joins explicitly then posts
	send(t, a, wire.ClientFrame{Type: wire.TypeJoin})
	send(t, a, wire.ClientFrame{Type: wire.TypePost, Author: "Mwalimu", Text: "hello"})

	// Then both receive it, the author included
	for _, conn := range []*websocket.Conn{a, b} {
		frame := readUntil(t, conn, event.KindMessagePublished)
		req.Equal("hello", frame.Message.Text)
		req.Equal("Mwalimu", frame.Message.Author)
		req.Equal(uint64(1), frame.Message.Seq)
	}
}

func TestWebsocket_Empty_Post_Is_Rejected(t *testing.T) {
	req := require.New(t)
	srv, orchestrator := newServer(t, auth.AllowAll{})
	conn := dial(t, srv)
	readUntil(t, conn, event.KindHistory)

	send(t, conn, wire.ClientFrame{Type: wire.TypePost, Author: "A", Text: "   "})

	frame := readFrame(t, conn)
	req.Equal(event.KindRejected, frame.Type)
	req.Contains(frame.Reason, "invalid message")
	req.Zero(orchestrator.Stats().Messages)
}

func TestWebsocket_Disconnect_Updates_Count(t *testing.T) {
	req := require.New(t)
	srv, orchestrator := newServer(t, auth.AllowAll{})
	a := dial(t, srv)
	readUntil(t, a, event.KindHistory)
	b := dial(t, srv)
	readUntil(t, b, event.KindHistory)
	req.Equal(2, *readUntil(t, a, event.KindParticipantCount).Count)

	// When B goes away
	req.NoError(b.Close())

	// Then A hears one member is left
	req.Equal(1, *readUntil(t, a, event.KindParticipantCount).Count)
	req.Eventually(func() bool { return orchestrator.Stats().Participants == 1 }, time.Second, 10*time.Millisecond)
}

func TestWebsocket_Auth(t *testing.T) {
	srv, _ := newServer(t, auth.NewJWTAuthorizer(secret))

	t.Run("missing token is refused before upgrade", func(t *testing.T) {
		req := require.New(t)
		_, resp, err := websocket.DefaultDialer.Dial(wsURL(srv), nil)
		req.Error(err)
		req.NotNil(resp)
		req.Equal(http.StatusUnauthorized, resp.StatusCode)
	})

	t.Run("bearer header", func(t *testing.T) {
		req := require.New(t)
		token, err := auth.GenerateToken([]byte(secret), "member-1", nil, time.Hour)
		req.NoError(err)
		header := http.Header{"Authorization": []string{"Bearer " + token}}

		conn, _, err := websocket.DefaultDialer.Dial(wsURL(srv), header)
		req.NoError(err)
		defer conn.Close()
		req.Equal(event.KindParticipantCount, readFrame(t, conn).Type)
	})

	t.Run("query parameter", func(t *testing.T) {
		req := require.New(t)
		token, err := auth.GenerateToken([]byte(secret), "member-2", nil, time.Hour)
		req.NoError(err)

		conn, _, err := websocket.DefaultDialer.Dial(wsURL(srv)+"?token="+token, nil)
		req.NoError(err)
		defer conn.Close()
		req.Equal(event.KindParticipantCount, readFrame(t, conn).Type)
	})
}

func TestWebsocket_Origin_Allow_List(t *testing.T) {
	req := require.New(t)
	srv, _ := newServer(t, auth.AllowAll{}, "https://mwalimu.example")

	_, resp, err := websocket.DefaultDialer.Dial(wsURL(srv), http.Header{"Origin": []string{"https://evil.example"}})
	req.Error(err)
	req.Equal(http.StatusForbidden, resp.StatusCode)

	conn, _, err := websocket.DefaultDialer.Dial(wsURL(srv), http.Header{"Origin": []string{"HTTPS://Mwalimu.example"}})
	req.NoError(err)
	_ = conn.Close()
}

func TestHttp_Live_And_Health(t *testing.T) {
	req := require.New(t)
	srv, _ := newServer(t, auth.AllowAll{})
	conn := dial(t, srv)
	readUntil(t, conn, event.KindHistory)

	resp, err := http.Get(srv.URL + "/")
	req.NoError(err)
	body, err := io.ReadAll(resp.Body)
	req.NoError(err)
	_ = resp.Body.Close()
	req.Equal(chatws.LiveText, string(body))

	resp, err = http.Get(srv.URL + "/healthz")
	req.NoError(err)
	defer resp.Body.Close()
	var health map[string]any
	req.NoError(json.NewDecoder(resp.Body).Decode(&health))
	req.Equal("ok", health["status"])
	req.EqualValues(1, health["participants"])
	req.EqualValues(0, health["messages"])
}
