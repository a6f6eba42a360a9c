package websocket

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rocketscienceinc/bingo-backend/internal/config"
	"github.com/rocketscienceinc/bingo-backend/internal/metrics"
	"github.com/rocketscienceinc/bingo-backend/internal/repository"
	"github.com/rocketscienceinc/bingo-backend/internal/usecase"
)

const readTimeout = 5 * time.Second

type testServer struct {
	url string
	hub *Hub
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()

	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)

	logger := slog.New(slog.NewJSONHandler(io.Discard, nil))
	m := metrics.New(prometheus.NewRegistry())
	hub := NewHub(m)
	rooms := repository.NewRoomRegistry(func() (string, error) { return "room1", nil })
	session := usecase.NewSession(logger, rooms, repository.NewNopResultRepository(), m, hub)

	conf := config.Websocket{
		WriteTimeout: time.Second,
		PingInterval: time.Minute,
		SendBuffer:   16,
	}

	srv := httptest.NewServer(New(logger, conf, []string{"*"}, hub, session).Handler(ctx))
	t.Cleanup(srv.Close)

	return &testServer{
		url: "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws",
		hub: hub,
	}
}

type testClient struct {
	t    *testing.T
	conn *websocket.Conn
	sid  string
}

func (that *testServer) dial(t *testing.T) *testClient {
	t.Helper()

	conn, resp, err := websocket.DefaultDialer.Dial(that.url, nil)
	require.NoError(t, err)
	_ = resp.Body.Close()
	t.Cleanup(func() { _ = conn.Close() })

	c := &testClient{t: t, conn: conn}

	var connected usecase.ConnectedPayload
	c.expect(usecase.ActionConnected, &connected)
	require.NotEmpty(t, connected.SID)
	c.sid = connected.SID

	return c
}

func (that *testClient) send(action string, payload any) {
	that.t.Helper()

	raw, err := json.Marshal(payload)
	require.NoError(that.t, err)

	require.NoError(that.t, that.conn.WriteJSON(Message{Action: action, Payload: raw}))
}

func (that *testClient) sendRaw(data string) {
	that.t.Helper()

	require.NoError(that.t, that.conn.WriteMessage(websocket.TextMessage, []byte(data)))
}

// expect reads frames until action arrives and decodes its payload into v.
func (that *testClient) expect(action string, v any) {
	that.t.Helper()

	require.NoError(that.t, that.conn.SetReadDeadline(time.Now().Add(readTimeout)))

	for {
		var message Message
		require.NoError(that.t, that.conn.ReadJSON(&message), "waiting for %s", action)

		if message.Action != action {
			continue
		}

		if v != nil {
			require.NoError(that.t, json.Unmarshal(message.Payload, v))
		}

		return
	}
}

func board(start int) []int {
	cells := make([]int, 25)
	for i := range cells {
		cells[i] = start + i
	}
	return cells
}

func TestServer_GameFlow(t *testing.T) {
	server := newTestServer(t)

	host := server.dial(t)
	guest := server.dial(t)
	assert.NotEqual(t, host.sid, guest.sid)

	// Given: the host creates a room and the guest joins it
	host.send("create_room", map[string]string{"player_name": "Alice"})

	var created usecase.RoomPayload
	host.expect(usecase.ActionRoomCreated, &created)
	require.Equal(t, "room1", created.RoomID)

	guest.send("join_room", map[string]string{"room_id": created.RoomID, "player_name": "Bob"})
	guest.expect(usecase.ActionRoomJoined, nil)

	var joined usecase.UserJoinedPayload
	host.expect(usecase.ActionUserJoined, &joined)
	assert.Equal(t, usecase.UserJoinedPayload{SID: guest.sid, PlayerName: "Bob"}, joined)

	// When: both submit boards and the host starts
	host.send("board_submitted", map[string][]int{"board": board(1)})
	guest.send("board_submitted", map[string][]int{"board": board(26)})

	var boards usecase.BoardsReceivedPayload
	host.expect(usecase.ActionBoardsReceived, &boards)
	guest.expect(usecase.ActionBoardsReceived, nil)
	assert.Equal(t, board(26), boards.Boards[guest.sid])

	host.send("start_game_button_clicked", nil)

	var start usecase.GameStartPayload
	guest.expect(usecase.ActionGameStart, &start)
	host.expect(usecase.ActionGameStart, nil)
	require.Contains(t, []string{host.sid, guest.sid}, start.CurrentTurn)

	// Then: the player in turn calls a number and both see it
	caller, waiter := host, guest
	if start.CurrentTurn == guest.sid {
		caller, waiter = guest, host
	}

	waiter.send("call_number_from_board", map[string]int{"number": 3})

	var notice usecase.MessagePayload
	waiter.expect(usecase.ActionMessage, &notice)
	assert.Equal(t, "It's not your turn!", notice.Text)

	caller.send("call_number_from_board", map[string]int{"number": 3})

	var called usecase.NumberCalledPayload
	waiter.expect(usecase.ActionNumberCalled, &called)
	caller.expect(usecase.ActionNumberCalled, nil)
	assert.Equal(t, 3, called.Number)
	assert.Equal(t, waiter.sid, called.NextTurn)
	assert.Equal(t, []int{3}, called.CalledNumbers)

	// When: the guest drops
	require.NoError(t, guest.conn.Close())

	// Then: the host wins by forfeit
	var over usecase.FinalStatePayload
	host.expect(usecase.ActionGameOver, &over)
	assert.Equal(t, host.sid, over.WinnerSID)
	assert.Equal(t, "Opponent (Bob) disconnected. Game ended.", over.Message)
	assert.Equal(t, []int{3}, over.CalledNumbersFinal)
	assert.True(t, over.FinalMarkedBoards[host.sid][0][2])
}

func TestServer_MalformedRequests(t *testing.T) {
	server := newTestServer(t)
	peer := server.dial(t)

	t.Run("Call without a number is answered with a notice", func(t *testing.T) {
		peer.send("call_number_from_board", map[string]string{})

		var notice usecase.MessagePayload
		peer.expect(usecase.ActionMessage, &notice)
		assert.Equal(t, "Malformed call_number_from_board request.", notice.Text)
	})

	t.Run("Board of the wrong type is answered with a notice", func(t *testing.T) {
		peer.sendRaw(`{"action":"board_submitted","payload":{"board":"nope"}}`)

		var notice usecase.MessagePayload
		peer.expect(usecase.ActionMessage, &notice)
		assert.Equal(t, "Malformed board_submitted request.", notice.Text)
	})

	t.Run("Garbage and unknown actions keep the connection open", func(t *testing.T) {
		peer.sendRaw(`not json`)
		peer.sendRaw(`{"action":"dance"}`)
		peer.send("create_room", nil)

		var created usecase.RoomPayload
		peer.expect(usecase.ActionRoomCreated, &created)
		assert.Equal(t, "room1", created.RoomID)
	})
}

func TestServer_CloseAllDisconnectsClients(t *testing.T) {
	server := newTestServer(t)
	peer := server.dial(t)
	require.Eventually(t, func() bool { return server.hub.Count() == 1 }, readTimeout, 10*time.Millisecond)

	server.hub.CloseAll()

	require.NoError(t, peer.conn.SetReadDeadline(time.Now().Add(readTimeout)))
	_, _, err := peer.conn.ReadMessage()
	require.Error(t, err)
	assert.True(t, websocket.IsCloseError(err, websocket.CloseNormalClosure))
	require.Eventually(t, func() bool { return server.hub.Count() == 0 }, readTimeout, 10*time.Millisecond)
}

func TestOriginChecker(t *testing.T) {
	request := func(origin string) *http.Request {
		r := httptest.NewRequest(http.MethodGet, "/ws", nil)
		if origin != "" {
			r.Header.Set("Origin", origin)
		}
		return r
	}

	t.Run("Wildcard allows any origin", func(t *testing.T) {
		check := originChecker([]string{"*"})

		assert.True(t, check(request("http://evil.example")))
	})

	t.Run("List allows only listed origins", func(t *testing.T) {
		check := originChecker([]string{"http://localhost:3000"})

		assert.True(t, check(request("http://localhost:3000")))
		assert.True(t, check(request("")))
		assert.False(t, check(request("http://evil.example")))
	})
}

func TestHub_Emit(t *testing.T) {
	hub := NewHub(metrics.New(prometheus.NewRegistry()))

	t.Run("Unknown connection", func(t *testing.T) {
		err := hub.Emit("nobody", usecase.ActionMessage, usecase.MessagePayload{Text: "hi"})

		require.ErrorIs(t, err, ErrConnectionNotFound)
	})

	t.Run("Full buffer is reported instead of blocking", func(t *testing.T) {
		c := newClient("slow", nil, 1, time.Second, time.Minute)
		hub.register(c)
		t.Cleanup(func() { hub.unregister("slow") })

		require.NoError(t, hub.Emit("slow", usecase.ActionMessage, usecase.MessagePayload{Text: "one"}))
		err := hub.Emit("slow", usecase.ActionMessage, usecase.MessagePayload{Text: "two"})

		require.ErrorIs(t, err, ErrSendBufferFull)
	})

	t.Run("Closed connection", func(t *testing.T) {
		c := newClient("gone", nil, 1, time.Second, time.Minute)
		hub.register(c)
		c.close()
		t.Cleanup(func() { hub.unregister("gone") })

		err := hub.Emit("gone", usecase.ActionMessage, usecase.MessagePayload{Text: "hi"})

		require.ErrorIs(t, err, ErrConnectionClosed)
	})
}
