package websocket

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"slices"
	"time"

	"github.com/gorilla/websocket"

	"github.com/rocketscienceinc/bingo-backend/internal/config"
	"github.com/rocketscienceinc/bingo-backend/internal/entity"
	"github.com/rocketscienceinc/bingo-backend/internal/pkg"
	"github.com/rocketscienceinc/bingo-backend/internal/usecase"
)

const shutdownTimeout = 5 * time.Second

type session interface {
	CreateRoom(sid, playerName string) error
	JoinRoom(sid, roomID, playerName string) error
	SubmitBoard(sid string, cells []int) error
	StartGame(sid string) error
	CallNumber(ctx context.Context, sid string, number int) error
	RequestPlayAgain(sid string) error
	RespondPlayAgain(ctx context.Context, sid string, response entity.Response, requesterSID string) error
	Disconnect(ctx context.Context, sid string)
}

type handlerFunc func(ctx context.Context, sid string, payload json.RawMessage) error

type Server struct {
	logger  *slog.Logger
	conf    config.Websocket
	hub     *Hub
	session session

	upgrader websocket.Upgrader
	newSID   func() string

	handlers map[string]handlerFunc
}

func New(logger *slog.Logger, conf config.Websocket, allowedOrigins []string, hub *Hub, session session) *Server {
	server := &Server{
		logger:  logger.With("component", "websocket"),
		conf:    conf,
		hub:     hub,
		session: session,
		newSID:  pkg.GenerateNewSessionID,

		handlers: make(map[string]handlerFunc),
	}

	server.upgrader = websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin:     originChecker(allowedOrigins),
	}

	server.handlers["create_room"] = server.handleCreateRoom
	server.handlers["join_room"] = server.handleJoinRoom
	server.handlers["board_submitted"] = server.handleBoardSubmitted
	server.handlers["start_game_button_clicked"] = server.handleStartGame
	server.handlers["call_number_from_board"] = server.handleCallNumber
	server.handlers["request_play_again"] = server.handleRequestPlayAgain
	server.handlers["respond_play_again"] = server.handleRespondPlayAgain

	return server
}

func (that *Server) Handler(ctx context.Context) http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/ws", func(w http.ResponseWriter, r *http.Request) {
		that.serveConnection(ctx, w, r)
	})

	return mux
}

// Start - starts WebSocket server and stops it when ctx is done.
func (that *Server) Start(ctx context.Context, port string) error {
	srv := &http.Server{
		Addr:              ":" + port,
		Handler:           that.Handler(ctx),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		<-ctx.Done()

		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()

		that.hub.CloseAll()

		if err := srv.Shutdown(shutdownCtx); err != nil {
			that.logger.Error("failed to shutdown websocket server", "error", err)
		}
	}()

	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("failed to start server: %w", err)
	}

	return nil
}

// serveConnection upgrades the request and runs the connection until it closes.
func (that *Server) serveConnection(ctx context.Context, w http.ResponseWriter, r *http.Request) {
	log := that.logger.With("method", "serveConnection")

	conn, err := that.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Warn("failed to upgrade connection", "error", err)
		return
	}

	c := newClient(that.newSID(), conn, that.conf.SendBuffer, that.conf.WriteTimeout, that.conf.PingInterval)
	log = log.With("sid", c.sid)

	that.hub.register(c)
	go c.writePump(that.logger)

	log.Info("websocket connection established")

	if err = that.hub.Emit(c.sid, usecase.ActionConnected, usecase.ConnectedPayload{SID: c.sid}); err != nil {
		log.Warn("failed to announce sid", "error", err)
	}

	that.readLoop(ctx, c)

	that.session.Disconnect(ctx, c.sid)
	that.hub.unregister(c.sid)

	log.Info("websocket connection closed")
}

// readLoop handles frames one at a time so requests of a connection keep their order.
func (that *Server) readLoop(ctx context.Context, c *client) {
	log := that.logger.With("method", "readLoop", "sid", c.sid)

	c.conn.SetReadLimit(maxMessageSize)
	_ = c.conn.SetReadDeadline(c.readDeadline())
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(c.readDeadline())
	})

	for {
		_, data, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				log.Warn("unexpected close", "error", err)
			}
			return
		}

		_ = c.conn.SetReadDeadline(c.readDeadline())

		var message Message
		if err = json.Unmarshal(data, &message); err != nil {
			log.Warn("failed to unmarshal message", "error", err)
			continue
		}

		handler, ok := that.handlers[message.Action]
		if !ok {
			log.Warn("unknown action", "action", message.Action)
			continue
		}

		if err = handler(ctx, c.sid, message.Payload); err != nil {
			that.handleError(log, c.sid, message.Action, err)
		}
	}
}

// handleError answers malformed payloads; every other error was already answered by the session.
func (that *Server) handleError(log *slog.Logger, sid, action string, err error) {
	if !errors.Is(err, ErrMalformedPayload) {
		log.Debug("request rejected", "action", action, "error", err)
		return
	}

	log.Warn("malformed payload", "action", action, "error", err)

	notice := usecase.MessagePayload{Text: fmt.Sprintf("Malformed %s request.", action)}
	if emitErr := that.hub.Emit(sid, usecase.ActionMessage, notice); emitErr != nil {
		log.Warn("failed to deliver notice", "error", emitErr)
	}
}

func originChecker(allowed []string) func(r *http.Request) bool {
	if len(allowed) == 0 || slices.Contains(allowed, "*") {
		return func(*http.Request) bool { return true }
	}

	return func(r *http.Request) bool {
		origin := r.Header.Get("Origin")
		return origin == "" || slices.Contains(allowed, origin)
	}
}
