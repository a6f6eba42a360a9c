package usecase

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/rocketscienceinc/bingo-backend/internal/apperror"
	"github.com/rocketscienceinc/bingo-backend/internal/entity"
	"github.com/rocketscienceinc/bingo-backend/internal/metrics"
)

// Emitter delivers an outbound event to a single connection.
type Emitter interface {
	Emit(sid, action string, payload any) error
}

type roomRegistry interface {
	Create(hostID, hostName string) (*entity.Room, error)
	Join(roomID, sid, name string) (*entity.Room, entity.Snapshot, error)
	GetByConnection(sid string) (*entity.Room, error)
	Unbind(sid string)
	DeleteByID(id string) error
	Count() int
}

type resultRecorder interface {
	Record(ctx context.Context, result entity.GameResult) error
}

// Session routes connection events to rooms and delivers the resulting events.
// Rejected requests are answered with a notice to the sender and returned as errors.
type Session struct {
	logger  *slog.Logger
	rooms   roomRegistry
	results resultRecorder
	metrics *metrics.Metrics
	emitter Emitter

	now func() time.Time
}

func NewSession(logger *slog.Logger, rooms roomRegistry, results resultRecorder, m *metrics.Metrics, emitter Emitter) *Session {
	return &Session{
		logger:  logger.With("component", "session"),
		rooms:   rooms,
		results: results,
		metrics: m,
		emitter: emitter,
		now:     time.Now,
	}
}

func (that *Session) CreateRoom(sid, playerName string) error {
	log := that.logger.With("method", "CreateRoom", "sid", sid)

	room, err := that.rooms.Create(sid, playerName)
	if err != nil {
		that.reject(log, sid, err, 0)
		return fmt.Errorf("failed to create room: %w", err)
	}

	that.trackRooms()
	that.emit(log, sid, ActionRoomCreated, RoomPayload{RoomID: room.ID()})

	log.Info("room created", "room_id", room.ID())

	return nil
}

func (that *Session) JoinRoom(sid, roomID, playerName string) error {
	log := that.logger.With("method", "JoinRoom", "sid", sid, "room_id", roomID)

	_, snap, err := that.rooms.Join(roomID, sid, playerName)
	switch {
	case errors.Is(err, apperror.ErrRoomFull):
		log.Debug("room is full")
		that.emit(log, sid, ActionRoomFull, RoomPayload{RoomID: roomID})
		return fmt.Errorf("failed to join room: %w", err)
	case errors.Is(err, apperror.ErrRoomNotFound), errors.Is(err, apperror.ErrRoomClosed):
		log.Debug("room does not exist")
		that.emit(log, sid, ActionInvalidRoom, RoomPayload{RoomID: roomID})
		return fmt.Errorf("failed to join room: %w", err)
	case err != nil:
		that.reject(log, sid, err, 0)
		return fmt.Errorf("failed to join room: %w", err)
	}

	that.emit(log, sid, ActionRoomJoined, RoomPayload{RoomID: roomID})
	that.broadcastExcept(log, snap.Members, sid, ActionUserJoined, UserJoinedPayload{
		SID:        sid,
		PlayerName: snap.PlayerNames[sid],
	})

	log.Info("player joined", "player_name", snap.PlayerNames[sid])

	return nil
}

func (that *Session) SubmitBoard(sid string, cells []int) error {
	log := that.logger.With("method", "SubmitBoard", "sid", sid)

	if len(cells) != entity.BoardSize {
		that.reject(log, sid, apperror.ErrInvalidBoard, 0)
		return fmt.Errorf("failed to submit board of %d cells: %w", len(cells), apperror.ErrInvalidBoard)
	}

	room, err := that.rooms.GetByConnection(sid)
	if err != nil {
		that.reject(log, sid, err, 0)
		return fmt.Errorf("failed to submit board: %w", err)
	}

	ready, snap, err := room.SubmitBoard(sid, entity.Board(cells))
	if err != nil {
		that.reject(log, sid, err, 0)
		return fmt.Errorf("failed to submit board: %w", err)
	}

	log.Debug("board submitted", "room_id", room.ID())

	if ready {
		that.broadcast(log, snap.Members, ActionBoardsReceived, BoardsReceivedPayload{Boards: snap.Boards})
	}

	return nil
}

func (that *Session) StartGame(sid string) error {
	log := that.logger.With("method", "StartGame", "sid", sid)

	room, err := that.rooms.GetByConnection(sid)
	if err != nil {
		that.reject(log, sid, err, 0)
		return fmt.Errorf("failed to start game: %w", err)
	}

	snap, err := room.Start(sid)
	if err != nil {
		that.reject(log, sid, err, 0)
		return fmt.Errorf("failed to start game: %w", err)
	}

	that.broadcast(log, snap.Members, ActionGameStart, GameStartPayload{
		CurrentTurn: snap.CurrentTurn,
		PlayerNames: snap.PlayerNames,
	})

	log.Info("game started", "room_id", room.ID(), "first_turn", snap.CurrentTurn)

	return nil
}

func (that *Session) CallNumber(ctx context.Context, sid string, number int) error {
	log := that.logger.With("method", "CallNumber", "sid", sid, "number", number)

	room, err := that.rooms.GetByConnection(sid)
	if err != nil {
		that.reject(log, sid, err, number)
		return fmt.Errorf("failed to call number: %w", err)
	}

	result, err := room.CallNumber(sid, number)
	if err != nil {
		that.reject(log, sid, err, number)
		return fmt.Errorf("failed to call number: %w", err)
	}

	that.metrics.NumbersCalled.Inc()

	snap := result.Snapshot
	that.broadcast(log, snap.Members, ActionNumberCalled, numberCalledPayload(result))

	log.Info("number called", "room_id", room.ID(), "next_turn", snap.CurrentTurn)

	if result.Winner == "" {
		return nil
	}

	that.broadcast(log, snap.Members, ActionBingoWin, finalStatePayload("", result.Winner, snap))
	that.finish(ctx, log, entity.OutcomeBingo, result.Winner, snap, nil)

	log.Info("bingo", "room_id", room.ID(), "winner", result.Winner)

	return nil
}

func (that *Session) RequestPlayAgain(sid string) error {
	log := that.logger.With("method", "RequestPlayAgain", "sid", sid)

	room, err := that.rooms.GetByConnection(sid)
	if err != nil {
		that.reject(log, sid, err, 0)
		return fmt.Errorf("failed to request play again: %w", err)
	}

	result, err := room.RequestPlayAgain(sid)
	if err != nil {
		that.reject(log, sid, err, 0)
		return fmt.Errorf("failed to request play again: %w", err)
	}

	if result.Outcome == entity.PlayAgainReset {
		that.reset(log, result.Snapshot)
		return nil
	}

	that.emit(log, result.Opponent, ActionPlayAgainRequest, PlayAgainRequestedPayload{
		RequesterSID:  sid,
		RequesterName: result.Name,
	})

	log.Debug("play again requested", "room_id", room.ID())

	return nil
}

func (that *Session) RespondPlayAgain(ctx context.Context, sid string, response entity.Response, requesterSID string) error {
	log := that.logger.With("method", "RespondPlayAgain", "sid", sid, "response", response)

	room, err := that.rooms.GetByConnection(sid)
	if err != nil {
		that.reject(log, sid, err, 0)
		return fmt.Errorf("failed to respond to play again: %w", err)
	}

	result, err := room.RespondPlayAgain(sid, response, requesterSID)
	if err != nil {
		that.reject(log, sid, err, 0)
		return fmt.Errorf("failed to respond to play again: %w", err)
	}

	switch result.Outcome {
	case entity.PlayAgainReset:
		that.reset(log, result.Snapshot)
	case entity.PlayAgainAcceptedWaiting:
		that.emit(log, result.Opponent, ActionPlayAgainStatus, PlayAgainStatusPayload{
			Status:        statusAcceptedWaiting,
			ResponderName: result.Name,
		})
	case entity.PlayAgainRejected:
		that.emit(log, result.Opponent, ActionPlayAgainReject, PlayAgainRejectedPayload{RejecterName: result.Name})
		that.rooms.Unbind(sid)

		log.Info("player rejected play again and left", "room_id", room.ID())

		if result.Empty {
			that.deleteRoom(log, room.ID())
			return nil
		}

		message := fmt.Sprintf("Opponent (%s) rejected play again and left the room. Game ended.", result.Name)
		that.emit(log, result.Remaining, ActionGameOver,
			forfeitByRejectionPayload(message, result.Remaining, result.Snapshot.PlayerNames))

		if result.InProgress {
			that.finish(ctx, log, entity.OutcomeRejection, result.Remaining, result.Snapshot, []string{result.Name})
		}
	}

	return nil
}

// Disconnect removes sid from its room. A remaining player wins by forfeit and the room is deleted.
func (that *Session) Disconnect(ctx context.Context, sid string) {
	log := that.logger.With("method", "Disconnect", "sid", sid)

	room, err := that.rooms.GetByConnection(sid)
	if err != nil {
		return
	}

	result, err := room.Leave(sid)
	if err != nil {
		log.Debug("connection already left", "room_id", room.ID(), "error", err)
		that.rooms.Unbind(sid)
		return
	}

	log.Info("player disconnected", "room_id", room.ID(), "player_name", result.Name)

	if !result.Empty {
		message := fmt.Sprintf("Opponent (%s) disconnected. Game ended.", result.Name)
		that.emit(log, result.Remaining, ActionGameOver, finalStatePayload(message, result.Remaining, result.Snapshot))

		if result.InProgress {
			that.finish(ctx, log, entity.OutcomeDisconnect, result.Remaining, result.Snapshot, []string{result.Name})
		}
	}

	that.deleteRoom(log, room.ID())
}

func (that *Session) reset(log *slog.Logger, snap entity.Snapshot) {
	that.broadcast(log, snap.Members, ActionGameReset, GameResetPayload{
		RoomID:      snap.RoomID,
		PlayerNames: snap.PlayerNames,
	})

	log.Info("room reset for play again", "room_id", snap.RoomID)
}

// finish reports a decided game. departed lists players no longer in the snapshot.
func (that *Session) finish(ctx context.Context, log *slog.Logger, outcome entity.Outcome, winner string, snap entity.Snapshot, departed []string) {
	that.metrics.GameFinished(outcome)

	players := make([]string, 0, len(snap.Members)+len(departed))
	for _, member := range snap.Members {
		players = append(players, snap.PlayerNames[member])
	}
	players = append(players, departed...)

	result := entity.GameResult{
		RoomID:     snap.RoomID,
		WinnerSID:  winner,
		WinnerName: snap.PlayerNames[winner],
		Outcome:    outcome,
		Players:    players,
		FinishedAt: that.now().UTC(),
	}

	// a forfeit during shutdown must still be stored
	if err := that.results.Record(context.WithoutCancel(ctx), result); err != nil {
		log.Error("failed to record game result", "room_id", snap.RoomID, "error", err)
	}
}

func (that *Session) deleteRoom(log *slog.Logger, roomID string) {
	err := that.rooms.DeleteByID(roomID)
	if errors.Is(err, apperror.ErrRoomNotFound) {
		log.Debug("room already deleted", "room_id", roomID)
		return
	}

	if err != nil {
		log.Error("failed to delete room", "room_id", roomID, "error", err)
		return
	}

	that.trackRooms()

	log.Info("room deleted", "room_id", roomID)
}

func (that *Session) trackRooms() {
	that.metrics.RoomsActive.Set(float64(that.rooms.Count()))
}

func (that *Session) reject(log *slog.Logger, sid string, err error, number int) {
	log.Debug("request rejected", "error", err)

	that.emit(log, sid, ActionMessage, MessagePayload{Text: noticeText(err, number)})
}

func (that *Session) emit(log *slog.Logger, sid, action string, payload any) {
	if err := that.emitter.Emit(sid, action, payload); err != nil {
		log.Warn("failed to deliver event", "to", sid, "action", action, "error", err)
	}
}

func (that *Session) broadcast(log *slog.Logger, members []string, action string, payload any) {
	that.broadcastExcept(log, members, "", action, payload)
}

func (that *Session) broadcastExcept(log *slog.Logger, members []string, skip, action string, payload any) {
	for _, member := range members {
		if member == skip {
			continue
		}

		that.emit(log, member, action, payload)
	}
}

func noticeText(err error, number int) string {
	switch {
	case errors.Is(err, apperror.ErrNotYourTurn):
		return "It's not your turn!"
	case errors.Is(err, apperror.ErrNumberCalled):
		return fmt.Sprintf("Number %d has already been called.", number)
	case errors.Is(err, apperror.ErrGameIsNotStarted):
		return "The game has not started yet."
	case errors.Is(err, apperror.ErrGameAlreadyStarted):
		return "The game has already started."
	case errors.Is(err, apperror.ErrGameFinished):
		return "The game is already finished."
	case errors.Is(err, apperror.ErrNotHost):
		return "Only the host can start the game."
	case errors.Is(err, apperror.ErrBoardsMissing):
		return "Both players must submit their boards before the game can start."
	case errors.Is(err, apperror.ErrInvalidBoard):
		return fmt.Sprintf("A board must contain exactly %d numbers.", entity.BoardSize)
	case errors.Is(err, apperror.ErrNotInRoom), errors.Is(err, apperror.ErrRoomClosed):
		return "You are not in a room."
	case errors.Is(err, apperror.ErrAlreadyInRoom):
		return "You are already in a room."
	case errors.Is(err, apperror.ErrNoOpponent):
		return "There is no opponent in the room."
	case errors.Is(err, apperror.ErrInvalidAnswer):
		return "Response must be accept or reject."
	case errors.Is(err, apperror.ErrUnknownRequest):
		return "That player has not asked to play again."
	default:
		return "Request could not be processed."
	}
}
