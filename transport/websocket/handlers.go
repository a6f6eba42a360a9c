package websocket

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/rocketscienceinc/bingo-backend/internal/entity"
)

func (that *Server) handleCreateRoom(_ context.Context, sid string, payload json.RawMessage) error {
	var req createRoomRequest
	if err := decodePayload(payload, &req); err != nil {
		return err
	}

	return that.session.CreateRoom(sid, req.PlayerName)
}

func (that *Server) handleJoinRoom(_ context.Context, sid string, payload json.RawMessage) error {
	var req joinRoomRequest
	if err := decodePayload(payload, &req); err != nil {
		return err
	}

	return that.session.JoinRoom(sid, req.RoomID, req.PlayerName)
}

func (that *Server) handleBoardSubmitted(_ context.Context, sid string, payload json.RawMessage) error {
	var req submitBoardRequest
	if err := decodePayload(payload, &req); err != nil {
		return err
	}

	return that.session.SubmitBoard(sid, req.Board)
}

func (that *Server) handleStartGame(_ context.Context, sid string, _ json.RawMessage) error {
	return that.session.StartGame(sid)
}

func (that *Server) handleCallNumber(ctx context.Context, sid string, payload json.RawMessage) error {
	var req callNumberRequest
	if err := decodePayload(payload, &req); err != nil {
		return err
	}

	if req.Number == nil {
		return fmt.Errorf("%w: number is required", ErrMalformedPayload)
	}

	return that.session.CallNumber(ctx, sid, *req.Number)
}

func (that *Server) handleRequestPlayAgain(_ context.Context, sid string, _ json.RawMessage) error {
	return that.session.RequestPlayAgain(sid)
}

func (that *Server) handleRespondPlayAgain(ctx context.Context, sid string, payload json.RawMessage) error {
	var req respondPlayAgainRequest
	if err := decodePayload(payload, &req); err != nil {
		return err
	}

	return that.session.RespondPlayAgain(ctx, sid, entity.Response(req.Response), req.RequesterSID)
}
