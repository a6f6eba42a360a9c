package apperror

import "errors"

var (
	ErrGameFinished       = errors.New("game is already finished")
	ErrGameIsNotStarted   = errors.New("game is not started")
	ErrGameAlreadyStarted = errors.New("game is already started")
	ErrNotYourTurn        = errors.New("it's not your turn")
	ErrNumberCalled       = errors.New("number has already been called")

	ErrRoomNotFound  = errors.New("room not found")
	ErrRoomFull      = errors.New("room is full")
	ErrRoomClosed    = errors.New("room is closed")
	ErrNotInRoom     = errors.New("connection is not in a room")
	ErrAlreadyInRoom = errors.New("connection is already in a room")

	ErrNotHost        = errors.New("only the host can start the game")
	ErrBoardsMissing  = errors.New("both players must submit their boards")
	ErrInvalidBoard   = errors.New("board must contain 25 numbers")
	ErrNoOpponent     = errors.New("no opponent in the room")
	ErrInvalidAnswer  = errors.New("response must be accept or reject")
	ErrUnknownRequest = errors.New("no play again request from that player")
)
