package usecase

import "github.com/rocketscienceinc/bingo-backend/internal/entity"

// Outbound actions.
const (
	ActionConnected        = "connected"
	ActionRoomCreated      = "room_created"
	ActionRoomJoined       = "room_joined"
	ActionRoomFull         = "room_full"
	ActionInvalidRoom      = "invalid_room"
	ActionUserJoined       = "user_joined"
	ActionBoardsReceived   = "boards_received"
	ActionGameStart        = "game_start_signal"
	ActionNumberCalled     = "number_called"
	ActionBingoWin         = "bingo_win"
	ActionMessage          = "message"
	ActionPlayAgainRequest = "play_again_requested"
	ActionPlayAgainStatus  = "play_again_response_status"
	ActionPlayAgainReject  = "play_again_rejected"
	ActionGameReset        = "game_reset_for_play_again"
	ActionGameOver         = "game_over"
)

const statusAcceptedWaiting = "accepted_waiting"

type ConnectedPayload struct {
	SID string `json:"sid"`
}

type RoomPayload struct {
	RoomID string `json:"room_id"`
}

type MessagePayload struct {
	Text string `json:"text"`
}

type UserJoinedPayload struct {
	SID        string `json:"sid"`
	PlayerName string `json:"player_name"`
}

type BoardsReceivedPayload struct {
	Boards map[string][]int `json:"boards"`
}

type GameStartPayload struct {
	CurrentTurn string            `json:"current_turn"`
	PlayerNames map[string]string `json:"player_names"`
}

type NumberCalledPayload struct {
	Number        int               `json:"number"`
	NextTurn      string            `json:"next_turn"`
	CalledNumbers []int             `json:"called_numbers"`
	BingoProgress map[string]int    `json:"bingo_progress"`
	BingoString   map[string]string `json:"bingo_string"`
	PlayerNames   map[string]string `json:"player_names"`
}

// FinalStatePayload is shared by bingo_win and game_over; only game_over carries a message.
type FinalStatePayload struct {
	Message            string                 `json:"message,omitempty"`
	WinnerSID          string                 `json:"winner_sid"`
	FinalBoards        map[string][]int       `json:"final_boards"`
	FinalMarkedBoards  map[string]entity.Grid `json:"final_marked_boards"`
	BingoProgress      map[string]int         `json:"bingo_progress"`
	BingoString        map[string]string      `json:"bingo_string"`
	CalledNumbersFinal []int                  `json:"called_numbers_final"`
	PlayerNames        map[string]string      `json:"player_names"`
}

type PlayAgainRequestedPayload struct {
	RequesterSID  string `json:"requester_sid"`
	RequesterName string `json:"requester_name"`
}

type PlayAgainStatusPayload struct {
	Status        string `json:"status"`
	ResponderName string `json:"responder_name"`
}

type PlayAgainRejectedPayload struct {
	RejecterName string `json:"rejecter_name"`
}

type GameResetPayload struct {
	RoomID      string            `json:"room_id"`
	PlayerNames map[string]string `json:"player_names"`
}

func numberCalledPayload(result entity.CallResult) NumberCalledPayload {
	snap := result.Snapshot

	return NumberCalledPayload{
		Number:        result.Number,
		NextTurn:      snap.CurrentTurn,
		CalledNumbers: snap.Called,
		BingoProgress: snap.Progress,
		BingoString:   snap.Labels,
		PlayerNames:   snap.PlayerNames,
	}
}

func finalStatePayload(message, winner string, snap entity.Snapshot) FinalStatePayload {
	return FinalStatePayload{
		Message:            message,
		WinnerSID:          winner,
		FinalBoards:        snap.Boards,
		FinalMarkedBoards:  snap.MarkedBoards,
		BingoProgress:      snap.Progress,
		BingoString:        snap.Labels,
		CalledNumbersFinal: snap.Called,
		PlayerNames:        snap.PlayerNames,
	}
}

// forfeitByRejectionPayload carries no game state: the rejected game is not shown.
func forfeitByRejectionPayload(message, winner string, names map[string]string) FinalStatePayload {
	return FinalStatePayload{
		Message:            message,
		WinnerSID:          winner,
		FinalBoards:        map[string][]int{},
		FinalMarkedBoards:  map[string]entity.Grid{},
		BingoProgress:      map[string]int{},
		BingoString:        map[string]string{},
		CalledNumbersFinal: []int{},
		PlayerNames:        names,
	}
}
