package websocket

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// Message is the envelope of every frame in both directions.
type Message struct {
	Action  string          `json:"action"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

type outMessage struct {
	Action  string `json:"action"`
	Payload any    `json:"payload"`
}

type createRoomRequest struct {
	PlayerName string `json:"player_name"`
}

type joinRoomRequest struct {
	RoomID     string `json:"room_id"`
	PlayerName string `json:"player_name"`
}

type submitBoardRequest struct {
	Board []int `json:"board"`
}

type callNumberRequest struct {
	Number *int `json:"number"`
}

type respondPlayAgainRequest struct {
	Response     string `json:"response"`
	RequesterSID string `json:"requester_sid"`
}

// decodePayload treats a missing payload as an empty object.
func decodePayload(raw json.RawMessage, v any) error {
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return nil
	}

	if err := json.Unmarshal(raw, v); err != nil {
		return fmt.Errorf("%w: %w", ErrMalformedPayload, err)
	}

	return nil
}

func encode(action string, payload any) ([]byte, error) {
	data, err := json.Marshal(outMessage{Action: action, Payload: payload})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal %s: %w", action, err)
	}

	return data, nil
}
