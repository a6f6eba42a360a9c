package pkg

import (
	"crypto/rand"
	"errors"
	"fmt"
	"math/big"

	"github.com/google/uuid"
)

const roomIDAlphabet = "abcdefghijklmnopqrstuvwxyz0123456789"

var ErrInvalidLength = errors.New("id length must be positive")

// GenerateRoomID - returns a random lowercase alphanumeric id.
func GenerateRoomID(length int) (string, error) {
	if length <= 0 {
		return "", fmt.Errorf("%w: %d", ErrInvalidLength, length)
	}

	alphabetSize := big.NewInt(int64(len(roomIDAlphabet)))

	id := make([]byte, length)
	for i := range id {
		n, err := rand.Int(rand.Reader, alphabetSize)
		if err != nil {
			return "", fmt.Errorf("failed to read random index: %w", err)
		}
		id[i] = roomIDAlphabet[n.Int64()]
	}

	return string(id), nil
}

// GenerateNewSessionID - returns an id for a new connection.
func GenerateNewSessionID() string {
	return uuid.NewString()
}
