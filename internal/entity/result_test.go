package entity

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestGameResult_Ranked(t *testing.T) {
	tests := []struct {
		name   string
		winner string
		want   bool
	}{
		{name: "Chosen name is ranked", winner: "Alice", want: true},
		{name: "Default host name is not ranked", winner: DefaultHostName, want: false},
		{name: "Default guest name is not ranked", winner: DefaultGuestName, want: false},
		{name: "Missing name is not ranked", winner: "", want: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := GameResult{WinnerName: tt.winner}

			assert.Equal(t, tt.want, result.Ranked())
		})
	}
}
