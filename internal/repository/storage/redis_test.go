package storage

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/rocketscienceinc/bingo-backend/testing/suite"
)

func TestNewRedis(t *testing.T) {
	t.Run("Connects to a live server", func(t *testing.T) {
		ctx, st := suite.New(t)

		client, err := NewRedis(ctx, st.Storage.Options().Addr)

		require.NoError(t, err)
		require.NoError(t, client.Close())
	})

	t.Run("Fails fast when nothing listens", func(t *testing.T) {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()

		_, err := NewRedis(ctx, "127.0.0.1:1")

		require.Error(t, err)
	})
}
