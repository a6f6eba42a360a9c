package repository

import (
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rocketscienceinc/bingo-backend/internal/apperror"
	"github.com/rocketscienceinc/bingo-backend/internal/entity"
)

var errNoEntropy = errors.New("no entropy")

func counterID() func() (string, error) {
	var n atomic.Int64
	return func() (string, error) {
		return fmt.Sprintf("room%d", n.Add(1)), nil
	}
}

func TestRoomRegistry_Create(t *testing.T) {
	t.Run("Creates a room owned by the host", func(t *testing.T) {
		registry := NewRoomRegistry(counterID())

		// When: a connection creates a room
		room, err := registry.Create("host", "Alice")

		// Then: it is reachable by id and by connection
		require.NoError(t, err)
		assert.Equal(t, "room1", room.ID())

		byID, err := registry.GetByID(room.ID())
		require.NoError(t, err)
		assert.Same(t, room, byID)

		byConn, err := registry.GetByConnection("host")
		require.NoError(t, err)
		assert.Same(t, room, byConn)
		assert.Equal(t, 1, registry.Count())
	})

	t.Run("Connection cannot own two rooms", func(t *testing.T) {
		registry := NewRoomRegistry(counterID())
		_, err := registry.Create("host", "Alice")
		require.NoError(t, err)

		_, err = registry.Create("host", "Alice")

		require.ErrorIs(t, err, apperror.ErrAlreadyInRoom)
		assert.Equal(t, 1, registry.Count())
	})

	t.Run("Retries when the generated id is taken", func(t *testing.T) {
		ids := []string{"same", "same", "other"}
		registry := NewRoomRegistry(func() (string, error) {
			id := ids[0]
			ids = ids[1:]
			return id, nil
		})

		first, err := registry.Create("a", "")
		require.NoError(t, err)
		second, err := registry.Create("b", "")
		require.NoError(t, err)

		assert.Equal(t, "same", first.ID())
		assert.Equal(t, "other", second.ID())
	})

	t.Run("Gives up when ids keep colliding", func(t *testing.T) {
		registry := NewRoomRegistry(func() (string, error) { return "same", nil })
		_, err := registry.Create("a", "")
		require.NoError(t, err)

		_, err = registry.Create("b", "")

		require.ErrorIs(t, err, ErrIDSpaceExhausted)
	})

	t.Run("Propagates generator failures", func(t *testing.T) {
		registry := NewRoomRegistry(func() (string, error) { return "", errNoEntropy })

		_, err := registry.Create("a", "")

		require.ErrorIs(t, err, errNoEntropy)
	})
}

func TestRoomRegistry_Join(t *testing.T) {
	t.Run("Joining binds the connection to the room", func(t *testing.T) {
		registry := NewRoomRegistry(counterID())
		room, err := registry.Create("host", "Alice")
		require.NoError(t, err)

		joined, snap, err := registry.Join(room.ID(), "guest", "Bob")

		require.NoError(t, err)
		assert.Same(t, room, joined)
		assert.Equal(t, []string{"host", "guest"}, snap.Members)

		byConn, err := registry.GetByConnection("guest")
		require.NoError(t, err)
		assert.Same(t, room, byConn)
	})

	t.Run("Unknown room", func(t *testing.T) {
		registry := NewRoomRegistry(counterID())

		_, _, err := registry.Join("nope", "guest", "Bob")

		require.ErrorIs(t, err, apperror.ErrRoomNotFound)
	})

	t.Run("Full room leaves the third connection unbound", func(t *testing.T) {
		registry := NewRoomRegistry(counterID())
		room, err := registry.Create("host", "Alice")
		require.NoError(t, err)
		_, _, err = registry.Join(room.ID(), "guest", "Bob")
		require.NoError(t, err)

		_, _, err = registry.Join(room.ID(), "third", "Carol")

		require.ErrorIs(t, err, apperror.ErrRoomFull)
		_, err = registry.GetByConnection("third")
		require.ErrorIs(t, err, apperror.ErrNotInRoom)
		assert.Len(t, room.Members(), entity.MaxMembers)
	})
}

func TestRoomRegistry_DeleteByID(t *testing.T) {
	t.Run("Deleting unbinds members and closes the room", func(t *testing.T) {
		// Given: a room with two members
		registry := NewRoomRegistry(counterID())
		room, err := registry.Create("host", "Alice")
		require.NoError(t, err)
		_, _, err = registry.Join(room.ID(), "guest", "Bob")
		require.NoError(t, err)

		// When: the room is deleted
		err = registry.DeleteByID(room.ID())

		// Then: nothing points at it and it refuses operations
		require.NoError(t, err)
		assert.Equal(t, 0, registry.Count())

		_, err = registry.GetByID(room.ID())
		require.ErrorIs(t, err, apperror.ErrRoomNotFound)

		for _, sid := range []string{"host", "guest"} {
			_, err = registry.GetByConnection(sid)
			require.ErrorIs(t, err, apperror.ErrNotInRoom)
		}

		_, err = room.Join("late", "Dave")
		require.ErrorIs(t, err, apperror.ErrRoomClosed)
	})

	t.Run("Deleting an unknown room", func(t *testing.T) {
		registry := NewRoomRegistry(counterID())

		err := registry.DeleteByID("nope")

		require.ErrorIs(t, err, apperror.ErrRoomNotFound)
	})

	t.Run("Unbind frees the connection for a new room", func(t *testing.T) {
		registry := NewRoomRegistry(counterID())
		_, err := registry.Create("host", "Alice")
		require.NoError(t, err)

		registry.Unbind("host")

		_, err = registry.Create("host", "Alice")
		require.NoError(t, err)
		assert.Equal(t, 2, registry.Count())
	})
}

func TestRoomRegistry_Concurrency(t *testing.T) {
	registry := NewRoomRegistry(counterID())

	const hosts = 50

	var wg sync.WaitGroup
	for i := range hosts {
		wg.Add(1)
		go func() {
			defer wg.Done()

			host := fmt.Sprintf("host%d", i)
			guest := fmt.Sprintf("guest%d", i)

			room, err := registry.Create(host, "")
			assert.NoError(t, err)

			_, _, err = registry.Join(room.ID(), guest, "")
			assert.NoError(t, err)

			found, err := registry.GetByConnection(guest)
			assert.NoError(t, err)
			assert.Same(t, room, found)

			if i%2 == 0 {
				assert.NoError(t, registry.DeleteByID(room.ID()))
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, hosts/2, registry.Count())
}
