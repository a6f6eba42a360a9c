package repository

import (
	"errors"
	"fmt"
	"sync"

	"github.com/rocketscienceinc/bingo-backend/internal/apperror"
	"github.com/rocketscienceinc/bingo-backend/internal/entity"
)

const maxIDAttempts = 16

var ErrIDSpaceExhausted = errors.New("could not generate a unique room id")

type RoomRegistry interface {
	Create(hostID, hostName string) (*entity.Room, error)
	Join(roomID, sid, name string) (*entity.Room, entity.Snapshot, error)

	GetByID(id string) (*entity.Room, error)
	GetByConnection(sid string) (*entity.Room, error)

	Unbind(sid string)
	DeleteByID(id string) error

	Count() int
}

// memoryRegistry indexes live rooms by id and by member connection.
// Lock order is registry first, then room.
type memoryRegistry struct {
	mu           sync.RWMutex
	rooms        map[string]*entity.Room
	byConnection map[string]string

	newID func() (string, error)
}

func NewRoomRegistry(newID func() (string, error)) RoomRegistry {
	return &memoryRegistry{
		rooms:        make(map[string]*entity.Room),
		byConnection: make(map[string]string),
		newID:        newID,
	}
}

func (that *memoryRegistry) Create(hostID, hostName string) (*entity.Room, error) {
	that.mu.Lock()
	defer that.mu.Unlock()

	if _, ok := that.byConnection[hostID]; ok {
		return nil, apperror.ErrAlreadyInRoom
	}

	id, err := that.uniqueID()
	if err != nil {
		return nil, err
	}

	room := entity.NewRoom(id, hostID, hostName)
	that.rooms[id] = room
	that.byConnection[hostID] = id

	return room, nil
}

func (that *memoryRegistry) Join(roomID, sid, name string) (*entity.Room, entity.Snapshot, error) {
	that.mu.Lock()
	defer that.mu.Unlock()

	if _, ok := that.byConnection[sid]; ok {
		return nil, entity.Snapshot{}, apperror.ErrAlreadyInRoom
	}

	room, ok := that.rooms[roomID]
	if !ok {
		return nil, entity.Snapshot{}, apperror.ErrRoomNotFound
	}

	snap, err := room.Join(sid, name)
	if err != nil {
		return nil, entity.Snapshot{}, fmt.Errorf("failed to join room %s: %w", roomID, err)
	}

	that.byConnection[sid] = roomID

	return room, snap, nil
}

func (that *memoryRegistry) GetByID(id string) (*entity.Room, error) {
	that.mu.RLock()
	defer that.mu.RUnlock()

	room, ok := that.rooms[id]
	if !ok {
		return nil, apperror.ErrRoomNotFound
	}

	return room, nil
}

func (that *memoryRegistry) GetByConnection(sid string) (*entity.Room, error) {
	that.mu.RLock()
	defer that.mu.RUnlock()

	id, ok := that.byConnection[sid]
	if !ok {
		return nil, apperror.ErrNotInRoom
	}

	room, ok := that.rooms[id]
	if !ok {
		return nil, apperror.ErrRoomNotFound
	}

	return room, nil
}

func (that *memoryRegistry) Unbind(sid string) {
	that.mu.Lock()
	defer that.mu.Unlock()

	delete(that.byConnection, sid)
}

// DeleteByID removes the room, unbinds every connection pointing at it and closes it.
func (that *memoryRegistry) DeleteByID(id string) error {
	that.mu.Lock()
	defer that.mu.Unlock()

	room, ok := that.rooms[id]
	if !ok {
		return apperror.ErrRoomNotFound
	}

	delete(that.rooms, id)

	for sid, roomID := range that.byConnection {
		if roomID == id {
			delete(that.byConnection, sid)
		}
	}

	room.Close()

	return nil
}

func (that *memoryRegistry) Count() int {
	that.mu.RLock()
	defer that.mu.RUnlock()

	return len(that.rooms)
}

func (that *memoryRegistry) uniqueID() (string, error) {
	for range maxIDAttempts {
		id, err := that.newID()
		if err != nil {
			return "", fmt.Errorf("failed to generate room id: %w", err)
		}

		if _, taken := that.rooms[id]; !taken {
			return id, nil
		}
	}

	return "", ErrIDSpaceExhausted
}
