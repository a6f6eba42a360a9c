package websocket

import (
	"errors"
	"fmt"
	"sync"

	"github.com/rocketscienceinc/bingo-backend/internal/metrics"
)

var (
	ErrConnectionNotFound = errors.New("connection not found")
	ErrConnectionClosed   = errors.New("connection is closed")
	ErrSendBufferFull     = errors.New("send buffer is full")
	ErrMalformedPayload   = errors.New("malformed payload")
)

// Hub tracks open connections by sid and delivers events to them.
type Hub struct {
	mu      sync.RWMutex
	clients map[string]*client

	metrics *metrics.Metrics
}

func NewHub(m *metrics.Metrics) *Hub {
	return &Hub{
		clients: make(map[string]*client),
		metrics: m,
	}
}

// Emit queues an event for sid without blocking on the network.
func (that *Hub) Emit(sid, action string, payload any) error {
	data, err := encode(action, payload)
	if err != nil {
		return err
	}

	that.mu.RLock()
	c, ok := that.clients[sid]
	that.mu.RUnlock()

	if !ok {
		return fmt.Errorf("%w: %s", ErrConnectionNotFound, sid)
	}

	return c.enqueue(data)
}

func (that *Hub) Count() int {
	that.mu.RLock()
	defer that.mu.RUnlock()

	return len(that.clients)
}

// CloseAll asks every connection to close; their read loops then run the usual disconnect.
func (that *Hub) CloseAll() {
	that.mu.RLock()
	defer that.mu.RUnlock()

	for _, c := range that.clients {
		c.close()
	}
}

func (that *Hub) register(c *client) {
	that.mu.Lock()
	that.clients[c.sid] = c
	that.mu.Unlock()

	that.metrics.ConnectionsActive.Inc()
}

func (that *Hub) unregister(sid string) {
	that.mu.Lock()
	c, ok := that.clients[sid]
	delete(that.clients, sid)
	that.mu.Unlock()

	if !ok {
		return
	}

	c.close()
	that.metrics.ConnectionsActive.Dec()
}
