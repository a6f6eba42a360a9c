package websocket

import (
	"log/slog"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

const maxMessageSize = 4096

type client struct {
	sid  string
	conn *websocket.Conn
	send chan []byte

	done      chan struct{}
	closeOnce sync.Once

	writeTimeout time.Duration
	pingInterval time.Duration
}

func newClient(sid string, conn *websocket.Conn, buffer int, writeTimeout, pingInterval time.Duration) *client {
	return &client{
		sid:          sid,
		conn:         conn,
		send:         make(chan []byte, buffer),
		done:         make(chan struct{}),
		writeTimeout: writeTimeout,
		pingInterval: pingInterval,
	}
}

func (that *client) enqueue(data []byte) error {
	select {
	case <-that.done:
		return ErrConnectionClosed
	default:
	}

	select {
	case that.send <- data:
		return nil
	case <-that.done:
		return ErrConnectionClosed
	default:
		return ErrSendBufferFull
	}
}

func (that *client) close() {
	that.closeOnce.Do(func() {
		close(that.done)
	})
}

// readDeadline allows one missed ping before the peer is considered gone.
func (that *client) readDeadline() time.Time {
	return time.Now().Add(2*that.pingInterval + that.writeTimeout)
}

// writePump is the only writer of the connection.
func (that *client) writePump(logger *slog.Logger) {
	log := logger.With("method", "writePump", "sid", that.sid)

	ticker := time.NewTicker(that.pingInterval)
	defer func() {
		ticker.Stop()
		_ = that.conn.Close()
	}()

	for {
		select {
		case data := <-that.send:
			_ = that.conn.SetWriteDeadline(time.Now().Add(that.writeTimeout))
			if err := that.conn.WriteMessage(websocket.TextMessage, data); err != nil {
				log.Debug("failed to write message", "error", err)
				that.close()
				return
			}
		case <-ticker.C:
			_ = that.conn.SetWriteDeadline(time.Now().Add(that.writeTimeout))
			if err := that.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				log.Debug("failed to write ping", "error", err)
				that.close()
				return
			}
		case <-that.done:
			that.drain()

			_ = that.conn.SetWriteDeadline(time.Now().Add(that.writeTimeout))
			_ = that.conn.WriteMessage(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
			return
		}
	}
}

// drain flushes events queued before the close so a final game_over still reaches the peer.
func (that *client) drain() {
	for {
		select {
		case data := <-that.send:
			_ = that.conn.SetWriteDeadline(time.Now().Add(that.writeTimeout))
			if err := that.conn.WriteMessage(websocket.TextMessage, data); err != nil {
				return
			}
		default:
			return
		}
	}
}
