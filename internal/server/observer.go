package server

import (
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/zeusync/worldforge/internal/core/observability/log"
)

// observer is one websocket connection watching one world.
type observer struct {
	id          uuid.UUID
	designation string
	conn        *websocket.Conn
	send        chan []byte
	done        chan struct{}
	closeOnce   sync.Once
	connectedAt time.Time
}

func newObserver(designation string, conn *websocket.Conn, buffer int) *observer {
	return &observer{
		id:          uuid.New(),
		designation: designation,
		conn:        conn,
		send:        make(chan []byte, buffer),
		done:        make(chan struct{}),
		connectedAt: time.Now(),
	}
}

// enqueue never blocks; it reports false when the observer cannot keep up.
func (o *observer) enqueue(msg []byte) bool {
	select {
	case <-o.done:
		return false
	default:
	}
	select {
	case o.send <- msg:
		return true
	default:
		return false
	}
}

// close stops the observer. The write pump then says goodbye and closes the connection.
func (o *observer) close() {
	o.closeOnce.Do(func() { close(o.done) })
}

// writePump is the only goroutine writing to the connection, and the one closing it.
func (o *observer) writePump(cfg Config, logger log.Log) {
	ping := time.NewTicker(cfg.PingInterval)
	defer func() {
		ping.Stop()
		o.close()
		_ = o.conn.Close()
	}()

	for {
		select {
		case msg := <-o.send:
			_ = o.conn.SetWriteDeadline(time.Now().Add(cfg.WriteTimeout))
			if err := o.conn.WriteMessage(websocket.TextMessage, msg); err != nil {
				logger.Debug("Observer write failed", log.String("observer_id", o.id.String()), log.Error(err))
				return
			}
		case <-ping.C:
			_ = o.conn.SetWriteDeadline(time.Now().Add(cfg.WriteTimeout))
			if err := o.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		case <-o.done:
			_ = o.conn.WriteControl(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseGoingAway, ""),
				time.Now().Add(cfg.WriteTimeout))
			return
		}
	}
}

// readPump drains the connection so control frames are handled, until it fails.
// Observers are read-only: any data frame they send is discarded.
func (o *observer) readPump(cfg Config) {
	defer o.close()
	o.conn.SetReadLimit(cfg.MaxMessageSize)
	_ = o.conn.SetReadDeadline(time.Now().Add(cfg.PongTimeout))
	o.conn.SetPongHandler(func(string) error {
		return o.conn.SetReadDeadline(time.Now().Add(cfg.PongTimeout))
	})
	for {
		if _, _, err := o.conn.NextReader(); err != nil {
			return
		}
	}
}
