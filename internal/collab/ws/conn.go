// Package ws adapts gorilla/websocket connections to the collab hub. Each
// upgraded socket gets a read pump feeding inbound frames to the hub and a
// write pump draining a buffered send channel, so slow readers never block a
// broadcast.
package ws

import (
	"errors"
	"log/slog"
	"time"

	"github.com/gorilla/websocket"

	"collabboard/backend/internal/collab"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 64 * 1024
	sendBuffer     = 256
)

// ErrSendBufferFull is returned by Send when the outbound buffer is full or
// the connection is closing. The hub treats it as a dead connection.
var ErrSendBufferFull = errors.New("ws: send buffer full")

// Hub is the part of the collab hub a connection needs.
type Hub interface {
	Register(c collab.Conn) error
	Deregister(connID string)
	HandleMessage(c collab.Conn, data []byte)
}

// Conn wraps one websocket session. It implements collab.Conn.
type Conn struct {
	id     string
	userID int64
	ws     *websocket.Conn
	hub    Hub
	log    *slog.Logger
	send   chan []byte
	done   chan struct{}
}

// NewConn wraps an upgraded websocket for the given identity. Call Run to
// register with the hub and start the pumps.
func NewConn(id string, userID int64, ws *websocket.Conn, hub Hub, log *slog.Logger) *Conn {
	if log == nil {
		log = slog.Default()
	}
	return &Conn{
		id:     id,
		userID: userID,
		ws:     ws,
		hub:    hub,
		log:    log,
		send:   make(chan []byte, sendBuffer),
		done:   make(chan struct{}),
	}
}

func (c *Conn) ID() string    { return c.id }
func (c *Conn) UserID() int64 { return c.userID }

// Send queues data for the write pump. It never blocks; a full buffer or a
// closing connection yields ErrSendBufferFull.
func (c *Conn) Send(data []byte) error {
	select {
	case <-c.done:
		return ErrSendBufferFull
	default:
	}
	select {
	case c.send <- data:
		return nil
	default:
		return ErrSendBufferFull
	}
}

// Close tears down the underlying socket. The read pump then unwinds and
// deregisters from the hub.
func (c *Conn) Close() error {
	return c.ws.Close()
}

// Run registers the connection with the hub and starts both pumps. It returns
// once registration fails or the pumps are running.
func (c *Conn) Run() error {
	if err := c.hub.Register(c); err != nil {
		c.ws.Close()
		return err
	}
	go c.writePump()
	go c.readPump()
	return nil
}

// readPump feeds inbound frames to the hub until the socket dies, then cleans
// up membership state.
func (c *Conn) readPump() {
	defer func() {
		c.hub.Deregister(c.id)
		close(c.done)
		c.ws.Close()
	}()
	c.ws.SetReadLimit(maxMessageSize)
	c.ws.SetReadDeadline(time.Now().Add(pongWait))
	c.ws.SetPongHandler(func(string) error {
		c.ws.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})
	for {
		_, data, err := c.ws.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				c.log.Warn("websocket read failed", "conn_id", c.id, "error", err)
			}
			return
		}
		c.hub.HandleMessage(c, data)
	}
}

// writePump drains the send channel and keeps the socket alive with pings.
func (c *Conn) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.ws.Close()
	}()
	for {
		select {
		case data := <-c.send:
			c.ws.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.ws.WriteMessage(websocket.TextMessage, data); err != nil {
				return
			}
		case <-ticker.C:
			c.ws.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.ws.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		case <-c.done:
			c.ws.SetWriteDeadline(time.Now().Add(writeWait))
			c.ws.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
			return
		}
	}
}
