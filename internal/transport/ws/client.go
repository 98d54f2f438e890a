package ws

import (
	"log/slog"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

// Limits applied to every connection.
type Limits struct {
	WriteWait      time.Duration
	PongWait       time.Duration
	PingPeriod     time.Duration
	MaxMessageSize int64
	SendBuffer     int
}

func DefaultLimits() Limits {
	return Limits{
		WriteWait:      10 * time.Second,
		PongWait:       60 * time.Second,
		PingPeriod:     54 * time.Second,
		MaxMessageSize: 64 * 1024,
		SendBuffer:     64,
	}
}

func (l Limits) withDefaults() Limits {
	def := DefaultLimits()
	if l.WriteWait <= 0 {
		l.WriteWait = def.WriteWait
	}
	if l.PongWait <= 0 {
		l.PongWait = def.PongWait
	}
	if l.PingPeriod <= 0 || l.PingPeriod >= l.PongWait {
		l.PingPeriod = l.PongWait * 9 / 10
	}
	if l.MaxMessageSize <= 0 {
		l.MaxMessageSize = def.MaxMessageSize
	}
	if l.SendBuffer <= 0 {
		l.SendBuffer = def.SendBuffer
	}
	return l
}

// Client is one websocket connection. The hub writes encoded frames to send;
// writePump is the only writer on conn and readPump the only reader.
type Client struct {
	id     string
	hub    *Hub
	conn   *websocket.Conn
	codec  Codec
	limits Limits
	log    *slog.Logger

	send      chan []byte
	closeOnce sync.Once
}

func newClient(id string, hub *Hub, conn *websocket.Conn, codec Codec, limits Limits, log *slog.Logger) *Client {
	return &Client{
		id:     id,
		hub:    hub,
		conn:   conn,
		codec:  codec,
		limits: limits,
		log:    log,
		send:   make(chan []byte, limits.SendBuffer),
	}
}

func (c *Client) ID() string { return c.id }

func (c *Client) close() {
	c.closeOnce.Do(func() { _ = c.conn.Close() })
}

// readPump decodes frames and hands them to the hub until the connection
// fails, then unregisters the client.
func (c *Client) readPump() {
	defer func() {
		c.hub.Unregister(c)
		c.close()
	}()

	c.conn.SetReadLimit(c.limits.MaxMessageSize)
	_ = c.conn.SetReadDeadline(time.Now().Add(c.limits.PongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(c.limits.PongWait))
	})

	for {
		_, data, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure, websocket.CloseAbnormalClosure) {
				c.log.Debug("ws read failed", slog.String("conn", c.id), slog.Any("err", err))
			}
			return
		}

		var in Inbound
		if err := c.codec.Decode(data, &in); err != nil || in.Event == "" {
			c.log.Debug("ws bad frame", slog.String("conn", c.id), slog.String("codec", c.codec.Name()), slog.Any("err", err))
			continue
		}
		in.prepared = c.hub.prepare(c, in)
		c.hub.Inbound(c, in)
	}
}

// writePump writes queued frames and pings until the hub closes send.
func (c *Client) writePump() {
	ticker := time.NewTicker(c.limits.PingPeriod)
	defer func() {
		ticker.Stop()
		c.close()
	}()

	for {
		select {
		case data, ok := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(c.limits.WriteWait))
			if !ok {
				_ = c.conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
				return
			}
			if err := c.conn.WriteMessage(c.codec.MessageType(), data); err != nil {
				c.log.Debug("ws write failed", slog.String("conn", c.id), slog.Any("err", err))
				return
			}

		case <-ticker.C:
			_ = c.conn.SetWriteDeadline(time.Now().Add(c.limits.WriteWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
