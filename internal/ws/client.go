package ws

import (
	"encoding/json"
	"time"

	"action_items/internal/logger"

	"github.com/gorilla/websocket"
)

const (
	writeWait  = 10 * time.Second
	pongWait   = 30 * time.Second
	pingPeriod = 25 * time.Second

	maxMessageSize = 4096
)

type Client struct {
	UserID string
	Conn   *websocket.Conn
	Send   chan []byte

	Hub  *Hub
	Done chan struct{}
}

func NewClient(userID string, conn *websocket.Conn, hub *Hub) *Client {
	return &Client{
		UserID: userID,
		Conn:   conn,
		Send:   make(chan []byte, 16),
		Hub:    hub,
		Done:   make(chan struct{}),
	}
}

// Run registers the client, greets it and blocks until the socket closes.
func (c *Client) Run() {
	n := c.Hub.Register(c)
	logger.Debug("presence connected", "user_id", c.UserID, "connections", n)

	go c.writePump()

	c.Send <- encode(MsgHello, HelloPayload{
		UserID:      c.UserID,
		Connections: n,
		ServerTime:  time.Now().UTC(),
	})

	c.readPump()
}

func (c *Client) readPump() {
	defer func() {
		c.Hub.Unregister(c)
		close(c.Done)
		_ = c.Conn.Close()
		logger.Debug("presence disconnected", "user_id", c.UserID)
	}()

	c.Conn.SetReadLimit(maxMessageSize)
	c.Conn.SetReadDeadline(time.Now().Add(pongWait))
	c.Conn.SetPongHandler(func(string) error {
		c.Conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		_, raw, err := c.Conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				logger.Warn("presence read error", "user_id", c.UserID, "error", err)
			}
			return
		}
		c.Conn.SetReadDeadline(time.Now().Add(pongWait))

		var msg Message
		if err := json.Unmarshal(raw, &msg); err != nil {
			c.queue(encode(MsgError, ErrorPayload{Message: "invalid message"}))
			continue
		}
		switch msg.Type {
		case MsgPing:
			c.queue(encode(MsgPong, PongPayload{ServerTime: time.Now().UTC()}))
		default:
			c.queue(encode(MsgError, ErrorPayload{Message: "unknown message type"}))
		}
	}
}

// queue drops the frame when the writer is gone or backed up.
func (c *Client) queue(b []byte) {
	select {
	case c.Send <- b:
	case <-c.Done:
	default:
	}
}

func (c *Client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.Conn.Close()
	}()

	for {
		select {
		case msg := <-c.Send:
			c.Conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.Conn.WriteMessage(websocket.TextMessage, msg); err != nil {
				return
			}
		case <-ticker.C:
			c.Conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.Conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		case <-c.Done:
			c.Conn.SetWriteDeadline(time.Now().Add(writeWait))
			_ = c.Conn.WriteMessage(websocket.CloseMessage, []byte{})
			return
		}
	}
}
