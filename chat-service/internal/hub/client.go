package hub

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/weiawesome/wes-support-chat/chat-service/internal/config"
	"github.com/weiawesome/wes-support-chat/pkg/log"
)

const defaultSendBuffer = 256

// Client is one websocket connection. ID is the session id.
type Client struct {
	ID          string
	AnonymousID string
	Hub         *Hub
	Conn        *websocket.Conn
	Send        chan []byte
	config      config.WebSocketConfig

	ctx    context.Context
	cancel context.CancelFunc
	mu     sync.RWMutex
	closed bool
}

func NewClient(id, anonymousID string, hub *Hub, conn *websocket.Conn, cfg config.WebSocketConfig) *Client {
	size := cfg.SendBuffer
	if size <= 0 {
		size = defaultSendBuffer
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &Client{
		ID:          id,
		AnonymousID: anonymousID,
		Hub:         hub,
		Conn:        conn,
		Send:        make(chan []byte, size),
		config:      cfg,
		ctx:         ctx,
		cancel:      cancel,
	}
}

// Context is cancelled once the connection is closed.
func (c *Client) Context() context.Context {
	return c.ctx
}

// Closed reports whether the connection has been torn down.
func (c *Client) Closed() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.closed
}

// ReadPump reads frames until the connection fails, handing each to handler.
// onClose runs once after the last frame, before the client is unregistered.
func (c *Client) ReadPump(handler func(*Client, []byte), onClose func(*Client)) {
	defer func() {
		c.cancel()
		if onClose != nil {
			onClose(c)
		}
		c.Hub.Unregister(c)
		c.Conn.Close()
	}()

	c.Conn.SetReadLimit(c.config.MaxMessageSize)
	c.Conn.SetReadDeadline(time.Now().Add(c.config.PongWait))
	c.Conn.SetPongHandler(func(string) error {
		c.Conn.SetReadDeadline(time.Now().Add(c.config.PongWait))
		return nil
	})

	for {
		_, message, err := c.Conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure, websocket.CloseNormalClosure) {
				l := log.L()
				l.Warn().Str(log.FieldSessionID, c.ID).Err(err).Msg("websocket read error")
			}
			break
		}

		// Any inbound frame counts as liveness, not only pongs.
		c.Conn.SetReadDeadline(time.Now().Add(c.config.PongWait))
		handler(c, message)
	}
}

func (c *Client) WritePump() {
	ticker := time.NewTicker(c.config.PingInterval)
	defer func() {
		ticker.Stop()
		c.Conn.Close()
	}()

	for {
		select {
		case message, ok := <-c.Send:
			c.Conn.SetWriteDeadline(time.Now().Add(c.config.WriteWait))
			if !ok {
				c.Conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}

			w, err := c.Conn.NextWriter(websocket.TextMessage)
			if err != nil {
				return
			}
			w.Write(message)

			if err := w.Close(); err != nil {
				return
			}

		case <-ticker.C:
			c.Conn.SetWriteDeadline(time.Now().Add(c.config.WriteWait))
			if err := c.Conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// SendMessage encodes message and queues it without blocking. Frames for a
// closed client or a full buffer are dropped.
func (c *Client) SendMessage(message interface{}) error {
	data, err := json.Marshal(message)
	if err != nil {
		return err
	}
	if !c.trySend(data) && !c.Closed() {
		l := log.L()
		l.Warn().Str(log.FieldSessionID, c.ID).Msg("send buffer full, frame dropped")
	}
	return nil
}

func (c *Client) trySend(data []byte) bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.closed {
		return false
	}
	select {
	case c.Send <- data:
		return true
	default:
		return false
	}
}

func (c *Client) close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return
	}
	c.closed = true
	c.cancel()
	close(c.Send)
}
