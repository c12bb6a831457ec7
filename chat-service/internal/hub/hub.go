package hub

import (
	"sync"

	"github.com/weiawesome/wes-support-chat/chat-service/internal/config"
	"github.com/weiawesome/wes-support-chat/pkg/log"
)

// Hub owns live connections keyed by session id and fans frames out to them.
type Hub struct {
	clients    map[string]*Client // sessionID -> client
	register   chan *Client
	unregister chan *Client
	done       chan struct{}
	stopOnce   sync.Once
	mu         sync.RWMutex
	config     config.WebSocketConfig
}

func NewHub(cfg config.WebSocketConfig) *Hub {
	return &Hub{
		clients:    make(map[string]*Client),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		done:       make(chan struct{}),
		config:     cfg,
	}
}

func (h *Hub) Run() {
	for {
		select {
		case client := <-h.register:
			h.mu.Lock()
			if prev, ok := h.clients[client.ID]; ok && prev != client {
				prev.close()
			}
			h.clients[client.ID] = client
			h.mu.Unlock()
			l := log.L()
			l.Debug().Str(log.FieldSessionID, client.ID).Msg("client registered")

		case client := <-h.unregister:
			h.mu.Lock()
			if cur, ok := h.clients[client.ID]; ok && cur == client {
				delete(h.clients, client.ID)
			}
			h.mu.Unlock()
			client.close()
			l := log.L()
			l.Debug().Str(log.FieldSessionID, client.ID).Msg("client unregistered")

		case <-h.done:
			h.mu.Lock()
			for id, client := range h.clients {
				client.close()
				delete(h.clients, id)
			}
			h.mu.Unlock()
			return
		}
	}
}

// Stop terminates Run and closes every remaining connection.
func (h *Hub) Stop() {
	h.stopOnce.Do(func() { close(h.done) })
}

func (h *Hub) Register(client *Client) {
	select {
	case h.register <- client:
	case <-h.done:
		client.close()
	}
}

func (h *Hub) Unregister(client *Client) {
	select {
	case h.unregister <- client:
	case <-h.done:
	}
}

// Disconnect drops the connection for sessionID without sending any frame
// other than the websocket close. Returns false if no client is connected.
func (h *Hub) Disconnect(sessionID string) bool {
	h.mu.RLock()
	client, ok := h.clients[sessionID]
	h.mu.RUnlock()
	if !ok {
		return false
	}
	h.Unregister(client)
	return true
}

// BroadcastRaw sends pre-encoded bytes and returns how many clients accepted them.
func (h *Hub) BroadcastRaw(sessionIDs []string, data []byte, exclude string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()

	delivered := 0
	for _, id := range sessionIDs {
		if id == exclude {
			continue
		}
		client, ok := h.clients[id]
		if !ok {
			continue
		}
		if client.trySend(data) {
			delivered++
			continue
		}
		if client.Closed() {
			continue
		}
		l := log.L()
		l.Warn().Str(log.FieldSessionID, id).Msg("send buffer full, dropping client")
		go h.removeClient(client)
	}
	return delivered
}

func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

func (h *Hub) removeClient(client *Client) {
	h.Unregister(client)
}
