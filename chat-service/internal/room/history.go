package room

import "github.com/weiawesome/wes-support-chat/chat-service/internal/domain"

// DefaultHistoryCapacity bounds each room's retained messages.
const DefaultHistoryCapacity = 100

// History is a fixed-capacity FIFO ring of messages. Not safe for concurrent
// use; the registry serializes access.
type History struct {
	buf   []domain.Message
	start int
	size  int
}

func NewHistory(capacity int) *History {
	if capacity <= 0 {
		capacity = DefaultHistoryCapacity
	}
	return &History{buf: make([]domain.Message, capacity)}
}

// Append adds msg, overwriting the oldest entry when full.
func (h *History) Append(msg domain.Message) {
	if h.size < len(h.buf) {
		h.buf[(h.start+h.size)%len(h.buf)] = msg
		h.size++
		return
	}
	h.buf[h.start] = msg
	h.start = (h.start + 1) % len(h.buf)
}

// Items returns the retained messages oldest first.
func (h *History) Items() []domain.Message {
	out := make([]domain.Message, h.size)
	for i := 0; i < h.size; i++ {
		out[i] = h.buf[(h.start+i)%len(h.buf)]
	}
	return out
}

func (h *History) Len() int { return h.size }

func (h *History) Cap() int { return len(h.buf) }
