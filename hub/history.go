package hub

import "github.com/EmadAlmahdi/WebSocketServer/domain"

// History is a bounded FIFO buffer of recent broadcast messages, used only to
// replay context to newly connected clients. Access is serialized by the hub.
type History struct {
	entries []domain.BroadcastMessage
	limit   int
}

func NewHistory(limit int) *History {
	return &History{
		limit: limit,
	}
}

// Append records a broadcast message, evicting the oldest entry beyond the
// limit.
func (h *History) Append(msg domain.BroadcastMessage) {
	h.entries = append(h.entries, msg)
	if len(h.entries) > h.limit {
		h.entries = h.entries[len(h.entries)-h.limit:]
	}
}

// Recent returns up to n of the newest entries, oldest first.
func (h *History) Recent(n int) []domain.BroadcastMessage {
	if n > len(h.entries) {
		n = len(h.entries)
	}
	if n <= 0 {
		return nil
	}

	out := make([]domain.BroadcastMessage, n)
	copy(out, h.entries[len(h.entries)-n:])
	return out
}

// Len returns the number of buffered entries.
func (h *History) Len() int {
	return len(h.entries)
}
