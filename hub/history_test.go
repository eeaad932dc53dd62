package hub

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/EmadAlmahdi/WebSocketServer/domain"
)

func entry(i int) domain.BroadcastMessage {
	return domain.BroadcastMessage{
		From:    fmt.Sprintf("c%d", i),
		Payload: []byte(fmt.Sprintf("%d", i)),
	}
}

func TestHistory_FIFOEviction(t *testing.T) {
	h := NewHistory(100)

	for i := range 101 {
		h.Append(entry(i))
	}

	assert.Equal(t, 100, h.Len())

	recent := h.Recent(100)
	require.Len(t, recent, 100)

	// entry 0 was evicted first
	assert.Equal(t, "c1", recent[0].From)
	assert.Equal(t, "c100", recent[99].From)
}

func TestHistory_Recent(t *testing.T) {
	tests := []struct {
		name      string
		appended  int
		request   int
		wantLen   int
		wantFirst string
	}{
		{name: "empty buffer", appended: 0, request: 20, wantLen: 0},
		{name: "fewer than requested", appended: 5, request: 20, wantLen: 5, wantFirst: "c0"},
		{name: "more than requested", appended: 50, request: 20, wantLen: 20, wantFirst: "c30"},
		{name: "zero requested", appended: 5, request: 0, wantLen: 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := NewHistory(100)
			for i := range tt.appended {
				h.Append(entry(i))
			}

			recent := h.Recent(tt.request)
			require.Len(t, recent, tt.wantLen)
			if tt.wantLen > 0 {
				assert.Equal(t, tt.wantFirst, recent[0].From)
			}
		})
	}
}
