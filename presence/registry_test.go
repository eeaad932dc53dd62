package presence

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newSession(connID, fullName string) *Session {
	now := time.Now()
	return &Session{
		ConnectionID: connID,
		FullName:     fullName,
		LoginTime:    now,
		LastSeen:     now,
		Online:       true,
	}
}

func TestRegistry_Register(t *testing.T) {
	tests := []struct {
		name          string
		setup         func(*Registry)
		wantUserCount int
		wantSessions  map[string]int
	}{
		{
			name: "single user single session",
			setup: func(r *Registry) {
				r.Register("alice", newSession("c1", "Alice A"))
			},
			wantUserCount: 1,
			wantSessions:  map[string]int{"alice": 1},
		},
		{
			name: "same username twice counts once",
			setup: func(r *Registry) {
				r.Register("alice", newSession("c1", "Alice A"))
				r.Register("alice", newSession("c2", "Alice A"))
			},
			wantUserCount: 1,
			wantSessions:  map[string]int{"alice": 2},
		},
		{
			name: "distinct usernames",
			setup: func(r *Registry) {
				r.Register("alice", newSession("c1", "Alice A"))
				r.Register("bob", newSession("c2", "Bob B"))
			},
			wantUserCount: 2,
			wantSessions:  map[string]int{"alice": 1, "bob": 1},
		},
		{
			name: "duplicate connection id replaces the record",
			setup: func(r *Registry) {
				r.Register("alice", newSession("c1", "Alice A"))
				r.Register("alice", newSession("c1", "Alice Again"))
			},
			wantUserCount: 1,
			wantSessions:  map[string]int{"alice": 1},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := NewRegistry()
			tt.setup(r)

			assert.Equal(t, tt.wantUserCount, r.UserCount())
			for username, count := range tt.wantSessions {
				sessions, ok := r.Lookup(username)
				require.True(t, ok, "username %s", username)
				assert.Len(t, sessions, count, "username %s", username)
			}
		})
	}
}

func TestRegistry_UserCountMatchesKeys(t *testing.T) {
	r := NewRegistry()

	r.Register("alice", newSession("c1", "Alice A"))
	r.Register("alice", newSession("c2", "Alice A"))
	r.Register("bob", newSession("c3", "Bob B"))
	assert.Equal(t, len(r.users), r.UserCount())

	_, found := r.MarkOffline("c3", time.Now())
	require.True(t, found)
	r.Evict("bob")
	assert.Equal(t, len(r.users), r.UserCount())
	assert.Equal(t, 1, r.UserCount())
}

func TestRegistry_MarkOffline(t *testing.T) {
	r := NewRegistry()
	r.Register("alice", newSession("c1", "Alice A"))
	r.Register("alice", newSession("c2", "Alice A"))

	username, found := r.MarkOffline("c1", time.Now())
	require.True(t, found)
	assert.Equal(t, "alice", username)

	// the offline session stays in the list until eviction
	sessions, ok := r.Lookup("alice")
	require.True(t, ok)
	require.Len(t, sessions, 2)
	assert.True(t, r.HasActiveSessions("alice"))

	_, found = r.MarkOffline("unknown", time.Now())
	assert.False(t, found)
}

func TestRegistry_Evict(t *testing.T) {
	r := NewRegistry()
	r.Register("alice", newSession("c1", "Alice A"))

	_, found := r.MarkOffline("c1", time.Now())
	require.True(t, found)
	require.False(t, r.HasActiveSessions("alice"))

	r.Evict("alice")
	assert.Equal(t, 0, r.UserCount())
	_, ok := r.Lookup("alice")
	assert.False(t, ok)

	// evicting an absent username is a no-op
	r.Evict("alice")
	assert.Equal(t, 0, r.UserCount())
}

func TestRegistry_EvictWithActiveSessionsPanics(t *testing.T) {
	r := NewRegistry()
	r.Register("alice", newSession("c1", "Alice A"))

	assert.Panics(t, func() {
		r.Evict("alice")
	})
}

func TestRegistry_Touch(t *testing.T) {
	r := NewRegistry()
	r.Register("alice", newSession("c1", "Alice A"))

	at := time.Now().Add(time.Minute)
	require.True(t, r.Touch("c1", "busy", at))

	sessions, ok := r.Lookup("alice")
	require.True(t, ok)
	assert.Equal(t, "busy", sessions[0].Status)
	assert.Equal(t, at, sessions[0].LastSeen)

	assert.False(t, r.Touch("unknown", "busy", at))
}

func TestRegistry_Snapshot(t *testing.T) {
	r := NewRegistry()
	r.Register("alice", newSession("c1", "Alice A"))
	r.Register("bob", newSession("c2", "Bob B"))
	r.Register("alice", newSession("c3", "Alice A"))

	snapshot := r.Snapshot()
	require.Len(t, snapshot, 2)

	// registration order is preserved
	assert.Equal(t, "alice", snapshot[0].Username)
	assert.Equal(t, "Alice A", snapshot[0].FullName)
	assert.Len(t, snapshot[0].Sessions, 2)
	assert.Equal(t, "bob", snapshot[1].Username)

	// the snapshot is detached from the registry
	snapshot[0].Sessions[0].Online = false
	sessions, ok := r.Lookup("alice")
	require.True(t, ok)
	assert.True(t, sessions[0].Online)
}

func TestRegistry_SnapshotAfterEvict(t *testing.T) {
	r := NewRegistry()
	r.Register("alice", newSession("c1", "Alice A"))
	r.Register("bob", newSession("c2", "Bob B"))

	_, found := r.MarkOffline("c1", time.Now())
	require.True(t, found)
	r.Evict("alice")

	snapshot := r.Snapshot()
	require.Len(t, snapshot, 1)
	assert.Equal(t, "bob", snapshot[0].Username)

	// re-registering after eviction appears again
	r.Register("alice", newSession("c3", "Alice A"))
	snapshot = r.Snapshot()
	require.Len(t, snapshot, 2)
	assert.Equal(t, "alice", snapshot[1].Username)
}

func TestRegistry_SessionCount(t *testing.T) {
	r := NewRegistry()
	assert.Equal(t, 0, r.SessionCount())

	r.Register("alice", newSession("c1", "Alice A"))
	r.Register("alice", newSession("c2", "Alice A"))
	r.Register("bob", newSession("c3", "Bob B"))
	assert.Equal(t, 3, r.SessionCount())
}
