package presence

import (
	"fmt"
	"time"

	"github.com/samber/lo"
)

// Session represents one live (or recently disconnected) connection under a
// username.
type Session struct {
	ConnectionID string    `json:"connectionId"`
	FullName     string    `json:"fullName"`
	LoginTime    time.Time `json:"loginTime"`
	LastSeen     time.Time `json:"lastSeen"`
	SourceURL    string    `json:"sourceUrl"`
	ClientAgent  string    `json:"clientAgent"`
	Status       string    `json:"status,omitempty"`
	Online       bool      `json:"online"`
}

// Entry is one username's slot in a roster snapshot.
type Entry struct {
	Username string    `json:"username"`
	FullName string    `json:"fullName"`
	Sessions []Session `json:"sessions"`
}

// Registry maps usernames to their active sessions. A username key exists iff
// it has at least one session, and the user count is always derived from the
// map itself. The registry has no internal locking; the hub serializes all
// access.
type Registry struct {
	users map[string][]*Session
	order []string
}

func NewRegistry() *Registry {
	return &Registry{
		users: make(map[string][]*Session),
	}
}

// Register appends a session under the username, creating the entry when the
// username is not yet present. A session reusing a live connection id replaces
// the previous record (last write governs).
func (r *Registry) Register(username string, session *Session) {
	sessions, exists := r.users[username]
	if !exists {
		r.order = append(r.order, username)
	}

	for i, s := range sessions {
		if s.ConnectionID == session.ConnectionID {
			sessions[i] = session
			return
		}
	}

	r.users[username] = append(sessions, session)
}

// MarkOffline flags the session owning the connection id as offline and
// returns the owning username. The session stays in the list until the
// username is evicted.
func (r *Registry) MarkOffline(connectionID string, at time.Time) (string, bool) {
	for username, sessions := range r.users {
		r.mustNotBeEmpty(username, sessions)
		for _, s := range sessions {
			if s.ConnectionID == connectionID {
				s.Online = false
				s.LastSeen = at
				return username, true
			}
		}
	}

	return "", false
}

// Touch updates last-seen and status text on the session owning the
// connection id.
func (r *Registry) Touch(connectionID, status string, at time.Time) bool {
	for _, sessions := range r.users {
		for _, s := range sessions {
			if s.ConnectionID == connectionID {
				s.LastSeen = at
				s.Status = status
				return true
			}
		}
	}

	return false
}

// HasActiveSessions reports whether any session under the username is online.
func (r *Registry) HasActiveSessions(username string) bool {
	return lo.SomeBy(r.users[username], func(s *Session) bool {
		return s.Online
	})
}

// Evict removes the username entirely. Evicting a username that still has an
// online session is a programming fault.
func (r *Registry) Evict(username string) {
	sessions, exists := r.users[username]
	if !exists {
		return
	}
	r.mustNotBeEmpty(username, sessions)

	if r.HasActiveSessions(username) {
		panic(fmt.Sprintf("presence: evicting %q with active sessions", username))
	}

	delete(r.users, username)
	r.order = lo.Without(r.order, username)
}

// Lookup returns the sessions registered under the username.
func (r *Registry) Lookup(username string) ([]*Session, bool) {
	sessions, ok := r.users[username]
	if ok {
		r.mustNotBeEmpty(username, sessions)
	}
	return sessions, ok
}

// UserCount is always derived from the map, never tracked independently.
func (r *Registry) UserCount() int {
	return len(r.users)
}

// SessionCount returns the total number of sessions across all usernames.
func (r *Registry) SessionCount() int {
	count := 0
	for _, sessions := range r.users {
		count += len(sessions)
	}
	return count
}

// Snapshot produces an immutable roster view in registration order.
func (r *Registry) Snapshot() []Entry {
	entries := make([]Entry, 0, len(r.users))

	for _, username := range r.order {
		sessions := r.users[username]
		r.mustNotBeEmpty(username, sessions)

		entries = append(entries, Entry{
			Username: username,
			FullName: sessions[0].FullName,
			Sessions: lo.Map(sessions, func(s *Session, _ int) Session {
				return *s
			}),
		})
	}

	return entries
}

// mustNotBeEmpty fails fast on a corrupted mapping; continuing would let
// inconsistent state propagate through future roster publishes.
func (r *Registry) mustNotBeEmpty(username string, sessions []*Session) {
	if len(sessions) == 0 {
		panic(fmt.Sprintf("presence: username %q mapped to an empty session list", username))
	}
}
