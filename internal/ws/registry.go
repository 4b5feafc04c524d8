// Package ws implements the realtime core: the connection registry that
// routes broadcasts by group key, and the per-connection session machinery
// for chat and notification streams.
package ws

import (
	"fmt"
	"sync"

	"github.com/rs/zerolog"
)

// ChatGroup is the routing key for a chat's broadcast domain.
func ChatGroup(chatID int) string {
	return fmt.Sprintf("chat:%d", chatID)
}

// NotificationGroup is the routing key for one user's notification stream.
func NotificationGroup(userID int) string {
	return fmt.Sprintf("notifications:%d", userID)
}

// Registry maps group keys to the sessions currently attached to them and
// delivers broadcasts. It is the only shared mutable state between
// connections; all state is process-local and rebuilt empty on restart.
//
// Delivery is best-effort: a session whose outbound buffer is full is
// removed rather than allowed to block the broadcaster or other members.
type Registry struct {
	mu     sync.RWMutex
	groups map[string]map[*Session]struct{}
	log    zerolog.Logger
}

func NewRegistry(log zerolog.Logger) *Registry {
	return &Registry{
		groups: make(map[string]map[*Session]struct{}),
		log:    log,
	}
}

// Join attaches a session to a group. A session belongs to at most one
// group for its whole lifetime.
func (r *Registry) Join(group string, s *Session) {
	r.mu.Lock()
	defer r.mu.Unlock()

	set := r.groups[group]
	if set == nil {
		set = make(map[*Session]struct{})
		r.groups[group] = set
	}
	set[s] = struct{}{}
	r.log.Debug().Str("group", group).Int("members", len(set)).Msg("session joined")
}

// Leave detaches a session and closes its send channel. It is idempotent:
// repeated disconnect signals and broadcast-failure removal may race, and
// only the first call has any effect.
func (r *Registry) Leave(group string, s *Session) {
	r.mu.Lock()
	set, ok := r.groups[group]
	if !ok {
		r.mu.Unlock()
		return
	}
	if _, ok := set[s]; !ok {
		r.mu.Unlock()
		return
	}
	delete(set, s)
	if len(set) == 0 {
		delete(r.groups, group)
	}
	members := len(set)
	r.mu.Unlock()

	// Safe to close outside the lock: the session is no longer visible to
	// Broadcast, and a second Leave is stopped by the presence check above.
	close(s.send)
	r.log.Debug().Str("group", group).Int("members", members).Msg("session left")
}

// Broadcast delivers a payload to every session attached to the group at
// the moment of the call. Sessions that cannot accept the payload are
// removed afterwards; their failure never blocks delivery to the rest.
func (r *Registry) Broadcast(group string, payload []byte) {
	var failed []*Session

	// Holding the read lock makes the membership snapshot atomic with
	// respect to Join/Leave, and guarantees no send channel is closed
	// mid-delivery (Leave needs the write lock). Sends are non-blocking,
	// so the lock is never held across a suspension.
	r.mu.RLock()
	for s := range r.groups[group] {
		select {
		case s.send <- payload:
		default:
			failed = append(failed, s)
		}
	}
	r.mu.RUnlock()

	for _, s := range failed {
		r.log.Warn().Str("group", group).Int("user_id", s.user.ID).Msg("outbound buffer full, dropping session")
		r.Leave(group, s)
	}
}

// Send delivers a payload to a single session if it is still attached to
// its group. The presence check under the lock guarantees the send channel
// cannot have been closed by a concurrent Leave.
func (r *Registry) Send(s *Session, payload []byte) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()

	set, ok := r.groups[s.group]
	if !ok {
		return false
	}
	if _, ok := set[s]; !ok {
		return false
	}

	select {
	case s.send <- payload:
		return true
	default:
		return false
	}
}

// Count reports how many sessions are attached to a group.
func (r *Registry) Count(group string) int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.groups[group])
}
