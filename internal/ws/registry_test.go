package ws

import (
	"fmt"
	"sync"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/avolkov/relay/internal/models"
)

func newBareSession(t *testing.T, r *Registry, group string, userID, buffer int) *Session {
	t.Helper()
	user := models.User{ID: userID, Username: fmt.Sprintf("user%d", userID)}
	return newSession(nil, r, group, user, buffer, zerolog.Nop())
}

func drain(s *Session) [][]byte {
	var got [][]byte
	for {
		select {
		case payload := <-s.send:
			got = append(got, payload)
		default:
			return got
		}
	}
}

func TestBroadcastReachesOnlyGroupMembers(t *testing.T) {
	r := NewRegistry(zerolog.Nop())

	a := newBareSession(t, r, ChatGroup(7), 1, 4)
	b := newBareSession(t, r, ChatGroup(7), 2, 4)
	other := newBareSession(t, r, ChatGroup(9), 3, 4)
	r.Join(a.group, a)
	r.Join(b.group, b)
	r.Join(other.group, other)

	r.Broadcast(ChatGroup(7), []byte("hello"))

	require.Len(t, drain(a), 1)
	require.Len(t, drain(b), 1)
	require.Empty(t, drain(other), "session outside the group must not observe the event")
}

func TestLeaveIdempotent(t *testing.T) {
	r := NewRegistry(zerolog.Nop())

	s := newBareSession(t, r, ChatGroup(7), 1, 4)
	r.Join(s.group, s)
	require.Equal(t, 1, r.Count(ChatGroup(7)))

	r.Leave(s.group, s)
	require.Equal(t, 0, r.Count(ChatGroup(7)))

	// Second leave is a no-op, not a double close.
	require.NotPanics(t, func() { r.Leave(s.group, s) })

	_, open := <-s.send
	require.False(t, open, "send channel closed exactly once on leave")
}

func TestLeaveUnknownSessionIsNoop(t *testing.T) {
	r := NewRegistry(zerolog.Nop())

	s := newBareSession(t, r, ChatGroup(7), 1, 4)
	require.NotPanics(t, func() { r.Leave(s.group, s) })
}

func TestBroadcastAfterLeaveSkipsSession(t *testing.T) {
	r := NewRegistry(zerolog.Nop())

	a := newBareSession(t, r, ChatGroup(7), 1, 4)
	b := newBareSession(t, r, ChatGroup(7), 2, 4)
	r.Join(a.group, a)
	r.Join(b.group, b)
	r.Leave(a.group, a)

	r.Broadcast(ChatGroup(7), []byte("hello"))

	require.Len(t, drain(b), 1)
}

func TestBroadcastDropsSlowSession(t *testing.T) {
	r := NewRegistry(zerolog.Nop())

	slow := newBareSession(t, r, ChatGroup(7), 1, 1)
	healthy := newBareSession(t, r, ChatGroup(7), 2, 4)
	r.Join(slow.group, slow)
	r.Join(healthy.group, healthy)

	// First broadcast fills the slow session's buffer; the second finds it
	// full and evicts it without affecting the healthy session.
	r.Broadcast(ChatGroup(7), []byte("one"))
	r.Broadcast(ChatGroup(7), []byte("two"))

	require.Equal(t, 1, r.Count(ChatGroup(7)))
	require.Len(t, drain(healthy), 2)
}

func TestBroadcastOrderPerSession(t *testing.T) {
	r := NewRegistry(zerolog.Nop())

	s := newBareSession(t, r, ChatGroup(7), 1, 8)
	r.Join(s.group, s)

	for i := 0; i < 5; i++ {
		r.Broadcast(ChatGroup(7), []byte{byte(i)})
	}

	got := drain(s)
	require.Len(t, got, 5)
	for i, payload := range got {
		require.Equal(t, byte(i), payload[0])
	}
}

func TestSendOnlyWhileAttached(t *testing.T) {
	r := NewRegistry(zerolog.Nop())

	s := newBareSession(t, r, ChatGroup(7), 1, 4)
	require.False(t, r.Send(s, []byte("early")), "send before join is refused")

	r.Join(s.group, s)
	require.True(t, r.Send(s, []byte("hello")))

	r.Leave(s.group, s)
	require.NotPanics(t, func() {
		require.False(t, r.Send(s, []byte("late")), "send after leave is refused")
	})
}

func TestConcurrentJoinLeaveBroadcast(t *testing.T) {
	r := NewRegistry(zerolog.Nop())
	group := ChatGroup(7)

	var wg sync.WaitGroup
	for i := 0; i < 32; i++ {
		s := newBareSession(t, r, group, i, 1)
		wg.Add(2)
		go func() {
			defer wg.Done()
			r.Join(group, s)
			r.Leave(group, s)
		}()
		go func() {
			defer wg.Done()
			r.Broadcast(group, []byte("x"))
		}()
	}
	wg.Wait()

	require.Equal(t, 0, r.Count(group))
}
