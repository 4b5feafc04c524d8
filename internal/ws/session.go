package ws

import (
	"errors"
	"io"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"

	"github.com/avolkov/relay/internal/models"
)

const (
	// Time allowed to write a message to the peer.
	writeWait = 10 * time.Second

	// Time allowed to read the next pong message from the peer.
	pongWait = 60 * time.Second

	// Send pings to peer with this period. Must be less than pongWait.
	pingPeriod = (pongWait * 9) / 10
)

// State is a session's position in its lifecycle.
type State int32

const (
	StateConnecting State = iota
	StateAuthorizing
	StateAdmitted
	StateActive
	StateDenied
	StateClosed
)

func (s State) String() string {
	switch s {
	case StateConnecting:
		return "connecting"
	case StateAuthorizing:
		return "authorizing"
	case StateAdmitted:
		return "admitted"
	case StateActive:
		return "active"
	case StateDenied:
		return "denied"
	case StateClosed:
		return "closed"
	default:
		return "unknown"
	}
}

// Session is the live, in-memory state of one connected client: its
// resolved identity, its group key, and the transport pumps. Sessions
// never reference each other, only the registry.
type Session struct {
	conn     *websocket.Conn
	send     chan []byte
	registry *Registry
	group    string
	user     models.User
	log      zerolog.Logger

	// handle processes one inbound frame; set by the chat or notification
	// session before the pumps start.
	handle func(raw []byte)

	// state is only mutated by the connection's own goroutine.
	state State
}

func newSession(conn *websocket.Conn, registry *Registry, group string, user models.User, buffer int, log zerolog.Logger) *Session {
	return &Session{
		conn:     conn,
		send:     make(chan []byte, buffer),
		registry: registry,
		group:    group,
		user:     user,
		state:    StateConnecting,
		log:      log.With().Str("group", group).Str("user", user.Username).Logger(),
	}
}

func (s *Session) setState(next State) {
	prev := s.state
	s.state = next
	s.log.Debug().Stringer("from", prev).Stringer("to", next).Msg("session transition")
}

// enqueue offers a payload to the session's own transport. The registry
// mediates the send so it cannot race a concurrent eviction.
func (s *Session) enqueue(payload []byte) {
	if !s.registry.Send(s, payload) {
		s.log.Warn().Msg("payload dropped")
	}
}

// readPump pulls frames off the socket and hands them to the session's
// handler one at a time, which keeps a single session's actions ordered.
// On any transport fault it deregisters the session exactly once.
func (s *Session) readPump(maxMessageSize int64) {
	defer func() {
		s.registry.Leave(s.group, s)
		s.conn.Close()
		s.setState(StateClosed)
	}()

	s.conn.SetReadLimit(maxMessageSize)
	s.conn.SetReadDeadline(time.Now().Add(pongWait))
	s.conn.SetPongHandler(func(string) error {
		return s.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		_, raw, err := s.conn.ReadMessage()
		if err != nil {
			s.logReadEnd(err)
			return
		}
		s.handle(raw)
	}
}

func (s *Session) logReadEnd(err error) {
	switch {
	case websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway, websocket.CloseAbnormalClosure):
		s.log.Debug().Err(err).Msg("client disconnected")
	case errors.Is(err, io.EOF):
		s.log.Debug().Msg("connection closed")
	default:
		s.log.Warn().Err(err).Msg("read failed")
	}
}

// writePump drains the send channel onto the socket and keeps the
// connection alive with pings. It exits when the registry closes the send
// channel or a write fails.
func (s *Session) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		s.conn.Close()
	}()

	for {
		select {
		case payload, ok := <-s.send:
			s.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				s.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := s.conn.WriteMessage(websocket.TextMessage, payload); err != nil {
				s.log.Debug().Err(err).Msg("write failed")
				return
			}
		case <-ticker.C:
			s.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := s.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// run starts the pumps and blocks until the connection is torn down.
func (s *Session) run(maxMessageSize int64) {
	go s.writePump()
	s.readPump(maxMessageSize)
}
