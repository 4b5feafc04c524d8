package ws

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"
)

// notificationEnvelope is both the inbound echo-test payload and the
// outbound event shape on a notification socket.
type notificationEnvelope struct {
	Notification json.RawMessage `json:"notification"`
}

// ServeNotifications handles /notifications/{id}. The stream is scoped to
// the connecting user's own id: the resolved identity must match the path,
// so no cross-user authorization decision exists here.
func (g *Gateway) ServeNotifications(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	userID, err := strconv.Atoi(vars["id"])
	if err != nil {
		http.Error(w, "Not Found", http.StatusNotFound)
		return
	}

	user := g.verifier.Verify(r.URL.Query().Get("token"))
	if user.IsAnonymous() || user.ID != userID {
		g.log.Info().Int("user_id", userID).Stringer("state", StateDenied).Msg("notification stream refused")
		http.Error(w, "Forbidden", http.StatusForbidden)
		return
	}

	conn, err := g.upgrader.Upgrade(w, r, nil)
	if err != nil {
		g.log.Warn().Err(err).Msg("upgrade failed")
		return
	}

	session := newSession(conn, g.registry, NotificationGroup(userID), *user, g.sendBuffer, g.log)
	session.handle = session.echoNotification

	g.registry.Join(session.group, session)
	session.setState(StateActive)
	session.run(g.maxMessageSize)
}

// echoNotification relays an inbound notification payload straight back to
// the same transport. Producer-side events arrive via Registry.Broadcast
// and bypass this path entirely.
func (s *Session) echoNotification(raw []byte) {
	var envelope notificationEnvelope
	if err := json.Unmarshal(raw, &envelope); err != nil || envelope.Notification == nil {
		s.log.Debug().Msg("malformed notification payload ignored")
		return
	}

	payload, err := json.Marshal(envelope)
	if err != nil {
		return
	}
	s.enqueue(payload)
}
