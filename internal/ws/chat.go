package ws

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"

	"github.com/avolkov/relay/internal/auth"
	"github.com/avolkov/relay/internal/models"
	"github.com/avolkov/relay/internal/store"
)

// Gateway upgrades HTTP requests into chat and notification sessions. All
// authorization happens before the websocket handshake completes, so a
// denied connection never sees a single event.
type Gateway struct {
	store          store.Store
	verifier       *auth.Verifier
	registry       *Registry
	upgrader       websocket.Upgrader
	sendBuffer     int
	maxMessageSize int64
	log            zerolog.Logger
}

func NewGateway(st store.Store, verifier *auth.Verifier, registry *Registry, sendBuffer int, maxMessageSize int64, log zerolog.Logger) *Gateway {
	return &Gateway{
		store:          st,
		verifier:       verifier,
		registry:       registry,
		upgrader:       websocket.Upgrader{ReadBufferSize: 1024, WriteBufferSize: 1024},
		sendBuffer:     sendBuffer,
		maxMessageSize: maxMessageSize,
		log:            log,
	}
}

// Registry exposes the gateway's registry so external producers (the
// notification service) can broadcast into it.
func (g *Gateway) Registry() *Registry {
	return g.registry
}

// ServeChat handles /chat/{id} and /chat/{id}/{invite}. The credential
// comes from the token query parameter.
func (g *Gateway) ServeChat(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	chatID, err := strconv.Atoi(vars["id"])
	if err != nil {
		http.Error(w, "Not Found", http.StatusNotFound)
		return
	}
	invite := vars["invite"]

	// Connecting: resolve the caller once; the identity is immutable for
	// the connection's lifetime.
	user := g.verifier.Verify(r.URL.Query().Get("token"))

	// Authorizing: membership or invite token, checked before the upgrade.
	// A denied connection never completes the handshake and never joins.
	if !g.authorizeChat(chatID, invite, user) {
		g.log.Info().Int("chat_id", chatID).Str("user", user.Username).Stringer("state", StateDenied).Msg("chat connection refused")
		http.Error(w, "Forbidden", http.StatusForbidden)
		return
	}

	conn, err := g.upgrader.Upgrade(w, r, nil)
	if err != nil {
		g.log.Warn().Err(err).Msg("upgrade failed")
		return
	}

	session := newSession(conn, g.registry, ChatGroup(chatID), *user, g.sendBuffer, g.log)
	cs := &chatSession{Session: session, chatID: chatID, store: g.store}
	session.handle = cs.dispatch

	session.setState(StateAdmitted)
	g.registry.Join(session.group, session)
	session.setState(StateActive)
	session.run(g.maxMessageSize)
}

func (g *Gateway) authorizeChat(chatID int, invite string, user *models.User) bool {
	chat, err := g.store.GetChat(chatID)
	if errors.Is(err, store.ErrNotFound) {
		g.log.Debug().Int("chat_id", chatID).Msg("chat not found")
		return false
	}
	if err != nil {
		g.log.Error().Err(err).Int("chat_id", chatID).Msg("chat lookup failed")
		return false
	}

	// An invite token admits anyone with a resolved identity to a group
	// chat, adding them as a member. Anonymous holds no admission rights
	// even with a valid invite.
	if chat.IsGroup && invite != "" && invite == chat.InviteToken && !user.IsAnonymous() {
		if err := g.store.AddMember(chatID, user.ID); err != nil {
			g.log.Error().Err(err).Int("chat_id", chatID).Int("user_id", user.ID).Msg("invite join failed")
			return false
		}
		return true
	}

	if user.IsAnonymous() {
		g.log.Debug().Int("chat_id", chatID).Msg("anonymous connection denied")
		return false
	}

	isMember, err := g.store.IsMember(chatID, user.ID)
	if err != nil {
		g.log.Error().Err(err).Int("chat_id", chatID).Int("user_id", user.ID).Msg("membership check failed")
		return false
	}
	if !isMember {
		g.log.Debug().Int("chat_id", chatID).Int("user_id", user.ID).Msg("non-member denied")
	}
	return isMember
}

// chatSession processes inbound actions for one admitted chat connection.
// Store mutations always happen before the broadcast, and never under the
// registry lock.
type chatSession struct {
	*Session
	chatID int
	store  store.Store
}

func (c *chatSession) dispatch(raw []byte) {
	var act Action
	if err := json.Unmarshal(raw, &act); err != nil {
		c.log.Debug().Err(err).Msg("malformed action ignored")
		return
	}

	switch act.Action {
	case ActionSend:
		c.handleSend(act)
	case ActionEdit:
		c.handleEdit(act)
	case ActionDelete:
		c.handleDelete(act)
	default:
		c.log.Debug().Str("action", act.Action).Msg("unknown action ignored")
	}
}

func (c *chatSession) handleSend(act Action) {
	msg, err := c.store.CreateMessage(c.chatID, c.user.ID, act.Message, act.Media)
	if err != nil {
		c.log.Error().Err(err).Msg("save message failed")
		return
	}

	c.broadcast(newMessageEvent(msg, c.user.Username))
}

func (c *chatSession) handleEdit(act Action) {
	msg, ok := c.authorizeMutation(act.MessageID, "edit")
	if !ok {
		return
	}

	if err := c.store.UpdateMessageContent(msg.ID, act.UpdatedContent); err != nil {
		c.log.Error().Err(err).Int("message_id", msg.ID).Msg("edit failed")
		return
	}

	c.broadcast(editEvent{Type: "edit", MessageID: msg.ID, UpdatedContent: act.UpdatedContent})
}

func (c *chatSession) handleDelete(act Action) {
	if _, ok := c.authorizeMutation(act.MessageID, "delete"); !ok {
		return
	}

	deleted, err := c.store.DeleteMessage(act.MessageID)
	if err != nil {
		c.log.Error().Err(err).Int("message_id", act.MessageID).Msg("delete failed")
		return
	}
	if !deleted {
		// Lost a race with a concurrent delete; idempotent, no broadcast.
		return
	}

	c.broadcast(deleteEvent{Type: "delete", MessageID: act.MessageID})
}

// authorizeMutation enforces the author-only rule for edit and delete. A
// missing message is a silent no-op; edits and deletes of someone else's
// message are rejected without any broadcast.
func (c *chatSession) authorizeMutation(messageID int, action string) (*models.Message, bool) {
	msg, err := c.store.GetMessage(messageID)
	if errors.Is(err, store.ErrNotFound) {
		c.log.Debug().Int("message_id", messageID).Str("action", action).Msg("message gone, ignoring")
		return nil, false
	}
	if err != nil {
		c.log.Error().Err(err).Int("message_id", messageID).Msg("message lookup failed")
		return nil, false
	}
	if msg.SenderID != c.user.ID {
		c.log.Warn().Int("message_id", messageID).Str("action", action).Msg("rejected mutation of another user's message")
		return nil, false
	}
	if msg.ChatID != c.chatID {
		c.log.Warn().Int("message_id", messageID).Str("action", action).Msg("rejected mutation outside session chat")
		return nil, false
	}
	return msg, true
}

func (c *chatSession) broadcast(event any) {
	payload, err := json.Marshal(event)
	if err != nil {
		c.log.Error().Err(err).Msg("marshal event failed")
		return
	}
	c.registry.Broadcast(c.group, payload)
}
