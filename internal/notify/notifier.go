// Package notify produces per-user notification events: each one is
// persisted and then pushed, fire-and-forget, to the user's live
// notification stream. Users without a connected session simply miss the
// push; the stored row remains.
package notify

import (
	"encoding/json"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/avolkov/relay/internal/models"
	"github.com/avolkov/relay/internal/store"
	"github.com/avolkov/relay/internal/ws"
)

const (
	KindChatInvite    = "chat_invite"
	KindFriendRequest = "friend_request"
	KindNewPost       = "new_post"
	KindReaction      = "reaction"
	KindFollow        = "follow"
)

// Broadcaster delivers a payload to every session on a group key.
type Broadcaster interface {
	Broadcast(group string, payload []byte)
}

type Notifier struct {
	store  store.Store
	broker Broadcaster
	log    zerolog.Logger
}

func New(st store.Store, broker Broadcaster, log zerolog.Logger) *Notifier {
	return &Notifier{store: st, broker: broker, log: log}
}

// Notify persists a notification for a user and pushes it to their live
// stream. Persistence failure is an error; push is best-effort.
func (n *Notifier) Notify(userID, senderID int, kind, message string) error {
	row := &models.Notification{
		UserID:   userID,
		SenderID: senderID,
		Kind:     kind,
		Message:  message,
	}
	if err := n.store.CreateNotification(row); err != nil {
		return fmt.Errorf("save notification: %w", err)
	}

	payload, err := json.Marshal(map[string]any{"notification": row})
	if err != nil {
		return fmt.Errorf("marshal notification: %w", err)
	}
	n.broker.Broadcast(ws.NotificationGroup(userID), payload)
	return nil
}

func (n *Notifier) ChatInvite(userID int, sender *models.User, chatName string) error {
	return n.Notify(userID, sender.ID, KindChatInvite, fmt.Sprintf("%s added you to %q.", sender.Username, chatName))
}

func (n *Notifier) FriendRequest(userID int, sender *models.User) error {
	return n.Notify(userID, sender.ID, KindFriendRequest, fmt.Sprintf("%s sent you a friend request.", sender.Username))
}

func (n *Notifier) NewPost(userID int, sender *models.User) error {
	return n.Notify(userID, sender.ID, KindNewPost, fmt.Sprintf("%s has posted a new update.", sender.Username))
}

func (n *Notifier) Reaction(userID int, sender *models.User, reaction, target string) error {
	return n.Notify(userID, sender.ID, KindReaction, fmt.Sprintf("%s %sd your %s.", sender.Username, reaction, target))
}

func (n *Notifier) Follow(userID int, sender *models.User) error {
	return n.Notify(userID, sender.ID, KindFollow, fmt.Sprintf("%s started following you.", sender.Username))
}
