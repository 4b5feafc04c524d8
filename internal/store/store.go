package store

import (
	"errors"

	"github.com/avolkov/relay/internal/models"
)

// ErrNotFound is returned when a referenced chat, user, or message does not
// exist. Callers distinguish it from authorization failures.
var ErrNotFound = errors.New("not found")

type Store interface {
	// User operations
	CreateUser(user *models.User) error
	GetUserByUsername(username string) (*models.User, error)
	GetUserByID(id int) (*models.User, error)

	// Chat and membership operations
	CreateChat(name string, isGroup bool) (*models.Chat, error)
	GetChat(chatID int) (*models.Chat, error)
	IsMember(chatID, userID int) (bool, error)
	AddMember(chatID, userID int) error
	ListMembers(chatID int) ([]models.User, error)

	// Message operations
	CreateMessage(chatID, senderID int, content, media string) (*models.Message, error)
	GetMessage(id int) (*models.Message, error)
	UpdateMessageContent(id int, content string) error
	DeleteMessage(id int) (bool, error)
	ListMessages(chatID int) ([]models.Message, error)

	// Notification operations
	CreateNotification(n *models.Notification) error
}
