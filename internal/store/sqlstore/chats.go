package sqlstore

import (
	"database/sql"
	"errors"

	"github.com/google/uuid"

	"github.com/avolkov/relay/internal/models"
	"github.com/avolkov/relay/internal/store"
)

// CreateChat inserts a chat row. Group chats get a fresh invite token;
// direct chats never have one.
func (s *SQLStore) CreateChat(name string, isGroup bool) (*models.Chat, error) {
	chat := &models.Chat{Name: name, IsGroup: isGroup}

	var invite sql.NullString
	if isGroup {
		chat.InviteToken = uuid.NewString()
		invite = sql.NullString{String: chat.InviteToken, Valid: true}
	}

	query := s.rebind("INSERT INTO chats (name, is_group, invite_token) VALUES (?, ?, ?) RETURNING id, created_at")
	err := s.db.QueryRow(query, name, isGroup, invite).Scan(&chat.ID, &chat.CreatedAt)
	if err != nil {
		return nil, err
	}
	return chat, nil
}

func (s *SQLStore) GetChat(chatID int) (*models.Chat, error) {
	var (
		chat   models.Chat
		invite sql.NullString
	)
	query := s.rebind("SELECT id, name, is_group, invite_token, created_at FROM chats WHERE id = ?")
	err := s.db.QueryRow(query, chatID).Scan(&chat.ID, &chat.Name, &chat.IsGroup, &invite, &chat.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, store.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	chat.InviteToken = invite.String
	return &chat, nil
}

func (s *SQLStore) IsMember(chatID, userID int) (bool, error) {
	var exists bool
	query := s.rebind("SELECT EXISTS(SELECT 1 FROM members WHERE chat_id = ? AND user_id = ?)")
	err := s.db.QueryRow(query, chatID, userID).Scan(&exists)
	return exists, err
}

// AddMember is idempotent: adding an existing member is a no-op success.
func (s *SQLStore) AddMember(chatID, userID int) error {
	query := s.rebind("INSERT INTO members (chat_id, user_id) VALUES (?, ?) ON CONFLICT DO NOTHING")
	_, err := s.db.Exec(query, chatID, userID)
	return err
}

func (s *SQLStore) ListMembers(chatID int) ([]models.User, error) {
	query := s.rebind(`
		SELECT u.id, u.username
		FROM users u
		JOIN members m ON u.id = m.user_id
		WHERE m.chat_id = ?
	`)
	rows, err := s.db.Query(query, chatID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var users []models.User
	for rows.Next() {
		var u models.User
		if err := rows.Scan(&u.ID, &u.Username); err != nil {
			return nil, err
		}
		users = append(users, u)
	}
	return users, rows.Err()
}
