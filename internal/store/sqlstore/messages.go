package sqlstore

import (
	"database/sql"
	"errors"

	"github.com/avolkov/relay/internal/models"
	"github.com/avolkov/relay/internal/store"
)

func (s *SQLStore) CreateMessage(chatID, senderID int, content, media string) (*models.Message, error) {
	msg := &models.Message{ChatID: chatID, SenderID: senderID, Content: content, Media: media}

	query := s.rebind("INSERT INTO messages (chat_id, sender_id, content, media) VALUES (?, ?, ?, ?) RETURNING id, created_at, updated_at")
	err := s.db.QueryRow(query, chatID, senderID, content, media).Scan(&msg.ID, &msg.CreatedAt, &msg.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return msg, nil
}

// GetMessage returns a live message row. Deleted messages are treated as
// gone: they resolve to store.ErrNotFound.
func (s *SQLStore) GetMessage(id int) (*models.Message, error) {
	var msg models.Message
	query := s.rebind(`
		SELECT m.id, m.chat_id, m.sender_id, u.username, m.content, COALESCE(m.media, ''), m.is_edited, m.created_at, m.updated_at
		FROM messages m
		JOIN users u ON m.sender_id = u.id
		WHERE m.id = ? AND m.is_deleted = FALSE
	`)
	err := s.db.QueryRow(query, id).Scan(&msg.ID, &msg.ChatID, &msg.SenderID, &msg.Username, &msg.Content, &msg.Media, &msg.Edited, &msg.CreatedAt, &msg.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, store.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &msg, nil
}

// UpdateMessageContent replaces the content and marks the message edited.
func (s *SQLStore) UpdateMessageContent(id int, content string) error {
	query := s.rebind("UPDATE messages SET content = ?, is_edited = TRUE, updated_at = CURRENT_TIMESTAMP WHERE id = ? AND is_deleted = FALSE")
	result, err := s.db.Exec(query, content, id)
	if err != nil {
		return err
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		return store.ErrNotFound
	}
	return nil
}

// DeleteMessage soft-deletes a message and reports whether a live row was
// affected. Deleting a missing or already-deleted message is a no-op success.
func (s *SQLStore) DeleteMessage(id int) (bool, error) {
	query := s.rebind("UPDATE messages SET is_deleted = TRUE, updated_at = CURRENT_TIMESTAMP WHERE id = ? AND is_deleted = FALSE")
	result, err := s.db.Exec(query, id)
	if err != nil {
		return false, err
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return false, err
	}
	return rows > 0, nil
}

// ListMessages returns a chat's live messages, newest first.
func (s *SQLStore) ListMessages(chatID int) ([]models.Message, error) {
	query := s.rebind(`
		SELECT m.id, m.chat_id, m.sender_id, u.username, m.content, COALESCE(m.media, ''), m.is_edited, m.created_at, m.updated_at
		FROM messages m
		JOIN users u ON m.sender_id = u.id
		WHERE m.chat_id = ? AND m.is_deleted = FALSE
		ORDER BY m.created_at DESC, m.id DESC
	`)
	rows, err := s.db.Query(query, chatID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var messages []models.Message
	for rows.Next() {
		var m models.Message
		if err := rows.Scan(&m.ID, &m.ChatID, &m.SenderID, &m.Username, &m.Content, &m.Media, &m.Edited, &m.CreatedAt, &m.UpdatedAt); err != nil {
			return nil, err
		}
		messages = append(messages, m)
	}
	return messages, rows.Err()
}
