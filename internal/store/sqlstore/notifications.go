package sqlstore

import (
	"github.com/avolkov/relay/internal/models"
)

func (s *SQLStore) CreateNotification(n *models.Notification) error {
	query := s.rebind("INSERT INTO notifications (user_id, sender_id, kind, message) VALUES (?, ?, ?, ?) RETURNING id, created_at")
	return s.db.QueryRow(query, n.UserID, n.SenderID, n.Kind, n.Message).Scan(&n.ID, &n.CreatedAt)
}
