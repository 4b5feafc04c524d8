package sqlstore

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/avolkov/relay/internal/models"
	"github.com/avolkov/relay/internal/store"
)

func seedChatWithUser(t *testing.T, s *SQLStore) (*models.Chat, *models.User) {
	t.Helper()
	user := createTestUser(t, s, "alice")
	chat, err := s.CreateChat("devs", true)
	require.NoError(t, err)
	require.NoError(t, s.AddMember(chat.ID, user.ID))
	return chat, user
}

func TestCreateMessage(t *testing.T) {
	s := newTestStore(t)
	chat, user := seedChatWithUser(t, s)

	msg, err := s.CreateMessage(chat.ID, user.ID, "hello", "")
	require.NoError(t, err)
	require.NotZero(t, msg.ID)
	require.False(t, msg.Edited)
	require.False(t, msg.CreatedAt.IsZero())

	got, err := s.GetMessage(msg.ID)
	require.NoError(t, err)
	require.Equal(t, "hello", got.Content)
	require.Equal(t, "alice", got.Username)
}

func TestUpdateMessageContentMarksEdited(t *testing.T) {
	s := newTestStore(t)
	chat, user := seedChatWithUser(t, s)

	msg, err := s.CreateMessage(chat.ID, user.ID, "helo", "")
	require.NoError(t, err)

	require.NoError(t, s.UpdateMessageContent(msg.ID, "hello"))

	got, err := s.GetMessage(msg.ID)
	require.NoError(t, err)
	require.Equal(t, "hello", got.Content)
	require.True(t, got.Edited)
}

func TestUpdateMessageContentNotFound(t *testing.T) {
	s := newTestStore(t)

	err := s.UpdateMessageContent(404, "nope")
	require.ErrorIs(t, err, store.ErrNotFound)
}

func TestDeleteMessageIdempotent(t *testing.T) {
	s := newTestStore(t)
	chat, user := seedChatWithUser(t, s)

	msg, err := s.CreateMessage(chat.ID, user.ID, "oops", "")
	require.NoError(t, err)

	deleted, err := s.DeleteMessage(msg.ID)
	require.NoError(t, err)
	require.True(t, deleted)

	// Second delete and delete of a nonexistent id both succeed without
	// touching a row.
	deleted, err = s.DeleteMessage(msg.ID)
	require.NoError(t, err)
	require.False(t, deleted)

	deleted, err = s.DeleteMessage(9999)
	require.NoError(t, err)
	require.False(t, deleted)

	// A deleted message is gone for further edit and lookup.
	_, err = s.GetMessage(msg.ID)
	require.ErrorIs(t, err, store.ErrNotFound)
	require.ErrorIs(t, s.UpdateMessageContent(msg.ID, "resurrect"), store.ErrNotFound)
}

func TestListMessagesNewestFirstExcludingDeleted(t *testing.T) {
	s := newTestStore(t)
	chat, user := seedChatWithUser(t, s)

	first, err := s.CreateMessage(chat.ID, user.ID, "first", "")
	require.NoError(t, err)
	second, err := s.CreateMessage(chat.ID, user.ID, "second", "")
	require.NoError(t, err)
	gone, err := s.CreateMessage(chat.ID, user.ID, "gone", "")
	require.NoError(t, err)

	_, err = s.DeleteMessage(gone.ID)
	require.NoError(t, err)

	messages, err := s.ListMessages(chat.ID)
	require.NoError(t, err)
	require.Len(t, messages, 2)
	require.Equal(t, second.ID, messages[0].ID)
	require.Equal(t, first.ID, messages[1].ID)
}
