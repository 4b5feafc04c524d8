package sqlstore

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/avolkov/relay/internal/models"
	"github.com/avolkov/relay/internal/store"
)

func TestCreateUser(t *testing.T) {
	s := newTestStore(t)

	user := createTestUser(t, s, "alice")
	require.NotZero(t, user.ID)

	got, err := s.GetUserByUsername("alice")
	require.NoError(t, err)
	require.Equal(t, user.ID, got.ID)

	got, err = s.GetUserByID(user.ID)
	require.NoError(t, err)
	require.Equal(t, "alice", got.Username)
}

func TestCreateUserDuplicateUsername(t *testing.T) {
	s := newTestStore(t)

	createTestUser(t, s, "alice")
	err := s.CreateUser(&models.User{Username: "alice", Password: "other"})
	require.Error(t, err)
}

func TestGetUserNotFound(t *testing.T) {
	s := newTestStore(t)

	_, err := s.GetUserByID(999)
	require.ErrorIs(t, err, store.ErrNotFound)

	_, err = s.GetUserByUsername("ghost")
	require.ErrorIs(t, err, store.ErrNotFound)
}
