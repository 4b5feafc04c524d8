package auth

import (
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/avolkov/relay/internal/models"
	"github.com/avolkov/relay/internal/store"
)

type fakeUsers map[int]*models.User

func (f fakeUsers) GetUserByID(id int) (*models.User, error) {
	u, ok := f[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	return u, nil
}

func newTestVerifier(ttl time.Duration) *Verifier {
	users := fakeUsers{7: {ID: 7, Username: "alice"}}
	return NewVerifier([]byte("test-secret-key"), ttl, users, zerolog.Nop())
}

func TestIssueAndVerify(t *testing.T) {
	v := newTestVerifier(time.Hour)

	token, err := v.Issue(7)
	require.NoError(t, err)

	user := v.Verify(token)
	require.False(t, user.IsAnonymous())
	require.Equal(t, 7, user.ID)
	require.Equal(t, "alice", user.Username)
}

func TestVerifyMissingCredential(t *testing.T) {
	v := newTestVerifier(time.Hour)

	require.True(t, v.Verify("").IsAnonymous())
}

func TestVerifyMalformedCredential(t *testing.T) {
	v := newTestVerifier(time.Hour)

	require.True(t, v.Verify("not-a-jwt").IsAnonymous())
}

func TestVerifyExpiredCredential(t *testing.T) {
	v := newTestVerifier(-time.Minute)

	token, err := v.Issue(7)
	require.NoError(t, err)

	require.True(t, v.Verify(token).IsAnonymous())
}

func TestVerifyForeignSignature(t *testing.T) {
	other := NewVerifier([]byte("different-secret"), time.Hour, fakeUsers{}, zerolog.Nop())
	token, err := other.Issue(7)
	require.NoError(t, err)

	v := newTestVerifier(time.Hour)
	require.True(t, v.Verify(token).IsAnonymous())
}

func TestVerifyUnknownSubject(t *testing.T) {
	v := newTestVerifier(time.Hour)

	token, err := v.Issue(404)
	require.NoError(t, err)

	require.True(t, v.Verify(token).IsAnonymous())
}
