package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/avolkov/relay/internal/auth"
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

func TestAuth(t *testing.T) {
	verifier := auth.NewVerifier([]byte("test-secret-key"), time.Hour, fakeUsers{7: {ID: 7, Username: "alice"}}, zerolog.Nop())
	token, err := verifier.Issue(7)
	require.NoError(t, err)

	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		user := UserFrom(r.Context())
		require.NotNil(t, user)
		require.Equal(t, 7, user.ID)
		w.WriteHeader(http.StatusOK)
	})
	handler := Auth(verifier)(next)

	tests := []struct {
		name   string
		header string
		status int
	}{
		{"valid token", "Bearer " + token, http.StatusOK},
		{"missing header", "", http.StatusUnauthorized},
		{"garbage token", "Bearer garbage", http.StatusUnauthorized},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest("GET", "/", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			rec := httptest.NewRecorder()
			handler.ServeHTTP(rec, req)
			require.Equal(t, tt.status, rec.Code)
		})
	}
}
