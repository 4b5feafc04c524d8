package auth

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/rs/zerolog"

	"github.com/avolkov/relay/internal/models"
)

// Claims is the payload carried inside a bearer token.
type Claims struct {
	UserID int `json:"user_id"`
	jwt.RegisteredClaims
}

// UserSource looks up the identity record backing a token's subject.
type UserSource interface {
	GetUserByID(id int) (*models.User, error)
}

// Verifier issues and validates bearer tokens. Verification never fails
// hard: bad credentials resolve to the anonymous identity, which confers
// no admission rights downstream.
type Verifier struct {
	secret []byte
	ttl    time.Duration
	users  UserSource
	log    zerolog.Logger
}

func NewVerifier(secret []byte, ttl time.Duration, users UserSource, log zerolog.Logger) *Verifier {
	return &Verifier{secret: secret, ttl: ttl, users: users, log: log}
}

// Issue creates a signed token for a user.
func (v *Verifier) Issue(userID int) (string, error) {
	now := time.Now()
	claims := &Claims{
		UserID: userID,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(now.Add(v.ttl)),
			IssuedAt:  jwt.NewNumericDate(now),
			Issuer:    "relay",
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(v.secret)
}

// Verify resolves a raw credential to an identity. A missing, malformed,
// expired, or forged credential resolves to models.Anonymous with the
// reason logged; the caller decides what anonymous is allowed to do.
func (v *Verifier) Verify(credential string) *models.User {
	if credential == "" {
		return &models.Anonymous
	}

	claims, err := v.parse(credential)
	if err != nil {
		v.log.Debug().Err(err).Msg("credential rejected")
		return &models.Anonymous
	}

	user, err := v.users.GetUserByID(claims.UserID)
	if err != nil {
		v.log.Debug().Err(err).Int("user_id", claims.UserID).Msg("token subject unknown")
		return &models.Anonymous
	}
	return user
}

func (v *Verifier) parse(credential string) (*Claims, error) {
	token, err := jwt.ParseWithClaims(credential, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		return v.secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil {
		return nil, err
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return nil, fmt.Errorf("invalid claims")
	}
	return claims, nil
}
