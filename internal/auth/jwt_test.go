package auth

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"max.ks1230/billtracker/internal/entity/user"
)

type testConfig struct {
	secret string
	ttl    time.Duration
}

func (c testConfig) SecretKey() string { return c.secret }
func (c testConfig) TokenDuration() time.Duration { return c.ttl }

func Test_OnValidate_ShouldReturnSubject(t *testing.T) {
	m := NewJWTManager(testConfig{secret: "secret", ttl: time.Hour})
	u := &user.Record{ID: uuid.New(), Email: "me@example.com"}

	token, err := m.Generate(u)
	require.NoError(t, err)

	userID, err := m.Validate(token)
	require.NoError(t, err)
	assert.Equal(t, u.ID, userID)
}

func Test_OnValidate_ShouldRejectBadTokens(t *testing.T) {
	m := NewJWTManager(testConfig{secret: "secret", ttl: time.Hour})
	u := &user.Record{ID: uuid.New()}

	expired, err := NewJWTManager(testConfig{secret: "secret", ttl: -time.Minute}).Generate(u)
	require.NoError(t, err)
	foreign, err := NewJWTManager(testConfig{secret: "other", ttl: time.Hour}).Generate(u)
	require.NoError(t, err)
	noSubject, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{Subject: "42"}).
		SignedString([]byte("secret"))
	require.NoError(t, err)

	for name, token := range map[string]string{
		"garbage":     "not-a-token",
		"expired":     expired,
		"wrong key":   foreign,
		"bad subject": noSubject,
	} {
		t.Run(name, func(t *testing.T) {
			_, err := m.Validate(token)
			assert.ErrorIs(t, err, ErrInvalidToken)
		})
	}
}
