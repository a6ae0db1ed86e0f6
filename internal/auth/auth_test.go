package auth

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func newTestService(t *testing.T) *Service {
	t.Helper()
	hash, err := bcrypt.GenerateFromPassword([]byte("hunter2"), bcrypt.MinCost)
	require.NoError(t, err)
	return NewService([]Admin{{Username: "ada", PasswordHash: string(hash)}}, []byte("test-key"), time.Hour)
}

func TestLoginAndVerify(t *testing.T) {
	s := newTestService(t)
	assert.True(t, s.HasAdmins())

	token, exp, err := s.Login("ada", "hunter2")
	require.NoError(t, err)
	assert.WithinDuration(t, time.Now().Add(time.Hour), exp, 5*time.Second)

	who, err := s.Verify(token)
	require.NoError(t, err)
	assert.Equal(t, "ada", who)
}

func TestLogin_Rejects(t *testing.T) {
	s := newTestService(t)

	_, _, err := s.Login("ada", "wrong")
	assert.ErrorIs(t, err, ErrInvalidCredentials)

	_, _, err = s.Login("bob", "hunter2")
	assert.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestVerify_Rejects(t *testing.T) {
	s := newTestService(t)

	_, err := s.Verify("not-a-token")
	assert.ErrorIs(t, err, ErrInvalidToken)

	other := NewService(nil, []byte("other-key"), time.Hour)
	other.admins["ada"] = "x"
	forged, _, err := other.issue("ada")
	require.NoError(t, err)
	_, err = s.Verify(forged)
	assert.ErrorIs(t, err, ErrInvalidToken)

	ghost, _, err := s.issue("ghost")
	require.NoError(t, err)
	_, err = s.Verify(ghost)
	assert.ErrorIs(t, err, ErrInvalidToken)

	nonAdmin := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub": "ada",
		"exp": time.Now().Add(time.Hour).Unix(),
	})
	signed, err := nonAdmin.SignedString([]byte("test-key"))
	require.NoError(t, err)
	_, err = s.Verify(signed)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestVerify_Expired(t *testing.T) {
	s := newTestService(t)
	s.now = func() time.Time { return time.Now().Add(-2 * time.Hour) }
	token, _, err := s.issue("ada")
	require.NoError(t, err)

	s.now = time.Now
	_, err = s.Verify(token)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestHashPassword(t *testing.T) {
	_, err := HashPassword("")
	assert.Error(t, err)

	hash, err := HashPassword("pw")
	require.NoError(t, err)
	assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(hash), []byte("pw")))
}
