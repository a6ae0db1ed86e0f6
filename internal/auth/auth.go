// Package auth gates the admin surface: bcrypt password login and
// HS256 session tokens.
package auth

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"
)

var (
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrInvalidToken       = errors.New("invalid token")
)

type Admin struct {
	Username     string
	PasswordHash string
}

// Service verifies admin logins and issues/validates session tokens.
// Admins are fixed at construction.
type Service struct {
	admins map[string]string
	key    []byte
	ttl    time.Duration
	now    func() time.Time
}

func NewService(admins []Admin, key []byte, ttl time.Duration) *Service {
	m := make(map[string]string, len(admins))
	for _, a := range admins {
		m[strings.TrimSpace(a.Username)] = a.PasswordHash
	}
	return &Service{admins: m, key: key, ttl: ttl, now: time.Now}
}

// HasAdmins reports whether anyone can log in at all.
func (s *Service) HasAdmins() bool { return len(s.admins) > 0 }

// Login checks a username/password pair and returns a signed token.
func (s *Service) Login(username, password string) (string, time.Time, error) {
	hash, ok := s.admins[strings.TrimSpace(username)]
	if !ok {
		return "", time.Time{}, ErrInvalidCredentials
	}
	if err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)); err != nil {
		return "", time.Time{}, ErrInvalidCredentials
	}
	return s.issue(strings.TrimSpace(username))
}

func (s *Service) issue(username string) (string, time.Time, error) {
	now := s.now()
	exp := now.Add(s.ttl)
	claims := jwt.MapClaims{
		"sub":   username,
		"admin": true,
		"iat":   now.Unix(),
		"exp":   exp.Unix(),
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(s.key)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("sign token: %w", err)
	}
	return signed, exp, nil
}

// Verify parses a token and returns the admin it was issued to. Tokens
// for admins no longer in the config are rejected.
func (s *Service) Verify(tokenStr string) (string, error) {
	token, err := jwt.Parse(tokenStr, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return s.key, nil
	}, jwt.WithTimeFunc(s.now))
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok || !token.Valid {
		return "", fmt.Errorf("%w: bad claims", ErrInvalidToken)
	}
	username, _ := claims["sub"].(string)
	if username == "" {
		return "", fmt.Errorf("%w: missing sub claim", ErrInvalidToken)
	}
	if admin, _ := claims["admin"].(bool); !admin {
		return "", fmt.Errorf("%w: not an admin token", ErrInvalidToken)
	}
	if _, ok := s.admins[username]; !ok {
		return "", fmt.Errorf("%w: admin %q no longer exists", ErrInvalidToken, username)
	}
	return username, nil
}

func HashPassword(password string) (string, error) {
	if password == "" {
		return "", errors.New("password is empty")
	}
	b, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(b), nil
}
