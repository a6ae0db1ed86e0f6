package secrets

import (
	"crypto/rand"
	"encoding/hex"
	"errors"
	"strings"

	"github.com/zalando/go-keyring"
)

const (
	// Service groups the engine's secrets in the OS keychain.
	KeyringService = "hackhub"
)

// Where a signing key came from.
const (
	SourceConfig    = "config"
	SourceKeyring   = "keyring"
	SourceEphemeral = "ephemeral"
)

// ResolveSigningKey returns the key used to sign admin session tokens.
// An explicit override wins; otherwise the key is read from the OS
// keyring, and generated and stored there on first use. When no keyring
// is reachable a random per-process key is returned, which means
// sessions do not survive a restart.
func ResolveSigningKey(account, override string) (key []byte, source string, err error) {
	if strings.TrimSpace(override) != "" {
		return []byte(override), SourceConfig, nil
	}

	if strings.TrimSpace(account) != "" {
		stored, err := keyring.Get(KeyringService, account)
		if err == nil && strings.TrimSpace(stored) != "" {
			return []byte(stored), SourceKeyring, nil
		}
		if err == nil || errors.Is(err, keyring.ErrNotFound) {
			fresh, err := randomHex(32)
			if err != nil {
				return nil, "", err
			}
			if err := keyring.Set(KeyringService, account, fresh); err == nil {
				return []byte(fresh), SourceKeyring, nil
			}
		}
	}

	fresh, err := randomHex(32)
	if err != nil {
		return nil, "", err
	}
	return []byte(fresh), SourceEphemeral, nil
}

func DeleteSigningKey(account string) error {
	if strings.TrimSpace(account) == "" {
		return errors.New("keyring account name is empty")
	}
	return keyring.Delete(KeyringService, account)
}

func randomHex(n int) (string, error) {
	b := make([]byte, n)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return hex.EncodeToString(b), nil
}

// RandomToken returns n random bytes, hex encoded.
func RandomToken(n int) (string, error) {
	return randomHex(n)
}
