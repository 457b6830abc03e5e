// Package tokenstore persists access tokens encrypted at rest.
package tokenstore

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/fernet/fernet-go"
)

var (
	// ErrTokenNotFound is returned when no token was stored for an account.
	ErrTokenNotFound = errors.New("encrypted token not found")

	// ErrInvalidAccountID is returned for ids that cannot name a token file.
	ErrInvalidAccountID = errors.New("invalid account id")

	// ErrNoKey is returned when no usable encryption key was configured.
	ErrNoKey = errors.New("token encryption key not configured")
)

// FernetStore keeps one Fernet-encrypted token file per account.
// Writes are not synchronised across processes.
type FernetStore struct {
	dir    string
	key    *fernet.Key
	keyErr error
}

// NewFernetStore creates a store under dir. A missing or malformed key does
// not fail construction; every operation reports it instead.
func NewFernetStore(dir, key string) *FernetStore {
	s := &FernetStore{dir: filepath.Clean(dir)}
	if strings.TrimSpace(key) == "" {
		s.keyErr = ErrNoKey
		return s
	}
	k, err := fernet.DecodeKey(strings.TrimSpace(key))
	if err != nil {
		s.keyErr = fmt.Errorf("%w: %v", ErrNoKey, err)
		return s
	}
	s.key = k
	return s
}

// Store encrypts token and writes it for accountID with owner-only permissions.
func (s *FernetStore) Store(accountID, token string) error {
	if s.keyErr != nil {
		return s.keyErr
	}
	path, err := s.path(accountID)
	if err != nil {
		return err
	}

	enc, err := fernet.EncryptAndSign([]byte(token), s.key)
	if err != nil {
		return fmt.Errorf("failed to encrypt token: %w", err)
	}

	if err := os.MkdirAll(s.dir, 0700); err != nil {
		return fmt.Errorf("failed to create token directory: %w", err)
	}
	if err := os.WriteFile(path, enc, 0600); err != nil {
		return fmt.Errorf("failed to write token file: %w", err)
	}
	// WriteFile keeps the mode of an existing file
	_ = os.Chmod(path, 0600)

	return nil
}

// Retrieve decrypts the stored token for accountID.
func (s *FernetStore) Retrieve(accountID string) (string, error) {
	if s.keyErr != nil {
		return "", s.keyErr
	}
	path, err := s.path(accountID)
	if err != nil {
		return "", err
	}

	enc, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return "", fmt.Errorf("%w: %s", ErrTokenNotFound, accountID)
		}
		return "", fmt.Errorf("failed to read token file: %w", err)
	}

	// negative ttl: stored tokens do not age out here, the API expires them
	msg := fernet.VerifyAndDecrypt(enc, -1, []*fernet.Key{s.key})
	if msg == nil {
		return "", fmt.Errorf("failed to decrypt token for %s", accountID)
	}
	return string(msg), nil
}

// Delete removes the stored token, if any.
func (s *FernetStore) Delete(accountID string) error {
	path, err := s.path(accountID)
	if err != nil {
		return err
	}
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to delete token file: %w", err)
	}
	return nil
}

func (s *FernetStore) path(accountID string) (string, error) {
	if accountID == "" || strings.ContainsAny(accountID, `/\`) || strings.Contains(accountID, "..") {
		return "", fmt.Errorf("%w: %q", ErrInvalidAccountID, accountID)
	}
	return filepath.Join(s.dir, accountID+"_access_token.enc"), nil
}
