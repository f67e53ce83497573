// Package secure provides an encrypting storage.KeyValueStore.
//
// Values are sealed with XChaCha20-Poly1305 before they reach the backing
// store. The key name is used as additional data, so a ciphertext copied to a
// different key fails to open. The encryption key is derived from a
// passphrase with Argon2id; the salt lives in the backing store under SaltKey.
//
// Without a configured passphrase the key comes from LoadOrCreateKeyFile, a
// plain file next to the database. That file stands in for a platform
// keychain and is not protection at rest: anyone who can read the data
// directory can read the key and open every value. Only a passphrase kept
// outside the data directory (Config.Passphrase) protects the store.
package secure

import (
	"context"
	"crypto/cipher"
	"crypto/rand"
	"encoding/base64"
	"errors"
	"fmt"
	"strings"

	"golang.org/x/crypto/argon2"
	"golang.org/x/crypto/chacha20poly1305"

	"github.com/mmynk/kotconnect/internal/storage"
)

// SaltKey is the reserved backing-store key holding the KDF salt.
const SaltKey = "__secure_salt"

var (
	ErrEmptyPassphrase = errors.New("secure: passphrase is required")
	ErrReservedKey     = errors.New("secure: key is reserved")
	ErrDecrypt         = errors.New("secure: value could not be decrypted")
)

// Ensure Store implements storage.KeyValueStore
var _ storage.KeyValueStore = (*Store)(nil)

// Params tunes the Argon2id key derivation.
type Params struct {
	Time    uint32
	Memory  uint32 // KiB
	Threads uint8
}

// DefaultParams follows the RFC 9106 second recommended option.
var DefaultParams = Params{Time: 3, Memory: 64 * 1024, Threads: 4}

// Store encrypts values on their way into a backing store.
type Store struct {
	backing storage.KeyValueStore
	aead    cipher.AEAD
}

// Open derives the store key from passphrase using DefaultParams.
func Open(ctx context.Context, backing storage.KeyValueStore, passphrase string) (*Store, error) {
	return OpenWithParams(ctx, backing, passphrase, DefaultParams)
}

// OpenWithParams derives the store key from passphrase and the salt persisted
// in backing, creating the salt on first use.
func OpenWithParams(ctx context.Context, backing storage.KeyValueStore, passphrase string, p Params) (*Store, error) {
	if passphrase == "" {
		return nil, ErrEmptyPassphrase
	}

	salt, err := loadOrCreateSalt(ctx, backing)
	if err != nil {
		return nil, err
	}

	key := argon2.IDKey([]byte(passphrase), salt, p.Time, p.Memory, p.Threads, chacha20poly1305.KeySize)
	aead, err := chacha20poly1305.NewX(key)
	if err != nil {
		return nil, fmt.Errorf("failed to create cipher: %w", err)
	}

	return &Store{backing: backing, aead: aead}, nil
}

func loadOrCreateSalt(ctx context.Context, backing storage.KeyValueStore) ([]byte, error) {
	encoded, ok, err := backing.Get(ctx, SaltKey)
	if err != nil {
		return nil, fmt.Errorf("failed to read salt: %w", err)
	}
	if ok {
		salt, err := base64.StdEncoding.DecodeString(encoded)
		if err != nil {
			return nil, fmt.Errorf("failed to decode salt: %w", err)
		}
		return salt, nil
	}

	salt := make([]byte, 16)
	if _, err := rand.Read(salt); err != nil {
		return nil, fmt.Errorf("failed to generate salt: %w", err)
	}
	if err := backing.Set(ctx, SaltKey, base64.StdEncoding.EncodeToString(salt)); err != nil {
		return nil, fmt.Errorf("failed to persist salt: %w", err)
	}
	return salt, nil
}

// Get returns the decrypted value stored under key.
func (s *Store) Get(ctx context.Context, key string) (string, bool, error) {
	if key == SaltKey {
		return "", false, ErrReservedKey
	}

	encoded, ok, err := s.backing.Get(ctx, key)
	if err != nil || !ok {
		return "", ok, err
	}

	sealed, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		return "", false, fmt.Errorf("%w: %v", ErrDecrypt, err)
	}
	if len(sealed) < s.aead.NonceSize() {
		return "", false, fmt.Errorf("%w: ciphertext too short", ErrDecrypt)
	}

	nonce, ciphertext := sealed[:s.aead.NonceSize()], sealed[s.aead.NonceSize():]
	plaintext, err := s.aead.Open(nil, nonce, ciphertext, []byte(key))
	if err != nil {
		return "", false, fmt.Errorf("%w: %v", ErrDecrypt, err)
	}
	return string(plaintext), true, nil
}

// Set encrypts value and stores it under key.
func (s *Store) Set(ctx context.Context, key, value string) error {
	if key == SaltKey || strings.TrimSpace(key) == "" {
		return ErrReservedKey
	}

	nonce := make([]byte, s.aead.NonceSize(), s.aead.NonceSize()+len(value)+s.aead.Overhead())
	if _, err := rand.Read(nonce); err != nil {
		return fmt.Errorf("failed to generate nonce: %w", err)
	}
	sealed := s.aead.Seal(nonce, nonce, []byte(value), []byte(key))

	return s.backing.Set(ctx, key, base64.StdEncoding.EncodeToString(sealed))
}

// Delete removes key from the backing store.
func (s *Store) Delete(ctx context.Context, key string) error {
	if key == SaltKey {
		return ErrReservedKey
	}
	return s.backing.Delete(ctx, key)
}

// Close closes the backing store.
func (s *Store) Close() error {
	return s.backing.Close()
}
