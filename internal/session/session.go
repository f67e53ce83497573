// Package session persists the authentication credential and cached profile
// fields across restarts.
//
// The Store is the only writer of persisted credentials. Reads degrade to
// "logged out" on storage failure; writes during login surface the failure to
// the caller; logout always succeeds from the caller's point of view.
package session

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/mmynk/kotconnect/internal/models"
	"github.com/mmynk/kotconnect/internal/storage"
)

// Persisted keys, one per session field.
const (
	KeyToken         = "authToken"
	KeyUsername      = "authUsername"
	KeyEmail         = "authEmail"
	KeyGeboortedatum = "authGeboortedatum"
	KeyLocatie       = "authLocatie"
	KeyDormCode      = "dormCode"
)

// AllKeys lists every key the store writes.
var AllKeys = []string{KeyToken, KeyUsername, KeyEmail, KeyGeboortedatum, KeyLocatie, KeyDormCode}

// ErrMissingToken is returned by Login when the payload carries no token.
var ErrMissingToken = errors.New("session: login payload has no token")

// State is the session's position in the LoggedOut/LoggedIn state machine.
type State int

const (
	LoggedOut State = iota
	LoggedIn
)

func (s State) String() string {
	if s == LoggedIn {
		return "logged_in"
	}
	return "logged_out"
}

// Store holds the current session in memory and mirrors it to a key/value store.
type Store struct {
	kv     storage.KeyValueStore
	logger *slog.Logger

	mu      sync.RWMutex
	current *models.Session
	loaded  bool

	// writeMu serialises persistence so concurrent updates to the same key
	// land in call order.
	writeMu sync.Mutex
}

// New creates a Store over kv. A nil logger uses slog.Default().
func New(kv storage.KeyValueStore, logger *slog.Logger) *Store {
	if logger == nil {
		logger = slog.Default()
	}
	return &Store{kv: kv, logger: logger}
}

// Load reads the persisted session. It never fails: any storage error is
// logged and the session stays nil.
func (s *Store) Load(ctx context.Context) {
	defer func() {
		s.mu.Lock()
		s.loaded = true
		s.mu.Unlock()
	}()

	values := make(map[string]string, len(AllKeys))
	for _, key := range AllKeys {
		value, ok, err := s.kv.Get(ctx, key)
		if err != nil {
			s.logger.Error("Failed to load session", "key", key, "error", err)
			return
		}
		if ok {
			values[key] = value
		}
	}

	token := values[KeyToken]
	if token == "" {
		s.logger.Debug("No persisted session")
		return
	}

	sess := &models.Session{
		Token:         token,
		Username:      values[KeyUsername],
		Email:         values[KeyEmail],
		Geboortedatum: values[KeyGeboortedatum],
		Locatie:       values[KeyLocatie],
		DormCode:      values[KeyDormCode],
	}

	s.mu.Lock()
	s.current = sess
	s.mu.Unlock()

	s.logger.Info("Session restored", "username", sess.Username)
}

// Loaded reports whether Load has finished.
func (s *Store) Loaded() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.loaded
}

// Login persists every field of data and then makes it the current session.
// If persisting fails the in-memory session is left untouched and the error
// is returned.
func (s *Store) Login(ctx context.Context, data *models.AuthResponse) error {
	if data == nil || data.Token == "" {
		return ErrMissingToken
	}
	sess := models.SessionFromAuth(data)

	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	fields := []struct {
		key   string
		value string
	}{
		{KeyToken, sess.Token},
		{KeyUsername, sess.Username},
		{KeyEmail, sess.Email},
		{KeyGeboortedatum, sess.Geboortedatum},
		{KeyLocatie, sess.Locatie},
		{KeyDormCode, ""},
	}
	for _, f := range fields {
		if err := s.persist(ctx, f.key, f.value); err != nil {
			s.logger.Error("Failed to save session", "key", f.key, "error", err)
			return fmt.Errorf("failed to save session: %w", err)
		}
	}

	s.mu.Lock()
	s.current = sess
	s.loaded = true
	s.mu.Unlock()

	s.logger.Info("Logged in", "username", sess.Username)
	return nil
}

// Logout deletes every persisted key and clears the session. Storage errors
// are logged only.
func (s *Store) Logout(ctx context.Context) {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	for _, key := range AllKeys {
		if err := s.kv.Delete(ctx, key); err != nil {
			s.logger.Error("Failed to clear session key", "key", key, "error", err)
		}
	}

	s.mu.Lock()
	s.current = nil
	s.mu.Unlock()

	s.logger.Info("Logged out")
}

// UpdateFields merges update into the current session and persists only the
// touched keys. An empty value deletes its key. It does nothing when logged
// out. The in-memory session is updated even if persisting fails; the joined
// storage errors are returned.
func (s *Store) UpdateFields(ctx context.Context, update models.SessionUpdate) error {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	s.mu.Lock()
	if s.current == nil {
		s.mu.Unlock()
		return nil
	}
	next := *s.current
	var touched []string
	apply := func(key string, src *string, dst *string) {
		if src == nil {
			return
		}
		*dst = *src
		touched = append(touched, key)
	}
	apply(KeyToken, update.Token, &next.Token)
	apply(KeyUsername, update.Username, &next.Username)
	apply(KeyEmail, update.Email, &next.Email)
	apply(KeyGeboortedatum, update.Geboortedatum, &next.Geboortedatum)
	apply(KeyLocatie, update.Locatie, &next.Locatie)

	// The token is either present or the whole session is gone.
	if next.Token == "" {
		s.mu.Unlock()
		return ErrMissingToken
	}
	s.current = &next
	s.mu.Unlock()

	var errs []error
	for _, key := range touched {
		if err := s.persist(ctx, key, fieldValue(&next, key)); err != nil {
			s.logger.Error("Failed to persist session field", "key", key, "error", err)
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// SetDormCode caches the current dorm's join code. Empty clears it.
func (s *Store) SetDormCode(ctx context.Context, code string) error {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	s.mu.Lock()
	if s.current == nil {
		s.mu.Unlock()
		return nil
	}
	if s.current.DormCode == code {
		s.mu.Unlock()
		return nil
	}
	next := *s.current
	next.DormCode = code
	s.current = &next
	s.mu.Unlock()

	return s.persist(ctx, KeyDormCode, code)
}

// Current returns a copy of the session, or nil when logged out.
func (s *Store) Current() *models.Session {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.current == nil {
		return nil
	}
	sess := *s.current
	return &sess
}

// Token returns the bearer token, or "" when logged out.
func (s *Store) Token() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.current == nil {
		return ""
	}
	return s.current.Token
}

// State reports whether a session is active.
func (s *Store) State() State {
	if s.Token() == "" {
		return LoggedOut
	}
	return LoggedIn
}

// persist stores value under key, deleting the key for empty values.
func (s *Store) persist(ctx context.Context, key, value string) error {
	if value == "" {
		return s.kv.Delete(ctx, key)
	}
	return s.kv.Set(ctx, key, value)
}

func fieldValue(sess *models.Session, key string) string {
	switch key {
	case KeyToken:
		return sess.Token
	case KeyUsername:
		return sess.Username
	case KeyEmail:
		return sess.Email
	case KeyGeboortedatum:
		return sess.Geboortedatum
	case KeyLocatie:
		return sess.Locatie
	case KeyDormCode:
		return sess.DormCode
	}
	return ""
}
