package auth

import (
	"context"
	"errors"
	"fmt"

	"golang.org/x/crypto/bcrypt"

	"github.com/mmynk/kotconnect/internal/models"
)

var (
	ErrInvalidCredentials = errors.New("invalid username or password")
	ErrWeakPassword       = errors.New("password must be at least 6 characters")
	ErrUsernameExists     = errors.New("username already taken")
	ErrAccountNotFound    = errors.New("account not found")
)

const minPasswordLen = 6

// AccountStore persists accounts for the authenticator.
type AccountStore interface {
	CreateAccount(ctx context.Context, account *Account) error
	GetAccountByUsername(ctx context.Context, username string) (*Account, error)
}

// PasswordAuthenticator registers and logs in accounts with bcrypt hashes.
type PasswordAuthenticator struct {
	store AccountStore
	cost  int
}

// NewPasswordAuthenticator hashes with the given bcrypt cost. The fake
// backend runs with bcrypt.MinCost.
func NewPasswordAuthenticator(store AccountStore, cost int) *PasswordAuthenticator {
	return &PasswordAuthenticator{store: store, cost: cost}
}

// Register stores a new account. The username must be free and the password
// at least six characters.
func (a *PasswordAuthenticator) Register(ctx context.Context, input models.SignupInput) (*Account, error) {
	if len(input.Password) < minPasswordLen {
		return nil, ErrWeakPassword
	}
	if existing, err := a.store.GetAccountByUsername(ctx, input.Username); err == nil && existing != nil {
		return nil, ErrUsernameExists
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(input.Password), a.cost)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}
	account := &Account{
		Username:      input.Username,
		Email:         input.Email,
		Geboortedatum: input.Geboortedatum,
		Locatie:       input.Locatie,
		PasswordHash:  string(hash),
	}
	if err := a.store.CreateAccount(ctx, account); err != nil {
		return nil, fmt.Errorf("create account: %w", err)
	}
	return account, nil
}

// Authenticate returns the account when the password matches. Unknown
// usernames and wrong passwords both yield ErrInvalidCredentials.
func (a *PasswordAuthenticator) Authenticate(ctx context.Context, username, password string) (*Account, error) {
	account, err := a.store.GetAccountByUsername(ctx, username)
	if err != nil {
		return nil, ErrInvalidCredentials
	}
	if err := bcrypt.CompareHashAndPassword([]byte(account.PasswordHash), []byte(password)); err != nil {
		return nil, ErrInvalidCredentials
	}
	return account, nil
}
