package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/mmynk/kotconnect/internal/api"
	"github.com/mmynk/kotconnect/internal/models"
)

// UserService handles accounts and profiles.
type UserService struct {
	client   *api.Client
	validate *validator.Validate
}

// NewUserService creates a new UserService.
func NewUserService(client *api.Client) *UserService {
	return &UserService{
		client:   client,
		validate: validator.New(validator.WithRequiredStructEnabled()),
	}
}

type credentials struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// Login exchanges credentials for a token. A 2xx response without a token is
// ErrInvalidResponse.
func (s *UserService) Login(ctx context.Context, username, password string) (*models.AuthResponse, error) {
	res, err := s.client.Post(ctx, "/users/login", api.WithJSON(credentials{username, password}))
	if err != nil {
		return nil, err
	}

	auth, err := decode[models.AuthResponse](res)
	if err != nil {
		return nil, err
	}
	if auth.Token == "" {
		return nil, fmt.Errorf("%w: no token returned from server", ErrInvalidResponse)
	}
	return auth, nil
}

// Signup registers an account. The form is validated before anything is sent.
func (s *UserService) Signup(ctx context.Context, input models.SignupInput) (*models.SignupUser, error) {
	input.Username = strings.TrimSpace(input.Username)
	input.Email = strings.TrimSpace(input.Email)
	input.Locatie = strings.TrimSpace(input.Locatie)

	if err := s.validate.Struct(input); err != nil {
		return nil, signupError(err)
	}

	res, err := s.client.Post(ctx, "/users/signup", api.WithJSON(input))
	if err != nil {
		return nil, err
	}
	return decode[models.SignupUser](res)
}

// Profile returns the caller's profile.
func (s *UserService) Profile(ctx context.Context, token string) (*models.User, error) {
	res, err := s.client.Get(ctx, "/users/ping", api.WithToken(token))
	if err != nil {
		return nil, err
	}
	return decode[models.User](res)
}

// UpdateProfile sends only the fields set in update. The response may carry
// a new token when the username changed.
func (s *UserService) UpdateProfile(ctx context.Context, token string, update models.ProfileUpdate) (*models.AuthResponse, error) {
	if update.Username != nil && strings.TrimSpace(*update.Username) == "" {
		return nil, invalid("username", fmt.Errorf("%w: username cannot be empty", ErrInvalidInput))
	}

	res, err := s.client.Put(ctx, "/users/me", api.WithToken(token), api.WithJSON(update))
	if err != nil {
		return nil, err
	}
	return decode[models.AuthResponse](res)
}

// DeleteAccount removes the caller's account. The response body is ignored.
func (s *UserService) DeleteAccount(ctx context.Context, token string) error {
	_, err := s.client.Delete(ctx, "/users/me", api.WithToken(token))
	return err
}

// signupError turns the first failed rule into a ValidationError.
func signupError(err error) error {
	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) || len(fieldErrs) == 0 {
		return invalid("", fmt.Errorf("%w: %v", ErrInvalidInput, err))
	}

	fe := fieldErrs[0]
	field := strings.ToLower(fe.Field())
	var msg string
	switch fe.Tag() {
	case "required":
		msg = field + " is required"
	case "min":
		msg = fmt.Sprintf("%s must be at least %s characters", field, fe.Param())
	case "max":
		msg = fmt.Sprintf("%s must be at most %s characters", field, fe.Param())
	case "email":
		msg = "email must be a valid email address"
	case "datetime":
		msg = field + " must be a date like 2001-12-31"
	default:
		msg = fmt.Sprintf("%s is invalid", field)
	}
	return invalid(field, fmt.Errorf("%w: %s", ErrInvalidInput, msg))
}
