package service

import (
	"context"
	"strings"

	"github.com/mmynk/kotconnect/internal/api"
	"github.com/mmynk/kotconnect/internal/models"
)

// DormService handles dorm membership.
type DormService struct {
	client *api.Client
}

// NewDormService creates a new DormService.
func NewDormService(client *api.Client) *DormService {
	return &DormService{client: client}
}

// GetDorm returns the caller's dorm, or nil when they have none (204).
func (s *DormService) GetDorm(ctx context.Context, token string) (*models.Dorm, error) {
	res, err := s.client.Get(ctx, "/dorms", api.WithToken(token))
	if err != nil {
		return nil, err
	}
	if res.NoContent() {
		return nil, nil
	}
	return decode[models.Dorm](res)
}

// AddUserToDormByCode joins the dorm with the given code.
func (s *DormService) AddUserToDormByCode(ctx context.Context, token, code string) (*models.Dorm, error) {
	code = strings.TrimSpace(code)
	if code == "" {
		return nil, invalid("code", ErrMissingCode)
	}

	res, err := s.client.Put(ctx, "/dorms", api.WithToken(token), api.WithJSON(map[string]string{"code": code}))
	if err != nil {
		return nil, err
	}
	return decode[models.Dorm](res)
}

// CreateDorm creates a dorm and makes the caller its first member.
func (s *DormService) CreateDorm(ctx context.Context, token, name string) (*models.Dorm, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, invalid("name", ErrMissingName)
	}

	res, err := s.client.Post(ctx, "/dorms", api.WithToken(token), api.WithJSON(map[string]string{"name": name}))
	if err != nil {
		return nil, err
	}
	return decode[models.Dorm](res)
}

// LeaveDorm removes the caller from their dorm and returns the dorm as it was left.
func (s *DormService) LeaveDorm(ctx context.Context, token string) (*models.Dorm, error) {
	res, err := s.client.Delete(ctx, "/dorms", api.WithToken(token))
	if err != nil {
		return nil, err
	}
	return decode[models.Dorm](res)
}
