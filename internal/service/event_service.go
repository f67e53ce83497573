package service

import (
	"context"
	"fmt"
	"net/url"
	"strings"

	"github.com/mmynk/kotconnect/internal/api"
	"github.com/mmynk/kotconnect/internal/models"
)

// EventService handles dorm events.
type EventService struct {
	client *api.Client
}

// NewEventService creates a new EventService.
func NewEventService(client *api.Client) *EventService {
	return &EventService{client: client}
}

// CreateEvent adds an event to the dorm with the given code.
func (s *EventService) CreateEvent(ctx context.Context, token, dormCode string, input models.EventInput) (*models.Event, error) {
	if strings.TrimSpace(input.Name) == "" {
		return nil, invalid("name", ErrMissingName)
	}
	if strings.TrimSpace(dormCode) == "" {
		return nil, invalid("dormCode", ErrMissingCode)
	}

	res, err := s.client.Post(ctx, "/events/"+url.PathEscape(dormCode), api.WithToken(token), api.WithJSON(input))
	if err != nil {
		return nil, err
	}
	return decode[models.Event](res)
}

// JoinEvent toggles the caller's participation: it joins when they are not
// participating and leaves when they are. The updated event is returned.
func (s *EventService) JoinEvent(ctx context.Context, token string, eventID int64) (*models.Event, error) {
	res, err := s.client.Put(ctx, fmt.Sprintf("/events/join/%d", eventID), api.WithToken(token))
	if err != nil {
		return nil, err
	}
	return decode[models.Event](res)
}

// GetEvent returns one event.
func (s *EventService) GetEvent(ctx context.Context, token string, eventID int64) (*models.Event, error) {
	res, err := s.client.Get(ctx, fmt.Sprintf("/events/%d", eventID), api.WithToken(token))
	if err != nil {
		return nil, err
	}
	return decode[models.Event](res)
}
