package service

import (
	"context"
	"fmt"
	"net/url"
	"strings"

	"github.com/mmynk/kotconnect/internal/api"
	"github.com/mmynk/kotconnect/internal/models"
)

// TaskService handles household tasks.
type TaskService struct {
	client *api.Client
}

// NewTaskService creates a new TaskService.
func NewTaskService(client *api.Client) *TaskService {
	return &TaskService{client: client}
}

// CreateTask adds a task to the dorm with the given code. The backend
// assigns it to the caller.
func (s *TaskService) CreateTask(ctx context.Context, token, dormCode string, input models.TaskInput) (*models.Task, error) {
	if strings.TrimSpace(input.Title) == "" {
		return nil, invalid("title", ErrMissingTitle)
	}
	if !input.Type.Valid() {
		return nil, invalid("type", fmt.Errorf("%w: %q", ErrInvalidTaskType, input.Type))
	}
	if strings.TrimSpace(dormCode) == "" {
		return nil, invalid("dormCode", ErrMissingCode)
	}

	res, err := s.client.Post(ctx, "/tasks/"+url.PathEscape(dormCode), api.WithToken(token), api.WithJSON(input))
	if err != nil {
		return nil, err
	}
	return decode[models.Task](res)
}

// CompleteTask toggles the task's done flag and returns the updated task.
func (s *TaskService) CompleteTask(ctx context.Context, token string, taskID int64) (*models.Task, error) {
	res, err := s.client.Put(ctx, fmt.Sprintf("/tasks/changeCompleted/%d", taskID), api.WithToken(token))
	if err != nil {
		return nil, err
	}
	return decode[models.Task](res)
}
