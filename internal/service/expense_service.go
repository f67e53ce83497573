package service

import (
	"context"
	"fmt"
	"math"
	"net/url"
	"strconv"
	"strings"

	"github.com/mmynk/kotconnect/internal/api"
	"github.com/mmynk/kotconnect/internal/models"
)

// ExpenseService handles shared expenses.
type ExpenseService struct {
	client *api.Client
}

// NewExpenseService creates a new ExpenseService.
func NewExpenseService(client *api.Client) *ExpenseService {
	return &ExpenseService{client: client}
}

// GetExpenses lists the expenses of a dorm.
func (s *ExpenseService) GetExpenses(ctx context.Context, token string, dormID int64) ([]models.Expense, error) {
	query := url.Values{"dormId": {strconv.FormatInt(dormID, 10)}}
	res, err := s.client.Get(ctx, "/expenses", api.WithToken(token), api.WithQuery(query))
	if err != nil {
		return nil, err
	}

	expenses, err := decode[[]models.Expense](res)
	if err != nil {
		return nil, err
	}
	return *expenses, nil
}

// CreateExpense splits totalAmount equally among participantIDs. Input is
// checked first and nothing is sent when it is invalid.
func (s *ExpenseService) CreateExpense(ctx context.Context, token, dormCode, title string, totalAmount float64, participantIDs []int64) (*models.Expense, error) {
	title = strings.TrimSpace(title)
	if title == "" {
		return nil, invalid("title", ErrMissingTitle)
	}
	if !(totalAmount > 0) || math.IsInf(totalAmount, 0) {
		return nil, invalid("totalAmount", ErrInvalidAmount)
	}
	if len(participantIDs) == 0 {
		return nil, invalid("participantIds", ErrNoParticipants)
	}
	if strings.TrimSpace(dormCode) == "" {
		return nil, invalid("dormCode", ErrMissingCode)
	}

	input := models.ExpenseInput{
		Title:          title,
		TotalAmount:    totalAmount,
		ParticipantIDs: participantIDs,
	}
	res, err := s.client.Post(ctx, "/expenses/"+url.PathEscape(dormCode), api.WithToken(token), api.WithJSON(input))
	if err != nil {
		return nil, err
	}
	return decode[models.Expense](res)
}

// MarkPaid marks a user's share of an expense as paid. The backend only
// accepts this for the caller's own share.
func (s *ExpenseService) MarkPaid(ctx context.Context, token string, expenseID, userID int64) (*models.ExpenseShare, error) {
	res, err := s.client.Put(ctx, fmt.Sprintf("/expenses/%d/shares/%d/paid", expenseID, userID), api.WithToken(token))
	if err != nil {
		return nil, err
	}
	return decode[models.ExpenseShare](res)
}
