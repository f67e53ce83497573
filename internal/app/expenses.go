package app

import (
	"context"

	"github.com/mmynk/kotconnect/internal/cache"
	"github.com/mmynk/kotconnect/internal/calculator"
	"github.com/mmynk/kotconnect/internal/models"
)

func (a *App) expensesKey(dormID int64) cache.Key {
	return a.key("expenses", dormID)
}

// WatchExpenses subscribes to a dorm's expenses. The data is a []models.Expense.
func (a *App) WatchExpenses(dormID int64) *cache.Subscription {
	return cache.Watch(a.Cache, a.expensesKey(dormID), a.fetchExpenses(dormID))
}

// ListExpenses reads a dorm's expenses through the cache.
func (a *App) ListExpenses(ctx context.Context, dormID int64) ([]models.Expense, error) {
	return get(ctx, a.Cache, a.expensesKey(dormID), a.fetchExpenses(dormID))
}

func (a *App) fetchExpenses(dormID int64) func(context.Context) ([]models.Expense, error) {
	return func(ctx context.Context) ([]models.Expense, error) {
		token, err := a.token()
		if err != nil {
			return nil, err
		}
		return a.Expenses.GetExpenses(ctx, token, dormID)
	}
}

// Balances computes the dorm's net balances from its cached expenses.
func (a *App) Balances(ctx context.Context, dormID int64) ([]calculator.MemberBalance, []calculator.DebtEdge, error) {
	expenses, err := a.ListExpenses(ctx, dormID)
	if err != nil {
		return nil, nil, err
	}
	balances, debts := calculator.DormBalances(expenses)
	return balances, debts, nil
}

// CreateExpense splits totalAmount equally among participantIDs in the
// caller's dorm. Invalid input fails before any request.
func (a *App) CreateExpense(ctx context.Context, title string, totalAmount float64, participantIDs []int64) (*models.Expense, error) {
	token, err := a.token()
	if err != nil {
		return nil, err
	}
	code, err := a.dormCode(ctx)
	if err != nil {
		return nil, err
	}
	expense, err := a.Expenses.CreateExpense(ctx, token, code, title, totalAmount, participantIDs)
	if err != nil {
		return nil, err
	}

	a.invalidate(ctx, a.dormKey())
	if dormID, ok := a.expenseDormID(ctx, expense); ok {
		a.invalidate(ctx, a.expensesKey(dormID))
	}
	return expense, nil
}

// expenseDormID prefers the dorm embedded in the expense and falls back to
// the cached dorm.
func (a *App) expenseDormID(ctx context.Context, expense *models.Expense) (int64, bool) {
	if expense.Dorm != nil && expense.Dorm.ID != 0 {
		return expense.Dorm.ID, true
	}
	dorm, err := a.Dorm(ctx)
	if err != nil || dorm == nil {
		return 0, false
	}
	return dorm.ID, true
}

// MarkPaid marks the caller's share of an expense as paid. Any other user's
// share is refused without a request.
func (a *App) MarkPaid(ctx context.Context, dormID, expenseID, userID int64) (*models.ExpenseShare, error) {
	token, err := a.token()
	if err != nil {
		return nil, err
	}
	self, err := a.selfID(ctx)
	if err != nil {
		return nil, err
	}
	if userID != self {
		return nil, ErrNotOwnShare
	}

	share, err := a.Expenses.MarkPaid(ctx, token, expenseID, userID)
	if err != nil {
		return nil, err
	}
	a.invalidate(ctx, a.expensesKey(dormID))
	return share, nil
}
