package views

import (
	"fmt"
	"math"
	"slices"
	"strconv"
	"strings"

	"github.com/mmynk/kotconnect/internal/calculator"
	"github.com/mmynk/kotconnect/internal/models"
	"github.com/mmynk/kotconnect/internal/service"
)

// FormatEuro renders an amount as "€12.50".
func FormatEuro(amount float64) string {
	return fmt.Sprintf("€%.2f", amount)
}

// ExpenseForm is the state of the expense creator.
type ExpenseForm struct {
	Title string
	// Amount is the raw input; a decimal comma is accepted.
	Amount   string
	Selected []int64
}

// Toggle selects or deselects a participant, keeping selection order.
func (f *ExpenseForm) Toggle(userID int64) {
	if i := slices.Index(f.Selected, userID); i >= 0 {
		f.Selected = slices.Delete(f.Selected, i, i+1)
		return
	}
	f.Selected = append(f.Selected, userID)
}

// IsSelected reports whether userID is a participant.
func (f *ExpenseForm) IsSelected(userID int64) bool {
	return slices.Contains(f.Selected, userID)
}

// ParsedAmount returns the amount and whether it is a positive number.
func (f *ExpenseForm) ParsedAmount() (float64, bool) {
	raw := strings.ReplaceAll(strings.TrimSpace(f.Amount), ",", ".")
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) || v <= 0 {
		return 0, false
	}
	return v, true
}

// PerPerson is the preview share. It is 0 until both an amount and a
// participant are set.
func (f *ExpenseForm) PerPerson() float64 {
	amount, ok := f.ParsedAmount()
	if !ok {
		return 0
	}
	return calculator.PerPerson(amount, len(f.Selected))
}

// Preview is the per-person amount shown under the form, e.g. "€10.00" for
// 30 split three ways. Empty while there is nothing to preview.
func (f *ExpenseForm) Preview() string {
	if _, ok := f.ParsedAmount(); !ok || len(f.Selected) == 0 {
		return ""
	}
	return FormatEuro(f.PerPerson())
}

// SplitLabel reads "Split between 3 people".
func (f *ExpenseForm) SplitLabel() string {
	if len(f.Selected) == 1 {
		return "Split between 1 person"
	}
	return fmt.Sprintf("Split between %d people", len(f.Selected))
}

// Validate checks the form in the order the user fills it in. Errors are
// *service.ValidationError so the form and the service report alike.
func (f *ExpenseForm) Validate() error {
	if strings.TrimSpace(f.Title) == "" {
		return &service.ValidationError{Field: "title", Err: service.ErrMissingTitle}
	}
	if _, ok := f.ParsedAmount(); !ok {
		return &service.ValidationError{Field: "amount", Err: service.ErrInvalidAmount}
	}
	if len(f.Selected) == 0 {
		return &service.ValidationError{Field: "participants", Err: service.ErrNoParticipants}
	}
	return nil
}

// Reset clears the form after a successful submit.
func (f *ExpenseForm) Reset() {
	*f = ExpenseForm{}
}

// MyShare returns username's share of an expense.
func MyShare(e models.Expense, username string) (models.ExpenseShare, bool) {
	for _, s := range e.Shares {
		if s.User != nil && s.User.Username == username {
			return s, true
		}
	}
	return models.ExpenseShare{}, false
}

// OutstandingTotal sums username's unpaid shares.
func OutstandingTotal(expenses []models.Expense, username string) float64 {
	var cents int64
	for _, e := range expenses {
		if s, ok := MyShare(e, username); ok && !s.Paid {
			cents += calculator.ToCents(s.Amount)
		}
	}
	return calculator.FromCents(cents)
}

// CanMarkPaid reports whether username may mark share as paid: only their
// own unpaid share.
func CanMarkPaid(share models.ExpenseShare, username string) bool {
	return !share.Paid && share.User != nil && share.User.Username == username
}
