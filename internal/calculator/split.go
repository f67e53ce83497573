package calculator

import (
	"errors"
	"fmt"
	"math"
)

var (
	ErrNoParticipants       = errors.New("must have at least one participant")
	ErrInvalidTotal         = errors.New("total must be a positive amount")
	ErrDuplicateParticipant = errors.New("participant listed twice")
)

// Share is one participant's part of an expense.
type Share struct {
	UserID int64
	Amount float64
}

// PerPerson is the live preview shown while creating an expense: total
// divided by the number of selected people. Zero people yields zero.
func PerPerson(total float64, n int) float64 {
	if n <= 0 || math.IsNaN(total) || math.IsInf(total, 0) {
		return 0
	}
	return total / float64(n)
}

// EqualSplit divides total into cent-exact shares, one per participant in
// the given order. Leftover cents go to the first participants, so the
// shares always add up to the total.
//
// 10.00 over 3 people is 3.34, 3.33, 3.33.
func EqualSplit(total float64, participants []int64) ([]Share, error) {
	if len(participants) == 0 {
		return nil, ErrNoParticipants
	}
	if !(total > 0) || math.IsInf(total, 0) {
		return nil, fmt.Errorf("%w: %v", ErrInvalidTotal, total)
	}

	seen := make(map[int64]bool, len(participants))
	for _, id := range participants {
		if seen[id] {
			return nil, fmt.Errorf("%w: %d", ErrDuplicateParticipant, id)
		}
		seen[id] = true
	}

	cents := ToCents(total)
	n := int64(len(participants))
	base, remainder := cents/n, cents%n

	shares := make([]Share, len(participants))
	for i, id := range participants {
		c := base
		if int64(i) < remainder {
			c++
		}
		shares[i] = Share{UserID: id, Amount: FromCents(c)}
	}
	return shares, nil
}

// ToCents rounds an amount to whole cents.
func ToCents(amount float64) int64 {
	return int64(math.Round(amount * 100))
}

// FromCents converts cents back to an amount.
func FromCents(cents int64) float64 {
	return float64(cents) / 100
}
