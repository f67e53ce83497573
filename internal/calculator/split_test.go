package calculator

import (
	"errors"
	"math"
	"testing"
)

func TestPerPerson(t *testing.T) {
	tests := []struct {
		name  string
		total float64
		n     int
		want  float64
	}{
		{"thirty over three", 30, 3, 10},
		{"uneven", 10, 3, 10.0 / 3},
		{"nobody selected", 30, 0, 0},
		{"negative count", 30, -1, 0},
		{"not a number", math.NaN(), 2, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := PerPerson(tt.total, tt.n); math.Abs(got-tt.want) > 1e-9 {
				t.Errorf("PerPerson(%v, %d) = %v, want %v", tt.total, tt.n, got, tt.want)
			}
		})
	}
}

func TestEqualSplit(t *testing.T) {
	tests := []struct {
		name         string
		total        float64
		participants []int64
		want         []float64
		wantErr      error
	}{
		{
			name:         "even split",
			total:        30,
			participants: []int64{1, 2, 3},
			want:         []float64{10, 10, 10},
		},
		{
			name:         "remainder goes to the first participants",
			total:        10,
			participants: []int64{1, 2, 3},
			want:         []float64{3.34, 3.33, 3.33},
		},
		{
			name:         "two cents left over",
			total:        0.05,
			participants: []int64{7, 8, 9},
			want:         []float64{0.02, 0.02, 0.01},
		},
		{
			name:         "single participant",
			total:        12.3,
			participants: []int64{4},
			want:         []float64{12.3},
		},
		{
			name:         "no participants should error",
			total:        10,
			participants: nil,
			wantErr:      ErrNoParticipants,
		},
		{
			name:         "zero total should error",
			total:        0,
			participants: []int64{1},
			wantErr:      ErrInvalidTotal,
		},
		{
			name:         "NaN total should error",
			total:        math.NaN(),
			participants: []int64{1},
			wantErr:      ErrInvalidTotal,
		},
		{
			name:         "duplicate participant should error",
			total:        10,
			participants: []int64{1, 1},
			wantErr:      ErrDuplicateParticipant,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			shares, err := EqualSplit(tt.total, tt.participants)
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("EqualSplit() error = %v, want %v", err, tt.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatalf("EqualSplit() error = %v", err)
			}
			if len(shares) != len(tt.want) {
				t.Fatalf("got %d shares, want %d", len(shares), len(tt.want))
			}
			for i, share := range shares {
				if share.UserID != tt.participants[i] {
					t.Errorf("share %d user = %d, want %d", i, share.UserID, tt.participants[i])
				}
				if math.Abs(share.Amount-tt.want[i]) > 1e-9 {
					t.Errorf("share %d amount = %v, want %v", i, share.Amount, tt.want[i])
				}
			}
		})
	}
}

// Shares always add up to the total, to the cent.
func TestEqualSplit_SumsToTotal(t *testing.T) {
	for cents := int64(1); cents <= 2000; cents += 7 {
		for n := 1; n <= 7; n++ {
			participants := make([]int64, n)
			for i := range participants {
				participants[i] = int64(i + 1)
			}

			shares, err := EqualSplit(FromCents(cents), participants)
			if err != nil {
				t.Fatalf("EqualSplit(%d cents, %d) error = %v", cents, n, err)
			}

			var sum int64
			for _, s := range shares {
				sum += ToCents(s.Amount)
			}
			if sum != cents {
				t.Fatalf("EqualSplit(%d cents, %d) sums to %d", cents, n, sum)
			}
			if spread := ToCents(shares[0].Amount) - ToCents(shares[n-1].Amount); spread > 1 {
				t.Fatalf("EqualSplit(%d cents, %d) spread %d cents", cents, n, spread)
			}
		}
	}
}
