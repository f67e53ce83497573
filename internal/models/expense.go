package models

// Expense is a cost split equally among selected dorm members. The backend
// computes the shares; their amounts add up to TotalAmount.
type Expense struct {
	ID          *int64         `json:"id,omitempty"`
	Title       string         `json:"title,omitempty"`
	TotalAmount float64        `json:"totalAmount,omitempty"`
	Creator     *User          `json:"creator,omitempty"`
	Dorm        *Dorm          `json:"dorm,omitempty"`
	Shares      []ExpenseShare `json:"shares,omitempty"`
}

// ExpenseShare is one member's portion of an expense. Only the share's own
// user may mark it paid; the backend enforces that.
type ExpenseShare struct {
	ID     *int64  `json:"id,omitempty"`
	User   *User   `json:"user,omitempty"`
	Amount float64 `json:"amount,omitempty"`
	Paid   bool    `json:"paid,omitempty"`
}

// ExpenseInput is the create-expense payload.
type ExpenseInput struct {
	Title          string  `json:"title"`
	TotalAmount    float64 `json:"totalAmount"`
	ParticipantIDs []int64 `json:"participantIds"`
}
