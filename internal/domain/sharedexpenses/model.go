package sharedexpenses

import (
	"time"

	"finance-app-go/internal/calculator"
	"github.com/shopspring/decimal"
)

type SharedExpense struct {
	ID          string          `gorm:"type:uuid;primaryKey"`
	Title       string          `gorm:"not null"`
	Description *string         `gorm:"type:text"`
	TotalAmount decimal.Decimal `gorm:"type:numeric(12,2);not null"`
	CreatedBy   string          `gorm:"type:uuid;not null;index"`
	GroupID     string          `gorm:"type:uuid;not null;index"`
	CreatedAt   time.Time       `gorm:"autoCreateTime"`
}

// Participant is one member's share of a SharedExpense, the payer included.
type Participant struct {
	ID              string          `gorm:"type:uuid;primaryKey"`
	SharedExpenseID string          `gorm:"type:uuid;not null;index"`
	UserID          string          `gorm:"type:uuid;not null"`
	AmountOwed      decimal.Decimal `gorm:"type:numeric(12,2);not null"`
	Paid            bool            `gorm:"not null;default:false"`
	PaidAt          *time.Time
	Position        int             `gorm:"not null;default:0"`
}

func (Participant) TableName() string {
	return "shared_expense_participants"
}

type ParticipantView struct {
	Participant
	Email    *string
	FullName *string
}

// DisplayName falls back from full name to email to user id.
func (p ParticipantView) DisplayName() string {
	if p.FullName != nil && *p.FullName != "" {
		return *p.FullName
	}
	if p.Email != nil && *p.Email != "" {
		return *p.Email
	}
	return p.UserID
}

type ExpenseWithParticipants struct {
	Expense      SharedExpense
	Participants []ParticipantView
}

// Outstanding sums what non-payers still owe on this expense.
func (e ExpenseWithParticipants) Outstanding() decimal.Decimal {
	sum := decimal.Zero
	for _, p := range e.Participants {
		if !p.Paid && p.UserID != e.Expense.CreatedBy {
			sum = sum.Add(p.AmountOwed)
		}
	}
	return sum
}

type CreateInput struct {
	Title       string
	Description *string
	TotalAmount decimal.Decimal
	PayerID     string
	GroupID     string
	Splits      calculator.Allocation
	Order       []string
}

type SplitInput struct {
	Title       string
	Description *string
	GroupID     string
	Split       calculator.Input
}

type GroupBalances struct {
	GroupID  string
	Balances []calculator.MemberBalance
	Debts    []calculator.Debt
}
