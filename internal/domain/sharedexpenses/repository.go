package sharedexpenses

import (
	"context"
	"time"

	"finance-app-go/internal/calculator"
)

type Repository interface {
	Transaction(ctx context.Context, fn func(Repository) error) error
	CreateExpense(ctx context.Context, expense *SharedExpense) error
	CreateParticipants(ctx context.Context, participants []Participant) error
	GetExpense(ctx context.Context, expenseID string) (*SharedExpense, error)
	ListExpensesByGroup(ctx context.Context, groupID string) ([]SharedExpense, error)
	ListParticipants(ctx context.Context, expenseIDs []string) ([]ParticipantView, error)
	SetParticipantPaid(ctx context.Context, expenseID, userID string, paid bool, paidAt *time.Time) error
	DeleteParticipants(ctx context.Context, expenseID string) error
	DeleteExpense(ctx context.Context, expenseID string) error
	ListLedgerEntries(ctx context.Context, groupID string) ([]calculator.LedgerEntry, error)
}

// Members answers group membership questions for the ledger.
type Members interface {
	IsMember(ctx context.Context, groupID, userID string) (bool, error)
	MemberIDs(ctx context.Context, groupID string) ([]string, error)
}
