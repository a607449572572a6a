package ledger

import (
	"context"

	"finance-app-go/internal/calculator"
	ledgerdomain "finance-app-go/internal/domain/sharedexpenses"
	"finance-app-go/pkg/logger"
)

type Service interface {
	PreviewSplit(in calculator.Input) (calculator.Allocation, error)
	CreateFromSplit(ctx context.Context, in ledgerdomain.SplitInput) (*ledgerdomain.ExpenseWithParticipants, error)
	CreateSharedExpense(ctx context.Context, in ledgerdomain.CreateInput) (*ledgerdomain.ExpenseWithParticipants, error)
	GetSharedExpense(ctx context.Context, requesterID, expenseID string) (*ledgerdomain.ExpenseWithParticipants, error)
	ListByGroup(ctx context.Context, requesterID, groupID string) ([]ledgerdomain.ExpenseWithParticipants, error)
	DeleteSharedExpense(ctx context.Context, expenseID, requesterID string) error
	SetPaid(ctx context.Context, requesterID, expenseID, userID string, paid bool) (*ledgerdomain.ExpenseWithParticipants, error)
	GroupBalances(ctx context.Context, requesterID, groupID string) (*ledgerdomain.GroupBalances, error)
}

// Recorder counts ledger writes. *metrics.Metrics satisfies it.
type Recorder interface {
	SharedExpenseCreated()
	SharedExpenseDeleted()
}

type Handlers struct {
	Ledger  Service
	metrics Recorder
	log     logger.Logger
}

func New(ledger Service, metrics Recorder, log logger.Logger) *Handlers {
	if metrics == nil {
		metrics = noopRecorder{}
	}
	return &Handlers{
		Ledger:  ledger,
		metrics: metrics,
		log:     log,
	}
}

type noopRecorder struct{}

func (noopRecorder) SharedExpenseCreated() {}
func (noopRecorder) SharedExpenseDeleted() {}
