package sharedexpenses

import (
	"context"
	"sort"
	"strings"
	"time"

	"finance-app-go/internal/calculator"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type Service struct {
	repo    Repository
	members Members
	now     func() time.Time
}

func NewService(repo Repository, members Members) *Service {
	return &Service{
		repo:    repo,
		members: members,
		now:     func() time.Time { return time.Now().UTC() },
	}
}

// PreviewSplit runs the calculator without touching storage.
func (s *Service) PreviewSplit(in calculator.Input) (calculator.Allocation, error) {
	return calculator.Calculate(in)
}

// CreateFromSplit computes the allocation and records it. Calculator errors
// are returned before anything is written.
func (s *Service) CreateFromSplit(ctx context.Context, in SplitInput) (*ExpenseWithParticipants, error) {
	splits, err := calculator.Calculate(in.Split)
	if err != nil {
		return nil, err
	}

	return s.CreateSharedExpense(ctx, CreateInput{
		Title:       in.Title,
		Description: in.Description,
		TotalAmount: in.Split.Total,
		PayerID:     in.Split.PayerID,
		GroupID:     in.GroupID,
		Splits:      splits,
		Order:       in.Split.Members,
	})
}

// CreateSharedExpense writes the expense and one participant row per split
// key in a single transaction. The splits must sum to the total exactly.
func (s *Service) CreateSharedExpense(ctx context.Context, in CreateInput) (*ExpenseWithParticipants, error) {
	title := strings.TrimSpace(in.Title)
	if title == "" {
		return nil, ErrTitleRequired
	}
	if in.GroupID == "" {
		return nil, ErrGroupRequired
	}
	if in.PayerID == "" {
		return nil, calculator.ErrPayerRequired
	}
	if err := calculator.ValidateTotal(in.TotalAmount); err != nil {
		return nil, err
	}
	if err := validateSplits(in.PayerID, in.TotalAmount, in.Splits); err != nil {
		return nil, err
	}
	if err := s.checkParticipants(ctx, in.GroupID, in.PayerID, in.Splits); err != nil {
		return nil, err
	}

	expense := SharedExpense{
		ID:          uuid.NewString(),
		Title:       title,
		Description: trimOptional(in.Description),
		TotalAmount: in.TotalAmount,
		CreatedBy:   in.PayerID,
		GroupID:     in.GroupID,
		CreatedAt:   s.now(),
	}

	shares := in.Splits.Ordered(in.PayerID, in.Order)
	participants := make([]Participant, 0, len(shares))
	for i, share := range shares {
		participants = append(participants, Participant{
			ID:              uuid.NewString(),
			SharedExpenseID: expense.ID,
			UserID:          share.UserID,
			AmountOwed:      share.Amount,
			Position:        i,
		})
	}

	err := s.repo.Transaction(ctx, func(tx Repository) error {
		if err := tx.CreateExpense(ctx, &expense); err != nil {
			return err
		}
		return tx.CreateParticipants(ctx, participants)
	})
	if err != nil {
		return nil, err
	}

	views := make([]ParticipantView, 0, len(participants))
	for _, participant := range participants {
		views = append(views, ParticipantView{Participant: participant})
	}
	return &ExpenseWithParticipants{Expense: expense, Participants: views}, nil
}

func (s *Service) GetSharedExpense(ctx context.Context, requesterID, expenseID string) (*ExpenseWithParticipants, error) {
	expense, err := s.repo.GetExpense(ctx, expenseID)
	if err != nil {
		return nil, err
	}
	if err := s.requireMember(ctx, expense.GroupID, requesterID); err != nil {
		return nil, err
	}

	participants, err := s.repo.ListParticipants(ctx, []string{expense.ID})
	if err != nil {
		return nil, err
	}
	return &ExpenseWithParticipants{Expense: *expense, Participants: participants}, nil
}

// ListByGroup returns the group's expenses newest first, each with its rows.
func (s *Service) ListByGroup(ctx context.Context, requesterID, groupID string) ([]ExpenseWithParticipants, error) {
	if err := s.requireMember(ctx, groupID, requesterID); err != nil {
		return nil, err
	}

	expenses, err := s.repo.ListExpensesByGroup(ctx, groupID)
	if err != nil {
		return nil, err
	}
	if len(expenses) == 0 {
		return []ExpenseWithParticipants{}, nil
	}

	ids := make([]string, 0, len(expenses))
	for _, expense := range expenses {
		ids = append(ids, expense.ID)
	}
	participants, err := s.repo.ListParticipants(ctx, ids)
	if err != nil {
		return nil, err
	}

	byExpense := make(map[string][]ParticipantView, len(expenses))
	for _, participant := range participants {
		byExpense[participant.SharedExpenseID] = append(byExpense[participant.SharedExpenseID], participant)
	}

	result := make([]ExpenseWithParticipants, 0, len(expenses))
	for _, expense := range expenses {
		rows := byExpense[expense.ID]
		if rows == nil {
			rows = []ParticipantView{}
		}
		result = append(result, ExpenseWithParticipants{Expense: expense, Participants: rows})
	}
	return result, nil
}

// DeleteSharedExpense removes the expense and its participant rows. Only the
// creator may delete.
func (s *Service) DeleteSharedExpense(ctx context.Context, expenseID, requesterID string) error {
	return s.repo.Transaction(ctx, func(tx Repository) error {
		expense, err := tx.GetExpense(ctx, expenseID)
		if err != nil {
			return err
		}
		if expense.CreatedBy != requesterID {
			return ErrNotCreator
		}
		if err := tx.DeleteParticipants(ctx, expenseID); err != nil {
			return err
		}
		return tx.DeleteExpense(ctx, expenseID)
	})
}

// SetPaid flips one participant row. The participant themself or the
// expense creator may do it.
func (s *Service) SetPaid(ctx context.Context, requesterID, expenseID, userID string, paid bool) (*ExpenseWithParticipants, error) {
	expense, err := s.repo.GetExpense(ctx, expenseID)
	if err != nil {
		return nil, err
	}
	if requesterID != userID && requesterID != expense.CreatedBy {
		return nil, ErrNotAllowed
	}
	if err := s.requireMember(ctx, expense.GroupID, requesterID); err != nil {
		return nil, err
	}

	var paidAt *time.Time
	if paid {
		now := s.now()
		paidAt = &now
	}
	if err := s.repo.SetParticipantPaid(ctx, expenseID, userID, paid, paidAt); err != nil {
		return nil, err
	}

	participants, err := s.repo.ListParticipants(ctx, []string{expenseID})
	if err != nil {
		return nil, err
	}
	return &ExpenseWithParticipants{Expense: *expense, Participants: participants}, nil
}

// GroupBalances summarizes every participant row of the group. Current
// members with no rows get a zero balance.
func (s *Service) GroupBalances(ctx context.Context, requesterID, groupID string) (*GroupBalances, error) {
	if err := s.requireMember(ctx, groupID, requesterID); err != nil {
		return nil, err
	}

	entries, err := s.repo.ListLedgerEntries(ctx, groupID)
	if err != nil {
		return nil, err
	}
	memberIDs, err := s.members.MemberIDs(ctx, groupID)
	if err != nil {
		return nil, err
	}

	balances := calculator.Balances(entries)
	seen := make(map[string]struct{}, len(balances))
	for _, balance := range balances {
		seen[balance.UserID] = struct{}{}
	}
	for _, id := range memberIDs {
		if _, ok := seen[id]; ok {
			continue
		}
		balances = append(balances, calculator.MemberBalance{
			UserID: id,
			Owes:   decimal.Zero,
			IsOwed: decimal.Zero,
			Net:    decimal.Zero,
		})
	}
	sort.Slice(balances, func(i, j int) bool {
		return balances[i].UserID < balances[j].UserID
	})

	return &GroupBalances{
		GroupID:  groupID,
		Balances: balances,
		Debts:    calculator.Debts(entries),
	}, nil
}

func (s *Service) requireMember(ctx context.Context, groupID, userID string) error {
	ok, err := s.members.IsMember(ctx, groupID, userID)
	if err != nil {
		return err
	}
	if !ok {
		return ErrNotMember
	}
	return nil
}

func (s *Service) checkParticipants(ctx context.Context, groupID, payerID string, splits calculator.Allocation) error {
	ids, err := s.members.MemberIDs(ctx, groupID)
	if err != nil {
		return err
	}
	members := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		members[id] = struct{}{}
	}

	if _, ok := members[payerID]; !ok {
		return ErrNotMember
	}
	for id := range splits {
		if _, ok := members[id]; !ok {
			return ErrParticipantNotMember
		}
	}
	return nil
}

func validateSplits(payerID string, total decimal.Decimal, splits calculator.Allocation) error {
	if _, ok := splits[payerID]; !ok {
		return ErrPayerNotInSplits
	}
	for _, amount := range splits {
		if !amount.Equal(amount.Truncate(2)) {
			return calculator.ErrTooManyDecimals
		}
		if amount.IsNegative() {
			return ErrNegativeShare
		}
	}
	if !splits.Sum().Equal(total) {
		return ErrSplitMismatch
	}
	return nil
}

func trimOptional(value *string) *string {
	if value == nil {
		return nil
	}
	trimmed := strings.TrimSpace(*value)
	if trimmed == "" {
		return nil
	}
	return &trimmed
}
