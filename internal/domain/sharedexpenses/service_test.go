package sharedexpenses

import (
	"context"
	"errors"
	"sort"
	"testing"
	"time"

	"finance-app-go/internal/calculator"
	"github.com/shopspring/decimal"
)

type fakeLedgerRepo struct {
	expenses     map[string]SharedExpense
	participants map[string][]Participant

	failParticipants bool
}

func newFakeLedgerRepo() *fakeLedgerRepo {
	return &fakeLedgerRepo{
		expenses:     make(map[string]SharedExpense),
		participants: make(map[string][]Participant),
	}
}

// Transaction restores the previous state when fn fails.
func (r *fakeLedgerRepo) Transaction(ctx context.Context, fn func(Repository) error) error {
	expenses := make(map[string]SharedExpense, len(r.expenses))
	for id, expense := range r.expenses {
		expenses[id] = expense
	}
	participants := make(map[string][]Participant, len(r.participants))
	for id, rows := range r.participants {
		participants[id] = append([]Participant(nil), rows...)
	}

	if err := fn(r); err != nil {
		r.expenses = expenses
		r.participants = participants
		return err
	}
	return nil
}

func (r *fakeLedgerRepo) CreateExpense(ctx context.Context, expense *SharedExpense) error {
	r.expenses[expense.ID] = *expense
	return nil
}

func (r *fakeLedgerRepo) CreateParticipants(ctx context.Context, participants []Participant) error {
	if r.failParticipants {
		return errors.New("insert participants: connection reset")
	}
	for _, participant := range participants {
		r.participants[participant.SharedExpenseID] = append(r.participants[participant.SharedExpenseID], participant)
	}
	return nil
}

func (r *fakeLedgerRepo) GetExpense(ctx context.Context, expenseID string) (*SharedExpense, error) {
	expense, ok := r.expenses[expenseID]
	if !ok {
		return nil, ErrExpenseNotFound
	}
	return &expense, nil
}

func (r *fakeLedgerRepo) ListExpensesByGroup(ctx context.Context, groupID string) ([]SharedExpense, error) {
	result := make([]SharedExpense, 0)
	for _, expense := range r.expenses {
		if expense.GroupID == groupID {
			result = append(result, expense)
		}
	}
	sort.Slice(result, func(i, j int) bool { return result[i].CreatedAt.After(result[j].CreatedAt) })
	return result, nil
}

func (r *fakeLedgerRepo) ListParticipants(ctx context.Context, expenseIDs []string) ([]ParticipantView, error) {
	result := make([]ParticipantView, 0)
	for _, id := range expenseIDs {
		for _, participant := range r.participants[id] {
			result = append(result, ParticipantView{Participant: participant})
		}
	}
	return result, nil
}

func (r *fakeLedgerRepo) SetParticipantPaid(ctx context.Context, expenseID, userID string, paid bool, paidAt *time.Time) error {
	rows := r.participants[expenseID]
	for i := range rows {
		if rows[i].UserID == userID {
			rows[i].Paid = paid
			rows[i].PaidAt = paidAt
			return nil
		}
	}
	return ErrParticipantNotFound
}

func (r *fakeLedgerRepo) DeleteParticipants(ctx context.Context, expenseID string) error {
	delete(r.participants, expenseID)
	return nil
}

func (r *fakeLedgerRepo) DeleteExpense(ctx context.Context, expenseID string) error {
	delete(r.expenses, expenseID)
	return nil
}

func (r *fakeLedgerRepo) ListLedgerEntries(ctx context.Context, groupID string) ([]calculator.LedgerEntry, error) {
	var entries []calculator.LedgerEntry
	for id, expense := range r.expenses {
		if expense.GroupID != groupID {
			continue
		}
		for _, participant := range r.participants[id] {
			entries = append(entries, calculator.LedgerEntry{
				ExpenseID: id,
				PayerID:   expense.CreatedBy,
				UserID:    participant.UserID,
				Amount:    participant.AmountOwed,
				Paid:      participant.Paid,
			})
		}
	}
	return entries, nil
}

type fakeMembers map[string][]string

func (m fakeMembers) IsMember(ctx context.Context, groupID, userID string) (bool, error) {
	for _, id := range m[groupID] {
		if id == userID {
			return true, nil
		}
	}
	return false, nil
}

func (m fakeMembers) MemberIDs(ctx context.Context, groupID string) ([]string, error) {
	return m[groupID], nil
}

func d(value string) decimal.Decimal {
	return decimal.RequireFromString(value)
}

func newTestService() (*Service, *fakeLedgerRepo) {
	repo := newFakeLedgerRepo()
	members := fakeMembers{"g1": {"A", "B", "C"}, "g2": {"X"}}
	return NewService(repo, members), repo
}

func equalSplit(total string) SplitInput {
	return SplitInput{
		Title:   "Dinner",
		GroupID: "g1",
		Split: calculator.Input{
			Total:   d(total),
			PayerID: "A",
			Members: []string{"B", "C"},
			Method:  calculator.MethodEqual,
		},
	}
}

func TestCreateFromSplitRoundTripSumsToTotal(t *testing.T) {
	service, _ := newTestService()

	created, err := service.CreateFromSplit(context.Background(), equalSplit("100.00"))
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}

	got, err := service.GetSharedExpense(context.Background(), "B", created.Expense.ID)
	if err != nil {
		t.Fatalf("get expense: %v", err)
	}
	if len(got.Participants) != 3 {
		t.Fatalf("expected 3 participant rows, got %d", len(got.Participants))
	}

	sum := decimal.Zero
	for _, participant := range got.Participants {
		if participant.Paid {
			t.Fatalf("expected rows to start unpaid, got %+v", participant)
		}
		sum = sum.Add(participant.AmountOwed)
	}
	if !sum.Equal(d("100.00")) {
		t.Fatalf("expected participant rows to sum to 100.00, got %s", sum)
	}
	if got.Participants[0].UserID != "A" || !got.Participants[0].AmountOwed.Equal(d("33.34")) {
		t.Fatalf("expected payer row first with remainder, got %+v", got.Participants[0])
	}
	if !got.Outstanding().Equal(d("66.66")) {
		t.Fatalf("expected 66.66 outstanding, got %s", got.Outstanding())
	}
}

func TestCreateFromSplitValidationHappensBeforeWrite(t *testing.T) {
	service, repo := newTestService()

	input := equalSplit("20")
	input.Split.Method = calculator.MethodCustom
	input.Split.Amounts = map[string]decimal.Decimal{"B": d("15"), "C": d("10")}

	if _, err := service.CreateFromSplit(context.Background(), input); !errors.Is(err, calculator.ErrSplitExceedsTotal) {
		t.Fatalf("expected ErrSplitExceedsTotal, got %v", err)
	}
	if len(repo.expenses) != 0 {
		t.Fatalf("expected nothing written, got %d expenses", len(repo.expenses))
	}
}

func TestCreateSharedExpenseRejectsBadSplits(t *testing.T) {
	service, _ := newTestService()

	tests := []struct {
		name    string
		input   CreateInput
		wantErr error
	}{
		{
			name:    "missing title",
			input:   CreateInput{Title: " ", GroupID: "g1", PayerID: "A", TotalAmount: d("10"), Splits: calculator.Allocation{"A": d("10")}},
			wantErr: ErrTitleRequired,
		},
		{
			name:    "payer absent from splits",
			input:   CreateInput{Title: "t", GroupID: "g1", PayerID: "A", TotalAmount: d("10"), Splits: calculator.Allocation{"B": d("10")}},
			wantErr: ErrPayerNotInSplits,
		},
		{
			name:    "sum mismatch",
			input:   CreateInput{Title: "t", GroupID: "g1", PayerID: "A", TotalAmount: d("10"), Splits: calculator.Allocation{"A": d("4"), "B": d("5")}},
			wantErr: ErrSplitMismatch,
		},
		{
			name:    "negative member share",
			input:   CreateInput{Title: "t", GroupID: "g1", PayerID: "A", TotalAmount: d("10"), Splits: calculator.Allocation{"A": d("11"), "B": d("-1")}},
			wantErr: ErrNegativeShare,
		},
		{
			name:    "negative payer share",
			input:   CreateInput{Title: "t", GroupID: "g1", PayerID: "A", TotalAmount: d("10"), Splits: calculator.Allocation{"A": d("-0.01"), "B": d("10.01")}},
			wantErr: ErrNegativeShare,
		},
		{
			name:    "participant outside group",
			input:   CreateInput{Title: "t", GroupID: "g1", PayerID: "A", TotalAmount: d("10"), Splits: calculator.Allocation{"A": d("5"), "X": d("5")}},
			wantErr: ErrParticipantNotMember,
		},
		{
			name:    "payer outside group",
			input:   CreateInput{Title: "t", GroupID: "g2", PayerID: "A", TotalAmount: d("10"), Splits: calculator.Allocation{"A": d("10")}},
			wantErr: ErrNotMember,
		},
		{
			name:    "non positive total",
			input:   CreateInput{Title: "t", GroupID: "g1", PayerID: "A", TotalAmount: d("0"), Splits: calculator.Allocation{"A": d("0")}},
			wantErr: calculator.ErrNonPositiveTotal,
		},
		{
			name:    "sub cent share",
			input:   CreateInput{Title: "t", GroupID: "g1", PayerID: "A", TotalAmount: d("10"), Splits: calculator.Allocation{"A": d("4.995"), "B": d("5.005")}},
			wantErr: calculator.ErrTooManyDecimals,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := service.CreateSharedExpense(context.Background(), tt.input); !errors.Is(err, tt.wantErr) {
				t.Fatalf("expected %v, got %v", tt.wantErr, err)
			}
		})
	}
}

func TestCreateSharedExpenseIsAtomic(t *testing.T) {
	service, repo := newTestService()
	repo.failParticipants = true

	if _, err := service.CreateFromSplit(context.Background(), equalSplit("30")); err == nil {
		t.Fatalf("expected participant insert failure")
	}
	if len(repo.expenses) != 0 {
		t.Fatalf("expected no orphaned expense, got %d", len(repo.expenses))
	}
}

func TestDeleteSharedExpenseCascades(t *testing.T) {
	service, repo := newTestService()
	created, err := service.CreateFromSplit(context.Background(), equalSplit("45"))
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	if err := service.DeleteSharedExpense(context.Background(), created.Expense.ID, "B"); !errors.Is(err, ErrNotCreator) {
		t.Fatalf("expected ErrNotCreator, got %v", err)
	}
	if err := service.DeleteSharedExpense(context.Background(), created.Expense.ID, "A"); err != nil {
		t.Fatalf("expected no error, got %v", err)
	}

	rows, _ := repo.ListParticipants(context.Background(), []string{created.Expense.ID})
	if len(rows) != 0 {
		t.Fatalf("expected no participant rows, got %d", len(rows))
	}
	if _, err := service.GetSharedExpense(context.Background(), "A", created.Expense.ID); !errors.Is(err, ErrExpenseNotFound) {
		t.Fatalf("expected ErrExpenseNotFound, got %v", err)
	}
}

func TestSetPaid(t *testing.T) {
	service, _ := newTestService()
	now := time.Date(2026, 4, 2, 9, 0, 0, 0, time.UTC)
	service.now = func() time.Time { return now }

	created, _ := service.CreateFromSplit(context.Background(), equalSplit("90"))

	if _, err := service.SetPaid(context.Background(), "C", created.Expense.ID, "B", true); !errors.Is(err, ErrNotAllowed) {
		t.Fatalf("expected ErrNotAllowed, got %v", err)
	}

	updated, err := service.SetPaid(context.Background(), "B", created.Expense.ID, "B", true)
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	var row ParticipantView
	for _, participant := range updated.Participants {
		if participant.UserID == "B" {
			row = participant
		}
	}
	if !row.Paid || row.PaidAt == nil || !row.PaidAt.Equal(now) {
		t.Fatalf("expected B paid at %s, got %+v", now, row)
	}
	if !row.AmountOwed.Equal(d("30")) {
		t.Fatalf("expected amount unchanged, got %s", row.AmountOwed)
	}

	updated, err = service.SetPaid(context.Background(), "A", created.Expense.ID, "B", false)
	if err != nil {
		t.Fatalf("creator unmark: %v", err)
	}
	for _, participant := range updated.Participants {
		if participant.UserID == "B" && (participant.Paid || participant.PaidAt != nil) {
			t.Fatalf("expected B unpaid, got %+v", participant)
		}
	}

	if _, err := service.SetPaid(context.Background(), "A", created.Expense.ID, "Z", true); !errors.Is(err, ErrParticipantNotFound) {
		t.Fatalf("expected ErrParticipantNotFound, got %v", err)
	}
}

func TestListByGroupRequiresMembership(t *testing.T) {
	service, _ := newTestService()
	_, _ = service.CreateFromSplit(context.Background(), equalSplit("10"))

	if _, err := service.ListByGroup(context.Background(), "X", "g1"); !errors.Is(err, ErrNotMember) {
		t.Fatalf("expected ErrNotMember, got %v", err)
	}

	list, err := service.ListByGroup(context.Background(), "C", "g1")
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if len(list) != 1 || len(list[0].Participants) != 3 {
		t.Fatalf("unexpected list %+v", list)
	}
}

func TestGroupBalances(t *testing.T) {
	service, _ := newTestService()
	created, _ := service.CreateFromSplit(context.Background(), equalSplit("90"))
	if _, err := service.SetPaid(context.Background(), "C", created.Expense.ID, "C", true); err != nil {
		t.Fatalf("set paid: %v", err)
	}

	result, err := service.GroupBalances(context.Background(), "B", "g1")
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if len(result.Balances) != 3 {
		t.Fatalf("expected 3 balances, got %+v", result.Balances)
	}

	byUser := make(map[string]calculator.MemberBalance)
	for _, balance := range result.Balances {
		byUser[balance.UserID] = balance
	}
	if !byUser["A"].IsOwed.Equal(d("30")) || !byUser["B"].Owes.Equal(d("30")) || !byUser["C"].Owes.IsZero() {
		t.Fatalf("unexpected balances %+v", byUser)
	}
	if len(result.Debts) != 1 || result.Debts[0].From != "B" || result.Debts[0].To != "A" {
		t.Fatalf("unexpected debts %+v", result.Debts)
	}
}

func TestPreviewSplitDoesNotPersist(t *testing.T) {
	service, repo := newTestService()
	alloc, err := service.PreviewSplit(equalSplit("200.00").Split)
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if !alloc.Sum().Equal(d("200.00")) {
		t.Fatalf("expected preview to sum to total, got %s", alloc.Sum())
	}
	if len(repo.expenses) != 0 {
		t.Fatalf("expected preview not to write")
	}
}
