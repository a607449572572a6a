package sharedexpenses

import (
	"context"
	"errors"
	"time"

	"finance-app-go/internal/calculator"
	ledger "finance-app-go/internal/domain/sharedexpenses"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type PostgresRepository struct {
	db *gorm.DB
}

func NewPostgres(db *gorm.DB) *PostgresRepository {
	return &PostgresRepository{db: db}
}

func (r *PostgresRepository) Transaction(ctx context.Context, fn func(ledger.Repository) error) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&PostgresRepository{db: tx})
	})
}

func (r *PostgresRepository) CreateExpense(ctx context.Context, expense *ledger.SharedExpense) error {
	return r.db.WithContext(ctx).Create(expense).Error
}

func (r *PostgresRepository) CreateParticipants(ctx context.Context, participants []ledger.Participant) error {
	if len(participants) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).Create(&participants).Error
}

func (r *PostgresRepository) GetExpense(ctx context.Context, expenseID string) (*ledger.SharedExpense, error) {
	var expense ledger.SharedExpense
	if err := r.db.WithContext(ctx).Where("id = ?", expenseID).First(&expense).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ledger.ErrExpenseNotFound
		}
		return nil, err
	}
	return &expense, nil
}

func (r *PostgresRepository) ListExpensesByGroup(ctx context.Context, groupID string) ([]ledger.SharedExpense, error) {
	var expenses []ledger.SharedExpense
	if err := r.db.WithContext(ctx).
		Where("group_id = ?", groupID).
		Order("created_at desc, id").
		Find(&expenses).Error; err != nil {
		return nil, err
	}
	return expenses, nil
}

// ListParticipants keeps the insertion order of each expense: payer first,
// then members as selected.
func (r *PostgresRepository) ListParticipants(ctx context.Context, expenseIDs []string) ([]ledger.ParticipantView, error) {
	if len(expenseIDs) == 0 {
		return []ledger.ParticipantView{}, nil
	}

	type participantRow struct {
		ID              string          `gorm:"column:id"`
		SharedExpenseID string          `gorm:"column:shared_expense_id"`
		UserID          string          `gorm:"column:user_id"`
		AmountOwed      decimal.Decimal `gorm:"column:amount_owed"`
		Paid            bool            `gorm:"column:paid"`
		PaidAt          *time.Time      `gorm:"column:paid_at"`
		Position        int             `gorm:"column:position"`
		Email           *string         `gorm:"column:email"`
		FullName        *string         `gorm:"column:full_name"`
	}

	var rows []participantRow
	if err := r.db.WithContext(ctx).
		Table("shared_expense_participants").
		Select("shared_expense_participants.id, shared_expense_participants.shared_expense_id, shared_expense_participants.user_id, " +
			"shared_expense_participants.amount_owed, shared_expense_participants.paid, shared_expense_participants.paid_at, shared_expense_participants.position, " +
			"profiles.email, profiles.full_name").
		Joins("left join profiles on profiles.user_id = shared_expense_participants.user_id").
		Where("shared_expense_participants.shared_expense_id IN ?", expenseIDs).
		Order("shared_expense_participants.shared_expense_id, shared_expense_participants.position").
		Scan(&rows).Error; err != nil {
		return nil, err
	}

	participants := make([]ledger.ParticipantView, 0, len(rows))
	for _, row := range rows {
		participants = append(participants, ledger.ParticipantView{
			Participant: ledger.Participant{
				ID:              row.ID,
				SharedExpenseID: row.SharedExpenseID,
				UserID:          row.UserID,
				AmountOwed:      row.AmountOwed,
				Paid:            row.Paid,
				PaidAt:          row.PaidAt,
				Position:        row.Position,
			},
			Email:    row.Email,
			FullName: row.FullName,
		})
	}
	return participants, nil
}

func (r *PostgresRepository) SetParticipantPaid(ctx context.Context, expenseID, userID string, paid bool, paidAt *time.Time) error {
	result := r.db.WithContext(ctx).
		Model(&ledger.Participant{}).
		Where("shared_expense_id = ? AND user_id = ?", expenseID, userID).
		Updates(map[string]interface{}{
			"paid":    paid,
			"paid_at": paidAt,
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ledger.ErrParticipantNotFound
	}
	return nil
}

func (r *PostgresRepository) DeleteParticipants(ctx context.Context, expenseID string) error {
	return r.db.WithContext(ctx).Where("shared_expense_id = ?", expenseID).Delete(&ledger.Participant{}).Error
}

func (r *PostgresRepository) DeleteExpense(ctx context.Context, expenseID string) error {
	result := r.db.WithContext(ctx).Delete(&ledger.SharedExpense{}, "id = ?", expenseID)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ledger.ErrExpenseNotFound
	}
	return nil
}

func (r *PostgresRepository) ListLedgerEntries(ctx context.Context, groupID string) ([]calculator.LedgerEntry, error) {
	type entryRow struct {
		ExpenseID string          `gorm:"column:expense_id"`
		PayerID   string          `gorm:"column:payer_id"`
		UserID    string          `gorm:"column:user_id"`
		Amount    decimal.Decimal `gorm:"column:amount_owed"`
		Paid      bool            `gorm:"column:paid"`
	}

	var rows []entryRow
	if err := r.db.WithContext(ctx).
		Table("shared_expense_participants").
		Select("shared_expenses.id as expense_id, shared_expenses.created_by as payer_id, " +
			"shared_expense_participants.user_id, shared_expense_participants.amount_owed, shared_expense_participants.paid").
		Joins("join shared_expenses on shared_expenses.id = shared_expense_participants.shared_expense_id").
		Where("shared_expenses.group_id = ?", groupID).
		Scan(&rows).Error; err != nil {
		return nil, err
	}

	entries := make([]calculator.LedgerEntry, 0, len(rows))
	for _, row := range rows {
		entries = append(entries, calculator.LedgerEntry{
			ExpenseID: row.ExpenseID,
			PayerID:   row.PayerID,
			UserID:    row.UserID,
			Amount:    row.Amount,
			Paid:      row.Paid,
		})
	}
	return entries, nil
}
