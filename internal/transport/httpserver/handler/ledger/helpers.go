package ledger

import (
	"errors"
	"net/http"
	"time"

	"finance-app-go/internal/calculator"
	ledgerdomain "finance-app-go/internal/domain/sharedexpenses"
	commonhandler "finance-app-go/internal/transport/httpserver/handler/common"
	"github.com/shopspring/decimal"
)

func writeError(w http.ResponseWriter, status int, code, message string) {
	commonhandler.WriteError(w, status, code, message)
}

func writeJSON(w http.ResponseWriter, status int, payload interface{}) {
	commonhandler.WriteJSON(w, status, payload)
}

func decodeJSON(r *http.Request, dst interface{}) error {
	return commonhandler.DecodeJSON(r, dst)
}

type domainError struct {
	err     error
	status  int
	code    string
	message string
}

var domainErrors = []domainError{
	{ledgerdomain.ErrTitleRequired, http.StatusBadRequest, "invalid_request", "title is required"},
	{ledgerdomain.ErrGroupRequired, http.StatusBadRequest, "invalid_request", "group is required"},
	{ledgerdomain.ErrExpenseNotFound, http.StatusNotFound, "expense_not_found", "shared expense not found"},
	{ledgerdomain.ErrParticipantNotFound, http.StatusNotFound, "participant_not_found", "participant not found"},
	{ledgerdomain.ErrNotMember, http.StatusForbidden, "not_member", "not a group member"},
	{ledgerdomain.ErrParticipantNotMember, http.StatusBadRequest, "participant_not_member", "split includes someone outside the group"},
	{ledgerdomain.ErrPayerNotInSplits, http.StatusBadRequest, "invalid_split", "splits must include the payer"},
	{ledgerdomain.ErrSplitMismatch, http.StatusBadRequest, "split_mismatch", "splits do not add up to the total"},
	{ledgerdomain.ErrNegativeShare, http.StatusBadRequest, "invalid_split", "share must not be negative"},
	{ledgerdomain.ErrNotCreator, http.StatusForbidden, "not_creator", "only the creator can do this"},
	{ledgerdomain.ErrNotAllowed, http.StatusForbidden, "not_allowed", "only the participant or the creator can change paid status"},
}

var splitErrors = []error{
	calculator.ErrNonPositiveTotal,
	calculator.ErrTooManyDecimals,
	calculator.ErrPayerRequired,
	calculator.ErrDuplicateParticipant,
	calculator.ErrUnknownParticipant,
	calculator.ErrInvalidPercentage,
	calculator.ErrPercentageOverflow,
	calculator.ErrNegativeAmount,
	calculator.ErrSplitExceedsTotal,
	calculator.ErrUnknownMethod,
}

func (h *Handlers) fail(w http.ResponseWriter, op string, err error, args ...any) {
	for _, known := range domainErrors {
		if errors.Is(err, known.err) {
			h.log.BusinessError(op+": "+known.message, err, args...)
			writeError(w, known.status, known.code, known.message)
			return
		}
	}
	for _, known := range splitErrors {
		if errors.Is(err, known) {
			h.log.BusinessError(op+": invalid split", err, args...)
			writeError(w, http.StatusBadRequest, "invalid_split", err.Error())
			return
		}
	}
	h.log.InternalError(op+": failed", err, args...)
	commonhandler.WriteInternal(w)
}

// splitRequest is shared by the preview and create endpoints. Amounts are
// decimal strings or numbers.
type splitRequest struct {
	TotalAmount decimal.Decimal            `json:"total_amount"`
	Method      string                     `json:"method"`
	Members     []string                   `json:"members"`
	Percentages map[string]decimal.Decimal `json:"percentages"`
	Amounts     map[string]decimal.Decimal `json:"amounts"`
}

func (req splitRequest) input(payerID string) (calculator.Input, error) {
	method, err := calculator.ParseMethod(req.Method)
	if err != nil {
		return calculator.Input{}, err
	}
	return calculator.Input{
		Total:       req.TotalAmount,
		PayerID:     payerID,
		Members:     req.Members,
		Method:      method,
		Percentages: req.Percentages,
		Amounts:     req.Amounts,
	}, nil
}

type shareResponse struct {
	UserID string          `json:"user_id"`
	Amount decimal.Decimal `json:"amount"`
}

type participantResponse struct {
	UserID      string          `json:"user_id"`
	DisplayName string          `json:"display_name"`
	Email       *string         `json:"email"`
	AmountOwed  decimal.Decimal `json:"amount_owed"`
	Paid        bool            `json:"paid"`
	PaidAt      *time.Time      `json:"paid_at"`
	IsPayer     bool            `json:"is_payer"`
}

type expenseResponse struct {
	ID           string                `json:"id"`
	GroupID      string                `json:"group_id"`
	Title        string                `json:"title"`
	Description  *string               `json:"description"`
	TotalAmount  decimal.Decimal       `json:"total_amount"`
	CreatedBy    string                `json:"created_by"`
	CreatedAt    time.Time             `json:"created_at"`
	Outstanding  decimal.Decimal       `json:"outstanding"`
	Participants []participantResponse `json:"participants"`
}

func toExpenseResponse(item *ledgerdomain.ExpenseWithParticipants) expenseResponse {
	participants := make([]participantResponse, 0, len(item.Participants))
	for _, p := range item.Participants {
		participants = append(participants, participantResponse{
			UserID:      p.UserID,
			DisplayName: p.DisplayName(),
			Email:       p.Email,
			AmountOwed:  p.AmountOwed,
			Paid:        p.Paid,
			PaidAt:      p.PaidAt,
			IsPayer:     p.UserID == item.Expense.CreatedBy,
		})
	}
	return expenseResponse{
		ID:           item.Expense.ID,
		GroupID:      item.Expense.GroupID,
		Title:        item.Expense.Title,
		Description:  item.Expense.Description,
		TotalAmount:  item.Expense.TotalAmount,
		CreatedBy:    item.Expense.CreatedBy,
		CreatedAt:    item.Expense.CreatedAt,
		Outstanding:  item.Outstanding(),
		Participants: participants,
	}
}
