package ledger

import (
	"net/http"

	ledgerdomain "finance-app-go/internal/domain/sharedexpenses"
	commonhandler "finance-app-go/internal/transport/httpserver/handler/common"
	"github.com/shopspring/decimal"
)

// createExpenseRequest either names a split method or carries a finished
// allocation in Splits, the payer's reconciling share included.
type createExpenseRequest struct {
	Title       string                     `json:"title"`
	Description *string                    `json:"description"`
	TotalAmount decimal.Decimal            `json:"total_amount"`
	Method      string                     `json:"method"`
	Members     []string                   `json:"members"`
	Percentages map[string]decimal.Decimal `json:"percentages"`
	Amounts     map[string]decimal.Decimal `json:"amounts"`
	Splits      map[string]decimal.Decimal `json:"splits"`
}

type setPaidRequest struct {
	Paid *bool `json:"paid"`
}

func (h *Handlers) ListGroupExpenses(w http.ResponseWriter, r *http.Request) {
	user, ok := commonhandler.RequireUser(w, r)
	if !ok {
		return
	}
	groupID, ok := commonhandler.URLParam(w, r, "id")
	if !ok {
		return
	}

	items, err := h.Ledger.ListByGroup(r.Context(), user.ID, groupID)
	if err != nil {
		h.fail(w, "expenses.list", err, "user_id", user.ID, "group_id", groupID)
		return
	}

	response := make([]expenseResponse, 0, len(items))
	for i := range items {
		response = append(response, toExpenseResponse(&items[i]))
	}
	writeJSON(w, http.StatusOK, response)
}

func (h *Handlers) CreateGroupExpense(w http.ResponseWriter, r *http.Request) {
	var req createExpenseRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_json", "invalid json body")
		return
	}

	user, ok := commonhandler.RequireUser(w, r)
	if !ok {
		return
	}
	groupID, ok := commonhandler.URLParam(w, r, "id")
	if !ok {
		return
	}

	var (
		item *ledgerdomain.ExpenseWithParticipants
		err  error
	)
	if len(req.Splits) > 0 {
		item, err = h.Ledger.CreateSharedExpense(r.Context(), ledgerdomain.CreateInput{
			Title:       req.Title,
			Description: req.Description,
			TotalAmount: req.TotalAmount,
			PayerID:     user.ID,
			GroupID:     groupID,
			Splits:      req.Splits,
			Order:       req.Members,
		})
	} else {
		split := splitRequest{
			TotalAmount: req.TotalAmount,
			Method:      req.Method,
			Members:     req.Members,
			Percentages: req.Percentages,
			Amounts:     req.Amounts,
		}
		input, inputErr := split.input(user.ID)
		if inputErr != nil {
			h.fail(w, "expenses.create", inputErr, "user_id", user.ID, "group_id", groupID)
			return
		}
		item, err = h.Ledger.CreateFromSplit(r.Context(), ledgerdomain.SplitInput{
			Title:       req.Title,
			Description: req.Description,
			GroupID:     groupID,
			Split:       input,
		})
	}
	if err != nil {
		h.fail(w, "expenses.create", err, "user_id", user.ID, "group_id", groupID)
		return
	}

	h.metrics.SharedExpenseCreated()
	h.log.Info("expenses.create: recorded", "expense_id", item.Expense.ID, "group_id", groupID, "participants", len(item.Participants))
	writeJSON(w, http.StatusCreated, toExpenseResponse(item))
}

func (h *Handlers) GetExpense(w http.ResponseWriter, r *http.Request) {
	user, ok := commonhandler.RequireUser(w, r)
	if !ok {
		return
	}
	expenseID, ok := commonhandler.URLParam(w, r, "id")
	if !ok {
		return
	}

	item, err := h.Ledger.GetSharedExpense(r.Context(), user.ID, expenseID)
	if err != nil {
		h.fail(w, "expenses.get", err, "user_id", user.ID, "expense_id", expenseID)
		return
	}

	writeJSON(w, http.StatusOK, toExpenseResponse(item))
}

func (h *Handlers) DeleteExpense(w http.ResponseWriter, r *http.Request) {
	user, ok := commonhandler.RequireUser(w, r)
	if !ok {
		return
	}
	expenseID, ok := commonhandler.URLParam(w, r, "id")
	if !ok {
		return
	}

	if err := h.Ledger.DeleteSharedExpense(r.Context(), expenseID, user.ID); err != nil {
		h.fail(w, "expenses.delete", err, "user_id", user.ID, "expense_id", expenseID)
		return
	}

	h.metrics.SharedExpenseDeleted()
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handlers) SetParticipantPaid(w http.ResponseWriter, r *http.Request) {
	var req setPaidRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_json", "invalid json body")
		return
	}
	if req.Paid == nil {
		writeError(w, http.StatusBadRequest, "invalid_request", "paid is required")
		return
	}

	user, ok := commonhandler.RequireUser(w, r)
	if !ok {
		return
	}
	expenseID, ok := commonhandler.URLParam(w, r, "id")
	if !ok {
		return
	}
	participantID, ok := commonhandler.URLParam(w, r, "user_id")
	if !ok {
		return
	}

	item, err := h.Ledger.SetPaid(r.Context(), user.ID, expenseID, participantID, *req.Paid)
	if err != nil {
		h.fail(w, "expenses.set_paid", err, "user_id", user.ID, "expense_id", expenseID, "participant_id", participantID)
		return
	}

	writeJSON(w, http.StatusOK, toExpenseResponse(item))
}
