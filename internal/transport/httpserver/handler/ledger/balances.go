package ledger

import (
	"net/http"

	commonhandler "finance-app-go/internal/transport/httpserver/handler/common"
	"github.com/shopspring/decimal"
)

type balanceResponse struct {
	UserID string          `json:"user_id"`
	Owes   decimal.Decimal `json:"owes"`
	IsOwed decimal.Decimal `json:"is_owed"`
	Net    decimal.Decimal `json:"net"`
}

type debtResponse struct {
	From   string          `json:"from"`
	To     string          `json:"to"`
	Amount decimal.Decimal `json:"amount"`
}

type groupBalancesResponse struct {
	GroupID  string            `json:"group_id"`
	Balances []balanceResponse `json:"balances"`
	Debts    []debtResponse    `json:"debts"`
}

func (h *Handlers) GroupBalances(w http.ResponseWriter, r *http.Request) {
	user, ok := commonhandler.RequireUser(w, r)
	if !ok {
		return
	}
	groupID, ok := commonhandler.URLParam(w, r, "id")
	if !ok {
		return
	}

	result, err := h.Ledger.GroupBalances(r.Context(), user.ID, groupID)
	if err != nil {
		h.fail(w, "balances.get", err, "user_id", user.ID, "group_id", groupID)
		return
	}

	response := groupBalancesResponse{
		GroupID:  result.GroupID,
		Balances: make([]balanceResponse, 0, len(result.Balances)),
		Debts:    make([]debtResponse, 0, len(result.Debts)),
	}
	for _, b := range result.Balances {
		response.Balances = append(response.Balances, balanceResponse{UserID: b.UserID, Owes: b.Owes, IsOwed: b.IsOwed, Net: b.Net})
	}
	for _, d := range result.Debts {
		response.Debts = append(response.Debts, debtResponse{From: d.From, To: d.To, Amount: d.Amount})
	}
	writeJSON(w, http.StatusOK, response)
}
