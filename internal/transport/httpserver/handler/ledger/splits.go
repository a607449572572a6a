package ledger

import (
	"net/http"
	"strings"

	commonhandler "finance-app-go/internal/transport/httpserver/handler/common"
	"github.com/shopspring/decimal"
)

type previewRequest struct {
	splitRequest
	PayerID string `json:"payer_id"`
}

type previewResponse struct {
	TotalAmount decimal.Decimal `json:"total_amount"`
	Method      string          `json:"method"`
	Shares      []shareResponse `json:"shares"`
}

// PreviewSplit computes the allocation without writing anything. The payer
// defaults to the caller.
func (h *Handlers) PreviewSplit(w http.ResponseWriter, r *http.Request) {
	var req previewRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_json", "invalid json body")
		return
	}

	user, ok := commonhandler.RequireUser(w, r)
	if !ok {
		return
	}

	payerID := strings.TrimSpace(req.PayerID)
	if payerID == "" {
		payerID = user.ID
	}
	input, err := req.input(payerID)
	if err != nil {
		h.fail(w, "splits.preview", err, "user_id", user.ID)
		return
	}

	allocation, err := h.Ledger.PreviewSplit(input)
	if err != nil {
		h.fail(w, "splits.preview", err, "user_id", user.ID)
		return
	}

	shares := allocation.Ordered(payerID, input.Members)
	response := previewResponse{
		TotalAmount: input.Total,
		Method:      string(input.Method),
		Shares:      make([]shareResponse, 0, len(shares)),
	}
	for _, share := range shares {
		response.Shares = append(response.Shares, shareResponse{UserID: share.UserID, Amount: share.Amount})
	}
	writeJSON(w, http.StatusOK, response)
}
