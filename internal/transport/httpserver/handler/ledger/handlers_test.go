package ledger

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"finance-app-go/internal/calculator"
	ledgerdomain "finance-app-go/internal/domain/sharedexpenses"
	"finance-app-go/internal/transport/httpserver/middleware"
	"finance-app-go/pkg/logger"
	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"
)

type fakeLedger struct {
	created    *ledgerdomain.CreateInput
	fromSplit  *ledgerdomain.SplitInput
	createErr  error
	balances   *ledgerdomain.GroupBalances
	balanceErr error
}

func (f *fakeLedger) PreviewSplit(in calculator.Input) (calculator.Allocation, error) {
	return calculator.Calculate(in)
}

func (f *fakeLedger) CreateFromSplit(ctx context.Context, in ledgerdomain.SplitInput) (*ledgerdomain.ExpenseWithParticipants, error) {
	f.fromSplit = &in
	if f.createErr != nil {
		return nil, f.createErr
	}
	splits, err := calculator.Calculate(in.Split)
	if err != nil {
		return nil, err
	}
	return result(in.Title, in.GroupID, in.Split.PayerID, in.Split.Total, splits.Ordered(in.Split.PayerID, in.Split.Members)), nil
}

func (f *fakeLedger) CreateSharedExpense(ctx context.Context, in ledgerdomain.CreateInput) (*ledgerdomain.ExpenseWithParticipants, error) {
	f.created = &in
	if f.createErr != nil {
		return nil, f.createErr
	}
	return result(in.Title, in.GroupID, in.PayerID, in.TotalAmount, in.Splits.Ordered(in.PayerID, in.Order)), nil
}

func (f *fakeLedger) GetSharedExpense(ctx context.Context, requesterID, expenseID string) (*ledgerdomain.ExpenseWithParticipants, error) {
	return nil, ledgerdomain.ErrExpenseNotFound
}

func (f *fakeLedger) ListByGroup(ctx context.Context, requesterID, groupID string) ([]ledgerdomain.ExpenseWithParticipants, error) {
	return nil, ledgerdomain.ErrNotMember
}

func (f *fakeLedger) DeleteSharedExpense(ctx context.Context, expenseID, requesterID string) error {
	return ledgerdomain.ErrNotCreator
}

func (f *fakeLedger) SetPaid(ctx context.Context, requesterID, expenseID, userID string, paid bool) (*ledgerdomain.ExpenseWithParticipants, error) {
	return nil, ledgerdomain.ErrNotAllowed
}

func (f *fakeLedger) GroupBalances(ctx context.Context, requesterID, groupID string) (*ledgerdomain.GroupBalances, error) {
	return f.balances, f.balanceErr
}

func result(title, groupID, payerID string, total decimal.Decimal, shares []calculator.Share) *ledgerdomain.ExpenseWithParticipants {
	item := &ledgerdomain.ExpenseWithParticipants{
		Expense: ledgerdomain.SharedExpense{ID: "e1", Title: title, GroupID: groupID, CreatedBy: payerID, TotalAmount: total},
	}
	for i, share := range shares {
		item.Participants = append(item.Participants, ledgerdomain.ParticipantView{
			Participant: ledgerdomain.Participant{UserID: share.UserID, AmountOwed: share.Amount, Position: i},
		})
	}
	return item
}

type counter struct{ created, deleted int }

func (c *counter) SharedExpenseCreated() { c.created++ }
func (c *counter) SharedExpenseDeleted() { c.deleted++ }

func newRouter(h *Handlers) http.Handler {
	r := chi.NewRouter()
	r.Use(func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			next.ServeHTTP(w, r.WithContext(middleware.WithUser(r.Context(), middleware.User{ID: "payer"})))
		})
	})
	r.Post("/api/splits/preview", h.PreviewSplit)
	r.Get("/api/groups/{id}/expenses", h.ListGroupExpenses)
	r.Post("/api/groups/{id}/expenses", h.CreateGroupExpense)
	r.Get("/api/groups/{id}/balances", h.GroupBalances)
	r.Get("/api/expenses/{id}", h.GetExpense)
	r.Delete("/api/expenses/{id}", h.DeleteExpense)
	r.Put("/api/expenses/{id}/participants/{user_id}/paid", h.SetParticipantPaid)
	return r
}

func do(router http.Handler, method, path, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func TestPreviewSplit(t *testing.T) {
	router := newRouter(New(&fakeLedger{}, nil, logger.Discard()))

	rec := do(router, http.MethodPost, "/api/splits/preview", `{"total_amount":"100.00","method":"equal","members":["b","c"]}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}

	var response previewResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &response); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(response.Shares) != 3 || response.Shares[0].UserID != "payer" {
		t.Fatalf("expected payer first of three shares, got %+v", response.Shares)
	}
	if !response.Shares[0].Amount.Equal(decimal.RequireFromString("33.34")) {
		t.Fatalf("expected payer to absorb the remainder, got %s", response.Shares[0].Amount)
	}
	sum := decimal.Zero
	for _, share := range response.Shares {
		sum = sum.Add(share.Amount)
	}
	if !sum.Equal(decimal.NewFromInt(100)) {
		t.Fatalf("expected shares to sum to 100, got %s", sum)
	}
}

func TestPreviewSplitValidation(t *testing.T) {
	router := newRouter(New(&fakeLedger{}, nil, logger.Discard()))

	tests := []struct {
		name string
		body string
		want int
		code string
	}{
		{name: "bad json", body: `{`, want: http.StatusBadRequest, code: "invalid_json"},
		{name: "unknown field", body: `{"total":"1"}`, want: http.StatusBadRequest, code: "invalid_json"},
		{name: "zero total", body: `{"total_amount":"0","members":["b"]}`, want: http.StatusBadRequest, code: "invalid_split"},
		{name: "unknown method", body: `{"total_amount":"10","method":"shares"}`, want: http.StatusBadRequest, code: "invalid_split"},
		{name: "over 100 percent", body: `{"total_amount":"10","method":"percentage","members":["b"],"percentages":{"b":"120"}}`, want: http.StatusBadRequest, code: "invalid_split"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := do(router, http.MethodPost, "/api/splits/preview", tt.body)
			if rec.Code != tt.want {
				t.Fatalf("expected %d, got %d", tt.want, rec.Code)
			}
			if !strings.Contains(rec.Body.String(), `"code":"`+tt.code+`"`) {
				t.Fatalf("expected code %s, got %s", tt.code, rec.Body.String())
			}
		})
	}
}

func TestCreateGroupExpense(t *testing.T) {
	ledgerService := &fakeLedger{}
	recorder := &counter{}
	router := newRouter(New(ledgerService, recorder, logger.Discard()))

	rec := do(router, http.MethodPost, "/api/groups/g1/expenses", `{"title":"Dinner","total_amount":90,"method":"custom","members":["b"],"amounts":{"b":"30"}}`)
	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", rec.Code, rec.Body.String())
	}
	if ledgerService.fromSplit == nil || ledgerService.fromSplit.GroupID != "g1" || ledgerService.fromSplit.Split.PayerID != "payer" {
		t.Fatalf("expected split input for g1 paid by caller, got %+v", ledgerService.fromSplit)
	}
	if !strings.Contains(rec.Body.String(), `"amount_owed":"60"`) {
		t.Fatalf("expected payer to owe 60, got %s", rec.Body.String())
	}
	if recorder.created != 1 {
		t.Fatalf("expected created counter, got %d", recorder.created)
	}

	rec = do(router, http.MethodPost, "/api/groups/g1/expenses", `{"title":"Taxi","total_amount":"20","splits":{"payer":"5","b":"15"}}`)
	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", rec.Code, rec.Body.String())
	}
	if ledgerService.created == nil || len(ledgerService.created.Splits) != 2 {
		t.Fatalf("expected explicit splits passed through, got %+v", ledgerService.created)
	}
}

func TestCreateGroupExpenseErrors(t *testing.T) {
	ledgerService := &fakeLedger{createErr: ledgerdomain.ErrSplitMismatch}
	recorder := &counter{}
	router := newRouter(New(ledgerService, recorder, logger.Discard()))

	rec := do(router, http.MethodPost, "/api/groups/g1/expenses", `{"title":"Taxi","total_amount":"20","splits":{"payer":"5","b":"14"}}`)
	if rec.Code != http.StatusBadRequest || !strings.Contains(rec.Body.String(), "split_mismatch") {
		t.Fatalf("expected split_mismatch 400, got %d %s", rec.Code, rec.Body.String())
	}
	if recorder.created != 0 {
		t.Fatalf("expected no created count on failure")
	}
}

func TestLedgerErrorMapping(t *testing.T) {
	router := newRouter(New(&fakeLedger{}, nil, logger.Discard()))

	tests := []struct {
		name   string
		method string
		path   string
		body   string
		want   int
	}{
		{name: "list not member", method: http.MethodGet, path: "/api/groups/g1/expenses", want: http.StatusForbidden},
		{name: "get missing", method: http.MethodGet, path: "/api/expenses/e1", want: http.StatusNotFound},
		{name: "delete not creator", method: http.MethodDelete, path: "/api/expenses/e1", want: http.StatusForbidden},
		{name: "paid not allowed", method: http.MethodPut, path: "/api/expenses/e1/participants/c/paid", body: `{"paid":true}`, want: http.StatusForbidden},
		{name: "paid missing flag", method: http.MethodPut, path: "/api/expenses/e1/participants/c/paid", body: `{}`, want: http.StatusBadRequest},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := do(router, tt.method, tt.path, tt.body)
			if rec.Code != tt.want {
				t.Fatalf("expected %d, got %d: %s", tt.want, rec.Code, rec.Body.String())
			}
		})
	}
}

func TestGroupBalances(t *testing.T) {
	ledgerService := &fakeLedger{balances: &ledgerdomain.GroupBalances{
		GroupID: "g1",
		Balances: []calculator.MemberBalance{
			{UserID: "b", Owes: decimal.NewFromInt(30), IsOwed: decimal.Zero, Net: decimal.NewFromInt(-30)},
			{UserID: "payer", Owes: decimal.Zero, IsOwed: decimal.NewFromInt(30), Net: decimal.NewFromInt(30)},
		},
		Debts: []calculator.Debt{{From: "b", To: "payer", Amount: decimal.NewFromInt(30)}},
	}}
	router := newRouter(New(ledgerService, nil, logger.Discard()))

	rec := do(router, http.MethodGet, "/api/groups/g1/balances", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	var response groupBalancesResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &response); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(response.Balances) != 2 || len(response.Debts) != 1 || response.Debts[0].From != "b" {
		t.Fatalf("unexpected response %+v", response)
	}
}
