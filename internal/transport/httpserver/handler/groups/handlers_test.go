package groups

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	groupsdomain "finance-app-go/internal/domain/groups"
	"finance-app-go/internal/transport/httpserver/middleware"
	"finance-app-go/pkg/logger"
	"github.com/go-chi/chi/v5"
)

// fakeGroups overrides the methods under test; anything else panics on the
// nil embedded Service.
type fakeGroups struct {
	Service
	answerErr  error
	answeredBy string
	email      string
}

func (f *fakeGroups) CreateGroup(ctx context.Context, userID, name string, description *string) (*groupsdomain.Group, error) {
	return &groupsdomain.Group{ID: "g1", Name: name, Description: description, CreatedBy: userID}, nil
}

func (f *fakeGroups) RemoveMember(ctx context.Context, actorID, groupID, memberID string) error {
	if memberID == actorID {
		return groupsdomain.ErrCannotRemoveCreator
	}
	return groupsdomain.ErrNotAdmin
}

func (f *fakeGroups) AcceptInvitation(ctx context.Context, userID, email, invitationID string) (*groupsdomain.GroupInvitation, error) {
	f.answeredBy, f.email = userID, email
	if f.answerErr != nil {
		return nil, f.answerErr
	}
	return &groupsdomain.GroupInvitation{
		ID:            invitationID,
		GroupID:       "g1",
		Status:        groupsdomain.InvitationAccepted,
		InvitedUserID: &userID,
		ExpiresAt:     time.Now().Add(time.Hour),
	}, nil
}

func newRouter(h *Handlers) http.Handler {
	r := chi.NewRouter()
	r.Use(func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			user := middleware.User{ID: "u1", Email: "u1@example.com"}
			next.ServeHTTP(w, r.WithContext(middleware.WithUser(r.Context(), user)))
		})
	})
	r.Post("/api/groups", h.CreateGroup)
	r.Delete("/api/groups/{id}/members/{user_id}", h.RemoveMember)
	r.Post("/api/invitations/{id}/accept", h.AcceptInvitation)
	return r
}

func do(router http.Handler, method, path, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func TestCreateGroup(t *testing.T) {
	router := newRouter(New(&fakeGroups{}, logger.Discard()))

	rec := do(router, http.MethodPost, "/api/groups", `{"name":"  Trip  ","description":"Lisbon"}`)
	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", rec.Code, rec.Body.String())
	}
	if !strings.Contains(rec.Body.String(), `"name":"Trip"`) || !strings.Contains(rec.Body.String(), `"created_by":"u1"`) {
		t.Fatalf("unexpected body %s", rec.Body.String())
	}

	rec = do(router, http.MethodPost, "/api/groups", `{"name":" "}`)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for blank name, got %d", rec.Code)
	}
}

func TestRemoveMemberErrors(t *testing.T) {
	router := newRouter(New(&fakeGroups{}, logger.Discard()))

	rec := do(router, http.MethodDelete, "/api/groups/g1/members/u2", "")
	if rec.Code != http.StatusForbidden || !strings.Contains(rec.Body.String(), "not_admin") {
		t.Fatalf("expected not_admin 403, got %d %s", rec.Code, rec.Body.String())
	}

	rec = do(router, http.MethodDelete, "/api/groups/g1/members/u1", "")
	if rec.Code != http.StatusConflict {
		t.Fatalf("expected 409, got %d", rec.Code)
	}
}

func TestAcceptInvitation(t *testing.T) {
	service := &fakeGroups{}
	router := newRouter(New(service, logger.Discard()))

	rec := do(router, http.MethodPost, "/api/invitations/inv1/accept", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	if service.answeredBy != "u1" || service.email != "u1@example.com" {
		t.Fatalf("expected caller identity passed through, got %q %q", service.answeredBy, service.email)
	}
	if !strings.Contains(rec.Body.String(), `"status":"accepted"`) {
		t.Fatalf("unexpected body %s", rec.Body.String())
	}
}

func TestAcceptInvitationErrors(t *testing.T) {
	tests := []struct {
		err  error
		want int
		code string
	}{
		{groupsdomain.ErrInvitationExpired, http.StatusConflict, "invitation_expired"},
		{groupsdomain.ErrInvitationNotPending, http.StatusConflict, "invitation_not_pending"},
		{groupsdomain.ErrInvitationNotFound, http.StatusNotFound, "invitation_not_found"},
		{groupsdomain.ErrInvitationMismatch, http.StatusForbidden, "invitation_mismatch"},
		{groupsdomain.ErrAlreadyMember, http.StatusConflict, "already_member"},
		{context.DeadlineExceeded, http.StatusInternalServerError, "internal_error"},
	}
	for _, tt := range tests {
		t.Run(tt.code, func(t *testing.T) {
			router := newRouter(New(&fakeGroups{answerErr: tt.err}, logger.Discard()))
			rec := do(router, http.MethodPost, "/api/invitations/inv1/accept", "")
			if rec.Code != tt.want || !strings.Contains(rec.Body.String(), tt.code) {
				t.Fatalf("expected %d %s, got %d %s", tt.want, tt.code, rec.Code, rec.Body.String())
			}
		})
	}
}
