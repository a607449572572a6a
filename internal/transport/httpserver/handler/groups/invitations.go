package groups

import (
	"context"
	"net/http"
	"time"

	groupsdomain "finance-app-go/internal/domain/groups"
	commonhandler "finance-app-go/internal/transport/httpserver/handler/common"
)

type createInvitationRequest struct {
	Email string `json:"email"`
}

func (h *Handlers) CreateInvitation(w http.ResponseWriter, r *http.Request) {
	var req createInvitationRequest
	if r.ContentLength != 0 {
		if err := decodeJSON(r, &req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid_json", "invalid json body")
			return
		}
	}

	user, ok := commonhandler.RequireUser(w, r)
	if !ok {
		return
	}
	groupID, ok := commonhandler.URLParam(w, r, "id")
	if !ok {
		return
	}

	invitation, err := h.Groups.CreateInvitation(r.Context(), user.ID, groupID, req.Email)
	if err != nil {
		h.fail(w, "invitations.create", err, "user_id", user.ID, "group_id", groupID)
		return
	}

	writeJSON(w, http.StatusCreated, toInvitationResponse(invitation, time.Now().UTC()))
}

func (h *Handlers) ListGroupInvitations(w http.ResponseWriter, r *http.Request) {
	user, ok := commonhandler.RequireUser(w, r)
	if !ok {
		return
	}
	groupID, ok := commonhandler.URLParam(w, r, "id")
	if !ok {
		return
	}

	invitations, err := h.Groups.ListGroupInvitations(r.Context(), user.ID, groupID)
	if err != nil {
		h.fail(w, "invitations.list_group", err, "user_id", user.ID, "group_id", groupID)
		return
	}

	writeJSON(w, http.StatusOK, toInvitationResponses(invitations))
}

func (h *Handlers) ListMyInvitations(w http.ResponseWriter, r *http.Request) {
	user, ok := commonhandler.RequireUser(w, r)
	if !ok {
		return
	}
	if user.Email == "" {
		writeJSON(w, http.StatusOK, []invitationResponse{})
		return
	}

	invitations, err := h.Groups.ListMyInvitations(r.Context(), user.Email)
	if err != nil {
		h.fail(w, "invitations.list_mine", err, "user_id", user.ID)
		return
	}

	writeJSON(w, http.StatusOK, toInvitationResponses(invitations))
}

func (h *Handlers) AcceptInvitation(w http.ResponseWriter, r *http.Request) {
	h.answerInvitation(w, r, "invitations.accept", h.Groups.AcceptInvitation)
}

func (h *Handlers) DeclineInvitation(w http.ResponseWriter, r *http.Request) {
	h.answerInvitation(w, r, "invitations.decline", h.Groups.DeclineInvitation)
}

type answerFunc func(ctx context.Context, userID, email, invitationID string) (*groupsdomain.GroupInvitation, error)

func (h *Handlers) answerInvitation(w http.ResponseWriter, r *http.Request, op string, answer answerFunc) {
	user, ok := commonhandler.RequireUser(w, r)
	if !ok {
		return
	}
	invitationID, ok := commonhandler.URLParam(w, r, "id")
	if !ok {
		return
	}

	invitation, err := answer(r.Context(), user.ID, user.Email, invitationID)
	if err != nil {
		h.fail(w, op, err, "user_id", user.ID, "invitation_id", invitationID)
		return
	}

	writeJSON(w, http.StatusOK, toInvitationResponse(invitation, time.Now().UTC()))
}
