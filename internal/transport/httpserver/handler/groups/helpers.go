package groups

import (
	"errors"
	"net/http"
	"time"

	groupsdomain "finance-app-go/internal/domain/groups"
	commonhandler "finance-app-go/internal/transport/httpserver/handler/common"
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
	{groupsdomain.ErrNameRequired, http.StatusBadRequest, "invalid_request", "name is required"},
	{groupsdomain.ErrInvalidEmail, http.StatusBadRequest, "invalid_email", "invalid email"},
	{groupsdomain.ErrGroupNotFound, http.StatusNotFound, "group_not_found", "group not found"},
	{groupsdomain.ErrNotMember, http.StatusForbidden, "not_member", "not a group member"},
	{groupsdomain.ErrNotAdmin, http.StatusForbidden, "not_admin", "only admins can do this"},
	{groupsdomain.ErrNotCreator, http.StatusForbidden, "not_creator", "only the group creator can do this"},
	{groupsdomain.ErrMemberNotFound, http.StatusNotFound, "member_not_found", "member not found"},
	{groupsdomain.ErrAlreadyMember, http.StatusConflict, "already_member", "already a group member"},
	{groupsdomain.ErrCannotRemoveCreator, http.StatusConflict, "cannot_remove_creator", "cannot remove group creator"},
	{groupsdomain.ErrCreatorCannotLeave, http.StatusConflict, "creator_cannot_leave", "group creator cannot leave"},
	{groupsdomain.ErrInvitationNotFound, http.StatusNotFound, "invitation_not_found", "invitation not found"},
	{groupsdomain.ErrInvitationExpired, http.StatusConflict, "invitation_expired", "invitation expired"},
	{groupsdomain.ErrInvitationNotPending, http.StatusConflict, "invitation_not_pending", "invitation already answered"},
	{groupsdomain.ErrInvitationExists, http.StatusConflict, "invitation_exists", "pending invitation already exists"},
	{groupsdomain.ErrInvitationMismatch, http.StatusForbidden, "invitation_mismatch", "invitation was sent to another email"},
}

// fail logs and writes err. Known domain errors are business errors; anything
// else is a 500.
func (h *Handlers) fail(w http.ResponseWriter, op string, err error, args ...any) {
	for _, known := range domainErrors {
		if errors.Is(err, known.err) {
			h.log.BusinessError(op+": "+known.message, err, args...)
			writeError(w, known.status, known.code, known.message)
			return
		}
	}
	h.log.InternalError(op+": failed", err, args...)
	commonhandler.WriteInternal(w)
}

type groupResponse struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Description *string   `json:"description"`
	CreatedBy   string    `json:"created_by"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

type memberResponse struct {
	UserID    string    `json:"user_id"`
	Role      string    `json:"role"`
	JoinedAt  time.Time `json:"joined_at"`
	Email     *string   `json:"email"`
	FullName  *string   `json:"full_name"`
	AvatarURL *string   `json:"avatar_url"`
}

type invitationResponse struct {
	ID            string    `json:"id"`
	GroupID       string    `json:"group_id"`
	InvitedBy     string    `json:"invited_by"`
	InvitedEmail  *string   `json:"invited_email"`
	InvitedUserID *string   `json:"invited_user_id"`
	Status        string    `json:"status"`
	CreatedAt     time.Time `json:"created_at"`
	ExpiresAt     time.Time `json:"expires_at"`
	Expired       bool      `json:"expired"`
}

func toGroupResponse(group *groupsdomain.Group) groupResponse {
	return groupResponse{
		ID:          group.ID,
		Name:        group.Name,
		Description: group.Description,
		CreatedBy:   group.CreatedBy,
		CreatedAt:   group.CreatedAt,
		UpdatedAt:   group.UpdatedAt,
	}
}

func toInvitationResponse(invitation *groupsdomain.GroupInvitation, now time.Time) invitationResponse {
	return invitationResponse{
		ID:            invitation.ID,
		GroupID:       invitation.GroupID,
		InvitedBy:     invitation.InvitedBy,
		InvitedEmail:  invitation.InvitedEmail,
		InvitedUserID: invitation.InvitedUserID,
		Status:        invitation.Status,
		CreatedAt:     invitation.CreatedAt,
		ExpiresAt:     invitation.ExpiresAt,
		Expired:       invitation.Expired(now),
	}
}

func toInvitationResponses(invitations []groupsdomain.GroupInvitation) []invitationResponse {
	now := time.Now().UTC()
	response := make([]invitationResponse, 0, len(invitations))
	for i := range invitations {
		response = append(response, toInvitationResponse(&invitations[i], now))
	}
	return response
}
