package groups

import (
	"net/http"
	"strings"

	groupsdomain "finance-app-go/internal/domain/groups"
	commonhandler "finance-app-go/internal/transport/httpserver/handler/common"
)

type createGroupRequest struct {
	Name        string  `json:"name"`
	Description *string `json:"description"`
}

type updateGroupRequest struct {
	Name        *string `json:"name"`
	Description *string `json:"description"`
}

func (h *Handlers) ListGroups(w http.ResponseWriter, r *http.Request) {
	user, ok := commonhandler.RequireUser(w, r)
	if !ok {
		return
	}

	groups, err := h.Groups.ListGroups(r.Context(), user.ID)
	if err != nil {
		h.fail(w, "groups.list", err, "user_id", user.ID)
		return
	}

	response := make([]groupResponse, 0, len(groups))
	for i := range groups {
		response = append(response, toGroupResponse(&groups[i]))
	}
	writeJSON(w, http.StatusOK, response)
}

func (h *Handlers) CreateGroup(w http.ResponseWriter, r *http.Request) {
	var req createGroupRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_json", "invalid json body")
		return
	}
	req.Name = strings.TrimSpace(req.Name)
	if req.Name == "" {
		writeError(w, http.StatusBadRequest, "invalid_request", "name is required")
		return
	}

	user, ok := commonhandler.RequireUser(w, r)
	if !ok {
		return
	}

	group, err := h.Groups.CreateGroup(r.Context(), user.ID, req.Name, req.Description)
	if err != nil {
		h.fail(w, "groups.create", err, "user_id", user.ID)
		return
	}

	writeJSON(w, http.StatusCreated, toGroupResponse(group))
}

func (h *Handlers) GetGroup(w http.ResponseWriter, r *http.Request) {
	user, ok := commonhandler.RequireUser(w, r)
	if !ok {
		return
	}
	groupID, ok := commonhandler.URLParam(w, r, "id")
	if !ok {
		return
	}

	group, err := h.Groups.GetGroup(r.Context(), user.ID, groupID)
	if err != nil {
		h.fail(w, "groups.get", err, "user_id", user.ID, "group_id", groupID)
		return
	}

	writeJSON(w, http.StatusOK, toGroupResponse(group))
}

func (h *Handlers) UpdateGroup(w http.ResponseWriter, r *http.Request) {
	var req updateGroupRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_json", "invalid json body")
		return
	}
	if req.Name == nil && req.Description == nil {
		writeError(w, http.StatusBadRequest, "invalid_request", "nothing to update")
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

	group, err := h.Groups.UpdateGroup(r.Context(), user.ID, groupID, groupsdomain.UpdateGroupInput{
		Name:        req.Name,
		Description: req.Description,
	})
	if err != nil {
		h.fail(w, "groups.update", err, "user_id", user.ID, "group_id", groupID)
		return
	}

	writeJSON(w, http.StatusOK, toGroupResponse(group))
}

func (h *Handlers) DeleteGroup(w http.ResponseWriter, r *http.Request) {
	user, ok := commonhandler.RequireUser(w, r)
	if !ok {
		return
	}
	groupID, ok := commonhandler.URLParam(w, r, "id")
	if !ok {
		return
	}

	if err := h.Groups.DeleteGroup(r.Context(), user.ID, groupID); err != nil {
		h.fail(w, "groups.delete", err, "user_id", user.ID, "group_id", groupID)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func (h *Handlers) ListMembers(w http.ResponseWriter, r *http.Request) {
	user, ok := commonhandler.RequireUser(w, r)
	if !ok {
		return
	}
	groupID, ok := commonhandler.URLParam(w, r, "id")
	if !ok {
		return
	}

	members, err := h.Groups.ListMembers(r.Context(), user.ID, groupID)
	if err != nil {
		h.fail(w, "groups.list_members", err, "user_id", user.ID, "group_id", groupID)
		return
	}

	response := make([]memberResponse, 0, len(members))
	for _, member := range members {
		response = append(response, memberResponse{
			UserID:    member.UserID,
			Role:      member.Role,
			JoinedAt:  member.JoinedAt,
			Email:     member.Email,
			FullName:  member.FullName,
			AvatarURL: member.AvatarURL,
		})
	}
	writeJSON(w, http.StatusOK, response)
}

func (h *Handlers) RemoveMember(w http.ResponseWriter, r *http.Request) {
	user, ok := commonhandler.RequireUser(w, r)
	if !ok {
		return
	}
	groupID, ok := commonhandler.URLParam(w, r, "id")
	if !ok {
		return
	}
	memberID, ok := commonhandler.URLParam(w, r, "user_id")
	if !ok {
		return
	}

	if err := h.Groups.RemoveMember(r.Context(), user.ID, groupID, memberID); err != nil {
		h.fail(w, "groups.remove_member", err, "actor_id", user.ID, "group_id", groupID, "member_id", memberID)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func (h *Handlers) LeaveGroup(w http.ResponseWriter, r *http.Request) {
	user, ok := commonhandler.RequireUser(w, r)
	if !ok {
		return
	}
	groupID, ok := commonhandler.URLParam(w, r, "id")
	if !ok {
		return
	}

	if err := h.Groups.LeaveGroup(r.Context(), user.ID, groupID); err != nil {
		h.fail(w, "groups.leave", err, "user_id", user.ID, "group_id", groupID)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
