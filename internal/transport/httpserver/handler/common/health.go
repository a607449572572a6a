package common

import (
	"errors"
	"net/http"

	userdomain "finance-app-go/internal/domain/user"
	"finance-app-go/internal/transport/httpserver/middleware"
)

func (h *Handlers) Health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

type authMeResponse struct {
	ID        string  `json:"id"`
	Email     string  `json:"email"`
	Name      string  `json:"name"`
	AvatarURL string  `json:"avatar_url"`
	FullName  *string `json:"full_name"`
}

func (h *Handlers) AuthMe(w http.ResponseWriter, r *http.Request) {
	user, ok := middleware.UserFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "invalid_token", "invalid token")
		return
	}

	response := authMeResponse{
		ID:        user.ID,
		Email:     user.Email,
		Name:      user.Name,
		AvatarURL: user.AvatarURL,
	}
	if h.Profiles != nil {
		profile, err := h.Profiles.GetProfile(r.Context(), user.ID)
		switch {
		case err == nil:
			response.FullName = profile.FullName
		case errors.Is(err, userdomain.ErrProfileNotFound):
		default:
			h.log.InternalError("auth.me: get profile failed", err, "user_id", user.ID)
		}
	}

	writeJSON(w, http.StatusOK, response)
}
