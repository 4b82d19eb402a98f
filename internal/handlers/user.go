package handlers

import (
	"errors"
	"net/http"

	"github.com/fluentpal/fluentpal/internal/models"
	"github.com/fluentpal/fluentpal/internal/services"
)

type UserHandler struct {
	userService services.UserServiceInterface
}

func NewUserHandler(userService services.UserServiceInterface) *UserHandler {
	return &UserHandler{userService: userService}
}

type UserListResponse struct {
	Users []models.UserSummary `json:"users"`
}

type FriendListResponse struct {
	Friends []models.UserSummary `json:"friends"`
}

// Recommended lists onboarded users who are neither the caller nor already
// friends with them.
func (h *UserHandler) Recommended(w http.ResponseWriter, r *http.Request) {
	user := GetUserFromContext(r.Context())
	if user == nil {
		writeError(w, http.StatusUnauthorized, "Authentication required")
		return
	}

	users, err := h.userService.Recommend(r.Context(), user.ID)
	if err != nil {
		writeInternalError(w, "listing recommended users", err)
		return
	}

	writeJSON(w, http.StatusOK, UserListResponse{Users: users})
}

func (h *UserHandler) Friends(w http.ResponseWriter, r *http.Request) {
	user := GetUserFromContext(r.Context())
	if user == nil {
		writeError(w, http.StatusUnauthorized, "Authentication required")
		return
	}

	friends, err := h.userService.Friends(r.Context(), user.ID)
	if errors.Is(err, services.ErrUserNotFound) {
		writeError(w, http.StatusNotFound, "User not found")
		return
	}
	if err != nil {
		writeInternalError(w, "listing friends", err)
		return
	}

	writeJSON(w, http.StatusOK, FriendListResponse{Friends: friends})
}
