package handlers

import (
	"errors"
	"net/http"

	"github.com/google/uuid"

	"github.com/fluentpal/fluentpal/internal/models"
	"github.com/fluentpal/fluentpal/internal/services"
)

type FriendRequestHandler struct {
	requestService services.FriendRequestServiceInterface
}

func NewFriendRequestHandler(requestService services.FriendRequestServiceInterface) *FriendRequestHandler {
	return &FriendRequestHandler{requestService: requestService}
}

type FriendRequestResponse struct {
	Request *models.FriendRequest `json:"request"`
}

type FriendRequestListResponse struct {
	Incoming []models.RequestWithSender    `json:"incoming"`
	Accepted []models.RequestWithRecipient `json:"accepted"`
}

type OutgoingRequestListResponse struct {
	Outgoing []models.RequestWithRecipient `json:"outgoing"`
}

type MessageResponse struct {
	Message string `json:"message"`
}

func (h *FriendRequestHandler) Send(w http.ResponseWriter, r *http.Request) {
	user := GetUserFromContext(r.Context())
	if user == nil {
		writeError(w, http.StatusUnauthorized, "Authentication required")
		return
	}

	recipientID, err := uuid.Parse(r.PathValue("recipientId"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid recipient ID")
		return
	}

	request, err := h.requestService.Send(r.Context(), user.ID, recipientID)
	switch {
	case errors.Is(err, services.ErrCannotFriendSelf):
		writeError(w, http.StatusBadRequest, "You can't send a friend request to yourself")
		return
	case errors.Is(err, services.ErrRecipientNotFound):
		writeError(w, http.StatusNotFound, "Recipient not found")
		return
	case errors.Is(err, services.ErrAlreadyFriends):
		writeError(w, http.StatusBadRequest, "You are already friends with this user")
		return
	case errors.Is(err, services.ErrRequestExists):
		writeError(w, http.StatusBadRequest, "A friend request already exists between you and this user")
		return
	case err != nil:
		writeInternalError(w, "sending friend request", err)
		return
	}

	writeJSON(w, http.StatusCreated, FriendRequestResponse{Request: request})
}

func (h *FriendRequestHandler) Accept(w http.ResponseWriter, r *http.Request) {
	user := GetUserFromContext(r.Context())
	if user == nil {
		writeError(w, http.StatusUnauthorized, "Authentication required")
		return
	}

	requestID, err := uuid.Parse(r.PathValue("requestId"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request ID")
		return
	}

	err = h.requestService.Accept(r.Context(), requestID, user.ID)
	switch {
	case errors.Is(err, services.ErrRequestNotFound):
		writeError(w, http.StatusNotFound, "Friend request not found")
		return
	case errors.Is(err, services.ErrNotRequestRecipient):
		writeError(w, http.StatusForbidden, "You are not authorized to accept this request")
		return
	case errors.Is(err, services.ErrUserNotFound):
		writeError(w, http.StatusNotFound, "User not found")
		return
	case err != nil:
		writeInternalError(w, "accepting friend request", err)
		return
	}

	writeJSON(w, http.StatusOK, MessageResponse{Message: "Friend request accepted"})
}

// List returns pending incoming requests together with requests the caller
// sent that have since been accepted, mirroring the friends-page view.
func (h *FriendRequestHandler) List(w http.ResponseWriter, r *http.Request) {
	user := GetUserFromContext(r.Context())
	if user == nil {
		writeError(w, http.StatusUnauthorized, "Authentication required")
		return
	}

	incoming, err := h.requestService.ListIncoming(r.Context(), user.ID)
	if err != nil {
		writeInternalError(w, "listing incoming requests", err)
		return
	}

	accepted, err := h.requestService.ListRecentlyAccepted(r.Context(), user.ID)
	if err != nil {
		writeInternalError(w, "listing accepted requests", err)
		return
	}

	writeJSON(w, http.StatusOK, FriendRequestListResponse{Incoming: incoming, Accepted: accepted})
}

func (h *FriendRequestHandler) Outgoing(w http.ResponseWriter, r *http.Request) {
	user := GetUserFromContext(r.Context())
	if user == nil {
		writeError(w, http.StatusUnauthorized, "Authentication required")
		return
	}

	outgoing, err := h.requestService.ListOutgoing(r.Context(), user.ID)
	if err != nil {
		writeInternalError(w, "listing outgoing requests", err)
		return
	}

	writeJSON(w, http.StatusOK, OutgoingRequestListResponse{Outgoing: outgoing})
}
