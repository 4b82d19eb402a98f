package models

import (
	"time"

	"github.com/google/uuid"
)

type FriendRequestStatus string

const (
	FriendRequestStatusPending  FriendRequestStatus = "pending"
	FriendRequestStatusAccepted FriendRequestStatus = "accepted"
)

// FriendRequest records are never deleted; they move from pending to
// accepted exactly once and stay there.
type FriendRequest struct {
	ID          uuid.UUID           `json:"id"`
	SenderID    uuid.UUID           `json:"sender_id"`
	RecipientID uuid.UUID           `json:"recipient_id"`
	Status      FriendRequestStatus `json:"status"`
	CreatedAt   time.Time           `json:"created_at"`
	UpdatedAt   time.Time           `json:"updated_at"`
}

// RequestWithSender expands a request with the sender's reduced profile,
// used for incoming request lists.
type RequestWithSender struct {
	FriendRequest
	Sender UserSummary `json:"sender"`
}

// RequestWithRecipient expands a request with the recipient's reduced
// profile, used for outgoing and recently-accepted lists.
type RequestWithRecipient struct {
	FriendRequest
	Recipient UserSummary `json:"recipient"`
}
