package models

import (
	"time"

	"github.com/google/uuid"
)

type NotificationType string

const (
	NotificationTypeFriendRequest   NotificationType = "friend_request"
	NotificationTypeRequestAccepted NotificationType = "request_accepted"
)

type Notification struct {
	ID        uuid.UUID        `json:"id"`
	UserID    uuid.UUID        `json:"user_id"`
	ActorID   uuid.UUID        `json:"actor_id"`
	Type      NotificationType `json:"type"`
	RequestID *uuid.UUID       `json:"request_id,omitempty"`
	ReadAt    *time.Time       `json:"read_at,omitempty"`
	CreatedAt time.Time        `json:"created_at"`
}
