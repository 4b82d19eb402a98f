package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/fluentpal/fluentpal/internal/logging"
	"github.com/fluentpal/fluentpal/internal/models"
)

var ErrNotificationNotFound = errors.New("notification not found")

const notificationDefaultLimit = 50

// NotificationServiceInterface records friend-request activity for the
// recipient's notification feed and mirrors it to email best-effort.
type NotificationServiceInterface interface {
	NotifyFriendRequest(ctx context.Context, recipientID, senderID, requestID uuid.UUID) error
	NotifyRequestAccepted(ctx context.Context, senderID, recipientID, requestID uuid.UUID) error
	List(ctx context.Context, userID uuid.UUID, limit int) ([]models.Notification, error)
	MarkRead(ctx context.Context, userID, notificationID uuid.UUID) error
	MarkAllRead(ctx context.Context, userID uuid.UUID) error
	UnreadCount(ctx context.Context, userID uuid.UUID) (int, error)
}

type NotificationService struct {
	db           DBConn
	emailService EmailSender
	baseURL      string
}

func NewNotificationService(db DBConn, emailService EmailSender, baseURL string) *NotificationService {
	return &NotificationService{db: db, emailService: emailService, baseURL: baseURL}
}

func (s *NotificationService) NotifyFriendRequest(ctx context.Context, recipientID, senderID, requestID uuid.UUID) error {
	return s.create(ctx, recipientID, senderID, models.NotificationTypeFriendRequest, requestID,
		"sent you a friend request", s.baseURL+"/#friends")
}

func (s *NotificationService) NotifyRequestAccepted(ctx context.Context, senderID, recipientID, requestID uuid.UUID) error {
	return s.create(ctx, senderID, recipientID, models.NotificationTypeRequestAccepted, requestID,
		"accepted your friend request", s.baseURL+"/#friends")
}

func (s *NotificationService) create(ctx context.Context, ownerID, actorID uuid.UUID, kind models.NotificationType, requestID uuid.UUID, action, link string) error {
	ctx, cancel := storageCtx(ctx)
	defer cancel()

	_, err := s.db.Exec(ctx,
		`INSERT INTO notifications (user_id, actor_id, type, request_id)
		 VALUES ($1, $2, $3, $4)`,
		ownerID, actorID, kind, requestID,
	)
	if err != nil {
		return fmt.Errorf("inserting notification: %w", err)
	}

	// Email is a mirror of the feed, never a gate on the workflow.
	if s.emailService != nil {
		if err := s.sendEmail(ctx, ownerID, actorID, action, link); err != nil {
			logging.Warn("Notification email failed", map[string]interface{}{
				"error":   err.Error(),
				"user_id": ownerID.String(),
				"type":    string(kind),
			})
		}
	}

	return nil
}

func (s *NotificationService) sendEmail(ctx context.Context, ownerID, actorID uuid.UUID, action, link string) error {
	var ownerEmail, ownerName, actorName string
	err := s.db.QueryRow(ctx,
		`SELECT o.email, o.full_name, a.full_name
		 FROM users o, users a
		 WHERE o.id = $1 AND a.id = $2`,
		ownerID, actorID,
	).Scan(&ownerEmail, &ownerName, &actorName)
	if err != nil {
		return fmt.Errorf("loading notification recipients: %w", err)
	}

	subject := fmt.Sprintf("%s %s", actorName, action)
	html := fmt.Sprintf(
		`<p>Hi %s,</p><p><strong>%s</strong> %s on FluentPal.</p><p><a href="%s">Open your friends page</a></p>`,
		ownerName, actorName, action, link,
	)
	return s.emailService.Send(ctx, ownerEmail, subject, html)
}

func (s *NotificationService) List(ctx context.Context, userID uuid.UUID, limit int) ([]models.Notification, error) {
	if limit <= 0 {
		limit = notificationDefaultLimit
	}

	ctx, cancel := storageCtx(ctx)
	defer cancel()

	rows, err := s.db.Query(ctx,
		`SELECT id, user_id, actor_id, type, request_id, read_at, created_at
		 FROM notifications
		 WHERE user_id = $1
		 ORDER BY created_at DESC
		 LIMIT $2`,
		userID, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("querying notifications: %w", err)
	}
	defer rows.Close()

	var notifications []models.Notification
	for rows.Next() {
		var n models.Notification
		if err := rows.Scan(&n.ID, &n.UserID, &n.ActorID, &n.Type, &n.RequestID, &n.ReadAt, &n.CreatedAt); err != nil {
			return nil, fmt.Errorf("scanning notification: %w", err)
		}
		notifications = append(notifications, n)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("reading notifications: %w", err)
	}
	if notifications == nil {
		notifications = []models.Notification{}
	}
	return notifications, nil
}

func (s *NotificationService) MarkRead(ctx context.Context, userID, notificationID uuid.UUID) error {
	ctx, cancel := storageCtx(ctx)
	defer cancel()

	result, err := s.db.Exec(ctx,
		`UPDATE notifications SET read_at = COALESCE(read_at, NOW())
		 WHERE id = $1 AND user_id = $2`,
		notificationID, userID,
	)
	if err != nil {
		return fmt.Errorf("marking notification read: %w", err)
	}
	if result.RowsAffected() == 0 {
		return ErrNotificationNotFound
	}
	return nil
}

func (s *NotificationService) MarkAllRead(ctx context.Context, userID uuid.UUID) error {
	ctx, cancel := storageCtx(ctx)
	defer cancel()

	_, err := s.db.Exec(ctx,
		`UPDATE notifications SET read_at = NOW()
		 WHERE user_id = $1 AND read_at IS NULL`,
		userID,
	)
	if err != nil {
		return fmt.Errorf("marking notifications read: %w", err)
	}
	return nil
}

func (s *NotificationService) UnreadCount(ctx context.Context, userID uuid.UUID) (int, error) {
	ctx, cancel := storageCtx(ctx)
	defer cancel()

	var count int
	err := s.db.QueryRow(ctx,
		`SELECT COUNT(*) FROM notifications WHERE user_id = $1 AND read_at IS NULL`,
		userID,
	).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("counting unread notifications: %w", err)
	}
	return count, nil
}
