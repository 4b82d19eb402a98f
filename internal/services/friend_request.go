package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/fluentpal/fluentpal/internal/logging"
	"github.com/fluentpal/fluentpal/internal/models"
)

var (
	ErrCannotFriendSelf    = errors.New("cannot send a friend request to yourself")
	ErrRecipientNotFound   = errors.New("recipient not found")
	ErrAlreadyFriends      = errors.New("already friends with this user")
	ErrRequestExists       = errors.New("a friend request already exists between these users")
	ErrRequestNotFound     = errors.New("friend request not found")
	ErrNotRequestRecipient = errors.New("only the recipient may accept this request")
)

// FriendRequestServiceInterface is the workflow surface consumed by handlers.
type FriendRequestServiceInterface interface {
	Send(ctx context.Context, senderID, recipientID uuid.UUID) (*models.FriendRequest, error)
	Accept(ctx context.Context, requestID, actingUserID uuid.UUID) error
	ListIncoming(ctx context.Context, userID uuid.UUID) ([]models.RequestWithSender, error)
	ListOutgoing(ctx context.Context, userID uuid.UUID) ([]models.RequestWithRecipient, error)
	ListRecentlyAccepted(ctx context.Context, userID uuid.UUID) ([]models.RequestWithRecipient, error)
}

// FriendRequestService owns the request lifecycle: pending on send, accepted
// exactly once by the recipient, with the mutual friend linking done in the
// same transaction as the status change.
type FriendRequestService struct {
	db                  DB
	notificationService NotificationServiceInterface
}

func NewFriendRequestService(db DB) *FriendRequestService {
	return &FriendRequestService{db: db}
}

func (s *FriendRequestService) SetNotificationService(notificationService NotificationServiceInterface) {
	s.notificationService = notificationService
}

const requestColumns = `id, sender_id, recipient_id, status, created_at, updated_at`

func (s *FriendRequestService) Send(ctx context.Context, senderID, recipientID uuid.UUID) (*models.FriendRequest, error) {
	if senderID == recipientID {
		return nil, ErrCannotFriendSelf
	}

	ctx, cancel := storageCtx(ctx)
	defer cancel()

	var exists bool
	err := s.db.QueryRow(ctx,
		`SELECT EXISTS(SELECT 1 FROM users WHERE id = $1)`, recipientID,
	).Scan(&exists)
	if err != nil {
		return nil, fmt.Errorf("checking recipient: %w", err)
	}
	if !exists {
		return nil, ErrRecipientNotFound
	}

	err = s.db.QueryRow(ctx,
		`SELECT EXISTS(
			SELECT 1 FROM user_friends
			WHERE user_id = $1 AND friend_id = $2
		)`,
		recipientID, senderID,
	).Scan(&exists)
	if err != nil {
		return nil, fmt.Errorf("checking friendship: %w", err)
	}
	if exists {
		return nil, ErrAlreadyFriends
	}

	err = s.db.QueryRow(ctx,
		`SELECT EXISTS(
			SELECT 1 FROM friend_requests
			WHERE (sender_id = $1 AND recipient_id = $2)
			   OR (sender_id = $2 AND recipient_id = $1)
		)`,
		senderID, recipientID,
	).Scan(&exists)
	if err != nil {
		return nil, fmt.Errorf("checking existing request: %w", err)
	}
	if exists {
		return nil, ErrRequestExists
	}

	request := &models.FriendRequest{}
	err = s.db.QueryRow(ctx,
		`INSERT INTO friend_requests (sender_id, recipient_id, status)
		 VALUES ($1, $2, 'pending')
		 RETURNING `+requestColumns,
		senderID, recipientID,
	).Scan(&request.ID, &request.SenderID, &request.RecipientID, &request.Status,
		&request.CreatedAt, &request.UpdatedAt)
	if err != nil {
		// The pair index closes the window between the duplicate check and
		// the insert; a racing insert loses here instead of creating a twin.
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) {
			switch pgErr.Code {
			case "23505":
				return nil, ErrRequestExists
			case "23503":
				return nil, ErrRecipientNotFound
			}
		}
		return nil, fmt.Errorf("inserting friend request: %w", err)
	}

	if s.notificationService != nil {
		if err := s.notificationService.NotifyFriendRequest(ctx, recipientID, senderID, request.ID); err != nil {
			logging.Error("Failed to send friend request notification", map[string]interface{}{
				"error":      err.Error(),
				"request_id": request.ID.String(),
			})
		}
	}

	return request, nil
}

// Accept transitions the request to accepted and links both users' friend
// sets. Status change and both set insertions commit atomically; replaying
// an accept leaves the friend sets unchanged.
func (s *FriendRequestService) Accept(ctx context.Context, requestID, actingUserID uuid.UUID) error {
	ctx, cancel := storageCtx(ctx)
	defer cancel()

	tx, err := s.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin accept transaction: %w", err)
	}

	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback(ctx)
		}
	}()

	var senderID, recipientID uuid.UUID
	var status models.FriendRequestStatus
	err = tx.QueryRow(ctx,
		`SELECT sender_id, recipient_id, status
		 FROM friend_requests WHERE id = $1 FOR UPDATE`,
		requestID,
	).Scan(&senderID, &recipientID, &status)
	if errors.Is(err, pgx.ErrNoRows) {
		return ErrRequestNotFound
	}
	if err != nil {
		return fmt.Errorf("loading friend request: %w", err)
	}

	if recipientID != actingUserID {
		return ErrNotRequestRecipient
	}

	if err := lockUserPairForUpdate(ctx, tx, senderID, recipientID); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return ErrUserNotFound
		}
		return fmt.Errorf("locking users: %w", err)
	}

	_, err = tx.Exec(ctx,
		`UPDATE friend_requests
		 SET status = 'accepted', updated_at = NOW()
		 WHERE id = $1`,
		requestID,
	)
	if err != nil {
		return fmt.Errorf("updating request status: %w", err)
	}

	_, err = tx.Exec(ctx,
		`INSERT INTO user_friends (user_id, friend_id)
		 VALUES ($1, $2), ($2, $1)
		 ON CONFLICT DO NOTHING`,
		senderID, recipientID,
	)
	if err != nil {
		return fmt.Errorf("linking friends: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit accept: %w", err)
	}
	committed = true

	// Replays skip the notification: the sender was already told.
	if s.notificationService != nil && status == models.FriendRequestStatusPending {
		if err := s.notificationService.NotifyRequestAccepted(ctx, senderID, recipientID, requestID); err != nil {
			logging.Error("Failed to send acceptance notification", map[string]interface{}{
				"error":      err.Error(),
				"request_id": requestID.String(),
			})
		}
	}

	return nil
}

func (s *FriendRequestService) ListIncoming(ctx context.Context, userID uuid.UUID) ([]models.RequestWithSender, error) {
	ctx, cancel := storageCtx(ctx)
	defer cancel()

	rows, err := s.db.Query(ctx,
		`SELECT r.id, r.sender_id, r.recipient_id, r.status, r.created_at, r.updated_at,
		        u.id, u.full_name, u.avatar_url, u.native_language, u.learning_language
		 FROM friend_requests r
		 JOIN users u ON u.id = r.sender_id
		 WHERE r.recipient_id = $1 AND r.status = 'pending'
		 ORDER BY r.created_at DESC`,
		userID,
	)
	if err != nil {
		return nil, fmt.Errorf("querying incoming requests: %w", err)
	}
	defer rows.Close()

	var requests []models.RequestWithSender
	for rows.Next() {
		var r models.RequestWithSender
		if err := rows.Scan(&r.ID, &r.SenderID, &r.RecipientID, &r.Status, &r.CreatedAt, &r.UpdatedAt,
			&r.Sender.ID, &r.Sender.FullName, &r.Sender.AvatarURL, &r.Sender.NativeLanguage, &r.Sender.LearningLanguage); err != nil {
			return nil, fmt.Errorf("scanning incoming request: %w", err)
		}
		requests = append(requests, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("reading incoming requests: %w", err)
	}
	if requests == nil {
		requests = []models.RequestWithSender{}
	}
	return requests, nil
}

func (s *FriendRequestService) ListOutgoing(ctx context.Context, userID uuid.UUID) ([]models.RequestWithRecipient, error) {
	return s.listWithRecipient(ctx, userID, models.FriendRequestStatusPending)
}

// ListRecentlyAccepted only surfaces acceptances where the queried user was
// the original sender. The recipient-side asymmetry is inherited behavior
// the friends page depends on.
func (s *FriendRequestService) ListRecentlyAccepted(ctx context.Context, userID uuid.UUID) ([]models.RequestWithRecipient, error) {
	return s.listWithRecipient(ctx, userID, models.FriendRequestStatusAccepted)
}

func (s *FriendRequestService) listWithRecipient(ctx context.Context, userID uuid.UUID, status models.FriendRequestStatus) ([]models.RequestWithRecipient, error) {
	ctx, cancel := storageCtx(ctx)
	defer cancel()

	rows, err := s.db.Query(ctx,
		`SELECT r.id, r.sender_id, r.recipient_id, r.status, r.created_at, r.updated_at,
		        u.id, u.full_name, u.avatar_url, u.native_language, u.learning_language
		 FROM friend_requests r
		 JOIN users u ON u.id = r.recipient_id
		 WHERE r.sender_id = $1 AND r.status = $2
		 ORDER BY r.created_at DESC`,
		userID, status,
	)
	if err != nil {
		return nil, fmt.Errorf("querying sent requests: %w", err)
	}
	defer rows.Close()

	var requests []models.RequestWithRecipient
	for rows.Next() {
		var r models.RequestWithRecipient
		if err := rows.Scan(&r.ID, &r.SenderID, &r.RecipientID, &r.Status, &r.CreatedAt, &r.UpdatedAt,
			&r.Recipient.ID, &r.Recipient.FullName, &r.Recipient.AvatarURL, &r.Recipient.NativeLanguage, &r.Recipient.LearningLanguage); err != nil {
			return nil, fmt.Errorf("scanning sent request: %w", err)
		}
		requests = append(requests, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("reading sent requests: %w", err)
	}
	if requests == nil {
		requests = []models.RequestWithRecipient{}
	}
	return requests, nil
}
