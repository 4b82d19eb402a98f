package services

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/fluentpal/fluentpal/internal/models"
)

type fakeEmailSender struct {
	sent []sentEmail
	err  error
}

type sentEmail struct {
	to      string
	subject string
	html    string
}

func (f *fakeEmailSender) Send(ctx context.Context, to, subject, html string) error {
	if f.err != nil {
		return f.err
	}
	f.sent = append(f.sent, sentEmail{to: to, subject: subject, html: html})
	return nil
}

func TestNotificationService_NotifyFriendRequest_InsertsAndEmails(t *testing.T) {
	ownerID := uuid.New()
	actorID := uuid.New()

	var insertedArgs []any
	db := &fakeDB{
		ExecFunc: func(ctx context.Context, sql string, args ...any) (CommandTag, error) {
			if !strings.Contains(sql, "INSERT INTO notifications") {
				t.Fatalf("unexpected exec: %q", sql)
			}
			insertedArgs = args
			return fakeCommandTag{rowsAffected: 1}, nil
		},
		QueryRowFunc: func(ctx context.Context, sql string, args ...any) Row {
			return rowFromValues("owner@example.com", "Lena Park", "Tom Ford")
		},
	}
	email := &fakeEmailSender{}

	service := NewNotificationService(db, email, "https://app.example.com")
	err := service.NotifyFriendRequest(context.Background(), ownerID, actorID, uuid.New())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(insertedArgs) != 4 || insertedArgs[0] != ownerID || insertedArgs[1] != actorID {
		t.Fatalf("unexpected insert args: %v", insertedArgs)
	}
	if insertedArgs[2] != models.NotificationTypeFriendRequest {
		t.Fatalf("expected friend_request type, got %v", insertedArgs[2])
	}

	if len(email.sent) != 1 {
		t.Fatalf("expected 1 email, got %d", len(email.sent))
	}
	if email.sent[0].to != "owner@example.com" {
		t.Fatalf("unexpected email recipient: %s", email.sent[0].to)
	}
	if !strings.Contains(email.sent[0].subject, "Tom Ford") {
		t.Fatalf("expected actor name in subject, got %q", email.sent[0].subject)
	}
}

func TestNotificationService_EmailFailureDoesNotFailNotify(t *testing.T) {
	db := &fakeDB{
		ExecFunc: func(ctx context.Context, sql string, args ...any) (CommandTag, error) {
			return fakeCommandTag{rowsAffected: 1}, nil
		},
		QueryRowFunc: func(ctx context.Context, sql string, args ...any) Row {
			return rowFromValues("owner@example.com", "Lena Park", "Tom Ford")
		},
	}
	email := &fakeEmailSender{err: errors.New("provider down")}

	service := NewNotificationService(db, email, "https://app.example.com")
	err := service.NotifyRequestAccepted(context.Background(), uuid.New(), uuid.New(), uuid.New())
	if err != nil {
		t.Fatalf("expected notify to succeed despite email failure, got %v", err)
	}
}

func TestNotificationService_InsertFailurePropagates(t *testing.T) {
	insertErr := errors.New("disk full")
	db := &fakeDB{
		ExecFunc: func(ctx context.Context, sql string, args ...any) (CommandTag, error) {
			return fakeCommandTag{}, insertErr
		},
	}

	service := NewNotificationService(db, nil, "")
	err := service.NotifyFriendRequest(context.Background(), uuid.New(), uuid.New(), uuid.New())
	if !errors.Is(err, insertErr) {
		t.Fatalf("expected wrapped insert error, got %v", err)
	}
}

func TestNotificationService_List_DefaultLimit(t *testing.T) {
	userID := uuid.New()
	now := time.Now()

	var capturedArgs []any
	db := &fakeDB{
		QueryFunc: func(ctx context.Context, sql string, args ...any) (Rows, error) {
			capturedArgs = args
			return &fakeRows{rows: [][]any{
				{uuid.New(), userID, uuid.New(), "friend_request", nil, nil, now},
			}}, nil
		},
	}

	service := NewNotificationService(db, nil, "")
	notifications, err := service.List(context.Background(), userID, 0)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(capturedArgs) != 2 || capturedArgs[1] != notificationDefaultLimit {
		t.Fatalf("expected default limit %d, got %v", notificationDefaultLimit, capturedArgs)
	}
	if len(notifications) != 1 {
		t.Fatalf("expected 1 notification, got %d", len(notifications))
	}
	if notifications[0].ReadAt != nil {
		t.Fatal("expected unread notification")
	}
}

func TestNotificationService_MarkRead_NotFound(t *testing.T) {
	db := &fakeDB{
		ExecFunc: func(ctx context.Context, sql string, args ...any) (CommandTag, error) {
			return fakeCommandTag{rowsAffected: 0}, nil
		},
	}

	service := NewNotificationService(db, nil, "")
	err := service.MarkRead(context.Background(), uuid.New(), uuid.New())
	if !errors.Is(err, ErrNotificationNotFound) {
		t.Fatalf("expected ErrNotificationNotFound, got %v", err)
	}
}

func TestNotificationService_MarkRead_ScopedToOwner(t *testing.T) {
	userID := uuid.New()
	notificationID := uuid.New()

	db := &fakeDB{
		ExecFunc: func(ctx context.Context, sql string, args ...any) (CommandTag, error) {
			if !strings.Contains(sql, "user_id = $2") {
				t.Fatalf("expected owner-scoped update, got %q", sql)
			}
			if args[0] != notificationID || args[1] != userID {
				t.Fatalf("unexpected args: %v", args)
			}
			return fakeCommandTag{rowsAffected: 1}, nil
		},
	}

	service := NewNotificationService(db, nil, "")
	if err := service.MarkRead(context.Background(), userID, notificationID); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestNotificationService_UnreadCount(t *testing.T) {
	db := &fakeDB{
		QueryRowFunc: func(ctx context.Context, sql string, args ...any) Row {
			if !strings.Contains(sql, "read_at IS NULL") {
				t.Fatalf("expected unread filter, got %q", sql)
			}
			return rowFromValues(7)
		},
	}

	service := NewNotificationService(db, nil, "")
	count, err := service.UnreadCount(context.Background(), uuid.New())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if count != 7 {
		t.Fatalf("expected 7, got %d", count)
	}
}
