package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/fluentpal/fluentpal/internal/models"
)

var ErrUserNotFound = errors.New("user not found")

// UserServiceInterface is the directory surface consumed by handlers and
// middleware.
type UserServiceInterface interface {
	GetByID(ctx context.Context, id uuid.UUID) (*models.User, error)
	Recommend(ctx context.Context, userID uuid.UUID) ([]models.UserSummary, error)
	Friends(ctx context.Context, userID uuid.UUID) ([]models.UserSummary, error)
}

type UserService struct {
	db DBConn
}

func NewUserService(db DBConn) *UserService {
	return &UserService{db: db}
}

const userColumns = `id, email, full_name, bio, avatar_url, native_language, learning_language, location, is_onboarded, created_at, updated_at`

func scanUser(row Row) (*models.User, error) {
	user := &models.User{}
	err := row.Scan(&user.ID, &user.Email, &user.FullName, &user.Bio, &user.AvatarURL,
		&user.NativeLanguage, &user.LearningLanguage, &user.Location, &user.IsOnboarded,
		&user.CreatedAt, &user.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return user, nil
}

func (s *UserService) GetByID(ctx context.Context, id uuid.UUID) (*models.User, error) {
	ctx, cancel := storageCtx(ctx)
	defer cancel()

	user, err := scanUser(s.db.QueryRow(ctx,
		`SELECT `+userColumns+` FROM users WHERE id = $1`, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrUserNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("getting user by id: %w", err)
	}
	return user, nil
}

// Recommend returns every onboarded user who is neither the given user nor
// already in their friend set.
func (s *UserService) Recommend(ctx context.Context, userID uuid.UUID) ([]models.UserSummary, error) {
	ctx, cancel := storageCtx(ctx)
	defer cancel()

	rows, err := s.db.Query(ctx,
		`SELECT u.id, u.full_name, u.avatar_url, u.native_language, u.learning_language
		 FROM users u
		 WHERE u.id <> $1
		   AND u.is_onboarded
		   AND NOT EXISTS (
			SELECT 1 FROM user_friends f
			WHERE f.user_id = $1 AND f.friend_id = u.id
		   )
		 ORDER BY u.created_at`,
		userID,
	)
	if err != nil {
		return nil, fmt.Errorf("querying recommended users: %w", err)
	}
	defer rows.Close()

	return collectSummaries(rows)
}

// Friends resolves the user's friend set into reduced profiles in a single
// batched join.
func (s *UserService) Friends(ctx context.Context, userID uuid.UUID) ([]models.UserSummary, error) {
	ctx, cancel := storageCtx(ctx)
	defer cancel()

	var exists bool
	if err := s.db.QueryRow(ctx,
		`SELECT EXISTS(SELECT 1 FROM users WHERE id = $1)`, userID,
	).Scan(&exists); err != nil {
		return nil, fmt.Errorf("checking user existence: %w", err)
	}
	if !exists {
		return nil, ErrUserNotFound
	}

	rows, err := s.db.Query(ctx,
		`SELECT u.id, u.full_name, u.avatar_url, u.native_language, u.learning_language
		 FROM user_friends f
		 JOIN users u ON u.id = f.friend_id
		 WHERE f.user_id = $1
		 ORDER BY u.full_name`,
		userID,
	)
	if err != nil {
		return nil, fmt.Errorf("querying friends: %w", err)
	}
	defer rows.Close()

	return collectSummaries(rows)
}

func collectSummaries(rows Rows) ([]models.UserSummary, error) {
	var users []models.UserSummary
	for rows.Next() {
		var u models.UserSummary
		if err := rows.Scan(&u.ID, &u.FullName, &u.AvatarURL, &u.NativeLanguage, &u.LearningLanguage); err != nil {
			return nil, fmt.Errorf("scanning user summary: %w", err)
		}
		users = append(users, u)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("reading user summaries: %w", err)
	}
	if users == nil {
		users = []models.UserSummary{}
	}
	return users, nil
}
