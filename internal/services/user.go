package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"github.com/medcheck/api/internal/apperrors"
	"github.com/medcheck/api/internal/models"
)

const userColumns = `id, email, password_hash, COALESCE(name, ''), reset_token, reset_token_expiry, created_at, updated_at, is_active`

// UserService handles user-related operations, including the embedded
// per-user analysis history.
type UserService struct {
	db     *pgxpool.Pool
	logger *zap.Logger
}

// NewUserService creates a new user service
func NewUserService(db *pgxpool.Pool, logger *zap.Logger) *UserService {
	return &UserService{
		db:     db,
		logger: logger,
	}
}

func scanUser(row pgx.Row) (*models.User, error) {
	user := &models.User{}
	err := row.Scan(
		&user.ID,
		&user.Email,
		&user.PasswordHash,
		&user.Name,
		&user.ResetToken,
		&user.ResetTokenExpiry,
		&user.CreatedAt,
		&user.UpdatedAt,
		&user.IsActive,
	)
	if err != nil {
		return nil, err
	}
	return user, nil
}

// CreateUser creates a new user
func (s *UserService) CreateUser(ctx context.Context, email, passwordHash, name string) (*models.User, error) {
	query := `
		INSERT INTO users (email, password_hash, name)
		VALUES ($1, $2, NULLIF($3, ''))
		RETURNING ` + userColumns

	user, err := scanUser(s.db.QueryRow(ctx, query, email, passwordHash, name))
	if err != nil {
		if isUniqueViolation(err) {
			return nil, apperrors.Wrap(err, apperrors.KindConflict, "User with this email already exists")
		}
		s.logger.Error("Failed to create user", zap.Error(err), zap.String("email", email))
		return nil, fmt.Errorf("failed to create user: %w", err)
	}

	s.logger.Info("User created successfully",
		zap.String("user_id", user.ID.String()),
		zap.String("email", email))

	return user, nil
}

// isUniqueViolation reports whether err is a unique-constraint
// violation. Two concurrent signups can both pass the EmailExists
// pre-check; the INSERT loses the race instead.
func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}

// GetUserByEmail retrieves a user by email
func (s *UserService) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	query := `
		SELECT ` + userColumns + `
		FROM users
		WHERE email = $1 AND is_active = true
	`

	user, err := scanUser(s.db.QueryRow(ctx, query, email))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.New(apperrors.KindUserNotFound, "user not found")
		}
		return nil, fmt.Errorf("failed to look up user by email: %w", err)
	}

	return user, nil
}

// GetUserByID retrieves a user by ID
func (s *UserService) GetUserByID(ctx context.Context, userID uuid.UUID) (*models.User, error) {
	query := `
		SELECT ` + userColumns + `
		FROM users
		WHERE id = $1 AND is_active = true
	`

	user, err := scanUser(s.db.QueryRow(ctx, query, userID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.New(apperrors.KindUserNotFound, "user not found")
		}
		return nil, fmt.Errorf("failed to look up user by id: %w", err)
	}

	return user, nil
}

// userLookup is the record-lookup surface resolveUser runs over
type userLookup interface {
	GetUserByID(ctx context.Context, userID uuid.UUID) (*models.User, error)
	GetUserByEmail(ctx context.Context, email string) (*models.User, error)
}

// resolveUser locates the user record for an authenticated identity by
// trying an ordered list of lookup strategies: the primary key from
// the session token first, then the email claim. First hit wins. The
// fallback exists because the token's subject and the stored key can
// drift apart across token regenerations. Lookup errors other than
// not-found stop the chain and propagate.
func resolveUser(ctx context.Context, lookups userLookup, identity models.Identity) (*models.User, error) {
	var strategies []func(context.Context) (*models.User, error)
	if identity.ID != uuid.Nil {
		strategies = append(strategies, func(ctx context.Context) (*models.User, error) {
			return lookups.GetUserByID(ctx, identity.ID)
		})
	}
	if identity.Email != "" {
		strategies = append(strategies, func(ctx context.Context) (*models.User, error) {
			return lookups.GetUserByEmail(ctx, identity.Email)
		})
	}

	for _, lookup := range strategies {
		user, err := lookup(ctx)
		if err == nil {
			return user, nil
		}
		if apperrors.KindOf(err) != apperrors.KindUserNotFound {
			return nil, err
		}
	}

	return nil, apperrors.New(apperrors.KindUserNotFound, "user not found")
}

// ResolveUser resolves an authenticated identity to its stored record,
// falling back from ID to email.
func (s *UserService) ResolveUser(ctx context.Context, identity models.Identity) (*models.User, error) {
	return resolveUser(ctx, s, identity)
}

// EmailExists checks if an email already exists
func (s *UserService) EmailExists(ctx context.Context, email string) (bool, error) {
	var exists bool

	query := `SELECT EXISTS(SELECT 1 FROM users WHERE email = $1)`

	err := s.db.QueryRow(ctx, query, email).Scan(&exists)
	if err != nil {
		s.logger.Error("Failed to check email existence", zap.Error(err))
		return false, fmt.Errorf("failed to check email: %w", err)
	}

	return exists, nil
}

// SetResetToken stores a password-reset token and its expiry on the
// user's record.
func (s *UserService) SetResetToken(ctx context.Context, userID uuid.UUID, token string, expiry time.Time) error {
	query := `
		UPDATE users
		SET reset_token = $2, reset_token_expiry = $3, updated_at = now()
		WHERE id = $1
	`

	if _, err := s.db.Exec(ctx, query, userID, token, expiry); err != nil {
		s.logger.Error("Failed to store reset token", zap.Error(err))
		return fmt.Errorf("failed to store reset token: %w", err)
	}

	return nil
}

// GetUserByResetToken retrieves a user by an unexpired reset token
func (s *UserService) GetUserByResetToken(ctx context.Context, token string) (*models.User, error) {
	query := `
		SELECT ` + userColumns + `
		FROM users
		WHERE reset_token = $1 AND reset_token_expiry > now() AND is_active = true
	`

	user, err := scanUser(s.db.QueryRow(ctx, query, token))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.New(apperrors.KindUserNotFound, "invalid or expired reset token")
		}
		return nil, fmt.Errorf("failed to look up reset token: %w", err)
	}

	return user, nil
}

// UpdatePassword replaces the user's password hash and clears any
// outstanding reset token.
func (s *UserService) UpdatePassword(ctx context.Context, userID uuid.UUID, passwordHash string) error {
	query := `
		UPDATE users
		SET password_hash = $2, reset_token = NULL, reset_token_expiry = NULL, updated_at = now()
		WHERE id = $1
	`

	if _, err := s.db.Exec(ctx, query, userID, passwordHash); err != nil {
		s.logger.Error("Failed to update password", zap.Error(err))
		return fmt.Errorf("failed to update password: %w", err)
	}

	s.logger.Info("Password updated", zap.String("user_id", userID.String()))
	return nil
}

// AppendHistory appends a timestamped entry to the resolved user's
// history. The JSONB concatenation runs as a single row update, so two
// concurrent appends for the same user both land; their relative order
// is whatever the database commits first.
func (s *UserService) AppendHistory(ctx context.Context, identity models.Identity, entry models.HistoryEntry) error {
	user, err := s.ResolveUser(ctx, identity)
	if err != nil {
		return err
	}

	payload, err := json.Marshal([]models.HistoryEntry{entry})
	if err != nil {
		return apperrors.Wrap(err, apperrors.KindPersistenceFailure, "failed to encode history entry")
	}

	query := `
		UPDATE users
		SET history = history || $2::jsonb, updated_at = now()
		WHERE id = $1
	`

	if _, err := s.db.Exec(ctx, query, user.ID, payload); err != nil {
		return apperrors.Wrap(err, apperrors.KindPersistenceFailure, "failed to append history entry")
	}

	return nil
}

// GetHistory returns the resolved user's history sorted by date
// descending, most recent first. A user with no history gets an empty
// slice, not an error.
func (s *UserService) GetHistory(ctx context.Context, identity models.Identity) ([]models.HistoryEntry, error) {
	user, err := s.ResolveUser(ctx, identity)
	if err != nil {
		return nil, err
	}

	var raw []byte
	query := `SELECT history FROM users WHERE id = $1`
	if err := s.db.QueryRow(ctx, query, user.ID).Scan(&raw); err != nil {
		return nil, fmt.Errorf("failed to read history: %w", err)
	}

	history := []models.HistoryEntry{}
	if len(raw) > 0 {
		if err := json.Unmarshal(raw, &history); err != nil {
			return nil, fmt.Errorf("failed to decode history: %w", err)
		}
	}

	sort.SliceStable(history, func(i, j int) bool {
		return history[i].Date.After(history[j].Date)
	})

	return history, nil
}

// ToUserResponse converts User to UserResponse (removes sensitive data)
func (s *UserService) ToUserResponse(user *models.User) *models.UserResponse {
	return &models.UserResponse{
		ID:        user.ID,
		Email:     user.Email,
		Name:      user.Name,
		CreatedAt: user.CreatedAt,
		IsActive:  user.IsActive,
	}
}
