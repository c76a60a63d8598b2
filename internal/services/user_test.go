package services

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/medcheck/api/internal/apperrors"
	"github.com/medcheck/api/internal/models"
)

type fakeLookup struct {
	byID    map[uuid.UUID]*models.User
	byEmail map[string]*models.User
	idErr   error
	calls   []string
}

func (f *fakeLookup) GetUserByID(_ context.Context, userID uuid.UUID) (*models.User, error) {
	f.calls = append(f.calls, "id")
	if f.idErr != nil {
		return nil, f.idErr
	}
	if user, ok := f.byID[userID]; ok {
		return user, nil
	}
	return nil, apperrors.New(apperrors.KindUserNotFound, "user not found")
}

func (f *fakeLookup) GetUserByEmail(_ context.Context, email string) (*models.User, error) {
	f.calls = append(f.calls, "email")
	if user, ok := f.byEmail[email]; ok {
		return user, nil
	}
	return nil, apperrors.New(apperrors.KindUserNotFound, "user not found")
}

func TestResolveUser(t *testing.T) {
	storedID := uuid.New()
	tokenID := uuid.New()
	stored := &models.User{ID: storedID, Email: "test@example.com"}

	tests := []struct {
		name      string
		lookup    *fakeLookup
		identity  models.Identity
		wantUser  bool
		wantCalls []string
	}{
		{
			name: "found by ID, email never tried",
			lookup: &fakeLookup{
				byID: map[uuid.UUID]*models.User{storedID: stored},
			},
			identity:  models.Identity{ID: storedID, Email: "test@example.com"},
			wantUser:  true,
			wantCalls: []string{"id"},
		},
		{
			name: "ID misses, email hits",
			lookup: &fakeLookup{
				byEmail: map[string]*models.User{"test@example.com": stored},
			},
			identity:  models.Identity{ID: tokenID, Email: "test@example.com"},
			wantUser:  true,
			wantCalls: []string{"id", "email"},
		},
		{
			name:      "both miss",
			lookup:    &fakeLookup{},
			identity:  models.Identity{ID: tokenID, Email: "ghost@example.com"},
			wantUser:  false,
			wantCalls: []string{"id", "email"},
		},
		{
			name: "no ID claim, email hits",
			lookup: &fakeLookup{
				byEmail: map[string]*models.User{"test@example.com": stored},
			},
			identity:  models.Identity{Email: "test@example.com"},
			wantUser:  true,
			wantCalls: []string{"email"},
		},
		{
			name:      "empty identity",
			lookup:    &fakeLookup{},
			identity:  models.Identity{},
			wantUser:  false,
			wantCalls: nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			user, err := resolveUser(context.Background(), tt.lookup, tt.identity)

			if tt.wantUser {
				if err != nil {
					t.Fatalf("resolveUser failed: %v", err)
				}
				if user.ID != storedID {
					t.Errorf("Expected stored user, got %+v", user)
				}
			} else {
				if err == nil {
					t.Fatal("Expected error, got nil")
				}
				if apperrors.KindOf(err) != apperrors.KindUserNotFound {
					t.Errorf("Expected user_not_found kind, got %v", apperrors.KindOf(err))
				}
			}

			if len(tt.lookup.calls) != len(tt.wantCalls) {
				t.Fatalf("Expected lookup order %v, got %v", tt.wantCalls, tt.lookup.calls)
			}
			for i, want := range tt.wantCalls {
				if tt.lookup.calls[i] != want {
					t.Errorf("Expected lookup order %v, got %v", tt.wantCalls, tt.lookup.calls)
					break
				}
			}
		})
	}
}

// A lookup failure that is not a clean miss must stop the chain, not
// fall through to the email strategy.
func TestResolveUserLookupErrorPropagates(t *testing.T) {
	lookup := &fakeLookup{
		idErr:   errors.New("connection reset"),
		byEmail: map[string]*models.User{"test@example.com": {Email: "test@example.com"}},
	}

	_, err := resolveUser(context.Background(), lookup, models.Identity{
		ID:    uuid.New(),
		Email: "test@example.com",
	})
	if err == nil {
		t.Fatal("Expected lookup error to propagate")
	}
	if apperrors.KindOf(err) == apperrors.KindUserNotFound {
		t.Error("Database error must not be reported as not-found")
	}
	if len(lookup.calls) != 1 || lookup.calls[0] != "id" {
		t.Errorf("Email strategy should not run after a lookup failure, calls: %v", lookup.calls)
	}
}

func TestIsUniqueViolation(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{
			name: "unique violation",
			err:  &pgconn.PgError{Code: "23505"},
			want: true,
		},
		{
			name: "wrapped unique violation",
			err:  apperrors.Wrap(&pgconn.PgError{Code: "23505"}, apperrors.KindPersistenceFailure, "insert failed"),
			want: true,
		},
		{
			name: "other pg error",
			err:  &pgconn.PgError{Code: "23503"},
			want: false,
		},
		{
			name: "plain error",
			err:  errors.New("connection reset"),
			want: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := isUniqueViolation(tt.err); got != tt.want {
				t.Errorf("isUniqueViolation() = %v, want %v", got, tt.want)
			}
		})
	}
}
