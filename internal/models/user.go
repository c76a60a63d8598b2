package models

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// HistoryEntry kinds
const (
	HistoryKindInteraction = "interaction"
	HistoryKindSuitability = "suitability"
)

// User represents a user in the system
type User struct {
	ID               uuid.UUID  `json:"id" db:"id"`
	Email            string     `json:"email" db:"email"`
	PasswordHash     string     `json:"-" db:"password_hash"` // Never expose password hash in JSON
	Name             string     `json:"name,omitempty" db:"name"`
	ResetToken       *string    `json:"-" db:"reset_token"`
	ResetTokenExpiry *time.Time `json:"-" db:"reset_token_expiry"`
	CreatedAt        time.Time  `json:"created_at" db:"created_at"`
	UpdatedAt        time.Time  `json:"updated_at" db:"updated_at"`
	IsActive         bool       `json:"is_active" db:"is_active"`
}

// HistoryEntry is one persisted record of a past analysis request and
// its result. Details is a variant payload keyed by Type and is stored
// opaquely; its internal shape is only ever validated at the point the
// model output is parsed, never at the persistence layer.
type HistoryEntry struct {
	Type    string          `json:"type"`
	Date    time.Time       `json:"date"`
	Details json.RawMessage `json:"details"`
}

// InteractionDetails is the history payload for an interaction check
type InteractionDetails struct {
	Medications []string             `json:"medications"`
	Conditions  []string             `json:"conditions"`
	Results     *InteractionAnalysis `json:"results"`
}

// SuitabilityDetails is the history payload for a suitability check
type SuitabilityDetails struct {
	Medication         string               `json:"medication"`
	Conditions         []string             `json:"conditions"`
	Symptoms           string               `json:"symptoms,omitempty"`
	Allergies          string               `json:"allergies,omitempty"`
	CurrentMedications []string             `json:"currentMedications"`
	Results            *SuitabilityAnalysis `json:"results"`
}

// Identity is the authenticated caller as seen by the core: the claims
// extracted from a validated session token. The ID and the stored
// record's key are not guaranteed to agree across token regenerations,
// which is why user resolution also falls back to the email claim.
type Identity struct {
	ID    uuid.UUID
	Email string
	Name  string
}

// SignupRequest represents user registration request
type SignupRequest struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

// LoginRequest represents user login request
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// ForgotPasswordRequest starts the password reset flow
type ForgotPasswordRequest struct {
	Email string `json:"email"`
}

// ResetPasswordRequest completes the password reset flow
type ResetPasswordRequest struct {
	Token    string `json:"token"`
	Password string `json:"password"`
}

// UserResponse represents user response (without sensitive data)
type UserResponse struct {
	ID        uuid.UUID `json:"id"`
	Email     string    `json:"email"`
	Name      string    `json:"name,omitempty"`
	CreatedAt time.Time `json:"created_at"`
	IsActive  bool      `json:"is_active"`
}

// HistoryResponse is the payload of GET /api/user/history
type HistoryResponse struct {
	History []HistoryEntry `json:"history"`
	Message string         `json:"message,omitempty"`
}
