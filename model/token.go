// file: model/token.go

package model

import "time"

// RefreshToken holds the data for a refresh handle in the database.
// Only the hash of the raw handle is ever stored.
type RefreshToken struct {
	ID        int       `json:"id"`
	UserID    int       `json:"user_id"`
	TokenHash string    `json:"-"` // The hash is not exposed in JSON responses.
	ExpiresAt time.Time `json:"expires_at"`
	CreatedAt time.Time `json:"created_at"`
}

// TokenPurpose tags what a single-use token is allowed to do.
type TokenPurpose string

const (
	PurposeInvitation    TokenPurpose = "invitation"
	PurposeActivation    TokenPurpose = "activation"
	PurposePasswordReset TokenPurpose = "password_reset"
)

// TokenStatus is the lifecycle state of a single-use token.
// A token leaves StatusPending exactly once; every other state is terminal.
type TokenStatus string

const (
	StatusPending   TokenStatus = "pending"
	StatusAccepted  TokenStatus = "accepted"
	StatusExpired   TokenStatus = "expired"
	StatusCancelled TokenStatus = "cancelled"
	StatusRevoked   TokenStatus = "revoked"
)

// SingleUseToken is the stored form of an invitation, activation or
// password-reset token. The raw secret is handed out exactly once at creation
// time and only its SHA-256 hash lands in this record.
type SingleUseToken struct {
	ID         string       `json:"id"`
	Purpose    TokenPurpose `json:"purpose"`
	TokenHash  string       `json:"-"`
	UserID     *int         `json:"user_id,omitempty"`
	Email      string       `json:"email"`
	Role       string       `json:"role,omitempty"`
	Status     TokenStatus  `json:"status"`
	CreatedAt  time.Time    `json:"created_at"`
	ExpiresAt  time.Time    `json:"expires_at"`
	ConsumedAt *time.Time   `json:"consumed_at,omitempty"`
}
