// file: model/request.go

package model

// LoginRequest defines the payload for dashboard authentication.
type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=8"`
}

// RefreshRequest carries a refresh handle when the client cannot use the
// HttpOnly cookie (e.g. native callers).
type RefreshRequest struct {
	RefreshToken string `json:"refresh_token" validate:"required"`
}

// CreateInvitationRequest defines the payload for issuing an invitation token.
type CreateInvitationRequest struct {
	Email string `json:"email" validate:"required,email"`
	Role  Role   `json:"role" validate:"required,oneof=admin recruiter"`
}

// PasswordResetRequest asks for a reset token for the given account.
type PasswordResetRequest struct {
	Email string `json:"email" validate:"required,email"`
}

// ConsumeTokenRequest finalizes a single-use token. Name and Password are
// required when accepting an invitation (the account is created on the spot)
// and Password alone when finalizing a password reset.
type ConsumeTokenRequest struct {
	Name     string `json:"name,omitempty" validate:"omitempty,min=2,max=100"`
	Password string `json:"password,omitempty" validate:"omitempty,min=8"`
}
