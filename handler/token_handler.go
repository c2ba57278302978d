// file: handler/token_handler.go

package handler

import (
	"database/sql"
	"encoding/json"
	"go-recruit-auth/common"
	"go-recruit-auth/model"
	"go-recruit-auth/repository"
	"go-recruit-auth/service"
	"net/http"
)

// TokenHandler exposes the single-use token lifecycle: invitation issuing,
// password-reset requests, validation of presented links and consumption.
type TokenHandler struct {
	Tokens      *service.SingleUseTokenService
	AuthService *service.AuthService
	UserRepo    repository.IUserRepository
}

func NewTokenHandler(tokens *service.SingleUseTokenService, authService *service.AuthService, userRepo repository.IUserRepository) *TokenHandler {
	return &TokenHandler{Tokens: tokens, AuthService: authService, UserRepo: userRepo}
}

// tokenStatusResponse is what validation reports to the presentation layer.
// Reasons that would help an attacker enumerate tokens are already collapsed
// into "invalid" by the service layer.
type tokenStatusResponse struct {
	Valid   bool   `json:"valid"`
	Reason  string `json:"reason,omitempty"`
	Purpose string `json:"purpose,omitempty"`
	Email   string `json:"email,omitempty"`
}

// CreateInvitation godoc
// @Summary      Issue an invitation token
// @Description  Creates a single-use invitation and returns the raw token value exactly once.
// @Tags         tokens
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        request body model.CreateInvitationRequest true "Invitee"
// @Success      201 {object} map[string]string
// @Router       /api/admin/invitations [post]
func (h *TokenHandler) CreateInvitation(w http.ResponseWriter, r *http.Request) *common.AppError {
	var req model.CreateInvitationRequest
	if !common.ValidateAndDecode(w, r, &req) {
		return nil
	}

	raw, token, err := h.Tokens.Create(r.Context(), model.PurposeInvitation, nil, req.Email, string(req.Role))
	if err != nil {
		return common.NewAppError(http.StatusServiceUnavailable, "Could not create invitation", err)
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	json.NewEncoder(w).Encode(map[string]string{
		"token":      raw,
		"expires_at": token.ExpiresAt.Format("2006-01-02T15:04:05Z07:00"),
	})
	return nil
}

// RequestPasswordReset godoc
// @Summary      Request a password reset token
// @Description  Always answers 202 so the endpoint cannot be used to probe which emails have accounts.
// @Tags         tokens
// @Accept       json
// @Param        request body model.PasswordResetRequest true "Account email"
// @Success      202
// @Router       /password-reset [post]
func (h *TokenHandler) RequestPasswordReset(w http.ResponseWriter, r *http.Request) *common.AppError {
	var req model.PasswordResetRequest
	if !common.ValidateAndDecode(w, r, &req) {
		return nil
	}

	user, err := h.UserRepo.GetUserByEmail(r.Context(), req.Email)
	if err == nil {
		if _, _, createErr := h.Tokens.Create(r.Context(), model.PurposePasswordReset, &user.ID, user.Email, ""); createErr != nil {
			return common.NewAppError(http.StatusServiceUnavailable, "Could not create reset token", createErr)
		}
		// The raw token travels only through the email channel; the emailer
		// collaborator picks it up from the creation record. Nothing of it
		// is echoed back to the HTTP caller.
	} else if err != sql.ErrNoRows {
		return common.NewAppError(http.StatusServiceUnavailable, "Could not create reset token", err)
	}

	w.WriteHeader(http.StatusAccepted)
	return nil
}

// ValidateToken godoc
// @Summary      Validate a presented single-use token
// @Description  Read-only check used by the link landing pages.
// @Tags         tokens
// @Produce      json
// @Param        value path string true "Raw token value"
// @Success      200 {object} tokenStatusResponse
// @Router       /tokens/{value} [get]
func (h *TokenHandler) ValidateToken(w http.ResponseWriter, r *http.Request) *common.AppError {
	raw := r.PathValue("value")

	outcome := h.Tokens.Validate(r.Context(), raw)
	if outcome.Reason == service.ReasonStoreUnavailable {
		return common.NewAppError(http.StatusServiceUnavailable, "Token validation is temporarily unavailable", nil)
	}

	writeTokenStatus(w, outcome)
	return nil
}

// ConsumeToken godoc
// @Summary      Consume a single-use token
// @Description  Accepts an invitation (creating the account), finalizes a password reset, or completes an activation. At most one caller can ever win the consumption.
// @Tags         tokens
// @Accept       json
// @Produce      json
// @Param        value path string true "Raw token value"
// @Param        request body model.ConsumeTokenRequest false "Finalization payload"
// @Success      200 {object} tokenStatusResponse
// @Router       /tokens/{value}/consume [post]
func (h *TokenHandler) ConsumeToken(w http.ResponseWriter, r *http.Request) *common.AppError {
	raw := r.PathValue("value")

	var req model.ConsumeTokenRequest
	if r.Body != nil && r.ContentLength != 0 {
		if !common.ValidateAndDecode(w, r, &req) {
			return nil
		}
	}

	// Validate before consuming so a bad payload does not burn the token.
	peek := h.Tokens.Validate(r.Context(), raw)
	if peek.OK {
		if appErr := h.checkConsumePayload(peek.Token, &req); appErr != nil {
			return appErr
		}
	}

	outcome := h.Tokens.Consume(r.Context(), raw)
	if outcome.Reason == service.ReasonStoreUnavailable {
		return common.NewAppError(http.StatusServiceUnavailable, "Token consumption is temporarily unavailable", nil)
	}
	if !outcome.OK {
		writeTokenStatus(w, outcome)
		return nil
	}

	if appErr := h.finalizeConsume(r, outcome.Token, &req); appErr != nil {
		return appErr
	}

	writeTokenStatus(w, outcome)
	return nil
}

// CancelInvitation godoc
// @Summary      Cancel a pending invitation
// @Description  Idempotent: cancelling an already-terminal token is a no-op.
// @Tags         tokens
// @Security     BearerAuth
// @Param        value path string true "Raw token value"
// @Success      204
// @Router       /api/admin/invitations/{value} [delete]
func (h *TokenHandler) CancelInvitation(w http.ResponseWriter, r *http.Request) *common.AppError {
	raw := r.PathValue("value")

	outcome := h.Tokens.Cancel(r.Context(), raw)
	switch outcome.Reason {
	case service.ReasonStoreUnavailable:
		return common.NewAppError(http.StatusServiceUnavailable, "Cancellation is temporarily unavailable", nil)
	case service.ReasonInvalid:
		return common.NewAppError(http.StatusNotFound, "Unknown invitation", nil)
	}

	w.WriteHeader(http.StatusNoContent)
	return nil
}

func (h *TokenHandler) checkConsumePayload(token *model.SingleUseToken, req *model.ConsumeTokenRequest) *common.AppError {
	switch token.Purpose {
	case model.PurposeInvitation:
		if req.Name == "" || req.Password == "" {
			return common.NewAppError(http.StatusBadRequest, "Name and password are required to accept an invitation", nil)
		}
	case model.PurposePasswordReset:
		if req.Password == "" {
			return common.NewAppError(http.StatusBadRequest, "A new password is required", nil)
		}
	}
	return nil
}

// finalizeConsume applies the side effect the consumed token authorizes.
func (h *TokenHandler) finalizeConsume(r *http.Request, token *model.SingleUseToken, req *model.ConsumeTokenRequest) *common.AppError {
	if token == nil {
		return nil
	}

	switch token.Purpose {
	case model.PurposeInvitation:
		hashed, err := h.AuthService.HashPassword(req.Password)
		if err != nil {
			return common.NewAppError(http.StatusInternalServerError, "Could not create account", err)
		}
		role := token.Role
		if role == "" {
			role = string(model.RoleRecruiter)
		}
		user := &model.User{
			Name:     req.Name,
			Email:    token.Email,
			Password: hashed,
			Role:     role,
		}
		if err := h.UserRepo.CreateUser(r.Context(), user); err != nil {
			return common.NewAppError(http.StatusInternalServerError, "Could not create account", err)
		}
	case model.PurposePasswordReset:
		if token.UserID == nil {
			return common.NewAppError(http.StatusInternalServerError, "Reset token is missing its account", nil)
		}
		hashed, err := h.AuthService.HashPassword(req.Password)
		if err != nil {
			return common.NewAppError(http.StatusInternalServerError, "Could not update password", err)
		}
		if err := h.UserRepo.UpdateUserPassword(r.Context(), *token.UserID, hashed); err != nil {
			return common.NewAppError(http.StatusInternalServerError, "Could not update password", err)
		}
	}
	return nil
}

func writeTokenStatus(w http.ResponseWriter, outcome service.TokenOutcome) {
	resp := tokenStatusResponse{Valid: outcome.OK}

	if !outcome.OK {
		switch outcome.Reason {
		case service.ReasonAlreadyUsed:
			resp.Reason = "already_used"
		case service.ReasonExpired:
			resp.Reason = "expired"
		case service.ReasonRevoked:
			resp.Reason = "revoked"
		default:
			resp.Reason = "invalid"
		}
	} else if outcome.Token != nil {
		resp.Purpose = string(outcome.Token.Purpose)
		resp.Email = outcome.Token.Email
	}

	w.Header().Set("Content-Type", "application/json")
	if !resp.Valid {
		w.WriteHeader(http.StatusUnprocessableEntity)
	}
	json.NewEncoder(w).Encode(resp)
}
