// file: handler/auth_handler.go

package handler

import (
	"encoding/json"
	"go-recruit-auth/common"
	"go-recruit-auth/config"
	"go-recruit-auth/model"
	"go-recruit-auth/service"
	"net/http"
	"time"
)

const refreshCookieName = "refresh_token"

type AuthHandler struct {
	AuthService *service.AuthService
}

func NewAuthHandler(authService *service.AuthService) *AuthHandler {
	return &AuthHandler{AuthService: authService}
}

// Login godoc
// @Summary      Authenticate a dashboard user
// @Description  Verifies credentials and returns an access/refresh token pair. The refresh handle is also set as an HttpOnly cookie.
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        request body model.LoginRequest true "Credentials"
// @Success      200 {object} service.TokenPair
// @Failure      401 {object} common.AppError
// @Router       /login [post]
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) *common.AppError {
	var req model.LoginRequest
	if !common.ValidateAndDecode(w, r, &req) {
		return nil
	}

	pair, err := h.AuthService.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		if err == service.ErrInvalidCredentials {
			return common.NewAppError(http.StatusUnauthorized, "Invalid email or password", nil)
		}
		return common.NewAppError(http.StatusServiceUnavailable, "Authentication is temporarily unavailable", err)
	}

	setRefreshCookie(w, pair.RefreshToken)

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(pair)
	return nil
}

// Refresh godoc
// @Summary      Exchange a refresh handle for a new access token
// @Description  Reads the refresh handle from the HttpOnly cookie or the request body.
// @Tags         auth
// @Accept       json
// @Produce      json
// @Success      200 {object} map[string]string
// @Failure      401 {object} common.AppError
// @Router       /api/token/refresh [post]
func (h *AuthHandler) Refresh(w http.ResponseWriter, r *http.Request) *common.AppError {
	rawRefresh := ""
	if cookie, err := r.Cookie(refreshCookieName); err == nil {
		rawRefresh = cookie.Value
	}
	if rawRefresh == "" {
		var req model.RefreshRequest
		if !common.ValidateAndDecode(w, r, &req) {
			return nil
		}
		rawRefresh = req.RefreshToken
	}

	accessToken, err := h.AuthService.Refresh(r.Context(), rawRefresh)
	if err != nil {
		if err == service.ErrInvalidCredentials {
			return common.NewAppError(http.StatusUnauthorized, "Invalid or expired refresh token", nil)
		}
		// Store trouble never mints a token: fail closed as unauthenticated
		// at the boundary, with the real cause in the logs.
		return common.NewAppError(http.StatusServiceUnavailable, "Authentication is temporarily unavailable", err)
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]string{"access_token": accessToken})
	return nil
}

// Logout godoc
// @Summary      Invalidate the caller's refresh handles
// @Tags         auth
// @Security     BearerAuth
// @Success      204
// @Router       /api/logout [post]
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) *common.AppError {
	userID, ok := r.Context().Value(UserIDKey).(int)
	if !ok {
		return common.NewAppError(http.StatusUnauthorized, "Invalid session", nil)
	}

	if err := h.AuthService.Logout(r.Context(), userID); err != nil {
		return common.NewAppError(http.StatusServiceUnavailable, "Logout failed, please retry", err)
	}

	clearRefreshCookie(w)
	w.WriteHeader(http.StatusNoContent)
	return nil
}

func setRefreshCookie(w http.ResponseWriter, rawRefresh string) {
	http.SetCookie(w, &http.Cookie{
		Name:     refreshCookieName,
		Value:    rawRefresh,
		Path:     "/api/token",
		MaxAge:   config.AppConfig.JWT.RefreshTTLHours * 3600,
		HttpOnly: true,
		Secure:   true,
		SameSite: http.SameSiteStrictMode,
	})
}

func clearRefreshCookie(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     refreshCookieName,
		Value:    "",
		Path:     "/api/token",
		Expires:  time.Unix(0, 0),
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   true,
		SameSite: http.SameSiteStrictMode,
	})
}
