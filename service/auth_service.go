// file: service/auth_service.go

package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"go-recruit-auth/config"
	"go-recruit-auth/logger"
	"go-recruit-auth/model"
	"go-recruit-auth/repository"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

// ErrInvalidCredentials is returned by Login when the email/password pair
// does not check out. It deliberately does not say which half was wrong.
var ErrInvalidCredentials = errors.New("invalid credentials")

// ErrStoreUnavailable wraps store failures on authentication paths. Callers
// must fail closed on it: treat the request as unauthenticated, never grant.
var ErrStoreUnavailable = errors.New("credential store unavailable")

// TokenPair is the result of a successful login: a short-lived access
// credential plus the raw refresh handle (returned exactly once).
type TokenPair struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
}

// TokenVerdict is the discriminated result of verifying an access credential.
type TokenVerdict struct {
	Valid  bool
	Reason Reason
}

// AuthService issues and verifies access credentials and manages the refresh
// handle flow. Access credentials are never persisted; refresh handles are
// stored hashed through the token repository.
type AuthService struct {
	userRepo  repository.IUserRepository
	tokenRepo repository.ITokenRepository
	clock     Clock
}

// NewAuthService creates a new AuthService.
func NewAuthService(userRepo repository.IUserRepository, tokenRepo repository.ITokenRepository) *AuthService {
	return &AuthService{
		userRepo:  userRepo,
		tokenRepo: tokenRepo,
		clock:     systemClock{},
	}
}

// WithClock overrides the time source, primarily for tests.
func (s *AuthService) WithClock(clock Clock) *AuthService {
	if clock != nil {
		s.clock = clock
	}
	return s
}

func getJwtKey() []byte {
	return []byte(config.AppConfig.JWT.SecretKey)
}

func (s *AuthService) HashPassword(password string) (string, error) {
	bytes, err := bcrypt.GenerateFromPassword([]byte(password), 14)
	if err != nil {
		logger.Log.WithError(err).Error("Failed to hash password")
		return "", err
	}
	return string(bytes), err
}

func (s *AuthService) CheckPasswordHash(password, hash string) bool {
	err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(password))
	return err == nil
}

// IssueAccessToken encodes and signs the claims for one subject. The only
// failure mode is a signing problem, which signals misconfiguration; the
// missing-key case is already caught at startup by config.LoadConfig.
func (s *AuthService) IssueAccessToken(userID int, role string, extra map[string]interface{}, ttl time.Duration) (string, error) {
	now := s.clock.Now()

	claims := &model.AppClaims{
		UserID: userID,
		Role:   role,
		Extra:  extra,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   fmt.Sprintf("%d", userID),
			ID:        uuid.NewString(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	tokenString, err := token.SignedString(getJwtKey())
	if err != nil {
		logger.Log.WithError(err).WithField("user_id", userID).Error("Failed to sign access token")
		return "", fmt.Errorf("failed to sign token string: %w", err)
	}

	return tokenString, nil
}

// VerifyAccessToken decodes the token, checks the signature and the expiry.
// Malformed or hostile input never produces an error, only an invalid
// verdict with a typed reason.
func (s *AuthService) VerifyAccessToken(tokenString string) (*model.AppClaims, TokenVerdict) {
	claims := &model.AppClaims{}

	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		return getJwtKey(), nil
	}, jwt.WithValidMethods([]string{"HS256"}), jwt.WithTimeFunc(s.clock.Now))

	if err != nil {
		switch {
		case errors.Is(err, jwt.ErrTokenExpired):
			return nil, TokenVerdict{Valid: false, Reason: ReasonExpired}
		case errors.Is(err, jwt.ErrTokenSignatureInvalid):
			return nil, TokenVerdict{Valid: false, Reason: ReasonBadSignature}
		default:
			return nil, TokenVerdict{Valid: false, Reason: ReasonMalformed}
		}
	}

	if !token.Valid {
		return nil, TokenVerdict{Valid: false, Reason: ReasonBadSignature}
	}

	return claims, TokenVerdict{Valid: true}
}

// IsExpiringSoon reports whether the token's expiry falls within buffer from
// now. Pure read, no side effects; callers use it to refresh proactively.
// Unreadable tokens and tokens without an expiry report true, since the
// caller cannot keep using them either way.
func (s *AuthService) IsExpiringSoon(tokenString string, buffer time.Duration) bool {
	claims := &model.AppClaims{}
	parser := jwt.NewParser()
	if _, _, err := parser.ParseUnverified(tokenString, claims); err != nil {
		return true
	}
	if claims.ExpiresAt == nil {
		return true
	}
	return claims.ExpiresAt.Time.Sub(s.clock.Now()) <= buffer
}

// Login checks the password and mints a token pair. The raw refresh handle
// is returned here once; only its hash is stored.
func (s *AuthService) Login(ctx context.Context, email, password string) (*TokenPair, error) {
	ctx, cancel := withStoreTimeout(ctx)
	defer cancel()

	user, err := s.userRepo.GetUserByEmail(ctx, email)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, ErrInvalidCredentials
		}
		logger.Log.WithError(err).Error("User lookup failed during login")
		return nil, ErrStoreUnavailable
	}

	if !s.CheckPasswordHash(password, user.Password) {
		return nil, ErrInvalidCredentials
	}

	accessToken, err := s.IssueAccessToken(user.ID, user.Role, nil, accessTTL())
	if err != nil {
		return nil, err
	}

	rawRefresh, err := generateSecret()
	if err != nil {
		return nil, err
	}

	refreshToken := &model.RefreshToken{
		UserID:    user.ID,
		TokenHash: hashSecret(rawRefresh),
		ExpiresAt: s.clock.Now().Add(refreshTTL()),
	}
	if err := s.tokenRepo.Create(ctx, refreshToken); err != nil {
		return nil, ErrStoreUnavailable
	}

	return &TokenPair{AccessToken: accessToken, RefreshToken: rawRefresh}, nil
}

// Refresh validates the presented refresh handle against the store and
// issues a new access credential. Any store failure fails closed.
//
// The handle itself is not rotated on use: the same raw value keeps working
// until expiry or logout. Rotating here would harden against handle theft
// but immediately invalidates the client's old handle, so it is left as an
// explicit behavior change for a future release.
func (s *AuthService) Refresh(ctx context.Context, rawRefreshToken string) (string, error) {
	ctx, cancel := withStoreTimeout(ctx)
	defer cancel()

	stored, err := s.tokenRepo.GetByTokenHash(ctx, hashSecret(rawRefreshToken))
	if err != nil {
		if err == sql.ErrNoRows {
			return "", ErrInvalidCredentials
		}
		logger.Log.WithError(err).Error("Refresh token lookup failed")
		return "", ErrStoreUnavailable
	}

	if s.clock.Now().After(stored.ExpiresAt) {
		return "", ErrInvalidCredentials
	}

	user, err := s.userRepo.GetUserByID(ctx, stored.UserID)
	if err != nil {
		if err == sql.ErrNoRows {
			return "", ErrInvalidCredentials
		}
		logger.Log.WithError(err).Error("User lookup failed during refresh")
		return "", ErrStoreUnavailable
	}

	return s.IssueAccessToken(user.ID, user.Role, nil, accessTTL())
}

// Logout invalidates every refresh handle held for the user.
func (s *AuthService) Logout(ctx context.Context, userID int) error {
	ctx, cancel := withStoreTimeout(ctx)
	defer cancel()

	if err := s.tokenRepo.DeleteByUserID(ctx, userID); err != nil {
		return ErrStoreUnavailable
	}
	return nil
}

func accessTTL() time.Duration {
	return time.Duration(config.AppConfig.JWT.AccessTTLMin) * time.Minute
}

func refreshTTL() time.Duration {
	return time.Duration(config.AppConfig.JWT.RefreshTTLHours) * time.Hour
}
