// file: service/single_use_token_service.go

package service

import (
	"context"
	"database/sql"
	"go-recruit-auth/config"
	"go-recruit-auth/logger"
	"go-recruit-auth/model"
	"go-recruit-auth/repository"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

// TokenOutcome is the discriminated result of validating or consuming a
// single-use token. When OK is false, Reason carries the typed failure; the
// HTTP boundary is responsible for collapsing reasons that would aid
// enumeration (a missing record and a hash mismatch both read as INVALID
// already at this layer).
type TokenOutcome struct {
	OK     bool
	Reason Reason
	Token  *model.SingleUseToken
}

// SingleUseTokenService manages the lifecycle of invitation, activation and
// password-reset tokens: pending -> {accepted | expired | cancelled |
// revoked}, leaving pending exactly once.
type SingleUseTokenService struct {
	repo  repository.ISingleUseTokenRepository
	clock Clock
}

// NewSingleUseTokenService creates a new SingleUseTokenService.
func NewSingleUseTokenService(repo repository.ISingleUseTokenRepository) *SingleUseTokenService {
	return &SingleUseTokenService{
		repo:  repo,
		clock: systemClock{},
	}
}

// WithClock overrides the time source, primarily for tests.
func (s *SingleUseTokenService) WithClock(clock Clock) *SingleUseTokenService {
	if clock != nil {
		s.clock = clock
	}
	return s
}

// Create mints a new single-use token for the given purpose and returns the
// raw secret exactly once, for embedding in the emailed link. Only the
// SHA-256 hash is stored.
func (s *SingleUseTokenService) Create(ctx context.Context, purpose model.TokenPurpose, userID *int, email, role string) (string, *model.SingleUseToken, error) {
	raw, err := generateSecret()
	if err != nil {
		logger.Log.WithError(err).Error("Failed to generate single-use token secret")
		return "", nil, err
	}

	now := s.clock.Now()
	token := &model.SingleUseToken{
		ID:        uuid.NewString(),
		Purpose:   purpose,
		TokenHash: hashSecret(raw),
		UserID:    userID,
		Email:     email,
		Role:      role,
		Status:    model.StatusPending,
		ExpiresAt: now.Add(tokenTTL(purpose)),
	}

	ctx, cancel := withStoreTimeout(ctx)
	defer cancel()

	if err := s.repo.Create(ctx, token); err != nil {
		return "", nil, err
	}

	logger.Log.WithFields(logrus.Fields{
		"purpose":    purpose,
		"email":      email,
		"expires_at": token.ExpiresAt,
	}).Info("Single-use token created")

	return raw, token, nil
}

// Validate is the read-only check for a presented raw token value. It never
// mutates state: a pending token past its expiry reports EXPIRED here even
// though the stored status has not been written back yet.
func (s *SingleUseTokenService) Validate(ctx context.Context, raw string) TokenOutcome {
	ctx, cancel := withStoreTimeout(ctx)
	defer cancel()

	presented := hashSecret(raw)
	token, err := s.repo.GetByTokenHash(ctx, presented)
	if err != nil {
		if err == sql.ErrNoRows {
			return TokenOutcome{OK: false, Reason: ReasonInvalid}
		}
		logger.Log.WithError(err).Error("Single-use token lookup failed")
		return TokenOutcome{OK: false, Reason: ReasonStoreUnavailable}
	}

	// The row was found by hash, but compare again in constant time so the
	// equality check itself cannot become a timing oracle.
	if !constantTimeEquals(token.TokenHash, presented) {
		return TokenOutcome{OK: false, Reason: ReasonInvalid}
	}

	switch token.Status {
	case model.StatusAccepted:
		return TokenOutcome{OK: false, Reason: ReasonAlreadyUsed, Token: token}
	case model.StatusCancelled, model.StatusRevoked:
		return TokenOutcome{OK: false, Reason: ReasonRevoked, Token: token}
	case model.StatusExpired:
		return TokenOutcome{OK: false, Reason: ReasonExpired, Token: token}
	}

	if s.clock.Now().After(token.ExpiresAt) {
		return TokenOutcome{OK: false, Reason: ReasonExpired, Token: token}
	}

	return TokenOutcome{OK: true, Token: token}
}

// Consume transitions a pending, unexpired token to accepted. The transition
// is one conditional UPDATE in the store, so two racing consumers resolve to
// exactly one winner; the loser comes back here with no affected row and is
// mapped through Validate to the precise failure reason.
func (s *SingleUseTokenService) Consume(ctx context.Context, raw string) TokenOutcome {
	callCtx, cancel := withStoreTimeout(ctx)
	defer cancel()

	presented := hashSecret(raw)
	now := s.clock.Now()

	won, err := s.repo.Consume(callCtx, presented, now)
	if err != nil {
		logger.Log.WithError(err).Error("Single-use token consume failed")
		return TokenOutcome{OK: false, Reason: ReasonStoreUnavailable}
	}

	if !won {
		// Nothing matched the conditional update; re-read to find out why.
		outcome := s.Validate(ctx, raw)
		if outcome.OK {
			// Still reads as consumable, yet our UPDATE matched nothing.
			// Whatever raced us, this caller did not win.
			return TokenOutcome{OK: false, Reason: ReasonAlreadyUsed, Token: outcome.Token}
		}
		return outcome
	}

	token, err := s.repo.GetByTokenHash(callCtx, presented)
	if err != nil {
		// The consume already succeeded; losing the re-read only loses
		// metadata for the response, not the transition itself.
		logger.Log.WithError(err).Warn("Consumed single-use token but failed to re-read record")
		return TokenOutcome{OK: true}
	}

	logger.Log.WithFields(logrus.Fields{
		"purpose": token.Purpose,
		"email":   token.Email,
	}).Info("Single-use token consumed")

	return TokenOutcome{OK: true, Token: token}
}

// Cancel moves a pending token to cancelled. Cancelling a token that already
// reached a terminal state is a no-op, not an error.
func (s *SingleUseTokenService) Cancel(ctx context.Context, raw string) TokenOutcome {
	return s.terminate(ctx, raw, model.StatusCancelled)
}

// Revoke moves a pending token to revoked. Idempotent like Cancel.
func (s *SingleUseTokenService) Revoke(ctx context.Context, raw string) TokenOutcome {
	return s.terminate(ctx, raw, model.StatusRevoked)
}

func (s *SingleUseTokenService) terminate(ctx context.Context, raw string, status model.TokenStatus) TokenOutcome {
	ctx, cancel := withStoreTimeout(ctx)
	defer cancel()

	presented := hashSecret(raw)
	changed, err := s.repo.UpdateStatus(ctx, presented, status)
	if err != nil {
		logger.Log.WithError(err).Error("Single-use token status update failed")
		return TokenOutcome{OK: false, Reason: ReasonStoreUnavailable}
	}
	if changed {
		return TokenOutcome{OK: true}
	}

	// No row changed: either the token does not exist, or it is already
	// terminal. Only the former is an error.
	token, err := s.repo.GetByTokenHash(ctx, presented)
	if err != nil {
		if err == sql.ErrNoRows {
			return TokenOutcome{OK: false, Reason: ReasonInvalid}
		}
		return TokenOutcome{OK: false, Reason: ReasonStoreUnavailable}
	}
	return TokenOutcome{OK: true, Token: token}
}

// SweepExpired deletes rows whose expiry is older than retention. Called
// from the background maintenance loop; skipping a run is harmless.
func (s *SingleUseTokenService) SweepExpired(ctx context.Context, retention time.Duration) {
	ctx, cancel := withStoreTimeout(ctx)
	defer cancel()

	removed, err := s.repo.DeleteExpiredBefore(ctx, s.clock.Now().Add(-retention))
	if err != nil {
		logger.Log.WithError(err).Warn("Expired single-use token sweep failed")
		return
	}
	if removed > 0 {
		logger.Log.WithField("removed", removed).Info("Swept expired single-use tokens")
	}
}

func tokenTTL(purpose model.TokenPurpose) time.Duration {
	cfg := config.AppConfig.Tokens
	switch purpose {
	case model.PurposePasswordReset:
		return time.Duration(cfg.ResetTTLMinutes) * time.Minute
	case model.PurposeActivation:
		return time.Duration(cfg.ActivationTTLHours) * time.Hour
	default:
		return time.Duration(cfg.InvitationTTLHours) * time.Hour
	}
}
