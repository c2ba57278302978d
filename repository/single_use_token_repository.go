// file: repository/single_use_token_repository.go

package repository

import (
	"context"
	"database/sql"
	"go-recruit-auth/logger"
	"go-recruit-auth/model"
	"time"

	"github.com/sirupsen/logrus"
)

// ISingleUseTokenRepository defines the contract for single-use token
// database operations (invitations, activations, password resets).
type ISingleUseTokenRepository interface {
	Create(ctx context.Context, token *model.SingleUseToken) error
	GetByTokenHash(ctx context.Context, tokenHash string) (*model.SingleUseToken, error)
	Consume(ctx context.Context, tokenHash string, now time.Time) (bool, error)
	UpdateStatus(ctx context.Context, tokenHash string, status model.TokenStatus) (bool, error)
	DeleteExpiredBefore(ctx context.Context, cutoff time.Time) (int64, error)
}

// SingleUseTokenRepository implements ISingleUseTokenRepository.
type SingleUseTokenRepository struct {
	DB *sql.DB
}

// NewSingleUseTokenRepository creates a new SingleUseTokenRepository.
func NewSingleUseTokenRepository(db *sql.DB) *SingleUseTokenRepository {
	return &SingleUseTokenRepository{DB: db}
}

// Create inserts a new single-use token record. Only the hash of the raw
// secret is stored; the caller keeps the raw value for exactly one delivery.
func (r *SingleUseTokenRepository) Create(ctx context.Context, token *model.SingleUseToken) error {
	log := logger.Log.WithFields(logrus.Fields{
		"purpose":    token.Purpose,
		"email":      token.Email,
		"expires_at": token.ExpiresAt,
	})
	log.Info("Executing query to create a new single-use token")

	query := `INSERT INTO single_use_tokens (id, purpose, token_hash, user_id, email, role, status, expires_at)
	          VALUES ($1, $2, $3, $4, $5, $6, $7, $8) RETURNING created_at`
	err := r.DB.QueryRowContext(ctx, query,
		token.ID, token.Purpose, token.TokenHash, token.UserID, token.Email, token.Role, token.Status, token.ExpiresAt,
	).Scan(&token.CreatedAt)
	if err != nil {
		log.WithError(err).Error("Failed to execute create single-use token query")
		return err
	}
	return nil
}

// GetByTokenHash retrieves a single-use token by its hashed value.
func (r *SingleUseTokenRepository) GetByTokenHash(ctx context.Context, tokenHash string) (*model.SingleUseToken, error) {
	token := &model.SingleUseToken{}
	query := `SELECT id, purpose, token_hash, user_id, email, role, status, created_at, expires_at, consumed_at
	          FROM single_use_tokens WHERE token_hash = $1`
	err := r.DB.QueryRowContext(ctx, query, tokenHash).Scan(
		&token.ID, &token.Purpose, &token.TokenHash, &token.UserID, &token.Email,
		&token.Role, &token.Status, &token.CreatedAt, &token.ExpiresAt, &token.ConsumedAt,
	)
	if err != nil {
		if err != sql.ErrNoRows {
			logger.Log.WithError(err).Error("Failed to execute get single-use token by hash query")
		}
		return nil, err // Return sql.ErrNoRows if not found
	}
	return token, nil
}

// Consume flips a token from pending to accepted in a single conditional
// UPDATE. The WHERE clause carries the whole race: of two concurrent callers
// only one sees an affected row, the other gets false and must report the
// token as already used.
func (r *SingleUseTokenRepository) Consume(ctx context.Context, tokenHash string, now time.Time) (bool, error) {
	query := `UPDATE single_use_tokens
	          SET status = $1, consumed_at = $2
	          WHERE token_hash = $3 AND status = $4 AND expires_at > $2`
	result, err := r.DB.ExecContext(ctx, query, model.StatusAccepted, now, tokenHash, model.StatusPending)
	if err != nil {
		logger.Log.WithError(err).Error("Failed to execute consume single-use token query")
		return false, err
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return false, err
	}
	return affected == 1, nil
}

// UpdateStatus moves a pending token to an administrative terminal state
// (cancelled or revoked). Tokens that already left pending are untouched,
// which makes cancellation idempotent.
func (r *SingleUseTokenRepository) UpdateStatus(ctx context.Context, tokenHash string, status model.TokenStatus) (bool, error) {
	query := `UPDATE single_use_tokens SET status = $1 WHERE token_hash = $2 AND status = $3`
	result, err := r.DB.ExecContext(ctx, query, status, tokenHash, model.StatusPending)
	if err != nil {
		logger.Log.WithError(err).Error("Failed to execute update single-use token status query")
		return false, err
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return false, err
	}
	return affected == 1, nil
}

// DeleteExpiredBefore removes tokens whose expiry is past the cutoff,
// regardless of status. Run from the background sweep to bound table growth.
func (r *SingleUseTokenRepository) DeleteExpiredBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	query := `DELETE FROM single_use_tokens WHERE expires_at < $1`
	result, err := r.DB.ExecContext(ctx, query, cutoff)
	if err != nil {
		logger.Log.WithError(err).Error("Failed to execute delete expired single-use tokens query")
		return 0, err
	}
	return result.RowsAffected()
}
