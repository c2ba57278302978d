// file: repository/single_use_token_repository_test.go

package repository

import (
	"context"
	"database/sql"
	"errors"
	"go-recruit-auth/model"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
)

func TestSingleUseTokenRepository_Create(t *testing.T) {
	db, mock, err := sqlmock.New()
	assert.NoError(t, err)
	defer db.Close()

	repo := NewSingleUseTokenRepository(db)
	now := time.Now()
	token := &model.SingleUseToken{
		ID:        "0c32b7a1-9f6e-4a21-8a3e-2f6f5f8c1d44",
		Purpose:   model.PurposeInvitation,
		TokenHash: "a-64-char-hash",
		Email:     "newhire@example.com",
		Role:      "recruiter",
		Status:    model.StatusPending,
		ExpiresAt: now.Add(24 * time.Hour),
	}

	mock.ExpectQuery(regexp.QuoteMeta(`INSERT INTO single_use_tokens`)).
		WithArgs(token.ID, token.Purpose, token.TokenHash, nil, token.Email, token.Role, token.Status, token.ExpiresAt).
		WillReturnRows(sqlmock.NewRows([]string{"created_at"}).AddRow(now))

	err = repo.Create(context.Background(), token)
	assert.NoError(t, err)
	assert.Equal(t, now, token.CreatedAt)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSingleUseTokenRepository_GetByTokenHash(t *testing.T) {
	db, mock, err := sqlmock.New()
	assert.NoError(t, err)
	defer db.Close()

	repo := NewSingleUseTokenRepository(db)
	now := time.Now()
	userID := 7

	rows := sqlmock.NewRows([]string{"id", "purpose", "token_hash", "user_id", "email", "role", "status", "created_at", "expires_at", "consumed_at"}).
		AddRow("0c32b7a1-9f6e-4a21-8a3e-2f6f5f8c1d44", "password_reset", "hash-1", userID, "agent@example.com", "", "pending", now, now.Add(30*time.Minute), nil)

	mock.ExpectQuery(regexp.QuoteMeta(`SELECT id, purpose, token_hash, user_id, email, role, status, created_at, expires_at, consumed_at`)).
		WithArgs("hash-1").
		WillReturnRows(rows)

	token, err := repo.GetByTokenHash(context.Background(), "hash-1")
	assert.NoError(t, err)
	assert.Equal(t, model.PurposePasswordReset, token.Purpose)
	assert.Equal(t, &userID, token.UserID)
	assert.Nil(t, token.ConsumedAt)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSingleUseTokenRepository_GetByTokenHash_NotFound(t *testing.T) {
	db, mock, err := sqlmock.New()
	assert.NoError(t, err)
	defer db.Close()

	repo := NewSingleUseTokenRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta(`SELECT id, purpose, token_hash`)).
		WithArgs("missing").
		WillReturnError(sql.ErrNoRows)

	_, err = repo.GetByTokenHash(context.Background(), "missing")
	assert.ErrorIs(t, err, sql.ErrNoRows)
}

// TestSingleUseTokenRepository_Consume drives both sides of the conditional
// update: one affected row means the caller won, zero means somebody else
// got there first (or the token expired).
func TestSingleUseTokenRepository_Consume(t *testing.T) {
	db, mock, err := sqlmock.New()
	assert.NoError(t, err)
	defer db.Close()

	repo := NewSingleUseTokenRepository(db)
	now := time.Now()

	mock.ExpectExec(regexp.QuoteMeta(`UPDATE single_use_tokens`)).
		WithArgs(model.StatusAccepted, now, "hash-1", model.StatusPending).
		WillReturnResult(sqlmock.NewResult(0, 1))

	won, err := repo.Consume(context.Background(), "hash-1", now)
	assert.NoError(t, err)
	assert.True(t, won)

	mock.ExpectExec(regexp.QuoteMeta(`UPDATE single_use_tokens`)).
		WithArgs(model.StatusAccepted, now, "hash-1", model.StatusPending).
		WillReturnResult(sqlmock.NewResult(0, 0))

	won, err = repo.Consume(context.Background(), "hash-1", now)
	assert.NoError(t, err)
	assert.False(t, won)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSingleUseTokenRepository_Consume_DBError(t *testing.T) {
	db, mock, err := sqlmock.New()
	assert.NoError(t, err)
	defer db.Close()

	repo := NewSingleUseTokenRepository(db)

	mock.ExpectExec(regexp.QuoteMeta(`UPDATE single_use_tokens`)).
		WillReturnError(errors.New("connection refused"))

	_, err = repo.Consume(context.Background(), "hash-1", time.Now())
	assert.Error(t, err)
}

func TestSingleUseTokenRepository_UpdateStatus(t *testing.T) {
	db, mock, err := sqlmock.New()
	assert.NoError(t, err)
	defer db.Close()

	repo := NewSingleUseTokenRepository(db)

	mock.ExpectExec(regexp.QuoteMeta(`UPDATE single_use_tokens SET status`)).
		WithArgs(model.StatusCancelled, "hash-1", model.StatusPending).
		WillReturnResult(sqlmock.NewResult(0, 1))

	changed, err := repo.UpdateStatus(context.Background(), "hash-1", model.StatusCancelled)
	assert.NoError(t, err)
	assert.True(t, changed)

	// A token already out of pending is left alone.
	mock.ExpectExec(regexp.QuoteMeta(`UPDATE single_use_tokens SET status`)).
		WithArgs(model.StatusCancelled, "hash-1", model.StatusPending).
		WillReturnResult(sqlmock.NewResult(0, 0))

	changed, err = repo.UpdateStatus(context.Background(), "hash-1", model.StatusCancelled)
	assert.NoError(t, err)
	assert.False(t, changed)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSingleUseTokenRepository_DeleteExpiredBefore(t *testing.T) {
	db, mock, err := sqlmock.New()
	assert.NoError(t, err)
	defer db.Close()

	repo := NewSingleUseTokenRepository(db)
	cutoff := time.Now().Add(-7 * 24 * time.Hour)

	mock.ExpectExec(regexp.QuoteMeta(`DELETE FROM single_use_tokens WHERE expires_at < $1`)).
		WithArgs(cutoff).
		WillReturnResult(sqlmock.NewResult(0, 3))

	removed, err := repo.DeleteExpiredBefore(context.Background(), cutoff)
	assert.NoError(t, err)
	assert.Equal(t, int64(3), removed)
	assert.NoError(t, mock.ExpectationsWereMet())
}
