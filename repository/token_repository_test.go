// file: repository/token_repository_test.go

package repository

import (
	"context"
	"database/sql"
	"go-recruit-auth/model"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
)

func TestTokenRepository_Create(t *testing.T) {
	db, mock, err := sqlmock.New()
	assert.NoError(t, err)
	defer db.Close()

	repo := NewTokenRepository(db)
	now := time.Now()
	token := &model.RefreshToken{
		UserID:    7,
		TokenHash: "a-64-char-hash",
		ExpiresAt: now.Add(168 * time.Hour),
	}

	mock.ExpectQuery(regexp.QuoteMeta(`INSERT INTO refresh_tokens (user_id, token_hash, expires_at)`)).
		WithArgs(token.UserID, token.TokenHash, token.ExpiresAt).
		WillReturnRows(sqlmock.NewRows([]string{"id", "created_at"}).AddRow(1, now))

	err = repo.Create(context.Background(), token)
	assert.NoError(t, err)
	assert.Equal(t, 1, token.ID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestTokenRepository_GetByTokenHash(t *testing.T) {
	db, mock, err := sqlmock.New()
	assert.NoError(t, err)
	defer db.Close()

	repo := NewTokenRepository(db)
	now := time.Now()

	rows := sqlmock.NewRows([]string{"id", "user_id", "token_hash", "expires_at", "created_at"}).
		AddRow(1, 7, "hash-1", now.Add(time.Hour), now)

	mock.ExpectQuery(regexp.QuoteMeta(`SELECT id, user_id, token_hash, expires_at, created_at FROM refresh_tokens`)).
		WithArgs("hash-1").
		WillReturnRows(rows)

	token, err := repo.GetByTokenHash(context.Background(), "hash-1")
	assert.NoError(t, err)
	assert.Equal(t, 7, token.UserID)
	assert.Equal(t, "hash-1", token.TokenHash)

	mock.ExpectQuery(regexp.QuoteMeta(`SELECT id, user_id, token_hash, expires_at, created_at FROM refresh_tokens`)).
		WithArgs("missing").
		WillReturnError(sql.ErrNoRows)

	_, err = repo.GetByTokenHash(context.Background(), "missing")
	assert.ErrorIs(t, err, sql.ErrNoRows)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestTokenRepository_DeleteByUserID(t *testing.T) {
	db, mock, err := sqlmock.New()
	assert.NoError(t, err)
	defer db.Close()

	repo := NewTokenRepository(db)

	mock.ExpectExec(regexp.QuoteMeta(`DELETE FROM refresh_tokens WHERE user_id = $1`)).
		WithArgs(7).
		WillReturnResult(sqlmock.NewResult(0, 2))

	assert.NoError(t, repo.DeleteByUserID(context.Background(), 7))
	assert.NoError(t, mock.ExpectationsWereMet())
}
