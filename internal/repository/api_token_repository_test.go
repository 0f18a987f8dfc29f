package repository

import (
	"context"
	"database/sql"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/eventide/conreg-api/internal/models"
)

func newMockDB(t *testing.T) (*sqlx.DB, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return sqlx.NewDb(db, "sqlmock"), mock
}

func tokenRows(tokens ...models.APIToken) *sqlmock.Rows {
	rows := sqlmock.NewRows([]string{
		"id", "admin_account_id", "name", "description", "token", "issued_time", "revoked_time",
	})
	for _, tk := range tokens {
		rows.AddRow(tk.ID, tk.AdminAccountID, tk.Name, tk.Description, tk.Token, tk.IssuedTime, tk.RevokedTime)
	}
	return rows
}

func TestAPITokenRepositoryList(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewAPITokenRepository(db)

	issued := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	mock.ExpectQuery(regexp.QuoteMeta(
		`SELECT id, admin_account_id, name, description, token, issued_time, revoked_time
		FROM api_tokens WHERE admin_account_id = $1 AND revoked_time IS NULL ORDER BY issued_time`)).
		WithArgs("acct-1").
		WillReturnRows(tokenRows(models.APIToken{
			ID: "tok-1", AdminAccountID: "acct-1", Name: "sync", Token: "t", IssuedTime: issued,
		}))

	tokens, err := repo.List(context.Background(), models.APITokenFilter{AdminAccountID: "acct-1"})
	require.NoError(t, err)
	require.Len(t, tokens, 1)
	assert.Equal(t, "sync", tokens[0].Name)
	assert.False(t, tokens[0].Revoked())
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAPITokenRepositoryListShowRevoked(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewAPITokenRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta(
		`SELECT id, admin_account_id, name, description, token, issued_time, revoked_time
		FROM api_tokens ORDER BY issued_time`)).
		WillReturnRows(tokenRows())

	_, err := repo.List(context.Background(), models.APITokenFilter{ShowRevoked: true})
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAPITokenRepositoryFindByIDNotFound(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewAPITokenRepository(db)

	mock.ExpectQuery("SELECT").WithArgs("missing").WillReturnError(sql.ErrNoRows)

	_, err := repo.FindByID(context.Background(), "missing")
	assert.ErrorIs(t, err, sql.ErrNoRows)
}

func TestAPITokenRepositoryCreate(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewAPITokenRepository(db)

	mock.ExpectExec(regexp.QuoteMeta(`INSERT INTO api_tokens`)).
		WillReturnResult(sqlmock.NewResult(0, 1))

	token := &models.APIToken{AdminAccountID: "acct-1", Name: "sync", Token: "opaque"}
	require.NoError(t, repo.Create(context.Background(), token))
	assert.NotEmpty(t, token.ID, "missing ids are generated")
	assert.False(t, token.IssuedTime.IsZero())
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAPITokenRepositoryRevoke(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewAPITokenRepository(db)
	at := time.Date(2026, 2, 1, 0, 0, 0, 0, time.UTC)

	mock.ExpectExec(regexp.QuoteMeta(
		`UPDATE api_tokens SET revoked_time = $1 WHERE id = $2 AND revoked_time IS NULL`)).
		WithArgs(at, "tok-1").
		WillReturnResult(sqlmock.NewResult(0, 1))
	require.NoError(t, repo.Revoke(context.Background(), "tok-1", at))

	mock.ExpectExec("UPDATE api_tokens").
		WithArgs(at, "tok-1").
		WillReturnResult(sqlmock.NewResult(0, 0))
	err := repo.Revoke(context.Background(), "tok-1", at)
	assert.ErrorIs(t, err, sql.ErrNoRows, "already revoked tokens are not re-stamped")
}
