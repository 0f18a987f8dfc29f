package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/eventide/conreg-api/internal/models"
)

type APITokenRepository struct {
	db *sqlx.DB
}

func NewAPITokenRepository(db *sqlx.DB) *APITokenRepository {
	return &APITokenRepository{db: db}
}

func (r *APITokenRepository) List(ctx context.Context, filter models.APITokenFilter) ([]models.APIToken, error) {
	query := `SELECT id, admin_account_id, name, description, token, issued_time, revoked_time
		FROM api_tokens`

	var conds []string
	var args []interface{}
	if filter.AdminAccountID != "" {
		args = append(args, filter.AdminAccountID)
		conds = append(conds, fmt.Sprintf("admin_account_id = $%d", len(args)))
	}
	if !filter.ShowRevoked {
		conds = append(conds, "revoked_time IS NULL")
	}
	if len(conds) > 0 {
		query += " WHERE " + strings.Join(conds, " AND ")
	}
	query += " ORDER BY issued_time"

	tokens := []models.APIToken{}
	if err := r.db.SelectContext(ctx, &tokens, query, args...); err != nil {
		return nil, fmt.Errorf("list api tokens: %w", err)
	}
	return tokens, nil
}

func (r *APITokenRepository) FindByID(ctx context.Context, id string) (*models.APIToken, error) {
	var token models.APIToken
	query := `SELECT id, admin_account_id, name, description, token, issued_time, revoked_time
		FROM api_tokens WHERE id = $1`
	if err := r.db.GetContext(ctx, &token, query, id); err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("find api token: %w", err)
	}
	return &token, nil
}

func (r *APITokenRepository) Create(ctx context.Context, token *models.APIToken) error {
	if token.ID == "" {
		token.ID = uuid.NewString()
	}
	if token.IssuedTime.IsZero() {
		token.IssuedTime = time.Now().UTC()
	}

	query := `INSERT INTO api_tokens (id, admin_account_id, name, description, token, issued_time)
		VALUES (:id, :admin_account_id, :name, :description, :token, :issued_time)`
	if _, err := r.db.NamedExecContext(ctx, query, token); err != nil {
		return fmt.Errorf("create api token: %w", err)
	}
	return nil
}

// Revoke stamps the token's revoked_time. Revoking an already revoked or
// unknown token reports sql.ErrNoRows.
func (r *APITokenRepository) Revoke(ctx context.Context, id string, at time.Time) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE api_tokens SET revoked_time = $1 WHERE id = $2 AND revoked_time IS NULL`, at, id)
	if err != nil {
		return fmt.Errorf("revoke api token: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("revoke api token: %w", err)
	}
	if n == 0 {
		return sql.ErrNoRows
	}
	return nil
}
