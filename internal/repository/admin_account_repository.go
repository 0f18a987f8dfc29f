package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/eventide/conreg-api/internal/models"
)

type AdminAccountRepository struct {
	db *sqlx.DB
}

func NewAdminAccountRepository(db *sqlx.DB) *AdminAccountRepository {
	return &AdminAccountRepository{db: db}
}

func (r *AdminAccountRepository) FindByEmail(ctx context.Context, email string) (*models.AdminAccount, error) {
	var acct models.AdminAccount
	query := `SELECT id, email, password_hash, full_name, access, created_at, updated_at
		FROM admin_accounts WHERE LOWER(email) = LOWER($1)`
	if err := r.db.GetContext(ctx, &acct, query, email); err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("find admin account by email: %w", err)
	}
	return &acct, nil
}

func (r *AdminAccountRepository) FindByID(ctx context.Context, id string) (*models.AdminAccount, error) {
	var acct models.AdminAccount
	query := `SELECT id, email, password_hash, full_name, access, created_at, updated_at
		FROM admin_accounts WHERE id = $1`
	if err := r.db.GetContext(ctx, &acct, query, id); err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("find admin account: %w", err)
	}
	return &acct, nil
}

// AccessSet satisfies eventconfig.AccessSource. Unknown accounts resolve to
// an empty set rather than an error so stale sessions degrade to no access.
func (r *AdminAccountRepository) AccessSet(ctx context.Context, accountID string) (map[int]struct{}, error) {
	acct, err := r.FindByID(ctx, accountID)
	if err != nil {
		if err == sql.ErrNoRows {
			return map[int]struct{}{}, nil
		}
		return nil, err
	}
	set := make(map[int]struct{})
	for _, v := range acct.AccessInts() {
		set[v] = struct{}{}
	}
	return set, nil
}
