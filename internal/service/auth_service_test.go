package service

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/eventide/conreg-api/internal/models"
	"github.com/eventide/conreg-api/pkg/config"
	"github.com/eventide/conreg-api/pkg/errors"
)

type mockAccountRepo struct {
	accounts map[string]*models.AdminAccount
}

func (m *mockAccountRepo) FindByEmail(_ context.Context, email string) (*models.AdminAccount, error) {
	for _, a := range m.accounts {
		if a.Email == email {
			return a, nil
		}
	}
	return nil, sql.ErrNoRows
}

func (m *mockAccountRepo) FindByID(_ context.Context, id string) (*models.AdminAccount, error) {
	a, ok := m.accounts[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	return a, nil
}

func testAuthService(t *testing.T) (*AuthService, *models.AdminAccount) {
	t.Helper()
	hash, err := bcrypt.GenerateFromPassword([]byte("hunter22"), bcrypt.MinCost)
	require.NoError(t, err)

	acct := &models.AdminAccount{
		ID:           "acct-1",
		Email:        "alice@example.test",
		PasswordHash: string(hash),
		FullName:     "Alice",
		Access:       "100,200",
	}
	repo := &mockAccountRepo{accounts: map[string]*models.AdminAccount{acct.ID: acct}}
	svc := NewAuthService(repo, nil, nil, config.JWTConfig{
		Secret:     "test-secret",
		Expiration: time.Hour,
		Issuer:     "conreg-api",
	})
	return svc, acct
}

func TestAuthServiceLogin(t *testing.T) {
	svc, acct := testAuthService(t)

	resp, err := svc.Login(context.Background(), models.LoginRequest{
		Email:    acct.Email,
		Password: "hunter22",
	})
	require.NoError(t, err)
	assert.NotEmpty(t, resp.AccessToken)
	assert.Equal(t, acct.ID, resp.Account.ID)

	claims, err := svc.ValidateToken(resp.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, acct.ID, claims.AccountID)
	assert.Equal(t, []int{100, 200}, claims.Access)
	assert.True(t, claims.HasAccess(200))
	assert.False(t, claims.HasAccess(999))
}

func TestAuthServiceLoginFailures(t *testing.T) {
	svc, acct := testAuthService(t)
	ctx := context.Background()

	_, err := svc.Login(ctx, models.LoginRequest{Email: acct.Email, Password: "wrong"})
	assert.Equal(t, errors.ErrInvalidCredentials.Code, errors.FromError(err).Code)

	_, err = svc.Login(ctx, models.LoginRequest{Email: "nobody@example.test", Password: "hunter22"})
	assert.Equal(t, errors.ErrInvalidCredentials.Code, errors.FromError(err).Code,
		"unknown accounts look identical to bad passwords")

	_, err = svc.Login(ctx, models.LoginRequest{Email: "not-an-email", Password: ""})
	assert.Equal(t, errors.ErrValidation.Code, errors.FromError(err).Code)
}

func TestAuthServiceValidateTokenRejectsGarbage(t *testing.T) {
	svc, _ := testAuthService(t)
	_, err := svc.ValidateToken("not.a.jwt")
	assert.Error(t, err)
}
