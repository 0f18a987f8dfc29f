package service

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/eventide/conreg-api/internal/dto"
	"github.com/eventide/conreg-api/internal/models"
	"github.com/eventide/conreg-api/pkg/errors"
)

const testAdminAccess = 4242

type mockTokenRepo struct {
	tokens     map[string]*models.APIToken
	lastFilter models.APITokenFilter
	created    []*models.APIToken
	revoked    map[string]time.Time
}

func newMockTokenRepo(tokens ...*models.APIToken) *mockTokenRepo {
	repo := &mockTokenRepo{
		tokens:  make(map[string]*models.APIToken),
		revoked: make(map[string]time.Time),
	}
	for _, t := range tokens {
		repo.tokens[t.ID] = t
	}
	return repo
}

func (m *mockTokenRepo) List(_ context.Context, filter models.APITokenFilter) ([]models.APIToken, error) {
	m.lastFilter = filter
	out := []models.APIToken{}
	for _, t := range m.tokens {
		if filter.AdminAccountID != "" && t.AdminAccountID != filter.AdminAccountID {
			continue
		}
		if !filter.ShowRevoked && t.Revoked() {
			continue
		}
		out = append(out, *t)
	}
	return out, nil
}

func (m *mockTokenRepo) FindByID(_ context.Context, id string) (*models.APIToken, error) {
	t, ok := m.tokens[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	return t, nil
}

func (m *mockTokenRepo) Create(_ context.Context, token *models.APIToken) error {
	if token.ID == "" {
		token.ID = "generated"
	}
	m.created = append(m.created, token)
	m.tokens[token.ID] = token
	return nil
}

func (m *mockTokenRepo) Revoke(_ context.Context, id string, at time.Time) error {
	t, ok := m.tokens[id]
	if !ok || t.Revoked() {
		return sql.ErrNoRows
	}
	t.RevokedTime = &at
	m.revoked[id] = at
	return nil
}

func ownerClaims(accountID string, access ...int) *models.JWTClaims {
	return &models.JWTClaims{AccountID: accountID, Access: access}
}

func TestTokenServiceListRestrictsToOwner(t *testing.T) {
	repo := newMockTokenRepo(
		&models.APIToken{ID: "t1", AdminAccountID: "alice"},
		&models.APIToken{ID: "t2", AdminAccountID: "bob"},
	)
	svc := NewTokenService(repo, nil, nil, testAdminAccess)

	tokens, err := svc.List(context.Background(), ownerClaims("alice"), false)
	require.NoError(t, err)
	require.Len(t, tokens, 1)
	assert.Equal(t, "t1", tokens[0].ID)
	assert.Equal(t, "alice", repo.lastFilter.AdminAccountID)
}

func TestTokenServiceListAdminSeesEverything(t *testing.T) {
	repo := newMockTokenRepo(
		&models.APIToken{ID: "t1", AdminAccountID: "alice"},
		&models.APIToken{ID: "t2", AdminAccountID: "bob"},
	)
	svc := NewTokenService(repo, nil, nil, testAdminAccess)

	tokens, err := svc.List(context.Background(), ownerClaims("alice", testAdminAccess), false)
	require.NoError(t, err)
	assert.Len(t, tokens, 2)
	assert.Empty(t, repo.lastFilter.AdminAccountID)
}

func TestTokenServiceListHidesRevokedByDefault(t *testing.T) {
	revokedAt := time.Now()
	repo := newMockTokenRepo(
		&models.APIToken{ID: "live", AdminAccountID: "alice"},
		&models.APIToken{ID: "dead", AdminAccountID: "alice", RevokedTime: &revokedAt},
	)
	svc := NewTokenService(repo, nil, nil, testAdminAccess)

	tokens, err := svc.List(context.Background(), ownerClaims("alice"), false)
	require.NoError(t, err)
	require.Len(t, tokens, 1)
	assert.Equal(t, "live", tokens[0].ID)

	tokens, err = svc.List(context.Background(), ownerClaims("alice"), true)
	require.NoError(t, err)
	assert.Len(t, tokens, 2)
}

func TestTokenServiceCreate(t *testing.T) {
	repo := newMockTokenRepo()
	svc := NewTokenService(repo, nil, nil, testAdminAccess)

	resp, err := svc.Create(context.Background(), ownerClaims("alice"), dto.CreateTokenRequest{
		Name:        "nightly sync",
		Description: "external sync job",
	})
	require.NoError(t, err)
	assert.NotEmpty(t, resp.ID)
	assert.NotEmpty(t, resp.Token)

	require.Len(t, repo.created, 1)
	assert.Equal(t, "alice", repo.created[0].AdminAccountID)
	assert.Equal(t, "nightly sync", repo.created[0].Name)
}

func TestTokenServiceCreateValidationDoesNotPersist(t *testing.T) {
	repo := newMockTokenRepo()
	svc := NewTokenService(repo, nil, nil, testAdminAccess)

	_, err := svc.Create(context.Background(), ownerClaims("alice"), dto.CreateTokenRequest{})
	require.Error(t, err)

	appErr := errors.FromError(err)
	assert.Equal(t, errors.ErrValidation.Code, appErr.Code)
	assert.Contains(t, appErr.Message, "Name")
	assert.Empty(t, repo.created, "validation failures must not write")
}

func TestTokenServiceRevoke(t *testing.T) {
	repo := newMockTokenRepo(&models.APIToken{ID: "t1", AdminAccountID: "alice"})
	svc := NewTokenService(repo, nil, nil, testAdminAccess)

	require.NoError(t, svc.Revoke(context.Background(), ownerClaims("alice"), "t1"))
	assert.Contains(t, repo.revoked, "t1")
}

func TestTokenServiceRevokeErrors(t *testing.T) {
	revokedAt := time.Now()
	repo := newMockTokenRepo(
		&models.APIToken{ID: "t1", AdminAccountID: "alice"},
		&models.APIToken{ID: "dead", AdminAccountID: "alice", RevokedTime: &revokedAt},
	)
	svc := NewTokenService(repo, nil, nil, testAdminAccess)

	err := svc.Revoke(context.Background(), ownerClaims("alice"), "missing")
	assert.Equal(t, errors.ErrNotFound.Code, errors.FromError(err).Code)

	err = svc.Revoke(context.Background(), ownerClaims("mallory"), "t1")
	assert.Equal(t, errors.ErrForbidden.Code, errors.FromError(err).Code)

	err = svc.Revoke(context.Background(), ownerClaims("alice"), "dead")
	assert.Equal(t, errors.ErrConflict.Code, errors.FromError(err).Code)

	// Full admins may revoke other accounts' tokens.
	require.NoError(t, svc.Revoke(context.Background(), ownerClaims("mallory", testAdminAccess), "t1"))
}
