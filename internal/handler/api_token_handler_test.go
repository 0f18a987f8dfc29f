package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/eventide/conreg-api/internal/dto"
	"github.com/eventide/conreg-api/internal/middleware"
	"github.com/eventide/conreg-api/internal/models"
	"github.com/eventide/conreg-api/pkg/errors"
)

const tokenBasePath = "/api/v1/api-tokens"

type stubTokenService struct {
	listFn   func(claims *models.JWTClaims, showRevoked bool) ([]models.APIToken, error)
	createFn func(claims *models.JWTClaims, req dto.CreateTokenRequest) (*dto.CreateTokenResponse, error)
	revokeFn func(claims *models.JWTClaims, id string) error
}

func (s *stubTokenService) List(_ context.Context, claims *models.JWTClaims, showRevoked bool) ([]models.APIToken, error) {
	return s.listFn(claims, showRevoked)
}

func (s *stubTokenService) Create(_ context.Context, claims *models.JWTClaims, req dto.CreateTokenRequest) (*dto.CreateTokenResponse, error) {
	return s.createFn(claims, req)
}

func (s *stubTokenService) Revoke(_ context.Context, claims *models.JWTClaims, id string) error {
	return s.revokeFn(claims, id)
}

func setupTokenRouter(svc TokenService, claims *models.JWTClaims) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	if claims != nil {
		r.Use(func(c *gin.Context) {
			c.Set(middleware.ContextUserKey, claims)
		})
	}
	NewAPITokenHandler(svc, nil, tokenBasePath).Routes(r.Group(tokenBasePath))
	return r
}

func TestAPITokenIndex(t *testing.T) {
	var gotShowRevoked bool
	svc := &stubTokenService{
		listFn: func(_ *models.JWTClaims, showRevoked bool) ([]models.APIToken, error) {
			gotShowRevoked = showRevoked
			return []models.APIToken{{ID: "t1", Name: "sync"}}, nil
		},
	}
	r := setupTokenRouter(svc, &models.JWTClaims{AccountID: "alice"})

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, tokenBasePath+"?show_revoked=true", nil)
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.True(t, gotShowRevoked)

	var body struct {
		Data []models.APIToken `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	require.Len(t, body.Data, 1)
	assert.Equal(t, "t1", body.Data[0].ID)
}

func TestAPITokenIndexRequiresAuth(t *testing.T) {
	r := setupTokenRouter(&stubTokenService{}, nil)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, tokenBasePath, nil))
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestAPITokenCreate(t *testing.T) {
	svc := &stubTokenService{
		createFn: func(claims *models.JWTClaims, req dto.CreateTokenRequest) (*dto.CreateTokenResponse, error) {
			assert.Equal(t, "alice", claims.AccountID)
			assert.Equal(t, "nightly sync", req.Name)
			return &dto.CreateTokenResponse{ID: "new-id", Token: "opaque"}, nil
		},
	}
	r := setupTokenRouter(svc, &models.JWTClaims{AccountID: "alice"})

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, tokenBasePath,
		strings.NewReader(`{"name":"nightly sync"}`))
	req.Header.Set("Content-Type", "application/json")
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusCreated, w.Code)
	assert.Contains(t, w.Body.String(), "new-id")
}

func TestAPITokenCreateValidationError(t *testing.T) {
	svc := &stubTokenService{
		createFn: func(*models.JWTClaims, dto.CreateTokenRequest) (*dto.CreateTokenResponse, error) {
			return nil, errors.Clone(errors.ErrValidation, "the Name field is required")
		},
	}
	r := setupTokenRouter(svc, &models.JWTClaims{AccountID: "alice"})

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, tokenBasePath, strings.NewReader(`{}`))
	req.Header.Set("Content-Type", "application/json")
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "the Name field is required")
}

func TestAPITokenRevokeRedirectsWithMessage(t *testing.T) {
	svc := &stubTokenService{
		revokeFn: func(_ *models.JWTClaims, id string) error {
			assert.Equal(t, "t1", id)
			return nil
		},
	}
	r := setupTokenRouter(svc, &models.JWTClaims{AccountID: "alice"})

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodPost, tokenBasePath+"/t1/revoke", nil))

	assert.Equal(t, http.StatusFound, w.Code)
	loc := w.Header().Get("Location")
	assert.True(t, strings.HasPrefix(loc, tokenBasePath), loc)
	assert.Contains(t, loc, "message=Token+revoked")
}

func TestAPITokenRevokeUnknownTokenRedirectsSilently(t *testing.T) {
	svc := &stubTokenService{
		revokeFn: func(*models.JWTClaims, string) error { return errors.ErrNotFound },
	}
	r := setupTokenRouter(svc, &models.JWTClaims{AccountID: "alice"})

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodPost, tokenBasePath+"/missing/revoke", nil))

	assert.Equal(t, http.StatusFound, w.Code)
	assert.Equal(t, tokenBasePath, w.Header().Get("Location"))
}

func TestAPITokenRevokeWrongVerbRedirectsSilently(t *testing.T) {
	revoked := false
	svc := &stubTokenService{
		revokeFn: func(*models.JWTClaims, string) error {
			revoked = true
			return nil
		},
	}
	r := setupTokenRouter(svc, &models.JWTClaims{AccountID: "alice"})

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, tokenBasePath+"/t1/revoke", nil))

	assert.Equal(t, http.StatusFound, w.Code)
	assert.Equal(t, tokenBasePath, w.Header().Get("Location"))
	assert.False(t, revoked, "GET must never revoke")
}

func TestAPITokenRevokeWithoutIDRedirectsSilently(t *testing.T) {
	r := setupTokenRouter(&stubTokenService{}, &models.JWTClaims{AccountID: "alice"})

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodPost, tokenBasePath+"/revoke", nil))

	assert.Equal(t, http.StatusFound, w.Code)
	assert.Equal(t, tokenBasePath, w.Header().Get("Location"))
}

func TestAPITokenRevokeForbidden(t *testing.T) {
	svc := &stubTokenService{
		revokeFn: func(*models.JWTClaims, string) error { return errors.ErrForbidden },
	}
	r := setupTokenRouter(svc, &models.JWTClaims{AccountID: "mallory"})

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodPost, tokenBasePath+"/t1/revoke", nil))
	assert.Equal(t, http.StatusForbidden, w.Code)
}
