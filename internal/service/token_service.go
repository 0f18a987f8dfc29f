package service

import (
	"context"
	"database/sql"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/eventide/conreg-api/internal/dto"
	"github.com/eventide/conreg-api/internal/models"
	"github.com/eventide/conreg-api/pkg/errors"
)

// APITokenRepository is the persistence surface the token service needs.
type APITokenRepository interface {
	List(ctx context.Context, filter models.APITokenFilter) ([]models.APIToken, error)
	FindByID(ctx context.Context, id string) (*models.APIToken, error)
	Create(ctx context.Context, token *models.APIToken) error
	Revoke(ctx context.Context, id string, at time.Time) error
}

// TokenService implements the API token lifecycle: list, issue, revoke.
type TokenService struct {
	repo           APITokenRepository
	validate       *validator.Validate
	logger         *zap.Logger
	adminAccessVal int
}

// NewTokenService wires the service. adminAccessVal is the event config enum
// value that marks full admin access; holders see every account's tokens.
func NewTokenService(repo APITokenRepository, validate *validator.Validate, logger *zap.Logger, adminAccessVal int) *TokenService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &TokenService{repo: repo, validate: validate, logger: logger, adminAccessVal: adminAccessVal}
}

// List returns the caller's tokens, or everyone's for full admins. Revoked
// tokens are excluded unless explicitly requested.
func (s *TokenService) List(ctx context.Context, claims *models.JWTClaims, showRevoked bool) ([]models.APIToken, error) {
	filter := models.APITokenFilter{ShowRevoked: showRevoked}
	if !claims.HasAccess(s.adminAccessVal) {
		filter.AdminAccountID = claims.AccountID
	}
	return s.repo.List(ctx, filter)
}

// Create validates and persists a new token owned by the caller. Validation
// failures report what is wrong without writing anything.
func (s *TokenService) Create(ctx context.Context, claims *models.JWTClaims, req dto.CreateTokenRequest) (*dto.CreateTokenResponse, error) {
	if err := s.validate.Struct(req); err != nil {
		return nil, errors.Clone(errors.ErrValidation, "the Name field is required")
	}

	token := &models.APIToken{
		AdminAccountID: claims.AccountID,
		Name:           req.Name,
		Description:    req.Description,
		Token:          uuid.NewString(),
	}
	if err := s.repo.Create(ctx, token); err != nil {
		return nil, errors.Wrap(err, errors.ErrInternal.Code, errors.ErrInternal.Status, "could not issue token")
	}

	s.logger.Info("api token issued",
		zap.String("token_id", token.ID),
		zap.String("account_id", claims.AccountID),
		zap.String("name", token.Name),
	)
	return &dto.CreateTokenResponse{ID: token.ID, Token: token.Token}, nil
}

// Revoke stamps the token's revocation time. Owners can revoke their own
// tokens, full admins anyone's.
func (s *TokenService) Revoke(ctx context.Context, claims *models.JWTClaims, id string) error {
	token, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if err == sql.ErrNoRows {
			return errors.ErrNotFound
		}
		return errors.Wrap(err, errors.ErrInternal.Code, errors.ErrInternal.Status, "could not load token")
	}

	if token.AdminAccountID != claims.AccountID && !claims.HasAccess(s.adminAccessVal) {
		return errors.ErrForbidden
	}
	if token.Revoked() {
		return errors.Clone(errors.ErrConflict, "token is already revoked")
	}

	if err := s.repo.Revoke(ctx, id, time.Now().UTC()); err != nil {
		if err == sql.ErrNoRows {
			return errors.Clone(errors.ErrConflict, "token is already revoked")
		}
		return errors.Wrap(err, errors.ErrInternal.Code, errors.ErrInternal.Status, "could not revoke token")
	}

	s.logger.Info("api token revoked",
		zap.String("token_id", id),
		zap.String("account_id", claims.AccountID),
	)
	return nil
}
