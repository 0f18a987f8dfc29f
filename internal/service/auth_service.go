package service

import (
	"context"
	"database/sql"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/golang-jwt/jwt/v5"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/eventide/conreg-api/internal/models"
	"github.com/eventide/conreg-api/pkg/config"
	"github.com/eventide/conreg-api/pkg/errors"
)

// AdminAccountRepository looks up admin accounts for authentication.
type AdminAccountRepository interface {
	FindByEmail(ctx context.Context, email string) (*models.AdminAccount, error)
	FindByID(ctx context.Context, id string) (*models.AdminAccount, error)
}

// AuthService authenticates admin accounts and issues access tokens.
type AuthService struct {
	repo     AdminAccountRepository
	validate *validator.Validate
	logger   *zap.Logger
	jwtCfg   config.JWTConfig
}

func NewAuthService(repo AdminAccountRepository, validate *validator.Validate, logger *zap.Logger, jwtCfg config.JWTConfig) *AuthService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AuthService{repo: repo, validate: validate, logger: logger, jwtCfg: jwtCfg}
}

// Login verifies credentials and returns a signed JWT carrying the account's
// access set. Unknown emails and bad passwords are indistinguishable to the
// caller.
func (s *AuthService) Login(ctx context.Context, req models.LoginRequest) (*models.LoginResponse, error) {
	if err := s.validate.Struct(req); err != nil {
		return nil, errors.Clone(errors.ErrValidation, "email and password are required")
	}

	acct, err := s.repo.FindByEmail(ctx, req.Email)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, errors.ErrInvalidCredentials
		}
		return nil, errors.Wrap(err, errors.ErrInternal.Code, errors.ErrInternal.Status, "could not load account")
	}
	if err := bcrypt.CompareHashAndPassword([]byte(acct.PasswordHash), []byte(req.Password)); err != nil {
		s.logger.Warn("failed login attempt", zap.String("email", req.Email))
		return nil, errors.ErrInvalidCredentials
	}

	now := time.Now().UTC()
	claims := models.JWTClaims{
		AccountID: acct.ID,
		Email:     acct.Email,
		FullName:  acct.FullName,
		Access:    acct.AccessInts(),
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    s.jwtCfg.Issuer,
			Subject:   acct.ID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.jwtCfg.Expiration)),
		},
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(s.jwtCfg.Secret))
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrInternal.Code, errors.ErrInternal.Status, "could not sign token")
	}

	s.logger.Info("admin logged in", zap.String("account_id", acct.ID))
	return &models.LoginResponse{
		AccessToken: signed,
		ExpiresIn:   int64(s.jwtCfg.Expiration.Seconds()),
		IssuedAt:    now,
		Account: models.AdminInfo{
			ID:       acct.ID,
			Email:    acct.Email,
			FullName: acct.FullName,
		},
	}, nil
}

// ValidateToken parses and verifies an access token.
func (s *AuthService) ValidateToken(tokenString string) (*models.JWTClaims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &models.JWTClaims{}, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.ErrUnauthorized
		}
		return []byte(s.jwtCfg.Secret), nil
	})
	if err != nil || !token.Valid {
		return nil, errors.ErrUnauthorized
	}
	claims, ok := token.Claims.(*models.JWTClaims)
	if !ok {
		return nil, errors.ErrUnauthorized
	}
	return claims, nil
}
