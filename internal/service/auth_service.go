package service

import (
	"fmt"

	"github.com/golang-jwt/jwt/v5"
	"go.uber.org/zap"

	"github.com/kidario/kidario-api/internal/models"
	"github.com/kidario/kidario-api/pkg/config"
	appErrors "github.com/kidario/kidario-api/pkg/errors"
)

// AuthService verifies access tokens issued by the external identity
// provider. Tokens are never minted here.
type AuthService struct {
	config config.AuthConfig
	logger *zap.Logger
}

// NewAuthService constructs an AuthService.
func NewAuthService(cfg config.AuthConfig, logger *zap.Logger) *AuthService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AuthService{config: cfg, logger: logger}
}

// ValidateToken parses and validates an access token returning the claims.
// The subject claim is the profile id and must be present.
func (s *AuthService) ValidateToken(tokenString string) (*models.AuthClaims, error) {
	options := []jwt.ParserOption{jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()})}
	if s.config.Issuer != "" {
		options = append(options, jwt.WithIssuer(s.config.Issuer))
	}
	if s.config.Audience != "" {
		options = append(options, jwt.WithAudience(s.config.Audience))
	}
	if s.config.Leeway > 0 {
		options = append(options, jwt.WithLeeway(s.config.Leeway))
	}

	token, err := jwt.ParseWithClaims(tokenString, &models.AuthClaims{}, func(token *jwt.Token) (interface{}, error) {
		if token.Method != jwt.SigningMethodHS256 {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return []byte(s.config.Secret), nil
	}, options...)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrUnauthorized.Code, appErrors.ErrUnauthorized.Status, "invalid token")
	}

	claims, ok := token.Claims.(*models.AuthClaims)
	if !ok || !token.Valid {
		return nil, appErrors.Clone(appErrors.ErrUnauthorized, "invalid token claims")
	}
	if claims.UserID() == "" {
		return nil, appErrors.Clone(appErrors.ErrUnauthorized, "token is missing the subject claim")
	}

	return claims, nil
}
