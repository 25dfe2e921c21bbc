package middleware

import (
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/kidario/kidario-api/internal/models"
	"github.com/kidario/kidario-api/internal/service"
	"github.com/kidario/kidario-api/pkg/config"
	appErrors "github.com/kidario/kidario-api/pkg/errors"
	"github.com/kidario/kidario-api/pkg/response"
)

// ContextUserKey is the gin context key storing verified token claims.
const ContextUserKey = "currentUser"

// JWT protects routes by requiring a valid access token.
func JWT(authService *service.AuthService) gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		if header == "" {
			response.Error(c, appErrors.ErrUnauthorized)
			c.Abort()
			return
		}

		parts := strings.SplitN(header, " ", 2)
		if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
			response.Error(c, appErrors.Clone(appErrors.ErrUnauthorized, "invalid authorization header"))
			c.Abort()
			return
		}

		claims, err := authService.ValidateToken(parts[1])
		if err != nil {
			response.Error(c, err)
			c.Abort()
			return
		}

		c.Set(ContextUserKey, claims)
		c.Next()
	}
}

// RequireAdmin allows only callers whose token email is on the admin
// allow-list. Must run after JWT.
func RequireAdmin(admin config.AdminConfig) gin.HandlerFunc {
	return func(c *gin.Context) {
		claims := CurrentClaims(c)
		if claims == nil {
			response.Error(c, appErrors.ErrUnauthorized)
			c.Abort()
			return
		}
		if !admin.IsAdminEmail(claims.Email) {
			response.Error(c, appErrors.Clone(appErrors.ErrForbidden, "Admin access required."))
			c.Abort()
			return
		}
		c.Next()
	}
}

// CurrentClaims returns the verified claims stored by JWT, or nil.
func CurrentClaims(c *gin.Context) *models.AuthClaims {
	value, exists := c.Get(ContextUserKey)
	if !exists {
		return nil
	}
	claims, ok := value.(*models.AuthClaims)
	if !ok {
		return nil
	}
	return claims
}
