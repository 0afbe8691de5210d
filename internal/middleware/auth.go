package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"pulse/internal/services"
)

// ClientKey is the gin context key holding the authenticated client name
const ClientKey = "client"

// TokenValidator verifies bearer tokens
type TokenValidator interface {
	ValidateToken(token string) (*services.CustomClaims, error)
}

// ExtractToken reads the token from the Authorization header, falling back
// to the token query parameter used by browser WebSocket clients
func ExtractToken(c *gin.Context) string {
	if header := c.GetHeader("Authorization"); strings.HasPrefix(header, "Bearer ") {
		return strings.TrimSpace(strings.TrimPrefix(header, "Bearer "))
	}
	return c.Query("token")
}

// RequireToken rejects requests without a valid token
func RequireToken(tokens TokenValidator, logger zerolog.Logger) gin.HandlerFunc {
	validator := NewInputValidator()

	return func(c *gin.Context) {
		token := ExtractToken(c)
		if token == "" {
			logger.Warn().Str("ip", c.ClientIP()).Msg("missing token")
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "token required in Authorization header or query parameter"})
			return
		}
		if !validator.ValidateTokenFormat(token) {
			logger.Warn().Str("ip", c.ClientIP()).Msg("malformed token")
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid token"})
			return
		}

		claims, err := tokens.ValidateToken(token)
		if err != nil {
			logger.Warn().Err(err).Str("ip", c.ClientIP()).Msg("invalid token")
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid token"})
			return
		}

		c.Set(ClientKey, claims.ClientName)
		c.Next()
	}
}
