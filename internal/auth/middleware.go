package auth

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
)

const claimsContextKey = "auth_claims"

// Middleware enforces bearer-token auth on admin routes. When disabled it
// passes every request through, which is how local development runs.
func Middleware(authenticator Authenticator, enabled bool) gin.HandlerFunc {
	return func(c *gin.Context) {
		if !enabled {
			c.Next()
			return
		}

		header := c.GetHeader("Authorization")
		if header == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "missing authorization header"})
			return
		}

		token := strings.TrimSpace(strings.TrimPrefix(header, "Bearer "))
		if token == "" || token == header {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "malformed authorization header"})
			return
		}

		claims, err := authenticator.ValidateToken(c.Request.Context(), token)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid or expired token"})
			return
		}

		c.Set(claimsContextKey, claims)
		c.Next()
	}
}

// ClaimsFrom returns the authenticated claims, if any.
func ClaimsFrom(c *gin.Context) (*Claims, bool) {
	value, exists := c.Get(claimsContextKey)
	if !exists {
		return nil, false
	}
	claims, ok := value.(*Claims)
	return claims, ok
}

// ActorFrom names the authenticated user for audit events, falling back to
// "anonymous" when auth is disabled.
func ActorFrom(c *gin.Context) string {
	if claims, ok := ClaimsFrom(c); ok && claims.UserID != "" {
		return claims.UserID
	}
	return "anonymous"
}
