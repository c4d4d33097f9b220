package middleware

import (
	"context"
	"net/http"
	"strings"

	"action_items/internal/service"

	"github.com/gin-gonic/gin"
)

const (
	// UserIDKey holds the authenticated user id in the gin context.
	UserIDKey = "user_id"
	// ClaimsKey holds the verified *service.Claims.
	ClaimsKey = "claims"
)

// Authenticator verifies a raw bearer token.
type Authenticator interface {
	Authenticate(ctx context.Context, token string) (*service.Claims, error)
}

// JWT rejects requests without a valid, unrevoked token. The token is read
// from the Authorization header, or from ?token= for websocket upgrades.
func JWT(auth Authenticator) gin.HandlerFunc {
	return func(c *gin.Context) {
		raw := bearerToken(c.GetHeader("Authorization"))
		if raw == "" {
			raw = c.Query("token")
		}
		if raw == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"success": false, "message": "not authorized, no token"})
			return
		}

		claims, err := auth.Authenticate(c.Request.Context(), raw)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"success": false, "message": "not authorized, token failed"})
			return
		}

		c.Set(UserIDKey, claims.UserID)
		c.Set(ClaimsKey, claims)
		c.Next()
	}
}

func bearerToken(header string) string {
	const prefix = "Bearer "
	if len(header) > len(prefix) && strings.EqualFold(header[:len(prefix)], prefix) {
		return strings.TrimSpace(header[len(prefix):])
	}
	return ""
}

// UserID returns the authenticated user id set by JWT.
func UserID(c *gin.Context) (string, bool) {
	v, ok := c.Get(UserIDKey)
	if !ok {
		return "", false
	}
	id, ok := v.(string)
	return id, ok && id != ""
}

// Claims returns the verified claims set by JWT.
func Claims(c *gin.Context) (*service.Claims, bool) {
	v, ok := c.Get(ClaimsKey)
	if !ok {
		return nil, false
	}
	cl, ok := v.(*service.Claims)
	return cl, ok
}
