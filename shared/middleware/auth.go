package middleware

import (
	"net/http"
	"strings"

	"github.com/eaglebank/ledger/shared/token"
	"github.com/gin-gonic/gin"
)

const (
	userIDKey = "userId"
	emailKey  = "email"
)

// TokenParser verifies a bearer token and returns its claims.
type TokenParser interface {
	Parse(tokenString string) (*token.Claims, error)
}

// AuthMiddleware resolves the principal from the Authorization header and
// stores its id and email in the gin context.
func AuthMiddleware(tokens TokenParser) gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			RespondWithError(c, http.StatusUnauthorized, "Authorization header required")
			c.Abort()
			return
		}

		parts := strings.SplitN(authHeader, " ", 2)
		if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
			RespondWithError(c, http.StatusUnauthorized, "Invalid authorization header format")
			c.Abort()
			return
		}

		claims, err := tokens.Parse(parts[1])
		if err != nil {
			RespondWithError(c, http.StatusUnauthorized, "Invalid or expired token")
			c.Abort()
			return
		}

		c.Set(userIDKey, claims.UserID)
		c.Set(emailKey, claims.Email)
		c.Next()
	}
}

// SetPrincipal stores the authenticated user in the gin context.
func SetPrincipal(c *gin.Context, userID int64, email string) {
	c.Set(userIDKey, userID)
	c.Set(emailKey, email)
}

func GetUserID(c *gin.Context) (int64, bool) {
	v, exists := c.Get(userIDKey)
	if !exists {
		return 0, false
	}
	userID, ok := v.(int64)
	return userID, ok
}

func GetEmail(c *gin.Context) (string, bool) {
	v, exists := c.Get(emailKey)
	if !exists {
		return "", false
	}
	email, ok := v.(string)
	return email, ok
}
