// server/internal/api/middleware/auth.go
package middleware

import (
	"context"
	"net/http"
	"slices"
	"strings"

	"magnova-scm-api-server/internal/auth"
	"magnova-scm-api-server/internal/models"

	"github.com/gin-gonic/gin"
)

// PrincipalKey is the gin context key holding the authenticated auth.Principal.
const PrincipalKey = "principal"

// Resolver turns a bearer token into the stored user it belongs to.
type Resolver interface {
	Resolve(ctx context.Context, token string) (*models.User, error)
}

// Authenticate verifies the bearer token and puts the caller's Principal into the context.
func Authenticate(resolver Resolver) gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized", "message": "Authorization header is required"})
			return
		}

		tokenString := strings.TrimPrefix(authHeader, "Bearer ")
		if tokenString == authHeader {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized", "message": "Invalid token format"})
			return
		}

		user, err := resolver.Resolve(c.Request.Context(), tokenString)
		if err != nil {
			_ = c.Error(err)
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized", "message": "Invalid or expired token"})
			return
		}

		c.Set(PrincipalKey, auth.PrincipalFromUser(user))
		c.Next()
	}
}

// Principal returns the caller set by Authenticate.
func Principal(c *gin.Context) (auth.Principal, bool) {
	v, ok := c.Get(PrincipalKey)
	if !ok {
		return auth.Principal{}, false
	}
	pr, ok := v.(auth.Principal)
	return pr, ok
}

// Authorize rejects callers whose role is not in allowedRoles.
func Authorize(allowedRoles ...string) gin.HandlerFunc {
	return func(c *gin.Context) {
		pr, ok := Principal(c)
		if !ok {
			c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "Internal", "message": "User not found in context"})
			return
		}
		if !slices.Contains(allowedRoles, pr.Role) {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "Forbidden", "message": "You do not have permission to access this resource"})
			return
		}
		c.Next()
	}
}
