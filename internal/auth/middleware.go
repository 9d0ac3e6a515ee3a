package auth

import (
	"context"
	"net/http"
	"strings"

	"cinematch/backend/internal/apperr"
	"cinematch/backend/internal/models"
	"cinematch/backend/pkg/jwt"

	"github.com/gin-gonic/gin"
)

// Keys under which the middlewares store the caller in the gin context.
const (
	ContextUserID = "userID"
	ContextRoles  = "roles"
	ContextClaims = "claims"
)

// Authenticator verifies a raw bearer token.
type Authenticator interface {
	Authenticate(ctx context.Context, token string) (*jwt.Claims, error)
}

func bearerToken(c *gin.Context) (string, bool) {
	parts := strings.SplitN(c.GetHeader("Authorization"), " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") || strings.TrimSpace(parts[1]) == "" {
		return "", false
	}
	return strings.TrimSpace(parts[1]), true
}

func setCaller(c *gin.Context, claims *jwt.Claims) bool {
	userID, err := claims.UserID()
	if err != nil {
		return false
	}
	c.Set(ContextUserID, userID)
	c.Set(ContextRoles, claims.Roles)
	c.Set(ContextClaims, claims)
	return true
}

// AuthMiddleware rejects requests without a valid, unrevoked bearer token
// and stores the caller's id, roles and claims in the context.
func AuthMiddleware(a Authenticator) gin.HandlerFunc {
	return func(c *gin.Context) {
		token, ok := bearerToken(c)
		if !ok {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Authorization header is required"})
			return
		}

		claims, err := a.Authenticate(c.Request.Context(), token)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": apperr.Message(err, "Invalid token")})
			return
		}
		if !setCaller(c, claims) {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Invalid token"})
			return
		}

		c.Next()
	}
}

// OptionalAuthMiddleware inspects for a token and sets the caller if present and valid,
// but does not fail if the token is missing or invalid.
func OptionalAuthMiddleware(a Authenticator) gin.HandlerFunc {
	return func(c *gin.Context) {
		if token, ok := bearerToken(c); ok {
			if claims, err := a.Authenticate(c.Request.Context(), token); err == nil {
				setCaller(c, claims)
			}
		}
		c.Next()
	}
}

// RoleMiddleware allows the request only if the caller holds one of roles.
// It must be used AFTER AuthMiddleware.
func RoleMiddleware(roles ...string) gin.HandlerFunc {
	return func(c *gin.Context) {
		if _, exists := c.Get(ContextUserID); !exists {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "User not authenticated"})
			return
		}

		held := c.GetStringSlice(ContextRoles)
		for _, want := range roles {
			for _, have := range held {
				if have == want {
					c.Next()
					return
				}
			}
		}
		c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "Insufficient role"})
	}
}

// AdminMiddleware requires ROLE_ADMIN.
func AdminMiddleware() gin.HandlerFunc {
	return RoleMiddleware(models.RoleAdmin)
}

// CurrentUserID returns the authenticated caller's id.
func CurrentUserID(c *gin.Context) (uint, bool) {
	v, ok := c.Get(ContextUserID)
	if !ok {
		return 0, false
	}
	id, ok := v.(uint)
	return id, ok
}

// CurrentClaims returns the verified token claims of the caller.
func CurrentClaims(c *gin.Context) (*jwt.Claims, bool) {
	v, ok := c.Get(ContextClaims)
	if !ok {
		return nil, false
	}
	claims, ok := v.(*jwt.Claims)
	return claims, ok
}
