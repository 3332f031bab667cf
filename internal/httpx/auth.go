package httpx

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/MikeMC777/multimarket/internal/auth"
)

// TokenParser is satisfied by *auth.Issuer.
type TokenParser interface {
	ParseBearer(header string) (*auth.Principal, error)
}

// Auth rejects requests without a valid bearer token and stores the principal
// in both the gin context and the request context.
func Auth(p TokenParser) gin.HandlerFunc {
	return func(c *gin.Context) {
		principal, err := p.ParseBearer(c.GetHeader("Authorization"))
		if err != nil {
			msg := "invalid token"
			if errors.Is(err, auth.ErrMissingToken) {
				msg = "missing authorization"
			}
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": msg})
			return
		}
		c.Request = c.Request.WithContext(auth.WithPrincipal(c.Request.Context(), principal))
		c.Next()
	}
}

// RequireAdmin must run after Auth.
func RequireAdmin() gin.HandlerFunc {
	return func(c *gin.Context) {
		p, ok := auth.FromContext(c.Request.Context())
		if !ok {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "missing principal"})
			return
		}
		if !p.IsAdmin() {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "only admin can perform this action"})
			return
		}
		c.Next()
	}
}

// Principal returns the caller set by Auth. Handlers behind Auth can rely on ok.
func Principal(c *gin.Context) (*auth.Principal, bool) {
	return auth.FromContext(c.Request.Context())
}
