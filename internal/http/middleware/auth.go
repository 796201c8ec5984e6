// README: Bearer-token auth middleware (required and optional variants) backed by infra.TokenVerifier.
package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"voyage/internal/infra"
	"voyage/internal/modules/aiusage"
)

const (
	ctxUID   = "auth.uid"
	ctxRole  = "auth.role"
	ctxEmail = "auth.email"
)

func bearerToken(c *gin.Context) (string, bool) {
	h := c.GetHeader("Authorization")
	if !strings.HasPrefix(h, "Bearer ") {
		return "", false
	}
	tok := strings.TrimSpace(strings.TrimPrefix(h, "Bearer "))
	return tok, tok != ""
}

func setCaller(c *gin.Context, tok *infra.AuthToken) {
	c.Set(ctxUID, tok.UID)
	c.Set(ctxEmail, tok.Email)
	if role, ok := tok.Claims["role"].(string); ok {
		c.Set(ctxRole, role)
	}
	c.Request = c.Request.WithContext(aiusage.WithCaller(c.Request.Context(), tok.UID))
}

// Auth rejects requests without a valid bearer token.
func Auth(verifier infra.TokenVerifier) gin.HandlerFunc {
	return func(c *gin.Context) {
		if verifier == nil {
			c.AbortWithStatusJSON(http.StatusServiceUnavailable, gin.H{"error": "authentication is not configured"})
			return
		}
		raw, ok := bearerToken(c)
		if !ok {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "missing bearer token"})
			return
		}
		tok, err := verifier.VerifyIDToken(c.Request.Context(), raw)
		if err != nil || tok == nil || tok.UID == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid token"})
			return
		}
		setCaller(c, tok)
		c.Next()
	}
}

// OptionalAuth identifies the caller when a valid token is present and lets
// anonymous or badly authenticated requests through unchanged.
func OptionalAuth(verifier infra.TokenVerifier) gin.HandlerFunc {
	return func(c *gin.Context) {
		if verifier != nil {
			if raw, ok := bearerToken(c); ok {
				if tok, err := verifier.VerifyIDToken(c.Request.Context(), raw); err == nil && tok != nil && tok.UID != "" {
					setCaller(c, tok)
				}
			}
		}
		c.Next()
	}
}

// CallerUID returns the authenticated uid, or "".
func CallerUID(c *gin.Context) string {
	return c.GetString(ctxUID)
}

func CallerRole(c *gin.Context) string {
	return c.GetString(ctxRole)
}

func CallerEmail(c *gin.Context) string {
	return c.GetString(ctxEmail)
}
