package httpserver

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"agentshop/internal/checkout"
	"agentshop/internal/service/identity"
)

type ctxKey int

const (
	identityCtxKey ctxKey = iota
	tokenKindCtxKey
)

// identityMiddleware resolves the bearer token to a verified identity and
// rejects tokens whose kind is not allowed on the route.
func identityMiddleware(ids identityResolver, allowedKinds ...string) gin.HandlerFunc {
	return func(c *gin.Context) {
		token := bearerToken(c.GetHeader("Authorization"))
		who, kind, err := ids.Resolve(c.Request.Context(), token)
		if err != nil {
			if errors.Is(err, identity.ErrInvalidToken) {
				abortWithKind(c, http.StatusUnauthorized, checkout.KindUnauthenticated, "missing or invalid access token")
				return
			}
			c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"errorKind": "internal", "message": "identity lookup failed"})
			return
		}

		allowed := false
		for _, k := range allowedKinds {
			if kind == k {
				allowed = true
				break
			}
		}
		if !allowed {
			abortWithKind(c, http.StatusUnauthorized, checkout.KindUnauthenticated, "token kind not allowed for this endpoint")
			return
		}

		ctx := context.WithValue(c.Request.Context(), identityCtxKey, who)
		ctx = context.WithValue(ctx, tokenKindCtxKey, kind)
		c.Request = c.Request.WithContext(ctx)
		c.Next()
	}
}

func identityFromContext(c *gin.Context) string {
	v, _ := c.Request.Context().Value(identityCtxKey).(string)
	return v
}

func tokenKindFromContext(c *gin.Context) string {
	v, _ := c.Request.Context().Value(tokenKindCtxKey).(string)
	return v
}

func bearerToken(header string) string {
	const prefix = "Bearer "
	if !strings.HasPrefix(header, prefix) {
		return ""
	}
	return strings.TrimSpace(header[len(prefix):])
}

func abortWithKind(c *gin.Context, status int, kind checkout.ErrorKind, message string) {
	c.AbortWithStatusJSON(status, gin.H{"errorKind": string(kind), "message": message})
}
