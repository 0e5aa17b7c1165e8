package httpapi

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/dmitrijs2005/gophauth/internal/common"
	"github.com/dmitrijs2005/gophauth/internal/logging"
	"github.com/dmitrijs2005/gophauth/internal/server/auth"
)

const (
	RequestIDHeader  = "X-Request-ID"
	DefaultAdminRole = "ADMIN"

	requestIDKey   = "request_id"
	identityKey    = "identity"
	accessTokenKey = "access_token"
)

// RequestID propagates the caller's X-Request-ID or assigns a new one.
func RequestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := strings.TrimSpace(c.GetHeader(RequestIDHeader))
		if id == "" || len(id) > 128 {
			id = uuid.NewString()
		}
		c.Set(requestIDKey, id)
		c.Writer.Header().Set(RequestIDHeader, id)
		c.Next()
	}
}

// AccessLog writes one entry per request after it completes.
func AccessLog(log logging.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()

		c.Next()

		args := []any{
			"request_id", c.GetString(requestIDKey),
			"method", c.Request.Method,
			"path", c.Request.URL.Path,
			"status", c.Writer.Status(),
			"latency", time.Since(start),
		}
		if len(c.Errors) > 0 {
			log.Error(c.Request.Context(), "request failed", append(args, "errors", c.Errors.String())...)
			return
		}
		log.Info(c.Request.Context(), "request completed", args...)
	}
}

// Authenticate resolves the bearer token (or the access token cookie) to an
// identity. Requests without a usable token continue anonymously.
func Authenticate(sessions Sessions, cookieName string) gin.HandlerFunc {
	return func(c *gin.Context) {
		token := accessToken(c, cookieName)
		if token == "" || sessions == nil {
			c.Next()
			return
		}

		identity, err := sessions.Authenticate(c.Request.Context(), token)
		switch {
		case err == nil:
			c.Set(identityKey, identity)
			c.Set(accessTokenKey, token)
		case errors.Is(err, common.ErrInvalidToken):
		default:
			_ = c.Error(err)
			c.AbortWithStatusJSON(http.StatusInternalServerError, errorBody(c, "internal error"))
			return
		}
		c.Next()
	}
}

// RequireAuth rejects anonymous requests.
func RequireAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		if identityFrom(c) == nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, errorBody(c, "authentication required"))
			return
		}
		c.Next()
	}
}

// RequireRole rejects identities without the named role. Use after RequireAuth.
func RequireRole(name string) gin.HandlerFunc {
	return func(c *gin.Context) {
		if id := identityFrom(c); id == nil || !id.HasRole(name) {
			c.AbortWithStatusJSON(http.StatusForbidden, errorBody(c, "insufficient role"))
			return
		}
		c.Next()
	}
}

func accessToken(c *gin.Context, cookieName string) string {
	if token, ok := auth.BearerToken(c.GetHeader(common.AuthorizationHeaderName)); ok {
		return token
	}
	if cookieName == "" {
		return ""
	}
	if v, err := c.Cookie(cookieName); err == nil {
		return strings.TrimSpace(v)
	}
	return ""
}

func identityFrom(c *gin.Context) *auth.Identity {
	v, ok := c.Get(identityKey)
	if !ok {
		return nil
	}
	id, _ := v.(*auth.Identity)
	return id
}
