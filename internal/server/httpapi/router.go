// Package httpapi exposes the account lifecycle and session endpoints over
// HTTP using gin.
package httpapi

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/dmitrijs2005/gophauth/internal/logging"
	"github.com/dmitrijs2005/gophauth/internal/server/account"
	"github.com/dmitrijs2005/gophauth/internal/server/auth"
	"github.com/dmitrijs2005/gophauth/internal/server/services"
)

// Lifecycle is the account facade as seen by the HTTP layer.
type Lifecycle interface {
	Register(ctx context.Context, req account.RegistrationRequest) (account.Response, error)
	Confirm(ctx context.Context, req account.ConfirmationRequest) (account.Response, error)
	Unlock(ctx context.Context, req account.UnlockRequest) (account.Response, error)
	ResetPassword(ctx context.Context, req account.ResetPasswordRequest) (account.Response, error)
	ChangePassword(ctx context.Context, req account.ChangePasswordRequest) (account.Response, error)
}

// Sessions signs users in and resolves bearer tokens.
type Sessions interface {
	Login(ctx context.Context, email, plain string) (*services.TokenPair, error)
	Refresh(ctx context.Context, refreshToken string) (*services.TokenPair, error)
	Authenticate(ctx context.Context, accessToken string) (*auth.Identity, error)
	Logout(ctx context.Context, accessToken, refreshToken string) error
}

type Dependencies struct {
	Lifecycle Lifecycle
	Sessions  Sessions
	Logger    logging.Logger
	// Gatherer backs GET /metrics. Nil disables the endpoint.
	Gatherer   prometheus.Gatherer
	CookieName string
	// SecureCookie marks the access token cookie Secure.
	SecureCookie bool
	// AdminRole may unlock accounts.
	AdminRole string
}

// NewRouter builds the gin engine with every route registered.
func NewRouter(deps Dependencies) *gin.Engine {
	if deps.Logger == nil {
		deps.Logger = logging.Discard()
	}
	if deps.AdminRole == "" {
		deps.AdminRole = DefaultAdminRole
	}

	r := gin.New()
	r.Use(gin.Recovery(), RequestID(), AccessLog(deps.Logger), Authenticate(deps.Sessions, deps.CookieName))

	r.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	if deps.Gatherer != nil {
		r.GET("/metrics", gin.WrapH(promhttp.HandlerFor(deps.Gatherer, promhttp.HandlerOpts{})))
	}

	api := r.Group("/api/v1")

	acc := &accountHandler{lifecycle: deps.Lifecycle, logger: deps.Logger}
	accounts := api.Group("/account")
	accounts.POST("/register", acc.Register)
	accounts.POST("/confirm", acc.Confirm)
	accounts.GET("/confirm", acc.ConfirmLink)
	accounts.POST("/unlock", RequireAuth(), RequireRole(deps.AdminRole), acc.Unlock)
	accounts.POST("/password/reset", acc.ResetPassword)
	accounts.POST("/password/change", RequireAuth(), acc.ChangePassword)

	ses := &sessionHandler{
		sessions:     deps.Sessions,
		logger:       deps.Logger,
		cookieName:   deps.CookieName,
		secureCookie: deps.SecureCookie,
	}
	sessions := api.Group("/auth")
	sessions.POST("/login", ses.Login)
	sessions.POST("/refresh", ses.Refresh)
	sessions.POST("/logout", ses.Logout)
	sessions.GET("/me", RequireAuth(), ses.Me)

	return r
}
