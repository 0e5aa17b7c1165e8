package httpapi

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/dmitrijs2005/gophauth/internal/common"
	"github.com/dmitrijs2005/gophauth/internal/logging"
	"github.com/dmitrijs2005/gophauth/internal/server/services"
)

type sessionHandler struct {
	sessions     Sessions
	logger       logging.Logger
	cookieName   string
	secureCookie bool
}

var unauthorizedCases = []errorCase{
	{common.ErrorUnauthorized, http.StatusUnauthorized, "invalid credentials"},
	{common.ErrRefreshTokenExpired, http.StatusUnauthorized, "refresh token expired"},
	{common.ErrInvalidToken, http.StatusUnauthorized, "invalid token"},
}

func (h *sessionHandler) Login(c *gin.Context) {
	var req LoginRequest
	if !bind(c, &req) {
		return
	}
	pair, err := h.sessions.Login(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		respondError(c, err, unauthorizedCases...)
		return
	}
	h.writePair(c, pair)
}

func (h *sessionHandler) Refresh(c *gin.Context) {
	var req RefreshRequest
	if !bind(c, &req) {
		return
	}
	pair, err := h.sessions.Refresh(c.Request.Context(), req.RefreshToken)
	if err != nil {
		respondError(c, err, unauthorizedCases...)
		return
	}
	h.writePair(c, pair)
}

// Logout revokes the presented access token and, if given, the refresh
// token in the body. An empty body is allowed.
func (h *sessionHandler) Logout(c *gin.Context) {
	var req LogoutRequest
	if err := json.NewDecoder(c.Request.Body).Decode(&req); err != nil && !errors.Is(err, io.EOF) {
		c.JSON(http.StatusBadRequest, errorBody(c, "invalid payload"))
		return
	}

	if err := h.sessions.Logout(c.Request.Context(), c.GetString(accessTokenKey), req.RefreshToken); err != nil {
		respondError(c, err)
		return
	}
	h.clearCookie(c)
	c.Status(http.StatusNoContent)
}

func (h *sessionHandler) Me(c *gin.Context) {
	id := identityFrom(c)
	resp := IdentityResponse{UserID: id.UserID, Email: id.Email, Roles: make([]RoleResponse, 0, len(id.Roles))}
	for _, r := range id.Roles {
		resp.Roles = append(resp.Roles, RoleResponse{ID: r.ID, Name: r.Name})
	}
	c.JSON(http.StatusOK, resp)
}

func (h *sessionHandler) writePair(c *gin.Context, pair *services.TokenPair) {
	if h.cookieName != "" {
		maxAge := int(time.Until(pair.AccessExpiresAt).Seconds())
		c.SetSameSite(http.SameSiteStrictMode)
		c.SetCookie(h.cookieName, pair.AccessToken, maxAge, "/", "", h.secureCookie, true)
	}
	c.JSON(http.StatusOK, pair)
}

func (h *sessionHandler) clearCookie(c *gin.Context) {
	if h.cookieName == "" {
		return
	}
	c.SetSameSite(http.SameSiteStrictMode)
	c.SetCookie(h.cookieName, "", -1, "/", "", h.secureCookie, true)
}
