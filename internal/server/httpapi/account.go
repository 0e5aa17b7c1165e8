package httpapi

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	validation "github.com/go-ozzo/ozzo-validation"

	"github.com/dmitrijs2005/gophauth/internal/logging"
	"github.com/dmitrijs2005/gophauth/internal/server/account"
)

type accountHandler struct {
	lifecycle Lifecycle
	logger    logging.Logger
}

// bind decodes the JSON body into v and validates it. On failure the
// response has been written and false is returned.
func bind(c *gin.Context, v validation.Validatable) bool {
	if err := c.ShouldBindJSON(v); err != nil {
		c.JSON(http.StatusBadRequest, errorBody(c, "invalid payload"))
		return false
	}
	if n, ok := v.(interface{ normalize() }); ok {
		n.normalize()
	}
	if err := v.Validate(); err != nil {
		c.JSON(http.StatusBadRequest, errorBody(c, err.Error()))
		return false
	}
	return true
}

func (h *accountHandler) Register(c *gin.Context) {
	var req RegisterRequest
	if !bind(c, &req) {
		return
	}
	resp, err := h.lifecycle.Register(c.Request.Context(), account.RegistrationRequest{
		Username: req.Username,
		Password: req.Password,
		Email:    req.Email,
	})
	writeLifecycle(c, resp, err)
}

func (h *accountHandler) Confirm(c *gin.Context) {
	var req ConfirmRequest
	if !bind(c, &req) {
		return
	}
	h.confirm(c, req)
}

// ConfirmLink serves the link mailed to the user: ?id=<token id>&token=<value>.
func (h *accountHandler) ConfirmLink(c *gin.Context) {
	id, err := strconv.ParseInt(c.Query("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, errorBody(c, "invalid token id"))
		return
	}
	req := ConfirmRequest{TokenID: id, Token: strings.TrimSpace(c.Query("token"))}
	if err := req.Validate(); err != nil {
		c.JSON(http.StatusBadRequest, errorBody(c, err.Error()))
		return
	}
	h.confirm(c, req)
}

func (h *accountHandler) confirm(c *gin.Context, req ConfirmRequest) {
	resp, err := h.lifecycle.Confirm(c.Request.Context(), account.ConfirmationRequest{
		TokenID: req.TokenID,
		Token:   req.Token,
	})
	writeLifecycle(c, resp, err)
}

func (h *accountHandler) Unlock(c *gin.Context) {
	var req UnlockRequest
	if !bind(c, &req) {
		return
	}
	resp, err := h.lifecycle.Unlock(c.Request.Context(), account.UnlockRequest{UserID: req.UserID})
	writeLifecycle(c, resp, err)
}

func (h *accountHandler) ResetPassword(c *gin.Context) {
	var req ResetPasswordRequest
	if !bind(c, &req) {
		return
	}
	resp, err := h.lifecycle.ResetPassword(c.Request.Context(), account.ResetPasswordRequest{
		Email: req.Email,
	})
	writeLifecycle(c, resp, err)
}

// ChangePassword acts on behalf of the authenticated identity only.
func (h *accountHandler) ChangePassword(c *gin.Context) {
	var req ChangePasswordRequest
	if !bind(c, &req) {
		return
	}
	id := identityFrom(c)
	resp, err := h.lifecycle.ChangePassword(c.Request.Context(), account.ChangePasswordRequest{
		UserID:         id.UserID,
		Email:          req.Email,
		ActualPassword: req.ActualPassword,
		NewPassword:    req.NewPassword,
	})
	writeLifecycle(c, resp, err)
}
