package httpapi

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/dmitrijs2005/gophauth/internal/server/account"
)

type ErrorResponse struct {
	Error     string `json:"error"`
	RequestID string `json:"request_id,omitempty"`
}

func errorBody(c *gin.Context, msg string) ErrorResponse {
	return ErrorResponse{Error: msg, RequestID: c.GetString(requestIDKey)}
}

type errorCase struct {
	err     error
	status  int
	message string
}

// respondError answers with the first matching case, or 500.
func respondError(c *gin.Context, err error, cases ...errorCase) {
	for _, cs := range cases {
		if errors.Is(err, cs.err) {
			c.JSON(cs.status, errorBody(c, cs.message))
			return
		}
	}
	_ = c.Error(err)
	c.JSON(http.StatusInternalServerError, errorBody(c, "internal error"))
}

// lifecycleStatus maps a lifecycle outcome to an HTTP status. The body
// always carries the Response itself.
func lifecycleStatus(resp account.Response) int {
	if resp.Success {
		if resp.Code.Action() == account.Registration {
			return http.StatusCreated
		}
		return http.StatusOK
	}

	switch resp.Code {
	case account.CodeBadRequestType:
		return http.StatusBadRequest
	case account.CodeEmailIsNotUnique, account.CodeLoginIsNotUnique, account.CodeAccountVerifiedAndNotBlocked:
		return http.StatusConflict
	case account.CodeTokenNotFound, account.CodeAccountNotExistUnlock,
		account.CodeAccountNotExistResetPasswd, account.CodeEmailNotExist:
		return http.StatusNotFound
	case account.CodeTokenExpired:
		return http.StatusGone
	case account.CodeAccountIsBlockedResetPasswd, account.CodeAccountIsNotVerifiedResetPasswd,
		account.CodeAccountIsBlockedChangePasswd, account.CodeBadActualPassword:
		return http.StatusForbidden
	default:
		return http.StatusUnprocessableEntity
	}
}

func writeLifecycle(c *gin.Context, resp account.Response, err error) {
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(lifecycleStatus(resp), resp)
}
