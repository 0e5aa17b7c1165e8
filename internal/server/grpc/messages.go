package grpc

import (
	"time"

	validation "github.com/go-ozzo/ozzo-validation"
	"github.com/go-ozzo/ozzo-validation/is"

	"github.com/dmitrijs2005/gophauth/internal/server/account"
)

type RegisterRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
	Email    string `json:"email"`
}

type ConfirmRequest struct {
	TokenID int64  `json:"token_id"`
	Token   string `json:"token"`
}

type UnlockRequest struct {
	UserID int64 `json:"user_id"`
}

type ResetPasswordRequest struct {
	Email string `json:"email"`
}

type ChangePasswordRequest struct {
	Email          string `json:"email"`
	ActualPassword string `json:"actual_password"`
	NewPassword    string `json:"new_password"`
}

// LifecycleReply flattens account.Response.
type LifecycleReply struct {
	Success bool   `json:"success"`
	App     string `json:"app"`
	Action  string `json:"action"`
	Code    string `json:"code"`
	Message string `json:"message"`
}

func newLifecycleReply(resp account.Response) *LifecycleReply {
	return &LifecycleReply{
		Success: resp.Success,
		App:     resp.Code.App(),
		Action:  resp.Code.Action().String(),
		Code:    resp.Code.Name(),
		Message: resp.Code.Message(),
	}
}

type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type RefreshRequest struct {
	RefreshToken string `json:"refresh_token"`
}

type LogoutRequest struct {
	RefreshToken string `json:"refresh_token"`
}

type TokenReply struct {
	AccessToken      string    `json:"access_token"`
	RefreshToken     string    `json:"refresh_token"`
	AccessExpiresAt  time.Time `json:"access_expires_at"`
	RefreshExpiresAt time.Time `json:"refresh_expires_at"`
}

type Empty struct{}

type Role struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

type IdentityReply struct {
	UserID int64  `json:"user_id"`
	Email  string `json:"email"`
	Roles  []Role `json:"roles"`
}

func (r *RegisterRequest) Validate() error {
	return validation.ValidateStruct(r,
		validation.Field(&r.Username, validation.Required, validation.Length(3, 64)),
		validation.Field(&r.Password, validation.Required, validation.Length(8, 72)),
		validation.Field(&r.Email, validation.Required, is.Email),
	)
}

func (r *ConfirmRequest) Validate() error {
	return validation.ValidateStruct(r,
		validation.Field(&r.TokenID, validation.Required),
		validation.Field(&r.Token, validation.Required),
	)
}

func (r *UnlockRequest) Validate() error {
	return validation.ValidateStruct(r, validation.Field(&r.UserID, validation.Required))
}

func (r *ResetPasswordRequest) Validate() error {
	return validation.ValidateStruct(r, validation.Field(&r.Email, validation.Required, is.Email))
}

func (r *ChangePasswordRequest) Validate() error {
	return validation.ValidateStruct(r,
		validation.Field(&r.Email, validation.Required, is.Email),
		validation.Field(&r.ActualPassword, validation.Required),
		validation.Field(&r.NewPassword, validation.Required, validation.Length(8, 72)),
	)
}

func (r *LoginRequest) Validate() error {
	return validation.ValidateStruct(r,
		validation.Field(&r.Email, validation.Required),
		validation.Field(&r.Password, validation.Required),
	)
}

func (r *RefreshRequest) Validate() error {
	return validation.ValidateStruct(r, validation.Field(&r.RefreshToken, validation.Required))
}
