package httpapi

import (
	"strings"

	validation "github.com/go-ozzo/ozzo-validation"
	"github.com/go-ozzo/ozzo-validation/is"
)

// bcrypt refuses longer inputs.
const maxPasswordLength = 72

var passwordRules = []validation.Rule{validation.Required, validation.Length(8, maxPasswordLength)}

type RegisterRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
	Email    string `json:"email"`
}

func (r *RegisterRequest) normalize() {
	r.Username = strings.TrimSpace(r.Username)
	r.Email = strings.TrimSpace(r.Email)
}

func (r RegisterRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Username, validation.Required, validation.Length(3, 64)),
		validation.Field(&r.Password, passwordRules...),
		validation.Field(&r.Email, validation.Required, is.Email),
	)
}

type ConfirmRequest struct {
	TokenID int64  `json:"token_id"`
	Token   string `json:"token"`
}

func (r ConfirmRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.TokenID, validation.Required, validation.Min(int64(1))),
		validation.Field(&r.Token, validation.Required),
	)
}

type UnlockRequest struct {
	UserID int64 `json:"user_id"`
}

func (r UnlockRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.UserID, validation.Required, validation.Min(int64(1))),
	)
}

type ResetPasswordRequest struct {
	Email string `json:"email"`
}

func (r *ResetPasswordRequest) normalize() { r.Email = strings.TrimSpace(r.Email) }

func (r ResetPasswordRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Email, validation.Required, is.Email),
	)
}

type ChangePasswordRequest struct {
	Email          string `json:"email"`
	ActualPassword string `json:"actual_password"`
	NewPassword    string `json:"new_password"`
}

func (r *ChangePasswordRequest) normalize() { r.Email = strings.TrimSpace(r.Email) }

func (r ChangePasswordRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Email, validation.Required, is.Email),
		validation.Field(&r.ActualPassword, validation.Required),
		validation.Field(&r.NewPassword, passwordRules...),
	)
}

type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (r *LoginRequest) normalize() { r.Email = strings.TrimSpace(r.Email) }

func (r LoginRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Email, validation.Required, is.Email),
		validation.Field(&r.Password, validation.Required),
	)
}

type RefreshRequest struct {
	RefreshToken string `json:"refresh_token"`
}

func (r RefreshRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.RefreshToken, validation.Required),
	)
}

type LogoutRequest struct {
	RefreshToken string `json:"refresh_token"`
}

type RoleResponse struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

type IdentityResponse struct {
	UserID int64          `json:"user_id"`
	Email  string         `json:"email"`
	Roles  []RoleResponse `json:"roles"`
}
