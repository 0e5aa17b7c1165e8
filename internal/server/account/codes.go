package account

import "encoding/json"

// App identifies this service in response codes.
const App = "gophauth"

// Code is a lifecycle outcome. Every code belongs to exactly one action.
type Code int

const (
	CodeBadRequestType Code = iota

	CodeEmailIsNotUnique
	CodeLoginIsNotUnique
	CodeUniqueLoginAndEmail
	CodeRegistrationVerificationQueued
	CodeRegisteredButMailNotSend

	CodeTokenNotFound
	CodeInvalidTokenValue
	CodeTokenExpired
	CodeTokenIsValid
	CodeAccountConfirmed

	CodeAccountNotExistUnlock
	CodeAccountVerifiedAndNotBlocked
	CodeAccountCanBeUnlocked
	CodeUnlockVerificationQueued
	CodeUnlockMailNotSend

	CodeAccountNotExistResetPasswd
	CodeAccountIsBlockedResetPasswd
	CodeAccountIsNotVerifiedResetPasswd
	CodePasswordCanBeGenerated
	CodeNewPasswordMailQueued
	CodePasswordResetButMailNotSend

	CodeEmailNotExist
	CodeAccountIsBlockedChangePasswd
	CodeBadActualPassword
	CodePasswordCanBeChanged
	CodePasswordChanged
	CodePasswordChangedButMailNotSend

	codeCount
)

type codeInfo struct {
	action  Kind
	name    string
	message string
}

var codes = [codeCount]codeInfo{
	CodeBadRequestType: {General, "BadRequestType", "Request type does not match the action"},

	CodeEmailIsNotUnique:               {Registration, "EmailIsNotUnique", "Email is already registered"},
	CodeLoginIsNotUnique:               {Registration, "LoginIsNotUnique", "Login is already taken"},
	CodeUniqueLoginAndEmail:            {Registration, "UniqueLoginAndEmail", "Login and email are unique"},
	CodeRegistrationVerificationQueued: {Registration, "RegistrationVerificationQueued", "Account registered, confirmation mail queued"},
	CodeRegisteredButMailNotSend:       {Registration, "RegisteredButMailNotSend", "Account registered, but confirmation mail was not sent"},

	CodeTokenNotFound:     {Confirmation, "TokenNotFound", "Confirmation token not found"},
	CodeInvalidTokenValue: {Confirmation, "InvalidTokenValue", "Confirmation token value is invalid"},
	CodeTokenExpired:      {Confirmation, "TokenExpired", "Confirmation token has expired"},
	CodeTokenIsValid:      {Confirmation, "TokenIsValid", "Confirmation token is valid"},
	CodeAccountConfirmed:  {Confirmation, "AccountConfirmed", "Account confirmed"},

	CodeAccountNotExistUnlock:        {Unlock, "AccountNotExist", "Account does not exist"},
	CodeAccountVerifiedAndNotBlocked: {Unlock, "AccountVerifiedAndNotBlocked", "Account is verified and not blocked"},
	CodeAccountCanBeUnlocked:         {Unlock, "AccountCanBeUnlocked", "Account can be unlocked"},
	CodeUnlockVerificationQueued:     {Unlock, "UnlockVerificationQueued", "Account unlocked, confirmation mail queued"},
	CodeUnlockMailNotSend:            {Unlock, "UnlockMailNotSend", "Account unlocked, but confirmation mail was not sent"},

	CodeAccountNotExistResetPasswd:      {ResetPassword, "AccountNotExist", "Account does not exist"},
	CodeAccountIsBlockedResetPasswd:     {ResetPassword, "AccountIsBlocked", "Account is blocked"},
	CodeAccountIsNotVerifiedResetPasswd: {ResetPassword, "AccountIsNotVerified", "Account is not verified"},
	CodePasswordCanBeGenerated:          {ResetPassword, "PasswordCanBeGenerated", "New password can be generated"},
	CodeNewPasswordMailQueued:           {ResetPassword, "NewPasswordMailQueued", "New password generated, mail queued"},
	CodePasswordResetButMailNotSend:     {ResetPassword, "PasswordResetButMailNotSend", "New password generated, but mail was not sent"},

	CodeEmailNotExist:                 {ChangePassword, "EmailNotExist", "Email does not exist"},
	CodeAccountIsBlockedChangePasswd:  {ChangePassword, "AccountIsBlocked", "Account is blocked"},
	CodeBadActualPassword:             {ChangePassword, "BadActualPassword", "Actual password does not match"},
	CodePasswordCanBeChanged:          {ChangePassword, "PasswordCanBeChanged", "Password can be changed"},
	CodePasswordChanged:               {ChangePassword, "PasswordChanged", "Password changed"},
	CodePasswordChangedButMailNotSend: {ChangePassword, "PasswordChangedButMailNotSend", "Password changed, but mail was not sent"},
}

func (c Code) info() codeInfo {
	if c < 0 || c >= codeCount {
		return codeInfo{General, "Unknown", "Unknown code"}
	}
	return codes[c]
}

// App is the application the code belongs to.
func (c Code) App() string { return App }

// Action is the lifecycle action the code belongs to.
func (c Code) Action() Kind { return c.info().action }

// Name is unique within an action, not globally.
func (c Code) Name() string { return c.info().name }

func (c Code) Message() string { return c.info().message }

// String is "<action>.<name>", unique across all codes.
func (c Code) String() string { return c.Action().String() + "." + c.Name() }

func (c Code) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		App     string `json:"app"`
		Action  string `json:"action"`
		Name    string `json:"name"`
		Message string `json:"message"`
	}{App, c.Action().String(), c.Name(), c.Message()})
}

// Response is the only channel through which lifecycle outcomes are reported.
type Response struct {
	Success bool `json:"success"`
	Code    Code `json:"code"`
}

func accept(c Code) Response { return Response{Success: true, Code: c} }
func reject(c Code) Response { return Response{Success: false, Code: c} }
