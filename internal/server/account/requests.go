package account

// Request is one of the five request shapes below. The unexported method
// keeps the set closed.
type Request interface {
	Kind() Kind
	isRequest()
}

type RegistrationRequest struct {
	Username string
	Password string
	Email    string
}

type ConfirmationRequest struct {
	TokenID int64
	Token   string
}

type UnlockRequest struct {
	UserID int64
}

type ResetPasswordRequest struct {
	Email string
}

type ChangePasswordRequest struct {
	UserID         int64
	Email          string
	ActualPassword string
	NewPassword    string
}

func (RegistrationRequest) Kind() Kind   { return Registration }
func (ConfirmationRequest) Kind() Kind   { return Confirmation }
func (UnlockRequest) Kind() Kind         { return Unlock }
func (ResetPasswordRequest) Kind() Kind  { return ResetPassword }
func (ChangePasswordRequest) Kind() Kind { return ChangePassword }

func (RegistrationRequest) isRequest()   {}
func (ConfirmationRequest) isRequest()   {}
func (UnlockRequest) isRequest()         {}
func (ResetPasswordRequest) isRequest()  {}
func (ChangePasswordRequest) isRequest() {}
