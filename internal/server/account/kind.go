// Package account decides and performs account lifecycle actions:
// registration, email confirmation, unlock, password reset and password
// change. Each action is a Process with a check step that never mutates and
// a save or update step that runs only when the check succeeded.
package account

// Kind names a lifecycle action. The set is closed.
type Kind int

const (
	General Kind = iota
	Registration
	Confirmation
	Unlock
	ResetPassword
	ChangePassword
)

// Kinds lists every lifecycle action.
var Kinds = []Kind{Registration, Confirmation, Unlock, ResetPassword, ChangePassword}

func (k Kind) String() string {
	switch k {
	case General:
		return "general"
	case Registration:
		return "registration"
	case Confirmation:
		return "confirmation"
	case Unlock:
		return "unlock"
	case ResetPassword:
		return "reset_password"
	case ChangePassword:
		return "change_password"
	default:
		return "unknown"
	}
}
