package account

import (
	"fmt"

	"github.com/dmitrijs2005/gophauth/internal/common"
	"github.com/dmitrijs2005/gophauth/internal/dbx"
	"github.com/dmitrijs2005/gophauth/internal/server/confirmation"
	"github.com/dmitrijs2005/gophauth/internal/server/notify"
	"github.com/dmitrijs2005/gophauth/internal/server/password"
	"github.com/dmitrijs2005/gophauth/internal/server/repositories/repomanager"
)

// DefaultRole is attached to every new account unless configured otherwise.
const DefaultRole = "USER"

// Dependencies are shared by every process the dispatcher builds.
type Dependencies struct {
	Repositories repomanager.RepositoryManager
	Hasher       password.Hasher
	Generator    password.Generator
	Issuer       *confirmation.Issuer
	Notifier     notify.Notifier
	Templates    *notify.Templates
	DefaultRole  string
}

// Dispatcher builds the process for a lifecycle action.
type Dispatcher struct {
	deps Dependencies
}

func NewDispatcher(deps Dependencies) *Dispatcher {
	if deps.DefaultRole == "" {
		deps.DefaultRole = DefaultRole
	}
	return &Dispatcher{deps: deps}
}

// Create returns a fresh process for kind whose repositories work through
// db. Each process gets only the repositories it uses.
func (d *Dispatcher) Create(kind Kind, db dbx.DBTX) (Process, error) {
	m := d.deps.Repositories

	switch kind {
	case Registration:
		return &registrationProcess{
			baseProcess:        baseProcess{kind: kind},
			confirmationSender: d.confirmationSender(db, "Confirm your account"),
			users:              m.Users(db),
			roles:              m.Roles(db),
			hasher:             d.deps.Hasher,
			defaultRole:        d.deps.DefaultRole,
		}, nil
	case Confirmation:
		tokens := m.ConfirmationTokens(db)
		return &confirmationProcess{
			baseProcess: baseProcess{kind: kind},
			tokens:      tokens,
			users:       m.Users(db),
			issuer:      d.deps.Issuer.With(tokens),
		}, nil
	case Unlock:
		return &unlockProcess{
			baseProcess:        baseProcess{kind: kind},
			confirmationSender: d.confirmationSender(db, "Confirm your account to unlock it"),
			users:              m.Users(db),
		}, nil
	case ResetPassword:
		return &resetPasswordProcess{
			baseProcess:      baseProcess{kind: kind},
			passwordNotifier: passwordNotifier{notifier: d.deps.Notifier, render: d.deps.Templates.NewPassword},
			users:            m.Users(db),
			hasher:           d.deps.Hasher,
			generator:        d.deps.Generator,
		}, nil
	case ChangePassword:
		return &changePasswordProcess{
			baseProcess:      baseProcess{kind: kind},
			passwordNotifier: passwordNotifier{notifier: d.deps.Notifier, render: d.deps.Templates.PasswordChanged},
			users:            m.Users(db),
			hasher:           d.deps.Hasher,
		}, nil
	default:
		return nil, fmt.Errorf("%w: %s", common.ErrUnknownAction, kind)
	}
}

func (d *Dispatcher) confirmationSender(db dbx.DBTX, subject string) confirmationSender {
	return confirmationSender{
		issuer:    d.deps.Issuer.With(d.deps.Repositories.ConfirmationTokens(db)),
		notifier:  d.deps.Notifier,
		templates: d.deps.Templates,
		subject:   subject,
	}
}
