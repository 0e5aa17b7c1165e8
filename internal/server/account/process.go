package account

import (
	"context"
	"fmt"

	"github.com/dmitrijs2005/gophauth/internal/common"
	"github.com/dmitrijs2005/gophauth/internal/server/confirmation"
	"github.com/dmitrijs2005/gophauth/internal/server/models"
	"github.com/dmitrijs2005/gophauth/internal/server/notify"
)

// Process is one lifecycle action bound to a set of repositories.
//
// Check never mutates. A Check given a request of another action returns
// CodeBadRequestType. Save and Update assume a successful Check; given the
// wrong request shape they fail with common.ErrBadRequestType, and on a
// process that does not support them with common.ErrUnsupportedOperation.
type Process interface {
	Kind() Kind
	Check(ctx context.Context, req Request) (Response, error)
	Save(ctx context.Context, req Request) (*models.User, error)
	Update(ctx context.Context, req Request) (Response, error)
}

type baseProcess struct {
	kind Kind
}

func (b baseProcess) Kind() Kind { return b.kind }

func (b baseProcess) Save(context.Context, Request) (*models.User, error) {
	return nil, fmt.Errorf("%w: %s does not support save", common.ErrUnsupportedOperation, b.kind)
}

func (b baseProcess) Update(context.Context, Request) (Response, error) {
	return Response{}, fmt.Errorf("%w: %s does not support update", common.ErrUnsupportedOperation, b.kind)
}

func (b baseProcess) badRequest(req Request) error {
	return fmt.Errorf("%w: %s process got %T", common.ErrBadRequestType, b.kind, req)
}

// confirmationIssuing is implemented by registration and unlock. After Save
// they mint a confirmation token and mail its link to the account.
type confirmationIssuing interface {
	Process
	issueConfirmation(ctx context.Context, user *models.User) (*models.ConfirmationToken, error)
	sendConfirmation(ctx context.Context, user *models.User, tok *models.ConfirmationToken) error
}

// passwordMutation is implemented by reset and change password. Both write
// a new hash and then tell the account holder about it. applyMutation runs
// the variant's own capability (Save for reset, Update for change) and
// returns the mutated account for the mail.
type passwordMutation interface {
	Process
	applyMutation(ctx context.Context, req Request) (*models.User, error)
	notifyPasswordMutation(ctx context.Context, user *models.User) error
}

var (
	_ confirmationIssuing = (*registrationProcess)(nil)
	_ confirmationIssuing = (*unlockProcess)(nil)
	_ passwordMutation    = (*resetPasswordProcess)(nil)
	_ passwordMutation    = (*changePasswordProcess)(nil)
)

// confirmationQueuedCode is the final code of a confirmation-issuing action
// depending on whether its mail went out.
func confirmationQueuedCode(kind Kind, sent bool) (Code, error) {
	switch kind {
	case Registration:
		if sent {
			return CodeRegistrationVerificationQueued, nil
		}
		return CodeRegisteredButMailNotSend, nil
	case Unlock:
		if sent {
			return CodeUnlockVerificationQueued, nil
		}
		return CodeUnlockMailNotSend, nil
	default:
		return CodeBadRequestType, fmt.Errorf("%w: %s does not issue confirmations", common.ErrUnsupportedOperation, kind)
	}
}

// passwordMailCode is the final code of a password mutation depending on
// whether its mail went out.
func passwordMailCode(kind Kind, sent bool) (Code, error) {
	switch kind {
	case ResetPassword:
		if sent {
			return CodeNewPasswordMailQueued, nil
		}
		return CodePasswordResetButMailNotSend, nil
	case ChangePassword:
		if sent {
			return CodePasswordChanged, nil
		}
		return CodePasswordChangedButMailNotSend, nil
	default:
		return CodeBadRequestType, fmt.Errorf("%w: %s does not mutate passwords", common.ErrUnsupportedOperation, kind)
	}
}

type confirmationSender struct {
	issuer    *confirmation.Issuer
	notifier  notify.Notifier
	templates *notify.Templates
	subject   string
}

func (s confirmationSender) issueConfirmation(ctx context.Context, user *models.User) (*models.ConfirmationToken, error) {
	return s.issuer.Issue(ctx, user)
}

func (s confirmationSender) sendConfirmation(ctx context.Context, user *models.User, tok *models.ConfirmationToken) error {
	m, err := s.templates.Confirmation(s.subject, user, tok)
	if err != nil {
		return err
	}
	return s.notifier.Send(ctx, user.Email, m.Subject, m.Body)
}

type passwordNotifier struct {
	notifier notify.Notifier
	render   func(user *models.User) (notify.Message, error)
}

func (n passwordNotifier) notifyPasswordMutation(ctx context.Context, user *models.User) error {
	m, err := n.render(user)
	if err != nil {
		return err
	}
	return n.notifier.Send(ctx, user.Email, m.Subject, m.Body)
}
