package account

import (
	"context"
	"fmt"

	"github.com/dmitrijs2005/gophauth/internal/common"
	"github.com/dmitrijs2005/gophauth/internal/dbx"
	"github.com/dmitrijs2005/gophauth/internal/logging"
	"github.com/dmitrijs2005/gophauth/internal/server/metrics"
	"github.com/dmitrijs2005/gophauth/internal/server/models"
)

// Facade runs the five lifecycle operations. Each one checks and mutates
// inside a single transaction and mails the user after it commits. Domain
// rejections come back as a Response; the error is reserved for faults.
type Facade struct {
	dispatcher *Dispatcher
	tx         dbx.TxRunner
	logger     logging.Logger
	metrics    *metrics.Metrics
}

func NewFacade(d *Dispatcher, tx dbx.TxRunner, logger logging.Logger, m *metrics.Metrics) *Facade {
	return &Facade{
		dispatcher: d,
		tx:         tx,
		logger:     logger.With("module", "account"),
		metrics:    m,
	}
}

func (f *Facade) Register(ctx context.Context, req RegistrationRequest) (Response, error) {
	return f.withConfirmation(ctx, req)
}

func (f *Facade) Confirm(ctx context.Context, req ConfirmationRequest) (Response, error) {
	var resp Response
	err := f.tx.RunInTx(ctx, func(ctx context.Context, tx dbx.DBTX) error {
		p, err := f.dispatcher.Create(Confirmation, tx)
		if err != nil {
			return err
		}
		if resp, err = p.Check(ctx, req); err != nil || !resp.Success {
			return err
		}
		resp, err = p.Update(ctx, req)
		return err
	})
	if err != nil {
		return f.fault(ctx, Confirmation, err)
	}
	return f.finish(ctx, Confirmation, resp), nil
}

func (f *Facade) Unlock(ctx context.Context, req UnlockRequest) (Response, error) {
	return f.withConfirmation(ctx, req)
}

func (f *Facade) ResetPassword(ctx context.Context, req ResetPasswordRequest) (Response, error) {
	return f.withPasswordMutation(ctx, req)
}

// ChangePassword reports CodePasswordChangedButMailNotSend rather than
// CodePasswordChanged when the new hash is stored but the mail failed.
func (f *Facade) ChangePassword(ctx context.Context, req ChangePasswordRequest) (Response, error) {
	return f.withPasswordMutation(ctx, req)
}

func (f *Facade) withConfirmation(ctx context.Context, req Request) (Response, error) {
	kind := req.Kind()

	var (
		resp Response
		proc confirmationIssuing
		user *models.User
		tok  *models.ConfirmationToken
	)
	err := f.tx.RunInTx(ctx, func(ctx context.Context, tx dbx.DBTX) error {
		p, err := f.dispatcher.Create(kind, tx)
		if err != nil {
			return err
		}
		ci, isIssuing := p.(confirmationIssuing)
		if !isIssuing {
			return fmt.Errorf("%w: %s does not issue confirmations", common.ErrUnsupportedOperation, kind)
		}
		proc = ci

		if resp, err = p.Check(ctx, req); err != nil || !resp.Success {
			return err
		}
		if user, err = p.Save(ctx, req); err != nil {
			return err
		}
		tok, err = ci.issueConfirmation(ctx, user)
		return err
	})
	if code, lost := uniqueViolation(err); lost && kind == Registration {
		return f.finish(ctx, kind, reject(code)), nil
	}
	if err != nil {
		return f.fault(ctx, kind, err)
	}
	if !resp.Success {
		return f.finish(ctx, kind, resp), nil
	}

	sendErr := proc.sendConfirmation(ctx, user, tok)
	if sendErr != nil {
		f.logger.Warn(ctx, "confirmation mail not sent", "action", kind.String(), "user_id", user.ID, "error", sendErr)
	}

	code, err := confirmationQueuedCode(kind, sendErr == nil)
	if err != nil {
		return f.fault(ctx, kind, err)
	}
	return f.finish(ctx, kind, accept(code)), nil
}

func (f *Facade) withPasswordMutation(ctx context.Context, req Request) (Response, error) {
	kind := req.Kind()

	var (
		resp Response
		proc passwordMutation
		user *models.User
	)
	err := f.tx.RunInTx(ctx, func(ctx context.Context, tx dbx.DBTX) error {
		p, err := f.dispatcher.Create(kind, tx)
		if err != nil {
			return err
		}
		pm, isMutation := p.(passwordMutation)
		if !isMutation {
			return fmt.Errorf("%w: %s does not mutate passwords", common.ErrUnsupportedOperation, kind)
		}
		proc = pm

		if resp, err = p.Check(ctx, req); err != nil || !resp.Success {
			return err
		}
		user, err = pm.applyMutation(ctx, req)
		return err
	})
	if err != nil {
		return f.fault(ctx, kind, err)
	}
	if !resp.Success {
		return f.finish(ctx, kind, resp), nil
	}

	sendErr := proc.notifyPasswordMutation(ctx, user)
	if sendErr != nil {
		f.logger.Warn(ctx, "password mail not sent", "action", kind.String(), "user_id", user.ID, "error", sendErr)
	}

	code, err := passwordMailCode(kind, sendErr == nil)
	if err != nil {
		return f.fault(ctx, kind, err)
	}
	return f.finish(ctx, kind, accept(code)), nil
}

func (f *Facade) finish(ctx context.Context, kind Kind, resp Response) Response {
	f.metrics.ObserveLifecycle(kind.String(), resp.Code.Name(), resp.Success)
	if resp.Success {
		f.logger.Info(ctx, "lifecycle action done", "action", kind.String(), "code", resp.Code.String())
	} else {
		f.logger.Info(ctx, "lifecycle action rejected", "action", kind.String(), "code", resp.Code.String())
	}
	return resp
}

func (f *Facade) fault(ctx context.Context, kind Kind, err error) (Response, error) {
	f.logger.Error(ctx, "lifecycle action failed", "action", kind.String(), "error", err)
	return Response{}, err
}
