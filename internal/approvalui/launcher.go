package approvalui

import (
	"context"
	"fmt"

	"github.com/AlexZinkM/wallet-guard/internal/approval"
	"github.com/AlexZinkM/wallet-guard/internal/messenger"
	"github.com/AlexZinkM/wallet-guard/internal/model"

	"go.uber.org/zap"
)

// Prompter talks to the user on behalf of the approval context.
type Prompter interface {
	Confirm(ctx context.Context, req approval.ConfirmParams) (bool, error)
	// Password returns the entered password, or "" if the user cancelled.
	Password(ctx context.Context, req approval.PasswordParams) (string, error)
}

// Launcher opens a fresh approval context on the hub for every workflow.
type Launcher struct {
	hub      *messenger.Hub
	caller   approval.Caller
	prompter Prompter
	log      *zap.Logger
}

// NewLauncher returns an approval.Opener. caller is the background messenger the
// controller drives the approval context with.
func NewLauncher(hub *messenger.Hub, caller approval.Caller, prompter Prompter, logger *zap.Logger) *Launcher {
	return &Launcher{
		hub:      hub,
		caller:   caller,
		prompter: prompter,
		log:      logger.Named("approvalui"),
	}
}

// Open attaches the approval context and returns once it is serving.
func (l *Launcher) Open(ctx context.Context) (approval.Surface, error) {
	ep, err := l.hub.Attach(messenger.Approval)
	if err != nil {
		return nil, fmt.Errorf("failed to attach approval context: %w", err)
	}

	popup := messenger.New(messenger.Approval, Registry(l.prompter), ep, l.log)

	ready := make(chan struct{})
	go func() {
		close(ready)
		if err := popup.Serve(context.WithoutCancel(ctx)); err != nil {
			l.log.Warn("approval context stopped", zap.Error(err))
		}
	}()

	select {
	case <-ready:
	case <-ctx.Done():
		ep.Close()
		return nil, ctx.Err()
	}

	return &surface{
		RemoteSurface: approval.NewRemoteSurface(l.caller, messenger.Approval),
		endpoint:      ep,
		popup:         popup,
	}, nil
}

// surface detaches the approval context once it has answered popup_close.
type surface struct {
	*approval.RemoteSurface
	endpoint *messenger.Endpoint
	popup    *messenger.Messenger
}

func (s *surface) Close(ctx context.Context) error {
	err := s.RemoteSurface.Close(ctx)
	s.endpoint.Close()
	<-s.popup.Done()
	return err
}

// Registry returns the methods served by an approval context.
func Registry(p Prompter) messenger.Registry {
	return messenger.Registry{
		messenger.PopupAcceptSignMessage: messenger.Handle(func(ctx context.Context, req approval.ConfirmParams) (bool, error) {
			return p.Confirm(ctx, req)
		}),
		messenger.PopupPassword: messenger.Handle(func(ctx context.Context, req approval.PasswordParams) (any, error) {
			password, err := p.Password(ctx, req)
			if err != nil {
				return nil, err
			}
			if password == "" {
				return false, nil
			}
			return password, nil
		}),
		messenger.PopupClose: messenger.Handle(func(ctx context.Context, _ struct{}) (bool, error) {
			return true, nil
		}),
		messenger.PopupTest: messenger.Handle(func(ctx context.Context, _ struct{}) (string, error) {
			return "popup ok", nil
		}),
		messenger.PopupFall: messenger.Handle(func(ctx context.Context, _ struct{}) (any, error) {
			return nil, model.ErrTestFault
		}),
	}
}
