package approval

import (
	"context"
	"encoding/json"

	"github.com/AlexZinkM/wallet-guard/internal/messenger"
	"github.com/AlexZinkM/wallet-guard/internal/model"
)

// Opener instantiates a fresh approval surface. Open returns once the surface
// is ready to serve calls.
type Opener interface {
	Open(ctx context.Context) (Surface, error)
}

// Surface is the user-facing side of one workflow.
type Surface interface {
	// Confirm presents the operation and reports whether the user consents.
	Confirm(ctx context.Context, req ConfirmParams) (bool, error)
	// PromptPassword asks for the password of identity. message is empty on the
	// first prompt. An empty answer means the user gave up.
	PromptPassword(ctx context.Context, message, identity string) (string, error)
	Close(ctx context.Context) error
}

// ConfirmParams are the params of popup_acceptSignMessage.
// Message is the caller's free text, shown alongside the request when set.
type ConfirmParams struct {
	Identity string               `json:"identity"`
	Type     model.OperationType  `json:"type"`
	Details  model.CallingDetails `json:"details"`
	Message  string               `json:"message,omitempty"`
}

// PasswordParams are the params of popup_password.
type PasswordParams struct {
	Message  string `json:"message"`
	Identity string `json:"identity"`
}

// Caller issues calls to another context.
type Caller interface {
	Call(ctx context.Context, target string, method messenger.Method, params, result any) error
}

// RemoteSurface drives an approval context through the messenger.
type RemoteSurface struct {
	caller Caller
	target string
}

func NewRemoteSurface(caller Caller, target string) *RemoteSurface {
	return &RemoteSurface{caller: caller, target: target}
}

func (s *RemoteSurface) Confirm(ctx context.Context, req ConfirmParams) (bool, error) {
	var accepted bool
	err := s.caller.Call(ctx, s.target, messenger.PopupAcceptSignMessage, req, &accepted)
	return accepted, err
}

// PromptPassword accepts either a string or false as the answer.
func (s *RemoteSurface) PromptPassword(ctx context.Context, message, identity string) (string, error) {
	var raw json.RawMessage
	err := s.caller.Call(ctx, s.target, messenger.PopupPassword, PasswordParams{
		Message:  message,
		Identity: identity,
	}, &raw)
	if err != nil {
		return "", err
	}

	var password string
	if json.Unmarshal(raw, &password) != nil {
		return "", nil
	}
	return password, nil
}

func (s *RemoteSurface) Close(ctx context.Context) error {
	return s.caller.Call(ctx, s.target, messenger.PopupClose, nil, nil)
}
