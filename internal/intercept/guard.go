package intercept

import (
	"context"
	"fmt"

	"github.com/AlexZinkM/wallet-guard/internal/model"
)

// Client is the part of the blockchain client whose operations may need a key.
type Client interface {
	Run(ctx context.Context, params model.CallParams) (*model.CallResult, error)
	RunLocal(ctx context.Context, params model.CallParams) (*model.CallResult, error)
	CreateRunMessage(ctx context.Context, params model.CallParams) (*model.CallResult, error)
}

// Authorizer turns an approval request into a decrypted key pair.
type Authorizer interface {
	Authorize(ctx context.Context, req model.ApprovalRequest) (model.KeyPair, error)
}

// NeedsApproval reports whether params name a key by its public identity only.
func NeedsApproval(params model.CallParams) bool {
	return params.KeyPair != nil && params.KeyPair.Public != "" && !params.KeyPair.HasSecret()
}

// Guard wraps a Client so calls carrying only a public identity are authorized
// before they reach it. Calls that already carry a secret pass straight through.
type Guard struct {
	client     Client
	authorizer Authorizer
}

func NewGuard(client Client, authorizer Authorizer) *Guard {
	return &Guard{client: client, authorizer: authorizer}
}

type operation func(ctx context.Context, params model.CallParams) (*model.CallResult, error)

func (g *Guard) call(ctx context.Context, op model.OperationType, fn operation, params model.CallParams) (*model.CallResult, error) {
	if !NeedsApproval(params) {
		return fn(ctx, params)
	}

	kp, err := g.authorizer.Authorize(ctx, model.NewApprovalRequest(op, params))
	if err != nil {
		return nil, err
	}
	if !kp.HasSecret() || kp.Public != params.KeyPair.Public {
		return nil, fmt.Errorf("authorizer returned no key for %s", params.KeyPair.Public)
	}
	defer kp.Secret.Wipe()

	return fn(ctx, params.WithKeyPair(kp))
}

func (g *Guard) Run(ctx context.Context, params model.CallParams) (*model.CallResult, error) {
	return g.call(ctx, model.OperationRun, g.client.Run, params)
}

func (g *Guard) RunLocal(ctx context.Context, params model.CallParams) (*model.CallResult, error) {
	return g.call(ctx, model.OperationRunLocal, g.client.RunLocal, params)
}

func (g *Guard) CreateRunMessage(ctx context.Context, params model.CallParams) (*model.CallResult, error) {
	return g.call(ctx, model.OperationCreateRunMessage, g.client.CreateRunMessage, params)
}
