package intercept

import (
	"context"
	"errors"
	"testing"

	"github.com/AlexZinkM/wallet-guard/internal/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingClient struct {
	calls []model.OperationType
	seen  []model.CallParams
	err   error
}

func (c *recordingClient) record(op model.OperationType, params model.CallParams) (*model.CallResult, error) {
	c.calls = append(c.calls, op)
	// Copy what the client saw before the guard wipes the secret
	if params.KeyPair != nil {
		kp := *params.KeyPair
		if kp.Secret != nil {
			secret := *kp.Secret
			kp.Secret = &secret
		}
		params.KeyPair = &kp
	}
	c.seen = append(c.seen, params)
	if c.err != nil {
		return nil, c.err
	}
	return &model.CallResult{Status: string(op)}, nil
}

func (c *recordingClient) Run(ctx context.Context, params model.CallParams) (*model.CallResult, error) {
	return c.record(model.OperationRun, params)
}

func (c *recordingClient) RunLocal(ctx context.Context, params model.CallParams) (*model.CallResult, error) {
	return c.record(model.OperationRunLocal, params)
}

func (c *recordingClient) CreateRunMessage(ctx context.Context, params model.CallParams) (*model.CallResult, error) {
	return c.record(model.OperationCreateRunMessage, params)
}

type fakeAuthorizer struct {
	requests []model.ApprovalRequest
	err      error
}

func (a *fakeAuthorizer) Authorize(ctx context.Context, req model.ApprovalRequest) (model.KeyPair, error) {
	a.requests = append(a.requests, req)
	if a.err != nil {
		return model.KeyPair{}, a.err
	}
	return model.KeyPair{Public: req.Identity, Secret: &model.SecretPayload{PrivateKey: "S-" + req.Identity}}, nil
}

func TestNeedsApproval(t *testing.T) {
	assert.False(t, NeedsApproval(model.CallParams{}))
	assert.False(t, NeedsApproval(model.CallParams{KeyPair: &model.KeyPair{}}))
	assert.True(t, NeedsApproval(model.CallParams{KeyPair: &model.KeyPair{Public: "K1"}}))
	assert.True(t, NeedsApproval(model.CallParams{KeyPair: &model.KeyPair{Public: "K1", Secret: &model.SecretPayload{}}}))
	assert.False(t, NeedsApproval(model.CallParams{KeyPair: &model.KeyPair{Public: "K1", Secret: &model.SecretPayload{PrivateKey: "S1"}}}))
}

func TestPassthroughWithSecret(t *testing.T) {
	client := &recordingClient{}
	auth := &fakeAuthorizer{}
	guard := NewGuard(client, auth)

	params := model.CallParams{KeyPair: &model.KeyPair{Public: "K1", Secret: &model.SecretPayload{PrivateKey: "S1"}}}
	res, err := guard.Run(context.Background(), params)
	require.NoError(t, err)
	assert.Equal(t, "run", res.Status)

	assert.Empty(t, auth.requests)
	assert.Equal(t, []model.OperationType{model.OperationRun}, client.calls)
	assert.Equal(t, "S1", client.seen[0].KeyPair.Secret.PrivateKey)
}

func TestPassthroughWithoutKey(t *testing.T) {
	client := &recordingClient{}
	auth := &fakeAuthorizer{}
	guard := NewGuard(client, auth)

	_, err := guard.CreateRunMessage(context.Background(), model.CallParams{FunctionName: "memo"})
	require.NoError(t, err)
	assert.Empty(t, auth.requests)
	assert.Len(t, client.calls, 1)
}

func TestInterceptSubstitutesKey(t *testing.T) {
	client := &recordingClient{}
	auth := &fakeAuthorizer{}
	guard := NewGuard(client, auth)

	params := model.CallParams{
		KeyPair:      &model.KeyPair{Public: "K1"},
		Address:      "dest",
		FunctionName: "transfer",
		Input:        []byte(`{"amount":"1"}`),
		Message:      "pay rent",
	}

	for _, call := range []func(context.Context, model.CallParams) (*model.CallResult, error){
		guard.Run, guard.RunLocal, guard.CreateRunMessage,
	} {
		_, err := call(context.Background(), params)
		require.NoError(t, err)
	}

	require.Len(t, auth.requests, 3)
	assert.Equal(t, model.ApprovalRequest{
		Identity:      "K1",
		OperationType: model.OperationRun,
		CallingDetails: model.CallingDetails{
			Address:      "dest",
			FunctionName: "transfer",
			Input:        []byte(`{"amount":"1"}`),
		},
		UserMessage: "pay rent",
	}, auth.requests[0])
	assert.Equal(t, model.OperationRunLocal, auth.requests[1].OperationType)
	assert.Equal(t, model.OperationCreateRunMessage, auth.requests[2].OperationType)

	assert.Equal(t, []model.OperationType{model.OperationRun, model.OperationRunLocal, model.OperationCreateRunMessage}, client.calls)
	for _, seen := range client.seen {
		assert.Equal(t, "S-K1", seen.KeyPair.Secret.PrivateKey)
	}

	// The caller's params are left as they were
	assert.Nil(t, params.KeyPair.Secret)
}

func TestAuthorizationFailureSkipsClient(t *testing.T) {
	client := &recordingClient{}
	auth := &fakeAuthorizer{err: model.ErrRejectedByUser}
	guard := NewGuard(client, auth)

	_, err := guard.Run(context.Background(), model.CallParams{KeyPair: &model.KeyPair{Public: "K1"}})
	assert.ErrorIs(t, err, model.ErrRejectedByUser)
	assert.Empty(t, client.calls)
}

func TestClientErrorPropagatesUnchanged(t *testing.T) {
	boom := errors.New("rpc unavailable")
	client := &recordingClient{err: boom}
	guard := NewGuard(client, &fakeAuthorizer{})

	_, err := guard.Run(context.Background(), model.CallParams{KeyPair: &model.KeyPair{Public: "K1"}})
	assert.Same(t, boom, err)
	assert.Len(t, client.calls, 1)
}
