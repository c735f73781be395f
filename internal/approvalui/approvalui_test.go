package approvalui

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"sync"
	"testing"

	"github.com/AlexZinkM/wallet-guard/internal/approval"
	"github.com/AlexZinkM/wallet-guard/internal/messenger"
	"github.com/AlexZinkM/wallet-guard/internal/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

type scriptedPrompter struct {
	consent   bool
	passwords []string

	mu       sync.Mutex
	confirms []approval.ConfirmParams
	messages []string
}

func (p *scriptedPrompter) Confirm(ctx context.Context, req approval.ConfirmParams) (bool, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.confirms = append(p.confirms, req)
	return p.consent, nil
}

func (p *scriptedPrompter) Password(ctx context.Context, req approval.PasswordParams) (string, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.messages = append(p.messages, req.Message)
	if len(p.passwords) == 0 {
		return "", nil
	}
	pw := p.passwords[0]
	p.passwords = p.passwords[1:]
	return pw, nil
}

type mapExtractor map[string]string

func (m mapExtractor) ExtractKey(ctx context.Context, identity string, password []byte) (model.KeyPair, error) {
	secret, ok := m[identity]
	if !ok {
		return model.KeyPair{}, model.ErrNotFound
	}
	if string(password) != "good" {
		return model.KeyPair{}, model.ErrDecryptionFailed
	}
	return model.KeyPair{Public: identity, Secret: &model.SecretPayload{PrivateKey: secret}}, nil
}

func startBackground(t *testing.T, hub *messenger.Hub) *messenger.Messenger {
	t.Helper()
	ep, err := hub.Attach(messenger.Background)
	require.NoError(t, err)
	m := messenger.New(messenger.Background, nil, ep, zaptest.NewLogger(t))

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		defer close(done)
		m.Serve(ctx)
	}()
	t.Cleanup(func() {
		cancel()
		<-done
	})
	return m
}

func TestWorkflowOverMessenger(t *testing.T) {
	hub := messenger.NewHub(zaptest.NewLogger(t))
	background := startBackground(t, hub)
	prompter := &scriptedPrompter{consent: true, passwords: []string{"bad", "good"}}

	launcher := NewLauncher(hub, background, prompter, zaptest.NewLogger(t))
	controller := approval.NewController(launcher, mapExtractor{"K1": "S1"}, 0, zaptest.NewLogger(t))

	kp, flow, err := controller.Run(context.Background(), model.ApprovalRequest{
		Identity:      "K1",
		OperationType: model.OperationRun,
		UserMessage:   "Pay for order #42",
	})
	require.NoError(t, err)
	assert.Equal(t, "S1", kp.Secret.PrivateKey)
	assert.Equal(t, approval.KeyExtracted, flow.State())
	assert.Equal(t, []string{"", approval.InvalidPasswordMessage}, prompter.messages)
	require.Len(t, prompter.confirms, 1)
	assert.Equal(t, "Pay for order #42", prompter.confirms[0].Message)

	// The approval context is gone once the workflow ends
	assert.Equal(t, []string{messenger.Background}, hub.Labels())

	// and a fresh one is opened for the next request
	prompter.passwords = []string{"good"}
	_, err = controller.Authorize(context.Background(), model.ApprovalRequest{Identity: "K1", OperationType: model.OperationRunLocal})
	require.NoError(t, err)
	assert.Equal(t, []string{messenger.Background}, hub.Labels())
}

func TestCancelledPasswordIsRejection(t *testing.T) {
	hub := messenger.NewHub(zaptest.NewLogger(t))
	background := startBackground(t, hub)
	prompter := &scriptedPrompter{consent: true}

	launcher := NewLauncher(hub, background, prompter, zaptest.NewLogger(t))
	controller := approval.NewController(launcher, mapExtractor{"K1": "S1"}, 0, zaptest.NewLogger(t))

	_, err := controller.Authorize(context.Background(), model.ApprovalRequest{Identity: "K1"})
	assert.ErrorIs(t, err, model.ErrRejectedByUser)
}

func TestDiagnosticMethods(t *testing.T) {
	hub := messenger.NewHub(zaptest.NewLogger(t))
	background := startBackground(t, hub)
	launcher := NewLauncher(hub, background, &scriptedPrompter{}, zaptest.NewLogger(t))

	surface, err := launcher.Open(context.Background())
	require.NoError(t, err)

	var out string
	require.NoError(t, background.Call(context.Background(), messenger.Approval, messenger.PopupTest, nil, &out))
	assert.Equal(t, "popup ok", out)

	err = background.Call(context.Background(), messenger.Approval, messenger.PopupFall, nil, nil)
	assert.True(t, errors.Is(err, model.ErrTestFault))

	require.NoError(t, surface.Close(context.Background()))
	err = background.Call(context.Background(), messenger.Approval, messenger.PopupTest, nil, nil)
	assert.ErrorIs(t, err, messenger.ErrNoSuchContext)
}

func TestPrompterReadsAnswers(t *testing.T) {
	var out bytes.Buffer
	p := NewPrompter(strings.NewReader("y\nsecret\n"), &out)

	ok, err := p.Confirm(context.Background(), approval.ConfirmParams{
		Identity: "K1",
		Type:     model.OperationRun,
		Details:  model.CallingDetails{FunctionName: "transfer", Address: "dest"},
		Message:  "Pay for order #42",
	})
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Contains(t, out.String(), "K1")
	assert.Contains(t, out.String(), "transfer")
	assert.Contains(t, out.String(), "Pay for order #42")

	pw, err := p.Password(context.Background(), approval.PasswordParams{Identity: "K1", Message: approval.InvalidPasswordMessage})
	require.NoError(t, err)
	assert.Equal(t, "secret", pw)
	assert.Contains(t, out.String(), approval.InvalidPasswordMessage)
}

func TestPrompterDefaultsToNo(t *testing.T) {
	p := NewPrompter(strings.NewReader("\n"), &bytes.Buffer{})

	ok, err := p.Confirm(context.Background(), approval.ConfirmParams{Identity: "K1"})
	require.NoError(t, err)
	assert.False(t, ok)
}
