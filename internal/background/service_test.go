package background

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/AlexZinkM/wallet-guard/internal/intercept"
	"github.com/AlexZinkM/wallet-guard/internal/keyring"
	"github.com/AlexZinkM/wallet-guard/internal/messenger"
	"github.com/AlexZinkM/wallet-guard/internal/model"
	"github.com/AlexZinkM/wallet-guard/internal/network"
	"github.com/AlexZinkM/wallet-guard/internal/store"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

// recordingClient remembers the params every operation was invoked with.
type recordingClient struct {
	mu       sync.Mutex
	calls    []model.CallParams
	endpoint string
}

func (c *recordingClient) record(params model.CallParams, status string) (*model.CallResult, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.calls = append(c.calls, params)
	return &model.CallResult{Status: status}, nil
}

func (c *recordingClient) Run(ctx context.Context, params model.CallParams) (*model.CallResult, error) {
	return c.record(params, "confirmed")
}

func (c *recordingClient) RunLocal(ctx context.Context, params model.CallParams) (*model.CallResult, error) {
	return c.record(params, "simulated")
}

func (c *recordingClient) CreateRunMessage(ctx context.Context, params model.CallParams) (*model.CallResult, error) {
	return c.record(params, "signed")
}

func (c *recordingClient) SetEndpoint(url string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.endpoint = url
}

func (c *recordingClient) Endpoint() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.endpoint
}

func (c *recordingClient) last() model.CallParams {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.calls[len(c.calls)-1]
}

// grantingAuthorizer approves every request with a fixed secret.
type grantingAuthorizer struct {
	secret   string
	requests []model.ApprovalRequest
}

func (a *grantingAuthorizer) Authorize(ctx context.Context, req model.ApprovalRequest) (model.KeyPair, error) {
	a.requests = append(a.requests, req)
	return model.KeyPair{Public: req.Identity, Secret: &model.SecretPayload{PrivateKey: a.secret}}, nil
}

type fixture struct {
	hub        *messenger.Hub
	client     *recordingClient
	authorizer *grantingAuthorizer
	networks   *network.Manager
	service    *Service
	background *messenger.Messenger
	page       *messenger.Messenger
}

func serve(t *testing.T, hub *messenger.Hub, label string, reg messenger.Registry) *messenger.Messenger {
	t.Helper()
	ep, err := hub.Attach(label)
	require.NoError(t, err)
	m := messenger.New(label, reg, ep, zaptest.NewLogger(t))

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		defer close(done)
		m.Serve(ctx)
	}()
	t.Cleanup(func() {
		cancel()
		ep.Close()
		<-done
	})
	return m
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	ctx := context.Background()
	logger := zaptest.NewLogger(t)

	backend := store.NewMemory()
	t.Cleanup(func() { backend.Close() })

	keys := keyring.New(store.NewVault(backend, 1<<10), "TONWallet", logger)
	require.NoError(t, keys.Initialize(ctx))
	require.NoError(t, keys.AddKey(ctx, "K1", model.SecretPayload{PrivateKey: "S1"}, []byte("good")))

	networks := network.New(store.NewSettings(backend), network.Config{}, logger)
	require.NoError(t, networks.Initialize(ctx))

	f := &fixture{
		hub:        messenger.NewHub(logger),
		client:     &recordingClient{},
		authorizer: &grantingAuthorizer{secret: "S1"},
		networks:   networks,
	}
	f.service = NewService(intercept.NewGuard(f.client, f.authorizer), keys, networks, logger)
	f.background = serve(t, f.hub, messenger.Background, f.service.Registry())
	f.page = serve(t, f.hub, "page-1", nil)
	return f
}

func TestRunIsAuthorizedInBackground(t *testing.T) {
	f := newFixture(t)

	params := model.CallParams{
		KeyPair:      &model.KeyPair{Public: "K1"},
		Address:      "dest",
		FunctionName: "transfer",
		Message:      "pay rent",
	}
	var res model.CallResult
	require.NoError(t, f.page.Call(context.Background(), messenger.Background, messenger.MainRun, params, &res))
	assert.Equal(t, "confirmed", res.Status)

	require.Len(t, f.authorizer.requests, 1)
	req := f.authorizer.requests[0]
	assert.Equal(t, "K1", req.Identity)
	assert.Equal(t, model.OperationRun, req.OperationType)
	assert.Equal(t, "pay rent", req.UserMessage)

	// The client saw the secret, which has been wiped since
	got := f.client.last()
	require.NotNil(t, got.KeyPair)
	assert.Equal(t, "K1", got.KeyPair.Public)
	assert.Empty(t, got.KeyPair.Secret.PrivateKey)
}

func TestOperationsMapToClient(t *testing.T) {
	f := newFixture(t)
	params := model.CallParams{KeyPair: &model.KeyPair{Public: "K1"}}

	for method, status := range map[messenger.Method]string{
		messenger.MainRunLocal:         "simulated",
		messenger.MainCreateRunMessage: "signed",
	} {
		var res model.CallResult
		require.NoError(t, f.page.Call(context.Background(), messenger.Background, method, params, &res))
		assert.Equal(t, status, res.Status, method)
	}
	assert.Len(t, f.authorizer.requests, 2)
	assert.Equal(t, model.OperationRunLocal, f.authorizer.requests[0].OperationType)
	assert.Equal(t, model.OperationCreateRunMessage, f.authorizer.requests[1].OperationType)
}

func TestKeyringQueries(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	var keys []string
	require.NoError(t, f.page.Call(ctx, messenger.Background, messenger.MainGetPublicKeys, nil, &keys))
	assert.Equal(t, []string{"K1"}, keys)

	var known bool
	require.NoError(t, f.page.Call(ctx, messenger.Background, messenger.MainIsKeyInKeyring, IdentityParams{Identity: "K1"}, &known))
	assert.True(t, known)
	require.NoError(t, f.page.Call(ctx, messenger.Background, messenger.MainIsKeyInKeyring, IdentityParams{Identity: "K2"}, &known))
	assert.False(t, known)
}

func TestNetworkQueries(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	var info model.NetworkInfo
	require.NoError(t, f.page.Call(ctx, messenger.Background, messenger.MainGetNetwork, nil, &info))
	assert.Equal(t, network.Mainnet, info.Name)

	require.NoError(t, f.page.Call(ctx, messenger.Background, messenger.MainGetNetwork, NetworkParams{Name: network.Devnet}, &info))
	assert.Equal(t, network.Devnet, info.Name)

	err := f.page.Call(ctx, messenger.Background, messenger.MainGetNetwork, NetworkParams{Name: "nowhere"}, &info)
	assert.ErrorIs(t, err, model.ErrInvalidNetwork)

	var all map[string]model.NetworkProfile
	require.NoError(t, f.page.Call(ctx, messenger.Background, messenger.MainGetNetworks, nil, &all))
	assert.Contains(t, all, network.Testnet)
}

func TestDiagnostics(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	var sum int
	require.NoError(t, f.page.Call(ctx, messenger.Background, messenger.MainTest, TestParams{A: 2, B: 3}, &sum))
	assert.Equal(t, 5, sum)

	err := f.page.Call(ctx, messenger.Background, messenger.MainFall, nil, nil)
	assert.ErrorIs(t, err, model.ErrTestFault)
}

func TestFollowNetwork(t *testing.T) {
	f := newFixture(t)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- f.service.FollowNetwork(ctx, f.background, f.client) }()

	events := make(chan model.Event, 1)
	sub := f.page.Subscribe(events)
	defer sub.Unsubscribe()

	// Give FollowNetwork time to subscribe
	require.Eventually(t, func() bool {
		if err := f.networks.ChangeNetwork(network.Devnet); err != nil {
			return false
		}
		return f.client.Endpoint() == "https://api.devnet.solana.com"
	}, time.Second, 10*time.Millisecond)

	select {
	case ev := <-events:
		assert.Equal(t, model.EventNetworkChanged, ev.Type)
		assert.Equal(t, network.Devnet, ev.Network.Name)
	case <-time.After(time.Second):
		t.Fatal("page did not receive network_changed")
	}

	cancel()
	assert.NoError(t, <-done)
}
