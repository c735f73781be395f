// Package page is the client side used by untrusted contexts. Calls naming a key
// by its public identity only are forwarded to the background context, which asks
// the user for approval and runs them there.
package page

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/AlexZinkM/wallet-guard/internal/background"
	"github.com/AlexZinkM/wallet-guard/internal/intercept"
	"github.com/AlexZinkM/wallet-guard/internal/messenger"
	"github.com/AlexZinkM/wallet-guard/internal/model"

	"github.com/ethereum/go-ethereum/event"
	"go.uber.org/zap"
)

// Local is the blockchain client the page runs calls on when no approval is needed.
type Local interface {
	intercept.Client
	SetEndpoint(url string)
}

// Remote is the page's messenger.
type Remote interface {
	Call(ctx context.Context, target string, method messenger.Method, params, result any) error
	Subscribe(ch chan<- model.Event) event.Subscription
}

// Client routes calls either to local or to the background context.
type Client struct {
	local  Local
	remote Remote
	log    *zap.Logger
}

func NewClient(local Local, remote Remote, logger *zap.Logger) *Client {
	return &Client{
		local:  local,
		remote: remote,
		log:    logger.Named("page"),
	}
}

// Session is a Client connected to the daemon over a websocket.
type Session struct {
	*Client
	messenger *messenger.Messenger
	transport *messenger.WebsocketTransport
}

// Connect dials the daemon websocket at url. Serve must run for calls to be answered.
func Connect(ctx context.Context, url string, header http.Header, local Local, logger *zap.Logger) (*Session, error) {
	transport, err := messenger.DialWebsocket(ctx, url, header)
	if err != nil {
		return nil, err
	}
	m := messenger.New("page", nil, transport, logger)
	return &Session{
		Client:    NewClient(local, m, logger),
		messenger: m,
		transport: transport,
	}, nil
}

// Serve receives replies and broadcasts until ctx is done or the connection drops.
func (s *Session) Serve(ctx context.Context) error {
	return s.messenger.Serve(ctx)
}

func (s *Session) Close() error {
	return s.transport.Close()
}

type operation func(ctx context.Context, params model.CallParams) (*model.CallResult, error)

func (c *Client) call(ctx context.Context, method messenger.Method, local operation, params model.CallParams) (*model.CallResult, error) {
	if !intercept.NeedsApproval(params) {
		return local(ctx, params)
	}

	known, err := c.IsKeyInKeyring(ctx, params.KeyPair.Public)
	if err != nil {
		return nil, err
	}
	if !known {
		return local(ctx, params)
	}

	c.log.Debug("forwarding call to background", zap.String("method", string(method)), zap.String("identity", params.KeyPair.Public))
	var res model.CallResult
	if err := c.remote.Call(ctx, messenger.Background, method, params, &res); err != nil {
		return nil, err
	}
	return &res, nil
}

func (c *Client) Run(ctx context.Context, params model.CallParams) (*model.CallResult, error) {
	return c.call(ctx, messenger.MainRun, c.local.Run, params)
}

func (c *Client) RunLocal(ctx context.Context, params model.CallParams) (*model.CallResult, error) {
	return c.call(ctx, messenger.MainRunLocal, c.local.RunLocal, params)
}

func (c *Client) CreateRunMessage(ctx context.Context, params model.CallParams) (*model.CallResult, error) {
	return c.call(ctx, messenger.MainCreateRunMessage, c.local.CreateRunMessage, params)
}

// PublicKeys lists the identities held by the background keyring.
func (c *Client) PublicKeys(ctx context.Context) ([]string, error) {
	var keys []string
	if err := c.remote.Call(ctx, messenger.Background, messenger.MainGetPublicKeys, nil, &keys); err != nil {
		return nil, fmt.Errorf("failed to get public keys: %w", err)
	}
	return keys, nil
}

func (c *Client) IsKeyInKeyring(ctx context.Context, identity string) (bool, error) {
	var known bool
	err := c.remote.Call(ctx, messenger.Background, messenger.MainIsKeyInKeyring, background.IdentityParams{Identity: identity}, &known)
	if err != nil {
		return false, fmt.Errorf("failed to check keyring: %w", err)
	}
	return known, nil
}

// Network returns the named profile, or the current one when name is empty.
func (c *Client) Network(ctx context.Context, name string) (model.NetworkInfo, error) {
	var info model.NetworkInfo
	err := c.remote.Call(ctx, messenger.Background, messenger.MainGetNetwork, background.NetworkParams{Name: name}, &info)
	if err != nil {
		return model.NetworkInfo{}, fmt.Errorf("failed to get network: %w", err)
	}
	return info, nil
}

func (c *Client) Networks(ctx context.Context) (map[string]model.NetworkProfile, error) {
	var networks map[string]model.NetworkProfile
	if err := c.remote.Call(ctx, messenger.Background, messenger.MainGetNetworks, nil, &networks); err != nil {
		return nil, fmt.Errorf("failed to get networks: %w", err)
	}
	return networks, nil
}

// FollowNetwork points the local client at the current network and keeps it
// there as network_changed broadcasts arrive. It returns when ctx is done.
func (c *Client) FollowNetwork(ctx context.Context) error {
	events := make(chan model.Event, 4)
	sub := c.remote.Subscribe(events)
	defer sub.Unsubscribe()

	if err := c.syncEndpoint(ctx); err != nil {
		return err
	}

	for {
		select {
		case ev := <-events:
			if ev.Type != model.EventNetworkChanged {
				continue
			}
			if err := c.syncEndpoint(ctx); err != nil {
				if errors.Is(err, context.Canceled) {
					return nil
				}
				c.log.Warn("failed to follow network change", zap.Error(err))
			}
		case err := <-sub.Err():
			return err
		case <-ctx.Done():
			return nil
		}
	}
}

func (c *Client) syncEndpoint(ctx context.Context) error {
	info, err := c.Network(ctx, "")
	if err != nil {
		return err
	}
	c.local.SetEndpoint(info.Network.URL)
	c.log.Info("following network", zap.String("network", info.Name), zap.String("url", info.Network.URL))
	return nil
}
