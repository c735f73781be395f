package background

import (
	"context"

	"github.com/AlexZinkM/wallet-guard/internal/intercept"
	"github.com/AlexZinkM/wallet-guard/internal/messenger"
	"github.com/AlexZinkM/wallet-guard/internal/model"

	"github.com/ethereum/go-ethereum/event"
	"go.uber.org/zap"
)

// Keys is the read side of the keyring exposed to other contexts.
type Keys interface {
	ListIdentities() []string
	IsKnown(identity string) bool
}

// Networks is the network manager as seen by the background context.
type Networks interface {
	Network(name string) (model.NetworkInfo, error)
	Networks() map[string]model.NetworkProfile
	Subscribe(ch chan<- model.Event) event.Subscription
}

// Endpoint is implemented by clients that follow the current network.
type Endpoint interface {
	SetEndpoint(url string)
}

// Broadcaster delivers an event to every other context.
type Broadcaster interface {
	Broadcast(ctx context.Context, ev model.Event) error
}

// IdentityParams names one key by its public identity.
type IdentityParams struct {
	Identity string `json:"identity"`
}

// NetworkParams selects a network profile. An empty name means the current one.
type NetworkParams struct {
	Name string `json:"name,omitempty"`
}

// TestParams are the operands of main_test.
type TestParams struct {
	A int `json:"a"`
	B int `json:"b"`
}

// Service serves the main_* methods of the background context.
// Run operations go through client, which is expected to be an intercept.Guard
// so decrypted keys never leave this context.
type Service struct {
	client   intercept.Client
	keys     Keys
	networks Networks
	log      *zap.Logger
}

func NewService(client intercept.Client, keys Keys, networks Networks, logger *zap.Logger) *Service {
	return &Service{
		client:   client,
		keys:     keys,
		networks: networks,
		log:      logger.Named("background"),
	}
}

// Register adds the background methods to reg. It must be called before the messenger serves.
func (s *Service) Register(reg messenger.Registry) {
	reg[messenger.MainRun] = messenger.Handle(s.client.Run)
	reg[messenger.MainRunLocal] = messenger.Handle(s.client.RunLocal)
	reg[messenger.MainCreateRunMessage] = messenger.Handle(s.client.CreateRunMessage)
	reg[messenger.MainGetPublicKeys] = messenger.Handle(s.getPublicKeys)
	reg[messenger.MainIsKeyInKeyring] = messenger.Handle(s.isKeyInKeyring)
	reg[messenger.MainGetNetwork] = messenger.Handle(s.getNetwork)
	reg[messenger.MainGetNetworks] = messenger.Handle(s.getNetworks)
	reg[messenger.MainTest] = messenger.Handle(s.test)
	reg[messenger.MainFall] = messenger.Handle(s.fall)
}

// Registry returns a fresh registry holding only the background methods.
func (s *Service) Registry() messenger.Registry {
	reg := messenger.Registry{}
	s.Register(reg)
	return reg
}

func (s *Service) getPublicKeys(ctx context.Context, _ struct{}) ([]string, error) {
	return s.keys.ListIdentities(), nil
}

func (s *Service) isKeyInKeyring(ctx context.Context, params IdentityParams) (bool, error) {
	return s.keys.IsKnown(params.Identity), nil
}

func (s *Service) getNetwork(ctx context.Context, params NetworkParams) (model.NetworkInfo, error) {
	return s.networks.Network(params.Name)
}

func (s *Service) getNetworks(ctx context.Context, _ struct{}) (map[string]model.NetworkProfile, error) {
	return s.networks.Networks(), nil
}

func (s *Service) test(ctx context.Context, params TestParams) (int, error) {
	return params.A + params.B, nil
}

func (s *Service) fall(ctx context.Context, _ struct{}) (any, error) {
	return nil, model.ErrTestFault
}

// FollowNetwork points every endpoint at the new network and rebroadcasts
// network changes to all contexts. It returns when ctx is done.
func (s *Service) FollowNetwork(ctx context.Context, bcast Broadcaster, endpoints ...Endpoint) error {
	events := make(chan model.Event, 4)
	sub := s.networks.Subscribe(events)
	defer sub.Unsubscribe()

	for {
		select {
		case ev := <-events:
			if ev.Network == nil {
				continue
			}
			for _, e := range endpoints {
				e.SetEndpoint(ev.Network.Network.URL)
			}
			if err := bcast.Broadcast(ctx, ev); err != nil {
				s.log.Warn("failed to broadcast network change", zap.String("network", ev.Network.Name), zap.Error(err))
				continue
			}
			s.log.Info("network change broadcast", zap.String("network", ev.Network.Name))
		case err := <-sub.Err():
			return err
		case <-ctx.Done():
			return nil
		}
	}
}
