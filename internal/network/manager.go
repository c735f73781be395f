package network

import (
	"context"
	"errors"
	"fmt"
	"maps"
	"net/url"
	"sync"

	"github.com/AlexZinkM/wallet-guard/internal/model"

	"github.com/BurntSushi/toml"
	"github.com/ethereum/go-ethereum/event"
	"go.uber.org/zap"
)

const (
	Mainnet = "mainnet"
	Devnet  = "devnet"
	Testnet = "testnet"

	currentKey  = "network.current"
	networksKey = "network.list"
)

// Builtin returns the profiles that are always present. They replace stored profiles of the same name.
func Builtin() map[string]model.NetworkProfile {
	return map[string]model.NetworkProfile{
		Mainnet: {
			URL:         "https://api.mainnet-beta.solana.com",
			Explorer:    "https://explorer.solana.com",
			Description: "Solana mainnet beta",
			Site:        "https://solana.com",
		},
		Devnet: {
			URL:         "https://api.devnet.solana.com",
			Explorer:    "https://explorer.solana.com/?cluster=devnet",
			Description: "Solana devnet",
			Site:        "https://solana.com",
			Faucet:      &model.Faucet{Type: "url", Address: "https://faucet.solana.com"},
		},
		Testnet: {
			URL:         "https://api.testnet.solana.com",
			Explorer:    "https://explorer.solana.com/?cluster=testnet",
			Description: "Solana testnet",
			Site:        "https://solana.com",
			Faucet:      &model.Faucet{Type: "url", Address: "https://faucet.solana.com"},
		},
	}
}

// Settings persists the profile list and the current network name.
type Settings interface {
	Load(key string, out any) error
	Save(key string, value any) error
}

// Config selects the extra profile file and the network used when none was stored.
type Config struct {
	File    string // optional TOML file with [networks.<name>] tables
	Default string // defaults to Mainnet
	RPCURL  string // overrides the URL of the default profile when set
}

// fileProfiles is the layout of the TOML profile file.
type fileProfiles struct {
	Networks map[string]model.NetworkProfile `toml:"networks"`
}

// Manager holds the known network profiles and the current selection.
type Manager struct {
	settings Settings
	cfg      Config
	log      *zap.Logger

	mu       sync.RWMutex
	networks map[string]model.NetworkProfile
	current  string

	feed event.FeedOf[model.Event]
}

func New(settings Settings, cfg Config, logger *zap.Logger) *Manager {
	if cfg.Default == "" {
		cfg.Default = Mainnet
	}
	return &Manager{
		settings: settings,
		cfg:      cfg,
		log:      logger.Named("network"),
		networks: Builtin(),
		current:  cfg.Default,
	}
}

// Initialize merges stored, file and builtin profiles (in that order of precedence, lowest first)
// and restores the current network.
func (m *Manager) Initialize(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	networks := make(map[string]model.NetworkProfile)
	if err := m.settings.Load(networksKey, &networks); err != nil && !errors.Is(err, model.ErrNotFound) {
		return fmt.Errorf("failed to load networks: %w", err)
	}

	if m.cfg.File != "" {
		var file fileProfiles
		if _, err := toml.DecodeFile(m.cfg.File, &file); err != nil {
			return fmt.Errorf("failed to read networks file %s: %w", m.cfg.File, err)
		}
		for name, profile := range file.Networks {
			if err := validate(name, profile); err != nil {
				return fmt.Errorf("networks file %s: %w", m.cfg.File, err)
			}
			networks[name] = profile
		}
	}

	// Update networks from the builtin list
	maps.Copy(networks, Builtin())

	if m.cfg.RPCURL != "" {
		profile, ok := networks[m.cfg.Default]
		if !ok {
			profile = model.NetworkProfile{Description: "Configured RPC endpoint"}
		}
		profile.URL = m.cfg.RPCURL
		networks[m.cfg.Default] = profile
	}

	if _, ok := networks[m.cfg.Default]; !ok {
		return fmt.Errorf("%w: default network %q", model.ErrInvalidNetwork, m.cfg.Default)
	}

	current := m.cfg.Default
	var stored string
	err := m.settings.Load(currentKey, &stored)
	switch {
	case err == nil && stored != "":
		if _, ok := networks[stored]; ok {
			current = stored
		} else {
			m.log.Warn("stored network no longer exists, using default",
				zap.String("stored", stored), zap.String("default", current))
		}
	case err != nil && !errors.Is(err, model.ErrNotFound):
		return fmt.Errorf("failed to load current network: %w", err)
	}

	m.mu.Lock()
	m.networks = networks
	m.current = current
	m.mu.Unlock()

	m.log.Info("networks loaded", zap.Int("count", len(networks)), zap.String("current", current))
	return nil
}

// Network returns the named profile, or the current one when name is empty.
func (m *Manager) Network(name string) (model.NetworkInfo, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if name == "" {
		name = m.current
	}
	profile, ok := m.networks[name]
	if !ok {
		return model.NetworkInfo{}, fmt.Errorf("%w: %q", model.ErrInvalidNetwork, name)
	}
	return model.NetworkInfo{Name: name, Network: profile}, nil
}

// Networks returns a copy of all known profiles.
func (m *Manager) Networks() map[string]model.NetworkProfile {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return maps.Clone(m.networks)
}

// Current returns the name of the current network.
func (m *Manager) Current() string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.current
}

// AddNetwork stores a new profile or replaces a user-added one. Builtin profiles cannot be replaced.
func (m *Manager) AddNetwork(name string, profile model.NetworkProfile) error {
	if err := validate(name, profile); err != nil {
		return err
	}
	if _, ok := Builtin()[name]; ok {
		return fmt.Errorf("%w: %q is a builtin network", model.ErrAlreadyExists, name)
	}
	if profile.Description == "" {
		profile.Description = "New network"
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	networks := maps.Clone(m.networks)
	networks[name] = profile
	if err := m.settings.Save(networksKey, networks); err != nil {
		return fmt.Errorf("failed to save networks: %w", err)
	}
	m.networks = networks

	m.log.Info("network added", zap.String("name", name), zap.String("url", profile.URL))
	return nil
}

// ChangeNetwork makes name the current network and notifies subscribers.
func (m *Manager) ChangeNetwork(name string) error {
	m.mu.Lock()
	profile, ok := m.networks[name]
	if !ok {
		m.mu.Unlock()
		return fmt.Errorf("%w: %q", model.ErrInvalidNetwork, name)
	}
	if err := m.settings.Save(currentKey, name); err != nil {
		m.mu.Unlock()
		return fmt.Errorf("failed to save current network: %w", err)
	}
	m.current = name
	m.mu.Unlock()

	m.log.Info("network changed", zap.String("name", name), zap.String("url", profile.URL))
	m.feed.Send(model.Event{
		Type:    model.EventNetworkChanged,
		Network: &model.NetworkInfo{Name: name, Network: profile},
	})
	return nil
}

// Subscribe delivers network_changed events to ch.
func (m *Manager) Subscribe(ch chan<- model.Event) event.Subscription {
	return m.feed.Subscribe(ch)
}

func validate(name string, profile model.NetworkProfile) error {
	if name == "" {
		return errors.New("network name is required")
	}
	if profile.URL == "" {
		return fmt.Errorf("network %s: url is required", name)
	}
	u, err := url.Parse(profile.URL)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return fmt.Errorf("network %s: invalid url %q", name, profile.URL)
	}
	return nil
}
