package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/AlexZinkM/wallet-guard/internal/crypto"

	"github.com/kelseyhightower/envconfig"
	"golang.org/x/term"
)

// Config contains all configuration parameters of the daemon.
type Config struct {
	Port         string `envconfig:"PORT" default:"8080"`
	DataDir      string `envconfig:"DATA_DIR" default:"./data"`
	SolanaRPCURL string `envconfig:"SOLANA_RPC_URL"` // overrides the default network endpoint when set
	NetworksFile string `envconfig:"NETWORKS_FILE"`
	Network      string `envconfig:"DEFAULT_NETWORK" default:"mainnet"`

	SettleDelay time.Duration `envconfig:"APPROVAL_SETTLE_DELAY" default:"1s"`
	ScryptN     int           `envconfig:"SCRYPT_N" default:"32768"`
	IndexSecret string        `envconfig:"KEYRING_INDEX_SECRET" default:"TONWallet"`
	AdminToken  string        `envconfig:"ADMIN_TOKEN"`
	CoinGecko   string        `envconfig:"COINGECKO_URL"`

	LogLevel       string `envconfig:"LOG_LEVEL" default:"info"`
	LogDevelopment bool   `envconfig:"LOG_DEVELOPMENT" default:"false"`
}

// Load reads the configuration from environment variables.
func Load() (*Config, error) {
	cfg := &Config{}
	if err := envconfig.Process("", cfg); err != nil {
		return nil, fmt.Errorf("failed to process config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks values envconfig cannot.
func (c *Config) Validate() error {
	if !crypto.ValidScryptN(c.ScryptN) {
		return fmt.Errorf("SCRYPT_N must be a power of two in [2, %d], got %d", crypto.MaxScryptN, c.ScryptN)
	}
	if c.SettleDelay < 0 {
		return errors.New("APPROVAL_SETTLE_DELAY cannot be negative")
	}
	if c.IndexSecret == "" {
		return errors.New("KEYRING_INDEX_SECRET cannot be empty")
	}
	return nil
}

// Addr returns the listen address for Port.
func (c *Config) Addr() string {
	return ":" + c.Port
}

// PromptPassword prints prompt and reads a password from the terminal without echo.
// password must be []byte for security (caller should zero it after use)
func PromptPassword(prompt string) ([]byte, error) {
	fd := int(os.Stdin.Fd())
	if !term.IsTerminal(fd) {
		return nil, errors.New("stdin is not a terminal: run interactively to enter password")
	}
	fmt.Fprint(os.Stderr, prompt)
	defer fmt.Fprintln(os.Stderr)

	raw, err := term.ReadPassword(fd)
	if err != nil {
		return nil, fmt.Errorf("failed to read password: %w", err)
	}
	if len(raw) == 0 {
		return nil, errors.New("password cannot be empty")
	}
	return raw, nil
}
