// walletd holds the keyring and serves page contexts and the admin API.
// Approval prompts are shown on the terminal it runs in.
// Usage: go run ./cmd/walletd
package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/AlexZinkM/wallet-guard/internal/api"
	"github.com/AlexZinkM/wallet-guard/internal/approval"
	"github.com/AlexZinkM/wallet-guard/internal/approvalui"
	"github.com/AlexZinkM/wallet-guard/internal/background"
	"github.com/AlexZinkM/wallet-guard/internal/client"
	"github.com/AlexZinkM/wallet-guard/internal/config"
	"github.com/AlexZinkM/wallet-guard/internal/handler"
	"github.com/AlexZinkM/wallet-guard/internal/intercept"
	"github.com/AlexZinkM/wallet-guard/internal/keyring"
	"github.com/AlexZinkM/wallet-guard/internal/logging"
	"github.com/AlexZinkM/wallet-guard/internal/messenger"
	"github.com/AlexZinkM/wallet-guard/internal/network"
	"github.com/AlexZinkM/wallet-guard/internal/store"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

const shutdownTimeout = 10 * time.Second

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	logger, err := logging.New(cfg.LogLevel, cfg.LogDevelopment)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	defer logger.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, logger); err != nil {
		logger.Error("walletd stopped", zap.Error(err))
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg *config.Config, logger *zap.Logger) error {
	backend, err := store.OpenLevelDB(filepath.Join(cfg.DataDir, "store"))
	if err != nil {
		return err
	}
	defer backend.Close()

	keys := keyring.New(store.NewVault(backend, cfg.ScryptN), cfg.IndexSecret, logger)
	if err := keys.Initialize(ctx); err != nil {
		return err
	}

	networks := network.New(store.NewSettings(backend), network.Config{
		File:    cfg.NetworksFile,
		Default: cfg.Network,
		RPCURL:  cfg.SolanaRPCURL,
	}, logger)
	if err := networks.Initialize(ctx); err != nil {
		return err
	}
	current, err := networks.Network("")
	if err != nil {
		return err
	}
	solanaClient := client.NewSolanaClient(current.Network.URL, logger)

	// Background context. Its registry is filled before it serves.
	hub := messenger.NewHub(logger)
	endpoint, err := hub.Attach(messenger.Background)
	if err != nil {
		return err
	}
	registry := messenger.Registry{}
	bg := messenger.New(messenger.Background, registry, endpoint, logger)

	launcher := approvalui.NewLauncher(hub, bg, approvalui.NewTerminalPrompter(), logger)
	controller := approval.NewController(launcher, keys, cfg.SettleDelay, logger)
	service := background.NewService(intercept.NewGuard(solanaClient, controller), keys, networks, logger)
	service.Register(registry)

	if cfg.AdminToken == "" {
		logger.Warn("ADMIN_TOKEN is not set, admin API is open to anyone who can reach it")
	}
	srv := &http.Server{
		Addr: cfg.Addr(),
		Handler: api.SetupRouter(api.Deps{
			Keys:       handler.NewKeyHandler(keys, bg, logger),
			Networks:   handler.NewNetworkHandler(networks),
			Balance:    handler.NewBalanceHandler(solanaClient, client.NewCoinGeckoClient(cfg.CoinGecko), logger),
			Hub:        hub,
			AdminToken: cfg.AdminToken,
			Logger:     logger,
		}),
		ReadHeaderTimeout: 10 * time.Second,
	}

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		if err := bg.Serve(ctx); err != nil && !errors.Is(err, context.Canceled) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		return service.FollowNetwork(ctx, bg, solanaClient)
	})
	g.Go(func() error {
		logger.Info("walletd listening",
			zap.String("addr", srv.Addr),
			zap.String("network", current.Name),
			zap.Int("keys", len(keys.ListIdentities())))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("failed to serve: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), shutdownTimeout)
		defer cancel()
		endpoint.Close()
		return srv.Shutdown(shutdownCtx)
	})

	return g.Wait()
}
