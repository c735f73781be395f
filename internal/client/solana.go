package client

import (
	"context"
	"encoding/base64"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/AlexZinkM/wallet-guard/internal/common"
	"github.com/AlexZinkM/wallet-guard/internal/crypto"
	"github.com/AlexZinkM/wallet-guard/internal/model"

	"github.com/gagliardetto/solana-go"
	"github.com/gagliardetto/solana-go/rpc"
	"go.uber.org/zap"
)

const (
	defaultPollInterval   = 500 * time.Millisecond
	defaultConfirmTimeout = 90 * time.Second
)

// Statuses reported in model.CallResult.
const (
	StatusConfirmed = "confirmed"
	StatusFailed    = "failed"
	StatusSimulated = "simulated"
	StatusSigned    = "signed"
)

// SolanaClient builds, signs and submits transactions against a Solana RPC endpoint.
// Every operation expects params.KeyPair to carry a decrypted secret.
type SolanaClient struct {
	mu        sync.RWMutex
	rpcClient *rpc.Client
	rpcURL    string

	pollInterval   time.Duration
	confirmTimeout time.Duration
	log            *zap.Logger
}

// NewSolanaClient creates a client for rpcURL.
func NewSolanaClient(rpcURL string, logger *zap.Logger) *SolanaClient {
	return &SolanaClient{
		rpcClient:      rpc.New(rpcURL),
		rpcURL:         rpcURL,
		pollInterval:   defaultPollInterval,
		confirmTimeout: defaultConfirmTimeout,
		log:            logger.Named("solana"),
	}
}

// SetEndpoint points the client at another RPC endpoint. Calls already in flight
// finish against the old one.
func (c *SolanaClient) SetEndpoint(rpcURL string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if rpcURL == c.rpcURL {
		return
	}
	c.rpcClient = rpc.New(rpcURL)
	c.rpcURL = rpcURL
	c.log.Info("rpc endpoint changed", zap.String("url", rpcURL))
}

// Endpoint returns the current RPC endpoint.
func (c *SolanaClient) Endpoint() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.rpcURL
}

func (c *SolanaClient) rpc() *rpc.Client {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.rpcClient
}

// Balance gets the SOL balance of identity in lamports
func (c *SolanaClient) Balance(ctx context.Context, identity string) (uint64, error) {
	owner, err := solana.PublicKeyFromBase58(identity)
	if err != nil {
		return 0, fmt.Errorf("invalid Solana address: %w", err)
	}

	balance, err := c.rpc().GetBalance(ctx, owner, rpc.CommitmentConfirmed)
	if err != nil {
		return 0, fmt.Errorf("failed to get SOL balance: %w", err)
	}
	return balance.Value, nil
}

// Run signs the call's transaction, sends it and waits until it is confirmed.
func (c *SolanaClient) Run(ctx context.Context, params model.CallParams) (*model.CallResult, error) {
	client := c.rpc()

	tx, err := c.buildSigned(ctx, client, params)
	if err != nil {
		return nil, err
	}

	// Send transaction
	sig, err := client.SendTransactionWithOpts(ctx, tx, rpc.TransactionOpts{
		SkipPreflight:       false, // Transaction validation before node
		PreflightCommitment: rpc.CommitmentFinalized,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to send transaction: %w", err)
	}
	c.log.Info("transaction sent", zap.String("function", params.FunctionName), zap.Stringer("signature", sig))

	status, err := c.waitConfirmed(ctx, client, sig)
	if err != nil {
		return nil, err
	}
	return &model.CallResult{TxID: sig.String(), Status: status}, nil
}

// RunLocal signs the call's transaction and simulates it without sending.
func (c *SolanaClient) RunLocal(ctx context.Context, params model.CallParams) (*model.CallResult, error) {
	client := c.rpc()

	tx, err := c.buildSigned(ctx, client, params)
	if err != nil {
		return nil, err
	}

	sim, err := client.SimulateTransaction(ctx, tx)
	if err != nil {
		return nil, fmt.Errorf("failed to simulate transaction: %w", err)
	}
	if sim.Value == nil {
		return nil, fmt.Errorf("failed to simulate transaction: empty result")
	}

	result := &model.CallResult{
		TxID:   tx.Signatures[0].String(),
		Status: StatusSimulated,
		Logs:   sim.Value.Logs,
	}
	if sim.Value.UnitsConsumed != nil {
		result.UnitsConsumed = *sim.Value.UnitsConsumed
	}
	if sim.Value.Err != nil {
		result.Status = StatusFailed
		result.Message = fmt.Sprintf("%v", sim.Value.Err)
	}
	return result, nil
}

// CreateRunMessage signs the call's transaction and returns it base64 encoded without sending.
func (c *SolanaClient) CreateRunMessage(ctx context.Context, params model.CallParams) (*model.CallResult, error) {
	tx, err := c.buildSigned(ctx, c.rpc(), params)
	if err != nil {
		return nil, err
	}

	raw, err := tx.MarshalBinary()
	if err != nil {
		return nil, fmt.Errorf("failed to encode transaction: %w", err)
	}
	return &model.CallResult{
		TxID:    tx.Signatures[0].String(),
		Status:  StatusSigned,
		Message: base64.StdEncoding.EncodeToString(raw),
	}, nil
}

// buildSigned resolves the call's instructions and signs them with the call's key.
func (c *SolanaClient) buildSigned(ctx context.Context, client *rpc.Client, params model.CallParams) (*solana.Transaction, error) {
	if !params.KeyPair.HasSecret() {
		return nil, fmt.Errorf("call requires a decrypted key")
	}

	wallet, err := crypto.KeypairFromSecret(*params.KeyPair.Secret)
	if err != nil {
		return nil, err
	}
	defer clear(wallet)

	owner := wallet.PublicKey()
	// Verify wallet matches the identity the caller named
	if owner.String() != params.KeyPair.Public {
		return nil, fmt.Errorf("private key does not match %s", params.KeyPair.Public)
	}

	instructions, err := c.instructions(ctx, client, owner, params)
	if err != nil {
		return nil, err
	}

	// Get latest blockhash
	recent, err := client.GetLatestBlockhash(ctx, rpc.CommitmentFinalized)
	if err != nil {
		return nil, fmt.Errorf("failed to get recent blockhash: %w", err)
	}

	tx, err := solana.NewTransaction(instructions, recent.Value.Blockhash, solana.TransactionPayer(owner))
	if err != nil {
		return nil, fmt.Errorf("failed to create transaction: %w", err)
	}

	// Sign transaction
	_, err = tx.Sign(func(key solana.PublicKey) *solana.PrivateKey {
		if owner.Equals(key) {
			return &wallet
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to sign transaction: %w", err)
	}
	return tx, nil
}

// waitConfirmed polls the signature status until the cluster reports it confirmed.
func (c *SolanaClient) waitConfirmed(ctx context.Context, client *rpc.Client, sig solana.Signature) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, c.confirmTimeout)
	defer cancel()

	ticker := time.NewTicker(c.pollInterval)
	defer ticker.Stop()

	for {
		statuses, err := client.GetSignatureStatuses(ctx, false, sig)
		if err != nil {
			c.log.Debug("failed to get signature status", zap.Stringer("signature", sig), zap.Error(err))
		} else if len(statuses.Value) > 0 && statuses.Value[0] != nil {
			status := statuses.Value[0]
			if status.Err != nil {
				return "", fmt.Errorf("transaction %s failed: %v", sig, status.Err)
			}
			switch status.ConfirmationStatus {
			case rpc.ConfirmationStatusConfirmed, rpc.ConfirmationStatusFinalized:
				return StatusConfirmed, nil
			}
		}

		select {
		case <-ctx.Done():
			return "", fmt.Errorf("failed to confirm transaction %s: %w", sig, ctx.Err())
		case <-ticker.C:
		}
	}
}

// isATANotFoundError checks if error indicates that token account doesn't exist
func isATANotFoundError(err error) bool {
	if err == nil {
		return false
	}
	errStr := err.Error()
	return strings.Contains(errStr, "could not find account") ||
		strings.Contains(errStr, "not found")
}

// tokenAccountRentExempt gets the minimum balance required for rent exemption of a token account
func (c *SolanaClient) tokenAccountRentExempt(ctx context.Context, client *rpc.Client) (string, error) {
	// Token account size is 165 bytes
	const tokenAccountSize = 165

	rentExempt, err := client.GetMinimumBalanceForRentExemption(ctx, tokenAccountSize, rpc.CommitmentFinalized)
	if err != nil {
		return "", err
	}
	return common.LamportsToSOL(rentExempt), nil
}
