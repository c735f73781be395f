package client

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"

	"github.com/AlexZinkM/wallet-guard/internal/common"
	"github.com/AlexZinkM/wallet-guard/internal/model"

	"github.com/gagliardetto/solana-go"
	associatedtokenaccount "github.com/gagliardetto/solana-go/programs/associated-token-account"
	"github.com/gagliardetto/solana-go/programs/system"
	"github.com/gagliardetto/solana-go/programs/token"
	"github.com/gagliardetto/solana-go/rpc"
)

// Functions a call may name.
const (
	FunctionTransfer      = "transfer"
	FunctionTransferToken = "transferToken"
	FunctionMemo          = "memo"
)

// TransferInput is the input of "transfer": amount in SOL.
type TransferInput struct {
	Amount string `json:"amount"`
}

// TransferTokenInput is the input of "transferToken": amount in token units.
type TransferTokenInput struct {
	Mint     string `json:"mint"`
	Amount   string `json:"amount"`
	Decimals uint8  `json:"decimals"`
}

// MemoInput is the input of "memo".
type MemoInput struct {
	Text string `json:"text"`
}

func decodeInput(params model.CallParams, v any) error {
	if len(params.Input) == 0 {
		return fmt.Errorf("%s: input is required", params.FunctionName)
	}
	if err := json.Unmarshal(params.Input, v); err != nil {
		return fmt.Errorf("%s: invalid input: %w", params.FunctionName, err)
	}
	return nil
}

func (c *SolanaClient) instructions(ctx context.Context, client *rpc.Client, owner solana.PublicKey, params model.CallParams) ([]solana.Instruction, error) {
	switch params.FunctionName {
	case FunctionTransfer:
		return transferInstructions(owner, params)
	case FunctionTransferToken:
		return c.transferTokenInstructions(ctx, client, owner, params)
	case FunctionMemo:
		return memoInstructions(owner, params)
	default:
		return nil, fmt.Errorf("unknown function %q", params.FunctionName)
	}
}

func transferInstructions(owner solana.PublicKey, params model.CallParams) ([]solana.Instruction, error) {
	var in TransferInput
	if err := decodeInput(params, &in); err != nil {
		return nil, err
	}

	toPubkey, err := solana.PublicKeyFromBase58(params.Address)
	if err != nil {
		return nil, fmt.Errorf("invalid to address: %w", err)
	}

	// Convert SOL to lamports (1 SOL = 1,000,000,000 lamports)
	lamports, err := common.SOLToLamports(in.Amount)
	if err != nil {
		return nil, err
	}
	if lamports == 0 {
		return nil, errors.New("amount must be positive")
	}

	return []solana.Instruction{
		system.NewTransferInstruction(lamports, owner, toPubkey).Build(),
	}, nil
}

func (c *SolanaClient) transferTokenInstructions(ctx context.Context, client *rpc.Client, owner solana.PublicKey, params model.CallParams) ([]solana.Instruction, error) {
	var in TransferTokenInput
	if err := decodeInput(params, &in); err != nil {
		return nil, err
	}

	toPubkey, err := solana.PublicKeyFromBase58(params.Address)
	if err != nil {
		return nil, fmt.Errorf("invalid to address: %w", err)
	}
	mint, err := solana.PublicKeyFromBase58(in.Mint)
	if err != nil {
		return nil, fmt.Errorf("invalid mint address: %w", err)
	}

	amount, err := common.ParseUnits(in.Amount, int(in.Decimals))
	if err != nil {
		return nil, err
	}
	if amount == 0 {
		return nil, errors.New("amount must be positive")
	}

	// Get source ATA address
	sourceTokenAccount, _, err := solana.FindAssociatedTokenAddress(owner, mint)
	if err != nil {
		return nil, fmt.Errorf("failed to find source token account address: %w", err)
	}

	// Check if source ATA exists by trying to get balance
	balance, err := client.GetTokenAccountBalance(ctx, sourceTokenAccount, rpc.CommitmentConfirmed)
	if err != nil {
		if isATANotFoundError(err) {
			rentExempt, rentErr := c.tokenAccountRentExempt(ctx, client)
			if rentErr != nil {
				return nil, rentErr
			}
			return nil, fmt.Errorf("token account not found for address %s. Deposit any amount of %s to create it (requires rent exempt: %s SOL from the sender)", owner, mint, rentExempt)
		}
		return nil, fmt.Errorf("failed to check source token account: %w", err)
	}
	if balance.Value != nil {
		available, err := strconv.ParseUint(balance.Value.Amount, 10, 64)
		if err == nil && available < amount {
			return nil, fmt.Errorf("insufficient token balance: have %s, need %s",
				common.FormatUnits(available, int(in.Decimals)), common.FormatUnits(amount, int(in.Decimals)))
		}
	}

	destTokenAccount, _, err := solana.FindAssociatedTokenAddress(toPubkey, mint)
	if err != nil {
		return nil, fmt.Errorf("failed to find destination token account: %w", err)
	}

	// Check if destination account exists, if not create it
	destAccountInfo, err := client.GetAccountInfo(ctx, destTokenAccount)
	if err != nil && !isATANotFoundError(err) {
		return nil, fmt.Errorf("failed to get destination account info: %w", err)
	}

	var instructions []solana.Instruction
	if isATANotFoundError(err) || destAccountInfo == nil || destAccountInfo.Value == nil {
		instructions = append(instructions, associatedtokenaccount.NewCreateInstruction(
			owner,    // payer
			toPubkey, // owner
			mint,
		).Build())
	}

	instructions = append(instructions, token.NewTransferCheckedInstruction(
		amount,
		in.Decimals,
		sourceTokenAccount,
		mint,
		destTokenAccount,
		owner,
		[]solana.PublicKey{},
	).Build())
	return instructions, nil
}

func memoInstructions(owner solana.PublicKey, params model.CallParams) ([]solana.Instruction, error) {
	var in MemoInput
	if err := decodeInput(params, &in); err != nil {
		return nil, err
	}
	if in.Text == "" {
		return nil, errors.New("memo text cannot be empty")
	}

	return []solana.Instruction{
		solana.NewInstruction(
			solana.MemoProgramID,
			solana.AccountMetaSlice{solana.Meta(owner).SIGNER()},
			[]byte(in.Text),
		),
	}, nil
}
