package main

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/AlexZinkM/wallet-guard/internal/client"
	"github.com/AlexZinkM/wallet-guard/internal/logging"
	"github.com/AlexZinkM/wallet-guard/internal/model"
	"github.com/AlexZinkM/wallet-guard/page"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var (
	callIdentity string
	callTo       string
	callFunction string
	callInput    string
	callMessage  string
)

func init() {
	callCmd.Flags().StringVar(&callIdentity, "identity", "", "public identity of the signing key")
	callCmd.Flags().StringVar(&callTo, "to", "", "recipient address")
	callCmd.Flags().StringVar(&callFunction, "function", client.FunctionTransfer, "function to call: transfer, transferToken or memo")
	callCmd.Flags().StringVar(&callInput, "input", "", `function input as JSON, e.g. {"amount":"0.1"}`)
	callCmd.Flags().StringVar(&callMessage, "message", "", "message shown when approval is requested")
	callCmd.MarkFlagRequired("identity")
}

var callCmd = &cobra.Command{
	Use:   "call <run|runLocal|createRunMessage>",
	Short: "Run a call through walletd as a page context",
	Long: `Connects to walletd like any page would and issues the call with only the public identity.
walletd asks for approval on its own terminal and runs the call with the decrypted key.

Examples:
  walletctl call run --identity <key> --to <address> --input '{"amount":"0.1"}'
  walletctl call runLocal --identity <key> --function memo --input '{"text":"hello"}'`,
	Args:      cobra.ExactArgs(1),
	ValidArgs: []string{string(model.OperationRun), string(model.OperationRunLocal), string(model.OperationCreateRunMessage)},
	RunE: func(cmd *cobra.Command, args []string) error {
		logger, err := logging.New("warn", true)
		if err != nil {
			return err
		}
		defer logger.Sync()

		params := model.CallParams{
			KeyPair:      &model.KeyPair{Public: callIdentity},
			Address:      callTo,
			FunctionName: callFunction,
			Message:      callMessage,
		}
		if callInput != "" {
			if !json.Valid([]byte(callInput)) {
				return fmt.Errorf("--input is not valid JSON")
			}
			params.Input = json.RawMessage(callInput)
		}

		res, err := runAsPage(cmd.Context(), model.OperationType(args[0]), params, logger)
		if err != nil {
			return err
		}
		out, err := json.MarshalIndent(res, "", "  ")
		if err != nil {
			return err
		}
		fmt.Println(string(out))
		return nil
	},
}

func runAsPage(ctx context.Context, op model.OperationType, params model.CallParams, logger *zap.Logger) (*model.CallResult, error) {
	wsURL := "ws" + strings.TrimPrefix(strings.TrimRight(daemonURL, "/"), "http") + "/ws"

	local := client.NewSolanaClient("", logger)
	session, err := page.Connect(ctx, wsURL, nil, local, logger)
	if err != nil {
		return nil, err
	}
	defer session.Close()

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	go session.Serve(ctx)

	info, err := session.Network(ctx, "")
	if err != nil {
		return nil, err
	}
	local.SetEndpoint(info.Network.URL)

	switch op {
	case model.OperationRun:
		return session.Run(ctx, params)
	case model.OperationRunLocal:
		return session.RunLocal(ctx, params)
	case model.OperationCreateRunMessage:
		return session.CreateRunMessage(ctx, params)
	default:
		return nil, fmt.Errorf("unknown operation %q", op)
	}
}
