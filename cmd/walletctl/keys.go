package main

import (
	"errors"
	"fmt"
	"net/http"
	"os"
	"strings"

	"github.com/AlexZinkM/wallet-guard/internal/config"
	"github.com/AlexZinkM/wallet-guard/internal/crypto"
	"github.com/AlexZinkM/wallet-guard/internal/model"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

var (
	keysAddIdentity string
	keysAddPath     string
	keysQROut       string
)

var keysCmd = &cobra.Command{
	Use:   "keys",
	Short: "Manage keys held by the keyring",
}

func init() {
	keysAddCmd.Flags().StringVar(&keysAddIdentity, "identity", "", "expected public identity of the secret")
	keysAddCmd.Flags().StringVar(&keysAddPath, "path", crypto.DefaultDerivationPath, "derivation path when a seed phrase is entered")
	keysQRCmd.Flags().StringVarP(&keysQROut, "out", "o", "", "PNG file to write (default <identity>.png)")

	keysCmd.AddCommand(keysListCmd)
	keysCmd.AddCommand(keysAddCmd)
	keysCmd.AddCommand(keysGenerateCmd)
	keysCmd.AddCommand(keysRemoveCmd)
	keysCmd.AddCommand(keysQRCmd)
}

var keysListCmd = &cobra.Command{
	Use:   "list",
	Short: "List identities in insertion order",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		var resp model.KeysResponse
		if err := newAdminClient(daemonURL, adminToken).do(cmd.Context(), http.MethodGet, "/keys", nil, &resp); err != nil {
			return err
		}
		if len(resp.Identities) == 0 {
			fmt.Println("No keys in keyring")
			return nil
		}
		for _, identity := range resp.Identities {
			fmt.Println(identity)
		}
		return nil
	},
}

var keysAddCmd = &cobra.Command{
	Use:   "add",
	Short: "Import a private key or seed phrase",
	Long: `Imports a secret into the keyring. The secret is read from the terminal without echo:
either a base58 private key or a BIP-39 seed phrase.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		raw, err := config.PromptPassword("Private key or seed phrase: ")
		if err != nil {
			return err
		}
		defer clear(raw)

		secret := parseSecret(string(raw), keysAddPath)
		defer secret.Wipe()

		password, err := promptNewPassword()
		if err != nil {
			return err
		}
		defer clear(password)

		var resp model.KeyResponse
		err = newAdminClient(daemonURL, adminToken).do(cmd.Context(), http.MethodPost, "/keys", model.AddKeyRequest{
			Identity: keysAddIdentity,
			Secret:   secret,
			Password: string(password),
		}, &resp)
		if err != nil {
			return err
		}
		printKeyResponse(resp)
		return nil
	},
}

var keysGenerateCmd = &cobra.Command{
	Use:   "generate",
	Short: "Generate a new key in the keyring",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		password, err := promptNewPassword()
		if err != nil {
			return err
		}
		defer clear(password)

		var resp model.KeyResponse
		err = newAdminClient(daemonURL, adminToken).do(cmd.Context(), http.MethodPost, "/keys/generate",
			model.GenerateKeyRequest{Password: string(password)}, &resp)
		if err != nil {
			return err
		}
		printKeyResponse(resp)
		return nil
	},
}

var keysRemoveCmd = &cobra.Command{
	Use:   "remove <identity>",
	Short: "Remove a key and its encrypted secret",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		var resp model.KeyResponse
		if err := newAdminClient(daemonURL, adminToken).do(cmd.Context(), http.MethodDelete, identityPath(args[0]), nil, &resp); err != nil {
			return err
		}
		printKeyResponse(resp)
		return nil
	},
}

var keysQRCmd = &cobra.Command{
	Use:   "qr <identity>",
	Short: "Save the identity as a PNG QR code",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		png, err := newAdminClient(daemonURL, adminToken).raw(cmd.Context(), http.MethodGet, identityPath(args[0])+"/qr", nil)
		if err != nil {
			return err
		}
		out := keysQROut
		if out == "" {
			out = args[0] + ".png"
		}
		if err := os.WriteFile(out, png, 0o644); err != nil {
			return fmt.Errorf("failed to write %s: %w", out, err)
		}
		fmt.Printf("QR code written to %s\n", out)
		return nil
	},
}

// parseSecret treats input with spaces as a seed phrase.
func parseSecret(input, path string) model.SecretPayload {
	input = strings.TrimSpace(input)
	if strings.ContainsAny(input, " \t") {
		return model.SecretPayload{Seed: &model.SeedConfig{Phrase: strings.Join(strings.Fields(input), " "), Path: path}}
	}
	return model.SecretPayload{PrivateKey: input}
}

// promptNewPassword asks for the password twice.
// password must be []byte for security (caller should zero it after use)
func promptNewPassword() ([]byte, error) {
	password, err := config.PromptPassword("Keyring password: ")
	if err != nil {
		return nil, err
	}
	confirm, err := config.PromptPassword("Repeat password: ")
	if err != nil {
		clear(password)
		return nil, err
	}
	defer clear(confirm)

	if string(password) != string(confirm) {
		clear(password)
		return nil, errors.New("passwords do not match")
	}
	return password, nil
}

func printKeyResponse(resp model.KeyResponse) {
	color.New(color.FgGreen).Print("✓ ")
	fmt.Println(resp.Message)
	if resp.Identity != "" {
		fmt.Printf("  %s %s\n", color.CyanString("Identity:"), resp.Identity)
	}
}
