package main

import (
	"fmt"
	"net/http"

	"github.com/AlexZinkM/wallet-guard/internal/config"
	"github.com/AlexZinkM/wallet-guard/internal/crypto"
	"github.com/AlexZinkM/wallet-guard/internal/model"

	"github.com/spf13/cobra"
)

var importCWTCmd = &cobra.Command{
	Use:   "import-cwt <file>",
	Short: "Import a legacy .cwt wallet file into the keyring",
	Long: `Decrypts a legacy .cwt wallet file with its password and adds its key to the keyring
under a new keyring password.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		address, err := crypto.ReadWalletAddress(args[0])
		if err != nil {
			return err
		}
		fmt.Printf("Wallet %s\n", address)

		filePassword, err := config.PromptPassword("Wallet file password: ")
		if err != nil {
			return err
		}
		_, wallet, err := crypto.DecryptWallet(args[0], filePassword)
		clear(filePassword)
		if err != nil {
			return fmt.Errorf("failed to decrypt wallet: %w", err)
		}
		defer clear(wallet.PrivateKey)

		key, err := crypto.LegacyPrivateKey(wallet)
		if err != nil {
			return err
		}
		defer clear(key)
		if key.PublicKey().String() != address {
			return fmt.Errorf("wallet key does not match address %s", address)
		}

		password, err := promptNewPassword()
		if err != nil {
			return err
		}
		defer clear(password)

		secret := model.SecretPayload{PrivateKey: key.String()}
		defer secret.Wipe()

		var resp model.KeyResponse
		err = newAdminClient(daemonURL, adminToken).do(cmd.Context(), http.MethodPost, "/keys", model.AddKeyRequest{
			Identity: address,
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
