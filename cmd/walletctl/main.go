package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var (
	daemonURL  string
	adminToken string
)

var rootCmd = &cobra.Command{
	Use:   "walletctl",
	Short: "walletctl - administer a running walletd",
	Long: `walletctl manages the keyring and networks of a running walletd over its admin API.

Usage:
  walletctl <command> [flags]

Available Commands:
  keys        Manage keys held by the keyring
  networks    Manage network profiles
  balance     Show the SOL balance of an identity
  import-cwt  Import a legacy .cwt wallet file
  call        Run a call through walletd as a page context
`,
	SilenceUsage: true,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&daemonURL, "url", envOr("WALLETD_URL", "http://localhost:8080"), "walletd base URL")
	rootCmd.PersistentFlags().StringVar(&adminToken, "token", os.Getenv("ADMIN_TOKEN"), "admin token")

	rootCmd.AddCommand(keysCmd)
	rootCmd.AddCommand(networksCmd)
	rootCmd.AddCommand(balanceCmd)
	rootCmd.AddCommand(importCWTCmd)
	rootCmd.AddCommand(callCmd)
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
