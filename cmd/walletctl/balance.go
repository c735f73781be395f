package main

import (
	"fmt"
	"net/http"
	"net/url"

	"github.com/AlexZinkM/wallet-guard/internal/model"

	"github.com/spf13/cobra"
)

var balanceCmd = &cobra.Command{
	Use:   "balance <identity>",
	Short: "Show the SOL balance of an identity on the current network",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		var resp model.BalanceResponse
		path := "/balance?identity=" + url.QueryEscape(args[0])
		if err := newAdminClient(daemonURL, adminToken).do(cmd.Context(), http.MethodGet, path, nil, &resp); err != nil {
			return err
		}
		fmt.Printf("%s SOL\n", resp.SOL)
		if resp.USD != "" {
			fmt.Printf("%s USD (rate %s)\n", resp.USD, resp.Rate)
		}
		return nil
	},
}
