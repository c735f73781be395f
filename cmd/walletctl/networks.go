package main

import (
	"fmt"
	"net/http"
	"slices"

	"github.com/AlexZinkM/wallet-guard/internal/model"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

var (
	networksAddDescription string
	networksAddExplorer    string
)

var networksCmd = &cobra.Command{
	Use:   "networks",
	Short: "Manage network profiles",
}

func init() {
	networksAddCmd.Flags().StringVar(&networksAddDescription, "description", "", "profile description")
	networksAddCmd.Flags().StringVar(&networksAddExplorer, "explorer", "", "block explorer URL")

	networksCmd.AddCommand(networksListCmd)
	networksCmd.AddCommand(networksUseCmd)
	networksCmd.AddCommand(networksAddCmd)
}

var networksListCmd = &cobra.Command{
	Use:   "list",
	Short: "List network profiles",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		var resp model.NetworksResponse
		if err := newAdminClient(daemonURL, adminToken).do(cmd.Context(), http.MethodGet, "/networks", nil, &resp); err != nil {
			return err
		}

		names := make([]string, 0, len(resp.Networks))
		for name := range resp.Networks {
			names = append(names, name)
		}
		slices.Sort(names)

		for _, name := range names {
			marker := "  "
			if name == resp.Current {
				marker = color.GreenString("* ")
			}
			profile := resp.Networks[name]
			fmt.Printf("%s%-12s %s  %s\n", marker, name, profile.URL, color.New(color.Faint).Sprint(profile.Description))
		}
		return nil
	},
}

var networksUseCmd = &cobra.Command{
	Use:   "use <name>",
	Short: "Switch the current network",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		var info model.NetworkInfo
		err := newAdminClient(daemonURL, adminToken).do(cmd.Context(), http.MethodPut, "/networks/current",
			model.ChangeNetworkRequest{Name: args[0]}, &info)
		if err != nil {
			return err
		}
		fmt.Printf("Now using %s (%s)\n", info.Name, info.Network.URL)
		return nil
	},
}

var networksAddCmd = &cobra.Command{
	Use:   "add <name> <url>",
	Short: "Add a network profile",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		var info model.NetworkInfo
		err := newAdminClient(daemonURL, adminToken).do(cmd.Context(), http.MethodPost, "/networks", model.AddNetworkRequest{
			Name: args[0],
			Network: model.NetworkProfile{
				URL:         args[1],
				Explorer:    networksAddExplorer,
				Description: networksAddDescription,
			},
		}, &info)
		if err != nil {
			return err
		}
		fmt.Printf("Added %s (%s)\n", info.Name, info.Network.URL)
		return nil
	},
}
