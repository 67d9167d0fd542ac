package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/Zereker/adboard/internal/domain"
	"github.com/Zereker/adboard/internal/server"
)

var configFile string

var rootCmd = &cobra.Command{
	Use:           "adboard",
	Short:         "Ad campaign dashboard server",
	Long:          `adboard serves the campaign dashboard API over HTTP and MCP stdio.`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP and/or MCP server",
	RunE: func(cmd *cobra.Command, args []string) error {
		srv, err := newServer()
		if err != nil {
			return err
		}
		defer func() { _ = srv.Shutdown() }()

		if err := srv.Start(); err != nil {
			return fmt.Errorf("failed to run server: %w", err)
		}
		return nil
	},
}

var nameCmd = &cobra.Command{
	Use:   "name <product-type> <target-audience>",
	Short: "Suggest a campaign name",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		req := domain.CampaignNameRequest{ProductType: args[0], TargetAudience: args[1]}
		if err := req.Validate(); err != nil {
			return err
		}

		srv, err := newServer()
		if err != nil {
			return err
		}
		defer func() { _ = srv.Shutdown() }()

		fmt.Fprintln(cmd.OutOrStdout(), srv.Generator().CampaignName(cmd.Context(), req))
		return nil
	},
}

var copyCmd = &cobra.Command{
	Use:   "copy <product-name> <target-audience>",
	Short: "Generate headline, description and call to action",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		features, _ := cmd.Flags().GetStringSlice("feature")
		tone, _ := cmd.Flags().GetString("tone")

		req := domain.AdCopyRequest{
			ProductName:    args[0],
			TargetAudience: args[1],
			KeyFeatures:    features,
			Tone:           tone,
		}
		if err := req.Validate(); err != nil {
			return err
		}

		srv, err := newServer()
		if err != nil {
			return err
		}
		defer func() { _ = srv.Shutdown() }()

		adCopy := srv.Generator().AdCopy(cmd.Context(), "", req)

		enc := json.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent("", "  ")
		return enc.Encode(adCopy)
	},
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Fprintln(cmd.OutOrStdout(), "adboard", server.Version)
	},
}

func newServer() (*server.Server, error) {
	conf, err := server.LoadConfig(configFile)
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}

	srv, err := server.NewServer(conf)
	if err != nil {
		return nil, fmt.Errorf("failed to create server: %w", err)
	}
	return srv, nil
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configFile, "config", "c", "configs/config.toml", "Path to config file")

	copyCmd.Flags().StringSliceP("feature", "f", nil, "Key product feature (repeatable)")
	copyCmd.Flags().String("tone", domain.DefaultTone, "Tone of the copy")

	rootCmd.AddCommand(serveCmd, nameCmd, copyCmd, versionCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}
