// file: cmd/config.go
// version: 1.0.0
// guid: e6b0c4f8-2d7a-4193-85e6-f1a9d3b7c024

package cmd

import (
	"fmt"

	"github.com/jdfalk/speed-reader/internal/config"
	"github.com/spf13/cobra"
)

var (
	configCmd = &cobra.Command{
		Use:   "config",
		Short: "Show or save the effective configuration",
	}

	configShowCmd = &cobra.Command{
		Use:   "show",
		Short: "Print the effective configuration",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			c := config.AppConfig
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Data dir:         %s\n", c.DataDir)
			fmt.Fprintf(out, "Database:         %s\n", c.DatabasePath)
			fmt.Fprintf(out, "Legacy backend:   %s\n", c.LegacyBackend)
			switch c.LegacyBackend {
			case config.LegacyBackendPebble:
				fmt.Fprintf(out, "Legacy path:      %s\n", c.LegacyPath)
			case config.LegacyBackendRedis:
				fmt.Fprintf(out, "Redis:            %s db %d prefix %q\n", c.RedisAddr, c.RedisDB, c.RedisPrefix)
			}
			fmt.Fprintf(out, "Legacy quota:     %s\n", formatBytes(c.LegacyQuotaBytes))
			fmt.Fprintf(out, "Chunk size:       %d words\n", c.ChunkSize)
			fmt.Fprintf(out, "Storage budget:   %s\n", formatBytes(c.ObjectStoreBudget))
			fmt.Fprintf(out, "Low storage at:   %d chunks\n", c.LowStorageThreshold)
			fmt.Fprintf(out, "Usage cache TTL:  %s\n", c.UsageCacheTTL)
			fmt.Fprintf(out, "Workers:          %d (queue %d)\n", c.Workers, c.QueueSize)
			fmt.Fprintf(out, "Log level:        %s\n", c.LogLevel)
			fmt.Fprintf(out, "Config file:      %s\n", config.ConfigFilePath())
			return config.AppConfig.Validate()
		},
	}

	configSaveCmd = &cobra.Command{
		Use:   "save",
		Short: "Write the effective configuration to the data directory",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := config.SaveConfigToFile(); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Saved %s\n", config.ConfigFilePath())
			return nil
		},
	}
)

func init() {
	configCmd.AddCommand(configShowCmd)
	configCmd.AddCommand(configSaveCmd)
}
