// file: cmd/diagnostics.go
// version: 2.0.0
// guid: c8f6a0d4-2a8b-48cf-9d08-02cc9915d9fc

package cmd

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/jdfalk/speed-reader/internal/app"
	"github.com/jdfalk/speed-reader/internal/legacy"
	"github.com/spf13/cobra"
)

var storageInspectCmd = &cobra.Command{
	Use:   "inspect",
	Short: "Inspect raw legacy store keys",
	Long: `List keys in the legacy key-value store with the size and a preview
of each value. Word keys also show their decoded layout.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		limit, _ := cmd.Flags().GetInt("limit")
		prefix, _ := cmd.Flags().GetString("prefix")
		return runStorageInspect(cmd, limit, prefix)
	},
}

func init() {
	storageInspectCmd.Flags().Int("limit", 20, "Number of keys to display")
	storageInspectCmd.Flags().String("prefix", "speedReader", "Key prefix to inspect")
}

func runStorageInspect(cmd *cobra.Command, limit int, prefix string) error {
	if limit <= 0 {
		return errors.New("limit must be positive")
	}

	return withApp(cmd, func(ctx context.Context, a *app.App) error {
		out := cmd.OutOrStdout()
		if !a.Legacy.IsAvailable() {
			return fmt.Errorf("legacy store (%s) is unavailable: %w", a.Legacy.Backend().Name(), legacy.ErrUnavailable)
		}
		keys, err := a.Legacy.Keys()
		if err != nil {
			return fmt.Errorf("failed to list keys: %w", err)
		}

		fmt.Fprintf(out, "Legacy backend: %s\n", a.Legacy.Backend().Name())
		count := 0
		for _, key := range keys {
			if !strings.HasPrefix(key, prefix) {
				continue
			}
			val, ok, err := a.Legacy.Get(key)
			if err != nil {
				return fmt.Errorf("failed to read %s: %w", key, err)
			}
			if !ok {
				continue
			}

			fmt.Fprintf(out, "Key: %s\n", key)
			fmt.Fprintf(out, "Value length: %d bytes\n", len(val))
			if legacy.IsWordsKey(key) && !legacy.IsChunkKey(key) {
				info := a.Legacy.InspectWords(legacy.BookIDFromWordKey(key))
				fmt.Fprintf(out, "Words: %s, %d words, %d chunks\n", info.Format, info.TotalWords, info.TotalChunks)
			}
			fmt.Fprintf(out, "Value preview: %s\n", truncateString(val, 200))
			fmt.Fprintln(out, "---")

			count++
			if count >= limit {
				break
			}
		}

		if count == 0 {
			fmt.Fprintln(out, "No keys matched the requested prefix.")
		}
		return nil
	})
}

func promptYesNo(cmd *cobra.Command, action string) (bool, error) {
	fmt.Fprintf(cmd.OutOrStdout(), "%s? Type 'yes' to confirm: ", action)
	reader := bufio.NewReader(cmd.InOrStdin())
	response, err := reader.ReadString('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		return false, err
	}
	response = strings.TrimSpace(strings.ToLower(response))
	return response == "yes", nil
}

func truncateString(in string, max int) string {
	if len(in) <= max {
		return in
	}
	return in[:max] + "..."
}
