// file: cmd/words.go
// version: 1.0.0
// guid: 91e5b3c7-4d0a-4e68-8f2b-a7c6d1e0f359

package cmd

import (
	"context"
	"fmt"
	"strings"

	"github.com/jdfalk/speed-reader/internal/app"
	"github.com/spf13/cobra"
)

var (
	wordsCmd = &cobra.Command{
		Use:   "words",
		Short: "Load, clear and debug stored word sequences",
	}

	wordsLoadCmd = &cobra.Command{
		Use:   "load <book-id>",
		Short: "Print a book's words",
		Long: `Print a book's word count and its first words. Words found only in
the legacy store are copied into the object store in the background.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			limit, _ := cmd.Flags().GetInt("limit")
			return withApp(cmd, func(ctx context.Context, a *app.App) error {
				out := cmd.OutOrStdout()
				words := a.Words.LoadWords(ctx, args[0])
				if words == nil {
					fmt.Fprintln(out, strings.Join(a.Words.CreateErrorPlaceholder(args[0]), " "))
					return nil
				}
				fmt.Fprintf(out, "%d words\n", len(words))
				if limit > 0 && len(words) > limit {
					words = words[:limit]
				}
				if limit != 0 {
					fmt.Fprintln(out, strings.Join(words, " "))
				}
				a.Words.Wait()
				return nil
			})
		},
	}

	wordsClearCmd = &cobra.Command{
		Use:   "clear <book-id>",
		Short: "Delete a book's words from both stores",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, func(ctx context.Context, a *app.App) error {
				a.Words.ClearWords(ctx, args[0])
				fmt.Fprintf(cmd.OutOrStdout(), "Cleared words for %s\n", args[0])
				return nil
			})
		},
	}

	wordsDebugCmd = &cobra.Command{
		Use:   "debug <book-id>",
		Short: "Show where a book's words are stored",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, func(ctx context.Context, a *app.App) error {
				d := a.Words.Debug(ctx, args[0])
				out := cmd.OutOrStdout()
				fmt.Fprintf(out, "Book: %s\n", d.BookID)
				fmt.Fprintf(out, "Object store: %d chunks, %d words\n", d.ObjectChunks, d.ObjectWords)
				if d.ObjectError != "" {
					fmt.Fprintf(out, "Object store error: %s\n", d.ObjectError)
				}
				if !d.LegacyAvailable {
					fmt.Fprintln(out, "Legacy store: unavailable")
					return nil
				}
				fmt.Fprintf(out, "Legacy store: %s, %d words, %d chunks\n",
					d.Legacy.Format, d.Legacy.TotalWords, d.Legacy.TotalChunks)
				return nil
			})
		},
	}
)

func init() {
	wordsLoadCmd.Flags().Int("limit", 20, "Number of words to print (-1 for all, 0 for none)")

	wordsCmd.AddCommand(wordsLoadCmd)
	wordsCmd.AddCommand(wordsClearCmd)
	wordsCmd.AddCommand(wordsDebugCmd)
}
