// file: cmd/cover.go
// version: 1.0.0
// guid: 58a3e1d7-f06b-4c92-b7e4-2d9c0a6f8e15

package cmd

import (
	"fmt"
	"image/png"
	"os"

	"github.com/jdfalk/speed-reader/internal/library"
	"github.com/jdfalk/speed-reader/internal/models"
	"github.com/spf13/cobra"
)

var coverCmd = &cobra.Command{
	Use:   "cover <title>",
	Short: "Render the placeholder cover for a title",
	Long: `Render the generated cover used for books without cover art. Prints a
PNG data URL, or writes the PNG to --out.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		author, _ := cmd.Flags().GetString("author")
		out, _ := cmd.Flags().GetString("out")
		return runCover(cmd, args[0], author, out)
	},
}

func init() {
	coverCmd.Flags().String("author", models.DefaultAuthor, "Author shown under the title")
	coverCmd.Flags().String("out", "", "Write the PNG to this file instead of printing a data URL")
}

func runCover(cmd *cobra.Command, title, author, out string) error {
	if out == "" {
		fmt.Fprintln(cmd.OutOrStdout(), library.CoverPlaceholder(title, author))
		return nil
	}

	f, err := os.Create(out)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", out, err)
	}
	if err := png.Encode(f, library.RenderCover(title, author)); err != nil {
		f.Close()
		return fmt.Errorf("failed to encode cover: %w", err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("failed to write %s: %w", out, err)
	}
	h, s, l := library.CoverColor(title)
	fmt.Fprintf(cmd.OutOrStdout(), "Wrote %s (hsl %d, %d%%, %d%%)\n", out, h, s, l)
	return nil
}
