// file: cmd/library.go
// version: 1.0.0
// guid: 3c7e0a95-b2d8-4f14-a6e1-9d5b8f2c0e73

package cmd

import (
	"context"
	"fmt"
	"io"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/jdfalk/speed-reader/internal/app"
	"github.com/jdfalk/speed-reader/internal/library"
	"github.com/jdfalk/speed-reader/internal/models"
	"github.com/jdfalk/speed-reader/internal/textproc"
	"github.com/spf13/cobra"
)

var (
	libraryCmd = &cobra.Command{
		Use:   "library",
		Short: "List, import and remove books",
	}

	libraryListCmd = &cobra.Command{
		Use:   "list",
		Short: "List books, most recently read first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, func(ctx context.Context, a *app.App) error {
				printBooks(cmd.OutOrStdout(), a.Library.List(ctx))
				return nil
			})
		},
	}

	libraryShowCmd = &cobra.Command{
		Use:   "show <id>",
		Short: "Show one book with its chapters",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, func(ctx context.Context, a *app.App) error {
				book := a.Library.Get(ctx, args[0])
				if book == nil {
					return fmt.Errorf("%s: %w", args[0], library.ErrBookNotFound)
				}
				printBook(cmd.OutOrStdout(), book)
				return nil
			})
		},
	}

	libraryAddCmd = &cobra.Command{
		Use:   "add <file>",
		Short: "Import a plain-text book",
		Long: `Import a plain-text file. Lines starting with "Chapter" begin new
chapters. Importing a file name that is already in the library replaces
that book and keeps its id.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			title, _ := cmd.Flags().GetString("title")
			author, _ := cmd.Flags().GetString("author")
			return runLibraryAdd(cmd, args[0], title, author)
		},
	}

	libraryRemoveCmd = &cobra.Command{
		Use:   "remove <id>",
		Short: "Remove a book with its words and progress",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			force, _ := cmd.Flags().GetBool("yes")
			return runLibraryRemove(cmd, args[0], force)
		},
	}

	libraryProgressCmd = &cobra.Command{
		Use:   "progress <id> <word-index>",
		Short: "Move a book's reading position",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			index, err := strconv.Atoi(args[1])
			if err != nil {
				return fmt.Errorf("invalid word index %q: %w", args[1], err)
			}
			return withApp(cmd, func(ctx context.Context, a *app.App) error {
				if err := a.Library.UpdateProgress(ctx, args[0], index); err != nil {
					return err
				}
				book := a.Library.Get(ctx, args[0])
				fmt.Fprintf(cmd.OutOrStdout(), "%s is at word %d of %d (%s)\n",
					book.ID, book.CurrentWordIndex, book.TotalWords, chapterLabel(book))
				return nil
			})
		},
	}

	libraryFindCmd = &cobra.Command{
		Use:   "find <query>",
		Short: "Fuzzy search titles, authors and file names",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, func(ctx context.Context, a *app.App) error {
				printBooks(cmd.OutOrStdout(), a.Library.Find(ctx, strings.Join(args, " ")))
				return nil
			})
		},
	}
)

func init() {
	libraryAddCmd.Flags().String("title", "", "Title (default: file name without extension)")
	libraryAddCmd.Flags().String("author", "", "Author (default: Unknown)")
	libraryRemoveCmd.Flags().Bool("yes", false, "Skip confirmation prompt")

	libraryCmd.AddCommand(libraryListCmd)
	libraryCmd.AddCommand(libraryShowCmd)
	libraryCmd.AddCommand(libraryAddCmd)
	libraryCmd.AddCommand(libraryRemoveCmd)
	libraryCmd.AddCommand(libraryProgressCmd)
	libraryCmd.AddCommand(libraryFindCmd)
}

func runLibraryAdd(cmd *cobra.Command, path, title, author string) error {
	doc, err := textproc.ReadFile(path)
	if err != nil {
		return err
	}
	if len(doc.Words) == 0 {
		return fmt.Errorf("%s contains no words", path)
	}

	return withApp(cmd, func(ctx context.Context, a *app.App) error {
		book := a.Library.NewBook(filepath.Base(path), title, author, doc.Words, doc.Chapters)
		id, err := a.Library.Import(ctx, book, doc.Words)
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Added %s: %q by %s (%d words, %d chapters)\n",
			id, book.Title, book.Author, book.TotalWords, len(book.Chapters))
		return nil
	})
}

func runLibraryRemove(cmd *cobra.Command, id string, force bool) error {
	return withApp(cmd, func(ctx context.Context, a *app.App) error {
		book := a.Library.Get(ctx, id)
		if book == nil {
			return fmt.Errorf("%s: %w", id, library.ErrBookNotFound)
		}
		if !force {
			confirmed, err := promptYesNo(cmd, fmt.Sprintf("Remove %q", book.Title))
			if err != nil {
				return err
			}
			if !confirmed {
				fmt.Fprintln(cmd.OutOrStdout(), "Aborted. Nothing removed.")
				return nil
			}
		}
		if err := a.Library.Remove(ctx, id); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Removed %s\n", id)
		return nil
	})
}

func percentRead(b *models.Book) int {
	if b.TotalWords == 0 {
		return 0
	}
	return b.CurrentWordIndex * 100 / b.TotalWords
}

func chapterLabel(b *models.Book) string {
	if len(b.Chapters) == 0 {
		return "no chapters"
	}
	i := b.CurrentChapter()
	return fmt.Sprintf("chapter %d/%d %q", i+1, len(b.Chapters), b.Chapters[i].Title)
}

func printBooks(w io.Writer, books []models.Book) {
	if len(books) == 0 {
		fmt.Fprintln(w, "No books found.")
		return
	}
	for i := range books {
		b := &books[i]
		fmt.Fprintf(w, "%2d. %s\n", i+1, b.Title)
		fmt.Fprintf(w, "    ID: %s\n", b.ID)
		fmt.Fprintf(w, "    Author: %s\n", b.Author)
		fmt.Fprintf(w, "    Progress: %d/%d words (%d%%)\n", b.CurrentWordIndex, b.TotalWords, percentRead(b))
	}
}

func printBook(w io.Writer, b *models.Book) {
	fmt.Fprintf(w, "ID:        %s\n", b.ID)
	fmt.Fprintf(w, "Title:     %s\n", b.Title)
	fmt.Fprintf(w, "Author:    %s\n", b.Author)
	fmt.Fprintf(w, "File:      %s\n", b.FileName)
	fmt.Fprintf(w, "Words:     %d\n", b.TotalWords)
	fmt.Fprintf(w, "Position:  %d (%d%%, %s)\n", b.CurrentWordIndex, percentRead(b), chapterLabel(b))
	fmt.Fprintf(w, "Last read: %s\n", b.LastReadDate.Format("2006-01-02 15:04:05 MST"))
	cover := "none"
	if b.CoverURL != nil {
		cover = truncateString(*b.CoverURL, 48)
	}
	fmt.Fprintf(w, "Cover:     %s\n", cover)
	for i, ch := range b.Chapters {
		fmt.Fprintf(w, "  %3d. %s [%d-%d]\n", i+1, ch.Title, ch.StartIndex, ch.EndIndex)
	}
}
