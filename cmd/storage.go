// file: cmd/storage.go
// version: 1.0.0
// guid: b8f2d06a-1c93-4e57-a4b0-6e9d3c7f5a21

package cmd

import (
	"context"
	"fmt"
	"io"

	"github.com/jdfalk/speed-reader/internal/app"
	"github.com/jdfalk/speed-reader/internal/config"
	"github.com/jdfalk/speed-reader/internal/database"
	"github.com/jdfalk/speed-reader/internal/maintenance"
	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"
)

var (
	storageCmd = &cobra.Command{
		Use:   "storage",
		Short: "Usage reports, cleanup and migration",
	}

	storageUsageCmd = &cobra.Command{
		Use:   "usage",
		Short: "Report storage usage",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, func(ctx context.Context, a *app.App) error {
				printUsage(cmd.OutOrStdout(), a.Maintenance.Usage(ctx), a.Maintenance.IsStorageLow(ctx))
				return nil
			})
		},
	}

	storageGCCmd = &cobra.Command{
		Use:   "gc",
		Short: "Remove word data that belongs to no book",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, func(ctx context.Context, a *app.App) error {
				res, err := a.Maintenance.Collect(ctx)
				if err != nil {
					return err
				}
				out := cmd.OutOrStdout()
				if !res.Removed() {
					fmt.Fprintln(out, "No orphaned data found.")
					return nil
				}
				fmt.Fprintf(out, "Removed %d orphaned chunks and %d legacy keys.\n", res.ObjectChunks, res.LegacyKeys)
				return nil
			})
		},
	}

	storageMigrateCmd = &cobra.Command{
		Use:   "migrate",
		Short: "Copy legacy data into the object store",
		Long: `Copy books, words, settings and reading progress from the legacy
store into the object store. Migration normally runs once, on first use;
--reset clears the completion flag so it runs again.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			reset, _ := cmd.Flags().GetBool("reset")
			return runStorageMigrate(cmd, reset)
		},
	}

	storageSchemaCmd = &cobra.Command{
		Use:   "schema",
		Short: "Show applied object store schema migrations",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, func(ctx context.Context, a *app.App) error {
				history, err := database.GetMigrationHistory(a.Store.DB())
				if err != nil {
					return fmt.Errorf("failed to read schema history: %w", err)
				}
				out := cmd.OutOrStdout()
				fmt.Fprintf(out, "Schema version %d\n", database.SchemaVersion())
				for _, rec := range history {
					fmt.Fprintf(out, "  %3d  %s  %s\n", rec.Version, rec.AppliedAt.Format("2006-01-02 15:04:05"), rec.Description)
				}
				return nil
			})
		},
	}
)

func init() {
	storageMigrateCmd.Flags().Bool("reset", false, "Run migration again even if it already completed")

	storageCmd.AddCommand(storageUsageCmd)
	storageCmd.AddCommand(storageGCCmd)
	storageCmd.AddCommand(storageMigrateCmd)
	storageCmd.AddCommand(storageSchemaCmd)
	storageCmd.AddCommand(storageInspectCmd)
	storageCmd.AddCommand(storageBackupCmd)
	storageCmd.AddCommand(storageBackupsCmd)
	storageCmd.AddCommand(storageRestoreCmd)
}

func formatBytes(n int64) string {
	const unit = 1024
	if n < unit {
		return fmt.Sprintf("%d B", n)
	}
	div, exp := int64(unit), 0
	for m := n / unit; m >= unit; m /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f %ciB", float64(n)/float64(div), "KMGTPE"[exp])
}

func printUsage(w io.Writer, rep maintenance.Report, low bool) {
	source := "object store estimate"
	if rep.LegacyAvailable {
		source = "legacy store estimate"
	}
	fmt.Fprintf(w, "Used:   %s of %s (%d%%, %s)\n", formatBytes(rep.UsedBytes), formatBytes(rep.TotalBytes), rep.UsedPercent, source)
	fmt.Fprintf(w, "Books:  %d\n", rep.BookCount)
	fmt.Fprintf(w, "Chunks: %d\n", rep.ChunkCount)
	fmt.Fprintf(w, "Level:  %s\n", rep.Level)
	switch rep.Level {
	case maintenance.LevelCritical:
		fmt.Fprintln(w, "Storage is almost full. Remove books or run 'storage gc'.")
	case maintenance.LevelWarning:
		fmt.Fprintln(w, "Storage is filling up.")
	}
	if low {
		fmt.Fprintln(w, "The object store holds a large number of chunks; consider removing finished books.")
	}
}

// migrationProgress draws one bar per migration step.
type migrationProgress struct {
	w    io.Writer
	step string
	bar  *progressbar.ProgressBar
}

func (p *migrationProgress) update(step string, current, total int) {
	if p.bar == nil || step != p.step {
		p.finish()
		p.step = step
		p.bar = progressbar.NewOptions(total,
			progressbar.OptionSetWriter(p.w),
			progressbar.OptionSetDescription(step),
			progressbar.OptionShowCount(),
			progressbar.OptionOnCompletion(func() { fmt.Fprintln(p.w) }),
		)
	}
	_ = p.bar.Set(current)
}

func (p *migrationProgress) finish() {
	if p.bar != nil {
		_ = p.bar.Finish()
		p.bar = nil
	}
}

func runStorageMigrate(cmd *cobra.Command, reset bool) error {
	return withApp(cmd, func(ctx context.Context, a *app.App) error {
		out := cmd.OutOrStdout()
		if reset {
			a.Migrator.Reset()
		}
		if config.AppConfig.ShowProgress {
			p := &migrationProgress{w: cmd.ErrOrStderr()}
			a.Migrator.SetProgress(p.update)
			defer p.finish()
		}

		rep := a.Migrator.Run(ctx)
		if rep.Skipped {
			fmt.Fprintln(out, "Nothing to migrate: already done or legacy store unavailable.")
			return nil
		}
		fmt.Fprintf(out, "Migrated %d books and %d word sets", rep.Books, rep.Words)
		if rep.Settings {
			fmt.Fprint(out, ", settings")
		}
		if rep.Progress {
			fmt.Fprint(out, ", reading progress")
		}
		fmt.Fprintln(out, ".")
		for _, err := range rep.Errors {
			fmt.Fprintf(out, "  error: %v\n", err)
		}
		if len(rep.Errors) > 0 {
			return fmt.Errorf("%d items failed to migrate", len(rep.Errors))
		}
		return nil
	})
}
