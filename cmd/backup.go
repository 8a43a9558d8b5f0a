// file: cmd/backup.go
// version: 1.1.0
// guid: 2b7c9e41-5d08-4a6f-93e2-c1f4a8d0b657

package cmd

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"

	"github.com/jdfalk/speed-reader/internal/app"
	"github.com/jdfalk/speed-reader/internal/backup"
	"github.com/jdfalk/speed-reader/internal/config"
	"github.com/spf13/cobra"
)

var (
	storageBackupCmd = &cobra.Command{
		Use:   "backup",
		Short: "Snapshot the object store and legacy keys",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			dir, _ := cmd.Flags().GetString("dir")
			keep, _ := cmd.Flags().GetInt("keep")
			return withApp(cmd, func(ctx context.Context, a *app.App) error {
				cfg := backup.DefaultConfig(backupDir(dir))
				cfg.MaxBackups = keep

				var src backup.KeyValueSource
				if a.Legacy.IsAvailable() {
					src = a.Legacy
				}
				info, err := backup.Create(ctx, a.Store.DB(), src, cfg)
				if err != nil {
					return err
				}
				out := cmd.OutOrStdout()
				fmt.Fprintf(out, "Created %s\n", info.Path)
				fmt.Fprintf(out, "Size:     %s\n", formatBytes(info.Size))
				fmt.Fprintf(out, "Legacy:   %d keys\n", info.LegacyKeys)
				fmt.Fprintf(out, "SHA-256:  %s\n", info.Checksum)
				return nil
			})
		},
	}

	storageBackupsCmd = &cobra.Command{
		Use:   "backups",
		Short: "List snapshots",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			dir, _ := cmd.Flags().GetString("dir")
			list, err := backup.List(backupDir(dir))
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if len(list) == 0 {
				fmt.Fprintln(out, "No backups found.")
				return nil
			}
			for _, b := range list {
				fmt.Fprintf(out, "%s  %10s  %s\n", b.CreatedAt.Format("2006-01-02 15:04:05"), formatBytes(b.Size), b.Filename)
			}
			return nil
		},
	}

	storageRestoreCmd = &cobra.Command{
		Use:   "restore <archive>",
		Short: "Extract a snapshot or load its legacy keys",
		Long: `Extract the object store copy and legacy key dump of a snapshot into
--into. With --legacy the dumped keys are written back into the
configured legacy store instead.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			into, _ := cmd.Flags().GetString("into")
			toLegacy, _ := cmd.Flags().GetBool("legacy")
			return runStorageRestore(cmd, args[0], into, toLegacy)
		},
	}
)

func init() {
	for _, c := range []*cobra.Command{storageBackupCmd, storageBackupsCmd} {
		c.Flags().String("dir", "", "Backup directory (default <data-dir>/backups)")
	}
	storageBackupCmd.Flags().Int("keep", 10, "Number of snapshots to keep, 0 keeps all")
	storageRestoreCmd.Flags().String("into", "", "Directory to extract into")
	storageRestoreCmd.Flags().Bool("legacy", false, "Write the dumped keys into the legacy store")
}

func backupDir(flag string) string {
	if flag != "" {
		return flag
	}
	return filepath.Join(config.AppConfig.DataDir, "backups")
}

func runStorageRestore(cmd *cobra.Command, archive, into string, toLegacy bool) error {
	out := cmd.OutOrStdout()
	if !toLegacy {
		if into == "" {
			return errors.New("--into or --legacy is required")
		}
		files, err := backup.Extract(archive, into)
		if err != nil {
			return err
		}
		for _, f := range files {
			fmt.Fprintf(out, "Extracted %s\n", f)
		}
		return nil
	}

	if config.AppConfig.LegacyBackend == config.LegacyBackendMemory {
		return errors.New("the memory legacy backend is not persisted; restore into pebble or redis")
	}
	return withApp(cmd, func(ctx context.Context, a *app.App) error {
		n, err := backup.RestoreLegacy(archive, a.Legacy)
		if err != nil {
			return err
		}
		fmt.Fprintf(out, "Restored %d legacy keys into %s.\n", n, a.Legacy.Backend().Name())
		if a.Migrator != nil {
			a.Migrator.Reset()
		}
		return nil
	})
}
