// file: cmd/settings.go
// version: 1.0.0
// guid: 0d4a8c62-e7f1-4b39-9a5e-3c2b6f8d1e04

package cmd

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/jdfalk/speed-reader/internal/app"
	"github.com/jdfalk/speed-reader/internal/models"
	"github.com/spf13/cobra"
)

var (
	settingsCmd = &cobra.Command{
		Use:   "settings",
		Short: "Show or change reader settings",
	}

	settingsShowCmd = &cobra.Command{
		Use:   "show",
		Short: "Show the current settings",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, func(ctx context.Context, a *app.App) error {
				s, err := a.Settings(ctx)
				if err != nil {
					return fmt.Errorf("failed to load settings: %w", err)
				}
				printSettings(cmd.OutOrStdout(), s)
				return nil
			})
		},
	}

	settingsSetCmd = &cobra.Command{
		Use:   "set",
		Short: "Change one or more settings",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			patch, err := settingsPatchFromFlags(cmd)
			if err != nil {
				return err
			}
			if patch.IsEmpty() {
				return fmt.Errorf("nothing to change; pass --wpm, --theme or --input-type")
			}
			return withApp(cmd, func(ctx context.Context, a *app.App) error {
				s, err := a.UpdateSettings(ctx, patch)
				if err != nil {
					return fmt.Errorf("failed to save settings: %w", err)
				}
				printSettings(cmd.OutOrStdout(), s)
				return nil
			})
		},
	}
)

func init() {
	settingsSetCmd.Flags().Int("wpm", models.DefaultWPM, "Words per minute")
	settingsSetCmd.Flags().String("theme", models.ThemeLight, "Theme: light or dark")
	settingsSetCmd.Flags().String("input-type", models.DefaultInputType, "Input type")

	settingsCmd.AddCommand(settingsShowCmd)
	settingsCmd.AddCommand(settingsSetCmd)
}

// settingsPatchFromFlags includes only the flags given on the command line.
func settingsPatchFromFlags(cmd *cobra.Command) (models.SettingsPatch, error) {
	var patch models.SettingsPatch
	flags := cmd.Flags()
	if flags.Changed("wpm") {
		wpm, _ := flags.GetInt("wpm")
		if wpm <= 0 {
			return patch, fmt.Errorf("wpm must be positive, got %d", wpm)
		}
		patch.WPM = &wpm
	}
	if flags.Changed("theme") {
		theme, _ := flags.GetString("theme")
		theme = strings.ToLower(strings.TrimSpace(theme))
		if theme != models.ThemeLight && theme != models.ThemeDark {
			return patch, fmt.Errorf("theme must be %s or %s, got %q", models.ThemeLight, models.ThemeDark, theme)
		}
		patch.Theme = &theme
	}
	if flags.Changed("input-type") {
		inputType, _ := flags.GetString("input-type")
		inputType = strings.TrimSpace(inputType)
		if inputType == "" {
			return patch, fmt.Errorf("input type must not be empty")
		}
		patch.InputType = &inputType
	}
	return patch, nil
}

func printSettings(w io.Writer, s models.AppSettings) {
	fmt.Fprintf(w, "WPM:        %d\n", s.WPM)
	fmt.Fprintf(w, "Theme:      %s\n", s.Theme)
	fmt.Fprintf(w, "Input type: %s\n", s.InputType)
}
