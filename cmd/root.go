// file: cmd/root.go
// version: 2.0.0
// guid: 6a7b8c9d-0e1f-2a3b-4c5d-6e7f8a9b0c1d

package cmd

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/jdfalk/speed-reader/internal/app"
	"github.com/jdfalk/speed-reader/internal/config"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var cfgFile string
var dataDir string
var databasePath string
var legacyBackend string
var legacyPath string
var redisAddr string
var logLevel string

// openApp is replaced in tests
var openApp = app.Open

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "speed-reader",
	Short: "Manage the speed reader's book library and storage",
	Long: `Speed Reader keeps imported books, their word sequences, reading
progress and settings in a SQLite object store, with an older key-value
store kept readable for migration.

Use it to import plain-text books, inspect and repair storage, and move
data out of the legacy store.`,
	SilenceUsage: true,
}

// Execute adds all child commands to the root command and sets flags appropriately
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is $HOME/.speed-reader.yaml)")
	rootCmd.PersistentFlags().StringVar(&dataDir, "data-dir", "", "directory for the database and legacy store (default .speed-reader)")
	rootCmd.PersistentFlags().StringVar(&databasePath, "db", "", "path to the SQLite object store (default <data-dir>/speedreader.db)")
	rootCmd.PersistentFlags().StringVar(&legacyBackend, "legacy-backend", "", "legacy store backend: pebble, redis or memory (not persisted)")
	rootCmd.PersistentFlags().StringVar(&legacyPath, "legacy-path", "", "PebbleDB directory for the legacy store (default <data-dir>/legacy)")
	rootCmd.PersistentFlags().StringVar(&redisAddr, "redis-addr", "", "Redis address for the legacy store")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "log level: debug, info, warn or error")

	viper.BindPFlag("data_dir", rootCmd.PersistentFlags().Lookup("data-dir"))
	viper.BindPFlag("database_path", rootCmd.PersistentFlags().Lookup("db"))
	viper.BindPFlag("legacy_backend", rootCmd.PersistentFlags().Lookup("legacy-backend"))
	viper.BindPFlag("legacy_path", rootCmd.PersistentFlags().Lookup("legacy-path"))
	viper.BindPFlag("redis_addr", rootCmd.PersistentFlags().Lookup("redis-addr"))
	viper.BindPFlag("log_level", rootCmd.PersistentFlags().Lookup("log-level"))

	rootCmd.AddCommand(libraryCmd)
	rootCmd.AddCommand(wordsCmd)
	rootCmd.AddCommand(settingsCmd)
	rootCmd.AddCommand(storageCmd)
	rootCmd.AddCommand(coverCmd)
	rootCmd.AddCommand(configCmd)
}

func initConfig() {
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		home, err := os.UserHomeDir()
		cobra.CheckErr(err)

		viper.AddConfigPath(home)
		viper.SetConfigType("yaml")
		viper.SetConfigName(".speed-reader")
	}

	viper.SetEnvPrefix("SPEEDREADER")
	viper.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err == nil {
		fmt.Fprintln(os.Stderr, "Using config file:", viper.ConfigFileUsed())
	}

	config.InitConfig()
	if err := config.LoadConfigFromFile(); err != nil {
		fmt.Fprintf(os.Stderr, "Warning: could not load %s: %v\n", config.ConfigFilePath(), err)
	}
}

func commandContext(cmd *cobra.Command) context.Context {
	if ctx := cmd.Context(); ctx != nil {
		return ctx
	}
	return context.Background()
}

// withApp opens the stores for one command and closes them afterwards.
func withApp(cmd *cobra.Command, fn func(ctx context.Context, a *app.App) error) error {
	a, err := openApp(config.AppConfig)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := a.Close(); cerr != nil {
			fmt.Fprintf(cmd.ErrOrStderr(), "Warning: shutdown error: %v\n", cerr)
		}
	}()
	return fn(commandContext(cmd), a)
}
