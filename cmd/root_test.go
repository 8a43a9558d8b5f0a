// file: cmd/root_test.go
// version: 2.0.0
// guid: 7eae8d0c-7fda-4f45-8f73-5d1e0c7c9f1a

package cmd

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/jdfalk/speed-reader/internal/config"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// resetFlags puts every flag of c and its children back to its default so
// commands can be executed repeatedly in one process.
func resetFlags(c *cobra.Command) {
	reset := func(f *pflag.Flag) {
		if f.Changed {
			_ = f.Value.Set(f.DefValue)
			f.Changed = false
		}
	}
	c.Flags().VisitAll(reset)
	c.PersistentFlags().VisitAll(reset)
	for _, child := range c.Commands() {
		resetFlags(child)
	}
}

// isolate points HOME at a temp dir and restores global config afterwards.
func isolate(t *testing.T) string {
	t.Helper()
	home := t.TempDir()
	t.Setenv("HOME", home)
	origConfig := config.AppConfig
	origCfgFile := cfgFile
	t.Cleanup(func() {
		config.AppConfig = origConfig
		cfgFile = origCfgFile
		resetFlags(rootCmd)
	})
	resetFlags(rootCmd)
	return home
}

// runCLI executes the root command against dataDir and returns its output.
func runCLI(t *testing.T, dataDir, stdin string, args ...string) (string, error) {
	t.Helper()
	resetFlags(rootCmd)
	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&out)
	rootCmd.SetIn(strings.NewReader(stdin))
	rootCmd.SetArgs(append([]string{"--data-dir", dataDir, "--log-level", "error"}, args...))
	err := rootCmd.Execute()
	return out.String(), err
}

func TestInitConfigDefaults(t *testing.T) {
	isolate(t)
	dataDir := filepath.Join(t.TempDir(), "data")
	t.Setenv("SPEEDREADER_DATA_DIR", dataDir)

	initConfig()

	assert.Equal(t, dataDir, config.AppConfig.DataDir)
	assert.Equal(t, filepath.Join(dataDir, "speedreader.db"), config.AppConfig.DatabasePath)
	assert.Equal(t, filepath.Join(dataDir, "legacy"), config.AppConfig.LegacyPath)
	assert.Equal(t, config.LegacyBackendPebble, config.AppConfig.LegacyBackend)
	assert.NoError(t, config.AppConfig.Validate())
}

func TestInitConfigEnvOverrides(t *testing.T) {
	isolate(t)
	t.Setenv("SPEEDREADER_DATA_DIR", t.TempDir())
	t.Setenv("SPEEDREADER_CHUNK_SIZE", "500")
	t.Setenv("SPEEDREADER_LEGACY_BACKEND", "Memory")

	initConfig()

	assert.Equal(t, 500, config.AppConfig.ChunkSize)
	assert.Equal(t, config.LegacyBackendMemory, config.AppConfig.LegacyBackend)
}

func TestInitConfigUsesHomeConfig(t *testing.T) {
	home := isolate(t)
	t.Setenv("SPEEDREADER_DATA_DIR", t.TempDir())
	configPath := filepath.Join(home, ".speed-reader.yaml")
	require.NoError(t, os.WriteFile(configPath, []byte("queue_size: 7\n"), 0o644))

	initConfig()

	assert.Equal(t, 7, config.AppConfig.QueueSize)
}

func TestInitConfigLoadsDataDirConfig(t *testing.T) {
	isolate(t)
	dataDir := t.TempDir()
	t.Setenv("SPEEDREADER_DATA_DIR", dataDir)
	require.NoError(t, os.WriteFile(filepath.Join(dataDir, "config.yaml"), []byte("workers: 5\nusage_cache_ttl: 2m\n"), 0o644))

	initConfig()

	assert.Equal(t, 5, config.AppConfig.Workers)
	assert.Equal(t, "2m0s", config.AppConfig.UsageCacheTTL.String())
}

func TestRootHelpListsCommands(t *testing.T) {
	isolate(t)
	out, err := runCLI(t, t.TempDir(), "", "--help")
	require.NoError(t, err)
	for _, name := range []string{"library", "words", "settings", "storage", "cover", "config"} {
		assert.Contains(t, out, name)
	}
}
