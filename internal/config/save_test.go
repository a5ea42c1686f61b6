package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/require"
)

func loadWithViper(t *testing.T, configPath string) Config {
	t.Helper()
	v := viper.New()
	v.SetConfigFile(configPath)
	require.NoError(t, v.ReadInConfig())
	var cfg Config
	require.NoError(t, v.Unmarshal(&cfg))
	return cfg
}

func TestSaveSettings_CreatesNewFile(t *testing.T) {
	configPath := filepath.Join(t.TempDir(), "nested", "config.yaml")

	require.NoError(t, SaveSettings(configPath, Setting{Key: "path", Value: "/srv/units"}))

	data, err := os.ReadFile(configPath)
	require.NoError(t, err)
	require.Equal(t, "path: /srv/units\n", string(data))
}

func TestSaveSettings_PreservesOtherConfig(t *testing.T) {
	configPath := filepath.Join(t.TempDir(), "config.yaml")
	initial := `# Paneron Configuration
path: /old  # where the register lives
branch: trunk

git:
  timeout: 30s
`
	require.NoError(t, os.WriteFile(configPath, []byte(initial), 0o644))

	require.NoError(t, SaveSettings(configPath,
		Setting{Key: "path", Value: "/new"},
		Setting{Key: "remote", Value: "https://example.com/units.git"},
	))

	data, err := os.ReadFile(configPath)
	require.NoError(t, err)
	require.Contains(t, string(data), "# Paneron Configuration")
	require.Contains(t, string(data), "# where the register lives")

	cfg := loadWithViper(t, configPath)
	require.Equal(t, "/new", cfg.Path)
	require.Equal(t, "https://example.com/units.git", cfg.Remote)
	require.Equal(t, "trunk", cfg.Branch)
	require.Equal(t, "30s", cfg.Git.Timeout.String())
}

func TestSaveSettings_QuotesAmbiguousScalars(t *testing.T) {
	configPath := filepath.Join(t.TempDir(), "config.yaml")

	require.NoError(t, SaveSettings(configPath, Setting{Key: "branch", Value: "true"}))

	cfg := loadWithViper(t, configPath)
	require.Equal(t, "true", cfg.Branch)
}

func TestSaveRegister_EmptyRemoteRemovesKey(t *testing.T) {
	configPath := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, SaveRegister(configPath, "/srv/a", "https://example.com/a.git"))

	cfg := loadWithViper(t, configPath)
	require.Equal(t, "https://example.com/a.git", cfg.Remote)

	require.NoError(t, SaveRegister(configPath, "/srv/b", ""))
	cfg = loadWithViper(t, configPath)
	require.Equal(t, "/srv/b", cfg.Path)
	require.Empty(t, cfg.Remote)

	data, err := os.ReadFile(configPath)
	require.NoError(t, err)
	require.NotContains(t, string(data), "remote")
}

func TestSaveSettings_RejectsNonMapping(t *testing.T) {
	configPath := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(configPath, []byte("- a\n- b\n"), 0o644))

	err := SaveSettings(configPath, Setting{Key: "path", Value: "/x"})
	require.Error(t, err)
	require.Contains(t, err.Error(), "not a mapping")
}

func TestRemoveSetting_MissingKeyIsNoop(t *testing.T) {
	configPath := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(configPath, []byte("path: /x\n"), 0o644))

	require.NoError(t, RemoveSetting(configPath, "remote"))

	data, err := os.ReadFile(configPath)
	require.NoError(t, err)
	require.Equal(t, "path: /x\n", string(data))
}
