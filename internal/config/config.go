// Package config provides configuration types, defaults, and persistence for paneron.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/zjrosen/paneron/internal/clonecache"
	"github.com/zjrosen/paneron/internal/git"
	"github.com/zjrosen/paneron/internal/log"
	"github.com/zjrosen/paneron/internal/paths"
	"github.com/zjrosen/paneron/internal/register"
	"github.com/zjrosen/paneron/internal/tracing"
)

// Config holds all configuration options for paneron.
type Config struct {
	// Path is the register root. Empty means the current directory.
	Path string `mapstructure:"path"`

	// Remote is the repository URL. Empty means local-only.
	Remote     string `mapstructure:"remote"`
	RemoteName string `mapstructure:"remote_name"`
	Branch     string `mapstructure:"branch"`

	// Update pulls with rebase whenever an existing clone is opened.
	Update bool `mapstructure:"update"`

	// Extension is the item file extension, without the dot.
	Extension string `mapstructure:"extension"`

	// CacheDir overrides the clone cache root used by `paneron clone`.
	CacheDir string `mapstructure:"cache_dir"`

	Git     GitConfig      `mapstructure:"git"`
	Log     LogConfig      `mapstructure:"log"`
	Watch   WatchConfig    `mapstructure:"watch"`
	Tracing tracing.Config `mapstructure:"tracing"`
}

// GitConfig holds commit identity and network limits.
type GitConfig struct {
	Timeout     time.Duration `mapstructure:"timeout"`
	AuthorName  string        `mapstructure:"author_name"`
	AuthorEmail string        `mapstructure:"author_email"`
}

// LogConfig controls the debug log file.
type LogConfig struct {
	// Path enables file logging when set.
	Path  string `mapstructure:"path"`
	Level string `mapstructure:"level"` // debug, info (default), warn, error
}

// WatchConfig holds `paneron watch` options.
type WatchConfig struct {
	Debounce time.Duration `mapstructure:"debounce"`

	// AutoCommit commits every settled batch of changes.
	AutoCommit bool `mapstructure:"auto_commit"`
}

// DefaultTracesFilePath returns ~/.config/paneron/traces/traces.jsonl, or ""
// if the home directory is unavailable.
func DefaultTracesFilePath() string {
	dir, err := paths.ConfigDir()
	if err != nil {
		return ""
	}
	return filepath.Join(dir, "traces", "traces.jsonl")
}

// Defaults returns a Config with sensible default values.
func Defaults() Config {
	tc := tracing.DefaultConfig()
	tc.FilePath = DefaultTracesFilePath()
	return Config{
		RemoteName: register.DefaultRemoteName,
		Branch:     register.DefaultBranch,
		Extension:  register.DefaultExtension,
		Git: GitConfig{
			Timeout:     git.DefaultTimeout,
			AuthorName:  git.DefaultAuthorName,
			AuthorEmail: git.DefaultAuthorEmail,
		},
		Log: LogConfig{
			Level: "info",
		},
		Watch: WatchConfig{
			Debounce: 500 * time.Millisecond,
		},
		Tracing: tc,
	}
}

// Validate checks the configuration for errors. Empty values use defaults.
func Validate(cfg Config) error {
	if strings.ContainsAny(strings.TrimPrefix(cfg.Extension, "."), `/\.`) {
		return fmt.Errorf("extension must be a single suffix such as \"yaml\", got %q", cfg.Extension)
	}
	if cfg.RemoteName != "" {
		if err := register.ValidateName("remote", cfg.RemoteName); err != nil {
			return fmt.Errorf("remote_name: %w", err)
		}
	}
	if cfg.Git.Timeout < 0 {
		return fmt.Errorf("git.timeout must not be negative, got %s", cfg.Git.Timeout)
	}
	if cfg.Watch.Debounce < 0 {
		return fmt.Errorf("watch.debounce must not be negative, got %s", cfg.Watch.Debounce)
	}
	switch strings.ToLower(cfg.Log.Level) {
	case "", "debug", "info", "warn", "warning", "error":
	default:
		return fmt.Errorf("log.level must be debug, info, warn or error, got %q", cfg.Log.Level)
	}
	return ValidateTracing(cfg.Tracing)
}

// ValidateTracing checks tracing configuration for errors.
func ValidateTracing(tc tracing.Config) error {
	if tc.SampleRate < 0.0 || tc.SampleRate > 1.0 {
		return fmt.Errorf("tracing.sample_rate must be between 0.0 and 1.0, got %v", tc.SampleRate)
	}

	if tc.Exporter != "" {
		switch tc.Exporter {
		case tracing.ExporterNone, tracing.ExporterFile, tracing.ExporterStdout, tracing.ExporterOTLP:
		default:
			return fmt.Errorf("tracing.exporter must be \"none\", \"file\", \"stdout\", or \"otlp\", got %q", tc.Exporter)
		}
	}

	if tc.Enabled {
		if tc.Exporter == tracing.ExporterFile && tc.FilePath == "" {
			return fmt.Errorf("tracing.file_path is required when exporter is \"file\"")
		}
		if tc.Exporter == tracing.ExporterOTLP && tc.OTLPEndpoint == "" {
			return fmt.Errorf("tracing.otlp_endpoint is required when exporter is \"otlp\"")
		}
	}
	return nil
}

// GitClientConfig converts the git section for git.NewClient.
func (c Config) GitClientConfig() git.Config {
	return git.Config{
		Timeout:     c.Git.Timeout,
		AuthorName:  c.Git.AuthorName,
		AuthorEmail: c.Git.AuthorEmail,
	}
}

// RegisterOptions returns the options register.Open needs for this config.
func (c Config) RegisterOptions() []register.Option {
	return []register.Option{
		register.WithRemote(c.Remote),
		register.WithRemoteName(c.RemoteName),
		register.WithBranch(c.Branch),
		register.WithUpdate(c.Update),
		register.WithExtension(c.Extension),
		register.WithGitClient(git.NewClient(c.GitClientConfig())),
	}
}

// CloneCache returns the clone cache rooted at CacheDir, or the default one.
func (c Config) CloneCache() (*clonecache.Cache, error) {
	if c.CacheDir == "" {
		return clonecache.Default()
	}
	return clonecache.New(c.CacheDir), nil
}

// DefaultConfigTemplate returns the default config as a YAML string with comments.
func DefaultConfigTemplate() string {
	return `# Paneron Configuration

# Register root (default: the register containing the current directory)
# path: /path/to/register

# Repository remote. Leave empty for a local-only register.
# remote: https://github.com/example/register.git
remote_name: origin
branch: main

# Pull with rebase whenever an existing clone is opened
update: false

# Item file extension
extension: yaml

# Clone cache for 'paneron clone' (default: <user cache dir>/paneron/registers)
# cache_dir: /path/to/cache

# Commit identity and network timeout for clone, pull and push
git:
  timeout: 2m
  author_name: paneron
  author_email: paneron@localhost

# Debug log (also enabled by --debug)
log:
  # path: /tmp/paneron.log
  level: info

# 'paneron watch' settings
watch:
  debounce: 500ms
  auto_commit: false  # Commit each settled batch of changes

# Distributed tracing around open, save and sync
# tracing:
#   enabled: false                 # Enable/disable tracing (default: false)
#   exporter: file                 # Export backend: none, file, stdout, otlp (default: file)
#   file_path: ~/.config/paneron/traces/traces.jsonl  # Output file for file exporter
#   otlp_endpoint: localhost:4317  # OTLP collector endpoint (for otlp exporter)
#   sample_rate: 1.0               # Trace sampling rate 0.0-1.0 (default: 1.0)
`
}

// WriteDefaultConfig creates a config file at the given path with default settings and comments.
// Creates the parent directory if it doesn't exist.
func WriteDefaultConfig(configPath string) error {
	log.Debug(log.CatConfig, "Writing default config", "path", configPath)

	if err := writeFileAtomic(configPath, []byte(DefaultConfigTemplate())); err != nil {
		log.ErrorErr(log.CatConfig, "Failed to write config file", err, "path", configPath)
		return err
	}

	log.Info(log.CatConfig, "Created default config", "path", configPath)
	return nil
}

func writeFileAtomic(configPath string, data []byte) error {
	dir := filepath.Dir(configPath)
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return fmt.Errorf("creating config directory: %w", err)
	}

	temp, err := os.CreateTemp(dir, ".paneron.yaml.tmp.*")
	if err != nil {
		return fmt.Errorf("creating temp file: %w", err)
	}
	tempPath := temp.Name()

	if _, err := temp.Write(data); err != nil {
		_ = temp.Close()
		_ = os.Remove(tempPath)
		return fmt.Errorf("writing temp file: %w", err)
	}
	if err := temp.Close(); err != nil {
		_ = os.Remove(tempPath)
		return fmt.Errorf("closing temp file: %w", err)
	}

	if err := os.Rename(tempPath, configPath); err != nil {
		_ = os.Remove(tempPath)
		return fmt.Errorf("renaming temp file: %w", err)
	}
	return nil
}
