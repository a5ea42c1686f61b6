package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/zjrosen/paneron/internal/config"
	"github.com/zjrosen/paneron/internal/log"
	"github.com/zjrosen/paneron/internal/paths"
	"github.com/zjrosen/paneron/internal/register"
	"github.com/zjrosen/paneron/internal/tracing"
)

const localConfigPath = ".paneron/config.yaml"

var (
	version   = "dev"
	cfgFile   string
	debugFlag bool
	cfg       config.Config

	logCleanup func()
	provider   *tracing.Provider
)

var rootCmd = &cobra.Command{
	Use:   "paneron",
	Short: "Manage Paneron registers stored as YAML files in git",
	Long: `paneron reads and writes Paneron registers: a register holds data sets,
data sets hold item classes, and item classes hold items, each item being
a single YAML file named by its UUID.

When a remote is configured the register lives in a git repository and
every save is committed; 'paneron sync' pulls and pushes it.`,
	Version:            version,
	SilenceUsage:       true,
	PersistentPreRunE:  setup,
	PersistentPostRunE: teardown,
}

func init() {
	cobra.OnInitialize(initConfig)

	flags := rootCmd.PersistentFlags()
	flags.StringVarP(&cfgFile, "config", "c", "",
		"config file (default: ~/.config/paneron/config.yaml)")
	flags.StringP("path", "p", "",
		"register root (default: the register containing the current directory)")
	flags.String("remote", "",
		"repository URL; empty keeps the register local")
	flags.String("branch", "",
		"branch to clone, pull and push (default: main)")
	flags.BoolVar(&debugFlag, "debug", false,
		"write debug logs to stderr")
}

// bindFlags binds flags to viper. It runs from initConfig, after every
// command's init has defined its flags.
func bindFlags() {
	flags := rootCmd.PersistentFlags()
	_ = viper.BindPFlag("path", flags.Lookup("path"))
	_ = viper.BindPFlag("remote", flags.Lookup("remote"))
	_ = viper.BindPFlag("branch", flags.Lookup("branch"))
	_ = viper.BindPFlag("watch.debounce", watchCmd.Flags().Lookup("debounce"))
	_ = viper.BindPFlag("watch.auto_commit", watchCmd.Flags().Lookup("commit"))
}

func initConfig() {
	bindFlags()

	defaults := config.Defaults()
	viper.SetDefault("remote_name", defaults.RemoteName)
	viper.SetDefault("branch", defaults.Branch)
	viper.SetDefault("update", defaults.Update)
	viper.SetDefault("extension", defaults.Extension)
	viper.SetDefault("git.timeout", defaults.Git.Timeout)
	viper.SetDefault("git.author_name", defaults.Git.AuthorName)
	viper.SetDefault("git.author_email", defaults.Git.AuthorEmail)
	viper.SetDefault("log.level", defaults.Log.Level)
	viper.SetDefault("watch.debounce", defaults.Watch.Debounce)
	viper.SetDefault("watch.auto_commit", defaults.Watch.AutoCommit)
	viper.SetDefault("tracing.enabled", defaults.Tracing.Enabled)
	viper.SetDefault("tracing.exporter", defaults.Tracing.Exporter)
	viper.SetDefault("tracing.file_path", defaults.Tracing.FilePath)
	viper.SetDefault("tracing.otlp_endpoint", defaults.Tracing.OTLPEndpoint)
	viper.SetDefault("tracing.sample_rate", defaults.Tracing.SampleRate)
	viper.SetDefault("tracing.service_name", defaults.Tracing.ServiceName)

	userDir, userDirErr := paths.ConfigDir()

	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		// Config lookup order:
		// 1. .paneron/config.yaml (current directory)
		// 2. ~/.config/paneron/config.yaml (user config)
		if _, err := os.Stat(localConfigPath); err == nil {
			viper.SetConfigFile(localConfigPath)
		} else if userDirErr == nil {
			viper.AddConfigPath(userDir)
			viper.SetConfigName("config")
			viper.SetConfigType("yaml")
		}
	}

	if err := viper.ReadInConfig(); err != nil {
		// The default goes to the user config dir rather than the current
		// directory, which is often a register under version control.
		var notFound viper.ConfigFileNotFoundError
		if errors.As(err, &notFound) && userDirErr == nil {
			defaultPath := filepath.Join(userDir, "config.yaml")
			if writeErr := config.WriteDefaultConfig(defaultPath); writeErr == nil {
				viper.SetConfigFile(defaultPath)
				_ = viper.ReadInConfig()
			}
			// If write fails, just continue with defaults (no config file)
		}
	}

	cfg = config.Config{}
	_ = viper.Unmarshal(&cfg)
}

// setup validates the loaded config and starts logging and tracing.
func setup(cmd *cobra.Command, _ []string) error {
	if err := config.Validate(cfg); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	switch {
	case debugFlag:
		log.InitWriter(cmd.ErrOrStderr(), log.LevelDebug)
	case cfg.Log.Path != "":
		cleanup, err := log.Init(cfg.Log.Path)
		if err != nil {
			return fmt.Errorf("initializing logging: %w", err)
		}
		logCleanup = cleanup
		log.SetMinLevel(log.ParseLevel(cfg.Log.Level))
	}
	log.Debug(log.CatCLI, "command starting",
		"command", cmd.CommandPath(), "config", viper.ConfigFileUsed())

	p, err := tracing.NewProvider(cfg.Tracing)
	if err != nil {
		return fmt.Errorf("initializing tracing: %w", err)
	}
	provider = p
	return nil
}

func teardown(_ *cobra.Command, _ []string) error {
	if provider != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := provider.Shutdown(ctx); err != nil {
			log.WarnErr(log.CatCLI, "tracing shutdown failed", err)
		}
		provider = nil
	}
	if logCleanup != nil {
		logCleanup()
		logCleanup = nil
	}
	return nil
}

// registerPath resolves the register root from --path, config, or the
// current directory.
func registerPath() string {
	return paths.ResolveRegisterRoot(cfg.Path)
}

// openRegister opens the register at registerPath with the configured
// remote, branch and git client.
func openRegister(ctx context.Context) (*register.Register, error) {
	return openRegisterAt(ctx, registerPath())
}

func openRegisterAt(ctx context.Context, path string) (*register.Register, error) {
	log.Debug(log.CatCLI, "opening register", "path", path, "remote", cfg.Remote)
	reg, err := register.Open(ctx, path, cfg.RegisterOptions()...)
	if err != nil {
		return nil, fmt.Errorf("opening register at %s: %w", path, err)
	}
	return reg, nil
}

// configFilePath is where settings are saved: the file viper loaded, or the
// local config path when none was loaded.
func configFilePath() string {
	if used := viper.ConfigFileUsed(); used != "" {
		return used
	}
	return localConfigPath
}

// Execute runs the root command
func Execute() error {
	return rootCmd.Execute()
}

// SetVersion sets the version string (called from main with ldflags)
func SetVersion(v string) {
	version = v
	rootCmd.Version = v
}
