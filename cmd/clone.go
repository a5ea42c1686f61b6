package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/zjrosen/paneron/internal/config"
	"github.com/zjrosen/paneron/internal/log"
	"github.com/zjrosen/paneron/internal/register"
)

var cloneCmd = &cobra.Command{
	Use:   "clone <url>",
	Short: "Clone a register into the clone cache",
	Long: `Clone a register repository into the clone cache, or reuse the clone
already cached for the URL. Cached clones live under
<user cache dir>/paneron/registers/<hash of url> unless cache_dir is set.

A cached clone whose remote points elsewhere is reported as a conflict.

Examples:
  paneron clone https://github.com/example/units.git
  paneron clone https://github.com/example/units.git --update --remember`,
	Args: cobra.ExactArgs(1),
	RunE: runClone,
}

var cloneRemember bool

func init() {
	rootCmd.AddCommand(cloneCmd)

	cloneCmd.Flags().Bool("update", false, "pull with rebase when the clone is already cached")
	cloneCmd.Flags().BoolVar(&cloneRemember, "remember", false,
		"save the clone path and URL to the config file")
}

func runClone(cmd *cobra.Command, args []string) error {
	url := args[0]

	cache, err := cfg.CloneCache()
	if err != nil {
		return fmt.Errorf("locating clone cache: %w", err)
	}
	update := cfg.Update
	if cmd.Flags().Changed("update") {
		update, _ = cmd.Flags().GetBool("update")
	}

	opts := append(cfg.RegisterOptions(),
		register.WithUpdate(update),
		register.WithCloneCache(cache),
	)
	reg, err := register.FromRemote(cmd.Context(), url, opts...)
	if err != nil {
		return fmt.Errorf("cloning %s: %w", url, err)
	}
	log.Info(log.CatCLI, "register ready", "url", url, "path", reg.Path())

	if cloneRemember {
		configPath := configFilePath()
		if err := config.SaveRegister(configPath, reg.Path(), url); err != nil {
			return fmt.Errorf("saving config: %w", err)
		}
		log.Info(log.CatConfig, "remembered register", "config", configPath, "path", reg.Path())
	}

	_, _ = fmt.Fprintln(cmd.OutOrStdout(), reg.Path())
	return nil
}
