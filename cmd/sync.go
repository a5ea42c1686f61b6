package cmd

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/zjrosen/paneron/internal/register"
)

var syncCmd = &cobra.Command{
	Use:   "sync",
	Short: "Commit local changes and push them to the remote",
	Long: `Stage every change in the register, commit it, and push when the
branch is ahead of the remote. With --update the branch is first pulled
with rebase; a conflicting rebase is aborted and reported.

Examples:
  paneron sync
  paneron sync --update --message "Add base units"`,
	Args: cobra.NoArgs,
	RunE: runSync,
}

var syncMessage string

func init() {
	rootCmd.AddCommand(syncCmd)

	syncCmd.Flags().Bool("update", false, "pull with rebase before committing (default: the update setting)")
	syncCmd.Flags().StringVarP(&syncMessage, "message", "m", "", "commit message (default: "+register.DefaultSyncMessage+")")
}

func runSync(cmd *cobra.Command, _ []string) error {
	update := cfg.Update
	if cmd.Flags().Changed("update") {
		update, _ = cmd.Flags().GetBool("update")
	}

	reg, err := openRegister(cmd.Context())
	if err != nil {
		return err
	}
	err = reg.Sync(cmd.Context(), register.SyncOptions{Update: update, Message: syncMessage})
	if errors.Is(err, register.ErrNoRemoteConfigured) {
		return fmt.Errorf("%w: pass --remote or set remote in %s", err, configFilePath())
	}
	if err != nil {
		return err
	}
	_, _ = fmt.Fprintf(cmd.OutOrStdout(), "%s %s with %s%s\n",
		styleSuccess.Render("Synced"), reg.Path(), reg.RemoteURL(), syncedAt(reg))
	return nil
}

// syncedAt names the commit the register now sits at, or "" when unknown.
func syncedAt(reg *register.Register) string {
	repo := reg.Repository()
	if repo == nil {
		return ""
	}
	hash, err := repo.HeadHash()
	if err != nil || hash == "" {
		return ""
	}
	return " at " + styleMuted.Render(shortHash(hash))
}

func shortHash(hash string) string {
	if len(hash) > 8 {
		return hash[:8]
	}
	return hash
}
