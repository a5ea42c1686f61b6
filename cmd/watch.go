package cmd

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/zjrosen/paneron/internal/log"
	"github.com/zjrosen/paneron/internal/register"
	"github.com/zjrosen/paneron/internal/watcher"
)

var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Report changes to register files as they happen",
	Long: `Watch the register directory and print each settled batch of changed
metadata and item files. With --commit every batch is committed.

Examples:
  paneron watch
  paneron watch --commit --debounce 2s`,
	Args: cobra.NoArgs,
	RunE: runWatch,
}

const watchCommitMessage = "Update register files, from paneron"

func init() {
	rootCmd.AddCommand(watchCmd)

	watchCmd.Flags().Duration("debounce", 0, "quiet period before a batch is reported (default: watch.debounce)")
	watchCmd.Flags().Bool("commit", false, "commit each batch (default: watch.auto_commit)")
}

func runWatch(cmd *cobra.Command, _ []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	reg, err := openRegister(ctx)
	if err != nil {
		return err
	}

	wcfg := watcher.DefaultConfig(reg.Path())
	wcfg.Extension = reg.Extension()
	if cfg.Watch.Debounce > 0 {
		wcfg.DebounceDur = cfg.Watch.Debounce
	}
	w, err := watcher.New(wcfg)
	if err != nil {
		return err
	}
	defer func() { _ = w.Stop() }()

	changes, err := w.Start()
	if err != nil {
		return fmt.Errorf("watching %s: %w", reg.Path(), err)
	}
	log.Info(log.CatWatcher, "watching register", "path", reg.Path(),
		"debounce", wcfg.DebounceDur, "commit", cfg.Watch.AutoCommit)

	out := cmd.OutOrStdout()
	_, _ = fmt.Fprintf(out, "Watching %s (Ctrl+C to stop)\n", reg.Path())
	return watchLoop(ctx, reg, changes, cfg.Watch.AutoCommit, out)
}

// watchLoop prints each batch relative to the register root and commits it
// when commit is set. It returns when ctx ends or changes closes.
func watchLoop(ctx context.Context, reg *register.Register, changes <-chan []string, commit bool, out io.Writer) error {
	for {
		select {
		case <-ctx.Done():
			return nil
		case batch, ok := <-changes:
			if !ok {
				return nil
			}
			for _, p := range batch {
				rel, err := filepath.Rel(reg.Path(), p)
				if err != nil {
					rel = p
				}
				_, _ = fmt.Fprintf(out, "%s %s\n", styleMuted.Render("changed"), rel)
			}
			if !commit {
				continue
			}
			hash, err := reg.Commit(watchCommitMessage)
			if err != nil {
				log.WarnErr(log.CatWatcher, "commit after change failed", err, "path", reg.Path())
				_, _ = fmt.Fprintf(out, "%s %v\n", styleError.Render("commit failed:"), err)
				continue
			}
			if hash != "" {
				_, _ = fmt.Fprintf(out, "%s %s\n", styleSuccess.Render("committed"), hash)
			}
			log.Debug(log.CatWatcher, "committed batch", "paths", len(batch), "hash", hash)
		}
	}
}
