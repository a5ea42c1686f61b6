package cmd

import (
	"context"
	"fmt"
	"io"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/zjrosen/paneron/internal/log"
	"github.com/zjrosen/paneron/internal/register"
)

var initCmd = &cobra.Command{
	Use:   "init [path]",
	Short: "Create a register, or save an existing one",
	Long: `Create a register at the given path (default: --path or the current
directory) by writing paneron.yaml. With a remote configured the register
is cloned, or a repository is initialized and pointed at the remote.

Running init on an existing register rewrites nothing that is unchanged.

Examples:
  paneron init ./units --title "Units of measure"
  paneron init --remote https://github.com/example/units.git`,
	Args: cobra.MaximumNArgs(1),
	RunE: runInit,
}

var initTitle string

func init() {
	rootCmd.AddCommand(initCmd)

	initCmd.Flags().StringVar(&initTitle, "title", "", "register title (default: directory name)")
}

func runInit(cmd *cobra.Command, args []string) error {
	path := registerPath()
	if len(args) == 1 {
		// An explicit path is never widened to an enclosing register.
		abs, err := filepath.Abs(args[0])
		if err != nil {
			return fmt.Errorf("resolving %s: %w", args[0], err)
		}
		path = abs
	}
	reg, err := openRegisterAt(cmd.Context(), path)
	if err != nil {
		return err
	}
	return initRegister(cmd.Context(), reg, initTitle, cmd.OutOrStdout())
}

func initRegister(ctx context.Context, reg *register.Register, title string, w io.Writer) error {
	if title != "" {
		reg.Metadata.Title = title
	}
	if _, err := reg.Save(ctx); err != nil {
		return fmt.Errorf("saving register: %w", err)
	}
	log.Info(log.CatCLI, "initialized register", "path", reg.Path(), "remote", reg.RemoteURL())

	_, _ = fmt.Fprintf(w, "%s register %s at %s\n",
		styleSuccess.Render("Initialized"), styleTitle.Render(reg.Metadata.Title), reg.Path())
	return nil
}
