package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/zjrosen/paneron/internal/log"
)

var renameCmd = &cobra.Command{
	Use:   "rename",
	Short: "Rename a data set or item class",
	Long: `Rename a data set or item class. The directory is moved and the move
is committed as a single change.

Examples:
  paneron rename dataset units units-of-measure
  paneron rename itemclass units unit base-unit`,
}

var renameDataSetCmd = &cobra.Command{
	Use:   "dataset <name> <new-name>",
	Short: "Rename a data set",
	Args:  cobra.ExactArgs(2),
	RunE:  runRenameDataSet,
}

var renameItemClassCmd = &cobra.Command{
	Use:   "itemclass <dataset> <name> <new-name>",
	Short: "Rename an item class",
	Args:  cobra.ExactArgs(3),
	RunE:  runRenameItemClass,
}

func init() {
	rootCmd.AddCommand(renameCmd)
	renameCmd.AddCommand(renameDataSetCmd, renameItemClassCmd)
}

func runRenameDataSet(cmd *cobra.Command, args []string) error {
	oldName, newName := args[0], args[1]

	reg, err := openRegister(cmd.Context())
	if err != nil {
		return err
	}
	ds, err := reg.DataSet(oldName, false)
	if err != nil {
		return err
	}
	if err := ds.Rename(newName); err != nil {
		return err
	}
	// paneron.yaml lists data sets by name, so the register is saved.
	if _, err := reg.Save(cmd.Context()); err != nil {
		return fmt.Errorf("saving rename: %w", err)
	}
	log.Info(log.CatCLI, "renamed data set", "from", oldName, "to", newName)
	_, _ = fmt.Fprintln(cmd.OutOrStdout(), ds.Path())
	return nil
}

func runRenameItemClass(cmd *cobra.Command, args []string) error {
	dsName, oldName, newName := args[0], args[1], args[2]

	reg, err := openRegister(cmd.Context())
	if err != nil {
		return err
	}
	ds, err := reg.DataSet(dsName, false)
	if err != nil {
		return err
	}
	ic, err := ds.ItemClass(oldName, false)
	if err != nil {
		return err
	}
	if err := ic.Rename(newName); err != nil {
		return err
	}
	if _, err := ic.Save(cmd.Context()); err != nil {
		return fmt.Errorf("saving rename: %w", err)
	}
	log.Info(log.CatCLI, "renamed item class", "dataset", dsName, "from", oldName, "to", newName)
	_, _ = fmt.Fprintln(cmd.OutOrStdout(), ic.Path())
	return nil
}
