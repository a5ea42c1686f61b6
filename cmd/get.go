package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

var getCmd = &cobra.Command{
	Use:   "get <uuid>",
	Short: "Print an item found anywhere in the register",
	Long: `Search every data set and item class for the item with the given UUID
and print it as YAML.

Examples:
  paneron get 0b3f6a52-1c4e-4f0a-9d7b-2e8c5a1f3b6d
  paneron get 0b3f6a52-1c4e-4f0a-9d7b-2e8c5a1f3b6d --file`,
	Args: cobra.ExactArgs(1),
	RunE: runGet,
}

var getFile bool

func init() {
	rootCmd.AddCommand(getCmd)

	getCmd.Flags().BoolVar(&getFile, "file", false, "print the item's file path instead of its content")
}

func runGet(cmd *cobra.Command, args []string) error {
	reg, err := openRegister(cmd.Context())
	if err != nil {
		return err
	}
	it, err := reg.Item(args[0])
	if err != nil {
		return err
	}

	w := cmd.OutOrStdout()
	if getFile {
		_, err = fmt.Fprintln(w, it.Path())
		return err
	}
	ic := it.ItemClass()
	_, _ = fmt.Fprintf(w, "# %s/%s\n", ic.DataSet().Name(), ic.Name())
	return writeYAMLView(w, it.View())
}
