package cmd

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/zjrosen/paneron/internal/log"
	"github.com/zjrosen/paneron/internal/register"
)

var spawnCmd = &cobra.Command{
	Use:   "spawn",
	Short: "Create a data set, item class or item",
	Long: `Create a data set, item class or item and save it. Each save is
committed when the register is under version control.

Examples:
  paneron spawn dataset units
  paneron spawn itemclass units unit
  paneron spawn item units unit --data metre.yaml --status valid
  cat metre.yaml | paneron spawn item units unit 0b3f6a52-1c4e-4f0a-9d7b-2e8c5a1f3b6d --data -`,
}

var spawnDataSetCmd = &cobra.Command{
	Use:   "dataset <name>",
	Short: "Create a data set",
	Args:  cobra.ExactArgs(1),
	RunE:  runSpawnDataSet,
}

var spawnItemClassCmd = &cobra.Command{
	Use:   "itemclass <dataset> <name>",
	Short: "Create an item class in a data set",
	Args:  cobra.ExactArgs(2),
	RunE:  runSpawnItemClass,
}

var spawnItemCmd = &cobra.Command{
	Use:   "item <dataset> <itemclass> [uuid]",
	Short: "Create or update an item; without a UUID one is generated",
	Args:  cobra.RangeArgs(2, 3),
	RunE:  runSpawnItem,
}

var (
	spawnData   string
	spawnStatus string
)

func init() {
	rootCmd.AddCommand(spawnCmd)
	spawnCmd.AddCommand(spawnDataSetCmd, spawnItemClassCmd, spawnItemCmd)

	spawnItemCmd.Flags().StringVar(&spawnData, "data", "", "YAML file with the item data, or - for stdin")
	spawnItemCmd.Flags().StringVar(&spawnStatus, "status", "", "item status: valid, submitted, invalid, retired, superseded")
}

func runSpawnDataSet(cmd *cobra.Command, args []string) error {
	reg, err := openRegister(cmd.Context())
	if err != nil {
		return err
	}
	ds, err := reg.SpawnDataSet(args[0])
	if err != nil {
		return err
	}
	// The register is saved too: paneron.yaml lists the new data set.
	if _, err := reg.Save(cmd.Context()); err != nil {
		return fmt.Errorf("saving data set %s: %w", ds.Name(), err)
	}
	log.Info(log.CatCLI, "spawned data set", "name", ds.Name(), "path", ds.Path())
	_, _ = fmt.Fprintln(cmd.OutOrStdout(), ds.Path())
	return nil
}

func runSpawnItemClass(cmd *cobra.Command, args []string) error {
	reg, err := openRegister(cmd.Context())
	if err != nil {
		return err
	}
	ds, err := reg.DataSet(args[0], false)
	if err != nil {
		return err
	}
	ic, err := ds.SpawnItemClass(args[1])
	if err != nil {
		return err
	}
	if _, err := ic.Save(cmd.Context()); err != nil {
		return fmt.Errorf("saving item class %s: %w", ic.Name(), err)
	}
	log.Info(log.CatCLI, "spawned item class", "name", ic.Name(), "path", ic.Path())

	w := cmd.OutOrStdout()
	_, _ = fmt.Fprintln(w, ic.Path())
	_, _ = fmt.Fprintln(w, styleMuted.Render("item classes are listed once they hold an item"))
	return nil
}

func runSpawnItem(cmd *cobra.Command, args []string) error {
	var id string
	if len(args) == 3 {
		id = args[2]
	}
	data, err := readItemData(cmd.InOrStdin(), spawnData)
	if err != nil {
		return err
	}

	reg, err := openRegister(cmd.Context())
	if err != nil {
		return err
	}
	ds, err := reg.DataSet(args[0], false)
	if err != nil {
		return err
	}
	ic, err := ds.SpawnItemClass(args[1])
	if err != nil {
		return err
	}
	it, err := spawnItem(ic, id, data, spawnStatus)
	if err != nil {
		return err
	}

	// A new item class has no directory yet, so it is saved with the item.
	if _, statErr := os.Stat(ic.Path()); statErr != nil {
		_, err = ic.Save(cmd.Context())
	} else {
		_, err = it.Save(cmd.Context())
	}
	if err != nil {
		return fmt.Errorf("saving item %s: %w", it.UUID(), err)
	}
	log.Info(log.CatCLI, "spawned item", "uuid", it.UUID(), "path", it.Path())
	_, _ = fmt.Fprintln(cmd.OutOrStdout(), it.UUID())
	return nil
}

// spawnItem spawns id in ic and applies data and status when given.
func spawnItem(ic *register.ItemClass, id string, data any, status string) (*register.Item, error) {
	it, err := ic.SpawnItem(id)
	if err != nil {
		return nil, err
	}
	if data != nil {
		it.Data = data
	}
	if status != "" {
		s := register.ItemStatus(status)
		if !s.IsValid() {
			return nil, fmt.Errorf("%w: unknown item status %q", register.ErrInvalidIdentifier, status)
		}
		it.Status = s
	}
	return it, nil
}

// readItemData parses the --data argument: a YAML file, "-" for stdin, or
// nothing.
func readItemData(stdin io.Reader, source string) (any, error) {
	var (
		raw []byte
		err error
	)
	switch source {
	case "":
		return nil, nil
	case "-":
		raw, err = io.ReadAll(stdin)
	default:
		raw, err = os.ReadFile(source) //nolint:gosec // user-chosen data file
	}
	if err != nil {
		return nil, fmt.Errorf("reading item data: %w", err)
	}

	var data any
	if err := yaml.Unmarshal(raw, &data); err != nil {
		return nil, fmt.Errorf("parsing item data: %w", err)
	}
	return data, nil
}
