package cmd

import (
	"fmt"
	"io"

	"github.com/charmbracelet/lipgloss/tree"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/zjrosen/paneron/internal/register"
)

var lsCmd = &cobra.Command{
	Use:   "ls [dataset]",
	Short: "List data sets, item classes and items",
	Long: `Print the register as a tree of data sets and item classes.
Pass a data set name to limit the listing to it.

Examples:
  paneron ls
  paneron ls units --items
  paneron ls --yaml > register.yaml`,
	Args: cobra.MaximumNArgs(1),
	RunE: runLs,
}

var (
	lsItems bool
	lsYAML  bool
)

func init() {
	rootCmd.AddCommand(lsCmd)

	lsCmd.Flags().BoolVar(&lsItems, "items", false, "list item UUIDs and statuses")
	lsCmd.Flags().BoolVar(&lsYAML, "yaml", false, "print the whole tree as YAML")
}

func runLs(cmd *cobra.Command, args []string) error {
	reg, err := openRegister(cmd.Context())
	if err != nil {
		return err
	}
	view, err := reg.Snapshot()
	if err != nil {
		return fmt.Errorf("loading register: %w", err)
	}
	if len(args) == 1 {
		if view, err = filterDataSet(view, args[0]); err != nil {
			return err
		}
	}

	w := cmd.OutOrStdout()
	if lsYAML {
		return writeYAMLView(w, view)
	}
	_, err = fmt.Fprintln(w, renderTree(view, lsItems))
	return err
}

// filterDataSet narrows view to the named data set.
func filterDataSet(view *register.RegisterView, name string) (*register.RegisterView, error) {
	for _, ds := range view.DataSets {
		if ds.Name == name {
			filtered := *view
			filtered.DataSets = []register.DataSetView{ds}
			return &filtered, nil
		}
	}
	return nil, fmt.Errorf("data set %q: %w", name, register.ErrNotFound)
}

// renderTree draws the register as a lipgloss tree. Item classes show their
// item count, or each item when showItems is set.
func renderTree(view *register.RegisterView, showItems bool) string {
	title := view.Metadata.Title
	if title == "" {
		title = "(untitled)"
	}
	root := tree.Root(styleTitle.Render(title) + " " + styleMuted.Render(view.Path)).
		EnumeratorStyle(styleMuted)

	for _, ds := range view.DataSets {
		dsNode := tree.Root(ds.Name).EnumeratorStyle(styleMuted)
		if len(ds.ItemClasses) == 0 {
			dsNode.Child(styleMuted.Render("(no item classes)"))
		}
		for _, ic := range ds.ItemClasses {
			label := ic.Name + " " + styleMuted.Render(itemCount(len(ic.Items)))
			if !showItems {
				dsNode.Child(label)
				continue
			}
			icNode := tree.Root(label).EnumeratorStyle(styleMuted)
			for _, it := range ic.Items {
				icNode.Child(it.ID + " " + statusStyle(it.Status).Render(string(it.Status)))
			}
			dsNode.Child(icNode)
		}
		root.Child(dsNode)
	}
	return root.String()
}

func itemCount(n int) string {
	if n == 1 {
		return "(1 item)"
	}
	return fmt.Sprintf("(%d items)", n)
}

func writeYAMLView(w io.Writer, v any) error {
	encoder := yaml.NewEncoder(w)
	encoder.SetIndent(2)
	if err := encoder.Encode(v); err != nil {
		return fmt.Errorf("encoding yaml: %w", err)
	}
	return encoder.Close()
}
