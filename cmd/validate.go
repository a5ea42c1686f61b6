package cmd

import (
	"errors"
	"fmt"
	"io"
	"maps"
	"slices"

	"github.com/spf13/cobra"

	"github.com/zjrosen/paneron/internal/register"
)

var validateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Check the register's directories and metadata files",
	Long: `Load every data set, item class and item and check that each one is
laid out correctly on disk. Exits non-zero when anything is wrong.`,
	Args: cobra.NoArgs,
	RunE: runValidate,
}

// errInvalidRegister is returned when validation found problems; they have
// already been printed.
var errInvalidRegister = errors.New("register is not valid")

func init() {
	rootCmd.AddCommand(validateCmd)
}

func runValidate(cmd *cobra.Command, _ []string) error {
	reg, err := openRegister(cmd.Context())
	if err != nil {
		return err
	}
	return validateRegister(reg, cmd.OutOrStdout())
}

// validateRegister checks reg and every descendant, printing one line per
// entity with problems and a summary.
func validateRegister(reg *register.Register, w io.Writer) error {
	var checked, failed int
	report := func(label string, n register.Persistable) {
		checked++
		if err := n.Validate(); err != nil {
			failed++
			_, _ = fmt.Fprintf(w, "%s %s: %v\n", styleError.Render("✗"), label, err)
		}
	}

	report("register", reg)
	if !reg.IsValid() {
		return summarize(w, checked, failed)
	}

	dataSets, err := reg.DataSets(true)
	if err != nil {
		return err
	}
	for _, dsName := range slices.Sorted(maps.Keys(dataSets)) {
		ds := dataSets[dsName]
		report(dsName, ds)

		classes, err := ds.ItemClasses(true)
		if err != nil {
			return err
		}
		for _, icName := range slices.Sorted(maps.Keys(classes)) {
			ic := classes[icName]
			report(dsName+"/"+icName, ic)

			items, err := ic.Items(true)
			if err != nil {
				return err
			}
			for _, id := range slices.Sorted(maps.Keys(items)) {
				report(dsName+"/"+icName+"/"+id, items[id])
			}
		}
	}
	return summarize(w, checked, failed)
}

func summarize(w io.Writer, checked, failed int) error {
	if failed > 0 {
		_, _ = fmt.Fprintf(w, "%s %d of %d entries have problems\n", styleError.Render("✗"), failed, checked)
		return errInvalidRegister
	}
	_, _ = fmt.Fprintf(w, "%s %d entries checked\n", styleSuccess.Render("✓"), checked)
	return nil
}
