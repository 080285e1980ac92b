package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

var lookupCmd = &cobra.Command{
	Use:   "lookup <catalog>",
	Short: "Print the file path for an exact parameter set",
	Long: `Look up the entry registered under exactly the given parameters and
print its absolute path. Every schema parameter must be supplied (or
carry a default).

Example:
  librarian lookup uniform_data --param n_samples=1000 --param minimum=0.0`,
	Args: cobra.ExactArgs(1),
	RunE: runLookup,
}

var flagLookupParams []string

func init() {
	lookupCmd.Flags().StringArrayVar(&flagLookupParams, "param", nil, "Parameter as name=value (repeatable)")
	rootCmd.AddCommand(lookupCmd)
}

func runLookup(_ *cobra.Command, args []string) error {
	cat, err := openCatalog(args[0])
	if err != nil {
		return err
	}
	raw, err := parseParamPairs(flagLookupParams)
	if err != nil {
		return err
	}
	entry, err := cat.Lookup(raw)
	if err != nil {
		return err
	}
	fmt.Println(cat.FilePath(entry.Filename))
	return nil
}
