package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

var removeCmd = &cobra.Command{
	Use:   "remove <catalog>",
	Short: "Remove the entry registered under an exact parameter set",
	Long: `Remove an entry from the catalog index. The file stays on disk unless
--delete-file is given; history keeps its record either way.

Example:
  librarian remove uniform_data --param n_samples=1000 --param minimum=0.0 --delete-file`,
	Args: cobra.ExactArgs(1),
	RunE: runRemove,
}

var (
	flagRemoveParams     []string
	flagRemoveDeleteFile bool
)

func init() {
	removeCmd.Flags().StringArrayVar(&flagRemoveParams, "param", nil, "Parameter as name=value (repeatable)")
	removeCmd.Flags().BoolVar(&flagRemoveDeleteFile, "delete-file", false, "Also delete the file from disk")
	rootCmd.AddCommand(removeCmd)
}

func runRemove(_ *cobra.Command, args []string) error {
	cat, err := openCatalog(args[0])
	if err != nil {
		return err
	}
	raw, err := parseParamPairs(flagRemoveParams)
	if err != nil {
		return err
	}
	entry, err := cat.Remove(raw, flagRemoveDeleteFile)
	if err != nil {
		return err
	}

	if flagRemoveDeleteFile {
		printOK(cat.Name, fmt.Sprintf("removed %s (file deleted)", entry.Filename))
	} else {
		printOK(cat.Name, fmt.Sprintf("removed %s (file kept on disk)", entry.Filename))
	}
	return nil
}
