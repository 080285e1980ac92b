package cmd

import (
	"fmt"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/samcaf/librarian/internal/query"
)

var queryCmd = &cobra.Command{
	Use:   "query <catalog> [name=spec...]",
	Short: "Find entries by parameter constraints",
	Long: `Run a conjunctive query against a catalog. Constraints are
name=spec arguments:

  n_samples=1000        exact match
  n_samples=100..5000   inclusive range (numeric parameters only)
  minimum=0.0,0.5,1.0   set membership

No constraints lists every entry. Results keep registration order
unless --sort names a parameter.

Examples:
  librarian query uniform_data
  librarian query uniform_data n_samples=100..5000 --sort minimum --paths`,
	Args: cobra.MinimumNArgs(1),
	RunE: runQuery,
}

var (
	flagQuerySort  string
	flagQueryDesc  bool
	flagQueryLimit int
	flagQueryPaths bool
)

func init() {
	queryCmd.Flags().StringVar(&flagQuerySort, "sort", "", "Sort by this parameter")
	queryCmd.Flags().BoolVar(&flagQueryDesc, "desc", false, "Sort descending")
	queryCmd.Flags().IntVar(&flagQueryLimit, "limit", 0, "Keep at most this many results (0 = all)")
	queryCmd.Flags().BoolVar(&flagQueryPaths, "paths", false, "Print absolute file paths only, one per line")
	rootCmd.AddCommand(queryCmd)
}

func runQuery(_ *cobra.Command, args []string) error {
	cat, err := openCatalog(args[0])
	if err != nil {
		return err
	}
	constraints, err := query.Parse(args[1:])
	if err != nil {
		return err
	}

	results, err := query.Run(cat, query.Query{
		Constraints: constraints,
		SortBy:      flagQuerySort,
		Desc:        flagQueryDesc,
		Limit:       flagQueryLimit,
	})
	if err != nil {
		return err
	}

	// Bare paths for pipelines.
	if flagQueryPaths {
		for _, e := range results {
			fmt.Println(cat.FilePath(e.Filename))
		}
		return nil
	}

	fmt.Printf("\nlibrarian query on '%s'\n\n", cat.Name)
	fmt.Printf("Results (%d found):\n", len(results))
	if len(results) == 0 {
		return nil
	}
	fmt.Println()

	names := cat.Schema.Names()
	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	header := append([]string{"#", "label"}, names...)
	header = append(header, "file")
	fmt.Fprintf(w, "  %s\n", strings.Join(header, "\t"))
	for i, e := range results {
		row := make([]string, 0, len(names)+3)
		row = append(row, fmt.Sprintf("%d.", i+1), e.Label)
		for _, n := range names {
			row = append(row, e.Params[n].String())
		}
		row = append(row, e.Filename)
		fmt.Fprintf(w, "  %s\n", strings.Join(row, "\t"))
	}
	return w.Flush()
}
