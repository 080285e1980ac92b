package cmd

import (
	"fmt"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/samcaf/librarian/internal/catalog"
)

var inspectCmd = &cobra.Command{
	Use:   "inspect [catalog]",
	Short: "Show a catalog's schema, vocabulary, and recent entries",
	Long: `Display a formatted summary of one catalog, or of every catalog in the
project when no name is given.

Example:
  librarian inspect uniform_data`,
	Args: cobra.MaximumNArgs(1),
	RunE: runInspect,
}

func init() {
	rootCmd.AddCommand(inspectCmd)
}

// timeDisplay matches the sidecar's timestamp format so inspect output
// lines up with what a user sees in the YAML.
const timeDisplay = "2006-01-02 15:04:05"

// inspectRecentEntries caps the entry listing; query shows the rest.
const inspectRecentEntries = 5

func runInspect(_ *cobra.Command, args []string) error {
	p, err := openProject()
	if err != nil {
		return err
	}

	names := p.Manifest.CatalogNames()
	if len(args) == 1 {
		names = args[:1]
	}

	for i, name := range names {
		if i > 0 {
			fmt.Println(strings.Repeat("─", 50))
		}
		cat, err := p.Catalog(name)
		if err != nil {
			return err
		}
		printCatalogInspect(cat)
	}
	return nil
}

// printCatalogInspect displays the formatted inspection output for one
// catalog.
func printCatalogInspect(cat *catalog.Catalog) {
	fmt.Printf("📦 Catalog: %s\n", cat.Name)
	if cat.Description != "" {
		fmt.Printf("Summary:   %s\n", cat.Description)
	}
	fmt.Printf("Location:  %s\n", cat.Dir)
	fmt.Printf("Created:   %s\n", cat.Created.Format(timeDisplay))
	fmt.Printf("Modified:  %s\n", cat.Modified.Format(timeDisplay))

	fmt.Println("\nRecognized names:")
	for _, n := range cat.RecognizedNames {
		fmt.Printf("  - %s\n", n)
	}
	fmt.Printf("\nRecognized extensions: %s\n", strings.Join(cat.RecognizedExtensions, ", "))

	fmt.Println("\nParameters:")
	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	for _, f := range cat.Schema.Fields() {
		def := ""
		if f.Default != nil {
			def = fmt.Sprintf("(default %s)", *f.Default)
		}
		fmt.Fprintf(w, "  - %s\t%s\t%s\n", f.Name, f.Type, def)
	}
	_ = w.Flush()

	entries := cat.Entries()
	fmt.Printf("\nEntries: %d\n", len(entries))
	recent := entries
	if len(recent) > inspectRecentEntries {
		recent = recent[len(recent)-inspectRecentEntries:]
		fmt.Printf("(showing the %d most recent; 'librarian query %s' lists all)\n", inspectRecentEntries, cat.Name)
	}
	if len(recent) > 0 {
		w = tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
		for _, e := range recent {
			fmt.Fprintf(w, "  %s\t%s\t%s\n", e.Added.Format(timeDisplay), e.Label, e.Filename)
		}
		_ = w.Flush()
	}
}
