package cmd

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"text/tabwriter"

	"github.com/cockroachdb/errors"
	"github.com/spf13/cobra"
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show a project overview with entry counts and drift",
	RunE:  runStatus,
}

func init() {
	rootCmd.AddCommand(statusCmd)
}

func runStatus(_ *cobra.Command, _ []string) error {
	p, err := openProject()
	if err != nil {
		return err
	}

	root := p.Root
	if abs, absErr := filepath.Abs(root); absErr == nil {
		root = abs
	}

	fmt.Printf("=== Project '%s' ===\n\n", p.Manifest.Project)
	fmt.Printf("  Root:     %s\n", root)
	if p.Manifest.Description != "" {
		fmt.Printf("  About:    %s\n", p.Manifest.Description)
	}

	if meta := p.Manifest.MetadataItems(); len(meta) > 0 {
		fmt.Println("\n● Metadata:")
		for _, it := range meta {
			fmt.Printf("  %s: %s\n", it.Key, it.Value)
		}
	}

	fmt.Println("\n● Catalogs:")
	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "  name\tentries\tdrift\tlocation")

	var totalEntries, clean, drifted int
	var loadErrs []string
	for _, name := range p.Manifest.CatalogNames() {
		cat, catErr := p.Catalog(name)
		if catErr != nil {
			fmt.Fprintf(w, "  %s\t-\tload error\t-\n", name)
			loadErrs = append(loadErrs, fmt.Sprintf("[%s] %v", name, catErr))
			continue
		}
		state := "clean"
		report, recErr := cat.Reconcile()
		switch {
		case recErr != nil:
			state = "unchecked"
			loadErrs = append(loadErrs, fmt.Sprintf("[%s] reconcile: %v", name, recErr))
		case report.Clean():
			clean++
		default:
			state = fmt.Sprintf("%d missing, %d untracked", len(report.Missing), len(report.Untracked))
			drifted++
		}
		totalEntries += cat.Len()
		fmt.Fprintf(w, "  %s\t%d\t%s\t%s\n", name, cat.Len(), state, relDir(p.Root, cat.Dir))
	}
	_ = w.Flush()

	if len(loadErrs) > 0 {
		printBullet("Errors:")
		for _, msg := range loadErrs {
			printErr("", msg)
		}
	}

	total := len(p.Manifest.CatalogNames())
	fmt.Printf("\n  %d entries / %d clean / %d drifted / %d failed  (total: %d catalogs)\n",
		totalEntries, clean, drifted, len(loadErrs), total)

	if len(loadErrs) > 0 {
		return errors.Newf("%d catalog(s) could not be checked", len(loadErrs))
	}
	return nil
}

// relDir shortens dir to a root-relative path when it sits under root.
func relDir(root, dir string) string {
	rel, err := filepath.Rel(root, dir)
	if err != nil || strings.HasPrefix(rel, "..") {
		return dir
	}
	return rel
}
