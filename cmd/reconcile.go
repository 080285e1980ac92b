package cmd

import (
	"fmt"
	"os"

	"github.com/cockroachdb/errors"
	"github.com/spf13/cobra"
)

var reconcileCmd = &cobra.Command{
	Use:   "reconcile [catalog]",
	Short: "Compare catalog indexes against their directories",
	Long: `Check every catalog (or just one) for drift between the index and the
directory on disk.

  missing      indexed entries whose file is gone
  untracked    files with a recognized extension that no entry claims

Reconcile never changes anything; it exits non-zero when drift exists so
it can gate scripted pipelines.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runReconcile,
}

func init() {
	rootCmd.AddCommand(reconcileCmd)
}

func runReconcile(_ *cobra.Command, args []string) error {
	p, err := openProject()
	if err != nil {
		return err
	}

	names := p.Manifest.CatalogNames()
	if len(args) == 1 {
		names = args[:1]
	}

	printSection("Reconcile")

	var drifted int
	for _, name := range names {
		cat, err := p.Catalog(name)
		if err != nil {
			return err
		}
		report, err := cat.Reconcile()
		if err != nil {
			return err
		}

		fmt.Printf("\n[ %s ]\n", name)
		if report.Clean() {
			printOK("", fmt.Sprintf("index and directory agree (%d entries)", cat.Len()))
			continue
		}
		drifted++
		for _, f := range report.Missing {
			printMiss("", fmt.Sprintf("missing from disk: %s", f))
		}
		for _, f := range report.Untracked {
			printInfo("", fmt.Sprintf("untracked on disk: %s", f))
		}
		printWarn("", fmt.Sprintf("%d missing, %d untracked", len(report.Missing), len(report.Untracked)))
	}

	fmt.Println("\n===================")
	if drifted == 0 {
		fmt.Println("✓  All catalogs agree with their directories.")
		return nil
	}
	fmt.Fprintf(os.Stderr, "✗  Drift in %d catalog(s). Re-register untracked files or remove stale entries.\n", drifted)
	return errors.New("reconcile found drift")
}
