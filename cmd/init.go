package cmd

import (
	"fmt"

	"github.com/cockroachdb/errors"
	"github.com/spf13/cobra"

	"github.com/samcaf/librarian/internal/librarian"
)

var initCmd = &cobra.Command{
	Use:   "init [dir]",
	Short: "Create or refresh a project from its librarian.yaml",
	Long: `Initialize the project declared by librarian.yaml.

Reads the manifest in dir (default: the project root), creates every
declared catalog directory and sidecar, and regenerates README.md.
Catalogs that already have a sidecar are kept untouched, so re-running
init is always safe.

With --name, a starter manifest is written first when none exists:

  librarian init --name gaussian_project --description "MC samples"

Edit librarian.yaml to declare catalogs, then run init again.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runInit,
}

var (
	flagInitName        string
	flagInitDescription string
)

func init() {
	initCmd.Flags().StringVar(&flagInitName, "name", "", "Project name for a starter manifest (when librarian.yaml is missing)")
	initCmd.Flags().StringVar(&flagInitDescription, "description", "", "Project description for a starter manifest")
	rootCmd.AddCommand(initCmd)
}

func runInit(cmd *cobra.Command, args []string) error {
	root := projectRoot()
	if len(args) == 1 {
		root = args[0]
	}

	// ── 1. Load (or scaffold) the manifest ────────────────────────────────────
	m, err := librarian.LoadManifest(root)
	switch {
	case errors.Is(err, librarian.ErrNoManifest):
		if flagInitName == "" {
			return errors.Newf("no %s found in %s\nWrite one, or pass --name to scaffold a starter manifest.", librarian.ManifestName, root)
		}
		m = &librarian.Manifest{Project: flagInitName, Description: flagInitDescription}
		printInfo("", fmt.Sprintf("starter manifest: %s", librarian.ManifestName))
	case err != nil:
		return err
	default:
		if flagInitName != "" && flagInitName != m.Project {
			return errors.Newf("%s already declares project %q; --name %q conflicts", librarian.ManifestName, m.Project, flagInitName)
		}
	}

	// ── 2. Create the project ─────────────────────────────────────────────────
	_, results, err := librarian.Create(root, m, catalogOptions()...)
	if err != nil {
		return err
	}

	// ── 3. Print grouped results ──────────────────────────────────────────────
	printSection(fmt.Sprintf("Project '%s'", m.Project))

	var created, kept []librarian.CreateResult
	for _, r := range results {
		if r.Created {
			created = append(created, r)
		} else {
			kept = append(kept, r)
		}
	}
	if len(created) > 0 {
		printBullet("Created:")
		for _, r := range created {
			printOK(r.Name, r.Dir)
		}
	}
	if len(kept) > 0 {
		printBullet("Kept (already initialized):")
		for _, r := range kept {
			printSkip(r.Name, r.Dir)
		}
	}
	if len(results) == 0 {
		printInfo("", "no catalogs declared yet; edit librarian.yaml and re-run init")
	}

	fmt.Printf("\n✓  librarian init complete: %d created, %d kept. Run 'librarian status' for an overview.\n",
		len(created), len(kept))
	return nil
}
