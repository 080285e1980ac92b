package cmd

import (
	"fmt"
	"os"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/samcaf/librarian/internal/catalog"
	"github.com/samcaf/librarian/internal/config"
	"github.com/samcaf/librarian/internal/librarian"
	"github.com/samcaf/librarian/internal/log"
)

var rootCmd = &cobra.Command{
	Use:           "librarian",
	Short:         "Keep directories of generated files indexed by their parameters",
	SilenceUsage:  true, // don't print usage on operational errors
	SilenceErrors: true, // Execute prints the error exactly once
	Long: `Librarian manages catalogs of generated files. Every file is registered
under the parameters that produced it, so later runs can look it up by
those parameters instead of by name. State lives in one YAML sidecar per
catalog directory; a project-level librarian.yaml declares the catalogs.`,
}

var (
	flagProject     string
	flagConfigFile  string
	flagVerbose     bool
	flagJSONLogs    bool
	flagLockTimeout time.Duration

	// cfg is resolved by initRuntime before any RunE fires.
	cfg *config.Config
)

func init() {
	cobra.OnInitialize(initRuntime)

	pf := rootCmd.PersistentFlags()
	pf.StringVarP(&flagProject, "project", "p", "", "Project root directory (default: config default_project, else .)")
	pf.StringVar(&flagConfigFile, "config", "", "Config file (default: ~/.librarian/config.toml)")
	pf.BoolVarP(&flagVerbose, "verbose", "v", false, "Enable debug logging")
	pf.BoolVar(&flagJSONLogs, "json-logs", false, "Emit diagnostics as JSON lines")
	pf.DurationVar(&flagLockTimeout, "lock-timeout", 0, "How long to wait for a catalog lock (0 tries once, negative waits forever)")

	_ = viper.BindPFlag("default_project", pf.Lookup("project"))
	_ = viper.BindPFlag("log.verbose", pf.Lookup("verbose"))
	_ = viper.BindPFlag("log.json", pf.Lookup("json-logs"))
	_ = viper.BindPFlag("lock_timeout", pf.Lookup("lock-timeout"))
}

// initRuntime resolves config and logging before the first RunE. Any
// failure here is fatal: commands must never run half-configured.
func initRuntime() {
	v := viper.GetViper()
	if err := config.Init(v, flagConfigFile); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	loaded, err := config.Load(v)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	cfg = loaded
	if err := log.Initialize(cfg.Log.Verbose, cfg.Log.JSON); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// Execute is called by main.go.
func Execute() {
	err := rootCmd.Execute()
	log.Cleanup()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// projectRoot resolves the project root: the --project flag wins, then
// the configured default_project, then the current directory.
func projectRoot() string {
	if flagProject != "" {
		return flagProject
	}
	if cfg != nil && cfg.DefaultProject != "" {
		return cfg.DefaultProject
	}
	return "."
}

// catalogOptions carries the resolved lock timeout into catalog handles.
func catalogOptions() []catalog.Option {
	if cfg == nil {
		return nil
	}
	return []catalog.Option{catalog.WithLockTimeout(cfg.LockTimeout)}
}

// openProject opens the project at the resolved root.
func openProject() (*librarian.Project, error) {
	root := projectRoot()
	p, err := librarian.Open(root, catalogOptions()...)
	if err != nil {
		if errors.Is(err, librarian.ErrNoManifest) {
			return nil, errors.Newf("no %s found in %s\nRun 'librarian init' first.", librarian.ManifestName, root)
		}
		return nil, err
	}
	return p, nil
}

// openCatalog opens one catalog of the current project by name.
func openCatalog(name string) (*catalog.Catalog, error) {
	p, err := openProject()
	if err != nil {
		return nil, err
	}
	return p.Catalog(name)
}
