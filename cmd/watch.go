package cmd

import (
	"fmt"
	"io/fs"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/fsnotify/fsnotify"
	"github.com/spf13/cobra"

	"github.com/samcaf/librarian/internal/catalog"
	"github.com/samcaf/librarian/internal/log"
)

// watchDebounce batches bursts of file events into one reconcile pass.
const watchDebounce = 500 * time.Millisecond

var watchCmd = &cobra.Command{
	Use:   "watch [catalog]",
	Short: "Watch catalog directories and report drift as it happens",
	Long: `Watch every catalog directory (or just one) for file changes. After
each burst of changes settles, the index is reconciled against the
directory and only the transitions are printed: files that went
missing or came back, files that appeared untracked or got resolved.

The engine's own files (sidecar, lock, save temps) are ignored.
Ctrl-C stops the watch.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runWatch,
}

func init() {
	rootCmd.AddCommand(watchCmd)
}

func runWatch(cmd *cobra.Command, args []string) error {
	p, err := openProject()
	if err != nil {
		return err
	}

	names := p.Manifest.CatalogNames()
	if len(args) == 1 {
		names = args[:1]
	}
	if len(names) == 0 {
		return errors.New("no catalogs declared; nothing to watch")
	}

	cats := make([]*catalog.Catalog, 0, len(names))
	for _, name := range names {
		cat, err := p.Catalog(name)
		if err != nil {
			return err
		}
		cats = append(cats, cat)
	}

	w, err := fsnotify.NewWatcher()
	if err != nil {
		return errors.Wrap(err, "cannot create fsnotify watcher")
	}
	defer w.Close()

	for _, cat := range cats {
		if err := watchCatalogTree(w, cat.Dir); err != nil {
			return err
		}
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	printSection("Watch")
	printInfo("", fmt.Sprintf("watching %d catalog(s); Ctrl-C to stop", len(cats)))

	// Baseline report per catalog; later passes print only transitions.
	prev := make(map[string]*catalog.Report, len(cats))
	for _, cat := range cats {
		report, err := cat.Reconcile()
		if err != nil {
			return err
		}
		prev[cat.Name] = report
		if report.Clean() {
			printOK(cat.Name, fmt.Sprintf("clean (%d entries)", cat.Len()))
		} else {
			printWarn(cat.Name, fmt.Sprintf("%d missing, %d untracked at start", len(report.Missing), len(report.Untracked)))
		}
	}

	debounce := time.NewTimer(watchDebounce)
	debounce.Stop()

	for {
		select {
		case <-ctx.Done():
			fmt.Println("\n✓  watch stopped")
			return nil

		case event, ok := <-w.Events:
			if !ok {
				return nil
			}
			if ignoreWatchEvent(event.Name) {
				continue
			}
			// New subdirectories join the watch so nested allocations are seen.
			if event.Op&fsnotify.Create != 0 {
				if info, statErr := os.Stat(event.Name); statErr == nil && info.IsDir() {
					_ = w.Add(event.Name)
				}
			}
			log.Debugw("fs event", "op", event.Op.String(), "path", event.Name)
			debounce.Reset(watchDebounce)

		case err, ok := <-w.Errors:
			if !ok {
				return nil
			}
			log.Warnw("watch error", "error", err)

		case <-debounce.C:
			runWatchPass(cats, prev)
		}
	}
}

// watchCatalogTree adds a catalog directory and its subdirectories to
// the watcher. fsnotify does not recurse on its own.
func watchCatalogTree(w *fsnotify.Watcher, dir string) error {
	return filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() {
			return nil
		}
		if path != dir && strings.HasPrefix(d.Name(), ".") {
			return fs.SkipDir
		}
		if err := w.Add(path); err != nil {
			return errors.Wrapf(err, "cannot watch %s", path)
		}
		return nil
	})
}

// ignoreWatchEvent filters the engine's own files: the sidecar, the
// lock file, and save temps are all dot-prefixed.
func ignoreWatchEvent(path string) bool {
	return strings.HasPrefix(filepath.Base(path), ".")
}

// runWatchPass reloads each catalog, reconciles, and prints what
// changed since the previous pass.
func runWatchPass(cats []*catalog.Catalog, prev map[string]*catalog.Report) {
	stamp := time.Now().Format("15:04:05")
	headed := false
	head := func() {
		if !headed {
			fmt.Printf("\n[ %s ]\n", stamp)
			headed = true
		}
	}

	for _, cat := range cats {
		if err := cat.Reload(); err != nil {
			head()
			printErr(cat.Name, fmt.Sprintf("reload: %v", err))
			continue
		}
		report, err := cat.Reconcile()
		if err != nil {
			head()
			printErr(cat.Name, fmt.Sprintf("reconcile: %v", err))
			continue
		}
		printTransitions(cat.Name, prev[cat.Name], report, head)
		prev[cat.Name] = report
	}
}

// printTransitions prints only the differences between two reports.
func printTransitions(name string, old, cur *catalog.Report, head func()) {
	oldMissing := toSet(old.Missing)
	oldUntracked := toSet(old.Untracked)
	curMissing := toSet(cur.Missing)
	curUntracked := toSet(cur.Untracked)

	for _, f := range cur.Missing {
		if !oldMissing[f] {
			head()
			printMiss(name, fmt.Sprintf("went missing: %s", f))
		}
	}
	for _, f := range old.Missing {
		if !curMissing[f] {
			head()
			printOK(name, fmt.Sprintf("back on disk: %s", f))
		}
	}
	for _, f := range cur.Untracked {
		if !oldUntracked[f] {
			head()
			printInfo(name, fmt.Sprintf("untracked: %s", f))
		}
	}
	for _, f := range old.Untracked {
		if !curUntracked[f] {
			head()
			printOK(name, fmt.Sprintf("untracked resolved: %s", f))
		}
	}
}

func toSet(items []string) map[string]bool {
	set := make(map[string]bool, len(items))
	for _, s := range items {
		set[s] = true
	}
	return set
}
