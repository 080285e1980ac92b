package catalog

import (
	"io/fs"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/cockroachdb/errors"
)

// Report is the outcome of reconciling a catalog against its directory.
// Missing lists indexed filenames with no file behind them; Untracked
// lists files with a recognized extension that no entry claims. Both are
// relative to the catalog directory.
type Report struct {
	Catalog   string
	Missing   []string
	Untracked []string
}

// Clean reports whether index and directory agree.
func (r *Report) Clean() bool {
	return len(r.Missing) == 0 && len(r.Untracked) == 0
}

// Reconcile compares the loaded index against the directory contents.
// It never mutates either side; drift is reported, not repaired.
func (c *Catalog) Reconcile() (*Report, error) {
	rep := &Report{Catalog: c.Name}

	indexed := make(map[string]bool, len(c.keys))
	for _, k := range c.keys {
		e := c.entries[k]
		indexed[e.Filename] = true
		if _, err := os.Stat(c.FilePath(e.Filename)); err != nil {
			if os.IsNotExist(err) {
				rep.Missing = append(rep.Missing, e.Filename)
				continue
			}
			return nil, errors.Wrapf(err, "cannot probe %s", e.Filename)
		}
	}

	err := filepath.WalkDir(c.Dir, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		base := d.Name()
		if d.IsDir() {
			if p != c.Dir && strings.HasPrefix(base, ".") {
				return fs.SkipDir
			}
			return nil
		}
		if strings.HasPrefix(base, ".") {
			return nil
		}
		if !slices.Contains(c.RecognizedExtensions, filepath.Ext(base)) {
			return nil
		}
		rel, err := filepath.Rel(c.Dir, p)
		if err != nil {
			return err
		}
		rel = filepath.ToSlash(rel)
		if !indexed[rel] {
			rep.Untracked = append(rep.Untracked, rel)
		}
		return nil
	})
	if err != nil {
		return nil, errors.Wrapf(err, "cannot walk catalog dir %s", c.Dir)
	}
	return rep, nil
}
