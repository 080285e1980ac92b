// Package actor holds the file-facing capabilities around a catalog:
// writers that register and fill new files, readers that resolve and
// open committed ones. The catalog itself never touches file contents.
package actor

import (
	"io"
	"os"

	"github.com/cockroachdb/errors"

	"github.com/samcaf/librarian/internal/catalog"
	"github.com/samcaf/librarian/internal/log"
)

// Writer registers new entries and writes their content in one step.
type Writer struct {
	cat *catalog.Catalog
}

// NewWriter returns a writer feeding the given catalog.
func NewWriter(c *catalog.Catalog) *Writer { return &Writer{cat: c} }

// Catalog returns the catalog this writer feeds.
func (w *Writer) Catalog() *catalog.Catalog { return w.cat }

// Write registers an entry and streams src into the allocated file. The
// file is created exclusively. On a write failure the entry is rolled
// back, so no committed entry ever points at a missing or torn file.
func (w *Writer) Write(req catalog.RegisterRequest, src io.Reader) (string, error) {
	filename, err := w.cat.Register(req)
	if err != nil {
		return "", err
	}
	if err := w.fill(filename, src); err != nil {
		// fill cleaned up its own partial file; the rollback must not
		// delete a foreign file that won an allocation race.
		if _, rbErr := w.cat.Remove(req.Params, false); rbErr != nil {
			log.Errorw("cannot roll back entry after failed write",
				"filename", filename, "error", rbErr)
		}
		return "", err
	}
	return filename, nil
}

func (w *Writer) fill(filename string, src io.Reader) error {
	path := w.cat.FilePath(filename)
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if err != nil {
		return errors.Wrapf(err, "cannot create %s", path)
	}
	if _, err := io.Copy(f, src); err != nil {
		_ = f.Close()
		_ = os.Remove(path)
		return errors.Wrapf(err, "cannot write %s", path)
	}
	if err := f.Close(); err != nil {
		_ = os.Remove(path)
		return errors.Wrapf(err, "cannot close %s", path)
	}
	return nil
}

// Reader resolves committed entries and opens their files.
type Reader struct {
	cat *catalog.Catalog
}

// NewReader returns a reader over the given catalog.
func NewReader(c *catalog.Catalog) *Reader { return &Reader{cat: c} }

// Open resolves an exact parameter set and opens its file, returning the
// absolute path alongside the stream.
func (r *Reader) Open(raw map[string]string) (io.ReadCloser, string, error) {
	entry, err := r.cat.Lookup(raw)
	if err != nil {
		return nil, "", err
	}
	path := r.cat.FilePath(entry.Filename)
	f, err := os.Open(path)
	if err != nil {
		return nil, "", errors.Wrapf(err, "entry %q has no readable file", entry.Key)
	}
	return f, path, nil
}
