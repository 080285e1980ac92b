package catalog

import (
	"os"
	"path"
	"path/filepath"
	"slices"
	"strings"

	"github.com/cockroachdb/errors"
	"github.com/google/uuid"
)

const maxAllocAttempts = 16

// newToken is a test seam. Tokens are 128-bit hex strings.
var newToken = func() string {
	return strings.ReplaceAll(uuid.NewString(), "-", "")
}

// allocate picks an unused filename of the form <label>_<token><ext>,
// existence-checked against the directory. It creates the subdirectory
// when asked for one, but never the file itself; the name only becomes
// durable when its entry commits.
func (c *Catalog) allocate(label, ext, subdir string) (string, error) {
	if !slices.Contains(c.RecognizedNames, label) {
		return "", errors.Wrapf(ErrUnrecognizedLabel, "%q (recognized: %s)",
			label, strings.Join(c.RecognizedNames, ", "))
	}

	if ext == "" {
		if len(c.RecognizedExtensions) != 1 {
			return "", errors.Wrapf(ErrUnrecognizedExtension, "no extension given (recognized: %s)",
				strings.Join(c.RecognizedExtensions, ", "))
		}
		ext = c.RecognizedExtensions[0]
	} else {
		normalized, err := normalizeExt(ext)
		if err != nil {
			return "", err
		}
		ext = normalized
		if !slices.Contains(c.RecognizedExtensions, ext) {
			return "", errors.Wrapf(ErrUnrecognizedExtension, "%q (recognized: %s)",
				ext, strings.Join(c.RecognizedExtensions, ", "))
		}
	}

	if subdir != "" {
		cleaned, err := cleanSubdir(subdir)
		if err != nil {
			return "", err
		}
		subdir = cleaned
		if err := os.MkdirAll(filepath.Join(c.Dir, filepath.FromSlash(subdir)), 0o755); err != nil {
			return "", errors.Wrapf(err, "cannot create subdirectory %s", subdir)
		}
	}

	stem := strings.ReplaceAll(label, " ", "-")
	for i := 0; i < maxAllocAttempts; i++ {
		name := stem + "_" + newToken() + ext
		rel := name
		if subdir != "" {
			rel = path.Join(subdir, name)
		}
		_, err := os.Stat(filepath.Join(c.Dir, filepath.FromSlash(rel)))
		if os.IsNotExist(err) {
			return rel, nil
		}
		if err != nil {
			return "", errors.Wrapf(err, "cannot probe candidate %s", rel)
		}
	}
	return "", errors.Wrapf(ErrAllocationExhausted, "%d collisions for label %q", maxAllocAttempts, label)
}

// normalizeExt reduces an extension to a single leading dot: "npy",
// ".npy", and "..npy" all become ".npy".
func normalizeExt(ext string) (string, error) {
	trimmed := strings.TrimLeft(ext, ".")
	if trimmed == "" {
		return "", errors.Wrapf(ErrUnrecognizedExtension, "%q is empty", ext)
	}
	return "." + trimmed, nil
}

// cleanSubdir validates a caller-supplied relative directory. It must
// stay inside the catalog.
func cleanSubdir(subdir string) (string, error) {
	cleaned := path.Clean(filepath.ToSlash(subdir))
	if cleaned == "." {
		return "", nil
	}
	if path.IsAbs(cleaned) || cleaned == ".." || strings.HasPrefix(cleaned, "../") {
		return "", errors.Newf("subdirectory %q escapes the catalog", subdir)
	}
	return cleaned, nil
}
