// Package catalog implements the indexed directory of generated files: an
// ordered index from canonical parameter keys to allocated filenames,
// persisted in a YAML sidecar beside the files it tracks. Mutations take
// an advisory file lock, re-read the sidecar, apply, and atomically
// rewrite it; reads never lock.
package catalog

import (
	"os"
	"path/filepath"
	"time"

	"github.com/cockroachdb/errors"

	"github.com/samcaf/librarian/internal/params"
)

const (
	// SidecarName is the sidecar filename inside every catalog directory.
	SidecarName = ".catalog.yaml"
	// LockName is the advisory lock file beside the sidecar. The sidecar
	// itself is replaced by rename, so it cannot carry the lock.
	LockName = ".catalog.lock"

	timeLayout = "2006-01-02 15:04:05"

	defaultLockTimeout = 5 * time.Second
)

// timeNow is a test seam.
var timeNow = time.Now

// Entry is one committed registration. Entries never change once
// committed; removal is the only mutation.
type Entry struct {
	Key      string
	Filename string
	Label    string
	Added    time.Time
	Params   map[string]params.Value
}

// HistoryRecord is one line of the append-only registration history. It
// keeps the raw parameters as given, before coercion.
type HistoryRecord struct {
	Label  string
	Params map[string]string
}

// RegisterRequest describes one registration. Ext may be empty when the
// catalog recognizes exactly one extension. Subdir, when set, is a
// relative directory inside the catalog to allocate into.
type RegisterRequest struct {
	Label  string
	Params map[string]string
	Ext    string
	Subdir string
}

// Catalog is a loaded catalog handle. Queries read the in-memory
// snapshot; mutating operations re-read the sidecar under the lock first,
// so a handle may serve stale reads but never writes over unseen state.
type Catalog struct {
	Name                 string
	Description          string
	Dir                  string
	RecognizedNames      []string
	RecognizedExtensions []string
	Schema               *params.Schema
	Created              time.Time
	Modified             time.Time

	keys    []string
	entries map[string]*Entry
	history []HistoryRecord

	lockTimeout time.Duration
}

// Option configures a catalog handle.
type Option func(*Catalog)

// WithLockTimeout sets how long mutating operations wait for the catalog
// lock. Zero means a single attempt; negative blocks until acquired.
func WithLockTimeout(d time.Duration) Option {
	return func(c *Catalog) { c.lockTimeout = d }
}

// New builds a fresh, unsaved catalog. Init persists it.
func New(name, description, dir string, names, exts []string, schema *params.Schema, opts ...Option) (*Catalog, error) {
	if name == "" {
		return nil, errors.New("catalog name must not be empty")
	}
	if dir == "" {
		return nil, errors.Newf("catalog %q needs a directory", name)
	}
	if schema == nil {
		return nil, errors.Newf("catalog %q needs a schema", name)
	}
	normalized := make([]string, 0, len(exts))
	for _, e := range exts {
		ne, err := normalizeExt(e)
		if err != nil {
			return nil, errors.Wrapf(err, "catalog %q", name)
		}
		normalized = append(normalized, ne)
	}
	now := timeNow()
	c := &Catalog{
		Name:                 name,
		Description:          description,
		Dir:                  dir,
		RecognizedNames:      append([]string(nil), names...),
		RecognizedExtensions: normalized,
		Schema:               schema,
		Created:              now,
		Modified:             now,
		entries:              make(map[string]*Entry),
		lockTimeout:          defaultLockTimeout,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// Init creates the catalog directory and writes the first sidecar. It
// refuses to overwrite an existing sidecar.
func (c *Catalog) Init() error {
	if err := os.MkdirAll(c.Dir, 0o755); err != nil {
		return errors.Wrapf(err, "cannot create catalog dir %s", c.Dir)
	}
	unlock, err := c.acquireLock()
	if err != nil {
		return err
	}
	defer unlock()

	if Exists(c.Dir) {
		return errors.Newf("catalog already initialized in %s", c.Dir)
	}
	return c.save()
}

// Exists reports whether dir holds a catalog sidecar.
func Exists(dir string) bool {
	_, err := os.Stat(filepath.Join(dir, SidecarName))
	return err == nil
}

// SidecarPath returns the absolute sidecar path.
func (c *Catalog) SidecarPath() string { return filepath.Join(c.Dir, SidecarName) }

// LockPath returns the absolute lock file path.
func (c *Catalog) LockPath() string { return filepath.Join(c.Dir, LockName) }

// Len returns the number of committed entries.
func (c *Catalog) Len() int { return len(c.keys) }

// Entries returns the committed entries in insertion order.
func (c *Catalog) Entries() []*Entry {
	out := make([]*Entry, len(c.keys))
	for i, k := range c.keys {
		out[i] = c.entries[k]
	}
	return out
}

// FilePath resolves an entry filename to an absolute path.
func (c *Catalog) FilePath(filename string) string {
	return filepath.Join(c.Dir, filepath.FromSlash(filename))
}

// Lookup resolves an exact parameter set to its entry. It reads the
// current snapshot and takes no lock.
func (c *Catalog) Lookup(raw map[string]string) (*Entry, error) {
	key, err := c.Schema.KeyFromRaw(raw)
	if err != nil {
		return nil, err
	}
	e, ok := c.entries[key]
	if !ok {
		return nil, errors.Wrapf(ErrEntryNotFound, "key %q in catalog %q", key, c.Name)
	}
	return e, nil
}

// Register runs one full read-modify-write cycle: lock, re-read the
// sidecar, validate, allocate a filename, commit the entry, atomically
// save. It returns the allocated filename, relative to the catalog
// directory; writing content there is the caller's job.
func (c *Catalog) Register(req RegisterRequest) (string, error) {
	unlock, err := c.acquireLock()
	if err != nil {
		return "", err
	}
	defer unlock()

	if err := c.Reload(); err != nil {
		return "", err
	}

	values, err := c.Schema.Coerce(req.Params)
	if err != nil {
		return "", err
	}
	key, err := c.Schema.Key(values)
	if err != nil {
		return "", err
	}
	if existing, ok := c.entries[key]; ok {
		return "", errors.Wrapf(ErrDuplicateEntry, "key %q already maps to %s", key, existing.Filename)
	}

	filename, err := c.allocate(req.Label, req.Ext, req.Subdir)
	if err != nil {
		return "", err
	}

	entry := &Entry{
		Key:      key,
		Filename: filename,
		Label:    req.Label,
		Added:    timeNow(),
		Params:   values,
	}
	rawCopy := make(map[string]string, len(req.Params))
	for k, v := range req.Params {
		rawCopy[k] = v
	}

	prevModified := c.Modified
	c.keys = append(c.keys, key)
	c.entries[key] = entry
	c.history = append(c.history, HistoryRecord{Label: req.Label, Params: rawCopy})
	c.Modified = entry.Added

	if err := c.save(); err != nil {
		c.keys = c.keys[:len(c.keys)-1]
		delete(c.entries, key)
		c.history = c.history[:len(c.history)-1]
		c.Modified = prevModified
		return "", err
	}
	return filename, nil
}

// Remove deletes the entry for an exact parameter set. The history keeps
// its registration record. With deleteFile the disk file is removed after
// the sidecar commit succeeds.
func (c *Catalog) Remove(raw map[string]string, deleteFile bool) (*Entry, error) {
	unlock, err := c.acquireLock()
	if err != nil {
		return nil, err
	}
	defer unlock()

	if err := c.Reload(); err != nil {
		return nil, err
	}

	key, err := c.Schema.KeyFromRaw(raw)
	if err != nil {
		return nil, err
	}
	entry, ok := c.entries[key]
	if !ok {
		return nil, errors.Wrapf(ErrEntryNotFound, "key %q in catalog %q", key, c.Name)
	}

	pos := -1
	for i, k := range c.keys {
		if k == key {
			pos = i
			break
		}
	}

	prevModified := c.Modified
	c.keys = append(c.keys[:pos], c.keys[pos+1:]...)
	delete(c.entries, key)
	c.Modified = timeNow()

	if err := c.save(); err != nil {
		c.keys = append(c.keys[:pos], append([]string{key}, c.keys[pos:]...)...)
		c.entries[key] = entry
		c.Modified = prevModified
		return nil, err
	}

	if deleteFile {
		if err := os.Remove(c.FilePath(entry.Filename)); err != nil && !os.IsNotExist(err) {
			return entry, errors.Wrapf(err, "entry removed but cannot delete %s", entry.Filename)
		}
	}
	return entry, nil
}

// AddParameter grows the schema by one field. The field must carry a
// default; every existing entry is re-keyed with the default filling the
// new parameter. Filenames and history are untouched.
func (c *Catalog) AddParameter(field params.Field) error {
	unlock, err := c.acquireLock()
	if err != nil {
		return err
	}
	defer unlock()

	if err := c.Reload(); err != nil {
		return err
	}

	grown := c.Schema.Clone()
	if err := grown.Add(field); err != nil {
		return err
	}
	def, err := field.Type.Coerce(*field.Default)
	if err != nil {
		return errors.Wrapf(err, "default for parameter %q", field.Name)
	}

	newKeys := make([]string, len(c.keys))
	newEntries := make(map[string]*Entry, len(c.entries))
	for i, old := range c.keys {
		e := c.entries[old]
		values := make(map[string]params.Value, len(e.Params)+1)
		for k, v := range e.Params {
			values[k] = v
		}
		values[field.Name] = def
		key, err := grown.Key(values)
		if err != nil {
			return errors.Wrapf(err, "cannot re-key entry %s", e.Filename)
		}
		if _, dup := newEntries[key]; dup {
			return errors.Newf("re-keying entry %s collides on %q", e.Filename, key)
		}
		newEntries[key] = &Entry{
			Key:      key,
			Filename: e.Filename,
			Label:    e.Label,
			Added:    e.Added,
			Params:   values,
		}
		newKeys[i] = key
	}

	prevSchema, prevKeys, prevEntries, prevModified := c.Schema, c.keys, c.entries, c.Modified
	c.Schema = grown
	c.keys = newKeys
	c.entries = newEntries
	c.Modified = timeNow()

	if err := c.save(); err != nil {
		c.Schema, c.keys, c.entries, c.Modified = prevSchema, prevKeys, prevEntries, prevModified
		return err
	}
	return nil
}

// Reload replaces the in-memory snapshot with the sidecar's current
// contents.
func (c *Catalog) Reload() error {
	loaded, err := Load(c.Dir, WithLockTimeout(c.lockTimeout))
	if err != nil {
		return err
	}
	c.Name = loaded.Name
	c.Description = loaded.Description
	c.RecognizedNames = loaded.RecognizedNames
	c.RecognizedExtensions = loaded.RecognizedExtensions
	c.Schema = loaded.Schema
	c.Created = loaded.Created
	c.Modified = loaded.Modified
	c.keys = loaded.keys
	c.entries = loaded.entries
	c.history = loaded.history
	return nil
}
