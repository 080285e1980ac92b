package catalog

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/cockroachdb/errors"
	"gopkg.in/yaml.v3"

	"github.com/samcaf/librarian/internal/params"
)

// sidecarDoc mirrors the serialized sidecar. The parameter declaration
// and the index go through yaml.Node so declaration order and insertion
// order survive the round trip; plain Go maps would not keep either.
type sidecarDoc struct {
	Name        string       `yaml:"name"`
	Description string       `yaml:"description"`
	Directory   string       `yaml:"directory"`
	Created     string       `yaml:"creation time"`
	Modified    string       `yaml:"last modified"`
	Names       []string     `yaml:"recognized names"`
	Extensions  []string     `yaml:"recognized extensions"`
	Types       yaml.Node    `yaml:"parameter types"`
	Defaults    yaml.Node    `yaml:"parameter defaults,omitempty"`
	Files       []string     `yaml:"files"`
	History     []historyDoc `yaml:"history"`
	Index       yaml.Node    `yaml:"index"`
}

type historyDoc struct {
	Label      string            `yaml:"label"`
	Parameters map[string]string `yaml:"parameters"`
}

type entryDoc struct {
	Filename   string            `yaml:"filename"`
	Label      string            `yaml:"label,omitempty"`
	Added      string            `yaml:"date added"`
	Parameters map[string]string `yaml:"parameters"`
}

// Load reads and validates the sidecar in dir. It takes no lock; a
// concurrent writer can only ever leave a complete old or new sidecar
// behind the rename.
func Load(dir string, opts ...Option) (*Catalog, error) {
	sidecar := filepath.Join(dir, SidecarName)
	data, err := os.ReadFile(sidecar)
	if os.IsNotExist(err) {
		return nil, errors.Wrapf(ErrCatalogNotFound, "%s", dir)
	}
	if err != nil {
		return nil, errors.Wrapf(err, "cannot read catalog sidecar %s", sidecar)
	}

	c, err := decodeSidecar(data)
	if err != nil {
		return nil, errors.Wrapf(err, "sidecar %s", sidecar)
	}
	// The live location wins over the recorded one, so a moved catalog
	// directory keeps working.
	c.Dir = dir
	c.lockTimeout = defaultLockTimeout
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

func decodeSidecar(data []byte) (*Catalog, error) {
	var doc sidecarDoc
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, errors.Wrap(ErrCorruptCatalog, err.Error())
	}
	if doc.Name == "" {
		return nil, errors.Wrap(ErrCorruptCatalog, "missing name")
	}
	if doc.Types.Kind != yaml.MappingNode {
		return nil, errors.Wrap(ErrCorruptCatalog, "missing parameter types")
	}
	if doc.Index.Kind != yaml.MappingNode {
		return nil, errors.Wrap(ErrCorruptCatalog, "missing index")
	}

	defaults := map[string]string{}
	if doc.Defaults.Kind == yaml.MappingNode {
		for i := 0; i+1 < len(doc.Defaults.Content); i += 2 {
			defaults[doc.Defaults.Content[i].Value] = doc.Defaults.Content[i+1].Value
		}
	}

	var fields []params.Field
	for i := 0; i+1 < len(doc.Types.Content); i += 2 {
		name := doc.Types.Content[i].Value
		t, err := params.ParseType(doc.Types.Content[i+1].Value)
		if err != nil {
			return nil, errors.Wrapf(ErrCorruptCatalog, "parameter %q: %v", name, err)
		}
		f := params.Field{Name: name, Type: t}
		if def, ok := defaults[name]; ok {
			f.Default = &def
		}
		fields = append(fields, f)
	}
	schema, err := params.NewSchema(fields...)
	if err != nil {
		return nil, errors.Wrapf(ErrCorruptCatalog, "invalid parameter types: %v", err)
	}

	created, err := time.ParseInLocation(timeLayout, doc.Created, time.Local)
	if err != nil {
		return nil, errors.Wrapf(ErrCorruptCatalog, "invalid creation time %q", doc.Created)
	}
	modified, err := time.ParseInLocation(timeLayout, doc.Modified, time.Local)
	if err != nil {
		return nil, errors.Wrapf(ErrCorruptCatalog, "invalid last modified %q", doc.Modified)
	}

	c := &Catalog{
		Name:                 doc.Name,
		Description:          doc.Description,
		Dir:                  doc.Directory,
		RecognizedNames:      doc.Names,
		RecognizedExtensions: doc.Extensions,
		Schema:               schema,
		Created:              created,
		Modified:             modified,
		entries:              make(map[string]*Entry),
	}

	for i := 0; i+1 < len(doc.Index.Content); i += 2 {
		key := doc.Index.Content[i].Value
		var ed entryDoc
		if err := doc.Index.Content[i+1].Decode(&ed); err != nil {
			return nil, errors.Wrapf(ErrCorruptCatalog, "entry %q: %v", key, err)
		}
		if ed.Filename == "" {
			return nil, errors.Wrapf(ErrCorruptCatalog, "entry %q has no filename", key)
		}
		values, err := schema.Coerce(ed.Parameters)
		if err != nil {
			return nil, errors.Wrapf(ErrCorruptCatalog, "entry %q does not match parameter types: %v", key, err)
		}
		rekey, err := schema.Key(values)
		if err != nil {
			return nil, errors.Wrapf(ErrCorruptCatalog, "entry %q: %v", key, err)
		}
		if rekey != key {
			return nil, errors.Wrapf(ErrCorruptCatalog, "stored key %q does not match its parameters (want %q)", key, rekey)
		}
		added, err := time.ParseInLocation(timeLayout, ed.Added, time.Local)
		if err != nil {
			return nil, errors.Wrapf(ErrCorruptCatalog, "entry %q has invalid date added %q", key, ed.Added)
		}
		if _, dup := c.entries[key]; dup {
			return nil, errors.Wrapf(ErrCorruptCatalog, "duplicate key %q", key)
		}
		c.entries[key] = &Entry{
			Key:      key,
			Filename: ed.Filename,
			Label:    ed.Label,
			Added:    added,
			Params:   values,
		}
		c.keys = append(c.keys, key)
	}

	if len(doc.Files) != len(c.keys) {
		return nil, errors.Wrapf(ErrCorruptCatalog, "files list has %d names for %d index entries", len(doc.Files), len(c.keys))
	}
	for i, k := range c.keys {
		if doc.Files[i] != c.entries[k].Filename {
			return nil, errors.Wrapf(ErrCorruptCatalog, "files[%d] = %q disagrees with index entry %q", i, doc.Files[i], c.entries[k].Filename)
		}
	}
	if len(doc.History) < len(c.keys) {
		return nil, errors.Wrapf(ErrCorruptCatalog, "history has %d records for %d index entries", len(doc.History), len(c.keys))
	}
	for _, h := range doc.History {
		c.history = append(c.history, HistoryRecord{Label: h.Label, Params: h.Parameters})
	}
	return c, nil
}

// save atomically replaces the sidecar: marshal to a temp file in the
// same directory, fsync, rename over. A crash leaves either the old or
// the new sidecar, never a torn one.
func (c *Catalog) save() error {
	data, err := c.encodeSidecar()
	if err != nil {
		return errors.Wrapf(err, "cannot encode catalog %q", c.Name)
	}

	sidecar := c.SidecarPath()
	tmp := fmt.Sprintf("%s.tmp.%d", sidecar, os.Getpid())
	f, err := os.OpenFile(tmp, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0o644)
	if err != nil {
		return errors.Wrapf(err, "cannot create %s", tmp)
	}
	if _, err := f.Write(data); err != nil {
		_ = f.Close()
		_ = os.Remove(tmp)
		return errors.Wrapf(err, "cannot write %s", tmp)
	}
	if err := f.Sync(); err != nil {
		_ = f.Close()
		_ = os.Remove(tmp)
		return errors.Wrapf(err, "cannot sync %s", tmp)
	}
	if err := f.Close(); err != nil {
		_ = os.Remove(tmp)
		return errors.Wrapf(err, "cannot close %s", tmp)
	}
	if err := os.Rename(tmp, sidecar); err != nil {
		_ = os.Remove(tmp)
		return errors.Wrapf(err, "cannot swap sidecar into place at %s", sidecar)
	}
	return nil
}

func (c *Catalog) encodeSidecar() ([]byte, error) {
	doc := sidecarDoc{
		Name:        c.Name,
		Description: c.Description,
		Directory:   c.Dir,
		Created:     c.Created.Format(timeLayout),
		Modified:    c.Modified.Format(timeLayout),
		Names:       emptyNotNil(c.RecognizedNames),
		Extensions:  emptyNotNil(c.RecognizedExtensions),
		Files:       make([]string, 0, len(c.keys)),
		History:     make([]historyDoc, 0, len(c.history)),
	}

	types := yaml.Node{Kind: yaml.MappingNode}
	defaults := yaml.Node{Kind: yaml.MappingNode}
	for _, f := range c.Schema.Fields() {
		types.Content = append(types.Content, strNode(f.Name), strNode(string(f.Type)))
		if f.Default != nil {
			defaults.Content = append(defaults.Content, strNode(f.Name), strNode(*f.Default))
		}
	}
	doc.Types = types
	if len(defaults.Content) > 0 {
		doc.Defaults = defaults
	}

	index := yaml.Node{Kind: yaml.MappingNode}
	for _, k := range c.keys {
		e := c.entries[k]
		doc.Files = append(doc.Files, e.Filename)
		var entryNode yaml.Node
		if err := entryNode.Encode(entryDoc{
			Filename:   e.Filename,
			Label:      e.Label,
			Added:      e.Added.Format(timeLayout),
			Parameters: params.Render(e.Params),
		}); err != nil {
			return nil, err
		}
		index.Content = append(index.Content, strNode(k), &entryNode)
	}
	doc.Index = index

	for _, h := range c.history {
		doc.History = append(doc.History, historyDoc{Label: h.Label, Parameters: h.Params})
	}

	var buf bytes.Buffer
	buf.Write(c.header())
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(doc); err != nil {
		return nil, err
	}
	if err := enc.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// header renders the regenerable comment block above the document. It is
// purely cosmetic; load skips comments.
func (c *Catalog) header() []byte {
	banner := "# " + strings.Repeat("=", 50) + "\n"
	var b strings.Builder
	b.WriteString(banner)
	fmt.Fprintf(&b, "# Catalog: %s\n", c.Name)
	b.WriteString(banner)
	if c.Description != "" {
		fmt.Fprintf(&b, "# %s\n#\n", c.Description)
	}
	fmt.Fprintf(&b, "# Created:       %s\n", c.Created.Format(timeLayout))
	fmt.Fprintf(&b, "# Last modified: %s\n", c.Modified.Format(timeLayout))
	fmt.Fprintf(&b, "# Entries:       %d\n", len(c.keys))
	b.WriteString("#\n")
	fmt.Fprintf(&b, "# Recognized names:      %s\n", strings.Join(c.RecognizedNames, ", "))
	fmt.Fprintf(&b, "# Recognized extensions: %s\n", strings.Join(c.RecognizedExtensions, ", "))
	b.WriteString("# Parameters:\n")
	for _, f := range c.Schema.Fields() {
		if f.Default != nil {
			fmt.Fprintf(&b, "#   %s (%s, default %s)\n", f.Name, f.Type, *f.Default)
		} else {
			fmt.Fprintf(&b, "#   %s (%s)\n", f.Name, f.Type)
		}
	}
	b.WriteString(banner)
	return []byte(b.String())
}

func strNode(s string) *yaml.Node {
	return &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Value: s}
}

func emptyNotNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
