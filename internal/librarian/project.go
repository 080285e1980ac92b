package librarian

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/cockroachdb/errors"

	"github.com/samcaf/librarian/internal/catalog"
	"github.com/samcaf/librarian/internal/log"
)

// ReadmeName is the derived project summary file at the project root.
const ReadmeName = "README.md"

// Project is an opened project: a root directory, its manifest, and
// lazily loaded catalog handles.
type Project struct {
	Root     string
	Manifest *Manifest

	opts     []catalog.Option
	catalogs map[string]*catalog.Catalog
}

// CreateResult reports what Create did for one declared catalog.
type CreateResult struct {
	Name    string
	Dir     string
	Created bool
}

// Create builds the project layout for a manifest: the root directory,
// the manifest file, one directory and sidecar per declared catalog, and
// the derived README. It is idempotent; a catalog that already has a
// sidecar is kept untouched, byte for byte, even when its declaration
// changed.
func Create(root string, m *Manifest, opts ...catalog.Option) (*Project, []CreateResult, error) {
	if err := m.Validate(); err != nil {
		return nil, nil, err
	}
	if err := os.MkdirAll(root, 0o755); err != nil {
		return nil, nil, errors.Wrapf(err, "cannot create project root %s", root)
	}
	if err := SaveManifest(root, m); err != nil {
		return nil, nil, err
	}

	results := make([]CreateResult, 0, len(m.Catalogs))
	for _, spec := range m.Catalogs {
		dir := spec.ResolveDir(root)
		if catalog.Exists(dir) {
			log.Debugw("catalog kept", "name", spec.Name, "dir", dir)
			results = append(results, CreateResult{Name: spec.Name, Dir: dir})
			continue
		}
		schema, err := spec.Schema()
		if err != nil {
			return nil, results, errors.Wrapf(err, "catalog %q", spec.Name)
		}
		c, err := catalog.New(spec.Name, spec.Description, dir, spec.Names, spec.Extensions, schema, opts...)
		if err != nil {
			return nil, results, err
		}
		if err := c.Init(); err != nil {
			return nil, results, errors.Wrapf(err, "catalog %q", spec.Name)
		}
		log.Infow("catalog created", "name", spec.Name, "dir", dir)
		results = append(results, CreateResult{Name: spec.Name, Dir: dir, Created: true})
	}

	p := &Project{
		Root:     root,
		Manifest: m,
		opts:     opts,
		catalogs: make(map[string]*catalog.Catalog),
	}
	if err := p.WriteReadme(); err != nil {
		return nil, results, err
	}
	return p, results, nil
}

// Open reads the manifest at root and returns a project handle.
func Open(root string, opts ...catalog.Option) (*Project, error) {
	m, err := LoadManifest(root)
	if err != nil {
		return nil, err
	}
	return &Project{
		Root:     root,
		Manifest: m,
		opts:     opts,
		catalogs: make(map[string]*catalog.Catalog),
	}, nil
}

// Catalog opens (and caches) the handle for a declared catalog name.
func (p *Project) Catalog(name string) (*catalog.Catalog, error) {
	if c, ok := p.catalogs[name]; ok {
		return c, nil
	}
	spec, ok := p.Manifest.Spec(name)
	if !ok {
		return nil, errors.Newf("unknown catalog %q (manifest declares: %s)",
			name, strings.Join(p.Manifest.CatalogNames(), ", "))
	}
	c, err := catalog.Load(spec.ResolveDir(p.Root), p.opts...)
	if err != nil {
		return nil, errors.Wrapf(err, "catalog %q", name)
	}
	p.catalogs[name] = c
	return c, nil
}

// Reconcile runs every declared catalog's drift report, in manifest
// order.
func (p *Project) Reconcile() ([]*catalog.Report, error) {
	reports := make([]*catalog.Report, 0, len(p.Manifest.Catalogs))
	for _, name := range p.Manifest.CatalogNames() {
		c, err := p.Catalog(name)
		if err != nil {
			return reports, err
		}
		rep, err := c.Reconcile()
		if err != nil {
			return reports, err
		}
		reports = append(reports, rep)
	}
	return reports, nil
}

// WriteReadme renders the project summary to README.md at the root. The
// file is derived output and is regenerated on every call.
func (p *Project) WriteReadme() error {
	path := filepath.Join(p.Root, ReadmeName)
	if err := os.WriteFile(path, []byte(p.Summary()), 0o644); err != nil {
		return errors.Wrapf(err, "cannot write %s", path)
	}
	return nil
}
