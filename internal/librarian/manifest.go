// Package librarian is the project layer above catalogs: a manifest
// declaring the catalogs a project owns, idempotent project creation,
// and a derived project summary.
package librarian

import (
	"os"
	"path/filepath"

	"github.com/cockroachdb/errors"
	"gopkg.in/yaml.v3"

	"github.com/samcaf/librarian/internal/params"
)

// ManifestName is the manifest filename at every project root.
const ManifestName = "librarian.yaml"

// Manifest declares a project: its identity, free-form metadata, and the
// catalogs it owns. The file is meant to be hand-edited, so metadata
// stays a yaml.Node and keeps whatever order the author wrote.
type Manifest struct {
	Project     string        `yaml:"project"`
	Description string        `yaml:"description,omitempty"`
	Metadata    yaml.Node     `yaml:"metadata,omitempty"`
	Catalogs    []CatalogSpec `yaml:"catalogs"`
}

// CatalogSpec declares one catalog. Dir defaults to the catalog name
// under the project root; relative dirs resolve against the root.
type CatalogSpec struct {
	Name        string      `yaml:"name"`
	Description string      `yaml:"description,omitempty"`
	Dir         string      `yaml:"dir,omitempty"`
	Names       []string    `yaml:"names"`
	Extensions  []string    `yaml:"extensions"`
	Parameters  []ParamSpec `yaml:"parameters"`
}

// ParamSpec declares one parameter.
type ParamSpec struct {
	Name    string  `yaml:"name"`
	Type    string  `yaml:"type"`
	Default *string `yaml:"default,omitempty"`
}

// MetaItem is one project metadata pair, in document order.
type MetaItem struct {
	Key   string
	Value string
}

// MetadataItems returns the project metadata in the order the manifest
// declares it.
func (m *Manifest) MetadataItems() []MetaItem {
	if m.Metadata.Kind != yaml.MappingNode {
		return nil
	}
	var out []MetaItem
	for i := 0; i+1 < len(m.Metadata.Content); i += 2 {
		out = append(out, MetaItem{
			Key:   m.Metadata.Content[i].Value,
			Value: m.Metadata.Content[i+1].Value,
		})
	}
	return out
}

// SetMetadata replaces the project metadata, keeping the given order.
func (m *Manifest) SetMetadata(items []MetaItem) {
	node := yaml.Node{Kind: yaml.MappingNode}
	for _, it := range items {
		node.Content = append(node.Content,
			&yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Value: it.Key},
			&yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Value: it.Value},
		)
	}
	if len(node.Content) == 0 {
		node = yaml.Node{}
	}
	m.Metadata = node
}

// Spec returns the declaration for a catalog name.
func (m *Manifest) Spec(name string) (*CatalogSpec, bool) {
	for i := range m.Catalogs {
		if m.Catalogs[i].Name == name {
			return &m.Catalogs[i], true
		}
	}
	return nil, false
}

// CatalogNames returns the declared catalog names in manifest order.
func (m *Manifest) CatalogNames() []string {
	out := make([]string, len(m.Catalogs))
	for i, spec := range m.Catalogs {
		out[i] = spec.Name
	}
	return out
}

// Validate checks the manifest is complete enough to create or open a
// project from.
func (m *Manifest) Validate() error {
	if m.Project == "" {
		return errors.Wrap(ErrInvalidManifest, "project name is empty")
	}
	seen := make(map[string]bool, len(m.Catalogs))
	for _, spec := range m.Catalogs {
		if spec.Name == "" {
			return errors.Wrap(ErrInvalidManifest, "catalog with empty name")
		}
		if seen[spec.Name] {
			return errors.Wrapf(ErrInvalidManifest, "catalog %q declared twice", spec.Name)
		}
		seen[spec.Name] = true
		if _, err := spec.Schema(); err != nil {
			return errors.Wrapf(ErrInvalidManifest, "catalog %q: %v", spec.Name, err)
		}
	}
	return nil
}

// Schema builds the parameter schema a spec declares.
func (spec *CatalogSpec) Schema() (*params.Schema, error) {
	fields := make([]params.Field, 0, len(spec.Parameters))
	for _, p := range spec.Parameters {
		t, err := params.ParseType(p.Type)
		if err != nil {
			return nil, errors.Wrapf(err, "parameter %q", p.Name)
		}
		fields = append(fields, params.Field{Name: p.Name, Type: t, Default: p.Default})
	}
	return params.NewSchema(fields...)
}

// ResolveDir returns the catalog directory for a spec under root.
func (spec *CatalogSpec) ResolveDir(root string) string {
	dir := spec.Dir
	if dir == "" {
		dir = spec.Name
	}
	if filepath.IsAbs(dir) {
		return dir
	}
	return filepath.Join(root, dir)
}

// LoadManifest reads the manifest at root.
func LoadManifest(root string) (*Manifest, error) {
	path := filepath.Join(root, ManifestName)
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return nil, errors.Wrapf(ErrNoManifest, "%s", root)
	}
	if err != nil {
		return nil, errors.Wrapf(err, "cannot read manifest %s", path)
	}
	var m Manifest
	if err := yaml.Unmarshal(data, &m); err != nil {
		return nil, errors.Wrapf(ErrInvalidManifest, "%s: %v", path, err)
	}
	if err := m.Validate(); err != nil {
		return nil, err
	}
	return &m, nil
}

// SaveManifest writes the manifest at root.
func SaveManifest(root string, m *Manifest) error {
	data, err := yaml.Marshal(m)
	if err != nil {
		return errors.Wrapf(err, "cannot encode manifest for %q", m.Project)
	}
	path := filepath.Join(root, ManifestName)
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return errors.Wrapf(err, "cannot write manifest %s", path)
	}
	return nil
}
