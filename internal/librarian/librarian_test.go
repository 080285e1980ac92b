package librarian_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/samcaf/librarian/internal/catalog"
	"github.com/samcaf/librarian/internal/librarian"
)

func testManifest() *librarian.Manifest {
	m := &librarian.Manifest{
		Project:     "gaussian_project",
		Description: "Generated samples and figures",
		Catalogs: []librarian.CatalogSpec{
			{
				Name:        "uniform_data",
				Description: "Uniformly sampled datasets",
				Names:       []string{"uniform data"},
				Extensions:  []string{".npy"},
				Parameters: []librarian.ParamSpec{
					{Name: "n_samples", Type: "int"},
					{Name: "minimum", Type: "float"},
				},
			},
			{
				Name:       "figures",
				Names:      []string{"histogram"},
				Extensions: []string{".pdf"},
				Parameters: []librarian.ParamSpec{
					{Name: "n_samples", Type: "int"},
				},
			},
		},
	}
	m.SetMetadata([]librarian.MetaItem{
		{Key: "author", Value: "sam"},
		{Key: "experiment", Value: "qcd"},
	})
	return m
}

func TestCreateProject(t *testing.T) {
	root := filepath.Join(t.TempDir(), "project")

	p, results, err := librarian.Create(root, testManifest())
	require.NoError(t, err)
	require.Len(t, results, 2)
	for _, r := range results {
		require.True(t, r.Created, "catalog %s", r.Name)
		require.FileExists(t, filepath.Join(r.Dir, catalog.SidecarName))
	}
	require.FileExists(t, filepath.Join(root, librarian.ManifestName))
	require.FileExists(t, filepath.Join(root, librarian.ReadmeName))

	c, err := p.Catalog("uniform_data")
	require.NoError(t, err)
	require.Equal(t, "uniform_data", c.Name)
	require.Equal(t, 0, c.Len())
}

func TestCreateIsIdempotent(t *testing.T) {
	root := filepath.Join(t.TempDir(), "project")

	p, _, err := librarian.Create(root, testManifest())
	require.NoError(t, err)

	c, err := p.Catalog("uniform_data")
	require.NoError(t, err)
	_, err = c.Register(catalog.RegisterRequest{
		Label:  "uniform data",
		Params: map[string]string{"n_samples": "10", "minimum": "0"},
	})
	require.NoError(t, err)

	sidecar := filepath.Join(root, "uniform_data", catalog.SidecarName)
	before, err := os.ReadFile(sidecar)
	require.NoError(t, err)

	_, results, err := librarian.Create(root, testManifest())
	require.NoError(t, err)
	for _, r := range results {
		require.False(t, r.Created, "catalog %s must be kept", r.Name)
	}

	after, err := os.ReadFile(sidecar)
	require.NoError(t, err)
	require.Equal(t, before, after, "existing sidecars stay byte-identical")
}

func TestCreateKeepsCatalogWithChangedSpec(t *testing.T) {
	root := filepath.Join(t.TempDir(), "project")

	_, _, err := librarian.Create(root, testManifest())
	require.NoError(t, err)

	sidecar := filepath.Join(root, "uniform_data", catalog.SidecarName)
	before, err := os.ReadFile(sidecar)
	require.NoError(t, err)

	changed := testManifest()
	changed.Catalogs[0].Parameters = append(changed.Catalogs[0].Parameters,
		librarian.ParamSpec{Name: "maximum", Type: "float"})
	_, _, err = librarian.Create(root, changed)
	require.NoError(t, err)

	after, err := os.ReadFile(sidecar)
	require.NoError(t, err)
	require.Equal(t, before, after, "create never rewrites an existing sidecar")
}

func TestOpenWithoutManifest(t *testing.T) {
	_, err := librarian.Open(t.TempDir())
	require.ErrorIs(t, err, librarian.ErrNoManifest)
}

func TestCatalogUnknownName(t *testing.T) {
	root := filepath.Join(t.TempDir(), "project")
	p, _, err := librarian.Create(root, testManifest())
	require.NoError(t, err)

	_, err = p.Catalog("nonuniform_data")
	require.Error(t, err)
	require.Contains(t, err.Error(), `unknown catalog "nonuniform_data"`)
	require.Contains(t, err.Error(), "uniform_data, figures")
}

func TestManifestRoundTripKeepsMetadataOrder(t *testing.T) {
	root := t.TempDir()
	require.NoError(t, librarian.SaveManifest(root, testManifest()))

	m, err := librarian.LoadManifest(root)
	require.NoError(t, err)
	require.Equal(t, "gaussian_project", m.Project)
	require.Equal(t, []string{"uniform_data", "figures"}, m.CatalogNames())
	require.Equal(t, []librarian.MetaItem{
		{Key: "author", Value: "sam"},
		{Key: "experiment", Value: "qcd"},
	}, m.MetadataItems())
}

func TestManifestValidate(t *testing.T) {
	m := testManifest()
	m.Project = ""
	require.ErrorIs(t, m.Validate(), librarian.ErrInvalidManifest)

	m = testManifest()
	m.Catalogs = append(m.Catalogs, m.Catalogs[0])
	require.ErrorIs(t, m.Validate(), librarian.ErrInvalidManifest)

	m = testManifest()
	m.Catalogs[0].Parameters[0].Type = "integer"
	require.ErrorIs(t, m.Validate(), librarian.ErrInvalidManifest)
}

func TestSpecDirResolution(t *testing.T) {
	root := filepath.Join(t.TempDir(), "project")
	m := testManifest()
	m.Catalogs[0].Dir = filepath.Join("data", "uniform")

	_, results, err := librarian.Create(root, m)
	require.NoError(t, err)
	require.Equal(t, filepath.Join(root, "data", "uniform"), results[0].Dir)
	require.FileExists(t, filepath.Join(root, "data", "uniform", catalog.SidecarName))
	require.Equal(t, filepath.Join(root, "figures"), results[1].Dir)
}

func TestProjectReconcile(t *testing.T) {
	root := filepath.Join(t.TempDir(), "project")
	p, _, err := librarian.Create(root, testManifest())
	require.NoError(t, err)

	c, err := p.Catalog("uniform_data")
	require.NoError(t, err)
	filename, err := c.Register(catalog.RegisterRequest{
		Label:  "uniform data",
		Params: map[string]string{"n_samples": "10", "minimum": "0"},
	})
	require.NoError(t, err)

	reports, err := p.Reconcile()
	require.NoError(t, err)
	require.Len(t, reports, 2)
	require.Equal(t, "uniform_data", reports[0].Catalog)
	require.Equal(t, []string{filename}, reports[0].Missing)
	require.True(t, reports[1].Clean())
}

func TestSummary(t *testing.T) {
	root := filepath.Join(t.TempDir(), "project")
	p, _, err := librarian.Create(root, testManifest())
	require.NoError(t, err)

	c, err := p.Catalog("uniform_data")
	require.NoError(t, err)
	_, err = c.Register(catalog.RegisterRequest{
		Label:  "uniform data",
		Params: map[string]string{"n_samples": "10", "minimum": "0"},
	})
	require.NoError(t, err)

	got := p.Summary()
	require.Contains(t, got, "# Librarian for 'gaussian_project'")
	require.Contains(t, got, "## Project Metadata")
	require.Contains(t, got, "- **Author**: sam")
	require.Contains(t, got, "- **Experiment**: qcd")
	require.Contains(t, got, "## Catalog Data")
	require.Contains(t, got, "### uniform_data")
	require.Contains(t, got, "- **Location**: uniform_data")
	require.Contains(t, got, "- **Entries**: 1")
	require.Contains(t, got, "### figures")
	require.Contains(t, got, "- **Entries**: 0")
}
