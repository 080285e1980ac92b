package catalog

import (
	"os"
	"regexp"
	"testing"

	"github.com/gofrs/flock"
	"github.com/stretchr/testify/require"

	"github.com/samcaf/librarian/internal/params"
)

func strptr(s string) *string { return &s }

func testSchema(t *testing.T) *params.Schema {
	t.Helper()
	schema, err := params.NewSchema(
		params.Field{Name: "n_samples", Type: params.TypeInt},
		params.Field{Name: "minimum", Type: params.TypeFloat},
	)
	require.NoError(t, err)
	return schema
}

func newTestCatalog(t *testing.T) *Catalog {
	t.Helper()
	c, err := New("uniform_data", "Uniformly sampled datasets", t.TempDir(),
		[]string{"uniform data"}, []string{".npy"}, testSchema(t))
	require.NoError(t, err)
	require.NoError(t, c.Init())
	return c
}

func rawParams(n, min string) map[string]string {
	return map[string]string{"n_samples": n, "minimum": min}
}

func TestInitRefusesExistingSidecar(t *testing.T) {
	c := newTestCatalog(t)
	err := c.Init()
	require.Error(t, err)
	require.Contains(t, err.Error(), "already initialized")
}

func TestRegisterAllocatesTokenFilename(t *testing.T) {
	c := newTestCatalog(t)

	filename, err := c.Register(RegisterRequest{
		Label:  "uniform data",
		Params: rawParams("10", "0"),
	})
	require.NoError(t, err)
	require.Regexp(t, regexp.MustCompile(`^uniform-data_[0-9a-f]{32}\.npy$`), filename)

	entry, err := c.Lookup(rawParams("10", "0"))
	require.NoError(t, err)
	require.Equal(t, filename, entry.Filename)
	require.Equal(t, "n_samples : 10 | minimum : 0.0", entry.Key)
}

func TestRegisterDuplicate(t *testing.T) {
	c := newTestCatalog(t)

	_, err := c.Register(RegisterRequest{Label: "uniform data", Params: rawParams("10", "0")})
	require.NoError(t, err)

	_, err = c.Register(RegisterRequest{Label: "uniform data", Params: rawParams("10", "0")})
	require.ErrorIs(t, err, ErrDuplicateEntry)
	require.Equal(t, 1, c.Len())
}

func TestRegisterFloatSpellingsCollide(t *testing.T) {
	c := newTestCatalog(t)

	_, err := c.Register(RegisterRequest{Label: "uniform data", Params: rawParams("10", "1")})
	require.NoError(t, err)

	// "1" and "1.0" coerce to the same float, so the keys collide.
	_, err = c.Register(RegisterRequest{Label: "uniform data", Params: rawParams("10", "1.0")})
	require.ErrorIs(t, err, ErrDuplicateEntry)
}

func TestRegisterValidation(t *testing.T) {
	c := newTestCatalog(t)
	before, err := os.ReadFile(c.SidecarPath())
	require.NoError(t, err)

	_, err = c.Register(RegisterRequest{Label: "figures", Params: rawParams("10", "0")})
	require.ErrorIs(t, err, ErrUnrecognizedLabel)

	_, err = c.Register(RegisterRequest{Label: "uniform data", Params: rawParams("10", "0"), Ext: ".pdf"})
	require.ErrorIs(t, err, ErrUnrecognizedExtension)

	_, err = c.Register(RegisterRequest{
		Label:  "uniform data",
		Params: map[string]string{"n_samples": "10", "minimum": "0", "maximum": "1"},
	})
	require.ErrorIs(t, err, params.ErrSchemaMismatch)

	_, err = c.Register(RegisterRequest{
		Label:  "uniform data",
		Params: map[string]string{"n_samples": "ten", "minimum": "0"},
	})
	require.ErrorIs(t, err, params.ErrTypeCoercion)

	// None of the failures may leave a trace.
	require.Equal(t, 0, c.Len())
	after, err := os.ReadFile(c.SidecarPath())
	require.NoError(t, err)
	require.Equal(t, before, after)
}

func TestRegisterDefaultsSingleExtension(t *testing.T) {
	c := newTestCatalog(t)

	filename, err := c.Register(RegisterRequest{Label: "uniform data", Params: rawParams("10", "0")})
	require.NoError(t, err)
	require.Regexp(t, `\.npy$`, filename)
}

func TestRegisterExtensionSpellings(t *testing.T) {
	c := newTestCatalog(t)

	// "npy" and ".npy" are the same extension.
	filename, err := c.Register(RegisterRequest{Label: "uniform data", Params: rawParams("10", "0"), Ext: "npy"})
	require.NoError(t, err)
	require.Regexp(t, `\.npy$`, filename)
}

func TestRegisterSubdir(t *testing.T) {
	c := newTestCatalog(t)

	filename, err := c.Register(RegisterRequest{
		Label:  "uniform data",
		Params: rawParams("10", "0"),
		Subdir: "runs/a",
	})
	require.NoError(t, err)
	require.Regexp(t, `^runs/a/uniform-data_[0-9a-f]{32}\.npy$`, filename)
	require.DirExists(t, c.FilePath("runs/a"))

	_, err = c.Register(RegisterRequest{
		Label:  "uniform data",
		Params: rawParams("20", "0"),
		Subdir: "../outside",
	})
	require.Error(t, err)
	require.Contains(t, err.Error(), "escapes the catalog")
}

func TestAllocationExhausted(t *testing.T) {
	c := newTestCatalog(t)

	prev := newToken
	newToken = func() string { return "deadbeefdeadbeefdeadbeefdeadbeef" }
	defer func() { newToken = prev }()

	blocked := c.FilePath("uniform-data_deadbeefdeadbeefdeadbeefdeadbeef.npy")
	require.NoError(t, os.WriteFile(blocked, []byte("x"), 0o644))

	_, err := c.Register(RegisterRequest{Label: "uniform data", Params: rawParams("10", "0")})
	require.ErrorIs(t, err, ErrAllocationExhausted)
	require.Equal(t, 0, c.Len())
}

func TestLookupNotFound(t *testing.T) {
	c := newTestCatalog(t)
	_, err := c.Lookup(rawParams("10", "0"))
	require.ErrorIs(t, err, ErrEntryNotFound)
}

func TestRemove(t *testing.T) {
	c := newTestCatalog(t)

	filename, err := c.Register(RegisterRequest{Label: "uniform data", Params: rawParams("10", "0")})
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(c.FilePath(filename), []byte("data"), 0o644))

	_, err = c.Remove(rawParams("99", "0"), false)
	require.ErrorIs(t, err, ErrEntryNotFound)

	removed, err := c.Remove(rawParams("10", "0"), true)
	require.NoError(t, err)
	require.Equal(t, filename, removed.Filename)
	require.NoFileExists(t, c.FilePath(filename))

	_, err = c.Lookup(rawParams("10", "0"))
	require.ErrorIs(t, err, ErrEntryNotFound)

	// History is append-only and keeps the registration record.
	reloaded, err := Load(c.Dir)
	require.NoError(t, err)
	require.Equal(t, 0, reloaded.Len())
	require.Len(t, reloaded.history, 1)
}

func TestAddParameter(t *testing.T) {
	c := newTestCatalog(t)

	_, err := c.Register(RegisterRequest{Label: "uniform data", Params: rawParams("10", "0")})
	require.NoError(t, err)
	_, err = c.Register(RegisterRequest{Label: "uniform data", Params: rawParams("20", "0")})
	require.NoError(t, err)

	err = c.AddParameter(params.Field{Name: "seed", Type: params.TypeInt})
	require.Error(t, err)
	require.Contains(t, err.Error(), "needs a default")

	require.NoError(t, c.AddParameter(params.Field{Name: "seed", Type: params.TypeInt, Default: strptr("0")}))
	require.Equal(t, []string{"n_samples", "minimum", "seed"}, c.Schema.Names())

	// Old entries are re-keyed with the default filling the new field.
	entry, err := c.Lookup(map[string]string{"n_samples": "10", "minimum": "0", "seed": "0"})
	require.NoError(t, err)
	require.Equal(t, "n_samples : 10 | minimum : 0.0 | seed : 0", entry.Key)

	// The default also fills omitted values on lookup.
	entry, err = c.Lookup(rawParams("20", "0"))
	require.NoError(t, err)
	require.Equal(t, int64(0), entry.Params["seed"].I)

	// New registrations can carry the grown field explicitly.
	_, err = c.Register(RegisterRequest{
		Label:  "uniform data",
		Params: map[string]string{"n_samples": "10", "minimum": "0", "seed": "1"},
	})
	require.NoError(t, err)

	reloaded, err := Load(c.Dir)
	require.NoError(t, err)
	require.Equal(t, 3, reloaded.Len())
	require.Equal(t, []string{"n_samples", "minimum", "seed"}, reloaded.Schema.Names())
}

func TestLockTimeout(t *testing.T) {
	c := newTestCatalog(t)

	held := flock.New(c.LockPath())
	locked, err := held.TryLock()
	require.NoError(t, err)
	require.True(t, locked)
	defer func() { _ = held.Unlock() }()

	impatient, err := Load(c.Dir, WithLockTimeout(0))
	require.NoError(t, err)

	_, err = impatient.Register(RegisterRequest{Label: "uniform data", Params: rawParams("10", "0")})
	require.ErrorIs(t, err, ErrLockTimeout)
}
