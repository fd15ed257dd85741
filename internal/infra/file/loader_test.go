package file

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"bondrizz-funnel/internal/catalog"
	"bondrizz-funnel/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeCatalog(t *testing.T, dir, name string, c domain.Catalog) string {
	t.Helper()
	format, err := catalog.FormatFromPath(name)
	require.NoError(t, err)
	raw, err := catalog.Encode(c, format)
	require.NoError(t, err)
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, raw, 0o644))
	return path
}

func TestCatalogDirLoadsYAMLAndJSON(t *testing.T) {
	dir := t.TempDir()
	writeCatalog(t, dir, "bond-rizz.yaml", catalog.BondRizz())

	other := catalog.BondRizz()
	other.ID = "short"
	other.Questions = other.Questions[:8]
	other.Interstitials = other.Interstitials[:1]
	writeCatalog(t, dir, "short.json", other)

	loader := NewCatalogDir(dir)
	ctx := context.Background()

	got, err := loader.LoadCatalog(ctx, catalog.BondRizzID)
	require.NoError(t, err)
	assert.Equal(t, catalog.BondRizz(), got)

	short, err := loader.LoadCatalog(ctx, "short")
	require.NoError(t, err)
	assert.Len(t, short.Questions, 8)

	ids, err := loader.ListCatalogs(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"bond-rizz", "short"}, ids)
}

func TestCatalogDirErrors(t *testing.T) {
	dir := t.TempDir()
	loader := NewCatalogDir(dir)
	ctx := context.Background()

	_, err := loader.LoadCatalog(ctx, "missing")
	assert.ErrorIs(t, err, domain.ErrCatalogNotFound)

	_, err = loader.LoadCatalog(ctx, "../etc/passwd")
	assert.ErrorIs(t, err, domain.ErrCatalogNotFound)

	mismatched := catalog.BondRizz()
	writeCatalog(t, dir, "renamed.json", mismatched)
	_, err = loader.LoadCatalog(ctx, "renamed")
	assert.ErrorIs(t, err, domain.ErrInvalidCatalog)

	require.NoError(t, os.WriteFile(filepath.Join(dir, "broken.json"), []byte(`{"id":"broken","questions":[]}`), 0o644))
	_, err = loader.LoadCatalog(ctx, "broken")
	assert.ErrorIs(t, err, domain.ErrInvalidCatalog)
}

func TestCatalogID(t *testing.T) {
	cases := map[string]struct {
		id string
		ok bool
	}{
		"/srv/catalogs/bond-rizz.yaml": {"bond-rizz", true},
		"bond-rizz.JSON":               {"bond-rizz", true},
		"notes.txt":                    {"", false},
		".hidden.yml":                  {".hidden", false},
		"bond-rizz.yaml.swp":           {"", false},
	}
	for path, want := range cases {
		id, ok := CatalogID(path)
		assert.Equal(t, want.ok, ok, path)
		if want.ok {
			assert.Equal(t, want.id, id, path)
		}
	}
}
