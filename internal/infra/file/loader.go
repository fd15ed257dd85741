package file

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"bondrizz-funnel/internal/catalog"
	"bondrizz-funnel/internal/domain"
)

var extensions = []string{".json", ".yaml", ".yml"}

// CatalogDir loads catalogs from a directory of {id}.json / {id}.yaml files.
type CatalogDir struct {
	dir string
}

func NewCatalogDir(dir string) *CatalogDir {
	return &CatalogDir{dir: dir}
}

// Dir returns the watched directory.
func (d *CatalogDir) Dir() string {
	return d.dir
}

func (d *CatalogDir) LoadCatalog(_ context.Context, catalogID string) (domain.Catalog, error) {
	if catalogID == "" || strings.ContainsAny(catalogID, `/\`) || catalogID == "." || catalogID == ".." {
		return domain.Catalog{}, domain.ErrCatalogNotFound
	}
	for _, ext := range extensions {
		path := filepath.Join(d.dir, catalogID+ext)
		raw, err := os.ReadFile(path)
		if errors.Is(err, fs.ErrNotExist) {
			continue
		}
		if err != nil {
			return domain.Catalog{}, fmt.Errorf("read catalog %s: %w", path, err)
		}
		format, _ := catalog.FormatFromPath(path)
		c, err := catalog.Decode(raw, format)
		if err != nil {
			return domain.Catalog{}, fmt.Errorf("%s: %w", path, err)
		}
		if c.ID != catalogID {
			return domain.Catalog{}, fmt.Errorf("%w: %s declares id %q", domain.ErrInvalidCatalog, path, c.ID)
		}
		return c, nil
	}
	return domain.Catalog{}, domain.ErrCatalogNotFound
}

// ListCatalogs returns the ids of every catalog file in the directory.
func (d *CatalogDir) ListCatalogs(_ context.Context) ([]string, error) {
	entries, err := os.ReadDir(d.dir)
	if err != nil {
		return nil, err
	}
	seen := make(map[string]bool)
	var ids []string
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		id, ok := CatalogID(entry.Name())
		if !ok || seen[id] {
			continue
		}
		seen[id] = true
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids, nil
}

// CatalogID maps a catalog file name to its id.
func CatalogID(path string) (string, bool) {
	base := filepath.Base(path)
	ext := strings.ToLower(filepath.Ext(base))
	for _, known := range extensions {
		if ext == known {
			id := strings.TrimSuffix(base, filepath.Ext(base))
			return id, id != "" && !strings.HasPrefix(id, ".")
		}
	}
	return "", false
}
