package catalog

import (
	"bytes"
	"encoding/json"
	"fmt"
	"path/filepath"
	"strings"

	"bondrizz-funnel/internal/domain"
	"github.com/santhosh-tekuri/jsonschema/v6"
	"gopkg.in/yaml.v3"
)

// Format is a catalog document encoding.
type Format string

const (
	FormatJSON Format = "json"
	FormatYAML Format = "yaml"
)

// FormatFromPath picks a format by file extension.
func FormatFromPath(path string) (Format, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json":
		return FormatJSON, nil
	case ".yaml", ".yml":
		return FormatYAML, nil
	default:
		return "", fmt.Errorf("unsupported catalog file %q", path)
	}
}

// Decode parses a catalog document, checks it against the catalog schema and
// then against the catalog invariants.
func Decode(raw []byte, format Format) (domain.Catalog, error) {
	data, err := normalize(raw, format)
	if err != nil {
		return domain.Catalog{}, err
	}

	doc, err := jsonschema.UnmarshalJSON(bytes.NewReader(data))
	if err != nil {
		return domain.Catalog{}, invalid("decode document: %v", err)
	}
	if err := validateDocument(doc); err != nil {
		return domain.Catalog{}, err
	}

	var c domain.Catalog
	if err := json.Unmarshal(data, &c); err != nil {
		return domain.Catalog{}, invalid("decode catalog: %v", err)
	}
	if err := Validate(c); err != nil {
		return domain.Catalog{}, err
	}
	return c, nil
}

// Encode renders a catalog in the given format.
func Encode(c domain.Catalog, format Format) ([]byte, error) {
	switch format {
	case FormatJSON:
		return json.MarshalIndent(c, "", "  ")
	case FormatYAML:
		return yaml.Marshal(c)
	default:
		return nil, fmt.Errorf("unsupported catalog format %q", format)
	}
}

// normalize turns YAML into JSON so both formats share one schema pass.
func normalize(raw []byte, format Format) ([]byte, error) {
	switch format {
	case FormatJSON:
		return raw, nil
	case FormatYAML:
		var doc any
		if err := yaml.Unmarshal(raw, &doc); err != nil {
			return nil, invalid("decode yaml: %v", err)
		}
		data, err := json.Marshal(doc)
		if err != nil {
			return nil, invalid("convert yaml: %v", err)
		}
		return data, nil
	default:
		return nil, fmt.Errorf("unsupported catalog format %q", format)
	}
}
