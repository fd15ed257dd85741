package catalog

import (
	"encoding/json"
	"fmt"
	"sync"

	"github.com/santhosh-tekuri/jsonschema/v6"
)

const schemaURL = "schema://catalog.json"

// documentSchema describes the wire shape of a catalog document. Semantic
// invariants (ordinals, trigger targets) are checked by Validate.
const documentSchema = `{
  "type": "object",
  "required": ["id", "questions"],
  "properties": {
    "id": {"type": "string", "minLength": 1},
    "questions": {
      "type": "array",
      "minItems": 1,
      "items": {
        "type": "object",
        "required": ["id", "number", "prompt", "kind"],
        "properties": {
          "id": {"type": "string", "minLength": 1},
          "number": {"type": "integer", "minimum": 1},
          "prompt": {"type": "string"},
          "kind": {"enum": ["card", "simple", "likert"]},
          "options": {
            "type": "array",
            "items": {
              "type": "object",
              "required": ["text", "value"],
              "properties": {
                "text": {"type": "string"},
                "subtext": {"type": "string"},
                "image": {"type": "string"},
                "value": {"type": "string"}
              }
            }
          },
          "scale": {
            "type": "object",
            "required": ["min", "max"],
            "properties": {
              "min": {"type": "integer"},
              "max": {"type": "integer"},
              "minLabel": {"type": "string"},
              "maxLabel": {"type": "string"}
            }
          }
        }
      }
    },
    "interstitials": {
      "type": "array",
      "items": {
        "type": "object",
        "required": ["id", "afterQuestion", "kind"],
        "properties": {
          "id": {"type": "string", "minLength": 1},
          "afterQuestion": {"type": "integer", "minimum": 1},
          "kind": {"enum": ["testimonial", "warning", "social_proof"]},
          "theme": {"type": "string"},
          "content": {"type": "object"}
        }
      }
    }
  }
}`

var (
	compileOnce sync.Once
	compiled    *jsonschema.Schema
	compileErr  error
)

func catalogSchema() (*jsonschema.Schema, error) {
	compileOnce.Do(func() {
		var def any
		if err := json.Unmarshal([]byte(documentSchema), &def); err != nil {
			compileErr = fmt.Errorf("parse catalog schema: %w", err)
			return
		}
		c := jsonschema.NewCompiler()
		if err := c.AddResource(schemaURL, def); err != nil {
			compileErr = fmt.Errorf("add catalog schema: %w", err)
			return
		}
		compiled, compileErr = c.Compile(schemaURL)
	})
	return compiled, compileErr
}

// validateDocument checks a generic decoded document (maps, slices, numbers)
// against the catalog schema.
func validateDocument(doc any) error {
	schema, err := catalogSchema()
	if err != nil {
		return err
	}
	if err := schema.Validate(doc); err != nil {
		return invalid("schema validation failed: %v", err)
	}
	return nil
}
