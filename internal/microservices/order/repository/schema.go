package repository

import (
	"fmt"
	"strings"

	"github.com/xeipuuv/gojsonschema"
)

// itemsSchema describes the items column as every writer must store it.
const itemsSchema = `{
  "$schema": "http://json-schema.org/draft-07/schema#",
  "type": "array",
  "minItems": 1,
  "items": {
    "type": "object",
    "additionalProperties": false,
    "required": ["id", "name", "price", "quantity"],
    "properties": {
      "id":       {"type": "string", "minLength": 1, "pattern": "\\S"},
      "name":     {"type": "string"},
      "price":    {"type": "integer", "minimum": 0},
      "quantity": {"type": "integer", "minimum": 1}
    }
  }
}`

var itemsSchemaLoader = gojsonschema.NewStringLoader(itemsSchema)

// validateItems checks a raw items document against itemsSchema.
func validateItems(raw []byte) error {
	result, err := gojsonschema.Validate(itemsSchemaLoader, gojsonschema.NewBytesLoader(raw))
	if err != nil {
		return fmt.Errorf("schema validation error: %w", err)
	}
	if !result.Valid() {
		var sb strings.Builder
		for i, e := range result.Errors() {
			if i > 0 {
				sb.WriteString("; ")
			}
			sb.WriteString(e.String())
		}
		return fmt.Errorf("items do not conform to schema: %s", sb.String())
	}
	return nil
}
