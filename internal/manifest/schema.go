package manifest

import (
	"encoding/json"
	"fmt"
	"sync"

	"github.com/assetbind/assetbind/internal/assets"
	"github.com/xeipuuv/gojsonschema"
	"gopkg.in/yaml.v3"
)

// compiledSchema converts the embedded YAML schema to JSON once and compiles it.
var compiledSchema = sync.OnceValues(func() (*gojsonschema.Schema, error) {
	raw, ok := assets.Get(assets.ManifestSchema)
	if !ok {
		return nil, fmt.Errorf("schema %s not embedded", assets.ManifestSchema)
	}

	var schemaData interface{}
	if err := yaml.Unmarshal(raw, &schemaData); err != nil {
		return nil, fmt.Errorf("failed to decode schema %s: %w", assets.ManifestSchema, err)
	}
	jsonBytes, err := json.Marshal(schemaData)
	if err != nil {
		return nil, fmt.Errorf("failed to convert schema %s: %w", assets.ManifestSchema, err)
	}

	return gojsonschema.NewSchema(gojsonschema.NewBytesLoader(jsonBytes))
})

// validate checks a JSON document against the manifest schema and returns
// every violation found, in the order gojsonschema reports them.
func validate(doc []byte) ([]Violation, error) {
	schema, err := compiledSchema()
	if err != nil {
		return nil, err
	}

	result, err := schema.Validate(gojsonschema.NewBytesLoader(doc))
	if err != nil {
		return nil, fmt.Errorf("schema validation failed: %w", err)
	}
	if result.Valid() {
		return nil, nil
	}

	violations := make([]Violation, 0, len(result.Errors()))
	for _, verr := range result.Errors() {
		violations = append(violations, Violation{
			Field:   verr.Field(),
			Message: verr.Description(),
		})
	}
	return violations, nil
}
