// Package manifest loads the flat entity list that drives asset binding.
//
// A manifest is a JSON array of records, each carrying a string "id".
// Other fields are ignored. The document is decoded with yaml.v3, so YAML
// flow syntax is accepted as well since JSON is a subset of it.
package manifest

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"

	"github.com/go-git/go-billy/v5"
	"gopkg.in/yaml.v3"
)

// Entity is one logical resource group named by the manifest.
type Entity struct {
	ID string
}

// Load parses a manifest and returns its entities in document order.
// Duplicate identifiers are kept; collisions are reported by the generator.
func Load(r io.Reader) ([]Entity, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, &ReadError{Err: err}
	}
	return parse(data, "")
}

// LoadFile reads and parses the manifest at path on fs.
func LoadFile(fs billy.Filesystem, path string) ([]Entity, error) {
	f, err := fs.Open(path)
	if err != nil {
		return nil, &ReadError{Path: path, Err: err}
	}
	defer f.Close()

	data, err := io.ReadAll(f)
	if err != nil {
		return nil, &ReadError{Path: path, Err: err}
	}
	return parse(data, path)
}

func parse(data []byte, path string) ([]Entity, error) {
	if len(bytes.TrimSpace(data)) == 0 {
		return nil, &ParseError{Path: path, Err: errors.New("document is empty")}
	}

	var doc interface{}
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, &ParseError{Path: path, Err: err}
	}

	// Non-string mapping keys survive YAML decoding but have no JSON form.
	jsonBytes, err := json.Marshal(doc)
	if err != nil {
		return nil, &SchemaError{
			Path:       path,
			Violations: []Violation{{Field: "(root)", Message: fmt.Sprintf("document has no JSON representation: %v", err)}},
		}
	}

	violations, err := validate(jsonBytes)
	if err != nil {
		return nil, err
	}
	if len(violations) > 0 {
		return nil, &SchemaError{Path: path, Violations: violations}
	}

	var records []struct {
		ID string `json:"id"`
	}
	if err := json.Unmarshal(jsonBytes, &records); err != nil {
		return nil, &SchemaError{
			Path:       path,
			Violations: []Violation{{Field: "(root)", Message: err.Error()}},
		}
	}

	entities := make([]Entity, 0, len(records))
	for _, rec := range records {
		entities = append(entities, Entity{ID: rec.ID})
	}
	return entities, nil
}

// IDs returns the identifiers of entities in order.
func IDs(entities []Entity) []string {
	ids := make([]string, len(entities))
	for i, e := range entities {
		ids[i] = e.ID
	}
	return ids
}
