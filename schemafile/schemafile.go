// Package schemafile loads schema descriptions from YAML or JSON documents.
//
// A document is a mapping from field name to either a type string (verbatim,
// including conditional "when ..." strings) or a nested mapping. The loader
// only shapes the document into a fortress.Description; all grammar checking
// happens at Precompile time.
package schemafile

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/goccy/go-json"
	"gopkg.in/yaml.v3"

	fortress "github.com/fortress-schema/fortress"
)

// FromYAML decodes a YAML document into a Description.
func FromYAML(data []byte) (fortress.Description, error) {
	var raw map[string]any
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("schemafile: %w", err)
	}
	return shape(raw)
}

// FromJSON decodes a JSON document into a Description.
func FromJSON(data []byte) (fortress.Description, error) {
	var raw map[string]any
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("schemafile: %w", err)
	}
	return shape(raw)
}

// FromFile loads a description, picking the decoder from the file extension
// (.yaml/.yml or .json).
func FromFile(path string) (fortress.Description, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return FromYAML(data)
	case ".json":
		return FromJSON(data)
	}
	return nil, fmt.Errorf("schemafile: unsupported extension %q (want .yaml, .yml or .json)", filepath.Ext(path))
}

// shape validates the document's shape: string leaves and mapping nodes
// only, recursively.
func shape(raw map[string]any) (fortress.Description, error) {
	out := make(fortress.Description, len(raw))
	for k, v := range raw {
		switch tv := v.(type) {
		case string:
			out[k] = tv
		case map[string]any:
			nested, err := shape(tv)
			if err != nil {
				return nil, fmt.Errorf("%s: %w", k, err)
			}
			out[k] = nested
		default:
			return nil, fmt.Errorf("schemafile: field %q must be a type string or a nested mapping, got %T", k, v)
		}
	}
	return out, nil
}
