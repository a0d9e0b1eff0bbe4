// internal/grounding/schema.go
package grounding

import (
	"fmt"
	"strings"

	"github.com/xeipuuv/gojsonschema"
)

// Shape identifies which request document layout was supplied.
type Shape string

const (
	// ShapeNative is {text, supports:[{startOffset, endOffset, sourceRefs, sourceKeys}], modes}.
	ShapeNative Shape = "native"
	// ShapeGeneration is a generation-service response carrying groundingMetadata.
	ShapeGeneration Shape = "generation"
)

// ValidationError lists every schema violation of a request document.
type ValidationError struct {
	Shape   Shape
	Details []string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s request failed validation: %s", e.Shape, strings.Join(e.Details, "; "))
}

func offsetSchema() map[string]any {
	return map[string]any{"type": "integer"}
}

func modesSchema() map[string]any {
	return map[string]any{
		"type":  "array",
		"items": map[string]any{"type": "string"},
	}
}

// NativeSchema is the JSON schema of the native request shape.
func NativeSchema() map[string]any {
	ref := map[string]any{
		"type": "object",
		"properties": map[string]any{
			"title":     map[string]any{"type": "string"},
			"url":       map[string]any{"type": "string"},
			"sourceKey": map[string]any{"type": "integer"},
		},
		"required": []string{"sourceKey"},
	}
	support := map[string]any{
		"type": "object",
		"properties": map[string]any{
			"startOffset": offsetSchema(),
			"endOffset":   offsetSchema(),
			"sourceRefs":  map[string]any{"type": "array", "items": ref},
			"sourceKeys":  map[string]any{"type": "array", "items": map[string]any{"type": "integer"}},
		},
	}
	return map[string]any{
		"type": "object",
		"properties": map[string]any{
			"text":     map[string]any{"type": []string{"string", "null"}},
			"supports": map[string]any{"type": "array", "items": support},
			"modes":    modesSchema(),
		},
	}
}

// GenerationSchema is the JSON schema of the generation-service response shape.
func GenerationSchema() map[string]any {
	source := map[string]any{
		"type": "object",
		"properties": map[string]any{
			"uri":   map[string]any{"type": "string"},
			"title": map[string]any{"type": "string"},
		},
	}
	chunk := map[string]any{
		"type": "object",
		"properties": map[string]any{
			"web":              source,
			"retrievedContext": source,
		},
	}
	support := map[string]any{
		"type": "object",
		"properties": map[string]any{
			"segment": map[string]any{
				"type": "object",
				"properties": map[string]any{
					"startIndex": offsetSchema(),
					"endIndex":   offsetSchema(),
					"text":       map[string]any{"type": "string"},
				},
			},
			"groundingChunkIndices": map[string]any{"type": "array", "items": map[string]any{"type": "integer"}},
		},
	}
	metadata := map[string]any{
		"type": "object",
		"properties": map[string]any{
			"groundingChunks":   map[string]any{"type": "array", "items": chunk},
			"groundingSupports": map[string]any{"type": "array", "items": support},
		},
	}
	candidate := map[string]any{
		"type": "object",
		"properties": map[string]any{
			"content": map[string]any{
				"type": "object",
				"properties": map[string]any{
					"parts": map[string]any{
						"type": "array",
						"items": map[string]any{
							"type":       "object",
							"properties": map[string]any{"text": map[string]any{"type": "string"}},
						},
					},
				},
			},
			"groundingMetadata": metadata,
		},
	}
	return map[string]any{
		"type": "object",
		"properties": map[string]any{
			"text":              map[string]any{"type": "string"},
			"groundingMetadata": metadata,
			"candidates":        map[string]any{"type": "array", "items": candidate},
			"modes":             modesSchema(),
		},
		"anyOf": []any{
			map[string]any{"required": []string{"groundingMetadata"}},
			map[string]any{"required": []string{"candidates"}},
		},
	}
}

// Validate checks a request document against the schema of its shape.
func Validate(shape Shape, data []byte) error {
	var schema map[string]any
	switch shape {
	case ShapeNative:
		schema = NativeSchema()
	case ShapeGeneration:
		schema = GenerationSchema()
	default:
		return fmt.Errorf("unknown request shape %q", shape)
	}

	result, err := gojsonschema.Validate(gojsonschema.NewGoLoader(schema), gojsonschema.NewBytesLoader(data))
	if err != nil {
		return fmt.Errorf("schema validation error: %w", err)
	}
	if result.Valid() {
		return nil
	}
	var details []string
	for _, desc := range result.Errors() {
		details = append(details, desc.String())
	}
	return &ValidationError{Shape: shape, Details: details}
}
