package langopts

import (
	"fmt"
	"sort"
	"strings"
)

// SchemaFormat identifies the representation a schema document encodes.
type SchemaFormat string

const (
	// SchemaFormatDescriptors is a flat list of FieldDescriptor values.
	SchemaFormatDescriptors SchemaFormat = "descriptors"
	// SchemaFormatJSONSchema is a JSON Schema object in the shape editors
	// use for contributed configuration.
	SchemaFormatJSONSchema SchemaFormat = "json-schema"
)

// SchemaDocument pairs a generated document with its format.
type SchemaDocument struct {
	Format   SchemaFormat `json:"format"`
	Document any          `json:"document"`
}

// FieldDescriptor describes one settings path and its type.
type FieldDescriptor struct {
	Path                string `json:"path"`
	Type                string `json:"type"`
	Description         string `json:"description,omitempty"`
	LanguageOverridable bool   `json:"language_overridable,omitempty"`
}

// Schema renders the key catalogue in format.
func Schema(format SchemaFormat) (SchemaDocument, error) {
	switch format {
	case SchemaFormatDescriptors, "":
		return SchemaDocument{Format: SchemaFormatDescriptors, Document: catalogueDescriptors()}, nil
	case SchemaFormatJSONSchema:
		return SchemaDocument{Format: SchemaFormatJSONSchema, Document: catalogueJSONSchema()}, nil
	default:
		return SchemaDocument{}, fmt.Errorf("langopts: unknown schema format %q", format)
	}
}

func catalogueDescriptors() []FieldDescriptor {
	out := make([]FieldDescriptor, 0, len(catalogue))
	for _, info := range catalogue {
		if info.Key == KeyIdentifier {
			continue
		}
		out = append(out, FieldDescriptor{
			Path:                info.Key.Path(),
			Type:                string(info.Kind),
			Description:         info.Description,
			LanguageOverridable: info.LanguageOverridable,
		})
	}
	return out
}

func catalogueJSONSchema() map[string]any {
	properties := make(map[string]any, len(catalogue))
	for _, info := range catalogue {
		if info.Key == KeyIdentifier {
			continue
		}
		property := map[string]any{
			"type":        string(info.Kind),
			"description": info.Description,
			"scope":       "resource",
		}
		if info.Kind == KindStringArray {
			property["items"] = map[string]any{"type": "string"}
		}
		if info.LanguageOverridable {
			property["scope"] = "language-overridable"
		}
		properties[info.Key.Path()] = property
	}
	return map[string]any{
		"title":      string(KeyIdentifier),
		"type":       "object",
		"properties": properties,
	}
}

// DescribeValues lists the runtime type of every leaf in values, sorted by
// path. Nested maps are flattened with dots.
func DescribeValues(values map[string]any) []FieldDescriptor {
	descriptors := deriveFieldDescriptors(values, "")
	if descriptors == nil {
		return []FieldDescriptor{}
	}
	return descriptors
}

func deriveFieldDescriptors(value any, prefix string) []FieldDescriptor {
	if value == nil {
		if prefix == "" {
			return nil
		}
		return []FieldDescriptor{{Path: prefix, Type: "nil"}}
	}

	switch typed := value.(type) {
	case map[string]any:
		if len(typed) == 0 {
			if prefix == "" {
				return nil
			}
			return []FieldDescriptor{{Path: prefix, Type: "map[string]any"}}
		}
		keys := make([]string, 0, len(typed))
		for key := range typed {
			keys = append(keys, key)
		}
		sort.Strings(keys)
		var fields []FieldDescriptor
		for _, key := range keys {
			fields = append(fields, deriveFieldDescriptors(typed[key], joinPath(prefix, key))...)
		}
		return fields
	case []any:
		elementType := "any"
		if len(typed) > 0 {
			elementType = typeName(typed[0])
		}
		return []FieldDescriptor{{Path: prefix, Type: "[]" + elementType}}
	default:
		if prefix == "" {
			return nil
		}
		return []FieldDescriptor{{Path: prefix, Type: typeName(typed)}}
	}
}

func typeName(value any) string {
	if value == nil {
		return "nil"
	}
	return fmt.Sprintf("%T", value)
}

func joinPath(prefix, segment string) string {
	if prefix == "" {
		return segment
	}
	return strings.Join([]string{prefix, segment}, ".")
}
