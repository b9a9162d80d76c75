package tools

import (
	"fmt"
	"math"
)

// Schema is a small JSON-Schema-like description of a tool's
// parameters: an object with typed properties and a list of required
// names. Arguments not listed in Properties pass through unchecked.
type Schema struct {
	Type       string              `yaml:"type,omitempty" json:"type,omitempty"`
	Properties map[string]Property `yaml:"properties,omitempty" json:"properties,omitempty"`
	Required   []string            `yaml:"required,omitempty" json:"required,omitempty"`
}

// Property types understood by Validate.
const (
	TypeString  = "string"
	TypeNumber  = "number"
	TypeInteger = "integer"
	TypeBoolean = "boolean"
	TypeArray   = "array"
	TypeObject  = "object"
)

// Property declares the expected type of one argument. An empty Type
// accepts anything.
type Property struct {
	Type        string `yaml:"type,omitempty" json:"type,omitempty"`
	Description string `yaml:"description,omitempty" json:"description,omitempty"`
}

// Validate checks an argument map against the schema: every required
// name must be present, and every declared property that is present
// must match its type.
func (s Schema) Validate(args map[string]any) error {
	for _, name := range s.Required {
		if _, ok := args[name]; !ok {
			return fmt.Errorf("missing required argument %q", name)
		}
	}
	for name, prop := range s.Properties {
		value, ok := args[name]
		if !ok || prop.Type == "" {
			continue
		}
		if !matchesType(value, prop.Type) {
			return fmt.Errorf("argument %q must be of type %s, got %T", name, prop.Type, value)
		}
	}
	return nil
}

// matchesType accepts the Go representations an argument of the given
// schema type can arrive in, including the float64 form produced by
// JSON decoding.
func matchesType(value any, schemaType string) bool {
	switch schemaType {
	case TypeString:
		_, ok := value.(string)
		return ok
	case TypeBoolean:
		_, ok := value.(bool)
		return ok
	case TypeNumber:
		switch value.(type) {
		case int, int32, int64, float32, float64:
			return true
		}
		return false
	case TypeInteger:
		switch v := value.(type) {
		case int, int32, int64:
			return true
		case float64:
			return v == math.Trunc(v)
		case float32:
			return float64(v) == math.Trunc(float64(v))
		}
		return false
	case TypeArray:
		switch value.(type) {
		case []any, []string, []int, []float64:
			return true
		}
		return false
	case TypeObject:
		_, ok := value.(map[string]any)
		return ok
	default:
		// Unknown declared types accept anything rather than rejecting
		// arguments the schema author could not express.
		return true
	}
}
