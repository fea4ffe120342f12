package reclaim

import (
	"encoding/json"
	"fmt"
)

// Kind is the semantic type of a field.
type Kind int

const (
	KindString Kind = iota
	KindEnum
	KindInt
	KindFloat
	KindBool
	KindTime
	KindList
	KindObject
)

// Field declares one attribute of a resource.
type Field struct {
	Name     string // local name
	Wire     string // JSON key on the wire
	Kind     Kind
	Required bool
	ReadOnly bool // assigned by the server, never sent
	Default  any  // applied to required fields that are absent
}

// Schema is the static field list of a resource type.
type Schema struct {
	resource string
	fields   []Field
	byName   map[string]Field
}

// NewSchema builds a schema. Duplicate names are a programming error and panic.
func NewSchema(resource string, fields ...Field) *Schema {
	s := &Schema{
		resource: resource,
		fields:   fields,
		byName:   make(map[string]Field, len(fields)*2),
	}
	wires := make(map[string]bool, len(fields))
	for _, f := range fields {
		if f.Wire == "" {
			panic(fmt.Sprintf("reclaim: %s field %q has no wire name", resource, f.Name))
		}
		if wires[f.Wire] {
			panic(fmt.Sprintf("reclaim: %s field %q declared twice", resource, f.Wire))
		}
		wires[f.Wire] = true

		for _, key := range []string{f.Wire, f.Name} {
			if key == "" {
				continue
			}
			if prev, ok := s.byName[key]; ok && prev.Wire != f.Wire {
				panic(fmt.Sprintf("reclaim: %s field %q declared twice", resource, key))
			}
			s.byName[key] = f
		}
	}
	return s
}

// Resource returns the display name used in errors.
func (s *Schema) Resource() string { return s.resource }

// Fields returns the declared fields in declaration order.
func (s *Schema) Fields() []Field { return s.fields }

// Lookup finds a field by wire or local name.
func (s *Schema) Lookup(name string) (Field, error) {
	f, ok := s.byName[name]
	if !ok {
		return Field{}, fmt.Errorf("%w: %s has no field %q", ErrUnknownField, s.resource, name)
	}
	return f, nil
}

// applyDefaults writes defaults for absent or null required fields and then
// checks that every required field holds a truthy value.
func (s *Schema) applyDefaults(data map[string]json.RawMessage) error {
	for _, f := range s.fields {
		if !f.Required {
			continue
		}
		if raw, ok := data[f.Wire]; (!ok || isNull(raw)) && f.Default != nil {
			encoded, err := json.Marshal(f.Default)
			if err != nil {
				return fmt.Errorf("encode default for %s.%s: %w", s.resource, f.Wire, err)
			}
			data[f.Wire] = encoded
		}
		if !truthy(data[f.Wire]) {
			return &ValidationError{Resource: s.resource, Field: f.Wire, Reason: "required field is missing or empty"}
		}
	}
	return nil
}

// writable drops read-only fields from an encoded resource.
func (s *Schema) writable(data map[string]json.RawMessage) map[string]json.RawMessage {
	out := make(map[string]json.RawMessage, len(data))
	for k, v := range data {
		if f, ok := s.byName[k]; ok && f.ReadOnly {
			continue
		}
		out[k] = v
	}
	return out
}

func isNull(raw json.RawMessage) bool {
	return len(raw) == 0 || string(raw) == "null"
}

// truthy mirrors the API's notion of "set": not null, "", 0, false or empty.
func truthy(raw json.RawMessage) bool {
	if isNull(raw) {
		return false
	}
	var v any
	if err := json.Unmarshal(raw, &v); err != nil {
		return false
	}
	switch val := v.(type) {
	case string:
		return val != ""
	case float64:
		return val != 0
	case bool:
		return val
	case []any:
		return len(val) > 0
	case map[string]any:
		return len(val) > 0
	default:
		return v != nil
	}
}
