package schema

import (
	"fmt"
	"sort"
	"strings"
)

// Field error codes.
const (
	CodeRequired      = "required"
	CodeTypeMismatch  = "type_mismatch"
	CodeEnumInvalid   = "enum_invalid"
	CodeUnknownField  = "unknown_field"
	CodeReadOnlyField = "readonly_field"
	CodeBadDefinition = "bad_definition"
)

// FieldError describes a single validation failure.
type FieldError struct {
	Code    string `json:"code"`
	Field   string `json:"field"`
	Message string `json:"message"`
}

// ValidationError aggregates field errors for one payload.
type ValidationError struct {
	Fields []FieldError
}

func (e *ValidationError) Error() string {
	names := make([]string, 0, len(e.Fields))
	for _, f := range e.Fields {
		names = append(names, f.Field+" ("+f.Code+")")
	}
	return "ontology: payload validation failed: " + strings.Join(names, ", ")
}

// AsError returns a *ValidationError when errs is non-empty, nil otherwise.
func AsError(errs []FieldError) error {
	if len(errs) == 0 {
		return nil
	}
	return &ValidationError{Fields: errs}
}

func ferr(code, field, msg string) FieldError {
	return FieldError{Code: code, Field: field, Message: msg}
}

// Validate checks payload against props. With partial=false every required
// property must be present; with partial=true only the supplied properties
// are checked (update semantics). Properties not declared in the schema are
// rejected. The payload is not mutated.
func Validate(props Properties, payload map[string]any, partial bool) []FieldError {
	var errs []FieldError

	if !partial {
		for _, name := range sortedNames(props) {
			p := props[name]
			if !p.Required {
				continue
			}
			if v, ok := payload[name]; !ok || v == nil {
				errs = append(errs, ferr(CodeRequired, name, fmt.Sprintf("property %q is required", name)))
			}
		}
	}

	for _, name := range sortedNames(payload) {
		val := payload[name]
		p, ok := props[name]
		if !ok {
			errs = append(errs, ferr(CodeUnknownField, name, fmt.Sprintf("property %q is not declared by the object type", name)))
			continue
		}
		if val == nil {
			continue
		}
		errs = append(errs, checkValue(name, p, val)...)
	}

	return errs
}

// ApplyDefaults returns a copy of payload with declared defaults filled in
// for absent properties. Used on the create path only.
func ApplyDefaults(props Properties, payload map[string]any) map[string]any {
	out := make(map[string]any, len(payload))
	for k, v := range payload {
		out[k] = v
	}
	for name, p := range props {
		if p.Default == nil {
			continue
		}
		if _, ok := out[name]; !ok {
			out[name] = p.Default
		}
	}
	return out
}

func checkValue(name string, p Property, val any) []FieldError {
	switch p.Type {
	case TypeString:
		s, ok := val.(string)
		if !ok {
			return []FieldError{ferr(CodeTypeMismatch, name, fmt.Sprintf("property %q expects a string", name))}
		}
		if len(p.Enum) > 0 && !enumContains(p.Enum, s) {
			return []FieldError{enumErr(name, p.Enum)}
		}
	case TypeNumber:
		if !isNumber(val) {
			return []FieldError{ferr(CodeTypeMismatch, name, fmt.Sprintf("property %q expects a number", name))}
		}
	case TypeBoolean:
		if _, ok := val.(bool); !ok {
			return []FieldError{ferr(CodeTypeMismatch, name, fmt.Sprintf("property %q expects a boolean", name))}
		}
	case TypeEnum:
		s, ok := val.(string)
		if !ok {
			return []FieldError{ferr(CodeTypeMismatch, name, fmt.Sprintf("property %q expects an enum string", name))}
		}
		if !enumContains(p.Enum, s) {
			return []FieldError{enumErr(name, p.Enum)}
		}
	case TypeArray:
		arr, ok := val.([]any)
		if !ok {
			return []FieldError{ferr(CodeTypeMismatch, name, fmt.Sprintf("property %q expects an array", name))}
		}
		if p.Items == nil {
			return nil
		}
		var errs []FieldError
		for i, elem := range arr {
			errs = append(errs, checkValue(fmt.Sprintf("%s[%d]", name, i), *p.Items, elem)...)
		}
		return errs
	case TypeObject:
		if _, ok := val.(map[string]any); !ok {
			return []FieldError{ferr(CodeTypeMismatch, name, fmt.Sprintf("property %q expects an object", name))}
		}
	}
	return nil
}

// CheckDefinition validates a property schema definition itself: every entry
// must declare a recognized type and enum properties must list their values.
func CheckDefinition(props Properties) []FieldError {
	var errs []FieldError
	for _, name := range sortedNames(props) {
		p := props[name]
		if !p.Type.Known() {
			errs = append(errs, ferr(CodeBadDefinition, name, fmt.Sprintf("property %q has unrecognized type %q", name, p.Type)))
			continue
		}
		if p.Type == TypeEnum && len(p.Enum) == 0 {
			errs = append(errs, ferr(CodeBadDefinition, name, fmt.Sprintf("enum property %q lists no values", name)))
		}
		if p.Type == TypeArray && p.Items != nil && !p.Items.Type.Known() {
			errs = append(errs, ferr(CodeBadDefinition, name, fmt.Sprintf("array property %q has unrecognized element type %q", name, p.Items.Type)))
		}
		if p.Default != nil {
			if ve := checkValue(name, p, p.Default); len(ve) > 0 {
				errs = append(errs, ferr(CodeBadDefinition, name, fmt.Sprintf("default for property %q does not match its declared type", name)))
			}
		}
	}
	return errs
}

func isNumber(v any) bool {
	switch v.(type) {
	case float64, float32, int, int32, int64:
		return true
	}
	return false
}

func enumContains(enum []string, s string) bool {
	for _, e := range enum {
		if e == s {
			return true
		}
	}
	return false
}

func enumErr(name string, enum []string) FieldError {
	return ferr(CodeEnumInvalid, name, fmt.Sprintf("property %q must be one of [%s]", name, strings.Join(enum, ", ")))
}

func sortedNames[V any](m map[string]V) []string {
	names := make([]string, 0, len(m))
	for k := range m {
		names = append(names, k)
	}
	sort.Strings(names)
	return names
}
