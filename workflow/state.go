package workflow

import (
	"fmt"
	"reflect"

	"github.com/mitchellh/mapstructure"
)

// State is the record threaded through every step of a run.
//
// Values are plain Go values: strings, optional strings (nil), string slices
// and anything else that encodes to JSON. The executor never hands the live
// state to a handler or observer; they always receive a copy.
type State map[string]any

// Clone returns a copy of the state. Nested maps and slices are copied as
// well so that a holder of the clone cannot reach the original.
func (s State) Clone() State {
	if s == nil {
		return State{}
	}
	out := make(State, len(s))
	for k, v := range s {
		out[k] = cloneValue(v)
	}
	return out
}

// Merge returns a new state with update applied on top of s. Keys present in
// update overwrite keys in s; nothing is merged recursively.
func (s State) Merge(update State) State {
	out := s.Clone()
	for k, v := range update {
		out[k] = cloneValue(v)
	}
	return out
}

// Has reports whether field is present and not nil. A nil pointer (an unset
// *string) counts as absent; an empty string counts as present.
func (s State) Has(field string) bool {
	v, ok := s[field]
	return ok && !isNil(v)
}

// String returns the string value of field, or "" when it is missing or not a string.
func (s State) String(field string) string {
	switch v := s[field].(type) {
	case string:
		return v
	case *string:
		if v != nil {
			return *v
		}
	}
	return ""
}

// Strings returns field as a string slice. []any values are converted element
// wise; non-string elements are formatted with %v.
func (s State) Strings(field string) []string {
	switch v := s[field].(type) {
	case []string:
		return append([]string(nil), v...)
	case []any:
		out := make([]string, 0, len(v))
		for _, item := range v {
			if str, ok := item.(string); ok {
				out = append(out, str)
				continue
			}
			out = append(out, fmt.Sprint(item))
		}
		return out
	case string:
		return []string{v}
	}
	return nil
}

// Decode copies the state into out, which must be a pointer to a struct or
// map. Struct fields are matched by their json tag and scalar values are
// converted weakly (e.g. "3" into an int field).
func (s State) Decode(out any) error {
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:           out,
		TagName:          "json",
		WeaklyTypedInput: true,
		Squash:           true,
	})
	if err != nil {
		return fmt.Errorf("create state decoder: %w", err)
	}
	if err := dec.Decode(map[string]any(s)); err != nil {
		return fmt.Errorf("decode state: %w", err)
	}
	return nil
}

// compact drops nil values so that optional fields left unset do not trip
// type checks during schema validation.
func (s State) compact() map[string]any {
	out := make(map[string]any, len(s))
	for k, v := range s {
		if !isNil(v) {
			out[k] = v
		}
	}
	return out
}

func isNil(v any) bool {
	if v == nil {
		return true
	}
	rv := reflect.ValueOf(v)
	return rv.Kind() == reflect.Pointer && rv.IsNil()
}

func cloneValue(v any) any {
	switch t := v.(type) {
	case []string:
		return append([]string(nil), t...)
	case []any:
		out := make([]any, len(t))
		for i, item := range t {
			out[i] = cloneValue(item)
		}
		return out
	case map[string]any:
		out := make(map[string]any, len(t))
		for k, item := range t {
			out[k] = cloneValue(item)
		}
		return out
	case State:
		return t.Clone()
	default:
		return v
	}
}
