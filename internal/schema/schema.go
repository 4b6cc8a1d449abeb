// Package schema wraps JSON-schema reflection and validation so the rest of
// the module can describe and check shapes (workflow state, tool arguments,
// structured model output) without talking to the schema libraries directly.
package schema

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync/atomic"

	"github.com/invopop/jsonschema"
	sjsonschema "github.com/santhosh-tekuri/jsonschema/v6"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

// ValidationError describes a single schema violation.
type ValidationError struct {
	Field   string `json:"field"`   // JSON pointer of the offending value ("" for the root)
	Message string `json:"message"` // Human-readable error message
}

// Error implements the error interface for ValidationError.
func (e *ValidationError) Error() string {
	if e.Field == "" {
		return fmt.Sprintf("validation error: %s", e.Message)
	}
	return fmt.Sprintf("validation error for field '%s': %s", e.Field, e.Message)
}

// ValidationErrors is the list of leaf violations reported for one document.
type ValidationErrors []*ValidationError

func (e ValidationErrors) Error() string {
	msgs := make([]string, len(e))
	for i, v := range e {
		msgs[i] = v.Error()
	}
	return strings.Join(msgs, "; ")
}

// Schema is a compiled JSON schema together with its source document.
type Schema struct {
	doc      map[string]any
	compiled *sjsonschema.Schema
}

var (
	resourceSeq atomic.Uint64
	printer     = message.NewPrinter(language.English)
)

// New compiles a schema from a JSON-schema document. The document may use any
// Go representation that marshals to JSON (e.g. []string for "required").
func New(doc map[string]any) (*Schema, error) {
	normalized, err := normalize(doc)
	if err != nil {
		return nil, fmt.Errorf("normalize schema: %w", err)
	}

	url := fmt.Sprintf("schema-%d.json", resourceSeq.Add(1))

	c := sjsonschema.NewCompiler()
	if err := c.AddResource(url, normalized); err != nil {
		return nil, fmt.Errorf("add schema resource: %w", err)
	}

	compiled, err := c.Compile(url)
	if err != nil {
		return nil, fmt.Errorf("compile schema: %w", err)
	}

	return &Schema{doc: doc, compiled: compiled}, nil
}

// FromJSON compiles a schema from raw JSON bytes.
func FromJSON(data []byte) (*Schema, error) {
	var doc map[string]any
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("unmarshal schema: %w", err)
	}
	return New(doc)
}

// FromType reflects the schema of v's type and compiles it.
func FromType(v any) (*Schema, error) {
	doc, err := Reflect(v)
	if err != nil {
		return nil, err
	}
	return New(doc)
}

// Document returns the schema document.
func (s *Schema) Document() map[string]any { return s.doc }

// JSON returns the indented JSON form of the schema document.
func (s *Schema) JSON() ([]byte, error) { return json.MarshalIndent(s.doc, "", "  ") }

// Validate checks v against the schema. v is converted through JSON first so
// typed Go values ([]string, structs, ints) are accepted.
func (s *Schema) Validate(v any) error {
	inst, err := normalize(v)
	if err != nil {
		return ValidationErrors{{Message: fmt.Sprintf("value is not JSON encodable: %v", err)}}
	}

	err = s.compiled.Validate(inst)
	if err == nil {
		return nil
	}

	var ve *sjsonschema.ValidationError
	if !errors.As(err, &ve) {
		return ValidationErrors{{Message: err.Error()}}
	}

	var errs ValidationErrors
	for _, leaf := range leaves(ve) {
		field := ""
		if len(leaf.InstanceLocation) > 0 {
			field = "/" + strings.Join(leaf.InstanceLocation, "/")
		}
		errs = append(errs, &ValidationError{Field: field, Message: leaf.ErrorKind.LocalizedString(printer)})
	}
	return errs
}

// Reflect builds a JSON-schema document from the type of v. Structs are
// expanded inline; fields without `omitempty` are required. Additional
// properties stay allowed so a schema can describe a subset of a larger record.
func Reflect(v any) (map[string]any, error) {
	r := &jsonschema.Reflector{
		DoNotReference:            true,
		ExpandedStruct:            true,
		AllowAdditionalProperties: true,
	}

	data, err := json.Marshal(r.Reflect(v))
	if err != nil {
		return nil, fmt.Errorf("marshal schema: %w", err)
	}

	var doc map[string]any
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("unmarshal schema: %w", err)
	}
	delete(doc, "$schema")
	delete(doc, "$id")

	return doc, nil
}

func normalize(v any) (any, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	return sjsonschema.UnmarshalJSON(bytes.NewReader(data))
}

func leaves(ve *sjsonschema.ValidationError) []*sjsonschema.ValidationError {
	if len(ve.Causes) == 0 {
		return []*sjsonschema.ValidationError{ve}
	}
	var out []*sjsonschema.ValidationError
	for _, c := range ve.Causes {
		out = append(out, leaves(c)...)
	}
	return out
}
