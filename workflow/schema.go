package workflow

import (
	"github.com/hupe1980/beeflow/internal/schema"
)

// Schema is a compiled JSON schema used to validate run input and output.
type Schema = schema.Schema

// FieldError is a single schema violation.
type FieldError = schema.ValidationError

// FieldErrors lists the schema violations of one document. It is the Cause of
// *ValidationError and *OutputValidationError.
type FieldErrors = schema.ValidationErrors

// SchemaFor reflects a schema from the struct type T. Fields are named by
// their json tags; fields without omitempty are required.
func SchemaFor[T any]() (*Schema, error) {
	var v T
	return schema.FromType(&v)
}

// MustSchemaFor is like SchemaFor but panics on error. It is intended for
// package level schema variables.
func MustSchemaFor[T any]() *Schema {
	s, err := SchemaFor[T]()
	if err != nil {
		panic(err)
	}
	return s
}

// NewSchema compiles a hand written JSON-schema document.
func NewSchema(doc map[string]any) (*Schema, error) {
	return schema.New(doc)
}

// SchemaFromJSON compiles a schema from raw JSON.
func SchemaFromJSON(data []byte) (*Schema, error) {
	return schema.FromJSON(data)
}
