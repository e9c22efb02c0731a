// Package jsonschema provides a small wrapper around JSON Schema validation
// for configuration values decoded from YAML or JSON.
package jsonschema

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/santhosh-tekuri/jsonschema/v5"
)

// ValidationErrors represents a collection of validation errors.
type ValidationErrors []error

// Error implements the error interface for ValidationErrors.
func (ve ValidationErrors) Error() string {
	if len(ve) == 0 {
		return ""
	}

	var sb strings.Builder
	for i, err := range ve {
		if i > 0 {
			sb.WriteString("; ")
		}
		sb.WriteString(err.Error())
	}
	return sb.String()
}

// Validate validates a decoded value (e.g. the result of yaml.Unmarshal into
// an interface{}) against a JSON Schema. The value is round-tripped through
// encoding/json so the validator sees canonical JSON types regardless of the
// decoder that produced it.
//
// Returns nil when the value is valid, ValidationErrors describing each
// violation when it is not, or another error when the schema itself is
// broken or the value cannot be represented as JSON.
func Validate(value interface{}, schemaStr string) error {
	compiler := jsonschema.NewCompiler()
	if err := compiler.AddResource("schema.json", strings.NewReader(schemaStr)); err != nil {
		return fmt.Errorf("invalid schema: %w", err)
	}
	schema, err := compiler.Compile("schema.json")
	if err != nil {
		return fmt.Errorf("invalid schema: %w", err)
	}

	raw, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("value is not representable as JSON: %w", err)
	}
	var canonical interface{}
	if err := json.Unmarshal(raw, &canonical); err != nil {
		return fmt.Errorf("invalid JSON: %w", err)
	}

	if err := schema.Validate(canonical); err != nil {
		var ve *jsonschema.ValidationError
		if ok := asValidationError(err, &ve); ok {
			return flatten(ve)
		}
		return err
	}
	return nil
}

func asValidationError(err error, target **jsonschema.ValidationError) bool {
	ve, ok := err.(*jsonschema.ValidationError)
	if ok {
		*target = ve
	}
	return ok
}

// flatten converts the validator's error tree into a flat list of leaf
// violations with their instance locations.
func flatten(ve *jsonschema.ValidationError) ValidationErrors {
	var errs ValidationErrors
	var walk func(e *jsonschema.ValidationError)
	walk = func(e *jsonschema.ValidationError) {
		if len(e.Causes) == 0 {
			loc := e.InstanceLocation
			if loc == "" {
				loc = "/"
			}
			errs = append(errs, fmt.Errorf("%s: %s", loc, e.Message))
			return
		}
		for _, cause := range e.Causes {
			walk(cause)
		}
	}
	walk(ve)
	return errs
}
