// Package schemas provides JSON Schema validation for the knowledge base.
package schemas

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/xeipuuv/gojsonschema"
)

// contextSeparator joins context segments so that object keys containing
// dots still split back cleanly.
const contextSeparator = "\x1f"

// rootContext is the head gojsonschema gives the document root.
const rootContext = "(root)"

// ResolvePath locates relativePath from the working directory or the nearest
// parent directory that contains it, so repo-relative data and schema paths
// work from any subdirectory of the repo. Absolute paths, and relative paths
// found nowhere, are returned unchanged.
func ResolvePath(relativePath string) string {
	if filepath.IsAbs(relativePath) {
		return relativePath
	}

	dir, err := os.Getwd()
	if err != nil {
		return relativePath
	}
	for {
		candidate := filepath.Join(dir, relativePath)
		if _, err := os.Stat(candidate); err == nil {
			return candidate
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return relativePath
		}
		dir = parent
	}
}

// ValidationError represents a schema validation failure with the located violations,
// in the order the evaluator reported them.
type ValidationError struct {
	Errors []FieldError
}

// FieldError represents a single violation.
type FieldError struct {
	Field   string // dotted location, "(root)" for the document itself
	Path    []any  // object keys (string) and array indices (int) from the root
	Type    string // evaluator rule name, e.g. "required"
	Message string
}

// SchemaLoadError represents errors loading or parsing the schema itself
type SchemaLoadError struct {
	Path    string
	Message string
	Cause   error
}

func (e *SchemaLoadError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("failed to load schema %s: %s: %v", e.Path, e.Message, e.Cause)
	}
	return fmt.Sprintf("failed to load schema %s: %s", e.Path, e.Message)
}

func (e *SchemaLoadError) Unwrap() error {
	return e.Cause
}

func (ve *ValidationError) Error() string {
	var sb strings.Builder
	sb.WriteString("validation failed:\n")
	for i, err := range ve.Errors {
		sb.WriteString(fmt.Sprintf("  %d. %s: %s\n", i+1, err.Field, err.Message))
	}
	return sb.String()
}

// First returns the first reported violation.
func (ve *ValidationError) First() FieldError {
	if len(ve.Errors) == 0 {
		return FieldError{Field: rootContext, Path: []any{}}
	}
	return ve.Errors[0]
}

// ValidateJSON validates a JSON file against a JSON Schema file
func ValidateJSON(schemaPath, jsonPath string) error {
	schemaAbsPath, err := filepath.Abs(schemaPath)
	if err != nil {
		return fmt.Errorf("failed to resolve schema path: %w", err)
	}

	jsonAbsPath, err := filepath.Abs(jsonPath)
	if err != nil {
		return fmt.Errorf("failed to resolve JSON path: %w", err)
	}

	if _, err := os.Stat(schemaAbsPath); os.IsNotExist(err) {
		return fmt.Errorf("schema file not found: %s", schemaAbsPath)
	}

	if _, err := os.Stat(jsonAbsPath); os.IsNotExist(err) {
		return fmt.Errorf("JSON file not found: %s", jsonAbsPath)
	}

	content, err := os.ReadFile(jsonAbsPath)
	if err != nil {
		return fmt.Errorf("failed to read JSON file: %w", err)
	}
	var instance any
	if err := json.Unmarshal(content, &instance); err != nil {
		return fmt.Errorf("failed to parse JSON file %s: %w", jsonAbsPath, err)
	}

	// The file loader lets relative $ref entries resolve next to the schema.
	schemaLoader := gojsonschema.NewReferenceLoader("file://" + filepath.ToSlash(schemaAbsPath))
	return validate(schemaLoader, instance, schemaAbsPath)
}

// ValidateJSONString validates JSON string content against schema string content
func ValidateJSONString(schemaContent, jsonContent string) error {
	var instance any
	if err := json.Unmarshal([]byte(jsonContent), &instance); err != nil {
		return fmt.Errorf("failed to parse JSON content: %w", err)
	}
	return validate(gojsonschema.NewStringLoader(schemaContent), instance, "(string schema)")
}

// ValidateDocument validates an already decoded instance against an already
// decoded schema.
func ValidateDocument(schema, instance any) error {
	return validate(gojsonschema.NewGoLoader(schema), instance, "(document schema)")
}

func validate(schemaLoader gojsonschema.JSONLoader, instance any, schemaName string) error {
	result, err := gojsonschema.Validate(schemaLoader, gojsonschema.NewGoLoader(instance))
	if err != nil {
		return &SchemaLoadError{
			Path:    schemaName,
			Message: "schema validation failed during load",
			Cause:   err,
		}
	}

	if result.Valid() {
		return nil
	}

	validationErr := &ValidationError{
		Errors: make([]FieldError, 0, len(result.Errors())),
	}

	for _, desc := range result.Errors() {
		field := desc.Field()
		if field == "" {
			field = rootContext
		}
		validationErr.Errors = append(validationErr.Errors, FieldError{
			Field:   field,
			Path:    structuralPath(desc.Context(), instance),
			Type:    desc.Type(),
			Message: desc.Description(),
		})
	}

	return validationErr
}

// structuralPath turns an evaluator context into root-relative keys and
// indices. Segments are resolved against the instance so that array
// positions come back as ints.
func structuralPath(ctx *gojsonschema.JsonContext, instance any) []any {
	path := []any{}
	if ctx == nil {
		return path
	}

	segments := strings.Split(ctx.String(contextSeparator), contextSeparator)
	if len(segments) > 0 && segments[0] == rootContext {
		segments = segments[1:]
	}

	node := instance
	for _, seg := range segments {
		switch n := node.(type) {
		case []any:
			if i, err := strconv.Atoi(seg); err == nil && i >= 0 && i < len(n) {
				path = append(path, i)
				node = n[i]
				continue
			}
			path = append(path, seg)
			node = nil
		case map[string]any:
			path = append(path, seg)
			node = n[seg]
		default:
			path = append(path, seg)
			node = nil
		}
	}

	return path
}

// FormatPath renders a structural path as a JSON array, e.g. ["topics",0,"title"].
func FormatPath(path []any) string {
	if path == nil {
		path = []any{}
	}
	b, err := json.Marshal(path)
	if err != nil {
		return fmt.Sprint(path)
	}
	return string(b)
}
