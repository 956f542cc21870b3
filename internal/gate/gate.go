// Package gate runs the knowledge base schema check used as a pass/fail
// step in builds: read the data and schema files, validate, print a
// human-readable verdict and map it to a process exit code.
package gate

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/jonathan/knowledge-dashboard/internal/schemas"
)

// Exit codes returned by Run.
const (
	ExitOK     = 0
	ExitFailed = 1
)

// OutcomeKind classifies a validation run.
type OutcomeKind int

const (
	// OutcomeSuccess means the data conforms to the schema.
	OutcomeSuccess OutcomeKind = iota
	// OutcomeFailure means the data violates the schema.
	OutcomeFailure
	// OutcomeError means the run could not complete (I/O, parse or evaluator error).
	OutcomeError
)

func (k OutcomeKind) String() string {
	switch k {
	case OutcomeSuccess:
		return "success"
	case OutcomeFailure:
		return "failure"
	case OutcomeError:
		return "error"
	default:
		return fmt.Sprintf("OutcomeKind(%d)", int(k))
	}
}

// Outcome is the result of one validation run. Path is set only for
// OutcomeFailure and locates the first violation.
type Outcome struct {
	Kind    OutcomeKind
	Message string
	Path    []any
}

// ExitCode maps the outcome to a process exit status.
func (o Outcome) ExitCode() int {
	if o.Kind == OutcomeSuccess {
		return ExitOK
	}
	return ExitFailed
}

// Check reads dataPath and schemaPath and validates one against the other.
// Only the first violation is reported.
func Check(dataPath, schemaPath string) Outcome {
	data, err := readJSON(dataPath)
	if err != nil {
		return Outcome{Kind: OutcomeError, Message: err.Error()}
	}

	schema, err := readJSON(schemaPath)
	if err != nil {
		return Outcome{Kind: OutcomeError, Message: err.Error()}
	}

	return Evaluate(schema, data)
}

// Evaluate validates an already decoded document against a decoded schema.
func Evaluate(schema, data any) Outcome {
	err := schemas.ValidateDocument(schema, data)
	if err == nil {
		return Outcome{Kind: OutcomeSuccess}
	}

	var validationErr *schemas.ValidationError
	if errors.As(err, &validationErr) {
		first := validationErr.First()
		return Outcome{Kind: OutcomeFailure, Message: first.Message, Path: first.Path}
	}

	return Outcome{Kind: OutcomeError, Message: err.Error()}
}

// Report writes the verdict for o to w.
//
//nolint:errcheck // writing to stdout; errors are not recoverable
func Report(w io.Writer, o Outcome) {
	switch o.Kind {
	case OutcomeSuccess:
		fmt.Fprintln(w, "✅ Validation passed: data conforms to the schema.")
	case OutcomeFailure:
		fmt.Fprintf(w, "❌ Validation failed: %s\n", o.Message)
		fmt.Fprintf(w, "Path: %s\n", schemas.FormatPath(o.Path))
	default:
		fmt.Fprintf(w, "💥 Unexpected error: %s\n", o.Message)
	}
}

// Run checks the data file against the schema file, reports the verdict to
// w and returns the exit code.
func Run(w io.Writer, dataPath, schemaPath string) int {
	outcome := Check(dataPath, schemaPath)
	Report(w, outcome)
	return outcome.ExitCode()
}

func readJSON(path string) (any, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}

	var value any
	if err := json.Unmarshal(content, &value); err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", path, err)
	}
	return value, nil
}
