package knowledge

import "fmt"

// LoadError represents a failure to read or parse the local knowledge base copy.
// Unlike remote failures it is never absorbed by the loader.
type LoadError struct {
	Path    string
	Message string
	Cause   error
}

func (e *LoadError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("load error: %s %s: %v", e.Message, e.Path, e.Cause)
	}
	return fmt.Sprintf("load error: %s %s", e.Message, e.Path)
}

func (e *LoadError) Unwrap() error {
	return e.Cause
}
