// Command validate_kb checks the knowledge base against its JSON Schema.
// It runs as a CI gate from the repository root or any directory below it:
// exit status 0 means the data conforms, 1 means a violation or any other
// error.
//
// Usage:
//
//	go run ./cmd/tools/validate_kb
package main

import (
	"io"
	"os"

	"github.com/jonathan/knowledge-dashboard/internal/config"
	"github.com/jonathan/knowledge-dashboard/internal/gate"
	"github.com/jonathan/knowledge-dashboard/internal/schemas"
)

func main() {
	os.Exit(run(os.Stdout))
}

// run validates the repo's knowledge base file and returns the exit code.
func run(w io.Writer) int {
	dataPath := schemas.ResolvePath(config.DefaultDataPath)
	schemaPath := schemas.ResolvePath(config.DefaultSchemaPath)
	return gate.Run(w, dataPath, schemaPath)
}
