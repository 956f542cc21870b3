package main

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/jonathan/knowledge-dashboard/internal/config"
	"github.com/stretchr/testify/require"
)

// writeWorkspace creates data/knowledge_apcs_python.json and data/schema.json
// under a temp dir and returns the dir. Empty content skips the file.
func writeWorkspace(t *testing.T, data, schema string) string {
	t.Helper()
	dir := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "data"), 0755))
	if data != "" {
		require.NoError(t, os.WriteFile(filepath.Join(dir, config.DefaultDataPath), []byte(data), 0644))
	}
	if schema != "" {
		require.NoError(t, os.WriteFile(filepath.Join(dir, config.DefaultSchemaPath), []byte(schema), 0644))
	}
	return dir
}

// runIn executes the CLI in-process with dir as the working directory and
// returns the combined output and exit code.
func runIn(t *testing.T, dir string, args ...string) (string, int) {
	t.Helper()
	t.Chdir(dir)
	for _, key := range []string{config.EnvSourceURL, config.EnvDataPath, config.EnvSchemaPath, config.EnvFetchTimeout, config.EnvPort} {
		t.Setenv(key, "")
	}

	configFile, loadURL, loadOutFile, servePort = "", "", "", 0
	t.Cleanup(func() {
		configFile, loadURL, loadOutFile, servePort = "", "", "", 0
	})

	var output bytes.Buffer
	code := execute(args, &output, &output)
	return output.String(), code
}
