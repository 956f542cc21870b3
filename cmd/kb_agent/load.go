package main

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/jonathan/knowledge-dashboard/internal/fetch"
	"github.com/jonathan/knowledge-dashboard/internal/knowledge"
	"github.com/spf13/cobra"
)

var loadCmd = &cobra.Command{
	Use:   "load",
	Short: "Load the knowledge base",
	Long:  "Fetches the knowledge base from --url (or the configured source), falling back to the local copy, and prints it as JSON.",
	Args:  cobra.NoArgs,
	RunE:  runLoad,
}

var (
	loadURL     string
	loadOutFile string
)

func init() {
	loadCmd.Flags().StringVarP(&loadURL, "url", "u", "", "Remote knowledge base URL (overrides config)")
	loadCmd.Flags().StringVarP(&loadOutFile, "out", "o", "", "Write the document to this file instead of stdout")
	rootCmd.AddCommand(loadCmd)
}

func runLoad(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	sourceURL := cfg.SourceURL
	if loadURL != "" {
		sourceURL = loadURL
	}

	loader := knowledge.NewLoader(fetch.NewClient(cfg.Timeout()), cfg.DataPath, newLogger(cmd.ErrOrStderr()))
	doc, err := loader.Load(cmd.Context(), sourceURL)
	if err != nil {
		return fmt.Errorf("failed to load knowledge base: %w", err)
	}
	out := cmd.OutOrStdout()
	if doc == nil {
		_, _ = fmt.Fprintln(out, "no knowledge base available")
		return nil
	}

	jsonBytes, err := json.MarshalIndent(doc.Value, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal knowledge base: %w", err)
	}

	if loadOutFile == "" {
		_, _ = fmt.Fprintln(out, string(jsonBytes))
		return nil
	}

	if err := os.MkdirAll(filepath.Dir(loadOutFile), 0755); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}
	if err := os.WriteFile(loadOutFile, jsonBytes, 0644); err != nil {
		return fmt.Errorf("failed to write output file: %w", err)
	}

	_, _ = fmt.Fprintf(out, "Loaded knowledge base from %s source\n", doc.Source)
	_, _ = fmt.Fprintf(out, "Output: %s\n", loadOutFile)
	return nil
}
