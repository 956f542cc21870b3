package main

import (
	"github.com/jonathan/knowledge-dashboard/internal/gate"
	"github.com/spf13/cobra"
)

var validateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Validate the knowledge base file against its schema",
	Long:  "Checks the local knowledge base JSON file against the JSON Schema and exits 0 when it conforms, 1 otherwise.",
	Args:  cobra.NoArgs,
	RunE:  runValidate,
}

func init() {
	rootCmd.AddCommand(validateCmd)
}

func runValidate(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	if code := gate.Run(cmd.OutOrStdout(), cfg.DataPath, cfg.SchemaPath); code != gate.ExitOK {
		return &exitCodeError{code: code}
	}
	return nil
}
