package main

import (
	"github.com/jonathan/knowledge-dashboard/internal/fetch"
	"github.com/jonathan/knowledge-dashboard/internal/knowledge"
	"github.com/jonathan/knowledge-dashboard/internal/server"
	"github.com/spf13/cobra"
)

var servePort int

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the knowledge base API server",
	Long:  `Start an HTTP server that serves the knowledge base and its validation status to the dashboard.`,
	Args:  cobra.NoArgs,
	RunE:  runServe,
}

func init() {
	serveCmd.Flags().IntVar(&servePort, "port", 0, "Port to listen on (overrides config)")
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if servePort != 0 {
		cfg.Port = servePort
	}

	logger := newLogger(cmd.ErrOrStderr())
	loader := knowledge.NewLoader(fetch.NewClient(cfg.Timeout()), cfg.DataPath, logger)

	return server.New(*cfg, loader, logger).Start()
}
