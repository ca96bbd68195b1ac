package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/jonathan/resume-matcher/internal/server"
)

var (
	servePort int
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the local HTTP API",
	Long:  `Start an HTTP server that runs analysis sessions, streams their progress, and serves downloads and translations to a browser UI.`,
	RunE:  runServe,
}

func init() {
	serveCmd.Flags().IntVar(&servePort, "port", 8080, "Port to listen on")
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, _ []string) error {
	d, err := commandDeps(cmd)
	if err != nil {
		return err
	}
	defer d.Close()

	srv, err := server.New(server.Config{
		Port:       servePort,
		Manager:    d.manager,
		Downloader: d.downloader,
		Resolver:   d.resolver,
		Upstream:   d.client,
	})
	if err != nil {
		return fmt.Errorf("failed to create server: %w", err)
	}

	return srv.Start()
}
