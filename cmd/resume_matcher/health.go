package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

var healthCmd = &cobra.Command{
	Use:   "health",
	Short: "Check that the analysis service is reachable",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		d, err := commandDeps(cmd)
		if err != nil {
			return err
		}
		defer d.Close()

		status, err := d.client.Health(cmd.Context())
		if err != nil {
			return fmt.Errorf("health check failed: %w", err)
		}
		_, err = fmt.Fprintf(cmd.OutOrStdout(), "%s %s (%s) at %s\n", status.Service, status.Version, status.Status, d.client.BaseURL())
		return err
	},
}

func init() {
	rootCmd.AddCommand(healthCmd)
}
