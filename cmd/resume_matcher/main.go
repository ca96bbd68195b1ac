// Package main provides the resume_matcher CLI for the résumé analysis service.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "resume_matcher",
	Short: "Résumé-to-job matching client",
	Long: `resume_matcher uploads a résumé and job descriptions to the analysis service,
reports the match score and suggestions, and downloads the optimized PDF.

Configuration is read from --config, then the environment, then flags.`,
	SilenceUsage: true,
}

var (
	configPath string
	apiURL     string
	localeFlag string
	verbose    bool
)

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "Path to config.json file (values can be overridden by other flags)")
	rootCmd.PersistentFlags().StringVar(&apiURL, "api-url", "", "Analysis service base URL (defaults to RESUME_MATCHER_API_URL)")
	rootCmd.PersistentFlags().StringVarP(&localeFlag, "locale", "l", "", "Language for output and generated content (en, pt, es)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Print detailed debug information")
}

func main() {
	// Load .env file if it exists
	_ = godotenv.Load()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	err := rootCmd.ExecuteContext(ctx)
	stop()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
