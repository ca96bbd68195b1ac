package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/jonathan/resume-matcher/internal/artifact"
	"github.com/jonathan/resume-matcher/internal/i18n"
)

var downloadCmd = &cobra.Command{
	Use:   "download",
	Short: "Download the optimized résumé PDF for an analyzed résumé and job",
	RunE:  runDownloadCmd,
}

var (
	downloadResumeID string
	downloadJobID    string
	downloadLocales  string
	downloadOut      string
	downloadVerify   bool
)

func init() {
	downloadCmd.Flags().StringVar(&downloadResumeID, "resume-id", "", "Résumé identifier returned by the upload")
	downloadCmd.Flags().StringVar(&downloadJobID, "job-id", "", "Job identifier returned by the job submission")
	downloadCmd.Flags().StringVar(&downloadLocales, "locales", "", "Comma-separated locales to download (defaults to --locale)")
	downloadCmd.Flags().StringVarP(&downloadOut, "out", "o", "", "Output directory (overrides output_dir)")
	downloadCmd.Flags().BoolVar(&downloadVerify, "verify-pdf", false, "Reject downloads that are not readable PDFs")

	_ = downloadCmd.MarkFlagRequired("resume-id")
	_ = downloadCmd.MarkFlagRequired("job-id")

	rootCmd.AddCommand(downloadCmd)
}

func runDownloadCmd(cmd *cobra.Command, _ []string) error {
	cfg, err := resolveConfig(cmd)
	if err != nil {
		return err
	}
	if cmd.Flags().Changed("out") {
		cfg.OutputDir = downloadOut
	}
	if cmd.Flags().Changed("verify-pdf") {
		cfg.VerifyPDF = downloadVerify
	}

	d, err := buildDeps(cmd.Context(), cfg, cmd.OutOrStdout())
	if err != nil {
		return err
	}
	defer d.Close()

	locales, err := parseLocalesFlag(downloadLocales, d.locale)
	if err != nil {
		return err
	}
	return downloadArtifacts(cmd.Context(), d, downloadResumeID, downloadJobID, locales)
}

// downloadArtifacts keeps the server's file name for a single locale and
// suffixes each file with its locale otherwise
func downloadArtifacts(ctx context.Context, d *deps, resumeID, jobID string, locales []i18n.Locale) error {
	if resumeID == "" || jobID == "" {
		return fmt.Errorf("both a résumé id and a job id are required to download")
	}

	var saved []*artifact.Saved
	if len(locales) == 1 {
		s, err := d.downloader.Download(ctx, resumeID, jobID, locales[0])
		if err != nil {
			return err
		}
		saved = []*artifact.Saved{s}
	} else {
		var err error
		saved, err = d.downloader.DownloadLocales(ctx, resumeID, jobID, locales)
		if err != nil {
			return err
		}
	}
	d.printer.PrintSaved(saved)
	return nil
}
