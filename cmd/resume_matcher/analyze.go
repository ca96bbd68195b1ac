package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/jonathan/resume-matcher/internal/api"
	"github.com/jonathan/resume-matcher/internal/i18n"
	"github.com/jonathan/resume-matcher/internal/ingestion"
	"github.com/jonathan/resume-matcher/internal/report"
	"github.com/jonathan/resume-matcher/internal/session"
)

var analyzeCmd = &cobra.Command{
	Use:   "analyze",
	Short: "Analyze a résumé against up to three job descriptions",
	Long: `Uploads the résumé, submits the job descriptions, and prints the match report.

Job descriptions can be given inline (--job), from files (--job-file, .txt or .html),
or fetched from job posting URLs (--job-url). At most three are accepted in total.
With --download the optimized PDF is saved for each locale in --locales.`,
	RunE: runAnalyzeCmd,
}

var (
	analyzeResume     string
	analyzeJobs       []string
	analyzeJobFiles   []string
	analyzeJobURLs    []string
	analyzeUseBrowser bool
	analyzeDownload   bool
	analyzeLocales    string
	analyzeOut        string
	analyzeVerifyPDF  bool
)

func init() {
	analyzeCmd.Flags().StringVarP(&analyzeResume, "resume", "r", "", "Path to the résumé file (PDF or DOCX)")
	analyzeCmd.Flags().StringArrayVarP(&analyzeJobs, "job", "j", nil, "Job description text (repeatable)")
	analyzeCmd.Flags().StringArrayVar(&analyzeJobFiles, "job-file", nil, "Path to a job description file (repeatable)")
	analyzeCmd.Flags().StringArrayVar(&analyzeJobURLs, "job-url", nil, "URL of a job posting (repeatable)")
	analyzeCmd.Flags().BoolVar(&analyzeUseBrowser, "use-browser", false, "Use headless browser for SPA job pages (requires Chrome)")
	analyzeCmd.Flags().BoolVarP(&analyzeDownload, "download", "d", false, "Download the optimized PDF when the analysis succeeds")
	analyzeCmd.Flags().StringVar(&analyzeLocales, "locales", "", "Comma-separated locales to download (defaults to --locale)")
	analyzeCmd.Flags().StringVarP(&analyzeOut, "out", "o", "", "Output directory for downloads (overrides output_dir)")
	analyzeCmd.Flags().BoolVar(&analyzeVerifyPDF, "verify-pdf", false, "Reject downloads that are not readable PDFs")

	_ = analyzeCmd.MarkFlagRequired("resume")

	rootCmd.AddCommand(analyzeCmd)
}

// analyzeOptions is the flag-independent input to analyze
type analyzeOptions struct {
	ResumePath string
	Sources    []ingestion.Source
	UseBrowser bool
	Download   bool
	Locales    []i18n.Locale
}

func runAnalyzeCmd(cmd *cobra.Command, _ []string) error {
	cfg, err := resolveConfig(cmd)
	if err != nil {
		return err
	}
	if cmd.Flags().Changed("out") {
		cfg.OutputDir = analyzeOut
	}
	if cmd.Flags().Changed("verify-pdf") {
		cfg.VerifyPDF = analyzeVerifyPDF
	}
	if cmd.Flags().Changed("use-browser") {
		cfg.UseBrowser = analyzeUseBrowser
	}

	sources := collectSources(analyzeJobs, analyzeJobFiles, analyzeJobURLs)
	if len(sources) == 0 {
		return fmt.Errorf("at least one of --job, --job-file, or --job-url must be provided")
	}

	d, err := buildDeps(cmd.Context(), cfg, cmd.OutOrStdout())
	if err != nil {
		return err
	}
	defer d.Close()

	locales, err := parseLocalesFlag(analyzeLocales, d.locale)
	if err != nil {
		return err
	}

	return analyze(cmd.Context(), d, analyzeOptions{
		ResumePath: analyzeResume,
		Sources:    sources,
		UseBrowser: cfg.UseBrowser,
		Download:   analyzeDownload,
		Locales:    locales,
	})
}

// collectSources orders inline texts, then files, then URLs
func collectSources(texts, files, urls []string) []ingestion.Source {
	sources := make([]ingestion.Source, 0, len(texts)+len(files)+len(urls))
	for _, t := range texts {
		sources = append(sources, ingestion.TextSource(t))
	}
	for _, f := range files {
		sources = append(sources, ingestion.FileSource(f))
	}
	for _, u := range urls {
		sources = append(sources, ingestion.URLSource(u))
	}
	return sources
}

// parseLocalesFlag parses --locales, defaulting to fallback when empty
func parseLocalesFlag(raw string, fallback i18n.Locale) ([]i18n.Locale, error) {
	if raw == "" {
		return []i18n.Locale{fallback}, nil
	}
	locales, invalid := i18n.ParseLocales(raw)
	if len(invalid) > 0 {
		return nil, fmt.Errorf("unsupported locales: %v (supported: %v)", invalid, i18n.Locales())
	}
	if len(locales) == 0 {
		return []i18n.Locale{fallback}, nil
	}
	return locales, nil
}

func analyze(ctx context.Context, d *deps, opts analyzeOptions) error {
	upload, err := api.LoadUpload(opts.ResumePath)
	if err != nil {
		return err
	}

	descs, err := ingestion.Collect(ctx, opts.Sources, ingestion.Options{
		UseBrowser: opts.UseBrowser,
		Verbose:    d.cfg.Verbose,
	})
	if err != nil {
		return fmt.Errorf("failed to collect job descriptions: %w", err)
	}
	if d.cfg.Verbose {
		d.printer.PrintDescriptions(descs)
	}

	unsubscribe := d.manager.Subscribe(d.printer.PrintProgress)
	snap, err := d.manager.Start(ctx, session.Input{
		Resume:          upload,
		JobDescriptions: ingestion.Texts(descs),
		Locale:          d.locale,
	})
	unsubscribe()
	if err != nil {
		return err
	}

	d.printer.PrintReport(report.Build(snap.Result, snap.View))
	if d.cfg.Verbose {
		d.printer.PrintResume(snap.View)
	}

	if !opts.Download {
		return nil
	}
	return downloadArtifacts(ctx, d, snap.ResumeID, snap.JobID, opts.Locales)
}
