package main

import (
	"context"
	"fmt"
	"io"
	"log"

	"github.com/spf13/cobra"

	"github.com/jonathan/resume-matcher/internal/api"
	"github.com/jonathan/resume-matcher/internal/artifact"
	"github.com/jonathan/resume-matcher/internal/config"
	"github.com/jonathan/resume-matcher/internal/i18n"
	"github.com/jonathan/resume-matcher/internal/observability"
	"github.com/jonathan/resume-matcher/internal/prefs"
	"github.com/jonathan/resume-matcher/internal/session"
)

const userAgent = "resume-matcher-cli/1.0"

// resolveConfig layers the config file, the environment, and explicitly set flags
func resolveConfig(cmd *cobra.Command) (config.Config, error) {
	var cfg config.Config
	if configPath != "" {
		loaded, err := config.LoadConfig(configPath)
		if err != nil {
			return cfg, fmt.Errorf("failed to load config: %w", err)
		}
		cfg = *loaded
	}

	if err := cfg.ApplyEnv(); err != nil {
		return cfg, err
	}

	// Only override if the flag was explicitly set
	flags := cmd.Flags()
	if flags.Changed("api-url") {
		cfg.APIURL = apiURL
	}
	if flags.Changed("locale") {
		cfg.Locale = localeFlag
	}
	if flags.Changed("verbose") {
		cfg.Verbose = verbose
	}

	cfg = cfg.MergeWithDefaults(config.Defaults())
	if err := cfg.Validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// deps is everything a command needs, built from one Config
type deps struct {
	cfg        config.Config
	store      prefs.Store
	resolver   *i18n.Resolver
	locale     i18n.Locale
	client     *api.Client
	manager    *session.Manager
	downloader *artifact.Downloader
	printer    *observability.Printer
}

func buildDeps(ctx context.Context, cfg config.Config, out io.Writer) (*deps, error) {
	store, err := prefs.Open(ctx, prefs.Options{
		Backend:       prefs.Backend(cfg.PrefsBackend),
		Path:          cfg.PrefsPath,
		DatabaseURL:   cfg.DatabaseURL,
		RedisAddr:     cfg.RedisAddr,
		RedisPassword: cfg.RedisPassword,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to open preferences: %w", err)
	}

	d := &deps{cfg: cfg, store: store}
	d.resolver = i18n.NewResolver(ctx, i18n.MustLoadTable(), store)

	// --locale applies to this invocation only; "locale set" persists
	d.locale = d.resolver.Current()
	if l, ok := i18n.ParseLocale(cfg.Locale); ok {
		d.locale = l
	}

	var signer *api.TokenSigner
	if cfg.ServiceSecret != "" {
		signer, err = api.NewTokenSigner(cfg.ServiceSecret, cfg.ClientID)
		if err != nil {
			d.Close()
			return nil, err
		}
	}

	d.client, err = api.New(api.Options{
		BaseURL:   cfg.APIURL,
		Timeout:   cfg.Timeout.Std(),
		Signer:    signer,
		UserAgent: userAgent,
	})
	if err != nil {
		d.Close()
		return nil, err
	}

	d.manager = session.NewManager(d.client, d.resolver, session.Options{
		StepTimeout:      cfg.StepTimeout.Std(),
		CancelSuperseded: true,
	})

	sink, err := buildSink(ctx, cfg)
	if err != nil {
		d.Close()
		return nil, err
	}
	d.downloader = artifact.NewDownloader(d.client, sink, artifact.Options{Verify: cfg.VerifyPDF})
	d.printer = observability.NewPrinter(out, d.resolver, d.locale)

	if cfg.Verbose {
		log.Printf("[cli] api %s, locale %s, prefs %s", d.client.BaseURL(), d.locale, cfg.PrefsBackend)
	}
	return d, nil
}

// buildSink delivers to S3 when a bucket is configured, else to the output directory
func buildSink(ctx context.Context, cfg config.Config) (artifact.Sink, error) {
	if cfg.S3Bucket == "" {
		return artifact.DirSink{Dir: cfg.OutputDir}, nil
	}
	sink, err := artifact.NewS3Sink(ctx, artifact.S3Options{
		Bucket:    cfg.S3Bucket,
		Prefix:    cfg.S3Prefix,
		Region:    cfg.S3Region,
		Endpoint:  cfg.S3Endpoint,
		AccessKey: cfg.S3AccessKey,
		SecretKey: cfg.S3SecretKey,
	})
	if err != nil {
		return nil, err
	}
	return sink, nil
}

// Close releases the preferences store
func (d *deps) Close() {
	if d.store == nil {
		return
	}
	if err := d.store.Close(); err != nil {
		log.Printf("[cli] failed to close preferences: %v", err)
	}
}

// commandDeps resolves configuration and builds deps for cmd
func commandDeps(cmd *cobra.Command) (*deps, error) {
	cfg, err := resolveConfig(cmd)
	if err != nil {
		return nil, err
	}
	return buildDeps(cmd.Context(), cfg, cmd.OutOrStdout())
}
