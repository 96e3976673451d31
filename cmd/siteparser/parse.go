package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/nao1215/siteparser/internal/config"
	"github.com/nao1215/siteparser/internal/database"
	logpkg "github.com/nao1215/siteparser/internal/log"
	"github.com/nao1215/siteparser/internal/parser"
	"github.com/nao1215/siteparser/internal/report"
)

// NewParseCmd creates the parse command.
func NewParseCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "parse <url> [url...]",
		Short: "Crawl a site and print its contact data as JSON",
		Long: `Parse crawls the pages reachable from the start URL, staying on its
registered domain, and prints the harvested emails and phone numbers.

Examples:
  # Crawl one site with the defaults (start page only)
  siteparser parse https://example.com

  # Follow links two levels deep with pretty-printed output
  siteparser parse --max-depth 2 --pretty https://example.com

  # Use Russian phone parsing rules for numbers without a country code
  siteparser parse --region RU https://example.ru

  # Load settings from a TOML file, write a Markdown report to a file
  siteparser parse --config crawl.toml --markdown -o report.md https://example.com

Configuration precedence, lowest to highest: built-in defaults, config
file (--config or PARSER_CONFIG_FILE), PARSER_* environment variables,
command-line flags.`,
		Args: cobra.MinimumNArgs(1),
		RunE: runParseCmd,
	}

	// Output flags
	cmd.Flags().BoolP("pretty", "P", false, "Indent the JSON output")
	cmd.Flags().BoolP("markdown", "m", false, "Output a Markdown report instead of JSON")
	cmd.Flags().StringP("output", "o", "", "Write the report to a file instead of stdout")
	cmd.Flags().Bool("diagnostics", false, "Include crawl diagnostics in the result")

	// Configuration sources
	cmd.Flags().StringP("config", "c", "", "Config file path (TOML or JSON)")
	cmd.Flags().String("site-config", "", "Per-site overrides file (default: .siteparser in current or home directory)")

	// Crawl budgets
	cmd.Flags().Float64("max-seconds", config.DefaultMaxSeconds, "Wall-clock budget for the crawl in seconds")
	cmd.Flags().IntP("max-depth", "d", config.DefaultMaxDepth, "Maximum link-following depth (0 = start page only)")
	cmd.Flags().IntP("max-pages", "p", config.DefaultMaxPages, "Maximum number of pages to fetch")
	cmd.Flags().Int("max-links", config.DefaultMaxLinksPerPage, "Maximum links collected per page")
	cmd.Flags().Int64("max-body-bytes", config.DefaultMaxBodyBytes, "Maximum bytes read per response body")

	// HTTP behavior
	cmd.Flags().Float64P("timeout", "t", config.DefaultRequestTimeout, "Per-request timeout in seconds")
	cmd.Flags().Int("concurrency", config.DefaultMaxConcurrency, "Number of parallel fetches")
	cmd.Flags().Int("retry", config.DefaultRetryTotal, "Retries per request on transient failures")
	cmd.Flags().Float64("backoff", config.DefaultRetryBackoffFactor, "Exponential backoff factor between retries")
	cmd.Flags().String("user-agent", config.DefaultUserAgent, "User-Agent header value")

	// Extraction behavior
	cmd.Flags().StringSliceP("region", "r", nil, "Phone region hints (ISO 3166-1 alpha-2), tried in order")
	cmd.Flags().StringSlice("allow-domain", nil, "Keep only emails on these domains (or their subdomains)")
	cmd.Flags().Bool("include-query", false, "Treat query strings as significant for deduplication")
	cmd.Flags().Bool("no-focus", false, "Disable focused crawling (plain breadth-first order)")

	// History
	cmd.Flags().String("db-dir", "", "Save the result to a history database in this directory")

	return cmd
}

// runParseCmd executes the parse command.
func runParseCmd(cmd *cobra.Command, args []string) error {
	cfg, err := buildParseConfig(cmd)
	if err != nil {
		return err
	}

	logger := logpkg.New(os.Stderr, cfg.LogLevel)
	slog.SetDefault(logger)

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	diagnostics, _ := cmd.Flags().GetBool("diagnostics")
	dbDir, _ := cmd.Flags().GetString("db-dir")

	opts := []parser.Option{parser.WithLogger(logger)}
	if diagnostics || dbDir != "" {
		// History entries need the crawl counters even when the caller
		// did not ask to see them.
		opts = append(opts, parser.WithDiagnostics())
	}

	writer, closeOutput, err := buildWriter(cmd)
	if err != nil {
		return err
	}
	defer closeOutput()

	results, firstErr := runCrawls(ctx, cmd, args, cfg, logger, opts)
	for _, br := range results {
		if br.Err != nil {
			continue
		}
		if dbDir != "" {
			saveHistory(ctx, logger, dbDir, br)
		}
		if !diagnostics {
			br.Result.Diagnostics = nil
		}
		if _, err := writer.Write(br.Result); err != nil {
			return fmt.Errorf("write result: %w", err)
		}
	}
	return firstErr
}

// runCrawls parses one or many sites. A single URL runs inline; several
// URLs fan out through the batch processor.
func runCrawls(
	ctx context.Context,
	cmd *cobra.Command,
	args []string,
	cfg *config.Config,
	logger *slog.Logger,
	opts []parser.Option,
) ([]parser.BatchResult, error) {
	if len(args) == 1 {
		result, err := parser.ParseSite(ctx, args[0], cfg, opts...)
		return []parser.BatchResult{{StartURL: args[0], Result: result, Err: err}}, err
	}

	batchConcurrency, _ := cmd.Flags().GetInt("concurrency")
	results := parser.Batch(ctx, args, cfg, batchConcurrency, logger)
	var firstErr error
	for _, br := range results {
		if br.Err != nil {
			logger.Error("site failed", "url", br.StartURL, "error", br.Err)
			if firstErr == nil {
				firstErr = br.Err
			}
		}
	}
	return results, firstErr
}

// buildParseConfig layers the config file, environment, site file, and
// changed flags into the effective crawl configuration.
func buildParseConfig(cmd *cobra.Command) (*config.Config, error) {
	configPath, err := cmd.Flags().GetString("config")
	if err != nil {
		return nil, err
	}
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, err
	}

	siteConfigPath, _ := cmd.Flags().GetString("site-config")
	if found := config.FindSiteFile(siteConfigPath); found != "" {
		if err := config.LoadSiteFile(cfg, found); err != nil {
			return nil, err
		}
	} else if siteConfigPath != "" {
		return nil, fmt.Errorf("%w: %s", config.ErrSiteFileNotFound, siteConfigPath)
	}

	applyFlagOverrides(cmd, cfg)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// applyFlagOverrides copies explicitly set flags over the loaded config.
// Untouched flags leave file/env values alone.
func applyFlagOverrides(cmd *cobra.Command, cfg *config.Config) {
	flags := cmd.Flags()
	if flags.Changed("max-seconds") {
		cfg.MaxSeconds, _ = flags.GetFloat64("max-seconds")
	}
	if flags.Changed("max-depth") {
		cfg.MaxDepth, _ = flags.GetInt("max-depth")
	}
	if flags.Changed("max-pages") {
		cfg.MaxPages, _ = flags.GetInt("max-pages")
	}
	if flags.Changed("max-links") {
		cfg.MaxLinksPerPage, _ = flags.GetInt("max-links")
	}
	if flags.Changed("max-body-bytes") {
		cfg.MaxBodyBytes, _ = flags.GetInt64("max-body-bytes")
	}
	if flags.Changed("timeout") {
		cfg.RequestTimeout, _ = flags.GetFloat64("timeout")
	}
	if flags.Changed("concurrency") {
		cfg.MaxConcurrency, _ = flags.GetInt("concurrency")
	}
	if flags.Changed("retry") {
		cfg.RetryTotal, _ = flags.GetInt("retry")
	}
	if flags.Changed("backoff") {
		cfg.RetryBackoffFactor, _ = flags.GetFloat64("backoff")
	}
	if flags.Changed("user-agent") {
		cfg.UserAgent, _ = flags.GetString("user-agent")
	}
	if flags.Changed("region") {
		regions, _ := flags.GetStringSlice("region")
		cfg.PhoneRegions = config.NormalizeRegions(regions)
	}
	if flags.Changed("allow-domain") {
		domains, _ := flags.GetStringSlice("allow-domain")
		cfg.EmailDomainAllowlist = config.NormalizeDomainSuffixes(domains)
	}
	if flags.Changed("include-query") {
		cfg.IncludeQuery, _ = flags.GetBool("include-query")
	}
	if flags.Changed("no-focus") {
		noFocus, _ := flags.GetBool("no-focus")
		cfg.FocusedCrawling = !noFocus
	}
	if level, _ := cmd.Root().PersistentFlags().GetString("log-level"); level != "" {
		cfg.LogLevel = level
	}
}

// buildWriter assembles the report writer from the output flags.
func buildWriter(cmd *cobra.Command) (report.Writer, func(), error) {
	pretty, _ := cmd.Flags().GetBool("pretty")
	markdown, _ := cmd.Flags().GetBool("markdown")
	outputPath, _ := cmd.Flags().GetString("output")

	dest := io.Writer(cmd.OutOrStdout())
	closeOutput := func() {}
	if outputPath != "" {
		if dir := filepath.Dir(outputPath); dir != "." {
			if err := os.MkdirAll(dir, 0750); err != nil {
				return nil, nil, fmt.Errorf("create output directory: %w", err)
			}
		}
		f, err := os.Create(outputPath) //nolint:gosec // user-chosen output path is intentional
		if err != nil {
			return nil, nil, fmt.Errorf("create output file: %w", err)
		}
		dest = f
		closeOutput = func() { _ = f.Close() }
	}

	if markdown {
		return report.NewMarkdownWriter(dest), closeOutput, nil
	}
	if pretty {
		return report.NewJSONWriter(dest, report.WithPrettyPrint()), closeOutput, nil
	}
	return report.NewJSONWriter(dest), closeOutput, nil
}

// saveHistory stores one finished crawl in the history database.
func saveHistory(ctx context.Context, logger *slog.Logger, dbDir string, br parser.BatchResult) {
	if dbDir == "default" {
		dbDir = database.DefaultDir()
	}
	db, err := database.Open(dbDir, database.DefaultOptions())
	if err != nil {
		logger.Error("open history database", "dir", dbDir, "error", err)
		return
	}
	defer func() { _ = db.Close() }()

	pages := 0
	duration := time.Duration(0)
	if d := br.Result.Diagnostics; d != nil {
		pages = d.Counters.ScheduledPages
		duration = time.Duration(d.DurationSeconds * float64(time.Second))
	}
	if _, err := db.SaveResult(ctx, br.StartURL, br.Result, pages, duration); err != nil {
		logger.Error("save history entry", "url", br.StartURL, "error", err)
	}
}
