package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/pdiddy/paper-triage/internal/cache"
	"github.com/pdiddy/paper-triage/internal/evaluate"
	"github.com/pdiddy/paper-triage/internal/fetch"
	"github.com/pdiddy/paper-triage/internal/inputs"
	"github.com/pdiddy/paper-triage/internal/limiter"
	"github.com/pdiddy/paper-triage/internal/oracle"
	"github.com/pdiddy/paper-triage/internal/report"
	"github.com/pdiddy/paper-triage/internal/retry"
	"github.com/pdiddy/paper-triage/internal/secrets"
	"github.com/pdiddy/paper-triage/pkg/types"
)

const (
	defaultURLsFile    = "data/paper_urls.txt"
	defaultSampleSize  = 10
	defaultConcurrency = 5
)

var evaluateCmd = &cobra.Command{
	Use:   "evaluate",
	Short: "Evaluate papers for relevance to your company and department",
	Long: `Evaluate reads the company and department descriptions from the four context
files, loads paper URLs from the URL list, and prints one report block per
paper as it completes. A failed paper is reported with its error and does not
stop the others.

Exit status is 0 when every paper succeeded, 1 when at least one failed, and 2
when the run could not start (missing input file, invalid setting).`,
	RunE: runEvaluate,
}

// flagKeys binds evaluate flags to viper keys.
var flagKeys = map[string]string{
	"urls-file":          "urls_file",
	"sample-size":        "sample_size",
	"concurrency":        "concurrency",
	"retry-min-delay":    "retry.min_delay",
	"retry-max-delay":    "retry.max_delay",
	"retry-max-attempts": "retry.max_attempts",
	"batch-timeout":      "batch_timeout",
	"fetch-timeout":      "fetch.timeout",
	"user-agent":         "fetch.user_agent",
	"title-selector":     "fetch.title_selector",
	"abstract-selector":  "fetch.abstract_selector",
	"provider":           "oracle.provider",
	"model":              "oracle.model",
	"endpoint":           "oracle.endpoint",
	"oracle-timeout":     "oracle.timeout",
	"cache":              "cache.path",
	"format":             "format",
}

func init() {
	f := evaluateCmd.Flags()
	f.String("company-name-file", "", "file containing the company name (required)")
	f.String("company-description-file", "", "file containing the company description (required)")
	f.String("department-name-file", "", "file containing the department name (required)")
	f.String("department-description-file", "", "file containing the department description (required)")
	f.Bool("i-am-feeling-lucky", false, "evaluate a random sample of the URL list instead of all of it")

	f.String("urls-file", defaultURLsFile, "file with one paper URL per line")
	f.Int("sample-size", defaultSampleSize, "number of papers drawn with --i-am-feeling-lucky")
	f.Int("concurrency", defaultConcurrency, "maximum number of papers processed at once")
	f.Duration("retry-min-delay", retry.DefaultMinDelay, "base of the oracle retry backoff window")
	f.Duration("retry-max-delay", retry.DefaultMaxDelay, "cap of the oracle retry backoff window")
	f.Int("retry-max-attempts", retry.DefaultMaxAttempts, "oracle attempts per paper, the first included")
	f.Duration("batch-timeout", 0, "overall time limit for the batch (0 = none)")
	f.Duration("fetch-timeout", fetch.DefaultTimeout, "HTTP timeout for fetching a paper page")
	f.String("user-agent", fetch.DefaultUserAgent, "User-Agent header for page fetches")
	f.String("title-selector", fetch.DefaultTitleSelector, "CSS selector of the paper title")
	f.String("abstract-selector", fetch.DefaultAbstractSelector, "CSS selector of the paper abstract")
	f.String("provider", string(types.ProviderOpenAI), "oracle provider: openai, anthropic, gemini")
	f.String("model", "", "oracle model (default depends on provider)")
	f.String("endpoint", "", "override the oracle API URL")
	f.Duration("oracle-timeout", oracle.DefaultTimeout, "HTTP timeout for one oracle call")
	f.String("cache", "", "SQLite page cache path (empty disables caching)")
	f.String("format", report.FormatText, "report format: text, json, yaml")

	for flag, key := range flagKeys {
		_ = viper.BindPFlag(key, f.Lookup(flag))
	}

	rootCmd.AddCommand(evaluateCmd)
}

// evaluateConfig builds the stage configuration from v. The API key falls
// back to .secrets/ and the provider's environment variable.
func evaluateConfig(v *viper.Viper, keys map[string]string) types.EvaluationConfig {
	provider := types.OracleProvider(strings.ToLower(strings.TrimSpace(v.GetString("oracle.provider"))))
	if provider == "" {
		provider = types.ProviderOpenAI
	}
	apiKey := v.GetString("oracle.api_key")
	if apiKey == "" {
		apiKey = secrets.APIKey(keys, string(provider))
	}

	return types.EvaluationConfig{
		Limiter: types.LimiterConfig{Limit: v.GetInt("concurrency")},
		Retry: types.RetryConfig{
			MinDelay:    v.GetDuration("retry.min_delay"),
			MaxDelay:    v.GetDuration("retry.max_delay"),
			MaxAttempts: v.GetInt("retry.max_attempts"),
		},
		Fetch: types.FetchConfig{
			HTTPConfig: types.HTTPConfig{
				Timeout:   v.GetDuration("fetch.timeout"),
				UserAgent: v.GetString("fetch.user_agent"),
			},
			TitleSelector:    v.GetString("fetch.title_selector"),
			AbstractSelector: v.GetString("fetch.abstract_selector"),
		},
		Oracle: types.OracleConfig{
			Provider: provider,
			Model:    v.GetString("oracle.model"),
			Endpoint: v.GetString("oracle.endpoint"),
			APIKey:   apiKey,
			Timeout:  v.GetDuration("oracle.timeout"),
		},
		Cache:        types.CacheConfig{Path: v.GetString("cache.path")},
		BatchTimeout: v.GetDuration("batch_timeout"),
	}
}

// pipeline is everything a run needs, built and validated before any
// network activity.
type pipeline struct {
	ectx      types.EvaluationContext
	papers    []types.PaperRef
	evaluator *evaluate.Evaluator
	writer    report.Writer
	summaryTo io.Writer
	closers   []func() error
}

func (p *pipeline) Close() {
	for _, c := range p.closers {
		_ = c()
	}
}

func runEvaluate(cmd *cobra.Command, args []string) error {
	f := cmd.Flags()
	files := inputs.ContextFiles{}
	files.CompanyName, _ = f.GetString("company-name-file")
	files.CompanyDescription, _ = f.GetString("company-description-file")
	files.DepartmentName, _ = f.GetString("department-name-file")
	files.DepartmentDescription, _ = f.GetString("department-description-file")
	lucky, _ := f.GetBool("i-am-feeling-lucky")

	p, err := buildPipeline(viper.GetViper(), files, lucky, cmd.OutOrStdout(), cmd.ErrOrStderr(), logger)
	if err != nil {
		return err
	}
	defer p.Close()

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	return runBatch(ctx, p)
}

func buildPipeline(v *viper.Viper, files inputs.ContextFiles, lucky bool, stdout, stderr io.Writer, log *zap.Logger) (*pipeline, error) {
	ectx, err := inputs.ReadContext(files)
	if err != nil {
		return nil, err
	}

	urlsFile := v.GetString("urls_file")
	if urlsFile == "" {
		urlsFile = defaultURLsFile
	}
	urls, err := inputs.LoadURLs(urlsFile, log.Named("inputs"))
	if err != nil {
		return nil, err
	}
	if lucky {
		n := v.GetInt("sample_size")
		if n < 1 {
			return nil, types.Configf("sample size must be at least 1, got %d", n)
		}
		urls = inputs.Sample(urls, n, nil)
	}

	cfg := evaluateConfig(v, loadedSecrets)

	lim, err := limiter.New(cfg.Limiter.Limit)
	if err != nil {
		return nil, err
	}
	caller, err := retry.NewCaller(retry.PolicyFrom(cfg.Retry), retry.WithLogger(log.Named("retry")))
	if err != nil {
		return nil, err
	}
	orc, err := oracle.New(cfg.Oracle)
	if err != nil {
		return nil, err
	}

	format := v.GetString("format")
	writer, err := report.New(format, stdout)
	if err != nil {
		return nil, err
	}
	summaryTo := stdout
	if f := strings.ToLower(strings.TrimSpace(format)); f != "" && f != report.FormatText {
		summaryTo = stderr
	}

	p := &pipeline{ectx: ectx, papers: inputs.Refs(urls), writer: writer, summaryTo: summaryTo}

	var fetcher evaluate.Fetcher = fetch.NewHTMLFetcher(nil, cfg.Fetch)
	if cfg.Cache.Path != "" {
		store, err := cache.Open(cfg.Cache.Path)
		if err != nil {
			return nil, types.NewError(types.KindConfig, "", err)
		}
		p.closers = append(p.closers, store.Close)
		fetcher = cache.NewCachingFetcher(store, fetcher, log.Named("cache"))
	}

	p.evaluator, err = evaluate.New(evaluate.Deps{
		Fetcher: fetcher,
		Oracle:  orc,
		Limiter: lim,
		Retry:   caller,
		Logger:  log.Named("evaluate"),
	}, evaluate.Options{BatchTimeout: cfg.BatchTimeout})
	if err != nil {
		p.Close()
		return nil, err
	}
	return p, nil
}

// runBatch streams reports to the writer as they complete, then prints the
// summary. Per-item failures turn into an itemsFailedError.
func runBatch(ctx context.Context, p *pipeline) error {
	start := time.Now()
	var summary evaluate.BatchSummary
	for r := range p.evaluator.Stream(ctx, p.papers, p.ectx) {
		summary.Add(r)
		if err := p.writer.Write(r); err != nil {
			logger.Error("writing report", zap.String("url", r.URL), zap.Error(err))
		}
	}

	if err := report.WriteSummary(p.summaryTo, summary); err != nil {
		return fmt.Errorf("writing summary: %w", err)
	}
	logger.Info("run complete", zap.Duration("elapsed", time.Since(start)))

	if summary.HasFailures() {
		return &itemsFailedError{failed: summary.Failed, total: summary.Total()}
	}
	return nil
}
