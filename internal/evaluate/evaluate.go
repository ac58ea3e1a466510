// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package evaluate drives a batch of paper URLs through fetch and oracle
// evaluation under a concurrency cap.
//
// Every paper runs as its own unit of work: take a limiter permit, fetch the
// page, ask the oracle (with retries), release the permit, emit a report.
// A unit's failure is recorded in its own VerdictReport and never stops the
// others. Reports are streamed in completion order.
package evaluate

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/pdiddy/paper-triage/internal/limiter"
	"github.com/pdiddy/paper-triage/internal/retry"
	"github.com/pdiddy/paper-triage/pkg/types"
)

// Fetcher retrieves title and abstract for a paper URL. Implementations
// classify failures as network or extraction errors and do not retry.
type Fetcher interface {
	Fetch(ctx context.Context, url string) (types.PaperContent, error)
}

// Oracle returns a verdict for one paper. Any error is treated as transient.
type Oracle interface {
	Evaluate(ctx context.Context, ectx types.EvaluationContext, content types.PaperContent) (string, error)
}

// Deps wires the collaborators of an Evaluator. All fields except Logger are required.
type Deps struct {
	Fetcher Fetcher
	Oracle  Oracle
	Limiter *limiter.Limiter
	Retry   *retry.Caller
	Logger  *zap.Logger
}

// Options tunes a batch run.
type Options struct {
	// BatchTimeout bounds the whole run. Units still pending when it fires
	// report a cancelled error. Zero means no limit.
	BatchTimeout time.Duration
}

// Evaluator runs batches. It holds no per-batch state and may run several
// batches, though concurrent batches share its limiter.
type Evaluator struct {
	fetcher Fetcher
	oracle  Oracle
	limiter *limiter.Limiter
	retry   *retry.Caller
	logger  *zap.Logger
	opts    Options
}

// New validates deps and returns an Evaluator.
func New(deps Deps, opts Options) (*Evaluator, error) {
	switch {
	case deps.Fetcher == nil:
		return nil, types.Configf("evaluator needs a fetcher")
	case deps.Oracle == nil:
		return nil, types.Configf("evaluator needs an oracle")
	case deps.Limiter == nil:
		return nil, types.Configf("evaluator needs a concurrency limiter")
	case deps.Retry == nil:
		return nil, types.Configf("evaluator needs a retry caller")
	case opts.BatchTimeout < 0:
		return nil, types.Configf("batch timeout must not be negative, got %s", opts.BatchTimeout)
	}
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Evaluator{
		fetcher: deps.Fetcher,
		oracle:  deps.Oracle,
		limiter: deps.Limiter,
		retry:   deps.Retry,
		logger:  logger,
		opts:    opts,
	}, nil
}

// Stream starts one unit of work per paper and returns a channel that yields
// each report as its unit finishes. The channel is closed after the last
// unit completes. Cancelling ctx makes pending units report cancelled errors.
func (e *Evaluator) Stream(ctx context.Context, papers []types.PaperRef, ectx types.EvaluationContext) <-chan types.VerdictReport {
	out := make(chan types.VerdictReport, len(papers))

	runID := uuid.NewString()
	log := e.logger.With(zap.String("run_id", runID))

	var cancel context.CancelFunc
	if e.opts.BatchTimeout > 0 {
		ctx, cancel = context.WithTimeout(ctx, e.opts.BatchTimeout)
	} else {
		ctx, cancel = context.WithCancel(ctx)
	}

	log.Info("batch started",
		zap.Int("papers", len(papers)),
		zap.Int("concurrency", e.limiter.Limit()),
		zap.Int("max_attempts", e.retry.Policy().MaxAttempts))

	go func() {
		defer close(out)
		defer cancel()

		start := time.Now()
		var g errgroup.Group
		for _, p := range papers {
			g.Go(func() error {
				out <- e.evaluateOne(ctx, log, runID, p, ectx)
				return nil
			})
		}
		_ = g.Wait() // per-item errors are carried in the reports

		log.Info("batch finished",
			zap.Duration("elapsed", time.Since(start)),
			zap.Int("permits_in_use", e.limiter.InUse()))
	}()

	return out
}

// Run evaluates papers and returns every report once the batch is done.
// Report order follows completion, not input.
func (e *Evaluator) Run(ctx context.Context, papers []types.PaperRef, ectx types.EvaluationContext) []types.VerdictReport {
	reports := make([]types.VerdictReport, 0, len(papers))
	for r := range e.Stream(ctx, papers, ectx) {
		reports = append(reports, r)
	}
	return reports
}

// evaluateOne processes a single paper. It always returns a report.
func (e *Evaluator) evaluateOne(ctx context.Context, log *zap.Logger, runID string, p types.PaperRef, ectx types.EvaluationContext) (report types.VerdictReport) {
	start := time.Now()
	report = types.VerdictReport{RunID: runID, URL: p.URL}
	log = log.With(zap.String("url", p.URL))

	defer func() {
		if r := recover(); r != nil {
			report.Error = types.NewError(types.KindOracle, p.URL, fmt.Errorf("panic: %v", r))
		}
		report.Duration = time.Since(start)
		if report.Error != nil {
			log.Warn("paper failed",
				zap.String("kind", string(report.Error.Kind)),
				zap.Error(report.Error),
				zap.Int("attempts", report.Attempts),
				zap.Duration("elapsed", report.Duration))
			return
		}
		log.Info("paper evaluated",
			zap.Int("attempts", report.Attempts),
			zap.Duration("elapsed", report.Duration))
	}()

	err := e.limiter.Do(ctx, func(ctx context.Context) error {
		log.Debug("fetching paper")
		content, err := e.fetcher.Fetch(ctx, p.URL)
		if err != nil {
			return classify(ctx, err, p.URL, types.KindNetwork)
		}
		report.Title = content.Title

		verdict, attempts, err := retry.Do(ctx, e.retry, func(ctx context.Context) (string, error) {
			return e.oracle.Evaluate(ctx, ectx, content)
		})
		report.Attempts = attempts
		if err != nil {
			return classify(ctx, err, p.URL, types.KindOracle)
		}
		report.Verdict = verdict
		return nil
	})
	if err != nil {
		report.Error = classify(ctx, err, p.URL, types.KindOracle)
	}
	return report
}

// classify turns err into a report error. Once ctx has ended, any failure
// counts as cancellation. While ctx is live, an unclassified error takes the
// fallback kind even if it wraps a deadline: a per-call client timeout is not
// a batch cancellation.
func classify(ctx context.Context, err error, url string, fallback types.ErrorKind) *types.Error {
	var te *types.Error
	if ctx.Err() != nil {
		if errors.As(err, &te) && te.Kind == types.KindCancelled {
			return types.Classify(err, url, fallback)
		}
		return types.NewError(types.KindCancelled, url, err)
	}
	if errors.As(err, &te) {
		return types.Classify(err, url, fallback)
	}
	return types.NewError(fallback, url, err)
}
