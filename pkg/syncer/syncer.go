package syncer

import (
	"context"
	"errors"
	"strings"
	"time"

	"followsync/internal/workerpool"
	errs "followsync/pkg/errors"
	"followsync/pkg/logger"
	"followsync/pkg/pager"
	"followsync/pkg/reconcile"
	"followsync/pkg/registry"
	"followsync/pkg/sheetstore"
)

// Status is the outcome of one target
type Status string

const (
	StatusSucceeded Status = "succeeded"
	StatusPartial   Status = "partial"
	StatusSkipped   Status = "skipped"
	StatusFailed    Status = "failed"
	StatusCanceled  Status = "canceled"
)

// TargetResult describes what happened to one target
type TargetResult struct {
	Account       string
	SpreadsheetID string
	Status        Status
	// Stage is where a failure happened; empty on success
	Stage    errs.Stage
	Fetched  int
	Pages    int
	Existing int
	Added    int
	// Pending counts the rows a dry run would have appended
	Pending  int
	Created  bool
	DryRun   bool
	Err      error
	Duration time.Duration
}

// Summary aggregates a run. Partial targets count as failed and canceled
// targets as skipped.
type Summary struct {
	Total     int
	Succeeded int
	Skipped   int
	Failed    int
	Added     int
	Canceled  bool
	Results   []TargetResult
	Duration  time.Duration
}

// Options configures a Syncer
type Options struct {
	Upstream    pager.Upstream
	Store       sheetstore.Store
	Source      registry.Source
	Concurrency int
	TabPolicy   reconcile.TabPolicy
	Header      []string
	DryRun      bool
	MaxPages    int
	Logger      logger.Logger
	// OnResult is called once per target as it finishes, possibly from
	// several goroutines at once
	OnResult func(TargetResult)
}

// Syncer runs one pass over every target of a source
type Syncer struct {
	source      registry.Source
	driver      *pager.Driver
	reconciler  *reconcile.Reconciler
	concurrency int
	onResult    func(TargetResult)
	logger      logger.Logger
}

// New creates a Syncer
func New(opts Options) (*Syncer, error) {
	if opts.Upstream == nil {
		return nil, errors.New("syncer: upstream is required")
	}
	if opts.Store == nil {
		return nil, errors.New("syncer: store is required")
	}
	if opts.Source == nil {
		return nil, errors.New("syncer: target source is required")
	}

	log := opts.Logger
	if log == nil {
		log = logger.GetLogger()
	}
	concurrency := opts.Concurrency
	if concurrency < 1 {
		concurrency = 1
	}

	return &Syncer{
		source: opts.Source,
		driver: pager.NewDriver(opts.Upstream, pager.Options{
			MaxPages: opts.MaxPages,
			Logger:   log,
		}),
		reconciler: reconcile.New(opts.Store, reconcile.Options{
			TabPolicy: opts.TabPolicy,
			Header:    opts.Header,
			DryRun:    opts.DryRun,
			Logger:    log,
		}),
		concurrency: concurrency,
		onResult:    opts.OnResult,
		logger:      log,
	}, nil
}

// Run lists the targets and syncs each of them. Only a failure to list
// targets is returned as an error; per-target failures are counted in the
// summary. Cancellation stops new targets from starting.
func (s *Syncer) Run(ctx context.Context) (Summary, error) {
	start := time.Now()

	targets, err := s.source.ListTargets(ctx)
	if err != nil {
		if ctx.Err() != nil {
			return Summary{Canceled: true}, errs.Wrap(ctx.Err(), errs.KindCanceled, errs.StageListTargets, "run canceled before targets were listed")
		}
		if errs.KindOf(err) != errs.KindConfig {
			err = errs.Wrap(err, errs.KindConfig, errs.StageListTargets, "failed to list targets")
		}
		return Summary{}, err
	}

	targets = markDuplicates(targets)
	pool := workerpool.New(s.concurrency, s.syncTarget, canceledResult, s.logger)

	logger.LogComponentStart(s.logger, "syncer", map[string]interface{}{
		"targets":     len(targets),
		"concurrency": pool.Workers(),
	})

	results := pool.Run(ctx, targets)

	summary := Summarize(results)
	summary.Canceled = ctx.Err() != nil
	summary.Duration = time.Since(start)

	s.logger.InfoWithFields("Sync pass finished", map[string]interface{}{
		"total":     summary.Total,
		"succeeded": summary.Succeeded,
		"skipped":   summary.Skipped,
		"failed":    summary.Failed,
		"added":     summary.Added,
		"canceled":  summary.Canceled,
		"duration":  summary.Duration,
	})
	return summary, nil
}

// markDuplicates skips every repeat of an account already routed to the
// same spreadsheet. Two workers reading one tab before either appends would
// write the same followers twice.
func markDuplicates(targets []registry.Target) []registry.Target {
	type key struct{ spreadsheet, account string }
	seen := make(map[key]bool, len(targets))
	out := make([]registry.Target, len(targets))
	for i, target := range targets {
		out[i] = target
		if target.Err != nil {
			continue
		}
		k := key{target.Destination.SpreadsheetID, strings.ToLower(target.AccountID)}
		if seen[k] {
			out[i].Err = &errs.Error{
				Kind:    errs.KindTargetResolution,
				Stage:   errs.StageResolveTarget,
				Account: target.AccountID,
				Message: "duplicate target for spreadsheet " + target.Destination.SpreadsheetID,
			}
			continue
		}
		seen[k] = true
	}
	return out
}

// syncTarget runs id resolution, pagination and reconciliation for one
// target. Every error stops at this boundary.
func (s *Syncer) syncTarget(ctx context.Context, target registry.Target) TargetResult {
	start := time.Now()
	result := s.process(ctx, target)
	result.Duration = time.Since(start)

	log := s.logger.WithField("spreadsheet", result.SpreadsheetID)
	if result.Stage != "" {
		log = log.WithField("stage", string(result.Stage))
	}
	logger.LogTargetResult(log, result.Account, string(result.Status), result.Added, result.Err)

	if s.onResult != nil {
		s.onResult(result)
	}
	return result
}

func (s *Syncer) process(ctx context.Context, target registry.Target) TargetResult {
	result := TargetResult{
		Account:       target.AccountID,
		SpreadsheetID: target.Destination.SpreadsheetID,
	}

	if target.Err != nil {
		return result.fail(StatusSkipped, target.Err)
	}

	fetch, err := s.driver.Fetch(ctx, target.AccountID)
	result.Pages = fetch.Pages
	result.Fetched = len(fetch.Followers)
	if err != nil {
		if errs.Is(err, errs.KindCanceled) {
			return result.fail(StatusCanceled, err)
		}
		return result.fail(StatusFailed, err)
	}

	if fetch.Stop == pager.StopCanceled {
		return result.fail(StatusCanceled, fetch.Err)
	}

	if len(fetch.Followers) == 0 {
		if fetch.Stop == pager.StopError {
			return result.fail(StatusFailed, fetch.Err)
		}
		result.Status = StatusSkipped
		return result
	}

	synced, err := s.reconciler.Reconcile(ctx, target.Destination.SpreadsheetID, target.AccountID, fetch.Usernames())
	result.Existing = synced.Existing
	result.Added = synced.Added
	result.Created = synced.Created
	result.DryRun = synced.DryRun
	if synced.DryRun {
		result.Pending = len(synced.Delta)
	}
	if err != nil {
		if ctx.Err() != nil {
			return result.fail(StatusCanceled, err)
		}
		return result.fail(StatusFailed, err)
	}

	if fetch.Stop == pager.StopError {
		result.Status = StatusPartial
		result.Err = fetch.Err
		result.Stage = errs.StageOf(fetch.Err)
		return result
	}

	result.Status = StatusSucceeded
	return result
}

func (r TargetResult) fail(status Status, err error) TargetResult {
	r.Status = status
	r.Err = err
	r.Stage = errs.StageOf(err)
	return r
}

func canceledResult(target registry.Target) TargetResult {
	return TargetResult{
		Account:       target.AccountID,
		SpreadsheetID: target.Destination.SpreadsheetID,
		Status:        StatusCanceled,
	}
}

// Summarize counts results by status
func Summarize(results []TargetResult) Summary {
	summary := Summary{Total: len(results), Results: results}
	for _, r := range results {
		summary.Added += r.Added
		switch r.Status {
		case StatusSucceeded:
			summary.Succeeded++
		case StatusSkipped, StatusCanceled:
			summary.Skipped++
		case StatusPartial, StatusFailed:
			summary.Failed++
		}
	}
	return summary
}
