package reconcile

import (
	"context"
	"errors"
	"fmt"

	errs "followsync/pkg/errors"
	"followsync/pkg/logger"
	"followsync/pkg/sheetstore"
)

// TabPolicy decides what happens when an account has no tab yet
type TabPolicy string

const (
	// TabPolicyCreate creates the tab with a header row
	TabPolicyCreate TabPolicy = "create"
	// TabPolicyStrict fails the target
	TabPolicyStrict TabPolicy = "strict"
)

// ParseTabPolicy validates a configured policy name
func ParseTabPolicy(s string) (TabPolicy, error) {
	switch TabPolicy(s) {
	case "", TabPolicyCreate:
		return TabPolicyCreate, nil
	case TabPolicyStrict:
		return TabPolicyStrict, nil
	default:
		return "", fmt.Errorf("unknown tab policy %q (expected create or strict)", s)
	}
}

// SyncResult describes one reconciliation
type SyncResult struct {
	Account  string
	Fetched  int
	Existing int
	Added    int
	// Delta holds the usernames that were (or in dry run would be) appended
	Delta   []string
	Created bool
	DryRun  bool
}

// Options configures a Reconciler
type Options struct {
	TabPolicy TabPolicy
	Header    []string
	DryRun    bool
	Logger    logger.Logger
}

// Reconciler appends the usernames a destination tab does not have yet
type Reconciler struct {
	store     sheetstore.Store
	tabPolicy TabPolicy
	header    []string
	dryRun    bool
	logger    logger.Logger
}

// New creates a Reconciler writing through store
func New(store sheetstore.Store, opts Options) *Reconciler {
	policy := opts.TabPolicy
	if policy == "" {
		policy = TabPolicyCreate
	}
	log := opts.Logger
	if log == nil {
		log = logger.GetLogger()
	}
	return &Reconciler{
		store:     store,
		tabPolicy: policy,
		header:    opts.Header,
		dryRun:    opts.DryRun,
		logger:    log,
	}
}

// Reconcile reads the account's tab once, computes the delta of fetched
// against it, and appends the delta in a single write. An empty delta
// writes nothing, and a missing tab is only created when there is
// something to append.
func (r *Reconciler) Reconcile(ctx context.Context, spreadsheetID, account string, fetched []string) (SyncResult, error) {
	result := SyncResult{Account: account, Fetched: len(fetched), DryRun: r.dryRun}
	log := r.logger.WithFields(map[string]interface{}{
		"account":     account,
		"spreadsheet": spreadsheetID,
	})

	existing, err := r.store.ReadColumn(ctx, spreadsheetID, account)
	switch {
	case err == nil:
	case errors.Is(err, sheetstore.ErrTabNotFound):
		if len(fetched) == 0 {
			log.Debug("Tab missing and nothing to write")
			return result, nil
		}
		if r.tabPolicy == TabPolicyStrict {
			return result, storeError(errs.StageReadExisting, account, "destination missing", err)
		}
		if r.dryRun {
			log.Info("Tab missing, would create it")
		} else {
			if err := r.store.EnsureTab(ctx, spreadsheetID, account, r.header); err != nil {
				return result, storeError(errs.StageEnsureTab, account, "failed to create tab", err)
			}
			log.Info("Created missing tab")
		}
		result.Created = true
		existing = nil
	default:
		return result, storeError(errs.StageReadExisting, account, "failed to read existing followers", err)
	}

	result.Existing = len(existing)
	result.Delta = Delta(existing, fetched)

	if len(result.Delta) == 0 {
		log.Debug("Destination already up to date")
		return result, nil
	}

	if r.dryRun {
		log.WithField("delta", len(result.Delta)).Info("Dry run, skipping append")
		return result, nil
	}

	if err := r.store.AppendRows(ctx, spreadsheetID, account, sheetstore.UsernameRows(result.Delta)); err != nil {
		return result, storeError(errs.StageAppend, account, fmt.Sprintf("failed to append %d rows", len(result.Delta)), err)
	}
	result.Added = len(result.Delta)

	log.WithField("added", result.Added).Debug("Appended new followers")
	return result, nil
}

// Delta returns fetched in order, without values present in existing and
// without repeats
func Delta(existing, fetched []string) []string {
	seen := make(map[string]struct{}, len(existing)+len(fetched))
	for _, v := range existing {
		seen[v] = struct{}{}
	}

	var delta []string
	for _, v := range fetched {
		if v == "" {
			continue
		}
		if _, ok := seen[v]; ok {
			continue
		}
		seen[v] = struct{}{}
		delta = append(delta, v)
	}
	return delta
}

func storeError(stage errs.Stage, account, message string, err error) error {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return err
	}
	return &errs.Error{
		Kind:    errs.KindStore,
		Stage:   stage,
		Account: account,
		Message: message,
		Err:     err,
	}
}
