// Package syncer runs a follower sync pass.
//
// For every target listed by a registry.Source the syncer resolves the
// account, pages through its followers with a pager.Driver, and appends the
// usernames the destination tab is missing with a reconcile.Reconciler.
// Targets run on an internal worker pool, one at a time by default.
//
// A target that cannot be resolved, or whose fetch returns no followers, is
// skipped. A fetch that stops on a page error still writes what it
// collected and is reported as partial. Only failing to list the targets
// aborts a run.
package syncer
