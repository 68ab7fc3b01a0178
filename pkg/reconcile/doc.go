// Package reconcile appends newly seen followers to an account's tab.
//
// Each reconciliation reads the tab's first column once, keeps the fetched
// usernames that are not already present (in fetched order), and appends
// them in one write. Rows are never updated or removed.
package reconcile
