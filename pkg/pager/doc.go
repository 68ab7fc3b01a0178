// Package pager drives follower pagination for one account.
//
// The driver walks FETCHING_ID → FETCHING_PAGE → DONE | FAILED. It stops on
// an empty cursor, on a cursor it has already followed, on a page error
// (keeping what it collected as a partial result), on cancellation, and on
// an optional page cap. Followers are deduplicated by username in order of
// first appearance.
package pager
