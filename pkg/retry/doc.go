// Package retry provides bounded retry with exponential backoff for upstream calls.
//
// Only errors classified as transient upstream failures are retried by
// default; structural failures return immediately. Waits honor context
// cancellation.
//
//	page, err := retry.DoWithResult(ctx, func(ctx context.Context) (Page, error) {
//		return client.fetchPage(ctx, userID, cursor)
//	}, retry.DefaultConfig())
package retry
