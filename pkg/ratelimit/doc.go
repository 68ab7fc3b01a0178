// Package ratelimit paces requests to the follower upstream and the sheet store.
//
// Token Bucket:
//   - Fixed capacity bucket that refills after a specified period
//   - Shared by every upstream call of a run
//
// Sliding Window:
//   - Tracks requests within a moving time window
//   - Sized to the spreadsheet write quota
//
// Inflight:
//   - Caps concurrent upstream requests (golang.org/x/sync/semaphore)
//
// All limiters block through Wait(ctx), which returns ctx.Err() when the
// run is cancelled:
//
//	limiter := ratelimit.PerMinute(60)
//	if err := limiter.Wait(ctx); err != nil {
//	    return err
//	}
package ratelimit
