// Package rocketapi provides a client for the RocketAPI Instagram follower endpoints.
//
// This package includes:
//   - A rate-limited, retrying HTTP client for user id lookup and follower pages
//   - Envelope normalization for the flat, graph and wrapped response shapes
//   - Classified errors separating transient failures from structural ones
//
// Example usage:
//
//	client := rocketapi.NewClient(rocketapi.Options{
//	    Token:   token,
//	    Limiter: ratelimit.PerMinute(60),
//	})
//
//	id, err := client.FetchUserID(ctx, "alice")
//	if err != nil {
//	    if errors.Is(err, errors.KindStructuralUpstream) {
//	        // Not worth retrying later either
//	    }
//	}
//
//	page, err := client.FetchFollowerPage(ctx, id, "")
//	for page.Next != "" {
//	    page, err = client.FetchFollowerPage(ctx, id, page.Next)
//	}
package rocketapi
