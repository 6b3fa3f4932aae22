// Package slidingwindow provides an in-memory sliding-window attempt
// limiter keyed by arbitrary string identities.
//
// Each identity maps to the chronologically ordered timestamps of its
// admitted attempts inside the trailing window. Every Attempt call first
// trims timestamps that fell out of the window, then either records the
// attempt or rejects it without recording once the limit is reached. A
// background sweep performs the same trim across all identities and drops
// the empty ones, bounding memory growth from one-off callers.
//
// Basic usage:
//
//	limiter := slidingwindow.New(5, 15*time.Minute)
//
//	if !limiter.Attempt(clientAddr) {
//		// reject with 429
//	}
//
// Run the sweep alongside other components via errgroup:
//
//	g, ctx := errgroup.WithContext(ctx)
//	g.Go(limiter.Run(ctx))
package slidingwindow
