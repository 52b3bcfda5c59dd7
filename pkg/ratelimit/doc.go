// Package ratelimit paces calls to the Flickr API.
//
// The archive run is strictly sequential, so pacing is a fixed minimum gap
// between consecutive remote calls rather than a request budget. The first
// call goes through immediately.
//
// Usage:
//
//	pacer := ratelimit.NewPacer(500 * time.Millisecond)
//
//	if err := pacer.Wait(ctx); err != nil {
//	    return err
//	}
//	// Proceed with request
package ratelimit
