// Package resilience provides retry with exponential backoff and jitter
// for operations that talk to flaky remote services.
//
// Typical use:
//
//	body, err := resilience.Retry(ctx, resilience.DefaultRetryConfig(), func() (string, error) {
//	    return fetch(url)
//	})
package resilience
