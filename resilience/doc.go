// Package resilience holds the retry and rate-limiting primitives used by the
// HTTP client and the chat APIs.
//
//	rl := resilience.NewRateLimiter(resilience.RateLimiterConfig{Rate: 3, Burst: 3})
//	out, err := resilience.Retry(ctx, resilience.RetryConfig{
//	    MaxAttempts: 5,
//	    Backoff: func(attempt int, err error) time.Duration {
//	        return time.Second
//	    },
//	}, func() (string, error) {
//	    if err := rl.Wait(ctx); err != nil {
//	        return "", err
//	    }
//	    return call(ctx)
//	})
package resilience
