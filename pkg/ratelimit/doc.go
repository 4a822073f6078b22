// Package ratelimit throttles requests sent to the course portal.
//
// The portal is a shared university service, so a mirror run can cap how
// many pages and files it requests per minute.
//
// Implementations:
//   - TokenBucket: fixed capacity bucket refilled after a period
//   - Unlimited: admits everything, used when limiting is disabled
//
// Usage:
//
//	limiter := ratelimit.PerMinute(cfg.RateLimit.RequestsPerMinute)
//	if err := limiter.Wait(ctx); err != nil {
//	    return err
//	}
package ratelimit
