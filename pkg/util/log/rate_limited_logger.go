package log

import (
	"github.com/go-kit/log"
	"golang.org/x/time/rate"
)

// RateLimitedLogger drops log lines once more than n have been emitted
// in the current second, so a hot failure path (sink errors, shared-store
// write failures under load) cannot itself become the bottleneck.
type RateLimitedLogger struct {
	next    log.Logger
	limiter *rate.Limiter
}

// NewRateLimitedLogger wraps next, allowing at most n Log calls per second.
func NewRateLimitedLogger(n int, next log.Logger) *RateLimitedLogger {
	return &RateLimitedLogger{
		next:    next,
		limiter: rate.NewLimiter(rate.Limit(n), n),
	}
}

// Log implements log.Logger. Lines dropped by the limiter are discarded
// silently: logging about dropped logs would defeat the point.
func (r *RateLimitedLogger) Log(keyvals ...interface{}) error {
	if !r.limiter.Allow() {
		return nil
	}
	return r.next.Log(keyvals...)
}

var _ log.Logger = (*RateLimitedLogger)(nil)

// Stop is a no-op retained for API parity with callers that expect an
// explicit lifecycle hook; the limiter holds no background resources.
func (r *RateLimitedLogger) Stop() {}
