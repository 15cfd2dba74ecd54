// Package guard prevents duplicate judging of the same submission. A
// submission acquires its in-flight key before the running mark is sent and
// releases it when the terminal verdict has been reported, so the record
// store never sees a second running mark for the same id.
package guard

import (
	"context"
	"time"

	"judgegate/internal/common/cache"
	appErr "judgegate/pkg/errors"
	"judgegate/pkg/utils/logger"

	"go.uber.org/zap"
)

const (
	inflightKeyPrefix  = "judge:inflight:"
	inflightMarker     = "processing"
	defaultInflightTTL = 10 * time.Minute
)

// Guard tracks submissions currently being judged.
type Guard struct {
	cache cache.Cache
	ttl   time.Duration
}

// New creates a guard on top of a cache backend. The TTL bounds how long a
// crashed run can block resubmission.
func New(cacheClient cache.Cache, ttl time.Duration) *Guard {
	if ttl <= 0 {
		ttl = defaultInflightTTL
	}
	return &Guard{cache: cacheClient, ttl: ttl}
}

// Acquire claims the in-flight slot for a submission. Returns a
// SubmissionInFlight error when another run already holds it.
func (g *Guard) Acquire(ctx context.Context, submissionID string) error {
	if submissionID == "" {
		return appErr.ValidationError("submissionId", "required")
	}
	acquired, err := g.cache.SetNX(ctx, inflightKeyPrefix+submissionID, inflightMarker, g.ttl)
	if err != nil {
		return appErr.Wrapf(err, appErr.CacheError, "acquire inflight guard failed")
	}
	if !acquired {
		return appErr.New(appErr.SubmissionInFlight).WithDetail("submissionId", submissionID)
	}
	return nil
}

// Release frees the in-flight slot. Failures are logged, not propagated:
// the TTL bounds the damage of a leaked key.
func (g *Guard) Release(ctx context.Context, submissionID string) {
	if submissionID == "" {
		return
	}
	if err := g.cache.Del(ctx, inflightKeyPrefix+submissionID); err != nil {
		logger.Warn(ctx, "release inflight guard failed",
			zap.String("submission_id", submissionID),
			zap.Error(err),
		)
	}
}
