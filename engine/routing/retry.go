package routing

import (
	"context"
	"time"

	"github.com/zoneworld/zoneworld/engine/common"
	"github.com/zoneworld/zoneworld/engine/gwlog"
)

const maxBackoffFactor = 8

// Retry calls f until it returns a non-retryable result, at most attempts times
//
// The wait between attempts starts at backoff and doubles, up to 8 times backoff.
func Retry(ctx context.Context, attempts int, backoff time.Duration, f func() (Result, error)) (Result, error) {
	if attempts < 1 {
		attempts = 1
	}
	wait := backoff
	var res Result
	var err error
	for i := 0; i < attempts; i++ {
		res, err = f()
		if !common.IsRetryable(err) || i == attempts-1 {
			break
		}

		gwlog.Debugf("routing: attempt %d/%d: %s, retry in %s", i+1, attempts, err, wait)
		select {
		case <-ctx.Done():
			return res, err
		case <-time.After(wait):
		}
		if wait < backoff*maxBackoffFactor {
			wait *= 2
		}
	}
	return res, err
}
