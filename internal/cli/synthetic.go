package cli

import (
	"context"
	"errors"
	"math/rand"
	"time"

	"github.com/gustlabs/gust"
	"github.com/gustlabs/gust/config"
)

var errSynthetic = errors.New("synthetic failure")

// newSyntheticOperation builds the CLI's built-in operation from the plan
// file's operation section: sleep a uniformly jittered duration, fail a
// configured fraction of calls. The sleep observes the engine's cancellation
// signal.
func newSyntheticOperation(file *config.File) (gust.Operation, error) {
	sleepMin, sleepMax, failureRate, err := file.SyntheticProfile()
	if err != nil {
		return nil, err
	}

	jitter := sleepMax - sleepMin
	return func(ctx context.Context) error {
		d := sleepMin
		if jitter > 0 {
			d += time.Duration(rand.Int63n(int64(jitter) + 1))
		}
		if d > 0 {
			timer := time.NewTimer(d)
			defer timer.Stop()
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-timer.C:
			}
		}
		if failureRate > 0 && rand.Float64() < failureRate {
			return errSynthetic
		}
		return nil
	}, nil
}
