// Package pace provides the absolute-schedule interval ticker that drives
// batch submission.
package pace

import (
	"context"
	"time"

	"github.com/sirupsen/logrus"
)

// Ticker wakes at start + k·interval for k = 0, 1, 2, …
//
// Scheduling against the absolute start time rather than "now + interval"
// keeps drift bounded across thousands of ticks. When a wake-up is more than
// one full interval late the ticker logs a drift warning and skips the
// missed slots; it never fires back-to-back batches to catch up, which would
// distort the rate shape.
type Ticker struct {
	start    time.Time
	interval time.Duration
	next     int64
	skipped  int64
	log      *logrus.Entry
}

// NewTicker creates a ticker anchored at start. log may be nil.
func NewTicker(start time.Time, interval time.Duration, log *logrus.Entry) *Ticker {
	return &Ticker{start: start, interval: interval, log: log}
}

// Wait blocks until the next scheduled tick and returns its index. The
// first call returns 0 at start (immediately, if start has passed).
func (t *Ticker) Wait(ctx context.Context) (int64, error) {
	k := t.next
	due := t.start.Add(time.Duration(k) * t.interval)

	now := time.Now()
	if d := due.Sub(now); d > 0 {
		timer := time.NewTimer(d)
		defer timer.Stop()
		select {
		case <-ctx.Done():
			return 0, ctx.Err()
		case now = <-timer.C:
		}
	}

	if lag := now.Sub(due); lag > t.interval {
		missed := int64(lag / t.interval)
		t.skipped += missed
		t.next = k + missed + 1
		if t.log != nil {
			t.log.WithFields(logrus.Fields{
				"tick":    k,
				"lag":     lag.String(),
				"skipped": missed,
			}).Warn("scheduler woke late; skipping missed intervals")
		}
	} else {
		t.next = k + 1
	}

	return k, nil
}

// Skipped reports how many interval slots were skipped due to drift.
func (t *Ticker) Skipped() int64 {
	return t.skipped
}
