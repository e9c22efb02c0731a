package gust

import "time"

// Snapshot is a live, observational view of a run in progress. Latency
// percentiles come from an HDR histogram and are approximate; the finalized
// Result uses exact sample math.
type Snapshot struct {
	State State `json:"state"`

	RequestsStarted  int64 `json:"requestsStarted"`
	RequestsInFlight int64 `json:"requestsInFlight"`
	Success          int64 `json:"success"`
	Failure          int64 `json:"failure"`
	BatchesCompleted int64 `json:"batchesCompleted"`

	Elapsed           time.Duration `json:"elapsed"`
	RequestsPerSecond float64       `json:"requestsPerSecond"`

	MinLatencyMs float64 `json:"minLatencyMs"`
	P50LatencyMs float64 `json:"p50LatencyMs"`
	P95LatencyMs float64 `json:"p95LatencyMs"`
	P99LatencyMs float64 `json:"p99LatencyMs"`
	MaxLatencyMs float64 `json:"maxLatencyMs"`
}

// Snapshot returns a live view of the run. Safe to call from any goroutine;
// before Run it reports only the state.
func (r *Runner) Snapshot() Snapshot {
	col := r.col.Load()
	if col == nil {
		return Snapshot{State: r.State()}
	}
	cs := col.Snapshot()
	return Snapshot{
		State:             r.State(),
		RequestsStarted:   cs.RequestsStarted,
		RequestsInFlight:  cs.RequestsInFlight,
		Success:           cs.Success,
		Failure:           cs.Failure,
		BatchesCompleted:  cs.BatchesCompleted,
		Elapsed:           cs.Elapsed,
		RequestsPerSecond: cs.RequestsPerSecond,
		MinLatencyMs:      cs.MinLatencyMs,
		P50LatencyMs:      cs.P50LatencyMs,
		P95LatencyMs:      cs.P95LatencyMs,
		P99LatencyMs:      cs.P99LatencyMs,
		MaxLatencyMs:      cs.MaxLatencyMs,
	}
}
