package gust

import "github.com/gustlabs/gust/internal/collector"

// Result is the finalized report of one run. All latencies are milliseconds;
// TimeSeconds is the actual elapsed wall-clock span from run start to
// finalization, including the drain tail.
type Result struct {
	Name string `json:"name"`

	Total            int64 `json:"total"`
	Success          int64 `json:"success"`
	Failure          int64 `json:"failure"`
	RequestsStarted  int64 `json:"requestsStarted"`
	RequestsInFlight int64 `json:"requestsInFlight"`
	BatchesCompleted int64 `json:"batchesCompleted"`
	WorkerThreads    int   `json:"workerThreadsUsed"`

	TimeSeconds       float64 `json:"timeSeconds"`
	RequestsPerSecond float64 `json:"requestsPerSecond"`

	MinLatencyMs    float64 `json:"minLatencyMs"`
	AvgLatencyMs    float64 `json:"avgLatencyMs"`
	MedianLatencyMs float64 `json:"medianLatencyMs"`
	P95LatencyMs    float64 `json:"p95LatencyMs"`
	P99LatencyMs    float64 `json:"p99LatencyMs"`
	MaxLatencyMs    float64 `json:"maxLatencyMs"`

	// Queue times are zero when the pool mode does not measure them.
	AvgQueueTimeMs float64 `json:"avgQueueTimeMs"`
	MaxQueueTimeMs float64 `json:"maxQueueTimeMs"`

	// WorkerUtilization estimates busy time across the worker set, 0.0–1.0.
	WorkerUtilization float64 `json:"workerUtilization"`

	// PeakMemoryBytes is a best-effort process RSS peak; zero unless
	// detailed metrics are enabled.
	PeakMemoryBytes uint64 `json:"peakMemoryBytes"`
}

func newResult(name string, rep collector.Report) *Result {
	return &Result{
		Name:              name,
		Total:             rep.Total,
		Success:           rep.Success,
		Failure:           rep.Failure,
		RequestsStarted:   rep.RequestsStarted,
		RequestsInFlight:  rep.RequestsInFlight,
		BatchesCompleted:  rep.BatchesCompleted,
		WorkerThreads:     rep.WorkerThreads,
		TimeSeconds:       rep.TimeSeconds,
		RequestsPerSecond: rep.RequestsPerSecond,
		MinLatencyMs:      rep.MinLatencyMs,
		AvgLatencyMs:      rep.AvgLatencyMs,
		MedianLatencyMs:   rep.MedianLatencyMs,
		P95LatencyMs:      rep.P95LatencyMs,
		P99LatencyMs:      rep.P99LatencyMs,
		MaxLatencyMs:      rep.MaxLatencyMs,
		AvgQueueTimeMs:    rep.AvgQueueTimeMs,
		MaxQueueTimeMs:    rep.MaxQueueTimeMs,
		WorkerUtilization: rep.WorkerUtilization,
		PeakMemoryBytes:   rep.PeakMemoryBytes,
	}
}
