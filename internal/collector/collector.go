// Package collector accumulates per-request events and computes the final
// aggregated report of a run.
package collector

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	hdrhistogram "github.com/HdrHistogram/hdrhistogram-go"

	"github.com/gustlabs/gust/internal/telemetry"
)

// inboxCapacity sizes the event channel. Producers must never block in the
// hot path; the buffer is large enough that a send only blocks when the
// collector loop has fallen pathologically far behind.
const inboxCapacity = 16384

// Histogram bounds for the live latency view: 1 microsecond to 1 hour,
// 3 significant figures.
const (
	histMinMicros = 1
	histMaxMicros = 3600000000
	histSigFigs   = 3
)

// Report is the finalized aggregate of one run. All latencies are
// milliseconds.
type Report struct {
	Total             int64   `json:"total"`
	Success           int64   `json:"success"`
	Failure           int64   `json:"failure"`
	RequestsStarted   int64   `json:"requestsStarted"`
	RequestsInFlight  int64   `json:"requestsInFlight"`
	BatchesCompleted  int64   `json:"batchesCompleted"`
	WorkerThreads     int     `json:"workerThreadsUsed"`
	TimeSeconds       float64 `json:"timeSeconds"`
	RequestsPerSecond float64 `json:"requestsPerSecond"`
	MinLatencyMs      float64 `json:"minLatencyMs"`
	AvgLatencyMs      float64 `json:"avgLatencyMs"`
	MedianLatencyMs   float64 `json:"medianLatencyMs"`
	P95LatencyMs      float64 `json:"p95LatencyMs"`
	P99LatencyMs      float64 `json:"p99LatencyMs"`
	MaxLatencyMs      float64 `json:"maxLatencyMs"`
	AvgQueueTimeMs    float64 `json:"avgQueueTimeMs"`
	MaxQueueTimeMs    float64 `json:"maxQueueTimeMs"`
	WorkerUtilization float64 `json:"workerUtilization"`
	PeakMemoryBytes   uint64  `json:"peakMemoryBytes"`
}

// Snapshot is a cheap live view of the run so far. It is observational:
// latency percentiles come from an HDR histogram, not from the exact sample
// math used for the final report.
type Snapshot struct {
	RequestsStarted   int64
	RequestsInFlight  int64
	Success           int64
	Failure           int64
	BatchesCompleted  int64
	Elapsed           time.Duration
	RequestsPerSecond float64
	MinLatencyMs      float64
	P50LatencyMs      float64
	P95LatencyMs      float64
	P99LatencyMs      float64
	MaxLatencyMs      float64
}

type event interface{ isEvent() }

type requestStarted struct{}

type stepResult struct {
	success    bool
	service    time.Duration
	queue      time.Duration
	queueKnown bool
}

type batchCompleted struct{}

type workerThreads struct{ n int }

type adjustInFlight struct{ delta int64 }

type resultRequest struct{ reply chan Report }

func (requestStarted) isEvent() {}
func (stepResult) isEvent()     {}
func (batchCompleted) isEvent() {}
func (workerThreads) isEvent()  {}
func (adjustInFlight) isEvent() {}
func (resultRequest) isEvent()  {}

// Collector absorbs a stream of per-request events and, on request, emits a
// finalized Report.
//
// All events are serialized through a single inbox drained by one loop
// goroutine; the aggregation state below needs no locking. The only shared
// pieces are the atomic counters and the histogram mutex backing Snapshot.
type Collector struct {
	inbox chan event
	quit  chan struct{}
	done  chan struct{}
	once  sync.Once

	start time.Time
	mem   *telemetry.MemorySampler

	// Loop-owned aggregation state.
	started  int64
	inFlight int64
	success  int64
	failure  int64
	batches  int64
	workers  int

	samples    []float64
	sumSvc     float64
	minSvc     float64
	maxSvc     float64
	sumQueue   float64
	maxQueue   float64
	queueCount int64

	finalized *Report

	// Live mirrors for Snapshot.
	liveStarted  atomic.Int64
	liveInFlight atomic.Int64
	liveSuccess  atomic.Int64
	liveFailure  atomic.Int64
	liveBatches  atomic.Int64

	hist   *hdrhistogram.Histogram
	histMu sync.Mutex
}

// New creates a collector whose elapsed-time measurements are anchored at
// start (the orchestrator's test-start timestamp). With detailed set, the
// collector opportunistically samples process memory on request starts.
func New(start time.Time, detailed bool) *Collector {
	c := &Collector{
		inbox: make(chan event, inboxCapacity),
		quit:  make(chan struct{}),
		done:  make(chan struct{}),
		start: start,
		hist:  hdrhistogram.New(histMinMicros, histMaxMicros, histSigFigs),
	}
	if detailed {
		c.mem = telemetry.NewMemorySampler()
	}
	go c.loop()
	return c
}

// RequestStarted records that an item has begun executing.
func (c *Collector) RequestStarted() {
	c.send(requestStarted{})
}

// StepResult records a completed item. queueKnown is false for pools that do
// not measure queue time.
func (c *Collector) StepResult(success bool, service, queue time.Duration, queueKnown bool) {
	c.send(stepResult{success: success, service: service, queue: queue, queueKnown: queueKnown})
}

// BatchCompleted records that one full batch has been submitted.
func (c *Collector) BatchCompleted() {
	c.send(batchCompleted{})
}

// SetWorkerThreads records the pool's worker count. Single-shot in practice;
// the last value wins.
func (c *Collector) SetWorkerThreads(n int) {
	c.send(workerThreads{n: n})
}

// AdjustInFlight reconciles the in-flight count after cancellation abandons
// started-but-unfinished items.
func (c *Collector) AdjustInFlight(delta int64) {
	c.send(adjustInFlight{delta: delta})
}

func (c *Collector) send(ev event) {
	select {
	case c.inbox <- ev:
	case <-c.quit:
	}
}

// Result finalizes the run and returns the report. Finalization is
// idempotent: repeated calls return the identical report, with elapsed time
// frozen at the first call. The wait is bounded by timeout; expiry or a
// stopped collector is an engine failure.
func (c *Collector) Result(ctx context.Context, timeout time.Duration) (Report, error) {
	reply := make(chan Report, 1)
	timer := time.NewTimer(timeout)
	defer timer.Stop()

	select {
	case c.inbox <- resultRequest{reply: reply}:
	case <-c.quit:
		return Report{}, fmt.Errorf("collector unreachable: stopped")
	case <-ctx.Done():
		return Report{}, ctx.Err()
	case <-timer.C:
		return Report{}, fmt.Errorf("collector unreachable: no reply within %s", timeout)
	}

	select {
	case rep := <-reply:
		return rep, nil
	case <-c.quit:
		return Report{}, fmt.Errorf("collector unreachable: stopped")
	case <-ctx.Done():
		return Report{}, ctx.Err()
	case <-timer.C:
		return Report{}, fmt.Errorf("collector unreachable: no reply within %s", timeout)
	}
}

// Snapshot returns a live view of the run so far.
func (c *Collector) Snapshot() Snapshot {
	s := Snapshot{
		RequestsStarted:  c.liveStarted.Load(),
		RequestsInFlight: c.liveInFlight.Load(),
		Success:          c.liveSuccess.Load(),
		Failure:          c.liveFailure.Load(),
		BatchesCompleted: c.liveBatches.Load(),
		Elapsed:          time.Since(c.start),
	}
	if total := s.Success + s.Failure; total > 0 && s.Elapsed > 0 {
		s.RequestsPerSecond = float64(total) / s.Elapsed.Seconds()
	}

	c.histMu.Lock()
	defer c.histMu.Unlock()
	if c.hist.TotalCount() > 0 {
		s.MinLatencyMs = float64(c.hist.Min()) / 1000.0
		s.P50LatencyMs = float64(c.hist.ValueAtQuantile(50)) / 1000.0
		s.P95LatencyMs = float64(c.hist.ValueAtQuantile(95)) / 1000.0
		s.P99LatencyMs = float64(c.hist.ValueAtQuantile(99)) / 1000.0
		s.MaxLatencyMs = float64(c.hist.Max()) / 1000.0
	}
	return s
}

// Close stops the collector loop. Events sent after Close are discarded.
func (c *Collector) Close() {
	c.once.Do(func() { close(c.quit) })
	<-c.done
}

func (c *Collector) loop() {
	defer close(c.done)
	for {
		select {
		case <-c.quit:
			return
		case ev := <-c.inbox:
			c.handle(ev)
		}
	}
}

func (c *Collector) handle(ev event) {
	if req, ok := ev.(resultRequest); ok {
		req.reply <- c.finalize()
		return
	}
	if c.finalized != nil {
		// Immutable once reporting has begun.
		return
	}

	switch ev := ev.(type) {
	case requestStarted:
		c.started++
		c.inFlight++
		c.liveStarted.Add(1)
		c.liveInFlight.Add(1)
		if c.mem != nil {
			c.mem.Sample()
		}

	case stepResult:
		c.inFlight--
		c.liveInFlight.Add(-1)
		if ev.success {
			c.success++
			c.liveSuccess.Add(1)
		} else {
			c.failure++
			c.liveFailure.Add(1)
		}

		ms := float64(ev.service) / float64(time.Millisecond)
		c.samples = append(c.samples, ms)
		c.sumSvc += ms
		if len(c.samples) == 1 || ms < c.minSvc {
			c.minSvc = ms
		}
		if ms > c.maxSvc {
			c.maxSvc = ms
		}

		if ev.queueKnown {
			qms := float64(ev.queue) / float64(time.Millisecond)
			c.sumQueue += qms
			if qms > c.maxQueue {
				c.maxQueue = qms
			}
			c.queueCount++
		}

		c.recordHist(ev.service)

	case batchCompleted:
		c.batches++
		c.liveBatches.Add(1)

	case workerThreads:
		c.workers = ev.n

	case adjustInFlight:
		c.inFlight += ev.delta
		c.liveInFlight.Add(ev.delta)
	}
}

func (c *Collector) recordHist(service time.Duration) {
	micros := service.Microseconds()
	if micros < histMinMicros {
		micros = histMinMicros
	}
	if micros > histMaxMicros {
		micros = histMaxMicros
	}
	c.histMu.Lock()
	c.hist.RecordValue(micros)
	c.histMu.Unlock()
}

// finalize computes the report once and caches it; state is immutable from
// here on.
func (c *Collector) finalize() Report {
	if c.finalized != nil {
		return *c.finalized
	}

	elapsed := time.Since(c.start)
	total := c.success + c.failure

	rep := Report{
		Total:            total,
		Success:          c.success,
		Failure:          c.failure,
		RequestsStarted:  c.started,
		RequestsInFlight: c.inFlight,
		BatchesCompleted: c.batches,
		WorkerThreads:    c.workers,
		TimeSeconds:      elapsed.Seconds(),
	}

	n := len(c.samples)
	if n > 0 {
		sortSamples(c.samples)
		rep.AvgLatencyMs = c.sumSvc / float64(n)
		rep.MinLatencyMs = c.minSvc
		rep.MaxLatencyMs = c.maxSvc
		rep.MedianLatencyMs = nearestRank(c.samples, 0.50)
		rep.P95LatencyMs = nearestRank(c.samples, 0.95)
		rep.P99LatencyMs = nearestRank(c.samples, 0.99)
	}

	if c.queueCount > 0 {
		rep.AvgQueueTimeMs = c.sumQueue / float64(c.queueCount)
		rep.MaxQueueTimeMs = c.maxQueue
	}

	if elapsed > 0 {
		rep.RequestsPerSecond = float64(total) / elapsed.Seconds()
	}

	if c.workers > 0 && elapsed > 0 {
		elapsedMs := float64(elapsed) / float64(time.Millisecond)
		util := rep.AvgLatencyMs * float64(total) / (float64(c.workers) * elapsedMs)
		if util > 1.0 {
			util = 1.0
		}
		rep.WorkerUtilization = util
	}

	if c.mem != nil {
		rep.PeakMemoryBytes = c.mem.Peak()
	}

	c.finalized = &rep
	return rep
}
