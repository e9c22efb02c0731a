// Package gust is a programmable load-generation engine.
//
// Given an opaque asynchronous operation and a timing plan (concurrency,
// interval, duration, optional iteration cap), gust executes the operation
// repeatedly at a controlled rate, measures per-item latency, and produces
// an aggregated result: counts, throughput, latency percentiles, and
// resource telemetry.
//
// The engine emits one batch of Concurrency items per interval, executes
// them on a worker pool (a fixed hybrid pool by default, or one goroutine
// per item), and aggregates per-item outcomes in a single-consumer
// collector. Three termination modes reconcile the duration boundary with
// in-flight work, from "drain gracefully" to "cancel at the boundary".
//
// Basic usage:
//
//	plan := gust.Plan{
//	    Name: "checkout",
//	    Settings: gust.Settings{
//	        Concurrency: 25,
//	        Interval:    100 * time.Millisecond,
//	        Duration:    30 * time.Second,
//	    },
//	    Operation: func(ctx context.Context) error {
//	        return doOneRequest(ctx)
//	    },
//	}
//	result, err := gust.Run(ctx, plan)
//
// gust is a library: it ships no protocol helpers, no retries, and no
// distributed coordination. The operation owns its own error handling and
// reports success by returning nil.
package gust
