package output

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/dustin/go-humanize"

	"github.com/gustlabs/gust"
)

// Formatter writes load-run results to a writer.
type Formatter struct {
	w      io.Writer
	scheme *ColorScheme
}

// NewFormatter creates a formatter. With noColor set, all output is plain
// text.
func NewFormatter(w io.Writer, noColor bool) *Formatter {
	scheme := DefaultColorScheme()
	if noColor {
		scheme = NoColorScheme()
	}
	return &Formatter{w: w, scheme: scheme}
}

// WriteResult renders a human-readable summary of the result.
func (f *Formatter) WriteResult(res *gust.Result) error {
	name := res.Name
	if name == "" {
		name = "(unnamed)"
	}
	fmt.Fprintf(f.w, "%s\n\n", f.scheme.Title.Sprintf("Load test: %s", name))

	f.line("Total", "%d", res.Total)
	fmt.Fprintf(f.w, "  %s %s\n", f.scheme.Label.Sprint("Success:"), f.scheme.Success.Sprintf("%d", res.Success))
	failure := f.scheme.Value.Sprintf("%d", res.Failure)
	if res.Failure > 0 {
		failure = f.scheme.Failure.Sprintf("%d", res.Failure)
	}
	fmt.Fprintf(f.w, "  %s %s\n", f.scheme.Label.Sprint("Failure:"), failure)
	f.line("Started", "%d", res.RequestsStarted)
	if res.RequestsInFlight != 0 {
		fmt.Fprintf(f.w, "  %s %s\n", f.scheme.Label.Sprint("In flight:"), f.scheme.Warn.Sprintf("%d", res.RequestsInFlight))
	}
	f.line("Batches", "%d", res.BatchesCompleted)
	if res.WorkerThreads > 0 {
		f.line("Workers", "%d", res.WorkerThreads)
	}

	fmt.Fprintf(f.w, "\n  %s %s  %s %s\n",
		f.scheme.Label.Sprint("Elapsed:"), f.scheme.Value.Sprintf("%.2fs", res.TimeSeconds),
		f.scheme.Label.Sprint("Throughput:"), f.scheme.Value.Sprintf("%.1f req/s", res.RequestsPerSecond))

	fmt.Fprintf(f.w, "\n%s\n", f.scheme.Title.Sprint("Latency (ms)"))
	f.line("min", "%.2f", res.MinLatencyMs)
	f.line("avg", "%.2f", res.AvgLatencyMs)
	f.line("median", "%.2f", res.MedianLatencyMs)
	f.line("p95", "%.2f", res.P95LatencyMs)
	f.line("p99", "%.2f", res.P99LatencyMs)
	f.line("max", "%.2f", res.MaxLatencyMs)

	if res.MaxQueueTimeMs > 0 {
		fmt.Fprintf(f.w, "\n%s\n", f.scheme.Title.Sprint("Queue time (ms)"))
		f.line("avg", "%.2f", res.AvgQueueTimeMs)
		f.line("max", "%.2f", res.MaxQueueTimeMs)
	}

	fmt.Fprintln(f.w)
	if res.WorkerThreads > 0 {
		f.line("Utilization", "%.1f%%", res.WorkerUtilization*100)
	}
	if res.PeakMemoryBytes > 0 {
		f.line("Peak memory", "%s", humanize.IBytes(res.PeakMemoryBytes))
	}
	return nil
}

// WriteJSON renders the result as indented JSON.
func (f *Formatter) WriteJSON(res *gust.Result) error {
	enc := json.NewEncoder(f.w)
	enc.SetIndent("", "  ")
	return enc.Encode(res)
}

func (f *Formatter) line(label, format string, args ...interface{}) {
	fmt.Fprintf(f.w, "  %s %s\n", f.scheme.Label.Sprint(label+":"), f.scheme.Value.Sprintf(format, args...))
}
