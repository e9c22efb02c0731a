// Package telemetry provides best-effort process telemetry for load runs.
package telemetry

import (
	"os"
	"time"

	"github.com/shirou/gopsutil/v4/process"
)

// sampleGap throttles RSS reads; sampling on every request start would
// perturb the process under measurement.
const sampleGap = 100 * time.Millisecond

// MemorySampler tracks peak process RSS. It is owned by a single goroutine
// (the collector loop) and is not safe for concurrent use.
type MemorySampler struct {
	proc *process.Process
	last time.Time
	peak uint64
}

// NewMemorySampler creates a sampler for the current process. If the process
// handle cannot be obtained the sampler stays inert and Peak reports zero.
func NewMemorySampler() *MemorySampler {
	s := &MemorySampler{}
	if p, err := process.NewProcess(int32(os.Getpid())); err == nil {
		s.proc = p
	}
	return s
}

// Sample reads RSS at most once per throttle window and keeps the peak.
func (s *MemorySampler) Sample() {
	if s.proc == nil {
		return
	}
	now := time.Now()
	if !s.last.IsZero() && now.Sub(s.last) < sampleGap {
		return
	}
	s.last = now

	info, err := s.proc.MemoryInfo()
	if err != nil {
		return
	}
	if info.RSS > s.peak {
		s.peak = info.RSS
	}
}

// Peak returns the highest RSS observed so far, in bytes.
func (s *MemorySampler) Peak() uint64 {
	return s.peak
}
