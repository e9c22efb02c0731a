package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/gustlabs/gust"
	"github.com/gustlabs/gust/pkg/jsonschema"
)

// Load reads and parses a plan file.
func Load(path string) (*File, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read plan file: %w", err)
	}
	f, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("invalid plan file %s: %w", path, err)
	}
	return f, nil
}

// Parse parses plan-file YAML, validating it against the plan schema first.
func Parse(data []byte) (*File, error) {
	var raw interface{}
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("invalid YAML: %w", err)
	}
	if err := jsonschema.Validate(raw, planSchema); err != nil {
		return nil, err
	}

	var f File
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("invalid YAML: %w", err)
	}
	return &f, nil
}

// Settings converts the load section into engine settings.
func (f *File) Settings() (gust.Settings, error) {
	s := gust.Settings{
		Concurrency:   f.Load.Concurrency,
		MaxIterations: f.Load.MaxIterations,
	}

	var err error
	if s.Interval, err = parseDuration("load.interval", f.Load.Interval); err != nil {
		return gust.Settings{}, err
	}
	if s.Duration, err = parseDuration("load.duration", f.Load.Duration); err != nil {
		return gust.Settings{}, err
	}
	if f.Load.GracefulStop != "" {
		if s.GracefulStop, err = parseDuration("load.gracefulStop", f.Load.GracefulStop); err != nil {
			return gust.Settings{}, err
		}
	}

	switch f.Load.Termination {
	case "", "duration":
		s.Termination = gust.TerminateDuration
	case "complete-current-interval":
		s.Termination = gust.TerminateCompleteCurrentInterval
	case "strict-duration":
		s.Termination = gust.TerminateStrictDuration
	default:
		return gust.Settings{}, fmt.Errorf("unknown termination mode %q", f.Load.Termination)
	}

	if err := s.Validate(); err != nil {
		return gust.Settings{}, err
	}
	return s, nil
}

// WorkerConfig converts the workers section into a pool configuration.
func (f *File) WorkerConfig() (gust.WorkerConfig, error) {
	c := gust.WorkerConfig{
		MaxWorkers:      f.Workers.MaxWorkers,
		ChannelCapacity: f.Workers.ChannelCapacity,
		DetailedMetrics: f.Workers.DetailedMetrics,
	}

	switch f.Workers.Mode {
	case "", "hybrid":
		c.Mode = gust.ModeHybrid
	case "task-spawned":
		c.Mode = gust.ModeTaskSpawned
	default:
		return gust.WorkerConfig{}, fmt.Errorf("unknown worker mode %q", f.Workers.Mode)
	}

	if err := c.Validate(); err != nil {
		return gust.WorkerConfig{}, err
	}
	return c, nil
}

// SyntheticProfile resolves the operation section with defaults applied.
func (f *File) SyntheticProfile() (sleepMin, sleepMax time.Duration, failureRate float64, err error) {
	sleepMin = 1 * time.Millisecond
	sleepMax = 10 * time.Millisecond

	if f.Operation.SleepMin != "" {
		if sleepMin, err = parseDuration("operation.sleepMin", f.Operation.SleepMin); err != nil {
			return 0, 0, 0, err
		}
	}
	if f.Operation.SleepMax != "" {
		if sleepMax, err = parseDuration("operation.sleepMax", f.Operation.SleepMax); err != nil {
			return 0, 0, 0, err
		}
	}
	if sleepMax < sleepMin {
		return 0, 0, 0, fmt.Errorf("operation.sleepMax must be >= operation.sleepMin")
	}

	failureRate = f.Operation.FailureRate
	if failureRate < 0 || failureRate >= 1 {
		return 0, 0, 0, fmt.Errorf("operation.failureRate must be in [0, 1)")
	}
	return sleepMin, sleepMax, failureRate, nil
}

func parseDuration(field, value string) (time.Duration, error) {
	d, err := time.ParseDuration(value)
	if err != nil {
		return 0, fmt.Errorf("%s: invalid duration %q", field, value)
	}
	if d < 0 {
		return 0, fmt.Errorf("%s: duration must not be negative", field)
	}
	return d, nil
}
