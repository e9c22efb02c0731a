// Package config loads and validates run-plan files for the gust engine.
//
// A plan file is YAML: a name, a load section (the timing plan), an optional
// workers section (pool selection), and an optional operation section (the
// synthetic operation profile used by the gust CLI). Files are validated
// against an embedded JSON schema before conversion, so structural mistakes
// surface with field locations instead of zero values.
package config

// File is the top-level plan-file structure.
type File struct {
	Name      string           `yaml:"name" json:"name"`
	Load      LoadSection      `yaml:"load" json:"load"`
	Workers   WorkersSection   `yaml:"workers,omitempty" json:"workers,omitempty"`
	Operation OperationSection `yaml:"operation,omitempty" json:"operation,omitempty"`
}

// LoadSection is the timing plan with durations as strings ("100ms", "30s").
type LoadSection struct {
	Concurrency   int    `yaml:"concurrency" json:"concurrency"`
	Interval      string `yaml:"interval" json:"interval"`
	Duration      string `yaml:"duration" json:"duration"`
	MaxIterations int64  `yaml:"maxIterations,omitempty" json:"maxIterations,omitempty"`
	Termination   string `yaml:"termination,omitempty" json:"termination,omitempty"`
	GracefulStop  string `yaml:"gracefulStop,omitempty" json:"gracefulStop,omitempty"`
}

// WorkersSection selects and tunes the execution pool.
type WorkersSection struct {
	Mode            string `yaml:"mode,omitempty" json:"mode,omitempty"`
	MaxWorkers      int    `yaml:"maxWorkers,omitempty" json:"maxWorkers,omitempty"`
	ChannelCapacity int    `yaml:"channelCapacity,omitempty" json:"channelCapacity,omitempty"`
	DetailedMetrics bool   `yaml:"detailedMetrics,omitempty" json:"detailedMetrics,omitempty"`
}

// OperationSection describes the built-in synthetic operation: a jittered
// sleep in [SleepMin, SleepMax] that fails a FailureRate fraction of calls.
type OperationSection struct {
	SleepMin    string  `yaml:"sleepMin,omitempty" json:"sleepMin,omitempty"`
	SleepMax    string  `yaml:"sleepMax,omitempty" json:"sleepMax,omitempty"`
	FailureRate float64 `yaml:"failureRate,omitempty" json:"failureRate,omitempty"`
}
