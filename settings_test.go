package gust

import (
	"context"
	"errors"
	"testing"
	"time"
)

func validSettings() Settings {
	return Settings{
		Concurrency: 10,
		Interval:    100 * time.Millisecond,
		Duration:    time.Second,
	}
}

func TestSettings_Validate(t *testing.T) {
	tests := []struct {
		name      string
		mutate    func(*Settings)
		wantField string
	}{
		{"valid", func(s *Settings) {}, ""},
		{"zero concurrency", func(s *Settings) { s.Concurrency = 0 }, "concurrency"},
		{"negative concurrency", func(s *Settings) { s.Concurrency = -1 }, "concurrency"},
		{"zero interval", func(s *Settings) { s.Interval = 0 }, "interval"},
		{"negative duration", func(s *Settings) { s.Duration = -time.Second }, "duration"},
		{"zero duration ok", func(s *Settings) { s.Duration = 0 }, ""},
		{"negative max iterations", func(s *Settings) { s.MaxIterations = -5 }, "maxIterations"},
		{"negative graceful stop", func(s *Settings) { s.GracefulStop = -time.Second }, "gracefulStop"},
		{"unknown termination", func(s *Settings) { s.Termination = TerminationMode(42) }, "termination"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := validSettings()
			tt.mutate(&s)
			err := s.Validate()
			if tt.wantField == "" {
				if err != nil {
					t.Fatalf("Validate() error: %v, want nil", err)
				}
				return
			}
			var ve *ValidationError
			if !errors.As(err, &ve) {
				t.Fatalf("Validate() error = %v, want *ValidationError", err)
			}
			if ve.Field != tt.wantField {
				t.Errorf("ValidationError.Field = %q, want %q", ve.Field, tt.wantField)
			}
		})
	}
}

func TestSettings_GracefulStopDefault(t *testing.T) {
	tests := []struct {
		name     string
		settings Settings
		want     time.Duration
	}{
		{
			"explicit wins",
			Settings{Duration: time.Minute, GracefulStop: 7 * time.Second},
			7 * time.Second,
		},
		{
			"short duration clamps up to 5s",
			Settings{Duration: 10 * time.Second},
			5 * time.Second,
		},
		{
			"30 percent of duration",
			Settings{Duration: 100 * time.Second},
			30 * time.Second,
		},
		{
			"long duration clamps down to 60s",
			Settings{Duration: 10 * time.Minute},
			60 * time.Second,
		},
		{
			"strict duration is zero",
			Settings{Duration: time.Minute, GracefulStop: 7 * time.Second, Termination: TerminateStrictDuration},
			0,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.settings.gracefulStop(); got != tt.want {
				t.Errorf("gracefulStop() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestSettings_DrainCeiling(t *testing.T) {
	if got := (Settings{Duration: 0}).drainCeiling(); got != 60*time.Second {
		t.Errorf("drainCeiling(0) = %v, want 60s", got)
	}
	if got := (Settings{Duration: 2 * time.Minute}).drainCeiling(); got != 3*time.Minute {
		t.Errorf("drainCeiling(2m) = %v, want 3m", got)
	}
}

func TestPlan_Validate(t *testing.T) {
	p := Plan{Settings: validSettings()}
	var ve *ValidationError
	if err := p.Validate(); !errors.As(err, &ve) || ve.Field != "operation" {
		t.Fatalf("Validate() without operation = %v, want operation ValidationError", err)
	}

	p.Operation = func(ctx context.Context) error { return nil }
	if err := p.Validate(); err != nil {
		t.Fatalf("Validate() error: %v, want nil", err)
	}
}

func TestWorkerConfig_Validate(t *testing.T) {
	if err := DefaultWorkerConfig().Validate(); err != nil {
		t.Fatalf("default config Validate() error: %v", err)
	}

	var ve *ValidationError
	cfg := WorkerConfig{Mode: ModePartitioned}
	if err := cfg.Validate(); !errors.As(err, &ve) || ve.Field != "mode" {
		t.Fatalf("reserved mode Validate() = %v, want mode ValidationError", err)
	}

	cfg = WorkerConfig{Mode: Mode(99)}
	if err := cfg.Validate(); err == nil {
		t.Fatal("unknown mode Validate() should fail")
	}

	cfg = WorkerConfig{Mode: ModeHybrid, MaxWorkers: -1}
	if err := cfg.Validate(); err == nil {
		t.Fatal("negative maxWorkers Validate() should fail")
	}
}
