package config_test

import (
	"errors"
	"testing"
	_ "time/tzdata"

	"github.com/EmpoweredVote/telraam-coverage/internal/config"
)

func TestLoadFromEnv_Defaults(t *testing.T) {
	for _, k := range []string{"SEGMENTS_ID", "API_RATE_LIMIT", "UPTIME_THRESHOLD", "TIMEZONE", "DATA_DIR", "PORT", "VACATION_LOCATION", "CORS_ORIGINS"} {
		t.Setenv(k, "")
	}

	cfg, err := config.LoadFromEnv()
	if err != nil {
		t.Fatalf("LoadFromEnv: %v", err)
	}
	if cfg.Timezone != config.DefaultTimezone {
		t.Errorf("expected timezone %q, got %q", config.DefaultTimezone, cfg.Timezone)
	}
	if cfg.Threshold != config.DefaultThreshold {
		t.Errorf("expected threshold %v, got %v", config.DefaultThreshold, cfg.Threshold)
	}
	if cfg.Port != config.DefaultPort {
		t.Errorf("expected port %q, got %q", config.DefaultPort, cfg.Port)
	}
	if len(cfg.SegmentIDs) != 0 {
		t.Errorf("expected no segment ids, got %v", cfg.SegmentIDs)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("Validate: %v", err)
	}
}

func TestLoadFromEnv_CORSOrigins(t *testing.T) {
	t.Setenv("CORS_ORIGINS", "https://a.example, https://b.example,")

	cfg, err := config.LoadFromEnv()
	if err != nil {
		t.Fatalf("LoadFromEnv: %v", err)
	}
	if len(cfg.CORSOrigins) != 2 || cfg.CORSOrigins[1] != "https://b.example" {
		t.Errorf("unexpected origins %v", cfg.CORSOrigins)
	}
}

func TestLoadFromEnv_SegmentIDs(t *testing.T) {
	t.Setenv("SEGMENTS_ID", "9000001, 9000002,,9000003")

	cfg, err := config.LoadFromEnv()
	if err != nil {
		t.Fatalf("LoadFromEnv: %v", err)
	}
	want := []int64{9000001, 9000002, 9000003}
	if len(cfg.SegmentIDs) != len(want) {
		t.Fatalf("expected %v, got %v", want, cfg.SegmentIDs)
	}
	for i := range want {
		if cfg.SegmentIDs[i] != want[i] {
			t.Errorf("segment %d: expected %d, got %d", i, want[i], cfg.SegmentIDs[i])
		}
	}
}

func TestLoadFromEnv_InvalidValues(t *testing.T) {
	t.Setenv("SEGMENTS_ID", "abc")
	if _, err := config.LoadFromEnv(); err == nil {
		t.Error("expected error for non-numeric SEGMENTS_ID")
	}

	t.Setenv("SEGMENTS_ID", "")
	t.Setenv("UPTIME_THRESHOLD", "high")
	if _, err := config.LoadFromEnv(); err == nil {
		t.Error("expected error for non-numeric UPTIME_THRESHOLD")
	}
}

func TestValidate(t *testing.T) {
	cfg := config.Config{Timezone: "Europe/Paris", Threshold: 1.5}
	if err := cfg.Validate(); !errors.Is(err, config.ErrInvalidThreshold) {
		t.Errorf("expected ErrInvalidThreshold, got %v", err)
	}

	cfg = config.Config{Timezone: "Mars/Olympus", Threshold: 0.5}
	if err := cfg.Validate(); err == nil {
		t.Error("expected error for unknown timezone")
	}

	cfg = config.Config{RateLimit: 1}
	if err := cfg.ValidateAPI(); !errors.Is(err, config.ErrMissingToken) {
		t.Errorf("expected ErrMissingToken, got %v", err)
	}

	cfg = config.Config{Token: "t", ReportsURL: "r", CamerasURL: "c", RateLimit: 1}
	if err := cfg.ValidateAPI(); err != nil {
		t.Errorf("ValidateAPI: %v", err)
	}
}
