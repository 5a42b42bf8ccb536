package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv(configPathEnv, "")

	cfg := Load()

	if cfg.Server.Port != "8080" {
		t.Fatalf("port = %s", cfg.Server.Port)
	}
	if len(cfg.Content.PrimaryURLs) != 2 {
		t.Fatalf("primary URLs = %v", cfg.Content.PrimaryURLs)
	}
	if !cfg.Delivery.RequireChannelHistoryEnabled() {
		t.Fatal("channel-history policy must default to strict")
	}
	if got := cfg.Inference.Timeout(); got != 60*time.Second {
		t.Fatalf("inference timeout = %v", got)
	}
	if got := cfg.Scheduler.Interval(); got != 0 {
		t.Fatalf("interval = %v, want 0 (daily mode)", got)
	}
	if cfg.Scheduler.DailyAt != "09:00" {
		t.Fatalf("dailyAt = %s", cfg.Scheduler.DailyAt)
	}
}

func TestLoadYAMLFileAndEnvOverrides(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	yaml := `
server:
  port: "9090"
  appName: "Test Broadcaster"
delivery:
  requireChannelHistory: false
scheduler:
  intervalMinutes: 15
`
	if err := os.WriteFile(path, []byte(yaml), 0644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	t.Setenv(configPathEnv, path)
	t.Setenv(twilioSIDEnv, "AC999")

	cfg := Load()

	if cfg.Server.Port != "9090" || cfg.Server.AppName != "Test Broadcaster" {
		t.Fatalf("server config = %+v", cfg.Server)
	}
	if cfg.Delivery.RequireChannelHistoryEnabled() {
		t.Fatal("explicit false must override the strict default")
	}
	if got := cfg.Scheduler.Interval(); got != 15*time.Minute {
		t.Fatalf("interval = %v", got)
	}
	if cfg.Delivery.AccountSID != "AC999" {
		t.Fatalf("env override lost: %s", cfg.Delivery.AccountSID)
	}
}

func TestLocationFallsBackToUTC(t *testing.T) {
	t.Parallel()

	cfg := SchedulerConfig{Timezone: "Mars/Olympus"}
	if got := cfg.Location(); got != time.UTC {
		t.Fatalf("location = %v, want UTC", got)
	}
}
