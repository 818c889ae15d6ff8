package config

import (
	"testing"
	"time"
)

func TestLoad_AppEnvValidation(t *testing.T) {
	t.Setenv("APP_ENV", "invalid")
	if _, err := Load(); err == nil {
		t.Fatalf("expected error for invalid APP_ENV")
	}
}

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("APP_ENV", EnvDev)

	cfg, err := Load()
	if err != nil {
		t.Fatalf("load config: %v", err)
	}
	if cfg.TeamSize != 6 {
		t.Fatalf("unexpected TeamSize: %d", cfg.TeamSize)
	}
	if cfg.WinCap != 3 {
		t.Fatalf("unexpected WinCap: %d", cfg.WinCap)
	}
	if cfg.QueueLimit != 30 {
		t.Fatalf("unexpected QueueLimit: %d", cfg.QueueLimit)
	}
	if cfg.MatchDuration != 10*time.Minute {
		t.Fatalf("unexpected MatchDuration: %s", cfg.MatchDuration)
	}
	if cfg.ClockCheckpointInterval != 10*time.Second {
		t.Fatalf("unexpected ClockCheckpointInterval: %s", cfg.ClockCheckpointInterval)
	}
	if cfg.ClockResumeGrace != 5*time.Second {
		t.Fatalf("unexpected ClockResumeGrace: %s", cfg.ClockResumeGrace)
	}
	if cfg.ServiceName != "pelada-manager-api" {
		t.Fatalf("unexpected ServiceName: %q", cfg.ServiceName)
	}
}

func TestLoad_QueueLimitMustHoldTwoTeams(t *testing.T) {
	t.Setenv("APP_ENV", EnvDev)
	t.Setenv("TEAM_SIZE", "6")
	t.Setenv("QUEUE_LIMIT", "11")

	if _, err := Load(); err == nil {
		t.Fatalf("expected error when QUEUE_LIMIT < 2*TEAM_SIZE")
	}
}

func TestLoad_WebhookRequiresTargetWhenEnabled(t *testing.T) {
	t.Setenv("APP_ENV", EnvDev)
	t.Setenv("WEBHOOK_ENABLED", "true")
	t.Setenv("WEBHOOK_TARGET_URL", "")

	if _, err := Load(); err == nil {
		t.Fatalf("expected error when WEBHOOK_ENABLED=true without WEBHOOK_TARGET_URL")
	}
}

func TestLoad_UptraceRequiresDSNWhenEnabled(t *testing.T) {
	t.Setenv("APP_ENV", EnvDev)
	t.Setenv("UPTRACE_ENABLED", "true")
	t.Setenv("UPTRACE_DSN", "")

	if _, err := Load(); err == nil {
		t.Fatalf("expected error when UPTRACE_ENABLED=true without UPTRACE_DSN")
	}
}

func TestLoad_WebhookConfigParsing(t *testing.T) {
	t.Setenv("APP_ENV", EnvDev)
	t.Setenv("WEBHOOK_ENABLED", "true")
	t.Setenv("WEBHOOK_TARGET_URL", "https://hooks.example.com/pelada")
	t.Setenv("WEBHOOK_TOKEN", "token-123")
	t.Setenv("WEBHOOK_TIMEOUT", "4s")
	t.Setenv("WEBHOOK_WORKERS", "2")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("load config: %v", err)
	}
	if !cfg.WebhookEnabled {
		t.Fatalf("expected WebhookEnabled=true")
	}
	if cfg.WebhookTargetURL != "https://hooks.example.com/pelada" {
		t.Fatalf("unexpected WebhookTargetURL: %q", cfg.WebhookTargetURL)
	}
	if cfg.WebhookToken != "token-123" {
		t.Fatalf("unexpected WebhookToken")
	}
	if cfg.WebhookTimeout != 4*time.Second {
		t.Fatalf("unexpected WebhookTimeout: %s", cfg.WebhookTimeout)
	}
	if cfg.WebhookWorkers != 2 {
		t.Fatalf("unexpected WebhookWorkers: %d", cfg.WebhookWorkers)
	}
}

func TestLoad_InvalidDuration(t *testing.T) {
	t.Setenv("APP_ENV", EnvDev)
	t.Setenv("MATCH_DURATION", "soon")

	if _, err := Load(); err == nil {
		t.Fatalf("expected error for unparsable MATCH_DURATION")
	}
}
