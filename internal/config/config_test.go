package config

import (
	"testing"
	"time"
)

func TestLoad_DefaultsWithoutFile(t *testing.T) {
	t.Chdir(t.TempDir())

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Port != 8080 {
		t.Fatalf("Port=%d, want 8080", cfg.Port)
	}
	if cfg.PingPeriod != 54*time.Second {
		t.Fatalf("PingPeriod=%v, want 54s", cfg.PingPeriod)
	}
	if cfg.SendBuffer != 32 {
		t.Fatalf("SendBuffer=%d, want 32", cfg.SendBuffer)
	}
	if cfg.RestartBackoff != 2*time.Second {
		t.Fatalf("RestartBackoff=%v, want 2s", cfg.RestartBackoff)
	}
	if cfg.MaxRestarts != 0 {
		t.Fatalf("MaxRestarts=%d, want 0 (unbounded)", cfg.MaxRestarts)
	}
	if len(cfg.ICEServers) != 1 {
		t.Fatalf("ICEServers=%v, want one default STUN url", cfg.ICEServers)
	}
}
