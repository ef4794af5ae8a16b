package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoad_Defaults(t *testing.T) {
	t.Chdir(t.TempDir())

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Database.Driver != "sqlite" {
		t.Errorf("driver = %q, want sqlite", cfg.Database.Driver)
	}
	if cfg.Server.Port != 8080 {
		t.Errorf("port = %d, want 8080", cfg.Server.Port)
	}
	if cfg.Jobs.SnapshotInterval != time.Hour {
		t.Errorf("snapshot interval = %v, want 1h", cfg.Jobs.SnapshotInterval)
	}
	th := cfg.Thresholds.Attempt()
	if th.FastSeconds != 20 || th.SlowSeconds != 60 || th.RecencyDecay != 0.14 {
		t.Errorf("thresholds = %+v", th)
	}
}

func TestLoad_EnvOverrides(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv("RECALL_SERVER_PORT", "9191")
	t.Setenv("RECALL_THRESHOLDS_SLOW_SECONDS", "45")
	t.Setenv("RECALL_LOG_LEVEL", "debug")

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Server.Port != 9191 {
		t.Errorf("port = %d, want 9191", cfg.Server.Port)
	}
	if cfg.Thresholds.SlowSeconds != 45 {
		t.Errorf("slow = %v, want 45", cfg.Thresholds.SlowSeconds)
	}
	if cfg.Log.Level != "debug" {
		t.Errorf("level = %q, want debug", cfg.Log.Level)
	}
}

func TestLoad_File(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "recall.yaml")
	body := "database:\n  driver: postgres\n  dsn: postgres://localhost/recall\njobs:\n  snapshot_interval: 15m\n"
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Database.Driver != "postgres" || cfg.Database.DSN != "postgres://localhost/recall" {
		t.Errorf("database = %+v", cfg.Database)
	}
	if cfg.Jobs.SnapshotInterval != 15*time.Minute {
		t.Errorf("snapshot interval = %v", cfg.Jobs.SnapshotInterval)
	}
}

func TestLoad_MissingExplicitFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "nope.yaml")); err == nil {
		t.Fatal("expected error for missing explicit config file")
	}
}

func TestValidate(t *testing.T) {
	cfg := Config{
		Database: DatabaseConfig{Driver: "mysql"},
		Server:   ServerConfig{Port: 8080},
	}
	if err := cfg.Validate(); err == nil {
		t.Error("expected error for unsupported driver")
	}
	cfg.Database.Driver = "sqlite"
	cfg.Tracing.SampleRatio = 2
	if err := cfg.Validate(); err == nil {
		t.Error("expected error for sample ratio")
	}
}
