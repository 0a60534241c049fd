package config

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write %s: %v", path, err)
	}
	return path
}

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("defaults invalid: %v", err)
	}
	if cfg.Explorer.MinYear != 1950 || cfg.Explorer.MaxYear != 2017 {
		t.Errorf("year bounds = %d-%d, want 1950-2017", cfg.Explorer.MinYear, cfg.Explorer.MaxYear)
	}
	if cfg.Explorer.DefaultTopN != 10 || cfg.Forecast.TestYears != 5 || cfg.Forecast.DefaultDiff != 1 {
		t.Errorf("unexpected defaults: %+v %+v", cfg.Explorer, cfg.Forecast)
	}
	if cfg.Notify.Message != "Forecast sent!" {
		t.Errorf("Message = %q", cfg.Notify.Message)
	}
}

func TestLoadTOML(t *testing.T) {
	t.Setenv(EnvWebhookURL, "")
	t.Setenv(EnvDataDir, "")
	path := writeFile(t, "brickcast.toml", `
[server]
port = 9000

[data]
chunks = ["a.csv", "b.csv"]

[explorer]
default_top_n = 5
global_first_seen = true

[notify]
webhook_url = "https://example.invalid/hook"
`)

	cfg, info, err := LoadWithInfo(path)
	if err != nil {
		t.Fatalf("LoadWithInfo failed: %v", err)
	}
	if !info.PortSpecified || cfg.Server.Port != 9000 {
		t.Errorf("port = %d specified=%v, want 9000 true", cfg.Server.Port, info.PortSpecified)
	}
	if len(cfg.Data.Chunks) != 2 || cfg.Explorer.DefaultTopN != 5 || !cfg.Explorer.GlobalFirstSeen {
		t.Errorf("unexpected values: %+v %+v", cfg.Data, cfg.Explorer)
	}
	// Unset keys keep their defaults.
	if cfg.Explorer.MaxYear != 2017 || cfg.Notify.TimeoutSeconds != 5 {
		t.Errorf("defaults lost: %+v %+v", cfg.Explorer, cfg.Notify)
	}

	chunks, dir, _ := cfg.Sources()
	if len(chunks) != 2 || dir != "" {
		t.Errorf("Sources() = %v %q, want explicit chunks", chunks, dir)
	}
}

func TestLoadYAML(t *testing.T) {
	t.Setenv(EnvWebhookURL, "")
	t.Setenv(EnvDataDir, "")
	path := writeFile(t, "brickcast.yaml", `
data:
  dir: /srv/lego
forecast:
  default_p: 2
  default_q: 1
log:
  level: debug
  format: json
`)

	cfg, info, err := LoadWithInfo(path)
	if err != nil {
		t.Fatalf("LoadWithInfo failed: %v", err)
	}
	if info.PortSpecified {
		t.Error("port was not set in the file")
	}
	if cfg.Forecast.DefaultP != 2 || cfg.Forecast.DefaultQ != 1 {
		t.Errorf("forecast = %+v", cfg.Forecast)
	}
	_, dir, pattern := cfg.Sources()
	if dir != "/srv/lego" || pattern != "lego_dataset_chunk_*.csv" {
		t.Errorf("Sources() dir=%q pattern=%q", dir, pattern)
	}
}

func TestEnvOverrides(t *testing.T) {
	t.Setenv(EnvWebhookURL, "https://hooks.invalid/x")
	t.Setenv(EnvDataDir, "/tmp/chunks")

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.Notify.WebhookURL != "https://hooks.invalid/x" || cfg.Data.Dir != "/tmp/chunks" {
		t.Errorf("env not applied: %+v %+v", cfg.Notify, cfg.Data)
	}
}

func TestLoadErrors(t *testing.T) {
	tests := []struct {
		name    string
		file    string
		content string
	}{
		{"unknown extension", "cfg.ini", "port=1"},
		{"bad toml", "cfg.toml", "[server\nport = 1"},
		{"bad yaml", "cfg.yaml", "server: [unclosed"},
		{"invalid range", "cfg.toml", "[explorer]\nmin_year = 2020\nmax_year = 2000"},
		{"invalid format", "cfg.toml", "[log]\nformat = \"xml\""},
		{"top n beyond palette", "cfg.toml", "[explorer]\nmax_top_n = 26"},
		{"top n zero", "cfg.yaml", "explorer:\n  max_top_n: 0"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := Load(writeFile(t, tt.file, tt.content)); err == nil {
				t.Error("expected error")
			}
		})
	}

	if _, err := Load(filepath.Join(t.TempDir(), "missing.toml")); err == nil {
		t.Error("expected error for a missing file")
	}

	cfg, err := Load(writeFile(t, "full.toml", "[explorer]\nmax_top_n = 25"))
	if err != nil {
		t.Fatalf("max_top_n at the palette size should load: %v", err)
	}
	if cfg.Explorer.MaxTopN != 25 {
		t.Errorf("MaxTopN = %d, want 25", cfg.Explorer.MaxTopN)
	}
}

func TestNewLogger(t *testing.T) {
	var buf bytes.Buffer
	logger := LogConfig{Level: "warn", Format: "json"}.NewLogger(&buf)
	logger.Info("hidden")
	logger.Warn("shown", "k", 1)

	out := buf.String()
	if strings.Contains(out, "hidden") {
		t.Error("info record should be filtered at warn level")
	}
	if !strings.Contains(out, `"msg":"shown"`) {
		t.Errorf("expected a JSON record, got %q", out)
	}
}
