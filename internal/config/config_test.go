package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if !cfg.Parser.Lenient {
		t.Error("Parser.Lenient default should be true")
	}
	if cfg.Billing.BlockHours != 5 {
		t.Errorf("BlockHours = %d, want 5", cfg.Billing.BlockHours)
	}
	if cfg.Output.Width != 100 {
		t.Errorf("Width = %d, want 100", cfg.Output.Width)
	}
	if cfg.Watch.IntervalSeconds != 30 {
		t.Errorf("IntervalSeconds = %d, want 30", cfg.Watch.IntervalSeconds)
	}
}

func TestLoadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	content := `
claude_home: /data/claude
parser:
  lenient: false
  max_file_size: 1024
billing:
  block_hours: 3
  budget_usd: 25.5
pricing:
  sonnet: [3.0, 15.0, 0.3, 3.75]
`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.ClaudeHome != "/data/claude" {
		t.Errorf("ClaudeHome = %q", cfg.ClaudeHome)
	}
	if cfg.Parser.Lenient {
		t.Error("Parser.Lenient should be false")
	}
	if cfg.Parser.MaxFileSize != 1024 {
		t.Errorf("MaxFileSize = %d", cfg.Parser.MaxFileSize)
	}
	if cfg.Billing.BlockHours != 3 || cfg.Billing.BudgetUSD != 25.5 {
		t.Errorf("Billing = %+v", cfg.Billing)
	}
	rates, ok := cfg.Pricing["sonnet"]
	if !ok || rates[1] != 15.0 {
		t.Errorf("Pricing = %+v", cfg.Pricing)
	}
}

func TestExpandPath(t *testing.T) {
	home, err := os.UserHomeDir()
	if err != nil {
		t.Skip("no home dir")
	}
	if got := expandPath("~/x"); got != filepath.Join(home, "x") {
		t.Errorf("expandPath(~/x) = %q", got)
	}
	if got := expandPath("/abs/path"); got != "/abs/path" {
		t.Errorf("expandPath(/abs/path) = %q", got)
	}
}
