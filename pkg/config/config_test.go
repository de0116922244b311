package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestLoadMissingFileUsesDefaults(t *testing.T) {
	dir := t.TempDir()
	cfg, err := Load(filepath.Join(dir, "config.yaml"))
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.SheetName != DefaultSheetName || cfg.Auth.Mode != AuthOAuth || cfg.StateFile != DefaultStateFile {
		t.Errorf("Unexpected defaults: %+v", cfg)
	}
	if cfg.Dir != dir {
		t.Errorf("Expected Dir %s, got %s", dir, cfg.Dir)
	}
	if err := cfg.Validate(); err == nil || !strings.Contains(err.Error(), "set-sheet") {
		t.Errorf("Expected validation error pointing at set-sheet, got %v", err)
	}
}

func TestLoadFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	content := `spreadsheet_id: abc123
sheet_name: Mac
request_timeout: 5s
auth:
  mode: service_account
  service_account_file: /etc/casetime/sa.json
`
	if err := os.WriteFile(path, []byte(content), 0600); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("Validate failed: %v", err)
	}
	if cfg.SpreadsheetID != "abc123" || cfg.SheetName != "Mac" {
		t.Errorf("Unexpected sheet settings: %+v", cfg)
	}
	if d, _ := cfg.Timeout(); d != 5*time.Second {
		t.Errorf("Expected 5s timeout, got %v", d)
	}
	if got := cfg.Path(cfg.Auth.ServiceAccountFile); got != "/etc/casetime/sa.json" {
		t.Errorf("Expected absolute path to be kept, got %s", got)
	}
	if got := cfg.Path(cfg.StateFile); got != filepath.Join(dir, DefaultStateFile) {
		t.Errorf("Expected state file in config dir, got %s", got)
	}
}

func TestValidateRejectsBadValues(t *testing.T) {
	cfg := Default()
	cfg.SpreadsheetID = "abc"
	cfg.Auth.Mode = "magic"
	if err := cfg.Validate(); err == nil {
		t.Error("Expected error for unknown auth mode")
	}

	cfg.Auth.Mode = AuthOAuth
	cfg.RequestTimeout = "-1s"
	if err := cfg.Validate(); err == nil {
		t.Error("Expected error for negative timeout")
	}
}

func TestSaveRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "config.yaml")
	cfg := Default()
	cfg.SpreadsheetID = "xyz"
	cfg.SheetName = "My Sheet"
	if err := Save(path, cfg); err != nil {
		t.Fatalf("Save failed: %v", err)
	}
	loaded, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if loaded.SpreadsheetID != "xyz" || loaded.SheetName != "My Sheet" || loaded.Auth.TokenFile != "token.json" {
		t.Errorf("Unexpected config after round trip: %+v", loaded)
	}
}
