package core

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadGlobalConfig_Defaults(t *testing.T) {
	cm := NewConfigurationManager(t.TempDir())

	cfg, err := cm.LoadGlobalConfig()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.TodoDir != "todo" || cfg.DefaultPlanID != "default" {
		t.Fatalf("unexpected defaults: %+v", cfg)
	}
	if !cfg.EventLogEnabled {
		t.Fatal("event log should be enabled by default")
	}
	if cfg.DefaultPriority != nil {
		t.Fatalf("default priority should be unset, got %v", *cfg.DefaultPriority)
	}
}

func TestLoadGlobalConfig_FromFile(t *testing.T) {
	dir := t.TempDir()
	content := "todo_dir: work\ndefault_plan_id: main\ndefault_priority: 2\nevent_log_enabled: false\n"
	if err := os.WriteFile(filepath.Join(dir, ".planconfig"), []byte(content), 0o644); err != nil {
		t.Fatalf("writing config: %v", err)
	}

	cfg, err := NewConfigurationManager(dir).LoadGlobalConfig()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.TodoDir != "work" || cfg.DefaultPlanID != "main" {
		t.Fatalf("unexpected config: %+v", cfg)
	}
	if cfg.DefaultPriority == nil || *cfg.DefaultPriority != 2 {
		t.Fatalf("unexpected default priority: %v", cfg.DefaultPriority)
	}
	if cfg.EventLogEnabled {
		t.Fatal("event log should be disabled")
	}
}

func TestLoadGlobalConfig_PartialFile(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, ".planconfig"), []byte("todo_dir: tasks\n"), 0o644); err != nil {
		t.Fatalf("writing config: %v", err)
	}

	cfg, err := NewConfigurationManager(dir).LoadGlobalConfig()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.TodoDir != "tasks" {
		t.Fatalf("todo_dir = %q", cfg.TodoDir)
	}
	// Unspecified keys keep their defaults.
	if cfg.DefaultPlanID != "default" || !cfg.EventLogEnabled {
		t.Fatalf("defaults lost: %+v", cfg)
	}
}

func TestLoadGlobalConfig_InvalidPriority(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, ".planconfig"), []byte("default_priority: 11\n"), 0o644); err != nil {
		t.Fatalf("writing config: %v", err)
	}

	if _, err := NewConfigurationManager(dir).LoadGlobalConfig(); err == nil {
		t.Fatal("expected error for out-of-range default_priority")
	}
}
