package logging

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

// resetLogging clears package state between tests. The package keeps global
// state by design (one log tree per process), so tests must reset it.
func resetLogging() {
	CloseAll()
	logsDir = ""
	workspace = ""
	config = loggingConfig{}
	logLevel = LevelInfo
}

func writeConfig(t *testing.T, dir, content string) {
	t.Helper()
	cfgDir := filepath.Join(dir, ".simfleet")
	if err := os.MkdirAll(cfgDir, 0755); err != nil {
		t.Fatalf("Failed to create config dir: %v", err)
	}
	if err := os.WriteFile(filepath.Join(cfgDir, "config.yaml"), []byte(content), 0644); err != nil {
		t.Fatalf("Failed to write config: %v", err)
	}
}

func TestCategoriesLogWhenDebugEnabled(t *testing.T) {
	defer resetLogging()
	tempDir := t.TempDir()

	writeConfig(t, tempDir, `
logging:
  debug_mode: true
  level: debug
  categories:
    fleet: true
    risk: true
    actions: true
`)

	if err := Initialize(tempDir); err != nil {
		t.Fatalf("Initialize failed: %v", err)
	}

	Fleet("loaded %d cards", 3)
	Risk("assessment for sim %d", 42)
	Actions("dispatch %s", "suspend")
	CloseAll()

	entries, err := os.ReadDir(filepath.Join(tempDir, ".simfleet", "logs"))
	if err != nil {
		t.Fatalf("logs dir not created: %v", err)
	}

	found := map[string]bool{}
	for _, e := range entries {
		for _, cat := range []string{"fleet", "risk", "actions"} {
			if strings.Contains(e.Name(), cat) {
				found[cat] = true
			}
		}
	}
	for _, cat := range []string{"fleet", "risk", "actions"} {
		if !found[cat] {
			t.Errorf("expected log file for category %q", cat)
		}
	}
}

func TestUIConvenienceFuncsWriteToUICategory(t *testing.T) {
	defer resetLogging()
	tempDir := t.TempDir()

	writeConfig(t, tempDir, `
logging:
  debug_mode: true
  level: debug
  categories:
    ui: true
`)

	if err := Initialize(tempDir); err != nil {
		t.Fatalf("Initialize failed: %v", err)
	}

	UI("page switch to %s", "fleet")
	UIDebug("resize to %dx%d", 120, 40)
	UIError("clipboard copy failed: %v", os.ErrPermission)
	CloseAll()

	entries, err := os.ReadDir(filepath.Join(tempDir, ".simfleet", "logs"))
	if err != nil {
		t.Fatalf("logs dir not created: %v", err)
	}

	var uiFile string
	for _, e := range entries {
		if strings.Contains(e.Name(), "ui") {
			uiFile = filepath.Join(tempDir, ".simfleet", "logs", e.Name())
		}
	}
	if uiFile == "" {
		t.Fatal("expected a log file for the ui category")
	}

	data, err := os.ReadFile(uiFile)
	if err != nil {
		t.Fatalf("could not read ui log: %v", err)
	}
	for _, want := range []string{"page switch to fleet", "resize to 120x40", "clipboard copy failed"} {
		if !strings.Contains(string(data), want) {
			t.Errorf("ui log missing %q", want)
		}
	}
}

func TestNoLogsInProductionMode(t *testing.T) {
	defer resetLogging()
	tempDir := t.TempDir()

	// No config file at all = production mode
	if err := Initialize(tempDir); err != nil {
		t.Fatalf("Initialize failed: %v", err)
	}

	Fleet("should not be written")

	if _, err := os.Stat(filepath.Join(tempDir, ".simfleet", "logs")); !os.IsNotExist(err) {
		t.Error("logs directory must not exist in production mode")
	}
}

func TestCategoryDisabled(t *testing.T) {
	defer resetLogging()
	tempDir := t.TempDir()

	writeConfig(t, tempDir, `
logging:
  debug_mode: true
  level: debug
  categories:
    fleet: true
    risk: false
`)

	if err := Initialize(tempDir); err != nil {
		t.Fatalf("Initialize failed: %v", err)
	}

	if !IsCategoryEnabled(CategoryFleet) {
		t.Error("fleet category should be enabled")
	}
	if IsCategoryEnabled(CategoryRisk) {
		t.Error("risk category should be disabled")
	}
	// Unlisted categories default to enabled in debug mode
	if !IsCategoryEnabled(CategoryUI) {
		t.Error("unlisted category should default to enabled")
	}
}

func TestReloadConfig(t *testing.T) {
	defer resetLogging()
	tempDir := t.TempDir()

	writeConfig(t, tempDir, "logging:\n  debug_mode: false\n")
	if err := Initialize(tempDir); err != nil {
		t.Fatalf("Initialize failed: %v", err)
	}
	if IsDebugMode() {
		t.Fatal("debug mode should start disabled")
	}

	writeConfig(t, tempDir, "logging:\n  debug_mode: true\n  level: debug\n")
	if err := ReloadConfig(); err != nil {
		t.Fatalf("ReloadConfig failed: %v", err)
	}
	if !IsDebugMode() {
		t.Error("debug mode should be enabled after reload")
	}
}
