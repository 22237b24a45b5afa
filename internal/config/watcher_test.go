package config

import (
	"context"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"
)

func TestWatcherFiresOnConfigChange(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	if err := os.WriteFile(path, []byte("name: simfleet\n"), 0644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	var fired int32
	w, err := NewWatcher(path, func(cfg *Config) {
		atomic.AddInt32(&fired, 1)
	})
	if err != nil {
		t.Fatalf("NewWatcher: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	if err := w.Start(ctx); err != nil {
		t.Fatalf("Start: %v", err)
	}
	defer w.Stop()

	// Give the watcher time to register, then modify the file
	time.Sleep(50 * time.Millisecond)
	if err := os.WriteFile(path, []byte("name: simfleet\nui:\n  dark_mode: true\n"), 0644); err != nil {
		t.Fatalf("rewrite config: %v", err)
	}

	deadline := time.After(2 * time.Second)
	for atomic.LoadInt32(&fired) == 0 {
		select {
		case <-deadline:
			t.Fatal("watcher did not fire within 2s")
		case <-time.After(20 * time.Millisecond):
		}
	}
}

func TestWatcherIgnoresOtherFiles(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	if err := os.WriteFile(path, []byte("name: simfleet\n"), 0644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	var fired int32
	w, err := NewWatcher(path, func(cfg *Config) {
		atomic.AddInt32(&fired, 1)
	})
	if err != nil {
		t.Fatalf("NewWatcher: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	if err := w.Start(ctx); err != nil {
		t.Fatalf("Start: %v", err)
	}
	defer w.Stop()

	time.Sleep(50 * time.Millisecond)
	if err := os.WriteFile(filepath.Join(dir, "other.yaml"), []byte("x: 1\n"), 0644); err != nil {
		t.Fatalf("write other: %v", err)
	}

	time.Sleep(300 * time.Millisecond)
	if atomic.LoadInt32(&fired) != 0 {
		t.Error("watcher fired for an unrelated file")
	}
}

func TestWatcherStopIsIdempotent(t *testing.T) {
	dir := t.TempDir()
	w, err := NewWatcher(filepath.Join(dir, "config.yaml"), nil)
	if err != nil {
		t.Fatalf("NewWatcher: %v", err)
	}
	if err := w.Start(context.Background()); err != nil {
		t.Fatalf("Start: %v", err)
	}
	w.Stop()
	w.Stop() // second call must not panic or block
}
