package main

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/angch/logrelay/config"
	"github.com/angch/logrelay/relay"
	"github.com/angch/logrelay/sink"
	"github.com/angch/logrelay/sources"
)

func startWatcher(t *testing.T, initial string) (string, <-chan *config.Config) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "logrelay.yaml")
	if err := os.WriteFile(path, []byte(initial), 0644); err != nil {
		t.Fatal(err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)

	reloadCh := make(chan *config.Config, 4)
	go watchConfig(ctx, path, func(cfg *config.Config) {
		select {
		case reloadCh <- cfg:
		default:
		}
	})

	// Wait for watcher to start (naive sleep, but fsnotify startup is fast)
	time.Sleep(100 * time.Millisecond)
	return path, reloadCh
}

func TestWatchConfig(t *testing.T) {
	path, reloadCh := startWatcher(t, "tool: logcat\n")

	if err := os.WriteFile(path, []byte("tool: logcat\nverbose: true\n"), 0644); err != nil {
		t.Fatal(err)
	}

	select {
	case cfg := <-reloadCh:
		if !cfg.Verbose {
			t.Error("Expected the reloaded config to be verbose")
		}
	case <-time.After(2 * time.Second):
		t.Fatal("Timeout waiting for reload callback on valid config change")
	}
}

func TestWatchConfig_Invalid(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{name: "bad yaml", content: "tool: logcat\n  invalid_yaml_indentation\n"},
		{name: "unknown tool", content: "tool: syslog\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path, reloadCh := startWatcher(t, "tool: logcat\n")

			if err := os.WriteFile(path, []byte(tt.content), 0644); err != nil {
				t.Fatal(err)
			}

			select {
			case <-reloadCh:
				t.Fatal("Reload callback called for invalid config")
			case <-time.After(1 * time.Second):
			}
		})
	}
}

func TestApplyReload(t *testing.T) {
	r := relay.New(sources.Tool{Name: "logcat"}, sink.NewRecorder(0), false)
	cur := &config.Config{Tool: "logcat"}

	applyReload(cur, &config.Config{Tool: "dmesg", Verbose: true}, r)

	if !cur.Verbose {
		t.Error("Verbose should be applied")
	}
	if cur.Tool != "logcat" {
		t.Error("Tool changes must not be applied without a restart")
	}
}
