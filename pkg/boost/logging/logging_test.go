package logging_test

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/jamesainslie/arcboost/pkg/boost/logging"
)

// Note: these tests cannot run in parallel; the package keeps global
// state.

func TestInit(t *testing.T) {
	validDir := t.TempDir()
	overrideDir := t.TempDir()
	badLevelDir := t.TempDir()

	tests := []struct {
		name    string
		cfg     logging.Config
		wantErr bool
	}{
		{
			name: "valid config",
			cfg: logging.Config{
				Level: "info",
				Path:  filepath.Join(validDir, "arcboost.log"),
			},
			wantErr: false,
		},
		{
			name: "component overrides",
			cfg: logging.Config{
				Level: "info",
				Path:  filepath.Join(overrideDir, "arcboost.log"),
				Components: map[string]string{
					"engine": "debug",
					"ops":    "warn",
				},
			},
			wantErr: false,
		},
		{
			name: "invalid level",
			cfg: logging.Config{
				Level: "loud",
				Path:  filepath.Join(badLevelDir, "arcboost.log"),
			},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := logging.Init(tt.cfg)
			if (err != nil) != tt.wantErr {
				t.Errorf("Init() error = %v, wantErr %v", err, tt.wantErr)
				return
			}
			if err == nil {
				if closeErr := logging.Close(); closeErr != nil {
					t.Errorf("Close() error = %v", closeErr)
				}
			}
		})
	}
}

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in      string
		want    logging.Level
		wantErr bool
	}{
		{"debug", logging.LevelDebug, false},
		{"INFO", logging.LevelInfo, false},
		{"warn", logging.LevelWarn, false},
		{"warning", logging.LevelWarn, false},
		{"error", logging.LevelError, false},
		{"verbose", logging.LevelInfo, true},
	}

	for _, tt := range tests {
		got, err := logging.ParseLevel(tt.in)
		if (err != nil) != tt.wantErr {
			t.Errorf("ParseLevel(%q) error = %v, wantErr %v", tt.in, err, tt.wantErr)
			continue
		}
		if !tt.wantErr && got != tt.want {
			t.Errorf("ParseLevel(%q) = %v, want %v", tt.in, got, tt.want)
		}
		if tt.wantErr && !errors.Is(err, logging.ErrInvalidLevel) {
			t.Errorf("ParseLevel(%q) error = %v, want ErrInvalidLevel", tt.in, err)
		}
	}
}

func TestLoggerWritesToFile(t *testing.T) {
	logPath := filepath.Join(t.TempDir(), "arcboost.log")

	if err := logging.Init(logging.Config{Level: "debug", Path: logPath}); err != nil {
		t.Fatalf("Init() error = %v", err)
	}

	logger := logging.Get("engine")
	logger.Info("applying tweak", "id", "game_mode_enable")

	if err := logging.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}

	content, err := os.ReadFile(logPath)
	if err != nil {
		t.Fatalf("reading log file: %v", err)
	}
	if !strings.Contains(string(content), "applying tweak") {
		t.Errorf("log file missing message, got: %s", content)
	}
	if !strings.Contains(string(content), "game_mode_enable") {
		t.Errorf("log file missing structured field, got: %s", content)
	}
}

func TestComponentLevelOverride(t *testing.T) {
	logPath := filepath.Join(t.TempDir(), "arcboost.log")

	cfg := logging.Config{
		Level: "error",
		Path:  logPath,
		Components: map[string]string{
			"engine": "debug",
		},
	}
	if err := logging.Init(cfg); err != nil {
		t.Fatalf("Init() error = %v", err)
	}

	logging.Get("ops").Info("ops info suppressed")
	logging.Get("engine").Info("engine info kept")

	if err := logging.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}

	content, err := os.ReadFile(logPath)
	if err != nil {
		t.Fatal(err)
	}
	if strings.Contains(string(content), "ops info suppressed") {
		t.Error("default level did not suppress ops info message")
	}
	if !strings.Contains(string(content), "engine info kept") {
		t.Error("component override did not keep engine info message")
	}
}

func TestSubscribeReceivesEntries(t *testing.T) {
	logPath := filepath.Join(t.TempDir(), "arcboost.log")

	if err := logging.Init(logging.Config{Level: "info", Path: logPath}); err != nil {
		t.Fatalf("Init() error = %v", err)
	}
	defer func() { _ = logging.Close() }()

	ch := logging.Subscribe()
	defer logging.Unsubscribe(ch)

	logging.Get("engine").Warn("skipping tweak")

	select {
	case entry := <-ch:
		if entry.Component != "engine" {
			t.Errorf("entry.Component = %q", entry.Component)
		}
		if entry.Level != logging.LevelWarn {
			t.Errorf("entry.Level = %v", entry.Level)
		}
		if entry.Message != "skipping tweak" {
			t.Errorf("entry.Message = %q", entry.Message)
		}
	case <-time.After(time.Second):
		t.Fatal("no entry received within a second")
	}
}

func TestTUIModeFillsBuffer(t *testing.T) {
	logPath := filepath.Join(t.TempDir(), "arcboost.log")

	cfg := logging.Config{Level: "info", Path: logPath, TUIMode: true}
	if err := logging.Init(cfg); err != nil {
		t.Fatalf("Init() error = %v", err)
	}
	defer func() { _ = logging.Close() }()

	logging.Get("tui").Info("first")
	logging.Get("tui").Info("second")

	buf := logging.GetLogBuffer()
	if buf == nil {
		t.Fatal("GetLogBuffer() = nil in TUI mode")
	}
	entries := buf.Entries()
	if len(entries) != 2 {
		t.Fatalf("buffer has %d entries, want 2", len(entries))
	}
	if entries[0].Message != "first" || entries[1].Message != "second" {
		t.Errorf("buffer order wrong: %q, %q", entries[0].Message, entries[1].Message)
	}
}

func TestGetBeforeInitIsSilent(t *testing.T) {
	// Not initialized: logging must not panic and must go nowhere.
	logger := logging.Get("uninitialized-component")
	logger.Info("dropped")
}
