package logging

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in   string
		want zapcore.Level
		err  bool
	}{
		{"debug", zapcore.DebugLevel, false},
		{"info", zapcore.InfoLevel, false},
		{"", zapcore.InfoLevel, false},
		{"warn", zapcore.WarnLevel, false},
		{"error", zapcore.ErrorLevel, false},
		{"loud", defaultZapLevel, true},
	}
	for _, tt := range tests {
		got, err := ParseLevel(tt.in)
		if (err != nil) != tt.err {
			t.Errorf("ParseLevel(%q) error = %v", tt.in, err)
		}
		if got != tt.want {
			t.Errorf("ParseLevel(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestRingNewestFirst(t *testing.T) {
	ring := NewRing(3)
	log := FromCore(ring)

	for i := 1; i <= 5; i++ {
		log.Infof("line %d", i)
	}
	log.Debug("hidden")

	got := ring.Entries()
	if len(got) != 3 {
		t.Fatalf("entries: got %d, want 3", len(got))
	}
	for i, want := range []string{"line 5", "line 4", "line 3"} {
		if got[i].Message != want {
			t.Errorf("entry %d: got %q, want %q", i, got[i].Message, want)
		}
	}
}

func TestRingSharedAcrossWith(t *testing.T) {
	ring := NewRing(DefaultRingSize)
	log := FromCore(ring).With("component", "session")
	log.Warn("link lost")

	if e := ring.Entries(); len(e) != 1 || e[0].Level != zapcore.WarnLevel {
		t.Fatalf("entries: %+v", e)
	}
}

func TestNewTeesRingAndFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "logs", "greensat.log")
	ring := NewRing(10)

	log, err := New(Options{Level: DebugLevel, File: path, Ring: ring})
	if err != nil {
		t.Fatal(err)
	}
	log.Debugw("poll failed", "err", fmt.Errorf("timeout"))
	log.Info("Database synced.")
	if err := log.Close(); err != nil {
		t.Fatal(err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	text := string(data)
	if !strings.Contains(text, "poll failed") || !strings.Contains(text, "Database synced.") {
		t.Errorf("log file missing lines:\n%s", text)
	}

	entries := ring.Entries()
	if len(entries) != 1 || entries[0].Message != "Database synced." {
		t.Errorf("ring should only hold info+: %+v", entries)
	}
}

func TestNewRejectsBadLevel(t *testing.T) {
	if _, err := New(Options{Level: "verbose"}); err == nil {
		t.Error("expected error for unknown level")
	}
}

func TestObserverCapture(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	log := FromCore(core)
	log.Infow("Chart Data Loaded: day", "samples", 3)

	if logs.FilterMessage("Chart Data Loaded: day").Len() != 1 {
		t.Errorf("observer did not capture entry: %v", logs.All())
	}
}
