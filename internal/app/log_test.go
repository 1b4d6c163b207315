package app

import (
	"bytes"
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestTsmHandler_Handle(t *testing.T) {
	ts := time.Date(2012, 2, 3, 3, 30, 0, 0, time.UTC)

	tests := []struct {
		name    string
		runID   string
		level   slog.Level
		message string
		attrs   []slog.Attr
		want    string
	}{
		{
			name:    "basic info message",
			runID:   "run-123",
			level:   slog.LevelInfo,
			message: "rotation started",
			want:    "2012-02-03T03:30:00Z\tINFO\trun-123\trotation started\n",
		},
		{
			name:    "debug level",
			runID:   "run-456",
			level:   slog.LevelDebug,
			message: "tier not due",
			want:    "2012-02-03T03:30:00Z\tDEBUG\trun-456\ttier not due\n",
		},
		{
			name:    "with record attrs",
			runID:   "run-789",
			level:   slog.LevelInfo,
			message: "archive action done",
			attrs:   []slog.Attr{slog.String("archive", "foo_daily_2012-02-03"), slog.Int("actions", 5)},
			want:    "2012-02-03T03:30:00Z\tINFO\trun-789\tarchive action done\tarchive=foo_daily_2012-02-03\tactions=5\n",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			h := &tsmHandler{w: &buf, runID: tt.runID}

			r := slog.NewRecord(ts, tt.level, tt.message, 0)
			for _, a := range tt.attrs {
				r.AddAttrs(a)
			}

			if err := h.Handle(context.Background(), r); err != nil {
				t.Fatalf("Handle() error = %v", err)
			}

			if got := buf.String(); got != tt.want {
				t.Errorf("Handle() output =\n%q\nwant:\n%q", got, tt.want)
			}
		})
	}
}

func TestTsmHandler_WithAttrs(t *testing.T) {
	var buf bytes.Buffer
	h := &tsmHandler{w: &buf, runID: "run-1"}

	h2 := h.WithAttrs([]slog.Attr{slog.String("component", "scheduler")}).(*tsmHandler)

	ts := time.Date(2012, 1, 1, 0, 0, 0, 0, time.UTC)
	r := slog.NewRecord(ts, slog.LevelInfo, "tick", 0)
	r.AddAttrs(slog.String("tier", "weekly"))

	if err := h2.Handle(context.Background(), r); err != nil {
		t.Fatalf("Handle() error = %v", err)
	}

	got := buf.String()
	if !strings.Contains(got, "component=scheduler") {
		t.Errorf("expected pre-set attr component=scheduler, got: %q", got)
	}
	if !strings.Contains(got, "tier=weekly") {
		t.Errorf("expected record attr tier=weekly, got: %q", got)
	}
}

func TestTsmHandler_WithAttrs_doesNotMutateOriginal(t *testing.T) {
	var buf bytes.Buffer
	h := &tsmHandler{w: &buf, runID: "run-1", attrs: []slog.Attr{slog.String("a", "1")}}

	h2 := h.WithAttrs([]slog.Attr{slog.String("b", "2")}).(*tsmHandler)

	if len(h.attrs) != 1 {
		t.Errorf("original handler attrs modified: got %d, want 1", len(h.attrs))
	}
	if len(h2.attrs) != 2 {
		t.Errorf("new handler attrs: got %d, want 2", len(h2.attrs))
	}
}

func TestTsmHandler_Enabled(t *testing.T) {
	t.Run("no level enables everything", func(t *testing.T) {
		h := &tsmHandler{}
		for _, level := range []slog.Level{slog.LevelDebug, slog.LevelInfo, slog.LevelWarn, slog.LevelError} {
			if !h.Enabled(context.Background(), level) {
				t.Errorf("Enabled(%v) = false, want true", level)
			}
		}
	})

	t.Run("minimum level filters", func(t *testing.T) {
		h := &tsmHandler{level: slog.LevelWarn}
		want := map[slog.Level]bool{
			slog.LevelDebug: false,
			slog.LevelInfo:  false,
			slog.LevelWarn:  true,
			slog.LevelError: true,
		}
		for level, enabled := range want {
			if got := h.Enabled(context.Background(), level); got != enabled {
				t.Errorf("Enabled(%v) = %v, want %v", level, got, enabled)
			}
		}
	})
}

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in      string
		want    slog.Level
		wantErr bool
	}{
		{in: "", want: slog.LevelInfo},
		{in: "debug", want: slog.LevelDebug},
		{in: "INFO", want: slog.LevelInfo},
		{in: "warn", want: slog.LevelWarn},
		{in: "error", want: slog.LevelError},
		{in: "loud", wantErr: true},
	}

	for _, tt := range tests {
		got, err := parseLevel(tt.in)
		if (err != nil) != tt.wantErr {
			t.Errorf("parseLevel(%q) error = %v, wantErr %v", tt.in, err, tt.wantErr)
			continue
		}
		if !tt.wantErr && got != tt.want {
			t.Errorf("parseLevel(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestNewLogger(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "log")
	var stderr bytes.Buffer

	logger, f, err := newLogger(dir, "test-run", "info", &stderr)
	if err != nil {
		t.Fatalf("newLogger() error = %v", err)
	}
	defer f.Close()

	logger.Debug("hidden")
	logger.Info("visible", "archive", "foo_daily_2012-02-03")

	data, err := os.ReadFile(filepath.Join(dir, "tsm.log"))
	if err != nil {
		t.Fatalf("reading log file: %v", err)
	}
	if strings.Contains(string(data), "hidden") {
		t.Errorf("debug record written at info level: %q", data)
	}
	if !strings.Contains(string(data), "\ttest-run\tvisible\tarchive=foo_daily_2012-02-03") {
		t.Errorf("log file = %q, want the info record", data)
	}
	if stderr.String() != string(data) {
		t.Errorf("stderr = %q, want same as log file %q", stderr.String(), data)
	}
}

func TestNewLogger_InvalidLevel(t *testing.T) {
	if _, _, err := newLogger(t.TempDir(), "run", "chatty", &bytes.Buffer{}); err == nil {
		t.Fatal("newLogger() error = nil, want error for bad level")
	}
}
