package logging

import (
	"fmt"
	"log/slog"
	"testing"
)

func TestRingBufferWrapAround(t *testing.T) {
	rb := NewRingBuffer(3)

	for i := 0; i < 5; i++ {
		rb.Write(LogEntry{Message: fmt.Sprintf("msg-%d", i)})
	}

	if rb.Count() != 3 {
		t.Fatalf("Count() = %d, want 3", rb.Count())
	}

	entries := rb.ReadAll()
	want := []string{"msg-2", "msg-3", "msg-4"}
	for i, w := range want {
		if entries[i].Message != w {
			t.Errorf("entries[%d].Message = %q, want %q", i, entries[i].Message, w)
		}
	}
}

func TestRingBufferEmpty(t *testing.T) {
	rb := NewRingBuffer(10)
	if got := rb.ReadAll(); got != nil {
		t.Errorf("ReadAll() on empty buffer = %v, want nil", got)
	}
}

func TestBufferHandlerCapturesEntries(t *testing.T) {
	Initialize(Config{Level: "debug", Format: "text"})

	logger := GetLogger("testmodule")
	logger.Info("hello", "answer", 42)

	entries := GetBuffer().ReadAll()
	if len(entries) == 0 {
		t.Fatal("expected at least one buffered entry")
	}

	last := entries[len(entries)-1]
	if last.Module != "testmodule" {
		t.Errorf("Module = %q, want %q", last.Module, "testmodule")
	}
	if last.Message != "hello" {
		t.Errorf("Message = %q, want %q", last.Message, "hello")
	}
	if last.Level != "info" {
		t.Errorf("Level = %q, want %q", last.Level, "info")
	}
	if last.Attributes["answer"] != int64(42) {
		t.Errorf("Attributes[answer] = %v, want 42", last.Attributes["answer"])
	}
}

func TestModuleLevelOverride(t *testing.T) {
	Initialize(Config{
		Level:   "info",
		Format:  "text",
		Modules: map[string]string{"noisy": "error"},
	})

	logger := GetLogger("noisy")
	before := GetBuffer().Count()
	logger.Info("should be suppressed")
	if got := GetBuffer().Count(); got != before {
		t.Errorf("info record buffered despite module level error (count %d -> %d)", before, got)
	}

	logger.Error("should pass")
	if got := GetBuffer().Count(); got != before+1 {
		t.Errorf("error record not buffered (count %d -> %d)", before, got)
	}
}

func TestParseLevel(t *testing.T) {
	cases := []struct {
		in   string
		want slog.Level
		ok   bool
	}{
		{"debug", slog.LevelDebug, true},
		{"INFO", slog.LevelInfo, true},
		{"warning", slog.LevelWarn, true},
		{"error", slog.LevelError, true},
		{"bogus", 0, false},
	}

	for _, tc := range cases {
		got := parseLevel(tc.in)
		if tc.ok {
			if got == nil || *got != tc.want {
				t.Errorf("parseLevel(%q) = %v, want %v", tc.in, got, tc.want)
			}
		} else if got != nil {
			t.Errorf("parseLevel(%q) = %v, want nil", tc.in, got)
		}
	}
}
