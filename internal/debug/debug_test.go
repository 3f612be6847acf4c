package debug

import (
	"bytes"
	"strings"
	"testing"
)

func TestSetOutputRedirects(t *testing.T) {
	Init(LevelInfo)
	var buf bytes.Buffer
	SetOutput(&buf)

	Info("hello %d", 42)

	out := buf.String()
	if !strings.Contains(out, "[traynode] ") {
		t.Errorf("output missing prefix: %q", out)
	}
	if !strings.Contains(out, "[INFO] hello 42") {
		t.Errorf("output missing message: %q", out)
	}
}

func TestLevelGating(t *testing.T) {
	Init(LevelInfo)
	var buf bytes.Buffer
	SetOutput(&buf)

	Weight(12.3)
	if buf.Len() != 0 {
		t.Errorf("level 2 message printed at level 1: %q", buf.String())
	}

	Event(60.0)
	if !strings.Contains(buf.String(), "+60.0 g") {
		t.Errorf("level 1 event not printed: %q", buf.String())
	}
}

func TestOffIsSilent(t *testing.T) {
	Init(LevelOff)
	// SetOutput must not panic with no logger.
	var buf bytes.Buffer
	SetOutput(&buf)

	Info("should not appear")
	Error(nil)
	if buf.Len() != 0 {
		t.Errorf("output produced at level 0: %q", buf.String())
	}
	if IsEnabled(LevelInfo) {
		t.Error("IsEnabled(LevelInfo) = true at level 0")
	}
}
