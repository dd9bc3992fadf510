package logger

import (
	"bytes"
	"os"
	"os/exec"
	"strings"
	"testing"
)

func TestPrintfPrefix(t *testing.T) {
	var buf bytes.Buffer
	SetOutput(&buf)
	defer SetOutput(os.Stderr)

	Printf("generated %s", "PinMapping-MK20D5.h")
	out := buf.String()
	if !strings.HasPrefix(out, "[pmt] ") {
		t.Errorf("missing prefix: %q", out)
	}
	if !strings.Contains(out, "generated PinMapping-MK20D5.h") {
		t.Errorf("unexpected output: %q", out)
	}
}

func TestDebugfGated(t *testing.T) {
	var buf bytes.Buffer
	SetOutput(&buf)
	defer SetOutput(os.Stderr)
	defer SetDebug(DebugEnabled())

	SetDebug(false)
	Debugf("hidden %d", 1)
	if buf.Len() != 0 {
		t.Fatalf("debug output written while disabled: %q", buf.String())
	}

	SetDebug(true)
	Debugf("shown %d", 2)
	if !strings.Contains(buf.String(), "debug: shown 2") {
		t.Errorf("expected debug line, got %q", buf.String())
	}
}

func TestFatalExits(t *testing.T) {
	if os.Getenv("PMT_LOGGER_FATAL") == "1" {
		Fatal("pin table missing")
		return
	}
	cmd := exec.Command(os.Args[0], "-test.run=TestFatalExits")
	cmd.Env = append(os.Environ(), "PMT_LOGGER_FATAL=1")
	var stderr bytes.Buffer
	cmd.Stderr = &stderr
	err := cmd.Run()
	if e, ok := err.(*exec.ExitError); !ok || e.Success() {
		t.Fatalf("expected non-zero exit, got %v", err)
	}
	if !strings.Contains(stderr.String(), "pin table missing") {
		t.Errorf("fatal message not written: %q", stderr.String())
	}
}
