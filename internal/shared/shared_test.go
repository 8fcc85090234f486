package shared

import (
	"bytes"
	"encoding/hex"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"

	tu "github.com/Rovitz/spotify2tidal/internal/testing"
)

func TestNewLogger(t *testing.T) {
	t.Run("writes to the provided writer", func(t *testing.T) {
		var buf bytes.Buffer
		logger := NewLogger(&buf)
		logger.Info("resolver ready")

		if !strings.Contains(buf.String(), "resolver ready") {
			t.Errorf("expected log output to contain message, got %q", buf.String())
		}
	})

	t.Run("nil writer falls back to stderr", func(t *testing.T) {
		if NewLogger(nil) == nil {
			t.Error("expected a logger")
		}
	})

	t.Run("respects log level", func(t *testing.T) {
		var buf bytes.Buffer
		logger := NewLogger(&buf)
		SetLogLevel(logger, log.ErrorLevel)
		logger.Info("suppressed")

		if buf.Len() != 0 {
			t.Errorf("expected info output suppressed at error level, got %q", buf.String())
		}
	})
}

func TestWithLogger(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLogger(&buf)
	child := WithLogger(logger, "service", "tidal")
	child.Info("session loaded")

	out := buf.String()
	if !strings.Contains(out, "service") || !strings.Contains(out, "tidal") {
		t.Errorf("expected child logger fields in output, got %q", out)
	}
}

func TestNewFileLogger(t *testing.T) {
	t.Run("writes to the file", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "s2t.log")

		logger, closer, err := NewFileLogger(path)
		if err != nil {
			t.Fatalf("failed to create file logger: %v", err)
		}

		logger.Info("written to file")
		if err := closer(); err != nil {
			t.Fatalf("failed to close log file: %v", err)
		}

		data, err := os.ReadFile(path)
		if err != nil {
			t.Fatalf("failed to read log file: %v", err)
		}
		if !strings.Contains(string(data), "written to file") {
			t.Errorf("expected log file to contain message, got %q", string(data))
		}
	})

	t.Run("creates missing parent directories", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "tmp", "logs", "s2t.log")

		_, closer, err := NewFileLogger(path)
		if err != nil {
			t.Fatalf("failed to create file logger: %v", err)
		}
		defer closer()

		tu.AssertDirExists(t, filepath.Dir(path))
		tu.AssertFileExists(t, path)
	})
}

func TestOpenBrowser(t *testing.T) {
	t.Run("honors BROWSER override", func(t *testing.T) {
		t.Setenv("BROWSER", "true")
		if err := OpenBrowser("http://127.0.0.1:0/auth"); err != nil {
			t.Errorf("expected override command to launch, got %v", err)
		}
	})

	t.Run("rejects unsupported platforms", func(t *testing.T) {
		t.Setenv("BROWSER", "")
		orig := getRuntime
		getRuntime = func() string { return "plan9" }
		defer func() { getRuntime = orig }()

		if err := OpenBrowser("http://127.0.0.1:0/auth"); err == nil {
			t.Error("expected error for unsupported platform")
		}
	})
}

func TestGenerateID(t *testing.T) {
	id := GenerateID()
	if _, err := uuid.Parse(id); err != nil {
		t.Errorf("expected a valid UUID, got %q: %v", id, err)
	}
	if GenerateID() == id {
		t.Error("expected unique ids across calls")
	}
}

func TestGenerateState(t *testing.T) {
	state, err := GenerateState()
	if err != nil {
		t.Fatalf("failed to generate state: %v", err)
	}

	decoded, err := hex.DecodeString(state)
	if err != nil {
		t.Fatalf("expected hex-encoded state, got %q: %v", state, err)
	}
	if len(decoded) != 32 {
		t.Errorf("expected 32 bytes of entropy, got %d", len(decoded))
	}

	again, err := GenerateState()
	if err != nil {
		t.Fatalf("failed to generate second state: %v", err)
	}
	if again == state {
		t.Error("expected unique state tokens across calls")
	}
}
