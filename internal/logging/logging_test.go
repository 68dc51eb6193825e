package logging

import (
	"bytes"
	"encoding/json"
	"errors"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"
)

func TestNew_JSONAndLevel(t *testing.T) {
	var buf bytes.Buffer
	logger := New("warn", "json", &buf)

	logger.Info("hidden")
	logger.Warn("shown")

	var entry map[string]any
	if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
		t.Fatalf("Expected a single JSON entry, got %q: %v", buf.String(), err)
	}
	if entry["msg"] != "shown" {
		t.Errorf("Unexpected entry %v", entry)
	}
}

func TestNew_UnknownLevelDefaultsToInfo(t *testing.T) {
	logger := New("loud", "text", &bytes.Buffer{})
	if logger.GetLevel() != logrus.InfoLevel {
		t.Errorf("Expected info level, got %v", logger.GetLevel())
	}
}

func TestLogError_Fields(t *testing.T) {
	logger, hook := test.NewNullLogger()

	LogError(logger, "inventory", "Delete", "saving table", map[string]string{"id": "001"}, errors.New("disk full"))

	entry := hook.LastEntry()
	if entry == nil || entry.Level != logrus.ErrorLevel || entry.Message != "disk full" {
		t.Fatalf("Unexpected entry %+v", entry)
	}
	if entry.Data["module"] != "inventory" || entry.Data["funcName"] != "Delete" || entry.Data["data"] == nil {
		t.Errorf("Missing fields in %v", entry.Data)
	}
}

func TestConfigure_Reapplies(t *testing.T) {
	logger := New("info", "json", &bytes.Buffer{})
	Configure(logger, "debug", "text")

	if logger.GetLevel() != logrus.DebugLevel {
		t.Errorf("Expected debug level, got %v", logger.GetLevel())
	}
	if _, ok := logger.Formatter.(*logrus.TextFormatter); !ok {
		t.Errorf("Expected text formatter, got %T", logger.Formatter)
	}
}
