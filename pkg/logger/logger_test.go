package logger

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"
	"time"
)

func TestLoggerInit(t *testing.T) {
	if err := Init(); err != nil {
		t.Fatalf("failed to initialize logger: %v", err)
	}

	if Get() == nil {
		t.Fatal("logger is nil after initialization")
	}

	if err := Init(WithFormat("xml")); err == nil {
		t.Fatal("expected error for unknown format")
	}
}

func TestLoggerText(t *testing.T) {
	var buf bytes.Buffer
	if err := Init(WithWriter(&buf)); err != nil {
		t.Fatalf("failed to initialize logger: %v", err)
	}

	Get().Info(context.Background(), "pulled roll calls", String("chamber", "house"), Int("count", 3))

	out := buf.String()
	for _, want := range []string{"pulled roll calls", "chamber=house", "count=3", "source="} {
		if !strings.Contains(out, want) {
			t.Errorf("expected %q in %q", want, out)
		}
	}
}

func TestLoggerJSONWithFields(t *testing.T) {
	var buf bytes.Buffer
	if err := Init(WithWriter(&buf), WithFormat("json")); err != nil {
		t.Fatalf("failed to initialize logger: %v", err)
	}

	l := Get().Named("votes").With(String("run_id", "r-1"))
	l.Warn(context.Background(), "member votes failed", Error(errors.New("boom")), Duration("elapsed", time.Second),
		Float64("receipts", 12.5), Bool("with_voteview", true), Any("chambers", []string{"house"}))

	var line map[string]any
	if err := json.Unmarshal(buf.Bytes(), &line); err != nil {
		t.Fatalf("output is not json: %v (%s)", err, buf.String())
	}
	if line["component"] != "votes" || line["run_id"] != "r-1" || line["level"] != "WARN" {
		t.Errorf("unexpected fields: %v", line)
	}
	if line["receipts"] != 12.5 || line["with_voteview"] != true {
		t.Errorf("unexpected typed fields: %v", line)
	}
	if chambers, ok := line["chambers"].([]any); !ok || len(chambers) != 1 || chambers[0] != "house" {
		t.Errorf("unexpected chambers field: %v", line["chambers"])
	}
}

func TestSetLevelString(t *testing.T) {
	var buf bytes.Buffer
	if err := Init(WithWriter(&buf)); err != nil {
		t.Fatalf("failed to initialize logger: %v", err)
	}

	if err := SetLevelString("warn"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	Get().Info(context.Background(), "hidden")
	if buf.Len() != 0 {
		t.Errorf("info should be filtered at warn level, got %q", buf.String())
	}

	if err := SetLevelString("loud"); err == nil {
		t.Error("expected error for unknown level")
	}
	_ = SetLevelString("info")
}
