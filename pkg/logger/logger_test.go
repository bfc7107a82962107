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
	defer func() {
		if err := Sync(); err != nil {
			t.Errorf("failed to sync logger: %v", err)
		}
	}()

	if Get() == nil {
		t.Fatal("logger is nil after initialization")
	}
}

func TestLoggerJSON(t *testing.T) {
	var buf bytes.Buffer
	if err := Init(WithFormat("json"), WithWriter(&buf), WithoutSource()); err != nil {
		t.Fatalf("failed to initialize logger: %v", err)
	}

	Get().With(String("run", "r1")).Info(context.Background(), "trained",
		Int("rows", 12), Bool("heuristic", false), Duration("took", time.Second),
		Error(errors.New("boom")))

	var line map[string]any
	if err := json.Unmarshal(buf.Bytes(), &line); err != nil {
		t.Fatalf("output is not json: %v (%q)", err, buf.String())
	}
	if line["msg"] != "trained" || line["run"] != "r1" || line["error"] != "boom" {
		t.Fatalf("unexpected line: %v", line)
	}
	if _, ok := line["source"]; ok {
		t.Fatal("source should be omitted")
	}
}

func TestLoggerLevel(t *testing.T) {
	var buf bytes.Buffer
	if err := Init(WithWriter(&buf)); err != nil {
		t.Fatalf("failed to initialize logger: %v", err)
	}
	ctx := context.Background()

	Get().Debug(ctx, "hidden")
	if buf.Len() != 0 {
		t.Fatalf("debug logged at info level: %q", buf.String())
	}
	if err := SetLevelString("DEBUG"); err != nil {
		t.Fatal(err)
	}
	Get().Debug(ctx, "shown")
	if !strings.Contains(buf.String(), "shown") || !strings.Contains(buf.String(), "source=") {
		t.Fatalf("expected debug line with source, got %q", buf.String())
	}
	if err := SetLevelString("loud"); err == nil {
		t.Fatal("expected error for unknown level")
	}
}

func TestLoggerNamed(t *testing.T) {
	var buf bytes.Buffer
	if err := Init(WithWriter(&buf), WithoutSource()); err != nil {
		t.Fatalf("failed to initialize logger: %v", err)
	}

	Named("optimizer").Info(context.Background(), "solved", Float64("objective", 1.5))
	if !strings.Contains(buf.String(), "optimizer.objective=1.5") {
		t.Fatalf("expected grouped field, got %q", buf.String())
	}
}
