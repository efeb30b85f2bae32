package logger

import (
	"bytes"
	"context"
	"strings"
	"testing"
)

func TestInitAndGet(t *testing.T) {
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

func TestStructuredOutput(t *testing.T) {
	var buf bytes.Buffer
	if err := InitWithWriter(&buf); err != nil {
		t.Fatalf("failed to initialize logger: %v", err)
	}

	ctx := context.Background()
	Get().Info(ctx, "fit finished", Int("iterations", 12), Float64("delta", 1e-10))

	out := buf.String()
	if !strings.Contains(out, "fit finished") {
		t.Errorf("message missing from output: %q", out)
	}
	if !strings.Contains(out, "iterations=12") {
		t.Errorf("field missing from output: %q", out)
	}
}

func TestNamed(t *testing.T) {
	var buf bytes.Buffer
	if err := InitWithWriter(&buf); err != nil {
		t.Fatalf("failed to initialize logger: %v", err)
	}

	named := Named("rating")
	if named == nil {
		t.Fatal("named logger is nil")
	}
	named.Info(context.Background(), "hello", String("k", "v"))
	if !strings.Contains(buf.String(), "rating.k=v") {
		t.Errorf("group prefix missing: %q", buf.String())
	}
}

func TestSetLevelString(t *testing.T) {
	var buf bytes.Buffer
	if err := InitWithWriter(&buf); err != nil {
		t.Fatalf("failed to initialize logger: %v", err)
	}

	if err := SetLevelString("bogus"); err == nil {
		t.Error("expected error for unknown level")
	}
	if err := SetLevelString("debug"); err != nil {
		t.Errorf("unexpected error: %v", err)
	}
	Get().Debug(context.Background(), "visible now")
	if !strings.Contains(buf.String(), "visible now") {
		t.Errorf("debug message suppressed after enabling debug level: %q", buf.String())
	}
}
