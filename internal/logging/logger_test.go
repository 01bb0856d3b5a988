package logging

import (
	"bytes"
	"strings"
	"sync"
	"testing"
)

// withCapturedOutput redirects the default logger to buf at DEBUG level
// for the duration of fn, then restores the prior output and level.
func withCapturedOutput(t *testing.T, buf *bytes.Buffer, fn func()) {
	t.Helper()
	origOutput, origLevel := defaultLogger.output, defaultLogger.level
	SetOutput(buf)
	SetLevel(DEBUG)
	defer func() {
		SetOutput(origOutput)
		SetLevel(origLevel)
	}()
	fn()
}

func TestLevelString(t *testing.T) {
	tests := []struct {
		level Level
		want  string
	}{
		{DEBUG, "DEBUG"},
		{INFO, "INFO"},
		{WARN, "WARN"},
		{ERROR, "ERROR"},
		{Level(99), "UNKNOWN"},
	}
	for _, tt := range tests {
		if got := tt.level.String(); got != tt.want {
			t.Errorf("Level(%d).String() = %q, want %q", tt.level, got, tt.want)
		}
	}
}

func TestLevelFiltering(t *testing.T) {
	var buf bytes.Buffer
	logger := &Logger{level: WARN, output: &buf}

	logger.Debug("component rejected proposal [p-1]")
	logger.Info("component is still negotiating proposal [p-1]")
	if buf.Len() != 0 {
		t.Fatalf("expected DEBUG/INFO to be filtered at WARN level, got %q", buf.String())
	}

	logger.Warn("component failed handling agreement [a-1] termination: boom")
	if !strings.Contains(buf.String(), "[WARN]") {
		t.Error("expected WARN line to pass the level filter")
	}
}

func TestComponentTagsEveryLine(t *testing.T) {
	var buf bytes.Buffer
	withCapturedOutput(t, &buf, func() {
		scoped := Component("LimitExpiration")
		scoped.Warn("failed handling agreement [a-1] termination: %v", "boom")
	})

	if !strings.Contains(buf.String(), "component=LimitExpiration") {
		t.Errorf("expected output to carry the component tag, got %q", buf.String())
	}
}

func TestComponentDoesNotTagTheDefaultLogger(t *testing.T) {
	var buf bytes.Buffer
	withCapturedOutput(t, &buf, func() {
		Component("MaxAgreements")
		Info("assembled chain with %d components", 3)
	})

	if strings.Contains(buf.String(), "component=") {
		t.Errorf("scoping a Component logger must not tag the package-level logger, got %q", buf.String())
	}
}

func TestPackageLevelHelpersFormatArgs(t *testing.T) {
	var buf bytes.Buffer
	withCapturedOutput(t, &buf, func() {
		Debug("spawning plugin service: %s on %s", "./negotiator-go.so", "127.0.0.1:9001")
	})

	out := buf.String()
	if !strings.Contains(out, "[DEBUG]") || !strings.Contains(out, "127.0.0.1:9001") {
		t.Errorf("unexpected output: %q", out)
	}
}

func TestConcurrentLoggingIsSerialized(t *testing.T) {
	var buf bytes.Buffer
	logger := &Logger{level: DEBUG, output: &buf}

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			logger.Info("proposal [p-%d] could not be scored", n)
		}(i)
	}
	wg.Wait()

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 20 {
		t.Errorf("got %d log lines, want 20", len(lines))
	}
}
