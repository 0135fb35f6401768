package logging

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"
)

func TestStreamProgressRateLimits(t *testing.T) {
	var buf bytes.Buffer
	log := zerolog.New(&buf)

	p := NewStreamProgress(log, "aggregate", time.Hour)
	c := Counters{Lines: 100, Records: 90, Distinct: 10}

	// The first observation lands inside the interval, so nothing logs.
	p.Observe(c)
	if buf.Len() != 0 {
		t.Errorf("unexpected progress event within interval: %s", buf.String())
	}

	// Force the interval to have elapsed.
	p.lastLog = time.Now().Add(-2 * time.Hour)
	p.Observe(c)
	if !strings.Contains(buf.String(), `"event":"progress"`) {
		t.Errorf("expected progress event, got: %s", buf.String())
	}
	if !strings.Contains(buf.String(), `"lines":100`) {
		t.Errorf("expected lines counter, got: %s", buf.String())
	}
}

func TestStreamProgressDoneAlwaysLogs(t *testing.T) {
	var buf bytes.Buffer
	log := zerolog.New(&buf)

	p := NewStreamProgress(log, "aggregate", time.Hour)
	p.Done(Counters{Lines: 5, Records: 5, Distinct: 2})

	out := buf.String()
	if !strings.Contains(out, `"event":"phase_completed"`) {
		t.Errorf("expected phase_completed event, got: %s", out)
	}
	if !strings.Contains(out, `"phase":"aggregate"`) {
		t.Errorf("expected phase field, got: %s", out)
	}
	if !strings.Contains(out, `"distinct_packages":2`) {
		t.Errorf("expected distinct_packages field, got: %s", out)
	}
}
