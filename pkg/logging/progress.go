package logging

import (
	"time"

	"github.com/pkgstat/pkgstat/pkg/humanfmt"
	"github.com/rs/zerolog"
)

// StreamProgress emits rate-limited progress events for a single-pass stream
// whose total length is unknown. Callers report observed counters; an event
// is logged at most once per interval.
//
// StreamProgress is not safe for concurrent use; the pipeline it serves is
// strictly single-threaded.
type StreamProgress struct {
	log       zerolog.Logger
	phase     string
	interval  time.Duration
	startTime time.Time
	lastLog   time.Time
}

// NewStreamProgress creates a progress logger for the given phase.
// interval <= 0 defaults to 5 seconds.
func NewStreamProgress(log zerolog.Logger, phase string, interval time.Duration) *StreamProgress {
	if interval <= 0 {
		interval = 5 * time.Second
	}
	now := time.Now()
	return &StreamProgress{
		log:       log,
		phase:     phase,
		interval:  interval,
		startTime: now,
		lastLog:   now,
	}
}

// Counters is a snapshot of pipeline progress.
type Counters struct {
	Lines       int64
	Records     int64
	Skipped     int64
	Bytes       int64
	Distinct    int
	MemoryBytes int64
}

// Observe logs a progress event when the interval has elapsed since the last
// one. It is cheap to call per record batch.
func (p *StreamProgress) Observe(c Counters) {
	now := time.Now()
	if now.Sub(p.lastLog) < p.interval {
		return
	}
	p.lastLog = now
	p.emit(p.log.Info().Str("event", "progress"), c, now.Sub(p.startTime)).Msg("stream progress")
}

// Done logs the final completion event unconditionally.
func (p *StreamProgress) Done(c Counters) {
	elapsed := time.Since(p.startTime)
	p.emit(p.log.Info().Str("event", "phase_completed"), c, elapsed).Msg("stream complete")
}

func (p *StreamProgress) emit(e *zerolog.Event, c Counters, elapsed time.Duration) *zerolog.Event {
	e = e.Str("phase", p.phase).
		Int64("lines", c.Lines).
		Int64("records", c.Records).
		Int64("skipped", c.Skipped).
		Int64("decoded_bytes", c.Bytes).
		Int("distinct_packages", c.Distinct).
		Int64("table_mem_bytes", c.MemoryBytes).
		Int64("duration_ms", elapsed.Milliseconds())
	if IsPrettyMode() {
		e = e.Str("lines_h", humanfmt.Count(c.Lines)).
			Str("decoded_h", humanfmt.Bytes(c.Bytes)).
			Str("table_mem_h", humanfmt.Bytes(c.MemoryBytes)).
			Str("throughput_h", humanfmt.Throughput(c.Bytes, elapsed)).
			Str("duration_h", humanfmt.Duration(elapsed))
	}
	return e
}
