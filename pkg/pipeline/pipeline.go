// Package pipeline composes the Contents streaming pipeline: decompress,
// parse, aggregate, rank, in one forward pass over the input.
//
// The pipeline is deliberately single-threaded. Decompression is stateful
// and inherently ordered, and every record must update the same counting
// table; splitting the pass across workers buys synchronization overhead,
// not throughput. When parallelism is wanted, run independent pipelines over
// independent streams and merge their tables additively afterwards.
package pipeline

import (
	"context"
	"io"
	"time"

	"github.com/pkgstat/pkgstat/internal/logctx"
	"github.com/pkgstat/pkgstat/pkg/contents"
	"github.com/pkgstat/pkgstat/pkg/logging"
	"github.com/pkgstat/pkgstat/pkg/pkgcount"
	"github.com/pkgstat/pkgstat/pkg/sysmem"
	"github.com/pkgstat/pkgstat/pkg/toprank"
)

const (
	// DefaultTopK is the number of packages reported when the caller does
	// not ask for a specific K.
	DefaultTopK = 10

	// checkEvery is how many records pass between context-cancellation and
	// progress checks.
	checkEvery = 8192

	// memWarnFraction of total system RAM at which the table's estimated
	// footprint triggers a one-time warning.
	memWarnFraction = 0.25
)

// Options configures a pipeline run.
type Options struct {
	// TopK is the number of ranked entries to produce. 0 means DefaultTopK;
	// negative values yield an empty ranking.
	TopK int

	// ProgressInterval is the minimum gap between progress log events.
	// 0 means the logging package default.
	ProgressInterval time.Duration
}

// Result holds the outcome of one complete pipeline run.
type Result struct {
	// Top is the ranking, strongest first: count descending, package
	// identifier ascending on equal counts.
	Top []toprank.Entry

	// Lines is the number of decoded lines consumed.
	Lines int64

	// Records is the number of well-formed Contents records observed.
	Records int64

	// Skipped is the number of lines the parser rejected.
	Skipped int64

	// Observations is the number of (record, qualifier) pairs counted.
	Observations int64

	// DistinctPackages is the number of distinct package identifiers seen.
	DistinctPackages int

	// DecodedBytes is the total decompressed size consumed.
	DecodedBytes int64

	// Duration is the wall time of the pass.
	Duration time.Duration
}

// Run streams r (gzip-compressed Contents text) once and returns the top-K
// package ranking.
//
// Stream-integrity failures (contents.ErrCorruptStream,
// contents.ErrTruncatedStream) abort the run immediately and discard all
// partial aggregation; a nil Result is never a partial answer. Malformed
// lines are skipped and counted, never fatal. An empty but valid stream
// yields an empty ranking and no error.
//
// The stream handle is released on every exit path: when r is an io.Closer
// it is closed along with the decompressor.
func Run(ctx context.Context, r io.Reader, opts Options) (*Result, error) {
	topK := opts.TopK
	if topK == 0 {
		topK = DefaultTopK
	}

	log := logctx.FromContext(ctx)
	start := time.Now()

	src, err := contents.NewLineSource(r)
	if err != nil {
		return nil, err
	}
	defer src.Close()

	reader := contents.NewReader(src)
	table := pkgcount.NewTable(0)
	progress := logging.NewStreamProgress(log, "aggregate", opts.ProgressInterval)

	memTotal := sysmem.Total()
	memWarned := false

	var records int64
	for {
		rec, err := reader.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, err
		}
		table.Observe(rec)
		records++

		if records%checkEvery == 0 {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
			lines, bytes := src.Stats()
			counters := logging.Counters{
				Lines:       lines,
				Records:     records,
				Skipped:     reader.Skipped(),
				Bytes:       bytes,
				Distinct:    table.Len(),
				MemoryBytes: table.EstimatedMemoryBytes(),
			}
			progress.Observe(counters)

			if !memWarned && float64(counters.MemoryBytes) > memWarnFraction*float64(memTotal.TotalBytes) {
				memWarned = true
				log.Warn().
					Int64("table_mem_bytes", counters.MemoryBytes).
					Uint64("system_mem_bytes", memTotal.TotalBytes).
					Bool("system_mem_reliable", memTotal.Reliable).
					Int("distinct_packages", counters.Distinct).
					Msg("frequency table approaching system memory limit")
			}
		}
	}

	lines, bytes := src.Stats()
	progress.Done(logging.Counters{
		Lines:       lines,
		Records:     records,
		Skipped:     reader.Skipped(),
		Bytes:       bytes,
		Distinct:    table.Len(),
		MemoryBytes: table.EstimatedMemoryBytes(),
	})

	top := toprank.Top(table, topK)

	res := &Result{
		Top:              top,
		Lines:            lines,
		Records:          records,
		Skipped:          reader.Skipped(),
		Observations:     table.Observations(),
		DistinctPackages: table.Len(),
		DecodedBytes:     bytes,
		Duration:         time.Since(start),
	}

	log.Info().
		Int64("records", res.Records).
		Int64("lines", res.Lines).
		Int("distinct_packages", res.DistinctPackages).
		Int("ranked", len(res.Top)).
		Dur("duration", res.Duration).
		Msg("pipeline complete")

	return res, nil
}
