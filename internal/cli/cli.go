// Package cli implements the command-line interface for pkgstat.
package cli

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/pkgstat/pkgstat/internal/logctx"
	"github.com/pkgstat/pkgstat/pkg/fetch"
	"github.com/pkgstat/pkgstat/pkg/logging"
	"github.com/pkgstat/pkgstat/pkg/pipeline"
)

// Run executes the CLI with the given arguments.
func Run(args []string) error {
	if len(args) == 0 {
		return errors.New("usage: pkgstat <command> [options]\ncommands: top")
	}

	switch args[0] {
	case "top":
		return runTop(args[1:])
	default:
		return fmt.Errorf("unknown command: %s", args[0])
	}
}

// topConfig holds the parsed configuration of the top command.
type topConfig struct {
	archs       []string
	mirror      string
	suite       string
	component   string
	s3URI       string
	topK        int
	cacheDir    string
	useCache    bool
	save        bool
	concurrency int
	timeout     time.Duration
}

func parseTopFlags(args []string) (*topConfig, bool, bool, error) {
	fs := flag.NewFlagSet("top", flag.ContinueOnError)
	mirror := fs.String("mirror", "", "Debian mirror base URL (default: $"+fetch.MirrorEnvVar+" or "+fetch.DefaultMirror+")")
	suite := fs.String("suite", fetch.DefaultSuite, "distribution suite")
	component := fs.String("component", fetch.DefaultComponent, "archive component")
	s3URI := fs.String("s3", "", "fetch Contents files from an s3://bucket/prefix mirror instead of HTTP")
	topK := fs.Int("top", pipeline.DefaultTopK, "number of packages to report")
	cacheDir := fs.String("cache-dir", ".", "directory for cached Contents files")
	useCache := fs.Bool("use-cache", false, "read a cached Contents file instead of downloading")
	save := fs.Bool("save", false, "save the downloaded Contents file for future --use-cache runs")
	concurrency := fs.Int("concurrency", 2, "max architectures processed in parallel")
	timeout := fs.Duration("timeout", fetch.DefaultHTTPTimeout, "HTTP connection setup timeout")
	debug := fs.Bool("debug", false, "enable debug logging")
	human := fs.Bool("human", false, "human-friendly console logging")

	if err := fs.Parse(args); err != nil {
		return nil, false, false, err
	}
	if *useCache && *save {
		return nil, false, false, errors.New("--use-cache and --save are mutually exclusive")
	}
	archs := fs.Args()
	if len(archs) == 0 {
		return nil, false, false, errors.New("at least one architecture is required (e.g. amd64, arm64, mips)")
	}

	return &topConfig{
		archs:       archs,
		mirror:      fetch.BaseMirror(*mirror),
		suite:       *suite,
		component:   *component,
		s3URI:       *s3URI,
		topK:        *topK,
		cacheDir:    *cacheDir,
		useCache:    *useCache,
		save:        *save,
		concurrency: *concurrency,
		timeout:     *timeout,
	}, *debug, *human, nil
}

// newSource picks the acquisition source: cache > S3 > HTTP mirror.
func newSource(ctx context.Context, cfg *topConfig) (fetch.Source, error) {
	if cfg.useCache {
		return fetch.NewFileSource(cfg.cacheDir), nil
	}
	if cfg.s3URI != "" {
		return fetch.NewS3Source(ctx, cfg.s3URI)
	}
	src := fetch.NewHTTPSource(cfg.mirror, cfg.suite, cfg.component, cfg.timeout)
	if cfg.save {
		src.SaveDir = cfg.cacheDir
	}
	return src, nil
}

func runTop(args []string) error {
	cfg, debug, human, err := parseTopFlags(args)
	if err != nil {
		return err
	}

	logging.Init(debug, human)
	ctx := logctx.WithLogger(context.Background(), *logging.L())
	ctx = logctx.WithInt(ctx, "top_k", cfg.topK)

	source, err := newSource(ctx, cfg)
	if err != nil {
		return err
	}

	results, err := runArchitectures(ctx, source, cfg)
	if err != nil {
		return err
	}

	for i, res := range results {
		writeReport(os.Stdout, cfg.archs[i], cfg.topK, res)
	}
	return nil
}

// runArchitectures runs one independent pipeline per architecture. Each
// pipeline owns its own frequency table; nothing is shared across the
// goroutines, and results land in requested-argument order.
func runArchitectures(ctx context.Context, source fetch.Source, cfg *topConfig) ([]*pipeline.Result, error) {
	results := make([]*pipeline.Result, len(cfg.archs))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(max(cfg.concurrency, 1))

	for i, arch := range cfg.archs {
		g.Go(func() error {
			actx := logctx.WithStr(gctx, "arch", arch)
			res, err := runOne(actx, source, arch, cfg.topK)
			if err != nil {
				return fmt.Errorf("architecture %s: %w", arch, err)
			}
			results[i] = res
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}

func runOne(ctx context.Context, source fetch.Source, arch string, topK int) (*pipeline.Result, error) {
	stream, err := source.Open(ctx, arch)
	if err != nil {
		return nil, err
	}
	// The pipeline takes ownership of the stream and releases it on every
	// exit path, including construction failures.
	return pipeline.Run(ctx, stream, pipeline.Options{TopK: topK})
}

// writeReport prints the ranked result in the classic report format.
func writeReport(w io.Writer, arch string, topK int, res *pipeline.Result) {
	fmt.Fprintf(w, "Top %d packages with the most files (%s):\n", topK, arch)
	for i, e := range res.Top {
		fmt.Fprintf(w, "%d. %-30s %d\n", i+1, e.Package, e.Count)
	}
}
