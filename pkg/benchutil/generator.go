// Package benchutil provides synthetic Contents index generation for
// benchmarks and testing.
package benchutil

import (
	"bytes"
	"fmt"
	"io"
	"math/rand"

	"github.com/klauspost/compress/gzip"
)

// sections is a pool of plausible archive sections for generated qualifiers.
var sections = []string{
	"admin", "devel", "doc", "libs", "libdevel", "net", "utils", "x11",
}

// GeneratorConfig configures synthetic Contents data generation.
type GeneratorConfig struct {
	// NumLines is the number of index lines to generate.
	NumLines int

	// DistinctPackages is the number of distinct package identifiers the
	// lines draw from. Fixing this while growing NumLines exercises the
	// bounded-memory property of the aggregator.
	DistinctPackages int

	// MaxQualifiers is the maximum number of comma-separated qualifiers a
	// single line claims (minimum 1).
	MaxQualifiers int

	// Seed for reproducible generation. 0 uses a fixed default.
	Seed int64
}

// DefaultConfig returns a reasonable default configuration.
func DefaultConfig(numLines int) GeneratorConfig {
	return GeneratorConfig{
		NumLines:         numLines,
		DistinctPackages: 1000,
		MaxQualifiers:    3,
		Seed:             42,
	}
}

// Generator generates synthetic Contents index lines.
type Generator struct {
	cfg  GeneratorConfig
	rng  *rand.Rand
	pkgs []string
}

// NewGenerator creates a generator with a fixed package identifier pool.
func NewGenerator(cfg GeneratorConfig) *Generator {
	seed := cfg.Seed
	if seed == 0 {
		seed = 42
	}
	if cfg.MaxQualifiers < 1 {
		cfg.MaxQualifiers = 1
	}
	if cfg.DistinctPackages < 1 {
		cfg.DistinctPackages = 1
	}

	rng := rand.New(rand.NewSource(seed))
	pkgs := make([]string, cfg.DistinctPackages)
	for i := range pkgs {
		pkgs[i] = fmt.Sprintf("%s/pkg%05d", sections[i%len(sections)], i)
	}
	return &Generator{cfg: cfg, rng: rng, pkgs: pkgs}
}

// Packages returns the identifier pool the generator draws from.
func (g *Generator) Packages() []string {
	return g.pkgs
}

// WriteLines writes NumLines uncompressed index lines to w.
func (g *Generator) WriteLines(w io.Writer) error {
	for i := range g.cfg.NumLines {
		nq := 1 + g.rng.Intn(g.cfg.MaxQualifiers)
		if _, err := fmt.Fprintf(w, "usr/share/data/dir%03d/file%08d", i%500, i); err != nil {
			return err
		}
		for q := range nq {
			sep := ","
			if q == 0 {
				sep = "   "
			}
			if _, err := io.WriteString(w, sep+g.pkgs[g.rng.Intn(len(g.pkgs))]); err != nil {
				return err
			}
		}
		if _, err := io.WriteString(w, "\n"); err != nil {
			return err
		}
	}
	return nil
}

// GzipContents returns a complete gzip-compressed synthetic index.
func (g *Generator) GzipContents() ([]byte, error) {
	var buf bytes.Buffer
	gz := gzip.NewWriter(&buf)
	if err := g.WriteLines(gz); err != nil {
		return nil, err
	}
	if err := gz.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
