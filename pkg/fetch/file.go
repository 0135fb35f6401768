package fetch

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/pkgstat/pkgstat/internal/logctx"
)

// FileSource reads previously saved Contents indexes from a local cache
// directory.
type FileSource struct {
	Dir string
}

// NewFileSource creates a file source rooted at dir ("." when empty).
func NewFileSource(dir string) *FileSource {
	if dir == "" {
		dir = "."
	}
	return &FileSource{Dir: dir}
}

// Open opens <dir>/Contents-<arch>.gz. A missing file is reported as
// ErrNoCacheFile so the CLI can tell the user to run with --save first.
func (s *FileSource) Open(ctx context.Context, arch string) (io.ReadCloser, error) {
	path := filepath.Join(s.Dir, ContentsFilename(arch))

	log := logctx.FromContext(ctx)
	log.Info().Str("path", path).Msg("reading cached Contents index")

	f, err := os.Open(path)
	if os.IsNotExist(err) {
		return nil, fmt.Errorf("%w: %s (run with --save to create it)", ErrNoCacheFile, path)
	}
	if err != nil {
		return nil, fmt.Errorf("open cached Contents file: %w", err)
	}
	return f, nil
}
