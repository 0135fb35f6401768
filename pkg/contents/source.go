// Package contents provides streaming readers for Debian Contents index files.
//
// A Contents index maps every shipped file path to the packages that install
// it, one entry per line:
//
//	bin/ls                                    utils/coreutils
//	usr/share/doc/a file with spaces          doc/foo,doc/bar
//
// The index is distributed gzip-compressed and routinely decompresses to
// hundreds of megabytes, so this package never materializes the decoded
// content. Lines are produced one at a time as the consumer pulls them.
package contents

import (
	"bufio"
	"errors"
	"fmt"
	"io"

	"github.com/klauspost/compress/flate"
	"github.com/klauspost/compress/gzip"
)

// Stream-integrity errors. Both are fatal to the current run; the caller must
// not treat partially aggregated results as complete after seeing either.
var (
	// ErrCorruptStream indicates the byte stream is not valid gzip data.
	ErrCorruptStream = errors.New("contents: corrupt compressed stream")

	// ErrTruncatedStream indicates the stream ended inside a compressed
	// block, i.e. the index was cut off mid-download or mid-write.
	ErrTruncatedStream = errors.New("contents: truncated compressed stream")
)

const (
	// scanBufferSize is the initial bufio.Scanner buffer.
	scanBufferSize = 256 * 1024

	// maxLineSize bounds a single decoded line. Contents lines listing a
	// path claimed by many packages can get long, but never megabytes.
	maxLineSize = 4 * 1024 * 1024
)

// LineSource decompresses a Contents stream incrementally and yields decoded
// lines one at a time. It holds no more than one line of decoded text beyond
// the gzip window itself.
type LineSource struct {
	raw   io.Reader
	gz    *gzip.Reader
	sc    *bufio.Scanner
	err   error // sticky
	lines int64
	bytes int64
}

// NewLineSource wraps r, which must carry gzip-compressed text. The total
// uncompressed size is not required up front. Construction fails with
// ErrCorruptStream when r does not begin with a valid gzip header; when r is
// an io.Closer it is closed on that path, so the stream handle is released
// on every exit whether or not a source was ever built.
func NewLineSource(r io.Reader) (*LineSource, error) {
	gz, err := gzip.NewReader(r)
	if err != nil {
		if c, ok := r.(io.Closer); ok {
			c.Close()
		}
		if errors.Is(err, io.ErrUnexpectedEOF) {
			return nil, fmt.Errorf("%w: %v", ErrTruncatedStream, err)
		}
		return nil, fmt.Errorf("%w: %v", ErrCorruptStream, err)
	}
	sc := bufio.NewScanner(gz)
	sc.Buffer(make([]byte, scanBufferSize), maxLineSize)
	return &LineSource{raw: r, gz: gz, sc: sc}, nil
}

// Next returns the next decoded line without its terminator. It returns
// io.EOF when the stream is exhausted cleanly. Decompression failures are
// reported as ErrCorruptStream or ErrTruncatedStream and are sticky: every
// subsequent call returns the same error.
//
// The returned string is owned by the caller, but the source retains nothing;
// callers consuming lines one at a time keep memory flat.
func (s *LineSource) Next() (string, error) {
	if s.err != nil {
		return "", s.err
	}
	if !s.sc.Scan() {
		s.err = s.classify(s.sc.Err())
		return "", s.err
	}
	line := s.sc.Text()
	s.lines++
	s.bytes += int64(len(line)) + 1 // include newline
	return line, nil
}

// classify maps a scanner error to the package's error taxonomy.
// A nil scanner error means the stream ended cleanly.
func (s *LineSource) classify(err error) error {
	var corrupt flate.CorruptInputError
	switch {
	case err == nil:
		return io.EOF
	case errors.Is(err, io.ErrUnexpectedEOF):
		return fmt.Errorf("%w: %v", ErrTruncatedStream, err)
	case errors.Is(err, gzip.ErrHeader), errors.Is(err, gzip.ErrChecksum), errors.As(err, &corrupt):
		return fmt.Errorf("%w: %v", ErrCorruptStream, err)
	default:
		return fmt.Errorf("contents: read line: %w", err)
	}
}

// Stats returns the number of lines and decoded bytes produced so far.
func (s *LineSource) Stats() (lines, bytes int64) {
	return s.lines, s.bytes
}

// Close releases the decompressor and, when the underlying reader is an
// io.Closer, the stream itself. Closers run in reverse acquisition order and
// the first error wins.
func (s *LineSource) Close() error {
	var first error
	if s.gz != nil {
		if err := s.gz.Close(); err != nil {
			first = err
		}
	}
	if c, ok := s.raw.(io.Closer); ok {
		if err := c.Close(); err != nil && first == nil {
			first = err
		}
	}
	return first
}
