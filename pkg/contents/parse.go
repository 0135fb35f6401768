package contents

import "strings"

// Record is one parsed Contents entry: a file path and the qualifiers that
// claim it. A qualifier is a `section/packageName` token, or a bare
// `packageName` when the index carries no section. Tokens are kept verbatim;
// the section prefix is part of the aggregation identifier.
type Record struct {
	Path     string
	Packages []string
}

// ParseLine parses a single decoded Contents line. The rightmost run of
// whitespace separates the file path (which may itself contain single spaces)
// from the comma-separated qualifier list.
//
// Lines that cannot yield a record are rejected with ok=false, never an
// error: blank or whitespace-only lines, lines with no whitespace separator,
// and lines whose qualifier list trims down to nothing. The index format
// documents occasional irregular lines and the aggregate must shrug them off.
func ParseLine(line string) (Record, bool) {
	trimmed := strings.TrimRight(line, " \t")
	if trimmed == "" {
		return Record{}, false
	}

	// Anchor on the last whitespace run: everything after it is the
	// qualifier list, everything before it is the path.
	cut := strings.LastIndexAny(trimmed, " \t")
	if cut < 0 {
		return Record{}, false
	}
	qualifiers := trimmed[cut+1:]
	path := strings.TrimRight(trimmed[:cut], " \t")
	if path == "" {
		// A qualifier list with no path claims nothing.
		return Record{}, false
	}

	var pkgs []string
	for qual := range strings.SplitSeq(qualifiers, ",") {
		qual = strings.TrimSpace(qual)
		if qual == "" {
			continue
		}
		pkgs = append(pkgs, qual)
	}
	if len(pkgs) == 0 {
		return Record{}, false
	}
	return Record{Path: path, Packages: pkgs}, true
}

// Reader composes a LineSource with ParseLine, yielding only well-formed
// records. Rejected lines are counted and skipped.
type Reader struct {
	src     *LineSource
	skipped int64
}

// NewReader creates a Reader from r, which must carry gzip-compressed
// Contents text.
func NewReader(r *LineSource) *Reader {
	return &Reader{src: r}
}

// Next returns the next record with at least one qualifier. It returns io.EOF
// at the clean end of the stream and propagates stream-integrity errors from
// the underlying LineSource unchanged.
func (r *Reader) Next() (Record, error) {
	for {
		line, err := r.src.Next()
		if err != nil {
			return Record{}, err
		}
		rec, ok := ParseLine(line)
		if !ok {
			r.skipped++
			continue
		}
		return rec, nil
	}
}

// Skipped returns the number of lines rejected by the parser so far.
func (r *Reader) Skipped() int64 {
	return r.skipped
}

// Close closes the underlying line source.
func (r *Reader) Close() error {
	return r.src.Close()
}
