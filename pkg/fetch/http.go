package fetch

import (
	"context"
	"fmt"
	"io"
	"net"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/pkgstat/pkgstat/internal/logctx"
)

// DefaultHTTPTimeout bounds connection setup: dial, TLS handshake, and the
// wait for response headers. It deliberately does not bound body reads; a
// Contents index download runs for as long as the stream takes, under the
// request context.
const DefaultHTTPTimeout = 30 * time.Second

// HTTPSource fetches Contents indexes from a Debian mirror over HTTP.
type HTTPSource struct {
	Client    *http.Client
	BaseURL   string
	Suite     string
	Component string

	// SaveDir, when non-empty, tees the downloaded stream into
	// <SaveDir>/Contents-<arch>.gz while the pipeline consumes it, so
	// caching costs no second pass.
	SaveDir string
}

// NewHTTPSource creates an HTTP source with the given mirror coordinates.
// Empty suite/component fall back to the Debian defaults.
func NewHTTPSource(baseURL, suite, component string, timeout time.Duration) *HTTPSource {
	if suite == "" {
		suite = DefaultSuite
	}
	if component == "" {
		component = DefaultComponent
	}
	if timeout <= 0 {
		timeout = DefaultHTTPTimeout
	}
	// http.Client.Timeout would cover body consumption too, and the body is
	// read incrementally for the whole aggregation pass. Bound setup phases
	// individually instead and leave body reads to the request context.
	transport := &http.Transport{
		Proxy:                 http.ProxyFromEnvironment,
		DialContext:           (&net.Dialer{Timeout: timeout}).DialContext,
		TLSHandshakeTimeout:   timeout,
		ResponseHeaderTimeout: timeout,
	}
	return &HTTPSource{
		Client:    &http.Client{Transport: transport},
		BaseURL:   baseURL,
		Suite:     suite,
		Component: component,
	}
}

// Open requests the compressed index for arch. Any status other than 200 is
// an error; the body is the raw gzip stream, handed to the caller unread.
func (s *HTTPSource) Open(ctx context.Context, arch string) (io.ReadCloser, error) {
	url := ContentsURL(s.BaseURL, s.Suite, s.Component, arch)
	log := logctx.FromContext(ctx)
	log.Info().Str("url", url).Msg("downloading Contents index")

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("build request for %s: %w", url, err)
	}
	resp, err := s.Client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch %s: %w", url, err)
	}
	if resp.StatusCode != http.StatusOK {
		resp.Body.Close()
		return nil, fmt.Errorf("fetch %s: unexpected status %d", url, resp.StatusCode)
	}

	if s.SaveDir == "" {
		return resp.Body, nil
	}
	tee, err := newCacheTee(resp.Body, s.SaveDir, arch)
	if err != nil {
		resp.Body.Close()
		return nil, err
	}
	return tee, nil
}

// cacheTee copies the stream into a temporary cache file as it is read and
// renames it into place on a clean close. A close before EOF (aborted run)
// discards the partial file so a later --use-cache never sees a truncated
// index.
type cacheTee struct {
	body    io.ReadCloser
	tmp     *os.File
	tmpPath string
	final   string
	sawEOF  bool
}

func newCacheTee(body io.ReadCloser, dir, arch string) (*cacheTee, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create cache dir: %w", err)
	}
	final := filepath.Join(dir, ContentsFilename(arch))
	tmp, err := os.CreateTemp(dir, ContentsFilename(arch)+".tmp-*")
	if err != nil {
		return nil, fmt.Errorf("create cache temp file: %w", err)
	}
	return &cacheTee{body: body, tmp: tmp, tmpPath: tmp.Name(), final: final}, nil
}

func (t *cacheTee) Read(p []byte) (int, error) {
	n, err := t.body.Read(p)
	if n > 0 {
		if _, werr := t.tmp.Write(p[:n]); werr != nil {
			return n, fmt.Errorf("write cache file: %w", werr)
		}
	}
	if err == io.EOF {
		t.sawEOF = true
	}
	return n, err
}

func (t *cacheTee) Close() error {
	bodyErr := t.body.Close()
	if err := t.tmp.Close(); err != nil && bodyErr == nil {
		bodyErr = err
	}
	if !t.sawEOF {
		os.Remove(t.tmpPath)
		return bodyErr
	}
	if err := os.Rename(t.tmpPath, t.final); err != nil {
		os.Remove(t.tmpPath)
		if bodyErr == nil {
			bodyErr = fmt.Errorf("finalize cache file: %w", err)
		}
	}
	return bodyErr
}
