package fetch

import (
	"bytes"
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/klauspost/compress/gzip"
)

func gzipPayload(t *testing.T, s string) []byte {
	t.Helper()
	var buf bytes.Buffer
	gz := gzip.NewWriter(&buf)
	if _, err := gz.Write([]byte(s)); err != nil {
		t.Fatalf("write gzip payload: %v", err)
	}
	if err := gz.Close(); err != nil {
		t.Fatalf("close gzip payload: %v", err)
	}
	return buf.Bytes()
}

func TestHTTPSourceOpen(t *testing.T) {
	payload := gzipPayload(t, "bin/ls   utils/coreutils\n")

	var gotPath string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		w.Write(payload)
	}))
	defer srv.Close()

	src := NewHTTPSource(srv.URL, "", "", 0)
	rc, err := src.Open(context.Background(), "amd64")
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer rc.Close()

	if gotPath != "/dists/stable/main/Contents-amd64.gz" {
		t.Errorf("request path = %q, want /dists/stable/main/Contents-amd64.gz", gotPath)
	}

	body, err := io.ReadAll(rc)
	if err != nil {
		t.Fatalf("read body: %v", err)
	}
	if !bytes.Equal(body, payload) {
		t.Error("body does not match served payload")
	}
}

// TestHTTPSourceTimeoutSparesSlowBody verifies the timeout bounds connection
// setup only. A download that keeps trickling data must be allowed to outlive
// the timeout many times over; large indexes take minutes to stream.
func TestHTTPSourceTimeoutSparesSlowBody(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping slow-stream test in short mode")
	}

	const chunk = 1024
	payload := bytes.Repeat([]byte("x"), 8*chunk)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fl := w.(http.Flusher)
		for off := 0; off < len(payload); off += chunk {
			w.Write(payload[off : off+chunk])
			fl.Flush()
			time.Sleep(100 * time.Millisecond)
		}
	}))
	defer srv.Close()

	// 8 chunks at 100ms apiece: the body takes ~800ms against a 300ms timeout.
	src := NewHTTPSource(srv.URL, "", "", 300*time.Millisecond)
	rc, err := src.Open(context.Background(), "amd64")
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer rc.Close()

	body, err := io.ReadAll(rc)
	if err != nil {
		t.Fatalf("read slow body: %v", err)
	}
	if len(body) != len(payload) {
		t.Errorf("read %d bytes, want %d", len(body), len(payload))
	}
}

// TestHTTPSourceBodyHonorsContext verifies body reads stay cancellable: with
// no client-wide deadline, the request context is what aborts a download.
func TestHTTPSourceBodyHonorsContext(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.(http.Flusher).Flush()
		<-r.Context().Done()
	}))
	defer srv.Close()

	ctx, cancel := context.WithCancel(context.Background())
	src := NewHTTPSource(srv.URL, "", "", 0)
	rc, err := src.Open(ctx, "amd64")
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer rc.Close()

	cancel()
	if _, err := io.ReadAll(rc); err == nil {
		t.Fatal("expected read error after context cancellation")
	}
}

func TestHTTPSourceNon200(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.NotFound(w, r)
	}))
	defer srv.Close()

	src := NewHTTPSource(srv.URL, "stable", "main", 0)
	_, err := src.Open(context.Background(), "nosucharch")
	if err == nil {
		t.Fatal("expected error for 404")
	}
	if !strings.Contains(err.Error(), "404") {
		t.Errorf("error should mention status, got: %v", err)
	}
}

func TestHTTPSourceSavesCacheFile(t *testing.T) {
	payload := gzipPayload(t, "bin/ls   utils/coreutils\n")
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write(payload)
	}))
	defer srv.Close()

	dir := t.TempDir()
	src := NewHTTPSource(srv.URL, "", "", 0)
	src.SaveDir = dir

	rc, err := src.Open(context.Background(), "amd64")
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	if _, err := io.Copy(io.Discard, rc); err != nil {
		t.Fatalf("drain stream: %v", err)
	}
	if err := rc.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	saved, err := os.ReadFile(filepath.Join(dir, "Contents-amd64.gz"))
	if err != nil {
		t.Fatalf("read cache file: %v", err)
	}
	if !bytes.Equal(saved, payload) {
		t.Error("cache file does not match served payload")
	}
}

// TestHTTPSourceDiscardsPartialCache verifies an aborted download never
// leaves a truncated file behind for --use-cache to trip over.
func TestHTTPSourceDiscardsPartialCache(t *testing.T) {
	payload := gzipPayload(t, strings.Repeat("bin/ls   utils/coreutils\n", 1000))
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write(payload)
	}))
	defer srv.Close()

	dir := t.TempDir()
	src := NewHTTPSource(srv.URL, "", "", 0)
	src.SaveDir = dir

	rc, err := src.Open(context.Background(), "amd64")
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	// Read a little, then abandon the stream before EOF.
	if _, err := rc.Read(make([]byte, 16)); err != nil {
		t.Fatalf("Read: %v", err)
	}
	rc.Close()

	if _, err := os.Stat(filepath.Join(dir, "Contents-amd64.gz")); !os.IsNotExist(err) {
		t.Errorf("partial cache file was kept: %v", err)
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatalf("ReadDir: %v", err)
	}
	if len(entries) != 0 {
		t.Errorf("temp files left behind: %v", entries)
	}
}

func TestFileSource(t *testing.T) {
	t.Run("reads cached file", func(t *testing.T) {
		dir := t.TempDir()
		payload := gzipPayload(t, "bin/ls   utils/coreutils\n")
		if err := os.WriteFile(filepath.Join(dir, "Contents-amd64.gz"), payload, 0o644); err != nil {
			t.Fatalf("WriteFile: %v", err)
		}

		rc, err := NewFileSource(dir).Open(context.Background(), "amd64")
		if err != nil {
			t.Fatalf("Open: %v", err)
		}
		defer rc.Close()

		body, err := io.ReadAll(rc)
		if err != nil {
			t.Fatalf("read: %v", err)
		}
		if !bytes.Equal(body, payload) {
			t.Error("cached content mismatch")
		}
	})

	t.Run("missing file", func(t *testing.T) {
		_, err := NewFileSource(t.TempDir()).Open(context.Background(), "amd64")
		if !errors.Is(err, ErrNoCacheFile) {
			t.Errorf("expected ErrNoCacheFile, got %v", err)
		}
	})
}
