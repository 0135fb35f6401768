// Package fetch acquires compressed Contents indexes for the pipeline.
//
// The pipeline itself only wants a readable byte stream; this package
// supplies one from a Debian HTTP mirror, an S3 bucket holding mirrored
// index files, or a previously saved local cache file.
package fetch

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
)

// DefaultMirror is the Debian mirror used when none is configured.
const DefaultMirror = "http://ftp.uk.debian.org/debian"

// MirrorEnvVar overrides the default mirror when set.
const MirrorEnvVar = "PKGSTAT_MIRROR_URL"

const (
	// DefaultSuite is the distribution suite queried by default.
	DefaultSuite = "stable"

	// DefaultComponent is the archive component queried by default.
	DefaultComponent = "main"
)

// ErrNoCacheFile indicates a cache read was requested but no cached index
// exists for the architecture.
var ErrNoCacheFile = errors.New("fetch: no cached Contents file")

// Source opens a compressed Contents stream for an architecture. The caller
// owns the returned stream and must close it.
type Source interface {
	Open(ctx context.Context, arch string) (io.ReadCloser, error)
}

// BaseMirror resolves the mirror base URL: explicit flag value first, then
// the MirrorEnvVar environment variable, then DefaultMirror.
func BaseMirror(flagValue string) string {
	if flagValue != "" {
		return flagValue
	}
	if env := os.Getenv(MirrorEnvVar); env != "" {
		return env
	}
	return DefaultMirror
}

// ContentsURL builds the mirror URL of a compressed Contents index:
// <base>/dists/<suite>/<component>/Contents-<arch>.gz.
func ContentsURL(baseURL, suite, component, arch string) string {
	return fmt.Sprintf("%s/dists/%s/%s/Contents-%s.gz",
		strings.TrimRight(baseURL, "/"), suite, component, arch)
}

// ContentsFilename is the conventional local name for a cached index.
func ContentsFilename(arch string) string {
	return fmt.Sprintf("Contents-%s.gz", arch)
}
