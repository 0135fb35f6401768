//go:build !linux && !darwin && !windows && !freebsd && !openbsd && !netbsd && !dragonfly

package sysmem

// totalSystemMemory reports detection as unavailable on unsupported
// platforms, triggering the default fallback.
func totalSystemMemory() (uint64, bool) {
	return 0, false
}
