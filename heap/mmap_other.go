//go:build !linux && !darwin && !freebsd

package heap

// NewMmap returns Runtime on platforms without anonymous mmap support.
func NewMmap() Source {
	return Runtime
}
