// Package rawslice casts byte slices from memory-mapped files into typed
// slices without copying, the way the runtime wants to consume .da/.c2i/.p2f
// artifacts directly out of their mmap'd backing store.
package rawslice

import (
	"unsafe"
)

// Of reinterprets b as a slice of T with no copy. b must outlive the
// returned slice (it is typically a view into an mmap.MMap).
func Of[T any](b []byte) []T {
	if len(b) == 0 {
		return nil
	}
	var zero T
	size := int(unsafe.Sizeof(zero))
	return unsafe.Slice((*T)(unsafe.Pointer(&b[0])), len(b)/size)
}
