package alloc

import "unsafe"

// Dup copies src into a fresh allocation of len(src) bytes.
// Free the result with len(src).
func Dup(a Allocator, src []byte) ([]byte, error) {
	b, err := a.Alloc(len(src))
	if err != nil {
		return nil, err
	}
	copy(b, src)
	return b, nil
}

// DupString copies s into a fresh allocation followed by a NUL byte.
// The result has len(s)+1 bytes and must be freed with that size.
func DupString(a Allocator, s string) ([]byte, error) {
	b, err := a.Alloc(len(s) + 1)
	if err != nil {
		return nil, err
	}
	copy(b, s)
	b[len(s)] = 0
	return b, nil
}

// addrOf is the identity of an allocation: the address of its first byte.
// It is 0 for nil.
func addrOf(b []byte) uintptr {
	return uintptr(unsafe.Pointer(unsafe.SliceData(b)))
}
