package fileutil

import (
	"bytes"
	"fmt"

	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"

	"github.com/joshuapare/memkit/alloc"
)

var (
	utf8BOM    = []byte{0xEF, 0xBB, 0xBF}
	utf16LEBOM = []byte{0xFF, 0xFE}
	utf16BEBOM = []byte{0xFE, 0xFF}
)

// ReadText reads a text file as UTF-8. A UTF-16 file (either byte order,
// identified by its BOM) is transcoded; a UTF-8 BOM is dropped. Like
// ReadFile, the result is NUL-terminated and freed with BufSize(len(b)).
func ReadText(path string, a alloc.Allocator) ([]byte, error) {
	raw, err := ReadBinFile(path, a)
	if err != nil {
		return nil, err
	}
	n := len(raw)

	if bytes.HasPrefix(raw, utf16LEBOM) || bytes.HasPrefix(raw, utf16BEBOM) {
		return transcodeUTF16(path, a, raw)
	}

	// UTF-8: shift out the BOM if present and grow by one for the NUL.
	skip := 0
	if bytes.HasPrefix(raw, utf8BOM) {
		skip = len(utf8BOM)
		copy(raw, raw[skip:])
	}
	size := n - skip
	b, err := a.Realloc(raw, n, size+1)
	if err != nil {
		a.Free(raw, n)
		return nil, err
	}
	b[size] = 0
	return b[:size], nil
}

// transcodeUTF16 decodes raw into a fresh NUL-terminated buffer and frees raw.
func transcodeUTF16(path string, a alloc.Allocator, raw []byte) ([]byte, error) {
	n := len(raw)
	dec := unicode.UTF16(unicode.LittleEndian, unicode.UseBOM).NewDecoder()
	text, _, err := transform.Bytes(dec, raw)
	if err != nil {
		a.Free(raw, n)
		return nil, fmt.Errorf("fileutil: decode %s: %w", path, err)
	}

	b, err := a.Alloc(len(text) + 1)
	if err != nil {
		a.Free(raw, n)
		return nil, err
	}
	copy(b, text)
	b[len(text)] = 0
	a.Free(raw, n)
	return b[:len(text)], nil
}
