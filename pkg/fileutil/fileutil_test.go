package fileutil

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/text/encoding/unicode"

	"github.com/joshuapare/memkit/alloc"
)

func writeTemp(t *testing.T, name string, data []byte) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, WriteFile(path, data))
	return path
}

func TestReadFile(t *testing.T) {
	tests := []struct {
		name string
		data []byte
	}{
		{"empty", nil},
		{"short", []byte("hello")},
		{"binary", []byte{0, 1, 2, 0xFF, 0}},
		{"large", make([]byte, 300000)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := writeTemp(t, "f", tt.data)
			rec := alloc.NewRecording(alloc.RecordingOptions{})
			a := rec.Allocator()

			b, err := ReadFile(path, a)
			require.NoError(t, err)
			assert.Len(t, b, len(tt.data))
			assert.Equal(t, string(tt.data), string(b))
			assert.Equal(t, byte(0), b[:BufSize(len(b))][len(b)], "buffer is NUL-terminated")
			assert.Equal(t, BufSize(len(b)), rec.LiveBytes())

			a.Free(b, BufSize(len(b)))
			rec.AssertAllFreed()
		})
	}
}

func TestReadBinFile(t *testing.T) {
	path := writeTemp(t, "bin", []byte{9, 8, 7})
	rec := alloc.NewRecording(alloc.RecordingOptions{})
	a := rec.Allocator()

	b, err := ReadBinFile(path, a)
	require.NoError(t, err)
	assert.Equal(t, []byte{9, 8, 7}, b)
	assert.Equal(t, 3, rec.LiveBytes())
	a.Free(b, len(b))
	rec.AssertAllFreed()
}

func TestReadFile_IntoArena(t *testing.T) {
	path := writeTemp(t, "f", []byte("arena contents"))
	ar, err := alloc.NewArena(alloc.ArenaOptions{BlockSize: 4096})
	require.NoError(t, err)
	a := ar.Allocator()

	b, err := ReadFile(path, a)
	require.NoError(t, err)
	assert.Equal(t, "arena contents", string(b))
	assert.Equal(t, a.GoodSize(BufSize(len(b))), ar.Stats().Used)
	a.FreeAll()
}

func TestReadFile_Errors(t *testing.T) {
	dir := t.TempDir()
	rec := alloc.NewRecording(alloc.RecordingOptions{})
	a := rec.Allocator()

	_, err := ReadFile(filepath.Join(dir, "missing"), a)
	require.Error(t, err)
	assert.True(t, errors.Is(err, os.ErrNotExist))

	_, err = ReadFile(dir, a)
	require.ErrorIs(t, err, ErrIsDir)

	rec.AssertAllFreed()
}

func TestReadFile_AllocatorFailure(t *testing.T) {
	path := writeTemp(t, "f", []byte("data"))

	_, err := ReadFile(path, alloc.Null())
	require.ErrorIs(t, err, alloc.ErrOutOfMemory)

	ta := alloc.NewTesting(alloc.RecordingOptions{})
	ta.SetFailAt(1)
	_, err = ReadText(path, ta.Allocator())
	require.ErrorIs(t, err, alloc.ErrFaultInjected)
	ta.AssertAllFreed()
}

func TestReadText(t *testing.T) {
	const text = "héllo, wörld"
	le, err := unicode.UTF16(unicode.LittleEndian, unicode.UseBOM).NewEncoder().Bytes([]byte(text))
	require.NoError(t, err)
	be, err := unicode.UTF16(unicode.BigEndian, unicode.UseBOM).NewEncoder().Bytes([]byte(text))
	require.NoError(t, err)

	tests := []struct {
		name string
		data []byte
	}{
		{"utf8", []byte(text)},
		{"utf8 bom", append([]byte{0xEF, 0xBB, 0xBF}, text...)},
		{"utf16le", le},
		{"utf16be", be},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := writeTemp(t, "t.txt", tt.data)
			rec := alloc.NewRecording(alloc.RecordingOptions{})
			a := rec.Allocator()

			b, err := ReadText(path, a)
			require.NoError(t, err)
			assert.Equal(t, text, string(b))
			assert.Equal(t, byte(0), b[:BufSize(len(b))][len(b)])

			a.Free(b, BufSize(len(b)))
			rec.AssertAllFreed()
		})
	}
}

func TestReadText_SecondAllocationFails(t *testing.T) {
	le, err := unicode.UTF16(unicode.LittleEndian, unicode.UseBOM).NewEncoder().Bytes([]byte("abc"))
	require.NoError(t, err)
	path := writeTemp(t, "t.txt", le)

	ta := alloc.NewTesting(alloc.RecordingOptions{})
	ta.SetFailAt(2)
	_, err = ReadText(path, ta.Allocator())
	require.ErrorIs(t, err, alloc.ErrFaultInjected)
	ta.AssertAllFreed()
}
