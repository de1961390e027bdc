package framestore

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// checkerFrame builds an rgb24 frame alternating white and black pixels,
// offset so consecutive frames differ.
func checkerFrame(width, height, phase int) []byte {
	pix := make([]byte, width*height*3)
	for p := 0; p < width*height; p++ {
		if (p+phase)%2 == 0 {
			pix[p*3] = 0xff
			pix[p*3+1] = 0xff
			pix[p*3+2] = 0xff
		}
	}
	return pix
}

func writeStore(t *testing.T, width, height, count int) string {
	t.Helper()
	frames := make([][]byte, count)
	for i := range frames {
		frames[i] = checkerFrame(width, height, i)
	}
	path := filepath.Join(t.TempDir(), "frames.vfs")
	require.NoError(t, Write(path, width, height, frames))
	return path
}

func TestWriteLoadRoundTrip(t *testing.T) {
	path := writeStore(t, 16, 8, 5)

	store, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, 5, store.Count())
	w, h := store.Size()
	assert.Equal(t, 16, w)
	assert.Equal(t, 8, h)

	// Pure black-and-white input survives the 1-bit roundtrip exactly.
	for i := 0; i < 5; i++ {
		got, err := store.Frame(i)
		require.NoError(t, err)
		assert.Equal(t, checkerFrame(16, 8, i), got, "frame %d", i)
	}
}

func TestPackQuantizesByLuminance(t *testing.T) {
	// One bright and one dark pixel: only the bright one survives as set.
	rgb := []byte{
		200, 200, 200,
		50, 50, 50,
	}
	packed := pack(rgb, 2)
	require.Len(t, packed, 1)
	assert.Equal(t, byte(0b10000000), packed[0])

	expanded := expand(packed, 2)
	assert.Equal(t, []byte{0xff, 0xff, 0xff, 0, 0, 0}, expanded)
}

func TestWriteValidation(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.vfs")

	assert.Error(t, Write(path, 0, 8, [][]byte{make([]byte, 0)}))
	assert.Error(t, Write(path, 8, 8, nil))
	assert.Error(t, Write(path, 0x10000, 8, [][]byte{make([]byte, 0x10000*8*3)}))

	// Frame length must match the declared geometry.
	assert.Error(t, Write(path, 4, 4, [][]byte{make([]byte, 10)}))
}

func TestLoadRejectsCorruptFiles(t *testing.T) {
	dir := t.TempDir()

	// Truncated header.
	short := filepath.Join(dir, "short.vfs")
	require.NoError(t, os.WriteFile(short, []byte{1, 2, 3}, 0o644))
	_, err := Load(short)
	assert.ErrorIs(t, err, ErrCorrupt)

	// Valid header, garbage body.
	garbage := filepath.Join(dir, "garbage.vfs")
	data := []byte{4, 0, 4, 0, 1, 0, 0, 0, 0xde, 0xad, 0xbe, 0xef}
	require.NoError(t, os.WriteFile(garbage, data, 0o644))
	_, err = Load(garbage)
	assert.ErrorIs(t, err, ErrCorrupt)

	// Zero frame count.
	empty := filepath.Join(dir, "empty.vfs")
	require.NoError(t, os.WriteFile(empty, make([]byte, headerSize), 0o644))
	_, err = Load(empty)
	assert.ErrorIs(t, err, ErrCorrupt)

	// Body shorter than the declared frame count: truncate a valid file
	// right after its header.
	good, err := os.ReadFile(writeStore(t, 64, 64, 4))
	require.NoError(t, err)
	truncated := filepath.Join(dir, "truncated.vfs")
	require.NoError(t, os.WriteFile(truncated, good[:headerSize], 0o644))
	_, err = Load(truncated)
	assert.ErrorIs(t, err, ErrCorrupt)

	_, err = Load(filepath.Join(dir, "missing.vfs"))
	assert.Error(t, err)
}

func TestFrameRange(t *testing.T) {
	store, err := Load(writeStore(t, 8, 8, 3))
	require.NoError(t, err)

	_, err = store.Frame(-1)
	assert.ErrorIs(t, err, ErrFrameRange)
	_, err = store.Frame(3)
	assert.ErrorIs(t, err, ErrFrameRange)
}

func TestFrameCacheEviction(t *testing.T) {
	store, err := Load(writeStore(t, 8, 8, 10))
	require.NoError(t, err)
	store.cacheCap = 3

	for i := 0; i < 10; i++ {
		_, err := store.Frame(i)
		require.NoError(t, err)
	}

	// Only the three most recently expanded frames stay cached.
	cached := 0
	for i := 0; i < 10; i++ {
		if store.expanded[i] != nil {
			cached++
		}
	}
	assert.Equal(t, 3, cached)
	assert.NotNil(t, store.expanded[9])
	assert.NotNil(t, store.expanded[8])
	assert.NotNil(t, store.expanded[7])
	assert.Nil(t, store.expanded[0])

	// Evicted frames re-expand on demand with identical content.
	got, err := store.Frame(0)
	require.NoError(t, err)
	assert.Equal(t, checkerFrame(8, 8, 0), got)
}

func TestFrameCacheHitReturnsSameBuffer(t *testing.T) {
	store, err := Load(writeStore(t, 8, 8, 2))
	require.NoError(t, err)

	a, err := store.Frame(1)
	require.NoError(t, err)
	b, err := store.Frame(1)
	require.NoError(t, err)
	assert.Same(t, &a[0], &b[0], "cache hit must not re-expand")
}
