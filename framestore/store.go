package framestore

import (
	"encoding/binary"
	"errors"
	"fmt"
	"os"
	"sync"

	"github.com/klauspost/compress/zstd"
	"github.com/sirupsen/logrus"
)

// Container header layout: width (uint16 LE), height (uint16 LE), frame
// count (uint32 LE), followed by the zstd-compressed packed frame body.
const headerSize = 8

// DefaultCacheFrames is the default capacity of the expanded-frame LRU
// cache.
const DefaultCacheFrames = 64

var (
	// ErrCorrupt indicates the container file is malformed or truncated.
	ErrCorrupt = errors.New("frame store corrupt")

	// ErrFrameRange indicates a frame index outside the store.
	ErrFrameRange = errors.New("frame index out of range")
)

// Store is a loaded frame set: packed 1-bit frames plus an LRU cache of
// expanded RGB frames.
//
// The packed frames are immutable after Load. The cache is an
// index-addressed arena of optional expanded buffers plus an explicit
// eviction order list, each structure guarded by the store's lock, so
// Frame is safe for concurrent use.
type Store struct {
	width  int
	height int
	packed [][]byte

	mu       sync.Mutex
	expanded [][]byte
	order    []int
	cacheCap int
}

// pixels returns the pixel count of one frame.
func (s *Store) pixels() int {
	return s.width * s.height
}

// packedFrameSize returns the byte length of one packed frame: one bit
// per pixel, rounded up.
func packedFrameSize(width, height int) int {
	return (width*height + 7) / 8
}

// Load reads a container file into memory and prepares the expansion
// cache.
func Load(path string) (*Store, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read frame store %q: %w", path, err)
	}
	if len(data) < headerSize {
		return nil, fmt.Errorf("%w: file shorter than header", ErrCorrupt)
	}

	width := int(binary.LittleEndian.Uint16(data[0:2]))
	height := int(binary.LittleEndian.Uint16(data[2:4]))
	count := int(binary.LittleEndian.Uint32(data[4:8]))
	if width <= 0 || height <= 0 || count <= 0 {
		return nil, fmt.Errorf("%w: header declares %dx%d with %d frames", ErrCorrupt, width, height, count)
	}

	dec, err := zstd.NewReader(nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create zstd reader: %w", err)
	}
	defer dec.Close()

	frameSize := packedFrameSize(width, height)
	body, err := dec.DecodeAll(data[headerSize:], make([]byte, 0, frameSize*count))
	if err != nil {
		return nil, fmt.Errorf("%w: decompression failed: %v", ErrCorrupt, err)
	}
	if len(body) < frameSize*count {
		return nil, fmt.Errorf("%w: body holds %d bytes, want %d", ErrCorrupt, len(body), frameSize*count)
	}

	packed := make([][]byte, count)
	for i := 0; i < count; i++ {
		packed[i] = body[i*frameSize : (i+1)*frameSize : (i+1)*frameSize]
	}

	logrus.WithFields(logrus.Fields{
		"function": "Load",
		"path":     path,
		"width":    width,
		"height":   height,
		"frames":   count,
	}).Info("Frame store loaded")

	return &Store{
		width:    width,
		height:   height,
		packed:   packed,
		expanded: make([][]byte, count),
		cacheCap: DefaultCacheFrames,
	}, nil
}

// Count returns the number of frames in the store.
func (s *Store) Count() int {
	return len(s.packed)
}

// Size returns the per-frame pixel dimensions.
func (s *Store) Size() (width, height int) {
	return s.width, s.height
}

// Frame expands frame index to row-major rgb24 bytes. Expanded frames are
// cached; the least recently expanded frame is evicted once the cache
// exceeds its capacity. The returned buffer is shared with the cache and
// must not be modified.
func (s *Store) Frame(index int) ([]byte, error) {
	if index < 0 || index >= len(s.packed) {
		return nil, fmt.Errorf("%w: %d of %d", ErrFrameRange, index, len(s.packed))
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if cached := s.expanded[index]; cached != nil {
		return cached, nil
	}

	rgb := expand(s.packed[index], s.pixels())
	s.expanded[index] = rgb
	s.order = append(s.order, index)
	for len(s.order) > s.cacheCap {
		evicted := s.order[0]
		s.order = s.order[1:]
		s.expanded[evicted] = nil
	}
	return rgb, nil
}

// expand turns packed 1-bit pixels into rgb24: set bits become white,
// clear bits black.
func expand(packed []byte, pixels int) []byte {
	rgb := make([]byte, pixels*3)
	for p := 0; p < pixels; p++ {
		if packed[p/8]&(1<<(7-p%8)) != 0 {
			rgb[p*3] = 0xff
			rgb[p*3+1] = 0xff
			rgb[p*3+2] = 0xff
		}
	}
	return rgb
}

// pack quantizes rgb24 to one bit per pixel by luminance, using the same
// Rec. 601 weights as the renderer's monochrome ramp.
func pack(rgb []byte, pixels int) []byte {
	packed := make([]byte, (pixels+7)/8)
	for p := 0; p < pixels; p++ {
		i := p * 3
		luma := (int(rgb[i])*299 + int(rgb[i+1])*587 + int(rgb[i+2])*114) / 1000
		if luma >= 128 {
			packed[p/8] |= 1 << (7 - p%8)
		}
	}
	return packed
}

// Write saves frames as a container file. Every frame must be rgb24 of
// exactly width*height pixels.
func Write(path string, width, height int, frames [][]byte) error {
	if width <= 0 || height <= 0 || width > 0xffff || height > 0xffff {
		return fmt.Errorf("invalid store dimensions: %dx%d", width, height)
	}
	if len(frames) == 0 {
		return fmt.Errorf("no frames to write")
	}

	pixels := width * height
	body := make([]byte, 0, packedFrameSize(width, height)*len(frames))
	for i, frame := range frames {
		if len(frame) != pixels*3 {
			return fmt.Errorf("frame %d length %d does not match %dx%d", i, len(frame), width, height)
		}
		body = append(body, pack(frame, pixels)...)
	}

	enc, err := zstd.NewWriter(nil)
	if err != nil {
		return fmt.Errorf("failed to create zstd writer: %w", err)
	}
	compressed := enc.EncodeAll(body, make([]byte, 0, len(body)/4))
	enc.Close()

	out := make([]byte, headerSize, headerSize+len(compressed))
	binary.LittleEndian.PutUint16(out[0:2], uint16(width))
	binary.LittleEndian.PutUint16(out[2:4], uint16(height))
	binary.LittleEndian.PutUint32(out[4:8], uint32(len(frames)))
	out = append(out, compressed...)

	if err := os.WriteFile(path, out, 0o644); err != nil {
		return fmt.Errorf("failed to write frame store %q: %w", path, err)
	}

	logrus.WithFields(logrus.Fields{
		"function": "Write",
		"path":     path,
		"frames":   len(frames),
		"packed":   len(body),
		"stored":   len(out),
	}).Info("Frame store written")

	return nil
}
