package render

import (
	"fmt"
	"runtime"
	"sync"

	"github.com/sirupsen/logrus"

	"github.com/opd-ai/vidterm/video"
)

// largeGridThreshold is the cell count above which chunks are capped at a
// fixed size so per-chunk scheduling overhead stays small relative to the
// work done per chunk.
const (
	largeGridThreshold = 10000
	largeGridChunkSize = 2000
)

// Processor converts canvases into half-block cell grids.
//
// The conversion is a pure function of the input canvas. Work is
// partitioned into contiguous chunks of the output grid and the chunks run
// concurrently: each worker writes only its own output range and reads
// only the shared immutable canvas, so no synchronization beyond the final
// join is needed.
type Processor struct {
	width   int
	height  int
	workers int
}

// NewProcessor creates a processor for canvases of the given pixel size.
// The worker count defaults to the number of CPUs.
func NewProcessor(width, height int) (*Processor, error) {
	if width <= 0 || height <= 0 {
		return nil, fmt.Errorf("invalid processor dimensions: %dx%d", width, height)
	}
	p := &Processor{
		width:   width,
		height:  height,
		workers: runtime.NumCPU(),
	}
	logrus.WithFields(logrus.Fields{
		"function": "NewProcessor",
		"width":    width,
		"height":   height,
		"workers":  p.workers,
	}).Debug("Creating cell processor")
	return p, nil
}

// GridLen returns the length of the grids this processor produces.
func (p *Processor) GridLen() int {
	cols, rows := GridSize(p.width, p.height)
	return cols * rows
}

// Process converts a canvas into a freshly allocated cell grid.
func (p *Processor) Process(canvas *video.Canvas) ([]Cell, error) {
	grid := make([]Cell, p.GridLen())
	if err := p.ProcessInto(canvas, grid); err != nil {
		return nil, err
	}
	return grid, nil
}

// ProcessInto converts a canvas into a caller-supplied grid, avoiding a
// per-frame allocation. The destination must have exactly GridLen cells.
func (p *Processor) ProcessInto(canvas *video.Canvas, grid []Cell) error {
	if err := canvas.Validate(); err != nil {
		return err
	}
	if canvas.Width != p.width || canvas.Height != p.height {
		return fmt.Errorf("canvas size %dx%d does not match processor %dx%d",
			canvas.Width, canvas.Height, p.width, p.height)
	}
	if len(grid) != p.GridLen() {
		return fmt.Errorf("destination grid length %d does not match expected %d",
			len(grid), p.GridLen())
	}

	chunk := p.chunkSize(len(grid))
	var wg sync.WaitGroup
	for start := 0; start < len(grid); start += chunk {
		end := start + chunk
		if end > len(grid) {
			end = len(grid)
		}
		wg.Add(1)
		go func(start, end int) {
			defer wg.Done()
			p.convertRange(canvas, grid, start, end)
		}(start, end)
	}
	wg.Wait()
	return nil
}

// chunkSize balances per-chunk overhead against parallelism: large grids
// use a fixed chunk size, small grids split evenly across the workers.
func (p *Processor) chunkSize(cells int) int {
	if cells > largeGridThreshold {
		return largeGridChunkSize
	}
	workers := p.workers
	if workers < 1 {
		workers = 1
	}
	c := cells / workers
	if c < 1 {
		c = 1
	}
	return c
}

// convertRange fills grid[start:end] from the canvas. Cell (cx, cy) reads
// pixels (cx, cy*2) and (cx, cy*2+1); RGBAt yields black for any
// out-of-range read, so a truncated bottom row degrades instead of
// faulting.
func (p *Processor) convertRange(canvas *video.Canvas, grid []Cell, start, end int) {
	cols, _ := GridSize(p.width, p.height)
	for i := start; i < end; i++ {
		cx := i % cols
		cy := i / cols

		tr, tg, tb := canvas.RGBAt(cx, cy*2)
		br, bg, bb := canvas.RGBAt(cx, cy*2+1)

		grid[i] = Cell{
			Glyph: halfBlock,
			FG:    RGB{R: tr, G: tg, B: tb},
			BG:    RGB{R: br, G: bg, B: bb},
		}
	}
}
