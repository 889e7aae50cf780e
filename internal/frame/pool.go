package frame

import "sync"

// poolKey identifies a free list by exact buffer geometry.
type poolKey struct {
	width    int
	height   int
	channels int
}

// Pool is an optional fixed-size free list of frame buffers keyed by
// geometry. It trades a bounded amount of retained memory for fewer
// allocations on the hot path. A nil *Pool is valid and always allocates.
type Pool struct {
	mu        sync.Mutex
	free      map[poolKey][]*Frame
	maxPerKey int
}

// NewPool creates a pool retaining at most maxPerKey buffers per geometry.
func NewPool(maxPerKey int) *Pool {
	if maxPerKey < 1 {
		maxPerKey = 1
	}
	return &Pool{
		free:      make(map[poolKey][]*Frame),
		maxPerKey: maxPerKey,
	}
}

// Get returns a frame with the requested geometry, reusing a pooled buffer
// when one is available. Metadata on reused frames is reset.
func (p *Pool) Get(width, height, channels int) (*Frame, error) {
	if p == nil {
		return New(width, height, channels)
	}

	key := poolKey{width, height, channels}

	p.mu.Lock()
	list := p.free[key]
	if n := len(list); n > 0 {
		f := list[n-1]
		p.free[key] = list[:n-1]
		p.mu.Unlock()

		*f = Frame{Width: width, Height: height, Channels: channels, Data: f.Data}
		return f, nil
	}
	p.mu.Unlock()

	return New(width, height, channels)
}

// Put returns a frame to the pool. Frames beyond the per-geometry cap, or
// frames failing validation, are released to the garbage collector instead.
func (p *Pool) Put(f *Frame) {
	if p == nil || f == nil || f.Validate() != nil {
		return
	}

	key := poolKey{f.Width, f.Height, f.Channels}

	p.mu.Lock()
	defer p.mu.Unlock()

	if len(p.free[key]) >= p.maxPerKey {
		return
	}
	p.free[key] = append(p.free[key], f)
}

// RetainedBytes reports the total size of pooled buffers.
func (p *Pool) RetainedBytes() int {
	if p == nil {
		return 0
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	total := 0
	for _, list := range p.free {
		for _, f := range list {
			total += len(f.Data)
		}
	}
	return total
}

// EstimateMB is the advisory memory estimate for count buffers of the given
// geometry, in mebibytes.
func EstimateMB(width, height, channels, count int) float64 {
	return float64(width*height*channels*count) / (1024 * 1024)
}
