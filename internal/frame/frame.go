package frame

import (
	"errors"
	"fmt"
	"time"
)

const (
	// MaxDimension is the largest accepted width or height. Anything larger
	// risks overflow in downstream area and stride computations.
	MaxDimension = 32000

	// MaxPixels caps the total frame area (100 MP).
	MaxPixels = 100_000_000
)

// ErrInvalidDimensions is returned when width, height, or channel count is out of range.
var ErrInvalidDimensions = errors.New("invalid frame dimensions")

// Frame is an owned rectangular pixel buffer with processing metadata.
// It is the unit of exchange between the pipeline components; whoever holds
// the frame owns Data exclusively.
type Frame struct {
	Width    int
	Height   int
	Channels int

	// Data holds interleaved pixels; len(Data) == Width*Height*Channels.
	Data []byte

	Timestamp    time.Time
	ID           int64
	ScaleLevel   int
	GPUProcessed bool
	Duration     time.Duration
	QualityScore float64
}

// CheckDimensions validates a (width, height, channels) triple.
func CheckDimensions(width, height, channels int) error {
	if width <= 0 || height <= 0 {
		return fmt.Errorf("%w: %dx%d", ErrInvalidDimensions, width, height)
	}
	if width > MaxDimension || height > MaxDimension {
		return fmt.Errorf("%w: %dx%d exceeds maximum %d", ErrInvalidDimensions, width, height, MaxDimension)
	}
	if width*height > MaxPixels {
		return fmt.Errorf("%w: %dx%d exceeds pixel limit", ErrInvalidDimensions, width, height)
	}
	if channels < 1 || channels > 4 {
		return fmt.Errorf("%w: %d channels", ErrInvalidDimensions, channels)
	}
	return nil
}

// New allocates a frame with an owned zeroed pixel buffer.
func New(width, height, channels int) (*Frame, error) {
	if err := CheckDimensions(width, height, channels); err != nil {
		return nil, err
	}
	return &Frame{
		Width:    width,
		Height:   height,
		Channels: channels,
		Data:     make([]byte, width*height*channels),
	}, nil
}

// FromPixels allocates a frame and deep-copies the caller-supplied pixels.
// The pipeline never aliases caller memory.
func FromPixels(pixels []byte, width, height, channels int) (*Frame, error) {
	f, err := New(width, height, channels)
	if err != nil {
		return nil, err
	}
	if len(pixels) != len(f.Data) {
		return nil, fmt.Errorf("%w: buffer length %d, want %d", ErrInvalidDimensions, len(pixels), len(f.Data))
	}
	copy(f.Data, pixels)
	return f, nil
}

// Size returns the pixel buffer length in bytes.
func (f *Frame) Size() int {
	return f.Width * f.Height * f.Channels
}

// Validate checks the buffer-size invariant.
func (f *Frame) Validate() error {
	if err := CheckDimensions(f.Width, f.Height, f.Channels); err != nil {
		return err
	}
	if len(f.Data) != f.Size() {
		return fmt.Errorf("%w: buffer length %d, want %d", ErrInvalidDimensions, len(f.Data), f.Size())
	}
	return nil
}

// Clone returns a deep copy with the same metadata and an independent buffer.
func (f *Frame) Clone() *Frame {
	out := *f
	out.Data = make([]byte, len(f.Data))
	copy(out.Data, f.Data)
	return &out
}
