// Package imaging is the boundary to the image-processing collaborator.
//
// Callers hand in lightweight Views over buffers they own; implementations
// never retain or reallocate them. The default build ships a pure-Go
// implementation; building with -tags opencv swaps in gocv (OpenCV) with
// selectable interpolation.
package imaging

import (
	"errors"
	"fmt"
)

// Dimension limits carried over from the OpenCV call boundary.
const (
	maxDimension = 32767
	maxPixels    = 100_000_000
)

var (
	// ErrInvalidView is returned when a view fails dimension or stride checks.
	ErrInvalidView = errors.New("invalid image view")

	// ErrUnsupported is returned for conversions the implementation cannot do.
	ErrUnsupported = errors.New("unsupported operation")
)

// Interpolation selects the resize filter.
type Interpolation int

const (
	InterpNearest Interpolation = iota
	InterpBilinear
	InterpArea
	InterpCubic
	InterpLanczos
)

// Conversion selects a color-space conversion.
type Conversion int

const (
	// ConvertBGRToRGB swaps the first and third channel. The inverse is the
	// same operation, so it also serves RGB to BGR.
	ConvertBGRToRGB Conversion = iota
)

// View is a non-owning window over an interleaved pixel buffer.
type View struct {
	Data     []byte
	Width    int
	Height   int
	Channels int
}

// Check validates the view's geometry and buffer length.
func (v View) Check() error {
	if v.Width <= 0 || v.Height <= 0 {
		return fmt.Errorf("%w: %dx%d", ErrInvalidView, v.Width, v.Height)
	}
	if v.Width > maxDimension || v.Height > maxDimension || v.Width*v.Height > maxPixels {
		return fmt.Errorf("%w: %dx%d too large", ErrInvalidView, v.Width, v.Height)
	}
	if v.Channels < 1 || v.Channels > 4 {
		return fmt.Errorf("%w: %d channels", ErrInvalidView, v.Channels)
	}
	if len(v.Data) != v.Width*v.Height*v.Channels {
		return fmt.Errorf("%w: buffer length %d, want %d", ErrInvalidView, len(v.Data), v.Width*v.Height*v.Channels)
	}
	return nil
}

// Processor performs resize, blur, and color conversion on caller-owned views.
type Processor interface {
	// Resize scales src into dst. Both views must be valid and share the
	// same channel count.
	Resize(src, dst View, interp Interpolation) error

	// GaussianBlur smooths img in place with the given sigma.
	GaussianBlur(img View, sigma float64) error

	// ConvertColor converts src into dst, which must share geometry.
	ConvertColor(src, dst View, conv Conversion) error

	// MirrorHorizontal flips src into dst around the vertical axis.
	MirrorHorizontal(src, dst View) error

	// Name identifies the implementation for logs and metrics.
	Name() string
}

// checkPair validates a src/dst pair with matching channel counts.
func checkPair(src, dst View) error {
	if err := src.Check(); err != nil {
		return err
	}
	if err := dst.Check(); err != nil {
		return err
	}
	if src.Channels != dst.Channels {
		return fmt.Errorf("%w: channel mismatch %d vs %d", ErrInvalidView, src.Channels, dst.Channels)
	}
	return nil
}

// checkSameShape validates a src/dst pair with identical geometry.
func checkSameShape(src, dst View) error {
	if err := checkPair(src, dst); err != nil {
		return err
	}
	if src.Width != dst.Width || src.Height != dst.Height {
		return fmt.Errorf("%w: shape mismatch %dx%d vs %dx%d", ErrInvalidView,
			src.Width, src.Height, dst.Width, dst.Height)
	}
	return nil
}
