//go:build opencv

package imaging

import (
	"fmt"
	"image"

	"gocv.io/x/gocv"
)

// cvProcessor delegates to OpenCV through gocv. Data is marshalled through
// Mats at the call boundary; the Mats are closed before returning so no
// caller buffer is retained.
type cvProcessor struct{}

// Default returns the processor for this build.
func Default() Processor {
	return cvProcessor{}
}

// Name identifies the implementation.
func (cvProcessor) Name() string { return "opencv" }

func matType(channels int) gocv.MatType {
	switch channels {
	case 1:
		return gocv.MatTypeCV8UC1
	case 2:
		return gocv.MatTypeCV8UC2
	case 4:
		return gocv.MatTypeCV8UC4
	default:
		return gocv.MatTypeCV8UC3
	}
}

func cvInterpolation(interp Interpolation) gocv.InterpolationFlags {
	switch interp {
	case InterpNearest:
		return gocv.InterpolationNearestNeighbor
	case InterpArea:
		return gocv.InterpolationArea
	case InterpCubic:
		return gocv.InterpolationCubic
	case InterpLanczos:
		return gocv.InterpolationLanczos4
	default:
		return gocv.InterpolationLinear
	}
}

// Resize scales src into dst using the selected OpenCV interpolation.
func (cvProcessor) Resize(src, dst View, interp Interpolation) error {
	if err := checkPair(src, dst); err != nil {
		return err
	}

	srcMat, err := gocv.NewMatFromBytes(src.Height, src.Width, matType(src.Channels), src.Data)
	if err != nil {
		return fmt.Errorf("wrap source mat: %w", err)
	}
	defer srcMat.Close()

	dstMat := gocv.NewMat()
	defer dstMat.Close()

	gocv.Resize(srcMat, &dstMat, image.Pt(dst.Width, dst.Height), 0, 0, cvInterpolation(interp))
	copy(dst.Data, dstMat.ToBytes())
	return nil
}

// GaussianBlur smooths img in place. Kernel size follows sigma*6 rounded odd,
// the same rule the C boundary used.
func (cvProcessor) GaussianBlur(img View, sigma float64) error {
	if err := img.Check(); err != nil {
		return err
	}
	if sigma <= 0 {
		return nil
	}

	mat, err := gocv.NewMatFromBytes(img.Height, img.Width, matType(img.Channels), img.Data)
	if err != nil {
		return fmt.Errorf("wrap mat: %w", err)
	}
	defer mat.Close()

	ksize := int(sigma*6) | 1
	gocv.GaussianBlur(mat, &mat, image.Pt(ksize, ksize), sigma, sigma, gocv.BorderDefault)
	copy(img.Data, mat.ToBytes())
	return nil
}

// ConvertColor converts src into dst.
func (cvProcessor) ConvertColor(src, dst View, conv Conversion) error {
	if err := checkSameShape(src, dst); err != nil {
		return err
	}
	if conv != ConvertBGRToRGB || src.Channels < 3 {
		return ErrUnsupported
	}

	srcMat, err := gocv.NewMatFromBytes(src.Height, src.Width, matType(src.Channels), src.Data)
	if err != nil {
		return fmt.Errorf("wrap source mat: %w", err)
	}
	defer srcMat.Close()

	dstMat := gocv.NewMat()
	defer dstMat.Close()

	code := gocv.ColorBGRToRGB
	if src.Channels == 4 {
		code = gocv.ColorBGRAToRGBA
	}
	gocv.CvtColor(srcMat, &dstMat, code)
	copy(dst.Data, dstMat.ToBytes())
	return nil
}

// MirrorHorizontal flips src into dst around the vertical axis.
func (cvProcessor) MirrorHorizontal(src, dst View) error {
	if err := checkSameShape(src, dst); err != nil {
		return err
	}

	srcMat, err := gocv.NewMatFromBytes(src.Height, src.Width, matType(src.Channels), src.Data)
	if err != nil {
		return fmt.Errorf("wrap source mat: %w", err)
	}
	defer srcMat.Close()

	dstMat := gocv.NewMat()
	defer dstMat.Close()

	gocv.Flip(srcMat, &dstMat, 1)
	copy(dst.Data, dstMat.ToBytes())
	return nil
}
