//go:build !opencv

package imaging

// nativeProcessor is the pure-Go fallback used when the OpenCV build tag is
// off. Nearest and bilinear resizes are implemented directly; the fancier
// filters degrade to bilinear.
type nativeProcessor struct{}

// Default returns the processor for this build.
func Default() Processor {
	return nativeProcessor{}
}

// Name identifies the implementation.
func (nativeProcessor) Name() string { return "native" }

// Resize scales src into dst.
func (nativeProcessor) Resize(src, dst View, interp Interpolation) error {
	if err := checkPair(src, dst); err != nil {
		return err
	}

	if src.Width == dst.Width && src.Height == dst.Height {
		copy(dst.Data, src.Data)
		return nil
	}

	switch interp {
	case InterpNearest:
		resizeNearest(src, dst)
	default:
		resizeBilinear(src, dst)
	}
	return nil
}

func resizeNearest(src, dst View) {
	ch := src.Channels
	for y := 0; y < dst.Height; y++ {
		sy := y * src.Height / dst.Height
		srcRow := sy * src.Width * ch
		dstRow := y * dst.Width * ch
		for x := 0; x < dst.Width; x++ {
			sx := x * src.Width / dst.Width
			copy(dst.Data[dstRow+x*ch:dstRow+(x+1)*ch], src.Data[srcRow+sx*ch:srcRow+(sx+1)*ch])
		}
	}
}

func resizeBilinear(src, dst View) {
	ch := src.Channels
	xRatio := float64(src.Width) / float64(dst.Width)
	yRatio := float64(src.Height) / float64(dst.Height)

	for y := 0; y < dst.Height; y++ {
		py := float64(y) * yRatio
		y1 := clampInt(int(py), 0, src.Height-1)
		y2 := clampInt(y1+1, 0, src.Height-1)
		fy := py - float64(y1)

		for x := 0; x < dst.Width; x++ {
			px := float64(x) * xRatio
			x1 := clampInt(int(px), 0, src.Width-1)
			x2 := clampInt(x1+1, 0, src.Width-1)
			fx := px - float64(x1)

			for c := 0; c < ch; c++ {
				v := (1-fx)*(1-fy)*float64(src.Data[(y1*src.Width+x1)*ch+c]) +
					fx*(1-fy)*float64(src.Data[(y1*src.Width+x2)*ch+c]) +
					(1-fx)*fy*float64(src.Data[(y2*src.Width+x1)*ch+c]) +
					fx*fy*float64(src.Data[(y2*src.Width+x2)*ch+c])
				dst.Data[(y*dst.Width+x)*ch+c] = byte(v)
			}
		}
	}
}

// GaussianBlur applies a single 3x3 smoothing pass. The kernel approximates a
// small-sigma Gaussian; sigma <= 0 is a no-op.
func (nativeProcessor) GaussianBlur(img View, sigma float64) error {
	if err := img.Check(); err != nil {
		return err
	}
	if sigma <= 0 || img.Width < 3 || img.Height < 3 {
		return nil
	}

	// 1 2 1 / 2 4 2 / 1 2 1 kernel, normalized by 16.
	ch := img.Channels
	w, h := img.Width, img.Height
	tmp := make([]byte, len(img.Data))
	copy(tmp, img.Data)

	for y := 1; y < h-1; y++ {
		for x := 1; x < w-1; x++ {
			for c := 0; c < ch; c++ {
				at := func(dx, dy int) int {
					return int(tmp[((y+dy)*w+(x+dx))*ch+c])
				}
				sum := at(-1, -1) + 2*at(0, -1) + at(1, -1) +
					2*at(-1, 0) + 4*at(0, 0) + 2*at(1, 0) +
					at(-1, 1) + 2*at(0, 1) + at(1, 1)
				img.Data[(y*w+x)*ch+c] = byte(sum / 16)
			}
		}
	}
	return nil
}

// ConvertColor converts src into dst.
func (nativeProcessor) ConvertColor(src, dst View, conv Conversion) error {
	if err := checkSameShape(src, dst); err != nil {
		return err
	}
	if conv != ConvertBGRToRGB {
		return ErrUnsupported
	}

	ch := src.Channels
	if ch < 3 {
		copy(dst.Data, src.Data)
		return nil
	}

	for i := 0; i < len(src.Data); i += ch {
		dst.Data[i] = src.Data[i+2]
		dst.Data[i+1] = src.Data[i+1]
		dst.Data[i+2] = src.Data[i]
		if ch == 4 {
			dst.Data[i+3] = src.Data[i+3]
		}
	}
	return nil
}

// MirrorHorizontal flips src into dst around the vertical axis.
func (nativeProcessor) MirrorHorizontal(src, dst View) error {
	if err := checkSameShape(src, dst); err != nil {
		return err
	}

	ch := src.Channels
	w := src.Width
	for y := 0; y < src.Height; y++ {
		row := y * w * ch
		for x := 0; x < w; x++ {
			copy(dst.Data[row+(w-1-x)*ch:row+(w-x)*ch], src.Data[row+x*ch:row+(x+1)*ch])
		}
	}
	return nil
}

func clampInt(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
