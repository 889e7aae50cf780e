//go:build !opencv

package imaging

import (
	"bytes"
	"errors"
	"testing"
)

func solidView(w, h, ch int, value byte) View {
	data := make([]byte, w*h*ch)
	for i := range data {
		data[i] = value
	}
	return View{Data: data, Width: w, Height: h, Channels: ch}
}

func TestViewCheck(t *testing.T) {
	cases := []struct {
		name    string
		view    View
		wantErr bool
	}{
		{"valid", solidView(4, 4, 3, 0), false},
		{"zero width", View{Data: []byte{}, Width: 0, Height: 4, Channels: 3}, true},
		{"short buffer", View{Data: make([]byte, 10), Width: 4, Height: 4, Channels: 3}, true},
		{"too many channels", View{Data: make([]byte, 4*4*5), Width: 4, Height: 4, Channels: 5}, true},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			err := tc.view.Check()
			if tc.wantErr && !errors.Is(err, ErrInvalidView) {
				t.Errorf("Check() = %v, want ErrInvalidView", err)
			}
			if !tc.wantErr && err != nil {
				t.Errorf("Check() = %v, want nil", err)
			}
		})
	}
}

func TestResizeNearestDownscale(t *testing.T) {
	p := Default()

	// 4x4 single-channel gradient rows
	src := View{Width: 4, Height: 4, Channels: 1, Data: []byte{
		10, 10, 20, 20,
		10, 10, 20, 20,
		30, 30, 40, 40,
		30, 30, 40, 40,
	}}
	dst := solidView(2, 2, 1, 0)

	if err := p.Resize(src, dst, InterpNearest); err != nil {
		t.Fatalf("Resize failed: %v", err)
	}

	want := []byte{10, 20, 30, 40}
	if !bytes.Equal(dst.Data, want) {
		t.Errorf("Resize result = %v, want %v", dst.Data, want)
	}
}

func TestResizeBilinearUniform(t *testing.T) {
	p := Default()

	src := solidView(8, 8, 3, 100)
	dst := solidView(16, 12, 3, 0)

	if err := p.Resize(src, dst, InterpBilinear); err != nil {
		t.Fatalf("Resize failed: %v", err)
	}

	// A uniform image stays uniform under any sane interpolation.
	for i, b := range dst.Data {
		if b != 100 {
			t.Fatalf("dst.Data[%d] = %d, want 100", i, b)
		}
	}
}

func TestResizeSameShapeCopies(t *testing.T) {
	p := Default()

	src := solidView(4, 4, 3, 7)
	dst := solidView(4, 4, 3, 0)

	if err := p.Resize(src, dst, InterpBilinear); err != nil {
		t.Fatalf("Resize failed: %v", err)
	}
	if !bytes.Equal(dst.Data, src.Data) {
		t.Error("same-shape resize should copy pixels unchanged")
	}
}

func TestResizeChannelMismatch(t *testing.T) {
	p := Default()
	err := p.Resize(solidView(4, 4, 3, 0), solidView(2, 2, 1, 0), InterpNearest)
	if !errors.Is(err, ErrInvalidView) {
		t.Errorf("Resize = %v, want ErrInvalidView", err)
	}
}

func TestGaussianBlurSmooths(t *testing.T) {
	p := Default()

	// Single bright pixel in the middle of a dark 5x5 image.
	img := solidView(5, 5, 1, 0)
	img.Data[2*5+2] = 160

	if err := p.GaussianBlur(img, 0.5); err != nil {
		t.Fatalf("GaussianBlur failed: %v", err)
	}

	center := img.Data[2*5+2]
	if center >= 160 {
		t.Errorf("center = %d, want < 160 after blur", center)
	}
	if neighbor := img.Data[2*5+1]; neighbor == 0 {
		t.Error("neighbor still 0, expected energy spread")
	}
}

func TestGaussianBlurZeroSigmaNoop(t *testing.T) {
	p := Default()

	img := solidView(5, 5, 1, 0)
	img.Data[12] = 200
	before := append([]byte(nil), img.Data...)

	if err := p.GaussianBlur(img, 0); err != nil {
		t.Fatalf("GaussianBlur failed: %v", err)
	}
	if !bytes.Equal(img.Data, before) {
		t.Error("sigma 0 must not modify pixels")
	}
}

func TestConvertColorSwapsChannels(t *testing.T) {
	p := Default()

	src := View{Width: 1, Height: 1, Channels: 3, Data: []byte{1, 2, 3}}
	dst := solidView(1, 1, 3, 0)

	if err := p.ConvertColor(src, dst, ConvertBGRToRGB); err != nil {
		t.Fatalf("ConvertColor failed: %v", err)
	}

	want := []byte{3, 2, 1}
	if !bytes.Equal(dst.Data, want) {
		t.Errorf("ConvertColor = %v, want %v", dst.Data, want)
	}
}

func TestMirrorHorizontal(t *testing.T) {
	p := Default()

	src := View{Width: 3, Height: 1, Channels: 1, Data: []byte{1, 2, 3}}
	dst := solidView(3, 1, 1, 0)

	if err := p.MirrorHorizontal(src, dst); err != nil {
		t.Fatalf("MirrorHorizontal failed: %v", err)
	}

	want := []byte{3, 2, 1}
	if !bytes.Equal(dst.Data, want) {
		t.Errorf("MirrorHorizontal = %v, want %v", dst.Data, want)
	}
}
