package grayscan

import (
	"fmt"
	"image"
)

// GrayImage is a non-owning view of a row-major grayscale buffer, one
// byte per pixel. The pixel at (x, y) is Pix[y*Width+x]. The view keeps
// a reference to the caller's buffer and never copies or mutates it; its
// lifetime is bound to that buffer.
type GrayImage struct {
	Pix    []byte
	Width  int
	Height int
}

// NewGrayImage wraps an existing buffer. It returns ErrInvalidInput when
// the dimensions are non-positive or len(pix) != width*height.
func NewGrayImage(pix []byte, width, height int) (GrayImage, error) {
	if width <= 0 || height <= 0 {
		return GrayImage{}, fmt.Errorf("%w: dimensions %dx%d", ErrInvalidInput, width, height)
	}
	if len(pix) != width*height {
		return GrayImage{}, fmt.Errorf("%w: buffer length %d, want %d*%d=%d",
			ErrInvalidInput, len(pix), width, height, width*height)
	}
	return GrayImage{Pix: pix, Width: width, Height: height}, nil
}

// Row returns the pixels of row y as a subslice of the underlying
// buffer, without copying.
func (im GrayImage) Row(y int) []byte {
	start := y * im.Width
	return im.Pix[start : start+im.Width]
}

// At returns the pixel at (x, y).
func (im GrayImage) At(x, y int) byte {
	return im.Pix[y*im.Width+x]
}

func (im GrayImage) valid() bool {
	return im.Width > 0 && im.Height > 0 && len(im.Pix) == im.Width*im.Height
}

// FromGray wraps a *image.Gray. When the stride matches the width the
// pixel data is referenced directly; otherwise rows are repacked into a
// fresh buffer.
func FromGray(img *image.Gray) GrayImage {
	bounds := img.Bounds()
	w := bounds.Dx()
	h := bounds.Dy()

	if img.Stride == w && bounds.Min.X == 0 && bounds.Min.Y == 0 {
		return GrayImage{Pix: img.Pix[:w*h], Width: w, Height: h}
	}

	pix := make([]byte, w*h)
	for y := 0; y < h; y++ {
		srcOff := (bounds.Min.Y+y)*img.Stride + bounds.Min.X
		copy(pix[y*w:], img.Pix[srcOff:srcOff+w])
	}
	return GrayImage{Pix: pix, Width: w, Height: h}
}

// FromImage converts any image.Image to a GrayImage, computing luminance
// as (306*R + 601*G + 117*B + 0x200) >> 10 on 8-bit components. Fully
// transparent pixels are forced to white.
func FromImage(img image.Image) GrayImage {
	if g, ok := img.(*image.Gray); ok {
		return FromGray(g)
	}

	bounds := img.Bounds()
	w := bounds.Dx()
	h := bounds.Dy()
	pix := make([]byte, w*h)

	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			c := img.At(bounds.Min.X+x, bounds.Min.Y+y)
			r, g, b, a := c.RGBA()
			if a == 0 {
				pix[y*w+x] = 0xFF
				continue
			}
			r8 := r >> 8
			g8 := g >> 8
			b8 := b >> 8
			pix[y*w+x] = byte((306*r8 + 601*g8 + 117*b8 + 0x200) >> 10)
		}
	}
	return GrayImage{Pix: pix, Width: w, Height: h}
}
