package imaging

import (
	"image"
	"image/draw"
	"io"

	"github.com/rwcarlsen/goexif/exif"
)

// Orientation reads the EXIF orientation tag (1-8). Missing or unreadable
// metadata yields 1, meaning no change.
func Orientation(r io.Reader) int {
	x, err := exif.Decode(r)
	if err != nil {
		return 1
	}

	tag, err := x.Get(exif.Orientation)
	if err != nil {
		return 1
	}

	v, err := tag.Int(0)
	if err != nil || v < 1 || v > 8 {
		return 1
	}
	return v
}

// Orient applies an EXIF orientation so the image is displayed upright.
//
//	1 as stored            5 transpose
//	2 flip horizontal      6 rotate 90 clockwise
//	3 rotate 180           7 transverse
//	4 flip vertical        8 rotate 90 counter-clockwise
func Orient(img image.Image, orientation int) image.Image {
	if orientation <= 1 || orientation > 8 {
		return img
	}

	src := toRGBA(img)
	sw, sh := src.Rect.Dx(), src.Rect.Dy()

	switch orientation {
	case 2:
		return remap(src, sw, sh, func(x, y int) (int, int) { return sw - 1 - x, y })
	case 3:
		return remap(src, sw, sh, func(x, y int) (int, int) { return sw - 1 - x, sh - 1 - y })
	case 4:
		return remap(src, sw, sh, func(x, y int) (int, int) { return x, sh - 1 - y })
	case 5:
		return remap(src, sh, sw, func(x, y int) (int, int) { return y, x })
	case 6:
		return remap(src, sh, sw, func(x, y int) (int, int) { return y, sh - 1 - x })
	case 7:
		return remap(src, sh, sw, func(x, y int) (int, int) { return sw - 1 - y, sh - 1 - x })
	default: // 8
		return remap(src, sh, sw, func(x, y int) (int, int) { return sw - 1 - y, x })
	}
}

// remap builds a dw x dh image whose pixel (x, y) is src pixel from(x, y).
func remap(src *image.RGBA, dw, dh int, from func(x, y int) (int, int)) *image.RGBA {
	dst := image.NewRGBA(image.Rect(0, 0, dw, dh))
	for y := 0; y < dh; y++ {
		for x := 0; x < dw; x++ {
			sx, sy := from(x, y)
			si := src.PixOffset(sx, sy)
			di := dst.PixOffset(x, y)
			copy(dst.Pix[di:di+4], src.Pix[si:si+4])
		}
	}
	return dst
}

// toRGBA returns img as a zero-origin *image.RGBA.
func toRGBA(img image.Image) *image.RGBA {
	if rgba, ok := img.(*image.RGBA); ok && rgba.Rect.Min == (image.Point{}) {
		return rgba
	}
	b := img.Bounds()
	dst := image.NewRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
	draw.Draw(dst, dst.Bounds(), img, b.Min, draw.Src)
	return dst
}
