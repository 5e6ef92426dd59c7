// Package imaging turns source photos into fixed-size stills ready for the
// encoder: decode, apply EXIF orientation, scale to cover and center-crop.
package imaging

import (
	"bytes"
	"fmt"
	"image"
	_ "image/gif"  // register GIF decoder (first frame only)
	_ "image/jpeg" // register JPEG decoder
	"image/png"
	"os"
	"path/filepath"

	_ "golang.org/x/image/bmp"  // register BMP decoder
	_ "golang.org/x/image/tiff" // register TIFF decoder
	_ "golang.org/x/image/webp" // register WebP decoder
)

// MaxPixels bounds the size of a source image. Larger files are rejected
// from their header, before any pixel memory is allocated.
const MaxPixels = 128 << 20

// Decode reads an image file and returns it upright. The file is read
// once and closed before returning.
func Decode(path string) (image.Image, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read image: %w", err)
	}

	cfg, _, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("failed to decode image: %w", err)
	}
	if cfg.Width <= 0 || cfg.Height <= 0 {
		return nil, fmt.Errorf("image has invalid size %dx%d", cfg.Width, cfg.Height)
	}
	if int64(cfg.Width)*int64(cfg.Height) > MaxPixels {
		return nil, fmt.Errorf("image too large: %dx%d exceeds %d megapixels", cfg.Width, cfg.Height, MaxPixels>>20)
	}

	img, format, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("failed to decode image: %w", err)
	}

	b := img.Bounds()
	if b.Dx() <= 0 || b.Dy() <= 0 {
		return nil, fmt.Errorf("image has invalid size %dx%d", b.Dx(), b.Dy())
	}

	// Only JPEG and TIFF carry EXIF orientation in practice
	if format == "jpeg" || format == "tiff" {
		img = Orient(img, Orientation(bytes.NewReader(data)))
	}

	return img, nil
}

// PrepareStill decodes src, fits it to width x height and writes the result
// as PNG to dst.
func PrepareStill(src, dst string, width, height int) error {
	img, err := Decode(src)
	if err != nil {
		return err
	}

	return WritePNG(dst, Cover(img, width, height))
}

// WritePNG encodes img to path, creating parent directories as needed.
func WritePNG(path string, img image.Image) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create directory: %w", err)
	}

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", path, err)
	}

	enc := png.Encoder{CompressionLevel: png.BestSpeed}
	if err := enc.Encode(f, img); err != nil {
		f.Close()
		return fmt.Errorf("failed to encode %s: %w", path, err)
	}

	return f.Close()
}
