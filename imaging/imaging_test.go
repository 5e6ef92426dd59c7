package imaging

import (
	"bytes"
	"encoding/binary"
	"hash/crc32"
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"golang.org/x/image/bmp"
)

var red = color.RGBA{R: 255, A: 255}

func solid(w, h int, c color.RGBA) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.SetRGBA(x, y, c)
		}
	}
	return img
}

func writePNG(t *testing.T, path string, img image.Image) {
	t.Helper()
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatalf("png encode: %v", err)
	}
	if err := os.WriteFile(path, buf.Bytes(), 0644); err != nil {
		t.Fatalf("write: %v", err)
	}
}

func TestCropRect(t *testing.T) {
	tests := []struct {
		name             string
		srcW, srcH, w, h int
		want             image.Rectangle
	}{
		{"wide source", 4000, 1000, 1920, 1080, image.Rect(1111, 0, 2889, 1000)},
		{"tall source", 1000, 4000, 100, 50, image.Rect(0, 1750, 1000, 2250)},
		{"same ratio", 3840, 2160, 1920, 1080, image.Rect(0, 0, 3840, 2160)},
		{"square to square", 500, 500, 100, 100, image.Rect(0, 0, 500, 500)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := CropRect(tt.srcW, tt.srcH, tt.w, tt.h)
			if got != tt.want {
				t.Errorf("CropRect() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestCover_OutputSize(t *testing.T) {
	sources := []image.Image{
		solid(400, 100, red),
		solid(100, 400, red),
		solid(64, 36, red),
		solid(7, 3, red),
	}

	for _, src := range sources {
		out := Cover(src, 64, 36)
		if out.Bounds().Dx() != 64 || out.Bounds().Dy() != 36 {
			t.Errorf("Cover(%v) produced %v, want 64x36", src.Bounds().Size(), out.Bounds().Size())
		}
	}
}

func TestCover_CropsInsteadOfLetterboxing(t *testing.T) {
	// Black bars left and right, white centre square. Covering a square
	// frame must keep only the white centre.
	src := solid(300, 100, color.RGBA{A: 255})
	for y := 0; y < 100; y++ {
		for x := 100; x < 200; x++ {
			src.SetRGBA(x, y, color.RGBA{R: 255, G: 255, B: 255, A: 255})
		}
	}

	out := Cover(src, 50, 50)
	for _, p := range []image.Point{{0, 0}, {49, 0}, {0, 49}, {49, 49}, {25, 25}} {
		r, g, b, _ := out.At(p.X, p.Y).RGBA()
		if r>>8 < 200 || g>>8 < 200 || b>>8 < 200 {
			t.Errorf("pixel %v is not white (%d,%d,%d): output was letterboxed", p, r>>8, g>>8, b>>8)
		}
	}
}

func TestOrient(t *testing.T) {
	tests := []struct {
		orientation int
		size        image.Point
		marker      image.Point
	}{
		{1, image.Pt(3, 2), image.Pt(0, 0)},
		{2, image.Pt(3, 2), image.Pt(2, 0)},
		{3, image.Pt(3, 2), image.Pt(2, 1)},
		{4, image.Pt(3, 2), image.Pt(0, 1)},
		{5, image.Pt(2, 3), image.Pt(0, 0)},
		{6, image.Pt(2, 3), image.Pt(1, 0)},
		{7, image.Pt(2, 3), image.Pt(1, 2)},
		{8, image.Pt(2, 3), image.Pt(0, 2)},
	}

	for _, tt := range tests {
		src := solid(3, 2, color.RGBA{B: 255, A: 255})
		src.SetRGBA(0, 0, red)

		out := Orient(src, tt.orientation)
		if out.Bounds().Size() != tt.size {
			t.Errorf("orientation %d: size %v, want %v", tt.orientation, out.Bounds().Size(), tt.size)
			continue
		}
		if got := color.RGBAModel.Convert(out.At(tt.marker.X, tt.marker.Y)).(color.RGBA); got != red {
			t.Errorf("orientation %d: marker not at %v (found %v)", tt.orientation, tt.marker, got)
		}
	}
}

func TestOrientation_NoExif(t *testing.T) {
	var buf bytes.Buffer
	if err := png.Encode(&buf, solid(2, 2, red)); err != nil {
		t.Fatal(err)
	}
	if got := Orientation(bytes.NewReader(buf.Bytes())); got != 1 {
		t.Errorf("Orientation() = %d, want 1 for data without EXIF", got)
	}
}

func TestDecode_Formats(t *testing.T) {
	dir := t.TempDir()

	pngPath := filepath.Join(dir, "a.png")
	writePNG(t, pngPath, solid(8, 6, red))

	bmpPath := filepath.Join(dir, "b.bmp")
	var buf bytes.Buffer
	if err := bmp.Encode(&buf, solid(5, 9, red)); err != nil {
		t.Fatalf("bmp encode: %v", err)
	}
	if err := os.WriteFile(bmpPath, buf.Bytes(), 0644); err != nil {
		t.Fatal(err)
	}

	for path, size := range map[string]image.Point{pngPath: {8, 6}, bmpPath: {5, 9}} {
		img, err := Decode(path)
		if err != nil {
			t.Errorf("Decode(%s): %v", filepath.Base(path), err)
			continue
		}
		if img.Bounds().Size() != size {
			t.Errorf("Decode(%s) size %v, want %v", filepath.Base(path), img.Bounds().Size(), size)
		}
	}
}

func TestDecode_Errors(t *testing.T) {
	dir := t.TempDir()
	corrupt := filepath.Join(dir, "corrupt.jpg")
	if err := os.WriteFile(corrupt, []byte("this is not a jpeg"), 0644); err != nil {
		t.Fatal(err)
	}

	if _, err := Decode(corrupt); err == nil || !strings.Contains(err.Error(), "failed to decode image") {
		t.Errorf("Expected decode error, got %v", err)
	}
	if _, err := Decode(filepath.Join(dir, "missing.png")); err == nil || !strings.Contains(err.Error(), "failed to read image") {
		t.Errorf("Expected read error, got %v", err)
	}
}

// pngHeader returns a PNG signature and IHDR chunk claiming w x h RGB
// pixels with no image data behind it.
func pngHeader(w, h uint32) []byte {
	ihdr := make([]byte, 13)
	binary.BigEndian.PutUint32(ihdr[0:4], w)
	binary.BigEndian.PutUint32(ihdr[4:8], h)
	ihdr[8] = 8 // bit depth
	ihdr[9] = 2 // truecolor

	var buf bytes.Buffer
	buf.WriteString("\x89PNG\r\n\x1a\n")
	binary.Write(&buf, binary.BigEndian, uint32(len(ihdr)))
	chunk := append([]byte("IHDR"), ihdr...)
	buf.Write(chunk)
	binary.Write(&buf, binary.BigEndian, crc32.ChecksumIEEE(chunk))
	return buf.Bytes()
}

func TestDecode_RejectsOversizedImage(t *testing.T) {
	path := filepath.Join(t.TempDir(), "huge.png")
	if err := os.WriteFile(path, pngHeader(20000, 20000), 0644); err != nil {
		t.Fatal(err)
	}

	_, err := Decode(path)
	if err == nil || !strings.Contains(err.Error(), "image too large") {
		t.Errorf("Expected size error, got %v", err)
	}

	if err := PrepareStill(path, filepath.Join(t.TempDir(), "out.png"), 64, 36); err == nil {
		t.Error("Expected PrepareStill to refuse an oversized image")
	}
}

func TestPrepareStill(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "photo.png")
	writePNG(t, src, solid(120, 80, red))

	dst := filepath.Join(dir, "work", "frame_000.png")
	if err := PrepareStill(src, dst, 64, 36); err != nil {
		t.Fatalf("PrepareStill: %v", err)
	}

	f, err := os.Open(dst)
	if err != nil {
		t.Fatalf("output not written: %v", err)
	}
	defer f.Close()

	cfg, err := png.DecodeConfig(f)
	if err != nil {
		t.Fatalf("output is not a PNG: %v", err)
	}
	if cfg.Width != 64 || cfg.Height != 36 {
		t.Errorf("output size %dx%d, want 64x36", cfg.Width, cfg.Height)
	}
}
