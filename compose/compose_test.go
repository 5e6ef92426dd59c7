package compose

import (
	"bytes"
	"context"
	"encoding/binary"
	"errors"
	"hash/crc32"
	"image"
	"image/color"
	"image/png"
	"math"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"sly/ffprobe"
	"sly/models"
	"sly/timing"
)

func writeTestPNG(t *testing.T, path string, w, h int) {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.Set(x, y, color.RGBA{R: uint8(x), G: uint8(y), B: 128, A: 255})
		}
	}
	f, err := os.Create(path)
	if err != nil {
		t.Fatalf("Failed to create %s: %v", path, err)
	}
	defer f.Close()
	if err := png.Encode(f, img); err != nil {
		t.Fatalf("Failed to encode %s: %v", path, err)
	}
}

func item(t *testing.T, path string, kind models.MediaKind) *models.MediaItem {
	t.Helper()
	it, err := models.NewMediaItem(path, kind, time.Now())
	if err != nil {
		t.Fatalf("NewMediaItem failed: %v", err)
	}
	return it
}

func newTestComposer(t *testing.T, src string, opts Options) *Composer {
	t.Helper()
	opts.SourceDir = src
	if opts.WorkDir == "" {
		opts.WorkDir = filepath.Join(t.TempDir(), "work")
	}
	if opts.Width == 0 {
		opts.Width, opts.Height = 64, 36
	}
	c, err := NewComposer(opts)
	if err != nil {
		t.Fatalf("NewComposer failed: %v", err)
	}
	return c
}

// writeHugePNG writes a 1x1 PNG whose header claims w x h pixels.
func writeHugePNG(t *testing.T, path string, w, h uint32) {
	t.Helper()
	var buf bytes.Buffer
	if err := png.Encode(&buf, image.NewRGBA(image.Rect(0, 0, 1, 1))); err != nil {
		t.Fatal(err)
	}
	data := buf.Bytes()
	// IHDR: length at 8, type at 12, width/height at 16 and 20, CRC at 29
	binary.BigEndian.PutUint32(data[16:20], w)
	binary.BigEndian.PutUint32(data[20:24], h)
	binary.BigEndian.PutUint32(data[29:33], crc32.ChecksumIEEE(data[12:29]))
	if err := os.WriteFile(path, data, 0644); err != nil {
		t.Fatal(err)
	}
}

func TestPrepare_SkipsOversizedImage(t *testing.T) {
	src := t.TempDir()
	small := filepath.Join(src, "a.png")
	huge := filepath.Join(src, "b.png")
	writeTestPNG(t, small, 80, 60)
	writeHugePNG(t, huge, 30000, 30000)

	resolved := []timing.Resolved{
		{Item: item(t, small, models.KindImage), Duration: 3},
		{Item: item(t, huge, models.KindImage), Duration: 3},
	}

	res, err := newTestComposer(t, src, Options{}).Prepare(context.Background(), resolved)
	if err != nil {
		t.Fatalf("Prepare failed: %v", err)
	}
	if len(res.Clips) != 1 {
		t.Errorf("Expected 1 clip, got %d", len(res.Clips))
	}
	if len(res.Warnings) != 1 || filepath.Base(res.Warnings[0].Path) != "b.png" {
		t.Fatalf("Expected one warning for b.png, got %v", res.Warnings)
	}
	if !strings.Contains(res.Warnings[0].Error(), "image too large") {
		t.Errorf("Expected a size warning, got %v", res.Warnings[0])
	}
}

func TestPrepare_SkipsCorruptItem(t *testing.T) {
	src := t.TempDir()

	var resolved []timing.Resolved
	for _, name := range []string{"a.png", "b.png", "c.jpg", "d.png", "e.png"} {
		path := filepath.Join(src, name)
		if name == "c.jpg" {
			if err := os.WriteFile(path, []byte("not really a jpeg"), 0644); err != nil {
				t.Fatal(err)
			}
		} else {
			writeTestPNG(t, path, 80, 60)
		}
		resolved = append(resolved, timing.Resolved{Item: item(t, path, models.KindImage), Duration: 3})
	}

	c := newTestComposer(t, src, Options{})
	res, err := c.Prepare(context.Background(), resolved)
	if err != nil {
		t.Fatalf("Prepare failed: %v", err)
	}

	if len(res.Clips) != 4 {
		t.Errorf("Expected 4 clips, got %d", len(res.Clips))
	}
	if len(res.Warnings) != 1 {
		t.Fatalf("Expected 1 warning, got %d", len(res.Warnings))
	}
	if filepath.Base(res.Warnings[0].Path) != "c.jpg" {
		t.Errorf("Expected warning for c.jpg, got %s", res.Warnings[0].Path)
	}
	if res.Skipped() != 1 {
		t.Errorf("Expected 1 skipped item, got %d", res.Skipped())
	}

	for i, clip := range res.Clips {
		if clip.Index != i {
			t.Errorf("Expected clip index %d, got %d", i, clip.Index)
		}
		if clip.Origin == nil {
			t.Errorf("Clip %d has no origin", i)
		}
		f, err := os.Open(clip.SourcePath)
		if err != nil {
			t.Fatalf("Prepared still missing: %v", err)
		}
		cfg, err := png.DecodeConfig(f)
		f.Close()
		if err != nil {
			t.Fatalf("Prepared still is not a PNG: %v", err)
		}
		if cfg.Width != 64 || cfg.Height != 36 {
			t.Errorf("Expected 64x36 still, got %dx%d", cfg.Width, cfg.Height)
		}
	}
}

func TestPrepare_Videos(t *testing.T) {
	src := t.TempDir()
	withVideo := &ffprobe.ProbeResult{Streams: []ffprobe.Stream{{CodecType: "video"}, {CodecType: "audio"}}}
	audioOnly := &ffprobe.ProbeResult{Streams: []ffprobe.Stream{{CodecType: "audio"}}}

	fallback := &models.DecodeWarning{Path: filepath.Join(src, "b.mp4"), Err: errors.New("length unknown")}

	resolved := []timing.Resolved{
		{Item: item(t, filepath.Join(src, "a.mp4"), models.KindVideo), Duration: 9, Probe: withVideo},
		{Item: item(t, filepath.Join(src, "b.mp4"), models.KindVideo), Duration: 3, Probe: withVideo, Fallback: fallback},
		{Item: item(t, filepath.Join(src, "c.mp4"), models.KindVideo), Duration: 3, ProbeErr: errors.New("invalid data")},
		{Item: item(t, filepath.Join(src, "d.mp4"), models.KindVideo), Duration: 3, Probe: audioOnly},
	}

	c := newTestComposer(t, src, Options{})
	res, err := c.Prepare(context.Background(), resolved)
	if err != nil {
		t.Fatalf("Prepare failed: %v", err)
	}

	if len(res.Clips) != 2 {
		t.Fatalf("Expected 2 clips, got %d", len(res.Clips))
	}
	if res.Clips[0].SourcePath != resolved[0].Item.Path {
		t.Errorf("Expected video clip to use the original file, got %s", res.Clips[0].SourcePath)
	}
	if res.Clips[0].Duration != 9 {
		t.Errorf("Expected duration 9, got %f", res.Clips[0].Duration)
	}
	if res.Clips[0].Kind != models.KindVideo {
		t.Errorf("Expected video kind, got %s", res.Clips[0].Kind)
	}

	// fallback notice for b, skips for c and d
	if len(res.Warnings) != 3 {
		t.Errorf("Expected 3 warnings, got %d", len(res.Warnings))
	}
	if res.Skipped() != 2 {
		t.Errorf("Expected 2 skipped items, got %d", res.Skipped())
	}
}

func TestPrepare_NothingUsable(t *testing.T) {
	src := t.TempDir()
	path := filepath.Join(src, "broken.png")
	if err := os.WriteFile(path, []byte{0x89, 'P', 'N', 'G'}, 0644); err != nil {
		t.Fatal(err)
	}

	c := newTestComposer(t, src, Options{})
	_, err := c.Prepare(context.Background(), []timing.Resolved{{Item: item(t, path, models.KindImage), Duration: 3}})

	var derr *models.DiscoveryError
	if !errors.As(err, &derr) {
		t.Fatalf("Expected DiscoveryError, got %v", err)
	}
	if derr.Path != src {
		t.Errorf("Expected path %s, got %s", src, derr.Path)
	}
}

func TestPrepare_TitleOnly(t *testing.T) {
	c := newTestComposer(t, t.TempDir(), Options{Title: "Holiday", TitleDuration: 2})

	res, err := c.Prepare(context.Background(), nil)
	if err != nil {
		t.Fatalf("Prepare failed: %v", err)
	}
	if res.Title == nil {
		t.Fatal("Expected a title clip")
	}
	if res.Title.Kind != models.KindTitle {
		t.Errorf("Expected title kind, got %s", res.Title.Kind)
	}
	if res.Title.Duration != 2 {
		t.Errorf("Expected title duration 2, got %f", res.Title.Duration)
	}
	if _, err := os.Stat(res.Title.SourcePath); err != nil {
		t.Errorf("Title still not written: %v", err)
	}
}

func TestPrepare_Cancelled(t *testing.T) {
	src := t.TempDir()
	path := filepath.Join(src, "a.png")
	writeTestPNG(t, path, 10, 10)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	c := newTestComposer(t, src, Options{})
	_, err := c.Prepare(ctx, []timing.Resolved{{Item: item(t, path, models.KindImage), Duration: 3}})
	if !errors.Is(err, context.Canceled) {
		t.Errorf("Expected context.Canceled, got %v", err)
	}
}

func TestNewComposer_Invalid(t *testing.T) {
	tests := []struct {
		name string
		opts Options
	}{
		{"zero size", Options{WorkDir: "w"}},
		{"no workdir", Options{Width: 10, Height: 10}},
		{"title without duration", Options{WorkDir: "w", Width: 10, Height: 10, Title: "x"}},
		{"title with NaN duration", Options{WorkDir: "w", Width: 10, Height: 10, Title: "x", TitleDuration: math.NaN()}},
		{"title with infinite duration", Options{WorkDir: "w", Width: 10, Height: 10, Title: "x", TitleDuration: math.Inf(1)}},
		{"blank title", Options{WorkDir: "w", Width: 10, Height: 10, Title: " \n ", TitleDuration: 3}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewComposer(tt.opts)
			var cerr *models.ConfigError
			if !errors.As(err, &cerr) {
				t.Errorf("Expected ConfigError, got %v", err)
			}
		})
	}
}
