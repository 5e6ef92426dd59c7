// Package title renders the optional title card shown before the first
// slide.
package title

import (
	"errors"
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"os"
	"path/filepath"
	"strings"

	"github.com/rs/zerolog"
	"golang.org/x/image/font"
	"golang.org/x/image/font/gofont/goregular"
	"golang.org/x/image/font/opentype"
	"golang.org/x/image/math/fixed"

	"sly/fonts"
	"sly/internal/logging"
)

// maxTextWidth is the share of the frame width a line may occupy before
// the font is scaled down.
const maxTextWidth = 0.9

// Options describes a title card.
type Options struct {
	Text   string
	Width  int
	Height int
	// FontSize in pixels. Zero means min(Width, Height) / 10.
	FontSize int
	// Font is a font file path or an installed font name. Empty selects
	// the built-in Go Regular face.
	Font string
}

// Renderer draws title cards. Fonts is consulted when Options.Font is a
// name rather than a file.
type Renderer struct {
	Fonts func() []fonts.Font
	log   zerolog.Logger
}

// NewRenderer returns a Renderer that looks fonts up on the system.
func NewRenderer() *Renderer {
	return &Renderer{
		Fonts: fonts.System,
		log:   logging.WithComponent("title"),
	}
}

// DefaultFontSize is the size used when none is configured.
func DefaultFontSize(width, height int) int {
	return max(1, min(width, height)/10)
}

// Render draws white, centered text on a black frame. Lines are split on
// "\n". A font that cannot be found or parsed is replaced by the built-in
// face with a warning.
func (r *Renderer) Render(opts Options) (*image.RGBA, error) {
	if opts.Width <= 0 || opts.Height <= 0 {
		return nil, fmt.Errorf("invalid title size %dx%d", opts.Width, opts.Height)
	}
	if strings.TrimSpace(opts.Text) == "" {
		return nil, errors.New("title text is empty")
	}

	size := opts.FontSize
	if size <= 0 {
		size = DefaultFontSize(opts.Width, opts.Height)
	}

	parsed, err := r.loadFont(opts.Font)
	if err != nil {
		r.log.Warn().Err(err).Str("font", opts.Font).Msg("Falling back to the built-in font")
		parsed, err = opentype.Parse(goregular.TTF)
		if err != nil {
			return nil, fmt.Errorf("failed to parse built-in font: %w", err)
		}
	}

	lines := strings.Split(strings.ReplaceAll(opts.Text, "\r\n", "\n"), "\n")

	face, err := newFace(parsed, size)
	if err != nil {
		return nil, err
	}
	defer func() { face.Close() }()

	// Shrink once so the widest line fits
	limit := fixed.I(int(float64(opts.Width) * maxTextWidth))
	if widest := widestLine(face, lines); widest > limit {
		shrunk := max(1, size*int(limit)/int(widest))
		r.log.Debug().Int("from", size).Int("to", shrunk).Msg("Shrinking title font to fit")
		face.Close()
		if face, err = newFace(parsed, shrunk); err != nil {
			return nil, err
		}
	}

	img := image.NewRGBA(image.Rect(0, 0, opts.Width, opts.Height))
	draw.Draw(img, img.Bounds(), image.NewUniform(color.Black), image.Point{}, draw.Src)

	drawCentered(img, face, lines)
	return img, nil
}

func newFace(f *opentype.Font, size int) (font.Face, error) {
	face, err := opentype.NewFace(f, &opentype.FaceOptions{
		Size:    float64(size),
		DPI:     72,
		Hinting: font.HintingFull,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create font face: %w", err)
	}
	return face, nil
}

func widestLine(face font.Face, lines []string) fixed.Int26_6 {
	var widest fixed.Int26_6
	for _, line := range lines {
		if w := font.MeasureString(face, line); w > widest {
			widest = w
		}
	}
	return widest
}

func drawCentered(img *image.RGBA, face font.Face, lines []string) {
	m := face.Metrics()
	lineHeight := m.Height
	block := lineHeight * fixed.Int26_6(len(lines))

	// Top of the text block, then the first baseline
	top := (fixed.I(img.Rect.Dy()) - block) / 2
	baseline := top + m.Ascent + (lineHeight-m.Ascent-m.Descent)/2

	d := &font.Drawer{Dst: img, Src: image.NewUniform(color.White), Face: face}
	for i, line := range lines {
		width := font.MeasureString(face, line)
		d.Dot = fixed.Point26_6{
			X: (fixed.I(img.Rect.Dx()) - width) / 2,
			Y: baseline + lineHeight*fixed.Int26_6(i),
		}
		d.DrawString(line)
	}
}

// loadFont resolves name to a parsed font. An empty name selects the
// built-in face.
func (r *Renderer) loadFont(name string) (*opentype.Font, error) {
	if name == "" {
		return opentype.Parse(goregular.TTF)
	}

	path, err := r.resolve(name)
	if err != nil {
		return nil, err
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read font: %w", err)
	}

	if strings.EqualFold(filepath.Ext(path), ".ttc") {
		coll, err := opentype.ParseCollection(data)
		if err != nil {
			return nil, fmt.Errorf("failed to parse font collection %s: %w", path, err)
		}
		return coll.Font(0)
	}

	f, err := opentype.Parse(data)
	if err != nil {
		return nil, fmt.Errorf("failed to parse font %s: %w", path, err)
	}
	return f, nil
}

// resolve turns a file path or installed font name into a file path.
func (r *Renderer) resolve(name string) (string, error) {
	if info, err := os.Stat(name); err == nil && !info.IsDir() {
		return name, nil
	}

	var installed []fonts.Font
	if r.Fonts != nil {
		installed = r.Fonts()
	}
	if f, ok := fonts.FindByName(installed, name); ok {
		return f.Path, nil
	}

	if suggestions := fonts.Suggestions(installed, name, 5); len(suggestions) > 0 {
		return "", fmt.Errorf("font %q not found, did you mean: %s", name, strings.Join(suggestions, ", "))
	}
	return "", fmt.Errorf("font %q not found", name)
}
