// Package compose prepares discovered media for the encoder and builds the
// filter graph that joins the prepared clips with transitions.
package compose

import (
	"context"
	"errors"
	"fmt"
	"math"
	"path/filepath"
	"strings"

	"github.com/rs/zerolog"

	"sly/imaging"
	"sly/internal/logging"
	"sly/models"
	"sly/timing"
	"sly/title"
)

// Options configures clip preparation.
type Options struct {
	// SourceDir is only used in error messages.
	SourceDir string
	// WorkDir receives the prepared stills.
	WorkDir string

	Width  int
	Height int

	Title         string
	Font          string
	FontSize      int
	TitleDuration float64
}

// Result is everything the composer produced for one run.
type Result struct {
	Title    *models.Clip
	Clips    []*models.Clip
	Results  []*models.ClipResult
	Warnings []*models.DecodeWarning
}

// Skipped returns how many items could not be used.
func (r *Result) Skipped() int {
	n := 0
	for _, cr := range r.Results {
		if !cr.Success {
			n++
		}
	}
	return n
}

// Composer turns resolved items into clips. Items are prepared one at a
// time on the calling goroutine.
type Composer struct {
	opts   Options
	titles *title.Renderer
	log    zerolog.Logger
}

// NewComposer validates opts and returns a composer.
func NewComposer(opts Options) (*Composer, error) {
	var problems []string
	if opts.Width <= 0 || opts.Height <= 0 {
		problems = append(problems, fmt.Sprintf("invalid slideshow size %dx%d", opts.Width, opts.Height))
	}
	if strings.TrimSpace(opts.WorkDir) == "" {
		problems = append(problems, "work directory cannot be empty")
	}
	if opts.Title != "" {
		if strings.TrimSpace(opts.Title) == "" {
			problems = append(problems, "title cannot be blank")
		}
		if !(opts.TitleDuration > 0) || math.IsInf(opts.TitleDuration, 1) {
			problems = append(problems, fmt.Sprintf("title duration must be positive, got %v", opts.TitleDuration))
		}
	}
	if len(problems) > 0 {
		return nil, &models.ConfigError{Problems: problems}
	}

	return &Composer{
		opts:   opts,
		titles: title.NewRenderer(),
		log:    logging.WithComponent("compose"),
	}, nil
}

// Prepare builds a clip for every resolved item. Items that cannot be
// decoded are skipped and reported as warnings. It fails when ctx is
// cancelled, when the title cannot be rendered, or when nothing usable
// remains.
func (c *Composer) Prepare(ctx context.Context, resolved []timing.Resolved) (*Result, error) {
	res := &Result{}

	if c.opts.Title != "" {
		clip, err := c.TitleClip()
		if err != nil {
			return nil, err
		}
		res.Title = clip
	}

	for i, r := range resolved {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		cr := c.prepareOne(len(res.Clips), r)
		res.Results = append(res.Results, cr)

		if !cr.Success {
			w := cr.Warning()
			res.Warnings = append(res.Warnings, w)
			c.log.Warn().Err(cr.Error).Str("file", r.Item.Name()).Msg("Skipping media item")
			continue
		}

		if r.Fallback != nil {
			res.Warnings = append(res.Warnings, r.Fallback)
		}
		res.Clips = append(res.Clips, cr.Clip)
		c.log.Debug().
			Int("item", i).
			Str("file", r.Item.Name()).
			Float64("duration", cr.Clip.Duration).
			Msg("Prepared clip")
	}

	if len(res.Clips) == 0 && res.Title == nil {
		return nil, &models.DiscoveryError{
			Path:   c.opts.SourceDir,
			Reason: "no usable media files",
			Err:    errors.Join(warningErrors(res.Warnings)...),
		}
	}

	return res, nil
}

func (c *Composer) prepareOne(index int, r timing.Resolved) *models.ClipResult {
	var clip *models.Clip
	var err error

	if r.Item.IsVideo() {
		clip, err = c.videoClip(index, r)
	} else {
		clip, err = c.imageClip(index, r)
	}

	if err != nil {
		cr, _ := models.NewClipResultFailure(r.Item, err)
		return cr
	}

	clip.Origin = r.Item
	cr, err := models.NewClipResultSuccess(r.Item, clip)
	if err != nil {
		cr, _ = models.NewClipResultFailure(r.Item, err)
	}
	return cr
}

func (c *Composer) imageClip(index int, r timing.Resolved) (*models.Clip, error) {
	dst := filepath.Join(c.opts.WorkDir, fmt.Sprintf("frame_%03d.png", index))
	if err := imaging.PrepareStill(r.Item.Path, dst, c.opts.Width, c.opts.Height); err != nil {
		return nil, err
	}
	return models.NewClip(index, dst, models.KindImage, r.Duration)
}

// videoClip keeps the original file; scaling and trimming happen in the
// filter graph. A video ffprobe cannot read, or one without a picture
// stream, is not usable.
func (c *Composer) videoClip(index int, r timing.Resolved) (*models.Clip, error) {
	if r.Probe == nil {
		if r.ProbeErr != nil {
			return nil, fmt.Errorf("cannot read video: %w", r.ProbeErr)
		}
		return nil, errors.New("cannot read video")
	}
	if !r.Probe.HasVideo() {
		return nil, errors.New("file has no video stream")
	}
	return models.NewClip(index, r.Item.Path, models.KindVideo, r.Duration)
}

// TitleClip renders the title card to the work directory.
func (c *Composer) TitleClip() (*models.Clip, error) {
	img, err := c.titles.Render(title.Options{
		Text:     c.opts.Title,
		Width:    c.opts.Width,
		Height:   c.opts.Height,
		FontSize: c.opts.FontSize,
		Font:     c.opts.Font,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to render title: %w", err)
	}

	dst := filepath.Join(c.opts.WorkDir, "title.png")
	if err := imaging.WritePNG(dst, img); err != nil {
		return nil, fmt.Errorf("failed to write title: %w", err)
	}

	return models.NewClip(-1, dst, models.KindTitle, c.opts.TitleDuration)
}

func warningErrors(warnings []*models.DecodeWarning) []error {
	errs := make([]error, 0, len(warnings))
	for _, w := range warnings {
		errs = append(errs, w)
	}
	return errs
}
