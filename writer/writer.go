// Package writer renders a sequence plan to the output file: the visual
// track first, then the soundtrack fitted to its length, then the mux.
package writer

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"sly/command"
	"sly/command/audio"
	"sly/command/mixing"
	"sly/command/render"
	"sly/config"
	"sly/ffprobe"
	"sly/internal/logging"
	"sly/models"
	"sly/sequence"
)

// FilterScriptName is the file the filter graph is written to inside the
// work directory.
const FilterScriptName = "filtergraph.txt"

// Options configures the output stage.
type Options struct {
	Output     string
	WorkDir    string
	Soundtrack string
	// Title is stored as the file's title metadata when set.
	Title string
	FPS   int

	Encoder config.EncoderConfig

	// KeepPartial leaves a failed output file in place.
	KeepPartial bool
}

// StageProgress receives progress for the stage currently running.
type StageProgress func(stage models.RenderStage, progress *models.EncodingProgress)

// Result summarizes a finished render.
type Result struct {
	Output        string
	Size          int64
	Duration      float64
	Clips         int
	HasSoundtrack bool
	Loops         int
	Elapsed       time.Duration
}

// Writer runs the ffmpeg commands of the output stage one after another.
// Renders are never retried.
type Writer struct {
	opts       Options
	prober     ffprobe.Prober
	onProgress StageProgress
	log        zerolog.Logger

	// run executes a single command; replaced in tests
	run func(ctx context.Context, cmd command.Command) error
}

// New returns a writer. prober is used to measure the soundtrack.
func New(opts Options, prober ffprobe.Prober) *Writer {
	return &Writer{
		opts:   opts,
		prober: prober,
		log:    logging.WithComponent("writer"),
		run: func(ctx context.Context, cmd command.Command) error {
			return cmd.Run(ctx)
		},
	}
}

// SetProgressCallback sets the callback for progress updates.
func (w *Writer) SetProgressCallback(callback StageProgress) *Writer {
	w.onProgress = callback
	return w
}

// FilterScriptPath returns where Write stores the filter graph.
func (w *Writer) FilterScriptPath() string {
	return filepath.Join(w.opts.WorkDir, FilterScriptName)
}

func (w *Writer) progress(stage models.RenderStage) models.ProgressCallback {
	if w.onProgress == nil {
		return nil
	}
	return func(p *models.EncodingProgress) {
		w.onProgress(stage, p)
	}
}

// Commands builds the commands Write would run, in order. The soundtrack is
// probed to decide how often it has to loop.
func (w *Writer) Commands(ctx context.Context, plan *sequence.Plan) ([]command.Command, error) {
	if plan == nil || plan.Len() == 0 {
		return nil, &models.RenderError{Stage: models.StageVideo, Output: w.opts.Output, Err: errors.New("nothing to render")}
	}

	total := plan.Timeline().Total
	enc := w.opts.Encoder

	videoOut := w.opts.Output
	if w.opts.Soundtrack != "" {
		videoOut = filepath.Join(w.opts.WorkDir, "video"+filepath.Ext(w.opts.Output))
	}

	video := render.NewSlideshowBuilder(plan.Clips(), w.FilterScriptPath(), videoOut).
		SetBinary(enc.FFmpegPath).
		SetCodec(enc.VideoCodec).
		SetCRF(enc.CRF).
		SetPreset(enc.Preset).
		SetPixelFormat(enc.PixelFormat).
		SetFrameRate(w.opts.FPS).
		SetThreads(enc.Threads).
		SetTotalDuration(total).
		SetProgressCallback(w.progress(models.StageVideo))

	if w.opts.Soundtrack == "" {
		return []command.Command{video}, nil
	}

	length, err := w.soundtrackLength(ctx)
	if err != nil {
		return nil, &models.RenderError{Stage: models.StageSoundtrack, Output: w.opts.Output, Err: err}
	}

	// Matroska audio holds any codec, so the mux can always copy it
	audioOut := filepath.Join(w.opts.WorkDir, "soundtrack.mka")
	soundtrack := audio.NewSoundtrackBuilder(w.opts.Soundtrack, audioOut, total).
		SetBinary(enc.FFmpegPath).
		SetSourceLength(length).
		SetCodec(enc.AudioCodec).
		SetBitrate(enc.AudioBitrate).
		SetProgressCallback(w.progress(models.StageSoundtrack))

	mix := mixing.NewMixingBuilder(videoOut, w.opts.Output).
		SetBinary(enc.FFmpegPath).
		SetAudioTrack(audioOut).
		AddMetadata("title", strings.TrimSpace(strings.ReplaceAll(w.opts.Title, "\n", " "))).
		SetTotalDuration(total).
		SetProgressCallback(w.progress(models.StageMixing))

	switch strings.ToLower(filepath.Ext(w.opts.Output)) {
	case ".mp4", ".mov", ".m4v":
		mix.AddExtraArgs("-movflags", "+faststart")
	}

	return []command.Command{video, soundtrack, mix}, nil
}

// soundtrackLength probes the soundtrack. A file ffprobe cannot read or one
// without audio is an error; an unknown length returns 0 (loop forever).
func (w *Writer) soundtrackLength(ctx context.Context) (float64, error) {
	probe, err := w.prober.Probe(ctx, w.opts.Soundtrack)
	if err != nil {
		return 0, fmt.Errorf("cannot read soundtrack %s: %w", w.opts.Soundtrack, err)
	}
	if !probe.HasAudio() {
		return 0, fmt.Errorf("soundtrack %s has no audio stream", w.opts.Soundtrack)
	}

	length, err := probe.GetDuration()
	if err != nil {
		w.log.Warn().Err(err).Str("file", w.opts.Soundtrack).Msg("Soundtrack length unknown, looping until the end")
		return 0, nil
	}
	return length, nil
}

// Write renders plan using the filter graph and returns a summary. On
// failure the partial output is removed unless KeepPartial is set, and the
// error is a *models.RenderError naming the failed stage.
func (w *Writer) Write(ctx context.Context, plan *sequence.Plan, graph string) (*Result, error) {
	start := time.Now()

	cmds, err := w.Commands(ctx, plan)
	if err != nil {
		return nil, err
	}

	if err := w.prepareDirs(graph); err != nil {
		return nil, &models.RenderError{Stage: models.StageVideo, Output: w.opts.Output, Err: err}
	}

	res := &Result{
		Output:        w.opts.Output,
		Duration:      plan.Timeline().Total,
		Clips:         plan.Len(),
		HasSoundtrack: w.opts.Soundtrack != "",
	}

	for _, cmd := range cmds {
		stage := stageOf(cmd)
		if st, ok := cmd.(*audio.SoundtrackBuilder); ok {
			res.Loops = st.Loops()
		}

		w.log.Debug().Str("stage", string(stage)).Str("output", cmd.GetOutputPath()).Msg("Running ffmpeg")
		if line, err := cmd.DryRun(); err == nil {
			w.log.Debug().Msg(line)
		}

		if err := w.run(ctx, cmd); err != nil {
			w.discard()
			return nil, &models.RenderError{Stage: stage, Output: w.opts.Output, Err: err}
		}
	}

	info, err := os.Stat(w.opts.Output)
	if err == nil && info.Size() == 0 {
		err = errors.New("output file is empty")
	}
	if err != nil {
		w.discard()
		return nil, &models.RenderError{Stage: models.StageFinalize, Output: w.opts.Output, Err: err}
	}

	res.Size = info.Size()
	res.Elapsed = time.Since(start)

	w.log.Info().
		Str("output", res.Output).
		Int64("bytes", res.Size).
		Float64("duration", res.Duration).
		Dur("elapsed", res.Elapsed).
		Msg("Slideshow written")

	return res, nil
}

func (w *Writer) prepareDirs(graph string) error {
	if err := os.MkdirAll(w.opts.WorkDir, 0755); err != nil {
		return fmt.Errorf("failed to create work directory: %w", err)
	}
	if dir := filepath.Dir(w.opts.Output); dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create output directory: %w", err)
		}
	}
	if err := os.WriteFile(w.FilterScriptPath(), []byte(graph), 0644); err != nil {
		return fmt.Errorf("failed to write filter script: %w", err)
	}
	return nil
}

// discard removes a partial output file.
func (w *Writer) discard() {
	if w.opts.KeepPartial {
		w.log.Warn().Str("output", w.opts.Output).Msg("Keeping partial output")
		return
	}
	if err := os.Remove(w.opts.Output); err != nil && !errors.Is(err, os.ErrNotExist) {
		w.log.Warn().Err(err).Str("output", w.opts.Output).Msg("Could not remove partial output")
	}
}

func stageOf(cmd command.Command) models.RenderStage {
	switch cmd.GetTaskType() {
	case command.TaskTypeSoundtrack:
		return models.StageSoundtrack
	case command.TaskTypeMixing:
		return models.StageMixing
	default:
		return models.StageVideo
	}
}
