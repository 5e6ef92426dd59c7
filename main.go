package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"sly/compose"
	"sly/config"
	"sly/discovery"
	"sly/ffprobe"
	"sly/fonts"
	"sly/internal/console"
	"sly/internal/logging"
	"sly/models"
	"sly/sequence"
	"sly/timing"
	"sly/writer"
)

// Exit codes
const (
	exitOK          = 0
	exitFailure     = 1
	exitConfig      = 2
	exitDiscovery   = 3
	exitRender      = 4
	exitInterrupted = 130 // Standard exit code for SIGINT
)

func main() {
	os.Exit(run(os.Args[1:], os.Stdout))
}

func run(args []string, out io.Writer) int {
	// Step 1: Load configuration (CLI flags > config file > defaults)
	cfg, err := config.LoadConfig(args)
	if err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return exitOK
		}
		console.Error(os.Stderr, "%v", err)
		return exitCode(err)
	}

	logging.Init(cfg.Verbose)
	runID := uuid.NewString()
	logging.WithRun(runID[:8])

	// Step 2: One-shot modes
	switch {
	case cfg.ListFonts:
		listFonts(out)
		return exitOK
	case cfg.SaveConfig != "":
		if err := config.SaveConfigFile(cfg, cfg.SaveConfig); err != nil {
			console.Error(os.Stderr, "Failed to save configuration: %v", err)
			return exitFailure
		}
		console.Success(out, "Configuration written to %s", cfg.SaveConfig)
		return exitOK
	}

	// Step 3: Cancel on Ctrl+C or SIGTERM; ffmpeg is killed with the context
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Step 4: Run the slideshow pipeline
	if err := runPipeline(ctx, cfg, runID, out); err != nil {
		if ctx.Err() != nil {
			fmt.Fprintln(out)
			console.Warn(out, "Rendering cancelled by user")
			return exitInterrupted
		}
		fmt.Fprintln(os.Stderr)
		console.Error(os.Stderr, "%v", err)
		return exitCode(err)
	}

	return exitOK
}

// exitCode maps the pipeline's typed errors to the process exit status.
func exitCode(err error) int {
	var cfgErr *models.ConfigError
	var discErr *models.DiscoveryError
	var renderErr *models.RenderError

	switch {
	case err == nil:
		return exitOK
	case errors.Is(err, context.Canceled):
		return exitInterrupted
	case errors.As(err, &cfgErr):
		return exitConfig
	case errors.As(err, &discErr):
		return exitDiscovery
	case errors.As(err, &renderErr):
		return exitRender
	default:
		return exitFailure
	}
}

func listFonts(out io.Writer) {
	found := fonts.System()
	if len(found) == 0 {
		console.Warn(out, "No fonts found in: %v", fonts.SystemDirs())
		return
	}
	fmt.Fprintln(out, console.FontTable(found))
	fmt.Fprintf(out, "%d fonts found\n", len(found))
}

// runPipeline executes the complete slideshow workflow
func runPipeline(ctx context.Context, cfg *config.Config, runID string, out io.Writer) error {
	startTime := time.Now()

	console.Banner(out, "SLY - SLIDESHOW")
	console.Field(out, "Input", cfg.Path)
	console.Field(out, "Output", cfg.Output)
	console.Field(out, "Size", fmt.Sprintf("%dx%d @ %d fps", cfg.Width, cfg.Height, cfg.FPS))
	fmt.Fprintln(out)

	// Work directory for prepared stills and the filter script
	workDir, err := os.MkdirTemp("", "sly-"+runID[:8]+"-")
	if err != nil {
		return fmt.Errorf("failed to create work directory: %w", err)
	}
	defer func() {
		if cfg.KeepTemp {
			log.Info().Str("dir", workDir).Msg("Keeping work directory")
			return
		}
		if err := os.RemoveAll(workDir); err != nil {
			log.Warn().Err(err).Str("dir", workDir).Msg("Could not remove work directory")
		}
	}()

	// PHASE 1: Discovery
	console.Phase(out, 1, "Media Discovery")

	items, err := discovery.Discover(cfg.Path, discovery.Options{
		ImagesOnly: !cfg.UseVideos(),
		Order:      discovery.Order(cfg.ImageOrder),
		Seed:       cfg.Seed,
	})
	if err != nil {
		return err
	}

	videos := 0
	for _, item := range items {
		if item.IsVideo() {
			videos++
		}
	}
	console.Field(out, "Images", len(items)-videos)
	if cfg.UseVideos() {
		console.Field(out, "Videos", videos)
	}
	console.Field(out, "Order", cfg.ImageOrder)
	fmt.Fprintln(out)

	// PHASE 2: Durations
	console.Phase(out, 2, "Duration Resolution")

	prober := ffprobe.NewCLI(cfg.Encoder.FFprobePath)
	resolver, err := timing.NewResolver(prober, cfg.ImageDuration, timing.Mode(cfg.VideoDurationMode))
	if err != nil {
		return err
	}

	resolved, err := resolver.ResolveAll(ctx, items)
	if err != nil {
		return err
	}

	content := 0.0
	for _, r := range resolved {
		content += r.Duration
	}
	console.Field(out, "Items", len(resolved))
	console.Field(out, "Content", fmt.Sprintf("%.2fs", content))
	fmt.Fprintln(out)

	// PHASE 3: Composition
	console.Phase(out, 3, "Clip Composition")

	composer, err := compose.NewComposer(compose.Options{
		SourceDir:     cfg.Path,
		WorkDir:       filepath.Join(workDir, "clips"),
		Width:         cfg.Width,
		Height:        cfg.Height,
		Title:         cfg.Title,
		Font:          cfg.Font,
		FontSize:      cfg.FontSize,
		TitleDuration: cfg.TitleDuration,
	})
	if err != nil {
		return err
	}

	prepared, err := composer.Prepare(ctx, resolved)
	if err != nil {
		return err
	}
	for _, w := range prepared.Warnings {
		console.Warn(out, "%v", w)
	}

	plan, err := sequence.BuildPlan(prepared.Title, prepared.Clips, cfg.TransitionDuration)
	if err != nil {
		return err
	}
	timeline := plan.Timeline()
	if err := timeline.Validate(); err != nil {
		return fmt.Errorf("invalid timeline: %w", err)
	}

	graph, err := compose.BuildFilterGraph(plan, compose.GraphOptions{
		Width:          cfg.Width,
		Height:         cfg.Height,
		FPS:            cfg.FPS,
		PixelFormat:    cfg.Encoder.PixelFormat,
		TransitionType: cfg.TransitionType,
		Transition:     cfg.TransitionDuration,
	})
	if err != nil {
		return err
	}

	console.Success(out, "Prepared %d clips (%d skipped)", len(prepared.Clips), prepared.Skipped())
	if plan.HasTitle() {
		console.Field(out, "Title", fmt.Sprintf("%.2fs", prepared.Title.Duration))
	}
	console.Field(out, "Timeline", fmt.Sprintf("%.2fs", timeline.Total))
	fmt.Fprintln(out)

	w := writer.New(writer.Options{
		Output:      cfg.Output,
		WorkDir:     workDir,
		Soundtrack:  cfg.Soundtrack,
		Title:       cfg.Title,
		FPS:         cfg.FPS,
		Encoder:     cfg.Encoder,
		KeepPartial: cfg.KeepPartial,
	}, prober)

	if cfg.DryRun {
		return dryRun(ctx, out, cfg, w, plan, graph)
	}

	// PHASE 4: Render
	console.Phase(out, 4, "Rendering")

	progressLine := console.NewProgressLine(out)
	w.SetProgressCallback(progressLine.Update)

	result, err := w.Write(ctx, plan, graph)
	progressLine.Done()
	if err != nil {
		return err
	}
	fmt.Fprintln(out)

	printReport(out, result, prepared, time.Since(startTime))
	return nil
}

func dryRun(ctx context.Context, out io.Writer, cfg *config.Config, w *writer.Writer, plan *sequence.Plan, graph string) error {
	console.Banner(out, "DRY RUN MODE")
	cfg.PrintConfig(out)

	fmt.Fprintln(out, "\nTimeline:")
	entries := plan.Entries()
	for i, iv := range plan.Timeline().Intervals {
		fmt.Fprintf(out, "  %3d  %8.2fs - %8.2fs  overlap %.2fs  %s\n",
			i, iv.Start, iv.End, iv.Overlap, entries[i].Clip.Label())
	}

	cmds, err := w.Commands(ctx, plan)
	if err != nil {
		return err
	}

	fmt.Fprintln(out, "\nFilter graph:")
	fmt.Fprintln(out, graph)

	fmt.Fprintln(out, "\nCommands:")
	for _, cmd := range cmds {
		line, err := cmd.DryRun()
		if err != nil {
			return err
		}
		fmt.Fprintf(out, "  [%s] %s\n", cmd.GetTaskType(), line)
	}

	fmt.Fprintln(out)
	console.Success(out, "Plan is valid. No rendering was performed.")
	return nil
}

func printReport(out io.Writer, result *writer.Result, prepared *compose.Result, elapsed time.Duration) {
	bitrateKbps := 0.0
	if result.Duration > 0 {
		bitrateKbps = float64(result.Size*8) / result.Duration / 1000
	}

	console.Banner(out, "✅ SUCCESS!")
	console.Field(out, "Output", result.Output)
	console.Field(out, "Size", fmt.Sprintf("%.2f MB", float64(result.Size)/(1024*1024)))
	console.Field(out, "Duration", fmt.Sprintf("%.2fs", result.Duration))
	console.Field(out, "Bitrate", fmt.Sprintf("%.0f kbps", bitrateKbps))
	console.Field(out, "Total time", fmt.Sprintf("%.2fs", elapsed.Seconds()))
	if elapsed > 0 {
		console.Field(out, "Speed", fmt.Sprintf("%.2fx realtime", result.Duration/elapsed.Seconds()))
	}
	console.Field(out, "Clips", result.Clips)
	if n := prepared.Skipped(); n > 0 {
		console.Field(out, "Skipped", n)
	}
	if result.HasSoundtrack {
		loops := "none"
		if result.Loops > 0 {
			loops = fmt.Sprintf("%d", result.Loops)
		} else if result.Loops < 0 {
			loops = "until the end"
		}
		console.Field(out, "Soundtrack", "looped "+loops)
	}
}
