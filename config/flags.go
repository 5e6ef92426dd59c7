package config

import (
	"flag"
	"fmt"
	"io"
	"strings"
)

// MergeFromFlags parses command-line arguments (without the program name)
// and overrides config values. Every flag defaults to the value already in
// the config, so only flags given on the command line change anything.
// Long and short names share one variable; both single and double dashes
// are accepted.
func (c *Config) MergeFromFlags(args []string) error {
	fs := newFlagSet(c)

	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() > 0 {
		return fmt.Errorf("unexpected argument %q", fs.Arg(0))
	}

	return nil
}

func newFlagSet(c *Config) *flag.FlagSet {
	fs := flag.NewFlagSet("sly", flag.ContinueOnError)
	fs.Usage = func() { printUsage(fs.Output()) }

	// Input and output
	stringFlag(fs, &c.Path, "path", "p", "Directory containing the images and videos")
	stringFlag(fs, &c.Output, "output", "o", "Output video file")
	stringFlag(fs, &c.Soundtrack, "soundtrack", "st", "Audio file looped or trimmed to the slideshow length")
	stringFlag(fs, &c.ConfigPath, "config", "c", "Path to config file")

	// Title slide
	stringFlag(fs, &c.Title, "title", "t", "Title slide text")
	stringFlag(fs, &c.Font, "font", "f", "Font name or font file for the title")
	intFlag(fs, &c.FontSize, "font-size", "fs", "Title font size in pixels (0 = auto)")
	floatFlag(fs, &c.TitleDuration, "title-duration", "", "Title slide duration in seconds")

	// Timing
	floatFlag(fs, &c.ImageDuration, "image-duration", "id", "Seconds each image is shown")
	floatFlag(fs, &c.TransitionDuration, "transition-duration", "td", "Transition length in seconds")
	stringFlag(fs, &c.TransitionType, "transition-type", "tt", "Transition type: fade, crossfade")
	stringFlag(fs, &c.VideoDurationMode, "video-duration-mode", "vdm", "Video duration: original, fixed, limit")

	// Discovery
	boolFlag(fs, &c.IncludeVideos, "include-videos", "iv", "Include video files")
	boolFlag(fs, &c.ImagesOnly, "images-only", "imo", "Only use images (overrides include-videos)")
	stringFlag(fs, &c.ImageOrder, "image-order", "io", "Order: name, date, random")
	fs.Int64Var(&c.Seed, "seed", c.Seed, "Seed for random order (0 = different every run)")

	// Output geometry
	intFlag(fs, &c.Width, "slideshow-width", "sw", "Output width in pixels")
	intFlag(fs, &c.Height, "slideshow-height", "sh", "Output height in pixels")
	intFlag(fs, &c.FPS, "fps", "", "Output frames per second")

	// Encoder settings
	stringFlag(fs, &c.Encoder.VideoCodec, "video-codec", "", "Video codec")
	intFlag(fs, &c.Encoder.CRF, "crf", "", "Video CRF (0-51, lower = better quality)")
	stringFlag(fs, &c.Encoder.Preset, "preset", "", "Encoder preset")
	stringFlag(fs, &c.Encoder.AudioCodec, "audio-codec", "", "Soundtrack codec")
	stringFlag(fs, &c.Encoder.AudioBitrate, "audio-bitrate", "", "Soundtrack bitrate, e.g., 192k")
	intFlag(fs, &c.Encoder.Threads, "threads", "", "Encoder threads (0 = 75% of the CPU cores)")

	// Behavioral flags
	boolFlag(fs, &c.Verbose, "verbose", "v", "Enable verbose logging")
	boolFlag(fs, &c.ListFonts, "list-fonts", "lf", "List available system fonts and exit")
	boolFlag(fs, &c.DryRun, "dry-run", "", "Show the plan and the ffmpeg commands without rendering")
	boolFlag(fs, &c.KeepPartial, "keep-partial", "", "Keep the output file when rendering fails")
	boolFlag(fs, &c.KeepTemp, "keep-temp", "", "Keep prepared stills and filter scripts")
	stringFlag(fs, &c.SaveConfig, "save-config", "", "Write the effective configuration to FILE and exit")

	return fs
}

func stringFlag(fs *flag.FlagSet, p *string, long, short, usage string) {
	fs.StringVar(p, long, *p, usage)
	if short != "" {
		fs.StringVar(p, short, *p, usage)
	}
}

func intFlag(fs *flag.FlagSet, p *int, long, short, usage string) {
	fs.IntVar(p, long, *p, usage)
	if short != "" {
		fs.IntVar(p, short, *p, usage)
	}
}

func floatFlag(fs *flag.FlagSet, p *float64, long, short, usage string) {
	fs.Float64Var(p, long, *p, usage)
	if short != "" {
		fs.Float64Var(p, short, *p, usage)
	}
}

func boolFlag(fs *flag.FlagSet, p *bool, long, short, usage string) {
	fs.BoolVar(p, long, *p, usage)
	if short != "" {
		fs.BoolVar(p, short, *p, usage)
	}
}

// printUsage prints help text
func printUsage(w io.Writer) {
	fmt.Fprint(w, `sly - Turn a directory of images and videos into a slideshow video

USAGE:
  sly [-p DIR] [-o FILE] [OPTIONS]

INPUT AND OUTPUT:
  -p, --path DIR                    Directory to scan (default: .)
  -o, --output FILE                 Output video file (default: slideshow.mp4)
  -st, --soundtrack FILE            Audio looped or trimmed to the slideshow length
  -c, --config FILE                 Config file (default: search ./config.toml,
                                    ./config.yaml, ~/.config/sly/config.toml)

TITLE SLIDE:
  -t, --title TEXT                  Title slide text (no title slide when empty)
  -f, --font NAME|FILE              Font name or font file (default: built-in)
  -fs, --font-size N                Font size in pixels (default: min(w,h)/10)
  --title-duration SEC              Title slide duration (default: 3)

TIMING:
  -id, --image-duration SEC         Seconds each image is shown (default: 3)
  -td, --transition-duration SEC    Transition length (default: 1)
  -tt, --transition-type TYPE       crossfade or fade (default: crossfade)
  -vdm, --video-duration-mode MODE  original, fixed or limit (default: limit)

DISCOVERY:
  -iv, --include-videos             Include video files
  -imo, --images-only               Only use images, even with --include-videos
  -io, --image-order ORDER          name, date or random (default: name)
  --seed N                          Make the random order reproducible

OUTPUT FORMAT:
  -sw, --slideshow-width N          Width in pixels (default: 1920)
  -sh, --slideshow-height N         Height in pixels (default: 1080)
  --fps N                           Frames per second (default: 24)
  --video-codec CODEC               Video codec (default: libx264)
  --crf N                           Quality, 0-51 (default: 18)
  --preset NAME                     Encoder preset (default: medium)
  --audio-codec CODEC               Soundtrack codec (default: aac)
  --audio-bitrate RATE              Soundtrack bitrate (default: 192k)
  --threads N                       Encoder threads (default: 75% of cores)

BEHAVIOR:
  -v, --verbose                     Verbose logging
  -lf, --list-fonts                 List system fonts and exit
  --dry-run                         Show the plan without rendering
  --keep-partial                    Keep the output file when rendering fails
  --keep-temp                       Keep the work directory
  --save-config FILE                Write the effective configuration and exit

EXAMPLES:
  # All images in ./photos, 2 seconds each
  sly -p photos -id 2

  # Title slide, fade to black and a soundtrack
  sly -p trip -t "Summer 2024" -tt fade -st music.mp3 -o trip.mp4

  # Include videos at their full length
  sly -p trip -iv -vdm original

Priority: CLI flags > Config file > Defaults
`)
}

// PrintConfig prints the effective configuration
func (c *Config) PrintConfig(w io.Writer) {
	rule := strings.Repeat("═", 59)
	fmt.Fprintln(w, rule)
	fmt.Fprintln(w, "                 Effective Configuration")
	fmt.Fprintln(w, rule)
	fmt.Fprintf(w, "Path:           %s\n", c.Path)
	fmt.Fprintf(w, "Output:         %s\n", c.Output)
	if c.Soundtrack != "" {
		fmt.Fprintf(w, "Soundtrack:     %s\n", c.Soundtrack)
	}
	if c.ConfigPath != "" {
		fmt.Fprintf(w, "Config File:    %s\n", c.ConfigPath)
	}

	fmt.Fprintln(w, "\nSlides:")
	fmt.Fprintf(w, "  Image:        %.2fs\n", c.ImageDuration)
	fmt.Fprintf(w, "  Transition:   %s, %.2fs\n", c.TransitionType, c.TransitionDuration)
	fmt.Fprintf(w, "  Order:        %s\n", c.ImageOrder)
	if c.UseVideos() {
		fmt.Fprintf(w, "  Videos:       %s\n", c.VideoDurationMode)
	} else {
		fmt.Fprintln(w, "  Videos:       excluded")
	}
	if c.Title != "" {
		fmt.Fprintf(w, "  Title:        %q (%.2fs)\n", c.Title, c.TitleDuration)
	}

	fmt.Fprintln(w, "\nOutput Format:")
	fmt.Fprintf(w, "  Resolution:   %dx%d @ %d fps\n", c.Width, c.Height, c.FPS)
	fmt.Fprintf(w, "  Video Codec:  %s (crf %d, preset %s)\n", c.Encoder.VideoCodec, c.Encoder.CRF, c.Encoder.Preset)
	if c.Soundtrack != "" {
		fmt.Fprintf(w, "  Audio Codec:  %s %s\n", c.Encoder.AudioCodec, c.Encoder.AudioBitrate)
	}
	fmt.Fprintf(w, "  Threads:      %d\n", c.Encoder.Threads)
	fmt.Fprintln(w, rule)
}
