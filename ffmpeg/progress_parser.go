// Package ffmpeg parses ffmpeg's progress output and builds filter graphs.
package ffmpeg

import (
	"bufio"
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"regexp"
	"strconv"
	"strings"

	"sly/internal/timeutil"
	"sly/models"
)

// tailSize is how many non-progress lines are kept for error reports.
const tailSize = 20

// ProgressParser parses ffmpeg stderr for encoding metrics.
//
// It understands the key=value blocks written by "-progress pipe:2" as well
// as the single-line stats format ("frame= 24 fps=25 ... speed=2x").
// Lines that are neither are kept as the error tail.
type ProgressParser struct {
	statsRegex *regexp.Regexp
	speedRegex *regexp.Regexp
	tail       []string
}

// NewProgressParser creates a new parser for ffmpeg progress output
func NewProgressParser() *ProgressParser {
	return &ProgressParser{
		// "frame=  24 fps=25.0 q=-0.0 size=  128kB time=00:00:01.00 bitrate= 128.0kbits/s speed=2.00x"
		statsRegex: regexp.MustCompile(`(frame|fps|size|time|bitrate)=\s*([^\s]+)`),
		speedRegex: regexp.MustCompile(`(?:^|\s)speed=\s*([0-9.]+)x?`),
	}
}

// ParseLine parses a single line and updates progress. It returns true when
// a metric was recognised.
func (pp *ProgressParser) ParseLine(line string, progress *models.EncodingProgress) bool {
	line = strings.TrimSpace(line)
	if line == "" || strings.HasPrefix(line, "progress=") {
		return false
	}

	// Stats line: several fields separated by spaces
	if strings.Contains(line, " ") && strings.Contains(line, "=") {
		return pp.parseStats(line, progress)
	}

	key, value, ok := strings.Cut(line, "=")
	if !ok {
		return false
	}
	return pp.apply(key, strings.TrimSpace(value), progress)
}

func (pp *ProgressParser) parseStats(line string, progress *models.EncodingProgress) bool {
	updated := false
	for _, m := range pp.statsRegex.FindAllStringSubmatch(line, -1) {
		if pp.apply(m[1], m[2], progress) {
			updated = true
		}
	}
	if m := pp.speedRegex.FindStringSubmatch(line); len(m) > 1 {
		if pp.apply("speed", m[1], progress) {
			updated = true
		}
	}
	return updated
}

func (pp *ProgressParser) apply(key, value string, progress *models.EncodingProgress) bool {
	if value == "" || value == "N/A" {
		return false
	}

	switch key {
	case "frame":
		if frame, err := strconv.ParseInt(value, 10, 64); err == nil {
			progress.Frame = frame
			return true
		}
	case "fps":
		if fps, err := strconv.ParseFloat(value, 64); err == nil {
			progress.FPS = fps
			return true
		}
	case "bitrate":
		progress.Bitrate = value
		return true
	case "size":
		progress.Size = value
		return true
	case "total_size":
		if n, err := strconv.ParseInt(value, 10, 64); err == nil {
			progress.Size = fmt.Sprintf("%dkB", n/1024)
			return true
		}
	case "time", "out_time":
		seconds, err := timeutil.ParseClock(value)
		if err != nil {
			return false
		}
		progress.CurrentTime = value
		if seconds >= 0 {
			progress.CalculateProgress(seconds)
		}
		return true
	case "out_time_us":
		if us, err := strconv.ParseInt(value, 10, 64); err == nil && us >= 0 {
			progress.CalculateProgress(float64(us) / 1e6)
			return true
		}
	case "speed":
		if speed, err := strconv.ParseFloat(strings.TrimSuffix(value, "x"), 64); err == nil {
			progress.Speed = speed
			return true
		}
	}
	return false
}

// StreamProgress reads ffmpeg stderr until EOF. The callback fires at the
// end of every -progress block and for every stats line.
func (pp *ProgressParser) StreamProgress(reader io.Reader, progress *models.EncodingProgress, callback models.ProgressCallback) error {
	scanner := bufio.NewScanner(reader)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	// ffmpeg overwrites its stats line with \r
	scanner.Split(scanLines)

	for scanner.Scan() {
		line := scanner.Text()

		switch {
		case strings.HasPrefix(line, "progress="):
			if strings.TrimPrefix(line, "progress=") == "end" {
				progress.Complete()
			} else {
				progress.State = models.ProgressStateEncoding
			}
			if callback != nil {
				callback(progress)
			}
		case pp.ParseLine(line, progress):
			if strings.Contains(line, " ") {
				progress.State = models.ProgressStateEncoding
				if callback != nil {
					callback(progress)
				}
			}
		case strings.TrimSpace(line) != "":
			pp.remember(line)
		}
	}

	if err := scanner.Err(); err != nil {
		return fmt.Errorf("error reading ffmpeg output: %w", err)
	}
	return nil
}

func (pp *ProgressParser) remember(line string) {
	pp.tail = append(pp.tail, strings.TrimSpace(line))
	if len(pp.tail) > tailSize {
		pp.tail = pp.tail[len(pp.tail)-tailSize:]
	}
}

// Tail returns the last non-progress lines ffmpeg printed, usually the
// reason it failed.
func (pp *ProgressParser) Tail() string {
	return strings.Join(pp.tail, "\n")
}

// scanLines is bufio.ScanLines that also breaks on a lone \r.
func scanLines(data []byte, atEOF bool) (advance int, token []byte, err error) {
	if atEOF && len(data) == 0 {
		return 0, nil, nil
	}
	if i := bytes.IndexAny(data, "\r\n"); i >= 0 {
		advance = i + 1
		if data[i] == '\r' && i+1 < len(data) && data[i+1] == '\n' {
			advance++
		}
		return advance, data[:i], nil
	}
	if atEOF {
		return len(data), data, nil
	}
	return 0, nil, nil
}

// FormatProgressJSON converts progress to JSON for logging
func FormatProgressJSON(progress *models.EncodingProgress) (string, error) {
	data, err := json.MarshalIndent(progress, "", "  ")
	if err != nil {
		return "", err
	}
	return string(data), nil
}
