// Package console renders the human-facing terminal output: phase
// banners, the font list and the render progress line.
package console

import (
	"fmt"
	"io"
	"strings"
	"sync"
	"time"

	"github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"

	"sly/fonts"
	"sly/models"
)

// Color palette
const (
	colorPrimary = "#7D56F4"
	colorSuccess = "#04B575"
	colorError   = "#FF4D4D"
	colorWarn    = "#F2B705"
	colorInfo    = "#8A8A8A"
	colorBorder  = "#874BFD"
)

// ruleWidth matches the width of the banners.
const ruleWidth = 62

var (
	TitleStyle = lipgloss.NewStyle().
		Bold(true).
		Foreground(lipgloss.Color(colorPrimary))

	SuccessStyle = lipgloss.NewStyle().
		Foreground(lipgloss.Color(colorSuccess))

	ErrorStyle = lipgloss.NewStyle().
		Bold(true).
		Foreground(lipgloss.Color(colorError))

	WarnStyle = lipgloss.NewStyle().
		Foreground(lipgloss.Color(colorWarn))

	InfoStyle = lipgloss.NewStyle().
		Foreground(lipgloss.Color(colorInfo))

	BannerStyle = lipgloss.NewStyle().
		Border(lipgloss.DoubleBorder()).
		BorderForeground(lipgloss.Color(colorBorder)).
		Bold(true).
		Width(ruleWidth).
		Align(lipgloss.Center)
)

// Banner prints text in a double-bordered box.
func Banner(w io.Writer, text string) {
	fmt.Fprintln(w, BannerStyle.Render(text))
}

// Phase prints a numbered phase heading followed by a rule.
func Phase(w io.Writer, n int, name string) {
	fmt.Fprintln(w, TitleStyle.Render(fmt.Sprintf("Phase %d: %s", n, name)))
	fmt.Fprintln(w, InfoStyle.Render(strings.Repeat("━", ruleWidth)))
}

// Field prints an indented "label: value" line.
func Field(w io.Writer, label string, value any) {
	fmt.Fprintf(w, "  %-14s %v\n", label+":", value)
}

// Success prints a check-marked line.
func Success(w io.Writer, format string, args ...any) {
	fmt.Fprintln(w, SuccessStyle.Render("  ✓ "+fmt.Sprintf(format, args...)))
}

// Warn prints a warning line.
func Warn(w io.Writer, format string, args ...any) {
	fmt.Fprintln(w, WarnStyle.Render("  ⚠ "+fmt.Sprintf(format, args...)))
}

// Error prints an error line.
func Error(w io.Writer, format string, args ...any) {
	fmt.Fprintln(w, ErrorStyle.Render("❌ "+fmt.Sprintf(format, args...)))
}

// FontTable renders fonts as a table of name, type and path.
func FontTable(list []fonts.Font) string {
	rows := make([][]string, 0, len(list))
	for i, f := range list {
		rows = append(rows, []string{fmt.Sprintf("%d", i+1), f.Name, f.Type(), f.Path})
	}

	header := lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color(colorPrimary)).Padding(0, 1)
	cell := lipgloss.NewStyle().Padding(0, 1)
	dim := cell.Foreground(lipgloss.Color(colorInfo))

	t := table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(lipgloss.NewStyle().Foreground(lipgloss.Color(colorBorder))).
		Headers("#", "NAME", "TYPE", "PATH").
		Rows(rows...).
		StyleFunc(func(row, col int) lipgloss.Style {
		switch {
		case row == table.HeaderRow:
			return header
		case col == 3:
			return dim
		default:
			return cell
		}
		})

	return t.String()
}

// minRedraw throttles progress redraws.
const minRedraw = 100 * time.Millisecond

// ProgressLine draws a single, carriage-return refreshed progress bar.
// It is safe to call from the goroutine that parses ffmpeg output.
type ProgressLine struct {
	mu    sync.Mutex
	w     io.Writer
	bar   progress.Model
	last  time.Time
	stage models.RenderStage
	drawn bool
}

// NewProgressLine returns a progress line writing to w.
func NewProgressLine(w io.Writer) *ProgressLine {
	return &ProgressLine{
		w:   w,
		bar: progress.New(progress.WithDefaultGradient(), progress.WithWidth(30), progress.WithoutPercentage()),
	}
}

// Update redraws the line for stage. Calls closer together than 100ms are
// dropped unless the stage changed or finished.
func (p *ProgressLine) Update(stage models.RenderStage, ep *models.EncodingProgress) {
	p.mu.Lock()
	defer p.mu.Unlock()

	final := ep.State == models.ProgressStateCompleted || ep.State == models.ProgressStateFailed
	if stage == p.stage && !final && time.Since(p.last) < minRedraw {
		return
	}
	if stage != p.stage && p.drawn {
		fmt.Fprintln(p.w)
	}

	p.stage = stage
	p.last = time.Now()
	p.drawn = true

	fmt.Fprintf(p.w, "\r  %-10s %s %5.1f%%  %s",
		stage, p.bar.ViewAs(ep.Fraction()), ep.Progress, line(ep))
}

// Done ends the line.
func (p *ProgressLine) Done() {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.drawn {
		fmt.Fprintln(p.w)
		p.drawn = false
	}
	p.stage = ""
}

func line(ep *models.EncodingProgress) string {
	switch ep.State {
	case models.ProgressStateCompleted:
		return fmt.Sprintf("%.1fs done", ep.TotalDuration)
	case models.ProgressStateFailed:
		return "failed"
	case models.ProgressStateStarting, models.ProgressStateQueued:
		return "starting..."
	}
	return fmt.Sprintf("speed %.2fx  ETA %s", ep.Speed, models.FormatDuration(ep.EstimatedTimeRemaining()))
}
