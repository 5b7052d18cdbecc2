// Package report renders diagnostics and a piano-roll-style track
// summary for the `tako` CLI, the colorized-output counterpart to
// leafo-songtool's plain fmt.Printf/log.Printf console output. It
// reuses the pack's TUI palette tools — lipgloss for styled text,
// termenv for the active terminal's color profile, go-colorful for
// generating a stable color per track — even though `tako` itself has
// no interactive TUI.
package report

import (
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/lucasb-eyer/go-colorful"
	"github.com/muesli/termenv"

	"github.com/tako0614/takomusic/internal/diag"
	"github.com/tako0614/takomusic/internal/ir"
)

var (
	errorStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("9")).Bold(true)
	warningStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("11"))
	infoStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("12"))
	locationStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
)

func styleFor(sev diag.Severity) lipgloss.Style {
	switch sev {
	case diag.Error:
		return errorStyle
	case diag.Warning:
		return warningStyle
	default:
		return infoStyle
	}
}

// Diagnostics writes one colorized line per diagnostic to w, in the
// order the bag recorded them (no re-sorting by severity).
func Diagnostics(w io.Writer, bag *diag.Bag) {
	for _, d := range bag.All() {
		label := styleFor(d.Severity).Render(strings.ToUpper(string(d.Severity)))
		loc := ""
		if d.FilePath != "" || d.Position != nil {
			loc = locationStyle.Render(" " + location(d))
		}
		fmt.Fprintf(w, "%s [%s]%s %s\n", label, d.Code, loc, d.Message)
	}
}

func location(d diag.Diagnostic) string {
	switch {
	case d.FilePath != "" && d.Position != nil:
		return fmt.Sprintf("%s:%s", d.FilePath, d.Position)
	case d.FilePath != "":
		return d.FilePath
	case d.Position != nil:
		return d.Position.String()
	default:
		return ""
	}
}

// trackColor deterministically assigns each track index a hue around
// the color wheel, the same "stable color per lane" idea mixer.go
// builds with colorful.Hex, but generated instead of hand-picked since
// a score's track count and names aren't known in advance.
func trackColor(index, total int) colorful.Color {
	if total < 1 {
		total = 1
	}
	hue := 360.0 * float64(index) / float64(total)
	return colorful.Hsv(hue, 0.65, 0.9)
}

// PianoRoll renders one line per track: its name in its assigned
// color, a coarse bar-by-bar density sketch, and its sound and role.
func PianoRoll(w io.Writer, doc *ir.Document, columns int) {
	if columns < 1 {
		columns = 48
	}
	profile := termenv.ColorProfile()
	span := documentSpan(doc)

	for i, t := range doc.Tracks {
		color := trackColor(i, len(doc.Tracks))
		termColor := profile.Color(color.Hex())
		nameStyle := lipgloss.NewStyle().Foreground(lipgloss.Color(color.Hex())).Bold(true)

		bar := make([]rune, columns)
		for j := range bar {
			bar[j] = '·'
		}
		for _, pl := range t.Placements {
			for _, ev := range pl.Clip.Events {
				markOccupied(bar, ev.Start, span, columns)
			}
		}

		rendered := termenv.String(string(bar)).Foreground(termColor).String()
		fmt.Fprintf(w, "%-16s %s  %s\n", nameStyle.Render(t.Name), rendered, fmt.Sprintf("%s/%s", t.Role, t.Sound))
	}
}

func documentSpan(doc *ir.Document) ir.Rat {
	maxEnd := ir.Rat{N: 1, D: 1}
	for _, t := range doc.Tracks {
		for _, pl := range t.Placements {
			for _, ev := range pl.Clip.Events {
				if ev.End != nil && ratGreater(*ev.End, maxEnd) {
					maxEnd = *ev.End
				}
			}
		}
	}
	return maxEnd
}

func ratGreater(a, b ir.Rat) bool {
	if a.D == 0 || b.D == 0 {
		return false
	}
	return a.N*b.D > b.N*a.D
}

func markOccupied(bar []rune, at ir.Rat, span ir.Rat, columns int) {
	if at.D == 0 || span.D == 0 {
		return
	}
	frac := float64(at.N) / float64(at.D) / (float64(span.N) / float64(span.D))
	idx := int(frac * float64(columns))
	if idx < 0 {
		idx = 0
	}
	if idx >= columns {
		idx = columns - 1
	}
	bar[idx] = '█'
}
