package tui

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
	xansi "github.com/charmbracelet/x/ansi"
)

// normalizePane forces s to be exactly width columns wide (ANSI-aware) and
// height lines tall.
func normalizePane(s string, width, height int) string {
	width = max(0, width)
	height = max(0, height)

	lines := strings.Split(s, "\n")
	if height > 0 {
		if len(lines) > height {
			lines = lines[:height]
		}
		for len(lines) < height {
			lines = append(lines, "")
		}
	}
	for i, ln := range lines {
		lines[i] = fitLine(ln, width)
	}
	return strings.Join(lines, "\n")
}

func fitLine(ln string, width int) string {
	w := xansi.StringWidth(ln)
	if w > width {
		switch {
		case width <= 0:
			ln = ""
		case width == 1:
			ln = xansi.Cut(ln, 0, 1)
		default:
			ln = xansi.Cut(ln, 0, width-1) + "…"
		}
		// Terminate styling so a cut sequence cannot bleed.
		ln += "\x1b[0m"
		w = xansi.StringWidth(ln)
	}
	if w < width {
		ln += strings.Repeat(" ", width-w)
	}
	return ln
}

// overlayAt splices box over base with its top-left corner at (x, y). Cells
// outside base are dropped.
func overlayAt(base, box string, x, y int) string {
	baseLines := strings.Split(base, "\n")
	boxLines := strings.Split(box, "\n")
	for i, bl := range boxLines {
		row := y + i
		if row < 0 || row >= len(baseLines) {
			continue
		}
		line := baseLines[row]
		lw := xansi.StringWidth(line)
		bw := xansi.StringWidth(bl)
		if lw < x {
			line += strings.Repeat(" ", x-lw)
			lw = x
		}
		left := xansi.Cut(line, 0, x)
		right := ""
		if x+bw < lw {
			right = xansi.Cut(line, x+bw, lw)
		}
		baseLines[row] = left + "\x1b[0m" + bl + "\x1b[0m" + right
	}
	return strings.Join(baseLines, "\n")
}

// renderBox draws a popup frame of exactly w x h cells.
func renderBox(w, h int, title, body string) string {
	inner := max(1, w-2)
	innerH := max(1, h-2)
	head := lipgloss.NewStyle().Bold(true).Foreground(colorAccent).Render(title)
	content := normalizePane(head+"\n"+body, inner, innerH)
	return lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(colorBorder).
		Render(content)
}

func renderInputLine(bodyW int, inputView string) string {
	bodyW = max(10, bodyW)
	inputView = strings.ReplaceAll(inputView, "\n", " ")
	inputView = strings.ReplaceAll(inputView, "\r", " ")
	line := lipgloss.PlaceHorizontal(
		bodyW,
		lipgloss.Left,
		" "+inputView+" ",
		lipgloss.WithWhitespaceChars(" "),
		lipgloss.WithWhitespaceBackground(colorInputBg),
	)
	if xansi.StringWidth(line) > bodyW {
		line = xansi.Cut(line, 0, bodyW) + "\x1b[0m"
	}
	return line
}
