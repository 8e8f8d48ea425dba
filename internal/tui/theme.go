package tui

import (
	"os"
	"strconv"
	"strings"

	"annotate-cli/internal/decor"

	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"
)

// The host must stay readable on light and dark terminals, so colours are
// adaptive and "faint" is only used on dark backgrounds.

func ac(light, dark string) lipgloss.AdaptiveColor {
	return lipgloss.AdaptiveColor{Light: light, Dark: dark}
}

func faintIfDark(st lipgloss.Style) lipgloss.Style {
	if lipgloss.HasDarkBackground() {
		return st.Faint(true)
	}
	return st
}

var (
	colorMuted      lipgloss.TerminalColor = ac("240", "243")
	colorSurfaceFg  lipgloss.TerminalColor = ac("235", "252")
	colorControlBg  lipgloss.TerminalColor = ac("252", "235")
	colorInputBg    lipgloss.TerminalColor = ac("254", "234")
	colorSelectedBg lipgloss.TerminalColor = ac("#e9e9e9", "#262626")
	colorSelectedFg lipgloss.TerminalColor = ac("235", "255")
	colorAccent     lipgloss.TerminalColor = ac("27", "62")
	colorAccentFg   lipgloss.TerminalColor = ac("255", "235")
	colorError      lipgloss.TerminalColor = ac("160", "203")
	colorBorder     lipgloss.TerminalColor = ac("250", "243")

	// Mark backgrounds per level class.
	colorMarkDefault  lipgloss.TerminalColor = ac("153", "24")
	colorMarkMinor    lipgloss.TerminalColor = ac("229", "58")
	colorMarkMajor    lipgloss.TerminalColor = ac("223", "94")
	colorMarkCritical lipgloss.TerminalColor = ac("217", "88")
	colorMarkAgreed   lipgloss.TerminalColor = ac("157", "22")
	colorHighlight    lipgloss.TerminalColor = ac("226", "136")
)

func styleMuted() lipgloss.Style {
	return faintIfDark(lipgloss.NewStyle().Foreground(colorMuted))
}

func styleError() lipgloss.Style {
	return lipgloss.NewStyle().Foreground(colorError).Bold(true)
}

func markColor(class string) lipgloss.TerminalColor {
	switch class {
	case decor.LevelClass("minor"):
		return colorMarkMinor
	case decor.LevelClass("major"):
		return colorMarkMajor
	case decor.LevelClass("critical"):
		return colorMarkCritical
	default:
		return colorMarkDefault
	}
}

// markStyle paints a text cell covered by d.
func markStyle(d decor.Decoration) lipgloss.Style {
	st := lipgloss.NewStyle().Foreground(colorSurfaceFg).Background(markColor(d.Class))
	if d.Agreed {
		st = st.Background(colorMarkAgreed)
	}
	if d.Optimistic {
		st = st.Italic(true)
	}
	if d.Highlighted {
		st = st.Background(colorHighlight).Bold(true)
	}
	return st
}

// widgetStyle paints a label widget.
func widgetStyle(d decor.Decoration) lipgloss.Style {
	st := lipgloss.NewStyle().Foreground(markColor(d.Class)).Bold(true)
	if lipgloss.HasDarkBackground() {
		st = st.Foreground(colorSurfaceFg).Background(markColor(d.Class))
	}
	if d.Agreed {
		st = st.Foreground(colorMuted).Bold(false)
	}
	if d.Optimistic {
		st = st.Faint(true)
	}
	if d.Highlighted {
		st = st.Background(colorHighlight)
	}
	return st
}

func selectionStyle() lipgloss.Style {
	return lipgloss.NewStyle().Foreground(colorSelectedFg).Background(colorSelectedBg).Reverse(true)
}

func caretStyle() lipgloss.Style {
	return lipgloss.NewStyle().Foreground(colorAccentFg).Background(colorAccent)
}

// applyColorProfilePreference sets Lip Gloss's colour profile. An explicit
// profile wins; otherwise NO_COLOR is honoured and TERM/COLORTERM may upgrade
// what termenv detects.
func applyColorProfilePreference(pref string) {
	switch strings.ToLower(strings.TrimSpace(pref)) {
	case "truecolor":
		lipgloss.SetColorProfile(termenv.TrueColor)
		return
	case "ansi256":
		lipgloss.SetColorProfile(termenv.ANSI256)
		return
	case "ansi":
		lipgloss.SetColorProfile(termenv.ANSI)
		return
	case "ascii":
		lipgloss.SetColorProfile(termenv.Ascii)
		return
	}
	if strings.TrimSpace(os.Getenv("NO_COLOR")) != "" {
		lipgloss.SetColorProfile(termenv.Ascii)
		return
	}

	profile := termenv.ColorProfile()
	term := strings.ToLower(strings.TrimSpace(os.Getenv("TERM")))
	colorterm := strings.ToLower(strings.TrimSpace(os.Getenv("COLORTERM")))
	if strings.Contains(colorterm, "truecolor") || strings.Contains(colorterm, "24bit") {
		if profile != termenv.Ascii {
			profile = termenv.TrueColor
		}
	} else if strings.Contains(term, "256color") && (profile == termenv.Ascii || profile == termenv.ANSI) {
		profile = termenv.ANSI256
	}
	lipgloss.SetColorProfile(profile)
}

// applyThemePreference overrides background detection:
// ANNOTATE_TUI_THEME=light|dark, then COLORFGBG ("fg;bg").
func applyThemePreference() {
	switch themePreference() {
	case "light":
		lipgloss.SetHasDarkBackground(false)
		return
	case "dark":
		lipgloss.SetHasDarkBackground(true)
		return
	}
	if v := strings.TrimSpace(os.Getenv("COLORFGBG")); v != "" {
		parts := strings.Split(v, ";")
		if bg, err := strconv.Atoi(strings.TrimSpace(parts[len(parts)-1])); err == nil {
			lipgloss.SetHasDarkBackground(bg < 7)
		}
	}
}

func themePreference() string {
	return strings.ToLower(strings.TrimSpace(os.Getenv("ANNOTATE_TUI_THEME")))
}
