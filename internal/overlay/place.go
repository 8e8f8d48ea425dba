package overlay

import "annotate-cli/internal/surface"

type Size struct {
	W int
	H int
}

// Position is where a popup is drawn. Origin names the corner nearest the
// anchor ("top left" means the popup grows down and to the right).
type Position struct {
	X      int
	Y      int
	W      int
	H      int
	Origin string
}

func (p Position) Rect() surface.Rect {
	return surface.Rect{Left: p.X, Top: p.Y, Right: p.X + p.W, Bottom: p.Y + p.H}
}

// Place positions a popup of size next to anchor inside viewport, keeping
// margin cells free on every side.
//
// Horizontal: start at the anchor's left edge and grow right; otherwise end at
// its right edge and grow left; otherwise centre on it. Vertical: below, then
// above, then whichever side has more room. The result is always clamped.
func Place(anchor surface.Rect, size Size, viewport surface.Rect, margin int) Position {
	inner := surface.Rect{
		Left:   viewport.Left + margin,
		Top:    viewport.Top + margin,
		Right:  viewport.Right - margin,
		Bottom: viewport.Bottom - margin,
	}
	if inner.Width() <= 0 || inner.Height() <= 0 {
		inner = viewport
	}
	w := min(max(1, size.W), max(1, inner.Width()))
	h := min(max(1, size.H), max(1, inner.Height()))

	var x int
	var hOrigin string
	switch {
	case anchor.Left >= inner.Left && anchor.Left+w <= inner.Right:
		x, hOrigin = anchor.Left, "left"
	case anchor.Right-w >= inner.Left && anchor.Right <= inner.Right:
		x, hOrigin = anchor.Right-w, "right"
	default:
		x, hOrigin = (anchor.Left+anchor.Right)/2-w/2, "center"
	}

	var y int
	var vOrigin string
	below := inner.Bottom - anchor.Bottom
	above := anchor.Top - inner.Top
	switch {
	case below >= h:
		y, vOrigin = anchor.Bottom, "top"
	case above >= h:
		y, vOrigin = anchor.Top-h, "bottom"
	case below >= above:
		y, vOrigin = anchor.Bottom, "top"
	default:
		y, vOrigin = anchor.Top-h, "bottom"
	}

	x = clamp(x, inner.Left, inner.Right-w)
	y = clamp(y, inner.Top, inner.Bottom-h)
	return Position{X: x, Y: y, W: w, H: h, Origin: vOrigin + " " + hOrigin}
}

// DefaultAnchor is used when the selection has no measurable geometry: a one
// cell anchor in the upper third of the viewport.
func DefaultAnchor(viewport surface.Rect) surface.Rect {
	x := viewport.Left + viewport.Width()/2
	y := viewport.Top + viewport.Height()/3
	return surface.Rect{Left: x, Top: y, Right: x + 1, Bottom: y + 1}
}

func clamp(v, lo, hi int) int {
	if hi < lo {
		return lo
	}
	return min(max(v, lo), hi)
}
