// SPDX-License-Identifier: MIT
package render

// Rect is an axis-aligned rectangle, origin top left.
type Rect struct {
	X      float64 `json:"x"`
	Y      float64 `json:"y"`
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

// Bottom returns the y coordinate of the lower edge.
func (r Rect) Bottom() float64 { return r.Y + r.Height }

// Right returns the x coordinate of the right edge.
func (r Rect) Right() float64 { return r.X + r.Width }

// Reduced shrinks r by the given insets. A rectangle never goes negative.
func (r Rect) Reduced(top, bottom, left, right float64) Rect {
	out := Rect{
		X:      r.X + left,
		Y:      r.Y + top,
		Width:  r.Width - left - right,
		Height: r.Height - top - bottom,
	}
	out.Width = max(out.Width, 0)
	out.Height = max(out.Height, 0)
	return out
}

// Insets around the curves: room for frequency labels on top and gain
// labels on both sides.
const (
	renderInsetTop    = 12
	renderInsetBottom = 2
	renderInsetSide   = 20
	analysisInset     = 4
)

// RenderArea is the framed region inside a component of the given size.
func RenderArea(width, height int) Rect {
	return Rect{Width: float64(width), Height: float64(height)}.
		Reduced(renderInsetTop, renderInsetBottom, renderInsetSide, renderInsetSide)
}

// AnalysisArea is where spectrum and response curves are plotted.
func AnalysisArea(width, height int) Rect {
	return RenderArea(width, height).Reduced(analysisInset, analysisInset, 0, 0)
}
