// SPDX-License-Identifier: MIT
package tui

import (
	"strings"

	"github.com/charmbracelet/lipgloss"

	"eqscope/internal/analysis"
	"eqscope/internal/render"
)

// The driver works in virtual pixels; one terminal cell covers
// cellWidth x cellHeight of them.
const (
	cellWidth  = 4
	cellHeight = 8
)

// layer orders what is drawn in a cell; higher layers win.
type layer uint8

const (
	layerEmpty layer = iota
	layerGrid
	layerLabel
	layerLeft
	layerRight
	layerResponse
	layerCount
)

var layerStyles = [layerCount]lipgloss.Style{
	layerEmpty:    lipgloss.NewStyle(),
	layerGrid:     lipgloss.NewStyle().Foreground(lipgloss.Color("#3A3A3A")),
	layerLabel:    lipgloss.NewStyle().Foreground(lipgloss.Color("#808080")),
	layerLeft:     lipgloss.NewStyle().Foreground(lipgloss.Color("#25A065")),
	layerRight:    lipgloss.NewStyle().Foreground(lipgloss.Color("#3D7BD9")),
	layerResponse: lipgloss.NewStyle().Foreground(lipgloss.Color("#F2C94C")).Bold(true),
}

var channelGlyphs = [...]struct {
	layer layer
	glyph rune
}{
	{layerLeft, '•'},
	{layerRight, '∘'},
}

// canvas is a character grid the size of the plot.
type canvas struct {
	cols, rows int
	glyphs     []rune
	layers     []layer
}

func newCanvas(cols, rows int) *canvas {
	cols, rows = max(cols, 0), max(rows, 0)
	c := &canvas{
		cols:   cols,
		rows:   rows,
		glyphs: make([]rune, cols*rows),
		layers: make([]layer, cols*rows),
	}
	for i := range c.glyphs {
		c.glyphs[i] = ' '
	}
	return c
}

// cell converts virtual pixel coordinates to a cell index.
func (c *canvas) cell(x, y float64) (col, row int, ok bool) {
	col, row = int(x/cellWidth), int(y/cellHeight)
	return col, row, col >= 0 && col < c.cols && row >= 0 && row < c.rows
}

func (c *canvas) set(col, row int, l layer, r rune) {
	if col < 0 || col >= c.cols || row < 0 || row >= c.rows {
		return
	}
	i := row*c.cols + col
	if l >= c.layers[i] {
		c.layers[i] = l
		c.glyphs[i] = r
	}
}

func (c *canvas) text(col, row int, l layer, s string) {
	for _, r := range s {
		c.set(col, row, l, r)
		col++
	}
}

// drawGrid draws the frequency and gain lines with their labels.
func (c *canvas) drawGrid(g render.Grid) {
	topRow := int(g.Area.Y / cellHeight)
	bottomRow := int(g.Area.Bottom() / cellHeight)
	left := int(g.Area.X / cellWidth)
	right := int(g.Area.Right() / cellWidth)

	for _, line := range g.Frequencies {
		col := int(line.Pos / cellWidth)
		for row := topRow; row <= bottomRow; row++ {
			c.set(col, row, layerGrid, '│')
		}
		c.text(col, max(topRow-1, 0), layerLabel, line.Label)
	}
	for i, line := range g.Gains {
		row := int(line.Pos / cellHeight)
		for col := left; col <= right; col++ {
			c.set(col, row, layerGrid, '─')
		}
		c.text(right+1, row, layerLabel, line.Label)
		level := g.Levels[i].Label
		c.text(left-1-len(level), row, layerLabel, level)
	}
}

// plot draws p, joining consecutive columns vertically so steep slopes
// stay connected.
func (c *canvas) plot(p analysis.Path, area render.Rect, l layer, glyph rune) {
	prevCol, prevRow := -1, -1
	for _, pt := range p {
		col, row, ok := c.cell(area.X+pt.X, area.Y+pt.Y)
		if !ok {
			continue
		}
		if col == prevCol && row == prevRow {
			continue
		}
		if prevCol >= 0 && col-prevCol <= 1 {
			lo, hi := min(row, prevRow), max(row, prevRow)
			for r := lo + 1; r < hi; r++ {
				c.set(col, r, l, glyph)
			}
		}
		c.set(col, row, l, glyph)
		prevCol, prevRow = col, row
	}
}

// drawFrame plots everything a frame carries.
func (c *canvas) drawFrame(f *render.Frame) {
	c.drawGrid(render.NewGrid(f.Area))
	for i, p := range f.Spectrum {
		g := channelGlyphs[i%len(channelGlyphs)]
		c.plot(p, f.Area, g.layer, g.glyph)
	}
	c.plot(f.Response, f.Area, layerResponse, '█')
}

// String renders the canvas, styling runs of cells that share a layer.
func (c *canvas) String() string {
	var sb strings.Builder
	var run strings.Builder
	for row := range c.rows {
		if row > 0 {
			sb.WriteByte('\n')
		}
		cur := layerEmpty
		run.Reset()
		flush := func() {
			if run.Len() > 0 {
				sb.WriteString(layerStyles[cur].Render(run.String()))
				run.Reset()
			}
		}
		for col := range c.cols {
			i := row*c.cols + col
			if c.layers[i] != cur {
				flush()
				cur = c.layers[i]
			}
			run.WriteRune(c.glyphs[i])
		}
		flush()
	}
	return sb.String()
}
