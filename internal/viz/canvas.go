package viz

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// Braille Patterns: 2x4 dots
// 1 4
// 2 5
// 3 6
// 7 8
//
// Unicode offset 0x2800
var pixelMap = [4][2]int{
	{0x1, 0x8},
	{0x2, 0x10},
	{0x4, 0x20},
	{0x40, 0x80},
}

const blank = 0x2800

// Canvas is a grid of braille cells. Each cell remembers the variant of the
// last dot drawn into it so it can be coloured.
type Canvas struct {
	Width, Height int
	Grid          [][]rune
	Owner         [][]int
}

func NewCanvas(w, h int) *Canvas {
	c := &Canvas{
		Width:  w,
		Height: h,
		Grid:   make([][]rune, h),
		Owner:  make([][]int, h),
	}
	for i := range c.Grid {
		c.Grid[i] = make([]rune, w)
		c.Owner[i] = make([]int, w)
	}
	c.Clear()
	return c
}

// Set marks the dot at (x, y) in sub-pixel coordinates. The canvas is
// (Width*2) x (Height*4) sub-pixels.
func (c *Canvas) Set(x, y, variant int) {
	if x < 0 || y < 0 {
		return
	}

	col := x / 2
	row := y / 4
	if col >= c.Width || row >= c.Height {
		return
	}

	c.Grid[row][col] |= rune(pixelMap[y%4][x%2])
	c.Owner[row][col] = variant
}

func (c *Canvas) Clear() {
	for i := range c.Grid {
		for j := range c.Grid[i] {
			c.Grid[i][j] = blank
			c.Owner[i][j] = -1
		}
	}
}

// Plot maps a point of a width x height model canvas onto the braille grid.
func (c *Canvas) Plot(x, y, width, height float64, variant int) {
	px := int(x / width * float64(c.Width*2))
	py := int(y / height * float64(c.Height*4))
	c.Set(px, py, variant)
}

func (c *Canvas) String() string {
	var b strings.Builder
	for _, row := range c.Grid {
		b.WriteString(string(row) + "\n")
	}
	return b.String()
}

// Render draws the canvas with each cell in its variant's colour.
func (c *Canvas) Render(palette []lipgloss.Color) string {
	styles := make([]lipgloss.Style, len(palette))
	for i, col := range palette {
		styles[i] = lipgloss.NewStyle().Foreground(col)
	}

	var b strings.Builder
	for i, row := range c.Grid {
		for j, r := range row {
			owner := c.Owner[i][j]
			if owner >= 0 && owner < len(styles) {
				b.WriteString(styles[owner].Render(string(r)))
			} else {
				b.WriteRune(r)
			}
		}
		b.WriteByte('\n')
	}
	return b.String()
}
