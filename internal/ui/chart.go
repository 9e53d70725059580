package ui

import (
	"fmt"
	"math"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"marketdesk/internal/watchlist"
)

// renderChart plots one or more series as a character grid with a y-axis
// gutter and a shared scale. Comparison series arrive rebased to percent, so
// a single scale is always meaningful.
func renderChart(series []watchlist.Series, width, height int) string {
	if len(series) == 0 || width < 16 || height < 4 {
		return dimStyle.Render("  (no chart data)")
	}

	lo, hi := math.Inf(1), math.Inf(-1)
	maxLen := 0
	for _, s := range series {
		for _, p := range s.Points {
			lo = math.Min(lo, p)
			hi = math.Max(hi, p)
		}
		if len(s.Points) > maxLen {
			maxLen = len(s.Points)
		}
	}
	if maxLen < 2 || math.IsInf(lo, 1) {
		return dimStyle.Render("  (no chart data)")
	}
	if hi == lo {
		hi = lo + 1
	}

	const gutter = 10
	plotW := width - gutter
	if plotW < 4 {
		plotW = 4
	}

	// cells[row][col] holds the series index that painted the cell, -1 when
	// empty. Later series win collisions, which keeps the legend order
	// meaningful.
	cells := make([][]int, height)
	for r := range cells {
		cells[r] = make([]int, plotW)
		for c := range cells[r] {
			cells[r][c] = -1
		}
	}

	for si, s := range series {
		if len(s.Points) < 2 {
			continue
		}
		prevRow := -1
		for col := 0; col < plotW; col++ {
			idx := col * (len(s.Points) - 1) / (plotW - 1)
			v := s.Points[idx]
			row := int(math.Round((hi - v) / (hi - lo) * float64(height-1)))
			if row < 0 {
				row = 0
			}
			if row >= height {
				row = height - 1
			}
			cells[row][col] = si
			// Fill vertical gaps so steep moves stay connected.
			if prevRow >= 0 {
				step := 1
				if row < prevRow {
					step = -1
				}
				for r := prevRow + step; r != row; r += step {
					if cells[r][col] == -1 {
						cells[r][col] = si
					}
				}
			}
			prevRow = row
		}
	}

	styles := make([]lipgloss.Style, len(series))
	for i, s := range series {
		styles[i] = lipgloss.NewStyle().Foreground(lipgloss.Color(s.Color))
	}

	unit := ""
	if series[0].Percent {
		unit = "%"
	}

	var b strings.Builder
	for r := 0; r < height; r++ {
		label := "        "
		switch r {
		case 0:
			label = fmt.Sprintf("%8.2f", hi)
		case height / 2:
			label = fmt.Sprintf("%8.2f", (hi+lo)/2)
		case height - 1:
			label = fmt.Sprintf("%8.2f", lo)
		}
		b.WriteString(dimStyle.Render(label + unit))
		if unit == "" {
			b.WriteString(" ")
		}
		b.WriteString(dimStyle.Render("│"))
		run := -2
		var seg strings.Builder
		flush := func() {
			if seg.Len() == 0 {
				return
			}
			if run == -1 {
				b.WriteString(seg.String())
			} else {
				b.WriteString(styles[run].Render(seg.String()))
			}
			seg.Reset()
		}
		for c := 0; c < plotW; c++ {
			si := cells[r][c]
			if si != run {
				flush()
				run = si
			}
			if si == -1 {
				seg.WriteByte(' ')
			} else {
				seg.WriteString("·")
			}
		}
		flush()
		b.WriteString("\n")
	}

	// Legend.
	b.WriteString(strings.Repeat(" ", gutter))
	for i, s := range series {
		if i > 0 {
			b.WriteString("  ")
		}
		b.WriteString(styles[i].Render("── " + s.Symbol))
	}
	return b.String()
}
