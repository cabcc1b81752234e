// Package grid implements the moment canvas packing engine: pixel layout,
// free-position search, and the reflow algorithm that keeps the 2-column
// canvas gap-free and overlap-free.
package grid

import (
	"math"

	"github.com/driftlog/driftlog-server/internal/domain"
)

// Metrics describes the pixel geometry of a canvas. All layout math is a
// pure function of these values plus stored grid positions.
type Metrics struct {
	CanvasWidth float64
	Margin      float64 // fixed side margin on each edge
	Spacing     float64 // horizontal gap between the two columns
	RowHeight   float64 // pixel height of one row unit
	RowSpacing  float64 // vertical gap between adjacent row units
}

// DefaultMetrics returns the standard canvas geometry for a given width.
func DefaultMetrics(canvasWidth float64) Metrics {
	return Metrics{
		CanvasWidth: canvasWidth,
		Margin:      16,
		Spacing:     12,
		RowHeight:   120,
		RowSpacing:  12,
	}
}

// ColumnWidth returns the pixel width of a single column.
func (m Metrics) ColumnWidth() float64 {
	return (m.CanvasWidth - 2*m.Margin - m.Spacing) / domain.GridColumnCount
}

// PixelWidth returns the pixel width of an item spanning the given columns.
func (m Metrics) PixelWidth(width int) float64 {
	cw := m.ColumnWidth()
	if width >= domain.GridColumnCount {
		return domain.GridColumnCount*cw + m.Spacing
	}
	return cw
}

// rowUnit is the vertical pixel distance between two adjacent integer rows.
func (m Metrics) rowUnit() float64 {
	return m.RowHeight + m.RowSpacing
}

// Frame is a pixel rectangle on the canvas.
type Frame struct {
	X      float64 `json:"x"`
	Y      float64 `json:"y"`
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

// CalculateLayout maps every moment to its pixel frame. It is total: a
// degenerate canvas width (zero, negative, or non-finite) means the canvas
// has not been measured yet and yields an empty map rather than an error.
//
// The output depends only on each moment's own stored position; overlap
// resolution happens at write time via Reflow, never here.
func CalculateLayout(moments []*domain.Moment, m Metrics) map[string]Frame {
	frames := make(map[string]Frame, len(moments))
	if m.CanvasWidth <= 0 || math.IsInf(m.CanvasWidth, 0) || math.IsNaN(m.CanvasWidth) {
		return frames
	}

	cw := m.ColumnWidth()
	unit := m.rowUnit()

	for _, moment := range moments {
		pos := moment.GridPosition
		frames[moment.ID] = Frame{
			X:      m.Margin + float64(pos.Column)*(cw+m.Spacing),
			Y:      pos.Row * unit,
			Width:  m.PixelWidth(pos.Width),
			Height: pos.Height*unit - m.RowSpacing,
		}
	}

	return frames
}

// NextFreePosition finds the first grid cell able to hold a width x height
// rectangle without overlapping any existing moment. The scan runs top-down
// in half-row increments, left-to-right within a row, so the result is the
// topmost-then-leftmost free position. Used when creating a new moment.
func NextFreePosition(existing []*domain.Moment, width int, height float64) domain.GridPosition {
	width = clampWidth(width)
	height = sanitizeHeight(height)

	occupied := make([]domain.GridPosition, 0, len(existing))
	maxBottom := 0.0
	for _, m := range existing {
		occupied = append(occupied, m.GridPosition)
		if b := m.GridPosition.Bottom(); b > maxBottom {
			maxBottom = b
		}
	}

	// A candidate at maxBottom is always clear, so the scan terminates.
	for row := 0.0; ; row += domain.GridRowStep {
		for col := 0; col+width <= domain.GridColumnCount; col++ {
			candidate := domain.GridPosition{Column: col, Row: row, Width: width, Height: height}
			if !overlapsAny(candidate, occupied) {
				return candidate
			}
		}
		if row >= maxBottom {
			return domain.GridPosition{Column: 0, Row: domain.SnapRow(maxBottom), Width: width, Height: height}
		}
	}
}

func overlapsAny(candidate domain.GridPosition, occupied []domain.GridPosition) bool {
	for _, o := range occupied {
		if candidate.Overlaps(o) {
			return true
		}
	}
	return false
}

func clampWidth(width int) int {
	if width < 1 {
		return 1
	}
	if width > domain.GridColumnCount {
		return domain.GridColumnCount
	}
	return width
}

// sanitizeHeight snaps a height onto the half-row lattice with a half-row floor.
func sanitizeHeight(height float64) float64 {
	snapped := domain.SnapRow(height)
	if snapped < domain.GridRowStep {
		return domain.GridRowStep
	}
	return snapped
}
