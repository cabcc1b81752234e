package grid

import "github.com/driftlog/driftlog-server/internal/domain"

// CandidatePosition converts a dragged rectangle's pixel top-left into the
// grid position it should snap to.
//
// The row rounds to the nearest half-row unit. The column is decided by the
// rectangle's horizontal midpoint against the center of the gutter between
// the columns, not by its left edge, so a rectangle mostly hanging over the
// right column snaps right even when its left edge is still in the left one.
func (m Metrics) CandidatePosition(x, y float64, width int, height float64) domain.GridPosition {
	width = clampWidth(width)
	height = sanitizeHeight(height)

	column := 0
	if width < domain.GridColumnCount {
		midX := x + m.PixelWidth(width)/2
		boundary := m.Margin + m.ColumnWidth() + m.Spacing/2
		if midX >= boundary {
			column = domain.GridColumnCount - 1
		}
	}

	return domain.GridPosition{
		Column: column,
		Row:    domain.SnapRow(y / m.rowUnit()),
		Width:  width,
		Height: height,
	}
}
