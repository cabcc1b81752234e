package domain

import "math"

// GridColumnCount is the number of columns on the moment canvas.
const GridColumnCount = 2

// GridRowStep is the granularity of grid rows. All rows and heights snap to
// half-row increments.
const GridRowStep = 0.5

// GridPosition is a moment's placement on the 2-column canvas.
//
// The wire shape ({column, row, width, height}, numeric types) matches the
// positions already stored by existing clients and must not change.
type GridPosition struct {
	Column int     `json:"column"`
	Row    float64 `json:"row"`
	Width  int     `json:"width"`
	Height float64 `json:"height"`
}

// Valid reports whether the position satisfies the canvas invariants:
// column in range, width 1 or 2, column+width within the canvas, positive
// height, non-negative row, and row/height on half-row increments.
func (p GridPosition) Valid() bool {
	if p.Column < 0 || p.Width < 1 {
		return false
	}
	if p.Column+p.Width > GridColumnCount {
		return false
	}
	if p.Row < 0 || p.Height <= 0 {
		return false
	}
	return onRowStep(p.Row) && onRowStep(p.Height)
}

// Bottom returns the row at which the position's occupied cells end.
func (p GridPosition) Bottom() float64 {
	return p.Row + p.Height
}

// Overlaps reports whether two positions' occupied cells intersect.
// Touching edges do not count as overlap.
func (p GridPosition) Overlaps(other GridPosition) bool {
	if p.Column+p.Width <= other.Column || other.Column+other.Width <= p.Column {
		return false
	}
	const eps = 1e-9
	return p.Row < other.Bottom()-eps && other.Row < p.Bottom()-eps
}

// SnapRow rounds a row value to the nearest half-row increment, clamping at zero.
func SnapRow(row float64) float64 {
	if row < 0 || math.IsNaN(row) {
		return 0
	}
	return math.Round(row/GridRowStep) * GridRowStep
}

func onRowStep(v float64) bool {
	scaled := v / GridRowStep
	return math.Abs(scaled-math.Round(scaled)) < 1e-9
}
