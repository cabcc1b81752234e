package grid

import (
	"sort"

	"github.com/driftlog/driftlog-server/internal/domain"
)

// Reflow repacks the whole moment set top-down so the canvas has no gaps and
// no overlaps. Moments are placed in chronological order using a greedy
// shortest-column heuristic: a single-column moment goes to whichever column
// is currently shorter, a full-width moment waits for both columns to clear.
//
// If pinnedID names a moment in the set, that moment keeps the position
// already written into the input and everything else packs around it without
// overlapping it. This is what lets a dragged moment track the pointer while
// the rest of the canvas previews its final shape.
//
// The input is not mutated; the result contains copies in the same order.
func Reflow(moments []*domain.Moment, pinnedID string) []*domain.Moment {
	out := make([]*domain.Moment, len(moments))
	for i, m := range moments {
		clone := *m
		out[i] = &clone
	}

	var pinned *domain.Moment
	order := make([]*domain.Moment, 0, len(out))
	for _, m := range out {
		if m.ID == pinnedID {
			pinned = m
			continue
		}
		order = append(order, m)
	}
	sort.SliceStable(order, func(i, j int) bool {
		return order[i].ChronoBefore(order[j])
	})

	var colHeights [domain.GridColumnCount]float64
	for _, m := range order {
		width := clampWidth(m.GridPosition.Width)
		height := sanitizeHeight(m.GridPosition.Height)

		if width == domain.GridColumnCount {
			row := maxHeight(colHeights)
			row = bumpPastPinned(domain.GridPosition{Column: 0, Row: row, Width: width, Height: height}, pinned)
			m.GridPosition = domain.GridPosition{Column: 0, Row: row, Width: width, Height: height}
			for c := range colHeights {
				colHeights[c] = row + height
			}
			continue
		}

		// Candidate row per column is that column's accumulated height,
		// pushed below the pinned moment if it would collide.
		var rows [domain.GridColumnCount]float64
		for c := range rows {
			rows[c] = bumpPastPinned(domain.GridPosition{Column: c, Row: colHeights[c], Width: width, Height: height}, pinned)
		}

		col := 0
		for c := 1; c < domain.GridColumnCount; c++ {
			if rows[c] < rows[col] || (rows[c] == rows[col] && colHeights[c] < colHeights[col]) {
				col = c
			}
		}

		m.GridPosition = domain.GridPosition{Column: col, Row: rows[col], Width: width, Height: height}
		colHeights[col] = rows[col] + height
	}

	return out
}

// bumpPastPinned returns the candidate's row, moved below the pinned moment
// when the candidate rectangle would intersect it.
func bumpPastPinned(candidate domain.GridPosition, pinned *domain.Moment) float64 {
	if pinned == nil {
		return candidate.Row
	}
	if candidate.Overlaps(pinned.GridPosition) {
		return pinned.GridPosition.Bottom()
	}
	return candidate.Row
}

func maxHeight(cols [domain.GridColumnCount]float64) float64 {
	max := cols[0]
	for _, h := range cols[1:] {
		if h > max {
			max = h
		}
	}
	return max
}
