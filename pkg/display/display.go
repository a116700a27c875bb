// Package display computes the derived values the wallboard view
// renders: month-over-month deltas, team ranking, and clamped
// percentages. These are presentation-only; the data layer never
// clamps or reorders stored values.
package display

import (
	"sort"

	"github.com/nordkredit/wallboard/pkg/benchmark"
)

// Row decorates a benchmark row with its display-derived values.
type Row struct {
	benchmark.TeamBenchmark

	DeltaPct   float64 `json:"delta_pct"`
	DisplayPct float64 `json:"display_pct"`
	Rank       int     `json:"rank"`
	Leader     bool    `json:"leader"`
}

// Decorate computes the display block for a reconciled row set. Rank 1
// is the highest compliance percentage; ties keep the input order,
// which is the fixed team order. The input order of rows is preserved.
func Decorate(rows []benchmark.TeamBenchmark) []Row {
	out := make([]Row, len(rows))

	for i, row := range rows {
		out[i] = Row{
			TeamBenchmark: row,
			DeltaPct:      Delta(row.OverholdelsePct, row.PreviousMonthPct),
			DisplayPct:    ClampPct(row.OverholdelsePct),
		}
	}

	// Rank by compliance, stable so the fixed order breaks ties.
	order := make([]int, len(rows))
	for i := range order {
		order[i] = i
	}

	sort.SliceStable(order, func(a, b int) bool {
		return rows[order[a]].OverholdelsePct > rows[order[b]].OverholdelsePct
	})

	for rank, idx := range order {
		out[idx].Rank = rank + 1
		out[idx].Leader = rank == 0
	}

	return out
}

// Delta returns the signed change from the previous month's value.
func Delta(current, previous float64) float64 {
	return current - previous
}

// ClampPct bounds a percentage to [0, 100] for rendering. Stored
// values are not clamped anywhere.
func ClampPct(pct float64) float64 {
	switch {
	case pct < 0:
		return 0
	case pct > 100:
		return 100
	default:
		return pct
	}
}
