// Package engine computes grouped aggregates and global statistics over the
// booking hierarchy. All computation is local and deterministic: the same
// input produces byte-identical output ordering on every run.
package engine

import (
	"sort"

	"freightlens/internal/query"
	"freightlens/internal/store"
)

// Input is the path-agnostic row set handed over by the planner. Exactly one
// of Bookings (standard scan) or Summaries (precomputed fast path) is set.
type Input struct {
	Bookings  []store.Booking
	Summaries []store.SummaryRow
}

// ResultRow is one aggregated group.
type ResultRow struct {
	Key string `json:"key"`

	// Lines counts contributing detail lines. Bookings counts distinct
	// bookings; a booking with k lines contributes exactly 1.
	Lines    int `json:"lines"`
	Bookings int `json:"bookings"`

	TEU      float64 `json:"teu"`
	Units    int     `json:"units"`
	WeightKg float64 `json:"weight_kg"`

	// Metric is the value of the requested metric for this group; rows
	// are ordered by it descending.
	Metric float64 `json:"metric"`

	AvgPerBooking float64 `json:"avg_per_booking"`
	AvgPerLine    float64 `json:"avg_per_line"`
}

// ContractMix is the two-way short/long contract split, as percentages of
// total TEU. Zero when the total is zero.
type ContractMix struct {
	ShortPct float64 `json:"short_pct"`
	LongPct  float64 `json:"long_pct"`
}

// CargoMix is the four-way cargo split as percentages of total TEU. A line
// with several flags is classified once: hazardous wins over refrigerated,
// which wins over oversized.
type CargoMix struct {
	StandardPct     float64 `json:"standard_pct"`
	RefrigeratedPct float64 `json:"refrigerated_pct"`
	HazardousPct    float64 `json:"hazardous_pct"`
	OversizedPct    float64 `json:"oversized_pct"`
}

// Statistics is the global rollup computed once over the full result set.
type Statistics struct {
	TotalBookings int     `json:"total_bookings"`
	TotalLines    int     `json:"total_lines"`
	TotalTEU      float64 `json:"total_teu"`
	TotalUnits    int     `json:"total_units"`
	TotalWeightKg float64 `json:"total_weight_kg"`

	ByClient      map[string]int `json:"by_client"`
	ByOriginCtry  map[string]int `json:"by_origin_country"`
	ByDestCtry    map[string]int `json:"by_destination_country"`
	ByMonth       map[string]int `json:"by_month"`
	ByCommodity   map[string]int `json:"by_commodity"` // line counts

	// ClientConcentration is the share of the requested metric held by
	// the top five clients, in percent.
	ClientConcentration float64 `json:"client_concentration"`

	AvgMetricPerBooking float64     `json:"avg_metric_per_booking"`
	ContractMix         ContractMix `json:"contract_mix"`
	CargoMix            CargoMix    `json:"cargo_mix"`
}

// Result is the engine output: ordered groups plus the global statistics.
type Result struct {
	Rows  []ResultRow `json:"rows"`
	Stats Statistics  `json:"stats"`
}

// Aggregate rolls up the input according to the aggregation spec.
//
// includeCancelled is false unless the caller explicitly asked for
// cancelled bookings; when false, cancelled rows are skipped here again
// even though upstream filtering should already have removed them.
func Aggregate(in Input, agg query.Aggregation, includeCancelled bool) *Result {
	if len(in.Summaries) > 0 {
		return aggregateSummaries(in.Summaries, agg)
	}
	return aggregateBookings(in.Bookings, agg, includeCancelled)
}

type groupAcc struct {
	lines    int
	refs     map[string]struct{}
	teu      float64
	units    int
	weightKg float64
}

func aggregateBookings(bookings []store.Booking, agg query.Aggregation, includeCancelled bool) *Result {
	groups := make(map[string]*groupAcc)
	stats := newStatistics()
	clientMetric := make(map[string]float64)

	acc := func(key string) *groupAcc {
		g, ok := groups[key]
		if !ok {
			g = &groupAcc{refs: make(map[string]struct{})}
			groups[key] = g
		}
		return g
	}

	for _, b := range bookings {
		if !includeCancelled && b.Status == query.StatusCancelled {
			continue
		}

		accumulateStats(stats, b)
		clientMetric[b.ClientName] += metricOf(b, agg.Metric)

		if agg.GroupBy.DetailKeyed() {
			// Key derived per detail line (commodity).
			for _, d := range b.Details {
				g := acc(detailKey(d, agg.GroupBy))
				g.lines++
				g.refs[b.Reference] = struct{}{}
				g.teu += d.TEU
				g.units += d.Units
				g.weightKg += d.WeightKg
			}
			continue
		}

		g := acc(bookingKey(b, agg.GroupBy))
		g.refs[b.Reference] = struct{}{}
		for _, d := range b.Details {
			g.lines++
			g.teu += d.TEU
			g.units += d.Units
			g.weightKg += d.WeightKg
		}
	}

	rows := make([]ResultRow, 0, len(groups))
	for key, g := range groups {
		row := ResultRow{
			Key:      key,
			Lines:    g.lines,
			Bookings: len(g.refs),
			TEU:      g.teu,
			Units:    g.units,
			WeightKg: g.weightKg,
		}
		row.Metric = rowMetric(row, agg.Metric)
		row.AvgPerBooking = safeDiv(row.Metric, float64(row.Bookings))
		row.AvgPerLine = safeDiv(row.Metric, float64(row.Lines))
		rows = append(rows, row)
	}
	sortRows(rows)

	finishStatistics(stats, rows, clientMetric, agg.Metric)
	return &Result{Rows: rows, Stats: *stats}
}

func aggregateSummaries(sums []store.SummaryRow, agg query.Aggregation) *Result {
	groups := make(map[string]*ResultRow)
	stats := newStatistics()
	clientMetric := make(map[string]float64)

	for _, r := range sums {
		key := r.Key
		if agg.GroupBy == query.GroupByMonth {
			key = r.Month
		}
		g, ok := groups[key]
		if !ok {
			g = &ResultRow{Key: key}
			groups[key] = g
		}
		g.Bookings += r.Bookings
		g.TEU += r.TEU
		g.Units += r.Units
		g.WeightKg += r.WeightKg

		stats.TotalBookings += r.Bookings
		stats.TotalTEU += r.TEU
		stats.TotalUnits += r.Units
		stats.TotalWeightKg += r.WeightKg
		stats.ByMonth[r.Month] += r.Bookings
		clientMetric[r.Key] += summaryMetric(r, agg.Metric)
	}

	rows := make([]ResultRow, 0, len(groups))
	for _, g := range groups {
		row := *g
		row.Metric = rowMetric(row, agg.Metric)
		row.AvgPerBooking = safeDiv(row.Metric, float64(row.Bookings))
		rows = append(rows, row)
	}
	sortRows(rows)

	// Summary rows carry no detail lines, so line counts and the cargo and
	// contract mixes are not derivable on this path.
	finishStatistics(stats, rows, clientMetric, agg.Metric)
	return &Result{Rows: rows, Stats: *stats}
}

// sortRows orders by metric descending with lexical key order breaking ties,
// so repeated runs over the same data are byte-identical.
func sortRows(rows []ResultRow) {
	sort.SliceStable(rows, func(i, j int) bool {
		if rows[i].Metric != rows[j].Metric {
			return rows[i].Metric > rows[j].Metric
		}
		return rows[i].Key < rows[j].Key
	})
}

func rowMetric(r ResultRow, m query.Metric) float64 {
	switch m {
	case query.MetricTEU:
		return r.TEU
	case query.MetricUnits:
		return float64(r.Units)
	case query.MetricWeight:
		return r.WeightKg
	default:
		return float64(r.Bookings)
	}
}

// metricOf sums a booking's contribution to the requested metric.
// Missing numeric fields were already coerced to zero at scan time; lines
// are never skipped, which would bias the averages.
func metricOf(b store.Booking, m query.Metric) float64 {
	switch m {
	case query.MetricTEU:
		var v float64
		for _, d := range b.Details {
			v += d.TEU
		}
		return v
	case query.MetricUnits:
		var v float64
		for _, d := range b.Details {
			v += float64(d.Units)
		}
		return v
	case query.MetricWeight:
		var v float64
		for _, d := range b.Details {
			v += d.WeightKg
		}
		return v
	default:
		return 1 // one distinct booking
	}
}

func summaryMetric(r store.SummaryRow, m query.Metric) float64 {
	switch m {
	case query.MetricTEU:
		return r.TEU
	case query.MetricUnits:
		return float64(r.Units)
	case query.MetricWeight:
		return r.WeightKg
	default:
		return float64(r.Bookings)
	}
}

func safeDiv(num, den float64) float64 {
	if den == 0 {
		return 0
	}
	return num / den
}
