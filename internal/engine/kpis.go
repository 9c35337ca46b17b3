package engine

import (
	"sort"

	"freightlens/internal/query"
	"freightlens/internal/store"
)

func newStatistics() *Statistics {
	return &Statistics{
		ByClient:     make(map[string]int),
		ByOriginCtry: make(map[string]int),
		ByDestCtry:   make(map[string]int),
		ByMonth:      make(map[string]int),
		ByCommodity:  make(map[string]int),
	}
}

// accumulateStats folds one booking into the global totals and breakdowns.
// Each booking contributes exactly once per breakdown regardless of how
// many detail lines it has.
func accumulateStats(s *Statistics, b store.Booking) {
	s.TotalBookings++
	s.ByClient[b.ClientName]++
	s.ByOriginCtry[b.OriginCountry]++
	s.ByDestCtry[b.DestinationCountry]++
	s.ByMonth[monthOf(b.ConfirmedOn)]++

	var bookingTEU float64
	for _, d := range b.Details {
		s.TotalLines++
		s.TotalTEU += d.TEU
		s.TotalUnits += d.Units
		s.TotalWeightKg += d.WeightKg
		s.ByCommodity[d.Commodity]++
		bookingTEU += d.TEU

		switch {
		case d.Hazardous:
			s.CargoMix.HazardousPct += d.TEU
		case d.Refrigerated:
			s.CargoMix.RefrigeratedPct += d.TEU
		case d.Oversized:
			s.CargoMix.OversizedPct += d.TEU
		default:
			s.CargoMix.StandardPct += d.TEU
		}
	}

	if b.ContractTerm == "long" {
		s.ContractMix.LongPct += bookingTEU
	} else {
		s.ContractMix.ShortPct += bookingTEU
	}
}

// finishStatistics converts the accumulated raw sums into the derived KPIs:
// concentration, averages, and the mix percentages. All ratios are defined
// as zero when their total is zero.
func finishStatistics(s *Statistics, rows []ResultRow, clientMetric map[string]float64, m query.Metric) {
	var metricTotal float64
	for _, r := range rows {
		metricTotal += r.Metric
	}
	s.AvgMetricPerBooking = safeDiv(metricTotal, float64(s.TotalBookings))
	s.ClientConcentration = concentration(clientMetric, 5)

	s.CargoMix = CargoMix{
		StandardPct:     pct(s.CargoMix.StandardPct, s.TotalTEU),
		RefrigeratedPct: pct(s.CargoMix.RefrigeratedPct, s.TotalTEU),
		HazardousPct:    pct(s.CargoMix.HazardousPct, s.TotalTEU),
		OversizedPct:    pct(s.CargoMix.OversizedPct, s.TotalTEU),
	}
	s.ContractMix = ContractMix{
		ShortPct: pct(s.ContractMix.ShortPct, s.TotalTEU),
		LongPct:  pct(s.ContractMix.LongPct, s.TotalTEU),
	}
}

// concentration returns the share (in percent) of the metric total held by
// the top n groups.
func concentration(byGroup map[string]float64, n int) float64 {
	if len(byGroup) == 0 {
		return 0
	}
	values := make([]float64, 0, len(byGroup))
	var total float64
	for _, v := range byGroup {
		values = append(values, v)
		total += v
	}
	if total == 0 {
		return 0
	}
	sort.Sort(sort.Reverse(sort.Float64Slice(values)))
	if n > len(values) {
		n = len(values)
	}
	var top float64
	for _, v := range values[:n] {
		top += v
	}
	return top / total * 100
}

func pct(part, total float64) float64 {
	if total == 0 {
		return 0
	}
	return part / total * 100
}
