package query

// Normalize applies deterministic rules that correct common extraction
// inconsistencies. It never errors: derivable defaults are forced, not
// rejected.
//
// Rules:
//  1. Quantitative metrics (teu/units/weight) only exist on detail lines,
//     so the aggregation level is forced to detail regardless of what the
//     extraction said.
//  2. Booking counts are a parent-level concept; level defaults to booking.
//  3. Analytic intents with no explicit status filter exclude cancelled
//     bookings.
//  4. An ambiguous query is always a clarification intent, and vice versa.
func Normalize(q StructuredQuery) StructuredQuery {
	if q.Intent == "" {
		q.Intent = IntentSearch
	}
	if q.Aggregation.Metric == "" {
		q.Aggregation.Metric = MetricBookings
	}
	if q.Aggregation.GroupBy == "" {
		q.Aggregation.GroupBy = GroupByClient
	}

	if q.Aggregation.Metric.Quantitative() {
		q.Aggregation.Level = LevelDetail
	} else if q.Aggregation.Level == "" {
		q.Aggregation.Level = LevelBooking
	}

	if q.Intent.Analytic() && q.Filters.Status == "" {
		q.Filters.Status = StatusActive
	}

	if q.Ambiguous {
		q.Intent = IntentClarification
	}
	if q.Intent == IntentClarification {
		q.Ambiguous = true
	}

	return q
}
