package query

import "testing"

func TestNormalizeLevelInvariant(t *testing.T) {
	tests := []struct {
		name   string
		metric Metric
		level  Level
		want   Level
	}{
		{"teu_forces_detail", MetricTEU, LevelBooking, LevelDetail},
		{"units_forces_detail", MetricUnits, "", LevelDetail},
		{"weight_forces_detail", MetricWeight, LevelBooking, LevelDetail},
		{"bookings_defaults_booking", MetricBookings, "", LevelBooking},
		{"bookings_keeps_detail", MetricBookings, LevelDetail, LevelDetail},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			q := Normalize(StructuredQuery{
				Intent:      IntentReport,
				Aggregation: Aggregation{Metric: tt.metric, Level: tt.level},
			})
			if q.Aggregation.Level != tt.want {
				t.Errorf("level = %q, want %q", q.Aggregation.Level, tt.want)
			}
		})
	}
}

func TestNormalizeDefaultStatus(t *testing.T) {
	tests := []struct {
		name   string
		intent Intent
		status string
		want   string
	}{
		{"report_excludes_cancelled", IntentReport, "", StatusActive},
		{"chart_excludes_cancelled", IntentChart, "", StatusActive},
		{"explicit_all_kept", IntentReport, StatusAny, StatusAny},
		{"explicit_cancelled_kept", IntentTable, StatusCancelled, StatusCancelled},
		{"search_is_raw_listing", IntentSearch, "", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			q := Normalize(StructuredQuery{
				Intent:  tt.intent,
				Filters: Filters{Status: tt.status},
			})
			if q.Filters.Status != tt.want {
				t.Errorf("status = %q, want %q", q.Filters.Status, tt.want)
			}
		})
	}
}

func TestNormalizeAmbiguity(t *testing.T) {
	q := Normalize(StructuredQuery{Intent: IntentReport, Ambiguous: true})
	if q.Intent != IntentClarification {
		t.Fatalf("intent = %q, want clarification", q.Intent)
	}
	if !q.Intent.Terminal() {
		t.Fatal("clarification intent must be terminal")
	}
}

func TestNormalizeEmptyQuery(t *testing.T) {
	q := Normalize(StructuredQuery{})
	if q.Intent != IntentSearch {
		t.Errorf("intent = %q, want search", q.Intent)
	}
	if q.Aggregation.Metric != MetricBookings {
		t.Errorf("metric = %q, want bookings", q.Aggregation.Metric)
	}
	if q.Aggregation.Level != LevelBooking {
		t.Errorf("level = %q, want booking", q.Aggregation.Level)
	}
}
