package planner

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"freightlens/internal/engine"
	"freightlens/internal/query"
	"freightlens/internal/store"
)

// mockStore records which store methods the planner touched.
type mockStore struct {
	fetchCalls   int
	clientCalls  []string
	countryCalls []string
	bookings     []store.Booking
	summaries    map[string][]store.SummaryRow // month -> rows
}

func (m *mockStore) FetchBookings(ctx context.Context, f query.Filters, limit int) (*store.FetchResult, error) {
	m.fetchCalls++
	return &store.FetchResult{Bookings: m.bookings}, nil
}

func (m *mockStore) ClientMonthly(ctx context.Context, month, client string) ([]store.SummaryRow, error) {
	m.clientCalls = append(m.clientCalls, month)
	return m.summaries[month], nil
}

func (m *mockStore) CountryMonthly(ctx context.Context, month, country string) ([]store.SummaryRow, error) {
	m.countryCalls = append(m.countryCalls, month)
	return m.summaries[month], nil
}

func (m *mockStore) Close() error { return nil }

func analyticQuery(f query.Filters, g query.GroupBy) query.StructuredQuery {
	return query.Normalize(query.StructuredQuery{
		Intent:      query.IntentReport,
		Filters:     f,
		Aggregation: query.Aggregation{GroupBy: g, Metric: query.MetricTEU},
	})
}

func TestFastPathSelection(t *testing.T) {
	dated := query.Filters{DateFrom: "2025-01-01", DateTo: "2025-03-31"}

	tests := []struct {
		name    string
		filters query.Filters
		groupBy query.GroupBy
		want    Path
	}{
		{"client_grouping_date_only", dated, query.GroupByClient, PathFastClient},
		{"month_grouping_date_only", dated, query.GroupByMonth, PathFastClient},
		{"client_grouping_with_client_filter",
			query.Filters{DateFrom: "2025-01-01", DateTo: "2025-03-31", Client: "acme"},
			query.GroupByClient, PathFastClient},
		{"country_grouping",
			dated, query.GroupByDestCtry, PathFastCountry},
		{"country_grouping_with_country_filter",
			query.Filters{DateFrom: "2025-01-01", DateTo: "2025-03-31", DestinationPort: "Germany"},
			query.GroupByDestCtry, PathFastCountry},

		{"client_plus_geo_forces_standard",
			query.Filters{DateFrom: "2025-01-01", DateTo: "2025-03-31", Client: "acme", DestinationPort: "Germany"},
			query.GroupByClient, PathStandard},
		{"commodity_filter_forces_standard",
			query.Filters{DateFrom: "2025-01-01", DateTo: "2025-03-31", Commodity: "wine"},
			query.GroupByClient, PathStandard},
		{"cargo_flag_forces_standard",
			query.Filters{DateFrom: "2025-01-01", DateTo: "2025-03-31", Refrigerated: true},
			query.GroupByClient, PathStandard},
		{"country_code_filter",
			query.Filters{DateFrom: "2025-01-01", DateTo: "2025-03-31", DestinationPort: "DE"},
			query.GroupByDestCtry, PathFastCountry},
		{"port_code_is_not_a_country",
			query.Filters{DateFrom: "2025-01-01", DateTo: "2025-03-31", DestinationPort: "Hamburg"},
			query.GroupByDestCtry, PathStandard},
		{"unresolvable_country_code_forces_standard",
			query.Filters{DateFrom: "2025-01-01", DateTo: "2025-03-31", DestinationPort: "ZZ"},
			query.GroupByDestCtry, PathStandard},
		{"missing_date_range_forces_standard",
			query.Filters{Client: "acme"}, query.GroupByClient, PathStandard},
		{"commodity_grouping_forces_standard", dated, query.GroupByCommodity, PathStandard},
		{"cancelled_status_forces_standard",
			query.Filters{DateFrom: "2025-01-01", DateTo: "2025-03-31", Status: query.StatusCancelled},
			query.GroupByClient, PathStandard},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ms := &mockStore{summaries: map[string][]store.SummaryRow{}}
			p := New(ms, 100, zap.NewNop())

			rs, err := p.Execute(context.Background(), analyticQuery(tt.filters, tt.groupBy))
			require.NoError(t, err)
			assert.Equal(t, tt.want, rs.Path)
			if tt.want == PathStandard {
				assert.Equal(t, 1, ms.fetchCalls)
				assert.Empty(t, ms.clientCalls)
				assert.Empty(t, ms.countryCalls)
			} else {
				assert.Zero(t, ms.fetchCalls, "fast path must not touch detail data")
			}
		})
	}
}

func TestFastPathMergesMonthsDeterministically(t *testing.T) {
	ms := &mockStore{summaries: map[string][]store.SummaryRow{
		"2025-01": {{Key: "Acme", Month: "2025-01", Bookings: 2, TEU: 4}},
		"2025-02": {{Key: "Acme", Month: "2025-02", Bookings: 1, TEU: 1}},
		"2025-03": {{Key: "Beta", Month: "2025-03", Bookings: 3, TEU: 9}},
	}}
	p := New(ms, 100, zap.NewNop())
	q := analyticQuery(query.Filters{DateFrom: "2025-01-15", DateTo: "2025-03-10"}, query.GroupByClient)

	first, err := p.Execute(context.Background(), q)
	require.NoError(t, err)
	require.Len(t, first.Summaries, 3)
	assert.Equal(t, 6, first.AnalyzedBookings)
	assert.ElementsMatch(t, []string{"2025-01", "2025-02", "2025-03"}, ms.clientCalls)

	// Concurrent sub-queries must merge in calendar order every run.
	for i := 0; i < 20; i++ {
		again, err := p.Execute(context.Background(), q)
		require.NoError(t, err)
		assert.Equal(t, first.Summaries, again.Summaries, "merge order must not depend on scheduling")
	}
}

func TestTerminalIntentNeverReachesStore(t *testing.T) {
	ms := &mockStore{}
	p := New(ms, 100, zap.NewNop())

	q := query.Normalize(query.StructuredQuery{Intent: query.IntentClarification})
	_, err := p.Execute(context.Background(), q)
	assert.ErrorIs(t, err, ErrTerminalIntent)
	assert.Zero(t, ms.fetchCalls)
	assert.Empty(t, ms.clientCalls)
	assert.Empty(t, ms.countryCalls)
}

func TestStandardPathDerivesCoveredPeriod(t *testing.T) {
	ms := &mockStore{bookings: []store.Booking{
		{Reference: "BK1", ConfirmedOn: "2025-02-10", Status: "active"},
		{Reference: "BK2", ConfirmedOn: "2025-01-03", Status: "active"},
		{Reference: "BK3", ConfirmedOn: "2025-04-22", Status: "active"},
	}}
	p := New(ms, 100, zap.NewNop())

	rs, err := p.Execute(context.Background(), analyticQuery(query.Filters{Commodity: "wine"}, query.GroupByClient))
	require.NoError(t, err)
	assert.Equal(t, "2025-01-03", rs.PeriodFrom)
	assert.Equal(t, "2025-04-22", rs.PeriodTo)
	assert.Equal(t, 3, rs.AnalyzedBookings)
}

// TestFastStandardEquivalence checks that grouping by client over a plain
// date range yields the same top-5-by-volume ordering whichever path runs.
func TestFastStandardEquivalence(t *testing.T) {
	s, err := store.Open(":memory:", zap.NewNop())
	require.NoError(t, err)
	defer s.Close()
	require.NoError(t, s.Seed(context.Background(), 300))

	p := New(s, 10000, zap.NewNop())
	filters := query.Filters{DateFrom: "2025-01-01", DateTo: "2025-12-31", Status: query.StatusActive}
	agg := query.Aggregation{GroupBy: query.GroupByClient, Metric: query.MetricTEU, Level: query.LevelDetail}

	fastQ := query.StructuredQuery{Intent: query.IntentReport, Filters: filters, Aggregation: agg}
	fastRS, err := p.Execute(context.Background(), query.Normalize(fastQ))
	require.NoError(t, err)
	require.NotEqual(t, PathStandard, fastRS.Path)

	// Run the same query through the scan path directly; no filter shape
	// forces it without also changing the matched rows.
	stdRS, err := p.executeStandard(context.Background(), query.Normalize(fastQ))
	require.NoError(t, err)

	fast := engine.Aggregate(fastRS.Input, agg, false)
	std := engine.Aggregate(stdRS.Input, agg, false)

	n := 5
	require.GreaterOrEqual(t, len(fast.Rows), n)
	require.GreaterOrEqual(t, len(std.Rows), n)
	for i := 0; i < n; i++ {
		assert.Equal(t, std.Rows[i].Key, fast.Rows[i].Key, "rank %d client differs", i)
		assert.InDelta(t, std.Rows[i].Metric, fast.Rows[i].Metric, 0.01, "rank %d volume differs", i)
	}
	assert.Equal(t, std.Stats.TotalBookings, fast.Stats.TotalBookings)
}

// A 2-letter country code must hit the same rows on both paths: the scan
// matches it against the code column, the summary read against the full
// country name the summary table is keyed by.
func TestFastPathCountryCodeMatchesScan(t *testing.T) {
	s, err := store.Open(":memory:", zap.NewNop())
	require.NoError(t, err)
	defer s.Close()
	require.NoError(t, s.Seed(context.Background(), 300))

	p := New(s, 10000, zap.NewNop())
	q := query.Normalize(query.StructuredQuery{
		Intent: query.IntentReport,
		Filters: query.Filters{
			DateFrom: "2025-01-01", DateTo: "2025-12-31",
			DestinationPort: "DE", Status: query.StatusActive,
		},
		Aggregation: query.Aggregation{GroupBy: query.GroupByDestCtry, Metric: query.MetricTEU},
	})

	fastRS, err := p.Execute(context.Background(), q)
	require.NoError(t, err)
	require.Equal(t, PathFastCountry, fastRS.Path)

	stdRS, err := p.executeStandard(context.Background(), q)
	require.NoError(t, err)

	fast := engine.Aggregate(fastRS.Input, q.Aggregation, false)
	std := engine.Aggregate(stdRS.Input, q.Aggregation, false)

	require.Greater(t, std.Stats.TotalBookings, 0, "seed must produce bookings to Germany")
	assert.Equal(t, std.Stats.TotalBookings, fast.Stats.TotalBookings)
	require.NotEmpty(t, fast.Rows)
	assert.Equal(t, "Germany", fast.Rows[0].Key)
	assert.InDelta(t, std.Rows[0].Metric, fast.Rows[0].Metric, 0.01)
}
