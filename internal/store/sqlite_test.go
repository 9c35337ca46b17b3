package store

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"freightlens/internal/query"
)

func openTestStore(t *testing.T) *SQLiteStore {
	t.Helper()
	s, err := Open(":memory:", zap.NewNop())
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func insertBooking(t *testing.T, s *SQLiteStore, b Booking) {
	t.Helper()
	var cancelled any
	if b.CancelledOn != "" {
		cancelled = b.CancelledOn
	}
	_, err := s.db.Exec(`INSERT INTO bookings VALUES (?,?,?,?,?,?,?,?,?,?,?,?,?,?,?)`,
		b.Reference, b.ClientCode, b.ClientName,
		b.OriginPort, b.OriginPortName, b.OriginCountry, b.OriginCountryCode,
		b.DestinationPort, b.DestinationPortName, b.DestinationCountry, b.DestCountryCode,
		b.ConfirmedOn, cancelled, b.Status, b.ContractTerm)
	require.NoError(t, err)
	for _, d := range b.Details {
		var weight any = d.WeightKg
		if d.WeightKg < 0 { // sentinel for NULL in fixtures
			weight = nil
		}
		_, err := s.db.Exec(`INSERT INTO detail_lines VALUES (?,?,?,?,?,?,?,?,?,?)`,
			b.Reference, d.Sequence, d.TEU, d.Units, weight,
			d.Commodity, d.CommodityCode, d.Hazardous, d.Refrigerated, d.Oversized)
		require.NoError(t, err)
	}
}

func fixtureBooking(ref, client, clientName, confirmed string, details ...DetailLine) Booking {
	return Booking{
		Reference: ref, ClientCode: client, ClientName: clientName,
		OriginPort: "ESVLC", OriginPortName: "Valencia",
		OriginCountry: "Spain", OriginCountryCode: "ES",
		DestinationPort: "DEHAM", DestinationPortName: "Hamburg",
		DestinationCountry: "Germany", DestCountryCode: "DE",
		ConfirmedOn: confirmed, Status: "active", ContractTerm: "short",
		Details: details,
	}
}

func TestFetchBookingsDateAndClient(t *testing.T) {
	s := openTestStore(t)
	insertBooking(t, s, fixtureBooking("BK1", "ACME", "Acme Logistics", "2025-03-10",
		DetailLine{Sequence: 1, TEU: 2, Units: 10, WeightKg: 1000, Commodity: "Wine"}))
	insertBooking(t, s, fixtureBooking("BK2", "GLBT", "Global Trade", "2025-03-12",
		DetailLine{Sequence: 1, TEU: 1, Units: 5, WeightKg: 500, Commodity: "Steel"}))
	insertBooking(t, s, fixtureBooking("BK3", "ACME", "Acme Logistics", "2025-06-01",
		DetailLine{Sequence: 1, TEU: 3, Units: 7, WeightKg: 700, Commodity: "Wine"}))

	res, err := s.FetchBookings(context.Background(), query.Filters{
		DateFrom: "2025-03-01", DateTo: "2025-03-31", Client: "acme",
	}, 100)
	require.NoError(t, err)
	require.Len(t, res.Bookings, 1)
	assert.Equal(t, "BK1", res.Bookings[0].Reference)
	require.Len(t, res.Bookings[0].Details, 1)
	assert.False(t, res.Truncated)
}

func TestFetchBookingsCountryClassification(t *testing.T) {
	s := openTestStore(t)
	insertBooking(t, s, fixtureBooking("BK1", "ACME", "Acme Logistics", "2025-03-10",
		DetailLine{Sequence: 1, TEU: 2, Units: 10, WeightKg: 1000}))

	// 2-letter code resolves to origin country, not port code.
	res, err := s.FetchBookings(context.Background(), query.Filters{OriginPort: "ES"}, 0)
	require.NoError(t, err)
	assert.Len(t, res.Bookings, 1)

	// Country name resolves the same way.
	res, err = s.FetchBookings(context.Background(), query.Filters{OriginPort: "Spain"}, 0)
	require.NoError(t, err)
	assert.Len(t, res.Bookings, 1)

	// Port description still substring-matches.
	res, err = s.FetchBookings(context.Background(), query.Filters{OriginPort: "valenc"}, 0)
	require.NoError(t, err)
	assert.Len(t, res.Bookings, 1)

	res, err = s.FetchBookings(context.Background(), query.Filters{OriginPort: "Germany"}, 0)
	require.NoError(t, err)
	assert.Empty(t, res.Bookings)
}

func TestFetchBookingsDetailPredicatesDropEmptyBookings(t *testing.T) {
	s := openTestStore(t)
	insertBooking(t, s, fixtureBooking("BK1", "ACME", "Acme Logistics", "2025-03-10",
		DetailLine{Sequence: 1, TEU: 2, Units: 10, WeightKg: 100, Commodity: "Frozen Fish", Refrigerated: true},
		DetailLine{Sequence: 2, TEU: 1, Units: 4, WeightKg: 50, Commodity: "Wine"}))
	insertBooking(t, s, fixtureBooking("BK2", "GLBT", "Global Trade", "2025-03-11",
		DetailLine{Sequence: 1, TEU: 1, Units: 2, WeightKg: 20, Commodity: "Steel Coils"}))

	res, err := s.FetchBookings(context.Background(), query.Filters{Refrigerated: true}, 0)
	require.NoError(t, err)
	require.Len(t, res.Bookings, 1, "bookings with no matching lines are dropped")
	assert.Equal(t, "BK1", res.Bookings[0].Reference)
	require.Len(t, res.Bookings[0].Details, 1, "non-matching lines are filtered out")
	assert.Equal(t, "Frozen Fish", res.Bookings[0].Details[0].Commodity)
}

func TestFetchBookingsRowCap(t *testing.T) {
	s := openTestStore(t)
	for i := 0; i < 5; i++ {
		ref := string(rune('A' + i))
		insertBooking(t, s, fixtureBooking("BK"+ref, "ACME", "Acme Logistics", "2025-03-10",
			DetailLine{Sequence: 1, TEU: 1, Units: 1, WeightKg: 1}))
	}

	res, err := s.FetchBookings(context.Background(), query.Filters{}, 3)
	require.NoError(t, err)
	assert.Len(t, res.Bookings, 3)
	assert.True(t, res.Truncated, "cap below matching total must flag truncation")

	res, err = s.FetchBookings(context.Background(), query.Filters{}, 5)
	require.NoError(t, err)
	assert.Len(t, res.Bookings, 5)
	assert.False(t, res.Truncated)
}

func TestNullWeightScansAsZero(t *testing.T) {
	s := openTestStore(t)
	insertBooking(t, s, fixtureBooking("BK1", "ACME", "Acme Logistics", "2025-03-10",
		DetailLine{Sequence: 1, TEU: 2, Units: 10, WeightKg: -1 /* NULL */, Commodity: "Wine"}))

	res, err := s.FetchBookings(context.Background(), query.Filters{}, 0)
	require.NoError(t, err)
	require.Len(t, res.Bookings, 1)
	require.Len(t, res.Bookings[0].Details, 1)
	assert.Zero(t, res.Bookings[0].Details[0].WeightKg)
}

func TestSeedAndSummariesAgreeWithBaseTables(t *testing.T) {
	s := openTestStore(t)
	require.NoError(t, s.Seed(context.Background(), 200))

	rows, err := s.ClientMonthly(context.Background(), "2025-03", "")
	require.NoError(t, err)
	require.NotEmpty(t, rows)

	// Cross-check one summary row against a direct scan.
	res, err := s.FetchBookings(context.Background(), query.Filters{
		DateFrom: "2025-03-01", DateTo: "2025-03-31",
		Client: rows[0].Key, Status: query.StatusActive,
	}, 0)
	require.NoError(t, err)

	var teu float64
	bookings := 0
	for _, b := range res.Bookings {
		bookings++
		for _, d := range b.Details {
			teu += d.TEU
		}
	}
	assert.Equal(t, rows[0].Bookings, bookings)
	assert.InDelta(t, rows[0].TEU, teu, 0.001)
}

func TestCountryMonthlyFilter(t *testing.T) {
	s := openTestStore(t)
	require.NoError(t, s.Seed(context.Background(), 100))

	all, err := s.CountryMonthly(context.Background(), "2025-06", "")
	require.NoError(t, err)
	require.NotEmpty(t, all)

	one, err := s.CountryMonthly(context.Background(), "2025-06", all[0].Key)
	require.NoError(t, err)
	require.Len(t, one, 1)
	assert.Equal(t, all[0], one[0])
}
