// Package store is the read boundary to the relational booking data store.
// It exposes a two-level hierarchy: bookings (parent) and detail lines
// (children carrying the quantitative payload), plus precomputed per-period
// summary tables the planner's fast path reads. The core never writes;
// the seed helper exists only for demos and tests.
package store

import (
	"context"

	"freightlens/internal/query"
)

// Booking is one shipment reservation. Metrics live only on its detail
// lines; a booking alone is zero-valued.
type Booking struct {
	Reference string

	ClientCode string
	ClientName string

	OriginPort          string // UN/LOCODE-style port code
	OriginPortName      string
	OriginCountry       string // full country name
	OriginCountryCode   string // 2-letter code
	DestinationPort     string
	DestinationPortName string
	DestinationCountry  string
	DestCountryCode     string

	ConfirmedOn  string // YYYY-MM-DD
	CancelledOn  string // empty when not cancelled
	Status       string // query.StatusActive or query.StatusCancelled
	ContractTerm string // "short" or "long"

	Details []DetailLine
}

// DetailLine carries the quantitative payload, keyed by (booking reference,
// sequence number).
type DetailLine struct {
	BookingRef string
	Sequence   int

	TEU      float64 // container-equivalent volume
	Units    int
	WeightKg float64 // NULL in the store scans as 0

	Commodity     string
	CommodityCode string

	Hazardous    bool
	Refrigerated bool
	Oversized    bool
}

// SummaryRow is one precomputed per-period aggregate (per client or per
// destination country, per month).
type SummaryRow struct {
	Key      string // client name or country name
	Month    string // YYYY-MM
	Bookings int
	TEU      float64
	Units    int
	WeightKg float64
}

// FetchResult is the standard-path row set.
type FetchResult struct {
	Bookings []Booking

	// Truncated is set when the row cap cut off a larger matching total.
	Truncated bool
}

// Store is the data-store contract the planner depends on.
type Store interface {
	// FetchBookings runs the hierarchical scan: booking-level predicates
	// in SQL, detail-level predicates applied to each booking's line
	// array. limit caps returned bookings.
	FetchBookings(ctx context.Context, f query.Filters, limit int) (*FetchResult, error)

	// ClientMonthly reads the per-client summary rows for one month,
	// optionally restricted to clients matching the filter substring.
	ClientMonthly(ctx context.Context, month, client string) ([]SummaryRow, error)

	// CountryMonthly reads the per-destination-country summary rows for
	// one month, optionally restricted to one country.
	CountryMonthly(ctx context.Context, month, country string) ([]SummaryRow, error)

	Close() error
}
