// Package planner chooses how a structured query is served: a fast read of
// precomputed per-period summaries when the filter shape allows it, or the
// full hierarchical scan. Both paths hand the aggregation engine the same
// input shape, so the engine never knows which path ran.
package planner

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"freightlens/internal/engine"
	"freightlens/internal/query"
	"freightlens/internal/store"
)

// ErrTerminalIntent is returned when a clarification query reaches the
// planner. The pipeline must short-circuit before this point; the error
// exists so a broken caller cannot silently hit the data store.
var ErrTerminalIntent = errors.New("planner: clarification intent is terminal, nothing to execute")

// fastPathMaxMonths bounds fan-out of per-month summary sub-queries.
const fastPathMaxMonths = 24

// Path identifies which execution path served the query.
type Path string

const (
	PathStandard    Path = "standard"
	PathFastClient  Path = "fast_client"
	PathFastCountry Path = "fast_country"
)

// RowSet is the planner output: the engine input plus the bookkeeping the
// response discloses (applied filters, covered period, truncation).
type RowSet struct {
	engine.Input

	Path             Path
	Truncated        bool
	AnalyzedBookings int
	AppliedFilters   []string
	PeriodFrom       string
	PeriodTo         string
}

// Planner executes structured queries against the store.
type Planner struct {
	store   store.Store
	maxRows int
	log     *zap.Logger
}

// New creates a planner. maxRows caps standard-path bookings per request.
func New(st store.Store, maxRows int, log *zap.Logger) *Planner {
	if maxRows <= 0 {
		maxRows = 500
	}
	return &Planner{store: st, maxRows: maxRows, log: log}
}

// Execute runs the chosen path and returns the row set.
func (p *Planner) Execute(ctx context.Context, q query.StructuredQuery) (*RowSet, error) {
	if q.Intent.Terminal() {
		return nil, ErrTerminalIntent
	}

	if path, ok := p.fastPathFor(q); ok {
		rs, err := p.executeFast(ctx, q, path)
		if err != nil {
			return nil, err
		}
		p.log.Debug("fast path served query",
			zap.String("path", string(path)),
			zap.Int("rows", len(rs.Summaries)))
		return rs, nil
	}

	return p.executeStandard(ctx, q)
}

// fastPathFor decides summary-table eligibility. The precomputed tables
// only know date, client, and destination country; selecting this path
// with any other live filter would silently ignore it.
func (p *Planner) fastPathFor(q query.StructuredQuery) (Path, bool) {
	f := q.Filters

	// Summaries are maintained over active bookings only.
	if f.Status != "" && f.Status != query.StatusActive {
		return "", false
	}
	if f.HasCargo() || f.Trade != "" {
		return "", false
	}
	// Combining a client filter with a geographic filter always needs the
	// full scan: no summary table carries both dimensions.
	if f.HasClient() && f.HasGeo() {
		return "", false
	}
	if f.DateFrom == "" || f.DateTo == "" {
		return "", false
	}
	if len(monthsBetween(f.DateFrom, f.DateTo)) > fastPathMaxMonths {
		return "", false
	}

	switch q.Aggregation.GroupBy {
	case query.GroupByClient:
		if f.HasGeo() {
			return "", false
		}
		return PathFastClient, true
	case query.GroupByDestCtry:
		if f.HasClient() || f.OriginPort != "" {
			return "", false
		}
		if f.DestinationPort != "" {
			// The summary table keys on full country names; a code that
			// cannot be resolved to one needs the base-table code columns.
			if _, ok := store.ResolveCountry(f.DestinationPort); !ok {
				return "", false
			}
		}
		return PathFastCountry, true
	case query.GroupByMonth:
		if f.HasGeo() {
			if f.OriginPort != "" || f.DestinationPort == "" {
				return "", false
			}
			if _, ok := store.ResolveCountry(f.DestinationPort); !ok {
				return "", false
			}
			return PathFastCountry, true
		}
		return PathFastClient, true
	}
	return "", false
}

// executeFast issues one summary sub-query per month. The sub-queries are
// independent and run concurrently; results land in a slice indexed by
// month position so the merge order never depends on goroutine scheduling.
func (p *Planner) executeFast(ctx context.Context, q query.StructuredQuery, path Path) (*RowSet, error) {
	months := monthsBetween(q.Filters.DateFrom, q.Filters.DateTo)
	perMonth := make([][]store.SummaryRow, len(months))

	country := ""
	if q.Filters.DestinationPort != "" {
		country, _ = store.ResolveCountry(q.Filters.DestinationPort)
	}

	g, gctx := errgroup.WithContext(ctx)
	for i, month := range months {
		g.Go(func() error {
			var (
				rows []store.SummaryRow
				err  error
			)
			switch path {
			case PathFastClient:
				rows, err = p.store.ClientMonthly(gctx, month, q.Filters.Client)
			case PathFastCountry:
				rows, err = p.store.CountryMonthly(gctx, month, country)
			}
			if err != nil {
				return fmt.Errorf("summary fetch %s: %w", month, err)
			}
			perMonth[i] = rows
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	var merged []store.SummaryRow
	analyzed := 0
	for _, rows := range perMonth {
		merged = append(merged, rows...)
		for _, r := range rows {
			analyzed += r.Bookings
		}
	}

	return &RowSet{
		Input:            engine.Input{Summaries: merged},
		Path:             path,
		AnalyzedBookings: analyzed,
		AppliedFilters:   describeFilters(q.Filters),
		PeriodFrom:       q.Filters.DateFrom,
		PeriodTo:         q.Filters.DateTo,
	}, nil
}

func (p *Planner) executeStandard(ctx context.Context, q query.StructuredQuery) (*RowSet, error) {
	res, err := p.store.FetchBookings(ctx, q.Filters, p.maxRows)
	if err != nil {
		return nil, fmt.Errorf("hierarchical fetch: %w", err)
	}

	from, to := q.Filters.DateFrom, q.Filters.DateTo
	if from == "" || to == "" {
		lo, hi := coveredPeriod(res.Bookings)
		if from == "" {
			from = lo
		}
		if to == "" {
			to = hi
		}
	}

	p.log.Debug("standard path served query",
		zap.Int("bookings", len(res.Bookings)),
		zap.Bool("truncated", res.Truncated))

	return &RowSet{
		Input:            engine.Input{Bookings: res.Bookings},
		Path:             PathStandard,
		Truncated:        res.Truncated,
		AnalyzedBookings: len(res.Bookings),
		AppliedFilters:   describeFilters(q.Filters),
		PeriodFrom:       from,
		PeriodTo:         to,
	}, nil
}

// monthsBetween lists the YYYY-MM periods covered by an inclusive date
// range, in calendar order.
func monthsBetween(from, to string) []string {
	start, err := time.Parse("2006-01-02", from)
	if err != nil {
		return nil
	}
	end, err := time.Parse("2006-01-02", to)
	if err != nil || end.Before(start) {
		return nil
	}

	var months []string
	cur := time.Date(start.Year(), start.Month(), 1, 0, 0, 0, 0, time.UTC)
	last := time.Date(end.Year(), end.Month(), 1, 0, 0, 0, 0, time.UTC)
	for !cur.After(last) {
		months = append(months, cur.Format("2006-01"))
		cur = cur.AddDate(0, 1, 0)
	}
	return months
}

// coveredPeriod derives the min and max confirmation dates from a scan.
func coveredPeriod(bookings []store.Booking) (string, string) {
	if len(bookings) == 0 {
		return "", ""
	}
	lo, hi := bookings[0].ConfirmedOn, bookings[0].ConfirmedOn
	for _, b := range bookings[1:] {
		if b.ConfirmedOn < lo {
			lo = b.ConfirmedOn
		}
		if b.ConfirmedOn > hi {
			hi = b.ConfirmedOn
		}
	}
	return lo, hi
}

// describeFilters renders the applied filters for the response, in a fixed
// order so the summary is stable.
func describeFilters(f query.Filters) []string {
	var out []string
	add := func(name, value string) {
		if value != "" {
			out = append(out, name+": "+value)
		}
	}
	if f.HasDateRange() {
		add("period", f.DateFrom+" .. "+f.DateTo)
	}
	add("client", f.Client)
	add("origin", f.OriginPort)
	add("destination", f.DestinationPort)
	add("trade", f.Trade)
	add("status", f.Status)
	add("commodity", f.Commodity)
	var flags []string
	if f.Hazardous {
		flags = append(flags, "hazardous")
	}
	if f.Refrigerated {
		flags = append(flags, "refrigerated")
	}
	if f.Oversized {
		flags = append(flags, "oversized")
	}
	if len(flags) > 0 {
		out = append(out, "cargo: "+strings.Join(flags, ", "))
	}
	sort.Strings(out)
	return out
}
