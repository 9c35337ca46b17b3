package store

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	_ "github.com/mattn/go-sqlite3"
	"go.uber.org/zap"

	"freightlens/internal/query"
)

// SQLiteStore implements Store on SQLite via database/sql.
type SQLiteStore struct {
	db  *sql.DB
	log *zap.Logger
}

const schema = `
CREATE TABLE IF NOT EXISTS bookings (
	reference        TEXT PRIMARY KEY,
	client_code      TEXT NOT NULL,
	client_name      TEXT NOT NULL,
	origin_port      TEXT NOT NULL,
	origin_port_name TEXT NOT NULL,
	origin_country   TEXT NOT NULL,
	origin_ctry_code TEXT NOT NULL,
	dest_port        TEXT NOT NULL,
	dest_port_name   TEXT NOT NULL,
	dest_country     TEXT NOT NULL,
	dest_ctry_code   TEXT NOT NULL,
	confirmed_on     TEXT NOT NULL,
	cancelled_on     TEXT,
	status           TEXT NOT NULL,
	contract_term    TEXT NOT NULL DEFAULT 'short'
);

CREATE TABLE IF NOT EXISTS detail_lines (
	booking_ref    TEXT NOT NULL REFERENCES bookings(reference),
	sequence       INTEGER NOT NULL,
	teu            REAL NOT NULL DEFAULT 0,
	units          INTEGER NOT NULL DEFAULT 0,
	weight_kg      REAL,
	commodity      TEXT NOT NULL DEFAULT '',
	commodity_code TEXT NOT NULL DEFAULT '',
	hazardous      INTEGER NOT NULL DEFAULT 0,
	refrigerated   INTEGER NOT NULL DEFAULT 0,
	oversized      INTEGER NOT NULL DEFAULT 0,
	PRIMARY KEY (booking_ref, sequence)
);

CREATE INDEX IF NOT EXISTS idx_bookings_confirmed ON bookings(confirmed_on);
CREATE INDEX IF NOT EXISTS idx_bookings_client ON bookings(client_code);

CREATE TABLE IF NOT EXISTS client_monthly (
	client_name TEXT NOT NULL,
	month       TEXT NOT NULL,
	bookings    INTEGER NOT NULL,
	teu         REAL NOT NULL,
	units       INTEGER NOT NULL,
	weight_kg   REAL NOT NULL,
	PRIMARY KEY (client_name, month)
);

CREATE TABLE IF NOT EXISTS country_monthly (
	country   TEXT NOT NULL,
	month     TEXT NOT NULL,
	bookings  INTEGER NOT NULL,
	teu       REAL NOT NULL,
	units     INTEGER NOT NULL,
	weight_kg REAL NOT NULL,
	PRIMARY KEY (country, month)
);
`

// Open opens (and if needed initializes) the store at path.
// Use ":memory:" for tests.
func Open(path string, log *zap.Logger) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	db.SetMaxOpenConns(1)
	if _, err := db.Exec("PRAGMA busy_timeout = 5000"); err != nil {
		log.Debug("set busy_timeout failed", zap.Error(err))
	}
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("initialize schema: %w", err)
	}
	return &SQLiteStore{db: db, log: log}, nil
}

// Close closes the underlying database.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// FetchBookings runs the hierarchical scan. Booking-level predicates are
// pushed into SQL; commodity and cargo-flag predicates are applied to each
// booking's detail-line array afterwards, dropping bookings left with no
// matching lines. Results are ordered by (confirmed_on, reference) so
// repeated runs are byte-identical.
func (s *SQLiteStore) FetchBookings(ctx context.Context, f query.Filters, limit int) (*FetchResult, error) {
	where, args := bookingPredicates(f)

	q := `SELECT reference, client_code, client_name,
		origin_port, origin_port_name, origin_country, origin_ctry_code,
		dest_port, dest_port_name, dest_country, dest_ctry_code,
		confirmed_on, COALESCE(cancelled_on, ''), status, contract_term
	FROM bookings`
	if len(where) > 0 {
		q += " WHERE " + strings.Join(where, " AND ")
	}
	q += " ORDER BY confirmed_on, reference"
	if limit > 0 {
		// One extra row detects truncation without a second count query.
		q += fmt.Sprintf(" LIMIT %d", limit+1)
	}

	rows, err := s.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("fetch bookings: %w", err)
	}
	defer rows.Close()

	var bookings []Booking
	for rows.Next() {
		var b Booking
		if err := rows.Scan(&b.Reference, &b.ClientCode, &b.ClientName,
			&b.OriginPort, &b.OriginPortName, &b.OriginCountry, &b.OriginCountryCode,
			&b.DestinationPort, &b.DestinationPortName, &b.DestinationCountry, &b.DestCountryCode,
			&b.ConfirmedOn, &b.CancelledOn, &b.Status, &b.ContractTerm); err != nil {
			return nil, fmt.Errorf("scan booking: %w", err)
		}
		bookings = append(bookings, b)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("fetch bookings: %w", err)
	}

	truncated := false
	if limit > 0 && len(bookings) > limit {
		truncated = true
		bookings = bookings[:limit]
	}

	if err := s.attachDetails(ctx, bookings); err != nil {
		return nil, err
	}

	if f.HasCargo() {
		bookings = filterDetails(bookings, f)
	}

	s.log.Debug("hierarchical fetch",
		zap.Int("bookings", len(bookings)),
		zap.Bool("truncated", truncated))
	return &FetchResult{Bookings: bookings, Truncated: truncated}, nil
}

// bookingPredicates builds the SQL predicates for booking-level filters.
func bookingPredicates(f query.Filters) (where []string, args []any) {
	switch f.Status {
	case "", query.StatusAny:
		// no restriction
	default:
		where = append(where, "status = ?")
		args = append(args, f.Status)
	}

	if f.DateFrom != "" {
		where = append(where, "confirmed_on >= ?")
		args = append(args, f.DateFrom)
	}
	if f.DateTo != "" {
		where = append(where, "confirmed_on <= ?")
		args = append(args, f.DateTo)
	}

	if f.Client != "" {
		where = append(where, "(LOWER(client_code) LIKE ? OR LOWER(client_name) LIKE ?)")
		like := "%" + strings.ToLower(f.Client) + "%"
		args = append(args, like, like)
	}

	if f.OriginPort != "" {
		w, a := portPredicate(f.OriginPort, "origin_port", "origin_port_name", "origin_country", "origin_ctry_code")
		where = append(where, w)
		args = append(args, a...)
	}
	if f.DestinationPort != "" {
		w, a := portPredicate(f.DestinationPort, "dest_port", "dest_port_name", "dest_country", "dest_ctry_code")
		where = append(where, w)
		args = append(args, a...)
	}

	if f.Trade != "" {
		// Trade lanes are a keyword heuristic over both endpoints.
		like := "%" + strings.ToLower(f.Trade) + "%"
		where = append(where, `(LOWER(origin_port_name) LIKE ? OR LOWER(origin_country) LIKE ?
			OR LOWER(dest_port_name) LIKE ? OR LOWER(dest_country) LIKE ?)`)
		args = append(args, like, like, like, like)
	}

	return where, args
}

// portPredicate matches a port filter value against either the country
// columns (when the value looks like a country) or the port code and
// description columns.
func portPredicate(value, portCol, nameCol, ctryCol, ctryCodeCol string) (string, []any) {
	if LooksLikeCountry(value) {
		return fmt.Sprintf("(LOWER(%s) = ? OR %s = ?)", ctryCol, ctryCodeCol),
			[]any{strings.ToLower(value), strings.ToUpper(value)}
	}
	like := "%" + strings.ToLower(value) + "%"
	return fmt.Sprintf("(LOWER(%s) LIKE ? OR LOWER(%s) LIKE ?)", portCol, nameCol),
		[]any{like, like}
}

// attachDetails loads detail lines for the fetched bookings in one query.
func (s *SQLiteStore) attachDetails(ctx context.Context, bookings []Booking) error {
	if len(bookings) == 0 {
		return nil
	}

	refs := make([]any, len(bookings))
	marks := make([]string, len(bookings))
	byRef := make(map[string]*Booking, len(bookings))
	for i := range bookings {
		refs[i] = bookings[i].Reference
		marks[i] = "?"
		byRef[bookings[i].Reference] = &bookings[i]
	}

	q := `SELECT booking_ref, sequence, teu, units, COALESCE(weight_kg, 0),
		commodity, commodity_code, hazardous, refrigerated, oversized
	FROM detail_lines WHERE booking_ref IN (` + strings.Join(marks, ",") + `)
	ORDER BY booking_ref, sequence`

	rows, err := s.db.QueryContext(ctx, q, refs...)
	if err != nil {
		return fmt.Errorf("fetch detail lines: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var d DetailLine
		if err := rows.Scan(&d.BookingRef, &d.Sequence, &d.TEU, &d.Units, &d.WeightKg,
			&d.Commodity, &d.CommodityCode, &d.Hazardous, &d.Refrigerated, &d.Oversized); err != nil {
			return fmt.Errorf("scan detail line: %w", err)
		}
		if b, ok := byRef[d.BookingRef]; ok {
			b.Details = append(b.Details, d)
		}
	}
	return rows.Err()
}

// filterDetails applies commodity and cargo-flag predicates to each
// booking's line array and drops bookings left with zero matching lines.
func filterDetails(bookings []Booking, f query.Filters) []Booking {
	out := bookings[:0]
	needle := strings.ToLower(f.Commodity)
	for _, b := range bookings {
		kept := b.Details[:0]
		for _, d := range b.Details {
			if needle != "" &&
				!strings.Contains(strings.ToLower(d.Commodity), needle) &&
				!strings.Contains(strings.ToLower(d.CommodityCode), needle) {
				continue
			}
			if f.Hazardous && !d.Hazardous {
				continue
			}
			if f.Refrigerated && !d.Refrigerated {
				continue
			}
			if f.Oversized && !d.Oversized {
				continue
			}
			kept = append(kept, d)
		}
		if len(kept) == 0 {
			continue
		}
		b.Details = kept
		out = append(out, b)
	}
	return out
}

// ClientMonthly reads precomputed per-client rows for one month.
func (s *SQLiteStore) ClientMonthly(ctx context.Context, month, client string) ([]SummaryRow, error) {
	q := `SELECT client_name, month, bookings, teu, units, weight_kg
	FROM client_monthly WHERE month = ?`
	args := []any{month}
	if client != "" {
		q += " AND LOWER(client_name) LIKE ?"
		args = append(args, "%"+strings.ToLower(client)+"%")
	}
	q += " ORDER BY client_name"
	return s.scanSummaries(ctx, q, args...)
}

// CountryMonthly reads precomputed per-destination-country rows for one month.
func (s *SQLiteStore) CountryMonthly(ctx context.Context, month, country string) ([]SummaryRow, error) {
	q := `SELECT country, month, bookings, teu, units, weight_kg
	FROM country_monthly WHERE month = ?`
	args := []any{month}
	if country != "" {
		q += " AND LOWER(country) = ?"
		args = append(args, strings.ToLower(country))
	}
	q += " ORDER BY country"
	return s.scanSummaries(ctx, q, args...)
}

func (s *SQLiteStore) scanSummaries(ctx context.Context, q string, args ...any) ([]SummaryRow, error) {
	rows, err := s.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("fetch summaries: %w", err)
	}
	defer rows.Close()

	var out []SummaryRow
	for rows.Next() {
		var r SummaryRow
		if err := rows.Scan(&r.Key, &r.Month, &r.Bookings, &r.TEU, &r.Units, &r.WeightKg); err != nil {
			return nil, fmt.Errorf("scan summary: %w", err)
		}
		out = append(out, r)
	}
	return out, rows.Err()
}
