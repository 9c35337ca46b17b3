package store

import (
	"context"
	"fmt"
	"math/rand"
)

// Seed fills the store with a deterministic demo dataset of n bookings and
// refreshes the precomputed summary tables. Only the seed command and tests
// write to the store; the analytics core is read-only.
func (s *SQLiteStore) Seed(ctx context.Context, n int) error {
	ports := []struct {
		code, name, country, ctryCode string
	}{
		{"ESVLC", "Valencia", "Spain", "ES"},
		{"ESBCN", "Barcelona", "Spain", "ES"},
		{"DEHAM", "Hamburg", "Germany", "DE"},
		{"NLRTM", "Rotterdam", "Netherlands", "NL"},
		{"CNSHA", "Shanghai", "China", "CN"},
		{"SGSIN", "Singapore", "Singapore", "SG"},
		{"USNYC", "New York", "United States", "US"},
		{"BRSSZ", "Santos", "Brazil", "BR"},
		{"AEJEA", "Jebel Ali", "United Arab Emirates", "AE"},
		{"MXVER", "Veracruz", "Mexico", "MX"},
	}
	clients := []struct{ code, name string }{
		{"ACME", "Acme Logistics"},
		{"GLBT", "Global Trade Partners"},
		{"NAVI", "Navitrans Shipping"},
		{"IBEX", "Iberian Exports"},
		{"TRNS", "Transocean Freight"},
		{"MERC", "Mercantil Cargo"},
	}
	commodities := []struct{ name, code string }{
		{"Electronics", "8471"},
		{"Frozen Fish", "0303"},
		{"Machinery Parts", "8431"},
		{"Chemicals", "2811"},
		{"Textiles", "5208"},
		{"Wine", "2204"},
		{"Steel Coils", "7208"},
	}

	rng := rand.New(rand.NewSource(42))

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin seed tx: %w", err)
	}
	defer tx.Rollback()

	insertBooking, err := tx.PrepareContext(ctx, `INSERT INTO bookings
		(reference, client_code, client_name,
		 origin_port, origin_port_name, origin_country, origin_ctry_code,
		 dest_port, dest_port_name, dest_country, dest_ctry_code,
		 confirmed_on, cancelled_on, status, contract_term)
		VALUES (?,?,?,?,?,?,?,?,?,?,?,?,?,?,?)`)
	if err != nil {
		return err
	}
	defer insertBooking.Close()

	insertLine, err := tx.PrepareContext(ctx, `INSERT INTO detail_lines
		(booking_ref, sequence, teu, units, weight_kg,
		 commodity, commodity_code, hazardous, refrigerated, oversized)
		VALUES (?,?,?,?,?,?,?,?,?,?)`)
	if err != nil {
		return err
	}
	defer insertLine.Close()

	for i := 0; i < n; i++ {
		ref := fmt.Sprintf("BK%06d", i+1)
		client := clients[rng.Intn(len(clients))]
		origin := ports[rng.Intn(len(ports))]
		dest := ports[rng.Intn(len(ports))]
		for dest.code == origin.code {
			dest = ports[rng.Intn(len(ports))]
		}

		month := rng.Intn(12) + 1
		day := rng.Intn(28) + 1
		confirmed := fmt.Sprintf("2025-%02d-%02d", month, day)

		status := "active"
		cancelled := any(nil)
		if rng.Intn(10) == 0 {
			status = "cancelled"
			cancelled = fmt.Sprintf("2025-%02d-%02d", month, min(day+3, 28))
		}
		term := "short"
		if rng.Intn(3) == 0 {
			term = "long"
		}

		if _, err := insertBooking.ExecContext(ctx, ref, client.code, client.name,
			origin.code, origin.name, origin.country, origin.ctryCode,
			dest.code, dest.name, dest.country, dest.ctryCode,
			confirmed, cancelled, status, term); err != nil {
			return fmt.Errorf("seed booking %s: %w", ref, err)
		}

		lines := rng.Intn(3) + 1
		for seq := 1; seq <= lines; seq++ {
			com := commodities[rng.Intn(len(commodities))]
			teu := float64(rng.Intn(4)+1) * 0.5
			units := rng.Intn(200) + 1
			weight := any(float64(rng.Intn(20000) + 500))
			if rng.Intn(20) == 0 {
				weight = nil // some lines have no recorded weight
			}
			hazardous := com.code == "2811"
			refrigerated := com.code == "0303"
			oversized := com.code == "8431" && rng.Intn(2) == 0

			if _, err := insertLine.ExecContext(ctx, ref, seq, teu, units, weight,
				com.name, com.code, hazardous, refrigerated, oversized); err != nil {
				return fmt.Errorf("seed line %s/%d: %w", ref, seq, err)
			}
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit seed: %w", err)
	}
	return s.RefreshSummaries(ctx)
}

// RefreshSummaries rebuilds the precomputed per-period tables from the base
// tables. Summaries cover active bookings only, mirroring how the store-side
// materializations are maintained.
func (s *SQLiteStore) RefreshSummaries(ctx context.Context) error {
	stmts := []string{
		`DELETE FROM client_monthly`,
		`INSERT INTO client_monthly (client_name, month, bookings, teu, units, weight_kg)
		 SELECT b.client_name, substr(b.confirmed_on, 1, 7),
		        COUNT(DISTINCT b.reference),
		        SUM(d.teu), SUM(d.units), SUM(COALESCE(d.weight_kg, 0))
		 FROM bookings b JOIN detail_lines d ON d.booking_ref = b.reference
		 WHERE b.status = 'active'
		 GROUP BY b.client_name, substr(b.confirmed_on, 1, 7)`,
		`DELETE FROM country_monthly`,
		`INSERT INTO country_monthly (country, month, bookings, teu, units, weight_kg)
		 SELECT b.dest_country, substr(b.confirmed_on, 1, 7),
		        COUNT(DISTINCT b.reference),
		        SUM(d.teu), SUM(d.units), SUM(COALESCE(d.weight_kg, 0))
		 FROM bookings b JOIN detail_lines d ON d.booking_ref = b.reference
		 WHERE b.status = 'active'
		 GROUP BY b.dest_country, substr(b.confirmed_on, 1, 7)`,
	}
	for _, stmt := range stmts {
		if _, err := s.db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("refresh summaries: %w", err)
		}
	}
	return nil
}
