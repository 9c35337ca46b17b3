package validator

import (
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"

	"freightlens/internal/engine"
	"freightlens/internal/store"
)

var (
	numberPattern = regexp.MustCompile(`\d[\d,]*(?:\.\d+)?`)
	datePattern   = regexp.MustCompile(`\b\d{4}-\d{2}(?:-\d{2})?\b`)
	// placePattern matches capitalized runs of one to three words, the shape
	// of port and country mentions ("Valencia", "New York", "United Arab
	// Emirates" would need four, accepted via the optional connective).
	placePattern = regexp.MustCompile(`\b[A-ZÁÉÍÓÚÜÑ][a-záéíóúüñ]+(?: (?:of |de )?[A-ZÁÉÍÓÚÜÑ][a-záéíóúüñ]+){0,2}\b`)
)

// smallNumberFloor: single-digit values appear in prose for reasons other
// than data claims ("top 5 clients", "2 of which") and are not checked.
const smallNumberFloor = 10

// checkNumbers verifies every significant number in the narrative against
// the values present in the aggregation result. A number nowhere near any
// reference value is a hard error; a near miss is a warning.
func checkNumbers(narrative string, res *engine.Result) (errs, warns []string) {
	refs := referenceValues(res)
	if len(refs) == 0 {
		return nil, nil
	}

	for _, loc := range numberPattern.FindAllStringIndex(narrative, -1) {
		token := narrative[loc[0]:loc[1]]
		if isPercent(narrative, loc[1]) || isDatePart(narrative, loc[0], loc[1]) {
			continue
		}

		value, err := strconv.ParseFloat(strings.ReplaceAll(token, ",", ""), 64)
		if err != nil || value < smallNumberFloor {
			continue
		}
		if value == math.Trunc(value) && value >= 1990 && value <= 2100 {
			continue // bare year mention, owned by the date check
		}

		best := math.Inf(1)
		for _, ref := range refs {
			if ref == 0 {
				continue
			}
			if dev := math.Abs(value-ref) / ref; dev < best {
				best = dev
			}
		}
		switch {
		case best <= numberTolerance:
			// Matches a real value within rounding slack.
		case best <= nearMissTolerance:
			warns = append(warns, fmt.Sprintf("number %s does not closely match any computed value", token))
		default:
			errs = append(errs, fmt.Sprintf("number %s does not appear in the underlying data", token))
		}
	}
	return errs, warns
}

// referenceValues collects every number the narrative could legitimately
// cite: totals, per-group values, and the per-dimension counts.
func referenceValues(res *engine.Result) []float64 {
	s := res.Stats
	refs := []float64{
		float64(s.TotalBookings), float64(s.TotalLines), s.TotalTEU,
		float64(s.TotalUnits), s.TotalWeightKg,
		s.TotalWeightKg / 1000, // narratives often quote tonnes
		s.AvgMetricPerBooking,
	}
	for _, r := range res.Rows {
		refs = append(refs, float64(r.Bookings), float64(r.Lines), r.TEU,
			float64(r.Units), r.WeightKg, r.Metric, r.AvgPerBooking)
	}
	for _, m := range []map[string]int{s.ByClient, s.ByOriginCtry, s.ByDestCtry, s.ByMonth, s.ByCommodity} {
		for _, v := range m {
			refs = append(refs, float64(v))
		}
	}
	return refs
}

// checkDates verifies every date token in the narrative against the dates
// actually present in the source rows. Full calendar dates must match a row
// date exactly; a bare YYYY-MM token only needs its month covered. A
// fabricated date is a hard error regardless of how plausible it looks.
func checkDates(narrative string, bookings []store.Booking) []string {
	dates := make(map[string]struct{})
	months := make(map[string]struct{})
	record := func(d string) {
		if len(d) >= 10 {
			dates[d[:10]] = struct{}{}
		}
		if len(d) >= 7 {
			months[d[:7]] = struct{}{}
		}
	}
	for _, b := range bookings {
		record(b.ConfirmedOn)
		record(b.CancelledOn)
	}
	if len(months) == 0 {
		return nil
	}

	var errs []string
	for _, token := range datePattern.FindAllString(narrative, -1) {
		if len(token) == 10 {
			if _, ok := dates[token]; !ok {
				errs = append(errs, fmt.Sprintf("date %s does not appear in the source rows", token))
			}
			continue
		}
		if _, ok := months[token[:7]]; !ok {
			errs = append(errs, fmt.Sprintf("month %s is outside the analyzed period", token))
		}
	}
	return errs
}

// placeStopList holds capitalized words that start sentences or name
// concepts rather than places. Checked against the first word of a
// candidate mention.
var placeStopList = map[string]struct{}{
	"The": {}, "This": {}, "These": {}, "Those": {}, "There": {},
	"In": {}, "On": {}, "At": {}, "For": {}, "From": {}, "With": {},
	"Over": {}, "During": {}, "Across": {}, "Among": {}, "Between": {},
	"Total": {}, "Overall": {}, "Average": {}, "Most": {}, "Top": {},
	"Bookings": {}, "Shipments": {}, "Volume": {}, "Weight": {},
	"January": {}, "February": {}, "March": {}, "April": {}, "May": {},
	"June": {}, "July": {}, "August": {}, "September": {}, "October": {},
	"November": {}, "December": {},
	"El": {}, "La": {}, "Los": {}, "Las": {}, "Der": {}, "Die": {}, "Das": {},
}

// checkPlaces flags capitalized mentions that look like place or client
// names but appear nowhere in the source rows. Soft warnings only: the
// matcher is a heuristic and prose capitalization is noisy.
func checkPlaces(narrative string, bookings []store.Booking) []string {
	known := make(map[string]struct{})
	add := func(vals ...string) {
		for _, v := range vals {
			if v != "" {
				known[strings.ToLower(v)] = struct{}{}
			}
		}
	}
	for _, b := range bookings {
		add(b.ClientName, b.ClientCode,
			b.OriginPort, b.OriginPortName, b.OriginCountry,
			b.DestinationPort, b.DestinationPortName, b.DestinationCountry)
	}
	if len(known) == 0 {
		return nil
	}

	var warns []string
	seen := make(map[string]struct{})
	for _, mention := range placePattern.FindAllString(narrative, -1) {
		first, _, _ := strings.Cut(mention, " ")
		if _, stop := placeStopList[first]; stop {
			continue
		}
		if len(mention) < 4 { // too short to be a meaningful place claim
			continue
		}
		if _, dup := seen[mention]; dup {
			continue
		}
		seen[mention] = struct{}{}

		if !knownMention(known, mention) {
			warns = append(warns, fmt.Sprintf("name %q not found in the source data", mention))
		}
	}
	return warns
}

// knownMention accepts a mention when it matches, contains, or is contained
// by any known name, so "Port of Valencia" matches "Valencia".
func knownMention(known map[string]struct{}, mention string) bool {
	m := strings.ToLower(mention)
	for k := range known {
		if strings.Contains(m, k) || strings.Contains(k, m) {
			return true
		}
	}
	return false
}

func isPercent(s string, end int) bool {
	for end < len(s) && s[end] == ' ' {
		end++
	}
	if end < len(s) && s[end] == '%' {
		return true
	}
	return strings.HasPrefix(s[end:], "percent") || strings.HasPrefix(s[end:], "pct")
}

// isDatePart reports whether the matched digits sit inside a larger
// hyphenated token, which the date check owns.
func isDatePart(s string, start, end int) bool {
	if start > 0 && s[start-1] == '-' {
		return true
	}
	return end < len(s) && s[end] == '-'
}
