package translator

import (
	"strings"
	"time"
)

const dateLayout = "2006-01-02"

// resolveRange turns the extracted date expressions into a normalized
// calendar-date window. Either expression may be an explicit date, a
// YYYY-MM month, or a relative phrase ("last quarter", "this month").
// A relative phrase in the from position fills both bounds when the to
// position is empty or repeats the phrase. Invalid expressions fall back
// to the current date rather than failing the request.
func resolveRange(fromExpr, toExpr string, now time.Time) (string, string) {
	fromExpr = strings.ToLower(strings.TrimSpace(fromExpr))
	toExpr = strings.ToLower(strings.TrimSpace(toExpr))

	if lo, hi, ok := relativeWindow(fromExpr, now); ok {
		if toExpr == "" || toExpr == fromExpr {
			return lo, hi
		}
		return lo, resolveBound(toExpr, now, true)
	}
	if lo, hi, ok := relativeWindow(toExpr, now); ok {
		if fromExpr == "" {
			return lo, hi
		}
		return resolveBound(fromExpr, now, false), hi
	}

	return resolveBound(fromExpr, now, false), resolveBound(toExpr, now, true)
}

// relativeWindow expands a relative phrase into an inclusive date window.
func relativeWindow(expr string, now time.Time) (string, string, bool) {
	y, m, _ := now.Date()
	loc := now.Location()

	monthWindow := func(t time.Time) (string, string) {
		first := time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, loc)
		last := first.AddDate(0, 1, -1)
		return first.Format(dateLayout), last.Format(dateLayout)
	}
	quarterWindow := func(t time.Time) (string, string) {
		qStart := time.Month((int(t.Month())-1)/3*3 + 1)
		first := time.Date(t.Year(), qStart, 1, 0, 0, 0, 0, loc)
		last := first.AddDate(0, 3, -1)
		return first.Format(dateLayout), last.Format(dateLayout)
	}
	yearWindow := func(year int) (string, string) {
		return time.Date(year, 1, 1, 0, 0, 0, 0, loc).Format(dateLayout),
			time.Date(year, 12, 31, 0, 0, 0, 0, loc).Format(dateLayout)
	}

	switch expr {
	case "today":
		d := now.Format(dateLayout)
		return d, d, true
	case "yesterday":
		d := now.AddDate(0, 0, -1).Format(dateLayout)
		return d, d, true
	case "this week":
		offset := (int(now.Weekday()) + 6) % 7 // Monday start
		lo := now.AddDate(0, 0, -offset)
		return lo.Format(dateLayout), lo.AddDate(0, 0, 6).Format(dateLayout), true
	case "this month":
		lo, hi := monthWindow(now)
		return lo, hi, true
	case "last month":
		lo, hi := monthWindow(time.Date(y, m, 1, 0, 0, 0, 0, loc).AddDate(0, -1, 0))
		return lo, hi, true
	case "this quarter":
		lo, hi := quarterWindow(now)
		return lo, hi, true
	case "last quarter":
		lo, hi := quarterWindow(time.Date(y, m, 1, 0, 0, 0, 0, loc).AddDate(0, -3, 0))
		return lo, hi, true
	case "this year":
		lo, hi := yearWindow(y)
		return lo, hi, true
	case "last year":
		lo, hi := yearWindow(y - 1)
		return lo, hi, true
	}
	return "", "", false
}

// resolveBound normalizes a single date expression. end selects the last
// day when the expression names a whole month.
func resolveBound(expr string, now time.Time, end bool) string {
	if expr == "" {
		return ""
	}
	if t, err := time.Parse(dateLayout, expr); err == nil {
		return t.Format(dateLayout)
	}
	if t, err := time.Parse("2006-01", expr); err == nil {
		if end {
			return t.AddDate(0, 1, -1).Format(dateLayout)
		}
		return t.Format(dateLayout)
	}
	// Unparseable: fall back to the current date instead of failing.
	return now.Format(dateLayout)
}
