// Package query defines the structured query contract shared between the
// natural-language translator, the execution planner, and the aggregation
// engine. It carries no behavior beyond normalization and predicate helpers.
package query

// Intent classifies what the user wants back.
type Intent string

const (
	IntentReport        Intent = "report"
	IntentTable         Intent = "table"
	IntentChart         Intent = "chart"
	IntentSearch        Intent = "search"
	IntentExport        Intent = "export"
	IntentAnalysis      Intent = "analysis"
	IntentClarification Intent = "clarification"
)

// Analytic reports whether the intent aggregates data rather than listing
// raw rows. Analytic intents get the default cancelled-booking exclusion.
func (i Intent) Analytic() bool {
	switch i {
	case IntentReport, IntentTable, IntentChart, IntentAnalysis, IntentExport:
		return true
	}
	return false
}

// Terminal reports whether the pipeline must stop before planning.
// A clarification intent never reaches the data store.
func (i Intent) Terminal() bool {
	return i == IntentClarification
}

// Metric is the quantity being aggregated.
type Metric string

const (
	MetricBookings Metric = "bookings" // distinct booking count
	MetricTEU      Metric = "teu"      // container-equivalent volume
	MetricUnits    Metric = "units"    // unit count
	MetricWeight   Metric = "weight"   // net weight in kg
)

// Quantitative reports whether the metric lives on detail lines.
// Quantitative metrics do not exist on the booking itself, so they force
// detail-level aggregation.
func (m Metric) Quantitative() bool {
	switch m {
	case MetricTEU, MetricUnits, MetricWeight:
		return true
	}
	return false
}

// GroupBy is the grouping dimension for aggregation.
type GroupBy string

const (
	GroupByClient     GroupBy = "client"
	GroupByOriginPort GroupBy = "origin_port"
	GroupByDestPort   GroupBy = "destination_port"
	GroupByOriginCtry GroupBy = "origin_country"
	GroupByDestCtry   GroupBy = "destination_country"
	GroupByTrade      GroupBy = "trade"
	GroupByMonth      GroupBy = "month"
	GroupByStatus     GroupBy = "status"
	GroupByCommodity  GroupBy = "commodity"
)

// DetailKeyed reports whether the group key is derived from the detail line
// rather than the parent booking.
func (g GroupBy) DetailKeyed() bool {
	return g == GroupByCommodity
}

// Level is the aggregation level.
type Level string

const (
	LevelBooking Level = "booking" // counts over parent records
	LevelDetail  Level = "detail"  // sums over detail lines
)

// Status filter values. Empty means "not requested", which normalization
// resolves to active-only for analytic intents.
const (
	StatusAny       = "all"
	StatusActive    = "active"
	StatusCancelled = "cancelled"
)

// Filters is the filter set extracted from the question plus any UI
// overrides. Empty string / false means the dimension is unconstrained.
type Filters struct {
	DateFrom string `json:"date_from"` // inclusive, YYYY-MM-DD
	DateTo   string `json:"date_to"`   // inclusive, YYYY-MM-DD

	Client          string `json:"client"`           // substring match on code or name
	OriginPort      string `json:"origin_port"`      // port code/description, or country
	DestinationPort string `json:"destination_port"` // port code/description, or country
	Trade           string `json:"trade"`            // trade-lane keyword
	Status          string `json:"status"`           // "", all, active, cancelled
	Commodity       string `json:"commodity"`        // detail-level substring match

	Hazardous    bool `json:"hazardous"`
	Refrigerated bool `json:"refrigerated"`
	Oversized    bool `json:"oversized"`
}

// HasDateRange reports whether an explicit date window is set.
func (f Filters) HasDateRange() bool { return f.DateFrom != "" || f.DateTo != "" }

// HasClient reports whether a client filter is set.
func (f Filters) HasClient() bool { return f.Client != "" }

// HasGeo reports whether any port, country, or trade-lane filter is set.
func (f Filters) HasGeo() bool {
	return f.OriginPort != "" || f.DestinationPort != "" || f.Trade != ""
}

// HasCargo reports whether any detail-level predicate is set.
// Cargo predicates are not represented in precomputed summaries.
func (f Filters) HasCargo() bool {
	return f.Commodity != "" || f.Hazardous || f.Refrigerated || f.Oversized
}

// Aggregation describes how matching rows are rolled up.
type Aggregation struct {
	GroupBy GroupBy `json:"group_by"`
	Metric  Metric  `json:"metric"`
	Level   Level   `json:"level"`
}

// StructuredQuery is the normalized representation of an analytic question.
// Produced by the translator, consumed by the planner and engine.
type StructuredQuery struct {
	Intent      Intent      `json:"intent"`
	Filters     Filters     `json:"filters"`
	Aggregation Aggregation `json:"aggregation"`

	// Language is a best-effort tag ("en", "es", ...) used only to pick
	// the narrative language. It has no filter semantics.
	Language string `json:"language"`

	// Ambiguous marks a question with several equally plausible readings.
	// When set, Intent is clarification and Clarification holds the
	// question to send back to the user.
	Ambiguous     bool   `json:"ambiguous"`
	Clarification string `json:"clarification,omitempty"`
}
