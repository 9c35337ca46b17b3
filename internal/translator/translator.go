// Package translator turns a free-form question, the recent conversation
// window, and optional UI filter overrides into a normalized structured
// query. It issues one structured-extraction call to the text-generation
// service; when the service fails or returns garbage it degrades to a bare
// search intent instead of propagating an error.
package translator

import (
	"context"
	"time"

	"go.uber.org/zap"

	"freightlens/internal/jsonx"
	"freightlens/internal/llm"
	"freightlens/internal/query"
)

// Turn is one prior conversation exchange.
type Turn struct {
	Role    string `json:"role"` // "user" or "assistant"
	Content string `json:"content"`
}

// Overrides are UI-supplied filters that always win over model-extracted
// values for the date, client, and port dimensions. The structured query
// holds one value per dimension, so only the first entry of each list is
// applied; narrowing a multi-selection to one value is the caller's job.
type Overrides struct {
	DateFrom string
	DateTo   string

	Clients []string

	// Ports applies to both load and discharge dimensions. LoadPorts and
	// DischargePorts target one side only.
	Ports          []string
	LoadPorts      []string
	DischargePorts []string

	Trades []string
}

// extraction is the wire shape of the structured-extraction contract.
// Everything is a loose string; mapping to the typed query happens after
// parsing succeeds.
type extraction struct {
	Intent  string `json:"intent"`
	Filters struct {
		DateFrom        string `json:"date_from"`
		DateTo          string `json:"date_to"`
		Client          string `json:"client"`
		OriginPort      string `json:"origin_port"`
		DestinationPort string `json:"destination_port"`
		Trade           string `json:"trade"`
		Status          string `json:"status"`
		Commodity       string `json:"commodity"`
		Hazardous       bool   `json:"hazardous"`
		Refrigerated    bool   `json:"refrigerated"`
		Oversized       bool   `json:"oversized"`
	} `json:"filters"`
	GroupBy       string `json:"group_by"`
	Metric        string `json:"metric"`
	Level         string `json:"level"`
	Ambiguous     bool   `json:"ambiguous"`
	Clarification string `json:"clarification"`
}

// Translator converts questions into structured queries.
type Translator struct {
	client llm.Client
	log    *zap.Logger
	now    func() time.Time
}

// New creates a translator. The llm client is injected so tests can run
// against a mock service.
func New(client llm.Client, log *zap.Logger) *Translator {
	return &Translator{client: client, log: log, now: time.Now}
}

// Translate produces a normalized structured query. It never returns an
// error for extraction failures; those degrade to a search intent with
// empty filters so the caller can still answer something.
func (t *Translator) Translate(ctx context.Context, question string, history []Turn, ov *Overrides) (query.StructuredQuery, error) {
	now := t.now()
	lang := detectLanguage(question)

	raw, err := t.client.Generate(ctx, llm.Request{
		System:      extractionSystem,
		Prompt:      buildExtractionPrompt(question, history, now),
		Temperature: 0.05, // near-deterministic decoding for the schema contract
		MaxTokens:   1024,
	})
	if err != nil {
		if ctx.Err() != nil {
			return query.StructuredQuery{}, ctx.Err()
		}
		t.log.Warn("extraction call failed, degrading to search intent", zap.Error(err))
		return t.degraded(lang, ov, now), nil
	}

	var ex extraction
	if err := jsonx.Extract(raw, &ex); err != nil {
		t.log.Warn("extraction response unparseable, degrading to search intent",
			zap.Error(err), zap.String("response", firstN(raw, 120)))
		return t.degraded(lang, ov, now), nil
	}

	q := query.StructuredQuery{
		Intent: query.Intent(ex.Intent),
		Filters: query.Filters{
			Client:          ex.Filters.Client,
			OriginPort:      ex.Filters.OriginPort,
			DestinationPort: ex.Filters.DestinationPort,
			Trade:           ex.Filters.Trade,
			Status:          ex.Filters.Status,
			Commodity:       ex.Filters.Commodity,
			Hazardous:       ex.Filters.Hazardous,
			Refrigerated:    ex.Filters.Refrigerated,
			Oversized:       ex.Filters.Oversized,
		},
		Aggregation: query.Aggregation{
			GroupBy: query.GroupBy(ex.GroupBy),
			Metric:  query.Metric(ex.Metric),
			Level:   query.Level(ex.Level),
		},
		Language:      lang,
		Ambiguous:     ex.Ambiguous,
		Clarification: ex.Clarification,
	}
	q.Filters.DateFrom, q.Filters.DateTo = resolveRange(ex.Filters.DateFrom, ex.Filters.DateTo, now)

	applyOverrides(&q.Filters, ov, now)
	return query.Normalize(q), nil
}

// degraded is the extraction-failure fallback: a raw search with only the
// UI overrides applied.
func (t *Translator) degraded(lang string, ov *Overrides, now time.Time) query.StructuredQuery {
	q := query.StructuredQuery{Intent: query.IntentSearch, Language: lang}
	applyOverrides(&q.Filters, ov, now)
	return query.Normalize(q)
}

// applyOverrides forces UI-selected filters over extracted ones. A plain
// port override carries no load/discharge distinction, so it applies to
// both dimensions.
func applyOverrides(f *query.Filters, ov *Overrides, now time.Time) {
	if ov == nil {
		return
	}
	if ov.DateFrom != "" || ov.DateTo != "" {
		f.DateFrom, f.DateTo = resolveRange(ov.DateFrom, ov.DateTo, now)
	}
	if len(ov.Clients) > 0 {
		f.Client = ov.Clients[0]
	}
	if len(ov.Ports) > 0 {
		f.OriginPort = ov.Ports[0]
		f.DestinationPort = ov.Ports[0]
	}
	if len(ov.LoadPorts) > 0 {
		f.OriginPort = ov.LoadPorts[0]
	}
	if len(ov.DischargePorts) > 0 {
		f.DestinationPort = ov.DischargePorts[0]
	}
	if len(ov.Trades) > 0 {
		f.Trade = ov.Trades[0]
	}
}

func firstN(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
