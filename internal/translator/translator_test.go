package translator

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"freightlens/internal/llm"
	"freightlens/internal/query"
)

type mockLLM struct {
	response string
	err      error
	lastReq  llm.Request
}

func (m *mockLLM) Generate(ctx context.Context, req llm.Request) (string, error) {
	m.lastReq = req
	if m.err != nil {
		return "", m.err
	}
	return m.response, nil
}

func newTestTranslator(m *mockLLM) *Translator {
	tr := New(m, zap.NewNop())
	tr.now = func() time.Time { return testNow }
	return tr
}

func TestTranslateHappyPath(t *testing.T) {
	m := &mockLLM{response: `{
		"intent": "report",
		"filters": {"date_from": "last month", "date_to": "", "client": "acme"},
		"group_by": "client",
		"metric": "teu"
	}`}
	tr := newTestTranslator(m)

	q, err := tr.Translate(context.Background(), "How much volume did Acme ship last month?", nil, nil)
	require.NoError(t, err)

	assert.Equal(t, query.IntentReport, q.Intent)
	assert.Equal(t, "acme", q.Filters.Client)
	assert.Equal(t, "2025-07-01", q.Filters.DateFrom)
	assert.Equal(t, "2025-07-31", q.Filters.DateTo)
	assert.Equal(t, query.MetricTEU, q.Aggregation.Metric)
	assert.Equal(t, query.LevelDetail, q.Aggregation.Level, "quantitative metric forces detail level")
	assert.Equal(t, query.StatusActive, q.Filters.Status, "analytic intent excludes cancelled by default")
	assert.LessOrEqual(t, m.lastReq.Temperature, 0.1, "extraction must use near-zero temperature")
}

func TestTranslateDegradesOnServiceFailure(t *testing.T) {
	m := &mockLLM{err: &llm.StatusError{Code: 503, Message: "unavailable"}}
	tr := newTestTranslator(m)

	q, err := tr.Translate(context.Background(), "volume by client", nil, nil)
	require.NoError(t, err, "extraction failure must not propagate")
	assert.Equal(t, query.IntentSearch, q.Intent)
	assert.Empty(t, q.Filters.Client)
}

func TestTranslateDegradesOnGarbageResponse(t *testing.T) {
	m := &mockLLM{response: "I'm sorry, I can't help with that."}
	tr := newTestTranslator(m)

	q, err := tr.Translate(context.Background(), "volume by client", nil, nil)
	require.NoError(t, err)
	assert.Equal(t, query.IntentSearch, q.Intent)
}

func TestTranslatePropagatesCancellation(t *testing.T) {
	m := &mockLLM{err: context.Canceled}
	tr := newTestTranslator(m)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := tr.Translate(ctx, "volume by client", nil, nil)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestTranslateToleratesWrappedJSON(t *testing.T) {
	m := &mockLLM{response: "Here you go:\n```json\n{\"intent\": \"table\", \"metric\": \"bookings\",}\n```"}
	tr := newTestTranslator(m)

	q, err := tr.Translate(context.Background(), "list bookings", nil, nil)
	require.NoError(t, err)
	assert.Equal(t, query.IntentTable, q.Intent)
}

func TestTranslateAmbiguityShortCircuits(t *testing.T) {
	m := &mockLLM{response: `{
		"intent": "report",
		"ambiguous": true,
		"clarification": "Did you mean Acme Logistics or Acme Chemicals?"
	}`}
	tr := newTestTranslator(m)

	q, err := tr.Translate(context.Background(), "bookings for acme", nil, nil)
	require.NoError(t, err)
	assert.Equal(t, query.IntentClarification, q.Intent)
	assert.True(t, q.Intent.Terminal())
	assert.Contains(t, q.Clarification, "Acme Logistics")
}

func TestOverridesWinOverExtraction(t *testing.T) {
	m := &mockLLM{response: `{
		"intent": "report",
		"filters": {"date_from": "2025-01-01", "date_to": "2025-01-31", "client": "extracted", "origin_port": "CNSHA"},
		"group_by": "client", "metric": "bookings"
	}`}
	tr := newTestTranslator(m)

	ov := &Overrides{
		DateFrom: "2025-06-01",
		DateTo:   "2025-06-30",
		Clients:  []string{"Navitrans"},
		Ports:    []string{"Valencia"},
	}
	q, err := tr.Translate(context.Background(), "bookings in january", nil, ov)
	require.NoError(t, err)

	assert.Equal(t, "2025-06-01", q.Filters.DateFrom)
	assert.Equal(t, "2025-06-30", q.Filters.DateTo)
	assert.Equal(t, "Navitrans", q.Filters.Client)
	assert.Equal(t, "Valencia", q.Filters.OriginPort, "undistinguished port override applies to load side")
	assert.Equal(t, "Valencia", q.Filters.DestinationPort, "and to discharge side")
}

func TestOverridesApplyFirstListEntry(t *testing.T) {
	m := &mockLLM{response: `{"intent": "report", "group_by": "client", "metric": "bookings"}`}
	tr := newTestTranslator(m)

	ov := &Overrides{Clients: []string{"Acme", "Beta"}, Ports: []string{"Valencia", "Hamburg"}}
	q, err := tr.Translate(context.Background(), "bookings", nil, ov)
	require.NoError(t, err)
	assert.Equal(t, "Acme", q.Filters.Client, "single-value filter model keeps the first selection")
	assert.Equal(t, "Valencia", q.Filters.OriginPort)
}

func TestDirectionalPortOverrides(t *testing.T) {
	m := &mockLLM{response: `{"intent": "report", "group_by": "client", "metric": "bookings"}`}
	tr := newTestTranslator(m)

	ov := &Overrides{LoadPorts: []string{"Valencia"}, DischargePorts: []string{"Hamburg"}}
	q, err := tr.Translate(context.Background(), "bookings", nil, ov)
	require.NoError(t, err)
	assert.Equal(t, "Valencia", q.Filters.OriginPort)
	assert.Equal(t, "Hamburg", q.Filters.DestinationPort)
}

func TestHistoryIsIncludedInPrompt(t *testing.T) {
	m := &mockLLM{response: `{"intent": "report", "group_by": "client", "metric": "bookings"}`}
	tr := newTestTranslator(m)

	history := []Turn{
		{Role: "user", Content: "show me Acme's bookings"},
		{Role: "assistant", Content: "Acme had 42 bookings in July."},
	}
	_, err := tr.Translate(context.Background(), "and by volume?", history, nil)
	require.NoError(t, err)
	assert.Contains(t, m.lastReq.Prompt, "show me Acme's bookings")
	assert.Contains(t, m.lastReq.Prompt, "42 bookings in July")
}

func TestDegradedStillAppliesOverrides(t *testing.T) {
	m := &mockLLM{err: errors.New("connection refused")}
	tr := newTestTranslator(m)

	q, err := tr.Translate(context.Background(), "anything", nil, &Overrides{Clients: []string{"Acme"}})
	require.NoError(t, err)
	assert.Equal(t, "Acme", q.Filters.Client)
}
