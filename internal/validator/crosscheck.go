package validator

import (
	"context"
	"fmt"
	"strings"

	"freightlens/internal/engine"
	"freightlens/internal/jsonx"
	"freightlens/internal/llm"
)

const crossCheckSystem = `You are a strict fact checker for logistics analytics.
You get a user question, a computed data summary, and a narrative answer.
Verify that every claim in the narrative is supported by the data summary.
Respond with ONE JSON object and nothing else:
{"valid": true, "issues": []}
List one short issue string per unsupported claim. Do not flag phrasing or
style, only factual mismatches.`

type crossCheckResult struct {
	Valid  bool     `json:"valid"`
	Issues []string `json:"issues"`
}

// crossCheck asks a second model pass whether the narrative is supported by
// the computed result. The caller treats any error as "service unavailable".
func (v *Validator) crossCheck(ctx context.Context, narrative, question string, res *engine.Result) (bool, []string, error) {
	raw, err := v.client.Generate(ctx, llm.Request{
		System:      crossCheckSystem,
		Prompt:      buildCrossCheckPrompt(narrative, question, res),
		Temperature: 0.0,
		MaxTokens:   512,
	})
	if err != nil {
		return false, nil, err
	}

	var out crossCheckResult
	if err := jsonx.Extract(raw, &out); err != nil {
		return false, nil, fmt.Errorf("fact-check response unparseable: %w", err)
	}
	return out.Valid, out.Issues, nil
}

func buildCrossCheckPrompt(narrative, question string, res *engine.Result) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "Question: %s\n\nData summary:\n", question)
	s := res.Stats
	fmt.Fprintf(&sb, "- total bookings: %d, detail lines: %d\n", s.TotalBookings, s.TotalLines)
	fmt.Fprintf(&sb, "- total TEU: %.2f, units: %d, weight: %.0f kg\n", s.TotalTEU, s.TotalUnits, s.TotalWeightKg)

	top := res.Rows
	if len(top) > 10 {
		top = top[:10]
	}
	for _, r := range top {
		fmt.Fprintf(&sb, "- %s: %d bookings, %.2f TEU, %d units, %.0f kg\n",
			r.Key, r.Bookings, r.TEU, r.Units, r.WeightKg)
	}

	fmt.Fprintf(&sb, "\nNarrative to check:\n%s\n\nJSON:", narrative)
	return sb.String()
}
