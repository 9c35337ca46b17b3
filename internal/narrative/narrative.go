// Package narrative turns an aggregation result into a short written answer
// in the user's language. Generation goes through the text service; when
// that fails the package falls back to a deterministic template so the
// caller always gets prose.
package narrative

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"freightlens/internal/engine"
	"freightlens/internal/llm"
	"freightlens/internal/query"
)

// topRowsInPrompt caps how many groups the prompt lists; the tail adds
// tokens without adding narrative value.
const topRowsInPrompt = 8

// Generator writes narratives.
type Generator struct {
	client llm.Client
	log    *zap.Logger
}

func New(client llm.Client, log *zap.Logger) *Generator {
	return &Generator{client: client, log: log}
}

// Generate produces the narrative for one answered question. Fallback is
// the only failure mode; the error return covers context cancellation only.
func (g *Generator) Generate(ctx context.Context, question string, q query.StructuredQuery, res *engine.Result) (string, error) {
	if g.client == nil {
		return fallback(q, res), nil
	}

	raw, err := g.client.Generate(ctx, llm.Request{
		System:      narrativeSystem(q.Language),
		Prompt:      buildNarrativePrompt(question, q, res),
		Temperature: 0.3,
		MaxTokens:   512,
	})
	if err != nil {
		if ctx.Err() != nil {
			return "", ctx.Err()
		}
		g.log.Warn("narrative generation failed, using template", zap.Error(err))
		return fallback(q, res), nil
	}

	text := strings.TrimSpace(raw)
	if text == "" {
		return fallback(q, res), nil
	}
	return text, nil
}

func narrativeSystem(lang string) string {
	name := map[string]string{"es": "Spanish", "de": "German"}[lang]
	if name == "" {
		name = "English"
	}
	return fmt.Sprintf(`You write concise analytics summaries for shipping operations staff.
Answer in %s, in two to four sentences of plain prose, no headings or bullet lists.
Use ONLY the numbers given in the data section. Never invent figures, dates, or names.
Round freely but do not change magnitudes.`, name)
}

func buildNarrativePrompt(question string, q query.StructuredQuery, res *engine.Result) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "Question: %s\n\n", question)
	fmt.Fprintf(&sb, "Grouped by %s, metric %s.\n", q.Aggregation.GroupBy, q.Aggregation.Metric)

	s := res.Stats
	fmt.Fprintf(&sb, "Totals: %d bookings, %.1f TEU, %d units, %.0f kg.\n",
		s.TotalBookings, s.TotalTEU, s.TotalUnits, s.TotalWeightKg)
	if s.ClientConcentration > 0 {
		fmt.Fprintf(&sb, "Top-5 client concentration: %.1f%%.\n", s.ClientConcentration)
	}

	sb.WriteString("\nGroups:\n")
	for i, r := range res.Rows {
		if i == topRowsInPrompt {
			fmt.Fprintf(&sb, "(and %d more)\n", len(res.Rows)-topRowsInPrompt)
			break
		}
		fmt.Fprintf(&sb, "- %s: %d bookings, %.1f TEU, %d units, %.0f kg\n",
			r.Key, r.Bookings, r.TEU, r.Units, r.WeightKg)
	}

	sb.WriteString("\nSummary:")
	return sb.String()
}

// fallback is the template used when generation is unavailable. Intentionally
// plain: correct and dull beats eloquent and wrong.
func fallback(q query.StructuredQuery, res *engine.Result) string {
	s := res.Stats
	if s.TotalBookings == 0 {
		switch q.Language {
		case "es":
			return "No se encontraron envíos para los filtros seleccionados."
		case "de":
			return "Für die gewählten Filter wurden keine Buchungen gefunden."
		}
		return "No bookings matched the selected filters."
	}

	lead := ""
	if len(res.Rows) > 0 {
		lead = res.Rows[0].Key
	}

	switch q.Language {
	case "es":
		return fmt.Sprintf("El análisis cubre %d envíos con %.1f TEU en total. El grupo principal es %s.",
			s.TotalBookings, s.TotalTEU, lead)
	case "de":
		return fmt.Sprintf("Die Auswertung umfasst %d Buchungen mit insgesamt %.1f TEU. Die größte Gruppe ist %s.",
			s.TotalBookings, s.TotalTEU, lead)
	}
	return fmt.Sprintf("The analysis covers %d bookings with %.1f TEU in total. The leading group is %s.",
		s.TotalBookings, s.TotalTEU, lead)
}
