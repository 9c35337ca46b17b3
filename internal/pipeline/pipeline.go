// Package pipeline wires the full question-answering flow: translate the
// question, plan and execute the data fetch, aggregate, narrate, validate.
// It owns the error policy: only a data-store failure is fatal; every
// service failure upstream or downstream degrades.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"freightlens/internal/engine"
	"freightlens/internal/narrative"
	"freightlens/internal/planner"
	"freightlens/internal/query"
	"freightlens/internal/store"
	"freightlens/internal/translator"
	"freightlens/internal/validator"
)

// Request is one question to answer.
type Request struct {
	Question  string
	History   []translator.Turn
	Overrides *translator.Overrides
}

// Response is the full answer surface.
type Response struct {
	RequestID string                `json:"request_id"`
	Intent    query.Intent          `json:"intent"`
	Query     query.StructuredQuery `json:"query"`

	// Clarification is set instead of results when the question was too
	// ambiguous to answer.
	Clarification string `json:"clarification,omitempty"`

	Narrative string             `json:"narrative,omitempty"`
	Rows      []engine.ResultRow `json:"rows,omitempty"`
	Stats     *engine.Statistics `json:"stats,omitempty"`
	Verdict   *validator.Verdict `json:"verdict,omitempty"`

	// Bookings is the raw row set the figures were computed from, capped by
	// the row limit (Truncated marks the cut). Empty when the fast path
	// served the query from precomputed summaries.
	Bookings []store.Booking `json:"bookings,omitempty"`

	AppliedFilters []string `json:"applied_filters,omitempty"`
	PeriodFrom     string   `json:"period_from,omitempty"`
	PeriodTo       string   `json:"period_to,omitempty"`

	AnalyzedBookings int          `json:"analyzed_bookings"`
	Truncated        bool         `json:"truncated"`
	Path             planner.Path `json:"path,omitempty"`

	Elapsed time.Duration `json:"elapsed"`
}

// Pipeline is the assembled question-answering flow.
type Pipeline struct {
	translator *translator.Translator
	planner    *planner.Planner
	narrator   *narrative.Generator
	validator  *validator.Validator
	log        *zap.Logger
}

// New assembles a pipeline from its stages. All stages are required.
func New(tr *translator.Translator, pl *planner.Planner, ng *narrative.Generator, val *validator.Validator, log *zap.Logger) *Pipeline {
	return &Pipeline{translator: tr, planner: pl, narrator: ng, validator: val, log: log}
}

// Run answers one question end to end.
func (p *Pipeline) Run(ctx context.Context, req Request) (*Response, error) {
	start := time.Now()
	id := uuid.NewString()
	log := p.log.With(zap.String("request_id", id))

	q, err := p.translator.Translate(ctx, req.Question, req.History, req.Overrides)
	if err != nil {
		return nil, fmt.Errorf("translate: %w", err)
	}
	log.Info("question translated",
		zap.String("intent", string(q.Intent)),
		zap.String("group_by", string(q.Aggregation.GroupBy)),
		zap.String("metric", string(q.Aggregation.Metric)),
		zap.String("language", q.Language))

	resp := &Response{RequestID: id, Intent: q.Intent, Query: q}

	// Terminal intents never touch the data store.
	if q.Intent.Terminal() {
		resp.Clarification = q.Clarification
		resp.Elapsed = time.Since(start)
		return resp, nil
	}

	rows, err := p.planner.Execute(ctx, q)
	if err != nil {
		if errors.Is(err, planner.ErrTerminalIntent) {
			resp.Clarification = q.Clarification
			resp.Elapsed = time.Since(start)
			return resp, nil
		}
		// Without data there is nothing to answer; this is the one fatal
		// stage in the flow.
		return nil, fmt.Errorf("execute: %w", err)
	}

	// The default cancelled exclusion applies to analytic intents only, and
	// normalization resolves those to an explicit active filter. Anything
	// else (explicit cancelled/all, a raw search) keeps cancelled rows.
	includeCancelled := q.Filters.Status != query.StatusActive
	result := engine.Aggregate(rows.Input, q.Aggregation, includeCancelled)

	resp.Bookings = rows.Input.Bookings
	resp.Rows = result.Rows
	resp.Stats = &result.Stats
	resp.AppliedFilters = rows.AppliedFilters
	resp.PeriodFrom = rows.PeriodFrom
	resp.PeriodTo = rows.PeriodTo
	resp.AnalyzedBookings = rows.AnalyzedBookings
	resp.Truncated = rows.Truncated
	resp.Path = rows.Path

	text, err := p.narrator.Generate(ctx, req.Question, q, result)
	if err != nil {
		return nil, fmt.Errorf("narrate: %w", err)
	}
	resp.Narrative = text

	if q.Intent.Analytic() && text != "" {
		verdict := p.validator.Validate(ctx, text, req.Question, result, rows.Input.Bookings)
		resp.Verdict = &verdict
		if !verdict.Valid {
			log.Warn("narrative failed validation", zap.Strings("errors", verdict.Errors))
		}
	}

	resp.Elapsed = time.Since(start)
	log.Info("question answered",
		zap.String("path", string(rows.Path)),
		zap.Int("groups", len(result.Rows)),
		zap.Int("analyzed", rows.AnalyzedBookings),
		zap.Bool("truncated", rows.Truncated),
		zap.Duration("elapsed", resp.Elapsed))
	return resp, nil
}
