// Package validator is the anti-hallucination layer: it checks a generated
// narrative's numeric, date, and place-name claims against the data the
// narrative was generated from. Local checks always run; a cross-model
// check runs best-effort and degrades to a warning when the service is
// unavailable.
package validator

import (
	"context"

	"go.uber.org/zap"

	"freightlens/internal/engine"
	"freightlens/internal/llm"
	"freightlens/internal/store"
)

// Confidence scoring constants.
const (
	baselineConfidence = 0.85
	warningPenalty     = 0.10
	maxSampleBonus     = 0.10
	sampleBonusScale   = 1000.0 // bookings needed for the full bonus

	// numberTolerance is the relative slack allowed between a narrative
	// number and a reference count (rounding, "about 120" phrasing).
	numberTolerance = 0.05
	// nearMissTolerance downgrades a failed number to a warning when it
	// is close enough to be a rounding artifact rather than an invention.
	nearMissTolerance = 0.15
)

// Verdict is the validation outcome for one narrative. Consumed once per
// response and not persisted.
type Verdict struct {
	Valid      bool     `json:"valid"`
	Confidence float64  `json:"confidence"` // in [0,1]
	Errors     []string `json:"errors,omitempty"`
	Warnings   []string `json:"warnings,omitempty"`
}

// Validator cross-checks narratives. client may be nil, in which case only
// the local checks run.
type Validator struct {
	client llm.Client
	log    *zap.Logger
}

// New creates a validator. The llm client is injected for testability.
func New(client llm.Client, log *zap.Logger) *Validator {
	return &Validator{client: client, log: log}
}

// Validate checks the narrative against the aggregation result and the raw
// rows it was generated from. It never returns an error: a broken
// fact-check service yields a warning, not a failed request.
func (v *Validator) Validate(ctx context.Context, narrative, question string, res *engine.Result, bookings []store.Booking) Verdict {
	var errs, warns []string

	numErrs, numWarns := checkNumbers(narrative, res)
	errs = append(errs, numErrs...)
	warns = append(warns, numWarns...)

	errs = append(errs, checkDates(narrative, bookings)...)
	warns = append(warns, checkPlaces(narrative, bookings)...)

	if v.client != nil {
		ok, issues, err := v.crossCheck(ctx, narrative, question, res)
		switch {
		case err != nil:
			v.log.Warn("fact-check service unavailable", zap.Error(err))
			warns = append(warns, "cross-model fact check unavailable")
		case !ok:
			warns = append(warns, issues...)
		}
	}

	return score(errs, warns, res.Stats.TotalBookings)
}

// score derives the verdict from the collected findings. Any hard error
// forces invalidity and zero confidence.
func score(errs, warns []string, sampleSize int) Verdict {
	if len(errs) > 0 {
		return Verdict{Valid: false, Confidence: 0, Errors: errs, Warnings: warns}
	}

	confidence := baselineConfidence
	confidence -= warningPenalty * float64(len(warns))

	bonus := float64(sampleSize) / sampleBonusScale * maxSampleBonus
	if bonus > maxSampleBonus {
		bonus = maxSampleBonus
	}
	confidence += bonus

	if confidence < 0 {
		confidence = 0
	}
	if confidence > 1 {
		confidence = 1
	}
	return Verdict{Valid: true, Confidence: confidence, Warnings: warns}
}
