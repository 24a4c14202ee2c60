// Package engine orchestrates the scoring pipeline: schema validation →
// feature building → batched inference → risk tiering → explanations →
// aggregation.
package engine

import (
	"context"
	"errors"
	"fmt"
	"math"

	"github.com/hejijunhao/scalpshield/internal/engine/aggregate"
	"github.com/hejijunhao/scalpshield/internal/engine/classifier"
	"github.com/hejijunhao/scalpshield/internal/engine/explain"
	"github.com/hejijunhao/scalpshield/internal/engine/feature"
	"github.com/hejijunhao/scalpshield/internal/engine/schema"
	"github.com/hejijunhao/scalpshield/internal/engine/tier"
	"github.com/hejijunhao/scalpshield/internal/model"
)

// ErrEmptyInput reports a dataset with a valid header but zero data rows.
var ErrEmptyInput = errors.New("engine: no data rows to score")

// defaultsNote is appended to a row's explanations when any required cell
// fell back to its training-time default during coercion.
const defaultsNote = "Missing or non-numeric required values were replaced with defaults for scoring."

// Engine runs the scoring pipeline over one in-memory batch. It holds only
// the loaded model handle and is safe for concurrent use; every other value
// is request-scoped.
type Engine struct {
	scorer classifier.Scorer
}

// New creates an Engine around a loaded model. A nil scorer is allowed so a
// misconfigured service can still start and report the condition per
// request; Process then fails with classifier.ErrModelNotLoaded.
func New(scorer classifier.Scorer) *Engine {
	return &Engine{scorer: scorer}
}

// Ready reports whether a model is available for scoring.
func (e *Engine) Ready() bool {
	return e.scorer != nil
}

// Process scores one validated dataset and returns the full response.
// All schema-level failures are detected before any inference runs. A
// cancelled ctx stops the pipeline before the vectorized inference call but
// does not interrupt one already in flight.
func (e *Engine) Process(ctx context.Context, ds model.Dataset) (*model.PredictResponse, error) {
	if e.scorer == nil {
		return nil, classifier.ErrModelNotLoaded
	}
	if err := schema.Validate(ds); err != nil {
		return nil, err
	}
	if len(ds.Rows) == 0 {
		return nil, ErrEmptyInput
	}

	matrix, filled := feature.Matrix(ds)

	if err := ctx.Err(); err != nil {
		return nil, err
	}
	probs, err := e.scorer.ScoreBatch(matrix)
	if err != nil {
		return nil, fmt.Errorf("engine: inference: %w", err)
	}
	if len(probs) != len(ds.Rows) {
		return nil, fmt.Errorf("engine: model returned %d probabilities for %d rows", len(probs), len(ds.Rows))
	}

	rows := make([]model.ScoredRow, len(ds.Rows))
	for i, raw := range ds.Rows {
		p := probs[i]
		flag := tier.ForProbability(p)

		var notes []string
		if filled[i] {
			notes = append(notes, defaultsNote)
		}

		rows[i] = model.ScoredRow{
			RowIndex:      i,
			Probability:   round4(p),
			Flag:          flag,
			Explanations:  explain.Build(raw, p, flag, notes...),
			Raw:           rawBag(ds.Columns, raw),
			TransactionID: raw["transaction_id"],
			UserID:        raw["user_id"],
			EventID:       raw["event_id"],
			Timestamp:     raw["timestamp"],
		}
	}

	return &model.PredictResponse{
		Rows:    rows,
		Summary: aggregate.Tally(rows),
	}, nil
}

// rawBag builds the pass-through column bag for one row, in header order.
// Required columns appear as the numbers the classifier saw (after default
// substitution); all other columns keep their original text, with blanks
// serialized as null.
func rawBag(columns []string, raw model.RawRecord) model.RawValues {
	bag := model.NewRawValues(len(columns))
	for _, col := range columns {
		cell := raw[col]
		if feature.IsRequired(col) {
			v, ok := feature.Coerce(cell)
			if !ok {
				v = feature.Default(col)
			}
			bag.Set(col, v)
			continue
		}
		if cell == "" {
			bag.Set(col, nil)
			continue
		}
		bag.Set(col, cell)
	}
	return bag
}

func round4(p float64) float64 {
	return math.Round(p*10000) / 10000
}
