// Package schema checks an uploaded dataset against the required feature
// set before any coercion or inference runs.
package schema

import (
	"strings"

	"github.com/hejijunhao/scalpshield/internal/engine/feature"
	"github.com/hejijunhao/scalpshield/internal/model"
)

// Error reports every required column absent from the input, in canonical
// feature order. Scoring never starts when any column is missing.
type Error struct {
	Missing []string
}

func (e *Error) Error() string {
	return "missing required columns: " + strings.Join(e.Missing, ", ")
}

// Validate checks that all required feature columns are present in the
// dataset header. It collects the complete set of missing names rather than
// failing on the first.
func Validate(ds model.Dataset) error {
	have := make(map[string]struct{}, len(ds.Columns))
	for _, col := range ds.Columns {
		have[col] = struct{}{}
	}

	var missing []string
	for _, col := range feature.Columns {
		if _, ok := have[col]; !ok {
			missing = append(missing, col)
		}
	}
	if len(missing) > 0 {
		return &Error{Missing: missing}
	}
	return nil
}
