// Package feature coerces validated raw records into the numeric matrix the
// classifier consumes.
package feature

import (
	"math"
	"strconv"
	"strings"

	"github.com/hejijunhao/scalpshield/internal/model"
)

// Columns is the classifier's training-time schema. Vector order must match
// it exactly; the model was trained against these features in this order.
var Columns = []string{
	"minutes_since_release",
	"tickets",
	"total_amount",
	"ip_purchase_count_24h",
	"user_purchase_count_30d",
	"user_account_age_days",
	"same_card_purchase_count_24h",
}

// defaults mirror the training pipeline's fill values for cells that cannot
// be coerced. Every column not listed here defaults to 0.
var defaults = map[string]float64{
	"user_account_age_days": 365,
}

var required = func() map[string]struct{} {
	m := make(map[string]struct{}, len(Columns))
	for _, c := range Columns {
		m[c] = struct{}{}
	}
	return m
}()

// IsRequired reports whether col belongs to the required feature set.
func IsRequired(col string) bool {
	_, ok := required[col]
	return ok
}

// Default returns the fill value used when col's cell cannot be coerced.
func Default(col string) float64 {
	return defaults[col]
}

// Coerce parses a cell into a finite number. Blank cells, non-numeric text,
// NaN, and infinities all fail coercion.
func Coerce(cell string) (float64, bool) {
	s := strings.TrimSpace(cell)
	if s == "" {
		return 0, false
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, false
	}
	return f, true
}

// Vector builds one feature vector in canonical column order. filled reports
// whether any cell fell back to its default, so the caller can note the
// substitution on that row.
func Vector(row model.RawRecord) (vec []float32, filled bool) {
	vec = make([]float32, len(Columns))
	for i, col := range Columns {
		v, ok := Coerce(row[col])
		if !ok {
			v = Default(col)
			filled = true
		}
		vec[i] = float32(v)
	}
	return vec, filled
}

// Matrix builds one vector per dataset row, preserving row order. The second
// return value marks which rows needed default substitution.
func Matrix(ds model.Dataset) ([][]float32, []bool) {
	matrix := make([][]float32, len(ds.Rows))
	filled := make([]bool, len(ds.Rows))
	for i, row := range ds.Rows {
		matrix[i], filled[i] = Vector(row)
	}
	return matrix, filled
}
