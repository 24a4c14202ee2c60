// Package aggregate folds scored rows into per-tier counts.
package aggregate

import "github.com/hejijunhao/scalpshield/internal/model"

// Tally counts rows by flag. Counting is associative and order-independent;
// summaries of split batches merged via Summary.Add equal the tally of the
// whole.
func Tally(rows []model.ScoredRow) model.Summary {
	var s model.Summary
	for _, row := range rows {
		s.CountTotal++
		switch row.Flag {
		case model.FlagGreen:
			s.CountGreen++
		case model.FlagYellow:
			s.CountYellow++
		case model.FlagRed:
			s.CountRed++
		}
	}
	return s
}
