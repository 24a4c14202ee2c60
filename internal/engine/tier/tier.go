// Package tier maps model probabilities onto discrete risk flags.
package tier

import "github.com/hejijunhao/scalpshield/internal/model"

// Threshold constants are the single definition of the tier boundaries.
// Intervals are closed below and open above: exactly 0.35 is yellow and
// exactly 0.80 is red.
const (
	YellowThreshold = 0.35
	RedThreshold    = 0.80
)

// ForProbability returns the risk flag for a probability.
func ForProbability(p float64) model.Flag {
	switch {
	case p < YellowThreshold:
		return model.FlagGreen
	case p < RedThreshold:
		return model.FlagYellow
	default:
		return model.FlagRed
	}
}
