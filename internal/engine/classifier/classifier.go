// Package classifier isolates the pretrained binary model behind a small
// scoring contract. The rest of the pipeline depends only on Scorer, never
// on the inference runtime.
package classifier

import "errors"

// ErrModelNotLoaded indicates the pipeline was invoked before a model was
// available. It signals a misconfigured service, never bad input.
var ErrModelNotLoaded = errors.New("classifier: model not loaded")

// Scorer turns feature vectors into fraud probabilities. Implementations
// must be safe for concurrent use by multiple requests and are never
// mutated after load.
type Scorer interface {
	// ScoreBatch scores all rows of one request in a single vectorized call
	// and returns one probability in [0,1] per input vector, in order.
	// Scoring rows one at a time must produce identical results.
	ScoreBatch(matrix [][]float32) ([]float64, error)

	// Close releases any resources held by the underlying runtime.
	Close() error
}
