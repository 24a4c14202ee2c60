package scalpshield

import (
	"context"
	"fmt"
	"io"

	"github.com/hejijunhao/scalpshield/internal/engine"
	"github.com/hejijunhao/scalpshield/internal/engine/classifier"
	"github.com/hejijunhao/scalpshield/internal/ingest"
)

// Scorer is the pluggable inference backend: one probability in [0,1] per
// feature vector, batched over one request. Implementations must be safe
// for concurrent use.
type Scorer = classifier.Scorer

// ScalpShield scores ticket-purchase batches for scalping risk.
// Safe for concurrent use.
type ScalpShield struct {
	engine *engine.Engine
	scorer classifier.Scorer
}

// New creates a ScalpShield instance. Unless WithScorer is given, the ONNX
// model is loaded here — an expensive step; create once and reuse.
func New(opts ...Option) (*ScalpShield, error) {
	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}

	scorer := o.scorer
	if scorer == nil {
		s, err := classifier.NewONNX(o.modelPath, o.runtimeLibPath)
		if err != nil {
			return nil, fmt.Errorf("scalpshield: %w", err)
		}
		scorer = s
	}

	return &ScalpShield{
		engine: engine.New(scorer),
		scorer: scorer,
	}, nil
}

// ScoreCSV decodes a CSV document and scores every row. The reader must
// yield a header row containing the seven required feature columns.
func (s *ScalpShield) ScoreCSV(ctx context.Context, r io.Reader) (*Response, error) {
	ds, err := ingest.ReadCSV(r)
	if err != nil {
		return nil, err
	}
	resp, err := s.engine.Process(ctx, ds)
	if err != nil {
		return nil, err
	}
	return responseFromModel(resp), nil
}

// Close releases the model runtime resources.
func (s *ScalpShield) Close() error {
	if s.scorer != nil {
		return s.scorer.Close()
	}
	return nil
}
