package scalpshield

import "github.com/hejijunhao/scalpshield/internal/engine/classifier"

type options struct {
	modelPath      string
	runtimeLibPath string
	scorer         classifier.Scorer
}

// Option configures a ScalpShield instance.
type Option func(*options)

// WithModelPath sets the ONNX model file location.
// Default: models/model_xgb.onnx.
func WithModelPath(path string) Option {
	return func(o *options) {
		o.modelPath = path
	}
}

// WithRuntimeLib sets an explicit ONNX Runtime shared library path. By
// default the library is resolved next to the model file.
func WithRuntimeLib(path string) Option {
	return func(o *options) {
		o.runtimeLibPath = path
	}
}

// WithScorer injects a custom scoring backend instead of loading an ONNX
// model. Intended for alternate runtimes and tests.
func WithScorer(s Scorer) Option {
	return func(o *options) {
		o.scorer = s
	}
}

func defaultOptions() options {
	return options{
		modelPath: "models/model_xgb.onnx",
	}
}
