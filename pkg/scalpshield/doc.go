// Package scalpshield provides an embeddable fraud/scalping scorer for
// ticket-purchase records.
//
// Quick start:
//
//	s, err := scalpshield.New(scalpshield.WithModelPath("models/model_xgb.onnx"))
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer s.Close()
//
//	f, _ := os.Open("purchases.csv")
//	resp, err := s.ScoreCSV(context.Background(), f)
//
// The ScalpShield instance loads the model once and is safe for concurrent
// use. Create once, reuse across requests.
package scalpshield
