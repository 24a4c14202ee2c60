package model

// Flag is the discrete risk tier derived from a model probability.
type Flag string

const (
	FlagGreen  Flag = "green"
	FlagYellow Flag = "yellow"
	FlagRed    Flag = "red"
)

// ScoredRow is the verdict for one input row. RowIndex is 0-based and
// matches the input row order. Probability is rounded to four decimals for
// serialization. Explanations is never empty; its last entry always states
// the model probability.
type ScoredRow struct {
	RowIndex     int       `json:"row_index"`
	Probability  float64   `json:"probability"`
	Flag         Flag      `json:"flag"`
	Explanations []string  `json:"explanations"`
	Raw          RawValues `json:"raw"`

	// Identity columns copied through when present in the input.
	TransactionID string `json:"transaction_id,omitempty"`
	UserID        string `json:"user_id,omitempty"`
	EventID       string `json:"event_id,omitempty"`
	Timestamp     string `json:"timestamp,omitempty"`
}

// Summary tallies scored rows by flag. CountTotal always equals the sum of
// the three tier counts.
type Summary struct {
	CountTotal  int `json:"count_total"`
	CountGreen  int `json:"count_green"`
	CountYellow int `json:"count_yellow"`
	CountRed    int `json:"count_red"`
}

// Add merges another summary's counts into s. Counting is associative, so
// partial summaries from split batches merge into the same totals.
func (s *Summary) Add(o Summary) {
	s.CountTotal += o.CountTotal
	s.CountGreen += o.CountGreen
	s.CountYellow += o.CountYellow
	s.CountRed += o.CountRed
}

// PredictResponse is the full scoring result for one upload. Rows preserve
// the input order.
type PredictResponse struct {
	Rows    []ScoredRow `json:"rows"`
	Summary Summary     `json:"summary"`
}
