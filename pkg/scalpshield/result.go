package scalpshield

import "github.com/hejijunhao/scalpshield/internal/model"

// Row is the public form of one scored input row. Columns holds the
// uploaded header order; Raw maps each column to the pass-through value.
type Row struct {
	RowIndex     int
	Probability  float64
	Flag         string
	Explanations []string
	Columns      []string
	Raw          map[string]any

	TransactionID string
	UserID        string
	EventID       string
	Timestamp     string
}

// Summary tallies rows by risk flag.
type Summary struct {
	CountTotal  int
	CountGreen  int
	CountYellow int
	CountRed    int
}

// Response is the full scoring result: rows in input order plus the tally.
type Response struct {
	Rows    []Row
	Summary Summary
}

func responseFromModel(resp *model.PredictResponse) *Response {
	out := &Response{
		Rows: make([]Row, len(resp.Rows)),
		Summary: Summary{
			CountTotal:  resp.Summary.CountTotal,
			CountGreen:  resp.Summary.CountGreen,
			CountYellow: resp.Summary.CountYellow,
			CountRed:    resp.Summary.CountRed,
		},
	}
	for i, r := range resp.Rows {
		raw := make(map[string]any, r.Raw.Len())
		for _, key := range r.Raw.Keys() {
			v, _ := r.Raw.Get(key)
			raw[key] = v
		}
		out.Rows[i] = Row{
			RowIndex:      r.RowIndex,
			Probability:   r.Probability,
			Flag:          string(r.Flag),
			Explanations:  r.Explanations,
			Columns:       r.Raw.Keys(),
			Raw:           raw,
			TransactionID: r.TransactionID,
			UserID:        r.UserID,
			EventID:       r.EventID,
			Timestamp:     r.Timestamp,
		}
	}
	return out
}
