package scalpshield

import (
	"context"

	"github.com/hejijunhao/scalpshield/internal/model"
)

// Record holds one input row's original cell text, keyed by column name.
type Record map[string]string

// Dataset is already-decoded tabular input: the header in original order
// plus every data row. Use ScoreCSV when starting from a CSV document.
type Dataset struct {
	Columns []string
	Rows    []Record
}

// ScoreDataset scores decoded tabular data directly, skipping CSV decoding.
// The Columns slice must contain the seven required feature columns.
func (s *ScalpShield) ScoreDataset(ctx context.Context, ds Dataset) (*Response, error) {
	in := model.Dataset{
		Columns: ds.Columns,
		Rows:    make([]model.RawRecord, len(ds.Rows)),
	}
	for i, row := range ds.Rows {
		in.Rows[i] = model.RawRecord(row)
	}
	resp, err := s.engine.Process(ctx, in)
	if err != nil {
		return nil, err
	}
	return responseFromModel(resp), nil
}
