// Package ingest decodes uploaded delimited text into a Dataset.
package ingest

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"

	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"

	"github.com/hejijunhao/scalpshield/internal/model"
)

// ParseError reports input that could not be decoded as tabular data.
// No rows are scored when decoding fails.
type ParseError struct {
	Err error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("could not read CSV: %v", e.Err)
}

func (e *ParseError) Unwrap() error {
	return e.Err
}

// ReadCSV decodes one CSV upload into a Dataset. The first row is the
// header; its order is preserved. Input is treated as UTF-8 with an optional
// byte order mark. Ragged rows, bad quoting, and a missing header row all
// yield a *ParseError. Duplicate header names keep the rightmost column's
// cells.
func ReadCSV(r io.Reader) (model.Dataset, error) {
	// UTF8BOM strips a leading BOM (Excel exports carry one) and replaces
	// invalid byte sequences instead of corrupting the row structure.
	cr := csv.NewReader(transform.NewReader(r, unicode.UTF8BOM.NewDecoder()))

	header, err := cr.Read()
	if err == io.EOF {
		return model.Dataset{}, &ParseError{Err: errors.New("missing header row")}
	}
	if err != nil {
		return model.Dataset{}, &ParseError{Err: err}
	}

	ds := model.Dataset{Columns: header}
	for {
		cells, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return model.Dataset{}, &ParseError{Err: err}
		}
		row := make(model.RawRecord, len(header))
		for i, col := range header {
			row[col] = cells[i]
		}
		ds.Rows = append(ds.Rows, row)
	}
	return ds, nil
}
