package model

// RawRecord holds one input row's original cell text, keyed by column name.
// Values are kept verbatim; coercion happens in the feature builder.
type RawRecord map[string]string

// Dataset is one decoded tabular upload: the header in original order plus
// every data row. Columns beyond the required feature set are preserved for
// display but never used in scoring.
type Dataset struct {
	Columns []string
	Rows    []RawRecord
}
