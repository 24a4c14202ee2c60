package engine

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"reflect"
	"strings"
	"testing"

	"github.com/hejijunhao/scalpshield/internal/engine/classifier"
	"github.com/hejijunhao/scalpshield/internal/engine/feature"
	"github.com/hejijunhao/scalpshield/internal/engine/schema"
	"github.com/hejijunhao/scalpshield/internal/ingest"
	"github.com/hejijunhao/scalpshield/internal/model"
)

// stubScorer returns canned probabilities, one per row.
type stubScorer struct {
	probs []float64
	err   error
	calls int
}

func (s *stubScorer) ScoreBatch(matrix [][]float32) ([]float64, error) {
	s.calls++
	if s.err != nil {
		return nil, s.err
	}
	if len(matrix) > len(s.probs) {
		return nil, fmt.Errorf("stub has %d probs for %d rows", len(s.probs), len(matrix))
	}
	return s.probs[:len(matrix)], nil
}

func (s *stubScorer) Close() error { return nil }

const fiveRowCSV = `transaction_id,user_id,event_id,timestamp,minutes_since_release,tickets,total_amount,ip_purchase_count_24h,user_purchase_count_30d,user_account_age_days,same_card_purchase_count_24h,device_info
t1,u1,e1,2026-03-01T10:00:00Z,5,2,150,1,2,400,0,Mozilla/5.0
t2,u2,e1,2026-03-01T10:01:00Z,6,1,75,0,1,200,1,Mozilla/5.0
t3,u3,e1,2026-03-01T10:02:00Z,7,3,270,2,4,350,0,Mozilla/5.0
t4,u4,e1,2026-03-01T10:03:00Z,2,6,900,4,8,60,2,Mozilla/5.0
t5,u5,e1,2026-03-01T10:04:00Z,1,12,2640,25,30,2,9,python-requests/2.31
`

func mustDataset(t *testing.T, csv string) model.Dataset {
	t.Helper()
	ds, err := ingest.ReadCSV(strings.NewReader(csv))
	if err != nil {
		t.Fatalf("failed to read fixture: %v", err)
	}
	return ds
}

func TestProcessEndToEnd(t *testing.T) {
	scorer := &stubScorer{probs: []float64{0.1, 0.2, 0.3, 0.5, 0.9}}
	eng := New(scorer)

	resp, err := eng.Process(context.Background(), mustDataset(t, fiveRowCSV))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	want := model.Summary{CountTotal: 5, CountGreen: 3, CountYellow: 1, CountRed: 1}
	if resp.Summary != want {
		t.Fatalf("expected summary %+v, got %+v", want, resp.Summary)
	}
	if len(resp.Rows) != 5 {
		t.Fatalf("expected 5 rows, got %d", len(resp.Rows))
	}
	if scorer.calls != 1 {
		t.Fatalf("expected one vectorized inference call, got %d", scorer.calls)
	}
}

func TestProcessRowOrderAndIdentity(t *testing.T) {
	eng := New(&stubScorer{probs: []float64{0.1, 0.2, 0.3, 0.5, 0.9}})

	resp, err := eng.Process(context.Background(), mustDataset(t, fiveRowCSV))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	for i, row := range resp.Rows {
		if row.RowIndex != i {
			t.Fatalf("row %d has row_index %d", i, row.RowIndex)
		}
	}
	last := resp.Rows[4]
	if last.TransactionID != "t5" || last.UserID != "u5" || last.EventID != "e1" {
		t.Fatalf("expected identity passthrough, got %+v", last)
	}
	if last.Timestamp != "2026-03-01T10:04:00Z" {
		t.Fatalf("expected timestamp passthrough, got %q", last.Timestamp)
	}
}

func TestProcessSummaryInvariant(t *testing.T) {
	eng := New(&stubScorer{probs: []float64{0.34, 0.35, 0.80, 0.79, 0.999}})

	resp, err := eng.Process(context.Background(), mustDataset(t, fiveRowCSV))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	s := resp.Summary
	if s.CountTotal != len(resp.Rows) {
		t.Fatalf("count_total %d != rows %d", s.CountTotal, len(resp.Rows))
	}
	if s.CountTotal != s.CountGreen+s.CountYellow+s.CountRed {
		t.Fatalf("count_total %d != tier sum %d", s.CountTotal, s.CountGreen+s.CountYellow+s.CountRed)
	}
}

func TestProcessIdempotent(t *testing.T) {
	eng := New(&stubScorer{probs: []float64{0.1, 0.2, 0.3, 0.5, 0.9}})
	ds := mustDataset(t, fiveRowCSV)

	first, err := eng.Process(context.Background(), ds)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	second, err := eng.Process(context.Background(), ds)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	a, _ := json.Marshal(first)
	b, _ := json.Marshal(second)
	if string(a) != string(b) {
		t.Fatal("expected byte-identical responses for the same input and model")
	}
}

func TestProcessExplanations(t *testing.T) {
	eng := New(&stubScorer{probs: []float64{0.1, 0.2, 0.3, 0.5, 0.9}})

	resp, err := eng.Process(context.Background(), mustDataset(t, fiveRowCSV))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	for i, row := range resp.Rows {
		if len(row.Explanations) == 0 {
			t.Fatalf("row %d has no explanations", i)
		}
		last := row.Explanations[len(row.Explanations)-1]
		if !strings.HasPrefix(last, "Model probability of suspicious activity: ") {
			t.Fatalf("row %d: expected probability sentence last, got %q", i, last)
		}
	}

	// Row 5 uses python-requests: the suspicious-device sentence must appear
	// no matter what its numeric features are.
	var found bool
	for _, s := range resp.Rows[4].Explanations {
		if strings.Contains(s, "Suspicious device") {
			found = true
		}
	}
	if !found {
		t.Fatalf("expected suspicious-device sentence, got %v", resp.Rows[4].Explanations)
	}
}

func TestProcessMissingColumns(t *testing.T) {
	csv := "transaction_id,minutes_since_release,tickets,total_amount,ip_purchase_count_24h,user_purchase_count_30d\nt1,1,2,3,4,5\n"
	eng := New(&stubScorer{probs: []float64{0.5}})

	_, err := eng.Process(context.Background(), mustDataset(t, csv))
	var schemaErr *schema.Error
	if !errors.As(err, &schemaErr) {
		t.Fatalf("expected *schema.Error, got %v", err)
	}
	want := []string{"user_account_age_days", "same_card_purchase_count_24h"}
	if !reflect.DeepEqual(schemaErr.Missing, want) {
		t.Fatalf("expected missing %v, got %v", want, schemaErr.Missing)
	}
}

func TestProcessEmptyInput(t *testing.T) {
	csv := strings.SplitAfter(fiveRowCSV, "\n")[0]
	eng := New(&stubScorer{probs: []float64{0.5}})

	_, err := eng.Process(context.Background(), mustDataset(t, csv))
	if !errors.Is(err, ErrEmptyInput) {
		t.Fatalf("expected ErrEmptyInput, got %v", err)
	}
}

func TestProcessModelNotLoaded(t *testing.T) {
	eng := New(nil)
	if eng.Ready() {
		t.Fatal("expected Ready()=false without a scorer")
	}

	_, err := eng.Process(context.Background(), mustDataset(t, fiveRowCSV))
	if !errors.Is(err, classifier.ErrModelNotLoaded) {
		t.Fatalf("expected ErrModelNotLoaded, got %v", err)
	}
}

func TestProcessCancelledBeforeInference(t *testing.T) {
	scorer := &stubScorer{probs: []float64{0.1, 0.2, 0.3, 0.5, 0.9}}
	eng := New(scorer)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := eng.Process(ctx, mustDataset(t, fiveRowCSV))
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
	if scorer.calls != 0 {
		t.Fatalf("expected no inference after cancellation, got %d calls", scorer.calls)
	}
}

func TestProcessDefaultSubstitutionNote(t *testing.T) {
	csv := `minutes_since_release,tickets,total_amount,ip_purchase_count_24h,user_purchase_count_30d,user_account_age_days,same_card_purchase_count_24h
5,oops,150,1,2,400,0
`
	eng := New(&stubScorer{probs: []float64{0.1}})

	resp, err := eng.Process(context.Background(), mustDataset(t, csv))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	var noted bool
	for _, s := range resp.Rows[0].Explanations {
		if strings.Contains(s, "replaced with defaults") {
			noted = true
		}
	}
	if !noted {
		t.Fatalf("expected substitution note, got %v", resp.Rows[0].Explanations)
	}

	// The raw bag shows the value the classifier actually saw.
	v, ok := resp.Rows[0].Raw.Get("tickets")
	if !ok || v != float64(0) {
		t.Fatalf("expected raw tickets 0 after substitution, got %v", v)
	}
}

func TestProcessRawBag(t *testing.T) {
	eng := New(&stubScorer{probs: []float64{0.1, 0.2, 0.3, 0.5, 0.9}})
	ds := mustDataset(t, fiveRowCSV)

	resp, err := eng.Process(context.Background(), ds)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	row := resp.Rows[0]
	if !reflect.DeepEqual(row.Raw.Keys(), ds.Columns) {
		t.Fatalf("expected raw bag in header order %v, got %v", ds.Columns, row.Raw.Keys())
	}
	if v, _ := row.Raw.Get("tickets"); v != float64(2) {
		t.Fatalf("expected coerced required column, got %v", v)
	}
	if v, _ := row.Raw.Get("device_info"); v != "Mozilla/5.0" {
		t.Fatalf("expected extra column preserved verbatim, got %v", v)
	}
}

func TestProcessProbabilityRounded(t *testing.T) {
	eng := New(&stubScorer{probs: []float64{0.123456789, 0.2, 0.3, 0.5, 0.9}})

	resp, err := eng.Process(context.Background(), mustDataset(t, fiveRowCSV))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if resp.Rows[0].Probability != 0.1235 {
		t.Fatalf("expected probability rounded to 4 decimals, got %v", resp.Rows[0].Probability)
	}
}

func TestProcessScorerError(t *testing.T) {
	eng := New(&stubScorer{err: errors.New("runtime exploded")})

	_, err := eng.Process(context.Background(), mustDataset(t, fiveRowCSV))
	if err == nil || !strings.Contains(err.Error(), "inference") {
		t.Fatalf("expected wrapped inference error, got %v", err)
	}
}

func TestProcessVectorWidth(t *testing.T) {
	// Sanity-check the builder feeds the scorer the full canonical width.
	var gotWidth int
	scorer := &widthScorer{width: &gotWidth}

	eng := New(scorer)
	if _, err := eng.Process(context.Background(), mustDataset(t, fiveRowCSV)); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if gotWidth != len(feature.Columns) {
		t.Fatalf("expected %d features per vector, got %d", len(feature.Columns), gotWidth)
	}
}

type widthScorer struct {
	width *int
}

func (s *widthScorer) ScoreBatch(matrix [][]float32) ([]float64, error) {
	if len(matrix) > 0 {
		*s.width = len(matrix[0])
	}
	return make([]float64, len(matrix)), nil
}

func (s *widthScorer) Close() error { return nil }
