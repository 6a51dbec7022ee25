package csvio

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"

	"github.com/okian/vigil/internal/domain/engine"
)

// OutputSeparator is the field separator of result files.
const OutputSeparator = ';'

// ResultHeader lists the columns written by Writer.
var ResultHeader = []string{
	"record_id", "group", "target",
	"stat_code", "stat_weight_score", "stat_description",
	"consensus_count", "model_agreement", "trend_detected", "relationship",
	"performance_reliability", "model_accuracy_1", "model_accuracy_2", "model_accuracy_3",
	"ml_weight_score", "description_code", "description",
	"replace", "action_code", "action_summary", "combined_score",
	"error", "error_kind",
}

// Writer encodes batch outcomes as CSV.
type Writer struct {
	w           *csv.Writer
	wroteHeader bool
}

// NewWriter creates a Writer on dst using OutputSeparator.
func NewWriter(dst io.Writer) *Writer {
	w := csv.NewWriter(dst)
	w.Comma = OutputSeparator
	return &Writer{w: w}
}

func formatFloat(v float64) string { return strconv.FormatFloat(v, 'f', -1, 64) }

// Write appends one outcome. The header is written before the first row.
func (w *Writer) Write(o engine.Outcome) error { //nolint:gocritic // hugeParam: Outcome mirrors the batch API
	if !w.wroteHeader {
		if err := w.w.Write(ResultHeader); err != nil {
			return fmt.Errorf("failed to write header: %w", err)
		}
		w.wroteHeader = true
	}

	row := make([]string, len(ResultHeader))
	row[0] = o.Input.RecordID
	row[1] = o.Input.Group
	row[2] = o.Input.Target
	if o.Err != nil {
		row[21] = o.Err.Error()
		row[22] = engine.ErrorKind(o.Err)
		return w.writeRow(row)
	}

	r := o.Result
	if s := r.Statistical; s != nil {
		row[3] = s.Code
		row[4] = formatFloat(s.WeightScore)
		row[5] = s.Description
	}
	if c := r.Consensus; c != nil {
		row[6] = strconv.Itoa(c.ConsensusCount)
		row[7] = strconv.Itoa(c.ModelAgreement)
		row[8] = string(c.Trend)
		row[9] = string(c.Relationship)
		row[10] = formatFloat(c.PerformanceReliability)
		for i, acc := range c.ModelAccuracy {
			row[11+i] = formatFloat(acc)
		}
	}
	if m := r.ML; m != nil {
		row[14] = formatFloat(m.WeightScore)
		row[15] = m.Code
		row[16] = m.Description
	}
	if rec := r.Recommendation; rec != nil {
		row[17] = strconv.FormatBool(rec.Replace)
		row[18] = rec.ActionCode
		row[19] = rec.Action
	}
	if r.CombinedScore != nil {
		row[20] = formatFloat(*r.CombinedScore)
	}
	return w.writeRow(row)
}

func (w *Writer) writeRow(row []string) error {
	if err := w.w.Write(row); err != nil {
		return fmt.Errorf("failed to write row %s: %w", row[0], err)
	}
	return nil
}

// WriteAll writes every outcome and flushes.
func (w *Writer) WriteAll(outs []engine.Outcome) error {
	for _, o := range outs {
		if err := w.Write(o); err != nil {
			return err
		}
	}
	return w.Flush()
}

// Flush writes buffered data to the underlying writer.
func (w *Writer) Flush() error {
	if !w.wroteHeader {
		if err := w.w.Write(ResultHeader); err != nil {
			return fmt.Errorf("failed to write header: %w", err)
		}
		w.wroteHeader = true
	}
	w.w.Flush()
	return w.w.Error()
}
