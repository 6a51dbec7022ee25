// Package csvio reads input rows from CSV and writes row results back.
package csvio

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"

	"github.com/okian/vigil/internal/domain/engine"
	"github.com/okian/vigil/internal/domain/model"
)

// Reader decodes engine inputs from a CSV stream with a header row.
type Reader struct {
	r       *csv.Reader
	cols    Columns
	comma   rune
	header  []string
	index   map[string]int
	line    int
	started bool
}

// ReaderOption configures a Reader.
type ReaderOption func(*Reader)

// WithColumns overrides the header names.
func WithColumns(c Columns) ReaderOption {
	return func(r *Reader) { r.cols = c }
}

// WithComma sets the field separator. The default is a comma.
func WithComma(c rune) ReaderOption {
	return func(r *Reader) {
		if c != 0 {
			r.comma = c
		}
	}
}

// NewReader creates a Reader on src.
func NewReader(src io.Reader, opts ...ReaderOption) *Reader {
	r := &Reader{cols: DefaultColumns(), comma: ','}
	for _, opt := range opts {
		opt(r)
	}
	r.r = csv.NewReader(src)
	r.r.Comma = r.comma
	r.r.FieldsPerRecord = -1
	r.r.TrimLeadingSpace = true
	return r
}

func (r *Reader) readHeader() error {
	r.started = true
	header, err := r.r.Read()
	if errors.Is(err, io.EOF) {
		return ErrEmptyHeader
	}
	if err != nil {
		return fmt.Errorf("failed to read header: %w", err)
	}
	r.header = make([]string, len(header))
	r.index = make(map[string]int, len(header))
	for i, h := range header {
		h = strings.TrimSpace(strings.TrimPrefix(h, "\ufeff"))
		r.header[i] = h
		r.index[h] = i
	}
	if r.cols.ID != "" {
		if _, ok := r.index[r.cols.ID]; !ok {
			return fmt.Errorf("%w: %s", ErrMissingColumn, r.cols.ID)
		}
	}
	return nil
}

func (r *Reader) cell(rec []string, name string) string {
	if name == "" {
		return ""
	}
	i, ok := r.index[name]
	if !ok || i >= len(rec) {
		return ""
	}
	return strings.TrimSpace(rec[i])
}

// Read returns the next input or io.EOF. Empty aggregate cells are left
// out; unparsable numbers are kept as NaN so the row reports them as
// undefined.
func (r *Reader) Read() (engine.Input, error) {
	if !r.started {
		if err := r.readHeader(); err != nil {
			return engine.Input{}, err
		}
	}
	rec, err := r.r.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return engine.Input{}, io.EOF
		}
		return engine.Input{}, fmt.Errorf("failed to read row %d: %w", r.line+1, err)
	}
	r.line++

	in := engine.Input{
		RecordID:    r.cell(rec, r.cols.ID),
		Group:       r.cell(rec, r.cols.Group),
		Target:      r.cell(rec, r.cols.Target),
		GroundTruth: r.cell(rec, r.cols.GroundTruth),
		Fields:      make(map[string]string, len(r.header)),
	}
	if in.RecordID == "" {
		in.RecordID = "row-" + strconv.Itoa(r.line)
	}
	for i, h := range r.header {
		if i < len(rec) {
			in.Fields[h] = rec[i]
		}
	}

	preds := make([]string, 0, model.ModelCount)
	for _, name := range r.cols.Predictions {
		if v := r.cell(rec, name); v != "" {
			preds = append(preds, v)
		}
	}
	if len(preds) > 0 {
		in.Predictions = preds
	}

	for field, name := range r.cols.Aggregates {
		v := r.cell(rec, name)
		if v == "" {
			continue
		}
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			f = math.NaN()
		}
		if in.Aggregates == nil {
			in.Aggregates = make(model.Aggregates, len(r.cols.Aggregates))
		}
		in.Aggregates[field] = f
	}
	return in, nil
}

// ReadAll decodes every remaining row.
func (r *Reader) ReadAll() ([]engine.Input, error) {
	var out []engine.Input
	for {
		in, err := r.Read()
		if errors.Is(err, io.EOF) {
			return out, nil
		}
		if err != nil {
			return out, err
		}
		out = append(out, in)
	}
}
