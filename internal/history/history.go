package history

import (
	"encoding/csv"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"slices"

	"github.com/shopspring/decimal"

	"github.com/makaron79/monitor-inpzu-btc/internal/pipeline"
)

// Column names match the original tracker's CSV so an existing history file
// keeps working.
var recordColumns = []string{
	"timestamp", "nav_date", "nav_pln", "btc_now", "roznica",
	"ft_price", "ft_change_abs", "ft_change_pct",
}

// Store appends comparison records to a flat CSV file. The file is the
// process's only durable state: it is read fully and rewritten fully on
// every append, prior rows untouched, with the header growing to the union
// of all columns ever written. Absent optional values serialize as empty
// cells, never as dropped columns.
//
// Single-writer by design: two overlapping invocations can lose a row. Use
// one scheduler tick at a time.
type Store struct {
	path string
}

func New(path string) *Store {
	return &Store{path: path}
}

// Append adds one record to the log, creating the file when missing.
func (s *Store) Append(rec pipeline.ComparisonRecord) error {
	header, rows, err := s.Load()
	if err != nil {
		return err
	}
	if len(header) == 0 {
		header = slices.Clone(recordColumns)
	}

	// Union of the existing header and this record's columns, existing
	// order first. Old rows get empty cells for any new column.
	for _, col := range recordColumns {
		if !slices.Contains(header, col) {
			header = append(header, col)
		}
	}
	for i, row := range rows {
		for len(row) < len(header) {
			row = append(row, "")
		}
		rows[i] = row
	}

	values := recordValues(rec)
	newRow := make([]string, len(header))
	for i, col := range header {
		newRow[i] = values[col]
	}
	rows = append(rows, newRow)

	return s.rewrite(header, rows)
}

// Load reads the whole history. A missing file yields empty results.
func (s *Store) Load() (header []string, rows [][]string, err error) {
	f, err := os.Open(s.path)
	if errors.Is(err, os.ErrNotExist) {
		return nil, nil, nil
	}
	if err != nil {
		return nil, nil, fmt.Errorf("open history: %w", err)
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.FieldsPerRecord = -1
	all, err := r.ReadAll()
	if err != nil {
		return nil, nil, fmt.Errorf("read history: %w", err)
	}
	if len(all) == 0 {
		return nil, nil, nil
	}
	return all[0], all[1:], nil
}

// Len returns the number of data rows.
func (s *Store) Len() (int, error) {
	_, rows, err := s.Load()
	return len(rows), err
}

func (s *Store) rewrite(header []string, rows [][]string) error {
	dir := filepath.Dir(s.path)
	tmp, err := os.CreateTemp(dir, ".history-*.csv")
	if err != nil {
		return fmt.Errorf("create history temp file: %w", err)
	}
	defer os.Remove(tmp.Name())

	w := csv.NewWriter(tmp)
	if err := w.Write(header); err != nil {
		tmp.Close()
		return fmt.Errorf("write history header: %w", err)
	}
	if err := w.WriteAll(rows); err != nil {
		tmp.Close()
		return fmt.Errorf("write history rows: %w", err)
	}
	w.Flush()
	if err := w.Error(); err != nil {
		tmp.Close()
		return fmt.Errorf("flush history: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close history temp file: %w", err)
	}
	if err := os.Rename(tmp.Name(), s.path); err != nil {
		return fmt.Errorf("replace history file: %w", err)
	}
	return nil
}

func recordValues(rec pipeline.ComparisonRecord) map[string]string {
	return map[string]string{
		"timestamp":     rec.Timestamp.Format("2006-01-02T15:04:05"),
		"nav_date":      rec.NavDate.Format("2006-01-02"),
		"nav_pln":       rec.NavValue.String(),
		"btc_now":       rec.SpotValue.String(),
		"roznica":       rec.Difference.String(),
		"ft_price":      optString(rec.AuxPrice),
		"ft_change_abs": optString(rec.AuxChangeAbs),
		"ft_change_pct": optString(rec.AuxChangePct),
	}
}

func optString(d *decimal.Decimal) string {
	if d == nil {
		return ""
	}
	return d.String()
}
