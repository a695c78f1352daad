// SPDX-License-Identifier: MIT

package table

import (
	"bufio"
	"bytes"
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
)

// utf8BOM is stripped from the first header cell.
const utf8BOM = "\ufeff"

// candidateDelims are probed, in order of preference, by DetectDelimiter.
var candidateDelims = []rune{',', ';', '\t'}

// ReadOptions controls Read.
type ReadOptions struct {
	// Delimiter is the field separator; 0 auto-detects from the header line.
	Delimiter rune
}

// DetectDelimiter picks the candidate separator occurring most often in
// line. Ties resolve to ',' first.
func DetectDelimiter(line string) rune {
	best, count := ',', 0
	for _, d := range candidateDelims {
		if n := strings.Count(line, string(d)); n > count {
			best, count = d, n
		}
	}

	return best
}

// ReadRecords reads all non-empty records from a delimited file with BOM
// and surrounding whitespace stripped from every cell.
func ReadRecords(path string, delim rune) ([][]string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	data = bytes.TrimPrefix(data, []byte(utf8BOM))
	if delim == 0 {
		line, _, _ := bufio.NewReader(bytes.NewReader(data)).ReadLine()
		delim = DetectDelimiter(string(line))
	}
	r := csv.NewReader(bytes.NewReader(data))
	r.Comma = delim
	r.FieldsPerRecord = -1
	r.LazyQuotes = true
	r.TrimLeadingSpace = true

	var out [][]string
	for {
		rec, err := r.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("parse %s: %w", path, err)
		}
		empty := true
		for i := range rec {
			rec[i] = strings.TrimSpace(strings.TrimPrefix(rec[i], utf8BOM))
			if rec[i] != "" {
				empty = false
			}
		}
		if !empty {
			out = append(out, rec)
		}
	}

	return out, nil
}

// Read loads a CSV file as a raw table (every column is a key column).
// Short rows are padded with empty cells; long rows are an error.
func Read(path string, opts ReadOptions) (*Table, error) {
	recs, err := ReadRecords(path, opts.Delimiter)
	if err != nil {
		return nil, err
	}
	if len(recs) == 0 {
		return nil, fmt.Errorf("%w: %s", ErrEmptyFile, path)
	}
	t, err := New(recs[0], "")
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	for n, rec := range recs[1:] {
		if len(rec) > len(t.cols) {
			return nil, fmt.Errorf("%s line %d: %w", path, n+2, ErrRowWidth)
		}
		row := make([]string, len(t.cols))
		copy(row, rec)
		t.keys = append(t.keys, row)
		t.vals = append(t.vals, 0)
	}

	return t, nil
}

// ReadValues reads path and resolves its value column from aliases.
func ReadValues(path string, opts ReadOptions, aliases ...string) (*Table, error) {
	t, err := Read(path, opts)
	if err != nil {
		return nil, err
	}
	out, err := t.EnsureValue(aliases...)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}

	return out, nil
}

// Write stores t as CSV (key columns then value column), creating parent
// directories as needed. delim 0 means ','.
func (t *Table) Write(path string, delim rune) error {
	if delim == 0 {
		delim = ','
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("mkdir %s: %w", filepath.Dir(path), err)
	}
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	defer f.Close()

	w := csv.NewWriter(f)
	w.Comma = delim
	header := t.Columns()
	if t.value != "" {
		header = append(header, t.value)
	}
	if err = w.Write(header); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	for i, row := range t.keys {
		rec := append([]string(nil), row...)
		if t.value != "" {
			rec = append(rec, FormatValue(t.vals[i]))
		}
		if err = w.Write(rec); err != nil {
			return fmt.Errorf("write %s: %w", path, err)
		}
	}
	w.Flush()
	if err = w.Error(); err != nil {
		return fmt.Errorf("flush %s: %w", path, err)
	}

	return f.Close()
}
