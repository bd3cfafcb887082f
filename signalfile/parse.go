// Package signalfile turns an uploaded signals file into model.Signal rows.
package signalfile

import (
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strings"

	"screener/model"
)

// ErrParse wraps every failure to read a signals file.
var ErrParse = errors.New("parse error")

var (
	zipMagic  = []byte("PK\x03\x04")
	ole2Magic = []byte{0xD0, 0xCF, 0x11, 0xE0, 0xA1, 0xB1, 0x1A, 0xE1}
)

var (
	symbolHeaders = []string{"symbol", "ticker", "stock", "scrip"}
	dateHeaders   = []string{"date", "signal_date", "signal date"}
)

// Parse reads a CSV (any common delimiter) or XLSX payload. Rows come back in
// file order; Row is the 1-based data row number.
func Parse(payload []byte) ([]model.Signal, error) {
	if len(bytes.TrimSpace(payload)) == 0 {
		return nil, fmt.Errorf("%w: empty file", ErrParse)
	}

	var (
		rows [][]string
		err  error
	)
	switch {
	case bytes.HasPrefix(payload, zipMagic):
		rows, err = readXLSX(payload)
	case bytes.HasPrefix(payload, ole2Magic):
		return nil, fmt.Errorf("%w: legacy .xls workbooks are not supported, save as .xlsx or .csv", ErrParse)
	default:
		rows, err = readDelimited(payload)
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrParse, err)
	}
	return toSignals(rows)
}

func readDelimited(payload []byte) ([][]string, error) {
	text, err := decodeText(payload)
	if err != nil {
		return nil, err
	}
	r := csv.NewReader(strings.NewReader(text))
	r.Comma = sniffDelimiter(text)
	r.FieldsPerRecord = -1
	r.LazyQuotes = true
	r.TrimLeadingSpace = true

	var rows [][]string
	for {
		rec, err := r.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, err
		}
		rows = append(rows, rec)
	}
	return rows, nil
}

// sniffDelimiter picks the candidate that occurs most often on the first
// non-blank line. Comma wins when none occur.
func sniffDelimiter(text string) rune {
	line := ""
	for _, l := range strings.Split(text, "\n") {
		if strings.TrimSpace(l) != "" {
			line = l
			break
		}
	}
	best, bestN := ',', 0
	for _, d := range []rune{',', ';', '\t'} {
		if n := strings.Count(line, string(d)); n > bestN {
			best, bestN = d, n
		}
	}
	return best
}

func toSignals(rows [][]string) ([]model.Signal, error) {
	hdr := -1
	for i, row := range rows {
		if !blank(row) {
			hdr = i
			break
		}
	}
	if hdr < 0 {
		return nil, fmt.Errorf("%w: no header row", ErrParse)
	}

	symCol, dateCol := -1, -1
	for i, cell := range rows[hdr] {
		name := strings.ToLower(strings.TrimSpace(cell))
		if symCol < 0 && contains(symbolHeaders, name) {
			symCol = i
		}
		if dateCol < 0 && contains(dateHeaders, name) {
			dateCol = i
		}
	}
	if symCol < 0 || dateCol < 0 {
		return nil, fmt.Errorf("%w: file must have symbol and date columns", ErrParse)
	}

	var out []model.Signal
	for _, row := range rows[hdr+1:] {
		if blank(row) {
			continue
		}
		out = append(out, model.Signal{
			Row:     len(out) + 1,
			Symbol:  strings.TrimSpace(cell(row, symCol)),
			RawDate: cell(row, dateCol),
		})
	}
	if len(out) == 0 {
		return nil, fmt.Errorf("%w: no signal rows", ErrParse)
	}
	return out, nil
}

func cell(row []string, i int) string {
	if i < len(row) {
		return row[i]
	}
	return ""
}

func blank(row []string) bool {
	for _, c := range row {
		if strings.TrimSpace(c) != "" {
			return false
		}
	}
	return true
}

func contains(xs []string, s string) bool {
	for _, x := range xs {
		if x == s {
			return true
		}
	}
	return false
}
