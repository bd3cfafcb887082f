package signalfile

import (
	"bytes"
	"fmt"
	"strconv"
	"strings"

	"github.com/xuri/excelize/v2"
)

// readXLSX returns the cell text of the first worksheet. Date-formatted
// numeric cells come back as YYYY-MM-DD rather than the locale display form.
func readXLSX(payload []byte) ([][]string, error) {
	f, err := excelize.OpenReader(bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("open workbook: %w", err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, fmt.Errorf("workbook has no sheets")
	}
	sheet := sheets[0]

	shown, err := f.GetRows(sheet)
	if err != nil {
		return nil, fmt.Errorf("read sheet %q: %w", sheet, err)
	}
	raw, err := f.GetRows(sheet, excelize.Options{RawCellValue: true})
	if err != nil {
		return nil, fmt.Errorf("read sheet %q: %w", sheet, err)
	}

	for i, row := range shown {
		if i >= len(raw) {
			break
		}
		for j, v := range row {
			if j >= len(raw[i]) || raw[i][j] == v {
				continue
			}
			if d, ok := serialDate(raw[i][j], v); ok {
				row[j] = d
			}
		}
	}
	return shown, nil
}

// serialDate converts a spreadsheet date serial whose display text looks
// like a date.
func serialDate(raw, shown string) (string, bool) {
	if !strings.ContainsAny(strings.TrimPrefix(shown, "-"), "-/") {
		return "", false
	}
	serial, err := strconv.ParseFloat(raw, 64)
	if err != nil || serial <= 0 {
		return "", false
	}
	t, err := excelize.ExcelDateToTime(serial, false)
	if err != nil {
		return "", false
	}
	return t.Format("2006-01-02"), true
}
