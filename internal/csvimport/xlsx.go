package csvimport

import (
	"fmt"
	"io"
	"strings"

	"github.com/xuri/excelize/v2"
)

// ParseXLSX reads the first sheet of a workbook and runs it through the
// same header reconciliation and validation as CSV input. Blank rows are
// dropped like blank lines.
func ParseXLSX(k Kind, r io.Reader) (*Result, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, fmt.Errorf("failed to open workbook: %w", err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return ParseRecords(k, nil), nil
	}

	rows, err := f.GetRows(sheets[0])
	if err != nil {
		return nil, fmt.Errorf("failed to read sheet %q: %w", sheets[0], err)
	}

	records := make([][]string, 0, len(rows))
	for _, row := range rows {
		blank := true
		cells := make([]string, len(row))
		for i, cell := range row {
			cells[i] = strings.TrimSpace(cell)
			if cells[i] != "" {
				blank = false
			}
		}
		if !blank {
			records = append(records, cells)
		}
	}
	return ParseRecords(k, records), nil
}

// IsXLSX reports whether a file name or content type denotes a workbook.
func IsXLSX(fileName, contentType string) bool {
	return strings.HasSuffix(strings.ToLower(fileName), ".xlsx") ||
		contentType == "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
}
