package workbook

import (
	"bytes"
	"fmt"
	"log/slog"

	"github.com/xuri/excelize/v2"
)

// readXLSX reads every sheet with raw cell values: dates arrive as Excel
// serial numbers and times of day as day fractions, which the normalizers
// decode.
func readXLSX(data []byte, name string) (*Book, error) {
	f, err := excelize.OpenReader(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("open workbook %s: %w", name, err)
	}
	defer f.Close()

	b := NewBook(name)
	for _, sheet := range f.GetSheetList() {
		rows, err := f.GetRows(sheet, excelize.Options{RawCellValue: true})
		if err != nil {
			return nil, fmt.Errorf("read sheet %s: %w", sheet, err)
		}
		s := fromRecords(sheet, rows)
		slog.Debug("workbook.sheet.read", "sheet", sheet, "columns", len(s.Header), "rows", len(s.Rows))
		b.add(s)
	}
	return b, nil
}
