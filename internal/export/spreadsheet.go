package export

import (
	"fmt"
	"unicode/utf8"

	"github.com/xuri/excelize/v2"

	"parley/internal/domain"
)

const (
	sheetName      = "Chat Export"
	minColumnWidth = 15
)

// Spreadsheet renders one row per pair under "Original Text" / "Translated Text"
// headers. Each column is as wide as its longest cell, never narrower than 15
// and never wider than excelize allows.
func Spreadsheet(pairs []domain.Pair) ([]byte, error) {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", sheetName); err != nil {
		return nil, fmt.Errorf("rename sheet: %w", err)
	}

	rows := make([][2]string, 0, len(pairs)+1)
	rows = append(rows, [2]string{"Original Text", "Translated Text"})
	widths := [2]int{minColumnWidth, minColumnWidth}
	for _, pair := range pairs {
		rows = append(rows, [2]string{pair.Original, pair.Translated})
		widths[0] = max(widths[0], utf8.RuneCountInString(pair.Original))
		widths[1] = max(widths[1], utf8.RuneCountInString(pair.Translated))
	}

	for r, row := range rows {
		for c, value := range row {
			cell, err := excelize.CoordinatesToCellName(c+1, r+1)
			if err != nil {
				return nil, err
			}
			if err := f.SetCellValue(sheetName, cell, value); err != nil {
				return nil, fmt.Errorf("write %s: %w", cell, err)
			}
		}
	}

	header, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return nil, fmt.Errorf("header style: %w", err)
	}
	if err := f.SetCellStyle(sheetName, "A1", "B1", header); err != nil {
		return nil, fmt.Errorf("header style: %w", err)
	}

	for c, width := range widths {
		column, err := excelize.ColumnNumberToName(c + 1)
		if err != nil {
			return nil, err
		}
		width = min(width, excelize.MaxColumnWidth)
		if err := f.SetColWidth(sheetName, column, column, float64(width)); err != nil {
			return nil, fmt.Errorf("column %s width: %w", column, err)
		}
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("write workbook: %w", err)
	}
	return buf.Bytes(), nil
}
