package export

import (
	"fmt"
	"log/slog"
	"math"
	"path/filepath"
	"strings"

	"github.com/xuri/excelize/v2"
)

const sheetName = "Documents"

// XLSX returns a workbook (as bytes) with one row per document across reports.
func XLSX(reports []Report, logger *slog.Logger) ([]byte, error) {
	if logger == nil {
		logger = slog.Default()
	}
	f := excelize.NewFile()
	defer func() { _ = f.Close() }()

	// rename the default sheet instead of leaving an empty "Sheet1"
	if err := f.SetSheetName(f.GetSheetName(0), sheetName); err != nil {
		return nil, err
	}
	idx, _ := f.GetSheetIndex(sheetName)
	f.SetActiveSheet(idx)

	headers := []string{
		"Source",
		"#",
		"Document Type",
		"Label",
		"Page Range",
		"Pages",
		"Confidence",
		"Text Length",
		"Preview",
	}
	for i, h := range headers {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		_ = f.SetCellValue(sheetName, cell, h)
	}

	row := 2
	for _, rep := range reports {
		source := filepath.Base(rep.Source)
		for i, d := range rep.Documents {
			write := func(col int, v any) {
				cell, _ := excelize.CoordinatesToCellName(col, row)
				_ = f.SetCellValue(sheetName, cell, v)
			}
			write(1, source)
			write(2, i+1)
			write(3, d.DocumentType)
			write(4, d.Label)
			write(5, d.PageRange)
			write(6, len(d.Pages))
			write(7, roundTo(d.Confidence, 2))
			write(8, d.TextLength)
			write(9, Preview(oneLine(d.ExtractedText), 140))
			row++
		}
	}

	_ = f.SetColWidth(sheetName, "A", "A", 28) // source
	_ = f.SetColWidth(sheetName, "B", "B", 5)
	_ = f.SetColWidth(sheetName, "C", "C", 30) // type
	_ = f.SetColWidth(sheetName, "D", "D", 48) // label
	_ = f.SetColWidth(sheetName, "E", "E", 14)
	_ = f.SetColWidth(sheetName, "F", "H", 12)
	_ = f.SetColWidth(sheetName, "I", "I", 80) // preview

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("xlsx write: %w", err)
	}
	logger.Info("export.xlsx.ok", "reports", len(reports), "rows", row-2)
	return buf.Bytes(), nil
}

func roundTo(v float64, places int) float64 {
	p := math.Pow(10, float64(places))
	return math.Round(v*p) / p
}

func oneLine(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
