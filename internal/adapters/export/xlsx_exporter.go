package export

import (
	"fmt"
	"io"
	"sort"

	"cargo-logistics-service/internal/domain"

	"github.com/xuri/excelize/v2"
)

const (
	dataSheet   = "Report"
	totalsSheet = "Totals"
)

// XLSXExporter renders a report table as an Excel workbook: the data rows on
// one sheet and the headline totals on a second.
type XLSXExporter struct{}

func (XLSXExporter) ContentType() string {
	return "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
}

func (XLSXExporter) Extension() string { return "xlsx" }

func (XLSXExporter) Export(w io.Writer, r *domain.Report) error {
	f := excelize.NewFile()
	defer f.Close()

	index, err := f.NewSheet(dataSheet)
	if err != nil {
		return fmt.Errorf("export report: new sheet: %w", err)
	}
	f.SetActiveSheet(index)
	if err := f.DeleteSheet("Sheet1"); err != nil {
		return fmt.Errorf("export report: drop default sheet: %w", err)
	}

	bold, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return fmt.Errorf("export report: header style: %w", err)
	}

	for i, header := range r.Result.Columns {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		if err := f.SetCellValue(dataSheet, cell, header); err != nil {
			return fmt.Errorf("export report: header %s: %w", cell, err)
		}
	}
	if n := len(r.Result.Columns); n > 0 {
		last, _ := excelize.CoordinatesToCellName(n, 1)
		_ = f.SetCellStyle(dataSheet, "A1", last, bold)
	}

	for ri, row := range r.Result.Rows {
		for ci, v := range row {
			cell, _ := excelize.CoordinatesToCellName(ci+1, ri+2)
			if err := f.SetCellValue(dataSheet, cell, v); err != nil {
				return fmt.Errorf("export report: cell %s: %w", cell, err)
			}
		}
	}

	if _, err := f.NewSheet(totalsSheet); err != nil {
		return fmt.Errorf("export report: totals sheet: %w", err)
	}
	meta := [][2]string{
		{"Report", r.Name},
		{"Type", string(r.Type)},
		{"From", r.Parameters.DateFrom.Format("2006-01-02")},
		{"To", r.Parameters.DateTo.Format("2006-01-02")},
	}
	keys := make([]string, 0, len(r.Result.Totals))
	for k := range r.Result.Totals {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		meta = append(meta, [2]string{k, r.Result.Totals[k]})
	}
	for i, kv := range meta {
		row := i + 1
		_ = f.SetCellValue(totalsSheet, fmt.Sprintf("A%d", row), kv[0])
		_ = f.SetCellValue(totalsSheet, fmt.Sprintf("B%d", row), kv[1])
	}
	_ = f.SetCellStyle(totalsSheet, "A1", fmt.Sprintf("A%d", len(meta)), bold)

	if err := f.Write(w); err != nil {
		return fmt.Errorf("export report: write workbook: %w", err)
	}
	return nil
}
